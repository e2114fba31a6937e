package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arnavp/treasurer/internal/money"
	"github.com/arnavp/treasurer/internal/storage"
)

// The three opaque keys of spec §6. Values are JSON blobs; the engine never
// queries by key prefix or joins across rows, matching the "values are
// opaque to the host" contract.
const (
	keyExpenseHistory = "expense_history"
	keyLedger         = "ledger"
	keyGroups         = "groups"
)

// get reads the raw value for key, returning (nil, nil) when the key has
// never been written (spec §6, "missing key is initialized with the empty
// collection").
func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return []byte(value), nil
}

// put upserts the raw value for key.
func (s *SQLiteStore) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv_store (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// LoadHistory returns the ordered expense history, or an empty slice if it
// has never been written.
func (s *SQLiteStore) LoadHistory(ctx context.Context) ([]storage.ExpenseRecord, error) {
	raw, err := s.get(ctx, keyExpenseHistory)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var history []storage.ExpenseRecord
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("failed to decode expense history: %w", err)
	}
	return history, nil
}

// SaveHistory replaces the stored expense history wholesale. The history is
// an append-only list at the engine layer; the store itself has no
// incremental-append operation, matching the opaque-blob contract of §6.
func (s *SQLiteStore) SaveHistory(ctx context.Context, history []storage.ExpenseRecord) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode expense history: %w", err)
	}
	return s.put(ctx, keyExpenseHistory, raw)
}

// LoadLedger returns the persisted balance map, or an empty map if it has
// never been written.
func (s *SQLiteStore) LoadLedger(ctx context.Context) (map[string]money.Money, error) {
	raw, err := s.get(ctx, keyLedger)
	if err != nil {
		return nil, err
	}
	balances := make(map[string]money.Money)
	if raw == nil {
		return balances, nil
	}
	if err := json.Unmarshal(raw, &balances); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	return balances, nil
}

// SaveLedger replaces the stored ledger wholesale.
func (s *SQLiteStore) SaveLedger(ctx context.Context, balances map[string]money.Money) error {
	raw, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	return s.put(ctx, keyLedger, raw)
}

// LoadGroups returns the group directory as group name -> sorted member
// handles, or an empty map if it has never been written.
func (s *SQLiteStore) LoadGroups(ctx context.Context) (map[string][]string, error) {
	raw, err := s.get(ctx, keyGroups)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]string)
	if raw == nil {
		return groups, nil
	}
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode group directory: %w", err)
	}
	return groups, nil
}

// SaveGroups replaces the stored group directory wholesale.
func (s *SQLiteStore) SaveGroups(ctx context.Context, groups map[string][]string) error {
	raw, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("failed to encode group directory: %w", err)
	}
	return s.put(ctx, keyGroups, raw)
}
