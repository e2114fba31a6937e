// Package storage provides the persistence facade (spec §6): three
// opaque-to-the-host keys (expense history, ledger, group directory) plus
// the user-account store needed by the auth layer (not part of the engine's
// own contract, but required to actually run the service).
package storage

import (
	"context"
	"time"

	"github.com/arnavp/treasurer/internal/money"
)

// ShareRecord is the persisted form of one non-payer share of a finalized
// expense (spec §3 "Expense.participants").
type ShareRecord struct {
	User    string
	PlusMod money.Money
	StarMod money.Money
	Amount  money.Money
}

// ExpenseRecord is the persisted form of a finalized expense, the unit the
// expense history key stores an ordered list of (spec §6, "one key for the
// ordered expense history").
type ExpenseRecord struct {
	Date        time.Time
	Description string
	Amount      money.Money
	Payer       string
	Shares      []ShareRecord
}

// User is an authenticated account. Orthogonal to the ledger domain: an
// account names who may issue commands, not a ledger participant (a User in
// the engine sense is just a 2-letter handle).
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    int64
	UpdatedAt    int64
}

// Store is the storage facade consumed by the engine. Each Load/Save pair
// corresponds to one of the three opaque keys of spec §6; on first load, a
// missing key returns the empty collection rather than an error (spec §6,
// "On first load, any missing key is initialized with the empty
// collection").
type Store interface {
	LoadHistory(ctx context.Context) ([]ExpenseRecord, error)
	SaveHistory(ctx context.Context, history []ExpenseRecord) error

	LoadLedger(ctx context.Context) (map[string]money.Money, error)
	SaveLedger(ctx context.Context, balances map[string]money.Money) error

	LoadGroups(ctx context.Context) (map[string][]string, error)
	SaveGroups(ctx context.Context, groups map[string][]string) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)

	Close() error
}
