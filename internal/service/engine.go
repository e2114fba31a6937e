// Package service binds the command surface (internal/parser) to the
// engine (internal/money, internal/ledger, internal/expense,
// internal/settlement, internal/group) and the storage facade
// (internal/storage), and exposes the result over plain net/http.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arnavp/treasurer/internal/expense"
	"github.com/arnavp/treasurer/internal/group"
	"github.com/arnavp/treasurer/internal/ledger"
	"github.com/arnavp/treasurer/internal/money"
	"github.com/arnavp/treasurer/internal/parser"
	"github.com/arnavp/treasurer/internal/settlement"
	"github.com/arnavp/treasurer/internal/storage"
)

// Engine is the single-writer, in-process state the command surface
// operates on: ledger, group directory, and expense history, backed by a
// storage.Store. Every exported method acquires mu, matching the
// single-threaded, non-reentrant execution model of the engine: one
// operation runs to completion before the next begins (no engine-internal
// concurrency; the lock only serializes concurrent HTTP requests against
// that single conceptual writer).
type Engine struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	groups  *group.Directory
	history []storage.ExpenseRecord
	store   storage.Store
}

// NewEngine loads the three persisted keys (expense history, ledger, group
// directory) from store, defaulting each to its empty collection on first
// load, and returns a ready-to-use Engine.
func NewEngine(ctx context.Context, store storage.Store) (*Engine, error) {
	hist, err := store.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	balances, err := store.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	groupMembers, err := store.LoadGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}

	l := ledger.New()
	for name, bal := range balances {
		l.Credit(ledger.NewUser(name), bal)
	}

	dir := group.New()
	for name, members := range groupMembers {
		// Groups loaded from storage are assumed already valid (they were
		// validated on creation); Create only fails here on a duplicate key,
		// which storage guarantees cannot happen.
		_ = dir.Create(name)
		for _, m := range members {
			_ = dir.Add(name, ledger.NewUser(m))
		}
	}

	return &Engine{
		ledger:  l,
		groups:  dir,
		history: hist,
		store:   store,
	}, nil
}

// Execute runs one line of input on behalf of actingUser (the
// JWT-authenticated caller, who doubles as the expense payer and as the
// asking user for BALANCE/HISTORY). The response string is what the host
// reports back: "Done" on a successful mutation, formatted lines for
// BALANCE/HISTORY, or "" for anything silently dropped (spec §7).
func (e *Engine) Execute(ctx context.Context, actingUser, line string) (string, error) {
	cmd := parser.Parse(line)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch cmd.Kind {
	case parser.KindBalance:
		return e.balance(), nil
	case parser.KindHistory:
		return e.historyFor(actingUser), nil
	case parser.KindCreateGroup:
		if err := e.groups.Create(cmd.Group); err != nil {
			slog.Warn("create group failed", "group", cmd.Group, "error", err)
			return "", nil
		}
		if err := e.persistGroups(ctx); err != nil {
			return "", err
		}
		slog.Info("group created", "group", cmd.Group)
		return "Done", nil
	case parser.KindAddMember:
		if err := e.groups.Add(cmd.Group, ledger.NewUser(cmd.User)); err != nil {
			slog.Warn("add member failed", "group", cmd.Group, "user", cmd.User, "error", err)
			return "", nil
		}
		if err := e.persistGroups(ctx); err != nil {
			return "", err
		}
		slog.Info("member added", "group", cmd.Group, "user", cmd.User)
		return "Done", nil
	case parser.KindDeleteMember:
		if err := e.groups.Remove(cmd.Group, ledger.NewUser(cmd.User)); err != nil {
			slog.Warn("remove member failed", "group", cmd.Group, "user", cmd.User, "error", err)
			return "", nil
		}
		if err := e.persistGroups(ctx); err != nil {
			return "", err
		}
		slog.Info("member removed", "group", cmd.Group, "user", cmd.User)
		return "Done", nil
	case parser.KindExpense:
		return e.finalizeExpense(ctx, actingUser, cmd)
	default:
		slog.Warn("unrecognized command dropped", "user", actingUser)
		return "", nil
	}
}

// expandParticipant resolves one parsed participant into its constituent
// users: a 2-letter handle names a user directly; a longer handle names a
// group and expands to every current member, each inheriting the group
// entry's modifiers.
func (e *Engine) expandParticipant(p parser.Participant) []parser.Participant {
	if len(p.Handle) == 2 {
		return []parser.Participant{p}
	}
	members, err := e.groups.Members(p.Handle)
	if err != nil {
		return nil
	}
	out := make([]parser.Participant, 0, len(members))
	for _, m := range members {
		out = append(out, parser.Participant{Handle: m.Name, PlusMod: p.PlusMod, StarMod: p.StarMod})
	}
	return out
}

func (e *Engine) finalizeExpense(ctx context.Context, actingUser string, cmd parser.Command) (string, error) {
	payer := ledger.NewUser(actingUser)
	exp := expense.New(time.Now(), cmd.Description, cmd.Amount, payer)

	seen := make(map[string]bool)
	for _, raw := range cmd.Participants {
		for _, p := range e.expandParticipant(raw) {
			if seen[p.Handle] {
				// Duplicate participant reached via direct handle and group
				// membership: abort without a reported error (spec §7).
				slog.Warn("duplicate participant, expense dropped", "user", actingUser, "handle", p.Handle)
				return "", nil
			}
			seen[p.Handle] = true
			exp.AddParticipant(ledger.NewUser(p.Handle), p.PlusMod, p.StarMod)
		}
	}

	if err := exp.Finalize(e.ledger); err != nil {
		slog.Warn("expense finalize failed", "user", actingUser, "amount", cmd.Amount.String(), "error", err)
		recordFailure(err)
		return "", nil
	}

	record := storage.ExpenseRecord{
		Date:        exp.Date,
		Description: exp.Description,
		Amount:      exp.Amount,
		Payer:       exp.Payer.Name,
	}
	for _, s := range exp.Shares {
		record.Shares = append(record.Shares, storage.ShareRecord{
			User: s.User.Name, PlusMod: s.PlusMod, StarMod: s.StarMod, Amount: s.Amount,
		})
	}
	e.history = append(e.history, record)

	if err := e.store.SaveHistory(ctx, e.history); err != nil {
		return "", fmt.Errorf("save history: %w", err)
	}
	if err := e.persistLedger(ctx); err != nil {
		return "", err
	}

	recordFinalized()
	slog.Info("expense finalized", "payer", actingUser, "amount", cmd.Amount.String(), "participants", len(exp.Shares))
	return "Done", nil
}

// balance runs the settlement optimizer over the current ledger snapshot
// and formats each statement as "<debtor> owes <creditor> <amount>".
func (e *Engine) balance() string {
	start := time.Now()
	statements := settlement.Generate(e.ledger.Snapshot())
	recordSettlement(time.Since(start), countComponents(statements))
	slog.Info("settlement computed", "statements", len(statements))

	var out string
	for i, s := range statements {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("%s owes %s %s", s.Debtor.Name, s.Creditor.Name, s.Amount.String())
	}
	return out
}

// historyFor formats every expense touching user as one line, filtered and
// oriented to that user's side of the transaction (spec §6).
func (e *Engine) historyFor(user string) string {
	var lines []string
	for _, rec := range e.history {
		date := rec.Date.Format("02/01/2006")
		desc := rec.Description

		if rec.Payer == user {
			total := money.Zero
			for _, s := range rec.Shares {
				total = total.Add(s.Amount)
			}
			lines = append(lines, historyLine(date, desc, "you get back", total.String()))
			continue
		}
		for _, s := range rec.Shares {
			if s.User == user {
				lines = append(lines, historyLine(date, desc, "you pay back", s.Amount.String()))
				break
			}
		}
	}
	var out string
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func historyLine(date, desc, verb, amount string) string {
	if desc == "" {
		return fmt.Sprintf("%s - %s %s", date, verb, amount)
	}
	return fmt.Sprintf("%s %s - %s %s", date, desc, verb, amount)
}

func (e *Engine) persistLedger(ctx context.Context) error {
	if err := e.store.SaveLedger(ctx, e.ledger.Snapshot()); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (e *Engine) persistGroups(ctx context.Context) error {
	out := make(map[string][]string)
	for _, name := range e.groups.Names() {
		members, _ := e.groups.Members(name)
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = m.Name
		}
		out[name] = names
	}
	if err := e.store.SaveGroups(ctx, out); err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	return nil
}

// countComponents returns the number of connected components the settlement
// statements decompose into, via union-find over the users they touch. Two
// users are in the same component iff some chain of statements links them
// (spec §4.3: a settlement is n-k transfers across k independent
// components).
func countComponents(statements []settlement.Statement) int {
	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if p, ok := parent[x]; ok && p != x {
			parent[x] = find(p)
			return parent[x]
		}
		parent[x] = x
		return x
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, s := range statements {
		if _, ok := parent[s.Debtor.Name]; !ok {
			parent[s.Debtor.Name] = s.Debtor.Name
		}
		if _, ok := parent[s.Creditor.Name]; !ok {
			parent[s.Creditor.Name] = s.Creditor.Name
		}
		union(s.Debtor.Name, s.Creditor.Name)
	}

	roots := make(map[string]bool)
	for k := range parent {
		roots[find(k)] = true
	}
	return len(roots)
}
