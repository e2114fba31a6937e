// Package ledger holds the running per-user credit/debit state (spec §3,
// "Ledger (Balance)"): a map from User to signed Money, with the invariant
// that no entry is ever stored at exactly zero and the sum of all entries is
// always zero once a fully-applied expense has settled.
package ledger

import (
	"sort"

	"github.com/arnavp/treasurer/internal/money"
)

// User is an opaque identifier with value equality on its name. Two Users
// with identical names are the same user (spec §3).
type User struct {
	Name string
}

// NewUser builds a User from a handle string.
func NewUser(name string) User {
	return User{Name: name}
}

// Ledger is the mutable per-user balance map. The zero value is not usable
// (its map is nil); construct with New.
type Ledger struct {
	balances map[string]money.Money
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{balances: make(map[string]money.Money)}
}

// Credit adds delta to user's balance (delta may be negative; Credit and
// Debit are the same operation, the sign tells them apart). If the resulting
// balance is exactly zero the entry is removed, preserving the
// no-zero-entries invariant.
func (l *Ledger) Credit(u User, delta money.Money) {
	cur := l.balances[u.Name]
	next := cur.Add(delta)
	if next.IsZero() {
		delete(l.balances, u.Name)
		return
	}
	l.balances[u.Name] = next
}

// Debit subtracts delta from user's balance. Equivalent to Credit(u, delta.Neg()).
func (l *Ledger) Debit(u User, delta money.Money) {
	l.Credit(u, delta.Neg())
}

// Balance returns the current signed balance for u. Zero for any user with
// no entry (the invariant guarantees a stored entry is never exactly zero,
// so "no entry" and "zero balance" coincide).
func (l *Ledger) Balance(u User) money.Money {
	return l.balances[u.Name]
}

// Users returns every user with a non-zero balance, sorted by name for
// deterministic iteration.
func (l *Ledger) Users() []User {
	names := make([]string, 0, len(l.balances))
	for n := range l.balances {
		names = append(names, n)
	}
	sort.Strings(names)
	users := make([]User, len(names))
	for i, n := range names {
		users[i] = User{Name: n}
	}
	return users
}

// Snapshot returns a defensive copy of the current balances, keyed by user
// name. The settlement optimizer operates on a snapshot and never mutates
// the live ledger (spec §3, "the ledger itself is not modified by
// settlement computation").
func (l *Ledger) Snapshot() map[string]money.Money {
	out := make(map[string]money.Money, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

// Sum returns the sum of all entries. Should always equal money.Zero after
// any sequence of fully-applied expense finalizations; exported for property
// tests.
func (l *Ledger) Sum() money.Money {
	sum := money.Zero
	for _, v := range l.balances {
		sum = sum.Add(v)
	}
	return sum
}

// IsEmpty reports whether the ledger has no non-zero entries.
func (l *Ledger) IsEmpty() bool {
	return len(l.balances) == 0
}
