// Package expense implements the expense resolver (spec §4.2): given a
// total amount, a payer, and a list of participants each tagged with
// optional additive ("+") and multiplicative ("*") weights, it computes each
// participant's share and applies the result to a ledger.
package expense

import (
	"errors"
	"fmt"
	"time"

	"github.com/arnavp/treasurer/internal/ledger"
	"github.com/arnavp/treasurer/internal/money"
)

// Finalization errors (spec §7). All three are recoverable at the boundary:
// the whole expense is discarded and no ledger mutation occurs.
var (
	ErrEmptyExpense    = errors.New("expense has no participants")
	ErrPlusModTooLarge = errors.New("sum of plus modifiers exceeds the expense amount")
	ErrPhantomMoney    = errors.New("amount exceeds plus modifiers but no participant has a star weight to absorb it")
)

// participant holds one participant's modifiers prior to finalization.
// A missing plusMod is 0; a missing starMod is 1 (spec §4.2, "Modifier
// normalization").
type participant struct {
	user    ledger.User
	plusMod money.Money
	starMod money.Money
	isPayer bool
}

// Share is one non-payer participant's computed debt for a finalized expense.
type Share struct {
	User    ledger.User
	PlusMod money.Money
	StarMod money.Money
	Amount  money.Money
}

// Expense is a draft expense under construction, or — once Finalized is
// true — an immutable, sealed record (spec §3 "Expense", §4.2 "States").
type Expense struct {
	Date         time.Time
	Description  string
	Amount       money.Money
	Payer        ledger.User
	participants []participant

	Finalized   bool
	Shares      []Share     // non-payer shares, populated on finalize
	PayerCredit money.Money // sum of Shares, populated on finalize
}

// New starts a draft expense. date is the wall-clock instant of submission;
// amount must be non-negative at scale 2 (callers are expected to have
// parsed it through money.New already).
func New(date time.Time, description string, amount money.Money, payer ledger.User) *Expense {
	return &Expense{
		Date:        date,
		Description: description,
		Amount:      amount,
		Payer:       payer,
	}
}

// AddParticipant registers one participant with optional modifiers. A nil
// plusMod normalizes to 0; a nil starMod normalizes to 1 (spec §4.2).
// Calling AddParticipant after Finalize is a silent no-op — the contract is
// that callers never do this, but the resolver defends the invariant
// anyway (spec §4.2, "States").
func (e *Expense) AddParticipant(u ledger.User, plusMod, starMod *money.Money) {
	if e.Finalized {
		return
	}
	p := participant{user: u, isPayer: u == e.Payer}
	if plusMod != nil {
		p.plusMod = *plusMod
	}
	if starMod != nil {
		p.starMod = *starMod
	} else {
		p.starMod = money.MustNew("1")
	}
	e.participants = append(e.participants, p)
}

// Participants reports the current draft participant count. The resolver
// assumes a duplicate-free list and does not check for duplicates itself;
// rejecting them is left to the caller (spec §4.2 contract, spec §7).
func (e *Expense) Participants() int {
	return len(e.participants)
}

// Finalize runs the algorithm of spec §4.2 steps 1-6: validates the
// participant set, computes commonFraction, computes each non-payer's
// share, and applies the result to l. On any of the three documented
// failures, l is left untouched and the expense stays a draft (Finalized
// remains false).
func (e *Expense) Finalize(l *ledger.Ledger) error {
	if e.Finalized {
		return nil
	}
	if len(e.participants) == 0 {
		return ErrEmptyExpense
	}

	totalPlus := money.Zero
	totalStar := money.Zero
	for _, p := range e.participants {
		totalPlus = totalPlus.Add(p.plusMod)
		totalStar = totalStar.Add(p.starMod)
	}

	var commonFraction money.Fraction
	switch e.Amount.Cmp(totalPlus) {
	case -1:
		return ErrPlusModTooLarge
	case 0:
		// commonFraction stays the zero Fraction.
	default: // amount > totalPlus
		if totalStar.IsZero() {
			return ErrPhantomMoney
		}
		commonFraction = money.DivideAtScale3(e.Amount.Sub(totalPlus), totalStar)
	}

	shares := make([]Share, 0, len(e.participants))
	payerCredit := money.Zero
	for _, p := range e.participants {
		if p.isPayer {
			continue
		}
		share := commonFraction.MulMoney(p.starMod).Add(p.plusMod)
		shares = append(shares, Share{User: p.user, PlusMod: p.plusMod, StarMod: p.starMod, Amount: share})
		payerCredit = payerCredit.Add(share)
	}

	// Atomic apply: compute everything above before touching the ledger so a
	// failure never leaves a partial mutation (spec §3, "finalization is
	// atomic").
	l.Credit(e.Payer, payerCredit)
	for _, s := range shares {
		l.Debit(s.User, s.Amount)
	}

	e.Shares = shares
	e.PayerCredit = payerCredit
	e.Finalized = true
	return nil
}

// String renders a human-readable summary, mainly for logging.
func (e *Expense) String() string {
	return fmt.Sprintf("Expense{payer=%s amount=%s participants=%d finalized=%t}",
		e.Payer.Name, e.Amount.String(), len(e.participants), e.Finalized)
}
