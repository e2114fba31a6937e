package expense

import (
	"errors"
	"testing"
	"time"

	"github.com/arnavp/treasurer/internal/ledger"
	"github.com/arnavp/treasurer/internal/money"
)

func mustMoney(s string) money.Money { return money.MustNew(s) }

func TestEqualSplit(t *testing.T) {
	l := ledger.New()
	aa, bb, cc := ledger.NewUser("AA"), ledger.NewUser("BB"), ledger.NewUser("CC")

	e := New(time.Now(), "", mustMoney("30"), aa)
	e.AddParticipant(aa, nil, nil)
	e.AddParticipant(bb, nil, nil)
	e.AddParticipant(cc, nil, nil)

	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}
	if got := l.Balance(aa); got.String() != "20.00" {
		t.Errorf("AA balance = %s, want 20.00", got.String())
	}
	if got := l.Balance(bb); got.String() != "-10.00" {
		t.Errorf("BB balance = %s, want -10.00", got.String())
	}
	if got := l.Balance(cc); got.String() != "-10.00" {
		t.Errorf("CC balance = %s, want -10.00", got.String())
	}
	if !l.Sum().IsZero() {
		t.Errorf("ledger sum = %s, want 0", l.Sum().String())
	}
}

func TestPlusModifier(t *testing.T) {
	l := ledger.New()
	aa, bb, cc := ledger.NewUser("AA"), ledger.NewUser("BB"), ledger.NewUser("CC")
	five := mustMoney("5")

	e := New(time.Now(), "", mustMoney("30"), aa)
	e.AddParticipant(aa, nil, nil)
	e.AddParticipant(bb, &five, nil)
	e.AddParticipant(cc, nil, nil)

	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}
	if got := l.Balance(bb); got.String() != "-13.33" {
		t.Errorf("BB balance = %s, want -13.33", got.String())
	}
	if got := l.Balance(cc); got.String() != "-8.33" {
		t.Errorf("CC balance = %s, want -8.33", got.String())
	}
	if got := l.Balance(aa); got.String() != "21.66" {
		t.Errorf("AA balance = %s, want 21.66", got.String())
	}
}

func TestStarModifier(t *testing.T) {
	l := ledger.New()
	aa, bb, cc := ledger.NewUser("AA"), ledger.NewUser("BB"), ledger.NewUser("CC")
	one, three := mustMoney("1"), mustMoney("3")

	e := New(time.Now(), "", mustMoney("100"), aa)
	e.AddParticipant(aa, nil, &one)
	e.AddParticipant(bb, nil, &three)
	e.AddParticipant(cc, nil, &one)

	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize() = %v", err)
	}
	if got := l.Balance(bb); got.String() != "-60.00" {
		t.Errorf("BB balance = %s, want -60.00", got.String())
	}
	if got := l.Balance(cc); got.String() != "-20.00" {
		t.Errorf("CC balance = %s, want -20.00", got.String())
	}
	if got := e.PayerCredit; got.String() != "80.00" {
		t.Errorf("payer credit = %s, want 80.00", got.String())
	}
}

func TestPlusModTooLarge(t *testing.T) {
	l := ledger.New()
	aa, bb := ledger.NewUser("AA"), ledger.NewUser("BB")
	twenty := mustMoney("20")

	e := New(time.Now(), "", mustMoney("10"), aa)
	e.AddParticipant(aa, nil, nil)
	e.AddParticipant(bb, &twenty, nil)

	err := e.Finalize(l)
	if !errors.Is(err, ErrPlusModTooLarge) {
		t.Fatalf("Finalize() = %v, want ErrPlusModTooLarge", err)
	}
	if !l.IsEmpty() {
		t.Errorf("ledger should be untouched on failure, got %v", l.Snapshot())
	}
}

func TestPhantomMoney(t *testing.T) {
	l := ledger.New()
	aa, bb := ledger.NewUser("AA"), ledger.NewUser("BB")
	three, two := mustMoney("3"), mustMoney("2")
	zero := mustMoney("0")

	e := New(time.Now(), "", mustMoney("10"), aa)
	e.AddParticipant(aa, &three, &zero)
	e.AddParticipant(bb, &two, &zero)

	err := e.Finalize(l)
	if !errors.Is(err, ErrPhantomMoney) {
		t.Fatalf("Finalize() = %v, want ErrPhantomMoney", err)
	}
	if !l.IsEmpty() {
		t.Errorf("ledger should be untouched on failure, got %v", l.Snapshot())
	}
}

func TestEmptyExpense(t *testing.T) {
	l := ledger.New()
	aa := ledger.NewUser("AA")
	e := New(time.Now(), "", mustMoney("10"), aa)
	if err := e.Finalize(l); !errors.Is(err, ErrEmptyExpense) {
		t.Fatalf("Finalize() = %v, want ErrEmptyExpense", err)
	}
}

// TestShareOrderIndependence exercises the "share idempotence" property from
// spec §8: re-finalizing the same participant list with the modifiers added
// in a different order produces identical per-user shares.
func TestShareOrderIndependence(t *testing.T) {
	aa, bb, cc := ledger.NewUser("AA"), ledger.NewUser("BB"), ledger.NewUser("CC")
	five := mustMoney("5")

	l1 := ledger.New()
	e1 := New(time.Now(), "", mustMoney("30"), aa)
	e1.AddParticipant(aa, nil, nil)
	e1.AddParticipant(bb, &five, nil)
	e1.AddParticipant(cc, nil, nil)
	if err := e1.Finalize(l1); err != nil {
		t.Fatal(err)
	}

	l2 := ledger.New()
	e2 := New(time.Now(), "", mustMoney("30"), aa)
	e2.AddParticipant(cc, nil, nil)
	e2.AddParticipant(bb, &five, nil)
	e2.AddParticipant(aa, nil, nil)
	if err := e2.Finalize(l2); err != nil {
		t.Fatal(err)
	}

	if !l1.Balance(bb).Equal(l2.Balance(bb)) {
		t.Errorf("BB balances differ: %s vs %s", l1.Balance(bb).String(), l2.Balance(bb).String())
	}
	if !l1.Balance(cc).Equal(l2.Balance(cc)) {
		t.Errorf("CC balances differ: %s vs %s", l1.Balance(cc).String(), l2.Balance(cc).String())
	}
	if !l1.Balance(aa).Equal(l2.Balance(aa)) {
		t.Errorf("AA balances differ: %s vs %s", l1.Balance(aa).String(), l2.Balance(aa).String())
	}
}
