package settlement

import (
	"testing"

	"github.com/arnavp/treasurer/internal/money"
)

func snap(t *testing.T, pairs map[string]string) map[string]money.Money {
	t.Helper()
	out := make(map[string]money.Money, len(pairs))
	for user, amt := range pairs {
		out[user] = money.MustNew(amt)
	}
	return out
}

func TestEmptyLedger(t *testing.T) {
	if got := Generate(nil); got != nil {
		t.Errorf("Generate(nil) = %v, want nil", got)
	}
}

func TestExactPairReduction(t *testing.T) {
	s := snap(t, map[string]string{"A": "10.00", "B": "-10.00"})
	stmts := Generate(s)
	if len(stmts) != 1 {
		t.Fatalf("len = %d, want 1", len(stmts))
	}
	if stmts[0].Debtor.Name != "B" || stmts[0].Creditor.Name != "A" || stmts[0].Amount.String() != "10.00" {
		t.Errorf("got %+v", stmts[0])
	}
}

// TestSettlementMinimization mirrors the shape of spec §8 scenario 6 (two
// creditors, two debtors, a sub-partition available) with magnitudes chosen
// so the two sub-components are each genuinely zero-sum: {A,D} and {B,C}.
// The optimizer must find 2 components (2 transfers) rather than settle for
// the trivial single 4-user component (which would cost 3).
func TestSettlementMinimization(t *testing.T) {
	s := snap(t, map[string]string{"A": "15.00", "B": "5.00", "C": "-5.00", "D": "-15.00"})
	stmts := Generate(s)
	if len(stmts) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(stmts), stmts)
	}
	assertZeroesOut(t, s, stmts)
}

// TestIrreducible is scenario 7 from spec §8: {A:+7, B:+3, C:-6, D:-4} has
// no exact pair and no sub-partition, so it settles in one component with
// 3 transfers.
func TestIrreducible(t *testing.T) {
	s := snap(t, map[string]string{"A": "7.00", "B": "3.00", "C": "-6.00", "D": "-4.00"})
	stmts := Generate(s)
	if len(stmts) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(stmts), stmts)
	}
	assertZeroesOut(t, s, stmts)
}

// TestSubsetSumComponent: after Phase A pairs off C/E (both magnitude 8),
// the remainder {A:5, B:7} vs {D:-12} has no single-to-single match but the
// creditor subset {A,B} sums exactly to 12. Phase B finds no finer split
// (its start target 12 exceeds the 12/2 ceiling), so the remainder comes
// back as findPartition's single fallback component and Phase C settles it
// in 2 transfers.
func TestSubsetSumComponent(t *testing.T) {
	s := snap(t, map[string]string{"A": "5.00", "B": "7.00", "C": "8.00", "D": "-12.00", "E": "-8.00"})
	stmts := Generate(s)
	if len(stmts) != 3 {
		t.Fatalf("len = %d, want 3 (5 users - 2 components): %+v", len(stmts), stmts)
	}
	assertZeroesOut(t, s, stmts)
}

func TestEightUserComponentOptimality(t *testing.T) {
	// Two disjoint copies of the irreducible scenario-7 shape, scaled apart
	// so no magnitude from one group coincides with the other: the
	// optimizer must discover both components (3 transfers each) rather
	// than settling for one 8-user component (7 transfers).
	s := snap(t, map[string]string{
		"A": "7.00", "B": "3.00", "C": "-6.00", "D": "-4.00",
		"E": "70.00", "F": "30.00", "G": "-60.00", "H": "-40.00",
	})
	stmts := Generate(s)
	if len(stmts) != 6 {
		t.Fatalf("len = %d, want 6: %+v", len(stmts), stmts)
	}
	assertZeroesOut(t, s, stmts)
}

// assertZeroesOut is the universal invariant check from spec §8: applying
// the statements to the snapshot zeroes every balance, every amount is
// strictly positive, and creditors/debtors never swap roles.
func assertZeroesOut(t *testing.T, snapshot map[string]money.Money, stmts []Statement) {
	t.Helper()
	running := make(map[string]money.Money, len(snapshot))
	for k, v := range snapshot {
		running[k] = v
	}
	seenCreditor := map[string]bool{}
	seenDebtor := map[string]bool{}
	for _, s := range stmts {
		if !s.Amount.IsPositive() {
			t.Errorf("non-positive statement amount: %+v", s)
		}
		if seenDebtor[s.Creditor.Name] {
			t.Errorf("%s appears as both debtor and creditor", s.Creditor.Name)
		}
		if seenCreditor[s.Debtor.Name] {
			t.Errorf("%s appears as both debtor and creditor", s.Debtor.Name)
		}
		seenCreditor[s.Creditor.Name] = true
		seenDebtor[s.Debtor.Name] = true

		running[s.Debtor.Name] = running[s.Debtor.Name].Add(s.Amount)
		running[s.Creditor.Name] = running[s.Creditor.Name].Sub(s.Amount)
	}
	for u, bal := range running {
		if !bal.IsZero() {
			t.Errorf("user %s left with non-zero balance %s after settlement", u, bal.String())
		}
	}
}
