// Package settlement implements the settlement optimizer (spec §4.3): given
// a ledger snapshot, it produces the list of inter-user transfers that
// zeroes every balance while maximizing the number of independent
// transfer-components — equivalently, minimizing the transfer count, with
// ties broken toward the smallest total amount moved.
package settlement

import (
	"sort"

	"github.com/arnavp/treasurer/internal/ledger"
	"github.com/arnavp/treasurer/internal/money"
)

// Statement is one settlement instruction: debtor transfers amount to
// creditor. Amount is always strictly positive (spec §3).
type Statement struct {
	Debtor   ledger.User
	Creditor ledger.User
	Amount   money.Money
}

// entry pairs a user with their signed balance. Positive for creditors,
// negative for debtors; magnitude() is always the unsigned cents value used
// for the combinatorial search (spec §4.3, "normalized magnitudes").
type entry struct {
	user    ledger.User
	balance money.Money
}

func (e entry) magnitude() int64 {
	return e.balance.Abs().Cents()
}

// Generate computes the settlement for a ledger snapshot. The snapshot is
// read-only; Generate never mutates the ledger it was taken from (spec §3,
// "the ledger itself is not modified by settlement computation"). On an
// empty ledger it returns nil (spec §4.3, "Failure semantics").
func Generate(snapshot map[string]money.Money) []Statement {
	var creditors, debtors []entry
	for name, bal := range snapshot {
		if bal.IsZero() {
			continue
		}
		e := entry{user: ledger.NewUser(name), balance: bal}
		if bal.IsPositive() {
			creditors = append(creditors, e)
		} else {
			debtors = append(debtors, e)
		}
	}
	if len(creditors) == 0 {
		return nil
	}

	sortAscending(creditors)
	sortAscending(debtors)

	statements, creditors, debtors := pairReduce(creditors, debtors)
	if len(creditors) == 0 {
		return statements
	}

	totalSum := sumMagnitudes(creditors)
	targetSum := minMagnitude(creditors)
	if m := minMagnitude(debtors); m > targetSum {
		targetSum = m
	}

	compC, compD := findPartition(creditors, debtors, 2, totalSum, targetSum)
	for i := range compC {
		statements = append(statements, settleComponent(compC[i], compD[i])...)
	}
	return statements
}

func sortAscending(es []entry) {
	sort.Slice(es, func(i, j int) bool { return es[i].magnitude() < es[j].magnitude() })
}

func sumMagnitudes(es []entry) int64 {
	var sum int64
	for _, e := range es {
		sum += e.magnitude()
	}
	return sum
}

func minMagnitude(es []entry) int64 {
	if len(es) == 0 {
		return 0
	}
	// es is kept sorted ascending by every caller, so the minimum is the head.
	return es[0].magnitude()
}

// pairReduce implements Phase A: whenever a creditor and a debtor share an
// exact normalized magnitude, settle them directly as a trivial two-node
// component and remove both from further consideration. Returns the
// statements emitted and the remaining, still-ascending-sorted creditors
// and debtors.
func pairReduce(creditors, debtors []entry) (statements []Statement, remC, remD []entry) {
	credUsed := make([]bool, len(creditors))
	debtUsed := make([]bool, len(debtors))

	for ci := range creditors {
		cMag := creditors[ci].magnitude()
		for di := range debtors {
			if debtUsed[di] {
				continue
			}
			if debtors[di].magnitude() == cMag {
				statements = append(statements, Statement{
					Debtor:   debtors[di].user,
					Creditor: creditors[ci].user,
					Amount:   creditors[ci].balance,
				})
				credUsed[ci] = true
				debtUsed[di] = true
				break
			}
		}
	}

	for i, used := range credUsed {
		if !used {
			remC = append(remC, creditors[i])
		}
	}
	for i, used := range debtUsed {
		if !used {
			remD = append(remD, debtors[i])
		}
	}
	return statements, remC, remD
}

// findPartition is the recursive component search of Phase B. creditors and
// debtors are sorted ascending with equal total magnitude (totalSum). It
// returns parallel slices of creditor- and debtor-components forming the
// partition with the greatest number of components found (at least the
// trivial single-component partition, which is always returned as a
// fallback).
func findPartition(creditors, debtors []entry, minComponents int, totalSum, targetSum int64) (bestC, bestD [][]entry) {
	bestC = [][]entry{creditors}
	bestD = [][]entry{debtors}
	bestCount := 1

	if totalSum == 0 || len(creditors) == 0 {
		return bestC, bestD
	}

	credMags := magnitudesOf(creditors)
	debtMags := magnitudesOf(debtors)

	limit := totalSum / int64(minComponents)
	for t := targetSum; t <= limit; t++ {
		csets := subsetSums(credMags, t)
		if len(csets) == 0 {
			continue
		}
		dsets := subsetSums(debtMags, t)
		if len(dsets) == 0 {
			continue
		}

		for _, cidx := range csets {
			Cs := pick(creditors, cidx)
			remC := exclude(creditors, cidx)
			for _, didx := range dsets {
				Ds := pick(debtors, didx)
				remD := exclude(debtors, didx)

				remainingSum := totalSum - t
				var subC, subD [][]entry
				if len(remC) != 0 || len(remD) != 0 {
					nextMin := minComponents - 1
					if nextMin < 2 {
						nextMin = 2
					}
					nextTarget := t
					if m := minMagnitude(remC); m > nextTarget {
						nextTarget = m
					}
					if m := minMagnitude(remD); m > nextTarget {
						nextTarget = m
					}
					subC, subD = findPartition(remC, remD, nextMin, remainingSum, nextTarget)
				}

				total := len(subC) + 1
				if total > bestCount {
					bestCount = total
					bestC = append([][]entry{Cs}, subC...)
					bestD = append([][]entry{Ds}, subD...)
					minComponents = bestCount + 1
					limit = totalSum / int64(minComponents)
				}
			}
		}
	}
	return bestC, bestD
}

func magnitudesOf(es []entry) []int64 {
	out := make([]int64, len(es))
	for i, e := range es {
		out[i] = e.magnitude()
	}
	return out
}

func pick(es []entry, idx []int) []entry {
	out := make([]entry, len(idx))
	for i, ix := range idx {
		out[i] = es[ix]
	}
	return out
}

func exclude(es []entry, idx []int) []entry {
	skip := make(map[int]bool, len(idx))
	for _, ix := range idx {
		skip[ix] = true
	}
	out := make([]entry, 0, len(es)-len(idx))
	for i, e := range es {
		if !skip[i] {
			out = append(out, e)
		}
	}
	return out
}

// subsetSums enumerates every subset of values (by index) that sums exactly
// to target, in lexicographic order by index. Implemented as a depth-first
// walk that extends the current index stack while the running sum stays
// strictly below target and backtracks on overshoot or exhaustion — the
// same enumeration spec §4.3 describes as an explicit index stack; the
// recursive form below visits indices in the identical order.
func subsetSums(values []int64, target int64) [][]int {
	var results [][]int
	var stack []int

	var walk func(start int, sum int64)
	walk = func(start int, sum int64) {
		if sum == target {
			results = append(results, append([]int(nil), stack...))
			return
		}
		if sum > target {
			return
		}
		for i := start; i < len(values); i++ {
			stack = append(stack, i)
			walk(i+1, sum+values[i])
			stack = stack[:len(stack)-1]
		}
	}
	walk(0, 0)
	return results
}

// settleComponent runs Phase C over one balanced component: repeatedly take
// the smallest-magnitude creditor and smallest-magnitude debtor, transfer
// min(creditor_balance, |debtor_balance|), and drop whichever side reaches
// zero. creditors and debtors must already be sorted ascending and sum to
// zero together.
func settleComponent(creditors, debtors []entry) []Statement {
	cs := append([]entry(nil), creditors...)
	ds := append([]entry(nil), debtors...)

	var out []Statement
	i, j := 0, 0
	for i < len(cs) && j < len(ds) {
		c := cs[i]
		d := ds[j]
		debtMag := d.balance.Neg()
		transfer := c.balance
		if debtMag.Cmp(transfer) < 0 {
			transfer = debtMag
		}

		out = append(out, Statement{Debtor: d.user, Creditor: c.user, Amount: transfer})

		cs[i].balance = c.balance.Sub(transfer)
		ds[j].balance = d.balance.Add(transfer)

		if cs[i].balance.IsZero() {
			i++
		}
		if ds[j].balance.IsZero() {
			j++
		}
	}
	return out
}
