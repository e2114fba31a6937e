package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arnavp/treasurer/internal/expense"
)

var (
	expensesFinalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasurer_expenses_finalized_total",
		Help: "Total number of expenses successfully finalized.",
	})

	expenseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treasurer_expense_failures_total",
		Help: "Total number of expense finalization failures, by reason.",
	}, []string{"reason"})

	settlementDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "treasurer_settlement_duration_seconds",
		Help:    "Time taken to compute a settlement for a BALANCE request.",
		Buckets: prometheus.DefBuckets,
	})

	settlementComponentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasurer_settlement_components_total",
		Help: "Running total of settlement components produced across all BALANCE requests.",
	})
)

func recordFinalized() {
	expensesFinalizedTotal.Inc()
}

// recordFailure increments the failure counter under the failing error's
// sentinel name, falling back to "unknown" for anything not in the closed
// set of three finalization errors (spec §7).
func recordFailure(err error) {
	reason := "unknown"
	switch {
	case errors.Is(err, expense.ErrEmptyExpense):
		reason = "empty_expense"
	case errors.Is(err, expense.ErrPlusModTooLarge):
		reason = "plus_mod_too_large"
	case errors.Is(err, expense.ErrPhantomMoney):
		reason = "phantom_money"
	}
	expenseFailuresTotal.WithLabelValues(reason).Inc()
}

// recordSettlement observes the search duration and tallies the component
// count. Components aren't directly observable as a gauge without tracking
// per-request state the caller has no use for, so it accumulates as a
// counter: a step increase over time still shows relative settlement
// complexity across requests.
func recordSettlement(duration time.Duration, components int) {
	settlementDurationSeconds.Observe(duration.Seconds())
	settlementComponentsTotal.Add(float64(components))
}
