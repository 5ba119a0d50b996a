package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LotReceipts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matplan_lot_receipts_total",
		Help: "Raw material lot receipts recorded.",
	})

	LotConsumptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matplan_lot_consumptions_total",
		Help: "Lot consumption movements recorded.",
	})

	ConsumeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matplan_consume_cas_retries_total",
		Help: "Compare-and-swap retries during lot consumption.",
	})

	CostRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matplan_average_cost_recomputes_total",
		Help: "Weighted-average cost recomputations.",
	})

	ReconciliationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matplan_reconciliation_failures_total",
		Help: "Kardex balance vs lot availability mismatches detected.",
	})

	PlanRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matplan_requirement_plans_total",
		Help: "Requirement planning runs.",
	})
)
