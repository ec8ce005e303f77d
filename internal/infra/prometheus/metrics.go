package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application counters scraped via the /metrics server.
var (
	ProfileViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkshot_profile_views_total",
		Help: "Profile view increments recorded.",
	})

	ReconcileRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkshot_rank_reconcile_runs_total",
		Help: "Booster-tag reconciliation passes started.",
	})

	ReconcileFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkshot_rank_reconcile_failures_total",
		Help: "Reconciliation passes aborted by a snapshot read failure.",
	})

	ReconcileRowFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkshot_rank_reconcile_row_failures_total",
		Help: "Individual profile rank writes that failed during reconciliation.",
	})

	EventsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkshot_analytics_events_stored_total",
		Help: "Analytics events persisted by the JetStream consumer.",
	})
)
