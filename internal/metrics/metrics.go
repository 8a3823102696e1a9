// Package metrics exposes Prometheus collectors for the portal.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Values of the trigger label on weeklyRolloversTotal.
const (
	TriggerScheduled = "scheduled"
	TriggerCatchUp   = "catch_up"
	TriggerManual    = "manual"
)

var (
	// loginsTotal counts login attempts.
	// Labels:
	//   - result: "success" or "failure"
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	autoLogoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_auto_logouts_total",
			Help: "Total number of sessions closed by the inactivity watchdog",
		},
	)

	// recordsWrittenTotal counts collection saves.
	// Labels:
	//   - collection: storage key (e.g. "services", "reports")
	recordsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_records_written_total",
			Help: "Total number of collection writes",
		},
		[]string{"collection"},
	)

	weeklyRolloversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_weekly_rollovers_total",
			Help: "Total number of weekly rollovers performed",
		},
		[]string{"trigger"},
	)
)

func init() {
	prometheus.MustRegister(loginsTotal)
	prometheus.MustRegister(autoLogoutsTotal)
	prometheus.MustRegister(recordsWrittenTotal)
	prometheus.MustRegister(weeklyRolloversTotal)
}

func RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	loginsTotal.WithLabelValues(result).Inc()
}

func RecordAutoLogout() {
	autoLogoutsTotal.Inc()
}

func RecordWrite(collection string) {
	recordsWrittenTotal.WithLabelValues(collection).Inc()
}

func RecordRollover(trigger string) {
	weeklyRolloversTotal.WithLabelValues(trigger).Inc()
}
