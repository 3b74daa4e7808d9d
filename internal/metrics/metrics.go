package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts requests by method, route pattern and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syfte_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syfte_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	SavingsLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syfte_savings_logged_total",
		Help: "Savings logged",
	})

	AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syfte_achievements_unlocked_total",
		Help: "Achievements unlocked by achievement id",
	}, []string{"achievement"})

	// PushSent counts Web Push deliveries by result (sent, gone, failed)
	PushSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syfte_push_notifications_total",
		Help: "Web Push deliveries by result",
	}, []string{"result"})

	// JobRuns counts scheduled job runs by job name and result (ok, error)
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syfte_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syfte_job_duration_seconds",
		Help:    "Scheduled job duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"job"})

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "syfte_reminders_sent_total",
		Help: "Users reminded to log a saving",
	})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
