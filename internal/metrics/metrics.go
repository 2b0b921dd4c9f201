package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var cycleCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "showcasebot_cycles_total",
	Help: "Number of completed reconciliation cycles",
})

var cycleErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "showcasebot_cycle_errors_total",
	Help: "Number of reconciliation cycles abandoned on a transient fault",
})

var cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "showcasebot_cycle_duration_sec",
	Help: "Duration of reconciliation cycles",
})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "showcasebot_actions_total",
	Help: "Number of moderation actions performed",
}, []string{"action"})

var trackedPosts = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "showcasebot_tracked_posts",
	Help: "Tracked posts by state",
}, []string{"state"})

var gatewayErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "showcasebot_gateway_errors_total",
	Help: "Number of failed forum API requests",
})

func ObserveCycle(d time.Duration, failed bool) {
	cycleCount.Inc()
	cycleDuration.Observe(d.Seconds())
	if failed {
		cycleErrorCount.Inc()
	}
}

func CountGatewayError() {
	gatewayErrorCount.Inc()
}

func CountAction(action string) {
	actionCount.WithLabelValues(action).Inc()
}

func SetTracked(state string, n int) {
	trackedPosts.WithLabelValues(state).Set(float64(n))
}

// Serve exposes /metrics on addr. Blocks.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
