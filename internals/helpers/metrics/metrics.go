// file: internals/helpers/metrics/metrics.go
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "checkins_total",
		Help:      "Check-in attempts by result.",
	}, []string{"result"})

	CheckOuts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "checkouts_total",
		Help:      "Check-out attempts by result.",
	}, []string{"result"})

	SweepClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "sweep_closed_total",
		Help:      "Sessions force-closed by the auto checkout sweep.",
	})

	SweepRaceLost = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "sweep_race_lost_total",
		Help:      "Sweep closures that found the session already closed.",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of one auto checkout sweep.",
		Buckets:   prometheus.DefBuckets,
	})

	ExportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "export_rows_total",
		Help:      "Rows written by exports, by format.",
	}, []string{"format"})
)

// Result label yang dipakai counter check-in/out.
const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Handler expose /metrics lewat adaptor net/http → fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
