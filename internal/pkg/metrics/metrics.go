package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	receiptTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photobook",
			Subsystem: "receipt",
			Name:      "transitions_total",
			Help:      "Receipt state transitions.",
		},
		[]string{"from", "to"},
	)

	stagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photobook",
			Subsystem: "processing",
			Name:      "stages_total",
			Help:      "Order processing stages run, by result.",
		},
		[]string{"stage", "result"},
	)
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photobook",
			Subsystem: "processing",
			Name:      "stage_duration_seconds",
			Help:      "Order processing stage duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"stage"},
	)

	paymentAuthorizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photobook",
			Subsystem: "payment",
			Name:      "authorizations_total",
			Help:      "Payment authorizations, by method and result.",
		},
		[]string{"method", "result"},
	)

	activeReceipts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "photobook",
			Subsystem: "receipt",
			Name:      "active",
			Help:      "Receipts currently open.",
		},
	)
)

func init() {
	prometheus.MustRegister(receiptTransitionsTotal, stagesTotal, stageDuration, paymentAuthorizationsTotal, activeReceipts)
}

func RecordReceiptTransition(from, to string) {
	receiptTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordStage(stage string, start time.Time, err error) {
	stagesTotal.WithLabelValues(stage, result(err)).Inc()
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func RecordPaymentAuthorization(method string, err error) {
	paymentAuthorizationsTotal.WithLabelValues(method, result(err)).Inc()
}

func ReceiptOpened() {
	activeReceipts.Inc()
}

func ReceiptClosed() {
	activeReceipts.Dec()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
