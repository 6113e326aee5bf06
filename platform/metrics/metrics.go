// Package metrics provides Prometheus-based counters for the conversation
// engine, classifier and escalation controller. A nil *Recorder is valid and
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matveypt"

// Recorder holds the bot's metric vectors.
type Recorder struct {
	gatherer prometheus.Gatherer

	inboundTotal       *prometheus.CounterVec
	duplicatesTotal    *prometheus.CounterVec
	classifierTotal    *prometheus.CounterVec
	classifierDuration prometheus.Histogram
	hardStopsTotal     *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	remindersTotal     *prometheus.CounterVec
	quotesTotal        prometheus.Counter
}

// New registers the metrics on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		inboundTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inbound_events_total",
				Help:      "Inbound messaging events by kind",
			},
			[]string{"kind"},
		),
		duplicatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inbound_duplicates_total",
				Help:      "Inbound events dropped by the duplicate filter",
			},
			[]string{"reason"},
		),
		classifierTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "classifier_calls_total",
				Help:      "Classifier calls by outcome",
			},
			[]string{"outcome"},
		),
		classifierDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "classifier_duration_seconds",
				Help:      "Classifier call latency",
				Buckets:   prometheus.DefBuckets,
			},
		),
		hardStopsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hard_stops_total",
				Help:      "Conversations switched to hard stop, by reason",
			},
			[]string{"reason"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operator_notifications_total",
				Help:      "Operator notifications by trigger and delivery status",
			},
			[]string{"trigger", "status"},
		),
		remindersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operator_reminders_total",
				Help:      "Reminder firings by outcome",
			},
			[]string{"outcome"},
		),
		quotesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quote_submissions_total",
				Help:      "Calculator quote submissions received",
			},
		),
	}
}

// Handler exposes the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

func (r *Recorder) Inbound(kind string) {
	if r == nil {
		return
	}
	r.inboundTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) Duplicate(reason string) {
	if r == nil {
		return
	}
	r.duplicatesTotal.WithLabelValues(reason).Inc()
}

// Classifier records one classifier call. outcome is "ok", "error" or "timeout".
func (r *Recorder) Classifier(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.classifierTotal.WithLabelValues(outcome).Inc()
	r.classifierDuration.Observe(d.Seconds())
}

func (r *Recorder) HardStop(reason string) {
	if r == nil {
		return
	}
	r.hardStopsTotal.WithLabelValues(reason).Inc()
}

func (r *Recorder) Notification(trigger string, delivered bool) {
	if r == nil {
		return
	}
	status := "sent"
	if !delivered {
		status = "failed"
	}
	r.notificationsTotal.WithLabelValues(trigger, status).Inc()
}

func (r *Recorder) Reminder(outcome string) {
	if r == nil {
		return
	}
	r.remindersTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) QuoteSubmitted() {
	if r == nil {
		return
	}
	r.quotesTotal.Inc()
}
