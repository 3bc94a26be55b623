package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one vdock process. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	actions           *prometheus.CounterVec
	actionDuration    *prometheus.HistogramVec
	pendingActions    prometheus.Gauge
	monitorChecks     *prometheus.CounterVec
	foregroundChanges prometheus.Counter
	sceneSwitches     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vdock",
				Name:      "actions_dispatched_total",
				Help:      "Actions dispatched by route and outcome",
			},
			[]string{"route", "outcome"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vdock",
				Name:      "action_duration_seconds",
				Help:      "Time from dispatch to result",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		pendingActions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vdock",
			Name:      "actions_pending",
			Help:      "Actions waiting for a result on the channel",
		}),
		monitorChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vdock",
				Name:      "monitor_checks_total",
				Help:      "Foreground application checks by result",
			},
			[]string{"result"},
		),
		foregroundChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vdock",
			Name:      "foreground_changes_total",
			Help:      "Observed foreground application changes",
		}),
		sceneSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vdock",
			Name:      "scene_switches_total",
			Help:      "Scene switches requested by app integrations",
		}),
	}

	m.registry.MustRegister(
		m.actions,
		m.actionDuration,
		m.pendingActions,
		m.monitorChecks,
		m.foregroundChanges,
		m.sceneSwitches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAction(route, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(route, outcome).Inc()
	m.actionDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pendingActions.Set(float64(n))
}

func (m *Metrics) MonitorCheck(result string) {
	if m == nil {
		return
	}
	m.monitorChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) ForegroundChanged() {
	if m == nil {
		return
	}
	m.foregroundChanges.Inc()
}

func (m *Metrics) SceneSwitched() {
	if m == nil {
		return
	}
	m.sceneSwitches.Inc()
}
