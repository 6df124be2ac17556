package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jscyril/dmx_media_trigger/api"
)

// Metrics holds Prometheus counters and gauges for the trigger.
type Metrics struct {
	registry          *prometheus.Registry
	framesTotal       prometheus.Counter
	truncatedTotal    prometheus.Counter
	changesTotal      *prometheus.CounterVec
	resolveTotal      *prometheus.CounterVec
	currentProgram    prometheus.Gauge
	currentSubProgram prometheus.Gauge
	playbackRate      prometheus.Gauge
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmx_trigger_frames_total",
			Help: "Total number of channel frames received for the monitored universe",
		}),
		truncatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dmx_trigger_truncated_frames_total",
			Help: "Frames shorter than the highest bound channel",
		}),
		changesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dmx_trigger_channel_changes_total",
			Help: "Monitored channel value changes, by command",
		}, []string{"command"}),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dmx_trigger_resolve_total",
			Help: "Resolve steps, by executed action and result",
		}, []string{"action", "result"}),
		currentProgram: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmx_trigger_current_program",
			Help: "Program of the currently loaded media",
		}),
		currentSubProgram: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmx_trigger_current_sub_program",
			Help: "Sub-program of the currently loaded media",
		}),
		playbackRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dmx_trigger_playback_rate",
			Help: "Playback rate reported by the engine",
		}),
	}

	registry.MustRegister(
		m.framesTotal,
		m.truncatedTotal,
		m.changesTotal,
		m.resolveTotal,
		m.currentProgram,
		m.currentSubProgram,
		m.playbackRate,
	)
	m.currentProgram.Set(-1)
	m.currentSubProgram.Set(-1)
	m.playbackRate.Set(1)

	return m
}

// IncFrames increments the received frames counter.
func (m *Metrics) IncFrames() {
	m.framesTotal.Inc()
}

// IncTruncated increments the truncated frames counter.
func (m *Metrics) IncTruncated() {
	m.truncatedTotal.Inc()
}

// IncChange counts one channel change for command.
func (m *Metrics) IncChange(command string) {
	m.changesTotal.WithLabelValues(command).Inc()
}

// ObserveResolve counts one executed resolve action.
func (m *Metrics) ObserveResolve(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.resolveTotal.WithLabelValues(action, result).Inc()
}

// SetState updates the gauges from a controller snapshot.
func (m *Metrics) SetState(state api.ControllerState) {
	if state.Loaded {
		m.currentProgram.Set(float64(state.Current.Program))
		m.currentSubProgram.Set(float64(state.Current.SubProgram))
	}
	m.playbackRate.Set(state.EngineRate)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
