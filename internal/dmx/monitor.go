package dmx

import (
	"log/slog"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
	"github.com/jscyril/dmx_media_trigger/pkg/events"
)

// Observer is notified about frame processing, typically for metrics
type Observer interface {
	IncFrames()
	IncTruncated()
	IncChange(command string)
}

type nopObserver struct{}

func (nopObserver) IncFrames()       {}
func (nopObserver) IncTruncated()    {}
func (nopObserver) IncChange(string) {}

// Monitor is the frame callback: it diffs each frame, routes the changes
// and resolves once per frame that changed anything. It owns its snapshot
// exclusively, so several monitors can coexist in one process.
type Monitor struct {
	bindings []Binding
	differ   *Differ
	router   *Router
	log      *slog.Logger
	observer Observer
	bus      *events.EventBus
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithLogger sets the monitor's logger
func WithLogger(log *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.log = log }
}

// WithObserver sets the frame observer
func WithObserver(o Observer) MonitorOption {
	return func(m *Monitor) { m.observer = o }
}

// WithEventBus publishes every channel change on bus
func WithEventBus(bus *events.EventBus) MonitorOption {
	return func(m *Monitor) { m.bus = bus }
}

// NewMonitor validates the bindings against target and returns a ready monitor
func NewMonitor(bindings []Binding, target Target, resolver Resolver, opts ...MonitorOption) (*Monitor, error) {
	router, err := NewRouter(bindings, target, resolver)
	if err != nil {
		return nil, err
	}
	m := &Monitor{
		bindings: append([]Binding(nil), bindings...),
		differ:   NewDiffer(bindings),
		router:   router,
		log:      logger.Discard(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// HandleFrame processes one frame and reports whether everything it
// triggered succeeded. Failures are logged here and never escape.
func (m *Monitor) HandleFrame(frame []byte) bool {
	m.observer.IncFrames()
	if m.differ.Truncated(frame) {
		m.observer.IncTruncated()
		m.log.Debug("truncated frame", "length", len(frame))
	}

	ok := true
	n := m.differ.Each(frame, func(c Change) {
		m.log.Info("channel change",
			"channel", c.Channel,
			"command", c.Command.String(),
			"from", c.Previous,
			"to", c.Value,
		)
		m.observer.IncChange(c.Command.String())
		m.bus.Publish(api.EventChannelChange, api.ChannelChange{
			Channel:  c.Channel,
			Command:  c.Command.String(),
			Previous: c.Previous,
			Value:    c.Value,
		})
		if err := m.router.Route(c); err != nil {
			m.log.Error("route channel change", "channel", c.Channel, "error", err)
			ok = false
		}
	})
	if n == 0 {
		return ok
	}

	if err := m.router.Resolve(); err != nil {
		m.log.Error("resolve pending actions", "error", err)
		return false
	}
	return ok
}

// Bindings returns the monitored bindings in processing order
func (m *Monitor) Bindings() []Binding {
	return append([]Binding(nil), m.bindings...)
}

// Values returns the last seen value of each binding, in binding order
func (m *Monitor) Values() []int {
	return m.differ.Values()
}
