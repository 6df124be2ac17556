package playback

import (
	"log/slog"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
	"github.com/jscyril/dmx_media_trigger/pkg/events"
)

const (
	// DefaultRate is the engine rate after a load or a rate reset
	DefaultRate = 1.0
	// DeltaRate is the engine rate step applied by one ramp
	DeltaRate = 0.05
)

// Index resolves program keys to playlist entries
type Index interface {
	Lookup(key api.ProgramKey) (api.PlaylistEntry, bool)
}

// Observer is told about every resolve, typically for metrics
type Observer interface {
	ObserveResolve(action string, err error)
	SetState(state api.ControllerState)
}

// Action is what a resolve step executed
type Action int

const (
	ActionNone Action = iota
	ActionProgram
	ActionRewind
	ActionResetRate
	ActionRampRate
)

func (a Action) String() string {
	switch a {
	case ActionProgram:
		return "program"
	case ActionRewind:
		return "rewind"
	case ActionResetRate:
		return "reset_rate"
	case ActionRampRate:
		return "ramp_rate"
	default:
		return "none"
	}
}

// Controller records requested playback state from channel handlers and
// applies at most one pending action per Resolve, in priority order:
// program change, rewind, rate reset, rate ramp.
//
// A Controller is owned by the frame callback and is not safe for
// concurrent use. Other goroutines observe it through the event bus.
type Controller struct {
	engine   api.Engine
	index    Index
	log      *slog.Logger
	bus      *events.EventBus
	observer Observer

	requested api.ProgramKey
	current   api.ProgramKey
	loaded    bool

	requestedRate int
	currentRate   int

	rewindRequested    bool
	rateResetRequested bool

	gated            bool
	released         bool
	requestedRelease int
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller's logger
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithEventBus publishes resolve results and state snapshots on bus
func WithEventBus(bus *events.EventBus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithObserver reports every resolve to o
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithGate holds program changes back until the release channel is positive
func WithGate(gated bool) Option {
	return func(c *Controller) { c.gated = gated }
}

// New creates a controller driving engine with entries from index
func New(engine api.Engine, index Index, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		index:  index,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetProgram requests a program
func (c *Controller) SetProgram(value, previous int) {
	c.requested.Program = value
}

// SetSubProgram requests a sub-program of the requested program
func (c *Controller) SetSubProgram(value, previous int) {
	c.requested.SubProgram = value
}

// ChangeRate records the raw rate signal as the requested rate
func (c *Controller) ChangeRate(value, previous int) {
	c.requestedRate = value
}

// ResetRate requests the engine rate go back to DefaultRate
func (c *Controller) ResetRate(value, previous int) {
	c.rateResetRequested = true
}

// Rewind requests a reload of the current media. Only a change to zero
// triggers it.
func (c *Controller) Rewind(value, previous int) {
	if value == 0 {
		c.rewindRequested = true
	}
}

// Pause toggles the engine between playing and paused
func (c *Controller) Pause(value, previous int) {
	if c.engine.IsPlaying() {
		c.engine.Pause()
		return
	}
	c.engine.Play()
}

// Resume starts the engine
func (c *Controller) Resume(value, previous int) {
	c.engine.Play()
}

// Release opens the gate while value is positive
func (c *Controller) Release(value, previous int) {
	c.released = value > 0
	c.requestedRelease = value
}

// Pending reports the action the next Resolve would execute
func (c *Controller) Pending() Action {
	switch {
	case c.programPending():
		return ActionProgram
	case c.rewindRequested:
		return ActionRewind
	case c.rateResetRequested:
		return ActionResetRate
	case c.requestedRate != c.currentRate:
		return ActionRampRate
	}
	return ActionNone
}

func (c *Controller) programPending() bool {
	if c.gated && !c.released {
		return false
	}
	return !c.loaded || c.requested != c.current
}

// Resolve executes the highest priority pending action, if any, and
// returns it. A failed action leaves the state it would have changed
// untouched, so it is attempted again on the next Resolve.
func (c *Controller) Resolve() (Action, error) {
	action := c.Pending()

	var err error
	switch action {
	case ActionProgram:
		err = c.changeProgram()
	case ActionRewind:
		err = c.rewind()
	case ActionResetRate:
		c.engine.SetRate(DefaultRate)
		c.rateResetRequested = false
		c.log.Info("rate reset", "rate", DefaultRate)
	case ActionRampRate:
		c.rampRate()
	}

	state := c.Snapshot()
	if action != ActionNone {
		if c.observer != nil {
			c.observer.ObserveResolve(action.String(), err)
		}
		c.bus.Publish(api.EventResolve, api.ResolveResult{
			Action: action.String(),
			Key:    c.requested,
			Err:    err,
			State:  state,
		})
	}
	if c.observer != nil {
		c.observer.SetState(state)
	}
	c.bus.Publish(api.EventStateChange, state)

	return action, err
}

func (c *Controller) changeProgram() error {
	key := c.requested
	if err := c.load(key); err != nil {
		return err
	}
	c.current = key
	c.loaded = true
	c.currentRate = c.requestedRate
	c.rewindRequested = false
	return nil
}

func (c *Controller) rewind() error {
	if !c.loaded {
		c.log.Warn("rewind requested with nothing loaded")
		return playerrors.ErrNothingLoaded
	}
	// Always a full reload, never a seek.
	if err := c.load(c.current); err != nil {
		return err
	}
	c.rewindRequested = false
	return nil
}

func (c *Controller) load(key api.ProgramKey) error {
	entry, ok := c.index.Lookup(key)
	if !ok {
		c.log.Error("no playlist entry", "program", key.Program, "sub_program", key.SubProgram)
		return playerrors.NewPlayerError("lookup "+key.String(), "", playerrors.ErrResourceNotFound)
	}

	if err := c.engine.Load(entry); err != nil {
		c.log.Error("load media", "key", key.String(), "path", entry.Path, "error", err)
		return err
	}
	c.engine.SetPlayMode(entry.Mode)
	c.engine.SetRate(DefaultRate)
	c.engine.Play()

	c.log.Info("playing", "key", key.String(), "path", entry.Path, "mode", string(entry.Mode))
	return nil
}

func (c *Controller) rampRate() {
	rate := c.engine.Rate()
	if c.requestedRate > c.currentRate {
		rate += DeltaRate
	} else {
		rate -= DeltaRate
	}
	c.engine.SetRate(rate)
	c.log.Info("rate ramp", "requested", c.requestedRate, "previous", c.currentRate, "rate", rate)
	// The request, not the engine rate, becomes current. Ramping continues
	// only while the signal keeps changing.
	c.currentRate = c.requestedRate
}

// Snapshot returns a copy of the controller state
func (c *Controller) Snapshot() api.ControllerState {
	return api.ControllerState{
		Requested:        c.requested,
		Current:          c.current,
		Loaded:           c.loaded,
		RequestedRate:    c.requestedRate,
		CurrentRate:      c.currentRate,
		EngineRate:       c.engine.Rate(),
		Playing:          c.engine.IsPlaying(),
		RewindRequested:  c.rewindRequested,
		RateResetPending: c.rateResetRequested,
		Gated:            c.gated,
		Released:         c.released,
		RequestedRelease: c.requestedRelease,
	}
}
