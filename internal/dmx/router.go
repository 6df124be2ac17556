package dmx

import (
	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
)

// Handler receives the new and previous value of a changed channel
type Handler func(value, previous int)

// Target receives routed commands. Implementations only record the
// requested state; nothing is executed until Resolve.
type Target interface {
	SetProgram(value, previous int)
	SetSubProgram(value, previous int)
	ChangeRate(value, previous int)
	ResetRate(value, previous int)
	Rewind(value, previous int)
	Pause(value, previous int)
	Resume(value, previous int)
}

// Releaser is implemented by targets that support the release gate
type Releaser interface {
	Release(value, previous int)
}

// Resolver applies the pending state once per frame
type Resolver interface {
	Resolve() error
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func() error

// Resolve calls f()
func (f ResolverFunc) Resolve() error {
	return f()
}

// Router maps commands to target handlers. The table is built and checked
// once, at construction.
type Router struct {
	handlers [numCommands]Handler
	resolver Resolver
}

// NewRouter builds the handler table for target and checks that every
// binding can be routed.
func NewRouter(bindings []Binding, target Target, resolver Resolver) (*Router, error) {
	r := &Router{resolver: resolver}
	r.handlers[CmdProgram] = target.SetProgram
	r.handlers[CmdSubProgram] = target.SetSubProgram
	r.handlers[CmdRate] = target.ChangeRate
	r.handlers[CmdResetRate] = target.ResetRate
	r.handlers[CmdRewind] = target.Rewind
	r.handlers[CmdPause] = target.Pause
	r.handlers[CmdResume] = target.Resume
	if rel, ok := target.(Releaser); ok {
		r.handlers[CmdRelease] = rel.Release
	}

	for _, b := range bindings {
		if b.Channel < 0 || b.Channel >= UniverseSize {
			return nil, &playerrors.BindingError{Channel: b.Channel, Command: b.Command.String(), Err: playerrors.ErrUnknownBinding}
		}
		if !b.Command.Valid() || r.handlers[b.Command] == nil {
			return nil, &playerrors.BindingError{Channel: b.Channel, Command: b.Command.String(), Err: playerrors.ErrUnknownBinding}
		}
	}
	return r, nil
}

// Route invokes the handler bound to the change's command
func (r *Router) Route(c Change) error {
	if !c.Command.Valid() || r.handlers[c.Command] == nil {
		return &playerrors.BindingError{Channel: c.Channel, Command: c.Command.String(), Err: playerrors.ErrUnknownBinding}
	}
	r.handlers[c.Command](c.Value, c.Previous)
	return nil
}

// Resolve runs the resolver
func (r *Router) Resolve() error {
	if r.resolver == nil {
		return nil
	}
	return r.resolver.Resolve()
}

// Dispatch routes every change in order and, if there was at least one,
// resolves exactly once.
func (r *Router) Dispatch(changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	for _, c := range changes {
		if err := r.Route(c); err != nil {
			return err
		}
	}
	return r.Resolve()
}
