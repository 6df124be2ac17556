package api

import (
	"fmt"
	"time"
)

// ProgramKey identifies a playable unit: a program and one of its sub-programs.
type ProgramKey struct {
	Program    int `json:"program"`
	SubProgram int `json:"sub_program"`
}

func (k ProgramKey) String() string {
	return fmt.Sprintf("%d.%d", k.Program, k.SubProgram)
}

// PlayMode controls what the engine does when a media item ends
type PlayMode string

const (
	// PlayModeDefault advances through the media list and stops after the last item.
	PlayModeDefault PlayMode = "default"
	// PlayModeLoop advances through the media list and wraps around.
	PlayModeLoop PlayMode = "loop"
	// PlayModeRepeat replays the current item forever.
	PlayModeRepeat PlayMode = "repeat"
)

// ParsePlayMode maps a configuration value to a PlayMode. Empty means default.
func ParsePlayMode(s string) (PlayMode, bool) {
	switch PlayMode(s) {
	case "", PlayModeDefault:
		return PlayModeDefault, true
	case PlayModeLoop:
		return PlayModeLoop, true
	case PlayModeRepeat:
		return PlayModeRepeat, true
	}
	return "", false
}

// PlaylistEntry is a resolved, playable media file
type PlaylistEntry struct {
	Key      ProgramKey `json:"key"`
	Path     string     `json:"path"`
	Mode     PlayMode   `json:"mode"`
	Position int        `json:"position"`
	Title    string     `json:"title"`
}

// Status is the engine's coarse playback status
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Engine is the media playback collaborator driven by the controller.
// Calls are synchronous; only Load reports failure.
type Engine interface {
	Load(entry PlaylistEntry) error
	Play()
	Pause()
	IsPlaying() bool
	Rate() float64
	SetRate(rate float64)
	SetPlayMode(mode PlayMode)
}

// ControllerState is a copy of the controller's requested and current state
type ControllerState struct {
	Requested        ProgramKey `json:"requested"`
	Current          ProgramKey `json:"current"`
	Loaded           bool       `json:"loaded"`
	RequestedRate    int        `json:"requested_rate"`
	CurrentRate      int        `json:"current_rate"`
	EngineRate       float64    `json:"engine_rate"`
	Playing          bool       `json:"playing"`
	RewindRequested  bool       `json:"rewind_requested"`
	RateResetPending bool       `json:"rate_reset_requested"`
	Gated            bool       `json:"gated"`
	Released         bool       `json:"released"`
	RequestedRelease int        `json:"requested_release"`
}

// EventType identifies the kind of an Event
type EventType int

const (
	EventChannelChange EventType = iota
	EventResolve
	EventStateChange
	EventMediaStarted
	EventMediaEnded
	EventError
)

// Event is published on the event bus
type Event struct {
	Type    EventType
	Payload interface{}
	Time    time.Time
}

// ChannelChange is the payload of EventChannelChange
type ChannelChange struct {
	Channel  int    `json:"channel"`
	Command  string `json:"command"`
	Previous int    `json:"previous"`
	Value    int    `json:"value"`
}

// ResolveResult is the payload of EventResolve, published whenever a
// resolve step executed an action.
type ResolveResult struct {
	Action string          `json:"action"`
	Key    ProgramKey      `json:"key"`
	Err    error           `json:"-"`
	State  ControllerState `json:"state"`
}
