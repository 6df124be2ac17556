package status

import (
	"context"
	"sync"
	"time"

	"github.com/jscyril/dmx_media_trigger/api"
)

// Channel is the last seen value of one bound channel
type Channel struct {
	Channel int    `json:"channel"`
	Command string `json:"command"`
	Value   int    `json:"value"`
}

// LastResolve describes the most recent executed resolve action
type LastResolve struct {
	Action string         `json:"action"`
	Key    api.ProgramKey `json:"key"`
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Time   time.Time      `json:"time"`
}

// Snapshot is a point-in-time view of the trigger
type Snapshot struct {
	State       api.ControllerState `json:"state"`
	Channels    []Channel           `json:"channels"`
	LastResolve *LastResolve        `json:"last_resolve,omitempty"`
	Playing     *api.PlaylistEntry  `json:"playing,omitempty"`
	Media       []api.PlaylistEntry `json:"media"`
	Changes     int                 `json:"channel_changes"`
	Updated     time.Time           `json:"updated"`
}

// Tracker builds a Snapshot from bus events. It is the only way other
// goroutines observe the frame callback's state.
type Tracker struct {
	mu       sync.RWMutex
	snap     Snapshot
	channels map[int]int
}

// NewTracker creates a tracker for the given channels, each starting at -1
func NewTracker(channels []Channel, media []api.PlaylistEntry) *Tracker {
	t := &Tracker{channels: make(map[int]int, len(channels))}
	t.snap.Channels = make([]Channel, len(channels))
	for i, c := range channels {
		c.Value = -1
		t.snap.Channels[i] = c
		t.channels[c.Channel] = i
	}
	t.snap.Media = append([]api.PlaylistEntry(nil), media...)
	return t
}

// Run applies events until ctx is cancelled or events is closed
func (t *Tracker) Run(ctx context.Context, events <-chan api.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.Apply(ev)
		}
	}
}

// Apply folds one event into the snapshot
func (t *Tracker) Apply(ev api.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch p := ev.Payload.(type) {
	case api.ChannelChange:
		if i, ok := t.channels[p.Channel]; ok {
			t.snap.Channels[i].Value = p.Value
		}
		t.snap.Changes++
	case api.ControllerState:
		t.snap.State = p
	case api.ResolveResult:
		last := &LastResolve{Action: p.Action, Key: p.Key, OK: p.Err == nil, Time: ev.Time}
		if p.Err != nil {
			last.Error = p.Err.Error()
		}
		t.snap.LastResolve = last
		t.snap.State = p.State
	case api.PlaylistEntry:
		switch ev.Type {
		case api.EventMediaStarted:
			entry := p
			t.snap.Playing = &entry
		case api.EventMediaEnded:
			if t.snap.Playing != nil && t.snap.Playing.Path == p.Path {
				t.snap.Playing = nil
			}
		}
	}
	t.snap.Updated = ev.Time
}

// Snapshot returns a copy of the current view
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.snap
	s.Channels = append([]Channel(nil), t.snap.Channels...)
	s.Media = append([]api.PlaylistEntry(nil), t.snap.Media...)
	if t.snap.LastResolve != nil {
		last := *t.snap.LastResolve
		s.LastResolve = &last
	}
	if t.snap.Playing != nil {
		playing := *t.snap.Playing
		s.Playing = &playing
	}
	return s
}
