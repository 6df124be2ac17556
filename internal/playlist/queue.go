package playlist

import (
	"errors"
	"sync"

	"github.com/jscyril/dmx_media_trigger/api"
)

// Queue is the engine's contiguous media list. Entries are addressed by
// their playlist position.
type Queue struct {
	entries []api.PlaylistEntry
	index   int
	mode    api.PlayMode
	mu      sync.RWMutex
}

// NewQueue creates a new empty queue
func NewQueue() *Queue {
	return &Queue{
		entries: make([]api.PlaylistEntry, 0),
		index:   -1,
		mode:    api.PlayModeDefault,
	}
}

// Set replaces the entire queue with new entries
func (q *Queue) Set(entries []api.PlaylistEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = make([]api.PlaylistEntry, len(entries))
	copy(q.entries, entries)
	q.index = -1
}

// Current returns the current entry
func (q *Queue) Current() (api.PlaylistEntry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.index < 0 || q.index >= len(q.entries) {
		return api.PlaylistEntry{}, false
	}
	return q.entries[q.index], true
}

// Next moves to the entry that follows the current one under the queue's
// play mode. It returns false at the end of the list in default mode.
func (q *Queue) Next() (api.PlaylistEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 || q.index < 0 {
		return api.PlaylistEntry{}, false
	}

	switch q.mode {
	case api.PlayModeRepeat:
		// Stay on current entry
	case api.PlayModeLoop:
		q.index = (q.index + 1) % len(q.entries)
	default:
		if q.index >= len(q.entries)-1 {
			return api.PlaylistEntry{}, false // End of list
		}
		q.index++
	}

	return q.entries[q.index], true
}

// JumpTo makes the entry at position current
func (q *Queue) JumpTo(position int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if position < 0 || position >= len(q.entries) {
		return errors.New("position out of bounds")
	}

	q.index = position
	return nil
}

// SetMode sets the play mode
func (q *Queue) SetMode(mode api.PlayMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.mode = mode
}

// Mode returns the current play mode
func (q *Queue) Mode() api.PlayMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.mode
}

// GetAll returns a copy of all entries in the queue
func (q *Queue) GetAll() []api.PlaylistEntry {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]api.PlaylistEntry, len(q.entries))
	copy(result, q.entries)
	return result
}

// Len returns the number of entries in the queue
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Index returns the current position, or -1 before the first JumpTo
func (q *Queue) Index() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.index
}

// HasNext returns true if Next would return an entry
func (q *Queue) HasNext() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.index < 0 {
		return false
	}
	if q.mode == api.PlayModeLoop || q.mode == api.PlayModeRepeat {
		return len(q.entries) > 0
	}
	return q.index < len(q.entries)-1
}
