package dmx

// UniverseSize is the number of channels in one DMX512 universe
const UniverseSize = 512

// Unset is the snapshot value of a channel no frame has carried yet
const Unset = -1

// Frame is one universe worth of channel values as delivered by the transport
type Frame []byte

// Change is a monitored channel whose value differs from the previous frame
type Change struct {
	Channel  int
	Command  Command
	Previous int
	Value    int
}

// Differ keeps the last seen value of every bound channel and reports
// changes. It is not safe for concurrent use; frames must be fed from a
// single goroutine.
type Differ struct {
	bindings []Binding
	snapshot [UniverseSize]int
}

// NewDiffer creates a differ monitoring the given bindings in order
func NewDiffer(bindings []Binding) *Differ {
	d := &Differ{bindings: append([]Binding(nil), bindings...)}
	for i := range d.snapshot {
		d.snapshot[i] = Unset
	}
	return d
}

// Each calls fn for every bound channel whose value changed, in binding
// order. The snapshot entry is overwritten right after fn returns. A frame
// too short for a binding ends processing of that frame. Each returns the
// number of changes reported.
func (d *Differ) Each(frame Frame, fn func(Change)) int {
	n := 0
	for _, b := range d.bindings {
		if b.Channel < 0 || b.Channel >= len(frame) || b.Channel >= UniverseSize {
			break
		}
		value := int(frame[b.Channel])
		previous := d.snapshot[b.Channel]
		if value == previous {
			continue
		}
		fn(Change{Channel: b.Channel, Command: b.Command, Previous: previous, Value: value})
		d.snapshot[b.Channel] = value
		n++
	}
	return n
}

// Diff returns the changes of frame against the snapshot and records them
func (d *Differ) Diff(frame Frame) []Change {
	var changes []Change
	d.Each(frame, func(c Change) {
		changes = append(changes, c)
	})
	return changes
}

// Value returns the last seen value of channel, or Unset
func (d *Differ) Value(channel int) int {
	if channel < 0 || channel >= UniverseSize {
		return Unset
	}
	return d.snapshot[channel]
}

// Values returns the last seen value of every bound channel, in binding order
func (d *Differ) Values() []int {
	out := make([]int, len(d.bindings))
	for i, b := range d.bindings {
		out[i] = d.Value(b.Channel)
	}
	return out
}

// Truncated reports whether frame is too short to carry every binding
func (d *Differ) Truncated(frame Frame) bool {
	for _, b := range d.bindings {
		if b.Channel >= len(frame) {
			return true
		}
	}
	return false
}
