package dmx

// Command is a semantic playback command carried by a channel
type Command int

const (
	CmdProgram Command = iota
	CmdSubProgram
	CmdRate
	CmdResetRate
	CmdRewind
	CmdPause
	CmdResume
	CmdRelease

	numCommands
)

var commandNames = [...]string{
	CmdProgram:    "program",
	CmdSubProgram: "sub_program",
	CmdRate:       "rate",
	CmdResetRate:  "reset_rate",
	CmdRewind:     "rewind",
	CmdPause:      "pause",
	CmdResume:     "resume",
	CmdRelease:    "release",
}

func (c Command) String() string {
	if c.Valid() {
		return commandNames[c]
	}
	return "unknown"
}

// Valid reports whether c is one of the known commands
func (c Command) Valid() bool {
	return c >= 0 && c < numCommands
}

// Binding pairs a channel index with the command it carries
type Binding struct {
	Channel int
	Command Command
}

// DefaultBindings is the operator patch: one channel per command, in
// ascending semantic order so a program selection is always handled before
// the sub-program selection of the same frame.
func DefaultBindings() []Binding {
	return []Binding{
		{Channel: 0, Command: CmdProgram},
		{Channel: 1, Command: CmdSubProgram},
		{Channel: 2, Command: CmdRate},
		{Channel: 3, Command: CmdResetRate},
		{Channel: 4, Command: CmdRewind},
		{Channel: 5, Command: CmdPause},
		{Channel: 6, Command: CmdResume},
	}
}

// GatedBindings is DefaultBindings plus the release gate on channel 7
func GatedBindings() []Binding {
	return append(DefaultBindings(), Binding{Channel: 7, Command: CmdRelease})
}
