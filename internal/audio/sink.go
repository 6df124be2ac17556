package audio

import (
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Sink is the audio output. Streamers handed to Play are pulled from the
// sink's own goroutine; Lock must be held while changing their state.
type Sink interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// SpeakerSink plays through the system audio device
type SpeakerSink struct{}

func (SpeakerSink) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (SpeakerSink) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (SpeakerSink) Clear()                  { speaker.Clear() }
func (SpeakerSink) Lock()                   { speaker.Lock() }
func (SpeakerSink) Unlock()                 { speaker.Unlock() }

// DefaultSampleRate is the output rate every source is resampled to
const DefaultSampleRate beep.SampleRate = 44100

func bufferSize(sr beep.SampleRate) int {
	return sr.N(time.Second / 10)
}
