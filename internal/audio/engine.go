package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
	"github.com/jscyril/dmx_media_trigger/internal/playlist"
	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
	"github.com/jscyril/dmx_media_trigger/pkg/events"
)

// Ensure Engine implements api.Engine at compile time
var _ api.Engine = (*Engine)(nil)

const (
	// MinRate and MaxRate bound the playback rate
	MinRate = 0.05
	MaxRate = 4.0

	resampleQuality = 4
)

// Engine plays playlist entries through a Sink. Loads start paused; the
// caller decides when to play. When an item ends the engine moves along
// the media list according to the play mode.
type Engine struct {
	sink       Sink
	sampleRate beep.SampleRate
	log        *slog.Logger
	bus        *events.EventBus
	queue      *playlist.Queue

	mu        sync.Mutex
	ready     bool
	streamer  beep.StreamSeekCloser
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	volume    *effects.Volume
	format    beep.Format
	current   api.PlaylistEntry
	loaded    bool
	status    api.Status
	mode      api.PlayMode
	rate      float64
	level     float64

	// generation tells end signals of a replaced stream apart from the live one
	generation uint64
	ended      chan uint64
}

// Option configures an Engine
type Option func(*Engine)

// WithSink replaces the system speaker
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithLogger sets the engine's logger
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithEventBus publishes media start/end and errors on bus
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithSampleRate sets the output sample rate
func WithSampleRate(sr beep.SampleRate) Option {
	return func(e *Engine) { e.sampleRate = sr }
}

// NewEngine creates an engine. The output device is opened on first load.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		sink:       SpeakerSink{},
		sampleRate: DefaultSampleRate,
		log:        logger.Discard(),
		queue:      playlist.NewQueue(),
		status:     api.StatusStopped,
		mode:       api.PlayModeDefault,
		rate:       1.0,
		level:      1.0,
		ended:      make(chan uint64, 4),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMediaList installs the contiguous media list. Entry positions must
// match their index in entries.
func (e *Engine) SetMediaList(entries []api.PlaylistEntry) {
	e.queue.Set(entries)
}

// MediaList returns the installed media list
func (e *Engine) MediaList() []api.PlaylistEntry {
	return e.queue.GetAll()
}

// Start handles end-of-media until ctx is cancelled, then stops playback
func (e *Engine) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return
		case gen := <-e.ended:
			e.handleEnd(gen)
		}
	}
}

// Load opens entry and makes it the current media, paused. On success the
// entry's play mode becomes the engine's.
func (e *Engine) Load(entry api.PlaylistEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.load(entry); err != nil {
		e.bus.Publish(api.EventError, err)
		return err
	}
	if err := e.queue.JumpTo(entry.Position); err != nil {
		e.log.Debug("entry not in media list", "key", entry.Key.String(), "position", entry.Position)
	}
	return nil
}

func (e *Engine) load(entry api.PlaylistEntry) error {
	streamer, format, err := Open(entry.Path)
	if err != nil {
		return err
	}

	if !e.ready {
		if err := e.sink.Init(e.sampleRate, bufferSize(e.sampleRate)); err != nil {
			streamer.Close()
			return playerrors.NewPlayerError("speaker_init", entry.Path, err)
		}
		e.ready = true
	}

	e.stopLocked()

	if entry.Mode != "" {
		e.mode = entry.Mode
		e.queue.SetMode(entry.Mode)
	}

	var source beep.Streamer = streamer
	if e.mode == api.PlayModeRepeat {
		source = beep.Loop(-1, streamer)
	}

	e.generation++
	gen := e.generation
	e.streamer = streamer
	e.format = format
	e.resampler = beep.ResampleRatio(resampleQuality, e.ratio(format.SampleRate), source)
	e.ctrl = &beep.Ctrl{Streamer: e.resampler, Paused: true}
	e.volume = &effects.Volume{
		Streamer: e.ctrl,
		Base:     2,
		Volume:   e.level*2 - 1,
		Silent:   e.level == 0,
	}
	e.current = entry
	e.loaded = true
	e.status = api.StatusPaused

	e.sink.Play(beep.Seq(e.volume, beep.Callback(func() {
		// runs on the sink goroutine with the sink locked
		select {
		case e.ended <- gen:
		default:
		}
	})))

	e.log.Debug("loaded", "path", entry.Path, "sample_rate", int(format.SampleRate))
	return nil
}

func (e *Engine) ratio(source beep.SampleRate) float64 {
	return float64(source) / float64(e.sampleRate) * e.rate
}

// Play starts or resumes the current media. With nothing loaded it does nothing.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil || e.status == api.StatusPlaying {
		return
	}
	started := e.position() == 0
	e.sink.Lock()
	e.ctrl.Paused = false
	e.sink.Unlock()

	e.status = api.StatusPlaying
	if started {
		e.bus.Publish(api.EventMediaStarted, e.current)
	}
}

// Pause pauses the current media
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil || e.status != api.StatusPlaying {
		return
	}
	e.sink.Lock()
	e.ctrl.Paused = true
	e.sink.Unlock()
	e.status = api.StatusPaused
}

// Stop stops playback and releases the current stream
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.ready {
		e.sink.Clear()
	}
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	e.ctrl = nil
	e.resampler = nil
	e.volume = nil
	e.status = api.StatusStopped
}

// IsPlaying reports whether media is playing
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status == api.StatusPlaying
}

// Status returns the coarse playback status
func (e *Engine) Status() api.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Rate returns the playback rate
func (e *Engine) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

// SetRate sets the playback rate, clamped to [MinRate, MaxRate]
func (e *Engine) SetRate(rate float64) {
	if rate < MinRate {
		rate = MinRate
	}
	if rate > MaxRate {
		rate = MaxRate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rate = rate
	if e.resampler != nil {
		e.sink.Lock()
		e.resampler.SetRatio(e.ratio(e.format.SampleRate))
		e.sink.Unlock()
	}
}

// SetPlayMode sets what happens when the current media ends. Load applies
// the mode of the loaded entry, and repeat only loops media loaded after it
// is set.
func (e *Engine) SetPlayMode(mode api.PlayMode) {
	e.mu.Lock()
	e.mode = mode
	e.mu.Unlock()
	e.queue.SetMode(mode)
}

// SetVolume sets the volume level (0.0 to 1.0)
func (e *Engine) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return playerrors.ErrInvalidVolume
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.level = level
	if e.volume != nil {
		e.sink.Lock()
		e.volume.Volume = level*2 - 1
		e.volume.Silent = level == 0
		e.sink.Unlock()
	}
	return nil
}

// Current returns the loaded entry
func (e *Engine) Current() (api.PlaylistEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.loaded
}

// Progress returns the position in and length of the current media
func (e *Engine) Progress() (position, length time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return 0, 0
	}
	e.sink.Lock()
	pos, n := e.streamer.Position(), e.streamer.Len()
	e.sink.Unlock()
	return e.format.SampleRate.D(pos), e.format.SampleRate.D(n)
}

// position must be called with e.mu held
func (e *Engine) position() int {
	if e.streamer == nil {
		return 0
	}
	e.sink.Lock()
	defer e.sink.Unlock()
	return e.streamer.Position()
}

func (e *Engine) handleEnd(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation || e.streamer == nil {
		return
	}
	ended := e.current
	e.bus.Publish(api.EventMediaEnded, ended)

	next, ok := e.queue.Next()
	if !ok {
		e.log.Info("end of media list", "key", ended.Key.String())
		e.stopLocked()
		return
	}

	if err := e.load(next); err != nil {
		e.log.Error("advance media list", "path", next.Path, "error", err)
		e.bus.Publish(api.EventError, err)
		e.stopLocked()
		return
	}
	e.sink.Lock()
	e.ctrl.Paused = false
	e.sink.Unlock()
	e.status = api.StatusPlaying
	e.log.Info("advanced", "from", ended.Key.String(), "to", next.Key.String(), "mode", string(e.mode))
	e.bus.Publish(api.EventMediaStarted, next)
}
