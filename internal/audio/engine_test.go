package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/jscyril/dmx_media_trigger/api"
	playerrors "github.com/jscyril/dmx_media_trigger/pkg/errors"
	"github.com/jscyril/dmx_media_trigger/pkg/events"
)

// fakeSink records streamers instead of sending them to a device. drain
// pulls a streamer the way the speaker goroutine would.
type fakeSink struct {
	mu      sync.Mutex
	inits   int
	played  []beep.Streamer
	clears  int
	initErr error
}

func (s *fakeSink) Init(beep.SampleRate, int) error {
	s.inits++
	return s.initErr
}

func (s *fakeSink) Play(st ...beep.Streamer) { s.played = append(s.played, st...) }
func (s *fakeSink) Clear()                   { s.clears++ }
func (s *fakeSink) Lock()                    { s.mu.Lock() }
func (s *fakeSink) Unlock()                  { s.mu.Unlock() }

func (s *fakeSink) drain(t *testing.T, i int) {
	t.Helper()
	buf := make([][2]float64, 512)
	for n := 0; n < 10000; n++ {
		s.Lock()
		_, ok := s.played[i].Stream(buf)
		s.Unlock()
		if !ok {
			return
		}
	}
	t.Fatalf("streamer %d never ended", i)
}

func writeWAV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Silence(format.SampleRate.N(50*time.Millisecond)), format); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

func mediaList(t *testing.T, names ...string) []api.PlaylistEntry {
	t.Helper()
	dir := t.TempDir()
	entries := make([]api.PlaylistEntry, len(names))
	for i, name := range names {
		entries[i] = api.PlaylistEntry{
			Key:      api.ProgramKey{Program: 0, SubProgram: i},
			Path:     writeWAV(t, dir, name),
			Mode:     api.PlayModeDefault,
			Position: i,
		}
	}
	return entries
}

func TestNewEngine(t *testing.T) {
	e := NewEngine(WithSink(&fakeSink{}))

	if e.Status() != api.StatusStopped {
		t.Errorf("Status = %v, want stopped", e.Status())
	}
	if e.Rate() != 1.0 {
		t.Errorf("Rate = %v, want 1.0", e.Rate())
	}
	if _, ok := e.Current(); ok {
		t.Error("Current reported an entry before any load")
	}

	// nothing loaded: play and pause are no-ops
	e.Play()
	e.Pause()
	if e.IsPlaying() {
		t.Error("playing with nothing loaded")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	sink := &fakeSink{}
	bus := events.NewEventBus()
	errs := bus.Subscribe(api.EventError)
	e := NewEngine(WithSink(sink), WithEventBus(bus))

	err := e.Load(api.PlaylistEntry{Path: filepath.Join(t.TempDir(), "gone.wav")})
	if !errors.Is(err, playerrors.ErrResourceNotFound) {
		t.Fatalf("err = %v, want ErrResourceNotFound", err)
	}
	if sink.inits != 0 {
		t.Error("output opened for a missing file")
	}
	select {
	case <-errs:
	default:
		t.Error("no error event published")
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	err := NewEngine(WithSink(&fakeSink{})).Load(api.PlaylistEntry{Path: path})
	if !errors.Is(err, playerrors.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestLoad_StartsPaused(t *testing.T) {
	sink := &fakeSink{}
	bus := events.NewEventBus()
	started := bus.Subscribe(api.EventMediaStarted)
	e := NewEngine(WithSink(sink), WithEventBus(bus))
	entries := mediaList(t, "a.wav")
	e.SetMediaList(entries)

	if err := e.Load(entries[0]); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.IsPlaying() || e.Status() != api.StatusPaused {
		t.Fatalf("Status = %v after load, want paused", e.Status())
	}
	if sink.inits != 1 || len(sink.played) != 1 {
		t.Fatalf("inits=%d played=%d, want 1 1", sink.inits, len(sink.played))
	}

	e.Play()
	if !e.IsPlaying() {
		t.Fatal("not playing after Play")
	}
	select {
	case ev := <-started:
		if ev.Payload.(api.PlaylistEntry).Path != entries[0].Path {
			t.Errorf("started payload = %+v", ev.Payload)
		}
	default:
		t.Error("no media started event")
	}

	e.Pause()
	if e.IsPlaying() {
		t.Error("playing after Pause")
	}

	// reload reuses the opened output
	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}
	if sink.inits != 1 {
		t.Errorf("inits = %d, want 1", sink.inits)
	}
}

func TestSetRate_Clamped(t *testing.T) {
	e := NewEngine(WithSink(&fakeSink{}))
	entries := mediaList(t, "a.wav")
	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"normal", 1.05, 1.05},
		{"slow", 0.5, 0.5},
		{"too fast", 10, MaxRate},
		{"zero", 0, MinRate},
		{"negative", -1, MinRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.SetRate(tt.in)
			if got := e.Rate(); got != tt.want {
				t.Errorf("Rate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetVolume(t *testing.T) {
	e := NewEngine(WithSink(&fakeSink{}))

	tests := []struct {
		name    string
		volume  float64
		wantErr bool
	}{
		{"zero volume", 0.0, false},
		{"half volume", 0.5, false},
		{"full volume", 1.0, false},
		{"below zero", -0.1, true},
		{"above one", 1.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.SetVolume(tt.volume)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetVolume(%f) error = %v, wantErr %v", tt.volume, err, tt.wantErr)
			}
		})
	}
}

func TestEndOfMedia(t *testing.T) {
	tests := []struct {
		name     string
		mode     api.PlayMode
		wantNext []int // index of the entry current after each end, -1 for stopped
	}{
		{"default stops after last", api.PlayModeDefault, []int{1, -1}},
		{"loop wraps", api.PlayModeLoop, []int{1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{}
			e := NewEngine(WithSink(sink))
			entries := mediaList(t, "a.wav", "b.wav")
			for i := range entries {
				entries[i].Mode = tt.mode
			}
			e.SetMediaList(entries)

			if err := e.Load(entries[0]); err != nil {
				t.Fatal(err)
			}
			e.Play()

			for step, want := range tt.wantNext {
				sink.drain(t, len(sink.played)-1)
				e.handleEnd(<-e.ended)

				if want < 0 {
					if e.Status() != api.StatusStopped {
						t.Fatalf("step %d: status = %v, want stopped", step, e.Status())
					}
					continue
				}
				cur, _ := e.Current()
				if cur.Path != entries[want].Path {
					t.Fatalf("step %d: current = %s, want %s", step, cur.Path, entries[want].Path)
				}
				if !e.IsPlaying() {
					t.Fatalf("step %d: not playing after advance", step)
				}
			}
		})
	}
}

func TestEndOfMedia_RepeatNeverEnds(t *testing.T) {
	sink := &fakeSink{}
	e := NewEngine(WithSink(sink))
	entries := mediaList(t, "a.wav")
	entries[0].Mode = api.PlayModeRepeat
	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}
	e.Play()

	buf := make([][2]float64, 512)
	for i := 0; i < 50; i++ {
		sink.Lock()
		_, ok := sink.played[0].Stream(buf)
		sink.Unlock()
		if !ok {
			t.Fatal("repeating stream ended")
		}
	}
	select {
	case gen := <-e.ended:
		t.Errorf("end signalled for generation %d", gen)
	default:
	}
}

func TestEndOfMedia_AdvanceTakesNextMode(t *testing.T) {
	sink := &fakeSink{}
	e := NewEngine(WithSink(sink))
	entries := mediaList(t, "a.wav", "b.wav")
	entries[0].Mode = api.PlayModeLoop
	e.SetMediaList(entries)

	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}
	e.Play()

	sink.drain(t, len(sink.played)-1)
	e.handleEnd(<-e.ended)
	if cur, _ := e.Current(); cur.Path != entries[1].Path {
		t.Fatalf("current = %s, want %s", cur.Path, entries[1].Path)
	}

	// b plays in default mode, so the list stops instead of wrapping to a
	sink.drain(t, len(sink.played)-1)
	e.handleEnd(<-e.ended)
	if e.Status() != api.StatusStopped {
		t.Errorf("status = %v, want stopped after the default-mode entry", e.Status())
	}
}

func TestLoad_FailureKeepsMode(t *testing.T) {
	sink := &fakeSink{}
	e := NewEngine(WithSink(sink))
	entries := mediaList(t, "a.wav")
	entries[0].Mode = api.PlayModeLoop
	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}

	missing := api.PlaylistEntry{Path: filepath.Join(t.TempDir(), "gone.wav"), Mode: api.PlayModeRepeat}
	if err := e.Load(missing); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
	if e.mode != api.PlayModeLoop {
		t.Errorf("mode = %v after failed load, want loop", e.mode)
	}
}

func TestEndOfMedia_StaleStreamIgnored(t *testing.T) {
	sink := &fakeSink{}
	e := NewEngine(WithSink(sink))
	entries := mediaList(t, "a.wav", "b.wav")
	e.SetMediaList(entries)

	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}
	if err := e.Load(entries[1]); err != nil {
		t.Fatal(err)
	}
	e.Play()

	// the replaced stream was already closed; drive only its end callback
	e.handleEnd(e.generation - 1)
	cur, _ := e.Current()
	if cur.Path != entries[1].Path || !e.IsPlaying() {
		t.Errorf("stale end moved playback: current %s playing %v", cur.Path, e.IsPlaying())
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	sink := &fakeSink{}
	e := NewEngine(WithSink(sink))
	entries := mediaList(t, "a.wav")
	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}
	e.Play()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}
	if e.Status() != api.StatusStopped {
		t.Errorf("Status = %v, want stopped", e.Status())
	}
}

func TestProgress(t *testing.T) {
	e := NewEngine(WithSink(&fakeSink{}))
	if pos, n := e.Progress(); pos != 0 || n != 0 {
		t.Errorf("Progress = %v %v with nothing loaded", pos, n)
	}
	entries := mediaList(t, "a.wav")
	if err := e.Load(entries[0]); err != nil {
		t.Fatal(err)
	}
	if _, n := e.Progress(); n < 40*time.Millisecond || n > 60*time.Millisecond {
		t.Errorf("length = %v, want about 50ms", n)
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.mp3", true},
		{"a.WAV", true},
		{"dir/a.flac", true},
		{"a.ogg", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsSupported(tt.path); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
