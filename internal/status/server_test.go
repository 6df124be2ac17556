package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/platform/metrics"
)

func newTestServer(t *testing.T) (*Server, *Tracker, *metrics.Metrics) {
	t.Helper()
	tracker := NewTracker([]Channel{
		{Channel: 0, Command: "program"},
		{Channel: 2, Command: "rate"},
	}, []api.PlaylistEntry{{Path: "/media/a.mp3"}})
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := metrics.New()
	return NewServer(":0", tracker, m, log), tracker, m
}

func TestServer_Health(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestServer_Status(t *testing.T) {
	s, tracker, _ := newTestServer(t)
	now := time.Now()
	tracker.Apply(api.Event{Type: api.EventChannelChange, Payload: api.ChannelChange{Channel: 2, Command: "rate", Previous: -1, Value: 12}, Time: now})
	tracker.Apply(api.Event{Type: api.EventResolve, Payload: api.ResolveResult{
		Action: "program",
		Key:    api.ProgramKey{Program: 3, SubProgram: 1},
		Err:    errors.New("resource not found"),
		State:  api.ControllerState{Requested: api.ProgramKey{Program: 3, SubProgram: 1}},
	}, Time: now})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var snap Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Channels[0].Value != -1 || snap.Channels[1].Value != 12 {
		t.Errorf("channels = %+v, want [-1 12]", snap.Channels)
	}
	if snap.LastResolve == nil || snap.LastResolve.OK || snap.LastResolve.Error != "resource not found" {
		t.Errorf("last resolve = %+v, want failed program", snap.LastResolve)
	}
	if snap.State.Requested.Program != 3 {
		t.Errorf("requested = %v, want 3.1", snap.State.Requested)
	}
	if len(snap.Media) != 1 {
		t.Errorf("media = %d entries, want 1", len(snap.Media))
	}
}

func TestServer_Metrics(t *testing.T) {
	s, _, m := newTestServer(t)
	m.IncFrames()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dmx_trigger_frames_total 1") {
		t.Errorf("metrics output missing frame counter:\n%s", rec.Body.String())
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	tracker := NewTracker(nil, nil)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewServer("127.0.0.1:0", tracker, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
