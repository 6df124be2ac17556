package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/pkg/events"
)

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func (f *fakeDB) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	r := newRecorder(db, nil)

	if err := r.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	calls := db.snapshot()
	if len(calls) != 1 || !strings.Contains(calls[0].sql, "CREATE TABLE IF NOT EXISTS playback_history") {
		t.Errorf("calls = %+v", calls)
	}
}

func TestRecord(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantOK     bool
		wantDetail string
	}{
		{"success", nil, true, ""},
		{"failure", errors.New("resource not found"), false, "resource not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{}
			r := newRecorder(db, nil)
			at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

			res := api.ResolveResult{Action: "program", Key: api.ProgramKey{Program: 2, SubProgram: 1}, Err: tt.err}
			if err := r.Record(context.Background(), res, at); err != nil {
				t.Fatal(err)
			}

			args := db.snapshot()[0].args
			if args[0].(uuid.UUID) != r.Session() {
				t.Errorf("session = %v, want %v", args[0], r.Session())
			}
			if args[1] != "program" || args[2] != 2 || args[3] != 1 {
				t.Errorf("action/key args = %v", args[1:4])
			}
			if args[4] != tt.wantOK || args[5] != tt.wantDetail {
				t.Errorf("ok/detail = %v %q, want %v %q", args[4], args[5], tt.wantOK, tt.wantDetail)
			}
			if !args[6].(time.Time).Equal(at) {
				t.Errorf("recorded_at = %v, want %v", args[6], at)
			}
		})
	}
}

func TestRecord_Error(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	r := newRecorder(db, nil)
	if err := r.Record(context.Background(), api.ResolveResult{Action: "rewind"}, time.Now()); err == nil {
		t.Error("expected error from failed insert")
	}
}

func TestRun_RecordsResolveEvents(t *testing.T) {
	db := &fakeDB{err: nil}
	r := newRecorder(db, nil)
	bus := events.NewEventBus()
	sub := bus.Subscribe(api.EventResolve)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, sub) }()

	bus.Publish(api.EventResolve, api.ResolveResult{Action: "program"})
	bus.Publish(api.EventResolve, api.ResolveResult{Action: "ramp_rate"})

	deadline := time.Now().Add(2 * time.Second)
	for len(db.snapshot()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("recorded %d rows, want 2", len(db.snapshot()))
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
}

func TestRun_KeepsGoingAfterWriteFailure(t *testing.T) {
	db := &fakeDB{err: errors.New("down")}
	r := newRecorder(db, nil)
	ch := make(chan api.Event, 2)
	ch <- api.Event{Type: api.EventResolve, Payload: api.ResolveResult{Action: "program"}}
	ch <- api.Event{Type: api.EventResolve, Payload: api.ResolveResult{Action: "rewind"}}
	close(ch)

	if err := r.Run(context.Background(), ch); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if got := len(db.snapshot()); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}
