package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jscyril/dmx_media_trigger/api"
	"github.com/jscyril/dmx_media_trigger/internal/platform/logger"
)

const schema = `CREATE TABLE IF NOT EXISTS playback_history (
	id          BIGSERIAL PRIMARY KEY,
	session_id  UUID        NOT NULL,
	action      TEXT        NOT NULL,
	program     INTEGER     NOT NULL,
	sub_program INTEGER     NOT NULL,
	ok          BOOLEAN     NOT NULL,
	detail      TEXT        NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL
)`

const insertRow = `INSERT INTO playback_history
	(session_id, action, program, sub_program, ok, detail, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

const writeTimeout = 2 * time.Second

// execer is the part of a pgx pool the recorder needs
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder stores every executed resolve action in Postgres. Rows of one
// process run share a session id.
type Recorder struct {
	db      execer
	pool    *pgxpool.Pool
	session uuid.UUID
	log     *slog.Logger
}

// Open connects to dsn and creates the history table if needed
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect history db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	r := newRecorder(pool, log)
	r.pool = pool
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func newRecorder(db execer, log *slog.Logger) *Recorder {
	if log == nil {
		log = logger.Discard()
	}
	return &Recorder{db: db, session: uuid.New(), log: log}
}

// Session returns the id shared by this run's rows
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// EnsureSchema creates the history table
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create playback_history: %w", err)
	}
	return nil
}

// Record inserts one resolve result
func (r *Recorder) Record(ctx context.Context, res api.ResolveResult, at time.Time) error {
	detail := ""
	if res.Err != nil {
		detail = res.Err.Error()
	}
	_, err := r.db.Exec(ctx, insertRow,
		r.session,
		res.Action,
		res.Key.Program,
		res.Key.SubProgram,
		res.Err == nil,
		detail,
		at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert playback_history: %w", err)
	}
	return nil
}

// Run records resolve events until ctx is cancelled or events is closed.
// Write failures are logged and do not stop recording.
func (r *Recorder) Run(ctx context.Context, events <-chan api.Event) error {
	r.log.Info("recording playback history", "session", r.session.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			res, ok := ev.Payload.(api.ResolveResult)
			if !ok {
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			if err := r.Record(wctx, res, ev.Time); err != nil {
				r.log.Warn("history write failed", "action", res.Action, "error", err)
			}
			cancel()
		}
	}
}

// Close releases the connection pool
func (r *Recorder) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
