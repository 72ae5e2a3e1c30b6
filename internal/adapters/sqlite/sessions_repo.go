package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/domain"
	"github.com/Guilhem-Bonnet/Twitch-AFK-Watcher/internal/ports"
)

type SessionsRepository struct {
	db *sql.DB
}

func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

// Upsert écrase la ligne entière: chaque event watch.* porte le snapshot
// complet de la session, le dernier gagne.
func (r *SessionsRepository) Upsert(ctx context.Context, s domain.WatchSession) (domain.WatchSession, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watch_sessions(id, channel, quality, trigger_kind, state, pid, retries, started_at, ended_at, exit_code, error_code, error_message)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			pid = excluded.pid,
			retries = excluded.retries,
			ended_at = excluded.ended_at,
			exit_code = excluded.exit_code,
			error_code = excluded.error_code,
			error_message = excluded.error_message
	`, s.ID, s.Channel, s.Quality, string(s.Trigger), string(s.State), s.PID, s.Retries,
		formatTime(s.StartedAt), formatTime(s.EndedAt), s.ExitCode, s.ErrorCode, s.ErrorMessage)
	if err != nil {
		return domain.WatchSession{}, err
	}
	return r.Get(ctx, s.ID)
}

func (r *SessionsRepository) Get(ctx context.Context, id string) (domain.WatchSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, channel, quality, trigger_kind, state, pid, retries, started_at, ended_at, exit_code, error_code, error_message
		FROM watch_sessions WHERE id = ?
	`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WatchSession{}, ports.ErrNotFound
		}
		return domain.WatchSession{}, err
	}
	return s, nil
}

func (r *SessionsRepository) List(ctx context.Context, limit int) ([]domain.WatchSession, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, channel, quality, trigger_kind, state, pid, retries, started_at, ended_at, exit_code, error_code, error_message
		FROM watch_sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WatchSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.WatchSession, error) {
	var s domain.WatchSession
	var trigger, state, startedAt, endedAt string
	err := row.Scan(&s.ID, &s.Channel, &s.Quality, &trigger, &state, &s.PID, &s.Retries,
		&startedAt, &endedAt, &s.ExitCode, &s.ErrorCode, &s.ErrorMessage)
	if err != nil {
		return domain.WatchSession{}, err
	}
	s.Trigger = domain.Trigger(trigger)
	s.State = domain.SessionState(state)
	s.StartedAt = parseTime(startedAt)
	s.EndedAt = parseTime(endedAt)
	return s, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
