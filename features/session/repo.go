package session

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, s *Session) error {
	query := `INSERT INTO sessions (name) VALUES ($1) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, s.Name).Scan(&s.ID, &s.CreatedAt)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Session, error) {
	query := `SELECT id, name, created_at FROM sessions ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Session, error) {
	s := &Session{}
	query := `SELECT id, name, created_at FROM sessions WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Delete relies on ON DELETE CASCADE to take sources, chunks, and
// history down with the session.
func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

func (r *PostgresRepo) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	query := `INSERT INTO chat_history (session_id, is_user, message) VALUES ($1, $2, $3) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, e.SessionID, e.IsUser, e.Message).Scan(&e.ID, &e.CreatedAt)
}

func (r *PostgresRepo) ListHistory(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	query := `SELECT id, session_id, is_user, message, created_at FROM chat_history WHERE session_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.IsUser, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
