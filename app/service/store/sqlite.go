package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"careloop/app/domain"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	customer_id TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	stage       TEXT NOT NULL,
	data        TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
)`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (customer_id, session_id, stage, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (customer_id) DO UPDATE SET
			session_id = excluded.session_id,
			stage = excluded.stage,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		session.CustomerID, session.ID, string(session.Stage), string(data), session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, customerID string) (domain.Session, bool, error) {
	var data string

	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE customer_id = ?`, customerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err = json.Unmarshal([]byte(data), &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("failed to parse session: %w", err)
	}

	return session, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM sessions ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		var session domain.Session
		if err = json.Unmarshal([]byte(data), &session); err != nil {
			return nil, fmt.Errorf("failed to parse session: %w", err)
		}

		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}
