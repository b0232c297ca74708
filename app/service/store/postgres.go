package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"careloop/app/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS retention_sessions (
	customer_id TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	stage       TEXT NOT NULL,
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if _, err = pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create retention_sessions table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO retention_sessions (customer_id, session_id, stage, data, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			stage = EXCLUDED.stage,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		session.CustomerID, session.ID, string(session.Stage), data, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (s *PostgresStore) Load(ctx context.Context, customerID string) (domain.Session, bool, error) {
	var data []byte

	err := s.pool.QueryRow(ctx, `SELECT data FROM retention_sessions WHERE customer_id = $1`, customerID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("load session: %w", err)
	}

	var session domain.Session
	if err = json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("parse session: %w", err)
	}

	return session, true, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM retention_sessions ORDER BY customer_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Session, error) {
		var data []byte
		if err := row.Scan(&data); err != nil {
			return domain.Session{}, err
		}

		var session domain.Session
		err := json.Unmarshal(data, &session)

		return session, err
	})
}

func (s *PostgresStore) Shutdown() error {
	if s.pool != nil {
		s.pool.Close()
	}

	return nil
}
