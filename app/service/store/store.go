// Package store persists session snapshots keyed by customer id. Writes are
// last-write-wins.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"careloop/app/config"
	"careloop/app/domain"

	"github.com/samber/do"
)

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Store implements do.Shutdownable so the injector closes it on exit.
type Store interface {
	Save(ctx context.Context, s domain.Session) error
	Load(ctx context.Context, customerID string) (domain.Session, bool, error)
	List(ctx context.Context) ([]domain.Session, error)
	Shutdown() error
}

func New(di *do.Injector) (Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	slog.Info("Opening session store",
		slog.String("driver", cfg.Store.Driver),
	)

	switch cfg.Store.Driver {
	case "file":
		return NewFileStore(cfg.Store.Path)
	case "sqlite":
		return NewSQLiteStore(context.Background(), cfg.Store.Path)
	case "postgres":
		return NewPostgresStore(context.Background(), cfg.Store.DSN)
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
