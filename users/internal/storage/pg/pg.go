package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/compass-ms/usernotify/shared/config"
	"github.com/compass-ms/usernotify/shared/logger"
	shared_pg "github.com/compass-ms/usernotify/shared/storage/pg"
)

// Storage holds the user service's postgres connection pool.
type Storage struct {
	db *sql.DB
}

func New(cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to db", "host", cfg.Public.Pg.Host, "dbname", cfg.Public.Pg.Dbname)
	db, err := shared_pg.Connect(cfg, shared_pg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	logger.Log.Info("connected to db")
	return &Storage{db}, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable, for readiness probes.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx bounds every write with a timeout on top of the shared helper.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return shared_pg.WithTx(ctx, s.db, fn)
}
