package pg

import (
	"context"
	"database/sql"

	"github.com/compass-ms/usernotify/shared/config"
	"github.com/compass-ms/usernotify/shared/logger"
	shared_pg "github.com/compass-ms/usernotify/shared/storage/pg"
)

// Storage persists consumed queue messages for the notify service.
type Storage struct {
	db *sql.DB
}

func New(cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to db", "host", cfg.Public.Pg.Host, "dbname", cfg.Public.Pg.Dbname)
	db, err := shared_pg.Connect(cfg, shared_pg.LightweightConnectionConfig())
	if err != nil {
		return nil, err
	}
	logger.Log.Info("connected to db")
	return &Storage{db}, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
