package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/eventboard/backend/internal/service"
	"github.com/itchan-dev/eventboard/shared/logger"
	shared_pg "github.com/itchan-dev/eventboard/shared/storage/pg"
	"github.com/lib/pq"
)

// Querier lets internal helpers run on the pool or inside a transaction.
type Querier = shared_pg.Querier

// Storage is the Postgres record store for users, images and notices.
type Storage struct {
	db *sql.DB
}

var (
	_ service.AuthStorage    = (*Storage)(nil)
	_ service.GalleryStorage = (*Storage)(nil)
	_ service.NoticeStorage  = (*Storage)(nil)
	_ service.GCStorage      = (*Storage)(nil)
)

// New connects to dsn and applies pending migrations.
func New(ctx context.Context, dsn string) (*Storage, error) {
	logger.Log.Info("connecting to db")
	db, err := shared_pg.Connect(ctx, dsn, shared_pg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Log.Info("successfully connected to db")
	return &Storage{db: db}, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// Ping backs the readiness probe.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return shared_pg.WithTx(ctx, s.db, fn)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}
