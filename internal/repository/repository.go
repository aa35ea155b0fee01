package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agromarket/internal/config"
	"agromarket/internal/models"
	"agromarket/internal/storage"

	postgres "agromarket/internal/repository/db"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so every query helper
// runs either standalone or inside a unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db  *sql.DB
	cfg *config.PostgresConfig
	log zerolog.Logger
}

var _ storage.Store = (*Repository)(nil)

func NewRepository(db *sql.DB, cfg *config.PostgresConfig, log zerolog.Logger) (*Repository, error) {
	var err error

	repo := &Repository{
		db:  db,
		cfg: cfg,
		log: log.With().Str("component", "repository").Logger(),
	}

	if repo.cfg == nil {
		repo.cfg, err = config.NewPostgresConfig()
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not load postgres config: %w", err)
		}
	}

	if repo.db == nil {
		repo.db, err = postgres.NewPostgresDB(repo.cfg, repo.log)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRepository: could not open postgres db: %w", err)
		}
	}

	if repo.cfg.AutoMigrateUp {
		err = repo.MigrateUp()
		if err != nil {
			return nil, err
		}
	}

	return repo, nil
}

func (repo *Repository) MigrateUp() error {
	err := postgres.MigrateUp(repo.db, repo.log)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateUp: %w", err)
	}
	return nil
}

func (repo *Repository) MigrateDown() error {
	err := postgres.MigrateDown(repo.db, repo.log)
	if err != nil {
		return fmt.Errorf("repository.Repository.MigrateDown: %w", err)
	}
	return nil
}

// Atomic runs fn inside a read committed transaction. Isolation between
// competing writers comes from the row locks taken through the Tx.
func (repo *Repository) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := repo.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("repository.Repository.Atomic: failed to start transaction: %w", err)
	}

	err = fn(&txRepository{tx: tx})
	if err != nil {
		return wrapRollbackErr(tx, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("repository.Repository.Atomic: failed to commit transaction: %w", mapPQError(err))
	}

	return nil
}

func (repo *Repository) Close() error {
	var migErr error
	if repo.cfg.AutoMigrateDown {
		migErr = repo.MigrateDown()
	}

	err := repo.db.Close()
	return errors.Join(migErr, err)
}

// txRepository is the storage.Tx backed by an open *sql.Tx.
type txRepository struct {
	tx *sql.Tx
}

//// Service

func wrapRollbackErr(tx *sql.Tx, err error) error {
	rollerr := tx.Rollback()
	if rollerr == nil {
		return err
	}
	return fmt.Errorf("failed to rollback transaction after previous error: %w, %w", rollerr, err)
}

const (
	pqUniqueViolation   = "23505"
	pqCheckViolation    = "23514"
	pqNumericOutOfRange = "22003"
)

// mapPQError turns unique violations on the order table into the state error
// they stand for: a listing can only ever produce one order. Check and range
// violations are rejected input.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		switch pqErr.Constraint {
		case "uq_orders_listing_id", "uq_orders_bid_id":
			return fmt.Errorf("%w: %w", models.ErrListingClosed, err)
		}
	case pqCheckViolation, pqNumericOutOfRange:
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	return err
}

func limitParam(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
