package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", src, "postgres", driver)
}

func MigrateUp(db *sql.DB, log zerolog.Logger) error {
	log.Info().Msg("migrating up")

	m, err := newMigrate(db)
	if err != nil {
		return fmt.Errorf("db.MigrateUp: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db.MigrateUp: %w", err)
	}

	return nil
}

func MigrateDown(db *sql.DB, log zerolog.Logger) error {
	log.Info().Msg("migrating down")

	m, err := newMigrate(db)
	if err != nil {
		return fmt.Errorf("db.MigrateDown: %w", err)
	}

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db.MigrateDown: %w", err)
	}

	return nil
}
