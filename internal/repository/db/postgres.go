package db

import (
	"database/sql"

	"agromarket/internal/config"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func NewPostgresDB(cfg *config.PostgresConfig, log zerolog.Logger) (*sql.DB, error) {
	log.Info().Msg("connecting postgres")
	db, err := sql.Open("postgres", cfg.Conn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
