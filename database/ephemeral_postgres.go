package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/stapelberg/postgrestest"
)

// ephemeralPostgres is a throwaway PostgreSQL server with one database.
type ephemeralPostgres struct {
	db     *sql.DB
	server *postgrestest.Server
}

// startEphemeralPostgres starts a PostgreSQL server in a temporary
// directory and connects to a fresh database on it.
func startEphemeralPostgres(ctx context.Context) (*ephemeralPostgres, error) {
	Logger.Info("Starting ephemeral PostgreSQL server...")

	pgt, err := postgrestest.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start ephemeral postgres: %w", err)
	}

	dsn, err := pgt.CreateDatabase(ctx)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to create gobrewer database: %w", err)
	}
	Logger.Info("Created ephemeral database", "dsn", dsn)

	// postgrestest hands out lib/pq style DSNs
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to open gobrewer database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		pgt.Cleanup()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Logger.Info("Connected to ephemeral PostgreSQL database successfully")
	return &ephemeralPostgres{db: db, server: pgt}, nil
}

// cleanup stops the server. The connection is closed by the caller.
func (e *ephemeralPostgres) cleanup() {
	if e.server != nil {
		Logger.Info("Cleaning up ephemeral PostgreSQL server...")
		e.server.Cleanup()
		e.server = nil
	}
}
