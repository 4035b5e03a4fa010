// src/database/database.go
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdlog "log"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/username/tradeops/backend/src/logger"
	_ "modernc.org/sqlite"
)

// Dialects understood by Open and RunMigrations.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

var DB *sql.DB

// InitDB opens the database and applies pending migrations, exiting on failure.
func InitDB(dialect, dsn string) *sql.DB {
	db, err := Open(dialect, dsn)
	if err != nil {
		stdlog.Fatalf("failed to open %s database: %v", dialect, err)
	}
	if err := RunMigrations(db, dialect); err != nil {
		stdlog.Fatalf("failed to apply migrations: %v", err)
	}
	DB = db
	return db
}

// Open connects to a SQLite file or a PostgreSQL URL and checks the connection.
func Open(dialect, dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch dialect {
	case DialectSQLite:
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn = dsn + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)"
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// A single connection keeps SQLite from reporting "database is locked".
		db.SetMaxOpenConns(1)
	case DialectPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	logger.L.Info("Database connection established", "dialect", dialect)
	return db, nil
}

// RunMigrations applies the embedded migrations for dialect.
func RunMigrations(db *sql.DB, dialect string) error {
	if db == nil {
		return errors.New("database connection is not initialized")
	}

	var driver migratedb.Driver
	var err error
	switch dialect {
	case DialectSQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case DialectPostgres:
		driver, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	default:
		return fmt.Errorf("unsupported database dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", dialect, err)
	}

	source, err := iofs.New(migrations, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	// Closing the migrate instance would also close db, which the caller owns.
	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("migration instance creation failed: %w", err)
	}

	logger.L.Info("Applying database migrations...", "dialect", dialect)
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Info("No new database migrations to apply.")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.L.Info("Database migrations applied successfully.")
	return nil
}
