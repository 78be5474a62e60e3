// Package migrate applies the embedded SQL schema with goose. Only the
// database drivers have a schema; the memory and file backends need none.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

// ErrNoSchema is returned for storage drivers without a SQL schema.
var ErrNoSchema = errors.New("storage driver has no sql schema")

const defaultSQLiteDSN = "ecoenergy.db"

func configureGoose(driver string) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetTableName("schema_migrations")

	switch driver {
	case "sqlite", "sqlite3":
		return goose.SetDialect("sqlite3")
	case "postgres", "pgx":
		return goose.SetDialect("postgres")
	case "", "file", "memory":
		return fmt.Errorf("%w: %q", ErrNoSchema, driver)
	default:
		return fmt.Errorf("unsupported driver for goose: %s", driver)
	}
}

func migrationDir(driver string) string {
	if driver == "postgres" || driver == "pgx" {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

// openDB uses the "sqlite" driver registered by glebarez/go-sqlite, the
// same one gorm's sqlite dialector opens.
func openDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "postgres", "pgx":
		return sql.Open("pgx", dsn)
	default:
		if dsn == "" {
			dsn = defaultSQLiteDSN
		}
		return sql.Open("sqlite", dsn)
	}
}

func withDB(driver, dsn string, fn func(db *sql.DB, dir string) error) error {
	if err := configureGoose(driver); err != nil {
		return err
	}
	db, err := openDB(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, migrationDir(driver))
}

// Up applies every pending migration.
func Up(ctx context.Context, driver, dsn string) error {
	return withDB(driver, dsn, func(db *sql.DB, dir string) error {
		return goose.UpContext(ctx, db, dir)
	})
}

// Down rolls back the latest migration.
func Down(ctx context.Context, driver, dsn string) error {
	return withDB(driver, dsn, func(db *sql.DB, dir string) error {
		return goose.DownContext(ctx, db, dir)
	})
}

// Status logs the state of every migration.
func Status(ctx context.Context, driver, dsn string) error {
	return withDB(driver, dsn, func(db *sql.DB, dir string) error {
		return goose.StatusContext(ctx, db, dir)
	})
}

// Version returns the current schema version.
func Version(ctx context.Context, driver, dsn string) (int64, error) {
	var v int64
	err := withDB(driver, dsn, func(db *sql.DB, dir string) error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}
