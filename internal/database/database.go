package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	"wildcafe-pos/internal/config"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	// DriverPgdriver is bun's own pure Go Postgres driver.
	DriverPgdriver = "pgdriver"
	// DriverMySQL expects a DSN with parseTime=true.
	DriverMySQL = "mysql"
)

// Open connects to the configured database, retrying while the server comes up.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	tries := cfg.ConnectTries
	if tries < 1 {
		tries = 1
	}

	var sqldb *sql.DB
	for i := 0; i < tries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to %s (attempt %d/%d)", cfg.Driver, i+1, tries))
		sqldb, err = openSQL(driverName, cfg.DSN)
		if err == nil {
			err = sqldb.PingContext(ctx)
			if err == nil {
				break
			}
			sqldb.Close()
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect: %v", err))
		if i < tries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s after %d attempts: %w", cfg.Driver, tries, err)
	}

	db := Wrap(sqldb, cfg.Driver)
	if cfg.Driver == DriverSQLite {
		// a single writer keeps SQLite from returning SQLITE_BUSY under load
		sqldb.SetMaxOpenConns(1)
	} else {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	}
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	log.Info("DATABASE", fmt.Sprintf("Connected to %s", cfg.Driver))
	return db, nil
}

// Wrap picks the bun dialect matching driver.
func Wrap(sqldb *sql.DB, driver string) *bun.DB {
	switch driver {
	case DriverSQLite:
		return bun.NewDB(sqldb, sqlitedialect.New())
	case DriverMySQL:
		return bun.NewDB(sqldb, mysqldialect.New())
	}
	return bun.NewDB(sqldb, pgdialect.New())
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return sqliteshim.ShimName, nil
	case DriverPostgres:
		return "postgres", nil
	case DriverPgx:
		return "pgx", nil
	case DriverPgdriver:
		return DriverPgdriver, nil
	case DriverMySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

func openSQL(driverName, dsn string) (*sql.DB, error) {
	if driverName == DriverPgdriver {
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), nil
	}
	return sql.Open(driverName, dsn)
}

var schemaModels = []interface{}{
	(*models.Order)(nil),
	(*models.Desk)(nil),
	(*models.Product)(nil),
	(*models.Category)(nil),
	(*models.Settings)(nil),
	(*models.User)(nil),
}

// UsesMigrations reports whether driver talks to Postgres, the only store the
// versioned SQL migrations are written for. The others get CreateSchema.
func UsesMigrations(driver string) bool {
	return driver == DriverPostgres || driver == DriverPgx || driver == DriverPgdriver
}

// CreateSchema creates any missing table and seeds the settings row.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, m := range schemaModels {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return SeedSettings(ctx, db)
}

// SeedSettings inserts the default settings row unless one exists.
func SeedSettings(ctx context.Context, db bun.IDB) error {
	_, err := db.NewInsert().
		Model(models.DefaultSettings()).
		Ignore().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint failure on any
// of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var bunErr pgdriver.Error
	if errors.As(err, &bunErr) {
		return bunErr.Field('C') == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
