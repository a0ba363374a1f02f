package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/letterbox/mailbox-data-api/config"
	"github.com/letterbox/mailbox-data-api/log"
	"github.com/letterbox/mailbox-data-api/schema"
	"github.com/letterbox/mailbox-data-api/types"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSqlite   Dialect = "sqlite3"
)

// sqlite options: enforce foreign keys and keep LIKE case sensitive like Postgres
const sqliteOptions = "_fk=1&_cslike=1"

func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(strings.ToLower(driver)) {
	case DialectPostgres:
		return DialectPostgres, nil
	case DialectSqlite, "sqlite":
		return DialectSqlite, nil
	}
	return "", fmt.Errorf("unsupported database driver '%s'", driver)
}

func (d Dialect) placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Db represents a connection pool to the mailbox store
type Db struct {
	pool    *sql.DB
	dialect Dialect
	prePing bool
	logger  log.Logger
}

// Open opens and checks a connection pool for the driver
func Open(driver string, dsn string, cfg config.Config) (*Db, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSqlite {
		dsn = withSqliteOptions(dsn)
	}

	pool, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSqlite {
		// Single writer, an in-memory database also lives on a single connection
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
	}

	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewDb(pool, dialect, cfg), nil
}

// NewDb wraps an existing pool
func NewDb(pool *sql.DB, dialect Dialect, cfg config.Config) *Db {
	return &Db{
		pool:    pool,
		dialect: dialect,
		prePing: cfg.PrePing(),
		logger:  cfg.Logger(),
	}
}

func withSqliteOptions(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteOptions
	}
	return dsn + "?" + sqliteOptions
}

func (db *Db) Dialect() Dialect {
	return db.dialect
}

func (db *Db) Close() error {
	if db.pool == nil {
		return nil
	}
	return db.pool.Close()
}

// Migrate creates the mailbox tables that do not exist yet
func (db *Db) Migrate(ctx context.Context) error {
	ddl, err := schema.DDL(string(db.dialect))
	if err != nil {
		return err
	}
	if _, err := db.pool.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	db.logger.Info("schema applied", "dialect", db.dialect)
	return nil
}

// Repository returns the repository of an entity
func (db *Db) Repository(entity *schema.Entity) *TableRepository {
	return &TableRepository{
		db:     db,
		entity: entity,
		logger: db.logger.With("table", entity.Name()),
	}
}

// inTx runs fn in its own transaction. The transaction is committed when fn succeeds and rolled back on
// every other path, the connection always returns to the pool.
func (db *Db) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if db.prePing {
		if err := db.pool.PingContext(ctx); err != nil {
			return types.NewStorageUnavailableError(err)
		}
	}

	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
