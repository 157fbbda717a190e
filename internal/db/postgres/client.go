package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kailas-cloud/ragd/internal/db"
)

// Compile-time checks.
var (
	_ db.Pinger      = (*Store)(nil)
	_ db.ReadyWaiter = (*Store)(nil)
)

// Config holds PostgreSQL connection parameters.
type Config struct {
	DSN          string
	MaxOpenConns int
	Debug        bool
}

// Store owns the gorm handle for the pgvector-backed database.
type Store struct {
	gdb *gorm.DB
}

// NewStore opens a PostgreSQL connection pool through gorm.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	return open(postgres.Open(cfg.DSN), cfg)
}

// NewStoreWithConn wraps an existing *sql.DB (sqlmock in tests).
func NewStoreWithConn(conn *sql.DB) (*Store, error) {
	return open(postgres.New(postgres.Config{Conn: conn}), Config{})
}

func open(dialector gorm.Dialector, cfg Config) (*Store, error) {
	logLevel := gormlogger.Warn
	if cfg.Debug {
		logLevel = gormlogger.Info
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	return &Store{gdb: gdb}, nil
}

// DB returns the gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.gdb
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, timeout, 250*time.Millisecond, s.Ping)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
