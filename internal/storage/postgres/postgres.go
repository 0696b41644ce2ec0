// Package postgres implements the storage contracts on PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/config"
)

// ApplicationName tags server connections in pg_stat_activity.
const ApplicationName = "abyssidle"

// Pool owns the pgx pool shared by the save and account repositories.
type Pool struct {
	db *pgxpool.Pool
}

// NewPool connects to PostgreSQL and verifies the connection with a ping.
//
// Precondition: cfg must pass config validation for the postgres backend.
// Postcondition: Returns a ready Pool or a non-nil error; nothing is left open
// on failure.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{db: db}, nil
}

// Saves returns a SaveRepository over the pool.
func (p *Pool) Saves() *SaveRepository { return NewSaveRepository(p.db) }

// Accounts returns an AccountRepository over the pool.
func (p *Pool) Accounts() *AccountRepository { return NewAccountRepository(p.db) }

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.db.Ping(ctx)
}

// Monitor pings the database every interval until ctx is done, logging failed
// checks and the pool's connection counts, then closes the pool.
//
// Precondition: interval > 0.
// Postcondition: the pool is closed when Monitor returns; the return is nil.
func (p *Pool) Monitor(ctx context.Context, interval time.Duration, logger *zap.Logger) error {
	defer p.Close()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stat := p.db.Stat()
			if err := p.Health(ctx, interval/2); err != nil {
				logger.Warn("database health check failed",
					zap.Error(err),
					zap.Int32("total_conns", stat.TotalConns()),
				)
				continue
			}
			logger.Debug("database healthy",
				zap.Int32("acquired_conns", stat.AcquiredConns()),
				zap.Int32("idle_conns", stat.IdleConns()),
			)
		}
	}
}

// Close releases every connection. The Pool is unusable afterwards.
func (p *Pool) Close() {
	p.db.Close()
}

// DB returns the underlying pgx pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.db
}
