package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps the pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient connects to Postgres and applies schema migrations.
func NewClient(ctx context.Context, databaseURL string) (*Client, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	c := &Client{pool: pool}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := c.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return c, nil
}

// Pool exposes the underlying pool to repositories.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// HealthCheck pings the database.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close releases database resources.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

func (c *Client) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			phone_number TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'Customer',
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			referral_code TEXT UNIQUE,
			managed_by UUID REFERENCES users(id),
			password_hash TEXT NOT NULL DEFAULT '',
			last_login TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS applications (
			id UUID PRIMARY KEY,
			applicant_id UUID NOT NULL REFERENCES users(id),
			type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Pending',
			documents JSONB NOT NULL DEFAULT '{}',
			approvals JSONB NOT NULL DEFAULT '{}',
			assessment_notes TEXT NOT NULL DEFAULT '',
			rejection_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		// Backstop for the "one open application per type" invariant.
		`CREATE UNIQUE INDEX IF NOT EXISTS applications_open_unique_idx
			ON applications (applicant_id, type)
			WHERE status IN ('Pending', 'Reviewing');`,
		`CREATE TABLE IF NOT EXISTS withdrawals (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL CHECK (amount > 0),
			status TEXT NOT NULL DEFAULT 'Pending',
			bank_details JSONB NOT NULL DEFAULT '{}',
			reviewer_id UUID,
			rejection_reason TEXT NOT NULL DEFAULT '',
			paid_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS permissions (
			id UUID PRIMARY KEY,
			function_key TEXT UNIQUE NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			permissions JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			user_role TEXT NOT NULL DEFAULT '',
			module TEXT NOT NULL,
			action TEXT NOT NULL,
			details JSONB NOT NULL DEFAULT '{}',
			ip_address TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Success',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS audit_logs_module_idx ON audit_logs (module, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}
