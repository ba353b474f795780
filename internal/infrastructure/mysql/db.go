package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to MySQL and pings it. parseTime is forced on so DATETIME
// columns scan into time.Time.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

const observedBidsSchema = `
CREATE TABLE IF NOT EXISTS observed_bids (
    id          BIGINT AUTO_INCREMENT PRIMARY KEY,
    listing_id  VARCHAR(64)    NOT NULL,
    bid_id      VARCHAR(64)    NOT NULL DEFAULT '',
    user_id     VARCHAR(64)    NOT NULL DEFAULT '',
    username    VARCHAR(255)   NOT NULL DEFAULT '',
    amount      DECIMAL(18, 2) NOT NULL,
    bid_time    DATETIME(6)    NOT NULL,
    observed_at DATETIME(6)    NOT NULL,
    UNIQUE KEY uniq_listing_amount (listing_id, amount)
)`

// EnsureSchema creates the archive table if it is missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, observedBidsSchema); err != nil {
		return fmt.Errorf("create observed_bids: %w", err)
	}
	return nil
}
