// Package db is the Postgres implementation of store.Store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"tutorbot/internal/store"
	"tutorbot/internal/utils"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store keeps users, submissions and withdrawals in Postgres.
// Account numbers are encrypted with cipher when one is configured.
type Store struct {
	db     *sql.DB
	cipher *utils.AccountCipher
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL and brings the schema up to date.
func Open(ctx context.Context, databaseURL string, cipher *utils.AccountCipher) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	parsedURL, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	conn, err := sql.Open("postgres", parsedURL.String())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(20)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Println("Connected to the database.")

	s := &Store{db: conn, cipher: cipher}
	if err := s.InitDB(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// InitDB creates missing tables, applies migrations and builds indexes.
func (s *Store) InitDB(ctx context.Context) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Printf("InitDB: rolling back: %v", err)
			tx.Rollback()
		}
	}()

	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS users (
            id BIGINT PRIMARY KEY,
            chat_id BIGINT NOT NULL,
            display_name TEXT NOT NULL DEFAULT '',
            full_name TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            payment_method TEXT NOT NULL DEFAULT '',
            account_number TEXT NOT NULL DEFAULT '',
            account_name TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'new',
            referred_by BIGINT REFERENCES users(id),
            referral_count INTEGER NOT NULL DEFAULT 0 CHECK (referral_count >= 0),
            reward_balance NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (reward_balance >= 0),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS payment_submissions (
            id UUID PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            proof_ref TEXT NOT NULL,
            status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
            reviewer_id BIGINT,
            decided_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS withdrawal_requests (
            id UUID PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL CHECK (status IN ('requested', 'paid')),
            paid_by BIGINT,
            paid_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `
	if _, err = tx.ExecContext(ctx, createTablesSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit table creation: %w", err)
	}
	log.Println("InitDB: tables created (if missing).")

	if err = s.migrateDBSchema(ctx); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	createIndexesSQL := `
        CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by);
        CREATE INDEX IF NOT EXISTS idx_users_referral_count ON users(referral_count DESC);
        CREATE INDEX IF NOT EXISTS idx_submissions_status_created ON payment_submissions(status, created_at);
        CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON payment_submissions(user_id);
        CREATE UNIQUE INDEX IF NOT EXISTS uniq_submissions_one_pending ON payment_submissions(user_id) WHERE status = 'pending';
        CREATE INDEX IF NOT EXISTS idx_withdrawals_status_created ON withdrawal_requests(status, created_at);
    `
	for _, stmt := range strings.Split(strings.TrimSpace(createIndexesSQL), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, errIdx := s.db.ExecContext(ctx, stmt); errIdx != nil {
			log.Printf("InitDB: warning, index statement %q failed: %v", stmt, errIdx)
		}
	}
	log.Println("InitDB: database ready.")
	return nil
}

// migrateDBSchema adds columns introduced after the first release. Idempotent.
func (s *Store) migrateDBSchema(ctx context.Context) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "payment_submissions.proof_kind",
			sql:  `ALTER TABLE payment_submissions ADD COLUMN IF NOT EXISTS proof_kind TEXT NOT NULL DEFAULT 'photo';`,
		},
		{
			name: "withdrawal_requests.account_snapshot",
			sql: `ALTER TABLE withdrawal_requests
                  ADD COLUMN IF NOT EXISTS payment_method TEXT NOT NULL DEFAULT '',
                  ADD COLUMN IF NOT EXISTS account_number TEXT NOT NULL DEFAULT '',
                  ADD COLUMN IF NOT EXISTS account_name TEXT NOT NULL DEFAULT '';`,
		},
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration.sql); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.Printf("migrateDBSchema: '%s' skipped: %v", migration.name, err)
				continue
			}
			return fmt.Errorf("migration '%s': %w", migration.name, err)
		}
		log.Printf("migrateDBSchema: '%s' applied.", migration.name)
	}
	return nil
}

// InTx runs fn in a Postgres transaction. Rows read through the Tx are locked
// with FOR UPDATE until commit or rollback.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&tx{s: s, q: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			log.Printf("InTx: rollback failed: %v", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	log.Println("Database connection closed.")
	return nil
}

// tx implements store.Tx over one *sql.Tx.
type tx struct {
	s *Store
	q querier
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}
