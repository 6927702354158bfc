package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DBTX is the subset of *sql.DB / *sql.Tx that repositories operate on.
// Repository methods take a DBTX so the same query code runs standalone
// against the reader pool or inside a writer transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Pool bundles the reader and writer connection pools. Pure reads go to the
// reader; every mutation runs inside a writer transaction via InTx.
type Pool struct {
	writer *sql.DB
	reader *sql.DB
}

// NewPool opens the writer and reader pools and verifies connectivity.
// When replicaURL equals writerURL the same pool backs both roles.
func NewPool(ctx context.Context, writerURL, replicaURL string) (*Pool, error) {
	writer, err := open(ctx, writerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open writer pool: %w", err)
	}

	reader := writer
	if replicaURL != writerURL {
		reader, err = open(ctx, replicaURL)
		if err != nil {
			writer.Close()
			return nil, fmt.Errorf("failed to open reader pool: %w", err)
		}
	}

	return &Pool{writer: writer, reader: reader}, nil
}

func open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Reader returns the read-only pool.
func (p *Pool) Reader() *sql.DB {
	return p.reader
}

// InTx runs fn inside a single writer transaction. The transaction is rolled
// back on any error (including a panic unwinding through fn) and committed
// otherwise, so partial writes are never observable.
func (p *Pool) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes both pools.
func (p *Pool) Close() {
	if p.reader != p.writer {
		p.reader.Close()
	}
	p.writer.Close()
}
