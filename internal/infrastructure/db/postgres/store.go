package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkade-os/marketd/internal/infrastructure/db/kv"
)

const (
	selectRecordQuery = `SELECT value FROM record WHERE bucket = $1 AND key = $2`
	upsertRecordQuery = `INSERT INTO record (bucket, key, value) VALUES ($1, $2, $3)
ON CONFLICT (bucket, key) DO UPDATE SET value = EXCLUDED.value`
	scanRecordsQuery = `SELECT value FROM record WHERE bucket = $1 ORDER BY key`
)

type store struct {
	db *sql.DB
}

// NewStore expects an already migrated *sql.DB.
func NewStore(config ...interface{}) (kv.Backend, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config: expected 1 arg, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open record store: invalid config")
	}
	return &store{db}, nil
}

// Update runs fn in a serializable transaction so that postgres rejects the
// commit of a unit of work whose reads were invalidated by a concurrent one.
func (s *store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&pgTxn{tx}); err != nil {
		//nolint:all
		tx.Rollback()
		if isConflictError(err) {
			return kv.ErrConflict
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isConflictError(err) {
			return kv.ErrConflict
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *store) View(ctx context.Context, fn func(txn kv.Txn) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	//nolint:all
	defer tx.Rollback()

	return fn(&pgTxn{tx})
}

func (s *store) Close() error {
	return s.db.Close()
}

type pgTxn struct {
	tx *sql.Tx
}

func (t *pgTxn) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(ctx, selectRecordQuery, bucket, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (t *pgTxn) Put(ctx context.Context, bucket, key string, value []byte) error {
	_, err := t.tx.ExecContext(ctx, upsertRecordQuery, bucket, key, value)
	return err
}

func (t *pgTxn) Scan(ctx context.Context, bucket string) ([][]byte, error) {
	rows, err := t.tx.QueryContext(ctx, scanRecordsQuery, bucket)
	if err != nil {
		return nil, err
	}
	// nolint
	defer rows.Close()

	values := make([][]byte, 0)
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
