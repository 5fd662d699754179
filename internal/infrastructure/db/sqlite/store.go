package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arkade-os/marketd/internal/infrastructure/db/kv"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"

	selectRecordQuery = `SELECT value FROM record WHERE bucket = ? AND key = ?`
	upsertRecordQuery = `INSERT INTO record (bucket, key, value) VALUES (?, ?, ?)
ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value`
	scanRecordsQuery = `SELECT value FROM record WHERE bucket = ? ORDER BY key`
)

// OpenDb opens the sqlite db file, creating its directory if needed. The pool is limited to a
// single connection so that transactions are fully serialized.
func OpenDb(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	return db, nil
}

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

func (s *store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isConflictError(err) {
			return kv.ErrConflict
		}
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&sqliteTxn{tx}); err != nil {
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	//nolint:all
	defer tx.Rollback()

	return fn(&sqliteTxn{tx})
}

func (s *store) Close() error {
	return s.db.Close()
}

type sqliteTxn struct {
	tx *sql.Tx
}

func (t *sqliteTxn) Get(ctx context.Context, bucket, key string) ([]byte, error) {
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

func (t *sqliteTxn) Put(ctx context.Context, bucket, key string, value []byte) error {
	_, err := t.tx.ExecContext(ctx, upsertRecordQuery, bucket, key, value)
	return err
}

func (t *sqliteTxn) Scan(ctx context.Context, bucket string) ([][]byte, error) {
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

func isConflictError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "database table is locked") ||
		strings.Contains(errMsg, "busy")
}
