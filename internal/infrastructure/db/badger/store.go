package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/arkade-os/marketd/internal/infrastructure/db/kv"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

const recordStoreDir = "records"

type recordDTO struct {
	Bucket string
	Key    string
	Value  []byte
}

type store struct {
	store *badgerhold.Store
}

func NewStore(config ...interface{}) (kv.Backend, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, recordStoreDir)
	}
	db, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %s", err)
	}

	return &store{db}, nil
}

func (s *store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	tx := s.store.Badger().NewTransaction(true)
	defer tx.Discard()

	if err := fn(&badgerTxn{s.store, tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return kv.ErrConflict
		}
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *store) View(ctx context.Context, fn func(txn kv.Txn) error) error {
	return s.store.Badger().View(func(tx *badger.Txn) error {
		return fn(&badgerTxn{s.store, tx})
	})
}

func (s *store) Close() error {
	return s.store.Close()
}

type badgerTxn struct {
	store *badgerhold.Store
	tx    *badger.Txn
}

func (t *badgerTxn) Get(_ context.Context, bucket, key string) ([]byte, error) {
	var dto recordDTO
	if err := t.store.TxGet(t.tx, recordKey(bucket, key), &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	return dto.Value, nil
}

func (t *badgerTxn) Put(_ context.Context, bucket, key string, value []byte) error {
	return t.store.TxUpsert(t.tx, recordKey(bucket, key), recordDTO{
		Bucket: bucket,
		Key:    key,
		Value:  value,
	})
}

func (t *badgerTxn) Scan(_ context.Context, bucket string) ([][]byte, error) {
	var dtos []recordDTO
	query := badgerhold.Where("Bucket").Eq(bucket)
	if err := t.store.TxFind(t.tx, &dtos, query); err != nil {
		return nil, err
	}

	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Key < dtos[j].Key })

	values := make([][]byte, 0, len(dtos))
	for _, dto := range dtos {
		values = append(values, dto.Value)
	}
	return values, nil
}

func recordKey(bucket, key string) string {
	return bucket + "/" + key
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}
