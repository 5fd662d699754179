package inmemorydb

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/arkade-os/marketd/internal/infrastructure/db/kv"
)

var errReadOnly = errors.New("cannot write in a read-only transaction")

type entry struct {
	value   []byte
	version uint64
}

// store keeps every record in memory and serializes concurrent units of work
// optimistically: each transaction remembers the version of what it read and
// fails to commit if any of it changed in the meantime.
type store struct {
	lock           *sync.RWMutex
	data           map[string]map[string]entry
	bucketVersions map[string]uint64
	version        uint64
}

func NewStore(_ ...interface{}) (kv.Backend, error) {
	return &store{
		lock:           &sync.RWMutex{},
		data:           make(map[string]map[string]entry),
		bucketVersions: make(map[string]uint64),
	}, nil
}

func (s *store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	tx := s.newTxn(false)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *store) View(ctx context.Context, fn func(txn kv.Txn) error) error {
	return fn(s.newTxn(true))
}

func (s *store) Close() error {
	return nil
}

func (s *store) newTxn(readOnly bool) *txn {
	return &txn{
		store:    s,
		readOnly: readOnly,
		reads:    make(map[string]map[string]uint64),
		scans:    make(map[string]uint64),
		writes:   make(map[string]map[string][]byte),
	}
}

type txn struct {
	store    *store
	readOnly bool

	reads  map[string]map[string]uint64
	scans  map[string]uint64
	writes map[string]map[string][]byte
}

func (t *txn) Get(_ context.Context, bucket, key string) ([]byte, error) {
	if value, ok := t.writes[bucket][key]; ok {
		return clone(value), nil
	}

	t.store.lock.RLock()
	defer t.store.lock.RUnlock()

	e, ok := t.store.data[bucket][key]
	if _, tracked := t.reads[bucket]; !tracked {
		t.reads[bucket] = make(map[string]uint64)
	}
	t.reads[bucket][key] = e.version
	if !ok {
		return nil, kv.ErrNotFound
	}
	return clone(e.value), nil
}

func (t *txn) Put(_ context.Context, bucket, key string, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	if _, ok := t.writes[bucket]; !ok {
		t.writes[bucket] = make(map[string][]byte)
	}
	t.writes[bucket][key] = clone(value)
	return nil
}

func (t *txn) Scan(_ context.Context, bucket string) ([][]byte, error) {
	t.store.lock.RLock()
	merged := make(map[string][]byte, len(t.store.data[bucket]))
	for key, e := range t.store.data[bucket] {
		merged[key] = e.value
	}
	t.scans[bucket] = t.store.bucketVersions[bucket]
	t.store.lock.RUnlock()

	for key, value := range t.writes[bucket] {
		merged[key] = value
	}

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([][]byte, 0, len(keys))
	for _, key := range keys {
		values = append(values, clone(merged[key]))
	}
	return values, nil
}

func (t *txn) commit() error {
	if len(t.writes) == 0 {
		return nil
	}

	t.store.lock.Lock()
	defer t.store.lock.Unlock()

	for bucket, keys := range t.reads {
		for key, version := range keys {
			if t.store.data[bucket][key].version != version {
				return kv.ErrConflict
			}
		}
	}
	for bucket, version := range t.scans {
		if t.store.bucketVersions[bucket] != version {
			return kv.ErrConflict
		}
	}

	for bucket, values := range t.writes {
		if _, ok := t.store.data[bucket]; !ok {
			t.store.data[bucket] = make(map[string]entry)
		}
		for key, value := range values {
			t.store.version++
			t.store.data[bucket][key] = entry{value, t.store.version}
			t.store.bucketVersions[bucket] = t.store.version
		}
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
