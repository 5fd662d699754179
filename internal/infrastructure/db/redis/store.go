package redisdb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/arkade-os/marketd/internal/infrastructure/db/kv"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "marketd"

type store struct {
	rdb *redis.Client
}

// NewStore expects either a *redis.Client or a redis url.
func NewStore(config ...interface{}) (kv.Backend, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}

	switch c := config[0].(type) {
	case *redis.Client:
		return &store{c}, nil
	case string:
		opts, err := redis.ParseURL(c)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return &store{redis.NewClient(opts)}, nil
	default:
		return nil, fmt.Errorf("invalid redis config")
	}
}

// Update watches every key read by fn and applies the buffered writes in a
// MULTI/EXEC block, so that the commit fails if any of them changed.
func (s *store) Update(ctx context.Context, fn func(txn kv.Txn) error) error {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		t := newTxn(tx, tx)
		if err := fn(t); err != nil {
			return err
		}
		if len(t.writes) == 0 {
			return nil
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for bucket, values := range t.writes {
				for key, value := range values {
					pipe.Set(ctx, recordKey(bucket, key), value, 0)
					pipe.SAdd(ctx, bucketKey(bucket), key)
				}
			}
			return nil
		})
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return kv.ErrConflict
	}
	return err
}

func (s *store) View(ctx context.Context, fn func(txn kv.Txn) error) error {
	return fn(newTxn(s.rdb, nil))
}

func (s *store) Close() error {
	return s.rdb.Close()
}

type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

type txn struct {
	rdb    reader
	tx     *redis.Tx
	writes map[string]map[string][]byte
}

func newTxn(rdb reader, tx *redis.Tx) *txn {
	return &txn{rdb, tx, make(map[string]map[string][]byte)}
}

func (t *txn) watch(ctx context.Context, keys ...string) error {
	if t.tx == nil {
		return nil
	}
	return t.tx.Watch(ctx, keys...).Err()
}

func (t *txn) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if value, ok := t.writes[bucket][key]; ok {
		return value, nil
	}

	k := recordKey(bucket, key)
	if err := t.watch(ctx, k); err != nil {
		return nil, err
	}
	value, err := t.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (t *txn) Put(_ context.Context, bucket, key string, value []byte) error {
	if t.tx == nil {
		return fmt.Errorf("cannot write in a read-only transaction")
	}
	if _, ok := t.writes[bucket]; !ok {
		t.writes[bucket] = make(map[string][]byte)
	}
	t.writes[bucket][key] = value
	return nil
}

func (t *txn) Scan(ctx context.Context, bucket string) ([][]byte, error) {
	if err := t.watch(ctx, bucketKey(bucket)); err != nil {
		return nil, err
	}
	keys, err := t.rdb.SMembers(ctx, bucketKey(bucket)).Result()
	if err != nil {
		return nil, err
	}
	for key := range t.writes[bucket] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([][]byte, 0, len(keys))
	var prev string
	for i, key := range keys {
		if i > 0 && key == prev {
			continue
		}
		prev = key

		value, err := t.Get(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func recordKey(bucket, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, bucket, key)
}

func bucketKey(bucket string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, bucket)
}
