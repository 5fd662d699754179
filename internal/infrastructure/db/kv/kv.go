// Package kv holds the record layout shared by every data store backend.
// Backends only need to provide transactional get/put/scan over buckets of
// opaque values; typed repositories and the token ledger are built on top.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("key not found")
	// ErrConflict is returned by Backend.Update when the unit of work lost a
	// race against a concurrent one.
	ErrConflict = errors.New("transaction conflict")
)

const (
	AssetsBucket        = "assets"
	AuctionsBucket      = "auctions"
	AttestationsBucket  = "attestations"
	ChannelBucket       = "channel"
	TokenAccountsBucket = "token_accounts"
)

type Txn interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, value []byte) error
	// Scan returns every value of the bucket ordered by key.
	Scan(ctx context.Context, bucket string) ([][]byte, error)
}

type Backend interface {
	Update(ctx context.Context, fn func(txn Txn) error) error
	View(ctx context.Context, fn func(txn Txn) error) error
	Close() error
}

func get[T any](ctx context.Context, txn Txn, bucket, key string) (*T, error) {
	buf, err := txn.Get(ctx, bucket, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", bucket, key, err)
	}

	var value T
	if err := json.Unmarshal(buf, &value); err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", bucket, key, err)
	}
	return &value, nil
}

func put[T any](ctx context.Context, txn Txn, bucket, key string, value T) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", bucket, key, err)
	}
	if err := txn.Put(ctx, bucket, key, buf); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func scan[T any](ctx context.Context, txn Txn, bucket string) ([]T, error) {
	bufs, err := txn.Scan(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", bucket, err)
	}

	values := make([]T, 0, len(bufs))
	for _, buf := range bufs {
		var value T
		if err := json.Unmarshal(buf, &value); err != nil {
			return nil, fmt.Errorf("failed to decode %s entry: %w", bucket, err)
		}
		values = append(values, value)
	}
	return values, nil
}
