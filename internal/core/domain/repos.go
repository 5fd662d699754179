package domain

import (
	"context"
	"errors"
)

var ErrRecordExists = errors.New("record already exists")

// Repositories are scoped to a single atomic unit of work. Getters return a nil
// record and no error when nothing is stored at the given address.

type AssetRepository interface {
	Get(ctx context.Context, address Address) (*Asset, error)
	Add(ctx context.Context, asset Asset) error
	Update(ctx context.Context, asset Asset) error
	List(ctx context.Context) ([]Asset, error)
}

type AuctionRepository interface {
	Get(ctx context.Context, address Address) (*Auction, error)
	Add(ctx context.Context, auction Auction) error
	Update(ctx context.Context, auction Auction) error
	List(ctx context.Context, statuses ...AuctionStatus) ([]Auction, error)
}

type AttestationRepository interface {
	Get(ctx context.Context, address Address) (*Attestation, error)
	Upsert(ctx context.Context, attestation Attestation) error
	List(ctx context.Context) ([]Attestation, error)
}

type ChannelConfigRepository interface {
	Get(ctx context.Context) (*ChannelConfig, error)
	Add(ctx context.Context, config ChannelConfig) error
}

type EventRepository interface {
	Save(ctx context.Context, topic string, events ...Event) error
	RegisterEventsHandler(topic string, handler func(events []Event))
	ClearRegisteredHandlers(topics ...string)
	Close()
}
