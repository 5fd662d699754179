package kv

import (
	"context"
	"fmt"
	"slices"

	"github.com/arkade-os/marketd/internal/core/domain"
)

const channelConfigKey = "channel_config"

type assetRepository struct {
	txn Txn
}

func NewAssetRepository(txn Txn) domain.AssetRepository {
	return &assetRepository{txn}
}

func (r *assetRepository) Get(
	ctx context.Context, address domain.Address,
) (*domain.Asset, error) {
	return get[domain.Asset](ctx, r.txn, AssetsBucket, address.String())
}

func (r *assetRepository) Add(ctx context.Context, asset domain.Asset) error {
	existing, err := r.Get(ctx, asset.Address)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("asset %s: %w", asset.Address, domain.ErrRecordExists)
	}
	return put(ctx, r.txn, AssetsBucket, asset.Address.String(), asset)
}

func (r *assetRepository) Update(ctx context.Context, asset domain.Asset) error {
	return put(ctx, r.txn, AssetsBucket, asset.Address.String(), asset)
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	return scan[domain.Asset](ctx, r.txn, AssetsBucket)
}

type auctionRepository struct {
	txn Txn
}

func NewAuctionRepository(txn Txn) domain.AuctionRepository {
	return &auctionRepository{txn}
}

func (r *auctionRepository) Get(
	ctx context.Context, address domain.Address,
) (*domain.Auction, error) {
	return get[domain.Auction](ctx, r.txn, AuctionsBucket, address.String())
}

func (r *auctionRepository) Add(ctx context.Context, auction domain.Auction) error {
	existing, err := r.Get(ctx, auction.Address)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("auction %s: %w", auction.Address, domain.ErrRecordExists)
	}
	return put(ctx, r.txn, AuctionsBucket, auction.Address.String(), auction)
}

func (r *auctionRepository) Update(ctx context.Context, auction domain.Auction) error {
	return put(ctx, r.txn, AuctionsBucket, auction.Address.String(), auction)
}

func (r *auctionRepository) List(
	ctx context.Context, statuses ...domain.AuctionStatus,
) ([]domain.Auction, error) {
	auctions, err := scan[domain.Auction](ctx, r.txn, AuctionsBucket)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return auctions, nil
	}

	filtered := make([]domain.Auction, 0, len(auctions))
	for _, auction := range auctions {
		if slices.Contains(statuses, auction.Status) {
			filtered = append(filtered, auction)
		}
	}
	return filtered, nil
}

type attestationRepository struct {
	txn Txn
}

func NewAttestationRepository(txn Txn) domain.AttestationRepository {
	return &attestationRepository{txn}
}

func (r *attestationRepository) Get(
	ctx context.Context, address domain.Address,
) (*domain.Attestation, error) {
	return get[domain.Attestation](ctx, r.txn, AttestationsBucket, address.String())
}

func (r *attestationRepository) Upsert(
	ctx context.Context, attestation domain.Attestation,
) error {
	return put(ctx, r.txn, AttestationsBucket, attestation.Address.String(), attestation)
}

func (r *attestationRepository) List(ctx context.Context) ([]domain.Attestation, error) {
	return scan[domain.Attestation](ctx, r.txn, AttestationsBucket)
}

type channelConfigRepository struct {
	txn Txn
}

func NewChannelConfigRepository(txn Txn) domain.ChannelConfigRepository {
	return &channelConfigRepository{txn}
}

func (r *channelConfigRepository) Get(ctx context.Context) (*domain.ChannelConfig, error) {
	return get[domain.ChannelConfig](ctx, r.txn, ChannelBucket, channelConfigKey)
}

func (r *channelConfigRepository) Add(ctx context.Context, config domain.ChannelConfig) error {
	existing, err := r.Get(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("channel config: %w", domain.ErrRecordExists)
	}
	return put(ctx, r.txn, ChannelBucket, channelConfigKey, config)
}
