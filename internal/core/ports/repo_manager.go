package ports

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
)

type RepoManager interface {
	// Atomic runs fn in a single unit of work. Either every write and token
	// movement performed through tx is committed, or none is. Events emitted
	// through tx are published only after a successful commit.
	// A unit of work that lost a race against a concurrent one fails with a
	// CONCURRENT_MODIFICATION error and is not retried.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn against a read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Events() domain.EventRepository
	Close()
}

type Tx interface {
	Assets() domain.AssetRepository
	Auctions() domain.AuctionRepository
	Attestations() domain.AttestationRepository
	Channels() domain.ChannelConfigRepository
	Tokens() TokenLedger
	Emit(events ...domain.Event)
}
