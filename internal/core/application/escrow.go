package application

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/internal/authority"
	"github.com/arkade-os/marketd/internal/core/ports"
)

// newEscrowAuthority mints the capability allowed to move funds out of the
// escrow account of a single auction. Nothing outside the auction engine holds
// one.
func newEscrowAuthority(auction *domain.Auction) ports.Authority {
	seeds := domain.EscrowAuthoritySeeds(auction.Address)
	seeds = append(seeds, []byte{auction.EscrowAuthorityBump})
	return authority.NewDerived(auction.EscrowAuthority, seeds...)
}

type escrow struct {
	ledger  ports.TokenLedger
	auction *domain.Auction
}

func newEscrow(tx ports.Tx, auction *domain.Auction) escrow {
	return escrow{tx.Tokens(), auction}
}

func (e escrow) open(ctx context.Context) error {
	return e.ledger.OpenAccount(ctx, domain.TokenAccount{
		Address: e.auction.EscrowAccount,
		Owner:   e.auction.EscrowAuthority,
		Mint:    e.auction.SettlementMint,
	})
}

func (e escrow) deposit(
	ctx context.Context, from domain.Address, bidder ports.Authority, amount uint64,
) error {
	return e.ledger.Transfer(ctx, from, e.auction.EscrowAccount, bidder, amount)
}

func (e escrow) release(ctx context.Context, to domain.Address, amount uint64) error {
	return e.ledger.Transfer(
		ctx, e.auction.EscrowAccount, to, newEscrowAuthority(e.auction), amount,
	)
}

// close sends any residual balance to the given destination and closes the
// escrow account.
func (e escrow) close(ctx context.Context, destination domain.Address) error {
	return e.ledger.Close(
		ctx, e.auction.EscrowAccount, destination, newEscrowAuthority(e.auction),
	)
}

func (e escrow) balance(ctx context.Context) (uint64, error) {
	account, err := e.ledger.GetAccount(ctx, e.auction.EscrowAccount)
	if err != nil {
		return 0, err
	}
	return account.Amount, nil
}
