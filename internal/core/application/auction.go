package application

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type AuctionEngine interface {
	ListForAuction(ctx context.Context, req ListRequest) (*domain.Auction, error)
	PlaceBid(ctx context.Context, req BidRequest) (*domain.Auction, error)
	Finalize(ctx context.Context, req FinalizeRequest) (*domain.Auction, error)
	Settle(ctx context.Context, req SettleRequest) (*SettlementResult, error)
	GetAuction(ctx context.Context, auction domain.Address) (*domain.Auction, error)
	ListAuctions(
		ctx context.Context, statuses ...domain.AuctionStatus,
	) ([]domain.Auction, error)
	// EscrowBalance returns the amount held in escrow by an auction whose
	// escrow account is still open.
	EscrowBalance(ctx context.Context, auction domain.Address) (uint64, error)
}

type auctionEngine struct {
	repoManager ports.RepoManager
	config      *MarketplaceConfigGate
	registry    *assetRegistry
	clock       ports.Clock
	metrics     *metrics
}

func newAuctionEngine(
	repoManager ports.RepoManager, config *MarketplaceConfigGate,
	registry *assetRegistry, clock ports.Clock, metrics *metrics,
) *auctionEngine {
	return &auctionEngine{repoManager, config, registry, clock, metrics}
}

func (e *auctionEngine) ListForAuction(
	ctx context.Context, req ListRequest,
) (*domain.Auction, error) {
	config, err := e.config.Get()
	if err != nil {
		return nil, err
	}
	if config.Paused {
		return nil, errors.MARKETPLACE_PAUSED.New("marketplace is paused")
	}

	var auction *domain.Auction
	if err := e.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		asset, err := getAsset(ctx, tx, req.Asset)
		if err != nil {
			return err
		}
		if asset.CurrentOwner != req.Seller {
			return errors.UNAUTHORIZED.New(
				"only the owner can list asset %s", asset.Address,
			).WithMetadata(errors.CallerMetadata{
				Caller:   req.Seller.String(),
				Expected: asset.CurrentOwner.String(),
			})
		}
		if !asset.IsVerified() {
			return assetStatusError(
				errors.OWNERSHIP_VERIFICATION_REQUIRED, asset,
				"ownership of asset %s is %s", asset.Address, asset.OwnershipStatus,
			)
		}
		if asset.ListedStatus != domain.ListedReadyForAuction {
			return assetStatusError(
				errors.ASSET_NOT_READY_FOR_AUCTION, asset,
				"asset %s is %s", asset.Address, asset.ListedStatus,
			)
		}
		if _, err := validateSettlementAccount(
			ctx, tx, req.SellerTokenAccount, req.Seller, config.SettlementMint,
		); err != nil {
			return err
		}
		if err := validateTreasuryAccount(req.TreasuryTokenAccount, config); err != nil {
			return err
		}
		if req.Duration <= 0 {
			return errors.INVALID_AUCTION_DURATION.New(
				"auction duration must be positive, got %d", req.Duration,
			).WithMetadata(errors.AuctionTimeMetadata{})
		}

		// The listing fee is not refunded by any later step.
		if config.ListingFee > 0 {
			if err := tx.Tokens().Transfer(
				ctx, req.SellerTokenAccount, req.TreasuryTokenAccount,
				ports.Signer(req.Seller), config.ListingFee,
			); err != nil {
				return err
			}
		}

		now := e.clock.Now().Unix()
		endTimestamp, err := deadline(now, req.Duration)
		if err != nil {
			return err
		}

		sequence := asset.AuctionCount
		auctionAddr, bump, err := domain.DeriveAuctionAddress(asset.Address, sequence)
		if err != nil {
			return derivationError("auction", err)
		}
		escrowAddr, _, err := domain.DeriveEscrowAddress(auctionAddr)
		if err != nil {
			return derivationError("escrow", err)
		}
		escrowAuthority, escrowAuthorityBump, err := domain.DeriveEscrowAuthority(auctionAddr)
		if err != nil {
			return derivationError("escrow authority", err)
		}

		var event domain.AuctionListed
		auction, event = domain.NewAuction(
			auctionAddr, bump, sequence, asset.Address, req.Seller, req.SellerTokenAccount,
			config.SettlementMint,
			req.StartPrice, endTimestamp, escrowAddr, escrowAuthority, escrowAuthorityBump,
		)
		if err := tx.Auctions().Add(ctx, *auction); err != nil {
			return err
		}
		if err := newEscrow(tx, auction).open(ctx); err != nil {
			return err
		}
		if err := e.registry.markInAuction(ctx, tx, asset, auctionAddr); err != nil {
			return err
		}

		tx.Emit(event)
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	e.metrics.auctionListed(ctx)
	log.Debugf(
		"listed asset %s in auction %s ending at %d", req.Asset, auction.Address,
		auction.EndTimestamp,
	)
	return auction, nil
}

func (e *auctionEngine) PlaceBid(ctx context.Context, req BidRequest) (*domain.Auction, error) {
	var auction *domain.Auction
	if err := e.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		auction, err = getAuction(ctx, tx, req.Auction)
		if err != nil {
			return err
		}
		if !auction.IsActive() {
			return auctionStatusError(
				errors.AUCTION_NOT_IN_ACTIVE_STATE, auction,
				"auction %s is %s", auction.Address, auction.Status,
			)
		}
		if req.Amount <= auction.HighestBid {
			return errors.BID_TOO_LOW.New(
				"bid %d must be higher than %d", req.Amount, auction.HighestBid,
			).WithMetadata(errors.BidTooLowMetadata{
				Auction:    auction.Address.String(),
				Bid:        req.Amount,
				HighestBid: auction.HighestBid,
			})
		}
		now := e.clock.Now().Unix()
		if auction.HasEnded(now) {
			return errors.AUCTION_ENDED.New(
				"auction %s ended at %d", auction.Address, auction.EndTimestamp,
			).WithMetadata(errors.AuctionTimeMetadata{
				Auction:      auction.Address.String(),
				EndTimestamp: auction.EndTimestamp,
				Now:          now,
			})
		}
		if _, err := validateSettlementAccount(
			ctx, tx, req.BidderTokenAccount, req.Bidder, auction.SettlementMint,
		); err != nil {
			return err
		}

		escrow := newEscrow(tx, auction)

		// The outbid amount leaves the escrow before the new bid is pulled in.
		if auction.HasWinner() {
			if req.PreviousBidderTokenAccount == nil {
				return errors.MISSING_PREVIOUS_BIDDER_ACCOUNT.New(
					"refund account of previous bidder %s is required",
					auction.HighestBidder,
				).WithMetadata(errors.AuctionMetadata{Auction: auction.Address.String()})
			}
			refundAccount := *req.PreviousBidderTokenAccount
			if _, err := validateSettlementAccount(
				ctx, tx, refundAccount, *auction.HighestBidder, auction.SettlementMint,
			); err != nil {
				return err
			}
			if err := escrow.release(ctx, refundAccount, auction.HighestBid); err != nil {
				return err
			}
		}

		if err := escrow.deposit(
			ctx, req.BidderTokenAccount, ports.Signer(req.Bidder), req.Amount,
		); err != nil {
			return err
		}

		event := auction.AcceptBid(req.Bidder, req.Amount)
		if err := tx.Auctions().Update(ctx, *auction); err != nil {
			return err
		}
		tx.Emit(event)
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	e.metrics.bidPlaced(ctx)
	log.Debugf("bid of %d by %s accepted in auction %s", req.Amount, req.Bidder, req.Auction)
	return auction, nil
}

// Finalize closes bidding on an auction whose deadline passed. Anyone can
// call it.
func (e *auctionEngine) Finalize(
	ctx context.Context, req FinalizeRequest,
) (*domain.Auction, error) {
	var auction *domain.Auction
	if err := e.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		auction, err = getAuction(ctx, tx, req.Auction)
		if err != nil {
			return err
		}
		if !auction.IsActive() {
			return auctionStatusError(
				errors.AUCTION_NOT_IN_ACTIVE_STATE, auction,
				"auction %s is %s", auction.Address, auction.Status,
			)
		}
		now := e.clock.Now().Unix()
		if !auction.HasEnded(now) {
			return errors.AUCTION_NOT_ENDED.New(
				"auction %s ends at %d", auction.Address, auction.EndTimestamp,
			).WithMetadata(errors.AuctionTimeMetadata{
				Auction:      auction.Address.String(),
				EndTimestamp: auction.EndTimestamp,
				Now:          now,
			})
		}
		if req.SellerRentRecipient != auction.Seller {
			return errors.INVALID_SELLER_ACCOUNT_FOR_RENT.New(
				"rent recipient must be the seller of auction %s", auction.Address,
			).WithMetadata(errors.CallerMetadata{
				Caller:   req.SellerRentRecipient.String(),
				Expected: auction.Seller.String(),
			})
		}

		if _, err := validateSettlementAccount(
			ctx, tx, req.SellerTokenAccount, auction.Seller, auction.SettlementMint,
		); err != nil {
			return err
		}

		event := auction.End()
		if !auction.HasWinner() {
			if err := newEscrow(tx, auction).close(ctx, req.SellerTokenAccount); err != nil {
				return err
			}
			if err := e.registry.releaseFromAuction(
				ctx, tx, auction.Asset, auction.Address,
			); err != nil {
				return err
			}
		}

		if err := tx.Auctions().Update(ctx, *auction); err != nil {
			return err
		}
		tx.Emit(event)
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	e.metrics.auctionFinalized(ctx, auction.HasWinner())
	log.Debugf("finalized auction %s: %s", auction.Address, auction.Status)
	return auction, nil
}

func (e *auctionEngine) GetAuction(
	ctx context.Context, auctionAddr domain.Address,
) (*domain.Auction, error) {
	var auction *domain.Auction
	if err := e.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		auction, err = getAuction(ctx, tx, auctionAddr)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}
	return auction, nil
}

func (e *auctionEngine) ListAuctions(
	ctx context.Context, statuses ...domain.AuctionStatus,
) ([]domain.Auction, error) {
	var auctions []domain.Auction
	if err := e.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		auctions, err = tx.Auctions().List(ctx, statuses...)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}
	return auctions, nil
}

func (e *auctionEngine) EscrowBalance(
	ctx context.Context, auctionAddr domain.Address,
) (uint64, error) {
	var balance uint64
	if err := e.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		auction, err := getAuction(ctx, tx, auctionAddr)
		if err != nil {
			return err
		}
		balance, err = newEscrow(tx, auction).balance(ctx)
		return err
	}); err != nil {
		return 0, toTypedError(err)
	}
	return balance, nil
}

func getAuction(
	ctx context.Context, tx ports.Tx, addr domain.Address,
) (*domain.Auction, error) {
	auction, err := tx.Auctions().Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, errors.AUCTION_NOT_FOUND.New(
			"auction %s not found", addr,
		).WithMetadata(errors.AuctionMetadata{Auction: addr.String()})
	}
	return auction, nil
}

func auctionStatusError(
	code errors.Code[errors.AuctionStatusMetadata], auction *domain.Auction,
	format string, args ...any,
) error {
	return code.New(format, args...).WithMetadata(errors.AuctionStatusMetadata{
		Auction: auction.Address.String(),
		Status:  auction.Status.String(),
	})
}
