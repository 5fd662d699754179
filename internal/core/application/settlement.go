package application

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// splitProceeds returns the commission owed to the treasury and the amount
// owed to the seller. The commission is truncated toward zero.
func splitProceeds(amount uint64, commissionBps uint16) (commission, toSeller uint64, err error) {
	product, ok := checkedMul(amount, uint64(commissionBps))
	if !ok {
		return 0, 0, errors.CALCULATION_OVERFLOW.New(
			"commission of %d bps on %d overflows", commissionBps, amount,
		)
	}
	commission = product / domain.MaxCommissionBps

	toSeller, ok = checkedSub(amount, commission)
	if !ok {
		return 0, 0, errors.CALCULATION_OVERFLOW.New(
			"commission %d exceeds amount %d", commission, amount,
		)
	}
	return commission, toSeller, nil
}

func (e *auctionEngine) Settle(ctx context.Context, req SettleRequest) (*SettlementResult, error) {
	config, err := e.config.Get()
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{}
	var settled domain.AuctionSettled
	if err := e.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		auction, err := getAuction(ctx, tx, req.Auction)
		if err != nil {
			return err
		}
		if auction.Status != domain.AuctionEndedSoldPayPending {
			return auctionStatusError(
				errors.AUCTION_NOT_IN_SETTLEMENT_STATE, auction,
				"auction %s is %s", auction.Address, auction.Status,
			)
		}
		if !auction.HasWinner() || *auction.HighestBidder != req.Winner {
			expected := ""
			if auction.HighestBidder != nil {
				expected = auction.HighestBidder.String()
			}
			return errors.NOT_AUCTION_WINNER.New(
				"%s is not the winner of auction %s", req.Winner, auction.Address,
			).WithMetadata(errors.CallerMetadata{
				Caller:   req.Winner.String(),
				Expected: expected,
			})
		}
		if req.Asset != auction.Asset {
			return errors.INVALID_ASSET_ACCOUNT.New(
				"asset %s is not the one sold by auction %s", req.Asset, auction.Address,
			).WithMetadata(errors.AssetMetadata{Asset: req.Asset.String()})
		}
		asset, err := getAsset(ctx, tx, req.Asset)
		if err != nil {
			return err
		}
		if _, err := validateSettlementAccount(
			ctx, tx, req.SellerTokenAccount, auction.Seller, auction.SettlementMint,
		); err != nil {
			return err
		}
		if err := validateTreasuryAccount(req.TreasuryTokenAccount, config); err != nil {
			return err
		}
		if _, err := validateSettlementAccount(
			ctx, tx, req.WinnerRefundAccount, req.Winner, auction.SettlementMint,
		); err != nil {
			return err
		}

		commission, toSeller, err := splitProceeds(auction.HighestBid, config.CommissionBps)
		if err != nil {
			return err
		}

		escrow := newEscrow(tx, auction)
		if toSeller > 0 {
			if err := escrow.release(ctx, req.SellerTokenAccount, toSeller); err != nil {
				return err
			}
		}
		if commission > 0 {
			if err := escrow.release(ctx, req.TreasuryTokenAccount, commission); err != nil {
				return err
			}
		}
		if err := escrow.close(ctx, req.WinnerRefundAccount); err != nil {
			return err
		}

		if err := e.registry.transferOwnership(ctx, tx, asset, req.Winner); err != nil {
			return err
		}

		settled = auction.Complete(toSeller, commission)
		if err := tx.Auctions().Update(ctx, *auction); err != nil {
			return err
		}
		tx.Emit(settled)

		result.Auction = auction
		result.Asset = asset
		result.SellerAmount = toSeller
		result.Commission = commission
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	e.metrics.auctionSettled(ctx, settled.Amount)
	log.Debugf(
		"settled auction %s: %d to seller, %d commission",
		req.Auction, result.SellerAmount, result.Commission,
	)
	return result, nil
}
