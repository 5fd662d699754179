package application

import (
	"context"
	"testing"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestListForAuction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t, withListingFee(10))
		asset := env.verifiedAsset(t, "asset-42")
		require.Equal(t, domain.ListedReadyForAuction, asset.ListedStatus)

		auction := env.list(t, asset.Address, 1000, 3600)
		require.Equal(t, domain.AuctionActive, auction.Status)
		require.Equal(t, uint64(1000), auction.HighestBid)
		require.Equal(t, uint64(1000), auction.StartPrice)
		require.Nil(t, auction.HighestBidder)
		require.Equal(t, env.clock.Now().Unix()+3600, auction.EndTimestamp)
		require.Equal(t, seller, auction.Seller)
		require.Equal(t, settlementMint, auction.SettlementMint)
		require.Zero(t, auction.Sequence)

		expectedAddr, _, err := domain.DeriveAuctionAddress(asset.Address, 0)
		require.NoError(t, err)
		require.Equal(t, expectedAddr, auction.Address)

		got, err := env.svc.Registry().GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, domain.ListedInAuction, got.ListedStatus)
		require.NotNil(t, got.ActiveAuction)
		require.Equal(t, auction.Address, *got.ActiveAuction)
		require.Equal(t, uint32(1), got.AuctionCount)

		require.Equal(t, uint64(990), env.balance(t, sellerAccount))
		require.Equal(t, uint64(10), env.balance(t, treasury))

		balance, err := env.svc.Auctions().EscrowBalance(ctx, auction.Address)
		require.NoError(t, err)
		require.Zero(t, balance)

		require.Equal(t, domain.EventTypeAuctionListed, env.events.last().GetType())

		auctions, err := env.svc.Auctions().ListAuctions(ctx, domain.AuctionActive)
		require.NoError(t, err)
		require.Len(t, auctions, 1)
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name    string
			opts    []envOption
			prepare func(t *testing.T, env *testEnv) ListRequest
			check   func(t *testing.T, err error)
		}{
			{
				name: "paused",
				opts: []envOption{withPaused()},
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					return defaultListRequest(env.verifiedAsset(t, "asset").Address)
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.MARKETPLACE_PAUSED))
				},
			},
			{
				name: "not the owner",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					req := defaultListRequest(env.verifiedAsset(t, "asset").Address)
					req.Seller = alice
					req.SellerTokenAccount = aliceAccount
					return req
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.UNAUTHORIZED))
				},
			},
			{
				name: "not verified",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					asset, err := env.svc.Registry().Register(ctx, seller, "asset", "cid")
					require.NoError(t, err)
					return defaultListRequest(asset.Address)
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.OWNERSHIP_VERIFICATION_REQUIRED))
				},
			},
			{
				name: "already in auction",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					asset := env.verifiedAsset(t, "asset")
					env.list(t, asset.Address, 1000, 3600)
					return defaultListRequest(asset.Address)
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.ASSET_NOT_READY_FOR_AUCTION))
				},
			},
			{
				name: "seller account with wrong mint",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					wrongMintAccount := account("seller-other")
					env.openAccount(t, wrongMintAccount, seller, otherMint, 1000)
					req := defaultListRequest(env.verifiedAsset(t, "asset").Address)
					req.SellerTokenAccount = wrongMintAccount
					return req
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.INVALID_PERENA_MINT))
				},
			},
			{
				name: "seller account with wrong owner",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					req := defaultListRequest(env.verifiedAsset(t, "asset").Address)
					req.SellerTokenAccount = aliceAccount
					return req
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.INVALID_TOKEN_ACCOUNT_OWNER))
				},
			},
			{
				name: "wrong treasury",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					req := defaultListRequest(env.verifiedAsset(t, "asset").Address)
					req.TreasuryTokenAccount = bobAccount
					return req
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.INVALID_TREASURY_ACCOUNT))
				},
			},
			{
				name: "zero duration",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					req := defaultListRequest(env.verifiedAsset(t, "asset").Address)
					req.Duration = 0
					return req
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.INVALID_AUCTION_DURATION))
				},
			},
			{
				name: "timestamp overflow",
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					req := defaultListRequest(env.verifiedAsset(t, "asset").Address)
					req.Duration = 1<<63 - 1
					return req
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.TIMESTAMP_OVERFLOW))
				},
			},
			{
				name: "listing fee not covered",
				opts: []envOption{withListingFee(5_000)},
				prepare: func(t *testing.T, env *testEnv) ListRequest {
					return defaultListRequest(env.verifiedAsset(t, "asset").Address)
				},
				check: func(t *testing.T, err error) {
					require.True(t, errors.Is(err, errors.INSUFFICIENT_FUNDS))
				},
			},
		}

		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				env := newTestEnv(t, f.opts...)
				req := f.prepare(t, env)
				before, err := env.svc.Auctions().ListAuctions(ctx)
				require.NoError(t, err)

				auction, err := env.svc.Auctions().ListForAuction(ctx, req)
				require.Error(t, err)
				require.Nil(t, auction)
				f.check(t, err)

				// Nothing is created and no fee is charged on failure.
				after, err := env.svc.Auctions().ListAuctions(ctx)
				require.NoError(t, err)
				require.Len(t, after, len(before))
				require.Equal(t, uint64(1000)-uint64(10*len(before)), env.balance(t, sellerAccount))
			})
		}
	})
}

func TestPlaceBid(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		env := newTestEnv(t)
		asset := env.verifiedAsset(t, "asset-42")
		auction := env.list(t, asset.Address, 1000, 3600)

		got, err := env.bid(auction.Address, alice, aliceAccount, nil, 1500)
		require.NoError(t, err)
		require.Equal(t, uint64(1500), got.HighestBid)
		require.NotNil(t, got.HighestBidder)
		require.Equal(t, alice, *got.HighestBidder)
		requireEscrowEqualsHighestBid(t, env, auction.Address)

		event, ok := env.events.last().(domain.BidPlaced)
		require.True(t, ok)
		require.Equal(t, alice, event.Bidder)
		require.Equal(t, uint64(1500), event.Amount)

		_, err = env.bid(auction.Address, bob, bobAccount, addrPtr(aliceAccount), 1400)
		require.True(t, errors.Is(err, errors.BID_TOO_LOW))

		unchanged, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, got, unchanged)
		require.Equal(t, uint64(100_000-1500), env.balance(t, aliceAccount))
		require.Equal(t, uint64(100_000), env.balance(t, bobAccount))
		requireEscrowEqualsHighestBid(t, env, auction.Address)
	})

	t.Run("outbid refunds the previous bidder", func(t *testing.T) {
		env := newTestEnv(t)
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)

		_, err := env.bid(auction.Address, alice, aliceAccount, nil, 1500)
		require.NoError(t, err)

		_, err = env.bid(auction.Address, bob, bobAccount, nil, 2000)
		require.True(t, errors.Is(err, errors.MISSING_PREVIOUS_BIDDER_ACCOUNT))

		_, err = env.bid(auction.Address, bob, bobAccount, addrPtr(bobAccount), 2000)
		require.True(t, errors.Is(err, errors.INVALID_TOKEN_ACCOUNT_OWNER))

		aliceOtherMint := account("alice-other")
		env.openAccount(t, aliceOtherMint, alice, otherMint, 0)
		_, err = env.bid(auction.Address, bob, bobAccount, addrPtr(aliceOtherMint), 2000)
		require.True(t, errors.Is(err, errors.INVALID_PERENA_MINT))

		requireEscrowEqualsHighestBid(t, env, auction.Address)

		got, err := env.bid(auction.Address, bob, bobAccount, addrPtr(aliceAccount), 2000)
		require.NoError(t, err)
		require.Equal(t, bob, *got.HighestBidder)
		require.Equal(t, uint64(2000), got.HighestBid)
		require.Equal(t, uint64(100_000), env.balance(t, aliceAccount))
		require.Equal(t, uint64(100_000-2000), env.balance(t, bobAccount))
		requireEscrowEqualsHighestBid(t, env, auction.Address)

		// The highest bidder can raise its own bid.
		got, err = env.bid(auction.Address, bob, bobAccount, addrPtr(bobAccount), 2500)
		require.NoError(t, err)
		require.Equal(t, uint64(2500), got.HighestBid)
		require.Equal(t, uint64(100_000-2500), env.balance(t, bobAccount))
		requireEscrowEqualsHighestBid(t, env, auction.Address)
	})

	t.Run("concurrent bids", func(t *testing.T) {
		race := newRacingRepoManager()
		env := newTestEnv(t, withRace(race))
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)

		// Bob's bid commits while Alice's is about to.
		var bobErr error
		race.raceNext(func() {
			_, bobErr = env.bid(auction.Address, bob, bobAccount, nil, 2000)
		})
		_, err := env.bid(auction.Address, alice, aliceAccount, nil, 1500)
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.CONCURRENT_MODIFICATION), err.Error())
		require.NoError(t, bobErr)

		got, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, bob, *got.HighestBidder)
		require.Equal(t, uint64(2000), got.HighestBid)
		requireEscrowEqualsHighestBid(t, env, auction.Address)
		require.Equal(t, uint64(100_000), env.balance(t, aliceAccount))
		require.Equal(t, uint64(100_000-2000), env.balance(t, bobAccount))

		// The losing bidder resubmits against the updated auction.
		got, err = env.bid(auction.Address, alice, aliceAccount, addrPtr(bobAccount), 2500)
		require.NoError(t, err)
		require.Equal(t, alice, *got.HighestBidder)
		requireEscrowEqualsHighestBid(t, env, auction.Address)
		require.Equal(t, uint64(100_000), env.balance(t, bobAccount))
	})

	t.Run("invalid", func(t *testing.T) {
		env := newTestEnv(t)
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)

		_, err := env.bid(account("unknown"), alice, aliceAccount, nil, 1500)
		require.True(t, errors.Is(err, errors.AUCTION_NOT_FOUND))

		_, err = env.bid(auction.Address, alice, aliceAccount, nil, 1000)
		require.True(t, errors.Is(err, errors.BID_TOO_LOW))

		_, err = env.bid(auction.Address, alice, bobAccount, nil, 1500)
		require.True(t, errors.Is(err, errors.INVALID_TOKEN_ACCOUNT_OWNER))

		_, err = env.bid(auction.Address, alice, aliceAccount, nil, 200_000)
		require.True(t, errors.Is(err, errors.INSUFFICIENT_FUNDS))

		env.clock.Advance(3600 * time.Second)
		_, err = env.bid(auction.Address, alice, aliceAccount, nil, 1500)
		require.True(t, errors.Is(err, errors.AUCTION_ENDED))

		_, err = env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.NoError(t, err)

		_, err = env.bid(auction.Address, alice, aliceAccount, nil, 1500)
		require.True(t, errors.Is(err, errors.AUCTION_NOT_IN_ACTIVE_STATE))
	})
}

func TestFinalize(t *testing.T) {
	t.Run("with winner", func(t *testing.T) {
		env := newTestEnv(t)
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)

		_, err := env.bid(auction.Address, alice, aliceAccount, nil, 1500)
		require.NoError(t, err)

		env.clock.Advance(3599 * time.Second)
		_, err = env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.True(t, errors.Is(err, errors.AUCTION_NOT_ENDED))

		env.clock.Advance(time.Second)
		_, err = env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, alice, sellerAccount})
		require.True(t, errors.Is(err, errors.INVALID_SELLER_ACCOUNT_FOR_RENT))

		_, err = env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, aliceAccount})
		require.True(t, errors.Is(err, errors.INVALID_TOKEN_ACCOUNT_OWNER))

		got, err := env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedSoldPayPending, got.Status)

		event, ok := env.events.last().(domain.AuctionEndedWinner)
		require.True(t, ok)
		require.Equal(t, alice, event.Winner)
		require.Equal(t, uint64(1500), event.Amount)

		// Escrow still holds the winning bid.
		balance, err := env.svc.Auctions().EscrowBalance(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, uint64(1500), balance)

		_, err = env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.True(t, errors.Is(err, errors.AUCTION_NOT_IN_ACTIVE_STATE))

		a, err := env.svc.Registry().GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, domain.ListedInAuction, a.ListedStatus)
	})

	t.Run("unsold", func(t *testing.T) {
		env := newTestEnv(t)
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)
		sellerBalance := env.balance(t, sellerAccount)
		treasuryBalance := env.balance(t, treasury)

		env.clock.Advance(time.Hour)
		got, err := env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedUnsold, got.Status)
		require.Equal(t, domain.EventTypeAuctionEndedNoSale, env.events.last().GetType())

		_, err = env.svc.Auctions().EscrowBalance(ctx, auction.Address)
		require.True(t, errors.Is(err, errors.TOKEN_ACCOUNT_NOT_FOUND))

		require.Equal(t, sellerBalance, env.balance(t, sellerAccount))
		require.Equal(t, treasuryBalance, env.balance(t, treasury))
		require.Equal(t, uint64(100_000), env.balance(t, aliceAccount))

		a, err := env.svc.Registry().GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, domain.ListedReadyForAuction, a.ListedStatus)
		require.Nil(t, a.ActiveAuction)
		require.Equal(t, seller, a.CurrentOwner)

		// The asset can be listed again under a new auction address.
		relisted := env.list(t, asset.Address, 500, 60)
		require.NotEqual(t, auction.Address, relisted.Address)
		require.Equal(t, uint32(1), relisted.Sequence)
	})

	t.Run("unsold with residual in escrow", func(t *testing.T) {
		env := newTestEnv(t)
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)
		sellerBalance := env.balance(t, sellerAccount)

		// Anyone can send funds to the escrow account without bidding.
		err := env.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
			return tx.Tokens().Transfer(
				ctx, aliceAccount, auction.EscrowAccount, ports.Signer(alice), 7,
			)
		})
		require.NoError(t, err)

		env.clock.Advance(time.Hour)
		got, err := env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedUnsold, got.Status)

		require.Equal(t, sellerBalance+7, env.balance(t, sellerAccount))
		require.Equal(t, uint64(100_000-7), env.balance(t, aliceAccount))

		a, err := env.svc.Registry().GetAsset(ctx, asset.Address)
		require.NoError(t, err)
		require.Equal(t, domain.ListedReadyForAuction, a.ListedStatus)
	})

	t.Run("invalid seller token account", func(t *testing.T) {
		env := newTestEnv(t)
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)
		env.clock.Advance(time.Hour)

		otherMintAccount := account("seller-other-mint")
		env.openAccount(t, otherMintAccount, seller, otherMint, 0)

		fixtures := []struct {
			name         string
			tokenAccount domain.Address
			code         errors.Code[errors.TokenAccountMetadata]
		}{
			{"not owned by the seller", bobAccount, errors.INVALID_TOKEN_ACCOUNT_OWNER},
			{"wrong mint", otherMintAccount, errors.INVALID_PERENA_MINT},
			{"unknown", account("unknown"), errors.TOKEN_ACCOUNT_NOT_FOUND},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				_, err := env.svc.Auctions().Finalize(
					ctx, FinalizeRequest{auction.Address, seller, f.tokenAccount},
				)
				require.Error(t, err)
				require.True(t, errors.Is(err, f.code), err.Error())
			})
		}

		got, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionActive, got.Status)
	})
}

func TestSettle(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t, withCommissionBps(250), withListingFee(0))
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)

		_, err := env.bid(auction.Address, alice, aliceAccount, nil, 5000)
		require.NoError(t, err)
		_, err = env.bid(auction.Address, bob, bobAccount, addrPtr(aliceAccount), 10_000)
		require.NoError(t, err)

		_, err = env.svc.Auctions().Settle(ctx, env.settleRequest(auction, bob, bobAccount))
		require.True(t, errors.Is(err, errors.AUCTION_NOT_IN_SETTLEMENT_STATE))

		env.clock.Advance(time.Hour)
		_, err = env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.NoError(t, err)

		_, err = env.svc.Auctions().Settle(ctx, env.settleRequest(auction, alice, aliceAccount))
		require.True(t, errors.Is(err, errors.NOT_AUCTION_WINNER))

		req := env.settleRequest(auction, bob, bobAccount)
		req.Asset = account("other-asset")
		_, err = env.svc.Auctions().Settle(ctx, req)
		require.True(t, errors.Is(err, errors.INVALID_ASSET_ACCOUNT))

		req = env.settleRequest(auction, bob, bobAccount)
		req.TreasuryTokenAccount = aliceAccount
		_, err = env.svc.Auctions().Settle(ctx, req)
		require.True(t, errors.Is(err, errors.INVALID_TREASURY_ACCOUNT))

		req = env.settleRequest(auction, bob, bobAccount)
		req.SellerTokenAccount = aliceAccount
		_, err = env.svc.Auctions().Settle(ctx, req)
		require.True(t, errors.Is(err, errors.INVALID_TOKEN_ACCOUNT_OWNER))

		result, err := env.svc.Auctions().Settle(ctx, env.settleRequest(auction, bob, bobAccount))
		require.NoError(t, err)
		require.Equal(t, uint64(250), result.Commission)
		require.Equal(t, uint64(9750), result.SellerAmount)
		require.Equal(t, result.Auction.HighestBid, result.Commission+result.SellerAmount)
		require.Equal(t, domain.AuctionCompleted, result.Auction.Status)
		require.Equal(t, bob, result.Asset.CurrentOwner)
		require.Equal(t, domain.ListedSold, result.Asset.ListedStatus)
		require.Nil(t, result.Asset.ActiveAuction)

		require.Equal(t, uint64(1000+9750), env.balance(t, sellerAccount))
		require.Equal(t, uint64(250), env.balance(t, treasury))
		require.Equal(t, uint64(100_000), env.balance(t, aliceAccount))
		require.Equal(t, uint64(100_000-10_000), env.balance(t, bobAccount))

		_, err = env.svc.Auctions().EscrowBalance(ctx, auction.Address)
		require.True(t, errors.Is(err, errors.TOKEN_ACCOUNT_NOT_FOUND))

		types := env.events.types()
		require.Equal(t, []domain.EventType{
			domain.EventTypeAssetSold, domain.EventTypeAuctionSettled,
		}, types[len(types)-2:])

		_, err = env.svc.Auctions().Settle(ctx, env.settleRequest(auction, bob, bobAccount))
		require.True(t, errors.Is(err, errors.AUCTION_NOT_IN_SETTLEMENT_STATE))

		// A sold asset can no longer be listed nor updated.
		_, err = env.svc.Registry().UpdateMetadata(ctx, bob, asset.Address, "cid")
		require.True(t, errors.Is(err, errors.ASSET_STATUS_PREVENTS_UPDATE))
	})

	t.Run("rejected settlement can be retried", func(t *testing.T) {
		env := newTestEnv(t, withListingFee(0))
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)

		_, err := env.bid(auction.Address, alice, aliceAccount, nil, 2000)
		require.NoError(t, err)
		env.clock.Advance(time.Hour)
		_, err = env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.NoError(t, err)

		sellerOtherMint := account("seller-other")
		env.openAccount(t, sellerOtherMint, seller, otherMint, 0)
		req := env.settleRequest(auction, alice, aliceAccount)
		req.SellerTokenAccount = sellerOtherMint
		_, err = env.svc.Auctions().Settle(ctx, req)
		require.True(t, errors.Is(err, errors.INVALID_PERENA_MINT))

		got, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedSoldPayPending, got.Status)
		requireEscrowEqualsHighestBid(t, env, auction.Address)

		// Retrying with the right accounts succeeds.
		_, err = env.svc.Auctions().Settle(ctx, env.settleRequest(auction, alice, aliceAccount))
		require.NoError(t, err)
	})
}

func TestSplitProceeds(t *testing.T) {
	fixtures := []struct {
		amount             uint64
		bps                uint16
		expectedCommission uint64
		expectedToSeller   uint64
	}{
		{10_000, 250, 250, 9750},
		{9_999, 250, 249, 9750},
		{1, 9_999, 0, 1},
		{12_345, 0, 0, 12_345},
		{12_345, 10_000, 12_345, 0},
		{0, 250, 0, 0},
	}

	for _, f := range fixtures {
		commission, toSeller, err := splitProceeds(f.amount, f.bps)
		require.NoError(t, err)
		require.Equal(t, f.expectedCommission, commission)
		require.Equal(t, f.expectedToSeller, toSeller)
		require.Equal(t, f.amount, commission+toSeller)
	}

	_, _, err := splitProceeds(^uint64(0), 2)
	require.True(t, errors.Is(err, errors.CALCULATION_OVERFLOW))
}

func defaultListRequest(asset domain.Address) ListRequest {
	return ListRequest{
		Seller:               seller,
		Asset:                asset,
		SellerTokenAccount:   sellerAccount,
		TreasuryTokenAccount: treasury,
		StartPrice:           1000,
		Duration:             3600,
	}
}

func requireEscrowEqualsHighestBid(t *testing.T, env *testEnv, auctionAddr domain.Address) {
	t.Helper()
	auction, err := env.svc.Auctions().GetAuction(ctx, auctionAddr)
	require.NoError(t, err)
	balance, err := env.svc.Auctions().EscrowBalance(ctx, auctionAddr)
	require.NoError(t, err)
	require.Equal(t, auction.HighestBid, balance)
}
