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

func newSweeperTestEnv(t *testing.T) (*testEnv, *fakeScheduler) {
	t.Helper()
	env := newTestEnv(t, withScheduler(), withListingFee(0))
	return env, env.scheduler
}

func TestSweeper(t *testing.T) {
	t.Run("finalizes listed auctions at their deadline", func(t *testing.T) {
		env, scheduler := newSweeperTestEnv(t)
		require.True(t, scheduler.started)

		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)
		require.Equal(t, []int64{auction.EndTimestamp}, scheduler.scheduledAt())

		_, err := env.bid(auction.Address, alice, aliceAccount, nil, 1500)
		require.NoError(t, err)

		env.clock.Advance(time.Hour)
		require.Equal(t, 1, scheduler.runDue())

		got, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedSoldPayPending, got.Status)
	})

	t.Run("skips auctions already finalized", func(t *testing.T) {
		env, scheduler := newSweeperTestEnv(t)

		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)

		env.clock.Advance(time.Hour)
		_, err := env.svc.Auctions().Finalize(ctx, FinalizeRequest{auction.Address, seller, sellerAccount})
		require.NoError(t, err)

		require.Equal(t, 1, scheduler.runDue())

		got, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedUnsold, got.Status)
	})

	t.Run("restores active auctions", func(t *testing.T) {
		env := newTestEnv(t, withListingFee(0))
		asset := env.verifiedAsset(t, "asset")
		expiring := env.list(t, asset.Address, 1000, 60)

		other := env.verifiedAsset(t, "other")
		pending := env.list(t, other.Address, 1000, 3600)

		env.clock.Advance(time.Minute)

		scheduler := newFakeScheduler(env.clock)
		sw := newSweeper(env.svc.Auctions(), env.repoManager, scheduler)
		require.NoError(t, sw.start())
		t.Cleanup(sw.stop)

		// Auctions past their deadline are finalized right away.
		got, err := env.svc.Auctions().GetAuction(ctx, expiring.Address)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedUnsold, got.Status)

		require.Equal(t, []int64{pending.EndTimestamp}, scheduler.scheduledAt())
		require.Contains(t, sw.scheduledTasks, pending.Address.String())

		// Scheduling the same auction twice is a no-op.
		require.NoError(t, sw.scheduleFinalization(
			FinalizeRequest{pending.Address, seller, sellerAccount}, pending.EndTimestamp,
		))
		require.Len(t, scheduler.tasks[pending.EndTimestamp], 1)
	})

	t.Run("resubmits a conflicting finalization", func(t *testing.T) {
		race := newRacingRepoManager()
		env := newTestEnv(t, withScheduler(), withListingFee(0), withRace(race))
		scheduler := env.scheduler

		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)
		sellerBalance := env.balance(t, sellerAccount)

		// A transfer into the escrow commits while the first finalization is
		// about to.
		race.raceNext(func() {
			err := race.RepoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
				return tx.Tokens().Transfer(
					ctx, aliceAccount, auction.EscrowAccount, ports.Signer(alice), 7,
				)
			})
			require.NoError(t, err)
		})

		env.clock.Advance(time.Hour)
		require.Equal(t, 1, scheduler.runDue())

		got, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionEndedUnsold, got.Status)
		require.Equal(t, sellerBalance+7, env.balance(t, sellerAccount))
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		race := newRacingRepoManager()
		env := newTestEnv(t, withListingFee(0), withRace(race))
		asset := env.verifiedAsset(t, "asset")
		auction := env.list(t, asset.Address, 1000, 3600)
		env.clock.Advance(time.Hour)

		var competitor func()
		competitor = func() {
			err := race.RepoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
				return tx.Tokens().Transfer(
					ctx, aliceAccount, auction.EscrowAccount, ports.Signer(alice), 1,
				)
			})
			require.NoError(t, err)
			race.raceNext(competitor)
		}
		race.raceNext(competitor)

		sw := newSweeper(env.svc.Auctions(), env.repoManager, newFakeScheduler(env.clock))
		err := sw.createFinalizeTask(FinalizeRequest{auction.Address, seller, sellerAccount})()
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.CONCURRENT_MODIFICATION), err.Error())

		race.raceNext(nil)
		balance, err := env.svc.Auctions().EscrowBalance(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, uint64(maxFinalizeAttempts), balance)

		got, err := env.svc.Auctions().GetAuction(ctx, auction.Address)
		require.NoError(t, err)
		require.Equal(t, domain.AuctionActive, got.Status)
	})
}

var _ ports.SchedulerService = (*fakeScheduler)(nil)
