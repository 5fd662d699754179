package application

import (
	"context"
	"sync"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	maxFinalizeAttempts = 3
	finalizeRetryDelay  = 100 * time.Millisecond
)

type sweeperTask struct {
	execute func() error
	id      string
	at      int64
}

// sweeper is an unexported service running while the main application service is started.
// It finalizes every active auction once its deadline is reached. Active auctions are
// restored at startup and newly listed ones are scheduled when their listing event is
// published.
type sweeper struct {
	engine      AuctionEngine
	repoManager ports.RepoManager
	scheduler   ports.SchedulerService

	// cache of scheduled tasks, avoid finalizing the same auction multiple times
	locker         *sync.Mutex
	scheduledTasks map[string]struct{}
}

func newSweeper(
	engine AuctionEngine, repoManager ports.RepoManager, scheduler ports.SchedulerService,
) *sweeper {
	return &sweeper{
		engine, repoManager, scheduler, &sync.Mutex{}, make(map[string]struct{}),
	}
}

func (s *sweeper) start() error {
	s.scheduler.Start()

	ctx := context.Background()
	auctions, err := s.engine.ListAuctions(ctx, domain.AuctionActive)
	if err != nil {
		return err
	}

	if len(auctions) > 0 {
		log.Infof("sweeper: restoring %d active auctions", len(auctions))
	}
	for _, auction := range auctions {
		if err := s.scheduleFinalization(FinalizeRequest{
			Auction:             auction.Address,
			SellerRentRecipient: auction.Seller,
			SellerTokenAccount:  auction.SellerTokenAccount,
		}, auction.EndTimestamp); err != nil {
			log.WithError(err).Errorf("failed to schedule finalization of auction %s", auction.Address)
		}
	}

	s.repoManager.Events().RegisterEventsHandler(domain.AuctionTopic, s.onAuctionEvents)
	return nil
}

func (s *sweeper) stop() {
	s.repoManager.Events().ClearRegisteredHandlers(domain.AuctionTopic)
	s.scheduler.Stop()
}

func (s *sweeper) onAuctionEvents(events []domain.Event) {
	for _, event := range events {
		listed, ok := event.(domain.AuctionListed)
		if !ok {
			continue
		}
		if err := s.scheduleFinalization(FinalizeRequest{
			Auction:             listed.Auction,
			SellerRentRecipient: listed.Seller,
			SellerTokenAccount:  listed.SellerTokenAccount,
		}, listed.EndTimestamp); err != nil {
			log.WithError(err).Errorf("failed to schedule finalization of auction %s", listed.Auction)
		}
	}
}

func (s *sweeper) scheduleFinalization(req FinalizeRequest, endTimestamp int64) error {
	return s.scheduleTask(sweeperTask{
		id:      req.Auction.String(),
		at:      endTimestamp,
		execute: s.createFinalizeTask(req),
	})
}

// removeTask update the cached map of scheduled tasks
func (s *sweeper) removeTask(id string) {
	s.locker.Lock()
	defer s.locker.Unlock()
	delete(s.scheduledTasks, id)
}

func (s *sweeper) scheduleTask(task sweeperTask) error {
	if task.execute == nil {
		return nil
	}

	log.Debugf("scheduling sweeper task %s at %d", task.id, task.at)

	if !s.scheduler.AfterNow(task.at) {
		log.Debugf("trying to schedule task in the past, executing it immediately")
		return task.execute()
	}

	s.locker.Lock()
	defer s.locker.Unlock()

	if _, scheduled := s.scheduledTasks[task.id]; scheduled {
		return nil
	}

	s.scheduledTasks[task.id] = struct{}{}

	return s.scheduler.ScheduleTaskOnce(task.at, func() {
		log.Tracef("sweeper: %s", task.id)

		s.locker.Lock()
		if _, scheduled := s.scheduledTasks[task.id]; !scheduled {
			log.Debugf("sweeper: task %s is not scheduled anymore, skipping", task.id)
			s.locker.Unlock()
			return
		}
		s.locker.Unlock()

		s.removeTask(task.id)

		if err := task.execute(); err != nil {
			log.WithError(err).Errorf("failed to execute sweeper task %s", task.id)
		}
	})
}

// createFinalizeTask returns a task finalizing the given auction. A finalization
// that loses a race against a concurrent unit of work is resubmitted against the
// updated state, up to maxFinalizeAttempts times.
func (s *sweeper) createFinalizeTask(req FinalizeRequest) func() error {
	return func() error {
		var err error
		for attempt := 1; attempt <= maxFinalizeAttempts; attempt++ {
			if attempt > 1 {
				log.Debugf(
					"sweeper: finalization of auction %s conflicted, retrying (%d/%d)",
					req.Auction, attempt, maxFinalizeAttempts,
				)
				time.Sleep(finalizeRetryDelay)
			}

			log.Debugf("sweeper: finalizing auction %s", req.Auction)
			_, err = s.engine.Finalize(context.Background(), req)
			if errors.Is(err, errors.AUCTION_NOT_IN_ACTIVE_STATE) {
				log.Debugf("sweeper: auction %s already finalized", req.Auction)
				return nil
			}
			if !errors.Is(err, errors.CONCURRENT_MODIFICATION) {
				return err
			}
		}
		return err
	}
}
