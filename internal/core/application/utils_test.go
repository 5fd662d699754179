package application

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"sync"
	"testing"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	settlementMint = account("usd-star-mint")
	otherMint      = account("other-mint")
	treasury       = account("treasury")

	admin   = wallet("admin")
	seller  = wallet("seller")
	alice   = wallet("alice")
	bob     = wallet("bob")
	relayer = wallet("relayer")

	sellerAccount = account("seller-usd-star")
	aliceAccount  = account("alice-usd-star")
	bobAccount    = account("bob-usd-star")
)

// wallet returns the ed25519 public key of a deterministic test keypair.
func wallet(name string) domain.Address {
	seed := sha256.Sum256([]byte(name))
	pubkey := ed25519.NewKeyFromSeed(seed[:]).Public().(ed25519.PublicKey)
	var addr domain.Address
	copy(addr[:], pubkey)
	return addr
}

func account(name string) domain.Address {
	return domain.Address(sha256.Sum256([]byte(name)))
}

type fakeClock struct {
	lock *sync.Mutex
	now  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{&sync.Mutex{}, time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// eventRecorder is a synchronous event repository keeping track of every
// published event.
type eventRecorder struct {
	lock     *sync.Mutex
	events   []domain.Event
	handlers map[string][]func([]domain.Event)
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{
		lock:     &sync.Mutex{},
		handlers: make(map[string][]func([]domain.Event)),
	}
}

func (r *eventRecorder) Save(_ context.Context, topic string, events ...domain.Event) error {
	r.lock.Lock()
	r.events = append(r.events, events...)
	handlers := append([]func([]domain.Event){}, r.handlers[topic]...)
	r.lock.Unlock()

	for _, handler := range handlers {
		handler(events)
	}
	return nil
}

func (r *eventRecorder) RegisterEventsHandler(topic string, handler func([]domain.Event)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.handlers[topic] = append(r.handlers[topic], handler)
}

func (r *eventRecorder) ClearRegisteredHandlers(topics ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(topics) == 0 {
		r.handlers = make(map[string][]func([]domain.Event))
		return
	}
	for _, topic := range topics {
		delete(r.handlers, topic)
	}
}

func (r *eventRecorder) Close() {}

func (r *eventRecorder) types() []domain.EventType {
	r.lock.Lock()
	defer r.lock.Unlock()
	types := make([]domain.EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.GetType())
	}
	return types
}

func (r *eventRecorder) last() domain.Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

type testEnv struct {
	svc         Service
	repoManager ports.RepoManager
	clock       *fakeClock
	events      *eventRecorder
	scheduler   *fakeScheduler
}

type envOption func(*envConfig)

type envConfig struct {
	config        domain.MarketplaceConfig
	withScheduler bool
	alerts        ports.Alerts
	allowStale    bool
	race          *racingRepoManager
}

func withListingFee(fee uint64) envOption {
	return func(c *envConfig) { c.config.ListingFee = fee }
}

func withCommissionBps(bps uint16) envOption {
	return func(c *envConfig) { c.config.CommissionBps = bps }
}

func withPaused() envOption {
	return func(c *envConfig) { c.config.Paused = true }
}

func withAllowStale() envOption {
	return func(c *envConfig) { c.allowStale = true }
}

func withScheduler() envOption {
	return func(c *envConfig) { c.withScheduler = true }
}

func withAlerts(alerts ports.Alerts) envOption {
	return func(c *envConfig) { c.alerts = alerts }
}

func withRace(race *racingRepoManager) envOption {
	return func(c *envConfig) { c.race = race }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &envConfig{
		config: domain.MarketplaceConfig{
			Admin:           admin,
			SettlementMint:  settlementMint,
			TreasuryAccount: treasury,
			ListingFee:      10,
			CommissionBps:   250,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	events := newEventRecorder()
	repoManager, err := db.NewService(db.ServiceConfig{DataStoreType: "inmemory"}, events)
	require.NoError(t, err)
	if cfg.race != nil {
		cfg.race.RepoManager = repoManager
		repoManager = cfg.race
	}

	gate := NewMarketplaceConfigGate()
	require.NoError(t, gate.Init(cfg.config))

	clock := newFakeClock()
	var scheduler *fakeScheduler
	var schedulerSvc ports.SchedulerService
	if cfg.withScheduler {
		scheduler = newFakeScheduler(clock)
		schedulerSvc = scheduler
	}

	svc, err := NewService(repoManager, gate, schedulerSvc, cfg.alerts, clock, cfg.allowStale)
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	t.Cleanup(svc.Stop)

	env := &testEnv{svc, repoManager, clock, events, scheduler}
	env.openAccount(t, treasury, admin, settlementMint, 0)
	env.openAccount(t, sellerAccount, seller, settlementMint, 1_000)
	env.openAccount(t, aliceAccount, alice, settlementMint, 100_000)
	env.openAccount(t, bobAccount, bob, settlementMint, 100_000)
	return env
}

func (e *testEnv) openAccount(
	t *testing.T, addr, owner, mint domain.Address, amount uint64,
) {
	t.Helper()
	err := e.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Tokens().OpenAccount(ctx, domain.TokenAccount{
			Address: addr, Owner: owner, Mint: mint,
		}); err != nil {
			return err
		}
		if amount == 0 {
			return nil
		}
		return tx.Tokens().Deposit(ctx, addr, amount)
	})
	require.NoError(t, err)
}

func (e *testEnv) balance(t *testing.T, addr domain.Address) uint64 {
	t.Helper()
	var amount uint64
	err := e.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		account, err := tx.Tokens().GetAccount(ctx, addr)
		if err != nil {
			return err
		}
		amount = account.Amount
		return nil
	})
	require.NoError(t, err)
	return amount
}

// verifiedAsset registers an asset owned by the seller and has the admin
// verify it.
func (e *testEnv) verifiedAsset(t *testing.T, seed string) *domain.Asset {
	t.Helper()
	asset, err := e.svc.Registry().Register(ctx, seller, seed, "cid-"+seed)
	require.NoError(t, err)
	asset, err = e.svc.Registry().SetVerification(
		ctx, admin, asset.Address, domain.OwnershipVerified, nil,
	)
	require.NoError(t, err)
	return asset
}

func (e *testEnv) list(
	t *testing.T, asset domain.Address, startPrice uint64, duration int64,
) *domain.Auction {
	t.Helper()
	auction, err := e.svc.Auctions().ListForAuction(ctx, ListRequest{
		Seller:               seller,
		Asset:                asset,
		SellerTokenAccount:   sellerAccount,
		TreasuryTokenAccount: treasury,
		StartPrice:           startPrice,
		Duration:             duration,
	})
	require.NoError(t, err)
	return auction
}

func (e *testEnv) bid(
	auction domain.Address, bidder, bidderAccount domain.Address,
	previous *domain.Address, amount uint64,
) (*domain.Auction, error) {
	return e.svc.Auctions().PlaceBid(ctx, BidRequest{
		Auction:                    auction,
		Bidder:                     bidder,
		BidderTokenAccount:         bidderAccount,
		PreviousBidderTokenAccount: previous,
		Amount:                     amount,
	})
}

func (e *testEnv) settleRequest(auction *domain.Auction, winner, winnerAccount domain.Address) SettleRequest {
	return SettleRequest{
		Auction:              auction.Address,
		Winner:               winner,
		Asset:                auction.Asset,
		SellerTokenAccount:   sellerAccount,
		TreasuryTokenAccount: treasury,
		WinnerRefundAccount:  winnerAccount,
	}
}

func addrPtr(addr domain.Address) *domain.Address {
	return &addr
}

// fakeScheduler runs tasks only when explicitly asked to.
type fakeScheduler struct {
	lock    *sync.Mutex
	clock   ports.Clock
	tasks   map[int64][]func()
	started bool
}

func newFakeScheduler(clock ports.Clock) *fakeScheduler {
	return &fakeScheduler{&sync.Mutex{}, clock, make(map[int64][]func()), false}
}

func (s *fakeScheduler) Start() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.started = true
}

func (s *fakeScheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.started = false
}

func (s *fakeScheduler) AddNow(seconds int64) int64 {
	return s.clock.Now().Unix() + seconds
}

func (s *fakeScheduler) AfterNow(at int64) bool {
	return at > s.clock.Now().Unix()
}

func (s *fakeScheduler) ScheduleTaskOnce(at int64, task func()) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tasks[at] = append(s.tasks[at], task)
	return nil
}

func (s *fakeScheduler) scheduledAt() []int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	at := make([]int64, 0, len(s.tasks))
	for k := range s.tasks {
		at = append(at, k)
	}
	return at
}

// runDue executes and removes the tasks due at the current time.
func (s *fakeScheduler) runDue() int {
	now := s.clock.Now().Unix()

	s.lock.Lock()
	due := make([]func(), 0)
	for at, tasks := range s.tasks {
		if at <= now {
			due = append(due, tasks...)
			delete(s.tasks, at)
		}
	}
	s.lock.Unlock()

	for _, task := range due {
		task()
	}
	return len(due)
}

// racingRepoManager lets a competing unit of work commit while the next one
// it runs is about to commit.
type racingRepoManager struct {
	ports.RepoManager
	lock *sync.Mutex
	next func()
}

func newRacingRepoManager() *racingRepoManager {
	return &racingRepoManager{lock: &sync.Mutex{}}
}

func (m *racingRepoManager) raceNext(competitor func()) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.next = competitor
}

func (m *racingRepoManager) Atomic(
	ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error,
) error {
	return m.RepoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}

		m.lock.Lock()
		competitor := m.next
		m.next = nil
		m.lock.Unlock()

		if competitor != nil {
			competitor()
		}
		return nil
	})
}

type alertsRecorder struct {
	lock   *sync.Mutex
	alerts map[ports.Topic][]any
}

func newAlertsRecorder() *alertsRecorder {
	return &alertsRecorder{&sync.Mutex{}, make(map[ports.Topic][]any)}
}

func (a *alertsRecorder) Publish(_ context.Context, topic ports.Topic, message any) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.alerts[topic] = append(a.alerts[topic], message)
	return nil
}

func (a *alertsRecorder) get(topic ports.Topic) []any {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]any{}, a.alerts[topic]...)
}
