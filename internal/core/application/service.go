package application

import (
	"fmt"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Start() error
	Stop()
	Registry() AssetRegistry
	Auctions() AuctionEngine
	Attestations() AttestationRecorder
	Accounts() TokenAccounts
}

type service struct {
	repoManager ports.RepoManager
	alerts      ports.Alerts

	registry     *assetRegistry
	engine       *auctionEngine
	attestations *attestationRecorder
	accounts     *tokenAccounts
	sweeper      *sweeper
}

// NewService wires the marketplace components on top of the given store. The
// scheduler is optional, without it auctions must be finalized explicitly.
// Alerts are optional too.
func NewService(
	repoManager ports.RepoManager, config *MarketplaceConfigGate,
	scheduler ports.SchedulerService, alerts ports.Alerts, clock ports.Clock,
	allowStaleAttestations bool,
) (Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if config == nil {
		return nil, fmt.Errorf("missing marketplace config")
	}
	if clock == nil {
		clock = ports.SystemClock()
	}

	m := newMetrics()
	registry := newAssetRegistry(repoManager, config)
	engine := newAuctionEngine(repoManager, config, registry, clock, m)
	attestations := newAttestationRecorder(repoManager, config, m, allowStaleAttestations)

	var sw *sweeper
	if scheduler != nil {
		sw = newSweeper(engine, repoManager, scheduler)
	}

	return &service{
		repoManager:  repoManager,
		alerts:       alerts,
		registry:     registry,
		engine:       engine,
		attestations: attestations,
		accounts:     newTokenAccounts(repoManager, config),
		sweeper:      sw,
	}, nil
}

func (s *service) Start() error {
	if s.sweeper != nil {
		log.Debug("starting sweeper service...")
		if err := s.sweeper.start(); err != nil {
			return err
		}
	}

	if s.alerts != nil {
		s.repoManager.Events().RegisterEventsHandler(
			domain.AuctionTopic, s.onAuctionEventsAlert,
		)
	}

	log.Debug("started app service")
	return nil
}

func (s *service) Stop() {
	if s.sweeper != nil {
		s.sweeper.stop()
		log.Debug("stopped sweeper service")
	}
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *service) Registry() AssetRegistry {
	return s.registry
}

func (s *service) Auctions() AuctionEngine {
	return s.engine
}

func (s *service) Attestations() AttestationRecorder {
	return s.attestations
}

func (s *service) Accounts() TokenAccounts {
	return s.accounts
}
