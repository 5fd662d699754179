package application

import (
	"fmt"
	"sync"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/pkg/errors"
)

// MarketplaceConfigGate holds the marketplace singleton configuration. It can
// be initialized only once and cannot be read before that.
type MarketplaceConfigGate struct {
	lock   sync.RWMutex
	config *domain.MarketplaceConfig
}

func NewMarketplaceConfigGate() *MarketplaceConfigGate {
	return &MarketplaceConfigGate{}
}

func (g *MarketplaceConfigGate) Init(config domain.MarketplaceConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid marketplace config: %s", err)
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	if g.config != nil {
		return fmt.Errorf("marketplace config already initialized")
	}
	g.config = &config
	return nil
}

// Get returns a copy of the configuration.
func (g *MarketplaceConfigGate) Get() (domain.MarketplaceConfig, error) {
	g.lock.RLock()
	defer g.lock.RUnlock()

	if g.config == nil {
		return domain.MarketplaceConfig{}, errors.CONFIG_NOT_INITIALIZED.New(
			"marketplace config not initialized",
		)
	}
	return *g.config, nil
}

func (g *MarketplaceConfigGate) IsInitialized() bool {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.config != nil
}
