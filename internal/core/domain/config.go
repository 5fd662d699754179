package domain

import "fmt"

const MaxCommissionBps = 10_000

type MarketplaceConfig struct {
	Admin           Address
	SettlementMint  Address
	TreasuryAccount Address
	ListingFee      uint64
	CommissionBps   uint16
	Paused          bool
}

func (c MarketplaceConfig) Validate() error {
	if c.Admin.IsZero() {
		return fmt.Errorf("missing admin")
	}
	if c.SettlementMint.IsZero() {
		return fmt.Errorf("missing settlement mint")
	}
	if c.TreasuryAccount.IsZero() {
		return fmt.Errorf("missing treasury account")
	}
	if c.CommissionBps > MaxCommissionBps {
		return fmt.Errorf(
			"commission bps must be at most %d, got %d", MaxCommissionBps, c.CommissionBps,
		)
	}
	return nil
}

type TokenAccount struct {
	Address Address
	Owner   Address
	Mint    Address
	Amount  uint64
	Closed  bool
}
