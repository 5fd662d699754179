package application

import (
	"context"
	"fmt"
	"time"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func (s *service) onAuctionEventsAlert(events []domain.Event) {
	for _, event := range events {
		switch e := event.(type) {
		case domain.AuctionSettled:
			s.publishAlert(ports.AuctionSettled, s.getSettlementStats(e))
		case domain.AuctionEndedWinner:
			s.publishAlert(ports.AuctionFinalized, ports.AuctionFinalizedAlert{
				Auction: e.Auction.String(),
				Sold:    true,
				Winner:  e.Winner.String(),
				Amount:  e.Amount,
			})
		case domain.AuctionEndedNoSale:
			s.publishAlert(ports.AuctionFinalized, ports.AuctionFinalizedAlert{
				Auction: e.Auction.String(),
			})
		}
	}
}

func (s *service) publishAlert(topic ports.Topic, message any) {
	if s.alerts == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.alerts.Publish(ctx, topic, message); err != nil {
		log.WithError(err).WithField("topic", topic).Warn("failed to publish alert")
	}
}

func (s *service) getSettlementStats(e domain.AuctionSettled) ports.AuctionSettledAlert {
	metadataURI := "N/A"
	if asset, err := s.registry.GetAsset(context.Background(), e.Asset); err == nil {
		metadataURI = asset.MetadataURI
	}

	return ports.AuctionSettledAlert{
		Auction:       e.Auction.String(),
		Asset:         e.Asset.String(),
		Seller:        e.Seller.String(),
		Winner:        e.Winner.String(),
		MetadataURI:   metadataURI,
		Amount:        e.Amount,
		SellerAmount:  e.SellerAmount,
		Commission:    e.Commission,
		CommissionPct: commissionPercentage(e.Commission, e.Amount),
	}
}

func commissionPercentage(commission, amount uint64) string {
	if amount == 0 {
		return "N/A"
	}
	pct := decimal.NewFromInt(int64(commission)).
		Div(decimal.NewFromInt(int64(amount))).
		Mul(decimal.NewFromInt(100)).
		StringFixed(2)
	return fmt.Sprintf("%s%%", pct)
}
