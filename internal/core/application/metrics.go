package application

import (
	"context"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/arkade-os/marketd"

type metrics struct {
	listings      metric.Int64Counter
	bids          metric.Int64Counter
	finalizations metric.Int64Counter
	settlements   metric.Int64Counter
	settledVolume metric.Float64Counter
	attestations  metric.Int64Counter
}

// newMetrics registers the counters on the global meter provider, which is a
// no-op unless the otel sdk has been initialized.
func newMetrics() *metrics {
	return newMetricsWithMeter(otel.Meter(meterName))
}

func newMetricsWithMeter(meter metric.Meter) *metrics {
	return &metrics{
		listings: counter(
			meter, "marketd.auctions.listed", "Number of auctions opened",
		),
		bids: counter(
			meter, "marketd.bids.accepted", "Number of accepted bids",
		),
		finalizations: counter(
			meter, "marketd.auctions.finalized", "Number of finalized auctions",
		),
		settlements: counter(
			meter, "marketd.auctions.settled", "Number of settled auctions",
		),
		// Winning bids span the whole uint64 range, which an int64 counter
		// cannot hold.
		settledVolume: floatCounter(
			meter, "marketd.auctions.settled_volume", "Sum of the winning bids of settled auctions",
		),
		attestations: counter(
			meter, "marketd.attestations.recorded", "Number of recorded balance attestations",
		),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		log.WithError(err).Warnf("failed to register counter %s", name)
		c, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter(name)
	}
	return c
}

func floatCounter(meter metric.Meter, name, description string) metric.Float64Counter {
	c, err := meter.Float64Counter(name, metric.WithDescription(description))
	if err != nil {
		log.WithError(err).Warnf("failed to register counter %s", name)
		c, _ = noop.NewMeterProvider().Meter(meterName).Float64Counter(name)
	}
	return c
}

func (m *metrics) auctionListed(ctx context.Context) {
	m.listings.Add(ctx, 1)
}

func (m *metrics) bidPlaced(ctx context.Context) {
	m.bids.Add(ctx, 1)
}

func (m *metrics) auctionFinalized(ctx context.Context, sold bool) {
	m.finalizations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("sold", sold)))
}

func (m *metrics) auctionSettled(ctx context.Context, amount uint64) {
	m.settlements.Add(ctx, 1)
	m.settledVolume.Add(ctx, float64(amount))
}

func (m *metrics) balanceAttested(ctx context.Context, sourceChainID uint16) {
	m.attestations.Add(
		ctx, 1, metric.WithAttributes(attribute.Int("source_chain_id", int(sourceChainID))),
	)
}
