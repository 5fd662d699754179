package ports

import "context"

const (
	AuctionSettled   Topic = "Auction Settled"
	AuctionFinalized Topic = "Auction Finalized"
)

type Topic string

type Alerts interface {
	Publish(ctx context.Context, topic Topic, message interface{}) error
}

type AuctionSettledAlert struct {
	Auction       string
	Asset         string
	Seller        string
	Winner        string
	MetadataURI   string
	Amount        uint64
	SellerAmount  uint64
	Commission    uint64
	CommissionPct string
}

type AuctionFinalizedAlert struct {
	Auction string
	Sold    bool
	Winner  string
	Amount  uint64
}
