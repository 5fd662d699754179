package application

import "github.com/arkade-os/marketd/internal/core/domain"

type ListRequest struct {
	Seller               domain.Address
	Asset                domain.Address
	SellerTokenAccount   domain.Address
	TreasuryTokenAccount domain.Address
	StartPrice           uint64
	// Duration of the bidding window in seconds.
	Duration int64
}

type BidRequest struct {
	Auction            domain.Address
	Bidder             domain.Address
	BidderTokenAccount domain.Address
	// PreviousBidderTokenAccount receives the refund of the outbid amount. It is
	// required only when the auction already has a highest bidder.
	PreviousBidderTokenAccount *domain.Address
	Amount                     uint64
}

type FinalizeRequest struct {
	Auction             domain.Address
	SellerRentRecipient domain.Address
	// SellerTokenAccount receives whatever is left in escrow when the auction
	// ends without bids.
	SellerTokenAccount domain.Address
}

type SettleRequest struct {
	Auction              domain.Address
	Winner               domain.Address
	Asset                domain.Address
	SellerTokenAccount   domain.Address
	TreasuryTokenAccount domain.Address
	WinnerRefundAccount  domain.Address
}

type SettlementResult struct {
	Auction      *domain.Auction
	Asset        *domain.Asset
	SellerAmount uint64
	Commission   uint64
}
