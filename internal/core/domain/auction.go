package domain

type AuctionStatus uint8

const (
	AuctionActive AuctionStatus = iota
	AuctionEndedSoldPayPending
	AuctionEndedUnsold
	AuctionCompleted
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionActive:
		return "active"
	case AuctionEndedSoldPayPending:
		return "ended_sold_pay_pending"
	case AuctionEndedUnsold:
		return "ended_unsold"
	case AuctionCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s AuctionStatus) IsTerminal() bool {
	return s == AuctionEndedUnsold || s == AuctionCompleted
}

type Auction struct {
	Address Address
	Asset   Address
	Seller  Address
	// SellerTokenAccount is the settlement account the seller listed with. An
	// unsold auction returns any escrow residual to it.
	SellerTokenAccount Address
	SettlementMint     Address
	Sequence           uint32
	StartPrice         uint64
	EndTimestamp       int64
	HighestBid         uint64
	HighestBidder      *Address
	Status             AuctionStatus

	EscrowAccount       Address
	EscrowAuthority     Address
	EscrowAuthorityBump uint8
	Bump                uint8
}

func NewAuction(
	address Address, bump uint8, sequence uint32,
	asset, seller, sellerTokenAccount, settlementMint Address,
	startPrice uint64, endTimestamp int64,
	escrowAccount, escrowAuthority Address, escrowAuthorityBump uint8,
) (*Auction, AuctionListed) {
	auction := &Auction{
		Address:             address,
		Asset:               asset,
		Seller:              seller,
		SellerTokenAccount:  sellerTokenAccount,
		SettlementMint:      settlementMint,
		Sequence:            sequence,
		StartPrice:          startPrice,
		EndTimestamp:        endTimestamp,
		HighestBid:          startPrice,
		Status:              AuctionActive,
		EscrowAccount:       escrowAccount,
		EscrowAuthority:     escrowAuthority,
		EscrowAuthorityBump: escrowAuthorityBump,
		Bump:                bump,
	}
	return auction, AuctionListed{
		Type:               EventTypeAuctionListed,
		Auction:            address,
		Asset:              asset,
		Seller:             seller,
		SellerTokenAccount: sellerTokenAccount,
		StartPrice:         startPrice,
		EndTimestamp:       endTimestamp,
	}
}

func (a *Auction) IsActive() bool {
	return a.Status == AuctionActive
}

func (a *Auction) HasWinner() bool {
	return a.HighestBidder != nil
}

// HasEnded reports whether the deadline passed at the given unix time.
func (a *Auction) HasEnded(now int64) bool {
	return now >= a.EndTimestamp
}

func (a *Auction) AcceptBid(bidder Address, amount uint64) BidPlaced {
	a.HighestBid = amount
	a.HighestBidder = &bidder

	return BidPlaced{
		Type:    EventTypeBidPlaced,
		Auction: a.Address,
		Bidder:  bidder,
		Amount:  amount,
	}
}

// End closes bidding. The returned event is AuctionEndedWinner when a bid was
// accepted, AuctionEndedNoSale otherwise.
func (a *Auction) End() Event {
	if a.HasWinner() {
		a.Status = AuctionEndedSoldPayPending
		return AuctionEndedWinner{
			Type:    EventTypeAuctionEndedWinner,
			Auction: a.Address,
			Winner:  *a.HighestBidder,
			Amount:  a.HighestBid,
		}
	}

	a.Status = AuctionEndedUnsold
	return AuctionEndedNoSale{
		Type:    EventTypeAuctionEndedNoSale,
		Auction: a.Address,
	}
}

func (a *Auction) Complete(sellerAmount, commission uint64) AuctionSettled {
	a.Status = AuctionCompleted

	var winner Address
	if a.HighestBidder != nil {
		winner = *a.HighestBidder
	}
	return AuctionSettled{
		Type:         EventTypeAuctionSettled,
		Auction:      a.Address,
		Asset:        a.Asset,
		Seller:       a.Seller,
		Winner:       winner,
		Amount:       a.HighestBid,
		SellerAmount: sellerAmount,
		Commission:   commission,
	}
}
