package domain

const (
	AssetTopic       = "asset"
	AuctionTopic     = "auction"
	AttestationTopic = "attestation"
)

type EventType string

const (
	EventTypeAssetRegistered              EventType = "asset_registered"
	EventTypeOwnershipVerificationUpdated EventType = "ownership_verification_updated"
	EventTypeAssetSold                    EventType = "asset_sold"
	EventTypeAuctionListed                EventType = "auction_listed"
	EventTypeBidPlaced                    EventType = "bid_placed"
	EventTypeAuctionEndedWinner           EventType = "auction_ended_winner"
	EventTypeAuctionEndedNoSale           EventType = "auction_ended_no_sale"
	EventTypeAuctionSettled               EventType = "auction_settled"
	EventTypeCrossChainBalanceAttested    EventType = "cross_chain_balance_attested"
)

type Event interface {
	GetTopic() string
	GetType() EventType
}

type AssetRegistered struct {
	Type        EventType
	Asset       Address
	Creator     Address
	MetadataURI string
}

func (e AssetRegistered) GetTopic() string   { return AssetTopic }
func (e AssetRegistered) GetType() EventType { return EventTypeAssetRegistered }

type OwnershipVerificationUpdated struct {
	Type      EventType
	Asset     Address
	Status    OwnershipStatus
	NotesHash *[32]byte `json:",omitempty"`
}

func (e OwnershipVerificationUpdated) GetTopic() string { return AssetTopic }
func (e OwnershipVerificationUpdated) GetType() EventType {
	return EventTypeOwnershipVerificationUpdated
}

type AssetSold struct {
	Type        EventType
	Asset       Address
	NewOwner    Address
	MetadataURI string
}

func (e AssetSold) GetTopic() string   { return AssetTopic }
func (e AssetSold) GetType() EventType { return EventTypeAssetSold }

type AuctionListed struct {
	Type               EventType
	Auction            Address
	Asset              Address
	Seller             Address
	SellerTokenAccount Address
	StartPrice         uint64
	EndTimestamp       int64
}

func (e AuctionListed) GetTopic() string   { return AuctionTopic }
func (e AuctionListed) GetType() EventType { return EventTypeAuctionListed }

type BidPlaced struct {
	Type    EventType
	Auction Address
	Bidder  Address
	Amount  uint64
}

func (e BidPlaced) GetTopic() string   { return AuctionTopic }
func (e BidPlaced) GetType() EventType { return EventTypeBidPlaced }

type AuctionEndedWinner struct {
	Type    EventType
	Auction Address
	Winner  Address
	Amount  uint64
}

func (e AuctionEndedWinner) GetTopic() string   { return AuctionTopic }
func (e AuctionEndedWinner) GetType() EventType { return EventTypeAuctionEndedWinner }

type AuctionEndedNoSale struct {
	Type    EventType
	Auction Address
}

func (e AuctionEndedNoSale) GetTopic() string   { return AuctionTopic }
func (e AuctionEndedNoSale) GetType() EventType { return EventTypeAuctionEndedNoSale }

type AuctionSettled struct {
	Type         EventType
	Auction      Address
	Asset        Address
	Seller       Address
	Winner       Address
	Amount       uint64
	SellerAmount uint64
	Commission   uint64
}

func (e AuctionSettled) GetTopic() string   { return AuctionTopic }
func (e AuctionSettled) GetType() EventType { return EventTypeAuctionSettled }

type CrossChainBalanceAttested struct {
	Type            EventType
	Target          Address
	SourceChainID   uint16
	SourceAssetHash [32]byte
	Balance         uint64
	Timestamp       int64
}

func (e CrossChainBalanceAttested) GetTopic() string { return AttestationTopic }
func (e CrossChainBalanceAttested) GetType() EventType {
	return EventTypeCrossChainBalanceAttested
}
