package domain

const MaxMetadataURILength = 100

type OwnershipStatus uint8

const (
	OwnershipPendingReview OwnershipStatus = iota
	OwnershipVerified
	OwnershipRejected
)

func (s OwnershipStatus) String() string {
	switch s {
	case OwnershipPendingReview:
		return "pending_review"
	case OwnershipVerified:
		return "verified"
	case OwnershipRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

func (s OwnershipStatus) IsValid() bool {
	return s <= OwnershipRejected
}

type ListedStatus uint8

const (
	ListedAwaitingOwnershipVerification ListedStatus = iota
	ListedReadyForAuction
	ListedInAuction
	ListedSold
	ListedVerificationRejected
)

func (s ListedStatus) String() string {
	switch s {
	case ListedAwaitingOwnershipVerification:
		return "awaiting_ownership_verification"
	case ListedReadyForAuction:
		return "ready_for_auction"
	case ListedInAuction:
		return "in_auction"
	case ListedSold:
		return "sold"
	case ListedVerificationRejected:
		return "verification_rejected"
	default:
		return "unknown"
	}
}

type Asset struct {
	Address         Address
	Creator         Address
	CurrentOwner    Address
	MetadataURI     string
	IDHash          [32]byte
	OwnershipStatus OwnershipStatus
	ListedStatus    ListedStatus
	ActiveAuction   *Address
	// AuctionCount is the number of auctions ever opened for the asset and
	// seeds the address of the next one.
	AuctionCount uint32
	Bump         uint8
}

func NewAsset(
	address Address, bump uint8, creator Address, idHash [32]byte, metadataURI string,
) (*Asset, AssetRegistered) {
	asset := &Asset{
		Address:         address,
		Creator:         creator,
		CurrentOwner:    creator,
		MetadataURI:     metadataURI,
		IDHash:          idHash,
		OwnershipStatus: OwnershipPendingReview,
		ListedStatus:    ListedAwaitingOwnershipVerification,
		Bump:            bump,
	}
	return asset, AssetRegistered{
		Type:        EventTypeAssetRegistered,
		Asset:       address,
		Creator:     creator,
		MetadataURI: metadataURI,
	}
}

// IsLocked is true while the asset is escrowed by an auction or already sold.
func (a *Asset) IsLocked() bool {
	return a.ListedStatus == ListedInAuction || a.ListedStatus == ListedSold
}

func (a *Asset) IsVerified() bool {
	return a.OwnershipStatus == OwnershipVerified
}

func (a *Asset) SetOwnershipStatus(
	status OwnershipStatus, notesHash *[32]byte,
) OwnershipVerificationUpdated {
	a.OwnershipStatus = status
	switch status {
	case OwnershipVerified:
		a.ListedStatus = ListedReadyForAuction
	case OwnershipRejected:
		a.ListedStatus = ListedVerificationRejected
	default:
		a.ListedStatus = ListedAwaitingOwnershipVerification
	}

	return OwnershipVerificationUpdated{
		Type:      EventTypeOwnershipVerificationUpdated,
		Asset:     a.Address,
		Status:    status,
		NotesHash: notesHash,
	}
}

func (a *Asset) UpdateMetadata(uri string) {
	a.MetadataURI = uri
}

// MarkInAuction locks the asset into the given auction and bumps the auction counter.
func (a *Asset) MarkInAuction(auction Address) {
	a.ListedStatus = ListedInAuction
	a.ActiveAuction = &auction
	a.AuctionCount++
}

func (a *Asset) ReleaseFromAuction() {
	a.ListedStatus = ListedReadyForAuction
	a.ActiveAuction = nil
}

func (a *Asset) TransferOwnership(newOwner Address) AssetSold {
	a.CurrentOwner = newOwner
	a.ListedStatus = ListedSold
	a.ActiveAuction = nil

	return AssetSold{
		Type:        EventTypeAssetSold,
		Asset:       a.Address,
		NewOwner:    newOwner,
		MetadataURI: a.MetadataURI,
	}
}
