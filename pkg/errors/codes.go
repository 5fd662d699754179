package errors

import grpccodes "google.golang.org/grpc/codes"

type AssetMetadata struct {
	Asset string `json:"asset"`
}

type AuctionMetadata struct {
	Auction string `json:"auction"`
}

type CallerMetadata struct {
	Caller   string `json:"caller"`
	Expected string `json:"expected,omitempty"`
}

type TokenAccountMetadata struct {
	Account  string `json:"account"`
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

type AssetStatusMetadata struct {
	Asset           string `json:"asset"`
	ListedStatus    string `json:"listed_status"`
	OwnershipStatus string `json:"ownership_status"`
}

type AuctionStatusMetadata struct {
	Auction string `json:"auction"`
	Status  string `json:"status"`
}

type AuctionTimeMetadata struct {
	Auction      string `json:"auction"`
	EndTimestamp int64  `json:"end_timestamp"`
	Now          int64  `json:"now"`
}

type StringTooLongMetadata struct {
	Field  string `json:"field"`
	Length int    `json:"length"`
	Max    int    `json:"max"`
}

type BidTooLowMetadata struct {
	Auction    string `json:"auction"`
	Bid        uint64 `json:"bid"`
	HighestBid uint64 `json:"highest_bid"`
}

type InsufficientFundsMetadata struct {
	Account   string `json:"account"`
	Balance   uint64 `json:"balance"`
	Requested uint64 `json:"requested"`
}

type AttestationMetadata struct {
	Target        string `json:"target"`
	SourceChainID uint16 `json:"source_chain_id"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	Stored        int64  `json:"stored_timestamp,omitempty"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}

// Authorization

var UNAUTHORIZED = Code[CallerMetadata]{1, "UNAUTHORIZED", grpccodes.PermissionDenied}

var NOT_AUCTION_WINNER = Code[CallerMetadata]{
	2,
	"NOT_AUCTION_WINNER",
	grpccodes.PermissionDenied,
}

var INVALID_TOKEN_ACCOUNT_OWNER = Code[TokenAccountMetadata]{
	3,
	"INVALID_TOKEN_ACCOUNT_OWNER",
	grpccodes.PermissionDenied,
}

// State

var ASSET_NOT_READY_FOR_AUCTION = Code[AssetStatusMetadata]{
	4,
	"ASSET_NOT_READY_FOR_AUCTION",
	grpccodes.FailedPrecondition,
}

var OWNERSHIP_VERIFICATION_REQUIRED = Code[AssetStatusMetadata]{
	5,
	"OWNERSHIP_VERIFICATION_REQUIRED",
	grpccodes.FailedPrecondition,
}

var AUCTION_NOT_IN_ACTIVE_STATE = Code[AuctionStatusMetadata]{
	6,
	"AUCTION_NOT_IN_ACTIVE_STATE",
	grpccodes.FailedPrecondition,
}
var AUCTION_ENDED = Code[AuctionTimeMetadata]{7, "AUCTION_ENDED", grpccodes.FailedPrecondition}

var AUCTION_NOT_ENDED = Code[AuctionTimeMetadata]{
	8,
	"AUCTION_NOT_ENDED",
	grpccodes.FailedPrecondition,
}

var AUCTION_NOT_IN_SETTLEMENT_STATE = Code[AuctionStatusMetadata]{
	9,
	"AUCTION_NOT_IN_SETTLEMENT_STATE",
	grpccodes.FailedPrecondition,
}

var ASSET_STATUS_PREVENTS_UPDATE = Code[AssetStatusMetadata]{
	10,
	"ASSET_STATUS_PREVENTS_UPDATE",
	grpccodes.FailedPrecondition,
}
var MARKETPLACE_PAUSED = Code[any]{11, "MARKETPLACE_PAUSED", grpccodes.Unavailable}

// Input

var STRING_TOO_LONG = Code[StringTooLongMetadata]{
	12,
	"STRING_TOO_LONG",
	grpccodes.InvalidArgument,
}
var BID_TOO_LOW = Code[BidTooLowMetadata]{13, "BID_TOO_LOW", grpccodes.InvalidArgument}

var INVALID_PERENA_MINT = Code[TokenAccountMetadata]{
	14,
	"INVALID_PERENA_MINT",
	grpccodes.InvalidArgument,
}

var INVALID_ASSET_ACCOUNT = Code[AssetMetadata]{
	15,
	"INVALID_ASSET_ACCOUNT",
	grpccodes.InvalidArgument,
}

var INVALID_TREASURY_ACCOUNT = Code[TokenAccountMetadata]{
	16,
	"INVALID_TREASURY_ACCOUNT",
	grpccodes.InvalidArgument,
}

var INVALID_SELLER_ACCOUNT_FOR_RENT = Code[CallerMetadata]{
	17,
	"INVALID_SELLER_ACCOUNT_FOR_RENT",
	grpccodes.InvalidArgument,
}

var MISSING_PREVIOUS_BIDDER_ACCOUNT = Code[AuctionMetadata]{
	18,
	"MISSING_PREVIOUS_BIDDER_ACCOUNT",
	grpccodes.InvalidArgument,
}

// Arithmetic

var TIMESTAMP_OVERFLOW = Code[map[string]any]{
	19,
	"TIMESTAMP_OVERFLOW",
	grpccodes.OutOfRange,
}

var CALCULATION_OVERFLOW = Code[map[string]any]{
	20,
	"CALCULATION_OVERFLOW",
	grpccodes.OutOfRange,
}

// Lookup and bookkeeping

var ASSET_NOT_FOUND = Code[AssetMetadata]{21, "ASSET_NOT_FOUND", grpccodes.NotFound}
var AUCTION_NOT_FOUND = Code[AuctionMetadata]{22, "AUCTION_NOT_FOUND", grpccodes.NotFound}

var ASSET_ALREADY_REGISTERED = Code[AssetMetadata]{
	23,
	"ASSET_ALREADY_REGISTERED",
	grpccodes.AlreadyExists,
}

var CONFIG_NOT_INITIALIZED = Code[any]{
	24,
	"CONFIG_NOT_INITIALIZED",
	grpccodes.FailedPrecondition,
}

var CHANNEL_NOT_CONFIGURED = Code[any]{
	25,
	"CHANNEL_NOT_CONFIGURED",
	grpccodes.FailedPrecondition,
}

var CHANNEL_ALREADY_CONFIGURED = Code[any]{
	26,
	"CHANNEL_ALREADY_CONFIGURED",
	grpccodes.AlreadyExists,
}

var CONCURRENT_MODIFICATION = Code[map[string]any]{
	27,
	"CONCURRENT_MODIFICATION",
	grpccodes.Aborted,
}

var INSUFFICIENT_FUNDS = Code[InsufficientFundsMetadata]{
	28,
	"INSUFFICIENT_FUNDS",
	grpccodes.FailedPrecondition,
}

var TOKEN_ACCOUNT_NOT_FOUND = Code[TokenAccountMetadata]{
	29,
	"TOKEN_ACCOUNT_NOT_FOUND",
	grpccodes.NotFound,
}

var INVALID_ATTESTATION_DATA = Code[AttestationMetadata]{
	30,
	"INVALID_ATTESTATION_DATA",
	grpccodes.InvalidArgument,
}

var STALE_ATTESTATION = Code[AttestationMetadata]{
	31,
	"STALE_ATTESTATION",
	grpccodes.FailedPrecondition,
}

var INVALID_AUCTION_DURATION = Code[AuctionTimeMetadata]{
	32,
	"INVALID_AUCTION_DURATION",
	grpccodes.InvalidArgument,
}

var TOKEN_ACCOUNT_ALREADY_EXISTS = Code[TokenAccountMetadata]{
	33,
	"TOKEN_ACCOUNT_ALREADY_EXISTS",
	grpccodes.AlreadyExists,
}
