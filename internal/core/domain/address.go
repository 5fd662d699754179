package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	AddressLength = 32
	MaxSeedLength = 32
	MaxSeeds      = 16

	derivedAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("seed exceeds max length")
	ErrMaxSeedsExceeded      = errors.New("too many seeds")
	ErrAddressOnCurve        = errors.New("derived address lies on the ed25519 curve")
	ErrNoViableBump          = errors.New("unable to find a viable bump seed")
)

// ProgramID namespaces every address derived by the marketplace.
var ProgramID = Address(sha256.Sum256([]byte("marketd")))

// Address identifies callers, token accounts, mints and records.
type Address [AddressLength]byte

func ParseAddress(s string) (Address, error) {
	buf, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %s: %w", s, err)
	}
	if len(buf) != AddressLength {
		return Address{}, fmt.Errorf(
			"invalid address length, expected %d got %d", AddressLength, len(buf),
		)
	}
	var addr Address
	copy(addr[:], buf)
	return addr, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// IsOnCurve reports whether the address is a valid ed25519 point, ie. whether a
// private key may exist for it.
func (a Address) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// CreateDerivedAddress hashes the seeds together with the program id and
// returns the result only if it is off the ed25519 curve.
func CreateDerivedAddress(programID Address, seeds ...[]byte) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, ErrMaxSeedsExceeded
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Address{}, ErrMaxSeedLengthExceeded
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(derivedAddressMarker))

	var addr Address
	copy(addr[:], h.Sum(nil))
	if addr.IsOnCurve() {
		return Address{}, ErrAddressOnCurve
	}
	return addr, nil
}

// FindDerivedAddress searches bumps from 255 down and returns the first
// derived address that is off the curve along with its bump.
func FindDerivedAddress(programID Address, seeds ...[]byte) (Address, uint8, error) {
	withBump := make([][]byte, len(seeds), len(seeds)+1)
	copy(withBump, seeds)
	withBump = append(withBump, nil)

	for bump := uint8(255); bump > 0; bump-- {
		withBump[len(seeds)] = []byte{bump}
		addr, err := CreateDerivedAddress(programID, withBump...)
		if err == nil {
			return addr, bump, nil
		}
		if !errors.Is(err, ErrAddressOnCurve) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// AssetIDHash is the digest of a caller supplied asset identifier.
func AssetIDHash(identifierSeed string) [32]byte {
	return sha256.Sum256([]byte(identifierSeed))
}

func AssetSeeds(idHash [32]byte) [][]byte {
	return [][]byte{[]byte("asset"), idHash[:]}
}

func AuctionSeeds(asset Address, sequence uint32) [][]byte {
	seq := make([]byte, 4)
	binary.LittleEndian.PutUint32(seq, sequence)
	return [][]byte{[]byte("auction"), asset[:], seq}
}

func EscrowSeeds(auction Address) [][]byte {
	return [][]byte{[]byte("escrow"), auction[:]}
}

func EscrowAuthoritySeeds(auction Address) [][]byte {
	return [][]byte{[]byte("escrow_authority"), auction[:]}
}

func AttestationSeeds(target Address, sourceChainID uint16, sourceAssetHash [32]byte) [][]byte {
	chainID := make([]byte, 2)
	binary.LittleEndian.PutUint16(chainID, sourceChainID)
	return [][]byte{[]byte("attestation"), target[:], chainID, sourceAssetHash[:]}
}

func ChannelConfigSeeds() [][]byte {
	return [][]byte{[]byte("wormhole_listener")}
}

func DeriveAssetAddress(idHash [32]byte) (Address, uint8, error) {
	return FindDerivedAddress(ProgramID, AssetSeeds(idHash)...)
}

func DeriveAuctionAddress(asset Address, sequence uint32) (Address, uint8, error) {
	return FindDerivedAddress(ProgramID, AuctionSeeds(asset, sequence)...)
}

func DeriveEscrowAddress(auction Address) (Address, uint8, error) {
	return FindDerivedAddress(ProgramID, EscrowSeeds(auction)...)
}

func DeriveEscrowAuthority(auction Address) (Address, uint8, error) {
	return FindDerivedAddress(ProgramID, EscrowAuthoritySeeds(auction)...)
}

func DeriveAttestationAddress(
	target Address, sourceChainID uint16, sourceAssetHash [32]byte,
) (Address, uint8, error) {
	return FindDerivedAddress(
		ProgramID, AttestationSeeds(target, sourceChainID, sourceAssetHash)...,
	)
}

func DeriveChannelConfigAddress() (Address, uint8, error) {
	return FindDerivedAddress(ProgramID, ChannelConfigSeeds()...)
}
