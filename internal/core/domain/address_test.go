package domain_test

import (
	"crypto/ed25519"
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		addr := domain.Address(sha256.Sum256([]byte("alice")))
		parsed, err := domain.ParseAddress(addr.String())
		require.NoError(t, err)
		require.Equal(t, addr, parsed)

		zero, err := domain.ParseAddress(strings.Repeat("1", 32))
		require.NoError(t, err)
		require.True(t, zero.IsZero())
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []string{"", "0OIl", "3mJr7AoUXx2Wqd"}
		for _, f := range fixtures {
			_, err := domain.ParseAddress(f)
			require.Error(t, err, f)
		}
	})

	t.Run("text encoding", func(t *testing.T) {
		addr := domain.Address(sha256.Sum256([]byte("bob")))
		text, err := addr.MarshalText()
		require.NoError(t, err)

		var decoded domain.Address
		require.NoError(t, decoded.UnmarshalText(text))
		require.Equal(t, addr, decoded)
	})

	t.Run("wallet keys are on curve", func(t *testing.T) {
		seed := sha256.Sum256([]byte("carol"))
		pubkey := ed25519.NewKeyFromSeed(seed[:]).Public().(ed25519.PublicKey)
		var addr domain.Address
		copy(addr[:], pubkey)
		require.True(t, addr.IsOnCurve())
	})
}

func TestDerivedAddress(t *testing.T) {
	idHash := domain.AssetIDHash("asset-42")

	t.Run("deterministic and off curve", func(t *testing.T) {
		addr, bump, err := domain.DeriveAssetAddress(idHash)
		require.NoError(t, err)
		require.False(t, addr.IsOnCurve())

		again, againBump, err := domain.DeriveAssetAddress(idHash)
		require.NoError(t, err)
		require.Equal(t, addr, again)
		require.Equal(t, bump, againBump)
	})

	t.Run("bump re-derives", func(t *testing.T) {
		addr, bump, err := domain.DeriveAssetAddress(idHash)
		require.NoError(t, err)

		seeds := append(domain.AssetSeeds(idHash), []byte{bump})
		got, err := domain.CreateDerivedAddress(domain.ProgramID, seeds...)
		require.NoError(t, err)
		require.Equal(t, addr, got)
	})

	t.Run("distinct seeds", func(t *testing.T) {
		asset, _, err := domain.DeriveAssetAddress(idHash)
		require.NoError(t, err)

		first, _, err := domain.DeriveAuctionAddress(asset, 0)
		require.NoError(t, err)
		second, _, err := domain.DeriveAuctionAddress(asset, 1)
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		escrow, _, err := domain.DeriveEscrowAddress(first)
		require.NoError(t, err)
		authority, _, err := domain.DeriveEscrowAuthority(first)
		require.NoError(t, err)
		require.NotEqual(t, escrow, authority)
	})

	t.Run("attestation key", func(t *testing.T) {
		target := domain.Address(sha256.Sum256([]byte("target")))
		srcHash := sha256.Sum256([]byte{0xde, 0xad})

		a, _, err := domain.DeriveAttestationAddress(target, 2, srcHash)
		require.NoError(t, err)
		b, _, err := domain.DeriveAttestationAddress(target, 3, srcHash)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("invalid seeds", func(t *testing.T) {
		_, _, err := domain.FindDerivedAddress(domain.ProgramID, make([]byte, 33))
		require.ErrorIs(t, err, domain.ErrMaxSeedLengthExceeded)

		seeds := make([][]byte, domain.MaxSeeds)
		_, _, err = domain.FindDerivedAddress(domain.ProgramID, seeds...)
		require.ErrorIs(t, err, domain.ErrMaxSeedsExceeded)
	})
}
