package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
)

// toTypedError leaves typed errors untouched and maps any other failure coming
// from the infrastructure to INTERNAL_ERROR.
func toTypedError(err error) error {
	if err == nil {
		return nil
	}
	var typed errors.Error
	if stderrors.As(err, &typed) {
		return err
	}
	return errors.INTERNAL_ERROR.Wrap(err)
}

func checkedAdd(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

func checkedMul(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

func checkedSub(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// deadline returns now + duration, failing on int64 overflow.
func deadline(now, duration int64) (int64, error) {
	if duration > 0 && now > math.MaxInt64-duration {
		return 0, errors.TIMESTAMP_OVERFLOW.New(
			"end timestamp overflows: now %d, duration %d", now, duration,
		)
	}
	return now + duration, nil
}

// validateSettlementAccount checks that the given token account is open, holds
// the settlement currency and is owned by the expected principal.
func validateSettlementAccount(
	ctx context.Context, tx ports.Tx, account, expectedOwner, settlementMint domain.Address,
) (*domain.TokenAccount, error) {
	tokenAccount, err := tx.Tokens().GetAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if tokenAccount.Mint != settlementMint {
		return nil, errors.INVALID_PERENA_MINT.New(
			"token account %s does not hold the settlement currency", account,
		).WithMetadata(errors.TokenAccountMetadata{
			Account:  account.String(),
			Expected: settlementMint.String(),
			Got:      tokenAccount.Mint.String(),
		})
	}
	if tokenAccount.Owner != expectedOwner {
		return nil, errors.INVALID_TOKEN_ACCOUNT_OWNER.New(
			"token account %s is not owned by %s", account, expectedOwner,
		).WithMetadata(errors.TokenAccountMetadata{
			Account:  account.String(),
			Expected: expectedOwner.String(),
			Got:      tokenAccount.Owner.String(),
		})
	}
	return tokenAccount, nil
}

func validateTreasuryAccount(account domain.Address, config domain.MarketplaceConfig) error {
	if account != config.TreasuryAccount {
		return errors.INVALID_TREASURY_ACCOUNT.New(
			"treasury account %s does not match the configured one", account,
		).WithMetadata(errors.TokenAccountMetadata{
			Account:  account.String(),
			Expected: config.TreasuryAccount.String(),
		})
	}
	return nil
}

func validateMetadataURI(uri string) error {
	if len(uri) > domain.MaxMetadataURILength {
		return errors.STRING_TOO_LONG.New(
			"metadata uri must be at most %d bytes, got %d",
			domain.MaxMetadataURILength, len(uri),
		).WithMetadata(errors.StringTooLongMetadata{
			Field:  "metadata_uri",
			Length: len(uri),
			Max:    domain.MaxMetadataURILength,
		})
	}
	return nil
}

func derivationError(what string, err error) error {
	return errors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to derive %s address: %w", what, err))
}
