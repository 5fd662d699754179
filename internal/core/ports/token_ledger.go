package ports

import (
	"context"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/internal/authority"
	"github.com/arkade-os/marketd/pkg/errors"
)

// Authority is the capability presented to move funds out of a token account.
// Only wallet signers built with Signer and derived authorities minted inside
// the marketplace core are accepted by VerifyAuthority.
type Authority interface {
	Key() domain.Address
	Seeds() [][]byte
}

type TokenLedger interface {
	GetAccount(ctx context.Context, address domain.Address) (*domain.TokenAccount, error)
	OpenAccount(ctx context.Context, account domain.TokenAccount) error
	Deposit(ctx context.Context, address domain.Address, amount uint64) error
	Transfer(
		ctx context.Context, from, to domain.Address, authority Authority, amount uint64,
	) error
	// Close moves any residual balance to destination and closes the account.
	Close(ctx context.Context, account, destination domain.Address, authority Authority) error
}

type signer domain.Address

// Signer wraps the address of a wallet that signed the operation.
func Signer(address domain.Address) Authority {
	return signer(address)
}

func (s signer) Key() domain.Address { return domain.Address(s) }
func (s signer) Seeds() [][]byte     { return nil }

// VerifyAuthority checks that auth may move funds out of an account owned by
// owner. Wallet signers must hold an on-curve key. Derived authorities must be
// minted by the marketplace core and their seeds must re-derive their key. Any
// other implementation of Authority is rejected.
func VerifyAuthority(auth Authority, owner domain.Address) error {
	switch a := auth.(type) {
	case signer:
		key := a.Key()
		if err := checkOwner(key, owner); err != nil {
			return err
		}
		if !key.IsOnCurve() {
			return errors.UNAUTHORIZED.New(
				"derived address %s cannot sign as a wallet", key,
			).WithMetadata(errors.CallerMetadata{Caller: key.String()})
		}
		return nil
	case *authority.Derived:
		if a == nil {
			return errors.UNAUTHORIZED.New("missing authority")
		}
		key := a.Key()
		if err := checkOwner(key, owner); err != nil {
			return err
		}
		derived, err := domain.CreateDerivedAddress(domain.ProgramID, a.Seeds()...)
		if err != nil || derived != key {
			return errors.UNAUTHORIZED.New(
				"authority seeds do not derive %s", key,
			).WithMetadata(errors.CallerMetadata{Caller: key.String()})
		}
		return nil
	case nil:
		return errors.UNAUTHORIZED.New("missing authority")
	default:
		return errors.UNAUTHORIZED.New("unsupported authority %T", auth)
	}
}

func checkOwner(key, owner domain.Address) error {
	if key != owner {
		return errors.UNAUTHORIZED.New(
			"authority does not own the token account",
		).WithMetadata(errors.CallerMetadata{Caller: key.String(), Expected: owner.String()})
	}
	return nil
}
