package application

import (
	"context"
	stderrors "errors"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TokenAccounts manages settlement currency accounts on the built-in ledger.
// Anyone can open an account for themselves. The marketplace admin acts as the
// mint authority and is the only one allowed to credit accounts.
type TokenAccounts interface {
	Open(ctx context.Context, owner, address domain.Address) (*domain.TokenAccount, error)
	Credit(
		ctx context.Context, caller, address domain.Address, amount uint64,
	) (*domain.TokenAccount, error)
	Get(ctx context.Context, address domain.Address) (*domain.TokenAccount, error)
}

type tokenAccounts struct {
	repoManager ports.RepoManager
	config      *MarketplaceConfigGate
}

func newTokenAccounts(
	repoManager ports.RepoManager, config *MarketplaceConfigGate,
) *tokenAccounts {
	return &tokenAccounts{repoManager, config}
}

func (a *tokenAccounts) Open(
	ctx context.Context, owner, address domain.Address,
) (*domain.TokenAccount, error) {
	config, err := a.config.Get()
	if err != nil {
		return nil, err
	}

	account := domain.TokenAccount{
		Address: address,
		Owner:   owner,
		Mint:    config.SettlementMint,
	}
	if err := a.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Tokens().OpenAccount(ctx, account); err != nil {
			if stderrors.Is(err, domain.ErrRecordExists) {
				return errors.TOKEN_ACCOUNT_ALREADY_EXISTS.New(
					"token account %s already exists", address,
				).WithMetadata(errors.TokenAccountMetadata{Account: address.String()})
			}
			return err
		}
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	log.Debugf("opened token account %s for %s", address, owner)
	return &account, nil
}

func (a *tokenAccounts) Credit(
	ctx context.Context, caller, address domain.Address, amount uint64,
) (*domain.TokenAccount, error) {
	config, err := a.config.Get()
	if err != nil {
		return nil, err
	}
	if caller != config.Admin {
		return nil, errors.UNAUTHORIZED.New(
			"only the marketplace admin can credit token accounts",
		).WithMetadata(errors.CallerMetadata{
			Caller:   caller.String(),
			Expected: config.Admin.String(),
		})
	}

	var account *domain.TokenAccount
	if err := a.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		account, err = tx.Tokens().GetAccount(ctx, address)
		if err != nil {
			return err
		}
		if account.Mint != config.SettlementMint {
			return errors.INVALID_PERENA_MINT.New(
				"token account %s does not hold the settlement currency", address,
			).WithMetadata(errors.TokenAccountMetadata{
				Account:  address.String(),
				Expected: config.SettlementMint.String(),
				Got:      account.Mint.String(),
			})
		}
		if err := tx.Tokens().Deposit(ctx, address, amount); err != nil {
			return err
		}
		account, err = tx.Tokens().GetAccount(ctx, address)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}

	log.Debugf("credited %d to token account %s", amount, address)
	return account, nil
}

func (a *tokenAccounts) Get(
	ctx context.Context, address domain.Address,
) (*domain.TokenAccount, error) {
	var account *domain.TokenAccount
	if err := a.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		account, err = tx.Tokens().GetAccount(ctx, address)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}
	return account, nil
}
