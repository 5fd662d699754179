package kv

import (
	"context"
	"fmt"
	"math"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
)

type tokenLedger struct {
	txn Txn
}

// NewTokenLedger returns a token ledger whose balances live in the same
// record store, and therefore the same unit of work, as the marketplace records.
func NewTokenLedger(txn Txn) ports.TokenLedger {
	return &tokenLedger{txn}
}

func (l *tokenLedger) GetAccount(
	ctx context.Context, address domain.Address,
) (*domain.TokenAccount, error) {
	account, err := get[domain.TokenAccount](ctx, l.txn, TokenAccountsBucket, address.String())
	if err != nil {
		return nil, err
	}
	if account == nil || account.Closed {
		return nil, errors.TOKEN_ACCOUNT_NOT_FOUND.New(
			"token account %s not found", address,
		).WithMetadata(errors.TokenAccountMetadata{Account: address.String()})
	}
	return account, nil
}

func (l *tokenLedger) OpenAccount(ctx context.Context, account domain.TokenAccount) error {
	existing, err := get[domain.TokenAccount](
		ctx, l.txn, TokenAccountsBucket, account.Address.String(),
	)
	if err != nil {
		return err
	}
	if existing != nil && !existing.Closed {
		return fmt.Errorf("token account %s: %w", account.Address, domain.ErrRecordExists)
	}

	account.Amount = 0
	account.Closed = false
	return l.save(ctx, account)
}

func (l *tokenLedger) Deposit(ctx context.Context, address domain.Address, amount uint64) error {
	account, err := l.GetAccount(ctx, address)
	if err != nil {
		return err
	}
	if account.Amount > math.MaxUint64-amount {
		return errors.CALCULATION_OVERFLOW.New("deposit overflows balance of %s", address)
	}
	account.Amount += amount
	return l.save(ctx, *account)
}

func (l *tokenLedger) Transfer(
	ctx context.Context, from, to domain.Address, authority ports.Authority, amount uint64,
) error {
	source, err := l.GetAccount(ctx, from)
	if err != nil {
		return err
	}
	if err := ports.VerifyAuthority(authority, source.Owner); err != nil {
		return err
	}
	destination, err := l.GetAccount(ctx, to)
	if err != nil {
		return err
	}
	if source.Mint != destination.Mint {
		return errors.INVALID_PERENA_MINT.New(
			"cannot transfer between different mints",
		).WithMetadata(errors.TokenAccountMetadata{
			Account:  to.String(),
			Expected: source.Mint.String(),
			Got:      destination.Mint.String(),
		})
	}
	if source.Amount < amount {
		return errors.INSUFFICIENT_FUNDS.New(
			"insufficient funds in %s", from,
		).WithMetadata(errors.InsufficientFundsMetadata{
			Account:   from.String(),
			Balance:   source.Amount,
			Requested: amount,
		})
	}
	if from == to || amount == 0 {
		return nil
	}
	if destination.Amount > math.MaxUint64-amount {
		return errors.CALCULATION_OVERFLOW.New("transfer overflows balance of %s", to)
	}

	source.Amount -= amount
	destination.Amount += amount
	if err := l.save(ctx, *source); err != nil {
		return err
	}
	return l.save(ctx, *destination)
}

func (l *tokenLedger) Close(
	ctx context.Context, address, destination domain.Address, authority ports.Authority,
) error {
	account, err := l.GetAccount(ctx, address)
	if err != nil {
		return err
	}
	if err := ports.VerifyAuthority(authority, account.Owner); err != nil {
		return err
	}
	if address == destination {
		return fmt.Errorf("cannot close token account %s into itself", address)
	}

	if account.Amount > 0 {
		if err := l.Transfer(ctx, address, destination, authority, account.Amount); err != nil {
			return err
		}
		// Reload after the transfer updated the balance.
		if account, err = l.GetAccount(ctx, address); err != nil {
			return err
		}
	}

	account.Closed = true
	return l.save(ctx, *account)
}

func (l *tokenLedger) save(ctx context.Context, account domain.TokenAccount) error {
	return put(ctx, l.txn, TokenAccountsBucket, account.Address.String(), account)
}
