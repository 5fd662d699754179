package application

import (
	"context"
	stderrors "errors"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type AttestationRecorder interface {
	ConfigureChannel(
		ctx context.Context, caller, authorizedRelayer domain.Address,
	) (*domain.ChannelConfig, error)
	SubmitAttestation(
		ctx context.Context, relayer domain.Address, payload domain.AttestationPayload,
	) (*domain.Attestation, error)
	// GetAttestation returns nil if nothing was attested for the given key.
	GetAttestation(
		ctx context.Context, target domain.Address, sourceChainID uint16, sourceAsset []byte,
	) (*domain.Attestation, error)
	ListAttestations(ctx context.Context) ([]domain.Attestation, error)
}

type attestationRecorder struct {
	repoManager ports.RepoManager
	config      *MarketplaceConfigGate
	metrics     *metrics
	allowStale  bool
}

func newAttestationRecorder(
	repoManager ports.RepoManager, config *MarketplaceConfigGate, metrics *metrics,
	allowStale bool,
) *attestationRecorder {
	return &attestationRecorder{repoManager, config, metrics, allowStale}
}

func (r *attestationRecorder) ConfigureChannel(
	ctx context.Context, caller, authorizedRelayer domain.Address,
) (*domain.ChannelConfig, error) {
	config, err := r.config.Get()
	if err != nil {
		return nil, err
	}
	if caller != config.Admin {
		return nil, errors.UNAUTHORIZED.New(
			"only the marketplace admin can configure the attestation channel",
		).WithMetadata(errors.CallerMetadata{
			Caller:   caller.String(),
			Expected: config.Admin.String(),
		})
	}

	addr, bump, err := domain.DeriveChannelConfigAddress()
	if err != nil {
		return nil, derivationError("channel config", err)
	}
	channel := &domain.ChannelConfig{
		Address:           addr,
		AuthorizedRelayer: authorizedRelayer,
		Bump:              bump,
	}

	if err := r.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		if err := tx.Channels().Add(ctx, *channel); err != nil {
			if stderrors.Is(err, domain.ErrRecordExists) {
				return errors.CHANNEL_ALREADY_CONFIGURED.New(
					"attestation channel already configured",
				)
			}
			return err
		}
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	log.Infof("attestation channel configured with relayer %s", authorizedRelayer)
	return channel, nil
}

func (r *attestationRecorder) SubmitAttestation(
	ctx context.Context, relayer domain.Address, payload domain.AttestationPayload,
) (*domain.Attestation, error) {
	var attestation *domain.Attestation
	if err := r.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		channel, err := tx.Channels().Get(ctx)
		if err != nil {
			return err
		}
		if channel == nil {
			return errors.CHANNEL_NOT_CONFIGURED.New("attestation channel not configured")
		}
		if relayer != channel.AuthorizedRelayer {
			return errors.UNAUTHORIZED.New(
				"%s is not the authorized relayer", relayer,
			).WithMetadata(errors.CallerMetadata{
				Caller:   relayer.String(),
				Expected: channel.AuthorizedRelayer.String(),
			})
		}
		if err := validateAttestationPayload(payload); err != nil {
			return err
		}

		sourceAssetHash := payload.SourceAssetHash()
		addr, bump, err := domain.DeriveAttestationAddress(
			payload.Target, payload.SourceChainID, sourceAssetHash,
		)
		if err != nil {
			return derivationError("attestation", err)
		}

		attestation, err = tx.Attestations().Get(ctx, addr)
		if err != nil {
			return err
		}
		if attestation == nil {
			attestation = &domain.Attestation{Address: addr, Bump: bump}
		} else if !r.allowStale && payload.Timestamp < attestation.Timestamp {
			return errors.STALE_ATTESTATION.New(
				"payload timestamp %d is older than the attested one %d",
				payload.Timestamp, attestation.Timestamp,
			).WithMetadata(errors.AttestationMetadata{
				Target:        payload.Target.String(),
				SourceChainID: payload.SourceChainID,
				Timestamp:     payload.Timestamp,
				Stored:        attestation.Timestamp,
			})
		}

		event := attestation.Apply(payload)
		if err := tx.Attestations().Upsert(ctx, *attestation); err != nil {
			return err
		}
		tx.Emit(event)
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	r.metrics.balanceAttested(ctx, payload.SourceChainID)
	log.Debugf(
		"attested balance %d for %s from chain %d",
		payload.Balance, payload.Target, payload.SourceChainID,
	)
	return attestation, nil
}

func (r *attestationRecorder) GetAttestation(
	ctx context.Context, target domain.Address, sourceChainID uint16, sourceAsset []byte,
) (*domain.Attestation, error) {
	payload := domain.AttestationPayload{SourceAssetAddress: sourceAsset}
	addr, _, err := domain.DeriveAttestationAddress(
		target, sourceChainID, payload.SourceAssetHash(),
	)
	if err != nil {
		return nil, derivationError("attestation", err)
	}

	var attestation *domain.Attestation
	if err := r.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		attestation, err = tx.Attestations().Get(ctx, addr)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}
	return attestation, nil
}

func (r *attestationRecorder) ListAttestations(
	ctx context.Context,
) ([]domain.Attestation, error) {
	var attestations []domain.Attestation
	if err := r.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		attestations, err = tx.Attestations().List(ctx)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}
	return attestations, nil
}

func validateAttestationPayload(payload domain.AttestationPayload) error {
	metadata := errors.AttestationMetadata{
		Target:        payload.Target.String(),
		SourceChainID: payload.SourceChainID,
		Timestamp:     payload.Timestamp,
	}
	if payload.Target.IsZero() {
		return errors.INVALID_ATTESTATION_DATA.New("missing target").WithMetadata(metadata)
	}
	if len(payload.SourceAssetAddress) == 0 {
		return errors.INVALID_ATTESTATION_DATA.New(
			"missing source asset address",
		).WithMetadata(metadata)
	}
	if payload.Timestamp < 0 {
		return errors.INVALID_ATTESTATION_DATA.New(
			"invalid timestamp %d", payload.Timestamp,
		).WithMetadata(metadata)
	}
	return nil
}
