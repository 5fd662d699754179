package application

import (
	"context"
	stderrors "errors"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/arkade-os/marketd/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type AssetRegistry interface {
	Register(
		ctx context.Context, caller domain.Address, identifierSeed, metadataURI string,
	) (*domain.Asset, error)
	SetVerification(
		ctx context.Context, caller, asset domain.Address,
		status domain.OwnershipStatus, notesHash *[32]byte,
	) (*domain.Asset, error)
	UpdateMetadata(
		ctx context.Context, caller, asset domain.Address, metadataURI string,
	) (*domain.Asset, error)
	GetAsset(ctx context.Context, asset domain.Address) (*domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
}

// AssetAddress returns the address an asset registered with the given
// identifier seed lives at.
func AssetAddress(identifierSeed string) (domain.Address, error) {
	addr, _, err := domain.DeriveAssetAddress(domain.AssetIDHash(identifierSeed))
	return addr, err
}

type assetRegistry struct {
	repoManager ports.RepoManager
	config      *MarketplaceConfigGate
}

func newAssetRegistry(
	repoManager ports.RepoManager, config *MarketplaceConfigGate,
) *assetRegistry {
	return &assetRegistry{repoManager, config}
}

func (r *assetRegistry) Register(
	ctx context.Context, caller domain.Address, identifierSeed, metadataURI string,
) (*domain.Asset, error) {
	if err := validateMetadataURI(metadataURI); err != nil {
		return nil, err
	}

	idHash := domain.AssetIDHash(identifierSeed)
	addr, bump, err := domain.DeriveAssetAddress(idHash)
	if err != nil {
		return nil, derivationError("asset", err)
	}

	var asset *domain.Asset
	if err := r.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		var event domain.AssetRegistered
		asset, event = domain.NewAsset(addr, bump, caller, idHash, metadataURI)

		if err := tx.Assets().Add(ctx, *asset); err != nil {
			if stderrors.Is(err, domain.ErrRecordExists) {
				return errors.ASSET_ALREADY_REGISTERED.New(
					"asset %s already registered", addr,
				).WithMetadata(errors.AssetMetadata{Asset: addr.String()})
			}
			return err
		}
		tx.Emit(event)
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	log.Debugf("registered asset %s by %s", addr, caller)
	return asset, nil
}

func (r *assetRegistry) SetVerification(
	ctx context.Context, caller, assetAddr domain.Address,
	status domain.OwnershipStatus, notesHash *[32]byte,
) (*domain.Asset, error) {
	config, err := r.config.Get()
	if err != nil {
		return nil, err
	}
	if caller != config.Admin {
		return nil, errors.UNAUTHORIZED.New(
			"only the marketplace admin can set the ownership status",
		).WithMetadata(errors.CallerMetadata{
			Caller:   caller.String(),
			Expected: config.Admin.String(),
		})
	}
	if !status.IsValid() {
		return nil, errors.INTERNAL_ERROR.New("unknown ownership status %d", status)
	}

	var asset *domain.Asset
	if err := r.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) error {
		asset, err = getAsset(ctx, tx, assetAddr)
		if err != nil {
			return err
		}
		// Verification is frozen while the asset is escrowed or already sold.
		if asset.IsLocked() {
			return assetStatusError(
				errors.ASSET_STATUS_PREVENTS_UPDATE, asset,
				"cannot change the ownership status of asset %s while %s",
				asset.Address, asset.ListedStatus,
			)
		}

		event := asset.SetOwnershipStatus(status, notesHash)
		if err := tx.Assets().Update(ctx, *asset); err != nil {
			return err
		}
		tx.Emit(event)
		return nil
	}); err != nil {
		return nil, toTypedError(err)
	}

	log.Debugf("ownership status of asset %s set to %s", assetAddr, status)
	return asset, nil
}

func (r *assetRegistry) UpdateMetadata(
	ctx context.Context, caller, assetAddr domain.Address, metadataURI string,
) (*domain.Asset, error) {
	var asset *domain.Asset
	if err := r.repoManager.Atomic(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		asset, err = getAsset(ctx, tx, assetAddr)
		if err != nil {
			return err
		}
		if caller != asset.CurrentOwner {
			return errors.UNAUTHORIZED.New(
				"only the owner can update the metadata of asset %s", assetAddr,
			).WithMetadata(errors.CallerMetadata{
				Caller:   caller.String(),
				Expected: asset.CurrentOwner.String(),
			})
		}
		if err := validateMetadataURI(metadataURI); err != nil {
			return err
		}
		if asset.IsLocked() {
			return assetStatusError(
				errors.ASSET_STATUS_PREVENTS_UPDATE, asset,
				"cannot update the metadata of asset %s while %s",
				asset.Address, asset.ListedStatus,
			)
		}

		asset.UpdateMetadata(metadataURI)
		return tx.Assets().Update(ctx, *asset)
	}); err != nil {
		return nil, toTypedError(err)
	}

	return asset, nil
}

func (r *assetRegistry) GetAsset(
	ctx context.Context, assetAddr domain.Address,
) (*domain.Asset, error) {
	var asset *domain.Asset
	if err := r.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		asset, err = getAsset(ctx, tx, assetAddr)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}
	return asset, nil
}

func (r *assetRegistry) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	var assets []domain.Asset
	if err := r.repoManager.View(ctx, func(ctx context.Context, tx ports.Tx) (err error) {
		assets, err = tx.Assets().List(ctx)
		return err
	}); err != nil {
		return nil, toTypedError(err)
	}
	return assets, nil
}

// markInAuction locks the asset into the given auction. Invoked by the auction
// engine on listing, within its unit of work.
func (r *assetRegistry) markInAuction(
	ctx context.Context, tx ports.Tx, asset *domain.Asset, auction domain.Address,
) error {
	if asset.ListedStatus != domain.ListedReadyForAuction {
		return assetStatusError(
			errors.ASSET_NOT_READY_FOR_AUCTION, asset,
			"asset %s is %s", asset.Address, asset.ListedStatus,
		)
	}
	if !asset.IsVerified() {
		return assetStatusError(
			errors.OWNERSHIP_VERIFICATION_REQUIRED, asset,
			"ownership of asset %s is %s", asset.Address, asset.OwnershipStatus,
		)
	}

	asset.MarkInAuction(auction)
	return tx.Assets().Update(ctx, *asset)
}

// releaseFromAuction makes the asset listable again after an unsold auction.
func (r *assetRegistry) releaseFromAuction(
	ctx context.Context, tx ports.Tx, assetAddr, auction domain.Address,
) error {
	asset, err := getAsset(ctx, tx, assetAddr)
	if err != nil {
		return err
	}
	if asset.ActiveAuction == nil || *asset.ActiveAuction != auction {
		return errors.INVALID_ASSET_ACCOUNT.New(
			"asset %s is not locked by auction %s", assetAddr, auction,
		).WithMetadata(errors.AssetMetadata{Asset: assetAddr.String()})
	}

	asset.ReleaseFromAuction()
	return tx.Assets().Update(ctx, *asset)
}

// transferOwnership hands the asset over to the auction winner. Invoked only
// by settlement.
func (r *assetRegistry) transferOwnership(
	ctx context.Context, tx ports.Tx, asset *domain.Asset, newOwner domain.Address,
) error {
	event := asset.TransferOwnership(newOwner)
	if err := tx.Assets().Update(ctx, *asset); err != nil {
		return err
	}
	tx.Emit(event)
	return nil
}

func getAsset(ctx context.Context, tx ports.Tx, addr domain.Address) (*domain.Asset, error) {
	asset, err := tx.Assets().Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, errors.ASSET_NOT_FOUND.New(
			"asset %s not found", addr,
		).WithMetadata(errors.AssetMetadata{Asset: addr.String()})
	}
	return asset, nil
}

func assetStatusError(
	code errors.Code[errors.AssetStatusMetadata], asset *domain.Asset,
	format string, args ...any,
) error {
	return code.New(format, args...).WithMetadata(errors.AssetStatusMetadata{
		Asset:           asset.Address.String(),
		ListedStatus:    asset.ListedStatus.String(),
		OwnershipStatus: asset.OwnershipStatus.String(),
	})
}
