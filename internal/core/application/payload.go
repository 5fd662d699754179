package application

import (
	"encoding/json"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/pkg/errors"
	"github.com/ethereum/go-ethereum/common"
)

type evmPayload struct {
	TargetAddress   string `json:"target_address"`
	EVMChainID      uint16 `json:"evm_chain_id"`
	AssetAddressEVM string `json:"asset_address_on_evm"`
	Balance         uint64 `json:"balance"`
	Timestamp       int64  `json:"timestamp"`
}

// DecodeEVMPayload parses a relayer message attesting the balance held on an
// EVM chain. The source asset is a 0x prefixed hex address and is stored as its
// 20 raw bytes.
func DecodeEVMPayload(buf []byte) (domain.AttestationPayload, error) {
	var p evmPayload
	if err := json.Unmarshal(buf, &p); err != nil {
		return domain.AttestationPayload{}, errors.INVALID_ATTESTATION_DATA.New(
			"failed to decode payload: %s", err,
		)
	}

	target, err := domain.ParseAddress(p.TargetAddress)
	if err != nil {
		return domain.AttestationPayload{}, errors.INVALID_ATTESTATION_DATA.New(
			"invalid target address: %s", err,
		).WithMetadata(errors.AttestationMetadata{SourceChainID: p.EVMChainID})
	}
	if !common.IsHexAddress(p.AssetAddressEVM) {
		return domain.AttestationPayload{}, errors.INVALID_ATTESTATION_DATA.New(
			"invalid evm asset address %q", p.AssetAddressEVM,
		).WithMetadata(errors.AttestationMetadata{
			Target:        target.String(),
			SourceChainID: p.EVMChainID,
		})
	}

	return domain.AttestationPayload{
		Target:             target,
		SourceChainID:      p.EVMChainID,
		SourceAssetAddress: common.HexToAddress(p.AssetAddressEVM).Bytes(),
		Balance:            p.Balance,
		Timestamp:          p.Timestamp,
	}, nil
}
