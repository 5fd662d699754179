package domain

import "crypto/sha256"

type Attestation struct {
	Address         Address
	Target          Address
	SourceChainID   uint16
	SourceAssetHash [32]byte
	Balance         uint64
	Timestamp       int64
	Bump            uint8
}

// AttestationPayload is what the relayer forwards from the source chain.
type AttestationPayload struct {
	Target             Address
	SourceChainID      uint16
	SourceAssetAddress []byte
	Balance            uint64
	Timestamp          int64
}

func (p AttestationPayload) SourceAssetHash() [32]byte {
	return sha256.Sum256(p.SourceAssetAddress)
}

// Apply overwrites the record with the payload values.
func (a *Attestation) Apply(p AttestationPayload) CrossChainBalanceAttested {
	a.Target = p.Target
	a.SourceChainID = p.SourceChainID
	a.SourceAssetHash = p.SourceAssetHash()
	a.Balance = p.Balance
	a.Timestamp = p.Timestamp

	return CrossChainBalanceAttested{
		Type:            EventTypeCrossChainBalanceAttested,
		Target:          a.Target,
		SourceChainID:   a.SourceChainID,
		SourceAssetHash: a.SourceAssetHash,
		Balance:         a.Balance,
		Timestamp:       a.Timestamp,
	}
}

type ChannelConfig struct {
	Address           Address
	AuthorizedRelayer Address
	Bump              uint8
}
