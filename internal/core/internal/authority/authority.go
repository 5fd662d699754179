// Package authority holds the capability allowed to move funds out of token
// accounts owned by a derived address. Only packages under internal/core can
// import it, so the token ledger can check such a capability but nothing in
// infrastructure can mint one.
package authority

import "github.com/arkade-os/marketd/internal/core/domain"

// Derived is the signing capability of a derived address. The seeds, bump
// included, re-derive the key under the marketplace program id.
type Derived struct {
	key   domain.Address
	seeds [][]byte
}

func NewDerived(key domain.Address, seeds ...[]byte) *Derived {
	return &Derived{key, copySeeds(seeds)}
}

func (d *Derived) Key() domain.Address {
	return d.key
}

func (d *Derived) Seeds() [][]byte {
	return copySeeds(d.seeds)
}

func copySeeds(seeds [][]byte) [][]byte {
	out := make([][]byte, 0, len(seeds))
	for _, seed := range seeds {
		out = append(out, append([]byte(nil), seed...))
	}
	return out
}
