// Package txbuilder implements the transaction builder contract: given a
// user-level transfer intent and the provider set, produce an unsigned,
// unbalanced transaction whose cell-deps are resolved and whose inputs
// already satisfy the builder's semantic requirement (an owner cell found,
// receivers present, UDT amounts valid). Fee balancing and witness
// placeholder filling happen downstream, in balancer.
package txbuilder

import (
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/types"
)

// Builder produces a base transaction from the configured provider set.
type Builder interface {
	BuildBase(collector providers.CellCollector, depResolver providers.CellDepResolver, headerResolver providers.HeaderDepResolver, dep providers.TransactionDependencyProvider) (types.Transaction, error)
}

// Receiver is one (lock, capacity, optional type+data) output a builder is
// asked to produce.
type Receiver struct {
	Lock     types.Script
	Capacity uint64
	Type     *types.Script
	Data     []byte
}

// resolveCellDep looks up the cell-dep for a script's identity, wrapping a
// miss in the taxonomy's ResolveCellDepFailed error.
func resolveCellDep(depResolver providers.CellDepResolver, script types.Script) (types.CellDep, error) {
	dep, ok := depResolver.Resolve(script.Id())
	if !ok {
		return types.CellDep{}, resolveCellDepFailed(script.Id())
	}
	return dep, nil
}

func mergeCellDep(deps []types.CellDep, dep types.CellDep) []types.CellDep {
	for _, d := range deps {
		if d == dep {
			return deps
		}
	}
	return append(deps, dep)
}
