package txbuilder

import (
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/types"
)

// CapacityTransferBuilder produces exactly the given receiver outputs and
// selects no inputs of its own; the balancer supplies inputs and change.
type CapacityTransferBuilder struct {
	Receivers []Receiver
}

// NewCapacityTransferBuilder returns a builder producing receivers as
// plain capacity-transfer outputs.
func NewCapacityTransferBuilder(receivers ...Receiver) *CapacityTransferBuilder {
	return &CapacityTransferBuilder{Receivers: receivers}
}

func (b *CapacityTransferBuilder) BuildBase(collector providers.CellCollector, depResolver providers.CellDepResolver, headerResolver providers.HeaderDepResolver, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	tx := types.Transaction{Version: 0}
	var cellDeps []types.CellDep

	for _, r := range b.Receivers {
		lockDep, err := resolveCellDep(depResolver, r.Lock)
		if err != nil {
			return types.Transaction{}, err
		}
		cellDeps = mergeCellDep(cellDeps, lockDep)

		output := types.CellOutput{Capacity: r.Capacity, Lock: r.Lock, Type: r.Type}
		if r.Type != nil {
			typeDep, err := resolveCellDep(depResolver, *r.Type)
			if err != nil {
				return types.Transaction{}, err
			}
			cellDeps = mergeCellDep(cellDeps, typeDep)
		}
		tx.Outputs = append(tx.Outputs, output)
		tx.OutputsData = append(tx.OutputsData, r.Data)
	}

	tx.CellDeps = cellDeps
	return tx, nil
}

var _ Builder = (*CapacityTransferBuilder)(nil)
