package txbuilder

import (
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// ACPTopUp is one receiver an ACPTransferBuilder tops up: the lock to
// locate an existing anyone-can-pay cell for, and the capacity delta to
// add to it.
type ACPTopUp struct {
	Lock          types.Script
	CapacityDelta uint64
}

// ACPTransferBuilder locates one existing live cell per receiver lock and
// increases its capacity by the requested delta, preserving its type
// script and data untouched (a plain CKB top-up; UDT top-ups go through
// UDTTransferBuilder).
type ACPTransferBuilder struct {
	Receivers []ACPTopUp
}

// NewACPTransferBuilder returns a builder topping up receivers' existing
// anyone-can-pay cells.
func NewACPTransferBuilder(receivers ...ACPTopUp) *ACPTransferBuilder {
	return &ACPTransferBuilder{Receivers: receivers}
}

func (b *ACPTransferBuilder) BuildBase(collector providers.CellCollector, depResolver providers.CellDepResolver, headerResolver providers.HeaderDepResolver, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	tx := types.Transaction{Version: 0}
	var cellDeps []types.CellDep

	for _, r := range b.Receivers {
		query := types.NewLockQuery(r.Lock)
		cells, _, err := collector.CollectLiveCells(query, true)
		if err != nil {
			return types.Transaction{}, txerrors.ErrCellCollectorError
		}
		if len(cells) == 0 {
			return types.Transaction{}, txerrors.Other("no anyone-can-pay cell found for lock")
		}
		cell := cells[0]

		lockDep, err := resolveCellDep(depResolver, r.Lock)
		if err != nil {
			return types.Transaction{}, err
		}
		cellDeps = mergeCellDep(cellDeps, lockDep)
		if cell.Output.Type != nil {
			typeDep, err := resolveCellDep(depResolver, *cell.Output.Type)
			if err != nil {
				return types.Transaction{}, err
			}
			cellDeps = mergeCellDep(cellDeps, typeDep)
		}

		tx.Inputs = append(tx.Inputs, types.CellInput{PreviousOutput: cell.OutPoint})
		tx.Outputs = append(tx.Outputs, types.CellOutput{
			Capacity: cell.Output.Capacity + r.CapacityDelta,
			Lock:     cell.Output.Lock,
			Type:     cell.Output.Type,
		})
		tx.OutputsData = append(tx.OutputsData, cell.OutputData)
		tx.Witnesses = append(tx.Witnesses, nil)
	}

	tx.CellDeps = cellDeps
	return tx, nil
}

var _ Builder = (*ACPTransferBuilder)(nil)
