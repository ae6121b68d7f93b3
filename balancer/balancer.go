// Package balancer implements the capacity balancer: given a draft
// transaction it selects additional live cells, computes change, and
// accounts for witness size in fee calculation, iterating to a fixpoint
// where total input capacity covers outputs plus the fee owed at the
// transaction's final serialized size.
package balancer

import (
	"go.uber.org/zap"

	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// feeRateDivisor is the unit fee_rate is expressed in: shannons per 1000
// bytes of serialized transaction.
const feeRateDivisor = 1000

// maxIterations bounds the fixpoint loop; hitting it reports
// BalanceNotConverged rather than looping forever on a pathological
// change-cell oscillation.
const maxIterations = 64

// CapacityProvider is one source of additional input capacity the
// balancer may draw from: a lock script to query live cells under, and
// the placeholder witness to reserve for any cell it contributes.
type CapacityProvider struct {
	Lock               types.Script
	PlaceholderWitness types.WitnessArgs
}

// Balancer configures one balance_tx_capacity run.
type Balancer struct {
	FeeRate               uint64
	CapacityProviders     []CapacityProvider
	ChangeLock            types.Script
	ForceSmallChangeAsFee bool
	// SmallChangeThreshold bounds how much leftover capacity may be
	// absorbed as fee instead of becoming a change cell, when
	// ForceSmallChangeAsFee is set.
	SmallChangeThreshold uint64

	Logger *zap.Logger
}

func (b *Balancer) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return zap.NewNop()
}

// changeOutput returns the zero-capacity change cell template used to
// compute the minimum capacity a change output must carry.
func (b *Balancer) changeOutput() types.CellOutput {
	return types.CellOutput{Lock: b.ChangeLock}
}

func fee(size uint64, feeRate uint64) uint64 {
	return (size*feeRate + feeRateDivisor - 1) / feeRateDivisor
}

// BalanceTxCapacity iterates tx to a fixpoint, returning a transaction
// whose inputs cover its outputs plus the fee owed at the final
// serialized size.
func (b *Balancer) BalanceTxCapacity(tx types.Transaction, collector providers.CellCollector, depResolver providers.CellDepResolver, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	cur := tx.Clone()
	log := b.logger()

	inputCapacity := func(t types.Transaction) (uint64, error) {
		return t.InputCapacity(func(op types.OutPoint) (types.CellOutput, error) {
			cell, err := dep.GetCell(op)
			if err != nil {
				return types.CellOutput{}, err
			}
			return cell, nil
		})
	}

	for iter := 0; iter < maxIterations; iter++ {
		size := cur.SerializedSize()
		estimatedFee := fee(size, b.FeeRate)

		inputsCap, err := inputCapacity(cur)
		if err != nil {
			return types.Transaction{}, txerrors.ErrTxDep
		}
		outputsCap := cur.OutputCapacity()

		deficit := int64(outputsCap) + int64(estimatedFee) - int64(inputsCap)
		if deficit <= 0 {
			leftover := inputsCap - outputsCap - estimatedFee
			minChange := b.changeOutput().OccupiedCapacity(0)
			switch {
			case leftover == 0:
				return cur, nil
			case leftover >= minChange:
				withChange := cur.Clone()
				withChange.Outputs = append(withChange.Outputs, types.CellOutput{
					Capacity: leftover,
					Lock:     b.ChangeLock,
				})
				withChange.OutputsData = append(withChange.OutputsData, nil)
				// The change output itself grew the serialized size, so
				// the fee owed grew with it. The capacity field is fixed
				// width, so shrinking the change to cover the new fee does
				// not move the size again: one recompute settles it.
				newFee := fee(withChange.SerializedSize(), b.FeeRate)
				adjusted := int64(inputsCap) - int64(outputsCap) - int64(newFee)
				if adjusted >= int64(minChange) {
					withChange.Outputs[len(withChange.Outputs)-1].Capacity = uint64(adjusted)
					return withChange, nil
				}
				if b.ForceSmallChangeAsFee && leftover <= b.SmallChangeThreshold {
					return cur, nil
				}
				// the shrunk change fell below the dust threshold; fall
				// through to provider collection below.
			case b.ForceSmallChangeAsFee && leftover <= b.SmallChangeThreshold:
				return cur, nil
			default:
				return types.Transaction{}, txerrors.ErrCapacityNotEnough
			}
		}

		progressed := false
		for _, provider := range b.CapacityProviders {
			// Inspect without reserving: only the one cell actually taken
			// below gets locked, via LockCell, so the rest stay available
			// to a later fixpoint pass or a different provider.
			cells, _, err := collector.CollectLiveCells(types.NewLockQuery(provider.Lock), false)
			if err != nil {
				return types.Transaction{}, txerrors.ErrCellCollectorError
			}
			if len(cells) == 0 {
				continue
			}
			cellDep, ok := depResolver.Resolve(provider.Lock.Id())
			if !ok {
				return types.Transaction{}, txerrors.NewResolveCellDepFailed(provider.Lock.Id())
			}

			// Add one cell at a time and re-enter the fixpoint loop:
			// the deficit and fee both change with every input added,
			// so each addition gets its own size/fee recompute.
			cell := cells[0]
			if err := collector.LockCell(cell.OutPoint); err != nil {
				return types.Transaction{}, txerrors.ErrCellCollectorError
			}
			cur.Inputs = append(cur.Inputs, types.CellInput{PreviousOutput: cell.OutPoint})
			// The placeholder witness goes at the new input's index so any
			// trailing non-input witnesses keep their positions.
			idx := len(cur.Inputs) - 1
			cur.Witnesses = append(cur.Witnesses, nil)
			copy(cur.Witnesses[idx+1:], cur.Witnesses[idx:])
			cur.Witnesses[idx] = provider.PlaceholderWitness.Serialize()
			cur = withMergedCellDep(cur, cellDep)
			progressed = true
			break
		}

		if !progressed {
			log.Debug("capacity balancer: no provider could supply more cells", zap.Uint64("deficit", uint64(deficit)))
			return types.Transaction{}, txerrors.ErrCapacityNotEnough
		}
	}

	return types.Transaction{}, txerrors.ErrBalanceNotConverged
}

func withMergedCellDep(tx types.Transaction, dep types.CellDep) types.Transaction {
	for _, d := range tx.CellDeps {
		if d == dep {
			return tx
		}
	}
	tx.CellDeps = append(tx.CellDeps, dep)
	return tx
}

// FillPlaceholderWitnesses extends tx.Witnesses to match len(tx.Inputs),
// inserting a correctly-sized placeholder witness for any input whose
// lock script placeholderFor recognizes. Inputs with no matching
// unlocker, and inputs that already carry a non-empty witness, are left
// untouched. It must run before BalanceTxCapacity so the balancer sees
// true signature-bearing sizes.
func FillPlaceholderWitnesses(tx types.Transaction, dep providers.TransactionDependencyProvider, placeholderFor func(lock types.Script) (types.WitnessArgs, bool)) (types.Transaction, error) {
	out := tx.Clone()
	for len(out.Witnesses) < len(out.Inputs) {
		out.Witnesses = append(out.Witnesses, nil)
	}
	for i, in := range out.Inputs {
		if len(out.Witnesses[i]) != 0 {
			continue
		}
		cell, err := dep.GetCell(in.PreviousOutput)
		if err != nil {
			return types.Transaction{}, txerrors.ErrTxDep
		}
		wa, ok := placeholderFor(cell.Lock)
		if !ok {
			continue
		}
		out.Witnesses[i] = wa.Serialize()
	}
	return out, nil
}
