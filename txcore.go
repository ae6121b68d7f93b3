// Package txcore orchestrates the full pipeline a caller drives end to
// end: build a base transaction, fill placeholder witnesses, balance
// capacity against a target fee rate, and unlock (sign) every script
// group it can.
package txcore

import (
	"go.uber.org/zap"

	"github.com/ckb-go/txcore/balancer"
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txbuilder"
	"github.com/ckb-go/txcore/types"
	"github.com/ckb-go/txcore/unlock"
)

// Providers bundles the external collaborators every pipeline stage needs.
type Providers struct {
	CellCollector     providers.CellCollector
	CellDepResolver   providers.CellDepResolver
	HeaderDepResolver providers.HeaderDepResolver
	TxDep             providers.TransactionDependencyProvider
}

// Pipeline runs build_balanced = build_base -> fill_placeholder_witnesses
// -> balance_tx_capacity -> unlock_tx.
type Pipeline struct {
	Balancer     *balancer.Balancer
	Unlockers    *unlock.Registry
	Placeholders func(lock types.Script) (types.WitnessArgs, bool)
	Logger       *zap.Logger
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}

// BuildBalanced runs the full pipeline over the transaction build produces,
// returning the signed transaction and the set of script groups that
// remain locked (empty when every group was satisfied).
func (p *Pipeline) BuildBalanced(build txbuilder.Builder, pr Providers) (types.Transaction, []types.ScriptGroup, error) {
	log := p.logger()

	base, err := build.BuildBase(pr.CellCollector, pr.CellDepResolver, pr.HeaderDepResolver, pr.TxDep)
	if err != nil {
		log.Error("build_base failed", zap.Error(err))
		return types.Transaction{}, nil, err
	}

	withWitnesses, err := balancer.FillPlaceholderWitnesses(base, pr.TxDep, p.Placeholders)
	if err != nil {
		log.Error("fill_placeholder_witnesses failed", zap.Error(err))
		return types.Transaction{}, nil, err
	}

	balanced, err := p.Balancer.BalanceTxCapacity(withWitnesses, pr.CellCollector, pr.CellDepResolver, pr.TxDep)
	if err != nil {
		log.Error("balance_tx_capacity failed", zap.Error(err))
		return types.Transaction{}, nil, err
	}

	if err := pr.CellCollector.ApplyTx(balanced); err != nil {
		log.Error("apply_tx failed", zap.Error(err))
		return types.Transaction{}, nil, err
	}

	signed, stillLocked, err := unlock.UnlockTx(balanced, pr.TxDep, p.Unlockers)
	if err != nil {
		log.Error("unlock_tx failed", zap.Error(err))
		return types.Transaction{}, nil, err
	}

	log.Info("build_balanced complete",
		zap.Int("inputs", len(signed.Inputs)),
		zap.Int("outputs", len(signed.Outputs)),
		zap.Int("still_locked", len(stillLocked)),
	)
	return signed, stillLocked, nil
}
