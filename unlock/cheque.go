package unlock

import (
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// ChequeUnlocker satisfies the cheque lock, which carries no signature of
// its own: it is released once either the receiver claims it (every cheque
// input carrying since 0) or the sender withdraws it after the six-epoch
// maturity window, as evidenced by a
// companion input elsewhere in the same transaction. It never signs
// anything; it only validates that companion input is present and already
// unlocked, so it must run after every ordinary unlocker.
type ChequeUnlocker struct{}

// NewChequeUnlocker returns a ChequeUnlocker.
func NewChequeUnlocker() *ChequeUnlocker { return &ChequeUnlocker{} }

func (u *ChequeUnlocker) MatchArgs(args []byte) bool { return len(args) == 40 }

func (u *ChequeUnlocker) Defer(args []byte) bool { return true }

func (u *ChequeUnlocker) IsUnlocked(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (bool, error) {
	if len(group.Script.Args) != 40 {
		return false, txerrors.ErrInvalidInput
	}
	var receiverHash, senderHash [20]byte
	copy(receiverHash[:], group.Script.Args[0:20])
	copy(senderHash[:], group.Script.Args[20:40])

	sinceOK := func(want types.Since) bool {
		for _, idx := range group.InputIndices {
			if tx.Inputs[idx].Since != want {
				return false
			}
		}
		return true
	}

	var companionIdx = -1
	var claimPath bool
	for i, in := range tx.Inputs {
		cell, err := dep.GetCell(in.PreviousOutput)
		if err != nil {
			return false, txerrors.ErrTxDep
		}
		h := cell.Lock.Hash()
		var prefix [20]byte
		copy(prefix[:], h[:20])
		if prefix == receiverHash {
			companionIdx = i
			claimPath = true
			break
		}
	}
	if companionIdx == -1 {
		for i, in := range tx.Inputs {
			cell, err := dep.GetCell(in.PreviousOutput)
			if err != nil {
				return false, txerrors.ErrTxDep
			}
			h := cell.Lock.Hash()
			var prefix [20]byte
			copy(prefix[:], h[:20])
			if prefix == senderHash {
				companionIdx = i
				claimPath = false
				break
			}
		}
	}
	if companionIdx == -1 {
		return false, nil
	}

	if claimPath {
		if !sinceOK(types.ChequeClaimSince) {
			return false, nil
		}
	} else {
		if !sinceOK(types.ChequeWithdrawSince) {
			return false, nil
		}
	}

	wa, err := types.ParseWitnessArgs(tx.Witnesses[companionIdx])
	if err != nil {
		return false, txerrors.Other("malformed witness: %v", err)
	}
	if len(wa.Lock) == 0 {
		return false, txerrors.Other("malformed witness: companion input has empty lock")
	}
	return true, nil
}

// Unlock is never expected to succeed: a cheque group becomes unlockable
// only through its companion input, never through its own signature.
func (u *ChequeUnlocker) Unlock(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	return tx, txerrors.Other("cheque lock requires its companion input to be unlocked first")
}

var _ Unlocker = (*ChequeUnlocker)(nil)
