package unlock

import (
	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// SighashUnlocker satisfies the plain secp256k1 sighash lock: args is a
// bare 20-byte blake160 pubkey hash, and the group's first witness carries
// a single 65-byte recoverable signature in its lock field.
type SighashUnlocker struct {
	Signer providers.Signer
}

// NewSighashUnlocker returns a SighashUnlocker backed by signer.
func NewSighashUnlocker(signer providers.Signer) *SighashUnlocker {
	return &SighashUnlocker{Signer: signer}
}

func (u *SighashUnlocker) MatchArgs(args []byte) bool { return len(args) == 20 }

func (u *SighashUnlocker) Defer(args []byte) bool { return false }

func (u *SighashUnlocker) IsUnlocked(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (bool, error) {
	lock, err := firstGroupWitnessLock(tx, group)
	if err != nil {
		return false, err
	}
	return len(lock) == sighashSignatureLen && !allZero(lock), nil
}

func (u *SighashUnlocker) Unlock(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	if len(group.Script.Args) != 20 {
		return tx, txerrors.ErrInvalidInput
	}
	var keyID [20]byte
	copy(keyID[:], group.Script.Args)
	return signWithPlaceholder(u.Signer, crypto.DigestBlake2b, tx, group, keyID, sighashSignatureLen)
}

var _ Unlocker = (*SighashUnlocker)(nil)
