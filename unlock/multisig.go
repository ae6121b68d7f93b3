package unlock

import (
	"bytes"

	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// MultisigUnlocker satisfies the secp256k1 multisig lock: the group's
// first witness lock field holds the serialized multisig script followed
// by one 65-byte signature slot per threshold signer, filled in one at a
// time as each key signs.
type MultisigUnlocker struct {
	Signer providers.Signer
	Config types.MultisigConfig
}

// NewMultisigUnlocker returns a MultisigUnlocker for cfg, backed by signer.
func NewMultisigUnlocker(signer providers.Signer, cfg types.MultisigConfig) *MultisigUnlocker {
	return &MultisigUnlocker{Signer: signer, Config: cfg}
}

func (u *MultisigUnlocker) placeholderLen() int {
	return len(u.Config.Serialize()) + int(u.Config.Threshold)*sighashSignatureLen
}

func (u *MultisigUnlocker) MatchArgs(args []byte) bool {
	return len(args) == 20 || len(args) == 28
}

func (u *MultisigUnlocker) Defer(args []byte) bool { return false }

func (u *MultisigUnlocker) IsUnlocked(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (bool, error) {
	lock, err := firstGroupWitnessLock(tx, group)
	if err != nil {
		return false, err
	}
	script := u.Config.Serialize()
	if len(lock) != len(script)+int(u.Config.Threshold)*sighashSignatureLen {
		return false, nil
	}
	if !bytes.Equal(lock[:len(script)], script) {
		return false, nil
	}
	sigs := lock[len(script):]
	for i := 0; i < int(u.Config.Threshold); i++ {
		if allZero(sigs[i*sighashSignatureLen : (i+1)*sighashSignatureLen]) {
			return false, nil
		}
	}

	// Every slot is filled; recover each signer and hold the set to the
	// configured pubkey hashes, with the first RequireFirstN slots signed
	// by the first RequireFirstN hashes in list order.
	zeroed := make([]byte, len(lock))
	copy(zeroed, script)
	gw, err := buildGroupWitnesses(tx, group, zeroed)
	if err != nil {
		return false, err
	}
	digest := crypto.SigningDigest(crypto.DigestBlake2b, gw)
	member := make(map[[20]byte]bool, len(u.Config.PubkeyHashes))
	for _, h := range u.Config.PubkeyHashes {
		member[h] = true
	}
	for i := 0; i < int(u.Config.Threshold); i++ {
		var sig [65]byte
		copy(sig[:], sigs[i*sighashSignatureLen:(i+1)*sighashSignatureLen])
		pub, err := crypto.RecoverPubKey(sig, digest)
		if err != nil {
			return false, nil
		}
		h := crypto.Blake160(pub)
		if i < int(u.Config.RequireFirstN) {
			if h != u.Config.PubkeyHashes[i] {
				return false, nil
			}
			continue
		}
		if !member[h] {
			return false, nil
		}
	}
	return true, nil
}

// Unlock signs with whichever configured pubkey-hash the Signer holds a
// key for, and writes the signature into the next empty slot. Calling
// Unlock repeatedly with different signers accumulates signatures toward
// threshold, per the multisig accumulation law.
func (u *MultisigUnlocker) Unlock(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	script := u.Config.Serialize()
	placeholderLen := u.placeholderLen()

	lock, err := firstGroupWitnessLock(tx, group)
	if err != nil {
		return tx, err
	}
	if len(lock) != placeholderLen {
		return tx, txerrors.Other("multisig witness has length %d, want %d", len(lock), placeholderLen)
	}

	var keyID [20]byte
	found := false
	for _, h := range u.Config.PubkeyHashes {
		if u.Signer.Match(h) {
			keyID = h
			found = true
			break
		}
	}
	if !found {
		return tx, txerrors.ErrScriptSignError
	}

	zeroed := make([]byte, placeholderLen)
	copy(zeroed, script)
	gw, err := buildGroupWitnesses(tx, group, zeroed)
	if err != nil {
		return tx, err
	}
	digest := crypto.SigningDigest(crypto.DigestBlake2b, gw)
	sig, err := u.Signer.Sign(keyID, digest, &tx)
	if err != nil {
		return tx, txerrors.ErrScriptSignError
	}

	newLock := append([]byte(nil), lock...)
	sigs := newLock[len(script):]
	slot := -1
	for i := 0; i < int(u.Config.Threshold); i++ {
		if allZero(sigs[i*sighashSignatureLen : (i+1)*sighashSignatureLen]) {
			slot = i
			break
		}
	}
	if slot == -1 {
		return tx, txerrors.Other("multisig witness already fully signed")
	}
	copy(sigs[slot*sighashSignatureLen:(slot+1)*sighashSignatureLen], sig[:])

	out := tx.Clone()
	wa, err := types.ParseWitnessArgs(out.Witnesses[group.InputIndices[0]])
	if err != nil {
		return tx, txerrors.Other("malformed witness: %v", err)
	}
	wa.Lock = newLock
	out.Witnesses[group.InputIndices[0]] = wa.Serialize()
	return out, nil
}

var _ Unlocker = (*MultisigUnlocker)(nil)
