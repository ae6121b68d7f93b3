package unlock

import (
	"bytes"

	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/omnilock"
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// OmniLockUnlocker satisfies the omni-lock script across all five identity
// flags. Since an omni-lock script's args only ever carry a 20-byte auth
// digest (never the full multisig pubkey list or SMT proof), the unlocker
// is seeded ahead of time with the full omnilock.Config for every auth
// value it may be asked to handle.
type OmniLockUnlocker struct {
	Signer  providers.Signer
	Configs map[[20]byte]omnilock.Config
}

// NewOmniLockUnlocker returns an OmniLockUnlocker backed by signer, seeded
// with cfgs indexed by their AuthPayload.
func NewOmniLockUnlocker(signer providers.Signer, cfgs ...omnilock.Config) *OmniLockUnlocker {
	u := &OmniLockUnlocker{Signer: signer, Configs: make(map[[20]byte]omnilock.Config)}
	for _, c := range cfgs {
		u.Configs[c.AuthPayload] = c
	}
	return u
}

func (u *OmniLockUnlocker) MatchArgs(args []byte) bool {
	_, _, _, _, err := omnilock.ParseArgs(args)
	return err == nil
}

func (u *OmniLockUnlocker) Defer(args []byte) bool {
	flag, _, _, _, err := omnilock.ParseArgs(args)
	if err != nil {
		return false
	}
	return flag == omnilock.IdentityOwnerLock || flag == omnilock.IdentityOwnerLockType
}

func (u *OmniLockUnlocker) config(auth [20]byte) (omnilock.Config, error) {
	cfg, ok := u.Configs[auth]
	if !ok {
		return omnilock.Config{}, txerrors.Other("omnilock: no configuration registered for auth %x", auth)
	}
	return cfg, nil
}

func (u *OmniLockUnlocker) IsUnlocked(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (bool, error) {
	flag, auth, _, _, err := omnilock.ParseArgs(group.Script.Args)
	if err != nil {
		return false, err
	}

	switch flag {
	case omnilock.IdentityOwnerLock, omnilock.IdentityOwnerLockType:
		for _, in := range tx.Inputs {
			cell, err := dep.GetCell(in.PreviousOutput)
			if err != nil {
				return false, txerrors.ErrTxDep
			}
			var candidate [20]byte
			switch flag {
			case omnilock.IdentityOwnerLock:
				h := cell.Lock.Hash()
				copy(candidate[:], h[:20])
			case omnilock.IdentityOwnerLockType:
				if cell.Type == nil {
					continue
				}
				h := cell.Type.Hash()
				copy(candidate[:], h[:20])
			}
			if candidate != auth {
				continue
			}
			idx := 0
			for i, x := range tx.Inputs {
				if x == in {
					idx = i
					break
				}
			}
			wa, err := types.ParseWitnessArgs(tx.Witnesses[idx])
			if err != nil || len(wa.Lock) == 0 {
				return false, nil
			}
			return true, nil
		}
		return false, nil
	case omnilock.IdentityMultisig:
		lock, err := firstGroupWitnessLock(tx, group)
		if err != nil {
			return false, err
		}
		wl, err := omnilock.ParseWitnessLock(lock)
		if err != nil {
			return false, nil
		}
		cfg, ok := u.Configs[auth]
		if !ok || cfg.MultisigCfg == nil {
			return false, nil
		}
		// The signature area is multisig_script || one slot per threshold
		// signer; the group is complete only once every slot is filled.
		script := cfg.MultisigCfg.Serialize()
		threshold := int(cfg.MultisigCfg.Threshold)
		if len(wl.Signature) != len(script)+threshold*sighashSignatureLen {
			return false, nil
		}
		sigs := wl.Signature[len(script):]
		for i := 0; i < threshold; i++ {
			if allZero(sigs[i*sighashSignatureLen : (i+1)*sighashSignatureLen]) {
				return false, nil
			}
		}
		return true, nil
	default:
		lock, err := firstGroupWitnessLock(tx, group)
		if err != nil {
			return false, err
		}
		wl, err := omnilock.ParseWitnessLock(lock)
		if err != nil {
			return false, nil
		}
		return len(wl.Signature) > 0 && !allZero(wl.Signature), nil
	}
}

func (u *OmniLockUnlocker) Unlock(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	flag, auth, _, _, err := omnilock.ParseArgs(group.Script.Args)
	if err != nil {
		return tx, err
	}
	if flag == omnilock.IdentityOwnerLock || flag == omnilock.IdentityOwnerLockType {
		return tx, txerrors.Other("omnilock: owner-lock groups unlock via their companion input, never directly")
	}

	cfg, err := u.config(auth)
	if err != nil {
		return tx, err
	}

	cur := tx
	if cfg.AdminCfg != nil {
		cur = addCellDepIfMissing(cur, cfg.AdminCfg.CellDep)
	}

	placeholder, err := cfg.PlaceholderWitness()
	if err != nil {
		return tx, err
	}

	switch flag {
	case omnilock.IdentityPubkeyHash:
		return signOmniSimple(u.Signer, crypto.DigestBlake2b, cur, group, auth, placeholder.Lock)
	case omnilock.IdentityEthereum:
		return signOmniSimple(u.Signer, crypto.DigestKeccak256, cur, group, auth, placeholder.Lock)
	case omnilock.IdentityMultisig:
		// The multisig signature area accumulates one signature per call
		// (see the sighash-multisig unlocker); read whatever the group's
		// witness already carries so an earlier signer's slot survives
		// this call, falling back to the zeroed placeholder on the very
		// first signing.
		current, err := firstGroupWitnessLock(cur, group)
		if err != nil {
			return tx, err
		}
		if len(current) != len(placeholder.Lock) {
			current = placeholder.Lock
		}
		return signOmniMultisig(u.Signer, cur, group, cfg, current, placeholder.Lock)
	default:
		return tx, txerrors.ErrInvalidInput
	}
}

func addCellDepIfMissing(tx types.Transaction, dep types.CellDep) types.Transaction {
	for _, d := range tx.CellDeps {
		if d == dep {
			return tx
		}
	}
	out := tx.Clone()
	out.CellDeps = append(out.CellDeps, dep)
	return out
}

// signOmniSimple handles the PubkeyHash and Ethereum flags, whose witness
// lock content is Signature(65B) plus whatever proof/identity bytes the
// placeholder already fixed.
func signOmniSimple(signer providers.Signer, domain crypto.DigestDomain, tx types.Transaction, group types.ScriptGroup, keyID [20]byte, placeholderLock []byte) (types.Transaction, error) {
	gw, err := buildGroupWitnesses(tx, group, placeholderLock)
	if err != nil {
		return tx, err
	}
	digest := crypto.SigningDigest(domain, gw)
	sig, err := signer.Sign(keyID, digest, &tx)
	if err != nil {
		return tx, txerrors.ErrScriptSignError
	}
	wl, err := omnilock.ParseWitnessLock(placeholderLock)
	if err != nil {
		return tx, err
	}
	wl.Signature = sig[:]
	out := tx.Clone()
	wa, err := types.ParseWitnessArgs(out.Witnesses[group.InputIndices[0]])
	if err != nil {
		return tx, txerrors.Other("malformed witness: %v", err)
	}
	wa.Lock = wl.Serialize()
	out.Witnesses[group.InputIndices[0]] = wa.Serialize()
	return out, nil
}

// signOmniMultisig handles the Multisig flag, whose signature area is
// itself multisig_script || sigs_concat, filled in one signer at a time.
// currentLock is the group's witness lock as it stands now (possibly
// already carrying earlier signers' slots); zeroedLock is the same shape
// with every signature slot zero, which is what the signing digest is
// always computed over regardless of how many slots are already filled,
// so every signer in the set derives the identical digest.
func signOmniMultisig(signer providers.Signer, tx types.Transaction, group types.ScriptGroup, cfg omnilock.Config, currentLock, zeroedLock []byte) (types.Transaction, error) {
	if cfg.MultisigCfg == nil {
		return tx, txerrors.Other("omnilock: multisig identity requires MultisigCfg")
	}
	wl, err := omnilock.ParseWitnessLock(currentLock)
	if err != nil {
		return tx, err
	}
	script := cfg.MultisigCfg.Serialize()
	threshold := int(cfg.MultisigCfg.Threshold)
	if len(wl.Signature) != len(script)+threshold*sighashSignatureLen {
		return tx, txerrors.Other("omnilock: multisig signature area has unexpected length")
	}

	var keyID [20]byte
	found := false
	for _, h := range cfg.MultisigCfg.PubkeyHashes {
		if signer.Match(h) {
			keyID = h
			found = true
			break
		}
	}
	if !found {
		return tx, txerrors.ErrScriptSignError
	}

	gw, err := buildGroupWitnesses(tx, group, zeroedLock)
	if err != nil {
		return tx, err
	}
	digest := crypto.SigningDigest(crypto.DigestBlake2b, gw)
	sig, err := signer.Sign(keyID, digest, &tx)
	if err != nil {
		return tx, txerrors.ErrScriptSignError
	}

	sigArea := append([]byte(nil), wl.Signature...)
	sigs := sigArea[len(script):]
	slot := -1
	for i := 0; i < threshold; i++ {
		if allZero(sigs[i*sighashSignatureLen : (i+1)*sighashSignatureLen]) {
			slot = i
			break
		}
	}
	if slot == -1 {
		return tx, txerrors.Other("omnilock: multisig signature area already full")
	}
	copy(sigs[slot*sighashSignatureLen:(slot+1)*sighashSignatureLen], sig[:])
	if !bytes.Equal(sigArea[:len(script)], script) {
		copy(sigArea[:len(script)], script)
	}
	wl.Signature = sigArea

	out := tx.Clone()
	wa, err := types.ParseWitnessArgs(out.Witnesses[group.InputIndices[0]])
	if err != nil {
		return tx, txerrors.Other("malformed witness: %v", err)
	}
	wa.Lock = wl.Serialize()
	out.Witnesses[group.InputIndices[0]] = wa.Serialize()
	return out, nil
}

var _ Unlocker = (*OmniLockUnlocker)(nil)
