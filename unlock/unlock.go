// Package unlock implements the script unlocker framework: a registry of
// per-script signing/validation strategies and the orchestrator that walks
// a transaction's script groups, filling in witnesses until every group is
// either satisfied or reported back as still locked.
package unlock

import (
	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// sighashSignatureLen is the byte length of a recoverable secp256k1
// signature, the unit the sighash, multisig and ACP-fallback unlockers
// size their placeholder witnesses in.
const sighashSignatureLen = 65

// Unlocker implements one script's signing/validation strategy.
type Unlocker interface {
	// MatchArgs reports whether args has the shape this unlocker expects
	// (a lightweight sanity check, not full validation).
	MatchArgs(args []byte) bool

	// Defer reports whether this group must be processed after every
	// non-deferred group, because its completeness depends on another
	// group already having been unlocked (omni-lock OwnerLock, cheque).
	Defer(args []byte) bool

	// IsUnlocked reports whether the group's witness is already complete
	// and valid. It never mutates tx.
	IsUnlocked(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (bool, error)

	// Unlock returns a transaction with the group's witness filled in.
	Unlock(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (types.Transaction, error)
}

// Registry maps a script identity to the unlocker that knows how to
// satisfy it.
type Registry struct {
	byScriptId map[types.ScriptId]Unlocker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byScriptId: make(map[types.ScriptId]Unlocker)}
}

// Register installs u as the unlocker for every script identified by id.
func (r *Registry) Register(id types.ScriptId, u Unlocker) {
	r.byScriptId[id] = u
}

func (r *Registry) lookup(id types.ScriptId) (Unlocker, bool) {
	u, ok := r.byScriptId[id]
	return u, ok
}

// UnlockTx partitions tx's inputs into lock-script groups and, for each
// one with a matching registered unlocker, fills its witness unless it is
// already satisfied. Groups with no matching unlocker are returned in
// stillLocked rather than raised as an error, so callers can drive a
// multi-key staged signing flow by calling UnlockTx again with a
// different signer.
func UnlockTx(tx types.Transaction, dep providers.TransactionDependencyProvider, reg *Registry) (types.Transaction, []types.ScriptGroup, error) {
	lockOf := func(op types.OutPoint) (types.Script, error) {
		cell, err := dep.GetCell(op)
		if err != nil {
			return types.Script{}, err
		}
		return cell.Lock, nil
	}
	groups, err := types.GroupScriptsByLock(tx, lockOf)
	if err != nil {
		return tx, nil, err
	}

	var immediate, deferred, stillLocked []types.ScriptGroup
	for _, g := range groups {
		u, ok := reg.lookup(g.Script.Id())
		if !ok || !u.MatchArgs(g.Script.Args) {
			stillLocked = append(stillLocked, g)
			continue
		}
		if u.Defer(g.Script.Args) {
			deferred = append(deferred, g)
		} else {
			immediate = append(immediate, g)
		}
	}

	cur := tx
	process := func(list []types.ScriptGroup) error {
		for _, g := range list {
			u, _ := reg.lookup(g.Script.Id())
			unlocked, err := u.IsUnlocked(cur, g, dep)
			if err != nil {
				return err
			}
			if unlocked {
				continue
			}
			next, err := u.Unlock(cur, g, dep)
			if err != nil {
				return err
			}
			cur = next
			unlocked, err = u.IsUnlocked(cur, g, dep)
			if err != nil {
				return err
			}
			if !unlocked {
				stillLocked = append(stillLocked, g)
			}
		}
		return nil
	}

	if err := process(immediate); err != nil {
		return tx, nil, err
	}
	if err := process(deferred); err != nil {
		return tx, nil, err
	}
	return cur, stillLocked, nil
}

// buildGroupWitnesses assembles the signing-digest preimage pieces for
// group, zeroing its first witness's lock field to placeholder (the
// exact-length stand-in for the signature about to be computed).
func buildGroupWitnesses(tx types.Transaction, group types.ScriptGroup, placeholderLock []byte) (crypto.GroupWitnesses, error) {
	if len(group.InputIndices) == 0 {
		return crypto.GroupWitnesses{}, txerrors.ErrInvalidInput
	}
	firstIdx := group.InputIndices[0]
	if firstIdx >= len(tx.Witnesses) {
		return crypto.GroupWitnesses{}, txerrors.Other("input %d has no witness slot", firstIdx)
	}
	wa, err := types.ParseWitnessArgs(tx.Witnesses[firstIdx])
	if err != nil {
		return crypto.GroupWitnesses{}, txerrors.Other("malformed witness: %v", err)
	}
	wa.Lock = placeholderLock
	firstZeroed := wa.Serialize()

	var rest [][]byte
	for _, idx := range group.InputIndices[1:] {
		rest = append(rest, tx.Witnesses[idx])
	}

	var nonGroup [][]byte
	for i := len(tx.Inputs); i < len(tx.Witnesses); i++ {
		nonGroup = append(nonGroup, tx.Witnesses[i])
	}

	txHash := tx.Hash()
	return crypto.GroupWitnesses{
		TxHash:             [32]byte(txHash),
		FirstWitnessZeroed: firstZeroed,
		RestGroupWitnesses: rest,
		NonGroupWitnesses:  nonGroup,
	}, nil
}

// signWithPlaceholder signs group's digest under domain with keyID,
// writing the raw signature into the first witness's lock field. It
// covers the identities whose final lock content IS the bare signature:
// sighash and ACP's fallback path. Omni-lock's PubkeyHash/Ethereum flags
// wrap their signature in a WitnessLock and go through signOmniSimple.
func signWithPlaceholder(signer providers.Signer, domain crypto.DigestDomain, tx types.Transaction, group types.ScriptGroup, keyID [20]byte, placeholderLen int) (types.Transaction, error) {
	gw, err := buildGroupWitnesses(tx, group, make([]byte, placeholderLen))
	if err != nil {
		return tx, err
	}
	digest := crypto.SigningDigest(domain, gw)
	sig, err := signer.Sign(keyID, digest, &tx)
	if err != nil {
		return tx, txerrors.ErrScriptSignError
	}
	if len(sig) != placeholderLen {
		return tx, txerrors.Other("signer returned %d-byte signature, want %d", len(sig), placeholderLen)
	}
	out := tx.Clone()
	wa, err := types.ParseWitnessArgs(out.Witnesses[group.InputIndices[0]])
	if err != nil {
		return tx, txerrors.Other("malformed witness: %v", err)
	}
	wa.Lock = sig[:]
	out.Witnesses[group.InputIndices[0]] = wa.Serialize()
	return out, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func firstGroupWitnessLock(tx types.Transaction, group types.ScriptGroup) ([]byte, error) {
	if len(group.InputIndices) == 0 || group.InputIndices[0] >= len(tx.Witnesses) {
		return nil, txerrors.ErrInvalidInput
	}
	wa, err := types.ParseWitnessArgs(tx.Witnesses[group.InputIndices[0]])
	if err != nil {
		return nil, nil
	}
	return wa.Lock, nil
}
