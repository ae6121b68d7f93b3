package unlock

import (
	"math/big"

	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// ACPUnlocker satisfies the Anyone-Can-Pay lock: a group whose outputs
// increase the paired input's capacity or UDT amount by at least the
// per-dimension minimum its args configure (zero when the args omit it)
// needs no signature at all; anything else falls back to plain
// sighash-style signing.
type ACPUnlocker struct {
	Signer providers.Signer
}

// NewACPUnlocker returns an ACPUnlocker backed by signer.
func NewACPUnlocker(signer providers.Signer) *ACPUnlocker {
	return &ACPUnlocker{Signer: signer}
}

func (u *ACPUnlocker) MatchArgs(args []byte) bool {
	return len(args) == 20 || len(args) == 21 || len(args) == 22
}

func (u *ACPUnlocker) Defer(args []byte) bool { return false }

// pow10Saturating returns 10^idx as a big.Int, saturating at the maximum
// value representable in bits bits rather than overflowing.
func pow10Saturating(idx byte, bits uint) *big.Int {
	v := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(idx)), nil)
	max := new(big.Int).Lsh(big.NewInt(1), bits)
	max.Sub(max, big.NewInt(1))
	if v.Cmp(max) > 0 {
		return max
	}
	return v
}

func acpThresholds(args []byte) (minCkb, minUdt *big.Int) {
	minCkb, minUdt = big.NewInt(0), big.NewInt(0)
	if len(args) >= 21 {
		minCkb = pow10Saturating(args[20], 64)
	}
	if len(args) == 22 {
		minUdt = pow10Saturating(args[21], 128)
	}
	return minCkb, minUdt
}

type acpCellView struct {
	typeKey string // "" means no type script
	ckb     *big.Int
	udt     *big.Int
}

func acpCellViewOf(output types.CellOutput, data []byte) acpCellView {
	v := acpCellView{ckb: new(big.Int).SetUint64(output.Capacity), udt: big.NewInt(0)}
	if output.Type != nil {
		v.typeKey = string(output.Type.Serialize())
		if len(data) >= 16 {
			v.udt = udtAmount(data)
		}
	}
	return v
}

func udtAmount(data []byte) *big.Int {
	v := new(big.Int)
	for i := 15; i >= 0; i-- {
		v.Lsh(v, 8)
		v.Or(v, big.NewInt(int64(data[i])))
	}
	return v
}

// IsUnlocked implements the ACP pairing law: every output in the group
// must pair with exactly one distinct input sharing its type script, with
// capacity or UDT amount increasing by at least the configured minimum and
// the other dimension left unchanged.
func (u *ACPUnlocker) IsUnlocked(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (bool, error) {
	minCkb, minUdt := acpThresholds(group.Script.Args)

	inputsByType := make(map[string][]int)
	for _, idx := range group.InputIndices {
		cell, err := dep.GetCell(tx.Inputs[idx].PreviousOutput)
		if err != nil {
			return false, txerrors.ErrTxDep
		}
		data, err := dep.GetCellData(tx.Inputs[idx].PreviousOutput)
		if err != nil {
			return false, txerrors.ErrTxDep
		}
		view := acpCellViewOf(cell, data)
		inputsByType[view.typeKey] = append(inputsByType[view.typeKey], idx)
	}

	used := make(map[int]bool)
	for _, outIdx := range group.OutputIndices {
		outView := acpCellViewOf(tx.Outputs[outIdx], tx.OutputsData[outIdx])
		candidates := inputsByType[outView.typeKey]
		var matchIdx = -1
		for _, ci := range candidates {
			if !used[ci] {
				if matchIdx != -1 {
					return false, nil // duplicate pairing candidate
				}
				matchIdx = ci
			}
		}
		if matchIdx == -1 {
			return false, nil
		}
		used[matchIdx] = true

		inCell, _ := dep.GetCell(tx.Inputs[matchIdx].PreviousOutput)
		inData, _ := dep.GetCellData(tx.Inputs[matchIdx].PreviousOutput)
		inView := acpCellViewOf(inCell, inData)

		ckbGrew := outView.ckb.Cmp(new(big.Int).Add(inView.ckb, minCkb)) >= 0
		udtGrew := outView.udt.Cmp(new(big.Int).Add(inView.udt, minUdt)) >= 0
		if !ckbGrew && !udtGrew {
			return false, nil
		}
		if !ckbGrew && outView.ckb.Cmp(inView.ckb) != 0 {
			return false, nil
		}
		if !udtGrew && outView.udt.Cmp(inView.udt) != 0 {
			return false, nil
		}
	}
	if len(used) != len(group.InputIndices) {
		return false, nil
	}
	return true, nil
}

// Unlock is reached only when IsUnlocked found the group's transfer
// invalid as an ACP top-up, so it falls back to ordinary sighash signing.
func (u *ACPUnlocker) Unlock(tx types.Transaction, group types.ScriptGroup, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	if len(group.Script.Args) < 20 {
		return tx, txerrors.ErrInvalidInput
	}
	var keyID [20]byte
	copy(keyID[:], group.Script.Args[:20])
	return signWithPlaceholder(u.Signer, crypto.DigestBlake2b, tx, group, keyID, sighashSignatureLen)
}

var _ Unlocker = (*ACPUnlocker)(nil)
