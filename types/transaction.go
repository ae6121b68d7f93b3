package types

import (
	"encoding/binary"

	"github.com/nervosnetwork/ckb-sdk-go/v2/crypto/blake2b"
)

// Transaction is the core unit being constructed by the pipeline. It is
// treated as immutable by convention: every pipeline stage produces a new
// value rather than mutating one in place (see Clone).
type Transaction struct {
	Version     uint32
	CellDeps    []CellDep
	HeaderDeps  []Hash
	Inputs      []CellInput
	Outputs     []CellOutput
	OutputsData [][]byte
	Witnesses   [][]byte
}

// Clone returns a deep copy of tx, so that pipeline stages never alias a
// caller's slices.
func (tx Transaction) Clone() Transaction {
	out := Transaction{
		Version:     tx.Version,
		CellDeps:    append([]CellDep(nil), tx.CellDeps...),
		HeaderDeps:  append([]Hash(nil), tx.HeaderDeps...),
		Inputs:      append([]CellInput(nil), tx.Inputs...),
		Outputs:     append([]CellOutput(nil), tx.Outputs...),
		OutputsData: make([][]byte, len(tx.OutputsData)),
		Witnesses:   make([][]byte, len(tx.Witnesses)),
	}
	for i, d := range tx.OutputsData {
		out.OutputsData[i] = append([]byte(nil), d...)
	}
	for i, w := range tx.Witnesses {
		out.Witnesses[i] = append([]byte(nil), w...)
	}
	return out
}

// serializeNoWitnesses molecule-encodes every field except Witnesses; this
// is the basis for the transaction hash, which signatures never cover
// (signatures live in the witnesses).
func (tx Transaction) serializeNoWitnesses() []byte {
	var buf []byte
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], tx.Version)
	buf = append(buf, v[:]...)
	for _, d := range tx.CellDeps {
		buf = append(buf, d.Serialize()...)
	}
	for _, h := range tx.HeaderDeps {
		buf = append(buf, h[:]...)
	}
	for _, in := range tx.Inputs {
		buf = append(buf, in.Serialize()...)
	}
	for _, out := range tx.Outputs {
		buf = append(buf, out.Serialize()...)
	}
	for _, d := range tx.OutputsData {
		buf = appendLenPrefixed(buf, d)
	}
	return buf
}

// Hash returns the transaction id: personalized blake2b-256 over every
// field except the witnesses, which signatures never cover.
func (tx Transaction) Hash() Hash {
	var h Hash
	copy(h[:], blake2b.Blake256(tx.serializeNoWitnesses()))
	return h
}

func appendLenPrefixed(buf, data []byte) []byte {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(data)))
	buf = append(buf, l[:]...)
	return append(buf, data...)
}

// SerializedSize returns the byte length of tx including its witnesses,
// used by the capacity balancer to compute the fee owed at a given rate.
// fill_placeholder_witnesses must run first so this reflects true
// signature-bearing sizes.
func (tx Transaction) SerializedSize() uint64 {
	size := len(tx.serializeNoWitnesses())
	for _, w := range tx.Witnesses {
		size += 4 + len(w)
	}
	return uint64(size)
}

// InputCapacity sums the capacity of every input, given a lookup from
// OutPoint to the CellOutput it refers to. Callers typically supply this
// via a TransactionDependencyProvider.
func (tx Transaction) InputCapacity(lookup func(OutPoint) (CellOutput, error)) (uint64, error) {
	var total uint64
	for _, in := range tx.Inputs {
		out, err := lookup(in.PreviousOutput)
		if err != nil {
			return 0, err
		}
		total += out.Capacity
	}
	return total, nil
}

// OutputCapacity sums the capacity of every declared output.
func (tx Transaction) OutputCapacity() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Capacity
	}
	return total
}

// ScriptGroup is the set of input (and, for type scripts, output) indices
// that share a single lock or type script identity. Unlockers operate on
// one group at a time.
type ScriptGroup struct {
	Script        Script
	IsType        bool
	InputIndices  []int
	OutputIndices []int
}

// GroupScriptsByLock partitions tx's inputs into ScriptGroups keyed by lock
// script identity (including Args), in ascending first-input-index order.
func GroupScriptsByLock(tx Transaction, lockOf func(OutPoint) (Script, error)) ([]ScriptGroup, error) {
	var groups []ScriptGroup
	index := map[string]int{}
	for i, in := range tx.Inputs {
		lock, err := lockOf(in.PreviousOutput)
		if err != nil {
			return nil, err
		}
		key := string(lock.Serialize())
		if gi, ok := index[key]; ok {
			groups[gi].InputIndices = append(groups[gi].InputIndices, i)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, ScriptGroup{Script: lock, InputIndices: []int{i}})
	}
	return groups, nil
}

// GroupScriptsByType partitions tx's inputs and outputs into ScriptGroups
// keyed by type script identity, skipping cells with no type script.
func GroupScriptsByType(tx Transaction, typeOfInput func(OutPoint) (*Script, error)) ([]ScriptGroup, error) {
	var groups []ScriptGroup
	index := map[string]int{}

	order := func(script Script) int {
		key := string(script.Serialize())
		if gi, ok := index[key]; ok {
			return gi
		}
		index[key] = len(groups)
		groups = append(groups, ScriptGroup{Script: script, IsType: true})
		return len(groups) - 1
	}

	for i, in := range tx.Inputs {
		typ, err := typeOfInput(in.PreviousOutput)
		if err != nil {
			return nil, err
		}
		if typ == nil {
			continue
		}
		gi := order(*typ)
		groups[gi].InputIndices = append(groups[gi].InputIndices, i)
	}
	for i, out := range tx.Outputs {
		if out.Type == nil {
			continue
		}
		gi := order(*out.Type)
		groups[gi].OutputIndices = append(groups[gi].OutputIndices, i)
	}
	return groups, nil
}
