package types

import "encoding/binary"

// OutPoint references a cell by the transaction that created it and the
// output index within that transaction.
type OutPoint struct {
	TxHash Hash
	Index  uint32
}

// Serialize molecule-encodes the out point as tx_hash(32) || index(4 LE).
func (o OutPoint) Serialize() []byte {
	buf := make([]byte, 36)
	copy(buf[:32], o.TxHash[:])
	binary.LittleEndian.PutUint32(buf[32:], o.Index)
	return buf
}

// DepType distinguishes a direct code cell-dep from a dep-group (a cell
// whose data is itself a list of OutPoints to merge in).
type DepType uint8

const (
	DepTypeCode DepType = iota
	DepTypeDepGroup
)

// CellDep is an auxiliary cell a transaction depends on, typically
// supplying script bytecode or reference data.
type CellDep struct {
	OutPoint OutPoint
	DepType  DepType
}

// Serialize molecule-encodes the cell dep as out_point(36) || dep_type(1).
func (d CellDep) Serialize() []byte {
	buf := make([]byte, 0, 37)
	buf = append(buf, d.OutPoint.Serialize()...)
	buf = append(buf, byte(d.DepType))
	return buf
}

// CellInput consumes the cell at PreviousOutput, subject to the maturity
// rule encoded in Since.
type CellInput struct {
	Since          Since
	PreviousOutput OutPoint
}

// Serialize molecule-encodes the cell input as since(8 LE) || previous_output(36).
func (i CellInput) Serialize() []byte {
	buf := make([]byte, 8, 8+36)
	binary.LittleEndian.PutUint64(buf, uint64(i.Since))
	buf = append(buf, i.PreviousOutput.Serialize()...)
	return buf
}
