package types

import "encoding/binary"

// CellOutput is the value-bearing half of a cell: a capacity in shannons, a
// lock script that must be satisfied to spend it, and an optional type
// script that further constrains its data.
type CellOutput struct {
	Capacity uint64
	Lock     Script
	Type     *Script
}

// Serialize molecule-encodes the cell output for occupied-capacity and
// signing-digest purposes: capacity(8 LE) || lock || has_type(1) || type?.
func (c CellOutput) Serialize() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, c.Capacity)
	buf = append(buf, c.Lock.Serialize()...)
	if c.Type != nil {
		buf = append(buf, 1)
		buf = append(buf, c.Type.Serialize()...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// OccupiedCapacity returns the minimum capacity (in shannons) required to
// store this output together with dataLen bytes of cell data: 8 bytes for
// the capacity field itself, plus the serialized lock/type scripts, plus
// the data, all priced at 1 CKByte per byte (1 CKByte == 10^8 shannons, and
// 1 byte of on-chain storage costs 1 CKByte).
func (c CellOutput) OccupiedCapacity(dataLen int) uint64 {
	bytesUsed := 8 + len(c.Lock.Serialize()) + dataLen
	if c.Type != nil {
		bytesUsed += len(c.Type.Serialize())
	}
	return uint64(bytesUsed) * CkbytePerShannonUnit
}

// CkbytePerShannonUnit is the number of shannons that one byte of on-chain
// storage costs (1 CKByte == 10^8 shannons).
const CkbytePerShannonUnit uint64 = 100_000_000

// LiveCell is a cell currently unspent on-chain, as returned by a
// CellCollector.
type LiveCell struct {
	OutPoint    OutPoint
	Output      CellOutput
	OutputData  []byte
	BlockNumber uint64
	TxIndex     uint32
}
