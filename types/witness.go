package types

import "encoding/binary"

// WitnessArgs is the standard molecule table carried in each witness slot:
// three optional byte-strings used by the lock script, the input type
// script, and the output type script respectively. Fixed-length placeholder
// witnesses reserve space for a signature before it is computed so that fee
// estimation sees the true serialized size.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

// Serialize molecule-encodes the witness args table as three length-
// prefixed optional byte-strings concatenated in field order, each
// preceded by a presence flag so a nil field round-trips distinctly from an
// empty one.
func (w WitnessArgs) Serialize() []byte {
	var buf []byte
	buf = appendOptionalBytes(buf, w.Lock)
	buf = appendOptionalBytes(buf, w.InputType)
	buf = appendOptionalBytes(buf, w.OutputType)
	return buf
}

func appendOptionalBytes(buf []byte, field []byte) []byte {
	if field == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(field)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, field...)
	return buf
}

// ParseWitnessArgs decodes bytes previously produced by Serialize. It
// returns an error if the encoding is truncated or malformed, matching the
// "malformed witness" failure mode the cheque unlocker depends on.
func ParseWitnessArgs(data []byte) (WitnessArgs, error) {
	var w WitnessArgs
	var err error
	data, w.Lock, err = readOptionalBytes(data)
	if err != nil {
		return WitnessArgs{}, err
	}
	data, w.InputType, err = readOptionalBytes(data)
	if err != nil {
		return WitnessArgs{}, err
	}
	_, w.OutputType, err = readOptionalBytes(data)
	if err != nil {
		return WitnessArgs{}, err
	}
	return w, nil
}

func readOptionalBytes(data []byte) (rest []byte, field []byte, err error) {
	if len(data) < 1 {
		return nil, nil, errShortWitness
	}
	present := data[0]
	data = data[1:]
	if present == 0 {
		return data, nil, nil
	}
	if len(data) < 4 {
		return nil, nil, errShortWitness
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, errShortWitness
	}
	field = make([]byte, n)
	copy(field, data[:n])
	return data[n:], field, nil
}
