package types

import (
	"bytes"
	"encoding/binary"

	"github.com/nervosnetwork/ckb-sdk-go/v2/crypto/blake2b"
)

// ScriptId identifies a deployed on-chain script by its code hash and hash
// type. It is the stable key used to look up cell-deps and registered
// unlockers: two scripts with the same ScriptId run identical code.
type ScriptId struct {
	CodeHash Hash
	HashType HashType
}

// Script is an on-chain predicate: code identified by (CodeHash, HashType),
// parameterized by opaque Args. The framework never interprets Args itself;
// specific signers/unlockers parse them.
type Script struct {
	CodeHash Hash
	HashType HashType
	Args     []byte
}

// Id returns the ScriptId of s, discarding its Args.
func (s Script) Id() ScriptId {
	return ScriptId{CodeHash: s.CodeHash, HashType: s.HashType}
}

// Equal reports whether two scripts are identical, including Args.
func (s Script) Equal(o Script) bool {
	return s.CodeHash == o.CodeHash && s.HashType == o.HashType && bytes.Equal(s.Args, o.Args)
}

// Serialize molecule-encodes the script as code_hash(32) || hash_type(1) ||
// args_len(4 LE) || args.
func (s Script) Serialize() []byte {
	buf := make([]byte, 0, 32+1+4+len(s.Args))
	buf = append(buf, s.CodeHash[:]...)
	buf = append(buf, s.HashType.Byte())
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s.Args)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, s.Args...)
	return buf
}

// Hash returns the personalized blake2b-256 script hash used as a lock/type
// identity elsewhere in the protocol (e.g. cheque lock-hash prefixes, ACP
// type-hash pairing, omni-lock OwnerLock auth).
func (s Script) Hash() Hash {
	var h Hash
	copy(h[:], blake2b.Blake256(s.Serialize()))
	return h
}
