package types

import "github.com/nervosnetwork/ckb-sdk-go/v2/crypto/blake2b"

// MultisigConfig is the CKB secp256k1 multisig script configuration: a
// threshold over an ordered list of pubkey hashes, with an optional
// "require first N" prefix whose signers must sign in list order.
//
// Invariant: 0 <= RequireFirstN <= Threshold <= len(PubkeyHashes) <= 255.
type MultisigConfig struct {
	RequireFirstN byte
	Threshold     byte
	PubkeyHashes  [][20]byte
}

// Valid reports whether the configuration satisfies its invariant.
func (c MultisigConfig) Valid() bool {
	n := len(c.PubkeyHashes)
	return n <= 255 &&
		int(c.RequireFirstN) <= int(c.Threshold) &&
		int(c.Threshold) <= n
}

// Serialize encodes the multisig script the standard way:
// version(1=0) || require_first_n(1) || threshold(1) || count(1) ||
// pubkey_hash_1 || ... || pubkey_hash_n.
func (c MultisigConfig) Serialize() []byte {
	buf := make([]byte, 0, 4+20*len(c.PubkeyHashes))
	buf = append(buf, 0, c.RequireFirstN, c.Threshold, byte(len(c.PubkeyHashes)))
	for _, h := range c.PubkeyHashes {
		buf = append(buf, h[:]...)
	}
	return buf
}

// Hash returns the blake160 (first 20 bytes of personalized blake2b-256)
// hash of the serialized multisig script, the value an unlocker's args
// field carries.
func (c MultisigConfig) Hash() [20]byte {
	var out [20]byte
	copy(out[:], blake2b.Blake256(c.Serialize())[:20])
	return out
}
