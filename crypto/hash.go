// Package crypto implements the signing-digest construction and the
// secp256k1/blake2b/keccak primitives the signer strategies build on.
package crypto

import (
	"encoding/binary"

	"github.com/nervosnetwork/ckb-sdk-go/v2/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// DigestDomain selects the hash function used to derive a signing digest:
// every identity uses blake2b-256 except the Ethereum-style one, which
// substitutes keccak-256 over the same preimage.
type DigestDomain uint8

const (
	DigestBlake2b DigestDomain = iota
	DigestKeccak256
)

// Blake160 returns the first 20 bytes of the personalized blake2b-256 hash
// of data, the standard CKB "hash160"-equivalent used for pubkey-hash
// style auth.
func Blake160(data []byte) [20]byte {
	var out [20]byte
	copy(out[:], blake2b.Blake256(data)[:20])
	return out
}

// Digest hashes data under the given domain. The blake2b domain carries the
// ckb-default-hash personalization tag; a plain unpersonalized blake2b-256
// would not verify against on-chain scripts.
func Digest(domain DigestDomain, data []byte) [32]byte {
	var out [32]byte
	switch domain {
	case DigestKeccak256:
		h := sha3.NewLegacyKeccak256()
		h.Write(data)
		copy(out[:], h.Sum(nil))
	default:
		copy(out[:], blake2b.Blake256(data))
	}
	return out
}

// GroupWitnesses are the pieces of a signing-digest preimage that come from
// one script group's witnesses:
//
//	H = HASH(tx_hash || u64_le(total_group_witnesses_length) ||
//	         first_group_witness_with_lock_zeroed ||
//	         subsequent_group_witnesses_length_prefixed ||
//	         non_group_witnesses_length_prefixed)
type GroupWitnesses struct {
	TxHash              [32]byte
	FirstWitnessZeroed  []byte
	RestGroupWitnesses  [][]byte
	NonGroupWitnesses   [][]byte
}

// SigningDigest computes the signing digest for one script group under the
// given domain. The caller is responsible for having already zeroed the
// lock field of the group's first witness (see WithZeroedLock); this
// function never mutates anything, it only hashes.
func SigningDigest(domain DigestDomain, gw GroupWitnesses) [32]byte {
	total := len(gw.FirstWitnessZeroed)
	for _, w := range gw.RestGroupWitnesses {
		total += len(w)
	}

	var preimage []byte
	preimage = append(preimage, gw.TxHash[:]...)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(total))
	preimage = append(preimage, lenBuf[:]...)
	preimage = append(preimage, gw.FirstWitnessZeroed...)
	for _, w := range gw.RestGroupWitnesses {
		preimage = appendLenPrefixed(preimage, w)
	}
	for _, w := range gw.NonGroupWitnesses {
		preimage = appendLenPrefixed(preimage, w)
	}
	return Digest(domain, preimage)
}

func appendLenPrefixed(buf, data []byte) []byte {
	var l [8]byte
	binary.LittleEndian.PutUint64(l[:], uint64(len(data)))
	buf = append(buf, l[:]...)
	return append(buf, data...)
}
