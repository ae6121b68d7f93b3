package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// PrivateKey wraps a secp256k1 secret scalar.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// NewPrivateKeyFromBytes parses a 32-byte secret key.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("crypto: secret key must be 32 bytes, got %d", len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
}

// PubKeyCompressed returns the 33-byte compressed public key.
func (k *PrivateKey) PubKeyCompressed() []byte {
	return k.key.PubKey().SerializeCompressed()
}

// PubKeyUncompressed returns the 65-byte uncompressed public key
// (0x04 || X || Y), used to derive the Ethereum-style auth hash.
func (k *PrivateKey) PubKeyUncompressed() []byte {
	return k.key.PubKey().SerializeUncompressed()
}

// SignRecoverable produces a 65-byte [R(32) || S(32) || V(1)] recoverable
// signature over a 32-byte digest, the layout used by both the PubkeyHash
// and Ethereum omni-lock identity flags and by plain sighash/multisig/ACP.
func (k *PrivateKey) SignRecoverable(digest [32]byte) ([65]byte, error) {
	sig := ecdsa.SignCompact(k.key, digest[:], false)
	// SignCompact returns [V(1) || R(32) || S(32)] with V in {27,28,29,30};
	// the wire layout here is [R || S || V] with V in {0,1,2,3}.
	var out [65]byte
	copy(out[0:32], sig[1:33])
	copy(out[32:64], sig[33:65])
	out[64] = sig[0] - 27
	return out, nil
}

// EthereumAuth returns the 20-byte auth value CKB's omni-lock Ethereum
// identity flag stores: the low 20 bytes of keccak256 over the
// uncompressed public key with its leading 0x04 prefix stripped.
func (k *PrivateKey) EthereumAuth() [20]byte {
	uncompressed := k.PubKeyUncompressed()
	digest := Digest(DigestKeccak256, uncompressed[1:])
	var out [20]byte
	copy(out[:], digest[12:])
	return out
}

// RecoverPubKey recovers the compressed public key that produced sig over
// digest, used to verify who signed each multisig slot.
func RecoverPubKey(sig [65]byte, digest [32]byte) ([]byte, error) {
	var compact [65]byte
	compact[0] = sig[64] + 27
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])
	pub, _, err := ecdsa.RecoverCompact(compact[:], digest[:])
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}
