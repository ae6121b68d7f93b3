// Package signer implements the key-backed half of unlocking: turning a
// signing digest and a 20-byte identity into a recoverable signature, the
// one capability unlockers borrow from whoever holds the private key.
package signer

import (
	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// SecpCkbRawKeySigner is an in-memory providers.Signer backed by a fixed
// set of raw secp256k1 private keys, keyed by the blake160 pubkey hash
// they sign for. It is the reference signer used by tests and by any
// caller willing to hold key material in process.
type SecpCkbRawKeySigner struct {
	byPubkeyHash map[[20]byte]*crypto.PrivateKey
	byEthAddr    map[[20]byte]*crypto.PrivateKey
}

// NewSecpCkbRawKeySigner builds a signer over the given raw secret keys,
// indexing each one under both its blake160 pubkey hash (for PubkeyHash /
// sighash / multisig identities) and its Ethereum auth address (for the
// omni-lock Ethereum identity).
func NewSecpCkbRawKeySigner(keys ...*crypto.PrivateKey) *SecpCkbRawKeySigner {
	s := &SecpCkbRawKeySigner{
		byPubkeyHash: make(map[[20]byte]*crypto.PrivateKey),
		byEthAddr:    make(map[[20]byte]*crypto.PrivateKey),
	}
	for _, k := range keys {
		s.byPubkeyHash[crypto.Blake160(k.PubKeyCompressed())] = k
		s.byEthAddr[k.EthereumAuth()] = k
	}
	return s
}

func (s *SecpCkbRawKeySigner) Match(keyID [20]byte) bool {
	if _, ok := s.byPubkeyHash[keyID]; ok {
		return true
	}
	_, ok := s.byEthAddr[keyID]
	return ok
}

// Sign produces a 65-byte recoverable signature over message for keyID. It
// prefers a blake160-indexed key (the PubkeyHash/multisig identity) and
// falls back to the Ethereum-address index, since the two never collide in
// practice but a caller only knows one 20-byte auth value. The transaction
// is accepted for contract compatibility with external signers that
// inspect what they sign; holding the raw key in process, this signer has
// nothing to inspect and ignores it.
func (s *SecpCkbRawKeySigner) Sign(keyID [20]byte, message [32]byte, tx *types.Transaction) ([65]byte, error) {
	if key, ok := s.byPubkeyHash[keyID]; ok {
		return key.SignRecoverable(message)
	}
	if key, ok := s.byEthAddr[keyID]; ok {
		return key.SignRecoverable(message)
	}
	return [65]byte{}, txerrors.ErrScriptSignError
}

var _ providers.Signer = (*SecpCkbRawKeySigner)(nil)
