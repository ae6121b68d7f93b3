// Package omnilock defines the omni-lock script's configuration surface:
// its multi-identity args layout, the fixed-shape witness-lock structure
// unlockers fill in, and the administrator SMT-whitelist proof path. The
// signing logic itself lives in the unlock package, which imports this one
// for the config types; omnilock never imports unlock.
package omnilock

import (
	"encoding/binary"

	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// IdentityFlag selects the verification algorithm an omni-lock cell uses.
type IdentityFlag byte

const (
	IdentityPubkeyHash IdentityFlag = iota
	IdentityEthereum
	IdentityMultisig
	IdentityOwnerLock
	IdentityOwnerLockType
)

// modeAdminBit is the bit of the args mode byte that signals an
// administrator whitelist proof is attached.
const modeAdminBit = 0x01

// sigPlaceholderLen is the byte length of one recoverable secp256k1
// signature, the unit omni-lock's PubkeyHash/Ethereum/Multisig flags size
// their signature area in.
const sigPlaceholderLen = 65

// AdminConfig is the whitelist proof an omni-lock cell with the admin bit
// set must carry: the cell script must verify the signing identity against
// a sparse-Merkle-tree-rooted allow/deny list.
type AdminConfig struct {
	RcRoot   [32]byte
	SmtProof []byte
	// CellDep supplies the rce (regulation compliance) cell the on-chain
	// script reads the list from; the unlocker adds it to the transaction
	// before signing.
	CellDep types.CellDep
}

// Config is one omni-lock cell's full configuration: the identity it
// authenticates as, plus any multisig/admin sub-configuration the flag
// requires. It is constructed by the caller (wallet/builder code), not
// parsed from args alone, because the admin SMT proof and multisig pubkey
// list are never encoded in args — only their 20/32-byte digests are.
type Config struct {
	Flag        IdentityFlag
	AuthPayload [20]byte
	MultisigCfg *types.MultisigConfig
	AdminCfg    *AdminConfig
}

// HasAdmin reports whether cfg carries an administrator whitelist proof.
func (cfg Config) HasAdmin() bool { return cfg.AdminCfg != nil }

func (cfg Config) modeByte() byte {
	var m byte
	if cfg.HasAdmin() {
		m |= modeAdminBit
	}
	return m
}

// BuildArgs encodes the script args per the omni-lock layout:
// flag_byte || auth(20B) || mode_byte || (admin_root(32B) if admin set).
func (cfg Config) BuildArgs() []byte {
	buf := make([]byte, 0, 1+20+1+32)
	buf = append(buf, byte(cfg.Flag))
	buf = append(buf, cfg.AuthPayload[:]...)
	buf = append(buf, cfg.modeByte())
	if cfg.AdminCfg != nil {
		buf = append(buf, cfg.AdminCfg.RcRoot[:]...)
	}
	return buf
}

// ParseArgs decodes an omni-lock script's args back into flag, auth payload
// and whether the admin bit is set (the admin root itself, if present, is
// the last 32 bytes).
func ParseArgs(args []byte) (flag IdentityFlag, auth [20]byte, hasAdmin bool, adminRoot [32]byte, err error) {
	if len(args) < 22 {
		return 0, auth, false, adminRoot, txerrors.ErrInvalidInput
	}
	flag = IdentityFlag(args[0])
	copy(auth[:], args[1:21])
	mode := args[21]
	hasAdmin = mode&modeAdminBit != 0
	if hasAdmin {
		if len(args) < 22+32 {
			return 0, auth, false, adminRoot, txerrors.ErrInvalidInput
		}
		copy(adminRoot[:], args[22:54])
	}
	return flag, auth, hasAdmin, adminRoot, nil
}

// WitnessLock is the fixed-shape structure omni-lock nests inside a
// WitnessArgs' lock field: a signature area sized per identity flag, plus
// an optional SMT proof and an optional alternate identity, each an
// optional molecule byte-string like WitnessArgs' own fields.
type WitnessLock struct {
	Signature []byte
	Proof     []byte // nil when no administrator proof is attached
	Identity  []byte // nil; reserved, never populated by this implementation
}

// Serialize molecule-encodes the witness lock as three optional
// byte-strings in field order, matching the WitnessArgs convention.
func (w WitnessLock) Serialize() []byte {
	var buf []byte
	buf = appendOptional(buf, w.Signature)
	buf = appendOptional(buf, w.Proof)
	buf = appendOptional(buf, w.Identity)
	return buf
}

// ParseWitnessLock decodes bytes produced by Serialize.
func ParseWitnessLock(data []byte) (WitnessLock, error) {
	var w WitnessLock
	var err error
	data, w.Signature, err = readOptional(data)
	if err != nil {
		return WitnessLock{}, err
	}
	data, w.Proof, err = readOptional(data)
	if err != nil {
		return WitnessLock{}, err
	}
	_, w.Identity, err = readOptional(data)
	if err != nil {
		return WitnessLock{}, err
	}
	return w, nil
}

func appendOptional(buf, field []byte) []byte {
	if field == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(field)))
	buf = append(buf, l[:]...)
	return append(buf, field...)
}

func readOptional(data []byte) (rest, field []byte, err error) {
	if len(data) < 1 {
		return nil, nil, txerrors.Other("omnilock: truncated witness lock")
	}
	present := data[0]
	data = data[1:]
	if present == 0 {
		return data, nil, nil
	}
	if len(data) < 4 {
		return nil, nil, txerrors.Other("omnilock: truncated witness lock length")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, txerrors.Other("omnilock: truncated witness lock field")
	}
	field = make([]byte, n)
	copy(field, data[:n])
	return data[n:], field, nil
}

// signatureAreaLen returns the byte length the Signature field occupies
// for cfg's identity flag, before any proof/identity fields.
func (cfg Config) signatureAreaLen() (int, error) {
	switch cfg.Flag {
	case IdentityPubkeyHash, IdentityEthereum:
		return sigPlaceholderLen, nil
	case IdentityMultisig:
		if cfg.MultisigCfg == nil {
			return 0, txerrors.Other("omnilock: multisig identity requires MultisigCfg")
		}
		return len(cfg.MultisigCfg.Serialize()) + int(cfg.MultisigCfg.Threshold)*sigPlaceholderLen, nil
	case IdentityOwnerLock, IdentityOwnerLockType:
		return 0, nil
	default:
		return 0, txerrors.ErrInvalidInput
	}
}

// PlaceholderWitness returns the WitnessArgs a balancer should reserve for
// a cell configured with cfg: a lock field sized exactly as large as the
// real signed witness will be, so fee estimation is accurate before
// signing happens.
func (cfg Config) PlaceholderWitness() (types.WitnessArgs, error) {
	sigLen, err := cfg.signatureAreaLen()
	if err != nil {
		return types.WitnessArgs{}, err
	}
	wl := WitnessLock{Signature: make([]byte, sigLen)}
	if cfg.AdminCfg != nil {
		wl.Proof = cfg.AdminCfg.SmtProof
	}
	return types.WitnessArgs{Lock: wl.Serialize()}, nil
}
