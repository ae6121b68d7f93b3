package omnilock

import (
	"bytes"
	"testing"

	"github.com/ckb-go/txcore/types"
)

func TestBuildArgsAndParseArgsRoundTrip(t *testing.T) {
	cfg := Config{Flag: IdentityPubkeyHash, AuthPayload: [20]byte{1, 2, 3}}
	args := cfg.BuildArgs()
	if len(args) != 22 {
		t.Fatalf("expected 22-byte args with no admin config, got %d", len(args))
	}

	flag, auth, hasAdmin, _, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if flag != IdentityPubkeyHash {
		t.Fatalf("flag = %v, want IdentityPubkeyHash", flag)
	}
	if auth != cfg.AuthPayload {
		t.Fatal("auth payload did not round-trip")
	}
	if hasAdmin {
		t.Fatal("expected no admin bit set")
	}
}

func TestBuildArgsWithAdminIncludesRoot(t *testing.T) {
	cfg := Config{
		Flag:        IdentityEthereum,
		AuthPayload: [20]byte{9},
		AdminCfg:    &AdminConfig{RcRoot: [32]byte{7, 7, 7}},
	}
	args := cfg.BuildArgs()
	if len(args) != 22+32 {
		t.Fatalf("expected 54-byte args with admin config, got %d", len(args))
	}

	flag, auth, hasAdmin, root, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if flag != IdentityEthereum || auth != cfg.AuthPayload {
		t.Fatal("flag/auth did not round-trip")
	}
	if !hasAdmin {
		t.Fatal("expected admin bit set")
	}
	if root != cfg.AdminCfg.RcRoot {
		t.Fatal("admin root did not round-trip")
	}
}

func TestParseArgsRejectsShortInput(t *testing.T) {
	if _, _, _, _, err := ParseArgs(make([]byte, 10)); err == nil {
		t.Fatal("expected error for args shorter than the minimum layout")
	}
	// Admin bit set but root truncated: flag(1) || auth(20) || mode(1) ||
	// 10 of the required 32 root bytes.
	short := append([]byte{byte(IdentityPubkeyHash)}, make([]byte, 20)...)
	short = append(short, modeAdminBit)
	short = append(short, make([]byte, 10)...)
	if _, _, _, _, err := ParseArgs(short); err == nil {
		t.Fatal("expected error for truncated admin root")
	}
}

func TestWitnessLockSerializeRoundTrip(t *testing.T) {
	wl := WitnessLock{Signature: make([]byte, 65), Proof: []byte{1, 2, 3}}
	data := wl.Serialize()

	got, err := ParseWitnessLock(data)
	if err != nil {
		t.Fatalf("ParseWitnessLock: %v", err)
	}
	if !bytes.Equal(got.Signature, wl.Signature) {
		t.Fatal("signature field did not round-trip")
	}
	if !bytes.Equal(got.Proof, wl.Proof) {
		t.Fatal("proof field did not round-trip")
	}
	if got.Identity != nil {
		t.Fatal("unset identity field must round-trip as nil")
	}
}

func TestPlaceholderWitnessSizedPerIdentityFlag(t *testing.T) {
	simple := Config{Flag: IdentityPubkeyHash, AuthPayload: [20]byte{1}}
	wa, err := simple.PlaceholderWitness()
	if err != nil {
		t.Fatalf("PlaceholderWitness: %v", err)
	}
	wl, err := ParseWitnessLock(wa.Lock)
	if err != nil {
		t.Fatalf("ParseWitnessLock: %v", err)
	}
	if len(wl.Signature) != sigPlaceholderLen {
		t.Fatalf("PubkeyHash signature area = %d, want %d", len(wl.Signature), sigPlaceholderLen)
	}

	owner := Config{Flag: IdentityOwnerLock, AuthPayload: [20]byte{2}}
	wa, err = owner.PlaceholderWitness()
	if err != nil {
		t.Fatalf("PlaceholderWitness: %v", err)
	}
	wl, err = ParseWitnessLock(wa.Lock)
	if err != nil {
		t.Fatalf("ParseWitnessLock: %v", err)
	}
	if len(wl.Signature) != 0 {
		t.Fatalf("OwnerLock signature area = %d, want 0", len(wl.Signature))
	}

	multisig := Config{
		Flag:        IdentityMultisig,
		AuthPayload: [20]byte{3},
		MultisigCfg: &types.MultisigConfig{Threshold: 2, PubkeyHashes: [][20]byte{{1}, {2}, {3}}},
	}
	wa, err = multisig.PlaceholderWitness()
	if err != nil {
		t.Fatalf("PlaceholderWitness: %v", err)
	}
	wl, err = ParseWitnessLock(wa.Lock)
	if err != nil {
		t.Fatalf("ParseWitnessLock: %v", err)
	}
	wantLen := len(multisig.MultisigCfg.Serialize()) + 2*sigPlaceholderLen
	if len(wl.Signature) != wantLen {
		t.Fatalf("Multisig signature area = %d, want %d", len(wl.Signature), wantLen)
	}
}

func TestPlaceholderWitnessIncludesAdminProof(t *testing.T) {
	cfg := Config{
		Flag:        IdentityPubkeyHash,
		AuthPayload: [20]byte{4},
		AdminCfg:    &AdminConfig{RcRoot: [32]byte{1}, SmtProof: []byte{0xde, 0xad}},
	}
	wa, err := cfg.PlaceholderWitness()
	if err != nil {
		t.Fatalf("PlaceholderWitness: %v", err)
	}
	wl, err := ParseWitnessLock(wa.Lock)
	if err != nil {
		t.Fatalf("ParseWitnessLock: %v", err)
	}
	if !bytes.Equal(wl.Proof, cfg.AdminCfg.SmtProof) {
		t.Fatal("expected the admin SMT proof to be embedded in the placeholder witness")
	}
}

func TestPlaceholderWitnessRejectsMultisigWithoutConfig(t *testing.T) {
	cfg := Config{Flag: IdentityMultisig, AuthPayload: [20]byte{5}}
	if _, err := cfg.PlaceholderWitness(); err == nil {
		t.Fatal("expected an error when the multisig identity has no MultisigCfg")
	}
}
