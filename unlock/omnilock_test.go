package unlock

import (
	"testing"

	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/omnilock"
	"github.com/ckb-go/txcore/providers/memory"
	"github.com/ckb-go/txcore/signer"
	"github.com/ckb-go/txcore/types"
)

func omniLockScript(args []byte) types.Script {
	return types.Script{CodeHash: types.Hash{0x09}, HashType: types.HashTypeType, Args: args}
}

func buildOmniFixture(t *testing.T, cfg omnilock.Config) (types.Transaction, *memory.TransactionDependencyProvider, types.ScriptGroup) {
	t.Helper()
	lock := omniLockScript(cfg.BuildArgs())
	in := types.OutPoint{TxHash: types.Hash{0xcc}, Index: 0}

	dep := memory.NewTransactionDependencyProvider()
	dep.AddCell(in, types.CellOutput{Capacity: 1000, Lock: lock}, nil)

	placeholder, err := cfg.PlaceholderWitness()
	if err != nil {
		t.Fatalf("PlaceholderWitness: %v", err)
	}
	tx := types.Transaction{
		Inputs:      []types.CellInput{{PreviousOutput: in}},
		Outputs:     []types.CellOutput{{Capacity: 500, Lock: lock}},
		OutputsData: [][]byte{nil},
		Witnesses:   [][]byte{placeholder.Serialize()},
	}
	group := types.ScriptGroup{Script: lock, InputIndices: []int{0}}
	return tx, dep, group
}

func TestOmniLockUnlockerPubkeyHashSignsAndBecomesUnlocked(t *testing.T) {
	key := testSecretKey(t, 50)
	auth := crypto.Blake160(key.PubKeyCompressed())
	cfg := omnilock.Config{Flag: omnilock.IdentityPubkeyHash, AuthPayload: auth}
	tx, dep, group := buildOmniFixture(t, cfg)

	s := signer.NewSecpCkbRawKeySigner(key)
	u := NewOmniLockUnlocker(s, cfg)

	unlocked, err := u.IsUnlocked(tx, group, dep)
	if err != nil {
		t.Fatalf("IsUnlocked: %v", err)
	}
	if unlocked {
		t.Fatal("fresh placeholder witness must not be reported unlocked")
	}

	signed, err := u.Unlock(tx, group, dep)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	unlocked, err = u.IsUnlocked(signed, group, dep)
	if err != nil {
		t.Fatalf("IsUnlocked after signing: %v", err)
	}
	if !unlocked {
		t.Fatal("expected group to be unlocked after signing")
	}
}

func TestOmniLockUnlockerEthereumFlagUsesKeccakDomain(t *testing.T) {
	key := testSecretKey(t, 51)
	auth := key.EthereumAuth()
	cfg := omnilock.Config{Flag: omnilock.IdentityEthereum, AuthPayload: auth}
	tx, dep, group := buildOmniFixture(t, cfg)

	s := signer.NewSecpCkbRawKeySigner(key)
	u := NewOmniLockUnlocker(s, cfg)

	signed, err := u.Unlock(tx, group, dep)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	unlocked, err := u.IsUnlocked(signed, group, dep)
	if err != nil {
		t.Fatalf("IsUnlocked: %v", err)
	}
	if !unlocked {
		t.Fatal("expected group to be unlocked after Ethereum-flag signing")
	}
}

func TestOmniLockUnlockerMultisigAccumulatesToThreshold(t *testing.T) {
	k1 := testSecretKey(t, 52)
	k2 := testSecretKey(t, 53)
	k3 := testSecretKey(t, 54)
	h1 := crypto.Blake160(k1.PubKeyCompressed())
	h2 := crypto.Blake160(k2.PubKeyCompressed())
	h3 := crypto.Blake160(k3.PubKeyCompressed())
	mcfg := types.MultisigConfig{Threshold: 2, PubkeyHashes: [][20]byte{h1, h2, h3}}

	cfg := omnilock.Config{
		Flag:        omnilock.IdentityMultisig,
		AuthPayload: crypto.Blake160(mcfg.Serialize()),
		MultisigCfg: &mcfg,
	}
	tx, dep, group := buildOmniFixture(t, cfg)

	s1 := signer.NewSecpCkbRawKeySigner(k1)
	u1 := NewOmniLockUnlocker(s1, cfg)

	tx, err := u1.Unlock(tx, group, dep)
	if err != nil {
		t.Fatalf("Unlock with first signer: %v", err)
	}
	unlocked, err := u1.IsUnlocked(tx, group, dep)
	if err != nil {
		t.Fatalf("IsUnlocked: %v", err)
	}
	if unlocked {
		t.Fatal("one of two required signatures must not satisfy threshold")
	}

	s2 := signer.NewSecpCkbRawKeySigner(k2)
	u2 := NewOmniLockUnlocker(s2, cfg)
	tx, err = u2.Unlock(tx, group, dep)
	if err != nil {
		t.Fatalf("Unlock with second signer: %v", err)
	}
	unlocked, err = u2.IsUnlocked(tx, group, dep)
	if err != nil {
		t.Fatalf("IsUnlocked: %v", err)
	}
	if !unlocked {
		t.Fatal("expected threshold reached after the second signature")
	}
}

func TestOmniLockUnlockerOwnerLockDefersAndUnlocksViaCompanionInput(t *testing.T) {
	key := testSecretKey(t, 55)
	pubkeyHash := crypto.Blake160(key.PubKeyCompressed())
	sighashLock := sighashLockScript(pubkeyHash)

	auth := sighashLock.Hash()
	var ownerAuth [20]byte
	copy(ownerAuth[:], auth[:20])
	ownerCfg := omnilock.Config{Flag: omnilock.IdentityOwnerLock, AuthPayload: ownerAuth}
	ownerLock := omniLockScript(ownerCfg.BuildArgs())

	ownerIn := types.OutPoint{TxHash: types.Hash{0xdd}, Index: 0}
	sighashIn := types.OutPoint{TxHash: types.Hash{0xee}, Index: 0}

	dep := memory.NewTransactionDependencyProvider()
	dep.AddCell(ownerIn, types.CellOutput{Capacity: 500, Lock: ownerLock}, nil)
	dep.AddCell(sighashIn, types.CellOutput{Capacity: 500, Lock: sighashLock}, nil)

	ownerPlaceholder, err := ownerCfg.PlaceholderWitness()
	if err != nil {
		t.Fatalf("PlaceholderWitness: %v", err)
	}
	tx := types.Transaction{
		Inputs: []types.CellInput{
			{PreviousOutput: ownerIn},
			{PreviousOutput: sighashIn},
		},
		Outputs:     []types.CellOutput{{Capacity: 900, Lock: ownerLock}},
		OutputsData: [][]byte{nil},
		Witnesses: [][]byte{
			ownerPlaceholder.Serialize(),
			(types.WitnessArgs{}).Serialize(),
		},
	}

	ownerGroup := types.ScriptGroup{Script: ownerLock, InputIndices: []int{0}}
	s := signer.NewSecpCkbRawKeySigner(key)
	u := NewOmniLockUnlocker(s, ownerCfg)

	if !u.Defer(ownerGroup.Script.Args) {
		t.Fatal("OwnerLock groups must be deferred")
	}

	unlocked, err := u.IsUnlocked(tx, ownerGroup, dep)
	if err != nil {
		t.Fatalf("IsUnlocked before companion input is signed: %v", err)
	}
	if unlocked {
		t.Fatal("owner-lock group must not be unlocked before its companion input is signed")
	}

	// Sign the companion sighash input directly, simulating the
	// non-deferred sighash group running before the deferred owner-lock
	// group, as UnlockTx orders them.
	sighashU := NewSighashUnlocker(s)
	sighashGroup := types.ScriptGroup{Script: sighashLock, InputIndices: []int{1}}
	tx, err = sighashU.Unlock(tx, sighashGroup, dep)
	if err != nil {
		t.Fatalf("Unlock companion sighash input: %v", err)
	}

	unlocked, err = u.IsUnlocked(tx, ownerGroup, dep)
	if err != nil {
		t.Fatalf("IsUnlocked after companion input is signed: %v", err)
	}
	if !unlocked {
		t.Fatal("expected owner-lock group to be unlocked once its companion input is signed")
	}

	if _, err := u.Unlock(tx, ownerGroup, dep); err == nil {
		t.Fatal("expected Unlock to refuse direct signing of an owner-lock group")
	}
}

func TestOmniLockUnlockerAdminPathAddsCellDepAndEmbedsProof(t *testing.T) {
	key := testSecretKey(t, 56)
	auth := crypto.Blake160(key.PubKeyCompressed())
	rceDep := types.CellDep{OutPoint: types.OutPoint{TxHash: types.Hash{0xff}, Index: 0}}
	cfg := omnilock.Config{
		Flag:        omnilock.IdentityPubkeyHash,
		AuthPayload: auth,
		AdminCfg: &omnilock.AdminConfig{
			RcRoot:   [32]byte{0x11},
			SmtProof: []byte{0xde, 0xad, 0xbe, 0xef},
			CellDep:  rceDep,
		},
	}
	tx, dep, group := buildOmniFixture(t, cfg)

	s := signer.NewSecpCkbRawKeySigner(key)
	u := NewOmniLockUnlocker(s, cfg)

	signed, err := u.Unlock(tx, group, dep)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	found := false
	for _, d := range signed.CellDeps {
		if d == rceDep {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the rce whitelist cell-dep to be added before signing")
	}

	wa, err := types.ParseWitnessArgs(signed.Witnesses[0])
	if err != nil {
		t.Fatalf("ParseWitnessArgs: %v", err)
	}
	wl, err := omnilock.ParseWitnessLock(wa.Lock)
	if err != nil {
		t.Fatalf("ParseWitnessLock: %v", err)
	}
	if string(wl.Proof) != string(cfg.AdminCfg.SmtProof) {
		t.Fatal("expected the SMT proof to be embedded in the signed witness")
	}

	unlocked, err := u.IsUnlocked(signed, group, dep)
	if err != nil {
		t.Fatalf("IsUnlocked: %v", err)
	}
	if !unlocked {
		t.Fatal("expected group to be unlocked after admin-path signing")
	}
}
