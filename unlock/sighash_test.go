package unlock

import (
	"testing"

	"github.com/ckb-go/txcore/crypto"
	"github.com/ckb-go/txcore/providers/memory"
	"github.com/ckb-go/txcore/signer"
	"github.com/ckb-go/txcore/types"
)

func testSecretKey(t *testing.T, seed byte) *crypto.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	raw[31] ^= 0x5a
	k, err := crypto.NewPrivateKeyFromBytes(raw)
	if err != nil {
		t.Fatalf("NewPrivateKeyFromBytes: %v", err)
	}
	return k
}

func sighashLockScript(pubkeyHash [20]byte) types.Script {
	return types.Script{CodeHash: types.Hash{0x01}, HashType: types.HashTypeType, Args: pubkeyHash[:]}
}

func buildSighashFixture(t *testing.T, pubkeyHash [20]byte) (types.Transaction, *memory.TransactionDependencyProvider) {
	t.Helper()
	lock := sighashLockScript(pubkeyHash)
	in := types.OutPoint{TxHash: types.Hash{0xaa}, Index: 0}

	dep := memory.NewTransactionDependencyProvider()
	dep.AddCell(in, types.CellOutput{Capacity: 1000, Lock: lock}, nil)

	tx := types.Transaction{
		Inputs:      []types.CellInput{{PreviousOutput: in}},
		Outputs:     []types.CellOutput{{Capacity: 500, Lock: lock}},
		OutputsData: [][]byte{nil},
		Witnesses:   [][]byte{(types.WitnessArgs{}).Serialize()},
	}
	return tx, dep
}

func TestSighashUnlockerSignsAndBecomesUnlocked(t *testing.T) {
	key := testSecretKey(t, 1)
	pubkeyHash := crypto.Blake160(key.PubKeyCompressed())
	s := signer.NewSecpCkbRawKeySigner(key)
	u := NewSighashUnlocker(s)

	tx, dep := buildSighashFixture(t, pubkeyHash)
	lockOf := func(op types.OutPoint) (types.Script, error) {
		cell, err := dep.GetCell(op)
		return cell.Lock, err
	}
	groups, err := types.GroupScriptsByLock(tx, lockOf)
	if err != nil {
		t.Fatalf("GroupScriptsByLock: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	group := groups[0]

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

func TestSighashUnlockerMatchArgs(t *testing.T) {
	u := &SighashUnlocker{}
	if !u.MatchArgs(make([]byte, 20)) {
		t.Fatal("expected 20-byte args to match")
	}
	if u.MatchArgs(make([]byte, 21)) {
		t.Fatal("expected non-20-byte args to not match")
	}
}

func TestUnlockTxDrivesSighashGroupToCompletion(t *testing.T) {
	key := testSecretKey(t, 2)
	pubkeyHash := crypto.Blake160(key.PubKeyCompressed())
	s := signer.NewSecpCkbRawKeySigner(key)

	tx, dep := buildSighashFixture(t, pubkeyHash)
	reg := NewRegistry()
	reg.Register(sighashLockScript(pubkeyHash).Id(), NewSighashUnlocker(s))

	out, stillLocked, err := UnlockTx(tx, dep, reg)
	if err != nil {
		t.Fatalf("UnlockTx: %v", err)
	}
	if len(stillLocked) != 0 {
		t.Fatalf("expected no groups left locked, got %d", len(stillLocked))
	}
	wa, err := types.ParseWitnessArgs(out.Witnesses[0])
	if err != nil {
		t.Fatalf("ParseWitnessArgs: %v", err)
	}
	if len(wa.Lock) != 65 {
		t.Fatalf("expected a 65-byte signature in the lock field, got %d bytes", len(wa.Lock))
	}
}

func TestUnlockTxReportsUnregisteredScriptAsStillLocked(t *testing.T) {
	key := testSecretKey(t, 3)
	pubkeyHash := crypto.Blake160(key.PubKeyCompressed())
	tx, dep := buildSighashFixture(t, pubkeyHash)
	reg := NewRegistry()

	_, stillLocked, err := UnlockTx(tx, dep, reg)
	if err != nil {
		t.Fatalf("UnlockTx: %v", err)
	}
	if len(stillLocked) != 1 {
		t.Fatalf("expected the unregistered group to remain locked, got %d", len(stillLocked))
	}
}
