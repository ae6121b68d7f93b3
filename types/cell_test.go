package types

import "testing"

func TestCellOutputOccupiedCapacityMatchesSerializedLayout(t *testing.T) {
	lock := Script{CodeHash: Hash{1}, Args: []byte{1, 2, 3}}
	out := CellOutput{Capacity: 0, Lock: lock}
	got := out.OccupiedCapacity(10)
	want := uint64(8+len(lock.Serialize())+10) * CkbytePerShannonUnit
	if got != want {
		t.Fatalf("occupied capacity = %d, want %d", got, want)
	}
}

func TestCellOutputOccupiedCapacityWithType(t *testing.T) {
	lock := Script{CodeHash: Hash{1}, Args: []byte{1}}
	typ := Script{CodeHash: Hash{2}, Args: []byte{1, 2}}
	withType := CellOutput{Lock: lock, Type: &typ}
	withoutType := CellOutput{Lock: lock}
	if withType.OccupiedCapacity(0) <= withoutType.OccupiedCapacity(0) {
		t.Fatal("expected a type script to increase occupied capacity")
	}
}

func TestSinceMetricAndValue(t *testing.T) {
	if ChequeWithdrawSince.Metric() != "epoch" {
		t.Fatalf("cheque withdraw since metric = %s, want epoch", ChequeWithdrawSince.Metric())
	}
	if !ChequeWithdrawSince.IsRelative() {
		t.Fatal("cheque withdraw since must be relative")
	}
	if ChequeWithdrawSince.Value() != 6 {
		t.Fatalf("cheque withdraw since value = %d, want 6", ChequeWithdrawSince.Value())
	}
	if ChequeClaimSince.Value() != 0 || ChequeClaimSince.IsRelative() {
		t.Fatal("cheque claim since must be zero and absolute")
	}
}
