package types

import "testing"

func TestValueRangeOption(t *testing.T) {
	r := NewValueRangeMin(100)
	if r.Contains(99) || !r.Contains(100) || !r.Contains(1_000_000) {
		t.Fatal("unbounded-max range behaved incorrectly")
	}
	exact := NewValueRangeExact(50)
	if exact.Contains(49) || !exact.Contains(50) || exact.Contains(51) {
		t.Fatal("exact range behaved incorrectly")
	}
}

func TestCellQueryOptionsMatches(t *testing.T) {
	lock := Script{CodeHash: Hash{1}, Args: []byte{1}}
	other := Script{CodeHash: Hash{2}, Args: []byte{2}}
	query := NewLockQuery(lock)

	match := LiveCell{Output: CellOutput{Lock: lock, Capacity: 100}}
	mismatch := LiveCell{Output: CellOutput{Lock: other, Capacity: 100}}

	if !query.Matches(match) {
		t.Fatal("expected cell with matching lock to match")
	}
	if query.Matches(mismatch) {
		t.Fatal("expected cell with different lock to not match")
	}

	capRange := NewValueRangeMin(200)
	query.CapacityRange = &capRange
	if query.Matches(match) {
		t.Fatal("expected capacity range to exclude a cell below the minimum")
	}
}
