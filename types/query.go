package types

// PrimaryScriptKind selects which half of a cell a CellQueryOptions'
// PrimaryScript constrains.
type PrimaryScriptKind uint8

const (
	PrimaryScriptLock PrimaryScriptKind = iota
	PrimaryScriptType
)

// ValueRangeOption constrains a uint64-valued quantity (capacity or data
// length) to [Min, Max). A zero Max means unbounded.
type ValueRangeOption struct {
	Min uint64
	Max uint64
}

// NewValueRangeMin returns a range with no upper bound.
func NewValueRangeMin(min uint64) ValueRangeOption {
	return ValueRangeOption{Min: min}
}

// NewValueRangeExact returns a range matching exactly n.
func NewValueRangeExact(n uint64) ValueRangeOption {
	return ValueRangeOption{Min: n, Max: n + 1}
}

// Contains reports whether v falls in the range.
func (r ValueRangeOption) Contains(v uint64) bool {
	if v < r.Min {
		return false
	}
	if r.Max == 0 {
		return true
	}
	return v < r.Max
}

// CellQueryOptions constrains a CellCollector query. A collector must
// return only cells satisfying every constraint that is set.
type CellQueryOptions struct {
	PrimaryScript         Script
	PrimaryType           PrimaryScriptKind
	SecondaryScript       *Script
	DataLenRange          *ValueRangeOption
	CapacityRange         *ValueRangeOption
	MaturityRequirement   bool
}

// NewLockQuery returns query options matching cells locked by lock, with no
// other constraint set.
func NewLockQuery(lock Script) CellQueryOptions {
	return CellQueryOptions{PrimaryScript: lock, PrimaryType: PrimaryScriptLock}
}

// Matches reports whether a candidate cell satisfies every constraint in
// opts. Reference CellCollector implementations use this directly;
// RPC-backed collectors reimplement the equivalent filter server-side.
func (opts CellQueryOptions) Matches(cell LiveCell) bool {
	switch opts.PrimaryType {
	case PrimaryScriptLock:
		if !cell.Output.Lock.Equal(opts.PrimaryScript) {
			return false
		}
	case PrimaryScriptType:
		if cell.Output.Type == nil || !cell.Output.Type.Equal(opts.PrimaryScript) {
			return false
		}
	}
	if opts.SecondaryScript != nil {
		if cell.Output.Type == nil || !cell.Output.Type.Equal(*opts.SecondaryScript) {
			return false
		}
	}
	if opts.DataLenRange != nil && !opts.DataLenRange.Contains(uint64(len(cell.OutputData))) {
		return false
	}
	if opts.CapacityRange != nil && !opts.CapacityRange.Contains(cell.Output.Capacity) {
		return false
	}
	return true
}
