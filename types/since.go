package types

// Since is a per-input maturity field. The top bit selects relative vs
// absolute and the next two bits select the metric (block number, epoch,
// or timestamp); the low 56 bits hold the value.
//
// Cheques use the well-known constant 0xA000000000000006: relative,
// epoch-metric, value 6 (six epochs).
type Since uint64

const (
	sinceFlagRelative    = uint64(1) << 63
	sinceMetricMask      = uint64(0x60) << 56
	sinceMetricBlock     = uint64(0x00) << 56
	sinceMetricEpoch     = uint64(0x20) << 56
	sinceMetricTimestamp = uint64(0x40) << 56
	sinceValueMask       = uint64(1)<<56 - 1
)

// ChequeWithdrawSince is the since value every cheque-unlocker withdraw-path
// input must carry: relative, 6 epochs.
const ChequeWithdrawSince Since = 0xA000000000000006

// ChequeClaimSince is the since value every cheque-unlocker claim-path input
// must carry: no lock at all.
const ChequeClaimSince Since = 0

// IsRelative reports whether the since value is relative to the input's
// confirmation height/time rather than absolute.
func (s Since) IsRelative() bool {
	return uint64(s)&sinceFlagRelative != 0
}

// Metric reports which unit the since value is expressed in: "block",
// "epoch", or "timestamp".
func (s Since) Metric() string {
	switch uint64(s) & sinceMetricMask {
	case sinceMetricEpoch:
		return "epoch"
	case sinceMetricTimestamp:
		return "timestamp"
	default:
		return "block"
	}
}

// Value returns the low 56-bit magnitude of the since field.
func (s Since) Value() uint64 {
	return uint64(s) & sinceValueMask
}
