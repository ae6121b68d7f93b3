// Package txerrors defines the error taxonomy shared by every pipeline
// stage: builders, the balancer, and unlockers return one of these
// sentinels where a failure fits one, a *ResolveCellDepFailedError for a
// missing cell-dep, and an Other error for anything else. Sentinel
// failures can be classified with errors.Contains regardless of which
// stage produced them.
package txerrors

import (
	"fmt"

	"github.com/ckb-go/txcore/types"
	"github.com/uplo-tech/errors"
)

var (
	// ErrInvalidInput covers malformed args, overflow, and wrong lengths.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCellCollectorError covers upstream I/O or reservation conflicts
	// reported by a CellCollector.
	ErrCellCollectorError = errors.New("cell collector error")

	// ErrCapacityNotEnough means the balancer could not source enough
	// capacity from any configured provider to cover outputs plus fee.
	ErrCapacityNotEnough = errors.New("capacity not enough")

	// ErrBalanceNotConverged means the balancer's fixpoint iteration hit
	// its cap without stabilizing (e.g. the change cell oscillating across
	// the dust threshold as fee grows).
	ErrBalanceNotConverged = errors.New("balance did not converge")

	// ErrScriptSignError covers key mismatch, missing key, or malformed
	// witness during signing.
	ErrScriptSignError = errors.New("script sign error")

	// ErrTxDep covers TransactionDependencyProvider I/O failures.
	ErrTxDep = errors.New("transaction dependency error")
)

// ResolveCellDepFailedError reports that no cell-dep is registered for the
// given ScriptId.
type ResolveCellDepFailedError struct {
	ScriptId types.ScriptId
}

func (e *ResolveCellDepFailedError) Error() string {
	return fmt.Sprintf("resolve cell dep failed for script id: code_hash=%s hash_type=%s",
		e.ScriptId.CodeHash, e.ScriptId.HashType)
}

// NewResolveCellDepFailed builds a ResolveCellDepFailedError for id.
func NewResolveCellDepFailed(id types.ScriptId) error {
	return &ResolveCellDepFailedError{ScriptId: id}
}

// Other wraps an arbitrary message as a catch-all error, mirroring the
// specification's Other(message) taxonomy entry.
func Other(format string, args ...interface{}) error {
	return errors.New(fmt.Sprintf(format, args...))
}
