// Package providers declares the abstract collaborators the pipeline
// depends on: live cell collection, cell-dep / header-dep resolution,
// transaction dependency lookups, and signing. Concrete implementations
// (RPC-backed, on-disk, in-memory) live outside this package; providers
// itself only fixes the contract.
package providers

import "github.com/ckb-go/txcore/types"

// CellCollector sources live cells matching a query and tracks which cells
// have already been allocated to in-progress transactions so they are not
// collected twice across pipeline stages.
type CellCollector interface {
	// CollectLiveCells returns cells matching query, most-recently-returned
	// first is not guaranteed; ties are broken by first-returned. When
	// applyChanges is true the returned cells are marked as reserved.
	CollectLiveCells(query types.CellQueryOptions, applyChanges bool) ([]types.LiveCell, uint64, error)

	// LockCell marks a single cell as reserved without going through a
	// query, used when a builder has already chosen a specific cell.
	LockCell(out types.OutPoint) error

	// ApplyTx records tx's inputs as spent so later collections exclude
	// them, preserving reservation state across pipeline stages.
	ApplyTx(tx types.Transaction) error

	// Reset discards all reservation state accumulated so far, the
	// recovery primitive for a failed/abandoned draft.
	Reset()
}

// CellDepResolver maps a ScriptId to the CellDep that supplies its code.
type CellDepResolver interface {
	Resolve(id types.ScriptId) (types.CellDep, bool)
}

// HeaderDepResolver resolves a header dependency by transaction hash or
// block number.
type HeaderDepResolver interface {
	ResolveByTx(txHash types.Hash) (*HeaderView, error)
	ResolveByNumber(number uint64) (*HeaderView, error)
}

// HeaderView is the subset of on-chain block header data the core needs.
type HeaderView struct {
	Number    uint64
	Hash      types.Hash
	Timestamp uint64
	Epoch     uint64
}

// TransactionDependencyProvider resolves the cells and transactions a
// draft references: inputs, cell-deps, and header-deps.
type TransactionDependencyProvider interface {
	GetCell(out types.OutPoint) (types.CellOutput, error)
	GetCellData(out types.OutPoint) ([]byte, error)
	GetHeader(blockHash types.Hash) (*HeaderView, error)
	GetTransaction(txHash types.Hash) (*types.Transaction, error)
	GetConsensus() (Consensus, error)
}

// Consensus is the subset of chain parameters the core consults (currently
// none; the type exists so TransactionDependencyProvider's contract can
// evolve without an interface break).
type Consensus struct {
	MaxBlockBytes uint64
}

// Signer produces a 65-byte recoverable signature for a signing digest,
// given the 20-byte identity (blake160 pubkey hash or Ethereum address)
// that owns the key. Key storage/management is outside the core's scope;
// this is the whole surface the core depends on.
type Signer interface {
	// Sign signs message for keyID. tx is the full draft the digest was
	// derived from, so an external or hardware signer can display and
	// validate what it is committing to instead of trusting a bare
	// 32-byte digest; in-process signers may ignore it.
	Sign(keyID [20]byte, message [32]byte, tx *types.Transaction) ([65]byte, error)
	// Match reports whether this signer holds the key for keyID, so a
	// composite signer can be asked "can you sign this?" without it
	// actually signing.
	Match(keyID [20]byte) bool
}
