// Package memory provides deterministic, in-process implementations of
// every interface in providers, so the core can be exercised and tested
// without an RPC client.
package memory

import (
	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/types"
	"github.com/uplo-tech/errors"
)

// CellCollector is an in-memory CellCollector backed by a fixed universe of
// live cells plus a set of reserved OutPoints accumulated by ApplyTx/
// LockCell across pipeline stages.
type CellCollector struct {
	cells    []types.LiveCell
	reserved map[types.OutPoint]bool
}

// NewCellCollector returns a collector over the given live cells.
func NewCellCollector(cells []types.LiveCell) *CellCollector {
	return &CellCollector{cells: cells, reserved: make(map[types.OutPoint]bool)}
}

// AddCell adds a live cell to the collector's universe (useful for tests
// building up fixtures incrementally).
func (c *CellCollector) AddCell(cell types.LiveCell) {
	c.cells = append(c.cells, cell)
}

func (c *CellCollector) CollectLiveCells(query types.CellQueryOptions, applyChanges bool) ([]types.LiveCell, uint64, error) {
	var matched []types.LiveCell
	var total uint64
	for _, cell := range c.cells {
		if c.reserved[cell.OutPoint] {
			continue
		}
		if !query.Matches(cell) {
			continue
		}
		matched = append(matched, cell)
		total += cell.Output.Capacity
	}
	if applyChanges {
		for _, cell := range matched {
			c.reserved[cell.OutPoint] = true
		}
	}
	return matched, total, nil
}

func (c *CellCollector) LockCell(out types.OutPoint) error {
	c.reserved[out] = true
	return nil
}

func (c *CellCollector) ApplyTx(tx types.Transaction) error {
	for _, in := range tx.Inputs {
		c.reserved[in.PreviousOutput] = true
	}
	return nil
}

func (c *CellCollector) Reset() {
	c.reserved = make(map[types.OutPoint]bool)
}

var _ providers.CellCollector = (*CellCollector)(nil)

// CellDepResolver is a static map from ScriptId to CellDep.
type CellDepResolver struct {
	deps map[types.ScriptId]types.CellDep
}

// NewCellDepResolver returns a resolver seeded with the given map.
func NewCellDepResolver(deps map[types.ScriptId]types.CellDep) *CellDepResolver {
	if deps == nil {
		deps = map[types.ScriptId]types.CellDep{}
	}
	return &CellDepResolver{deps: deps}
}

// Register adds or overwrites the cell-dep for id.
func (r *CellDepResolver) Register(id types.ScriptId, dep types.CellDep) {
	r.deps[id] = dep
}

func (r *CellDepResolver) Resolve(id types.ScriptId) (types.CellDep, bool) {
	dep, ok := r.deps[id]
	return dep, ok
}

var _ providers.CellDepResolver = (*CellDepResolver)(nil)

// HeaderDepResolver is a static map keyed by both tx hash and block number.
type HeaderDepResolver struct {
	byTx     map[types.Hash]*providers.HeaderView
	byNumber map[uint64]*providers.HeaderView
}

// NewHeaderDepResolver returns an empty resolver; use AddHeader to seed it.
func NewHeaderDepResolver() *HeaderDepResolver {
	return &HeaderDepResolver{
		byTx:     make(map[types.Hash]*providers.HeaderView),
		byNumber: make(map[uint64]*providers.HeaderView),
	}
}

// AddHeader indexes header under the transactions it contains and its
// block number.
func (r *HeaderDepResolver) AddHeader(header providers.HeaderView, txHashes ...types.Hash) {
	h := header
	r.byNumber[header.Number] = &h
	for _, tx := range txHashes {
		r.byTx[tx] = &h
	}
}

func (r *HeaderDepResolver) ResolveByTx(txHash types.Hash) (*providers.HeaderView, error) {
	return r.byTx[txHash], nil
}

func (r *HeaderDepResolver) ResolveByNumber(number uint64) (*providers.HeaderView, error) {
	return r.byNumber[number], nil
}

var _ providers.HeaderDepResolver = (*HeaderDepResolver)(nil)

// TransactionDependencyProvider resolves cells/transactions from a static,
// pre-populated set — everything a test fixture deposited via AddCell/
// AddTransaction.
type TransactionDependencyProvider struct {
	cells        map[types.OutPoint]types.CellOutput
	cellData     map[types.OutPoint]([]byte)
	transactions map[types.Hash]*types.Transaction
	headers      map[types.Hash]*providers.HeaderView
	consensus    providers.Consensus
}

// NewTransactionDependencyProvider returns an empty provider.
func NewTransactionDependencyProvider() *TransactionDependencyProvider {
	return &TransactionDependencyProvider{
		cells:        make(map[types.OutPoint]types.CellOutput),
		cellData:     make(map[types.OutPoint][]byte),
		transactions: make(map[types.Hash]*types.Transaction),
		headers:      make(map[types.Hash]*providers.HeaderView),
		consensus:    providers.Consensus{MaxBlockBytes: 597_000},
	}
}

// AddCell registers the output and data for out, so later GetCell/
// GetCellData calls for it succeed.
func (p *TransactionDependencyProvider) AddCell(out types.OutPoint, output types.CellOutput, data []byte) {
	p.cells[out] = output
	p.cellData[out] = data
}

// AddTransaction registers a transaction by its hash.
func (p *TransactionDependencyProvider) AddTransaction(hash types.Hash, tx types.Transaction) {
	p.transactions[hash] = &tx
}

func (p *TransactionDependencyProvider) GetCell(out types.OutPoint) (types.CellOutput, error) {
	cell, ok := p.cells[out]
	if !ok {
		return types.CellOutput{}, errors.New("memory: unknown cell")
	}
	return cell, nil
}

func (p *TransactionDependencyProvider) GetCellData(out types.OutPoint) ([]byte, error) {
	data, ok := p.cellData[out]
	if !ok {
		return nil, errors.New("memory: unknown cell data")
	}
	return data, nil
}

func (p *TransactionDependencyProvider) GetHeader(blockHash types.Hash) (*providers.HeaderView, error) {
	return p.headers[blockHash], nil
}

func (p *TransactionDependencyProvider) GetTransaction(txHash types.Hash) (*types.Transaction, error) {
	tx, ok := p.transactions[txHash]
	if !ok {
		return nil, errors.New("memory: unknown transaction")
	}
	return tx, nil
}

func (p *TransactionDependencyProvider) GetConsensus() (providers.Consensus, error) {
	return p.consensus, nil
}

var _ providers.TransactionDependencyProvider = (*TransactionDependencyProvider)(nil)
