package txbuilder

import (
	"math/big"

	"github.com/ckb-go/txcore/providers"
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

// UdtIssueType selects whether an issued UDT cell carries plain sUDT data
// (a bare 16-byte amount) or xUDT data (amount plus extension bytes).
type UdtIssueType uint8

const (
	UdtIssueSudt UdtIssueType = iota
	UdtIssueXudt
)

// UDTIssueBuilder issues a new UDT type script backed by one owner cell
// (found empty-data, no-type, matching OwnerLock) and mints Amount units
// into a single output carrying that type script.
type UDTIssueBuilder struct {
	OwnerLock types.Script
	Type      types.Script
	Amount    *big.Int
	IssueType UdtIssueType
	ExtraData []byte // xUDT extension bytes; ignored for UdtIssueSudt
}

// NewUDTIssueBuilder returns a builder issuing amount units of the given
// type script, owned by ownerLock.
func NewUDTIssueBuilder(ownerLock, typ types.Script, amount *big.Int, issueType UdtIssueType, extraData []byte) *UDTIssueBuilder {
	return &UDTIssueBuilder{OwnerLock: ownerLock, Type: typ, Amount: amount, IssueType: issueType, ExtraData: extraData}
}

func (b *UDTIssueBuilder) BuildBase(collector providers.CellCollector, depResolver providers.CellDepResolver, headerResolver providers.HeaderDepResolver, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	query := types.NewLockQuery(b.OwnerLock)
	exact0 := types.NewValueRangeExact(0)
	query.DataLenRange = &exact0
	cells, _, err := collector.CollectLiveCells(query, true)
	if err != nil {
		return types.Transaction{}, txerrors.ErrCellCollectorError
	}
	var owner *types.LiveCell
	for i := range cells {
		if cells[i].Output.Type == nil {
			owner = &cells[i]
			break
		}
	}
	if owner == nil {
		return types.Transaction{}, txerrors.Other("no empty, no-type owner cell found for UDT issuance")
	}

	ownerDep, err := resolveCellDep(depResolver, b.OwnerLock)
	if err != nil {
		return types.Transaction{}, err
	}
	typeDep, err := resolveCellDep(depResolver, b.Type)
	if err != nil {
		return types.Transaction{}, err
	}

	data := encodeUdtAmount(b.Amount)
	if b.IssueType == UdtIssueXudt {
		data = append(data, b.ExtraData...)
	}

	tx := types.Transaction{
		Version:  0,
		CellDeps: mergeCellDep(mergeCellDep(nil, ownerDep), typeDep),
		Inputs:   []types.CellInput{{PreviousOutput: owner.OutPoint}},
		Outputs: []types.CellOutput{{
			Capacity: owner.Output.Capacity,
			Lock:     owner.Output.Lock,
			Type:     &b.Type,
		}},
		OutputsData: [][]byte{data},
		Witnesses:   [][]byte{nil},
	}
	return tx, nil
}

var _ Builder = (*UDTIssueBuilder)(nil)

// UdtReceiver is one UDT transfer destination: either an existing cell to
// Update (found by lock+type) or a new cell to Create at capacity cost.
type UdtReceiver struct {
	Lock      types.Script
	Amount    *big.Int
	Create    bool
	Capacity  uint64 // required when Create is true; must cover occupied capacity
	ExtraData []byte // appended on Create for xUDT-style cells
}

// UDTTransferBuilder moves UDT amount from a single sender cell
// (sender_lock, type_script) to one or more receivers, conserving the
// total: the sender's output carries the exact remainder.
type UDTTransferBuilder struct {
	SenderLock types.Script
	Type       types.Script
	Receivers  []UdtReceiver
}

// NewUDTTransferBuilder returns a builder transferring from one sender
// cell to receivers.
func NewUDTTransferBuilder(senderLock, typ types.Script, receivers ...UdtReceiver) *UDTTransferBuilder {
	return &UDTTransferBuilder{SenderLock: senderLock, Type: typ, Receivers: receivers}
}

func (b *UDTTransferBuilder) BuildBase(collector providers.CellCollector, depResolver providers.CellDepResolver, headerResolver providers.HeaderDepResolver, dep providers.TransactionDependencyProvider) (types.Transaction, error) {
	query := types.NewLockQuery(b.SenderLock)
	typeCopy := b.Type
	query.SecondaryScript = &typeCopy
	cells, _, err := collector.CollectLiveCells(query, true)
	if err != nil {
		return types.Transaction{}, txerrors.ErrCellCollectorError
	}
	var sender *types.LiveCell
	for i := range cells {
		if len(cells[i].OutputData) >= 16 {
			sender = &cells[i]
			break
		}
	}
	if sender == nil {
		return types.Transaction{}, txerrors.Other("no sender UDT cell found with at least 16 bytes of data")
	}
	senderAmount := decodeUdtAmount(sender.OutputData)

	requested := new(big.Int)
	for _, r := range b.Receivers {
		requested.Add(requested, r.Amount)
	}
	if requested.Cmp(senderAmount) > 0 {
		return types.Transaction{}, txerrors.Other("requested UDT amount %s exceeds sender balance %s", requested, senderAmount)
	}
	remainder := new(big.Int).Sub(senderAmount, requested)

	senderDep, err := resolveCellDep(depResolver, b.SenderLock)
	if err != nil {
		return types.Transaction{}, err
	}
	typeDep, err := resolveCellDep(depResolver, b.Type)
	if err != nil {
		return types.Transaction{}, err
	}
	cellDeps := mergeCellDep(mergeCellDep(nil, senderDep), typeDep)

	tx := types.Transaction{
		Version:   0,
		Inputs:    []types.CellInput{{PreviousOutput: sender.OutPoint}},
		Witnesses: [][]byte{nil},
	}

	for _, r := range b.Receivers {
		if r.Create {
			lockDep, err := resolveCellDep(depResolver, r.Lock)
			if err != nil {
				return types.Transaction{}, err
			}
			cellDeps = mergeCellDep(cellDeps, lockDep)

			data := append(encodeUdtAmount(r.Amount), r.ExtraData...)
			output := types.CellOutput{Lock: r.Lock, Type: &typeCopy}
			required := output.OccupiedCapacity(len(data))
			if r.Capacity < required {
				return types.Transaction{}, txerrors.Other("receiver capacity %d below occupied capacity %d", r.Capacity, required)
			}
			output.Capacity = r.Capacity
			tx.Outputs = append(tx.Outputs, output)
			tx.OutputsData = append(tx.OutputsData, data)
			continue
		}

		updateQuery := types.NewLockQuery(r.Lock)
		updateQuery.SecondaryScript = &typeCopy
		existing, _, err := collector.CollectLiveCells(updateQuery, true)
		if err != nil {
			return types.Transaction{}, txerrors.ErrCellCollectorError
		}
		if len(existing) == 0 {
			return types.Transaction{}, txerrors.Other("no existing UDT cell found to update for receiver lock")
		}
		target := existing[0]
		if len(target.OutputData) < 16 {
			return types.Transaction{}, txerrors.Other("receiver UDT cell carries %d bytes of data, want at least 16", len(target.OutputData))
		}
		tx.Inputs = append(tx.Inputs, types.CellInput{PreviousOutput: target.OutPoint})
		tx.Witnesses = append(tx.Witnesses, nil)

		newAmount := new(big.Int).Add(decodeUdtAmount(target.OutputData), r.Amount)
		data := append(encodeUdtAmount(newAmount), target.OutputData[16:]...)
		tx.Outputs = append(tx.Outputs, types.CellOutput{
			Capacity: target.Output.Capacity,
			Lock:     target.Output.Lock,
			Type:     target.Output.Type,
		})
		tx.OutputsData = append(tx.OutputsData, data)
	}

	senderRemainderData := append(encodeUdtAmount(remainder), sender.OutputData[16:]...)
	tx.Outputs = append(tx.Outputs, types.CellOutput{
		Capacity: sender.Output.Capacity,
		Lock:     sender.Output.Lock,
		Type:     sender.Output.Type,
	})
	tx.OutputsData = append(tx.OutputsData, senderRemainderData)

	tx.CellDeps = cellDeps
	return tx, nil
}

var _ Builder = (*UDTTransferBuilder)(nil)

// encodeUdtAmount encodes amount as a 16-byte little-endian u128, per the
// standard UDT data layout.
func encodeUdtAmount(amount *big.Int) []byte {
	buf := make([]byte, 16)
	bytesBE := amount.Bytes()
	for i := 0; i < len(bytesBE) && i < 16; i++ {
		buf[i] = bytesBE[len(bytesBE)-1-i]
	}
	return buf
}

func decodeUdtAmount(data []byte) *big.Int {
	v := new(big.Int)
	for i := 15; i >= 0; i-- {
		v.Lsh(v, 8)
		v.Or(v, big.NewInt(int64(data[i])))
	}
	return v
}
