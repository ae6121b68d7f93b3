package txbuilder

import (
	"github.com/ckb-go/txcore/txerrors"
	"github.com/ckb-go/txcore/types"
)

func resolveCellDepFailed(id types.ScriptId) error {
	return txerrors.NewResolveCellDepFailed(id)
}
