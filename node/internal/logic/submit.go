package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	tp "github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/executor"
	"github.com/SipengXie/zipline/node/internal/svc"
	"github.com/SipengXie/zipline/node/internal/types"
)

var ErrInvalidEthAddress = errors.New("invalid ethereum address")

func parseEthAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidEthAddress, s)
	}
	return common.HexToAddress(s), nil
}

// submit signs ixs with the relay fee payer and runs them. A transaction
// that executed and failed is not an error of the request, its receipt says
// so.
func submit(ctx context.Context, svcCtx *svc.ServiceContext, simulate bool, ixs ...tp.Instruction) (*types.TxRes, error) {
	tx := tp.NewTransaction(svcCtx.FeePayer.Pubkey(), ixs...)
	if err := tx.Sign(svcCtx.FeePayer); err != nil {
		return nil, err
	}

	var (
		result *executor.Result
		err    error
	)
	if simulate {
		result, err = svcCtx.ExecutorService.Simulate(ctx, tx)
	} else {
		result, err = svcCtx.ExecutorService.Submit(ctx, tx)
	}
	// rejected before execution: no receipt to report
	if result == nil || result.Receipt == nil {
		return nil, err
	}
	return toTxRes(result), nil
}

func toTxRes(result *executor.Result) *types.TxRes {
	return &types.TxRes{
		TxHash:     result.Receipt.TxHash.Hex(),
		Status:     result.Receipt.Status,
		Logs:       result.Receipt.Logs,
		Error:      result.Receipt.Err,
		AccessList: result.AccessList,
	}
}
