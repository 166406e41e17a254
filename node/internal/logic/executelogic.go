package logic

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/zeromicro/go-zero/core/logx"

	tp "github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/node/internal/svc"
	"github.com/SipengXie/zipline/node/internal/types"
)

type ExecuteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewExecuteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ExecuteLogic {
	return &ExecuteLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Execute relays a signed batch. The verification instruction goes first and
// authorize_and_execute right after it.
func (l *ExecuteLogic) Execute(req *types.ExecuteReq) (resp *types.TxRes, err error) {
	eth, err := parseEthAddress(req.EthAddress)
	if err != nil {
		return nil, err
	}
	batch, err := hexutil.Decode(req.Message)
	if err != nil {
		return nil, err
	}
	msg, err := tp.DecodeMessage(batch)
	if err != nil {
		return nil, err
	}
	rawSig, err := hexutil.Decode(req.Signature)
	if err != nil {
		return nil, err
	}
	sig, err := tp.EthSignatureFromBytes(rawSig)
	if err != nil {
		return nil, err
	}

	ixs, err := l.svcCtx.Client.AuthorizeSigned(eth, sig, msg, 0)
	if err != nil {
		return nil, err
	}
	resp, err = submit(l.ctx, l.svcCtx, req.Simulate, ixs...)
	if err != nil {
		return nil, err
	}
	l.Infof("execute %s sequence %d: status %d", eth.Hex(), msg.Sequence, resp.Status)
	return resp, nil
}
