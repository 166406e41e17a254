package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/SipengXie/zipline/node/internal/svc"
	"github.com/SipengXie/zipline/node/internal/types"
)

type CreateIdentityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCreateIdentityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateIdentityLogic {
	return &CreateIdentityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CreateIdentityLogic) CreateIdentity(req *types.CreateIdentityReq) (resp *types.TxRes, err error) {
	eth, err := parseEthAddress(req.EthAddress)
	if err != nil {
		return nil, err
	}
	ix, err := l.svcCtx.Client.CreateIdentity(l.svcCtx.FeePayer.Pubkey(), eth)
	if err != nil {
		return nil, err
	}
	resp, err = submit(l.ctx, l.svcCtx, false, ix)
	if err != nil {
		return nil, err
	}
	l.Infof("create identity %s: status %d", eth.Hex(), resp.Status)
	return resp, nil
}
