package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/SipengXie/zipline/node/internal/svc"
	"github.com/SipengXie/zipline/node/internal/types"
)

type GetIdentityLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetIdentityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetIdentityLogic {
	return &GetIdentityLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetIdentityLogic) GetIdentity(req *types.GetIdentityReq) (resp *types.IdentityRes, err error) {
	eth, err := parseEthAddress(req.EthAddress)
	if err != nil {
		return nil, err
	}
	client := l.svcCtx.Client
	id, err := client.Identity(l.ctx, l.svcCtx.Ledger, eth)
	if err != nil {
		return nil, err
	}
	identity, err := client.FindIdentity(eth)
	if err != nil {
		return nil, err
	}
	authority, err := client.FindAuthority(eth)
	if err != nil {
		return nil, err
	}
	acc, err := l.svcCtx.Ledger.Account(l.ctx, authority)
	if err != nil {
		return nil, err
	}
	return &types.IdentityRes{
		EthAddress:      id.EthAddress.Hex(),
		Identity:        identity.String(),
		Authority:       authority.String(),
		SequenceCounter: id.SequenceCounter,
		NextSequence:    id.SequenceCounter + 1,
		Lamports:        acc.Lamports,
	}, nil
}
