package node

import (
	"github.com/ledgerwatch/log/v3"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/node/internal/config"
	"github.com/SipengXie/zipline/node/internal/handler"
	"github.com/SipengXie/zipline/node/internal/svc"
)

// Relay serves the REST api through which Ethereum key holders create
// identities and submit signed batches. The relay pays the fees.
type Relay struct {
	config config.Config
	server *rest.Server
	svcCtx *svc.ServiceContext
	logger log.Logger
}

// NewRelay loads the go-zero config at configFile and binds the relay to the
// zipline program registered on l under programID.
func NewRelay(configFile string, programID types.Pubkey, l *ledger.Ledger, logger log.Logger) (*Relay, error) {
	var c config.Config
	if err := conf.Load(configFile, &c); err != nil {
		return nil, err
	}
	server, err := rest.NewServer(c.RestConf)
	if err != nil {
		return nil, err
	}
	svcCtx, err := svc.NewServiceContext(c, programID, l, logger)
	if err != nil {
		server.Stop()
		return nil, err
	}
	handler.RegisterHandlers(server, svcCtx)
	return &Relay{config: c, server: server, svcCtx: svcCtx, logger: logger}, nil
}

func (r *Relay) Start() error {
	r.logger.Info("Starting relay", "host", r.config.Host, "port", r.config.Port)
	go r.server.Start()
	return nil
}

func (r *Relay) Stop() error {
	r.server.Stop()
	r.svcCtx.ExecutorService.Stop()
	return nil
}
