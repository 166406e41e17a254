package node

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/cmd/utils"
	"github.com/ledgerwatch/log/v3"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/core/zipline"
	"github.com/SipengXie/zipline/node"
	"github.com/SipengXie/zipline/node/nodecfg"
)

// ZiplineNode is a node running the ledger with the zipline program
// deployed, plus the REST relay when it is configured.
type ZiplineNode struct {
	stack  *node.Node
	ledger *ledger.Ledger
}

func (zn *ZiplineNode) Serve() error {
	defer zn.Close()
	zn.run()
	go zn.listenSignals()
	zn.stack.Wait()
	return nil
}

func (zn *ZiplineNode) listenSignals() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	<-sigc
	log.Info("Got interrupt, shutting down...")
	zn.stack.Close()
}

func (zn *ZiplineNode) Close() {
	zn.stack.Close()
}

func (zn *ZiplineNode) Ledger() *ledger.Ledger { return zn.ledger }

func (zn *ZiplineNode) run() {
	node.StartNode(zn.stack)
}

func New(nodeConfig *nodecfg.Config, programID types.Pubkey, logger log.Logger) (*ZiplineNode, error) {
	stack, err := node.New(nodeConfig, logger)
	if err != nil {
		utils.Fatalf("Failed to create zipline node: %v", err)
	}

	store, err := stack.OpenLedgerStore()
	if err != nil {
		stack.Close()
		return nil, err
	}
	l := ledger.New(store, logger.New("module", "ledger"))
	if err := l.RegisterProgram(programID, zipline.New(programID, logger.New("module", "zipline"))); err != nil {
		stack.Close()
		return nil, err
	}

	if nodeConfig.RelayConfigFile != "" {
		relay, err := node.NewRelay(nodeConfig.RelayConfigFile, programID, l, logger.New("module", "relay"))
		if err != nil {
			stack.Close()
			return nil, err
		}
		stack.RegisterLifecycle(relay)
	}
	return &ZiplineNode{stack: stack, ledger: l}, nil
}
