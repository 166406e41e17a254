package main

import (
	"fmt"
	"os"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/SipengXie/zipline/cmd/utils"
	"github.com/SipengXie/zipline/node/nodecfg"
	"github.com/SipengXie/zipline/turbo/app"
	ziplinecli "github.com/SipengXie/zipline/turbo/cli"
	"github.com/SipengXie/zipline/turbo/node"
)

func main() {
	defer func() {
		panicRes := recover()
		if panicRes == nil {
			return
		}
		log.Error("catch panic", "err", panicRes)
		os.Exit(1)
	}()
	app := app.MakeApp("zipline", runZipline, ziplinecli.DefaultFlags)
	if err := app.Run(os.Args); err != nil {
		_, printErr := fmt.Fprintln(os.Stderr, err)
		if printErr != nil {
			log.Warn("Fprintln error", "err", printErr)
		}
		os.Exit(1)
	}
}

func runZipline(cliCtx *cli.Context) error {
	logger, err := utils.SetupLogger(cliCtx)
	if err != nil {
		return err
	}
	nodeConfig := nodecfg.DefaultConfig
	if err := utils.SetNodeConfig(cliCtx, &nodeConfig); err != nil {
		return err
	}
	programID, err := utils.ProgramID(cliCtx)
	if err != nil {
		return err
	}

	ziplineNode, err := node.New(&nodeConfig, programID, logger)
	if err != nil {
		log.Error("Zipline startup", "err", err)
		return err
	}

	// 启动节点服务
	err = ziplineNode.Serve()
	if err != nil {
		log.Error("error while serving a zipline node", "err", err)
	}
	return err
}
