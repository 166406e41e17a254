package app

import (
	"github.com/urfave/cli/v2"

	cli2 "github.com/SipengXie/zipline/turbo/cli"
)

func MakeApp(name string, action cli.ActionFunc, cliFlags []cli.Flag) *cli.App {
	app := cli2.NewApp()
	app.Name = name
	app.Usage = name
	app.UsageText = app.Name + ` [command] [flags]`
	app.Flags = cliFlags
	app.Action = action
	return app
}
