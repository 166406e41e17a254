package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/SipengXie/zipline/cmd/utils"
	"github.com/SipengXie/zipline/params"
)

var VERSION = fmt.Sprintf("%d.%d.%d", params.VersionMajor, params.VersionMinor, params.VersionPatch)

// DefaultFlags are the flags of the zipline node.
var DefaultFlags = []cli.Flag{
	utils.DataDirFlag,
	utils.DBMmapSizeFlag,
	utils.ProgramIDFlag,
	utils.RelayConfigFlag,
	utils.VerbosityFlag,
}

// NewApp creates an app with sane defaults.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Version = VERSION
	return app
}
