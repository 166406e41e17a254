package utils

import (
	"github.com/ledgerwatch/erigon-lib/common/datadir"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/SipengXie/zipline/core/types"
	"github.com/SipengXie/zipline/node/nodecfg"
	"github.com/SipengXie/zipline/params"
)

var (
	// General settings
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the databases, accounts are kept in memory when empty",
	}
	DBMmapSizeFlag = &cli.StringFlag{
		Name:  "db.mmap",
		Usage: "Initial mmap size of the account database",
		Value: params.DefaultDBMmapSize.String(),
	}
	ProgramIDFlag = &cli.StringFlag{
		Name:  "program.id",
		Usage: "Base58 id the zipline program is deployed under",
		Value: params.DefaultProgramID.String(),
	}
	RelayConfigFlag = &cli.StringFlag{
		Name:    "relay.config",
		Aliases: []string{"f"},
		Usage:   "go-zero yaml config of the REST relay, the relay is off when empty",
	}
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: crit, error, warn, info, debug, trace",
		Value: "info",
	}
)

// SetNodeConfig applies the command line flags to cfg.
func SetNodeConfig(ctx *cli.Context, cfg *nodecfg.Config) error {
	if dir := ctx.String(DataDirFlag.Name); dir != "" {
		cfg.Dirs = datadir.New(dir)
	}
	if ctx.IsSet(DBMmapSizeFlag.Name) {
		if err := cfg.DBMmapSize.UnmarshalText([]byte(ctx.String(DBMmapSizeFlag.Name))); err != nil {
			return err
		}
	}
	cfg.RelayConfigFile = ctx.String(RelayConfigFlag.Name)
	return nil
}

// ProgramID parses the program id flag.
func ProgramID(ctx *cli.Context) (types.Pubkey, error) {
	return types.PubkeyFromBase58(ctx.String(ProgramIDFlag.Name))
}

// SetupLogger sends the root logger to stderr at the requested verbosity.
func SetupLogger(ctx *cli.Context) (log.Logger, error) {
	lvl, err := log.LvlFromString(ctx.String(VerbosityFlag.Name))
	if err != nil {
		return nil, err
	}
	logger := log.Root()
	logger.SetHandler(log.LvlFilterHandler(lvl, log.StderrHandler))
	return logger, nil
}
