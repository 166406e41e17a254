package node

import (
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/zipline"
	"github.com/SipengXie/zipline/node/nodecfg"
)

func TestNewDeploysProgram(t *testing.T) {
	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	cfg := nodecfg.DefaultConfig
	zn, err := New(&cfg, zipline.ProgramID, logger)
	require.NoError(t, err)
	defer zn.Close()

	err = zn.Ledger().RegisterProgram(zipline.ProgramID, zipline.New(zipline.ProgramID, logger))
	require.ErrorIs(t, err, ledger.ErrProgramRegistered)
}
