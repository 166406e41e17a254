package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/pathvar"

	"github.com/SipengXie/zipline/core/ledger"
	"github.com/SipengXie/zipline/core/zipline"
	"github.com/SipengXie/zipline/node/internal/config"
	"github.com/SipengXie/zipline/node/internal/svc"
	"github.com/SipengXie/zipline/node/internal/types"
)

func TestIdentityHandlers(t *testing.T) {
	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	l := ledger.New(ledger.NewMemoryStore(), logger)
	require.NoError(t, l.RegisterProgram(zipline.ProgramID, zipline.New(zipline.ProgramID, logger)))
	svcCtx, err := svc.NewServiceContext(config.Config{FeePayerFunding: 1_000_000_000}, zipline.ProgramID, l, logger)
	require.NoError(t, err)
	defer svcCtx.ExecutorService.Stop()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	eth := crypto.PubkeyToAddress(key.PublicKey).Hex()

	post := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/identity", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		createIdentityHandler(svcCtx)(w, r)
		return w
	}

	w := post(`{"ethAddress":"nope"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = post(`{"ethAddress":"` + eth + `"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var tx types.TxRes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
	require.Equal(t, ledger.ReceiptStatusSuccessful, tx.Status)

	r := httptest.NewRequest(http.MethodGet, "/identity/"+eth, nil)
	r = pathvar.WithVars(r, map[string]string{"ethAddress": eth})
	w = httptest.NewRecorder()
	getIdentityHandler(svcCtx)(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	var id types.IdentityRes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	require.Equal(t, eth, id.EthAddress)
	require.Zero(t, id.SequenceCounter)
}
