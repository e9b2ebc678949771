package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/aml-oracle-backend/assets"
	"github.com/ruteri/aml-oracle-backend/audit"
	"github.com/ruteri/aml-oracle-backend/interfaces"
	"github.com/ruteri/aml-oracle-backend/metrics"
	"github.com/ruteri/aml-oracle-backend/oracle"
)

var (
	adminAddr  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	oracleAddr = common.HexToAddress("0x00000000000000000000000000000000000000ff")
	clientAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func testAMLID(seed string) interfaces.AMLID {
	var id interfaces.AMLID
	copy(id[:], seed)
	return id
}

func newTestServer(t *testing.T) (http.Handler, *assets.Vault) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	vault := assets.NewVault()
	o, err := oracle.NewNativeOracle(oracle.Config{
		Admin:      adminAddr,
		Account:    oracleAddr,
		DefaultFee: big.NewInt(123),
		Log:        log,
		Audit:      &audit.MemorySink{},
	}, vault)
	require.NoError(t, err)

	handler := NewHandler(o, nil, metrics.New("oracletest"), log)
	srv, err := New(&HTTPServerConfig{
		ListenAddr:    "127.0.0.1:0",
		Log:           log,
		DrainDuration: time.Millisecond,
	}, handler, nil)
	require.NoError(t, err)

	return srv.getRouter(), vault
}

func doJSON(t *testing.T, router http.Handler, method, path string, caller *common.Address, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req.Header.Set(CallerHeader, caller.Hex())
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetDepositFetchFlow(t *testing.T) {
	router, vault := newTestServer(t)
	vault.Mint(clientAddr, interfaces.NativeAsset, big.NewInt(1000))

	amlID := testAMLID("flow-test")
	w := doJSON(t, router, http.MethodPost, "/api/admin/status", &adminAddr, map[string]any{
		"client": clientAddr.Hex(),
		"target": "account-7",
		"aml_id": hexutil.Encode(amlID[:]),
		"score":  42,
		"flags":  7,
		"fee":    100,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Price discovery before committing to the fetch.
	w = doJSON(t, router, http.MethodGet, "/api/public/status/"+clientAddr.Hex()+"/account-7/metadata", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var meta struct {
		Fee *big.Int `json:"fee"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, int64(100), meta.Fee.Int64())

	w = doJSON(t, router, http.MethodPost, "/api/client/deposit", &clientAddr, map[string]any{"amount": 500})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/client/fetch", &clientAddr, map[string]any{
		"target":  "account-7",
		"max_fee": 100,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var fetched fetchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, hexutil.Encode(amlID[:]), fetched.AMLID)
	assert.Equal(t, uint8(42), fetched.Score)
	assert.Equal(t, uint64(7), fetched.Flags)

	// The fee moved from the client's escrow to the fee account's.
	w = doJSON(t, router, http.MethodGet, "/api/public/escrow/"+clientAddr.Hex(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bal struct {
		Balance *big.Int `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bal))
	assert.Equal(t, int64(400), bal.Balance.Int64())
}

func TestCallerHeaderRequired(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/client/ask", nil, map[string]any{"target": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/client/ask", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(CallerHeader, "not-an-address")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	router, _ := newTestServer(t)
	amlID := testAMLID("x")

	t.Run("unauthorized write is 403", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/admin/status", &clientAddr, map[string]any{
			"client": clientAddr.Hex(),
			"target": "t",
			"aml_id": hexutil.Encode(amlID[:]),
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing record is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/public/status/"+clientAddr.Hex()+"/nothing/metadata", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unfunded fetch is 402", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/admin/status", &adminAddr, map[string]any{
			"client": clientAddr.Hex(),
			"target": "t",
			"aml_id": hexutil.Encode(amlID[:]),
			"fee":    100,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(t, router, http.MethodPost, "/api/client/fetch", &clientAddr, map[string]any{
			"target":  "t",
			"max_fee": 100,
		})
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("fee ceiling exceeded is 402", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/client/fetch", &clientAddr, map[string]any{
			"target":  "t",
			"max_fee": 1,
		})
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("invalid score is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/admin/status", &adminAddr, map[string]any{
			"client": clientAddr.Hex(),
			"target": "t",
			"aml_id": hexutil.Encode(amlID[:]),
			"score":  100,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("recovery with nothing to recover is 409", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/admin/recover", &adminAddr, map[string]any{
			"asset": "0x00000000000000000000000000000000000000cc",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestDirectFetchUnavailableOnNativeDeployment(t *testing.T) {
	router, vault := newTestServer(t)
	vault.Mint(clientAddr, interfaces.NativeAsset, big.NewInt(1000))

	w := doJSON(t, router, http.MethodPost, "/api/client/fetch", &clientAddr, map[string]any{
		"target": "t",
		"direct": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleAdministrationEndpoints(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/public/roles/SET_AML_STATUS_ROLE/members", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members roleMembersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Equal(t, []string{adminAddr.Hex()}, members.Members)

	w = doJSON(t, router, http.MethodPost, "/api/admin/roles/grant", &adminAddr, map[string]any{
		"role":      "SET_AML_STATUS_ROLE",
		"principal": clientAddr.Hex(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/public/roles/SET_AML_STATUS_ROLE/members", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Equal(t, []string{adminAddr.Hex(), clientAddr.Hex()}, members.Members)

	// Role administration itself is role-gated.
	w = doJSON(t, router, http.MethodPost, "/api/admin/roles/revoke", &clientAddr, map[string]any{
		"role":      "SET_AML_STATUS_ROLE",
		"principal": adminAddr.Hex(),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFeeSettingsEndpoints(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/public/fees/default", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var def struct {
		DefaultFee *big.Int `json:"default_fee"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	assert.Equal(t, int64(123), def.DefaultFee.Int64())

	w = doJSON(t, router, http.MethodPost, "/api/admin/fees/default", &adminAddr, map[string]any{"fee": 555})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/public/fees/default", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &def))
	assert.Equal(t, int64(555), def.DefaultFee.Int64())

	w = doJSON(t, router, http.MethodPost, "/api/admin/fees/account", &adminAddr, map[string]any{"account": clientAddr.Hex()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/public/fees/account", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var acct struct {
		FeeAccount string `json:"fee_account"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acct))
	assert.Equal(t, clientAddr.Hex(), acct.FeeAccount)
}

func TestDrainToggle(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/drain", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(t, router, http.MethodGet, "/undrain", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
