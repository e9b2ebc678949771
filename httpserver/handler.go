package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ruteri/aml-oracle-backend/assets"
	"github.com/ruteri/aml-oracle-backend/interfaces"
	"github.com/ruteri/aml-oracle-backend/metrics"
)

// Header constants used in HTTP requests.
const (
	// CallerHeader carries the caller identity as a hex address. The server
	// trusts its authenticating front proxy to have verified it.
	CallerHeader = "X-AML-Caller"

	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024
)

// Handler processes HTTP requests for the oracle service. Authorization is
// not enforced at the router: every operation is role-gated inside the
// oracle core and the handler only translates identities and errors.
type Handler struct {
	oracle  interfaces.AMLOracle
	direct  interfaces.DirectFetcher // nil on deployments without pay-as-you-go
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHandler creates a new HTTP request handler. direct may be nil when the
// deployment does not offer direct settlement.
func NewHandler(oracle interfaces.AMLOracle, direct interfaces.DirectFetcher, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{
		oracle:  oracle,
		direct:  direct,
		metrics: m,
		log:     log,
	}
}

// statusForError maps the oracle's sentinel errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrInsufficientBalance),
		errors.Is(err, assets.ErrInsufficientFunds),
		errors.Is(err, interfaces.ErrFeeTooHigh):
		return http.StatusPaymentRequired
	case errors.Is(err, interfaces.ErrStatusNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrInvalidClient),
		errors.Is(err, interfaces.ErrInvalidScore),
		errors.Is(err, interfaces.ErrInvalidAmount),
		errors.Is(err, interfaces.ErrInvalidRoleID):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNothingToRecover):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) record(operation string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.metrics.RecordOperation(operation, outcome)
}

func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	h.record(operation, err)
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Operation failed", "operation", operation, "err", err)
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, operation string, response any) {
	h.record(operation, nil)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// caller extracts the caller identity from the request header.
func (h *Handler) caller(r *http.Request) (common.Address, error) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		return common.Address{}, errors.New("missing " + CallerHeader + " header")
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("invalid caller address")
	}
	addr := common.HexToAddress(raw)
	if addr == interfaces.NullIdentity {
		return common.Address{}, interfaces.ErrInvalidClient
	}
	return addr, nil
}

func (h *Handler) decode(r *http.Request, into any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize)).Decode(into)
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("invalid address: " + raw)
	}
	return common.HexToAddress(raw), nil
}

// parseRole accepts either a 32-byte hex role identifier or a role name,
// which is hashed the same way the core derives its identifiers.
func parseRole(raw string) (interfaces.RoleID, error) {
	if len(raw) >= 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		return interfaces.RoleIDFromHex(raw)
	}
	if raw == "" {
		return interfaces.RoleID{}, interfaces.ErrInvalidRoleID
	}
	return interfaces.Role(raw), nil
}

func parseAMLID(raw string) (interfaces.AMLID, error) {
	b, err := hexutil.Decode(raw)
	if err != nil {
		return interfaces.AMLID{}, err
	}
	if len(b) != interfaces.AMLIDLength {
		return interfaces.AMLID{}, errors.New("aml id must be 32 bytes")
	}
	var id interfaces.AMLID
	copy(id[:], b)
	return id, nil
}

type statusMetadataResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Fee       *big.Int  `json:"fee"`
}

// HandleStatusMetadata returns a record's timestamp and the fee a fetch
// would charge right now. Free and unauthenticated.
//
// URL format: GET /api/public/status/{client}/{target}/metadata
func (h *Handler) HandleStatusMetadata(w http.ResponseWriter, r *http.Request) {
	client, err := parseAddress(r.PathValue("client"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ts, fee, err := h.oracle.GetAMLStatusMetadata(client, r.PathValue("target"))
	if err != nil {
		h.writeError(w, "status_metadata", err)
		return
	}
	h.writeJSON(w, "status_metadata", statusMetadataResponse{Timestamp: ts, Fee: fee})
}

type roleMembersResponse struct {
	Role    string   `json:"role"`
	Members []string `json:"members"`
}

// HandleRoleMembers lists a role's holders in grant order.
//
// URL format: GET /api/public/roles/{role}/members
func (h *Handler) HandleRoleMembers(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r.PathValue("role"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	members := h.oracle.RoleMembers(role)
	hexed := make([]string, len(members))
	for i, m := range members {
		hexed[i] = m.Hex()
	}
	h.writeJSON(w, "role_members", roleMembersResponse{Role: role.String(), Members: hexed})
}

// HandleDefaultFee returns the fallback query fee.
//
// URL format: GET /api/public/fees/default
func (h *Handler) HandleDefaultFee(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "get_default_fee", map[string]*big.Int{"default_fee": h.oracle.GetDefaultFee()})
}

// HandleFeeAccount returns the identity that accrues collected fees.
//
// URL format: GET /api/public/fees/account
func (h *Handler) HandleFeeAccount(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "get_fee_account", map[string]string{"fee_account": h.oracle.GetFeeAccount().Hex()})
}

// HandleEscrowBalance returns an identity's escrow balance.
//
// URL format: GET /api/public/escrow/{account}
func (h *Handler) HandleEscrowBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(r.PathValue("account"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, "escrow_balance", map[string]*big.Int{"balance": h.oracle.BalanceOf(account)})
}

type askRequest struct {
	Target string   `json:"target"`
	MaxFee *big.Int `json:"max_fee"`
}

// HandleAsk emits the caller's advisory request for an assessment.
//
// URL format: POST /api/client/ask
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req askRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.oracle.AskAMLStatus(caller, req.MaxFee, req.Target); err != nil {
		h.writeError(w, "ask", err)
		return
	}
	h.writeJSON(w, "ask", map[string]string{"status": "asked"})
}

type fetchRequest struct {
	Target string   `json:"target"`
	MaxFee *big.Int `json:"max_fee"`

	// Direct selects pay-as-you-go settlement on deployments that offer it.
	Direct bool `json:"direct,omitempty"`
}

type fetchResponse struct {
	AMLID string `json:"aml_id"`
	Score uint8  `json:"score"`
	Flags uint64 `json:"flags"`
}

// HandleFetch returns the caller's assessment of a target, charging the fee
// through the selected payment strategy.
//
// URL format: POST /api/client/fetch
func (h *Handler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req fetchRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		id    interfaces.AMLID
		score uint8
		flags uint64
	)
	if req.Direct {
		if h.direct == nil {
			http.Error(w, "direct settlement not offered by this deployment", http.StatusBadRequest)
			return
		}
		id, score, flags, err = h.direct.FetchAMLStatusDirect(caller, req.MaxFee, req.Target)
	} else {
		id, score, flags, err = h.oracle.FetchAMLStatus(caller, req.MaxFee, req.Target)
	}
	if err != nil {
		h.writeError(w, "fetch", err)
		return
	}

	h.writeJSON(w, "fetch", fetchResponse{
		AMLID: hexutil.Encode(id[:]),
		Score: score,
		Flags: flags,
	})
}

type amountRequest struct {
	Amount *big.Int `json:"amount"`
}

// HandleDeposit credits the caller's escrow from their external balance.
//
// URL format: POST /api/client/deposit
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleAmountOp(w, r, "deposit", h.oracle.Deposit)
}

// HandleWithdraw returns escrowed funds to the caller's external balance.
//
// URL format: POST /api/client/withdraw
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleAmountOp(w, r, "withdraw", h.oracle.Withdraw)
}

func (h *Handler) handleAmountOp(w http.ResponseWriter, r *http.Request, operation string, op func(common.Address, *big.Int) error) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req amountRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := op(caller, req.Amount); err != nil {
		h.writeError(w, operation, err)
		return
	}
	if h.metrics != nil && req.Amount != nil {
		moved, _ := new(big.Float).SetInt(req.Amount).Float64()
		h.metrics.AmountsMoved.WithLabelValues(operation).Add(moved)
	}
	h.writeJSON(w, operation, map[string]*big.Int{"balance": h.oracle.BalanceOf(caller)})
}

type setStatusRequest struct {
	Client string   `json:"client"`
	Target string   `json:"target"`
	AMLID  string   `json:"aml_id"`
	Score  uint8    `json:"score"`
	Flags  uint64   `json:"flags"`
	Fee    *big.Int `json:"fee"`
}

// HandleSetStatus records or overwrites an assessment. Requires the status
// writer role.
//
// URL format: POST /api/admin/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req setStatusRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	client, err := parseAddress(req.Client)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amlID, err := parseAMLID(req.AMLID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.oracle.SetAMLStatus(caller, client, req.Target, amlID, req.Score, req.Flags, req.Fee); err != nil {
		h.writeError(w, "set_status", err)
		return
	}
	h.writeJSON(w, "set_status", map[string]string{"status": "set"})
}

// HandleDeleteStatus removes an assessment. Requires the status deleter role.
//
// URL format: DELETE /api/admin/status/{client}/{target}
func (h *Handler) HandleDeleteStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	client, err := parseAddress(r.PathValue("client"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.oracle.DeleteAMLStatus(caller, client, r.PathValue("target")); err != nil {
		h.writeError(w, "delete_status", err)
		return
	}
	h.writeJSON(w, "delete_status", map[string]string{"status": "deleted"})
}

type notifyRequest struct {
	Client  string `json:"client"`
	Message string `json:"message"`
}

// HandleNotify sends a one-way operator advisory to a client. Requires the
// notify role.
//
// URL format: POST /api/admin/notify
func (h *Handler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req notifyRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	client, err := parseAddress(req.Client)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.oracle.Notify(caller, client, req.Message); err != nil {
		h.writeError(w, "notify", err)
		return
	}
	h.writeJSON(w, "notify", map[string]string{"status": "notified"})
}

type roleChangeRequest struct {
	Role      string `json:"role"`
	Principal string `json:"principal"`
}

// HandleGrantRole adds a principal to a role. The caller must hold the
// role's admin role.
//
// URL format: POST /api/admin/roles/grant
func (h *Handler) HandleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "grant_role", h.oracle.GrantRole)
}

// HandleRevokeRole removes a principal from a role. The caller must hold
// the role's admin role.
//
// URL format: POST /api/admin/roles/revoke
func (h *Handler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "revoke_role", h.oracle.RevokeRole)
}

func (h *Handler) handleRoleChange(w http.ResponseWriter, r *http.Request, operation string, op func(common.Address, interfaces.RoleID, common.Address) error) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req roleChangeRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	principal, err := parseAddress(req.Principal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := op(caller, role, principal); err != nil {
		h.writeError(w, operation, err)
		return
	}
	h.writeJSON(w, operation, map[string]string{"role": role.String(), "principal": principal.Hex()})
}

type setFeeRequest struct {
	Fee *big.Int `json:"fee"`
}

// HandleSetDefaultFee updates the fallback query fee. Requires the default
// fee role.
//
// URL format: POST /api/admin/fees/default
func (h *Handler) HandleSetDefaultFee(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req setFeeRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.oracle.SetDefaultFee(caller, req.Fee); err != nil {
		h.writeError(w, "set_default_fee", err)
		return
	}
	h.writeJSON(w, "set_default_fee", map[string]*big.Int{"default_fee": h.oracle.GetDefaultFee()})
}

type setFeeAccountRequest struct {
	Account string `json:"account"`
}

// HandleSetFeeAccount designates the identity that accrues collected fees.
// Requires the fee account role.
//
// URL format: POST /api/admin/fees/account
func (h *Handler) HandleSetFeeAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req setFeeAccountRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.oracle.SetFeeAccount(caller, account); err != nil {
		h.writeError(w, "set_fee_account", err)
		return
	}
	h.writeJSON(w, "set_fee_account", map[string]string{"fee_account": h.oracle.GetFeeAccount().Hex()})
}

type recoverRequest struct {
	Asset string `json:"asset"`
}

// HandleRecover transfers stray assets out of oracle custody to the caller.
// Requires the deployment's recover role.
//
// URL format: POST /api/admin/recover
func (h *Handler) HandleRecover(w http.ResponseWriter, r *http.Request) {
	caller, err := h.caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req recoverRequest
	if err := h.decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	assetAddr, err := parseAddress(req.Asset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recovered, err := h.oracle.RecoverAssets(caller, interfaces.AssetID(assetAddr))
	if err != nil {
		h.writeError(w, "recover", err)
		return
	}
	h.writeJSON(w, "recover", map[string]*big.Int{"recovered": recovered})
}
