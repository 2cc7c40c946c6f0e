package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mintgate/core"
	"mintgate/core/state"
	"mintgate/native/split"
	"mintgate/native/voucher"
)

// Server exposes the node's redemption, settlement and query operations over
// HTTP. Caller identity arrives as an explicit field on mutating requests;
// deployments front the gateway with their own authentication layer.
type Server struct {
	node    *core.Node
	log     *slog.Logger
	metrics *Metrics
	router  chi.Router
}

// NewServer builds the HTTP surface over the node.
func NewServer(node *core.Node, logger *slog.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		node:    node,
		log:     logger,
		metrics: NewMetrics(reg),
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/vouchers/item/redeem", s.handleRedeemItem)
		r.Post("/vouchers/purchase/redeem", s.handleRedeemPurchase)
		r.Get("/nonce/{address}", s.handleNonce)
		r.Get("/royalty", s.handleRoyaltyInfo)
		r.Post("/royalty", s.handleSetRoyalty)
		r.Route("/pools/{pool}", func(r chi.Router) {
			r.Get("/payees", s.handleListPayees)
			r.Get("/shares", s.handleSharesOf)
			r.Post("/payees", s.handleUpdatePayees)
			r.Post("/distribute", s.handleDistribute)
		})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// errBadRequest marks request decoding and parsing failures.
var errBadRequest = errors.New("gateway: bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.log.Info("request rejected", "path", r.URL.Path, "reason", err.Error())
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, voucher.ErrUnauthorized), errors.Is(err, split.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, split.ErrUnknownPayee):
		return http.StatusNotFound
	case errors.Is(err, voucher.ErrTransferFailed),
		errors.Is(err, split.ErrTransferFailed),
		errors.Is(err, state.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, voucher.ErrMalformedSignature),
		errors.Is(err, voucher.ErrItemsMismatch),
		errors.Is(err, voucher.ErrPriceMismatch),
		errors.Is(err, voucher.ErrNilVoucher),
		errors.Is(err, split.ErrInvalidPool),
		errors.Is(err, split.ErrDuplicatePayee),
		errors.Is(err, split.ErrZeroAddress),
		errors.Is(err, split.ErrZeroShare),
		errors.Is(err, split.ErrInvalidAmount),
		errors.Is(err, split.ErrShapeMismatch),
		errors.Is(err, split.ErrRoyaltyPercent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseAddress(raw string) ([20]byte, error) {
	normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
	decoded, err := hex.DecodeString(normalized)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: invalid address %q", errBadRequest, raw)
	}
	if len(decoded) != 20 {
		return [20]byte{}, fmt.Errorf("%w: invalid address %q: expected 20 bytes", errBadRequest, raw)
	}
	var addr [20]byte
	copy(addr[:], decoded)
	return addr, nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid amount %q", errBadRequest, raw)
	}
	return amount, nil
}

func encodeAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func poolFromRequest(r *http.Request) (split.Pool, error) {
	pool := split.Pool(strings.ToLower(strings.TrimSpace(chi.URLParam(r, "pool"))))
	if !pool.Valid() {
		return "", fmt.Errorf("%w: %s", split.ErrInvalidPool, pool)
	}
	return pool, nil
}

// --- Redemption ---

type redeemItemRequest struct {
	Caller  string                   `json:"caller"`
	Voucher voucher.ItemClaimVoucher `json:"voucher"`
}

type redeemItemResponse struct {
	Signer string `json:"signer"`
}

func (s *Server) handleRedeemItem(w http.ResponseWriter, r *http.Request) {
	var req redeemItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", errBadRequest, err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	signer, err := s.node.RedeemItemVoucher(caller, &req.Voucher)
	s.metrics.observeRedemption("item", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("item voucher redeemed", "caller", encodeAddress(caller), "signer", encodeAddress(signer), "items", len(req.Voucher.Items))
	s.writeJSON(w, http.StatusOK, redeemItemResponse{Signer: encodeAddress(signer)})
}

type redeemPurchaseRequest struct {
	Caller  string                  `json:"caller"`
	Payment string                  `json:"payment"`
	Voucher voucher.PurchaseVoucher `json:"voucher"`
}

type redeemPurchaseResponse struct {
	Wallet string `json:"wallet"`
	Target string `json:"target"`
	Data   string `json:"data"`
}

func (s *Server) handleRedeemPurchase(w http.ResponseWriter, r *http.Request) {
	var req redeemPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", errBadRequest, err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.node.RedeemPurchaseVoucher(caller, &req.Voucher, payment)
	s.metrics.observeRedemption("purchase", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("purchase voucher redeemed", "wallet", encodeAddress(req.Voucher.Wallet), "price", req.Voucher.Price.String())
	s.writeJSON(w, http.StatusOK, redeemPurchaseResponse{
		Wallet: encodeAddress(req.Voucher.Wallet),
		Target: encodeAddress(req.Voucher.Target),
		Data:   req.Voucher.Data,
	})
}

// --- Pools ---

type payeeEntry struct {
	Address string `json:"address"`
	Share   uint64 `json:"share"`
}

type updatePayeesRequest struct {
	Caller string       `json:"caller"`
	Remove []string     `json:"remove"`
	Add    []payeeEntry `json:"add"`
}

func (s *Server) handleUpdatePayees(w http.ResponseWriter, r *http.Request) {
	pool, err := poolFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updatePayeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", errBadRequest, err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	removals := make([][20]byte, 0, len(req.Remove))
	for _, raw := range req.Remove {
		addr, err := parseAddress(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		removals = append(removals, addr)
	}
	adds := make([][20]byte, 0, len(req.Add))
	shares := make([]uint64, 0, len(req.Add))
	for _, entry := range req.Add {
		addr, err := parseAddress(entry.Address)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		adds = append(adds, addr)
		shares = append(shares, entry.Share)
	}
	if err := s.node.UpdatePoolPayees(caller, pool, removals, adds, shares); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("pool payees updated", "pool", pool.String(), "removed", len(removals), "added", len(adds))
	s.writeJSON(w, http.StatusOK, nil)
}

type distributeRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	pool, err := poolFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", errBadRequest, err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	err = s.node.DistributePool(caller, pool, amount)
	s.metrics.observeDistribution(pool.String(), err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("pool settled", "pool", pool.String(), "amount", amount.String())
	s.writeJSON(w, http.StatusOK, nil)
}

type listPayeesResponse struct {
	Payees []string `json:"payees"`
}

func (s *Server) handleListPayees(w http.ResponseWriter, r *http.Request) {
	pool, err := poolFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	payees, err := s.node.ListPayees(pool)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	encoded := make([]string, 0, len(payees))
	for _, addr := range payees {
		encoded = append(encoded, encodeAddress(addr))
	}
	s.writeJSON(w, http.StatusOK, listPayeesResponse{Payees: encoded})
}

type sharesResponse struct {
	Shares []payeeEntry `json:"shares"`
}

func (s *Server) handleSharesOf(w http.ResponseWriter, r *http.Request) {
	pool, err := poolFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	raws := r.URL.Query()["addr"]
	addrs := make([][20]byte, 0, len(raws))
	for _, raw := range raws {
		addr, err := parseAddress(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		addrs = append(addrs, addr)
	}
	shares, err := s.node.SharesOf(pool, addrs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries := make([]payeeEntry, len(addrs))
	for i := range addrs {
		entries[i] = payeeEntry{Address: encodeAddress(addrs[i]), Share: shares[i]}
	}
	s.writeJSON(w, http.StatusOK, sharesResponse{Shares: entries})
}

// --- Queries ---

type nonceResponse struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	nonce, err := s.node.CurrentNonce(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonceResponse{Address: encodeAddress(addr), Nonce: nonce})
}

type royaltyResponse struct {
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

func (s *Server) handleRoyaltyInfo(w http.ResponseWriter, r *http.Request) {
	salePrice, err := parseAmount(r.URL.Query().Get("salePrice"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	receiver, amount, err := s.node.RoyaltyInfo(salePrice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, royaltyResponse{
		Receiver: encodeAddress(receiver),
		Amount:   amount.String(),
	})
}

type setRoyaltyRequest struct {
	Caller   string `json:"caller"`
	Receiver string `json:"receiver"`
	Percent  uint8  `json:"percent"`
}

func (s *Server) handleSetRoyalty(w http.ResponseWriter, r *http.Request) {
	var req setRoyaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: decode request: %v", errBadRequest, err))
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	receiver, err := parseAddress(req.Receiver)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.node.SetRoyalty(caller, receiver, req.Percent); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("royalty updated", "receiver", encodeAddress(receiver), "percent", req.Percent)
	s.writeJSON(w, http.StatusOK, nil)
}
