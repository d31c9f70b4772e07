package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/dacadeorg/icp-azle-201/internal/kafka"
	"github.com/dacadeorg/icp-azle-201/internal/ledger"
	"github.com/dacadeorg/icp-azle-201/internal/market"
	"github.com/dacadeorg/icp-azle-201/internal/redisx"
)

// callerHeader carries the identity established by the external login flow.
const callerHeader = "X-Caller-Id"

type MarketHandler struct {
	Catalog  *market.Catalog
	Checkout *market.Checkout
	Ledger   ledger.Client
	Redis    *redis.Client // optional status cache
	Service  string
	Log      *slog.Logger

	ProducerCreated   *kafkax.Producer
	ProducerCompleted *kafkax.Producer
}

type CreateOrderReq struct {
	ProductID string `json:"product_id"`
}

// CreateOrderResp tells the UI everything it needs to build the ledger
// transfer: receiving address, amount, memo, and the current fee.
type CreateOrderResp struct {
	Order         market.PendingOrder `json:"order"`
	SellerAddress string              `json:"seller_address"`
	TransferFee   uint64              `json:"transfer_fee"`
}

type CompletePurchaseReq struct {
	Seller        string `json:"seller"`
	ProductID     string `json:"product_id"`
	Price         uint64 `json:"price"`
	BlockIndex    uint64 `json:"block_index"`
	CorrelationID uint64 `json:"correlation_id"`
}

func (h *MarketHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products", h.addProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)

	r.Post("/orders", h.createOrder)
	r.Post("/orders/complete", h.completePurchase)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/pending", h.listPending)
	r.Get("/orders/{memo}/status", h.orderStatus)

	r.Get("/ledger/address/{owner}", h.ledgerAddress)
	r.Get("/ledger/fee", h.ledgerFee)
	r.Get("/ledger/balance/{address}", h.ledgerBalance)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, market.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, market.ErrInvalidPayload):
		code = http.StatusBadRequest
	case errors.Is(err, market.ErrPaymentVerificationFailed):
		code = http.StatusPaymentRequired
	case errors.Is(err, market.ErrLedgerUnavailable):
		code = http.StatusBadGateway
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func caller(r *http.Request) string { return r.Header.Get(callerHeader) }

func (h *MarketHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.List(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *MarketHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *MarketHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var in market.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, market.ErrInvalidPayload)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Add(ctx, caller(r), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *MarketHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in market.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, market.ErrInvalidPayload)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Update(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *MarketHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id, err := h.Catalog.Delete(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *MarketHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeErr(w, market.ErrInvalidPayload)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Checkout.CreateOrder(ctx, caller(r), req.ProductID)
	if err != nil {
		writeErr(w, err)
		return
	}

	// Fee is advisory for the UI; a ledger hiccup must not undo the order.
	fee, err := h.Ledger.TransferFee(ctx)
	if err != nil {
		h.Log.Warn("transfer fee lookup failed", "err", err)
		fee = 0
	}

	h.cacheStatus(ctx, o.CorrelationID, market.StatusPaymentPending)
	h.publish(h.ProducerCreated, market.EventOrderCreated, o.CorrelationID, r,
		market.OrderCreatedPayload{
			CorrelationID: o.CorrelationID,
			ProductID:     o.ProductID,
			Buyer:         o.Buyer,
			Seller:        o.Seller,
			Price:         o.Price,
		})

	writeJSON(w, http.StatusCreated, CreateOrderResp{
		Order:         o,
		SellerAddress: ledger.AccountIdentifier(o.Seller),
		TransferFee:   fee,
	})
}

func (h *MarketHandler) completePurchase(w http.ResponseWriter, r *http.Request) {
	var req CompletePurchaseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" || req.CorrelationID == 0 {
		writeErr(w, market.ErrInvalidPayload)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	done, err := h.Checkout.CompletePurchase(ctx, caller(r), req.Seller, req.ProductID,
		req.Price, req.BlockIndex, req.CorrelationID)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(ctx, done.CorrelationID, market.StatusCompleted)
	h.publish(h.ProducerCompleted, market.EventOrderCompleted, done.CorrelationID, r,
		market.OrderCompletedPayload{
			CorrelationID: done.CorrelationID,
			ProductID:     done.ProductID,
			Buyer:         done.Buyer,
			Price:         done.Price,
			PaidAtBlock:   done.PaidAtBlock,
		})

	writeJSON(w, http.StatusOK, done)
}

func (h *MarketHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	if caller(r) == "" {
		writeErr(w, market.ErrInvalidPayload)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Checkout.History(ctx, caller(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MarketHandler) listPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Checkout.PendingOrders(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *MarketHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	memo, err := strconv.ParseUint(chi.URLParam(r, "memo"), 10, 64)
	if err != nil {
		writeErr(w, market.ErrInvalidPayload)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, memo)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	pending, err := h.Checkout.PendingOrders(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	for _, o := range pending {
		if o.CorrelationID == memo {
			writeJSON(w, http.StatusOK, map[string]market.Status{"status": market.StatusPaymentPending})
			return
		}
	}

	if c := caller(r); c != "" {
		history, err := h.Checkout.History(ctx, c)
		if err != nil {
			writeErr(w, err)
			return
		}
		for _, o := range history {
			if o.CorrelationID == memo {
				writeJSON(w, http.StatusOK, map[string]market.Status{"status": market.StatusCompleted})
				return
			}
		}
	}
	writeErr(w, market.ErrNotFound)
}

func (h *MarketHandler) ledgerAddress(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if owner == "" {
		writeErr(w, market.ErrInvalidPayload)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": ledger.AccountIdentifier(owner)})
}

func (h *MarketHandler) ledgerFee(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	fee, err := h.Ledger.TransferFee(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"fee": fee})
}

func (h *MarketHandler) ledgerBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	bal, err := h.Ledger.Balance(ctx, chi.URLParam(r, "address"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": bal})
}

func (h *MarketHandler) cacheStatus(ctx context.Context, memo uint64, s market.Status) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, memo)
	_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, s), redisx.TTLStatusCache).Err()
}

func (h *MarketHandler) publish(p *kafkax.Producer, eventType string, memo uint64, r *http.Request, payload any) {
	if p == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: strconv.FormatUint(memo, 10),
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(market.PartitionKey(memo), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
