package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"payment-reconciler/internal/orders/app"
	"payment-reconciler/internal/orders/app/queries"
	"payment-reconciler/internal/orders/domain"
	"payment-reconciler/internal/orders/ports"
	"payment-reconciler/internal/payments"
)

// maxWebhookBody bounds inbound notification payloads.
const maxWebhookBody = 1 << 20

// Handler exposes HTTP endpoints for order and webhook operations.
type Handler struct {
	service *app.Service
	auth    *payments.Authenticator
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, auth *payments.Authenticator) *Handler {
	return &Handler{service: service, auth: auth}
}

// Register binds the handlers to the provided ServeMux. Order routes require
// the caller identity header; the webhook route authenticates by signature
// instead.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/v1/orders", RequireCaller(http.HandlerFunc(h.handleOrders)))
	mux.Handle("/v1/orders/", RequireCaller(http.HandlerFunc(h.handleOrderByID)))
	mux.HandleFunc("/v1/webhooks/payment", h.handleWebhook)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createOrder(w, r)
	case http.MethodGet:
		h.listOrders(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
	if trimmed == "" {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if strings.HasSuffix(trimmed, "/checkout") {
		id := strings.TrimSuffix(trimmed, "/checkout")
		id = strings.TrimSuffix(id, "/")
		if id == "" {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.createCheckoutSession(w, r, id)
		return
	}

	id := strings.TrimSuffix(trimmed, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.getOrder(w, r, id)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload app.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(payload.ItemID) == "" {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), CallerID(r.Context()), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request, id string) {
	result, err := h.service.CreateCheckoutSession(r.Context(), CallerID(r.Context()), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":   result.SessionID,
		"redirect_url": result.RedirectURL,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, id string) {
	order, err := h.service.GetOrder(r.Context(), CallerID(r.Context()), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := queries.ListOrdersQuery{CallerID: CallerID(r.Context())}

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status := domain.OrderStatus(statusParam)
		query.Status = &status
	}

	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		if page, err := strconv.Atoi(pageParam); err == nil {
			query.Page = page
		}
	}

	if pageSizeParam := r.URL.Query().Get("page_size"); pageSizeParam != "" {
		if pageSize, err := strconv.Atoi(pageSizeParam); err == nil {
			query.PageSize = pageSize
		}
	}

	orders, err := h.service.ListOrders(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// handleWebhook receives provider notifications. The raw body is verified
// against the signature header before any parsing. Responses follow the
// provider's retry contract: 200 for everything accepted (no-ops and ignored
// types included), 400 only for authentication failures or unparsable
// payloads, 5xx when a retry might succeed.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}

	event, err := h.auth.Authenticate(body, r.Header.Get(payments.SignatureHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid signature or payload")
		return
	}

	_, err = h.service.ProcessEvent(r.Context(), *event)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	case errors.Is(err, ports.ErrAlreadySettled):
		// Anomaly already routed to the alert log; acknowledging stops an
		// otherwise endless redelivery loop.
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	case errors.Is(err, payments.ErrMalformedEvent):
		writeError(w, http.StatusBadRequest, "unparsable event")
	default:
		writeError(w, http.StatusInternalServerError, "event processing failed")
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ports.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ports.ErrAlreadySettled),
		errors.Is(err, ports.ErrSessionExists),
		errors.Is(err, ports.ErrItemUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ports.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
