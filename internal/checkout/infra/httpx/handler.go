package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront-checkout/internal/checkout/app"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/core/ports"
	"github.com/jcmexdev/storefront-checkout/internal/checkout/eventlog"
)

// webhookMaxBody bounds the raw payload read for signature verification.
// 64 KiB matches the provider's own endpoint examples.
const webhookMaxBody = 65536

// CheckoutService is what the handler needs from the application layer.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, cart []entity.CartItem, user entity.User, origin string) (*entity.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*app.SessionDetails, error)
	RecordConfirmedSale(ctx context.Context, sessionID string) (created bool, err error)
	RecordDirectSale(ctx context.Context, userID string, products []entity.SaleItem) (*entity.Sale, error)
	ListSales(ctx context.Context) ([]app.PopulatedSale, error)
	ListUserSales(ctx context.Context, userID string) ([]app.PopulatedSale, error)
}

// Handler handles incoming HTTP requests for checkout and sale recording.
type Handler struct {
	service  CheckoutService
	verifier ports.WebhookVerifier
	events   eventlog.Repository // nil-safe: logging skipped if nil
}

// NewHandler initializes the handler with its required collaborators.
// events may be nil — in that case webhook deliveries are not persisted to
// the audit log.
func NewHandler(service CheckoutService, verifier ports.WebhookVerifier, events eventlog.Repository) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		events:   events,
	}
}

// CreateCheckoutSession validates the submitted cart and opens a hosted
// provider session. Failures keep the storefront's established error
// contract: {statusCode: 500, message, error}.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if len(req.CartItems) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "cartItems is required")
		return
	}
	for _, item := range req.CartItems {
		if item.ProductID == "" || item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_item", "id and quantity must be valid")
			return
		}
	}

	session, err := h.service.CreateCheckoutSession(r.Context(), req.CartItems, req.User, r.Header.Get("Origin"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ProviderErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    err.Error(),
			Error:      err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// GetCheckoutSession returns one provider session with its line items and
// product details. The id must carry the provider's "cs_" prefix.
func (h *Handler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	details, err := h.service.GetCheckoutSession(r.Context(), sessionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "checkout session lookup failed", "session_id", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, ProviderErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// Webhook receives provider event deliveries. The signature is verified
// before anything else; an unverified payload gets a plain-text 400 and no
// further processing. Completed-checkout events run the sale recorder
// synchronously — a failure answers non-2xx so the provider redelivers,
// which is safe because recording is idempotent per session.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, webhookMaxBody))
	if err != nil {
		http.Error(w, "Webhook error: unreadable body", http.StatusBadRequest)
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		http.Error(w, "Webhook error: signature verification failed", http.StatusBadRequest)
		return
	}

	if event.Type != ports.EventCheckoutSessionCompleted {
		h.logEvent(r.Context(), event, eventlog.StatusIgnored, "")
		writeJSON(w, http.StatusOK, WebhookAck{Received: true})
		return
	}

	created, err := h.service.RecordConfirmedSale(r.Context(), event.Session.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "sale recording failed",
			"session_id", event.Session.ID, "event_id", event.ID, "error", err)
		h.logEvent(r.Context(), event, eventlog.StatusFailed, err.Error())
		writeError(w, http.StatusInternalServerError, "sale_recording_failed", err.Error())
		return
	}

	status := eventlog.StatusRecorded
	if !created {
		status = eventlog.StatusDuplicate
	}
	h.logEvent(r.Context(), event, status, "")

	writeJSON(w, http.StatusOK, WebhookAck{Received: true})
}

// DirectCheckout persists a trusted client-submitted sale without payment
// verification.
func (h *Handler) DirectCheckout(w http.ResponseWriter, r *http.Request) {
	var req DirectCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if req.User == "" || len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "user and products are required")
		return
	}
	for _, item := range req.Products {
		if item.Item == "" || item.Qty <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_item", "item and qty must be valid")
			return
		}
	}

	sale, err := h.service.RecordDirectSale(r.Context(), req.User, req.Products)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sale_insert_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, sale)
}

// ListSales returns every sale with product details joined in.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.ListSales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sales_query_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string][]app.PopulatedSale{"sales": sales})
}

// ListUserSales returns one user's sales with product details joined in.
func (h *Handler) ListUserSales(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id_required", "")
		return
	}

	sales, err := h.service.ListUserSales(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sales_query_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string][]app.PopulatedSale{"sales": sales})
}

// logEvent appends the delivery to the audit log. Log failures must never
// change the webhook response, so they are only logged.
func (h *Handler) logEvent(ctx context.Context, event ports.WebhookEvent, status eventlog.Status, errMsg string) {
	if h.events == nil {
		return
	}

	entry := eventlog.NewEntry(ctx, event.ID, event.Type, event.Session.ID, status, errMsg)
	if err := h.events.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to persist webhook event", "event_id", event.ID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
