package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dreamer95g/habana-express-app/internal/domain"
	"github.com/dreamer95g/habana-express-app/internal/journal"
	"github.com/dreamer95g/habana-express-app/internal/notify"
)

// SalesReader serves the seller's journaled sales: the history listing and
// single-receipt lookup.
type SalesReader interface {
	ListSalesBySeller(ctx context.Context, sellerID int64) ([]*domain.SaleRecord, error)
	GetSaleByID(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error)
}

type SalesHandler struct {
	sales   SalesReader
	timeout time.Duration
}

func NewSalesHandler(sales SalesReader, timeout time.Duration) *SalesHandler {
	return &SalesHandler{sales: sales, timeout: timeout}
}

type salesResponse struct {
	Sales []*domain.SaleRecord `json:"sales"`
}

func (h *SalesHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	sales, err := h.sales.ListSalesBySeller(ctx, sellerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if sales == nil {
		sales = []*domain.SaleRecord{}
	}

	respondJSON(w, http.StatusOK, salesResponse{Sales: sales})
}

// GetSale serves one journaled sale as a receipt. A sale belonging to
// another seller is indistinguishable from a missing one.
func (h *SalesHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sellerID := sellerIDFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "sale_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_sale_id", "sale_id must be a valid UUID")
		return
	}

	sale, err := h.sales.GetSaleByID(ctx, id)
	if errors.Is(err, journal.ErrSaleNotFound) {
		respondError(w, http.StatusNotFound, "sale_not_found", "sale not found")
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if sale.SellerID != sellerID {
		respondError(w, http.StatusNotFound, "sale_not_found", "sale not found")
		return
	}

	respondJSON(w, http.StatusOK, sale)
}

// NotificationDrainer hands out and clears a seller's pending signals.
type NotificationDrainer interface {
	Drain(sellerID int64) []notify.Event
}

type NotificationsHandler struct {
	notifications NotificationDrainer
}

func NewNotificationsHandler(notifications NotificationDrainer) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

type notificationsResponse struct {
	Events []notify.Event `json:"events"`
}

// DrainNotifications returns the seller's pending signals and clears them;
// each signal is delivered to the UI exactly once.
func (h *NotificationsHandler) DrainNotifications(w http.ResponseWriter, r *http.Request) {
	sellerID := sellerIDFromContext(r.Context())

	events := h.notifications.Drain(sellerID)
	if events == nil {
		events = []notify.Event{}
	}

	respondJSON(w, http.StatusOK, notificationsResponse{Events: events})
}
