// Package checkout turns a seller's cart into a sale. A submission
// validates the cart, freezes it into an immutable draft, hands the draft
// to the sale-creation collaborator, and on confirmation clears the cart
// and invalidates the catalog snapshot. While one submission is in flight
// the seller's session is busy and further submissions are rejected.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dreamer95g/habana-express-app/internal/backend"
	"github.com/dreamer95g/habana-express-app/internal/domain"
	"github.com/dreamer95g/habana-express-app/internal/notify"
	"github.com/dreamer95g/habana-express-app/internal/pricing"
)

var (
	// ErrCheckoutInFlight rejects a submission while the seller already has
	// one running.
	ErrCheckoutInFlight = errors.New("checkout already in progress")

	// ErrEmptyCart rejects a submission with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrMissingBuyerPhone rejects a submission without a buyer phone.
	ErrMissingBuyerPhone = errors.New("buyer phone is required")

	// ErrInvalidPaymentMethod rejects an unknown payment method.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// CartStore is the slice of the cart service checkout needs: read the cart
// to freeze it, clear it after the sale is confirmed.
type CartStore interface {
	Cart(ctx context.Context, sellerID int64) (*domain.Cart, error)
	Clear(ctx context.Context, sellerID int64) error
}

// CatalogInvalidator drops a seller's cached catalog snapshot. Called
// after a confirmed sale, when stock levels have moved.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, sellerID int64)
}

// ConfigProvider supplies the exchange rate and commission percentage
// captured into the draft.
type ConfigProvider interface {
	Config(ctx context.Context) domain.SystemConfig
}

// SaleCreator is the sale-creation collaborator. An error means the sale
// did not happen and the cart must survive untouched.
type SaleCreator interface {
	CreateSale(ctx context.Context, draft *domain.CheckoutDraft) (domain.SaleConfirmation, error)
}

// SaleJournal records confirmed sales locally. Journal failures never fail
// a checkout; the backend already owns the sale at that point.
type SaleJournal interface {
	RecordSale(ctx context.Context, record *domain.SaleRecord) error
}

// Request carries the buyer-facing fields of a submission. The items and
// amounts come from the cart, never from the caller.
type Request struct {
	BuyerPhone    string
	PaymentMethod domain.PaymentMethod
	Notes         string
}

type Submitter struct {
	carts    CartStore
	catalog  CatalogInvalidator
	config   ConfigProvider
	sales    SaleCreator
	journal  SaleJournal
	notifier notify.Notifier
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

func NewSubmitter(carts CartStore, catalog CatalogInvalidator, config ConfigProvider, sales SaleCreator, journal SaleJournal, notifier notify.Notifier, logger *zap.Logger) *Submitter {
	return &Submitter{
		carts:    carts,
		catalog:  catalog,
		config:   config,
		sales:    sales,
		journal:  journal,
		notifier: notifier,
		logger:   logger,
		inFlight: make(map[int64]struct{}),
	}
}

// Submit runs one checkout for the seller: validate, freeze a draft,
// create the sale, then clear the cart and invalidate the catalog. On any
// failure the cart is exactly as it was before the call.
func (s *Submitter) Submit(ctx context.Context, sellerID int64, req Request) (domain.SaleConfirmation, error) {
	if !s.acquire(sellerID) {
		s.notifier.Publish(sellerID, notify.Warning(notify.CodeCheckoutBusy, "a checkout is already in progress"))
		return domain.SaleConfirmation{}, ErrCheckoutInFlight
	}
	defer s.release(sellerID)

	cart, err := s.carts.Cart(ctx, sellerID)
	if err != nil {
		return domain.SaleConfirmation{}, fmt.Errorf("load cart: %w", err)
	}

	draft, err := s.buildDraft(ctx, sellerID, cart, req)
	if err != nil {
		return domain.SaleConfirmation{}, err
	}

	confirmation, err := s.sales.CreateSale(ctx, draft)
	if err != nil {
		s.logger.Warn("sale creation failed",
			zap.Int64("seller_id", sellerID),
			zap.String("draft_id", draft.DraftID.String()),
			zap.Error(err))
		s.notifier.Publish(sellerID, notify.Terminal(notify.CodeSaleFailed, failureMessage(err)))
		return domain.SaleConfirmation{}, err
	}

	// Clear the cart before invalidating the catalog, so a concurrent
	// catalog read cannot observe fresh stock next to the already-sold
	// cart.
	if err := s.carts.Clear(ctx, sellerID); err != nil {
		s.logger.Error("cart clear after confirmed sale failed",
			zap.Int64("seller_id", sellerID),
			zap.Int64("sale_id", confirmation.SaleID),
			zap.Error(err))
	}
	s.catalog.Invalidate(ctx, sellerID)

	s.record(ctx, draft, confirmation)

	s.notifier.Publish(sellerID, notify.Terminal(notify.CodeSaleSucceeded,
		fmt.Sprintf("sale %d created for %.2f %s", confirmation.SaleID, confirmation.TotalAmount, domain.SettlementCurrency)))

	s.logger.Info("sale confirmed",
		zap.Int64("seller_id", sellerID),
		zap.Int64("sale_id", confirmation.SaleID),
		zap.Float64("total", confirmation.TotalAmount))

	return confirmation, nil
}

func (s *Submitter) buildDraft(ctx context.Context, sellerID int64, cart *domain.Cart, req Request) (*domain.CheckoutDraft, error) {
	if cart.IsEmpty() {
		s.notifier.Publish(sellerID, notify.Warning(notify.CodeCartEmpty, "cart is empty"))
		return nil, ErrEmptyCart
	}

	buyerPhone := strings.TrimSpace(req.BuyerPhone)
	if buyerPhone == "" {
		s.notifier.Publish(sellerID, notify.Warning(notify.CodeMissingBuyerPhone, "buyer phone is required"))
		return nil, ErrMissingBuyerPhone
	}

	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	cfg := s.config.Config(ctx)
	lines := cart.CloneLines()
	totals := pricing.Calculate(lines, cfg.CommissionPercentage)

	return &domain.CheckoutDraft{
		DraftID:             uuid.New(),
		SellerID:            sellerID,
		BuyerPhone:          buyerPhone,
		PaymentMethod:       req.PaymentMethod,
		Lines:               lines,
		TotalAmount:         totals.TotalAmount,
		ExchangeRate:        cfg.ExchangeRate,
		EstimatedCommission: totals.EstimatedCommission,
		Notes:               strings.TrimSpace(req.Notes),
		CapturedAt:          time.Now().UTC(),
	}, nil
}

func (s *Submitter) record(ctx context.Context, draft *domain.CheckoutDraft, confirmation domain.SaleConfirmation) {
	if s.journal == nil {
		return
	}

	items := make([]domain.SaleRecordItem, len(draft.Lines))
	for i, line := range draft.Lines {
		items[i] = domain.SaleRecordItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	record := &domain.SaleRecord{
		ID:                  uuid.New(),
		DraftID:             draft.DraftID,
		SaleID:              confirmation.SaleID,
		SellerID:            draft.SellerID,
		BuyerPhone:          draft.BuyerPhone,
		PaymentMethod:       draft.PaymentMethod,
		TotalAmount:         confirmation.TotalAmount,
		ExchangeRate:        draft.ExchangeRate,
		EstimatedCommission: draft.EstimatedCommission,
		Currency:            domain.SettlementCurrency,
		Notes:               draft.Notes,
		Items:               items,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.journal.RecordSale(ctx, record); err != nil {
		s.logger.Warn("sale journal write failed",
			zap.Int64("sale_id", confirmation.SaleID),
			zap.Error(err))
	}
}

// failureMessage strips client-side wrapping so the seller sees the
// backend's own rejection text, nothing else.
func failureMessage(err error) string {
	var gqlErr *backend.GraphQLError
	if errors.As(err, &gqlErr) {
		return gqlErr.Error()
	}
	return err.Error()
}

func (s *Submitter) acquire(sellerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sellerID]; busy {
		return false
	}
	s.inFlight[sellerID] = struct{}{}
	return true
}

func (s *Submitter) release(sellerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, sellerID)
}
