package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

const createSaleMutation = `
  mutation CreateSale(
    $sellerId: Int!,
    $exchange_rate: Float!,
    $total_cup: Float!,
    $buyer_phone: String!,
    $payment_method: PaymentMethod!,
    $notes: String,
    $items: [SaleItemInput!]!
  ) {
    createSale(
      sellerId: $sellerId,
      exchange_rate: $exchange_rate,
      total_cup: $total_cup,
      buyer_phone: $buyer_phone,
      payment_method: $payment_method,
      notes: $notes,
      items: $items
    ) {
      id_sale
      total_cup
    }
  }`

// SaleClient submits checkout drafts to the backend's sale-creation
// mutation. The call sits behind a circuit breaker so a struggling backend
// fails fast instead of stacking up doomed submissions; a rejected or
// short-circuited call leaves the cart untouched either way.
type SaleClient struct {
	gql     *Client
	breaker *gobreaker.CircuitBreaker[domain.SaleConfirmation]
}

func NewSaleClient(gql *Client) *SaleClient {
	settings := gobreaker.Settings{
		Name:    "sale-creation",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &SaleClient{
		gql:     gql,
		breaker: gobreaker.NewCircuitBreaker[domain.SaleConfirmation](settings),
	}
}

type createSaleData struct {
	CreateSale struct {
		IDSale   int64   `json:"id_sale"`
		TotalCUP float64 `json:"total_cup"`
	} `json:"createSale"`
}

func (c *SaleClient) CreateSale(ctx context.Context, draft *domain.CheckoutDraft) (domain.SaleConfirmation, error) {
	items := make([]map[string]any, len(draft.Lines))
	for i, line := range draft.Lines {
		items[i] = map[string]any{
			"productId": line.ProductID,
			"quantity":  line.Quantity,
		}
	}

	variables := map[string]any{
		"sellerId":       draft.SellerID,
		"exchange_rate":  draft.ExchangeRate,
		"total_cup":      draft.TotalAmount,
		"buyer_phone":    draft.BuyerPhone,
		"payment_method": draft.PaymentMethod.String(),
		"notes":          draft.Notes,
		"items":          items,
	}

	return c.breaker.Execute(func() (domain.SaleConfirmation, error) {
		var data createSaleData
		if err := c.gql.Do(ctx, createSaleMutation, variables, &data); err != nil {
			return domain.SaleConfirmation{}, fmt.Errorf("create sale: %w", err)
		}
		return domain.SaleConfirmation{
			SaleID:      data.CreateSale.IDSale,
			TotalAmount: data.CreateSale.TotalCUP,
		}, nil
	})
}
