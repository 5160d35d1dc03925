package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

func gqlServer(t *testing.T, handler func(query string, variables map[string]any) (any, []string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data, errMessages := handler(req.Query, req.Variables)

		resp := map[string]any{"data": data}
		if len(errMessages) > 0 {
			gqlErrors := make([]map[string]string, len(errMessages))
			for i, msg := range errMessages {
				gqlErrors[i] = map[string]string{"message": msg}
			}
			resp["errors"] = gqlErrors
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Do_Success(t *testing.T) {
	srv := gqlServer(t, func(string, map[string]any) (any, []string) {
		return map[string]any{"ping": "pong"}, nil
	})
	client := NewClient(srv.URL, "", time.Second)

	var out struct {
		Ping string `json:"ping"`
	}
	require.NoError(t, client.Do(context.Background(), "query { ping }", nil, &out))
	assert.Equal(t, "pong", out.Ping)
}

func TestClient_Do_GraphQLErrorSurfacesMessage(t *testing.T) {
	srv := gqlServer(t, func(string, map[string]any) (any, []string) {
		return nil, []string{"insufficient stock on server"}
	})
	client := NewClient(srv.URL, "", time.Second)

	err := client.Do(context.Background(), "mutation { x }", nil, nil)
	require.Error(t, err)

	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "insufficient stock on server", gqlErr.Error())
}

func TestClient_Do_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "", time.Second)

	err := client.Do(context.Background(), "query { ping }", nil, nil)
	assert.ErrorContains(t, err, "status 502")
}

func TestClient_Do_SendsAuthHeader(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{}}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "tok-123", time.Second)
	require.NoError(t, client.Do(context.Background(), "query { ping }", nil, nil))
	assert.Equal(t, "Bearer tok-123", gotAuth.Load())
}

func TestStockClient_ParsesSellerProducts(t *testing.T) {
	srv := gqlServer(t, func(_ string, variables map[string]any) (any, []string) {
		assert.Equal(t, float64(7), variables["sellerId"])
		return map[string]any{
			"sellerProducts": []map[string]any{
				{
					"quantity": 3,
					"product": map[string]any{
						"id_product": 11,
						"name":       "Arroz 1kg",
						"photo_url":  "https://cdn/arroz.jpg",
						"sale_price": 250.0,
					},
				},
				{
					"quantity": 0,
					"product": map[string]any{
						"id_product": 12,
						"name":       "Frijoles",
						"sale_price": 300.0,
					},
				},
			},
		}, nil
	})

	stock := NewStockClient(NewClient(srv.URL, "", time.Second))
	records, err := stock.SellerProducts(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, domain.SellerStockRecord{
		ProductID: 11,
		Name:      "Arroz 1kg",
		PhotoURL:  "https://cdn/arroz.jpg",
		SalePrice: 250,
		Quantity:  3,
	}, records[0])
	assert.Equal(t, int32(0), records[1].Quantity)
}

func TestConfigSource_FetchAndCache(t *testing.T) {
	var calls atomic.Int32
	srv := gqlServer(t, func(string, map[string]any) (any, []string) {
		calls.Add(1)
		return map[string]any{
			"systemConfiguration": []map[string]any{
				{"default_exchange_rate": 120.0, "seller_commission_percentage": 10.0},
			},
		}, nil
	})

	source := NewConfigSource(NewClient(srv.URL, "", time.Second), zap.NewNop())
	ctx := context.Background()

	cfg := source.Config(ctx)
	assert.Equal(t, 120.0, cfg.ExchangeRate)
	assert.Equal(t, 10.0, cfg.CommissionPercentage)

	// Within the TTL the snapshot is reused.
	source.Config(ctx)
	assert.Equal(t, int32(1), calls.Load())
}

func TestConfigSource_DefaultsWhenUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	source := NewConfigSource(NewClient(srv.URL, "", time.Second), zap.NewNop())

	cfg := source.Config(context.Background())
	assert.Equal(t, 1.0, cfg.ExchangeRate)
	assert.Equal(t, 0.0, cfg.CommissionPercentage)
}

func TestConfigSource_EmptyConfigurationUsesDefaults(t *testing.T) {
	srv := gqlServer(t, func(string, map[string]any) (any, []string) {
		return map[string]any{"systemConfiguration": []map[string]any{}}, nil
	})

	source := NewConfigSource(NewClient(srv.URL, "", time.Second), zap.NewNop())

	cfg := source.Config(context.Background())
	assert.Equal(t, domain.DefaultSystemConfig(), cfg)
}

func draftFixture() *domain.CheckoutDraft {
	return &domain.CheckoutDraft{
		DraftID:       uuid.New(),
		SellerID:      7,
		BuyerPhone:    "5550001",
		PaymentMethod: domain.PaymentCash,
		Lines: []domain.CartLine{
			{ProductID: 11, Name: "Arroz 1kg", UnitPrice: 250, AvailableQuantity: 3, Quantity: 2},
		},
		TotalAmount:  500,
		ExchangeRate: 120,
	}
}

func TestSaleClient_CreateSale(t *testing.T) {
	srv := gqlServer(t, func(_ string, variables map[string]any) (any, []string) {
		assert.Equal(t, float64(7), variables["sellerId"])
		assert.Equal(t, "5550001", variables["buyer_phone"])
		assert.Equal(t, "cash", variables["payment_method"])
		items, ok := variables["items"].([]any)
		require.True(t, ok)
		require.Len(t, items, 1)

		return map[string]any{
			"createSale": map[string]any{"id_sale": 99, "total_cup": 500.0},
		}, nil
	})

	sales := NewSaleClient(NewClient(srv.URL, "", time.Second))
	conf, err := sales.CreateSale(context.Background(), draftFixture())
	require.NoError(t, err)
	assert.Equal(t, int64(99), conf.SaleID)
	assert.Equal(t, 500.0, conf.TotalAmount)
}

func TestSaleClient_BackendRejectionSurfacesMessage(t *testing.T) {
	srv := gqlServer(t, func(string, map[string]any) (any, []string) {
		return nil, []string{"insufficient stock on server"}
	})

	sales := NewSaleClient(NewClient(srv.URL, "", time.Second))
	_, err := sales.CreateSale(context.Background(), draftFixture())
	require.Error(t, err)
	assert.ErrorContains(t, err, "insufficient stock on server")
}

func TestSaleClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	sales := NewSaleClient(NewClient(srv.URL, "", time.Second))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := sales.CreateSale(ctx, draftFixture())
		require.Error(t, err)
	}

	_, err := sales.CreateSale(ctx, draftFixture())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
