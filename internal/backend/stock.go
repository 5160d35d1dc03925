package backend

import (
	"context"
	"fmt"

	"github.com/dreamer95g/habana-express-app/internal/domain"
)

const sellerProductsQuery = `
  query GetSellerProducts($sellerId: Int!) {
    sellerProducts(sellerId: $sellerId) {
      quantity
      product {
        id_product
        name
        photo_url
        sale_price
      }
    }
  }`

// StockClient reads a seller's assigned stock from the backend.
type StockClient struct {
	gql *Client
}

func NewStockClient(gql *Client) *StockClient {
	return &StockClient{gql: gql}
}

type sellerProductsData struct {
	SellerProducts []struct {
		Quantity int32 `json:"quantity"`
		Product  struct {
			IDProduct int64   `json:"id_product"`
			Name      string  `json:"name"`
			PhotoURL  string  `json:"photo_url"`
			SalePrice float64 `json:"sale_price"`
		} `json:"product"`
	} `json:"sellerProducts"`
}

func (c *StockClient) SellerProducts(ctx context.Context, sellerID int64) ([]domain.SellerStockRecord, error) {
	var data sellerProductsData
	err := c.gql.Do(ctx, sellerProductsQuery, map[string]any{"sellerId": sellerID}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch seller products: %w", err)
	}

	records := make([]domain.SellerStockRecord, len(data.SellerProducts))
	for i, sp := range data.SellerProducts {
		records[i] = domain.SellerStockRecord{
			ProductID: sp.Product.IDProduct,
			Name:      sp.Product.Name,
			PhotoURL:  sp.Product.PhotoURL,
			SalePrice: sp.Product.SalePrice,
			Quantity:  sp.Quantity,
		}
	}
	return records, nil
}
