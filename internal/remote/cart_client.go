package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

// CartClient reads the authenticated user's cart from the cart service.
type CartClient struct {
	c *Client
}

func NewCartClient(c *Client) *CartClient {
	return &CartClient{c: c}
}

// LoadCart fetches the current cart as a flat list of line items. An empty
// cart is ErrEmptyCart so the orchestrator never offers checkout for it.
func (c *CartClient) LoadCart(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	ctx = context.WithValue(ctx, "user_id", userID)

	var items []domain.CartLineItem
	if err := c.c.doJSON(ctx, http.MethodGet, "/Cart", nil, &items); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	for _, item := range items {
		if item.Quantity < 1 || item.UnitPrice < 0 {
			return nil, fmt.Errorf("cart service returned invalid line for product %d: quantity=%d price=%.2f",
				item.ProductID, item.Quantity, item.UnitPrice)
		}
	}

	return items, nil
}
