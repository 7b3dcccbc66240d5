package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ProductSku is the slice of a product the orchestrator cares about:
// whether the item ships physically, and what it weighs.
type ProductSku struct {
	Guid      string  `json:"guid"`
	Shippable bool    `json:"shippable"`
	WeightKg  float64 `json:"weight_kg"`
}

// ProductSkuLookup resolves shippability for line items when a new
// shipment splits off an order.
type ProductSkuLookup interface {
	FindByGuid(ctx context.Context, guid string) (*ProductSku, error)
}

// HTTPSkuLookup queries the product service over HTTP.
type HTTPSkuLookup struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSkuLookup creates a lookup against the product service base URL.
func NewHTTPSkuLookup(baseURL string) *HTTPSkuLookup {
	return &HTTPSkuLookup{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (l *HTTPSkuLookup) FindByGuid(ctx context.Context, guid string) (*ProductSku, error) {
	url := fmt.Sprintf("%s/products/internal/skus/%s", l.baseURL, guid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product service returned %d", resp.StatusCode)
	}

	var sku ProductSku
	if err := json.NewDecoder(resp.Body).Decode(&sku); err != nil {
		return nil, err
	}
	return &sku, nil
}
