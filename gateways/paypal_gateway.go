package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"payment-orchestrator/models"
)

const paypalBaseURL = "https://api-m.paypal.com"

// PayPalGateway services PayPal Express payments over the Orders API.
// Express checkout is authorized once for the whole order.
type PayPalGateway struct {
	clientID   string
	secret     string
	baseURL    string
	httpClient *http.Client
}

// NewPayPalGateway creates a PayPal gateway using the live endpoint.
func NewPayPalGateway(clientID, secret string) *PayPalGateway {
	return &PayPalGateway{
		clientID: clientID,
		secret:   secret,
		baseURL:  paypalBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (g *PayPalGateway) GatewayType() models.PaymentGatewayType {
	return models.GatewayTypePayPal
}

// ---- PayPal API request/response structs ----

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"` // AUTHORIZE or CAPTURE
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
}

type paypalAuthorization struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type paypalOrderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Authorizations []paypalAuthorization `json:"authorizations"`
			Captures       []paypalAuthorization `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func paypalValue(amountMinor int64) string {
	sign := ""
	if amountMinor < 0 {
		sign = "-"
		amountMinor = -amountMinor
	}
	return sign + strconv.FormatInt(amountMinor/100, 10) + "." + fmt.Sprintf("%02d", amountMinor%100)
}

func (g *PayPalGateway) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.clientID, g.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("paypal returned %d: %s", resp.StatusCode, string(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PreAuthorize creates and authorizes a PayPal order for the payment
// amount. The authorization id becomes the authorization code.
func (g *PayPalGateway) PreAuthorize(ctx context.Context, payment *models.OrderPayment, _ *models.Address) error {
	reqBody := paypalOrderRequest{
		Intent: "AUTHORIZE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: payment.OrderNumber,
			Amount:      paypalAmount{CurrencyCode: payment.Currency, Value: paypalValue(payment.AmountMinor)},
		}},
	}

	var created paypalOrderResponse
	if err := g.post(ctx, "/v2/checkout/orders", reqBody, &created); err != nil {
		return fmt.Errorf("paypal preauthorize: %w", err)
	}

	var authorized paypalOrderResponse
	if err := g.post(ctx, "/v2/checkout/orders/"+created.ID+"/authorize", nil, &authorized); err != nil {
		return fmt.Errorf("paypal preauthorize: %w", err)
	}

	payment.ReferenceID = &created.ID
	for _, unit := range authorized.PurchaseUnits {
		if len(unit.Payments.Authorizations) > 0 {
			payment.AuthorizationCode = unit.Payments.Authorizations[0].ID
			return nil
		}
	}
	return fmt.Errorf("paypal preauthorize: order %s returned no authorization", created.ID)
}

// Capture settles a previously issued authorization.
func (g *PayPalGateway) Capture(ctx context.Context, payment *models.OrderPayment) error {
	body := map[string]interface{}{
		"amount":        paypalAmount{CurrencyCode: payment.Currency, Value: paypalValue(payment.AmountMinor)},
		"final_capture": true,
	}
	var out paypalAuthorization
	if err := g.post(ctx, "/v2/payments/authorizations/"+payment.AuthorizationCode+"/capture", body, &out); err != nil {
		return fmt.Errorf("paypal capture: %w", err)
	}
	payment.ReferenceID = &out.ID
	return nil
}

// Sale creates and captures an order in one pass.
func (g *PayPalGateway) Sale(ctx context.Context, payment *models.OrderPayment, _ *models.Address) error {
	reqBody := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: payment.OrderNumber,
			Amount:      paypalAmount{CurrencyCode: payment.Currency, Value: paypalValue(payment.AmountMinor)},
		}},
	}

	var created paypalOrderResponse
	if err := g.post(ctx, "/v2/checkout/orders", reqBody, &created); err != nil {
		return fmt.Errorf("paypal sale: %w", err)
	}

	var captured paypalOrderResponse
	if err := g.post(ctx, "/v2/checkout/orders/"+created.ID+"/capture", nil, &captured); err != nil {
		return fmt.Errorf("paypal sale: %w", err)
	}

	payment.ReferenceID = &created.ID
	for _, unit := range captured.PurchaseUnits {
		if len(unit.Payments.Captures) > 0 {
			payment.AuthorizationCode = unit.Payments.Captures[0].ID
			return nil
		}
	}
	return fmt.Errorf("paypal sale: order %s returned no capture", created.ID)
}

// ReversePreAuthorization voids an open authorization.
func (g *PayPalGateway) ReversePreAuthorization(ctx context.Context, payment *models.OrderPayment) error {
	if err := g.post(ctx, "/v2/payments/authorizations/"+payment.AuthorizationCode+"/void", nil, nil); err != nil {
		return fmt.Errorf("paypal reverse preauthorization: %w", err)
	}
	return nil
}
