package gateways

import (
	"context"
	"fmt"

	"payment-orchestrator/models"
)

// PaymentGateway is the capability each processor adapter implements.
// Adapters fill in the payment's authorization code and reference id on
// success and return an error for declines and transport failures; the
// caller decides how the error reflects in payment status.
type PaymentGateway interface {
	GatewayType() models.PaymentGatewayType
	PreAuthorize(ctx context.Context, payment *models.OrderPayment, billing *models.Address) error
	Capture(ctx context.Context, payment *models.OrderPayment) error
	Sale(ctx context.Context, payment *models.OrderPayment, billing *models.Address) error
	ReversePreAuthorization(ctx context.Context, payment *models.OrderPayment) error
}

// Registry holds the gateways configured per store. It is populated at
// wiring time and read-only afterwards; no global registration.
type Registry struct {
	byStore map[string]map[models.PaymentGatewayType]PaymentGateway
}

// NewRegistry creates an empty gateway registry.
func NewRegistry() *Registry {
	return &Registry{byStore: make(map[string]map[models.PaymentGatewayType]PaymentGateway)}
}

// Register adds a gateway for a store.
func (r *Registry) Register(storeCode string, gw PaymentGateway) {
	store, ok := r.byStore[storeCode]
	if !ok {
		store = make(map[models.PaymentGatewayType]PaymentGateway)
		r.byStore[storeCode] = store
	}
	store[gw.GatewayType()] = gw
}

// Resolve returns the gateway registered for the store and gateway type.
func (r *Registry) Resolve(storeCode string, gatewayType models.PaymentGatewayType) (PaymentGateway, error) {
	store, ok := r.byStore[storeCode]
	if !ok {
		return nil, fmt.Errorf("no gateways registered for store %q", storeCode)
	}
	gw, ok := store[gatewayType]
	if !ok {
		return nil, fmt.Errorf("gateway %s not registered for store %q", gatewayType, storeCode)
	}
	return gw, nil
}
