package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"payment-orchestrator/handlers"
	"payment-orchestrator/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubGateway struct {
	gatewayType models.PaymentGatewayType
	preAuthErr  error
	saleErr     error

	authCount int
	saleCount int
}

func (g *stubGateway) GatewayType() models.PaymentGatewayType { return g.gatewayType }

func (g *stubGateway) PreAuthorize(_ context.Context, p *models.OrderPayment, _ *models.Address) error {
	if g.preAuthErr != nil {
		return g.preAuthErr
	}
	g.authCount++
	p.AuthorizationCode = fmt.Sprintf("auth-%d", g.authCount)
	return nil
}
func (g *stubGateway) Capture(_ context.Context, _ *models.OrderPayment) error { return nil }
func (g *stubGateway) Sale(_ context.Context, _ *models.OrderPayment, _ *models.Address) error {
	if g.saleErr != nil {
		return g.saleErr
	}
	g.saleCount++
	return nil
}
func (g *stubGateway) ReversePreAuthorization(_ context.Context, _ *models.OrderPayment) error {
	return nil
}

func testOrder(shipments ...models.OrderShipment) *models.Order {
	var total int64
	for _, sh := range shipments {
		if sh.TotalMinor != nil {
			total += *sh.TotalMinor
		}
	}
	return &models.Order{
		OrderNumber: "20000-1",
		StoreCode:   "mobee",
		Currency:    "USD",
		TotalMinor:  total,
		Shipments:   shipments,
	}
}

func shipmentOf(shipmentType string, totalMinor int64) models.OrderShipment {
	return models.OrderShipment{
		ShipmentNumber: "20000-1-1",
		OrderNumber:    "20000-1",
		Type:           shipmentType,
		Status:         models.ShipmentStatusInventoryAssigned,
		TotalMinor:     &totalMinor,
	}
}

func TestFactory_TableIsClosed(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)

	for _, pt := range []models.PaymentType{
		models.PaymentTypeToken,
		models.PaymentTypePayPalExpress,
		models.PaymentTypeGiftCertificate,
	} {
		h, err := factory.HandlerFor(pt)
		assert.NoError(t, err)
		assert.Equal(t, pt, h.PaymentType())
	}

	_, err := factory.HandlerFor("CRYPTO")
	assert.Error(t, err)
}

func TestFactory_ScopeAndRefundTraits(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)

	token, _ := factory.HandlerFor(models.PaymentTypeToken)
	paypal, _ := factory.HandlerFor(models.PaymentTypePayPalExpress)
	gift, _ := factory.HandlerFor(models.PaymentTypeGiftCertificate)

	assert.False(t, token.OrderScoped())
	assert.True(t, token.SupportsRefund())
	assert.True(t, paypal.OrderScoped())
	assert.False(t, paypal.SupportsRefund())
	assert.False(t, gift.OrderScoped())
	assert.False(t, gift.SupportsRefund())
}

func TestTokenHandler_PhysicalShipmentPreAuthorizes(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)
	h, _ := factory.HandlerFor(models.PaymentTypeToken)

	gw := &stubGateway{gatewayType: models.GatewayTypeCreditCard}
	order := testOrder(shipmentOf(models.ShipmentTypePhysical, 3000))
	template := &models.OrderPayment{PaymentType: models.PaymentTypeToken, GatewayType: models.GatewayTypeCreditCard}

	payments := h.GenerateAuthorizeShipmentPayments(context.Background(), gw, template, order, &order.Shipments[0])

	assert.Len(t, payments, 1)
	assert.Equal(t, models.AuthorizationTransaction, payments[0].TransactionType)
	assert.Equal(t, models.PaymentStatusApproved, payments[0].Status)
	assert.Equal(t, 1, gw.authCount)
	assert.Equal(t, 0, gw.saleCount)
}

func TestTokenHandler_ElectronicShipmentSettlesAsSale(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)
	h, _ := factory.HandlerFor(models.PaymentTypeToken)

	gw := &stubGateway{gatewayType: models.GatewayTypeCreditCard}
	order := testOrder(shipmentOf(models.ShipmentTypeElectronic, 1500))
	template := &models.OrderPayment{PaymentType: models.PaymentTypeToken, GatewayType: models.GatewayTypeCreditCard}

	payments := h.GenerateAuthorizeShipmentPayments(context.Background(), gw, template, order, &order.Shipments[0])

	assert.Len(t, payments, 1)
	assert.Equal(t, models.CaptureTransaction, payments[0].TransactionType)
	assert.Equal(t, models.PaymentStatusApproved, payments[0].Status)
	assert.Equal(t, 0, gw.authCount)
	assert.Equal(t, 1, gw.saleCount)
}

func TestTokenHandler_UnpricedShipmentProducesNothing(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)
	h, _ := factory.HandlerFor(models.PaymentTypeToken)

	gw := &stubGateway{gatewayType: models.GatewayTypeCreditCard}
	sh := shipmentOf(models.ShipmentTypePhysical, 0)
	sh.TotalMinor = nil
	order := testOrder(sh)
	template := &models.OrderPayment{PaymentType: models.PaymentTypeToken, GatewayType: models.GatewayTypeCreditCard}

	payments := h.GenerateAuthorizeShipmentPayments(context.Background(), gw, template, order, &order.Shipments[0])

	assert.Empty(t, payments)
	assert.Equal(t, 0, gw.authCount)
}

func TestTokenHandler_DeclineMarksPaymentFailed(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)
	h, _ := factory.HandlerFor(models.PaymentTypeToken)

	gw := &stubGateway{gatewayType: models.GatewayTypeCreditCard, preAuthErr: errors.New("declined")}
	order := testOrder(shipmentOf(models.ShipmentTypePhysical, 3000))
	template := &models.OrderPayment{PaymentType: models.PaymentTypeToken, GatewayType: models.GatewayTypeCreditCard}

	payments := h.GenerateAuthorizeShipmentPayments(context.Background(), gw, template, order, &order.Shipments[0])

	assert.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusFailed, payments[0].Status)
}

func TestPayPalHandler_OrderScopeProducesPairedRecords(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)
	h, _ := factory.HandlerFor(models.PaymentTypePayPalExpress)

	gw := &stubGateway{gatewayType: models.GatewayTypePayPal}
	order := testOrder(shipmentOf(models.ShipmentTypePhysical, 3000))
	template := &models.OrderPayment{PaymentType: models.PaymentTypePayPalExpress, GatewayType: models.GatewayTypePayPal}

	payments := h.GenerateAuthorizeOrderPayments(context.Background(), gw, template, order)

	assert.Len(t, payments, 2)
	assert.Equal(t, models.OrderTransaction, payments[0].TransactionType)
	assert.Equal(t, models.AuthorizationTransaction, payments[1].TransactionType)
	assert.Equal(t, payments[1].AuthorizationCode, payments[0].AuthorizationCode)
	assert.Equal(t, 1, gw.authCount)
}

func TestPayPalHandler_DeclineFailsBothRecords(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	factory := handlers.NewFactory(logger)
	h, _ := factory.HandlerFor(models.PaymentTypePayPalExpress)

	gw := &stubGateway{gatewayType: models.GatewayTypePayPal, preAuthErr: errors.New("declined")}
	order := testOrder(shipmentOf(models.ShipmentTypePhysical, 3000))
	template := &models.OrderPayment{PaymentType: models.PaymentTypePayPalExpress, GatewayType: models.GatewayTypePayPal}

	payments := h.GenerateAuthorizeOrderPayments(context.Background(), gw, template, order)

	assert.Len(t, payments, 2)
	assert.Equal(t, models.PaymentStatusFailed, payments[0].Status)
	assert.Equal(t, models.PaymentStatusFailed, payments[1].Status)
}
