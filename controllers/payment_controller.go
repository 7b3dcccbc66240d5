package controllers

import (
	"errors"
	"net/http"

	"payment-orchestrator/ledger"
	"payment-orchestrator/models"
	"payment-orchestrator/repository"
	"payment-orchestrator/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentController exposes the orchestrator operations over HTTP for
// checkout, fulfillment and CSR tooling.
type PaymentController struct {
	Orchestrator services.PaymentOrchestrator
	Orders       services.OrderStore
	Payments     repository.OrderPaymentRepository
	Logger       *zap.Logger
}

func NewPaymentController(
	orchestrator services.PaymentOrchestrator,
	orders services.OrderStore,
	payments repository.OrderPaymentRepository,
	logger *zap.Logger,
) *PaymentController {
	return &PaymentController{
		Orchestrator: orchestrator,
		Orders:       orders,
		Payments:     payments,
		Logger:       logger,
	}
}

// templateRequest carries the payment method fields for initialization.
type templateRequest struct {
	PaymentType         models.PaymentType `json:"payment_type" binding:"required"`
	Token               string             `json:"token,omitempty"`
	CertificateCode     string             `json:"certificate_code,omitempty"`
	FallbackPaymentType models.PaymentType `json:"fallback_payment_type,omitempty"`
	FallbackToken       string             `json:"fallback_token,omitempty"`
}

func (r *templateRequest) template(orderNumber string) *models.OrderPayment {
	return buildTemplate(orderNumber, r.PaymentType, r.Token, r.CertificateCode)
}

func (r *templateRequest) fallback(orderNumber string) *models.OrderPayment {
	if r.FallbackPaymentType == "" {
		return nil
	}
	return buildTemplate(orderNumber, r.FallbackPaymentType, r.FallbackToken, "")
}

func buildTemplate(orderNumber string, paymentType models.PaymentType, token, certificateCode string) *models.OrderPayment {
	template := &models.OrderPayment{
		OrderNumber: orderNumber,
		PaymentType: paymentType,
	}
	if token != "" {
		t := token
		template.Token = &t
	}
	if certificateCode != "" {
		c := certificateCode
		template.GiftCertificateCode = &c
	}
	return template
}

// InitializePayments handles POST /payments/orders/:order_number/initialize
func (pc *PaymentController) InitializePayments(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	orderNumber := c.Param("order_number")
	order, err := pc.Orders.FindByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	result, err := pc.Orchestrator.InitializePayments(c.Request.Context(), order,
		req.template(orderNumber), req.fallback(orderNumber))
	if err != nil {
		pc.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelOrderPayments handles POST /payments/orders/:order_number/cancel
func (pc *PaymentController) CancelOrderPayments(c *gin.Context) {
	order, err := pc.Orders.FindByOrderNumber(c.Request.Context(), c.Param("order_number"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	result, err := pc.Orchestrator.CancelOrderPayments(c.Request.Context(), order)
	if err != nil {
		pc.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// loadShipment resolves the order and the shipment path params.
func (pc *PaymentController) loadShipment(c *gin.Context) (*models.Order, *models.OrderShipment, bool) {
	order, err := pc.Orders.FindByOrderNumber(c.Request.Context(), c.Param("order_number"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, nil, false
	}
	shipment := order.ShipmentByNumber(c.Param("shipment_number"))
	if shipment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shipment not found"})
		return nil, nil, false
	}
	return order, shipment, true
}

// AdjustShipmentPayment handles POST /payments/orders/:order_number/shipments/:shipment_number/adjust
func (pc *PaymentController) AdjustShipmentPayment(c *gin.Context) {
	order, shipment, ok := pc.loadShipment(c)
	if !ok {
		return
	}

	result, err := pc.Orchestrator.AdjustShipmentPayment(c.Request.Context(), order, shipment)
	if err != nil {
		pc.renderError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"status": "nothing to adjust"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// InitializeShipmentPayment handles POST /payments/orders/:order_number/shipments/:shipment_number/initialize
func (pc *PaymentController) InitializeShipmentPayment(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, shipment, ok := pc.loadShipment(c)
	if !ok {
		return
	}

	result, err := pc.Orchestrator.InitializeNewShipmentPayment(c.Request.Context(), order, shipment,
		req.template(order.OrderNumber))
	if err != nil {
		pc.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessShipmentPayment handles POST /payments/orders/:order_number/shipments/:shipment_number/capture
func (pc *PaymentController) ProcessShipmentPayment(c *gin.Context) {
	order, shipment, ok := pc.loadShipment(c)
	if !ok {
		return
	}

	result, err := pc.Orchestrator.ProcessShipmentPayment(c.Request.Context(), order, shipment)
	if err != nil {
		pc.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelShipmentPayment handles POST /payments/orders/:order_number/shipments/:shipment_number/cancel
func (pc *PaymentController) CancelShipmentPayment(c *gin.Context) {
	order, shipment, ok := pc.loadShipment(c)
	if !ok {
		return
	}

	result, err := pc.Orchestrator.CancelShipmentPayment(c.Request.Context(), order, shipment)
	if err != nil {
		pc.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// IsPaymentRefundable handles GET /payments/:payment_id/refundable
func (pc *PaymentController) IsPaymentRefundable(c *gin.Context) {
	payment, err := pc.Payments.FindByID(c.Request.Context(), c.Param("payment_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id": payment.ID,
		"refundable": pc.Orchestrator.IsOrderPaymentRefundable(payment),
	})
}

// renderError maps the error taxonomy to HTTP statuses: state and ledger
// violations conflict, business rules are unprocessable, the rest is 500.
func (pc *PaymentController) renderError(c *gin.Context, err error) {
	var stateErr *services.InvalidShipmentStateError
	var ruleErr *services.PaymentServiceError
	var capErr *ledger.CaptureError
	var revErr *ledger.ReversalError
	var balErr *ledger.InsufficientBalanceError

	switch {
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, gin.H{"error": capErr.Error()})
	case errors.As(err, &revErr):
		c.JSON(http.StatusConflict, gin.H{"error": revErr.Error()})
	case errors.As(err, &balErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": balErr.Error()})
	case errors.As(err, &ruleErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ruleErr.Error()})
	default:
		pc.Logger.Error("Payment operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment operation failed"})
	}
}
