package routes

import (
	"payment-orchestrator/controllers"
	"payment-orchestrator/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, pc *controllers.PaymentController) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	payments := router.Group("/payments")
	payments.Use(middleware.RequireUser())
	{
		payments.POST("/orders/:order_number/initialize", pc.InitializePayments)
		payments.POST("/orders/:order_number/cancel", pc.CancelOrderPayments)
		payments.POST("/orders/:order_number/shipments/:shipment_number/initialize", pc.InitializeShipmentPayment)
		payments.POST("/orders/:order_number/shipments/:shipment_number/adjust", pc.AdjustShipmentPayment)
		payments.POST("/orders/:order_number/shipments/:shipment_number/capture", pc.ProcessShipmentPayment)
		payments.POST("/orders/:order_number/shipments/:shipment_number/cancel", pc.CancelShipmentPayment)
		payments.GET("/:payment_id/refundable", pc.IsPaymentRefundable)
	}
}
