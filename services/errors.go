package services

import "fmt"

// InvalidShipmentStateError means an operation was attempted against a
// shipment whose status forbids it, e.g. capturing a cancelled shipment.
// Never retried automatically.
type InvalidShipmentStateError struct {
	ShipmentNumber string
	Status         string
	Operation      string
}

func (e *InvalidShipmentStateError) Error() string {
	return fmt.Sprintf("shipment %s in state %s does not permit %s", e.ShipmentNumber, e.Status, e.Operation)
}

// PaymentServiceError is a business-rule violation: cancelling a
// partially shipped order, cancelling an order with digital goods,
// cancelling an already-released shipment. Presented to the caller as a
// user-facing business error, not a system fault.
type PaymentServiceError struct {
	Message string
}

func (e *PaymentServiceError) Error() string { return e.Message }

func newBusinessRuleError(format string, args ...interface{}) *PaymentServiceError {
	return &PaymentServiceError{Message: fmt.Sprintf(format, args...)}
}
