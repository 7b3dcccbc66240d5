package gateways

import (
	"context"
	"fmt"

	"payment-orchestrator/ledger"
	"payment-orchestrator/models"
)

// GiftCertificateGateway adapts the stored-value ledger to the
// PaymentGateway contract so gift certificates plug into the same
// orchestration path as external processors.
type GiftCertificateGateway struct {
	ledger *ledger.Service
}

// NewGiftCertificateGateway creates a gateway over the given ledger.
func NewGiftCertificateGateway(svc *ledger.Service) *GiftCertificateGateway {
	return &GiftCertificateGateway{ledger: svc}
}

func (g *GiftCertificateGateway) GatewayType() models.PaymentGatewayType {
	return models.GatewayTypeGiftCertificate
}

func certificateCode(payment *models.OrderPayment) (string, error) {
	if payment.GiftCertificateCode == nil || *payment.GiftCertificateCode == "" {
		return "", fmt.Errorf("payment %s has no gift certificate code", payment.ID)
	}
	return *payment.GiftCertificateCode, nil
}

// PreAuthorize places a hold on the certificate's stored value.
func (g *GiftCertificateGateway) PreAuthorize(ctx context.Context, payment *models.OrderPayment, _ *models.Address) error {
	code, err := certificateCode(payment)
	if err != nil {
		return err
	}
	txn, err := g.ledger.PreAuthorize(ctx, ledger.AuthorizationRequest{
		CertificateCode: code,
		Amount:          payment.Amount(),
	})
	if err != nil {
		return err
	}
	payment.AuthorizationCode = txn.AuthorizationCode
	return nil
}

// Capture settles the hold identified by the payment's authorization code.
func (g *GiftCertificateGateway) Capture(ctx context.Context, payment *models.OrderPayment) error {
	code, err := certificateCode(payment)
	if err != nil {
		return err
	}
	_, err = g.ledger.Capture(ctx, ledger.SettlementRequest{
		CertificateCode:   code,
		AuthorizationCode: payment.AuthorizationCode,
		Amount:            payment.Amount(),
	})
	return err
}

// Sale authorizes and immediately captures, used for electronic
// shipments that settle at initialization time.
func (g *GiftCertificateGateway) Sale(ctx context.Context, payment *models.OrderPayment, billing *models.Address) error {
	if err := g.PreAuthorize(ctx, payment, billing); err != nil {
		return err
	}
	return g.Capture(ctx, payment)
}

// ReversePreAuthorization releases the hold without settling it.
func (g *GiftCertificateGateway) ReversePreAuthorization(ctx context.Context, payment *models.OrderPayment) error {
	code, err := certificateCode(payment)
	if err != nil {
		return err
	}
	_, err = g.ledger.ReversePreAuthorization(ctx, ledger.SettlementRequest{
		CertificateCode:   code,
		AuthorizationCode: payment.AuthorizationCode,
		Amount:            payment.Amount(),
	})
	return err
}
