package ledger_test

import (
	"context"
	"sync"
	"testing"

	"payment-orchestrator/ledger"
	"payment-orchestrator/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestLedger(t *testing.T, purchaseMinor int64) (*ledger.Service, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	store.AddCertificate(&models.GiftCertificate{
		Code:                "GC-001",
		PurchaseAmountMinor: purchaseMinor,
		Currency:            "USD",
	})
	logger, _ := zap.NewDevelopment()
	return ledger.NewService(store, logger), store
}

func usd(minor int64) models.Money { return models.NewMoney(minor, "USD") }

func TestBalance_DerivedFromTransactions(t *testing.T) {
	// purchase 100.00; open auth 15.00; auth 25.00 fully reversed;
	// auth 35.00 partially captured at 34.00 -> balance 51.00
	svc, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	_, err := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(1500)})
	assert.NoError(t, err)

	reversed, err := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(2500)})
	assert.NoError(t, err)
	_, err = svc.ReversePreAuthorization(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: reversed.AuthorizationCode,
		Amount:            usd(2500),
	})
	assert.NoError(t, err)

	captured, err := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(3500)})
	assert.NoError(t, err)
	_, err = svc.Capture(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: captured.AuthorizationCode,
		Amount:            usd(3400),
	})
	assert.NoError(t, err)

	balance, err := svc.Balance(ctx, "GC-001")
	assert.NoError(t, err)
	assert.Equal(t, int64(5100), balance.AmountMinor)
	assert.Equal(t, "51.00 USD", balance.String())
}

func TestCapture_AtMostOncePerAuthorization(t *testing.T) {
	svc, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	auth, err := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(2000)})
	assert.NoError(t, err)

	req := ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(2000),
	}

	_, err = svc.Capture(ctx, req)
	assert.NoError(t, err)

	_, err = svc.Capture(ctx, req)
	var capErr *ledger.CaptureError
	if assert.ErrorAs(t, err, &capErr) {
		assert.Equal(t, auth.AuthorizationCode, capErr.AuthorizationCode)
	}
}

func TestCapture_UnknownAuthorizationCode(t *testing.T) {
	svc, _ := newTestLedger(t, 10000)

	_, err := svc.Capture(context.Background(), ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: "123",
		Amount:            usd(100),
	})
	var capErr *ledger.CaptureError
	assert.ErrorAs(t, err, &capErr)
}

func TestCapture_AfterReversalFails(t *testing.T) {
	svc, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	auth, _ := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(1000)})
	_, err := svc.ReversePreAuthorization(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(1000),
	})
	assert.NoError(t, err)

	_, err = svc.Capture(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(1000),
	})
	var capErr *ledger.CaptureError
	assert.ErrorAs(t, err, &capErr)
}

func TestReversal_AmountMustMatchExactly(t *testing.T) {
	svc, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	auth, _ := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(3000)})

	_, err := svc.ReversePreAuthorization(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(2999),
	})
	var revErr *ledger.ReversalError
	assert.ErrorAs(t, err, &revErr)

	// exact amount succeeds and reopens the balance
	_, err = svc.ReversePreAuthorization(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(3000),
	})
	assert.NoError(t, err)

	balance, err := svc.Balance(ctx, "GC-001")
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), balance.AmountMinor)
}

func TestReversal_ClosedAuthorizationFails(t *testing.T) {
	svc, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	auth, _ := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(1000)})
	_, err := svc.Capture(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(1000),
	})
	assert.NoError(t, err)

	_, err = svc.ReversePreAuthorization(ctx, ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(1000),
	})
	var revErr *ledger.ReversalError
	assert.ErrorAs(t, err, &revErr)
}

func TestPreAuthorize_RejectsOverdraft(t *testing.T) {
	svc, _ := newTestLedger(t, 5000)
	ctx := context.Background()

	_, err := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(4000)})
	assert.NoError(t, err)

	_, err = svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(2000)})
	var balErr *ledger.InsufficientBalanceError
	if assert.ErrorAs(t, err, &balErr) {
		assert.Equal(t, int64(1000), balErr.Available.AmountMinor)
	}
}

func TestCapture_ConcurrentDoubleSubmission(t *testing.T) {
	svc, _ := newTestLedger(t, 10000)
	ctx := context.Background()

	auth, _ := svc.PreAuthorize(ctx, ledger.AuthorizationRequest{CertificateCode: "GC-001", Amount: usd(2500)})
	req := ledger.SettlementRequest{
		CertificateCode:   "GC-001",
		AuthorizationCode: auth.AuthorizationCode,
		Amount:            usd(2500),
	}

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Capture(ctx, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	balance, err := svc.Balance(ctx, "GC-001")
	assert.NoError(t, err)
	assert.Equal(t, int64(7500), balance.AmountMinor)
}
