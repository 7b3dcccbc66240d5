package ledger

import (
	"context"
	"fmt"
	"sync"

	"payment-orchestrator/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionStore is the narrow persistence interface the ledger needs.
// The gorm implementation lives in the repository package; an in-memory
// implementation lives here for composition and tests.
type TransactionStore interface {
	FindCertificate(ctx context.Context, code string) (*models.GiftCertificate, error)
	ListTransactions(ctx context.Context, certificateCode string) ([]models.GiftCertificateTransaction, error)
	AppendTransaction(ctx context.Context, txn *models.GiftCertificateTransaction) error
}

// CaptureError signals a capture that would violate ledger integrity:
// unknown authorization code, or a code that already has a follow-up
// transaction. These must never silently succeed.
type CaptureError struct {
	CertificateCode   string
	AuthorizationCode string
	Reason            string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed for certificate %s, authorization %s: %s",
		e.CertificateCode, e.AuthorizationCode, e.Reason)
}

// ReversalError signals a reversal of a non-open authorization or an
// amount that does not exactly match the original authorization.
type ReversalError struct {
	CertificateCode   string
	AuthorizationCode string
	Reason            string
}

func (e *ReversalError) Error() string {
	return fmt.Sprintf("reversal failed for certificate %s, authorization %s: %s",
		e.CertificateCode, e.AuthorizationCode, e.Reason)
}

// InsufficientBalanceError is returned when an authorization would push
// the derived balance below zero.
type InsufficientBalanceError struct {
	CertificateCode string
	Requested       models.Money
	Available       models.Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on certificate %s: requested %s, available %s",
		e.CertificateCode, e.Requested, e.Available)
}

// AuthorizationRequest asks for a hold against a certificate.
type AuthorizationRequest struct {
	CertificateCode string
	Amount          models.Money
}

// SettlementRequest captures or reverses a previously issued hold.
// Capture amounts may be smaller than the authorized amount (partial
// capture); reversal amounts must match it exactly.
type SettlementRequest struct {
	CertificateCode   string
	AuthorizationCode string
	Amount            models.Money
}

// Service is the gift certificate ledger. All money state is derived from
// the certificate's append-only transaction list; nothing is stored twice.
type Service struct {
	store  TransactionStore
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per certificate code
}

// NewService creates a ledger over the given store.
func NewService(store TransactionStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor serializes read-then-append sequences per certificate, so
// "at most one capture per authorization" holds under concurrency.
func (s *Service) lockFor(certificateCode string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[certificateCode]
	if !ok {
		l = &sync.Mutex{}
		s.locks[certificateCode] = l
	}
	return l
}

// Balance recomputes the certificate balance from its transaction list:
// purchase amount minus open authorizations minus captured amounts. A
// captured authorization contributes its captured amount, which may be
// less than what was originally held.
func (s *Service) Balance(ctx context.Context, certificateCode string) (models.Money, error) {
	cert, err := s.store.FindCertificate(ctx, certificateCode)
	if err != nil {
		return models.Money{}, err
	}
	txns, err := s.store.ListTransactions(ctx, certificateCode)
	if err != nil {
		return models.Money{}, err
	}
	return balanceOf(cert, txns), nil
}

func balanceOf(cert *models.GiftCertificate, txns []models.GiftCertificateTransaction) models.Money {
	authorized := make(map[string]int64)
	followedUp := make(map[string]bool)
	var captured int64

	for _, txn := range txns {
		switch txn.TransactionType {
		case models.AuthorizationTransaction:
			authorized[txn.AuthorizationCode] = txn.AmountMinor
		case models.CaptureTransaction:
			followedUp[txn.AuthorizationCode] = true
			captured += txn.AmountMinor
		case models.ReverseAuthorization:
			followedUp[txn.AuthorizationCode] = true
		}
	}

	balance := cert.PurchaseAmountMinor - captured
	for code, amount := range authorized {
		if !followedUp[code] {
			balance -= amount
		}
	}
	return models.NewMoney(balance, cert.Currency)
}

// openAuthorization finds the authorization for the given code and
// reports whether it is still open (no capture or reversal references it).
func openAuthorization(txns []models.GiftCertificateTransaction, authorizationCode string) (auth *models.GiftCertificateTransaction, open bool) {
	open = true
	for i := range txns {
		txn := &txns[i]
		if txn.AuthorizationCode != authorizationCode {
			continue
		}
		switch txn.TransactionType {
		case models.AuthorizationTransaction:
			auth = txn
		case models.CaptureTransaction, models.ReverseAuthorization:
			open = false
		}
	}
	return auth, open
}

// PreAuthorize places a hold on the certificate under a freshly generated
// authorization code. Authorizations that would push the balance negative
// are rejected.
func (s *Service) PreAuthorize(ctx context.Context, req AuthorizationRequest) (*models.GiftCertificateTransaction, error) {
	lock := s.lockFor(req.CertificateCode)
	lock.Lock()
	defer lock.Unlock()

	cert, err := s.store.FindCertificate(ctx, req.CertificateCode)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, req.CertificateCode)
	if err != nil {
		return nil, err
	}

	balance := balanceOf(cert, txns)
	if req.Amount.GreaterThan(balance) {
		return nil, &InsufficientBalanceError{
			CertificateCode: req.CertificateCode,
			Requested:       req.Amount,
			Available:       balance,
		}
	}

	txn := &models.GiftCertificateTransaction{
		CertificateCode:   req.CertificateCode,
		TransactionType:   models.AuthorizationTransaction,
		AmountMinor:       req.Amount.AmountMinor,
		AuthorizationCode: uuid.NewString(),
	}
	if err := s.store.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.Info("Gift certificate authorization placed",
		zap.String("certificate", req.CertificateCode),
		zap.String("authorization_code", txn.AuthorizationCode),
		zap.Int64("amount_minor", txn.AmountMinor),
	)
	return txn, nil
}

// Capture settles an open authorization. The captured amount may be less
// than the original hold. Each authorization code admits at most one
// follow-up transaction, ever.
func (s *Service) Capture(ctx context.Context, req SettlementRequest) (*models.GiftCertificateTransaction, error) {
	lock := s.lockFor(req.CertificateCode)
	lock.Lock()
	defer lock.Unlock()

	txns, err := s.store.ListTransactions(ctx, req.CertificateCode)
	if err != nil {
		return nil, err
	}

	auth, open := openAuthorization(txns, req.AuthorizationCode)
	if auth == nil {
		return nil, &CaptureError{
			CertificateCode:   req.CertificateCode,
			AuthorizationCode: req.AuthorizationCode,
			Reason:            "no authorization with this code",
		}
	}
	if !open {
		return nil, &CaptureError{
			CertificateCode:   req.CertificateCode,
			AuthorizationCode: req.AuthorizationCode,
			Reason:            "authorization already captured or reversed",
		}
	}
	if req.Amount.AmountMinor > auth.AmountMinor {
		return nil, &CaptureError{
			CertificateCode:   req.CertificateCode,
			AuthorizationCode: req.AuthorizationCode,
			Reason:            "capture amount exceeds authorized amount",
		}
	}

	txn := &models.GiftCertificateTransaction{
		CertificateCode:   req.CertificateCode,
		TransactionType:   models.CaptureTransaction,
		AmountMinor:       req.Amount.AmountMinor,
		AuthorizationCode: req.AuthorizationCode,
	}
	if err := s.store.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.Info("Gift certificate authorization captured",
		zap.String("certificate", req.CertificateCode),
		zap.String("authorization_code", req.AuthorizationCode),
		zap.Int64("amount_minor", txn.AmountMinor),
	)
	return txn, nil
}

// ReversePreAuthorization releases an open authorization without
// settling it. The requested amount must exactly equal the original
// authorized amount.
func (s *Service) ReversePreAuthorization(ctx context.Context, req SettlementRequest) (*models.GiftCertificateTransaction, error) {
	lock := s.lockFor(req.CertificateCode)
	lock.Lock()
	defer lock.Unlock()

	txns, err := s.store.ListTransactions(ctx, req.CertificateCode)
	if err != nil {
		return nil, err
	}

	auth, open := openAuthorization(txns, req.AuthorizationCode)
	if auth == nil || !open {
		return nil, &ReversalError{
			CertificateCode:   req.CertificateCode,
			AuthorizationCode: req.AuthorizationCode,
			Reason:            "no open authorization with this code",
		}
	}
	if req.Amount.AmountMinor != auth.AmountMinor {
		return nil, &ReversalError{
			CertificateCode:   req.CertificateCode,
			AuthorizationCode: req.AuthorizationCode,
			Reason: fmt.Sprintf("amount %s does not match authorized %s",
				req.Amount, models.NewMoney(auth.AmountMinor, req.Amount.Currency)),
		}
	}

	txn := &models.GiftCertificateTransaction{
		CertificateCode:   req.CertificateCode,
		TransactionType:   models.ReverseAuthorization,
		AmountMinor:       auth.AmountMinor,
		AuthorizationCode: req.AuthorizationCode,
	}
	if err := s.store.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.Info("Gift certificate authorization reversed",
		zap.String("certificate", req.CertificateCode),
		zap.String("authorization_code", req.AuthorizationCode),
	)
	return txn, nil
}
