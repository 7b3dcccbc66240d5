package ledger

import (
	"context"
	"fmt"
	"sync"

	"payment-orchestrator/models"
)

// MemoryStore is an in-process TransactionStore. It backs tests and
// single-node deployments that keep certificates in memory.
type MemoryStore struct {
	mu           sync.RWMutex
	certificates map[string]*models.GiftCertificate
	transactions map[string][]models.GiftCertificateTransaction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		certificates: make(map[string]*models.GiftCertificate),
		transactions: make(map[string][]models.GiftCertificateTransaction),
	}
}

// AddCertificate registers a certificate with the store.
func (m *MemoryStore) AddCertificate(cert *models.GiftCertificate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certificates[cert.Code] = cert
}

func (m *MemoryStore) FindCertificate(_ context.Context, code string) (*models.GiftCertificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cert, ok := m.certificates[code]
	if !ok {
		return nil, fmt.Errorf("gift certificate %s not found", code)
	}
	return cert, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, certificateCode string) ([]models.GiftCertificateTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	txns := m.transactions[certificateCode]
	out := make([]models.GiftCertificateTransaction, len(txns))
	copy(out, txns)
	return out, nil
}

func (m *MemoryStore) AppendTransaction(_ context.Context, txn *models.GiftCertificateTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.CertificateCode] = append(m.transactions[txn.CertificateCode], *txn)
	return nil
}
