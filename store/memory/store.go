// Package memory implements store.Store in process memory. It is the
// default for tests and for embedding applications that do not need
// durability.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/state"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	txMu   sync.Mutex
	mu     sync.RWMutex
	closed bool

	merchants map[uint64]merchant.Merchant
	products  map[uint64]catalog.Product
	payments  map[uint64]payment.Payment
	receipts  map[string]uint64
	holdings  map[types.Account]uint64
	offers    map[uint64]stake.Offer
	counters  *state.Counters
}

func New() *Store {
	return &Store{
		merchants: make(map[uint64]merchant.Merchant),
		products:  make(map[uint64]catalog.Product),
		payments:  make(map[uint64]payment.Payment),
		receipts:  make(map[string]uint64),
		holdings:  make(map[types.Account]uint64),
		offers:    make(map[uint64]stake.Offer),
	}
}

func (s *Store) writable() error {
	if s.closed {
		return bazaar.ErrStoreClosed
	}
	return nil
}

// RunInTx runs fn against s and restores every record fn wrote when it
// fails.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.snapshot()
	s.mu.RUnlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.restore(saved)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	merchants map[uint64]merchant.Merchant
	products  map[uint64]catalog.Product
	payments  map[uint64]payment.Payment
	receipts  map[string]uint64
	holdings  map[types.Account]uint64
	offers    map[uint64]stake.Offer
	counters  *state.Counters
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		merchants: maps.Clone(s.merchants),
		products:  maps.Clone(s.products),
		payments:  maps.Clone(s.payments),
		receipts:  maps.Clone(s.receipts),
		holdings:  maps.Clone(s.holdings),
		offers:    maps.Clone(s.offers),
	}
	if s.counters != nil {
		c := *s.counters
		snap.counters = &c
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.merchants = snap.merchants
	s.products = snap.products
	s.payments = snap.payments
	s.receipts = snap.receipts
	s.holdings = snap.holdings
	s.offers = snap.offers
	s.counters = snap.counters
}

// Merchant Store implementation
func (s *Store) CreateMerchant(_ context.Context, m *merchant.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	s.merchants[m.ID] = *m
	return nil
}

func (s *Store) ListMerchants(_ context.Context) ([]*merchant.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*merchant.Merchant, 0, len(s.merchants))
	for _, m := range s.merchants {
		m := m
		result = append(result, &m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Product Store implementation
func (s *Store) UpsertProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	s.products[p.ID] = *p
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID uint64) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[productID]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("%w: product %d", bazaar.ErrNotFound, productID)
}

func (s *Store) DeleteProduct(_ context.Context, productID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	delete(s.products, productID)
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		p := p
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Payment Store implementation
func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if old, exists := s.payments[p.ID]; exists {
		delete(s.receipts, old.Receipt.String())
	}
	s.payments[p.ID] = *p
	s.receipts[p.Receipt.String()] = p.ID
	return nil
}

func (s *Store) GetPaymentByReceipt(_ context.Context, receipt id.ReceiptID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pid, ok := s.receipts[receipt.String()]; ok {
		p := s.payments[pid]
		return &p, nil
	}
	return nil, fmt.Errorf("%w: receipt %s", bazaar.ErrNotFound, receipt)
}

func (s *Store) ListPayments(_ context.Context) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		p := p
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Stake Store implementation
func (s *Store) SetHolding(_ context.Context, h stake.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	if h.Weight == 0 {
		delete(s.holdings, h.Holder)
		return nil
	}
	s.holdings[h.Holder] = h.Weight
	return nil
}

func (s *Store) ListHoldings(_ context.Context) ([]stake.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]stake.Holding, 0, len(s.holdings))
	for holder, w := range s.holdings {
		result = append(result, stake.Holding{Holder: holder, Weight: w})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Holder < result[j].Holder })
	return result, nil
}

func (s *Store) CreateOffer(_ context.Context, o *stake.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	s.offers[o.ID] = *o
	return nil
}

func (s *Store) DeleteOffer(_ context.Context, offerID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	delete(s.offers, offerID)
	return nil
}

func (s *Store) ListOffers(_ context.Context) ([]*stake.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*stake.Offer, 0, len(s.offers))
	for _, o := range s.offers {
		o := o
		result = append(result, &o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Counter Store implementation
func (s *Store) SaveCounters(_ context.Context, c state.Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}
	s.counters = &c
	return nil
}

func (s *Store) LoadCounters(_ context.Context) (*state.Counters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.counters == nil {
		return nil, bazaar.ErrNotFound
	}
	c := *s.counters
	return &c, nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return bazaar.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
