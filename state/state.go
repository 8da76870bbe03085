// Package state holds the complete engine state: records, secondary
// indices, counters and the asset descriptor cache.
//
// A State is mutated only through its methods and only on a working copy
// obtained from Clone. Committed copies are shared with concurrent readers,
// so no method may write to memory reachable from another copy: maps are
// copied by Clone, append-only slices are shared, and any in-place slice
// edit works on a private copy first.
package state

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// Counters holds the id allocators and running totals.
type Counters struct {
	Merchants id.Sequence `json:"merchants"`
	Products  id.Sequence `json:"products"`
	Payments  id.Sequence `json:"payments"`
	Offers    id.Sequence `json:"offers"`

	// TotalFeesPaid accumulates distributed fees in the reference unit.
	TotalFeesPaid types.Amount `json:"total_fees_paid"`
}

// NewCounters seeds every allocator at base.
func NewCounters(base uint64) Counters {
	return Counters{
		Merchants: id.NewSequence(base),
		Products:  id.NewSequence(base),
		Payments:  id.NewSequence(base),
		Offers:    id.NewSequence(base),
	}
}

// State is the engine's data.
type State struct {
	Counters Counters

	merchants        map[uint64]merchant.Merchant
	merchantAccounts map[types.Account]uint64

	products         map[uint64]catalog.Product
	merchantProducts map[uint64][]uint64

	payments         []payment.Payment
	merchantPayments map[uint64][]uint64
	buyerPayments    map[types.Account][]uint64
	pairPayments     map[payment.BuyerMerchant][]uint64

	holdings   map[types.Account]uint64
	offers     map[uint64]stake.Offer
	offerIndex []uint64
	offered    map[types.Account]uint64

	assets map[asset.Ref]asset.Descriptor

	changes *Changes
}

// New returns an empty State whose allocators start after base.
func New(base uint64) *State {
	return &State{
		Counters:         NewCounters(base),
		merchants:        make(map[uint64]merchant.Merchant),
		merchantAccounts: make(map[types.Account]uint64),
		products:         make(map[uint64]catalog.Product),
		merchantProducts: make(map[uint64][]uint64),
		merchantPayments: make(map[uint64][]uint64),
		buyerPayments:    make(map[types.Account][]uint64),
		pairPayments:     make(map[payment.BuyerMerchant][]uint64),
		holdings:         make(map[types.Account]uint64),
		offers:           make(map[uint64]stake.Offer),
		offered:          make(map[types.Account]uint64),
		assets:           make(map[asset.Ref]asset.Descriptor),
		changes:          newChanges(),
	}
}

// Clone returns a working copy with an empty change set.
func (s *State) Clone() *State {
	return &State{
		Counters:         s.Counters,
		merchants:        maps.Clone(s.merchants),
		merchantAccounts: maps.Clone(s.merchantAccounts),
		products:         maps.Clone(s.products),
		merchantProducts: maps.Clone(s.merchantProducts),
		payments:         s.payments,
		merchantPayments: maps.Clone(s.merchantPayments),
		buyerPayments:    maps.Clone(s.buyerPayments),
		pairPayments:     maps.Clone(s.pairPayments),
		holdings:         maps.Clone(s.holdings),
		offers:           maps.Clone(s.offers),
		offerIndex:       s.offerIndex,
		offered:          maps.Clone(s.offered),
		assets:           maps.Clone(s.assets),
		changes:          newChanges(),
	}
}

// Changes returns the records touched since this copy was cloned.
func (s *State) Changes() *Changes { return s.changes }

// ──────────────────────────────────────────────────
// Merchants
// ──────────────────────────────────────────────────

// Merchant returns the merchant with the given id.
func (s *State) Merchant(merchantID uint64) (merchant.Merchant, bool) {
	m, ok := s.merchants[merchantID]
	return m, ok
}

// MerchantByAccount returns the merchant identity of acct.
func (s *State) MerchantByAccount(acct types.Account) (merchant.Merchant, bool) {
	mid, ok := s.merchantAccounts[acct]
	if !ok {
		return merchant.Merchant{}, false
	}
	return s.merchants[mid], true
}

// AddMerchant assigns the next merchant id to acct.
func (s *State) AddMerchant(acct types.Account, at time.Time) merchant.Merchant {
	m := merchant.Merchant{
		ID:         s.Counters.Merchants.Next(),
		Account:    acct,
		SignedUpAt: at,
	}
	s.merchants[m.ID] = m
	s.merchantAccounts[acct] = m.ID
	s.changes.Merchants = append(s.changes.Merchants, m.ID)
	s.changes.Counters = true
	return m
}

// MerchantCount returns the number of merchants.
func (s *State) MerchantCount() int { return len(s.merchants) }

// ──────────────────────────────────────────────────
// Products
// ──────────────────────────────────────────────────

// Product returns an active product.
func (s *State) Product(productID uint64) (catalog.Product, bool) {
	p, ok := s.products[productID]
	return p, ok
}

// NextProductID allocates a product id.
func (s *State) NextProductID() uint64 {
	s.changes.Counters = true
	return s.Counters.Products.Next()
}

// PutProduct stores p. A product not seen before is appended to its
// merchant's listing index.
func (s *State) PutProduct(p catalog.Product) {
	if _, exists := s.products[p.ID]; !exists {
		s.merchantProducts[p.Merchant] = append(s.merchantProducts[p.Merchant], p.ID)
	}
	s.products[p.ID] = p
	s.changes.Products[p.ID] = true
}

// RemoveProduct deletes the product and removes its id from the merchant
// index, shifting later entries left so listing order is preserved.
func (s *State) RemoveProduct(productID uint64) (catalog.Product, bool) {
	p, ok := s.products[productID]
	if !ok {
		return catalog.Product{}, false
	}
	delete(s.products, productID)

	listing := s.merchantProducts[p.Merchant]
	if i := slices.Index(listing, productID); i >= 0 {
		listing = slices.Clone(listing)
		copy(listing[i:], listing[i+1:])
		listing = listing[:len(listing)-1]
		s.merchantProducts[p.Merchant] = listing
	}
	s.changes.Products[productID] = false
	return p, true
}

// MerchantProducts returns a merchant's product ids in listing order. The
// slice is shared and must not be modified.
func (s *State) MerchantProducts(merchantID uint64) []uint64 {
	return s.merchantProducts[merchantID]
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

// NextPaymentID allocates a payment id.
func (s *State) NextPaymentID() uint64 {
	s.changes.Counters = true
	return s.Counters.Payments.Next()
}

// AppendPayment records p in the global, per-merchant, per-buyer and
// per-buyer-per-merchant views. p.ID must be the last allocated id.
func (s *State) AppendPayment(p payment.Payment) {
	s.payments = append(s.payments, p)
	s.merchantPayments[p.Merchant] = append(s.merchantPayments[p.Merchant], p.ID)
	s.buyerPayments[p.Buyer] = append(s.buyerPayments[p.Buyer], p.ID)
	key := payment.BuyerMerchant{Buyer: p.Buyer, Merchant: p.Merchant}
	s.pairPayments[key] = append(s.pairPayments[key], p.ID)
	s.changes.Payments = append(s.changes.Payments, p.ID)
}

// Payment returns the payment with the given id.
func (s *State) Payment(paymentID uint64) (payment.Payment, bool) {
	if !s.Counters.Payments.Contains(paymentID) {
		return payment.Payment{}, false
	}
	i := paymentID - s.Counters.Payments.Base - 1
	if i >= uint64(len(s.payments)) {
		return payment.Payment{}, false
	}
	return s.payments[i], true
}

// PaymentIDs returns the ids in the selected view, oldest first. The
// global view is nil: its ids are the dense payment sequence.
func (s *State) PaymentIDs(view payment.View, merchantID uint64, buyer types.Account) []uint64 {
	switch view {
	case payment.ViewMerchant:
		return s.merchantPayments[merchantID]
	case payment.ViewBuyer:
		return s.buyerPayments[buyer]
	case payment.ViewBuyerMerchant:
		return s.pairPayments[payment.BuyerMerchant{Buyer: buyer, Merchant: merchantID}]
	default:
		return nil
	}
}

// ──────────────────────────────────────────────────
// Stake holdings
// ──────────────────────────────────────────────────

// Weight returns acct's stake weight.
func (s *State) Weight(acct types.Account) uint64 { return s.holdings[acct] }

// HolderCount returns the number of stakeholders.
func (s *State) HolderCount() int { return len(s.holdings) }

// TotalWeight sums all holdings.
func (s *State) TotalWeight() uint64 {
	var total uint64
	for _, w := range s.holdings {
		total += w
	}
	return total
}

// Holdings returns every holding ordered by holder.
func (s *State) Holdings() []stake.Holding {
	out := make([]stake.Holding, 0, len(s.holdings))
	for holder, w := range s.holdings {
		out = append(out, stake.Holding{Holder: holder, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Holder < out[j].Holder })
	return out
}

// SetWeight assigns acct's weight outright; zero removes the holder.
// Callers are responsible for keeping the total at stake.TotalSupply.
func (s *State) SetWeight(acct types.Account, weight uint64) {
	if weight == 0 {
		delete(s.holdings, acct)
	} else {
		s.holdings[acct] = weight
	}
	s.changes.Holders[acct] = struct{}{}
}

// MoveUnits transfers units of weight from one holder to another. It
// reports false, changing nothing, when from holds fewer than units.
func (s *State) MoveUnits(from, to types.Account, units uint64) bool {
	have := s.holdings[from]
	if have < units {
		return false
	}
	if from == to || units == 0 {
		return true
	}
	s.SetWeight(from, have-units)
	s.SetWeight(to, s.holdings[to]+units)
	return true
}

// FreeUnits returns acct's weight not currently offered for sale.
func (s *State) FreeUnits(acct types.Account) uint64 {
	w, offered := s.holdings[acct], s.offered[acct]
	if offered >= w {
		return 0
	}
	return w - offered
}

// ──────────────────────────────────────────────────
// Stake offers
// ──────────────────────────────────────────────────

// AddOffer lists one unit of owner's weight at price.
func (s *State) AddOffer(owner types.Account, price types.Amount) stake.Offer {
	o := stake.Offer{
		ID:    s.Counters.Offers.Next(),
		Owner: owner,
		Price: price,
	}
	s.offers[o.ID] = o
	s.offerIndex = append(s.offerIndex, o.ID)
	s.offered[owner]++
	s.changes.Offers[o.ID] = true
	s.changes.Counters = true
	return o
}

// Offer returns a listed offer.
func (s *State) Offer(offerID uint64) (stake.Offer, bool) {
	o, ok := s.offers[offerID]
	return o, ok
}

// RemoveOffer delists an offer by swapping it with the last index entry
// and popping. Index order is not preserved.
func (s *State) RemoveOffer(offerID uint64) (stake.Offer, bool) {
	o, ok := s.offers[offerID]
	if !ok {
		return stake.Offer{}, false
	}
	delete(s.offers, offerID)

	if i := slices.Index(s.offerIndex, offerID); i >= 0 {
		idx := slices.Clone(s.offerIndex)
		last := len(idx) - 1
		idx[i] = idx[last]
		s.offerIndex = idx[:last]
	}

	if s.offered[o.Owner] <= 1 {
		delete(s.offered, o.Owner)
	} else {
		s.offered[o.Owner]--
	}
	s.changes.Offers[offerID] = false
	return o, true
}

// OfferIndex returns listed offer ids in index order. The slice is shared
// and must not be modified.
func (s *State) OfferIndex() []uint64 { return s.offerIndex }

// OfferedUnits returns how many of acct's units are listed.
func (s *State) OfferedUnits(acct types.Account) uint64 { return s.offered[acct] }

// ──────────────────────────────────────────────────
// Asset descriptors
// ──────────────────────────────────────────────────

// Asset returns a cached descriptor.
func (s *State) Asset(ref asset.Ref) (asset.Descriptor, bool) {
	d, ok := s.assets[ref]
	return d, ok
}

// CacheAsset remembers a resolved descriptor.
func (s *State) CacheAsset(d asset.Descriptor) {
	s.assets[d.Ref] = d
}

// ──────────────────────────────────────────────────
// Fees
// ──────────────────────────────────────────────────

// AddFeesPaid adds amount to the reference-unit fee total.
func (s *State) AddFeesPaid(amount types.Amount) {
	if amount.IsZero() {
		return
	}
	s.Counters.TotalFeesPaid = s.Counters.TotalFeesPaid.Add(amount)
	s.changes.Counters = true
}
