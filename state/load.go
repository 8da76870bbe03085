package state

import (
	"fmt"
	"sort"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
)

// Snapshot is the persisted form of a State.
type Snapshot struct {
	Counters  Counters
	Merchants []merchant.Merchant
	Products  []catalog.Product
	Payments  []payment.Payment
	Holdings  []stake.Holding
	Offers    []stake.Offer
}

// Restore rebuilds a State and its indices from persisted records.
// Product and offer indices are rebuilt in id order; payments must form
// the dense sequence described by the counters.
func Restore(snap Snapshot) (*State, error) {
	s := New(0)
	s.Counters = snap.Counters

	for _, m := range snap.Merchants {
		s.merchants[m.ID] = m
		s.merchantAccounts[m.Account] = m.ID
	}

	products := append([]catalog.Product(nil), snap.Products...)
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	for _, p := range products {
		s.products[p.ID] = p
		s.merchantProducts[p.Merchant] = append(s.merchantProducts[p.Merchant], p.ID)
		s.assets[p.Asset.Ref] = p.Asset
	}

	payments := append([]payment.Payment(nil), snap.Payments...)
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	if uint64(len(payments)) != s.Counters.Payments.Count() {
		return nil, fmt.Errorf("state: %d payments stored, counter expects %d",
			len(payments), s.Counters.Payments.Count())
	}
	for i, p := range payments {
		if p.ID != s.Counters.Payments.At(uint64(i)) {
			return nil, fmt.Errorf("state: payment sequence broken at id %d", p.ID)
		}
		s.AppendPayment(p)
	}

	var total uint64
	for _, h := range snap.Holdings {
		if h.Weight == 0 {
			continue
		}
		s.holdings[h.Holder] = h.Weight
		total += h.Weight
	}
	if len(snap.Holdings) > 0 && total != stake.TotalSupply {
		return nil, fmt.Errorf("state: stored holdings sum to %d, want %d", total, stake.TotalSupply)
	}

	offers := append([]stake.Offer(nil), snap.Offers...)
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	for _, o := range offers {
		s.offers[o.ID] = o
		s.offerIndex = append(s.offerIndex, o.ID)
		s.offered[o.Owner]++
	}
	for owner, n := range s.offered {
		if n > s.holdings[owner] {
			return nil, fmt.Errorf("state: %s offers %d units but holds %d", owner, n, s.holdings[owner])
		}
	}

	s.changes = newChanges()
	return s, nil
}

// Export returns the persisted form of s.
func (s *State) Export() Snapshot {
	snap := Snapshot{
		Counters: s.Counters,
		Payments: append([]payment.Payment(nil), s.payments...),
		Holdings: s.Holdings(),
	}
	for _, m := range s.merchants {
		snap.Merchants = append(snap.Merchants, m)
	}
	sort.Slice(snap.Merchants, func(i, j int) bool { return snap.Merchants[i].ID < snap.Merchants[j].ID })
	for _, p := range s.products {
		snap.Products = append(snap.Products, p)
	}
	sort.Slice(snap.Products, func(i, j int) bool { return snap.Products[i].ID < snap.Products[j].ID })
	for _, idx := range s.offerIndex {
		snap.Offers = append(snap.Offers, s.offers[idx])
	}
	return snap
}
