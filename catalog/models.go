// Package catalog defines product listings.
package catalog

import (
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/types"
)

// Commission is an optional cut of every purchase routed to a third party.
// A product either has both a recipient and a percentage in 1..99, or
// neither.
type Commission struct {
	Recipient types.Account `json:"recipient,omitempty"`
	Percent   uint8         `json:"percent,omitempty"`
}

// IsSet reports whether a commission is configured.
func (c Commission) IsSet() bool {
	return !c.Recipient.IsZero() && c.Percent > 0
}

// Valid reports whether c satisfies the both-or-neither rule with the
// percentage strictly between 0 and 100.
func (c Commission) Valid() bool {
	if c.Recipient.IsZero() && c.Percent == 0 {
		return true
	}
	return !c.Recipient.IsZero() && c.Percent > 0 && c.Percent < 100
}

// Product is a priced listing owned by one merchant.
type Product struct {
	types.Entity

	ID         uint64           `json:"id"`
	Merchant   uint64           `json:"merchant_id"`
	Price      types.Amount     `json:"price"`
	Asset      asset.Descriptor `json:"asset"`
	Capped     bool             `json:"capped"`
	Stock      uint64           `json:"stock"`
	Commission Commission       `json:"commission"`
}

// Input carries the caller-supplied fields of a product.
type Input struct {
	Asset      asset.Ref
	Price      types.Amount
	Commission Commission

	// Stock caps the sellable quantity when Capped is set.
	Capped bool
	Stock  uint64
}
