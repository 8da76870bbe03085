// Package stake defines stakeholder holdings and single-unit offers.
package stake

import "github.com/xraph/bazaar/types"

// TotalSupply is the fixed number of weight units across all holders.
const TotalSupply uint64 = 30

// Holding is one stakeholder's weight. Holders with zero weight do not
// exist.
type Holding struct {
	Holder types.Account `json:"holder"`
	Weight uint64        `json:"weight"`
}

// Offer lists exactly one weight unit for sale at Price.
type Offer struct {
	ID    uint64        `json:"id"`
	Owner types.Account `json:"owner"`
	Price types.Amount  `json:"price"`
}

// Transfer records a unit movement between holders.
type Transfer struct {
	From  types.Account `json:"from"`
	To    types.Account `json:"to"`
	Units uint64        `json:"units"`
}
