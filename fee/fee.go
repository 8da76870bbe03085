// Package fee computes pro-rata fee shares for stakeholders.
package fee

import (
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// Share is one holder's portion of a distributed fee.
type Share struct {
	Holder types.Account `json:"holder"`
	Weight uint64        `json:"weight"`
	Amount types.Amount  `json:"amount"`
}

// Distribution summarizes one fee division.
type Distribution struct {
	Asset  asset.Ref    `json:"asset"`
	Total  types.Amount `json:"total"`
	Shares []Share      `json:"shares"`

	// Dust is the remainder integer division left undistributed. It is
	// never reallocated.
	Dust types.Amount `json:"dust"`

	// Reference is Total converted to the reference unit; zero when the
	// rate lookup failed.
	Reference types.Amount `json:"reference"`
	Degraded  bool         `json:"degraded"`
}

// Divide computes floor(total * weight / TotalSupply) for every holding,
// in the order given. Holders whose share rounds to zero are included with
// a zero amount.
func Divide(total types.Amount, holdings []stake.Holding) Distribution {
	d := Distribution{
		Total:  total,
		Shares: make([]Share, 0, len(holdings)),
	}
	var distributed types.Amount
	for _, h := range holdings {
		amt := total.MulDivFloor(h.Weight, stake.TotalSupply)
		d.Shares = append(d.Shares, Share{Holder: h.Holder, Weight: h.Weight, Amount: amt})
		distributed = distributed.Add(amt)
	}
	d.Dust, _ = total.Sub(distributed) //nolint:errcheck // shares never exceed total
	return d
}
