// Package payment defines purchase records and the settlement split.
package payment

import (
	"time"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/types"
)

// FeeDenominator divides a purchase total to derive the stakeholder fee.
const FeeDenominator = 1000

// Payment is an immutable record of one purchase.
type Payment struct {
	ID          uint64           `json:"id"`
	Receipt     id.ReceiptID     `json:"receipt"`
	Timestamp   time.Time        `json:"timestamp"`
	ProductID   uint64           `json:"product_id"`
	Merchant    uint64           `json:"merchant_id"`
	Buyer       types.Account    `json:"buyer"`
	Asset       asset.Descriptor `json:"asset"`
	UnitPrice   types.Amount     `json:"unit_price"`
	Quantity    uint64           `json:"quantity"`
	MerchantNet types.Amount     `json:"merchant_net"`
	Commission  types.Amount     `json:"commission"`
	Fee         types.Amount     `json:"fee"`
}

// Total returns the amount charged for the purchase.
func (p Payment) Total() types.Amount {
	return types.Sum(p.MerchantNet, p.Commission, p.Fee)
}

// Split is the division of a purchase total.
type Split struct {
	Total       types.Amount
	Fee         types.Amount
	Commission  types.Amount
	MerchantNet types.Amount
}

// ComputeSplit divides total into fee = floor(total/1000),
// commission = floor(total*percent/100) and the merchant's remainder.
// percent is zero when the product carries no commission.
func ComputeSplit(total types.Amount, percent uint8) Split {
	fee := total.DivFloor(types.NewAmount(FeeDenominator))
	var commission types.Amount
	if percent > 0 {
		commission = total.MulDivFloor(uint64(percent), 100)
	}
	// fee + commission <= total/1000 + total*99/100 < total
	net, _ := total.Sub(fee.Add(commission)) //nolint:errcheck // cannot underflow for percent < 100
	return Split{
		Total:       total,
		Fee:         fee,
		Commission:  commission,
		MerchantNet: net,
	}
}

// View selects one of the payment indices.
type View int

const (
	ViewAll View = iota
	ViewMerchant
	ViewBuyer
	ViewBuyerMerchant
)

// SelectView picks the index for the given filters. Zero values mean
// "no filter".
func SelectView(merchantID uint64, buyer types.Account) View {
	switch {
	case merchantID == 0 && buyer.IsZero():
		return ViewAll
	case buyer.IsZero():
		return ViewMerchant
	case merchantID == 0:
		return ViewBuyer
	default:
		return ViewBuyerMerchant
	}
}

// BuyerMerchant keys the per-buyer-per-merchant index.
type BuyerMerchant struct {
	Buyer    types.Account
	Merchant uint64
}
