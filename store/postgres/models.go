package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/state"
	"github.com/xraph/bazaar/types"
)

// Amounts are stored as decimal strings: 18-decimal token values do not
// fit in BIGINT.

// ==================== Merchant models ====================

type merchantModel struct {
	grove.BaseModel `grove:"table:bazaar_merchants"`

	ID         int64     `grove:"id,pk"`
	Account    string    `grove:"account"`
	SignedUpAt time.Time `grove:"signed_up_at"`
}

func toMerchantModel(m *merchant.Merchant) *merchantModel {
	return &merchantModel{
		ID:         int64(m.ID),
		Account:    string(m.Account),
		SignedUpAt: m.SignedUpAt,
	}
}

func fromMerchantModel(m *merchantModel) *merchant.Merchant {
	return &merchant.Merchant{
		ID:         uint64(m.ID),
		Account:    types.Account(m.Account),
		SignedUpAt: m.SignedUpAt,
	}
}

// ==================== Product models ====================

type productModel struct {
	grove.BaseModel `grove:"table:bazaar_products"`

	ID                  int64     `grove:"id,pk"`
	MerchantID          int64     `grove:"merchant_id"`
	Price               string    `grove:"price"`
	AssetRef            string    `grove:"asset_ref"`
	AssetName           string    `grove:"asset_name"`
	AssetSymbol         string    `grove:"asset_symbol"`
	AssetDecimals       int16     `grove:"asset_decimals"`
	Capped              bool      `grove:"capped"`
	Stock               int64     `grove:"stock"`
	CommissionRecipient string    `grove:"commission_recipient"`
	CommissionPercent   int16     `grove:"commission_percent"`
	CreatedAt           time.Time `grove:"created_at"`
	UpdatedAt           time.Time `grove:"updated_at"`
}

func toProductModel(p *catalog.Product) *productModel {
	return &productModel{
		ID:                  int64(p.ID),
		MerchantID:          int64(p.Merchant),
		Price:               p.Price.String(),
		AssetRef:            string(p.Asset.Ref),
		AssetName:           p.Asset.Name,
		AssetSymbol:         p.Asset.Symbol,
		AssetDecimals:       int16(p.Asset.Decimals),
		Capped:              p.Capped,
		Stock:               int64(p.Stock),
		CommissionRecipient: string(p.Commission.Recipient),
		CommissionPercent:   int16(p.Commission.Percent),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*catalog.Product, error) {
	price, err := types.ParseAmount(m.Price)
	if err != nil {
		return nil, err
	}
	return &catalog.Product{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       uint64(m.ID),
		Merchant: uint64(m.MerchantID),
		Price:    price,
		Asset: asset.Descriptor{
			Ref:      asset.Ref(m.AssetRef),
			Name:     m.AssetName,
			Symbol:   m.AssetSymbol,
			Decimals: uint8(m.AssetDecimals),
		},
		Capped: m.Capped,
		Stock:  uint64(m.Stock),
		Commission: catalog.Commission{
			Recipient: types.Account(m.CommissionRecipient),
			Percent:   uint8(m.CommissionPercent),
		},
	}, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:bazaar_payments"`

	ID            int64     `grove:"id,pk"`
	Receipt       string    `grove:"receipt"`
	Timestamp     time.Time `grove:"timestamp"`
	ProductID     int64     `grove:"product_id"`
	MerchantID    int64     `grove:"merchant_id"`
	Buyer         string    `grove:"buyer"`
	AssetRef      string    `grove:"asset_ref"`
	AssetName     string    `grove:"asset_name"`
	AssetSymbol   string    `grove:"asset_symbol"`
	AssetDecimals int16     `grove:"asset_decimals"`
	UnitPrice     string    `grove:"unit_price"`
	Quantity      int64     `grove:"quantity"`
	MerchantNet   string    `grove:"merchant_net"`
	Commission    string    `grove:"commission"`
	Fee           string    `grove:"fee"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:            int64(p.ID),
		Receipt:       p.Receipt.String(),
		Timestamp:     p.Timestamp,
		ProductID:     int64(p.ProductID),
		MerchantID:    int64(p.Merchant),
		Buyer:         string(p.Buyer),
		AssetRef:      string(p.Asset.Ref),
		AssetName:     p.Asset.Name,
		AssetSymbol:   p.Asset.Symbol,
		AssetDecimals: int16(p.Asset.Decimals),
		UnitPrice:     p.UnitPrice.String(),
		Quantity:      int64(p.Quantity),
		MerchantNet:   p.MerchantNet.String(),
		Commission:    p.Commission.String(),
		Fee:           p.Fee.String(),
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	receipt, err := id.ParseReceiptID(m.Receipt)
	if err != nil {
		return nil, err
	}
	amounts, err := parseAmounts(m.UnitPrice, m.MerchantNet, m.Commission, m.Fee)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		ID:        uint64(m.ID),
		Receipt:   receipt,
		Timestamp: m.Timestamp,
		ProductID: uint64(m.ProductID),
		Merchant:  uint64(m.MerchantID),
		Buyer:     types.Account(m.Buyer),
		Asset: asset.Descriptor{
			Ref:      asset.Ref(m.AssetRef),
			Name:     m.AssetName,
			Symbol:   m.AssetSymbol,
			Decimals: uint8(m.AssetDecimals),
		},
		UnitPrice:   amounts[0],
		Quantity:    uint64(m.Quantity),
		MerchantNet: amounts[1],
		Commission:  amounts[2],
		Fee:         amounts[3],
	}, nil
}

// ==================== Stake models ====================

type holdingModel struct {
	grove.BaseModel `grove:"table:bazaar_holdings"`

	Holder string `grove:"holder,pk"`
	Weight int64  `grove:"weight"`
}

type offerModel struct {
	grove.BaseModel `grove:"table:bazaar_offers"`

	ID    int64  `grove:"id,pk"`
	Owner string `grove:"owner"`
	Price string `grove:"price"`
}

func toOfferModel(o *stake.Offer) *offerModel {
	return &offerModel{
		ID:    int64(o.ID),
		Owner: string(o.Owner),
		Price: o.Price.String(),
	}
}

func fromOfferModel(m *offerModel) (*stake.Offer, error) {
	price, err := types.ParseAmount(m.Price)
	if err != nil {
		return nil, err
	}
	return &stake.Offer{
		ID:    uint64(m.ID),
		Owner: types.Account(m.Owner),
		Price: price,
	}, nil
}

// ==================== Counter models ====================

// countersRow is the id of the single counters row.
const countersRow = 1

type countersModel struct {
	grove.BaseModel `grove:"table:bazaar_counters"`

	ID            int16  `grove:"id,pk"`
	MerchantsBase int64  `grove:"merchants_base"`
	MerchantsLast int64  `grove:"merchants_last"`
	ProductsBase  int64  `grove:"products_base"`
	ProductsLast  int64  `grove:"products_last"`
	PaymentsBase  int64  `grove:"payments_base"`
	PaymentsLast  int64  `grove:"payments_last"`
	OffersBase    int64  `grove:"offers_base"`
	OffersLast    int64  `grove:"offers_last"`
	TotalFeesPaid string `grove:"total_fees_paid"`
}

func toCountersModel(c state.Counters) *countersModel {
	return &countersModel{
		ID:            countersRow,
		MerchantsBase: int64(c.Merchants.Base),
		MerchantsLast: int64(c.Merchants.Last),
		ProductsBase:  int64(c.Products.Base),
		ProductsLast:  int64(c.Products.Last),
		PaymentsBase:  int64(c.Payments.Base),
		PaymentsLast:  int64(c.Payments.Last),
		OffersBase:    int64(c.Offers.Base),
		OffersLast:    int64(c.Offers.Last),
		TotalFeesPaid: c.TotalFeesPaid.String(),
	}
}

func fromCountersModel(m *countersModel) (*state.Counters, error) {
	fees, err := types.ParseAmount(m.TotalFeesPaid)
	if err != nil {
		return nil, err
	}
	return &state.Counters{
		Merchants:     id.Sequence{Base: uint64(m.MerchantsBase), Last: uint64(m.MerchantsLast)},
		Products:      id.Sequence{Base: uint64(m.ProductsBase), Last: uint64(m.ProductsLast)},
		Payments:      id.Sequence{Base: uint64(m.PaymentsBase), Last: uint64(m.PaymentsLast)},
		Offers:        id.Sequence{Base: uint64(m.OffersBase), Last: uint64(m.OffersLast)},
		TotalFeesPaid: fees,
	}, nil
}

func parseAmounts(values ...string) ([]types.Amount, error) {
	out := make([]types.Amount, len(values))
	for i, v := range values {
		a, err := types.ParseAmount(v)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
