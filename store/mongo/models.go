package mongo

import (
	"fmt"
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

// ==================== Merchant models ====================

type merchantModel struct {
	grove.BaseModel `grove:"table:bazaar_merchants"`

	ID         int64     `grove:"id,pk"        bson:"_id"`
	Account    string    `grove:"account"      bson:"account"`
	SignedUpAt time.Time `grove:"signed_up_at" bson:"signed_up_at"`
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

// descriptorModel embeds an asset descriptor in product and payment
// documents.
type descriptorModel struct {
	Ref      string `bson:"ref"`
	Name     string `bson:"name"`
	Symbol   string `bson:"symbol"`
	Decimals int32  `bson:"decimals"`
}

func toDescriptorModel(d asset.Descriptor) descriptorModel {
	return descriptorModel{
		Ref:      string(d.Ref),
		Name:     d.Name,
		Symbol:   d.Symbol,
		Decimals: int32(d.Decimals),
	}
}

func (m descriptorModel) descriptor() asset.Descriptor {
	return asset.Descriptor{
		Ref:      asset.Ref(m.Ref),
		Name:     m.Name,
		Symbol:   m.Symbol,
		Decimals: uint8(m.Decimals),
	}
}

type commissionModel struct {
	Recipient string `bson:"recipient"`
	Percent   int32  `bson:"percent"`
}

type productModel struct {
	grove.BaseModel `grove:"table:bazaar_products"`

	ID         int64            `grove:"id,pk"       bson:"_id"`
	MerchantID int64            `grove:"merchant_id" bson:"merchant_id"`
	Price      string           `grove:"price"       bson:"price"`
	Asset      descriptorModel  `grove:"asset"       bson:"asset"`
	Capped     bool             `grove:"capped"      bson:"capped"`
	Stock      int64            `grove:"stock"       bson:"stock"`
	Commission *commissionModel `grove:"commission"  bson:"commission,omitempty"`
	CreatedAt  time.Time        `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time        `grove:"updated_at"  bson:"updated_at"`
}

func toProductModel(p *catalog.Product) *productModel {
	m := &productModel{
		ID:         int64(p.ID),
		MerchantID: int64(p.Merchant),
		Price:      p.Price.String(),
		Asset:      toDescriptorModel(p.Asset),
		Capped:     p.Capped,
		Stock:      int64(p.Stock),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Commission.IsSet() {
		m.Commission = &commissionModel{
			Recipient: string(p.Commission.Recipient),
			Percent:   int32(p.Commission.Percent),
		}
	}
	return m
}

func fromProductModel(m *productModel) (*catalog.Product, error) {
	price, err := types.ParseAmount(m.Price)
	if err != nil {
		return nil, fmt.Errorf("product %d price: %w", m.ID, err)
	}
	p := &catalog.Product{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:       uint64(m.ID),
		Merchant: uint64(m.MerchantID),
		Price:    price,
		Asset:    m.Asset.descriptor(),
		Capped:   m.Capped,
		Stock:    uint64(m.Stock),
	}
	if m.Commission != nil {
		p.Commission = catalog.Commission{
			Recipient: types.Account(m.Commission.Recipient),
			Percent:   uint8(m.Commission.Percent),
		}
	}
	return p, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:bazaar_payments"`

	ID          int64           `grove:"id,pk"        bson:"_id"`
	Receipt     string          `grove:"receipt"      bson:"receipt"`
	Timestamp   time.Time       `grove:"timestamp"    bson:"timestamp"`
	ProductID   int64           `grove:"product_id"   bson:"product_id"`
	MerchantID  int64           `grove:"merchant_id"  bson:"merchant_id"`
	Buyer       string          `grove:"buyer"        bson:"buyer"`
	Asset       descriptorModel `grove:"asset"        bson:"asset"`
	UnitPrice   string          `grove:"unit_price"   bson:"unit_price"`
	Quantity    int64           `grove:"quantity"     bson:"quantity"`
	MerchantNet string          `grove:"merchant_net" bson:"merchant_net"`
	Commission  string          `grove:"commission"   bson:"commission"`
	Fee         string          `grove:"fee"          bson:"fee"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:          int64(p.ID),
		Receipt:     p.Receipt.String(),
		Timestamp:   p.Timestamp,
		ProductID:   int64(p.ProductID),
		MerchantID:  int64(p.Merchant),
		Buyer:       string(p.Buyer),
		Asset:       toDescriptorModel(p.Asset),
		UnitPrice:   p.UnitPrice.String(),
		Quantity:    int64(p.Quantity),
		MerchantNet: p.MerchantNet.String(),
		Commission:  p.Commission.String(),
		Fee:         p.Fee.String(),
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	receipt, err := id.ParseReceiptID(m.Receipt)
	if err != nil {
		return nil, fmt.Errorf("payment %d receipt: %w", m.ID, err)
	}
	var amounts [4]types.Amount
	for i, v := range []string{m.UnitPrice, m.MerchantNet, m.Commission, m.Fee} {
		if amounts[i], err = types.ParseAmount(v); err != nil {
			return nil, fmt.Errorf("payment %d amounts: %w", m.ID, err)
		}
	}
	return &payment.Payment{
		ID:          uint64(m.ID),
		Receipt:     receipt,
		Timestamp:   m.Timestamp,
		ProductID:   uint64(m.ProductID),
		Merchant:    uint64(m.MerchantID),
		Buyer:       types.Account(m.Buyer),
		Asset:       m.Asset.descriptor(),
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

	Holder string `grove:"holder,pk" bson:"_id"`
	Weight int64  `grove:"weight"    bson:"weight"`
}

type offerModel struct {
	grove.BaseModel `grove:"table:bazaar_offers"`

	ID    int64  `grove:"id,pk" bson:"_id"`
	Owner string `grove:"owner" bson:"owner"`
	Price string `grove:"price" bson:"price"`
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
		return nil, fmt.Errorf("offer %d price: %w", m.ID, err)
	}
	return &stake.Offer{
		ID:    uint64(m.ID),
		Owner: types.Account(m.Owner),
		Price: price,
	}, nil
}

// ==================== Counter models ====================

const countersDoc = "counters"

type sequenceModel struct {
	Base int64 `bson:"base"`
	Last int64 `bson:"last"`
}

type countersModel struct {
	grove.BaseModel `grove:"table:bazaar_counters"`

	ID            string        `grove:"id,pk"           bson:"_id"`
	Merchants     sequenceModel `grove:"merchants"       bson:"merchants"`
	Products      sequenceModel `grove:"products"        bson:"products"`
	Payments      sequenceModel `grove:"payments"        bson:"payments"`
	Offers        sequenceModel `grove:"offers"          bson:"offers"`
	TotalFeesPaid string        `grove:"total_fees_paid" bson:"total_fees_paid"`
}

func toSequenceModel(s id.Sequence) sequenceModel {
	return sequenceModel{Base: int64(s.Base), Last: int64(s.Last)}
}

func (m sequenceModel) sequence() id.Sequence {
	return id.Sequence{Base: uint64(m.Base), Last: uint64(m.Last)}
}

func toCountersModel(c state.Counters) *countersModel {
	return &countersModel{
		ID:            countersDoc,
		Merchants:     toSequenceModel(c.Merchants),
		Products:      toSequenceModel(c.Products),
		Payments:      toSequenceModel(c.Payments),
		Offers:        toSequenceModel(c.Offers),
		TotalFeesPaid: c.TotalFeesPaid.String(),
	}
}

func fromCountersModel(m *countersModel) (*state.Counters, error) {
	fees, err := types.ParseAmount(m.TotalFeesPaid)
	if err != nil {
		return nil, fmt.Errorf("counters total fees: %w", err)
	}
	return &state.Counters{
		Merchants:     m.Merchants.sequence(),
		Products:      m.Products.sequence(),
		Payments:      m.Payments.sequence(),
		Offers:        m.Offers.sequence(),
		TotalFeesPaid: fees,
	}, nil
}
