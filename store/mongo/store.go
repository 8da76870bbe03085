package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/state"
	bazaarstore "github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/types"
)

// Collection name constants.
const (
	colMerchants = "bazaar_merchants"
	colProducts  = "bazaar_products"
	colPayments  = "bazaar_payments"
	colHoldings  = "bazaar_holdings"
	colOffers    = "bazaar_offers"
	colCounters  = "bazaar_counters"
)

// compile-time interface check
var _ bazaarstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB

	// q runs queries, directly or inside a session transaction.
	q    querier
	inTx bool
}

// querier is the query builder surface of both the database and a
// transaction.
type querier interface {
	NewFind(model ...any) *mongodriver.FindQuery
	NewInsert(model any) *mongodriver.InsertQuery
	NewUpdate(model any) *mongodriver.UpdateQuery
	NewDelete(model any) *mongodriver.DeleteQuery
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	d := mongodriver.Unwrap(db)
	return &Store{db: db, mdb: d, q: d}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all bazaar collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("bazaar/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInTx runs fn inside a session transaction. Transactions need a
// replica set or sharded cluster. Nested calls join the enclosing
// transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bazaarstore.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	raw, err := s.mdb.GroveTx(ctx, 0, false)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: begin: %w", err)
	}
	tx, ok := raw.(*mongodriver.MongoTx)
	if !ok {
		return fmt.Errorf("bazaar/mongo: begin: unexpected transaction type %T", raw)
	}
	if err := fn(tx.SessionContext(ctx), &Store{db: s.db, mdb: s.mdb, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("bazaar/mongo: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bazaar/mongo: commit: %w", err)
	}
	return nil
}

// ==================== Merchant Store ====================

func (s *Store) CreateMerchant(ctx context.Context, m *merchant.Merchant) error {
	mm := toMerchantModel(m)
	_, err := s.q.NewUpdate(mm).
		Filter(bson.M{"_id": mm.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"account":      mm.Account,
			"signed_up_at": mm.SignedUpAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: merchant %s", bazaar.ErrAlreadyExists, m.Account)
		}
		return fmt.Errorf("bazaar/mongo: create merchant: %w", err)
	}
	return nil
}

func (s *Store) ListMerchants(ctx context.Context) ([]*merchant.Merchant, error) {
	var models []merchantModel
	err := s.q.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list merchants: %w", err)
	}
	result := make([]*merchant.Merchant, len(models))
	for i := range models {
		result[i] = fromMerchantModel(&models[i])
	}
	return result, nil
}

// ==================== Product Store ====================

func (s *Store) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	m := toProductModel(p)
	_, err := s.q.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"merchant_id": m.MerchantID,
			"price":       m.Price,
			"asset":       m.Asset,
			"capped":      m.Capped,
			"stock":       m.Stock,
			"commission":  m.Commission,
			"created_at":  m.CreatedAt,
			"updated_at":  m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: upsert product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID uint64) (*catalog.Product, error) {
	var m productModel
	err := s.q.NewFind(&m).
		Filter(bson.M{"_id": int64(productID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: product %d", bazaar.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("bazaar/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) DeleteProduct(ctx context.Context, productID uint64) error {
	_, err := s.q.NewDelete((*productModel)(nil)).
		Filter(bson.M{"_id": int64(productID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: delete product: %w", err)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	var models []productModel
	err := s.q.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list products: %w", err)
	}
	result := make([]*catalog.Product, len(models))
	for i := range models {
		p, err := fromProductModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	m := toPaymentModel(p)
	_, err := s.q.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"receipt":      m.Receipt,
			"timestamp":    m.Timestamp,
			"product_id":   m.ProductID,
			"merchant_id":  m.MerchantID,
			"buyer":        m.Buyer,
			"asset":        m.Asset,
			"unit_price":   m.UnitPrice,
			"quantity":     m.Quantity,
			"merchant_net": m.MerchantNet,
			"commission":   m.Commission,
			"fee":          m.Fee,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: receipt %s", bazaar.ErrAlreadyExists, p.Receipt)
		}
		return fmt.Errorf("bazaar/mongo: create payment: %w", err)
	}
	return nil
}

func (s *Store) GetPaymentByReceipt(ctx context.Context, receipt id.ReceiptID) (*payment.Payment, error) {
	var m paymentModel
	err := s.q.NewFind(&m).
		Filter(bson.M{"receipt": receipt.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: receipt %s", bazaar.ErrNotFound, receipt)
		}
		return nil, fmt.Errorf("bazaar/mongo: get payment by receipt: %w", err)
	}
	return fromPaymentModel(&m)
}

func (s *Store) ListPayments(ctx context.Context) ([]*payment.Payment, error) {
	var models []paymentModel
	err := s.q.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list payments: %w", err)
	}
	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Stake Store ====================

func (s *Store) SetHolding(ctx context.Context, h stake.Holding) error {
	if h.Weight == 0 {
		_, err := s.q.NewDelete((*holdingModel)(nil)).
			Filter(bson.M{"_id": string(h.Holder)}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bazaar/mongo: delete holding: %w", err)
		}
		return nil
	}
	m := &holdingModel{Holder: string(h.Holder), Weight: int64(h.Weight)}
	_, err := s.q.NewUpdate(m).
		Filter(bson.M{"_id": m.Holder}).
		SetUpdate(bson.M{"$set": bson.M{"weight": m.Weight}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: set holding: %w", err)
	}
	return nil
}

func (s *Store) ListHoldings(ctx context.Context) ([]stake.Holding, error) {
	var models []holdingModel
	err := s.q.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list holdings: %w", err)
	}
	result := make([]stake.Holding, len(models))
	for i, m := range models {
		result[i] = stake.Holding{Holder: types.Account(m.Holder), Weight: uint64(m.Weight)}
	}
	return result, nil
}

func (s *Store) CreateOffer(ctx context.Context, o *stake.Offer) error {
	m := toOfferModel(o)
	_, err := s.q.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"owner": m.Owner,
			"price": m.Price,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: create offer: %w", err)
	}
	return nil
}

func (s *Store) DeleteOffer(ctx context.Context, offerID uint64) error {
	_, err := s.q.NewDelete((*offerModel)(nil)).
		Filter(bson.M{"_id": int64(offerID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: delete offer: %w", err)
	}
	return nil
}

func (s *Store) ListOffers(ctx context.Context) ([]*stake.Offer, error) {
	var models []offerModel
	err := s.q.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bazaar/mongo: list offers: %w", err)
	}
	result := make([]*stake.Offer, len(models))
	for i := range models {
		o, err := fromOfferModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = o
	}
	return result, nil
}

// ==================== Counter Store ====================

func (s *Store) SaveCounters(ctx context.Context, c state.Counters) error {
	m := toCountersModel(c)
	_, err := s.q.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"merchants":       m.Merchants,
			"products":        m.Products,
			"payments":        m.Payments,
			"offers":          m.Offers,
			"total_fees_paid": m.TotalFeesPaid,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bazaar/mongo: save counters: %w", err)
	}
	return nil
}

func (s *Store) LoadCounters(ctx context.Context) (*state.Counters, error) {
	var m countersModel
	err := s.q.NewFind(&m).
		Filter(bson.M{"_id": countersDoc}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bazaar.ErrNotFound
		}
		return nil, fmt.Errorf("bazaar/mongo: load counters: %w", err)
	}
	return fromCountersModel(&m)
}

// ==================== Helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all bazaar collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colMerchants: {
			{
				Keys:    bson.D{{Key: "account", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colProducts: {
			{Keys: bson.D{{Key: "merchant_id", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colPayments: {
			{
				Keys:    bson.D{{Key: "receipt", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "merchant_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "buyer", Value: 1}, {Key: "_id", Value: -1}}},
		},
		colHoldings: nil,
		colOffers: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colCounters: nil,
	}
}
