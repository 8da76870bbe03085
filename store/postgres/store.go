package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

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

// compile-time interface check
var _ bazaarstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB

	// q runs queries, on the pool or inside a transaction.
	q    querier
	inTx bool
}

// querier is the query builder surface of both the pool and a transaction.
type querier interface {
	NewSelect(model ...any) *pgdriver.SelectQuery
	NewInsert(model any) *pgdriver.InsertQuery
	NewUpdate(model any) *pgdriver.UpdateQuery
	NewDelete(model any) *pgdriver.DeleteQuery
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	d := pgdriver.Unwrap(db)
	return &Store{db: db, pg: d, q: d}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("bazaar/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bazaar/postgres: migration failed: %w", err)
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

// RunInTx runs fn inside a database transaction. Nested calls join the
// enclosing transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bazaarstore.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	tx, err := s.pg.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("bazaar/postgres: begin: %w", err)
	}
	if err := fn(ctx, &Store{db: s.db, pg: s.pg, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("bazaar/postgres: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bazaar/postgres: commit: %w", err)
	}
	return nil
}

// ==================== Merchant Store ====================

func (s *Store) CreateMerchant(ctx context.Context, m *merchant.Merchant) error {
	_, err := s.q.NewInsert(toMerchantModel(m)).
		OnConflict("(id) DO UPDATE").
		Set("account = EXCLUDED.account").
		Set("signed_up_at = EXCLUDED.signed_up_at").
		Exec(ctx)
	return err
}

func (s *Store) ListMerchants(ctx context.Context) ([]*merchant.Merchant, error) {
	var models []merchantModel
	if err := s.q.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	result := make([]*merchant.Merchant, len(models))
	for i := range models {
		result[i] = fromMerchantModel(&models[i])
	}
	return result, nil
}

// ==================== Product Store ====================

func (s *Store) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	_, err := s.q.NewInsert(toProductModel(p)).
		OnConflict("(id) DO UPDATE").
		Set("price = EXCLUDED.price").
		Set("asset_ref = EXCLUDED.asset_ref").
		Set("asset_name = EXCLUDED.asset_name").
		Set("asset_symbol = EXCLUDED.asset_symbol").
		Set("asset_decimals = EXCLUDED.asset_decimals").
		Set("capped = EXCLUDED.capped").
		Set("stock = EXCLUDED.stock").
		Set("commission_recipient = EXCLUDED.commission_recipient").
		Set("commission_percent = EXCLUDED.commission_percent").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetProduct(ctx context.Context, productID uint64) (*catalog.Product, error) {
	m := new(productModel)
	err := s.q.NewSelect(m).
		Where("id = $1", int64(productID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: product %d", bazaar.ErrNotFound, productID)
		}
		return nil, err
	}
	return fromProductModel(m)
}

func (s *Store) DeleteProduct(ctx context.Context, productID uint64) error {
	_, err := s.q.NewDelete((*productModel)(nil)).
		Where("id = $1", int64(productID)).
		Exec(ctx)
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	var models []productModel
	if err := s.q.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.q.NewInsert(toPaymentModel(p)).
		OnConflict("(id) DO UPDATE").
		Set("receipt = EXCLUDED.receipt").
		Set("timestamp = EXCLUDED.timestamp").
		Set("product_id = EXCLUDED.product_id").
		Set("merchant_id = EXCLUDED.merchant_id").
		Set("buyer = EXCLUDED.buyer").
		Set("asset_ref = EXCLUDED.asset_ref").
		Set("asset_name = EXCLUDED.asset_name").
		Set("asset_symbol = EXCLUDED.asset_symbol").
		Set("asset_decimals = EXCLUDED.asset_decimals").
		Set("unit_price = EXCLUDED.unit_price").
		Set("quantity = EXCLUDED.quantity").
		Set("merchant_net = EXCLUDED.merchant_net").
		Set("commission = EXCLUDED.commission").
		Set("fee = EXCLUDED.fee").
		Exec(ctx)
	return err
}

func (s *Store) GetPaymentByReceipt(ctx context.Context, receipt id.ReceiptID) (*payment.Payment, error) {
	m := new(paymentModel)
	err := s.q.NewSelect(m).
		Where("receipt = $1", receipt.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: receipt %s", bazaar.ErrNotFound, receipt)
		}
		return nil, err
	}
	return fromPaymentModel(m)
}

func (s *Store) ListPayments(ctx context.Context) ([]*payment.Payment, error) {
	var models []paymentModel
	if err := s.q.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
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
			Where("holder = $1", string(h.Holder)).
			Exec(ctx)
		return err
	}
	_, err := s.q.NewInsert(&holdingModel{Holder: string(h.Holder), Weight: int64(h.Weight)}).
		OnConflict("(holder) DO UPDATE").
		Set("weight = EXCLUDED.weight").
		Exec(ctx)
	return err
}

func (s *Store) ListHoldings(ctx context.Context) ([]stake.Holding, error) {
	var models []holdingModel
	if err := s.q.NewSelect(&models).OrderExpr("holder ASC").Scan(ctx); err != nil {
		return nil, err
	}
	result := make([]stake.Holding, len(models))
	for i, m := range models {
		result[i] = stake.Holding{Holder: types.Account(m.Holder), Weight: uint64(m.Weight)}
	}
	return result, nil
}

func (s *Store) CreateOffer(ctx context.Context, o *stake.Offer) error {
	_, err := s.q.NewInsert(toOfferModel(o)).
		OnConflict("(id) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("price = EXCLUDED.price").
		Exec(ctx)
	return err
}

func (s *Store) DeleteOffer(ctx context.Context, offerID uint64) error {
	_, err := s.q.NewDelete((*offerModel)(nil)).
		Where("id = $1", int64(offerID)).
		Exec(ctx)
	return err
}

func (s *Store) ListOffers(ctx context.Context) ([]*stake.Offer, error) {
	var models []offerModel
	if err := s.q.NewSelect(&models).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.q.NewInsert(toCountersModel(c)).
		OnConflict("(id) DO UPDATE").
		Set("merchants_base = EXCLUDED.merchants_base").
		Set("merchants_last = EXCLUDED.merchants_last").
		Set("products_base = EXCLUDED.products_base").
		Set("products_last = EXCLUDED.products_last").
		Set("payments_base = EXCLUDED.payments_base").
		Set("payments_last = EXCLUDED.payments_last").
		Set("offers_base = EXCLUDED.offers_base").
		Set("offers_last = EXCLUDED.offers_last").
		Set("total_fees_paid = EXCLUDED.total_fees_paid").
		Exec(ctx)
	return err
}

func (s *Store) LoadCounters(ctx context.Context) (*state.Counters, error) {
	m := new(countersModel)
	err := s.q.NewSelect(m).
		Where("id = $1", countersRow).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, bazaar.ErrNotFound
		}
		return nil, err
	}
	return fromCountersModel(m)
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
