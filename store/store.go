// Package store defines the persistence contract for bazaar records.
//
// The engine keeps its working state in memory and writes the records each
// committed operation touched through this interface. On Start the full
// state is rebuilt from what the store returns.
package store

import (
	"context"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/state"
)

// Store is the unified storage interface for all bazaar records.
// Writes are idempotent: writing a record whose key exists replaces it, and
// removing an absent record is not an error.
type Store interface {
	// RunInTx runs fn in one transaction. Every write fn makes through tx
	// commits together or not at all.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Merchant methods
	CreateMerchant(ctx context.Context, m *merchant.Merchant) error
	ListMerchants(ctx context.Context) ([]*merchant.Merchant, error)

	// Product methods
	UpsertProduct(ctx context.Context, p *catalog.Product) error
	GetProduct(ctx context.Context, productID uint64) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, productID uint64) error
	ListProducts(ctx context.Context) ([]*catalog.Product, error)

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPaymentByReceipt(ctx context.Context, receipt id.ReceiptID) (*payment.Payment, error)
	ListPayments(ctx context.Context) ([]*payment.Payment, error)

	// Stake methods. A holding with zero weight deletes the holder.
	SetHolding(ctx context.Context, h stake.Holding) error
	ListHoldings(ctx context.Context) ([]stake.Holding, error)
	CreateOffer(ctx context.Context, o *stake.Offer) error
	DeleteOffer(ctx context.Context, offerID uint64) error
	ListOffers(ctx context.Context) ([]*stake.Offer, error)

	// Counter methods. LoadCounters returns bazaar.ErrNotFound on a
	// store that has never been written.
	SaveCounters(ctx context.Context, c state.Counters) error
	LoadCounters(ctx context.Context) (*state.Counters, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
