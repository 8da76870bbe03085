// Package plugin provides an extensible plugin system for Bazaar.
// Plugins hook into engine lifecycle events. Every hook fires after the
// operation that caused it has committed, never from inside one.
package plugin

import (
	"context"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/fee"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// OnOperationFailed is called when a mutating operation fails and its
// effects have been discarded.
type OnOperationFailed interface {
	Plugin
	OnOperationFailed(ctx context.Context, op string, err error) error
}

// ──────────────────────────────────────────────────
// Merchant hooks
// ──────────────────────────────────────────────────

// OnMerchantSignedUp is called when a caller becomes a merchant.
type OnMerchantSignedUp interface {
	Plugin
	OnMerchantSignedUp(ctx context.Context, m merchant.Merchant, feePaid types.Amount) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnProductListed is called when a product is created.
type OnProductListed interface {
	Plugin
	OnProductListed(ctx context.Context, p catalog.Product) error
}

// OnProductUpdated is called when a product's terms change.
type OnProductUpdated interface {
	Plugin
	OnProductUpdated(ctx context.Context, before, after catalog.Product) error
}

// OnProductRemoved is called when a product is deleted.
type OnProductRemoved interface {
	Plugin
	OnProductRemoved(ctx context.Context, p catalog.Product) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPurchaseCompleted is the purchase-completed notification, delivered
// exactly once per successful purchase.
type OnPurchaseCompleted interface {
	Plugin
	OnPurchaseCompleted(ctx context.Context, productID, quantity uint64, buyer types.Account) error
}

// OnPaymentRecorded receives the full payment record of a purchase.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, p payment.Payment) error
}

// ──────────────────────────────────────────────────
// Fee hooks
// ──────────────────────────────────────────────────

// OnFeeDistributed is called for every fee division.
type OnFeeDistributed interface {
	Plugin
	OnFeeDistributed(ctx context.Context, d fee.Distribution) error
}

// OnFeeConversionDegraded is called when a fee could not be priced in the
// reference unit and was counted as zero.
type OnFeeConversionDegraded interface {
	Plugin
	OnFeeConversionDegraded(ctx context.Context, ref asset.Ref, total types.Amount, cause error) error
}

// ──────────────────────────────────────────────────
// Stake market hooks
// ──────────────────────────────────────────────────

// OnStakeOffered is called for every unit listed.
type OnStakeOffered interface {
	Plugin
	OnStakeOffered(ctx context.Context, o stake.Offer) error
}

// OnStakeTaken is called when an offer is bought.
type OnStakeTaken interface {
	Plugin
	OnStakeTaken(ctx context.Context, o stake.Offer, buyer types.Account) error
}

// OnStakeOfferRemoved is called when an owner withdraws an offer.
type OnStakeOfferRemoved interface {
	Plugin
	OnStakeOfferRemoved(ctx context.Context, o stake.Offer) error
}

// OnStakeTransferred is called when units are given away.
type OnStakeTransferred interface {
	Plugin
	OnStakeTransferred(ctx context.Context, t stake.Transfer) error
}
