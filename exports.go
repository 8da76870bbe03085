package bazaar

import (
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// Re-export common types for convenience so users don't have to import
// the model packages for everyday calls.

// Amount is re-exported from types package.
type Amount = types.Amount

// Account is re-exported from types package.
type Account = types.Account

// Entity is re-exported from types package.
type Entity = types.Entity

// AssetRef is re-exported from asset package.
type AssetRef = asset.Ref

// Product is re-exported from catalog package.
type Product = catalog.Product

// ProductInput is re-exported from catalog package.
type ProductInput = catalog.Input

// Commission is re-exported from catalog package.
type Commission = catalog.Commission

// Payment is re-exported from payment package.
type Payment = payment.Payment

// Offer is re-exported from stake package.
type Offer = stake.Offer

// Holding is re-exported from stake package.
type Holding = stake.Holding

// Native is the native settlement asset marker.
const Native = asset.Native

// Re-export constructors.
var (
	NewAmount    = types.NewAmount
	ParseAmount  = types.ParseAmount
	ParseAccount = types.ParseAccount
	Zero         = types.Zero
	Sum          = types.Sum
	NewEntity    = types.NewEntity
)
