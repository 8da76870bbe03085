// Package asset describes settlement assets and the external capabilities
// the engine calls to move and price them.
//
// The engine never holds balances itself. Native value moves through the
// host's NativeBank; external fungible assets expose transfer/allowance
// semantics through Asset. Rates come from a RateLookup. All three are
// supplied by the embedding application.
package asset

import (
	"context"

	"github.com/xraph/bazaar/types"
)

// Ref identifies a settlement asset.
type Ref string

// Native is the synthetic marker for the host's native value unit.
const Native Ref = "native"

// NativeDecimals is the fixed precision of the native unit.
const NativeDecimals = 18

// IsNative reports whether r is the native marker.
func (r Ref) IsNative() bool { return r == Native }

// String implements fmt.Stringer.
func (r Ref) String() string { return string(r) }

// Descriptor is the resolved description of a settlement asset.
type Descriptor struct {
	Ref      Ref    `json:"ref"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// NativeDescriptor returns the fixed descriptor of the native unit.
func NativeDescriptor() Descriptor {
	return Descriptor{
		Ref:      Native,
		Name:     "NATIVE",
		Symbol:   "NATIVE",
		Decimals: NativeDecimals,
	}
}

// Asset is an external fungible asset with transfer/allowance semantics.
// Implementations may be adversarial: every call is a point where the
// implementation can try to call back into the engine.
type Asset interface {
	// TransferFrom moves amount from payer to recipient using the spender
	// allowance granted to the engine. A non-nil error aborts the
	// enclosing operation.
	TransferFrom(ctx context.Context, spender, payer, recipient types.Account, amount types.Amount) error
	Allowance(ctx context.Context, owner, spender types.Account) (types.Amount, error)
	BalanceOf(ctx context.Context, owner types.Account) (types.Amount, error)
	Name(ctx context.Context) (string, error)
	Symbol(ctx context.Context) (string, error)
	Decimals(ctx context.Context) (uint8, error)
}

// NativeBank moves the host's native value unit.
type NativeBank interface {
	BalanceOf(ctx context.Context, owner types.Account) (types.Amount, error)
	Transfer(ctx context.Context, from, to types.Account, amount types.Amount) error
}

// Host is the environment the engine settles against.
type Host interface {
	// Native returns the bank for the native unit.
	Native() NativeBank

	// Lookup returns the executable asset at ref. ok is false when ref
	// has no executable presence on the host.
	Lookup(ref Ref) (a Asset, ok bool)
}

// RateLookup quotes conversion rates between assets. Rates are scaled by
// RateScale: a rate of RateScale means one unit of src is worth one unit
// of dst.
type RateLookup interface {
	GetRate(ctx context.Context, src, dst Ref, useWrapped bool) (types.Amount, error)
}

// RateScale is the fixed-point scale of quoted rates (10^18).
var RateScale = types.Pow10(18)

// Convert applies a scaled rate to amount, rounding down.
func Convert(amount, rate types.Amount) types.Amount {
	return amount.Mul(rate).DivFloor(RateScale)
}
