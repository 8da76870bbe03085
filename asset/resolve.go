package asset

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownAsset is returned when a reference has no executable presence
// and no positive quote.
var ErrUnknownAsset = errors.New("asset: no executable presence and no quotable rate")

// Resolve describes ref. The native marker resolves to the fixed native
// descriptor without touching the host. Executable assets are described
// through their metadata calls. Otherwise ref is accepted only when rates
// quotes it against reference at a positive rate; such assets carry no
// metadata.
func Resolve(ctx context.Context, host Host, rates RateLookup, ref, reference Ref) (Descriptor, error) {
	if ref.IsNative() {
		return NativeDescriptor(), nil
	}
	if ref == "" {
		return Descriptor{}, fmt.Errorf("%w: empty reference", ErrUnknownAsset)
	}

	if a, ok := host.Lookup(ref); ok {
		return describe(ctx, ref, a)
	}

	if rates == nil {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownAsset, ref)
	}
	rate, err := rates.GetRate(ctx, ref, reference, true)
	if err != nil || !rate.IsPositive() {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownAsset, ref)
	}
	return Descriptor{Ref: ref}, nil
}

func describe(ctx context.Context, ref Ref, a Asset) (Descriptor, error) {
	name, err := a.Name(ctx)
	if err != nil {
		return Descriptor{}, fmt.Errorf("asset %s: name: %w", ref, err)
	}
	symbol, err := a.Symbol(ctx)
	if err != nil {
		return Descriptor{}, fmt.Errorf("asset %s: symbol: %w", ref, err)
	}
	decimals, err := a.Decimals(ctx)
	if err != nil {
		return Descriptor{}, fmt.Errorf("asset %s: decimals: %w", ref, err)
	}
	return Descriptor{
		Ref:      ref,
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
	}, nil
}
