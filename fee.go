package bazaar

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/fee"
	"github.com/xraph/bazaar/types"
)

var errNoRateLookup = errors.New("bazaar: no rate lookup configured")

// distribute pays total out to the stakeholders pro rata and adds its
// reference-unit value to the fee counter. Native fees must already be
// taken from escrow; the undistributed dust stays in the engine account.
func (t *tx) distribute(ctx context.Context, s settlement, total types.Amount) (fee.Distribution, error) {
	d := fee.Divide(total, t.st.Holdings())
	d.Asset = s.desc.Ref

	for _, share := range d.Shares {
		if err := t.send(ctx, s, share.Holder, share.Amount); err != nil {
			return fee.Distribution{}, fmt.Errorf("bazaar: fee share: %w", err)
		}
	}

	ref, err := t.e.toReference(ctx, s.desc.Ref, total)
	if err != nil {
		d.Degraded = true
		t.e.logger.Warn("fee conversion degraded",
			"asset", s.desc.Ref,
			"reference", t.e.reference,
			"total", total,
			"fee_conversion_degraded", true,
			"error", err,
		)
		t.after(func(ctx context.Context) {
			t.e.plugins.EmitFeeConversionDegraded(ctx, s.desc.Ref, total, err)
		})
	}
	d.Reference = ref
	t.st.AddFeesPaid(ref)

	t.after(func(ctx context.Context) {
		t.e.plugins.EmitFeeDistributed(ctx, d)
	})
	return d, nil
}

// toReference converts amount of ref into the reference unit. Failures
// return zero alongside the cause.
func (e *Engine) toReference(ctx context.Context, ref asset.Ref, amount types.Amount) (types.Amount, error) {
	rate, err := e.rate(ctx, ref)
	if err != nil {
		return types.Zero(), err
	}
	return asset.Convert(amount, rate), nil
}

func (e *Engine) rate(ctx context.Context, ref asset.Ref) (types.Amount, error) {
	if ref == e.reference {
		return asset.RateScale, nil
	}
	if e.rates == nil {
		return types.Zero(), errNoRateLookup
	}
	rate, err := e.rates.GetRate(ctx, ref, e.reference, true)
	if err != nil {
		return types.Zero(), fmt.Errorf("bazaar: rate %s/%s: %w", ref, e.reference, err)
	}
	if !rate.IsPositive() {
		return types.Zero(), fmt.Errorf("bazaar: rate %s/%s is not positive", ref, e.reference)
	}
	return rate, nil
}

// TotalFeesPaid returns every distributed fee valued in the reference
// unit at the time it was paid.
func (e *Engine) TotalFeesPaid(ctx context.Context) (types.Amount, error) {
	_, span := e.tracer.Start(ctx, "bazaar.total_fees_paid")
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return types.Zero(), err
	}
	return st.Counters.TotalFeesPaid, nil
}

// TokenRate returns the rate of ref in the reference unit, scaled by
// asset.RateScale. A failed or non-positive quote reads as zero.
func (e *Engine) TokenRate(ctx context.Context, ref asset.Ref) (types.Amount, error) {
	ctx, span := e.tracer.Start(ctx, "bazaar.token_rate")
	defer span.End()

	if _, err := e.snapshot(); err != nil {
		return types.Zero(), err
	}
	rate, err := e.rate(ctx, ref)
	if err != nil {
		e.logger.Debug("token rate unavailable", "asset", ref, "error", err)
		return types.Zero(), nil
	}
	return rate, nil
}

// GetTokenData describes ref. Assets already used by a product come from
// the cache; others are resolved against the host without being cached.
func (e *Engine) GetTokenData(ctx context.Context, ref asset.Ref) (asset.Descriptor, error) {
	ctx, span := e.tracer.Start(ctx, "bazaar.get_token_data")
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return asset.Descriptor{}, err
	}
	if d, ok := st.Asset(ref); ok {
		return d, nil
	}
	d, err := asset.Resolve(ctx, e.host, e.rates, ref, e.reference)
	if err != nil {
		return asset.Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	return d, nil
}
