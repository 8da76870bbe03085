package bazaar

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/types"
)

// Signup makes the caller a merchant. The attached payment must cover the
// signup fee, which is distributed to stakeholders; the excess is
// refunded. It returns the new merchant id.
func (e *Engine) Signup(ctx context.Context) (uint64, error) {
	var m merchant.Merchant
	err := e.mutate(ctx, "signup", nil, func(ctx context.Context, t *tx) error {
		if existing, ok := t.st.MerchantByAccount(t.caller); ok {
			return fmt.Errorf("%w: %s is already merchant %d", ErrUnauthorized, t.caller, existing.ID)
		}
		if err := t.take(e.signupFee, "signup"); err != nil {
			return err
		}

		m = t.st.AddMerchant(t.caller, e.now())

		if _, err := t.distribute(ctx, nativeSettlement, e.signupFee); err != nil {
			return err
		}

		t.after(func(ctx context.Context) {
			e.plugins.EmitMerchantSignedUp(ctx, m, e.signupFee)
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// MerchantOf returns the merchant identity of acct.
func (e *Engine) MerchantOf(ctx context.Context, acct types.Account) (merchant.Merchant, error) {
	_, span := e.tracer.Start(ctx, "bazaar.merchant_of",
		trace.WithAttributes(attribute.String("bazaar.account", string(acct))))
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return merchant.Merchant{}, err
	}
	m, ok := st.MerchantByAccount(acct)
	if !ok {
		return merchant.Merchant{}, fmt.Errorf("%w: merchant %s", ErrNotFound, acct)
	}
	return m, nil
}

// SignupFee returns the configured signup fee.
func (e *Engine) SignupFee() types.Amount { return e.signupFee }

// ProductFee returns the configured product listing fee.
func (e *Engine) ProductFee() types.Amount { return e.productFee }
