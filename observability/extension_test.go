package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/fee"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

type fakeMetric struct {
	count    float64
	observed []float64
}

func (f *fakeMetric) Inc()              { f.count++ }
func (f *fakeMetric) Add(v float64)     { f.count += v }
func (f *fakeMetric) Observe(v float64) { f.observed = append(f.observed, v) }

type fakeFactory struct {
	metrics map[string]*fakeMetric
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{metrics: make(map[string]*fakeMetric)}
}

func (f *fakeFactory) get(name string) *fakeMetric {
	m, ok := f.metrics[name]
	if !ok {
		m = &fakeMetric{}
		f.metrics[name] = m
	}
	return m
}

func (f *fakeFactory) Counter(name string) Counter     { return f.get(name) }
func (f *fakeFactory) Histogram(name string) Histogram { return f.get(name) }

func TestMetricsCountLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := NewMetricsExtension(f)

	if err := m.OnMerchantSignedUp(ctx, merchant.Merchant{ID: 1}, types.NewAmount(1000)); err != nil {
		t.Fatal(err)
	}
	pay := payment.Payment{
		UnitPrice:   types.NewAmount(100),
		Quantity:    3,
		MerchantNet: types.NewAmount(300),
	}
	if err := m.OnPaymentRecorded(ctx, pay); err != nil {
		t.Fatal(err)
	}
	if err := m.OnFeeDistributed(ctx, fee.Distribution{Shares: make([]fee.Share, 2), Dust: types.NewAmount(4)}); err != nil {
		t.Fatal(err)
	}
	if err := m.OnStakeTransferred(ctx, stake.Transfer{Units: 5}); err != nil {
		t.Fatal(err)
	}

	checks := map[string]float64{
		"bazaar.merchant.signed_up":      1,
		"bazaar.payment.completed":       1,
		"bazaar.payment.units":           3,
		"bazaar.fee.distributed":         1,
		"bazaar.stake.transferred_units": 5,
		"bazaar.operation.failed":        0,
		"bazaar.fee.conversion_degraded": 0,
	}
	for name, want := range checks {
		if got := f.get(name).count; got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if got := f.get("bazaar.merchant.signup_fee").observed; len(got) != 1 || got[0] != 1000 {
		t.Errorf("signup fee observations = %v", got)
	}
	if got := f.get("bazaar.fee.dust").observed; len(got) != 1 || got[0] != 4 {
		t.Errorf("dust observations = %v", got)
	}
}

func TestMetricsOperationFailed(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := NewMetricsExtension(f)

	_ = m.OnOperationFailed(ctx, "pay_product", bazaar.ErrOutOfStock)
	_ = m.OnOperationFailed(ctx, "pay_product", fmt.Errorf("nested: %w", bazaar.ErrConcurrency))
	_ = m.OnOperationFailed(ctx, "signup", errors.New("boom"))

	if got := f.get("bazaar.operation.failed").count; got != 3 {
		t.Errorf("failed = %v, want 3", got)
	}
	if got := f.get("bazaar.operation.concurrency_denied").count; got != 1 {
		t.Errorf("concurrency denied = %v, want 1", got)
	}
}
