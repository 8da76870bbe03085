// Package observability provides a metrics extension for Bazaar that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/fee"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnOperationFailed       = (*MetricsExtension)(nil)
	_ plugin.OnMerchantSignedUp      = (*MetricsExtension)(nil)
	_ plugin.OnProductListed         = (*MetricsExtension)(nil)
	_ plugin.OnProductUpdated        = (*MetricsExtension)(nil)
	_ plugin.OnProductRemoved        = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded       = (*MetricsExtension)(nil)
	_ plugin.OnFeeDistributed        = (*MetricsExtension)(nil)
	_ plugin.OnFeeConversionDegraded = (*MetricsExtension)(nil)
	_ plugin.OnStakeOffered          = (*MetricsExtension)(nil)
	_ plugin.OnStakeTaken            = (*MetricsExtension)(nil)
	_ plugin.OnStakeOfferRemoved     = (*MetricsExtension)(nil)
	_ plugin.OnStakeTransferred      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Bazaar plugin to automatically track marketplace metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Merchant metrics
	MerchantSignedUp Counter
	SignupFeePaid    Histogram

	// Catalog metrics
	ProductListed  Counter
	ProductUpdated Counter
	ProductRemoved Counter

	// Payment metrics
	PurchaseCompleted Counter
	UnitsSold         Counter
	PaymentTotal      Histogram

	// Fee metrics
	FeeDistributed        Counter
	FeeShares             Histogram
	FeeDust               Histogram
	FeeConversionDegraded Counter

	// Stake metrics
	StakeOffered      Counter
	StakeTaken        Counter
	StakeOfferRemoved Counter
	StakeTransferred  Counter

	// Error metrics
	OperationFailed   Counter
	ConcurrencyDenied Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		MerchantSignedUp: factory.Counter("bazaar.merchant.signed_up"),
		SignupFeePaid:    factory.Histogram("bazaar.merchant.signup_fee"),

		ProductListed:  factory.Counter("bazaar.product.listed"),
		ProductUpdated: factory.Counter("bazaar.product.updated"),
		ProductRemoved: factory.Counter("bazaar.product.removed"),

		PurchaseCompleted: factory.Counter("bazaar.payment.completed"),
		UnitsSold:         factory.Counter("bazaar.payment.units"),
		PaymentTotal:      factory.Histogram("bazaar.payment.total_amount"),

		FeeDistributed:        factory.Counter("bazaar.fee.distributed"),
		FeeShares:             factory.Histogram("bazaar.fee.shares"),
		FeeDust:               factory.Histogram("bazaar.fee.dust"),
		FeeConversionDegraded: factory.Counter("bazaar.fee.conversion_degraded"),

		StakeOffered:      factory.Counter("bazaar.stake.offered"),
		StakeTaken:        factory.Counter("bazaar.stake.taken"),
		StakeOfferRemoved: factory.Counter("bazaar.stake.offer_removed"),
		StakeTransferred:  factory.Counter("bazaar.stake.transferred_units"),

		OperationFailed:   factory.Counter("bazaar.operation.failed"),
		ConcurrencyDenied: factory.Counter("bazaar.operation.concurrency_denied"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// OnOperationFailed implements plugin.OnOperationFailed.
func (m *MetricsExtension) OnOperationFailed(_ context.Context, _ string, err error) error {
	m.OperationFailed.Inc()
	if bazaar.IsConcurrency(err) {
		m.ConcurrencyDenied.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Merchant and catalog hooks
// ──────────────────────────────────────────────────

// OnMerchantSignedUp implements plugin.OnMerchantSignedUp.
func (m *MetricsExtension) OnMerchantSignedUp(_ context.Context, _ merchant.Merchant, feePaid types.Amount) error {
	m.MerchantSignedUp.Inc()
	m.SignupFeePaid.Observe(toFloat(feePaid))
	return nil
}

// OnProductListed implements plugin.OnProductListed.
func (m *MetricsExtension) OnProductListed(_ context.Context, _ catalog.Product) error {
	m.ProductListed.Inc()
	return nil
}

// OnProductUpdated implements plugin.OnProductUpdated.
func (m *MetricsExtension) OnProductUpdated(_ context.Context, _, _ catalog.Product) error {
	m.ProductUpdated.Inc()
	return nil
}

// OnProductRemoved implements plugin.OnProductRemoved.
func (m *MetricsExtension) OnProductRemoved(_ context.Context, _ catalog.Product) error {
	m.ProductRemoved.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment and fee hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, p payment.Payment) error {
	m.PurchaseCompleted.Inc()
	m.UnitsSold.Add(float64(p.Quantity))
	m.PaymentTotal.Observe(toFloat(p.Total()))
	return nil
}

// OnFeeDistributed implements plugin.OnFeeDistributed.
func (m *MetricsExtension) OnFeeDistributed(_ context.Context, d fee.Distribution) error {
	m.FeeDistributed.Inc()
	m.FeeShares.Observe(float64(len(d.Shares)))
	m.FeeDust.Observe(toFloat(d.Dust))
	return nil
}

// OnFeeConversionDegraded implements plugin.OnFeeConversionDegraded.
func (m *MetricsExtension) OnFeeConversionDegraded(_ context.Context, _ asset.Ref, _ types.Amount, _ error) error {
	m.FeeConversionDegraded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Stake market hooks
// ──────────────────────────────────────────────────

// OnStakeOffered implements plugin.OnStakeOffered.
func (m *MetricsExtension) OnStakeOffered(_ context.Context, _ stake.Offer) error {
	m.StakeOffered.Inc()
	return nil
}

// OnStakeTaken implements plugin.OnStakeTaken.
func (m *MetricsExtension) OnStakeTaken(_ context.Context, _ stake.Offer, _ types.Account) error {
	m.StakeTaken.Inc()
	return nil
}

// OnStakeOfferRemoved implements plugin.OnStakeOfferRemoved.
func (m *MetricsExtension) OnStakeOfferRemoved(_ context.Context, _ stake.Offer) error {
	m.StakeOfferRemoved.Inc()
	return nil
}

// OnStakeTransferred implements plugin.OnStakeTransferred.
func (m *MetricsExtension) OnStakeTransferred(_ context.Context, t stake.Transfer) error {
	m.StakeTransferred.Add(float64(t.Units))
	return nil
}

// float converts an amount for histogram observation. Precision loss on
// 18-decimal values is acceptable for metrics.
func toFloat(a types.Amount) float64 {
	return a.Decimal().InexactFloat64()
}
