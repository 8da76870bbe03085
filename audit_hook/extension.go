// Package audithook bridges Bazaar lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/fee"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnOperationFailed       = (*Extension)(nil)
	_ plugin.OnMerchantSignedUp      = (*Extension)(nil)
	_ plugin.OnProductListed         = (*Extension)(nil)
	_ plugin.OnProductUpdated        = (*Extension)(nil)
	_ plugin.OnProductRemoved        = (*Extension)(nil)
	_ plugin.OnPaymentRecorded       = (*Extension)(nil)
	_ plugin.OnFeeDistributed        = (*Extension)(nil)
	_ plugin.OnFeeConversionDegraded = (*Extension)(nil)
	_ plugin.OnStakeOffered          = (*Extension)(nil)
	_ plugin.OnStakeTaken            = (*Extension)(nil)
	_ plugin.OnStakeOfferRemoved     = (*Extension)(nil)
	_ plugin.OnStakeTransferred      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	ID         id.ID          `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Bazaar lifecycle events to an audit trail backend.
type Extension struct {
	recorder   Recorder
	enabled    map[string]bool // nil = all enabled
	categories map[string]bool // nil = all categories
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// OnOperationFailed implements plugin.OnOperationFailed.
func (e *Extension) OnOperationFailed(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionOperationFailed, SeverityWarning, OutcomeFailure,
		ResourceOperation, op, CategoryEngine, err,
		"operation", op,
	)
}

// ──────────────────────────────────────────────────
// Merchant and catalog hooks
// ──────────────────────────────────────────────────

// OnMerchantSignedUp implements plugin.OnMerchantSignedUp.
func (e *Extension) OnMerchantSignedUp(ctx context.Context, m merchant.Merchant, feePaid types.Amount) error {
	return e.record(ctx, ActionMerchantSignedUp, SeverityInfo, OutcomeSuccess,
		ResourceMerchant, uintID(m.ID), CategoryIdentity, nil,
		"account", string(m.Account),
		"fee_paid", feePaid.String(),
	)
}

// OnProductListed implements plugin.OnProductListed.
func (e *Extension) OnProductListed(ctx context.Context, p catalog.Product) error {
	return e.record(ctx, ActionProductListed, SeverityInfo, OutcomeSuccess,
		ResourceProduct, uintID(p.ID), CategoryCatalog, nil,
		productMeta(p)...,
	)
}

// OnProductUpdated implements plugin.OnProductUpdated.
func (e *Extension) OnProductUpdated(ctx context.Context, before, after catalog.Product) error {
	meta := append(productMeta(after),
		"previous_price", before.Price.String(),
		"previous_asset", string(before.Asset.Ref),
	)
	return e.record(ctx, ActionProductUpdated, SeverityInfo, OutcomeSuccess,
		ResourceProduct, uintID(after.ID), CategoryCatalog, nil,
		meta...,
	)
}

// OnProductRemoved implements plugin.OnProductRemoved.
func (e *Extension) OnProductRemoved(ctx context.Context, p catalog.Product) error {
	return e.record(ctx, ActionProductRemoved, SeverityInfo, OutcomeSuccess,
		ResourceProduct, uintID(p.ID), CategoryCatalog, nil,
		"merchant_id", p.Merchant,
	)
}

func productMeta(p catalog.Product) []any {
	meta := []any{
		"merchant_id", p.Merchant,
		"price", p.Price.String(),
		"asset", string(p.Asset.Ref),
		"capped", p.Capped,
	}
	if p.Capped {
		meta = append(meta, "stock", p.Stock)
	}
	if p.Commission.IsSet() {
		meta = append(meta,
			"commission_recipient", string(p.Commission.Recipient),
			"commission_percent", p.Commission.Percent,
		)
	}
	return meta
}

// ──────────────────────────────────────────────────
// Payment and fee hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, p payment.Payment) error {
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.Receipt.String(), CategoryPayment, nil,
		"payment_id", p.ID,
		"product_id", p.ProductID,
		"merchant_id", p.Merchant,
		"buyer", string(p.Buyer),
		"asset", string(p.Asset.Ref),
		"quantity", p.Quantity,
		"total", p.Total().String(),
		"fee", p.Fee.String(),
		"commission", p.Commission.String(),
	)
}

// OnFeeDistributed implements plugin.OnFeeDistributed.
func (e *Extension) OnFeeDistributed(ctx context.Context, d fee.Distribution) error {
	outcome := OutcomeSuccess
	if d.Degraded {
		outcome = OutcomePartial
	}
	return e.record(ctx, ActionFeeDistributed, SeverityInfo, outcome,
		ResourceFee, "", CategoryRevenue, nil,
		"asset", string(d.Asset),
		"total", d.Total.String(),
		"holders", len(d.Shares),
		"dust", d.Dust.String(),
		"reference", d.Reference.String(),
	)
}

// OnFeeConversionDegraded implements plugin.OnFeeConversionDegraded.
func (e *Extension) OnFeeConversionDegraded(ctx context.Context, ref asset.Ref, total types.Amount, cause error) error {
	return e.record(ctx, ActionFeeConversionDegraded, SeverityWarning, OutcomePartial,
		ResourceFee, "", CategoryRevenue, cause,
		"asset", string(ref),
		"total", total.String(),
	)
}

// ──────────────────────────────────────────────────
// Stake market hooks
// ──────────────────────────────────────────────────

// OnStakeOffered implements plugin.OnStakeOffered.
func (e *Extension) OnStakeOffered(ctx context.Context, o stake.Offer) error {
	return e.record(ctx, ActionStakeOffered, SeverityInfo, OutcomeSuccess,
		ResourceStake, uintID(o.ID), CategoryStake, nil,
		"owner", string(o.Owner),
		"price", o.Price.String(),
	)
}

// OnStakeTaken implements plugin.OnStakeTaken.
func (e *Extension) OnStakeTaken(ctx context.Context, o stake.Offer, buyer types.Account) error {
	return e.record(ctx, ActionStakeTaken, SeverityInfo, OutcomeSuccess,
		ResourceStake, uintID(o.ID), CategoryStake, nil,
		"seller", string(o.Owner),
		"buyer", string(buyer),
		"price", o.Price.String(),
	)
}

// OnStakeOfferRemoved implements plugin.OnStakeOfferRemoved.
func (e *Extension) OnStakeOfferRemoved(ctx context.Context, o stake.Offer) error {
	return e.record(ctx, ActionStakeOfferRemoved, SeverityInfo, OutcomeSuccess,
		ResourceStake, uintID(o.ID), CategoryStake, nil,
		"owner", string(o.Owner),
	)
}

// OnStakeTransferred implements plugin.OnStakeTransferred.
func (e *Extension) OnStakeTransferred(ctx context.Context, t stake.Transfer) error {
	return e.record(ctx, ActionStakeTransferred, SeverityInfo, OutcomeSuccess,
		ResourceStake, "", CategoryStake, nil,
		"from", string(t.From),
		"to", string(t.To),
		"units", t.Units,
	)
}

func uintID(v uint64) string { return strconv.FormatUint(v, 10) }

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged, never returned.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}
	if e.categories != nil && !e.categories[category] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		ID:         id.NewAuditID(),
		Timestamp:  e.now(),
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
