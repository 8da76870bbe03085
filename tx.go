package bazaar

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/guard"
	"github.com/xraph/bazaar/merchant"
	"github.com/xraph/bazaar/state"
	"github.com/xraph/bazaar/types"
)

// tx is the context of one mutating operation. Everything it touches is
// either the guard's working copy or a host effect rolled back through a
// guard participant.
type tx struct {
	e      *Engine
	st     *state.State
	caller types.Account

	// escrow is the part of the attached payment not yet spent. It sits
	// in the engine account until refunded.
	attached types.Amount
	escrow   types.Amount

	events []func(context.Context)
}

// mutate runs fn as one guarded operation: it deposits the attached
// payment, runs fn, refunds what fn did not spend and persists the change
// set. Hooks queued with after run only once all of that has committed.
func (e *Engine) mutate(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context, *tx) error) error {
	ctx, span := e.tracer.Start(ctx, "bazaar."+op, trace.WithAttributes(attrs...))
	defer span.End()

	caller, _ := CallerFrom(ctx)
	t, err := e.run(ctx, op, caller, fn)
	if err != nil {
		kind := Kind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("bazaar.error_kind", kind.String()))

		e.logger.Debug("operation failed",
			"op", op,
			"caller", caller,
			"kind", kind,
			"error", err,
		)
		e.plugins.EmitOperationFailed(ctx, op, err)
		return err
	}

	span.SetAttributes(attribute.String("bazaar.refunded", t.escrow.String()))
	e.logger.Debug("operation committed",
		"op", op,
		"caller", caller,
		"attached", t.attached,
		"refunded", t.escrow,
	)

	for _, ev := range t.events {
		ev(ctx)
	}
	return nil
}

func (e *Engine) run(ctx context.Context, op string, caller types.Account, fn func(context.Context, *tx) error) (*tx, error) {
	if !e.started.Load() {
		return nil, ErrNotStarted
	}
	if caller.IsZero() {
		return nil, ErrNoCaller
	}
	if err := e.checkAccount(caller, "caller"); err != nil {
		return nil, err
	}

	attached := ValueFrom(ctx)
	var t *tx
	err := e.guard.Run(ctx, op, func(ctx context.Context, st *state.State) error {
		t = &tx{e: e, st: st, caller: caller, attached: attached}

		if attached.IsPositive() {
			if err := e.host.Native().Transfer(ctx, caller, e.account, attached); err != nil {
				return fmt.Errorf("%w: attach %s: %w", ErrInsufficientFunds, attached, err)
			}
			t.escrow = attached
		}

		if err := fn(ctx, t); err != nil {
			return err
		}

		if t.escrow.IsPositive() {
			if err := e.host.Native().Transfer(ctx, e.account, caller, t.escrow); err != nil {
				return fmt.Errorf("bazaar: refund %s to %s: %w", t.escrow, caller, err)
			}
		}

		if err := e.flush(ctx, st); err != nil {
			e.logger.Error("failed to persist operation",
				"op", op,
				"error", err,
			)
			return err
		}
		return nil
	})
	if errors.Is(err, guard.ErrBusy) {
		err = fmt.Errorf("%w: %w", ErrConcurrency, err)
	}
	return t, err
}

func (e *Engine) checkAccount(acct types.Account, field string) error {
	if !e.strictAccounts {
		return nil
	}
	if _, err := types.ParseAccount(string(acct)); err != nil {
		return ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}

// after queues fn to run once the operation has committed.
func (t *tx) after(fn func(context.Context)) {
	t.events = append(t.events, fn)
}

// merchant returns the caller's merchant identity.
func (t *tx) merchant() (merchant.Merchant, error) {
	m, ok := t.st.MerchantByAccount(t.caller)
	if !ok {
		return merchant.Merchant{}, fmt.Errorf("%w: %s is not a merchant", ErrUnauthorized, t.caller)
	}
	return m, nil
}

// take consumes amount of the attached payment.
func (t *tx) take(amount types.Amount, purpose string) error {
	left, err := t.escrow.Sub(amount)
	if err != nil {
		return fmt.Errorf("%w: %s requires %s, attached %s", ErrInsufficientFunds, purpose, amount, t.attached)
	}
	t.escrow = left
	return nil
}

// resolve returns the descriptor of ref, resolving and caching it on
// first use. The cache entry commits with the operation.
func (t *tx) resolve(ctx context.Context, ref asset.Ref) (asset.Descriptor, error) {
	if d, ok := t.st.Asset(ref); ok {
		return d, nil
	}
	d, err := asset.Resolve(ctx, t.e.host, t.e.rates, ref, t.e.reference)
	if err != nil {
		return asset.Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	t.st.CacheAsset(d)
	return d, nil
}

// settlement is the asset a transfer moves. A nil token means native.
type settlement struct {
	desc  asset.Descriptor
	token asset.Asset
}

func (s settlement) native() bool { return s.token == nil }

var nativeSettlement = settlement{desc: asset.NativeDescriptor()}

// settlementFor binds an executable asset to d.
func (t *tx) settlementFor(d asset.Descriptor) (settlement, error) {
	if d.Ref.IsNative() {
		return nativeSettlement, nil
	}
	token, ok := t.e.host.Lookup(d.Ref)
	if !ok {
		return settlement{}, fmt.Errorf("%w: %s has no executable presence", ErrInvalidAsset, d.Ref)
	}
	return settlement{desc: d, token: token}, nil
}

// send pays amount to recipient. Native value leaves the engine account,
// so callers take it from escrow first; external assets move from the
// caller under the engine's allowance.
func (t *tx) send(ctx context.Context, s settlement, recipient types.Account, amount types.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if s.native() {
		if err := t.e.host.Native().Transfer(ctx, t.e.account, recipient, amount); err != nil {
			return fmt.Errorf("bazaar: transfer %s to %s: %w", amount, recipient, err)
		}
		return nil
	}
	if err := s.token.TransferFrom(ctx, t.e.account, t.caller, recipient, amount); err != nil {
		return fmt.Errorf("bazaar: transfer %s %s to %s: %w", amount, s.desc.Ref, recipient, err)
	}
	return nil
}
