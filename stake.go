package bazaar

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/bazaar/page"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

// ──────────────────────────────────────────────────
// Stake Market
// ──────────────────────────────────────────────────

// freeUnits fails unless the caller holds units of weight not already on
// offer.
func (t *tx) freeUnits(units uint64) error {
	if units == 0 {
		return ValidationError{Field: "units", Message: "must be positive"}
	}
	if t.st.Weight(t.caller) == 0 {
		return fmt.Errorf("%w: %s is not a stakeholder", ErrUnauthorized, t.caller)
	}
	if free := t.st.FreeUnits(t.caller); free < units {
		return fmt.Errorf("%w: %s has %d free units, needs %d", ErrInsufficientFunds, t.caller, free, units)
	}
	return nil
}

// OfferStake lists units of the caller's weight as separate single-unit
// offers at price each. It returns the new offer ids.
func (e *Engine) OfferStake(ctx context.Context, units uint64, price types.Amount) ([]uint64, error) {
	var offers []stake.Offer
	attrs := []attribute.KeyValue{
		attribute.Int64("bazaar.units", int64(units)),
		attribute.String("bazaar.price", price.String()),
	}
	err := e.mutate(ctx, "offer_stake", attrs, func(ctx context.Context, t *tx) error {
		if !price.IsPositive() {
			return ValidationError{Field: "price", Message: "must be positive"}
		}
		if err := t.freeUnits(units); err != nil {
			return err
		}

		offers = make([]stake.Offer, 0, units)
		for range units {
			offers = append(offers, t.st.AddOffer(t.caller, price))
		}

		t.after(func(ctx context.Context) {
			for _, o := range offers {
				e.plugins.EmitStakeOffered(ctx, o)
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, len(offers))
	for i, o := range offers {
		ids[i] = o.ID
	}
	return ids, nil
}

// TakeStake buys one unit from an offer. The attached payment must cover
// the offer price, which goes to the offer owner; the excess is refunded.
func (e *Engine) TakeStake(ctx context.Context, offerID uint64) error {
	attrs := []attribute.KeyValue{attribute.Int64("bazaar.offer_id", int64(offerID))}
	return e.mutate(ctx, "take_stake", attrs, func(ctx context.Context, t *tx) error {
		o, ok := t.st.Offer(offerID)
		if !ok || !o.Price.IsPositive() {
			return ValidationError{
				Field:   "offer_id",
				Message: fmt.Sprintf("offer %d does not exist", offerID),
			}
		}
		if err := t.take(o.Price, "stake offer"); err != nil {
			return err
		}
		if err := t.send(ctx, nativeSettlement, o.Owner, o.Price); err != nil {
			return err
		}

		t.st.RemoveOffer(offerID)
		if !t.st.MoveUnits(o.Owner, t.caller, 1) {
			return fmt.Errorf("bazaar: offer %d owner %s holds no weight", offerID, o.Owner)
		}

		t.after(func(ctx context.Context) {
			e.plugins.EmitStakeTaken(ctx, o, t.caller)
		})
		return nil
	})
}

// RemoveStakeOffer withdraws one of the caller's offers.
func (e *Engine) RemoveStakeOffer(ctx context.Context, offerID uint64) error {
	attrs := []attribute.KeyValue{attribute.Int64("bazaar.offer_id", int64(offerID))}
	return e.mutate(ctx, "remove_stake_offer", attrs, func(ctx context.Context, t *tx) error {
		o, ok := t.st.Offer(offerID)
		if !ok {
			return ValidationError{
				Field:   "offer_id",
				Message: fmt.Sprintf("offer %d does not exist", offerID),
			}
		}
		if o.Owner != t.caller {
			return fmt.Errorf("%w: %s does not own offer %d", ErrUnauthorized, t.caller, offerID)
		}
		t.st.RemoveOffer(offerID)

		t.after(func(ctx context.Context) {
			e.plugins.EmitStakeOfferRemoved(ctx, o)
		})
		return nil
	})
}

// TransferStake gives units of the caller's free weight to recipient.
func (e *Engine) TransferStake(ctx context.Context, units uint64, recipient types.Account) error {
	attrs := []attribute.KeyValue{
		attribute.Int64("bazaar.units", int64(units)),
		attribute.String("bazaar.recipient", string(recipient)),
	}
	return e.mutate(ctx, "transfer_stake", attrs, func(ctx context.Context, t *tx) error {
		if recipient.IsZero() {
			return ValidationError{Field: "recipient", Message: "is empty"}
		}
		if err := e.checkAccount(recipient, "recipient"); err != nil {
			return err
		}
		if err := t.freeUnits(units); err != nil {
			return err
		}
		t.st.MoveUnits(t.caller, recipient, units)

		tr := stake.Transfer{From: t.caller, To: recipient, Units: units}
		t.after(func(ctx context.Context) {
			e.plugins.EmitStakeTransferred(ctx, tr)
		})
		return nil
	})
}

// StakesCount returns acct's stake weight.
func (e *Engine) StakesCount(ctx context.Context, acct types.Account) (uint64, error) {
	_, span := e.tracer.Start(ctx, "bazaar.stakes_count",
		trace.WithAttributes(attribute.String("bazaar.account", string(acct))))
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	return st.Weight(acct), nil
}

// HolderCount returns the number of stakeholders.
func (e *Engine) HolderCount(ctx context.Context) (int, error) {
	_, span := e.tracer.Start(ctx, "bazaar.holder_count")
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	return st.HolderCount(), nil
}

// Holders returns every holding ordered by holder.
func (e *Engine) Holders(ctx context.Context) ([]stake.Holding, error) {
	_, span := e.tracer.Start(ctx, "bazaar.holders")
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return st.Holdings(), nil
}

// OfferedUnits returns how many of acct's units are listed.
func (e *Engine) OfferedUnits(ctx context.Context, acct types.Account) (uint64, error) {
	_, span := e.tracer.Start(ctx, "bazaar.offered_units",
		trace.WithAttributes(attribute.String("bazaar.account", string(acct))))
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	return st.OfferedUnits(acct), nil
}

// StakesOffered pages listed offers newest-first by index position. The
// index is unordered, so positions shift when offers are removed.
func (e *Engine) StakesOffered(ctx context.Context, pageNumber, pageSize uint64) (page.Result[stake.Offer], error) {
	_, span := e.tracer.Start(ctx, "bazaar.stakes_offered")
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return page.Result[stake.Offer]{}, err
	}
	ids := st.OfferIndex()
	window := page.Reverse(ids, pageNumber, pageSize)
	items := make([]stake.Offer, 0, len(window))
	for _, oid := range window {
		o, _ := st.Offer(oid)
		items = append(items, o)
	}
	return page.Result[stake.Offer]{Items: items, Total: uint64(len(ids))}, nil
}
