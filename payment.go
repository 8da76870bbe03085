package bazaar

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/page"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/types"
)

// PayProduct buys quantity units of a product for the caller.
//
// Native products are paid from the attached payment, whose excess is
// refunded. External products are pulled from the caller under the
// allowance granted to the engine account. The total is split into
// commission, merchant net and stakeholder fee and paid out in that order.
// It returns the recorded payment.
func (e *Engine) PayProduct(ctx context.Context, productID, quantity uint64) (payment.Payment, error) {
	var rec payment.Payment
	attrs := []attribute.KeyValue{
		attribute.Int64("bazaar.product_id", int64(productID)),
		attribute.Int64("bazaar.quantity", int64(quantity)),
	}
	err := e.mutate(ctx, "pay_product", attrs, func(ctx context.Context, t *tx) error {
		if quantity == 0 {
			return ValidationError{Field: "quantity", Message: "must be positive"}
		}
		p, ok := t.st.Product(productID)
		if !ok {
			return ValidationError{
				Field:   "product_id",
				Message: fmt.Sprintf("product %d does not exist", productID),
			}
		}
		m, _ := t.st.Merchant(p.Merchant)

		s, err := t.settlementFor(p.Asset)
		if err != nil {
			return err
		}

		total := p.Price.MulInt(quantity)
		if err := t.checkFunds(ctx, s, total); err != nil {
			return err
		}

		if p.Capped {
			if p.Stock < quantity {
				return fmt.Errorf("%w: product %d has %d left, requested %d", ErrOutOfStock, productID, p.Stock, quantity)
			}
			p.Stock -= quantity
			t.st.PutProduct(p)
		}

		split := payment.ComputeSplit(total, p.Commission.Percent)
		if s.native() {
			if err := t.take(total, "purchase"); err != nil {
				return err
			}
		}

		if p.Commission.IsSet() {
			if err := t.send(ctx, s, p.Commission.Recipient, split.Commission); err != nil {
				return err
			}
		}
		if err := t.send(ctx, s, m.Account, split.MerchantNet); err != nil {
			return err
		}
		if _, err := t.distribute(ctx, s, split.Fee); err != nil {
			return err
		}

		rec = payment.Payment{
			ID:          t.st.NextPaymentID(),
			Receipt:     id.NewReceiptID(),
			Timestamp:   e.now(),
			ProductID:   p.ID,
			Merchant:    p.Merchant,
			Buyer:       t.caller,
			Asset:       p.Asset,
			UnitPrice:   p.Price,
			Quantity:    quantity,
			MerchantNet: split.MerchantNet,
			Commission:  split.Commission,
			Fee:         split.Fee,
		}
		t.st.AppendPayment(rec)

		t.after(func(ctx context.Context) {
			e.plugins.EmitPaymentRecorded(ctx, rec)
			e.plugins.EmitPurchaseCompleted(ctx, productID, quantity, rec.Buyer)
		})
		return nil
	})
	if err != nil {
		return payment.Payment{}, err
	}
	return rec, nil
}

// checkFunds verifies the caller can cover total before anything moves.
func (t *tx) checkFunds(ctx context.Context, s settlement, total types.Amount) error {
	if s.native() {
		if t.escrow.LessThan(total) {
			return fmt.Errorf("%w: total %s, attached %s", ErrInsufficientFunds, total, t.attached)
		}
		return nil
	}

	balance, err := s.token.BalanceOf(ctx, t.caller)
	if err != nil {
		return fmt.Errorf("bazaar: %s balance: %w", s.desc.Ref, err)
	}
	if balance.LessThan(total) {
		return fmt.Errorf("%w: total %s %s, balance %s", ErrInsufficientFunds, total, s.desc.Ref, balance)
	}
	allowance, err := s.token.Allowance(ctx, t.caller, t.e.account)
	if err != nil {
		return fmt.Errorf("bazaar: %s allowance: %w", s.desc.Ref, err)
	}
	if allowance.LessThan(total) {
		return fmt.Errorf("%w: total %s %s, allowance %s", ErrMissingApproval, total, s.desc.Ref, allowance)
	}
	return nil
}

// GetPayments pages payments newest-first. A non-zero merchantID and/or a
// non-empty buyer select the per-merchant, per-buyer or per-pair view.
func (e *Engine) GetPayments(ctx context.Context, pageNumber, pageSize, merchantID uint64, buyer types.Account) (page.Result[payment.Payment], error) {
	view := payment.SelectView(merchantID, buyer)
	_, span := e.tracer.Start(ctx, "bazaar.get_payments",
		trace.WithAttributes(attribute.Int("bazaar.view", int(view))))
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return page.Result[payment.Payment]{}, err
	}

	if view == payment.ViewAll {
		seq := st.Counters.Payments
		total := seq.Count()
		start, end := page.Window(pageNumber, pageSize, total)
		items := make([]payment.Payment, 0, end-start)
		for i := start; i < end; i++ {
			p, _ := st.Payment(seq.At(total - 1 - i))
			items = append(items, p)
		}
		return page.Result[payment.Payment]{Items: items, Total: total}, nil
	}

	ids := st.PaymentIDs(view, merchantID, buyer)
	window := page.Reverse(ids, pageNumber, pageSize)
	items := make([]payment.Payment, 0, len(window))
	for _, pid := range window {
		p, _ := st.Payment(pid)
		items = append(items, p)
	}
	return page.Result[payment.Payment]{Items: items, Total: uint64(len(ids))}, nil
}

// GetPayment returns a payment by its sequential id.
func (e *Engine) GetPayment(ctx context.Context, paymentID uint64) (payment.Payment, error) {
	_, span := e.tracer.Start(ctx, "bazaar.get_payment")
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return payment.Payment{}, err
	}
	p, ok := st.Payment(paymentID)
	if !ok {
		return payment.Payment{}, fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
	}
	return p, nil
}

// PaymentByReceipt looks a payment up by its receipt in the store.
func (e *Engine) PaymentByReceipt(ctx context.Context, receipt id.ReceiptID) (payment.Payment, error) {
	ctx, span := e.tracer.Start(ctx, "bazaar.payment_by_receipt",
		trace.WithAttributes(attribute.String("bazaar.receipt", receipt.String())))
	defer span.End()

	if _, err := e.snapshot(); err != nil {
		return payment.Payment{}, err
	}
	p, err := e.store.GetPaymentByReceipt(ctx, receipt)
	if err != nil {
		return payment.Payment{}, err
	}
	return *p, nil
}
