package bazaar

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/page"
	"github.com/xraph/bazaar/types"
)

// ──────────────────────────────────────────────────
// Product Management
// ──────────────────────────────────────────────────

func (e *Engine) validateProduct(in catalog.Input) error {
	if !in.Price.IsPositive() {
		return ValidationError{Field: "price", Message: "must be positive"}
	}
	if !in.Commission.Valid() {
		return ValidationError{
			Field:   "commission",
			Message: "recipient and a percentage between 1 and 99 must be set together",
		}
	}
	if in.Commission.IsSet() {
		if err := e.checkAccount(in.Commission.Recipient, "commission.recipient"); err != nil {
			return err
		}
	}
	return nil
}

// AddProduct lists a new product for the caller's merchant identity. The
// attached payment must cover the product fee, which is distributed to
// stakeholders. It returns the new product id.
func (e *Engine) AddProduct(ctx context.Context, in catalog.Input) (uint64, error) {
	var p catalog.Product
	attrs := []attribute.KeyValue{
		attribute.String("bazaar.asset", string(in.Asset)),
		attribute.String("bazaar.price", in.Price.String()),
	}
	err := e.mutate(ctx, "add_product", attrs, func(ctx context.Context, t *tx) error {
		m, err := t.merchant()
		if err != nil {
			return err
		}
		if err := e.validateProduct(in); err != nil {
			return err
		}
		desc, err := t.resolve(ctx, in.Asset)
		if err != nil {
			return err
		}

		if err := t.take(e.productFee, "product listing"); err != nil {
			return err
		}
		if _, err := t.distribute(ctx, nativeSettlement, e.productFee); err != nil {
			return err
		}

		now := e.now()
		p = catalog.Product{
			Entity:     types.NewEntity(now),
			ID:         t.st.NextProductID(),
			Merchant:   m.ID,
			Price:      in.Price,
			Asset:      desc,
			Capped:     in.Capped,
			Stock:      in.Stock,
			Commission: in.Commission,
		}
		t.st.PutProduct(p)

		t.after(func(ctx context.Context) {
			e.plugins.EmitProductListed(ctx, p)
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// UpdateProduct replaces the terms of one of the caller's products. No fee
// is charged; any attached payment is refunded.
func (e *Engine) UpdateProduct(ctx context.Context, productID uint64, in catalog.Input) error {
	attrs := []attribute.KeyValue{attribute.Int64("bazaar.product_id", int64(productID))}
	return e.mutate(ctx, "update_product", attrs, func(ctx context.Context, t *tx) error {
		before, err := t.ownedProduct(productID)
		if err != nil {
			return err
		}
		if err := e.validateProduct(in); err != nil {
			return err
		}
		desc, err := t.resolve(ctx, in.Asset)
		if err != nil {
			return err
		}

		after := before
		after.Price = in.Price
		after.Asset = desc
		after.Capped = in.Capped
		after.Stock = in.Stock
		after.Commission = in.Commission
		after.Touch(e.now())
		t.st.PutProduct(after)

		t.after(func(ctx context.Context) {
			e.plugins.EmitProductUpdated(ctx, before, after)
		})
		return nil
	})
}

// DeleteProduct removes one of the caller's products. The merchant's
// listing keeps its relative order.
func (e *Engine) DeleteProduct(ctx context.Context, productID uint64) error {
	attrs := []attribute.KeyValue{attribute.Int64("bazaar.product_id", int64(productID))}
	return e.mutate(ctx, "delete_product", attrs, func(ctx context.Context, t *tx) error {
		p, err := t.ownedProduct(productID)
		if err != nil {
			return err
		}
		t.st.RemoveProduct(productID)

		t.after(func(ctx context.Context) {
			e.plugins.EmitProductRemoved(ctx, p)
		})
		return nil
	})
}

// ownedProduct returns an active product belonging to the caller.
func (t *tx) ownedProduct(productID uint64) (catalog.Product, error) {
	p, ok := t.st.Product(productID)
	if !ok {
		return catalog.Product{}, ValidationError{
			Field:   "product_id",
			Message: fmt.Sprintf("product %d does not exist", productID),
		}
	}
	m, ok := t.st.MerchantByAccount(t.caller)
	if !ok || m.ID != p.Merchant {
		return catalog.Product{}, fmt.Errorf("%w: %s does not own product %d", ErrUnauthorized, t.caller, productID)
	}
	return p, nil
}

// GetProduct returns an active product.
func (e *Engine) GetProduct(ctx context.Context, productID uint64) (catalog.Product, error) {
	_, span := e.tracer.Start(ctx, "bazaar.get_product",
		trace.WithAttributes(attribute.Int64("bazaar.product_id", int64(productID))))
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return catalog.Product{}, err
	}
	p, ok := st.Product(productID)
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	return p, nil
}

// GetProducts pages products newest-first. merchantID 0 pages the global
// product id space: its total counts every id ever assigned, and removed
// products leave a gap in the page rather than being backfilled.
func (e *Engine) GetProducts(ctx context.Context, pageNumber, pageSize, merchantID uint64) (page.Result[catalog.Product], error) {
	_, span := e.tracer.Start(ctx, "bazaar.get_products",
		trace.WithAttributes(attribute.Int64("bazaar.merchant_id", int64(merchantID))))
	defer span.End()

	st, err := e.snapshot()
	if err != nil {
		return page.Result[catalog.Product]{}, err
	}

	if merchantID == 0 {
		seq := st.Counters.Products
		total := seq.Count()
		start, end := page.Window(pageNumber, pageSize, total)
		items := make([]catalog.Product, 0, end-start)
		for i := start; i < end; i++ {
			if p, ok := st.Product(seq.At(total - 1 - i)); ok {
				items = append(items, p)
			}
		}
		return page.Result[catalog.Product]{Items: items, Total: total}, nil
	}

	ids := st.MerchantProducts(merchantID)
	window := page.Reverse(ids, pageNumber, pageSize)
	items := make([]catalog.Product, 0, len(window))
	for _, pid := range window {
		p, _ := st.Product(pid)
		items = append(items, p)
	}
	return page.Result[catalog.Product]{Items: items, Total: uint64(len(ids))}, nil
}
