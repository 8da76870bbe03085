package bazaar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/asset"
	"github.com/xraph/bazaar/catalog"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/types"
)

func TestPayProductSplit(t *testing.T) {
	f := newFixture(t, nil)
	mid := f.signup(alice)
	in := nativeInput(1000)
	in.Commission = catalog.Commission{Recipient: agent, Percent: 10}
	pid := f.list(alice, in)
	f.fund(bob, 1500)

	rec, err := f.engine.PayProduct(f.as(bob, 1500), pid, 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), rec.ID)
	assert.Equal(t, mid, rec.Merchant)
	assert.Equal(t, bob, rec.Buyer)
	assert.Equal(t, "1", rec.Fee.String())
	assert.Equal(t, "100", rec.Commission.String())
	assert.Equal(t, "899", rec.MerchantNet.String())
	assert.Equal(t, "1000", rec.Total().String())
	assert.False(t, rec.Receipt.IsNil())

	assert.Equal(t, "500", f.balance(bob))
	assert.Equal(t, "100", f.balance(agent))
	assert.Equal(t, "899", f.balance(alice))
	assert.Equal(t, "1101", f.balance(owner))
	assert.Equal(t, "0", f.balance(escrow))

	fees, err := f.engine.TotalFeesPaid(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "1101", fees.String())

	require.Equal(t, 1, f.events.purchaseCount())
	assert.Equal(t, purchase{product: pid, quantity: 1, buyer: bob}, f.events.purchases[0])
}

func TestPayProductQuantity(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(alice)
	in := nativeInput(1000)
	in.Commission = catalog.Commission{Recipient: agent, Percent: 10}
	pid := f.list(alice, in)
	f.fund(bob, 3000)

	rec, err := f.engine.PayProduct(f.as(bob, 3000), pid, 3)
	require.NoError(t, err)
	assert.Equal(t, "3", rec.Fee.String())
	assert.Equal(t, "300", rec.Commission.String())
	assert.Equal(t, "2697", rec.MerchantNet.String())
	assert.Equal(t, "0", f.balance(bob))
}

func TestPayProductRejections(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(alice)
	pid := f.list(alice, nativeInput(1000))
	f.fund(bob, 999)

	_, err := f.engine.PayProduct(f.as(bob, 0), pid, 0)
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)

	_, err = f.engine.PayProduct(f.as(bob, 0), 77, 1)
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)

	_, err = f.engine.PayProduct(f.as(bob, 999), pid, 1)
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds)

	assert.Equal(t, "999", f.balance(bob))
	assert.Zero(t, f.events.purchaseCount())
}

func TestPayProductCappedStock(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(alice)
	in := nativeInput(10)
	in.Capped = true
	in.Stock = 5
	pid := f.list(alice, in)
	f.fund(bob, 100)

	_, err := f.engine.PayProduct(f.as(bob, 20), pid, 2)
	require.NoError(t, err)
	_, err = f.engine.PayProduct(f.as(bob, 30), pid, 3)
	require.NoError(t, err)

	_, err = f.engine.PayProduct(f.as(bob, 10), pid, 1)
	require.ErrorIs(t, err, bazaar.ErrOutOfStock)

	p, err := f.engine.GetProduct(f.ctx, pid)
	require.NoError(t, err)
	assert.Zero(t, p.Stock)
	assert.Equal(t, "50", f.balance(bob))
	assert.Equal(t, 2, f.events.purchaseCount())
}

func TestPayProductExternalAsset(t *testing.T) {
	f := newFixture(t, nil)
	usd := f.host.AddToken("usd", "US Dollar", "USD", 6)
	f.signup(alice)
	pid := f.list(alice, catalog.Input{Asset: "usd", Price: types.NewAmount(1000)})
	f.fund(bob, 50)

	_, err := f.engine.PayProduct(f.as(bob, 50), pid, 1)
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds)

	usd.Mint(bob, types.NewAmount(5000))
	_, err = f.engine.PayProduct(f.as(bob, 50), pid, 1)
	require.ErrorIs(t, err, bazaar.ErrMissingApproval)

	usd.Approve(bob, escrow, types.NewAmount(1000))
	rec, err := f.engine.PayProduct(f.as(bob, 50), pid, 1)
	require.NoError(t, err)
	assert.Equal(t, "usd", string(rec.Asset.Ref))

	balance := func(acct bazaar.Account) string {
		b, err := usd.BalanceOf(f.ctx, acct)
		require.NoError(t, err)
		return b.String()
	}
	assert.Equal(t, "4000", balance(bob))
	assert.Equal(t, "999", balance(alice))
	assert.Equal(t, "1", balance(owner))
	assert.Equal(t, "50", f.balance(bob), "native value refunded in full")

	allowance, err := usd.Allowance(f.ctx, bob, escrow)
	require.NoError(t, err)
	assert.True(t, allowance.IsZero())

	// No usd/native quote: the fee is counted as zero and flagged.
	fees, err := f.engine.TotalFeesPaid(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "1100", fees.String())
	assert.Equal(t, []asset.Ref{"usd"}, f.events.degraded)

	f.host.SetRate("usd", asset.Native, types.Pow10(18).MulInt(2))
	usd.Approve(bob, escrow, types.NewAmount(1000))
	_, err = f.engine.PayProduct(f.as(bob, 0), pid, 1)
	require.NoError(t, err)

	fees, err = f.engine.TotalFeesPaid(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "1102", fees.String())

	rate, err := f.engine.TokenRate(f.ctx, "usd")
	require.NoError(t, err)
	assert.Equal(t, types.Pow10(18).MulInt(2).String(), rate.String())

	rate, err = f.engine.TokenRate(f.ctx, "eur")
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}

func TestPayProductQuotableOnlyAsset(t *testing.T) {
	f := newFixture(t, nil)
	f.host.SetRate("pts", asset.Native, types.NewAmount(5))
	f.signup(alice)
	pid := f.list(alice, catalog.Input{Asset: "pts", Price: types.NewAmount(10)})

	_, err := f.engine.PayProduct(f.as(bob, 0), pid, 1)
	require.ErrorIs(t, err, bazaar.ErrInvalidAsset)
}

func TestGetPaymentsViews(t *testing.T) {
	f := newFixture(t, nil)
	aliceID := f.signup(alice)
	carolID := f.signup(carol)
	fromAlice := f.list(alice, nativeInput(10))
	fromCarol := f.list(carol, nativeInput(10))
	f.fund(bob, 100)
	f.fund(agent, 100)

	buy := func(buyer bazaar.Account, pid uint64) uint64 {
		rec, err := f.engine.PayProduct(f.as(buyer, 10), pid, 1)
		require.NoError(t, err)
		return rec.ID
	}
	p1 := buy(bob, fromAlice)
	p2 := buy(agent, fromAlice)
	p3 := buy(bob, fromCarol)
	p4 := buy(bob, fromAlice)

	ids := func(res []payment.Payment) []uint64 {
		out := make([]uint64, len(res))
		for i, p := range res {
			out[i] = p.ID
		}
		return out
	}

	cases := []struct {
		name     string
		merchant uint64
		buyer    bazaar.Account
		want     []uint64
	}{
		{"all", 0, "", []uint64{p4, p3, p2, p1}},
		{"merchant", aliceID, "", []uint64{p4, p2, p1}},
		{"buyer", 0, bob, []uint64{p4, p3, p1}},
		{"pair", aliceID, bob, []uint64{p4, p1}},
		{"other pair", carolID, agent, []uint64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.engine.GetPayments(f.ctx, 1, 10, tc.merchant, tc.buyer)
			require.NoError(t, err)
			assert.Equal(t, uint64(len(tc.want)), res.Total)
			assert.Equal(t, tc.want, ids(res.Items))
		})
	}

	res, err := f.engine.GetPayments(f.ctx, 2, 3, 0, "")
	require.NoError(t, err)
	assert.Equal(t, []uint64{p1}, ids(res.Items))
}

func TestPaymentLookups(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(alice)
	pid := f.list(alice, nativeInput(10))
	f.fund(bob, 10)

	rec, err := f.engine.PayProduct(f.as(bob, 10), pid, 1)
	require.NoError(t, err)

	got, err := f.engine.GetPayment(f.ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Receipt, got.Receipt)

	got, err = f.engine.PaymentByReceipt(f.ctx, rec.Receipt)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = f.engine.GetPayment(f.ctx, rec.ID+1)
	require.ErrorIs(t, err, bazaar.ErrNotFound)
}
