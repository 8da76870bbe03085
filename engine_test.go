package bazaar_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/catalog"
	hostmem "github.com/xraph/bazaar/host/memory"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/state"
	"github.com/xraph/bazaar/store"
	memstore "github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

// reentrantAsset calls back into the engine on every transfer.
type reentrantAsset struct {
	*hostmem.Token
	reenter func(ctx context.Context) error
	refuse  bool

	nested []error
}

func (a *reentrantAsset) TransferFrom(ctx context.Context, spender, payer, recipient types.Account, amount types.Amount) error {
	if a.reenter != nil {
		a.nested = append(a.nested, a.reenter(ctx))
	}
	if a.refuse {
		return errors.New("asset refused transfer")
	}
	return a.Token.TransferFrom(ctx, spender, payer, recipient, amount)
}

func setupReentrant(t *testing.T) (*fixture, *reentrantAsset, uint64) {
	t.Helper()
	f := newFixture(t, nil)
	token := f.host.AddToken("evil", "Evil", "EVL", 0)
	evil := &reentrantAsset{Token: token}
	f.host.Register("evil", evil)

	f.signup(alice)
	pid := f.list(alice, catalog.Input{
		Asset:  "evil",
		Price:  types.NewAmount(1000),
		Capped: true,
		Stock:  4,
	})

	token.Mint(bob, types.NewAmount(5000))
	token.Approve(bob, escrow, types.NewAmount(5000))
	return f, evil, pid
}

func TestReentrantCallsAreRejected(t *testing.T) {
	f, evil, pid := setupReentrant(t)
	evil.reenter = func(ctx context.Context) error {
		if err := f.engine.DeleteProduct(bazaar.WithCaller(ctx, alice), pid); err != nil {
			return err
		}
		_, err := f.engine.PayProduct(ctx, pid, 1)
		return err
	}

	_, err := f.engine.PayProduct(f.as(bob, 0), pid, 1)
	require.NoError(t, err)

	require.Len(t, evil.nested, 2, "merchant net and one fee share")
	for _, nerr := range evil.nested {
		require.ErrorIs(t, nerr, bazaar.ErrConcurrency)
		assert.True(t, bazaar.IsConcurrency(nerr))
		assert.True(t, bazaar.IsRetryable(nerr))
	}

	p, err := f.engine.GetProduct(f.ctx, pid)
	require.NoError(t, err, "nested delete had no effect")
	assert.Equal(t, uint64(3), p.Stock, "nested purchase had no effect")

	res, err := f.engine.GetPayments(f.ctx, 1, 10, 0, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	assert.Equal(t, 1, f.events.purchaseCount())
}

func TestFailedOperationRollsBackEverything(t *testing.T) {
	f, evil, pid := setupReentrant(t)
	evil.refuse = true
	evil.reenter = func(ctx context.Context) error {
		_, err := f.engine.Signup(bazaar.As(ctx, carol, types.Zero()))
		return err
	}
	f.fund(bob, 300)
	before := f.balance(owner)

	_, err := f.engine.PayProduct(f.as(bob, 300), pid, 1)
	require.Error(t, err)
	require.Len(t, evil.nested, 1)
	require.ErrorIs(t, evil.nested[0], bazaar.ErrConcurrency)

	assert.Equal(t, "300", f.balance(bob))
	assert.Equal(t, before, f.balance(owner))
	assert.Equal(t, "0", f.balance(escrow))

	p, err := f.engine.GetProduct(f.ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), p.Stock)

	balance, err := evil.BalanceOf(f.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "5000", balance.String())
	assert.Zero(t, f.events.purchaseCount())

	// The guard was released.
	evil.refuse = false
	evil.reenter = nil
	_, err = f.engine.PayProduct(f.as(bob, 0), pid, 1)
	require.NoError(t, err)
}

func TestConcurrentCallsNeverInterleave(t *testing.T) {
	f := newFixture(t, nil)

	const n = 32
	accounts := make([]bazaar.Account, n)
	for i := range accounts {
		accounts[i] = bazaar.Account(fmt.Sprintf("merchant-%02d", i))
		f.fund(accounts[i], signupFee)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, acct := range accounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Signup(f.as(acct, signupFee))
			if err != nil {
				assert.ErrorIs(t, err, bazaar.ErrConcurrency)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Positive(t, succeeded)
	fees, err := f.engine.TotalFeesPaid(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, types.NewAmount(signupFee).MulInt(uint64(succeeded)).String(), fees.String())
	assert.Equal(t, fees.String(), f.balance(owner))
}

// failingStore fails payment writes on demand and counter writes a set
// number of times.
type failingStore struct {
	store.Store
	failPayments bool
	failCounters int
}

func (s *failingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, _ store.Store) error {
		return fn(ctx, s)
	})
}

func (s *failingStore) SaveCounters(ctx context.Context, c state.Counters) error {
	if s.failCounters > 0 {
		s.failCounters--
		return errors.New("transient")
	}
	return s.Store.SaveCounters(ctx, c)
}

func (s *failingStore) CreatePayment(ctx context.Context, p *payment.Payment) error {
	if s.failPayments {
		return errors.New("disk full")
	}
	return s.Store.CreatePayment(ctx, p)
}

func TestStoreFailureRollsBack(t *testing.T) {
	st := &failingStore{Store: memstore.New()}
	f := newFixture(t, []fixtureOption{withStore(st)})
	f.signup(alice)
	in := nativeInput(1000)
	in.Capped = true
	in.Stock = 2
	pid := f.list(alice, in)
	f.fund(bob, 1000)

	st.failPayments = true
	_, err := f.engine.PayProduct(f.as(bob, 1000), pid, 1)
	require.ErrorIs(t, err, bazaar.ErrTransactionFailed)
	assert.True(t, bazaar.IsRetryable(err))

	assert.Equal(t, "1000", f.balance(bob))
	assert.Equal(t, "0", f.balance(alice))
	p, err := f.engine.GetProduct(f.ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.Stock)
	assert.Zero(t, f.events.purchaseCount())

	st.failPayments = false
	rec, err := f.engine.PayProduct(f.as(bob, 1000), pid, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.ID, "failed attempt consumed no id")
}

func TestTransientStoreFailureLeavesNoRows(t *testing.T) {
	mem := memstore.New()
	st := &failingStore{Store: mem}
	f := newFixture(t, []fixtureOption{withStore(st)})
	f.signup(alice)
	pid := f.list(alice, nativeInput(1000))
	f.fund(bob, 3000)

	// The payment row is written before the counters; the failure must
	// take it back out.
	st.failCounters = 1
	_, err := f.engine.PayProduct(f.as(bob, 1000), pid, 1)
	require.ErrorIs(t, err, bazaar.ErrTransactionFailed)

	stored, err := mem.ListPayments(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	for i := range 2 {
		rec, err := f.engine.PayProduct(f.as(bob, 1000), pid, 1)
		require.NoError(t, err, "retry %d", i)
		assert.Equal(t, uint64(i+1), rec.ID)
	}

	stored, err = mem.ListPayments(f.ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	counters, err := mem.LoadCounters(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), counters.Payments.Count())
	assert.Equal(t, "1000", f.balance(bob))

	// A restart sees exactly the committed payments.
	require.NoError(t, f.engine.Stop())
	again := newFixture(t, []fixtureOption{withStore(st), withHost(f.host)})
	res, err := again.engine.GetPayments(again.ctx, 1, 10, 0, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)
}

func TestRestartReloadsState(t *testing.T) {
	st := memstore.New()
	host := hostmem.New()
	first := newFixture(t, []fixtureOption{withStore(st), withHost(host)})

	first.signup(alice)
	keep := first.list(alice, nativeInput(10))
	drop := first.list(alice, nativeInput(20))
	require.NoError(t, first.engine.DeleteProduct(first.as(alice, 0), drop))
	first.fund(bob, 10)
	rec, err := first.engine.PayProduct(first.as(bob, 10), keep, 1)
	require.NoError(t, err)
	offers, err := first.engine.OfferStake(first.as(owner, 0), 2, types.NewAmount(7))
	require.NoError(t, err)
	first.fund(carol, 7)
	require.NoError(t, first.engine.TakeStake(first.as(carol, 7), offers[0]))
	fees, err := first.engine.TotalFeesPaid(first.ctx)
	require.NoError(t, err)
	require.NoError(t, first.engine.Stop())

	second := newFixture(t, []fixtureOption{withStore(st), withHost(host)})

	m, err := second.engine.MerchantOf(second.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.ID)

	products, err := second.engine.GetProducts(second.ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), products.Total)
	require.Len(t, products.Items, 1)
	assert.Equal(t, keep, products.Items[0].ID)

	got, err := second.engine.GetPayment(second.ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Receipt, got.Receipt)

	weight, err := second.engine.StakesCount(second.ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), weight)
	offered, err := second.engine.OfferedUnits(second.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), offered)

	reloaded, err := second.engine.TotalFeesPaid(second.ctx)
	require.NoError(t, err)
	assert.Equal(t, fees.String(), reloaded.String())

	// Sequences continue where they left off.
	next := second.list(alice, nativeInput(30))
	assert.Equal(t, uint64(3), next)
	second.fund(bob, 10)
	rec, err = second.engine.PayProduct(second.as(bob, 10), keep, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.ID)
}

func TestSequenceBase(t *testing.T) {
	f := newFixture(t, nil, bazaar.WithSequenceBase(1000))

	mid := f.signup(alice)
	assert.Equal(t, uint64(1001), mid)
	pid := f.list(alice, nativeInput(10))
	assert.Equal(t, uint64(1001), pid)

	res, err := f.engine.GetProducts(f.ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, pid, res.Items[0].ID)
}
