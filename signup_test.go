package bazaar_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bazaar"
	hostmem "github.com/xraph/bazaar/host/memory"
	"github.com/xraph/bazaar/stake"
	memstore "github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/types"
)

func TestStartSeedsOwner(t *testing.T) {
	f := newFixture(t, nil)

	weight, err := f.engine.StakesCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, stake.TotalSupply, weight)

	holders, err := f.engine.HolderCount(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, holders)
}

func TestStartRejectsUnbalancedFounders(t *testing.T) {
	e := bazaar.New(memstore.New(), hostmem.New(),
		bazaar.WithFounders(stake.Holding{Holder: alice, Weight: 29}),
	)
	err := e.Start(context.Background())
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)
}

func TestOperationsBeforeStart(t *testing.T) {
	e := bazaar.New(memstore.New(), hostmem.New())

	_, err := e.Signup(bazaar.WithCaller(context.Background(), alice))
	require.ErrorIs(t, err, bazaar.ErrNotStarted)

	_, err = e.HolderCount(context.Background())
	require.ErrorIs(t, err, bazaar.ErrNotStarted)
}

func TestOperationsRequireCaller(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.engine.Signup(f.ctx)
	require.ErrorIs(t, err, bazaar.ErrNoCaller)
}

func TestSignup(t *testing.T) {
	f := newFixture(t, nil)
	f.fund(alice, 1500)

	mid, err := f.engine.Signup(f.as(alice, 1500))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), mid)

	assert.Equal(t, "500", f.balance(alice), "excess refunded")
	assert.Equal(t, "1000", f.balance(owner), "fee to sole stakeholder")
	assert.Equal(t, "0", f.balance(escrow))

	m, err := f.engine.MerchantOf(f.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.ID)

	fees, err := f.engine.TotalFeesPaid(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", fees.String())

	require.Len(t, f.events.merchants, 1)
	assert.Equal(t, alice, f.events.merchants[0].Account)
}

func TestSignupTwiceIsUnauthorized(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(alice)
	f.fund(alice, signupFee)

	_, err := f.engine.Signup(f.as(alice, signupFee))
	require.ErrorIs(t, err, bazaar.ErrUnauthorized)
	assert.Equal(t, "1000", f.balance(alice), "failed call keeps the attached value")
	assert.Equal(t, []string{"signup"}, f.events.failures)
}

func TestSignupUnderpaid(t *testing.T) {
	f := newFixture(t, nil)
	f.fund(bob, 500)

	_, err := f.engine.Signup(f.as(bob, 500))
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds)
	assert.Equal(t, "500", f.balance(bob))

	_, err = f.engine.Signup(f.as(bob, 2000))
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds, "attached more than the balance")
	assert.Equal(t, "500", f.balance(bob))

	_, err = f.engine.MerchantOf(f.ctx, bob)
	require.ErrorIs(t, err, bazaar.ErrNotFound)
}

func TestSignupFeeDividedByWeight(t *testing.T) {
	f := newFixture(t, nil, bazaar.WithFounders(
		stake.Holding{Holder: alice, Weight: 20},
		stake.Holding{Holder: bob, Weight: 10},
	))

	f.signup(carol)

	assert.Equal(t, "666", f.balance(alice))
	assert.Equal(t, "333", f.balance(bob))
	assert.Equal(t, "1", f.balance(escrow), "dust stays with the engine")
}

func TestStrictAccounts(t *testing.T) {
	f := newFixture(t, nil, bazaar.WithStrictAccounts())

	_, err := f.engine.Signup(f.as(alice, 0))
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)

	key, err := bazaar.ParseAccount("11111111111111111111111111111111")
	require.NoError(t, err)
	f.host.Mint(key, types.NewAmount(signupFee))
	_, err = f.engine.Signup(bazaar.As(f.ctx, key, types.NewAmount(signupFee)))
	require.NoError(t, err)
}
