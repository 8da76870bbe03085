package bazaar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/stake"
	"github.com/xraph/bazaar/types"
)

func totalWeight(t *testing.T, f *fixture) uint64 {
	t.Helper()
	holders, err := f.engine.Holders(f.ctx)
	require.NoError(t, err)
	var total uint64
	for _, h := range holders {
		require.NotZero(t, h.Weight, "zero-weight holder %s kept", h.Holder)
		total += h.Weight
	}
	return total
}

func TestStakeMarket(t *testing.T) {
	f := newFixture(t, nil)
	price := types.NewAmount(50)

	ids, err := f.engine.OfferStake(f.as(owner, 0), 3, price)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	offered, err := f.engine.OfferedUnits(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), offered)

	// Offered units are not free to give away.
	err = f.engine.TransferStake(f.as(owner, 0), 28, bob)
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds)

	f.fund(bob, 80)
	require.NoError(t, f.engine.TakeStake(f.as(bob, 80), 2))

	assert.Equal(t, "30", f.balance(bob))
	assert.Equal(t, "50", f.balance(owner))

	weight, err := f.engine.StakesCount(f.ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), weight)
	weight, err = f.engine.StakesCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(29), weight)
	assert.Equal(t, stake.TotalSupply, totalWeight(t, f))

	offered, err = f.engine.OfferedUnits(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), offered)

	// Removal swaps the last offer into the vacated slot.
	res, err := f.engine.StakesOffered(f.ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, uint64(3), res.Items[0].ID)
	assert.Equal(t, uint64(1), res.Items[1].ID)

	err = f.engine.TakeStake(f.as(bob, 0), 2)
	require.ErrorIs(t, err, bazaar.ErrInvalidInput, "offer already taken")
}

func TestStakeOfferValidation(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.engine.OfferStake(f.as(owner, 0), 0, types.NewAmount(1))
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)

	_, err = f.engine.OfferStake(f.as(owner, 0), 1, types.Zero())
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)

	_, err = f.engine.OfferStake(f.as(bob, 0), 1, types.NewAmount(1))
	require.ErrorIs(t, err, bazaar.ErrUnauthorized)

	_, err = f.engine.OfferStake(f.as(owner, 0), 31, types.NewAmount(1))
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds)
}

func TestTakeStakeUnderpaid(t *testing.T) {
	f := newFixture(t, nil)
	ids, err := f.engine.OfferStake(f.as(owner, 0), 1, types.NewAmount(50))
	require.NoError(t, err)
	f.fund(bob, 49)

	err = f.engine.TakeStake(f.as(bob, 49), ids[0])
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds)
	assert.Equal(t, "49", f.balance(bob))

	offered, err := f.engine.OfferedUnits(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), offered)
}

func TestRemoveStakeOffer(t *testing.T) {
	f := newFixture(t, nil)
	ids, err := f.engine.OfferStake(f.as(owner, 0), 2, types.NewAmount(5))
	require.NoError(t, err)

	err = f.engine.RemoveStakeOffer(f.as(bob, 0), ids[0])
	require.ErrorIs(t, err, bazaar.ErrUnauthorized)

	err = f.engine.RemoveStakeOffer(f.as(owner, 0), 99)
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)

	require.NoError(t, f.engine.RemoveStakeOffer(f.as(owner, 0), ids[0]))

	offered, err := f.engine.OfferedUnits(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), offered)

	res, err := f.engine.StakesOffered(f.ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, ids[1], res.Items[0].ID)
}

func TestTransferStake(t *testing.T) {
	f := newFixture(t, nil)
	ids, err := f.engine.OfferStake(f.as(owner, 0), 1, types.NewAmount(5))
	require.NoError(t, err)

	err = f.engine.TransferStake(f.as(owner, 0), 1, "")
	require.ErrorIs(t, err, bazaar.ErrInvalidInput)

	require.NoError(t, f.engine.TransferStake(f.as(owner, 0), 28, carol))

	holders, err := f.engine.HolderCount(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, holders)

	require.NoError(t, f.engine.TransferStake(f.as(owner, 0), 1, carol))

	// The last unit is on offer.
	err = f.engine.TransferStake(f.as(owner, 0), 1, carol)
	require.ErrorIs(t, err, bazaar.ErrInsufficientFunds)

	f.fund(bob, 5)
	require.NoError(t, f.engine.TakeStake(f.as(bob, 5), ids[0]))

	weight, err := f.engine.StakesCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, weight)

	holders, err = f.engine.HolderCount(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, holders, "owner left the holder set")
	assert.Equal(t, stake.TotalSupply, totalWeight(t, f))
}

func TestFeesFollowStakeTransfers(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.engine.TransferStake(f.as(owner, 0), 15, carol))

	f.signup(alice)

	assert.Equal(t, "500", f.balance(owner))
	assert.Equal(t, "500", f.balance(carol))
}
