// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package matching_test

import (
	"testing"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/matching"
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookID = types.NewOrderBookID(0, "XOR", "VAL")

type testBook struct {
	*matching.OrderBook
	dl *datalayer.StorageDataLayer
}

func getTestBook(t *testing.T) *testBook {
	t.Helper()
	ob := types.NewOrderBook(bookID, num.MustBalance("0.00001"), num.MustBalance("0.00001"), num.MustBalance("1"), num.MustBalance("1000"))
	dl := datalayer.NewStorageDataLayer(storage.NewMemStore(), datalayer.Limits{})
	require.NoError(t, dl.SetOrderBook(ob))
	return &testBook{
		OrderBook: matching.NewOrderBook(logging.NewTestLogger(), ob, num.MustBalance("0.5")),
		dl:        dl,
	}
}

func (tb *testBook) rest(t *testing.T, owner string, side types.Side, price, amount string) *types.LimitOrder {
	t.Helper()
	o := &types.LimitOrder{
		ID:             tb.NextOrderID(),
		Owner:          owner,
		Side:           side,
		Price:          num.MustBalance(price),
		OriginalAmount: num.MustBalance(amount),
		Amount:         num.MustBalance(amount),
		Time:           time.Unix(1700000000, 0),
		ExpiresAt:      100,
		ExpirationSlot: 100,
	}
	require.NoError(t, tb.dl.InsertLimitOrder(bookID, o))
	return o
}

func balance(s string) *num.Uint {
	return num.MustBalance(s)
}

func TestMarketImpactFullLevel(t *testing.T) {
	tb := getTestBook(t)
	tb.rest(t, "maker", types.SideSell, "10", "100")

	change, err := tb.MarketImpact(tb.dl, types.SideBuy, types.NewBaseAmount(balance("100")), "taker", "taker", false, false)
	require.NoError(t, err)
	assert.Equal(t, "100", num.BalanceToString(change.Base))
	assert.Equal(t, "1000", num.BalanceToString(change.Quote))
	require.Len(t, change.Fills, 1)
	assert.True(t, change.Fills[0].IsFull())

	assert.Equal(t, []matching.Transfer{{Asset: "VAL", Party: "taker", Amount: balance("1000")}}, change.Payment.ToLock)
	assert.Equal(t, []matching.Transfer{
		{Asset: "XOR", Party: "taker", Amount: balance("100")},
		{Asset: "VAL", Party: "maker", Amount: balance("1000")},
	}, change.Payment.ToUnlock)

	require.NoError(t, tb.Apply(tb.dl, change))
	asks, err := tb.dl.GetAggregatedSide(bookID, types.SideSell)
	require.NoError(t, err)
	assert.True(t, asks.IsEmpty())
	empty, err := tb.dl.IsOrderBookEmpty(bookID)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestMarketImpactTimePriority(t *testing.T) {
	tb := getTestBook(t)
	o1 := tb.rest(t, "first", types.SideSell, "10", "60")
	o2 := tb.rest(t, "second", types.SideSell, "10", "60")

	change, err := tb.MarketImpact(tb.dl, types.SideBuy, types.NewBaseAmount(balance("90")), "taker", "taker", false, false)
	require.NoError(t, err)
	require.Len(t, change.Fills, 2)
	assert.Equal(t, o1.ID, change.Fills[0].Order.ID)
	assert.True(t, change.Fills[0].IsFull())
	assert.Equal(t, o2.ID, change.Fills[1].Order.ID)
	assert.Equal(t, "30", num.BalanceToString(change.Fills[1].Base))
	assert.Equal(t, "30", num.BalanceToString(change.Fills[1].Remaining))

	require.NoError(t, tb.Apply(tb.dl, change))
	left, err := tb.dl.GetLimitOrder(bookID, o2.ID)
	require.NoError(t, err)
	assert.Equal(t, "30", num.BalanceToString(left.Amount))
	asks, err := tb.dl.GetAggregatedSide(bookID, types.SideSell)
	require.NoError(t, err)
	assert.Equal(t, "30", num.BalanceToString(asks.Get(balance("10"))))
}

func TestMarketImpactDryRunMatchesExecution(t *testing.T) {
	tb := getTestBook(t)
	tb.rest(t, "a", types.SideBuy, "9.99", "12.34567")
	tb.rest(t, "b", types.SideBuy, "9.99", "3")
	tb.rest(t, "c", types.SideBuy, "9.5", "40")

	for _, limit := range []types.OrderAmount{
		types.NewBaseAmount(balance("20.00001")),
		types.NewQuoteAmount(balance("200.123456")),
	} {
		t.Run(limit.String(), func(t *testing.T) {
			dry, err := tb.MarketImpact(tb.dl, types.SideSell, limit, "taker", "taker", true, false)
			require.NoError(t, err)
			wet, err := tb.MarketImpact(tb.dl, types.SideSell, limit, "taker", "taker", false, false)
			require.NoError(t, err)
			assert.Equal(t, dry.Base.String(), wet.Base.String())
			assert.Equal(t, dry.Quote.String(), wet.Quote.String())
			assert.Empty(t, dry.Fills)
			assert.True(t, dry.Payment.IsEmpty())

			// the escrow gives out exactly what it takes in
			assert.Equal(t, wet.Payment.Locked("XOR").String(), wet.Payment.Unlocked("XOR").String())
			assert.Equal(t, wet.Quote.String(), wet.Payment.Unlocked("VAL").String())
		})
	}
}

func TestMarketImpactLiquidity(t *testing.T) {
	tb := getTestBook(t)
	tb.rest(t, "maker", types.SideSell, "10", "50")

	_, err := tb.MarketImpact(tb.dl, types.SideBuy, types.NewBaseAmount(balance("60")), "taker", "taker", false, false)
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)

	change, err := tb.MarketImpact(tb.dl, types.SideBuy, types.NewBaseAmount(balance("60")), "taker", "taker", false, true)
	require.NoError(t, err)
	assert.Equal(t, "50", num.BalanceToString(change.Base))

	_, err = tb.MarketImpact(tb.dl, types.SideSell, types.NewBaseAmount(balance("1")), "taker", "taker", false, true)
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)

	_, err = tb.MarketImpact(tb.dl, types.SideBuy, types.NewBaseAmount(balance("0.000001")), "taker", "taker", false, false)
	assert.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = tb.MarketImpact(tb.dl, types.SideBuy, types.NewQuoteAmount(balance("0.00001")), "taker", "taker", false, false)
	assert.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestCalculateDeal(t *testing.T) {
	tb := getTestBook(t)
	tb.rest(t, "a", types.SideSell, "10", "100")
	tb.rest(t, "b", types.SideSell, "11", "100")

	deal, err := tb.CalculateDeal(tb.dl, types.SideBuy, types.NewSwapWithDesiredOutput(balance("150"), num.UintZero()), false)
	require.NoError(t, err)
	assert.Equal(t, "VAL", deal.InputAsset)
	assert.Equal(t, "1550", num.BalanceToString(deal.InputAmount))
	assert.Equal(t, "150", num.BalanceToString(deal.OutputAmount))
	assert.True(t, deal.Fee.IsZero())

	deal, err = tb.CalculateDeal(tb.dl, types.SideBuy, types.NewSwapWithDesiredInput(balance("1550"), num.UintZero()), false)
	require.NoError(t, err)
	assert.Equal(t, "150", num.BalanceToString(deal.OutputAmount))
	assert.Equal(t, "1550", num.BalanceToString(deal.InputAmount))
}

func TestCheckRestrictionsPriceShift(t *testing.T) {
	tb := getTestBook(t)
	tb.rest(t, "maker", types.SideBuy, "10", "1")

	far := &types.LimitOrder{Owner: "x", Side: types.SideBuy, Price: balance("4.99999"), Amount: balance("1")}
	assert.ErrorIs(t, tb.CheckRestrictions(tb.dl, far), types.ErrInvalidPrice)

	near := &types.LimitOrder{Owner: "x", Side: types.SideBuy, Price: balance("5"), Amount: balance("1")}
	assert.NoError(t, tb.CheckRestrictions(tb.dl, near))

	better := &types.LimitOrder{Owner: "x", Side: types.SideBuy, Price: balance("100"), Amount: balance("1")}
	assert.NoError(t, tb.CheckRestrictions(tb.dl, better))
}

func TestCrossSpreadImpact(t *testing.T) {
	t.Run("the remainder rests at the limit price", func(t *testing.T) {
		tb := getTestBook(t)
		tb.rest(t, "maker", types.SideSell, "10", "30")
		tb.rest(t, "maker", types.SideSell, "12", "30")

		order := &types.LimitOrder{ID: tb.NextOrderID(), Owner: "taker", Side: types.SideBuy, Price: balance("11"), Amount: balance("50"), OriginalAmount: balance("50"), ExpirationSlot: 100}
		change, err := tb.CrossSpreadImpact(tb.dl, order, false)
		require.NoError(t, err)
		assert.Equal(t, "30", num.BalanceToString(change.Base))
		require.Len(t, change.ToPlace, 1)
		assert.Equal(t, "20", num.BalanceToString(change.ToPlace[0].Amount))
		// 300 for the fill and 220 for the resting part
		assert.Equal(t, "520", num.BalanceToString(change.Payment.Locked("VAL")))
		require.NoError(t, tb.Apply(tb.dl, change))
	})

	t.Run("a dust remainder is executed as market", func(t *testing.T) {
		tb := getTestBook(t)
		tb.rest(t, "maker", types.SideSell, "10", "30")
		tb.rest(t, "maker", types.SideSell, "12", "30")

		order := &types.LimitOrder{ID: tb.NextOrderID(), Owner: "taker", Side: types.SideBuy, Price: balance("11"), Amount: balance("30.5"), OriginalAmount: balance("30.5"), ExpirationSlot: 100}
		change, err := tb.CrossSpreadImpact(tb.dl, order, false)
		require.NoError(t, err)
		assert.True(t, change.ConvertedToMarket)
		assert.Empty(t, change.ToPlace)
		assert.Equal(t, "30.5", num.BalanceToString(change.Base))
		assert.Equal(t, "306", num.BalanceToString(change.Quote))
	})

	t.Run("a dust remainder is dropped without liquidity", func(t *testing.T) {
		tb := getTestBook(t)
		tb.rest(t, "maker", types.SideSell, "10", "30")

		order := &types.LimitOrder{ID: tb.NextOrderID(), Owner: "taker", Side: types.SideBuy, Price: balance("11"), Amount: balance("30.5"), OriginalAmount: balance("30.5"), ExpirationSlot: 100}
		change, err := tb.CrossSpreadImpact(tb.dl, order, false)
		require.NoError(t, err)
		assert.False(t, change.ConvertedToMarket)
		assert.Equal(t, "0.5", num.BalanceToString(change.Dropped))
		assert.Equal(t, "30", num.BalanceToString(change.Base))
	})
}

func TestAlignmentImpact(t *testing.T) {
	tb := getTestBook(t)
	tb.rest(t, "a", types.SideBuy, "10", "1.5")
	tb.rest(t, "b", types.SideSell, "20", "0.5")
	tb.rest(t, "c", types.SideSell, "20", "3")

	tb.StepLotSize = balance("1")
	change, err := tb.AlignmentImpact(tb.dl)
	require.NoError(t, err)
	require.Len(t, change.ToUpdate, 1)
	assert.Equal(t, "1", num.BalanceToString(change.ToUpdate[0].NewAmount))
	require.Len(t, change.ToCancel, 1)
	assert.Equal(t, types.CancelReasonSystem, change.ToCancel[0].Reason)
	assert.Equal(t, []matching.Transfer{
		{Asset: "VAL", Party: "a", Amount: balance("5")},
		{Asset: "XOR", Party: "b", Amount: balance("0.5")},
	}, change.Payment.ToUnlock)

	require.NoError(t, tb.Apply(tb.dl, change))
	asks, err := tb.dl.GetAggregatedSide(bookID, types.SideSell)
	require.NoError(t, err)
	assert.Equal(t, "3", num.BalanceToString(asks.Get(balance("20"))))
}

func TestPaymentMerge(t *testing.T) {
	p := matching.NewPayment(bookID)
	p.Lock("VAL", "alice", balance("1"))
	p.Lock("XOR", "bob", balance("2"))
	p.Lock("VAL", "alice", balance("3"))
	p.Unlock("XOR", "alice", num.UintZero())

	assert.Equal(t, []matching.Transfer{
		{Asset: "VAL", Party: "alice", Amount: balance("4")},
		{Asset: "XOR", Party: "bob", Amount: balance("2")},
	}, p.ToLock)
	assert.Empty(t, p.ToUnlock)
}
