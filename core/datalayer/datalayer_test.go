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

package datalayer_test

import (
	"testing"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookID = types.NewOrderBookID(0, "XOR", "VAL")

func testLimits() datalayer.Limits {
	return datalayer.Limits{
		MaxOrdersPerUser:          3,
		MaxOrdersPerPrice:         2,
		MaxSidePriceCount:         2,
		MaxExpiringOrdersPerBlock: 4,
	}
}

func newOrder(id uint64, owner string, side types.Side, price, amount string, slot uint64) *types.LimitOrder {
	return &types.LimitOrder{
		ID:             id,
		Owner:          owner,
		Side:           side,
		Price:          num.MustBalance(price),
		OriginalAmount: num.MustBalance(amount),
		Amount:         num.MustBalance(amount),
		CreatedAt:      1,
		Time:           time.Unix(1700000000, 0).UTC(),
		Lifespan:       time.Minute,
		ExpiresAt:      slot,
		ExpirationSlot: slot,
	}
}

func newBook(t *testing.T, dl datalayer.DataLayer) *types.OrderBook {
	t.Helper()
	ob := types.NewOrderBook(bookID, num.MustBalance("0.00001"), num.MustBalance("0.00001"), num.MustBalance("1"), num.MustBalance("1000"))
	require.NoError(t, dl.SetOrderBook(ob))
	return ob
}

// assertAggregated checks that every aggregated level matches the sum of
// its orders.
func assertAggregated(t *testing.T, dl datalayer.DataLayer, side types.Side) {
	t.Helper()
	ms, err := dl.GetAggregatedSide(bookID, side)
	require.NoError(t, err)
	ms.Walk(func(price, volume *num.Uint) bool {
		ids, err := dl.GetPriceLevel(bookID, side, price)
		require.NoError(t, err)
		sum := num.UintZero()
		for _, id := range ids {
			o, err := dl.GetLimitOrder(bookID, id)
			require.NoError(t, err)
			sum.Add(sum, o.Amount)
		}
		assert.Equal(t, volume.String(), sum.String(), "price %s", num.BalanceToString(price))
		return true
	})
}

func TestOrderBookRecords(t *testing.T) {
	dl := datalayer.NewStorageDataLayer(storage.NewMemStore(), testLimits())

	_, err := dl.GetOrderBook(bookID)
	assert.ErrorIs(t, err, types.ErrOrderBookNotFound)

	ob := newBook(t, dl)
	ob.NextOrderID()
	ob.Status = types.OrderBookStatusStop
	require.NoError(t, dl.SetOrderBook(ob))

	got, err := dl.GetOrderBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, ob, got)

	other := types.NewOrderBook(types.NewOrderBookID(1, "XOR", "PSWAP"), ob.TickSize, ob.StepLotSize, ob.MinLotSize, ob.MaxLotSize)
	require.NoError(t, dl.SetOrderBook(other))
	books, err := dl.ListOrderBooks()
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, bookID, books[0].ID)
}

func TestLimitOrderIndices(t *testing.T) {
	dl := datalayer.NewStorageDataLayer(storage.NewMemStore(), testLimits())
	newBook(t, dl)

	o1 := newOrder(1, "alice", types.SideSell, "10", "60", 100)
	o2 := newOrder(2, "bob", types.SideSell, "10", "60", 100)
	o3 := newOrder(3, "alice", types.SideSell, "11", "5", 101)
	for _, o := range []*types.LimitOrder{o1, o2, o3} {
		require.NoError(t, dl.InsertLimitOrder(bookID, o))
	}

	got, err := dl.GetLimitOrder(bookID, 1)
	require.NoError(t, err)
	assert.Equal(t, o1, got)

	level, err := dl.GetPriceLevel(bookID, types.SideSell, num.MustBalance("10"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, level)

	user, err := dl.GetUserLimitOrders("alice", bookID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, user)

	slot, err := dl.GetExpirationSlot(100)
	require.NoError(t, err)
	assert.Equal(t, []types.ExpirationEntry{{OrderBookID: bookID, OrderID: 1}, {OrderBookID: bookID, OrderID: 2}}, slot)

	asks, err := dl.GetAggregatedSide(bookID, types.SideSell)
	require.NoError(t, err)
	assert.Equal(t, "120", num.BalanceToString(asks.Get(num.MustBalance("10"))))
	assertAggregated(t, dl, types.SideSell)

	t.Run("partial fill reduces the aggregated volume", func(t *testing.T) {
		require.NoError(t, dl.UpdateLimitOrderAmount(bookID, 2, num.MustBalance("30")))
		asks, err := dl.GetAggregatedSide(bookID, types.SideSell)
		require.NoError(t, err)
		assert.Equal(t, "90", num.BalanceToString(asks.Get(num.MustBalance("10"))))
		assertAggregated(t, dl, types.SideSell)
	})

	t.Run("delete removes the order from every index", func(t *testing.T) {
		require.NoError(t, dl.DeleteLimitOrder(bookID, 1))
		_, err := dl.GetLimitOrder(bookID, 1)
		assert.ErrorIs(t, err, types.ErrOrderNotFound)

		level, err := dl.GetPriceLevel(bookID, types.SideSell, num.MustBalance("10"))
		require.NoError(t, err)
		assert.Equal(t, []uint64{2}, level)
		user, err := dl.GetUserLimitOrders("alice", bookID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{3}, user)
		slot, err := dl.GetExpirationSlot(100)
		require.NoError(t, err)
		assert.Equal(t, []types.ExpirationEntry{{OrderBookID: bookID, OrderID: 2}}, slot)
		assertAggregated(t, dl, types.SideSell)
	})

	t.Run("delete tolerates a missing expiration entry", func(t *testing.T) {
		require.NoError(t, dl.SetExpirationSlot(101, nil))
		require.NoError(t, dl.DeleteLimitOrder(bookID, 3))
		asks, err := dl.GetAggregatedSide(bookID, types.SideSell)
		require.NoError(t, err)
		assert.False(t, asks.Has(num.MustBalance("11")))
	})
}

func TestLimitOrderLimits(t *testing.T) {
	dl := datalayer.NewStorageDataLayer(storage.NewMemStore(), testLimits())
	newBook(t, dl)

	require.NoError(t, dl.InsertLimitOrder(bookID, newOrder(1, "alice", types.SideBuy, "9", "1", 10)))
	require.NoError(t, dl.InsertLimitOrder(bookID, newOrder(2, "bob", types.SideBuy, "9", "1", 10)))

	err := dl.InsertLimitOrder(bookID, newOrder(3, "carol", types.SideBuy, "9", "1", 10))
	assert.ErrorIs(t, err, types.ErrPriceLevelFull)

	require.NoError(t, dl.InsertLimitOrder(bookID, newOrder(3, "carol", types.SideBuy, "8", "1", 10)))
	err = dl.InsertLimitOrder(bookID, newOrder(4, "carol", types.SideBuy, "7", "1", 11))
	assert.ErrorIs(t, err, types.ErrOrderBookSideFull)

	require.NoError(t, dl.InsertLimitOrder(bookID, newOrder(4, "alice", types.SideBuy, "8", "1", 10)))
	err = dl.InsertLimitOrder(bookID, newOrder(5, "dave", types.SideSell, "12", "1", 10))
	assert.ErrorIs(t, err, types.ErrExpirationScheduleFull)

	require.NoError(t, dl.InsertLimitOrder(bookID, newOrder(5, "alice", types.SideSell, "12", "1", 11)))
	err = dl.InsertLimitOrder(bookID, newOrder(6, "alice", types.SideSell, "12", "1", 12))
	assert.ErrorIs(t, err, types.ErrUserOrderLimitReached)

	err = dl.InsertLimitOrder(bookID, newOrder(5, "erin", types.SideSell, "12", "1", 12))
	assert.ErrorIs(t, err, datalayer.ErrDuplicateLimitOrder)
}

func TestCreateDeleteLeavesNothing(t *testing.T) {
	kv := storage.NewMemStore()
	dl := datalayer.NewStorageDataLayer(kv, testLimits())
	newBook(t, dl)

	require.NoError(t, dl.InsertLimitOrder(bookID, newOrder(1, "alice", types.SideBuy, "9", "1", 10)))
	assert.ErrorIs(t, dl.DeleteOrderBook(bookID), types.ErrOrderBookNotEmpty)

	require.NoError(t, dl.DeleteLimitOrder(bookID, 1))
	require.NoError(t, dl.DeleteOrderBook(bookID))

	count := 0
	require.NoError(t, kv.Iterate(nil, nil, func(_, _ []byte) (bool, error) {
		count++
		return true, nil
	}))
	assert.Zero(t, count)
}

func TestExpirationSlotsAndCursor(t *testing.T) {
	dl := datalayer.NewStorageDataLayer(storage.NewMemStore(), testLimits())
	entries := []types.ExpirationEntry{{OrderBookID: bookID, OrderID: 7}}
	require.NoError(t, dl.SetExpirationSlot(5, entries))
	require.NoError(t, dl.SetExpirationSlot(9, entries))

	slot, ok, err := dl.NextExpirationSlot(0, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	slot, ok, err = dl.NextExpirationSlot(0, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(5), slot)

	slot, ok, err = dl.NextExpirationSlot(6, ^uint64(0))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), slot)

	_, ok, err = dl.GetIncompleteExpirationsSince()
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, dl.SetIncompleteExpirationsSince(42))
	block, ok, err := dl.GetIncompleteExpirationsSince()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), block)
	require.NoError(t, dl.ClearIncompleteExpirationsSince())
	_, ok, err = dl.GetIncompleteExpirationsSince()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheDataLayer(t *testing.T) {
	kv := storage.NewMemStore()
	direct := datalayer.NewStorageDataLayer(kv, testLimits())
	newBook(t, direct)

	t.Run("nothing reaches the store before commit", func(t *testing.T) {
		cache := datalayer.NewCacheDataLayer(kv, testLimits())
		require.NoError(t, cache.InsertLimitOrder(bookID, newOrder(1, "alice", types.SideBuy, "9", "1", 10)))
		assert.Greater(t, cache.Pending(), 0)

		_, err := direct.GetLimitOrder(bookID, 1)
		assert.ErrorIs(t, err, types.ErrOrderNotFound)
		orders, err := cache.GetAllLimitOrders(bookID)
		require.NoError(t, err)
		assert.Len(t, orders, 1)

		cache.Reset()
		assert.Zero(t, cache.Pending())
		_, err = cache.GetLimitOrder(bookID, 1)
		assert.ErrorIs(t, err, types.ErrOrderNotFound)
	})

	t.Run("commit writes every index", func(t *testing.T) {
		cache := datalayer.NewCacheDataLayer(kv, testLimits())
		require.NoError(t, cache.InsertLimitOrder(bookID, newOrder(1, "alice", types.SideBuy, "9", "1", 10)))
		require.NoError(t, cache.Commit())

		_, err := direct.GetLimitOrder(bookID, 1)
		require.NoError(t, err)
		user, err := direct.GetUserLimitOrders("alice", bookID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{1}, user)
		assertAggregated(t, direct, types.SideBuy)
	})

	t.Run("nested caches commit into their parent", func(t *testing.T) {
		outer := datalayer.NewCacheDataLayer(kv, testLimits())
		inner := datalayer.NewCacheDataLayer(outer, testLimits())
		require.NoError(t, inner.DeleteLimitOrder(bookID, 1))
		require.NoError(t, inner.Commit())

		_, err := outer.GetLimitOrder(bookID, 1)
		assert.ErrorIs(t, err, types.ErrOrderNotFound)
		_, err = direct.GetLimitOrder(bookID, 1)
		require.NoError(t, err)

		require.NoError(t, outer.Commit())
		_, err = direct.GetLimitOrder(bookID, 1)
		assert.ErrorIs(t, err, types.ErrOrderNotFound)
		empty, err := direct.IsOrderBookEmpty(bookID)
		require.NoError(t, err)
		assert.True(t, empty)
	})
}
