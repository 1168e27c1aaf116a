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

package execution_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/collateral"
	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/core/execution"
	"github.com/sora-xor/sora2-network-sub006/core/execution/mocks"
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	vgcontext "github.com/sora-xor/sora2-network-sub006/libs/context"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookID = types.NewOrderBookID(0, "VAL", "XOR")

type testEngine struct {
	*execution.Engine
	store      *storage.CometStore
	writes     *failingWrites
	collateral *collateral.Engine
	height     uint64
	now        time.Time
	evts       []events.Event
}

var errDiskFull = errors.New("disk full")

// failingWrites rejects every batch while fail is set.
type failingWrites struct {
	datalayer.Backend
	fail bool
}

func (f *failingWrites) Write(ops []storage.Op) error {
	if f.fail {
		return errDiskFull
	}
	return f.Backend.Write(ops)
}

func getTestEngine(t *testing.T, opts ...func(*execution.Config)) *testEngine {
	t.Helper()
	return newTestEngine(t, nil, opts...)
}

// newTestEngine wires the engine over an in-memory store. When coll is nil
// a real collateral engine is used.
func newTestEngine(t *testing.T, coll execution.Collateral, opts ...func(*execution.Config)) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logging.NewTestLogger()

	cfg := execution.NewDefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	te := &testEngine{
		store:  storage.NewMemStore(),
		height: 1,
		now:    time.Unix(1700000000, 0).UTC(),
	}
	if coll == nil {
		te.collateral = collateral.New(log, collateral.NewDefaultConfig())
		coll = te.collateral
	}

	ts := mocks.NewMockTimeService(ctrl)
	ts.EXPECT().GetBlockHeight().DoAndReturn(func() uint64 { return te.height }).AnyTimes()
	ts.EXPECT().GetTimeNow().DoAndReturn(func() time.Time { return te.now }).AnyTimes()

	pairs := mocks.NewMockTradingPairs(ctrl)
	pairs.EXPECT().IsRegistered(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ uint32, base, _ string) bool { return base != "DOGE" },
	).AnyTimes()

	broker := mocks.NewMockBroker(ctrl)
	broker.EXPECT().SendBatch(gomock.Any()).Do(func(evts []events.Event) {
		te.evts = append(te.evts, evts...)
	}).AnyTimes()
	broker.EXPECT().Send(gomock.Any()).Do(func(evt events.Event) {
		te.evts = append(te.evts, evt)
	}).AnyTimes()

	te.writes = &failingWrites{Backend: te.store}
	te.Engine = execution.NewEngine(log, cfg, te.writes, coll, pairs, ts, broker)
	return te
}

func (te *testEngine) ctx() context.Context {
	return vgcontext.WithBlockHeight(context.Background(), te.height)
}

func (te *testEngine) deposit(t *testing.T, owner, asset, amount string) {
	t.Helper()
	require.NoError(t, te.collateral.Deposit(te.ctx(), owner, asset, num.MustBalance(amount)))
}

func (te *testEngine) balance(owner, asset string) string {
	return num.BalanceToString(te.collateral.GetBalance(owner, asset))
}

func (te *testEngine) escrow(id types.OrderBookID, asset string) string {
	return te.balance(collateral.EscrowAccount(id), asset)
}

// createBook creates a book with a 0.00001 tick and step and lots between
// 1 and 1000.
func (te *testEngine) createBook(t *testing.T, id types.OrderBookID) *types.OrderBook {
	t.Helper()
	ob, err := te.CreateOrderBook(te.ctx(), id,
		num.MustBalance("0.00001"),
		num.MustBalance("0.00001"),
		num.MustBalance("1"),
		num.MustBalance("1000"),
	)
	require.NoError(t, err)
	return ob
}

func (te *testEngine) place(t *testing.T, owner string, side types.Side, price, amount string) *types.PlacedOrder {
	t.Helper()
	placed, err := te.PlaceLimitOrder(te.ctx(), owner, bookID, num.MustBalance(price), num.MustBalance(amount), side, nil)
	require.NoError(t, err)
	return placed
}

func (te *testEngine) eventsOf(typ events.Type) []events.Event {
	out := []events.Event{}
	for _, e := range te.evts {
		if e.Type() == typ {
			out = append(out, e)
		}
	}
	return out
}

func (te *testEngine) storeLen(t *testing.T) int {
	t.Helper()
	n := 0
	require.NoError(t, te.store.Iterate(nil, nil, func(_, _ []byte) (bool, error) {
		n++
		return true, nil
	}))
	return n
}

// assertAggregates checks every aggregated level against the sum of the
// orders resting at its price.
func (te *testEngine) assertAggregates(t *testing.T, id types.OrderBookID) {
	t.Helper()
	dl := datalayer.NewStorageDataLayer(te.store, te.Limits())
	orders, err := dl.GetAllLimitOrders(id)
	require.NoError(t, err)

	sums := map[types.Side]map[string]*num.Uint{
		types.SideBuy:  {},
		types.SideSell: {},
	}
	for _, o := range orders {
		key := o.Price.String()
		if cur, ok := sums[o.Side][key]; ok {
			cur.Add(cur, o.Amount)
		} else {
			sums[o.Side][key] = o.Amount.Clone()
		}
	}
	for _, side := range []types.Side{types.SideBuy, types.SideSell} {
		ms, err := dl.GetAggregatedSide(id, side)
		require.NoError(t, err)
		assert.Equal(t, len(sums[side]), ms.Len(), "side %s", side.String())
		ms.Walk(func(price, volume *num.Uint) bool {
			expected, ok := sums[side][price.String()]
			if assert.True(t, ok, "price %s", num.BalanceToString(price)) {
				assert.Equal(t, expected.String(), volume.String(), "price %s", num.BalanceToString(price))
			}
			return true
		})
	}
}

func TestCreateOrderBook(t *testing.T) {
	t.Run("a new book trades and is announced", func(t *testing.T) {
		te := getTestEngine(t)
		ob := te.createBook(t, bookID)
		assert.Equal(t, types.OrderBookStatusTrade, ob.Status)
		assert.Equal(t, uint64(0), ob.LastOrderID)

		got, err := te.GetOrderBook(bookID)
		require.NoError(t, err)
		assert.Equal(t, "1000", num.BalanceToString(got.MaxLotSize))

		created := te.eventsOf(events.OrderBookCreatedEvent)
		require.Len(t, created, 1)
		assert.Equal(t, bookID, created[0].(*events.OrderBookCreated).OrderBook().ID)
	})

	t.Run("defaults come from the configuration", func(t *testing.T) {
		te := getTestEngine(t)
		ob, err := te.CreateOrderBookWithDefaults(te.ctx(), bookID)
		require.NoError(t, err)
		assert.Equal(t, "0.00001", num.BalanceToString(ob.TickSize))
		assert.Equal(t, "0.00001", num.BalanceToString(ob.StepLotSize))
		assert.Equal(t, "1", num.BalanceToString(ob.MinLotSize))
		assert.Equal(t, "100000", num.BalanceToString(ob.MaxLotSize))
	})

	t.Run("rejections", func(t *testing.T) {
		te := getTestEngine(t)
		te.createBook(t, bookID)

		_, err := te.CreateOrderBookWithDefaults(te.ctx(), bookID)
		assert.ErrorIs(t, err, types.ErrOrderBookAlreadyExists)

		_, err = te.CreateOrderBookWithDefaults(te.ctx(), types.NewOrderBookID(0, "DOGE", "XOR"))
		assert.ErrorIs(t, err, types.ErrTradingPairNotRegistered)

		_, err = te.CreateOrderBookWithDefaults(te.ctx(), types.NewOrderBookID(0, "XOR", "XOR"))
		assert.ErrorIs(t, err, types.ErrInvalidAsset)

		other := types.NewOrderBookID(1, "VAL", "XOR")
		_, err = te.CreateOrderBook(te.ctx(), other, num.UintZero(), num.MustBalance("1"), num.MustBalance("1"), num.MustBalance("10"))
		assert.ErrorIs(t, err, types.ErrInvalidTickSize)

		_, err = te.CreateOrderBook(te.ctx(), other, num.MustBalance("0.0000000001"), num.MustBalance("0.000000001"), num.MustBalance("1"), num.MustBalance("10"))
		assert.ErrorIs(t, err, types.ErrInvalidStepLotSize)

		_, err = te.CreateOrderBook(te.ctx(), other, num.MustBalance("0.000000001"), num.MustBalance("0.000000001"), num.MustBalance("1"), num.MustBalance("10"))
		assert.NoError(t, err)

		assert.Len(t, te.eventsOf(events.OrderBookCreatedEvent), 2)
	})
}

func TestDeleteOrderBook(t *testing.T) {
	t.Run("create then delete leaves nothing behind", func(t *testing.T) {
		te := getTestEngine(t)
		te.createBook(t, bookID)
		require.NoError(t, te.DeleteOrderBook(te.ctx(), bookID))
		assert.Equal(t, 0, te.storeLen(t))

		_, err := te.GetOrderBook(bookID)
		assert.ErrorIs(t, err, types.ErrOrderBookNotFound)
		deleted := te.eventsOf(events.OrderBookDeletedEvent)
		require.Len(t, deleted, 1)
		assert.False(t, deleted[0].(*events.OrderBookDeleted).Purged())
	})

	t.Run("a book with orders cannot be deleted", func(t *testing.T) {
		te := getTestEngine(t)
		te.createBook(t, bookID)
		te.deposit(t, "alice", "VAL", "10")
		te.place(t, "alice", types.SideSell, "10", "10")

		assert.ErrorIs(t, te.DeleteOrderBook(te.ctx(), bookID), types.ErrOrderBookNotEmpty)
		_, err := te.GetOrderBook(bookID)
		assert.NoError(t, err)
	})

	t.Run("unknown book", func(t *testing.T) {
		te := getTestEngine(t)
		assert.ErrorIs(t, te.DeleteOrderBook(te.ctx(), bookID), types.ErrOrderBookNotFound)
	})

	t.Run("cancelling the last order frees the book", func(t *testing.T) {
		te := getTestEngine(t)
		te.createBook(t, bookID)
		te.deposit(t, "alice", "XOR", "100")
		placed := te.place(t, "alice", types.SideBuy, "10", "10")
		require.NoError(t, te.CancelLimitOrder(te.ctx(), "alice", bookID, placed.OrderID))
		require.NoError(t, te.DeleteOrderBook(te.ctx(), bookID))
		assert.Equal(t, 0, te.storeLen(t))
	})
}

func TestPurgeOrderBook(t *testing.T) {
	te := getTestEngine(t)
	te.createBook(t, bookID)
	te.deposit(t, "alice", "VAL", "20")
	te.deposit(t, "bob", "XOR", "100")
	te.place(t, "alice", types.SideSell, "10", "20")
	te.place(t, "bob", types.SideBuy, "9", "10")
	assert.Equal(t, "0", te.balance("alice", "VAL"))
	assert.Equal(t, "10", te.balance("bob", "XOR"))

	require.NoError(t, te.PurgeOrderBook(te.ctx(), bookID))

	assert.Equal(t, "20", te.balance("alice", "VAL"))
	assert.Equal(t, "100", te.balance("bob", "XOR"))
	assert.Equal(t, "0", te.escrow(bookID, "VAL"))
	assert.Equal(t, "0", te.escrow(bookID, "XOR"))
	assert.Equal(t, 0, te.storeLen(t))

	cancelled := te.eventsOf(events.LimitOrderCanceledEvent)
	require.Len(t, cancelled, 2)
	for _, e := range cancelled {
		assert.Equal(t, types.CancelReasonSystem, e.(*events.LimitOrderCanceled).Reason())
	}
	deleted := te.eventsOf(events.OrderBookDeletedEvent)
	require.Len(t, deleted, 1)
	assert.True(t, deleted[0].(*events.OrderBookDeleted).Purged())
}

func TestChangeOrderBookStatus(t *testing.T) {
	te := getTestEngine(t)
	te.createBook(t, bookID)

	assert.ErrorIs(t, te.ChangeOrderBookStatus(te.ctx(), bookID, types.OrderBookStatusUnspecified), types.ErrInvalidOrderBookStatus)
	assert.ErrorIs(t, te.ChangeOrderBookStatus(te.ctx(), types.NewOrderBookID(3, "VAL", "XOR"), types.OrderBookStatusStop), types.ErrOrderBookNotFound)

	require.NoError(t, te.ChangeOrderBookStatus(te.ctx(), bookID, types.OrderBookStatusOnlyCancel))
	// unchanged status is a no-op
	require.NoError(t, te.ChangeOrderBookStatus(te.ctx(), bookID, types.OrderBookStatusOnlyCancel))

	ob, err := te.GetOrderBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderBookStatusOnlyCancel, ob.Status)

	changed := te.eventsOf(events.OrderBookStatusChangedEvent)
	require.Len(t, changed, 1)
	assert.Equal(t, types.OrderBookStatusOnlyCancel, changed[0].(*events.OrderBookStatusChanged).Status())
}

func TestUpdateOrderBook(t *testing.T) {
	t.Run("only a stopped book can be updated", func(t *testing.T) {
		te := getTestEngine(t)
		te.createBook(t, bookID)
		_, err := te.UpdateOrderBook(te.ctx(), bookID, num.MustBalance("0.01"), num.MustBalance("1"), num.MustBalance("1"), num.MustBalance("10"))
		assert.ErrorIs(t, err, types.ErrOrderBookNotStopped)

		require.NoError(t, te.ChangeOrderBookStatus(te.ctx(), bookID, types.OrderBookStatusStop))
		_, err = te.UpdateOrderBook(te.ctx(), bookID, num.MustBalance("0.01"), num.MustBalance("1"), num.MustBalance("2"), num.MustBalance("1"))
		assert.ErrorIs(t, err, types.ErrInvalidMaxLotSize)
	})

	t.Run("resting orders are aligned to the new step", func(t *testing.T) {
		te := getTestEngine(t)
		te.createBook(t, bookID)
		te.deposit(t, "alice", "VAL", "12")
		big := te.place(t, "alice", types.SideSell, "10", "10.5")
		small := te.place(t, "alice", types.SideSell, "10", "1.5")
		require.NoError(t, te.ChangeOrderBookStatus(te.ctx(), bookID, types.OrderBookStatusStop))

		ob, err := te.UpdateOrderBook(te.ctx(), bookID, num.MustBalance("0.00001"), num.MustBalance("2"), num.MustBalance("2"), num.MustBalance("1000"))
		require.NoError(t, err)
		assert.Equal(t, "2", num.BalanceToString(ob.StepLotSize))

		order, err := te.GetLimitOrder(bookID, big.OrderID)
		require.NoError(t, err)
		assert.Equal(t, "10", num.BalanceToString(order.Amount))
		_, err = te.GetLimitOrder(bookID, small.OrderID)
		assert.ErrorIs(t, err, types.ErrOrderNotFound)

		assert.Equal(t, "2", te.balance("alice", "VAL"))
		assert.Equal(t, "10", te.escrow(bookID, "VAL"))
		te.assertAggregates(t, bookID)

		assert.Len(t, te.eventsOf(events.OrderBookUpdatedEvent), 1)
		assert.Len(t, te.eventsOf(events.LimitOrderUpdatedEvent), 1)
		cancelled := te.eventsOf(events.LimitOrderCanceledEvent)
		require.Len(t, cancelled, 1)
		assert.Equal(t, types.CancelReasonSystem, cancelled[0].(*events.LimitOrderCanceled).Reason())
	})
}

func TestHashIsDeterministic(t *testing.T) {
	build := func() *testEngine {
		te := getTestEngine(t)
		te.createBook(t, bookID)
		te.deposit(t, "alice", "VAL", "100")
		te.deposit(t, "bob", "XOR", "1000")
		te.place(t, "alice", types.SideSell, "10", "50")
		te.place(t, "bob", types.SideBuy, "9.5", "20")
		return te
	}
	a, b := build(), build()

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	a.place(t, "alice", types.SideSell, "11", "1")
	ha2, err := a.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, ha2)
}

func TestHashFramesKeysAndValues(t *testing.T) {
	a, b := getTestEngine(t), getTestEngine(t)
	require.NoError(t, a.store.Set([]byte("zz-a"), []byte("bc")))
	require.NoError(t, b.store.Set([]byte("zz-ab"), []byte("c")))

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}
