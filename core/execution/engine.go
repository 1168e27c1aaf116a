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

package execution

import (
	"context"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/collateral"
	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/core/matching"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	vgcrypto "github.com/sora-xor/sora2-network-sub006/libs/crypto"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"
	"github.com/sora-xor/sora2-network-sub006/metrics"

	"github.com/pkg/errors"
)

// Broker sends the events of the engine to its subscribers.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/broker_mock.go -package mocks github.com/sora-xor/sora2-network-sub006/core/execution Broker
type Broker interface {
	Send(event events.Event)
	SendBatch(evts []events.Event)
}

// Collateral moves funds between the parties and the escrow of the books.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/collateral_mock.go -package mocks github.com/sora-xor/sora2-network-sub006/core/execution Collateral
type Collateral interface {
	Reserve(ctx context.Context, escrow, asset, party string, amount *num.Uint) error
	Unreserve(ctx context.Context, escrow, asset, party string, amount *num.Uint) error
}

//go:generate go run github.com/golang/mock/mockgen -destination mocks/trading_pairs_mock.go -package mocks github.com/sora-xor/sora2-network-sub006/core/execution TradingPairs
type TradingPairs interface {
	IsRegistered(dexID uint32, base, quote string) bool
}

// TimeService gives the block being processed.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/time_service_mock.go -package mocks github.com/sora-xor/sora2-network-sub006/core/execution TimeService
type TimeService interface {
	GetBlockHeight() uint64
	GetTimeNow() time.Time
}

// Engine is the execution engine of the order books. It is not safe for
// concurrent use, callers apply the operations one at a time.
//
// Every operation runs in its own cached unit of work over the store: the
// change is computed, written to the cache, the escrow movements are
// executed and the cache is committed only once all of them succeeded.
type Engine struct {
	Config
	log *logging.Logger

	store       datalayer.Backend
	collateral  Collateral
	pairs       TradingPairs
	timeService TimeService
	broker      Broker
}

// NewEngine creates the execution engine over store.
func NewEngine(
	log *logging.Logger,
	executionConfig Config,
	store datalayer.Backend,
	collateral Collateral,
	pairs TradingPairs,
	timeService TimeService,
	broker Broker,
) *Engine {
	// setup logger
	log = log.Named(namedLogger)
	log.SetLevel(executionConfig.Level.Get())

	return &Engine{
		Config:      executionConfig,
		log:         log,
		store:       store,
		collateral:  collateral,
		pairs:       pairs,
		timeService: timeService,
		broker:      broker,
	}
}

// ReloadConf updates the internal configuration of the execution engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.Config = cfg
}

func (e *Engine) newUnit() *datalayer.CacheDataLayer {
	return datalayer.NewCacheDataLayer(e.store, e.Limits())
}

func (e *Engine) matchingBook(ob *types.OrderBook) *matching.OrderBook {
	return matching.NewOrderBook(e.log, ob, e.maxPriceShift())
}

func (e *Engine) allowPartialFill() bool {
	return bool(e.AllowPartialFill)
}

// GetOrderBook returns the committed state of a book.
func (e *Engine) GetOrderBook(id types.OrderBookID) (*types.OrderBook, error) {
	return e.newUnit().GetOrderBook(id)
}

func (e *Engine) GetLimitOrder(id types.OrderBookID, orderID uint64) (*types.LimitOrder, error) {
	return e.newUnit().GetLimitOrder(id, orderID)
}

func (e *Engine) GetUserLimitOrders(owner string, id types.OrderBookID) ([]uint64, error) {
	return e.newUnit().GetUserLimitOrders(owner, id)
}

func (e *Engine) GetAggregatedSide(id types.OrderBookID, side types.Side) (*types.MarketSide, error) {
	return e.newUnit().GetAggregatedSide(id, side)
}

func (e *Engine) ListOrderBooks() ([]*types.OrderBook, error) {
	return e.newUnit().ListOrderBooks()
}

// movement is an escrow movement already executed, kept to be reverted.
type movement struct {
	escrow string
	lock   bool
	matching.Transfer
}

// settle executes the escrow movements of the payments: every lock of a
// payment first, then its unlocks. On failure the movements already done
// are reverted and nothing has moved.
func (e *Engine) settle(ctx context.Context, payments ...*matching.Payment) ([]movement, error) {
	done := []movement{}
	for _, p := range payments {
		if p == nil {
			continue
		}
		escrow := collateral.EscrowAccount(p.OrderBookID)
		for _, t := range p.ToLock {
			if err := e.collateral.Reserve(ctx, escrow, t.Asset, t.Party, t.Amount); err != nil {
				e.revert(ctx, done)
				return nil, errors.Wrapf(err, "could not lock %s %s of %s", num.BalanceToString(t.Amount), t.Asset, t.Party)
			}
			done = append(done, movement{escrow: escrow, lock: true, Transfer: t})
		}
		for _, t := range p.ToUnlock {
			if err := e.collateral.Unreserve(ctx, escrow, t.Asset, t.Party, t.Amount); err != nil {
				e.revert(ctx, done)
				return nil, errors.Wrapf(err, "could not unlock %s %s to %s", num.BalanceToString(t.Amount), t.Asset, t.Party)
			}
			done = append(done, movement{escrow: escrow, lock: false, Transfer: t})
		}
	}
	return done, nil
}

func (e *Engine) revert(ctx context.Context, done []movement) {
	for i := len(done) - 1; i >= 0; i-- {
		m := done[i]
		var err error
		if m.lock {
			err = e.collateral.Unreserve(ctx, m.escrow, m.Asset, m.Party, m.Amount)
		} else {
			err = e.collateral.Reserve(ctx, m.escrow, m.Asset, m.Party, m.Amount)
		}
		if err != nil {
			e.log.Error("could not revert escrow movement",
				logging.String("escrow", m.escrow),
				logging.AssetID(m.Asset),
				logging.PartyID(m.Party),
				logging.Balance("amount", m.Amount),
				logging.Error(err),
			)
		}
	}
}

// commit settles the payments, commits the unit of work and sends the
// events. Nothing is committed if the settlement fails.
func (e *Engine) commit(ctx context.Context, dl *datalayer.CacheDataLayer, evts []events.Event, payments ...*matching.Payment) error {
	done, err := e.settle(ctx, payments...)
	if err != nil {
		return err
	}
	if err := dl.Commit(); err != nil {
		e.revert(ctx, done)
		return errors.Wrap(err, "could not commit order book state")
	}
	if len(evts) > 0 {
		e.broker.SendBatch(evts)
	}
	return nil
}

// changeEvents builds the events of the mutations of a change. taker and
// receiver are only used when the change traded.
func changeEvents(ctx context.Context, change *matching.MarketChange, taker, receiver string) []events.Event {
	id := change.OrderBookID
	evts := []events.Event{}
	for _, f := range change.Fills {
		evts = append(evts, events.NewLimitOrderExecutedEvent(ctx, id, *f.Order, f.Base, f.Quote))
		if f.IsFull() {
			evts = append(evts, events.NewLimitOrderFilledEvent(ctx, id, f.Order.ID, f.Order.Owner))
		} else {
			evts = append(evts, events.NewLimitOrderUpdatedEvent(ctx, id, f.Order.ID, f.Order.Owner, f.Remaining))
		}
	}
	if change.IsTrade() && taker != "" {
		avg, _ := num.FixedDivFloor(change.Quote, change.Base)
		evts = append(evts, events.NewMarketOrderExecutedEvent(ctx, id, taker, receiver, change.TakerSide, change.Base, avg))
	}
	for _, c := range change.ToCancel {
		evts = append(evts, events.NewLimitOrderCanceledEvent(ctx, id, c.Order.ID, c.Order.Owner, c.Reason))
	}
	for _, u := range change.ToUpdate {
		evts = append(evts, events.NewLimitOrderUpdatedEvent(ctx, id, u.Order.ID, u.Order.Owner, u.NewAmount))
	}
	for _, o := range change.ToPlace {
		evts = append(evts, events.NewLimitOrderPlacedEvent(ctx, id, *o))
	}
	return evts
}

// recordChange reports the orders a change added and removed.
func recordChange(change *matching.MarketChange) {
	label := change.OrderBookID.String()
	removed := len(change.ToCancel)
	for _, f := range change.Fills {
		if f.IsFull() {
			removed++
			metrics.OrderCounterInc(label, "filled")
		}
	}
	for _, c := range change.ToCancel {
		switch c.Reason {
		case types.CancelReasonExpired:
			metrics.OrderCounterInc(label, "expired")
		default:
			metrics.OrderCounterInc(label, "cancelled")
		}
	}
	for range change.ToPlace {
		metrics.OrderCounterInc(label, "placed")
	}
	metrics.RestingOrdersAdd(len(change.ToPlace)-removed, label)
}

// Hash returns the sha3-256 digest of every committed record in key order.
// Keys and values are length framed.
func (e *Engine) Hash() ([]byte, error) {
	chunks := [][]byte{}
	err := e.newUnit().ForEach(func(key, value []byte) (bool, error) {
		chunks = append(chunks, key, value)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return vgcrypto.HashFramed(chunks...), nil
}
