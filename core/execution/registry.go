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

	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"
	"github.com/sora-xor/sora2-network-sub006/metrics"

	"github.com/pkg/errors"
)

// CreateOrderBook creates a book for a registered trading pair. The book
// starts in the Trade status.
func (e *Engine) CreateOrderBook(ctx context.Context, id types.OrderBookID, tick, step, minLot, maxLot *num.Uint) (*types.OrderBook, error) {
	timer := metrics.NewTimeCounter(id.String(), "execution", "CreateOrderBook")
	defer timer.EngineTimeCounterAdd()

	if id.Base == "" || id.Quote == "" || id.Base == id.Quote {
		return nil, types.ErrInvalidAsset
	}
	if !e.pairs.IsRegistered(id.DEXID, id.Base, id.Quote) {
		return nil, types.ErrTradingPairNotRegistered
	}
	dl := e.newUnit()
	if _, err := dl.GetOrderBook(id); err == nil {
		return nil, types.ErrOrderBookAlreadyExists
	} else if !errors.Is(err, types.ErrOrderBookNotFound) {
		return nil, err
	}
	if err := types.ValidateAttributes(tick, step, minLot, maxLot); err != nil {
		return nil, err
	}

	ob := types.NewOrderBook(id, tick, step, minLot, maxLot)
	if err := dl.SetOrderBook(ob); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, dl, []events.Event{events.NewOrderBookCreatedEvent(ctx, *ob)}); err != nil {
		return nil, err
	}
	e.log.Info("order book created", logging.OrderBook(*ob))
	return ob, nil
}

// CreateOrderBookWithDefaults creates a book with the configured default
// attributes.
func (e *Engine) CreateOrderBookWithDefaults(ctx context.Context, id types.OrderBookID) (*types.OrderBook, error) {
	return e.CreateOrderBook(ctx, id,
		e.DefaultTickSize.Get(),
		e.DefaultStepLotSize.Get(),
		e.DefaultMinLotSize.Get(),
		e.DefaultMaxLotSize.Get(),
	)
}

// UpdateOrderBook changes the attributes of a stopped book. Resting orders
// which are no longer a multiple of the step lot size are rounded down in
// the same operation, their dust goes back to the owners.
func (e *Engine) UpdateOrderBook(ctx context.Context, id types.OrderBookID, tick, step, minLot, maxLot *num.Uint) (*types.OrderBook, error) {
	timer := metrics.NewTimeCounter(id.String(), "execution", "UpdateOrderBook")
	defer timer.EngineTimeCounterAdd()

	dl := e.newUnit()
	ob, err := dl.GetOrderBook(id)
	if err != nil {
		return nil, err
	}
	if ob.Status != types.OrderBookStatusStop {
		return nil, types.ErrOrderBookNotStopped
	}
	if err := types.ValidateAttributes(tick, step, minLot, maxLot); err != nil {
		return nil, err
	}

	ob.TickSize, ob.StepLotSize = tick.Clone(), step.Clone()
	ob.MinLotSize, ob.MaxLotSize = minLot.Clone(), maxLot.Clone()

	book := e.matchingBook(ob)
	change, err := book.AlignmentImpact(dl)
	if err != nil {
		return nil, err
	}
	if err := book.Apply(dl, change); err != nil {
		return nil, err
	}
	if err := dl.SetOrderBook(ob); err != nil {
		return nil, err
	}

	evts := append(changeEvents(ctx, change, "", ""), events.NewOrderBookUpdatedEvent(ctx, *ob))
	if err := e.commit(ctx, dl, evts, change.Payment); err != nil {
		return nil, err
	}
	recordChange(change)
	e.log.Info("order book updated",
		logging.OrderBook(*ob),
		logging.Int("aligned-orders", len(change.ToUpdate)),
		logging.Int("cancelled-orders", len(change.ToCancel)),
	)
	return ob, nil
}

// ChangeOrderBookStatus moves a book to any of the four statuses.
func (e *Engine) ChangeOrderBookStatus(ctx context.Context, id types.OrderBookID, status types.OrderBookStatus) error {
	if !status.IsValid() {
		return types.ErrInvalidOrderBookStatus
	}
	dl := e.newUnit()
	ob, err := dl.GetOrderBook(id)
	if err != nil {
		return err
	}
	if ob.Status == status {
		return nil
	}
	old := ob.Status
	ob.Status = status
	if err := dl.SetOrderBook(ob); err != nil {
		return err
	}
	if err := e.commit(ctx, dl, []events.Event{events.NewOrderBookStatusChangedEvent(ctx, id, status)}); err != nil {
		return err
	}
	e.log.Info("order book status changed",
		logging.OrderBookID(id),
		logging.String("old", old.String()),
		logging.String("new", status.String()),
	)
	return nil
}

// DeleteOrderBook removes a book without any order left.
func (e *Engine) DeleteOrderBook(ctx context.Context, id types.OrderBookID) error {
	dl := e.newUnit()
	if _, err := dl.GetOrderBook(id); err != nil {
		return err
	}
	if err := dl.DeleteOrderBook(id); err != nil {
		return err
	}
	if err := e.commit(ctx, dl, []events.Event{events.NewOrderBookDeletedEvent(ctx, id, false)}); err != nil {
		return err
	}
	e.log.Info("order book deleted", logging.OrderBookID(id))
	return nil
}

// PurgeOrderBook cancels every order of a book, refunding the owners, and
// deletes it.
func (e *Engine) PurgeOrderBook(ctx context.Context, id types.OrderBookID) error {
	timer := metrics.NewTimeCounter(id.String(), "execution", "PurgeOrderBook")
	defer timer.EngineTimeCounterAdd()

	dl := e.newUnit()
	ob, err := dl.GetOrderBook(id)
	if err != nil {
		return err
	}
	book := e.matchingBook(ob)
	change, err := book.CancelAllImpact(dl, types.CancelReasonSystem)
	if err != nil {
		return err
	}
	if err := book.Apply(dl, change); err != nil {
		return err
	}
	if err := dl.DeleteOrderBook(id); err != nil {
		return err
	}

	evts := append(changeEvents(ctx, change, "", ""), events.NewOrderBookDeletedEvent(ctx, id, true))
	if err := e.commit(ctx, dl, evts, change.Payment); err != nil {
		return err
	}
	recordChange(change)
	e.log.Info("order book purged",
		logging.OrderBookID(id),
		logging.Int("cancelled-orders", len(change.ToCancel)),
	)
	return nil
}
