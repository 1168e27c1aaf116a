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

	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/core/matching"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"
	"github.com/sora-xor/sora2-network-sub006/metrics"

	"github.com/pkg/errors"
)

// resolveLifespan checks the lifespan of an order, nil meaning the longest
// allowed, and returns it with the block the order expires at and the
// agenda slot it is scheduled in.
func (e *Engine) resolveLifespan(lifespan *time.Duration, height uint64) (time.Duration, uint64, uint64, error) {
	l := e.MaxOrderLifespan.Get()
	if lifespan != nil {
		l = *lifespan
	}
	if l < e.MinOrderLifespan.Get() || l > e.MaxOrderLifespan.Get() {
		return 0, 0, 0, types.ErrInvalidLifespan
	}
	blockTime := e.BlockTime.Get()
	if blockTime <= 0 {
		return 0, 0, 0, errors.Wrap(types.ErrInvalidLifespan, "block time is not set")
	}
	blocks := uint64((l + blockTime - 1) / blockTime)
	expiresAt := height + blocks
	if expiresAt < height {
		return 0, 0, 0, types.ErrArithmeticOverflow
	}
	return l, expiresAt, expirationSlot(expiresAt, e.ExpirationGranularity), nil
}

// expirationSlot rounds block up to a multiple of granularity.
func expirationSlot(block, granularity uint64) uint64 {
	if granularity <= 1 {
		return block
	}
	if rem := block % granularity; rem != 0 {
		return block + granularity - rem
	}
	return block
}

// PlaceLimitOrder places a limit order. An order crossing the opposite side
// is executed against it first, up to its price, and what is left rests.
func (e *Engine) PlaceLimitOrder(
	ctx context.Context,
	owner string,
	id types.OrderBookID,
	price, amount *num.Uint,
	side types.Side,
	lifespan *time.Duration,
) (*types.PlacedOrder, error) {
	timer := metrics.NewTimeCounter(id.String(), "execution", "PlaceLimitOrder")
	defer timer.EngineTimeCounterAdd()

	dl := e.newUnit()
	ob, err := dl.GetOrderBook(id)
	if err != nil {
		return nil, err
	}
	if !ob.Status.CanPlace() {
		return nil, types.ErrOrderBookNotActive
	}
	book := e.matchingBook(ob)

	order := &types.LimitOrder{
		Owner:  owner,
		Side:   side,
		Price:  price,
		Amount: amount,
	}
	if err := book.EnsureLimitOrderValid(order); err != nil {
		return nil, err
	}
	height := e.timeService.GetBlockHeight()
	l, expiresAt, slot, err := e.resolveLifespan(lifespan, height)
	if err != nil {
		return nil, err
	}

	order = &types.LimitOrder{
		ID:             ob.NextOrderID(),
		Owner:          owner,
		Side:           side,
		Price:          price.Clone(),
		OriginalAmount: amount.Clone(),
		Amount:         amount.Clone(),
		CreatedAt:      height,
		Time:           e.timeService.GetTimeNow(),
		Lifespan:       l,
		ExpiresAt:      expiresAt,
		ExpirationSlot: slot,
	}

	crossing, err := book.IsCrossing(dl, order)
	if err != nil {
		return nil, err
	}

	var change *matching.MarketChange
	if crossing {
		if !ob.Status.CanTrade() {
			return nil, errors.Wrap(types.ErrInvalidPrice, "crossing orders are not allowed while only placing and cancelling")
		}
		change, err = book.CrossSpreadImpact(dl, order, e.allowPartialFill())
		if err != nil {
			return nil, err
		}
		for _, o := range change.ToPlace {
			if err := book.CheckRestrictions(dl, o); err != nil {
				return nil, err
			}
		}
	} else {
		if err := book.CheckRestrictions(dl, order); err != nil {
			return nil, err
		}
		if change, err = book.LimitOrderImpact(order); err != nil {
			return nil, err
		}
	}

	if err := book.Apply(dl, change); err != nil {
		return nil, err
	}
	if err := dl.SetOrderBook(ob); err != nil {
		return nil, err
	}

	evts := changeEvents(ctx, change, owner, owner)
	if change.ConvertedToMarket {
		evts = append(evts, events.NewLimitOrderConvertedToMarketEvent(ctx, id, order.ID, owner, change.Base))
	}
	if err := e.commit(ctx, dl, evts, change.Payment); err != nil {
		return nil, err
	}
	recordChange(change)
	if change.IsTrade() {
		metrics.MarketOrderCounterInc(id.String(), side.String())
	}

	placed := &types.PlacedOrder{
		OrderID:       order.ID,
		RestingAmount: num.UintZero(),
		FilledBase:    change.Base.Clone(),
		FilledQuote:   change.Quote.Clone(),
	}
	if len(change.ToPlace) > 0 {
		placed.Resting = true
		placed.RestingAmount = change.ToPlace[0].Amount.Clone()
	}
	if !change.Dropped.IsZero() {
		e.log.Debug("dropped the remainder of a crossing order below the min lot size",
			logging.OrderBookID(id),
			logging.OrderID(order.ID),
			logging.Balance("dropped", change.Dropped),
		)
	}
	if e.log.IsDebug() {
		e.log.Debug("limit order placed",
			logging.OrderBookID(id),
			logging.LimitOrder(*order),
			logging.Balance("filled-base", placed.FilledBase),
			logging.Bool("resting", placed.Resting),
		)
	}
	return placed, nil
}

func (e *Engine) cancelImpact(dl datalayer.DataLayer, book *matching.OrderBook, owner string, orderID uint64) (*matching.MarketChange, error) {
	order, err := dl.GetLimitOrder(book.ID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Owner != owner {
		return nil, types.ErrNotOrderOwner
	}
	return book.CancelImpact(order, types.CancelReasonManual)
}

// CancelLimitOrder cancels a resting order of owner and unlocks what it
// reserved. Cancellation is allowed whatever the status of the book.
func (e *Engine) CancelLimitOrder(ctx context.Context, owner string, id types.OrderBookID, orderID uint64) error {
	timer := metrics.NewTimeCounter(id.String(), "execution", "CancelLimitOrder")
	defer timer.EngineTimeCounterAdd()

	dl := e.newUnit()
	ob, err := dl.GetOrderBook(id)
	if err != nil {
		return err
	}
	book := e.matchingBook(ob)
	change, err := e.cancelImpact(dl, book, owner, orderID)
	if err != nil {
		return err
	}
	if err := book.Apply(dl, change); err != nil {
		return err
	}
	if err := e.commit(ctx, dl, changeEvents(ctx, change, "", ""), change.Payment); err != nil {
		return err
	}
	recordChange(change)
	if e.log.IsDebug() {
		e.log.Debug("limit order cancelled",
			logging.OrderBookID(id),
			logging.OrderID(orderID),
			logging.PartyID(owner),
		)
	}
	return nil
}

// CancelLimitOrdersBatch cancels many orders of owner, possibly across
// books. Either every order is cancelled or none is.
func (e *Engine) CancelLimitOrdersBatch(ctx context.Context, owner string, orders []types.OrderRef) error {
	timer := metrics.NewTimeCounter("", "execution", "CancelLimitOrdersBatch")
	defer timer.EngineTimeCounterAdd()

	dl := e.newUnit()
	books := map[types.OrderBookID]*matching.OrderBook{}
	changes := map[types.OrderBookID]*matching.MarketChange{}
	order := []types.OrderBookID{}
	seen := map[types.OrderRef]struct{}{}

	for _, ref := range orders {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}

		book, ok := books[ref.OrderBookID]
		if !ok {
			ob, err := dl.GetOrderBook(ref.OrderBookID)
			if err != nil {
				return err
			}
			book = e.matchingBook(ob)
			books[ref.OrderBookID] = book
			changes[ref.OrderBookID] = matching.NewMarketChange(ref.OrderBookID)
			order = append(order, ref.OrderBookID)
		}
		impact, err := e.cancelImpact(dl, book, owner, ref.OrderID)
		if err != nil {
			return errors.Wrapf(err, "order %d of %s", ref.OrderID, ref.OrderBookID.String())
		}
		changes[ref.OrderBookID].Merge(impact)
	}

	evts := []events.Event{}
	payments := make([]*matching.Payment, 0, len(order))
	for _, id := range order {
		change := changes[id]
		if err := books[id].Apply(dl, change); err != nil {
			return err
		}
		evts = append(evts, changeEvents(ctx, change, "", "")...)
		payments = append(payments, change.Payment)
	}
	if err := e.commit(ctx, dl, evts, payments...); err != nil {
		return err
	}
	for _, id := range order {
		recordChange(changes[id])
	}
	return nil
}
