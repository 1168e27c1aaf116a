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

	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/matching"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"
	"github.com/sora-xor/sora2-network-sub006/metrics"
)

// tradingBook loads a book which allows trading.
func (e *Engine) tradingBook(dl datalayer.DataLayer, id types.OrderBookID) (*matching.OrderBook, error) {
	ob, err := dl.GetOrderBook(id)
	if err != nil {
		return nil, err
	}
	if !ob.Status.CanTrade() {
		return nil, types.ErrOrderBookNotActive
	}
	return e.matchingBook(ob), nil
}

// ExecuteMarketOrder trades amount of base against the resting orders, best
// price first. When the book cannot fill it entirely the order fails unless
// partial fills are allowed.
func (e *Engine) ExecuteMarketOrder(ctx context.Context, owner string, id types.OrderBookID, side types.Side, amount *num.Uint) (*types.MarketOrderResult, error) {
	timer := metrics.NewTimeCounter(id.String(), "execution", "ExecuteMarketOrder")
	defer timer.EngineTimeCounterAdd()

	dl := e.newUnit()
	book, err := e.tradingBook(dl, id)
	if err != nil {
		return nil, err
	}
	change, err := e.marketOrder(ctx, dl, book, side, types.NewBaseAmount(amount), owner, owner, nil)
	if err != nil {
		return nil, err
	}
	return &types.MarketOrderResult{
		FilledBase:  change.Base.Clone(),
		FilledQuote: change.Quote.Clone(),
	}, nil
}

// marketOrder executes a taker against the book and commits the unit of
// work. check, when set, can reject the change before anything is applied.
func (e *Engine) marketOrder(
	ctx context.Context,
	dl *datalayer.CacheDataLayer,
	book *matching.OrderBook,
	side types.Side,
	limit types.OrderAmount,
	taker, receiver string,
	check func(*matching.MarketChange) error,
) (*matching.MarketChange, error) {
	change, err := book.MarketImpact(dl, side, limit, taker, receiver, false, e.allowPartialFill())
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(change); err != nil {
			return nil, err
		}
	}
	if err := book.Apply(dl, change); err != nil {
		return nil, err
	}
	if err := e.commit(ctx, dl, changeEvents(ctx, change, taker, receiver), change.Payment); err != nil {
		return nil, err
	}
	recordChange(change)
	metrics.MarketOrderCounterInc(book.ID.String(), side.String())
	if e.log.IsDebug() {
		e.log.Debug("market order executed",
			logging.OrderBookID(book.ID),
			logging.PartyID(taker),
			logging.Side(side),
			logging.String("limit", limit.String()),
			logging.Balance("base", change.Base),
			logging.Balance("quote", change.Quote),
		)
	}
	return change, nil
}

// Quote previews the deal a taker on side would get for amount. It runs
// the same simulation as a market order without touching the book, so an
// execution right after gives the same amounts. There is no fee, deduceFee
// does not change the deal.
func (e *Engine) Quote(ctx context.Context, id types.OrderBookID, side types.Side, amount types.SwapAmount, deduceFee bool) (*types.DealInfo, error) {
	dl := e.newUnit()
	book, err := e.tradingBook(dl, id)
	if err != nil {
		return nil, err
	}
	return book.CalculateDeal(dl, side, amount, e.allowPartialFill())
}
