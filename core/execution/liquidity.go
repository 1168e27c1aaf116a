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
	"github.com/sora-xor/sora2-network-sub006/metrics"

	"github.com/pkg/errors"
)

// LiquiditySource exposes the order books as a source of liquidity for
// swaps between two assets of a venue.
type LiquiditySource interface {
	CanExchange(dexID uint32, input, output string) bool
	QuoteSwap(ctx context.Context, dexID uint32, input, output string, amount types.SwapAmount, deduceFee bool) (*types.DealInfo, error)
	Exchange(ctx context.Context, sender, receiver string, dexID uint32, input, output string, amount types.SwapAmount) (*types.DealInfo, error)
}

var _ LiquiditySource = (*Engine)(nil)

// swapBook finds the book trading input for output and the side of a taker
// giving input: buying base when input is the quote asset, selling it
// otherwise.
func (e *Engine) swapBook(dl datalayer.DataLayer, dexID uint32, input, output string) (*matching.OrderBook, types.Side, error) {
	if input == output {
		return nil, types.SideUnspecified, types.ErrInvalidAsset
	}
	candidates := []struct {
		id   types.OrderBookID
		side types.Side
	}{
		{types.NewOrderBookID(dexID, output, input), types.SideBuy},
		{types.NewOrderBookID(dexID, input, output), types.SideSell},
	}
	for _, c := range candidates {
		ob, err := dl.GetOrderBook(c.id)
		if errors.Is(err, types.ErrOrderBookNotFound) {
			continue
		}
		if err != nil {
			return nil, types.SideUnspecified, err
		}
		if !ob.Status.CanTrade() {
			return nil, types.SideUnspecified, types.ErrTradingForbidden
		}
		return e.matchingBook(ob), c.side, nil
	}
	return nil, types.SideUnspecified, types.ErrOrderBookNotFound
}

// CanExchange tells whether a tradable book exists for the two assets.
func (e *Engine) CanExchange(dexID uint32, input, output string) bool {
	_, _, err := e.swapBook(e.newUnit(), dexID, input, output)
	return err == nil
}

// QuoteSwap previews a swap of input for output.
func (e *Engine) QuoteSwap(ctx context.Context, dexID uint32, input, output string, amount types.SwapAmount, deduceFee bool) (*types.DealInfo, error) {
	dl := e.newUnit()
	book, side, err := e.swapBook(dl, dexID, input, output)
	if err != nil {
		return nil, err
	}
	return book.CalculateDeal(dl, side, amount, e.allowPartialFill())
}

// Exchange swaps input of sender for output paid to receiver. The swap
// fails without moving anything when the deal is beyond the limit of
// amount.
func (e *Engine) Exchange(ctx context.Context, sender, receiver string, dexID uint32, input, output string, amount types.SwapAmount) (*types.DealInfo, error) {
	dl := e.newUnit()
	book, side, err := e.swapBook(dl, dexID, input, output)
	if err != nil {
		return nil, err
	}
	timer := metrics.NewTimeCounter(book.ID.String(), "execution", "Exchange")
	defer timer.EngineTimeCounterAdd()

	limit := amount.OrderAmount(side)
	if limit.IsBase() {
		limit.Amount = book.AlignAmount(limit.Amount)
	}

	var deal *types.DealInfo
	_, err = e.marketOrder(ctx, dl, book, side, limit, sender, receiver, func(change *matching.MarketChange) error {
		var err error
		if deal, err = types.NewDealInfo(book.ID, side, change.Base, change.Quote); err != nil {
			return err
		}
		return amount.Check(deal)
	})
	if err != nil {
		return nil, err
	}
	return deal, nil
}
