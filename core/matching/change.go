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

package matching

import (
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
)

// Fill is the part of a resting order consumed by a taker.
type Fill struct {
	// Order is the maker order as it was before the fill.
	Order *types.LimitOrder
	Base  *num.Uint
	Quote *num.Uint
	// Remaining is what the order keeps resting with, zero once fully
	// executed.
	Remaining *num.Uint
}

func (f Fill) IsFull() bool {
	return f.Remaining.IsZero()
}

type Cancellation struct {
	Order  *types.LimitOrder
	Reason types.CancelReason
}

// AmountUpdate changes the amount of a resting order outside of matching.
type AmountUpdate struct {
	Order     *types.LimitOrder
	NewAmount *num.Uint
}

// MarketChange is everything an operation does to a book: data mutations
// and the payment settling them. It is computed first and applied after.
type MarketChange struct {
	OrderBookID types.OrderBookID
	TakerSide   types.Side
	// Base and Quote are the totals traded by the taker.
	Base  *num.Uint
	Quote *num.Uint

	Fills    []Fill
	ToCancel []Cancellation
	ToUpdate []AmountUpdate
	ToPlace  []*types.LimitOrder

	// ConvertedToMarket is set when the remainder of a crossing limit
	// order was executed as a market order instead of resting.
	ConvertedToMarket bool
	// Dropped is the remainder of a crossing limit order that could
	// neither rest nor be executed.
	Dropped *num.Uint

	Payment *Payment
}

func NewMarketChange(id types.OrderBookID) *MarketChange {
	return &MarketChange{
		OrderBookID: id,
		Base:        num.UintZero(),
		Quote:       num.UintZero(),
		Dropped:     num.UintZero(),
		Payment:     NewPayment(id),
	}
}

// Merge appends the mutations and payment of oth.
func (c *MarketChange) Merge(oth *MarketChange) {
	if c.TakerSide == types.SideUnspecified {
		c.TakerSide = oth.TakerSide
	}
	c.Base = num.Sum(c.Base, oth.Base)
	c.Quote = num.Sum(c.Quote, oth.Quote)
	c.Dropped = num.Sum(c.Dropped, oth.Dropped)
	c.Fills = append(c.Fills, oth.Fills...)
	c.ToCancel = append(c.ToCancel, oth.ToCancel...)
	c.ToUpdate = append(c.ToUpdate, oth.ToUpdate...)
	c.ToPlace = append(c.ToPlace, oth.ToPlace...)
	c.ConvertedToMarket = c.ConvertedToMarket || oth.ConvertedToMarket
	c.Payment.Merge(oth.Payment)
}

// IsTrade tells whether the change executed anything against the book.
func (c *MarketChange) IsTrade() bool {
	return len(c.Fills) > 0
}
