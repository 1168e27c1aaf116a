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

package types

import (
	"fmt"
	"time"

	"github.com/sora-xor/sora2-network-sub006/libs/num"
)

// LimitOrder is a resting order owned by an order book.
type LimitOrder struct {
	ID    uint64
	Owner string
	Side  Side
	Price *num.Uint
	// OriginalAmount is the amount the order rested with, Amount what is
	// left of it.
	OriginalAmount *num.Uint
	Amount         *num.Uint
	// CreatedAt is the block the order was placed in.
	CreatedAt uint64
	Time      time.Time
	Lifespan  time.Duration
	// ExpiresAt is the first block at which the order is no longer live.
	ExpiresAt      uint64
	ExpirationSlot uint64
}

func (o LimitOrder) Clone() *LimitOrder {
	cpy := o
	cpy.Price = o.Price.Clone()
	cpy.OriginalAmount = o.OriginalAmount.Clone()
	cpy.Amount = o.Amount.Clone()
	return &cpy
}

func (o LimitOrder) String() string {
	return fmt.Sprintf(
		"id(%d) owner(%s) side(%s) price(%s) amount(%s/%s) createdAt(%d) expiresAt(%d)",
		o.ID,
		o.Owner,
		o.Side.String(),
		num.BalanceToString(o.Price),
		num.BalanceToString(o.Amount),
		num.BalanceToString(o.OriginalAmount),
		o.CreatedAt,
		o.ExpiresAt,
	)
}

// IsEmpty is true once nothing is left to trade.
func (o *LimitOrder) IsEmpty() bool {
	return o.Amount == nil || o.Amount.IsZero()
}

// Appropriation returns the asset and amount reserved for base amount of
// the order: quote for bids, base for asks.
func (o *LimitOrder) Appropriation(id OrderBookID, amount *num.Uint) (string, *num.Uint, error) {
	if o.Side == SideSell {
		return id.Base, amount.Clone(), nil
	}
	quote, overflow := num.FixedMulCeil(o.Price, amount)
	if overflow {
		return "", nil, ErrArithmeticOverflow
	}
	return id.Quote, quote, nil
}

// Reserve returns what is reserved for the whole remaining amount.
func (o *LimitOrder) Reserve(id OrderBookID) (string, *num.Uint, error) {
	return o.Appropriation(id, o.Amount)
}

type CancelReason uint8

const (
	CancelReasonUnspecified CancelReason = iota
	CancelReasonManual
	CancelReasonExpired
	CancelReasonSystem
)

func (r CancelReason) String() string {
	switch r {
	case CancelReasonManual:
		return "Manual"
	case CancelReasonExpired:
		return "Expired"
	case CancelReasonSystem:
		return "System"
	default:
		return "Unspecified"
	}
}

// ExpirationEntry references an order in the expiration agenda.
type ExpirationEntry struct {
	OrderBookID OrderBookID
	OrderID     uint64
}

func (e ExpirationEntry) String() string {
	return fmt.Sprintf("%s#%d", e.OrderBookID.String(), e.OrderID)
}

// PlacedOrder is the outcome of a limit order placement. A crossing order
// may be partially or fully executed before resting.
type PlacedOrder struct {
	OrderID       uint64
	Resting       bool
	RestingAmount *num.Uint
	FilledBase    *num.Uint
	FilledQuote   *num.Uint
}

// MarketOrderResult is the outcome of a market order.
type MarketOrderResult struct {
	FilledBase  *num.Uint
	FilledQuote *num.Uint
}

// OrderRef points at a limit order of a book.
type OrderRef struct {
	OrderBookID OrderBookID
	OrderID     uint64
}
