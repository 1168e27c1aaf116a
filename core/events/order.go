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

package events

import (
	"context"
	"strconv"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"google.golang.org/protobuf/types/known/structpb"
)

func orderPayload(id types.OrderBookID, orderID uint64, owner string) map[string]string {
	return map[string]string{
		"order_book_id": id.String(),
		"order_id":      strconv.FormatUint(orderID, 10),
		"owner":         owner,
	}
}

// LimitOrderPlaced is sent when an order starts resting in a book.
type LimitOrderPlaced struct {
	*Base
	id    types.OrderBookID
	order types.LimitOrder
}

func NewLimitOrderPlacedEvent(ctx context.Context, id types.OrderBookID, order types.LimitOrder) *LimitOrderPlaced {
	return &LimitOrderPlaced{
		Base:  newBase(ctx, LimitOrderPlacedEvent),
		id:    id,
		order: *order.Clone(),
	}
}

func (e LimitOrderPlaced) OrderBookID() types.OrderBookID {
	return e.id
}

func (e LimitOrderPlaced) Order() types.LimitOrder {
	return e.order
}

func (e LimitOrderPlaced) StreamMessage() *structpb.Struct {
	p := orderPayload(e.id, e.order.ID, e.order.Owner)
	p["side"] = e.order.Side.String()
	p["price"] = num.BalanceToString(e.order.Price)
	p["amount"] = num.BalanceToString(e.order.Amount)
	p["lifespan"] = e.order.Lifespan.String()
	p["expires_at"] = strconv.FormatUint(e.order.ExpiresAt, 10)
	return e.streamMessage(p)
}

// LimitOrderConvertedToMarket is sent when a crossing order is executed in
// full instead of resting a remainder below the minimal lot.
type LimitOrderConvertedToMarket struct {
	*Base
	id      types.OrderBookID
	orderID uint64
	owner   string
	amount  *num.Uint
}

func NewLimitOrderConvertedToMarketEvent(ctx context.Context, id types.OrderBookID, orderID uint64, owner string, amount *num.Uint) *LimitOrderConvertedToMarket {
	return &LimitOrderConvertedToMarket{
		Base:    newBase(ctx, LimitOrderConvertedToMarketEvent),
		id:      id,
		orderID: orderID,
		owner:   owner,
		amount:  amount.Clone(),
	}
}

func (e LimitOrderConvertedToMarket) OrderID() uint64 {
	return e.orderID
}

func (e LimitOrderConvertedToMarket) Amount() *num.Uint {
	return e.amount.Clone()
}

func (e LimitOrderConvertedToMarket) StreamMessage() *structpb.Struct {
	p := orderPayload(e.id, e.orderID, e.owner)
	p["amount"] = num.BalanceToString(e.amount)
	return e.streamMessage(p)
}

// LimitOrderExecuted is sent for every fill of a maker order. A fill that
// consumes the order is followed by LimitOrderFilled.
type LimitOrderExecuted struct {
	*Base
	id      types.OrderBookID
	orderID uint64
	owner   string
	side    types.Side
	price   *num.Uint
	base    *num.Uint
	quote   *num.Uint
}

func NewLimitOrderExecutedEvent(ctx context.Context, id types.OrderBookID, order types.LimitOrder, base, quote *num.Uint) *LimitOrderExecuted {
	return &LimitOrderExecuted{
		Base:    newBase(ctx, LimitOrderExecutedEvent),
		id:      id,
		orderID: order.ID,
		owner:   order.Owner,
		side:    order.Side,
		price:   order.Price.Clone(),
		base:    base.Clone(),
		quote:   quote.Clone(),
	}
}

func (e LimitOrderExecuted) OrderID() uint64 {
	return e.orderID
}

func (e LimitOrderExecuted) Owner() string {
	return e.owner
}

func (e LimitOrderExecuted) BaseAmount() *num.Uint {
	return e.base.Clone()
}

func (e LimitOrderExecuted) QuoteAmount() *num.Uint {
	return e.quote.Clone()
}

func (e LimitOrderExecuted) StreamMessage() *structpb.Struct {
	p := orderPayload(e.id, e.orderID, e.owner)
	p["side"] = e.side.String()
	p["price"] = num.BalanceToString(e.price)
	p["base"] = num.BalanceToString(e.base)
	p["quote"] = num.BalanceToString(e.quote)
	return e.streamMessage(p)
}

type LimitOrderFilled struct {
	*Base
	id      types.OrderBookID
	orderID uint64
	owner   string
}

func NewLimitOrderFilledEvent(ctx context.Context, id types.OrderBookID, orderID uint64, owner string) *LimitOrderFilled {
	return &LimitOrderFilled{
		Base:    newBase(ctx, LimitOrderFilledEvent),
		id:      id,
		orderID: orderID,
		owner:   owner,
	}
}

func (e LimitOrderFilled) OrderID() uint64 {
	return e.orderID
}

func (e LimitOrderFilled) StreamMessage() *structpb.Struct {
	return e.streamMessage(orderPayload(e.id, e.orderID, e.owner))
}

// LimitOrderUpdated is sent when the amount of a resting order changes
// outside of matching, e.g. when the book lot size changes.
type LimitOrderUpdated struct {
	*Base
	id      types.OrderBookID
	orderID uint64
	owner   string
	amount  *num.Uint
}

func NewLimitOrderUpdatedEvent(ctx context.Context, id types.OrderBookID, orderID uint64, owner string, amount *num.Uint) *LimitOrderUpdated {
	return &LimitOrderUpdated{
		Base:    newBase(ctx, LimitOrderUpdatedEvent),
		id:      id,
		orderID: orderID,
		owner:   owner,
		amount:  amount.Clone(),
	}
}

func (e LimitOrderUpdated) OrderID() uint64 {
	return e.orderID
}

func (e LimitOrderUpdated) Amount() *num.Uint {
	return e.amount.Clone()
}

func (e LimitOrderUpdated) StreamMessage() *structpb.Struct {
	p := orderPayload(e.id, e.orderID, e.owner)
	p["amount"] = num.BalanceToString(e.amount)
	return e.streamMessage(p)
}

type LimitOrderCanceled struct {
	*Base
	id      types.OrderBookID
	orderID uint64
	owner   string
	reason  types.CancelReason
}

func NewLimitOrderCanceledEvent(ctx context.Context, id types.OrderBookID, orderID uint64, owner string, reason types.CancelReason) *LimitOrderCanceled {
	return &LimitOrderCanceled{
		Base:    newBase(ctx, LimitOrderCanceledEvent),
		id:      id,
		orderID: orderID,
		owner:   owner,
		reason:  reason,
	}
}

func (e LimitOrderCanceled) OrderBookID() types.OrderBookID {
	return e.id
}

func (e LimitOrderCanceled) OrderID() uint64 {
	return e.orderID
}

func (e LimitOrderCanceled) Reason() types.CancelReason {
	return e.reason
}

func (e LimitOrderCanceled) StreamMessage() *structpb.Struct {
	p := orderPayload(e.id, e.orderID, e.owner)
	p["reason"] = e.reason.String()
	return e.streamMessage(p)
}

// MarketOrderExecuted is sent once per taker, whether the taker is a market
// order, a crossing limit order or a swap.
type MarketOrderExecuted struct {
	*Base
	id           types.OrderBookID
	owner        string
	receiver     string
	side         types.Side
	base         *num.Uint
	averagePrice *num.Uint
}

func NewMarketOrderExecutedEvent(ctx context.Context, id types.OrderBookID, owner, receiver string, side types.Side, base, averagePrice *num.Uint) *MarketOrderExecuted {
	return &MarketOrderExecuted{
		Base:         newBase(ctx, MarketOrderExecutedEvent),
		id:           id,
		owner:        owner,
		receiver:     receiver,
		side:         side,
		base:         base.Clone(),
		averagePrice: averagePrice.Clone(),
	}
}

func (e MarketOrderExecuted) Side() types.Side {
	return e.side
}

func (e MarketOrderExecuted) BaseAmount() *num.Uint {
	return e.base.Clone()
}

func (e MarketOrderExecuted) AveragePrice() *num.Uint {
	return e.averagePrice.Clone()
}

func (e MarketOrderExecuted) StreamMessage() *structpb.Struct {
	return e.streamMessage(map[string]string{
		"order_book_id": e.id.String(),
		"owner":         e.owner,
		"receiver":      e.receiver,
		"side":          e.side.String(),
		"base":          num.BalanceToString(e.base),
		"average_price": num.BalanceToString(e.averagePrice),
	})
}

// ExpirationFailure is sent when an expiring order could not be cancelled
// for another reason than being gone already.
type ExpirationFailure struct {
	*Base
	id      types.OrderBookID
	orderID uint64
	err     string
}

func NewExpirationFailureEvent(ctx context.Context, id types.OrderBookID, orderID uint64, err error) *ExpirationFailure {
	return &ExpirationFailure{
		Base:    newBase(ctx, ExpirationFailureEvent),
		id:      id,
		orderID: orderID,
		err:     err.Error(),
	}
}

func (e ExpirationFailure) OrderID() uint64 {
	return e.orderID
}

func (e ExpirationFailure) ErrorMessage() string {
	return e.err
}

func (e ExpirationFailure) StreamMessage() *structpb.Struct {
	p := orderPayload(e.id, e.orderID, "")
	delete(p, "owner")
	p["error"] = e.err
	return e.streamMessage(p)
}
