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

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"google.golang.org/protobuf/types/known/structpb"
)

func bookPayload(ob types.OrderBook) map[string]string {
	return map[string]string{
		"order_book_id": ob.ID.String(),
		"status":        ob.Status.String(),
		"tick_size":     num.BalanceToString(ob.TickSize),
		"step_lot_size": num.BalanceToString(ob.StepLotSize),
		"min_lot_size":  num.BalanceToString(ob.MinLotSize),
		"max_lot_size":  num.BalanceToString(ob.MaxLotSize),
	}
}

type OrderBookCreated struct {
	*Base
	ob types.OrderBook
}

func NewOrderBookCreatedEvent(ctx context.Context, ob types.OrderBook) *OrderBookCreated {
	return &OrderBookCreated{
		Base: newBase(ctx, OrderBookCreatedEvent),
		ob:   *ob.Clone(),
	}
}

func (e OrderBookCreated) OrderBook() types.OrderBook {
	return e.ob
}

func (e OrderBookCreated) StreamMessage() *structpb.Struct {
	return e.streamMessage(bookPayload(e.ob))
}

type OrderBookUpdated struct {
	*Base
	ob types.OrderBook
}

func NewOrderBookUpdatedEvent(ctx context.Context, ob types.OrderBook) *OrderBookUpdated {
	return &OrderBookUpdated{
		Base: newBase(ctx, OrderBookUpdatedEvent),
		ob:   *ob.Clone(),
	}
}

func (e OrderBookUpdated) OrderBook() types.OrderBook {
	return e.ob
}

func (e OrderBookUpdated) StreamMessage() *structpb.Struct {
	return e.streamMessage(bookPayload(e.ob))
}

type OrderBookStatusChanged struct {
	*Base
	id     types.OrderBookID
	status types.OrderBookStatus
}

func NewOrderBookStatusChangedEvent(ctx context.Context, id types.OrderBookID, status types.OrderBookStatus) *OrderBookStatusChanged {
	return &OrderBookStatusChanged{
		Base:   newBase(ctx, OrderBookStatusChangedEvent),
		id:     id,
		status: status,
	}
}

func (e OrderBookStatusChanged) OrderBookID() types.OrderBookID {
	return e.id
}

func (e OrderBookStatusChanged) Status() types.OrderBookStatus {
	return e.status
}

func (e OrderBookStatusChanged) StreamMessage() *structpb.Struct {
	return e.streamMessage(map[string]string{
		"order_book_id": e.id.String(),
		"status":        e.status.String(),
	})
}

type OrderBookDeleted struct {
	*Base
	id types.OrderBookID
	// purged is set when resting orders were cancelled to delete the book
	purged bool
}

func NewOrderBookDeletedEvent(ctx context.Context, id types.OrderBookID, purged bool) *OrderBookDeleted {
	return &OrderBookDeleted{
		Base:   newBase(ctx, OrderBookDeletedEvent),
		id:     id,
		purged: purged,
	}
}

func (e OrderBookDeleted) OrderBookID() types.OrderBookID {
	return e.id
}

func (e OrderBookDeleted) Purged() bool {
	return e.purged
}

func (e OrderBookDeleted) StreamMessage() *structpb.Struct {
	purged := "false"
	if e.purged {
		purged = "true"
	}
	return e.streamMessage(map[string]string{
		"order_book_id": e.id.String(),
		"purged":        purged,
	})
}
