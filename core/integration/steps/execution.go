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

package steps

import (
	"context"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
)

// Execution is the part of the execution engine the steps drive.
type Execution interface {
	CreateOrderBook(ctx context.Context, id types.OrderBookID, tick, step, minLot, maxLot *num.Uint) (*types.OrderBook, error)
	ChangeOrderBookStatus(ctx context.Context, id types.OrderBookID, status types.OrderBookStatus) error
	PlaceLimitOrder(ctx context.Context, owner string, id types.OrderBookID, price, amount *num.Uint, side types.Side, lifespan *time.Duration) (*types.PlacedOrder, error)
	CancelLimitOrder(ctx context.Context, owner string, id types.OrderBookID, orderID uint64) error
	ExecuteMarketOrder(ctx context.Context, owner string, id types.OrderBookID, side types.Side, amount *num.Uint) (*types.MarketOrderResult, error)
	GetLimitOrder(id types.OrderBookID, orderID uint64) (*types.LimitOrder, error)
	GetAggregatedSide(id types.OrderBookID, side types.Side) (*types.MarketSide, error)
}

// Collateral is the ledger the steps fund and check.
type Collateral interface {
	Deposit(ctx context.Context, owner, asset string, amount *num.Uint) error
	GetBalance(owner, asset string) *num.Uint
}

type orderRef struct {
	party string
	types.OrderRef
}

// OrderReferences maps the references used in the features to the ids
// the engine gave to the orders.
type OrderReferences struct {
	refs map[string]orderRef
}

func NewOrderReferences() *OrderReferences {
	return &OrderReferences{refs: map[string]orderRef{}}
}

func (o *OrderReferences) add(reference, party string, id types.OrderBookID, orderID uint64) {
	o.refs[reference] = orderRef{
		party: party,
		OrderRef: types.OrderRef{
			OrderBookID: id,
			OrderID:     orderID,
		},
	}
}

func (o *OrderReferences) get(reference string) (orderRef, bool) {
	ref, ok := o.refs[reference]
	return ref, ok
}
