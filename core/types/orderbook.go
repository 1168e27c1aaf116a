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
	"strconv"
	"strings"

	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/pkg/errors"
)

// OrderBookID identifies an order book by venue and trading pair.
type OrderBookID struct {
	// DEXID is the venue the book belongs to.
	DEXID uint32
	Base  string
	Quote string
}

func NewOrderBookID(dexID uint32, base, quote string) OrderBookID {
	return OrderBookID{
		DEXID: dexID,
		Base:  base,
		Quote: quote,
	}
}

func (id OrderBookID) String() string {
	return fmt.Sprintf("%d:%s/%s", id.DEXID, id.Base, id.Quote)
}

// OrderBookIDFromString parses the "dex:base/quote" form of an id.
func OrderBookIDFromString(s string) (OrderBookID, error) {
	dex, pair, ok := strings.Cut(s, ":")
	if !ok {
		return OrderBookID{}, ErrInvalidAsset
	}
	base, quote, ok := strings.Cut(pair, "/")
	if !ok || base == "" || quote == "" {
		return OrderBookID{}, ErrInvalidAsset
	}
	dexID, err := strconv.ParseUint(dex, 10, 32)
	if err != nil {
		return OrderBookID{}, ErrInvalidAsset
	}
	return NewOrderBookID(uint32(dexID), base, quote), nil
}

// Less orders ids by venue, then base, then quote.
func (id OrderBookID) Less(oth OrderBookID) bool {
	if id.DEXID != oth.DEXID {
		return id.DEXID < oth.DEXID
	}
	if id.Base != oth.Base {
		return id.Base < oth.Base
	}
	return id.Quote < oth.Quote
}

type OrderBookStatus uint8

const (
	OrderBookStatusUnspecified OrderBookStatus = iota
	// OrderBookStatusTrade allows every operation.
	OrderBookStatusTrade
	// OrderBookStatusPlaceAndCancel allows placing resting orders and
	// cancelling, but not matching.
	OrderBookStatusPlaceAndCancel
	// OrderBookStatusOnlyCancel allows only cancellation.
	OrderBookStatusOnlyCancel
	// OrderBookStatusStop rejects placement and matching. Attributes can be
	// updated only in this status.
	OrderBookStatusStop
)

func (s OrderBookStatus) String() string {
	switch s {
	case OrderBookStatusTrade:
		return "Trade"
	case OrderBookStatusPlaceAndCancel:
		return "PlaceAndCancel"
	case OrderBookStatusOnlyCancel:
		return "OnlyCancel"
	case OrderBookStatusStop:
		return "Stop"
	default:
		return "Unspecified"
	}
}

func (s OrderBookStatus) IsValid() bool {
	return s >= OrderBookStatusTrade && s <= OrderBookStatusStop
}

func (s OrderBookStatus) CanPlace() bool {
	return s == OrderBookStatusTrade || s == OrderBookStatusPlaceAndCancel
}

func (s OrderBookStatus) CanTrade() bool {
	return s == OrderBookStatusTrade
}

func OrderBookStatusFromString(s string) (OrderBookStatus, error) {
	switch s {
	case "Trade", "Active":
		return OrderBookStatusTrade, nil
	case "PlaceAndCancel":
		return OrderBookStatusPlaceAndCancel, nil
	case "OnlyCancel":
		return OrderBookStatusOnlyCancel, nil
	case "Stop":
		return OrderBookStatusStop, nil
	default:
		return OrderBookStatusUnspecified, errors.Wrap(ErrInvalidOrderBookStatus, s)
	}
}

// OrderBook holds the configuration and status of one order book.
type OrderBook struct {
	ID          OrderBookID
	Status      OrderBookStatus
	LastOrderID uint64
	TickSize    *num.Uint
	StepLotSize *num.Uint
	MinLotSize  *num.Uint
	MaxLotSize  *num.Uint
}

func NewOrderBook(id OrderBookID, tick, step, minLot, maxLot *num.Uint) *OrderBook {
	return &OrderBook{
		ID:          id,
		Status:      OrderBookStatusTrade,
		TickSize:    tick.Clone(),
		StepLotSize: step.Clone(),
		MinLotSize:  minLot.Clone(),
		MaxLotSize:  maxLot.Clone(),
	}
}

// NextOrderID allocates the next monotonic order id of the book.
func (ob *OrderBook) NextOrderID() uint64 {
	ob.LastOrderID++
	return ob.LastOrderID
}

// AlignAmount rounds amount down to the step lot size.
func (ob *OrderBook) AlignAmount(amount *num.Uint) *num.Uint {
	return num.AlignDown(amount, ob.StepLotSize)
}

func (ob OrderBook) Clone() *OrderBook {
	cpy := ob
	cpy.TickSize = ob.TickSize.Clone()
	cpy.StepLotSize = ob.StepLotSize.Clone()
	cpy.MinLotSize = ob.MinLotSize.Clone()
	cpy.MaxLotSize = ob.MaxLotSize.Clone()
	return &cpy
}

func (ob OrderBook) String() string {
	return fmt.Sprintf(
		"id(%s) status(%s) lastOrderID(%d) tickSize(%s) stepLotSize(%s) minLotSize(%s) maxLotSize(%s)",
		ob.ID.String(),
		ob.Status.String(),
		ob.LastOrderID,
		num.BalanceToString(ob.TickSize),
		num.BalanceToString(ob.StepLotSize),
		num.BalanceToString(ob.MinLotSize),
		num.BalanceToString(ob.MaxLotSize),
	)
}

// ValidateAttributes checks the tick and lot sizes of an order book.
// tick*step must be representable exactly so that no aligned price and
// amount product ever needs rounding.
func ValidateAttributes(tick, step, minLot, maxLot *num.Uint) error {
	if tick == nil || tick.IsZero() {
		return ErrInvalidTickSize
	}
	if step == nil || step.IsZero() {
		return ErrInvalidStepLotSize
	}
	if !num.IsFixedMulExact(tick, step) {
		return errors.Wrap(ErrInvalidStepLotSize, "tick size * step lot size must not need rounding")
	}
	if minLot == nil || minLot.IsZero() || !num.IsMultipleOf(minLot, step) {
		return ErrInvalidMinLotSize
	}
	if maxLot == nil || maxLot.LT(minLot) || !num.IsMultipleOf(maxLot, step) {
		return ErrInvalidMaxLotSize
	}
	return nil
}
