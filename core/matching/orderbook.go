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
	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/pkg/errors"
)

// OrderBook computes the impact of operations on one order book. It never
// writes to the data layer itself except through Apply.
type OrderBook struct {
	*types.OrderBook

	log *logging.Logger
	// maxPriceShift bounds how far below the best bid, or above the best
	// ask, a new order may rest, as a fixed point fraction of the best price.
	maxPriceShift *num.Uint
}

func NewOrderBook(log *logging.Logger, ob *types.OrderBook, maxPriceShift *num.Uint) *OrderBook {
	return &OrderBook{
		OrderBook:     ob,
		log:           log,
		maxPriceShift: maxPriceShift,
	}
}

// EnsureLimitOrderValid checks the price and amount alignment of an order.
func (b *OrderBook) EnsureLimitOrderValid(order *types.LimitOrder) error {
	if !order.Side.IsValid() {
		return errors.Wrap(types.ErrInvalidPrice, "invalid side")
	}
	if order.Price == nil || order.Price.IsZero() || !num.IsMultipleOf(order.Price, b.TickSize) {
		return types.ErrInvalidPrice
	}
	if order.Amount == nil || !num.IsMultipleOf(order.Amount, b.StepLotSize) {
		return types.ErrInvalidAmount
	}
	if order.Amount.LT(b.MinLotSize) || order.Amount.GT(b.MaxLotSize) {
		return types.ErrInvalidAmount
	}
	return nil
}

// CheckRestrictions checks the order against the index bounds and the
// best price of its side.
func (b *OrderBook) CheckRestrictions(dl datalayer.DataLayer, order *types.LimitOrder) error {
	limits := dl.Limits()

	userOrders, err := dl.GetUserLimitOrders(order.Owner, b.ID)
	if err != nil {
		return err
	}
	if limits.MaxOrdersPerUser > 0 && len(userOrders) >= limits.MaxOrdersPerUser {
		return types.ErrUserOrderLimitReached
	}

	level, err := dl.GetPriceLevel(b.ID, order.Side, order.Price)
	if err != nil {
		return err
	}
	if limits.MaxOrdersPerPrice > 0 && len(level) >= limits.MaxOrdersPerPrice {
		return types.ErrPriceLevelFull
	}

	side, err := dl.GetAggregatedSide(b.ID, order.Side)
	if err != nil {
		return err
	}
	if limits.MaxSidePriceCount > 0 && !side.Has(order.Price) && side.Len() >= limits.MaxSidePriceCount {
		return types.ErrOrderBookSideFull
	}

	if best, ok := side.Best(); ok && b.maxPriceShift != nil && side.Side().IsBetter(best.Price, order.Price) {
		maxShift, overflow := num.FixedMulFloor(b.maxPriceShift, best.Price)
		if overflow {
			return types.ErrArithmeticOverflow
		}
		var diff *num.Uint
		if order.Side == types.SideBuy {
			diff = num.UintZero().Sub(best.Price, order.Price)
		} else {
			diff = num.UintZero().Sub(order.Price, best.Price)
		}
		if diff.GT(maxShift) {
			return errors.Wrap(types.ErrInvalidPrice, "price is too far from the best price")
		}
	}
	return nil
}

func (b *OrderBook) bestOf(dl datalayer.DataLayer, side types.Side) (types.PriceVolume, bool, error) {
	ms, err := dl.GetAggregatedSide(b.ID, side)
	if err != nil {
		return types.PriceVolume{}, false, err
	}
	best, ok := ms.Best()
	return best, ok, nil
}

func (b *OrderBook) BestBid(dl datalayer.DataLayer) (types.PriceVolume, bool, error) {
	return b.bestOf(dl, types.SideBuy)
}

func (b *OrderBook) BestAsk(dl datalayer.DataLayer) (types.PriceVolume, bool, error) {
	return b.bestOf(dl, types.SideSell)
}

// MarketVolume is the total resting amount of a side.
func (b *OrderBook) MarketVolume(dl datalayer.DataLayer, side types.Side) (*num.Uint, error) {
	ms, err := dl.GetAggregatedSide(b.ID, side)
	if err != nil {
		return nil, err
	}
	total := num.UintZero()
	ms.Walk(func(_, volume *num.Uint) bool {
		total.Add(total, volume)
		return true
	})
	return total, nil
}

// MarketDepthToPrice splits amount between what can be executed against the
// maker side at prices crossing price and what is left.
func MarketDepthToPrice(makers *types.MarketSide, price, amount *num.Uint) (market, rest *num.Uint) {
	market, rest = num.UintZero(), amount.Clone()
	taker := makers.Side().Opposite()
	makers.Walk(func(levelPrice, volume *num.Uint) bool {
		if !taker.Crosses(price, levelPrice) {
			return false
		}
		take := num.Min(rest, volume).Clone()
		market.Add(market, take)
		rest.Sub(rest, take)
		return !rest.IsZero()
	})
	return market, rest
}

// IsCrossing tells whether a limit order would trade immediately.
func (b *OrderBook) IsCrossing(dl datalayer.DataLayer, order *types.LimitOrder) (bool, error) {
	best, ok, err := b.bestOf(dl, order.Side.Opposite())
	if err != nil || !ok {
		return false, err
	}
	return order.Side.Crosses(order.Price, best.Price), nil
}

func quoteOf(price, base *num.Uint, roundUp bool) (*num.Uint, error) {
	var (
		q        *num.Uint
		overflow bool
	)
	if roundUp {
		q, overflow = num.FixedMulCeil(price, base)
	} else {
		q, overflow = num.FixedMulFloor(price, base)
	}
	if overflow {
		return nil, types.ErrArithmeticOverflow
	}
	return q, nil
}

// MarketImpact simulates a taker on takerSide trading up to limit against
// the opposite side, best price first. Totals are computed per price level
// so a dry run and an execution agree. When not a dry run the orders of
// each touched level are walked in time priority to build the fills and
// the payment; the taker pays into the escrow and receiver is paid out of it.
func (b *OrderBook) MarketImpact(
	dl datalayer.DataLayer,
	takerSide types.Side,
	limit types.OrderAmount,
	taker, receiver string,
	dryRun, allowPartial bool,
) (*MarketChange, error) {
	if !takerSide.IsValid() {
		return nil, errors.Wrap(types.ErrInvalidAmount, "invalid side")
	}
	if limit.Amount == nil || limit.Amount.IsZero() {
		return nil, types.ErrInvalidAmount
	}
	if limit.IsBase() && !num.IsMultipleOf(limit.Amount, b.StepLotSize) {
		return nil, types.ErrInvalidAmount
	}

	makers, err := dl.GetAggregatedSide(b.ID, takerSide.Opposite())
	if err != nil {
		return nil, err
	}
	if makers.IsEmpty() {
		return nil, types.ErrInsufficientLiquidity
	}

	change := NewMarketChange(b.ID)
	change.TakerSide = takerSide
	takerPays := takerSide == types.SideBuy
	remaining := limit.Amount.Clone()
	precisionStop := false

	for _, level := range makers.Levels() {
		var take, quote *num.Uint
		if limit.IsBase() {
			take = num.Min(remaining, level.Volume).Clone()
			if quote, err = quoteOf(level.Price, take, takerPays); err != nil {
				return nil, err
			}
			remaining.Sub(remaining, take)
		} else {
			levelQuote, err := quoteOf(level.Price, level.Volume, takerPays)
			if err != nil {
				return nil, err
			}
			if remaining.GTE(levelQuote) {
				take, quote = level.Volume, levelQuote
			} else {
				base, overflow := num.FixedDivFloor(remaining, level.Price)
				if overflow {
					return nil, types.ErrArithmeticOverflow
				}
				take = b.AlignAmount(base)
				// the rest of the quote cannot buy a whole level, this is
				// as far as the amount goes
				precisionStop = true
				if take.IsZero() {
					break
				}
				if quote, err = quoteOf(level.Price, take, takerPays); err != nil {
					return nil, err
				}
			}
			remaining.Sub(remaining, quote)
		}

		change.Base.Add(change.Base, take)
		change.Quote.Add(change.Quote, quote)

		if !dryRun {
			if err := b.fillLevel(dl, change, level.Price, take, quote); err != nil {
				return nil, err
			}
		}

		if remaining.IsZero() || precisionStop {
			break
		}
	}

	if !remaining.IsZero() && !precisionStop {
		if !allowPartial || change.Base.IsZero() {
			return nil, types.ErrInsufficientLiquidity
		}
	}
	if change.Base.IsZero() {
		return nil, types.ErrInvalidAmount
	}

	if !dryRun {
		b.settleTaker(change, taker, receiver)
	}

	if b.log.IsDebug() {
		b.log.Debug("market impact calculated",
			logging.OrderBookID(b.ID),
			logging.Side(takerSide),
			logging.String("limit", limit.String()),
			logging.Balance("base", change.Base),
			logging.Balance("quote", change.Quote),
			logging.Bool("dry-run", dryRun),
		)
	}
	return change, nil
}

// fillLevel consumes take from the orders of a level in time priority.
// The last order touched receives what is left of the level quote so the
// makers are paid exactly what the taker pays.
func (b *OrderBook) fillLevel(dl datalayer.DataLayer, change *MarketChange, price, take, quote *num.Uint) error {
	makerSide := change.TakerSide.Opposite()
	ids, err := dl.GetPriceLevel(b.ID, makerSide, price)
	if err != nil {
		return err
	}
	left, quoteLeft := take.Clone(), quote.Clone()
	for _, id := range ids {
		if left.IsZero() {
			break
		}
		order, err := dl.GetLimitOrder(b.ID, id)
		if err != nil {
			return err
		}
		base := num.Min(order.Amount, left).Clone()
		left.Sub(left, base)

		var makerQuote *num.Uint
		if left.IsZero() {
			makerQuote = quoteLeft.Clone()
		} else {
			if makerQuote, err = quoteOf(price, base, false); err != nil {
				return err
			}
			if makerQuote.GT(quoteLeft) {
				makerQuote = quoteLeft.Clone()
			}
		}
		quoteLeft.Sub(quoteLeft, makerQuote)

		change.Fills = append(change.Fills, Fill{
			Order:     order,
			Base:      base,
			Quote:     makerQuote,
			Remaining: num.UintZero().Sub(order.Amount, base),
		})
		if makerSide == types.SideSell {
			change.Payment.Unlock(b.ID.Quote, order.Owner, makerQuote)
		} else {
			change.Payment.Unlock(b.ID.Base, order.Owner, base)
		}
	}
	if !left.IsZero() {
		return errors.Wrapf(types.ErrInsufficientLiquidity, "price level %s is smaller than its aggregated volume", num.BalanceToString(price))
	}
	return nil
}

func (b *OrderBook) settleTaker(change *MarketChange, taker, receiver string) {
	makers := change.Payment.ToUnlock
	change.Payment.ToUnlock = nil
	if change.TakerSide == types.SideBuy {
		change.Payment.Lock(b.ID.Quote, taker, change.Quote)
		change.Payment.Unlock(b.ID.Base, receiver, change.Base)
	} else {
		change.Payment.Lock(b.ID.Base, taker, change.Base)
		change.Payment.Unlock(b.ID.Quote, receiver, change.Quote)
	}
	for _, t := range makers {
		change.Payment.Unlock(t.Asset, t.Party, t.Amount)
	}
}

// LimitOrderImpact rests an order and locks its reserve.
func (b *OrderBook) LimitOrderImpact(order *types.LimitOrder) (*MarketChange, error) {
	asset, amount, err := order.Reserve(b.ID)
	if err != nil {
		return nil, err
	}
	change := NewMarketChange(b.ID)
	change.ToPlace = append(change.ToPlace, order)
	change.Payment.Lock(asset, order.Owner, amount)
	return change, nil
}

// CrossSpreadImpact executes the part of a crossing order that meets the
// opposite side up to its price and rests the rest. A remainder below the
// minimal lot is executed as market when the book can fill it, otherwise
// it is dropped.
func (b *OrderBook) CrossSpreadImpact(dl datalayer.DataLayer, order *types.LimitOrder, allowPartial bool) (*MarketChange, error) {
	makers, err := dl.GetAggregatedSide(b.ID, order.Side.Opposite())
	if err != nil {
		return nil, err
	}
	market, rest := MarketDepthToPrice(makers, order.Price, order.Amount)

	change := NewMarketChange(b.ID)
	change.TakerSide = order.Side
	if !rest.IsZero() && rest.LT(b.MinLotSize) {
		volume, err := b.MarketVolume(dl, order.Side.Opposite())
		if err != nil {
			return nil, err
		}
		if num.UintZero().Sub(volume, market).GTE(rest) {
			market.Add(market, rest)
			change.ConvertedToMarket = true
		} else {
			change.Dropped = rest.Clone()
		}
		rest = num.UintZero()
	}

	if !market.IsZero() {
		impact, err := b.MarketImpact(dl, order.Side, types.NewBaseAmount(market), order.Owner, order.Owner, false, allowPartial)
		if err != nil {
			return nil, err
		}
		change.Merge(impact)
	}

	if !rest.IsZero() {
		resting := order.Clone()
		resting.Amount = rest
		resting.OriginalAmount = rest.Clone()
		impact, err := b.LimitOrderImpact(resting)
		if err != nil {
			return nil, err
		}
		change.Merge(impact)
	}
	return change, nil
}

// CancelImpact removes an order and unlocks its reserve.
func (b *OrderBook) CancelImpact(order *types.LimitOrder, reason types.CancelReason) (*MarketChange, error) {
	asset, amount, err := order.Reserve(b.ID)
	if err != nil {
		return nil, err
	}
	change := NewMarketChange(b.ID)
	change.ToCancel = append(change.ToCancel, Cancellation{Order: order, Reason: reason})
	change.Payment.Unlock(asset, order.Owner, amount)
	return change, nil
}

// CancelAllImpact removes every order of the book.
func (b *OrderBook) CancelAllImpact(dl datalayer.DataLayer, reason types.CancelReason) (*MarketChange, error) {
	orders, err := dl.GetAllLimitOrders(b.ID)
	if err != nil {
		return nil, err
	}
	change := NewMarketChange(b.ID)
	for _, o := range orders {
		impact, err := b.CancelImpact(o, reason)
		if err != nil {
			return nil, err
		}
		change.Merge(impact)
	}
	return change, nil
}

// AlignmentImpact rounds every resting order down to the step lot size of
// the book, unlocking the dust. Orders rounded to nothing are cancelled.
func (b *OrderBook) AlignmentImpact(dl datalayer.DataLayer) (*MarketChange, error) {
	orders, err := dl.GetAllLimitOrders(b.ID)
	if err != nil {
		return nil, err
	}
	change := NewMarketChange(b.ID)
	for _, o := range orders {
		aligned := b.AlignAmount(o.Amount)
		if aligned.EQ(o.Amount) {
			continue
		}
		if aligned.IsZero() {
			impact, err := b.CancelImpact(o, types.CancelReasonSystem)
			if err != nil {
				return nil, err
			}
			change.Merge(impact)
			continue
		}
		dust := num.UintZero().Sub(o.Amount, aligned)
		asset, amount, err := o.Appropriation(b.ID, dust)
		if err != nil {
			return nil, err
		}
		change.ToUpdate = append(change.ToUpdate, AmountUpdate{Order: o, NewAmount: aligned})
		change.Payment.Unlock(asset, o.Owner, amount)
	}
	return change, nil
}

// CalculateDeal quotes a swap against the book without touching it.
func (b *OrderBook) CalculateDeal(dl datalayer.DataLayer, takerSide types.Side, amount types.SwapAmount, allowPartial bool) (*types.DealInfo, error) {
	limit := amount.OrderAmount(takerSide)
	if limit.IsBase() {
		limit.Amount = b.AlignAmount(limit.Amount)
	}
	change, err := b.MarketImpact(dl, takerSide, limit, "", "", true, allowPartial)
	if err != nil {
		return nil, err
	}
	return types.NewDealInfo(b.ID, takerSide, change.Base, change.Quote)
}

// Apply writes the data mutations of a change. Payments are left to the
// caller.
func (b *OrderBook) Apply(dl datalayer.DataLayer, change *MarketChange) error {
	for _, f := range change.Fills {
		var err error
		if f.IsFull() {
			err = dl.DeleteLimitOrder(b.ID, f.Order.ID)
		} else {
			err = dl.UpdateLimitOrderAmount(b.ID, f.Order.ID, f.Remaining)
		}
		if err != nil {
			return err
		}
	}
	for _, c := range change.ToCancel {
		if err := dl.DeleteLimitOrder(b.ID, c.Order.ID); err != nil {
			return err
		}
	}
	for _, u := range change.ToUpdate {
		if err := dl.UpdateLimitOrderAmount(b.ID, u.Order.ID, u.NewAmount); err != nil {
			return err
		}
	}
	for _, o := range change.ToPlace {
		if err := dl.InsertLimitOrder(b.ID, o); err != nil {
			return err
		}
	}
	return nil
}
