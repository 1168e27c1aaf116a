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

package datalayer

import (
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/pkg/errors"
)

var ErrDuplicateLimitOrder = errors.New("limit order already exists")

// Limits bounds the indices of the order books. A zero limit is unbounded.
type Limits struct {
	MaxOrdersPerUser          int
	MaxOrdersPerPrice         int
	MaxSidePriceCount         int
	MaxExpiringOrdersPerBlock int
}

// DataLayer is the typed view of the order book state used by the engines.
// A limit order is always inserted, updated and removed together with its
// price level, aggregated side, user and expiration entries.
type DataLayer interface {
	Limits() Limits

	GetOrderBook(id types.OrderBookID) (*types.OrderBook, error)
	ListOrderBooks() ([]*types.OrderBook, error)
	SetOrderBook(ob *types.OrderBook) error
	DeleteOrderBook(id types.OrderBookID) error
	IsOrderBookEmpty(id types.OrderBookID) (bool, error)

	GetLimitOrder(id types.OrderBookID, orderID uint64) (*types.LimitOrder, error)
	GetAllLimitOrders(id types.OrderBookID) ([]*types.LimitOrder, error)
	InsertLimitOrder(id types.OrderBookID, order *types.LimitOrder) error
	UpdateLimitOrderAmount(id types.OrderBookID, orderID uint64, amount *num.Uint) error
	DeleteLimitOrder(id types.OrderBookID, orderID uint64) error

	GetPriceLevel(id types.OrderBookID, side types.Side, price *num.Uint) ([]uint64, error)
	GetAggregatedSide(id types.OrderBookID, side types.Side) (*types.MarketSide, error)
	GetUserLimitOrders(owner string, id types.OrderBookID) ([]uint64, error)

	GetExpirationSlot(slot uint64) ([]types.ExpirationEntry, error)
	SetExpirationSlot(slot uint64, entries []types.ExpirationEntry) error
	NextExpirationSlot(from, to uint64) (uint64, bool, error)

	GetIncompleteExpirationsSince() (uint64, bool, error)
	SetIncompleteExpirationsSince(block uint64) error
	ClearIncompleteExpirationsSince() error

	ForEach(fn func(key, value []byte) (bool, error)) error
}

type layer struct {
	backend Backend
	limits  Limits
}

func (l *layer) Limits() Limits {
	return l.limits
}

func (l *layer) write(ops ...storage.Op) error {
	return l.backend.Write(ops)
}

func (l *layer) GetOrderBook(id types.OrderBookID) (*types.OrderBook, error) {
	raw, err := l.backend.Get(orderBookKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, types.ErrOrderBookNotFound
	}
	return decodeOrderBook(raw)
}

func (l *layer) ListOrderBooks() ([]*types.OrderBook, error) {
	books := []*types.OrderBook{}
	err := l.backend.Iterate(orderBookPrefix, storage.PrefixEnd(orderBookPrefix), func(_, v []byte) (bool, error) {
		ob, err := decodeOrderBook(v)
		if err != nil {
			return false, err
		}
		books = append(books, ob)
		return true, nil
	})
	return books, err
}

func (l *layer) SetOrderBook(ob *types.OrderBook) error {
	return l.write(storage.SetOp(orderBookKey(ob.ID), encodeOrderBook(ob)))
}

func (l *layer) DeleteOrderBook(id types.OrderBookID) error {
	empty, err := l.IsOrderBookEmpty(id)
	if err != nil {
		return err
	}
	if !empty {
		return types.ErrOrderBookNotEmpty
	}
	return l.write(
		storage.DeleteOp(orderBookKey(id)),
		storage.DeleteOp(aggregatedSideKey(id, types.SideBuy)),
		storage.DeleteOp(aggregatedSideKey(id, types.SideSell)),
	)
}

func (l *layer) hasAny(prefix []byte) (bool, error) {
	found := false
	err := l.backend.Iterate(prefix, storage.PrefixEnd(prefix), func(_, _ []byte) (bool, error) {
		found = true
		return false, nil
	})
	return found, err
}

func (l *layer) IsOrderBookEmpty(id types.OrderBookID) (bool, error) {
	for _, prefix := range [][]byte{limitOrdersPrefix(id), priceLevelsPrefix(id)} {
		found, err := l.hasAny(prefix)
		if err != nil || found {
			return false, err
		}
	}
	for _, side := range []types.Side{types.SideBuy, types.SideSell} {
		ms, err := l.GetAggregatedSide(id, side)
		if err != nil {
			return false, err
		}
		if !ms.IsEmpty() {
			return false, nil
		}
	}
	return true, nil
}

func (l *layer) GetLimitOrder(id types.OrderBookID, orderID uint64) (*types.LimitOrder, error) {
	raw, err := l.backend.Get(limitOrderKey(id, orderID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, types.ErrOrderNotFound
	}
	return decodeLimitOrder(raw)
}

func (l *layer) GetAllLimitOrders(id types.OrderBookID) ([]*types.LimitOrder, error) {
	prefix := limitOrdersPrefix(id)
	orders := []*types.LimitOrder{}
	err := l.backend.Iterate(prefix, storage.PrefixEnd(prefix), func(_, v []byte) (bool, error) {
		o, err := decodeLimitOrder(v)
		if err != nil {
			return false, err
		}
		orders = append(orders, o)
		return true, nil
	})
	return orders, err
}

func (l *layer) GetPriceLevel(id types.OrderBookID, side types.Side, price *num.Uint) ([]uint64, error) {
	raw, err := l.backend.Get(priceLevelKey(id, side, price))
	if err != nil || raw == nil {
		return []uint64{}, err
	}
	return decodeIDs(raw)
}

func (l *layer) GetAggregatedSide(id types.OrderBookID, side types.Side) (*types.MarketSide, error) {
	raw, err := l.backend.Get(aggregatedSideKey(id, side))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return types.NewMarketSide(side), nil
	}
	return decodeMarketSide(side, raw)
}

func (l *layer) GetUserLimitOrders(owner string, id types.OrderBookID) ([]uint64, error) {
	raw, err := l.backend.Get(userOrdersKey(owner, id))
	if err != nil || raw == nil {
		return []uint64{}, err
	}
	return decodeIDs(raw)
}

func (l *layer) GetExpirationSlot(slot uint64) ([]types.ExpirationEntry, error) {
	raw, err := l.backend.Get(expirationSlotKey(slot))
	if err != nil || raw == nil {
		return []types.ExpirationEntry{}, err
	}
	return decodeExpirationEntries(raw)
}

func idsOp(key []byte, ids []uint64) storage.Op {
	if len(ids) == 0 {
		return storage.DeleteOp(key)
	}
	return storage.SetOp(key, encodeIDs(ids))
}

func sideOp(key []byte, side *types.MarketSide) storage.Op {
	if side.IsEmpty() {
		return storage.DeleteOp(key)
	}
	return storage.SetOp(key, encodeMarketSide(side))
}

func slotOp(slot uint64, entries []types.ExpirationEntry) storage.Op {
	if len(entries) == 0 {
		return storage.DeleteOp(expirationSlotKey(slot))
	}
	return storage.SetOp(expirationSlotKey(slot), encodeExpirationEntries(entries))
}

func removeID(ids []uint64, id uint64) ([]uint64, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func full(count, limit int) bool {
	return limit > 0 && count >= limit
}

func (l *layer) InsertLimitOrder(id types.OrderBookID, order *types.LimitOrder) error {
	if order.Amount == nil || order.Amount.IsZero() {
		return types.ErrInvalidAmount
	}
	key := limitOrderKey(id, order.ID)
	exists, err := l.backend.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrDuplicateLimitOrder, "order %d", order.ID)
	}

	userOrders, err := l.GetUserLimitOrders(order.Owner, id)
	if err != nil {
		return err
	}
	if full(len(userOrders), l.limits.MaxOrdersPerUser) {
		return types.ErrUserOrderLimitReached
	}
	level, err := l.GetPriceLevel(id, order.Side, order.Price)
	if err != nil {
		return err
	}
	if full(len(level), l.limits.MaxOrdersPerPrice) {
		return types.ErrPriceLevelFull
	}
	side, err := l.GetAggregatedSide(id, order.Side)
	if err != nil {
		return err
	}
	if !side.Has(order.Price) && full(side.Len(), l.limits.MaxSidePriceCount) {
		return types.ErrOrderBookSideFull
	}
	slot, err := l.GetExpirationSlot(order.ExpirationSlot)
	if err != nil {
		return err
	}
	if full(len(slot), l.limits.MaxExpiringOrdersPerBlock) {
		return types.ErrExpirationScheduleFull
	}

	if err := side.Add(order.Price, order.Amount); err != nil {
		return err
	}
	slot = append(slot, types.ExpirationEntry{OrderBookID: id, OrderID: order.ID})

	return l.write(
		storage.SetOp(key, encodeLimitOrder(order)),
		idsOp(priceLevelKey(id, order.Side, order.Price), append(level, order.ID)),
		sideOp(aggregatedSideKey(id, order.Side), side),
		idsOp(userOrdersKey(order.Owner, id), append(userOrders, order.ID)),
		slotOp(order.ExpirationSlot, slot),
	)
}

func (l *layer) UpdateLimitOrderAmount(id types.OrderBookID, orderID uint64, amount *num.Uint) error {
	if amount.IsZero() {
		return types.ErrInvalidAmount
	}
	order, err := l.GetLimitOrder(id, orderID)
	if err != nil {
		return err
	}
	side, err := l.GetAggregatedSide(id, order.Side)
	if err != nil {
		return err
	}
	if amount.GT(order.Amount) {
		err = side.Add(order.Price, num.UintZero().Sub(amount, order.Amount))
	} else {
		err = side.Sub(order.Price, num.UintZero().Sub(order.Amount, amount))
	}
	if err != nil {
		return err
	}
	order.Amount = amount.Clone()

	return l.write(
		storage.SetOp(limitOrderKey(id, orderID), encodeLimitOrder(order)),
		sideOp(aggregatedSideKey(id, order.Side), side),
	)
}

func (l *layer) DeleteLimitOrder(id types.OrderBookID, orderID uint64) error {
	order, err := l.GetLimitOrder(id, orderID)
	if err != nil {
		return err
	}

	level, err := l.GetPriceLevel(id, order.Side, order.Price)
	if err != nil {
		return err
	}
	level, ok := removeID(level, orderID)
	if !ok {
		return errors.Wrapf(types.ErrOrderNotFound, "limit order %d missing from its price level", orderID)
	}
	side, err := l.GetAggregatedSide(id, order.Side)
	if err != nil {
		return err
	}
	if err := side.Sub(order.Price, order.Amount); err != nil {
		return err
	}
	userOrders, err := l.GetUserLimitOrders(order.Owner, id)
	if err != nil {
		return err
	}
	userOrders, _ = removeID(userOrders, orderID)

	ops := []storage.Op{
		storage.DeleteOp(limitOrderKey(id, orderID)),
		idsOp(priceLevelKey(id, order.Side, order.Price), level),
		sideOp(aggregatedSideKey(id, order.Side), side),
		idsOp(userOrdersKey(order.Owner, id), userOrders),
	}

	// the expiration service takes a slot before cancelling its entries
	// so the entry may already be gone
	slot, err := l.GetExpirationSlot(order.ExpirationSlot)
	if err != nil {
		return err
	}
	for i, e := range slot {
		if e.OrderBookID == id && e.OrderID == orderID {
			slot = append(slot[:i:i], slot[i+1:]...)
			ops = append(ops, slotOp(order.ExpirationSlot, slot))
			break
		}
	}

	return l.write(ops...)
}

func (l *layer) SetExpirationSlot(slot uint64, entries []types.ExpirationEntry) error {
	return l.write(slotOp(slot, entries))
}

func (l *layer) NextExpirationSlot(from, to uint64) (uint64, bool, error) {
	if from > to {
		return 0, false, nil
	}
	end := storage.PrefixEnd(expirationPrefix)
	if to < ^uint64(0) {
		end = expirationSlotKey(to + 1)
	}
	var (
		slot  uint64
		found bool
	)
	err := l.backend.Iterate(expirationSlotKey(from), end, func(k, _ []byte) (bool, error) {
		slot, found = slotFromKey(k), true
		return false, nil
	})
	return slot, found, err
}

func (l *layer) GetIncompleteExpirationsSince() (uint64, bool, error) {
	raw, err := l.backend.Get(expirationCursorKey)
	if err != nil || raw == nil {
		return 0, false, err
	}
	block, err := decodeCursor(raw)
	return block, err == nil, err
}

func (l *layer) SetIncompleteExpirationsSince(block uint64) error {
	return l.write(storage.SetOp(expirationCursorKey, encodeCursor(block)))
}

func (l *layer) ClearIncompleteExpirationsSince() error {
	return l.write(storage.DeleteOp(expirationCursorKey))
}

func (l *layer) ForEach(fn func(key, value []byte) (bool, error)) error {
	return l.backend.Iterate(nil, nil, fn)
}

// StorageDataLayer reads and writes the store directly. Every typed
// mutation is written as one batch.
type StorageDataLayer struct {
	*layer
}

func NewStorageDataLayer(kv storage.KV, limits Limits) *StorageDataLayer {
	return &StorageDataLayer{
		layer: &layer{backend: kv, limits: limits},
	}
}

// CacheDataLayer buffers every read and write of a unit of work. Nothing
// reaches the parent until Commit, Reset drops the buffered writes.
type CacheDataLayer struct {
	*layer
	*overlay
}

func NewCacheDataLayer(parent Backend, limits Limits) *CacheDataLayer {
	o := newOverlay(parent)
	return &CacheDataLayer{
		layer:   &layer{backend: o, limits: limits},
		overlay: o,
	}
}

// Commit writes the buffered changes to the parent as one batch.
func (c *CacheDataLayer) Commit() error {
	return c.overlay.commit()
}

func (c *CacheDataLayer) Reset() {
	c.overlay.reset()
}

// Pending returns the number of buffered writes.
func (c *CacheDataLayer) Pending() int {
	return len(c.overlay.dirty)
}
