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
	"github.com/google/btree"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
)

type Side uint8

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	default:
		return "Unspecified"
	}
}

func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return SideUnspecified
	}
}

func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// IsBetter reports whether price a is better than price b for a resting
// order on this side: higher for bids, lower for asks.
func (s Side) IsBetter(a, b *num.Uint) bool {
	if s == SideBuy {
		return a.GT(b)
	}
	return a.LT(b)
}

// Crosses reports whether a limit price on this side can trade against
// a resting price on the opposite side.
func (s Side) Crosses(price, opposite *num.Uint) bool {
	if s == SideBuy {
		return price.GTE(opposite)
	}
	return price.LTE(opposite)
}

// PriceVolume is one entry of an aggregated side.
type PriceVolume struct {
	Price  *num.Uint
	Volume *num.Uint
}

const marketSideDegree = 16

// MarketSide is the aggregated volume of one side of an order book, ordered
// from the best price to the worst.
type MarketSide struct {
	side Side
	tree *btree.BTreeG[PriceVolume]
}

func NewMarketSide(side Side) *MarketSide {
	less := func(a, b PriceVolume) bool {
		return a.Price.LT(b.Price)
	}
	if side == SideBuy {
		less = func(a, b PriceVolume) bool {
			return a.Price.GT(b.Price)
		}
	}
	return &MarketSide{
		side: side,
		tree: btree.NewG[PriceVolume](marketSideDegree, less),
	}
}

func (m *MarketSide) Side() Side {
	return m.side
}

func (m *MarketSide) Len() int {
	return m.tree.Len()
}

func (m *MarketSide) IsEmpty() bool {
	return m.tree.Len() == 0
}

// Get returns the volume at price, or nil.
func (m *MarketSide) Get(price *num.Uint) *num.Uint {
	pv, ok := m.tree.Get(PriceVolume{Price: price})
	if !ok {
		return nil
	}
	return pv.Volume.Clone()
}

func (m *MarketSide) Has(price *num.Uint) bool {
	return m.tree.Has(PriceVolume{Price: price})
}

// Set replaces the volume at price. A zero volume removes the entry.
func (m *MarketSide) Set(price, volume *num.Uint) {
	if volume.IsZero() {
		m.tree.Delete(PriceVolume{Price: price})
		return
	}
	m.tree.ReplaceOrInsert(PriceVolume{Price: price.Clone(), Volume: volume.Clone()})
}

// Add increases the volume at price.
func (m *MarketSide) Add(price, volume *num.Uint) error {
	cur := m.Get(price)
	if cur == nil {
		cur = num.UintZero()
	}
	sum, overflow := num.UintZero().AddOverflow(cur, volume)
	if overflow {
		return ErrArithmeticOverflow
	}
	m.Set(price, sum)
	return nil
}

// Sub decreases the volume at price and drops the entry once empty.
func (m *MarketSide) Sub(price, volume *num.Uint) error {
	cur := m.Get(price)
	if cur == nil {
		cur = num.UintZero()
	}
	diff, overflow := num.UintZero().SubOverflow(cur, volume)
	if overflow {
		return ErrArithmeticOverflow
	}
	m.Set(price, diff)
	return nil
}

// Best returns the best price entry of the side.
func (m *MarketSide) Best() (PriceVolume, bool) {
	pv, ok := m.tree.Min()
	if !ok {
		return PriceVolume{}, false
	}
	return PriceVolume{Price: pv.Price.Clone(), Volume: pv.Volume.Clone()}, true
}

// Worst returns the worst price entry of the side.
func (m *MarketSide) Worst() (PriceVolume, bool) {
	pv, ok := m.tree.Max()
	if !ok {
		return PriceVolume{}, false
	}
	return PriceVolume{Price: pv.Price.Clone(), Volume: pv.Volume.Clone()}, true
}

// Walk calls fn for every level from the best price to the worst until fn
// returns false.
func (m *MarketSide) Walk(fn func(price, volume *num.Uint) bool) {
	m.tree.Ascend(func(pv PriceVolume) bool {
		return fn(pv.Price.Clone(), pv.Volume.Clone())
	})
}

// Levels returns a copy of every level, best first.
func (m *MarketSide) Levels() []PriceVolume {
	out := make([]PriceVolume, 0, m.tree.Len())
	m.Walk(func(price, volume *num.Uint) bool {
		out = append(out, PriceVolume{Price: price, Volume: volume})
		return true
	})
	return out
}

func (m *MarketSide) Clone() *MarketSide {
	return &MarketSide{
		side: m.side,
		tree: m.tree.Clone(),
	}
}
