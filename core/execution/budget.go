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

// Budget bounds the work the expiration service may do in one block. Work
// is counted in abstract weight units, see Weights.
type Budget struct {
	limit    uint64
	consumed uint64
}

func NewBudget(limit uint64) *Budget {
	return &Budget{limit: limit}
}

func (b *Budget) Remaining() uint64 {
	return b.limit - b.consumed
}

func (b *Budget) Consumed() uint64 {
	return b.consumed
}

// CanConsume tells whether w fits in what is left.
func (b *Budget) CanConsume(w uint64) bool {
	return w <= b.Remaining()
}

// TryConsume consumes w if it fits.
func (b *Budget) TryConsume(w uint64) bool {
	if !b.CanConsume(w) {
		return false
	}
	b.consumed += w
	return true
}

// ConsumeUpTo consumes w for as many of n items as fit and returns how many
// did.
func (b *Budget) ConsumeUpTo(w uint64, n int) int {
	if n <= 0 {
		return 0
	}
	if w == 0 {
		return n
	}
	fit := b.Remaining() / w
	if fit < uint64(n) {
		n = int(fit)
	}
	b.consumed += w * uint64(n)
	return n
}
