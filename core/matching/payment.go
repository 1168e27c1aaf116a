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

// Transfer moves Amount of Asset between a party and the escrow of a book.
type Transfer struct {
	Asset  string
	Party  string
	Amount *num.Uint
}

// Payment lists the escrow movements of a market change. ToLock moves funds
// from the parties into the escrow, ToUnlock out of it. Entries are merged
// per asset and party and keep the order they were first touched in.
type Payment struct {
	OrderBookID types.OrderBookID
	ToLock      []Transfer
	ToUnlock    []Transfer
}

func NewPayment(id types.OrderBookID) *Payment {
	return &Payment{OrderBookID: id}
}

func addTransfer(list []Transfer, asset, party string, amount *num.Uint) []Transfer {
	if amount == nil || amount.IsZero() {
		return list
	}
	for i := range list {
		if list[i].Asset == asset && list[i].Party == party {
			list[i].Amount = num.Sum(list[i].Amount, amount)
			return list
		}
	}
	return append(list, Transfer{Asset: asset, Party: party, Amount: amount.Clone()})
}

func (p *Payment) Lock(asset, party string, amount *num.Uint) {
	p.ToLock = addTransfer(p.ToLock, asset, party, amount)
}

func (p *Payment) Unlock(asset, party string, amount *num.Uint) {
	p.ToUnlock = addTransfer(p.ToUnlock, asset, party, amount)
}

func (p *Payment) Merge(oth *Payment) {
	if oth == nil {
		return
	}
	for _, t := range oth.ToLock {
		p.Lock(t.Asset, t.Party, t.Amount)
	}
	for _, t := range oth.ToUnlock {
		p.Unlock(t.Asset, t.Party, t.Amount)
	}
}

func (p *Payment) IsEmpty() bool {
	return len(p.ToLock) == 0 && len(p.ToUnlock) == 0
}

// Locked returns the total locked for asset.
func (p *Payment) Locked(asset string) *num.Uint {
	total := num.UintZero()
	for _, t := range p.ToLock {
		if t.Asset == asset {
			total.Add(total, t.Amount)
		}
	}
	return total
}

// Unlocked returns the total unlocked for asset.
func (p *Payment) Unlocked(asset string) *num.Uint {
	total := num.UintZero()
	for _, t := range p.ToUnlock {
		if t.Asset == asset {
			total.Add(total, t.Amount)
		}
	}
	return total
}
