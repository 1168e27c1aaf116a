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
	"encoding/binary"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
)

var (
	orderBookPrefix      = []byte("ob/")
	limitOrderPrefix     = []byte("lo/")
	priceLevelPrefix     = []byte("pl/")
	aggregatedSidePrefix = []byte("ag/")
	userOrdersPrefix     = []byte("uo/")
	expirationPrefix     = []byte("ex/")
	expirationCursorKey  = []byte("cursor/expirations")
)

func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func be8(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func lenPrefixed(s string) []byte {
	b := binary.AppendUvarint(nil, uint64(len(s)))
	return append(b, s...)
}

// bookKey is the fixed layout of an order book id inside every key, so
// that all the records of one book share a prefix.
func bookKey(id types.OrderBookID) []byte {
	var dex [4]byte
	binary.BigEndian.PutUint32(dex[:], id.DEXID)
	return concat(dex[:], lenPrefixed(id.Base), lenPrefixed(id.Quote))
}

func orderBookKey(id types.OrderBookID) []byte {
	return concat(orderBookPrefix, bookKey(id))
}

func limitOrdersPrefix(id types.OrderBookID) []byte {
	return concat(limitOrderPrefix, bookKey(id))
}

func limitOrderKey(id types.OrderBookID, orderID uint64) []byte {
	return concat(limitOrderPrefix, bookKey(id), be8(orderID))
}

func priceLevelKey(id types.OrderBookID, side types.Side, price *num.Uint) []byte {
	p := price.Bytes()
	return concat(priceLevelPrefix, bookKey(id), []byte{byte(side)}, p[:])
}

func priceLevelsPrefix(id types.OrderBookID) []byte {
	return concat(priceLevelPrefix, bookKey(id))
}

func aggregatedSideKey(id types.OrderBookID, side types.Side) []byte {
	return concat(aggregatedSidePrefix, bookKey(id), []byte{byte(side)})
}

func userOrdersKey(owner string, id types.OrderBookID) []byte {
	return concat(userOrdersPrefix, lenPrefixed(owner), bookKey(id))
}

func expirationSlotKey(slot uint64) []byte {
	return concat(expirationPrefix, be8(slot))
}

func slotFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(expirationPrefix):])
}
