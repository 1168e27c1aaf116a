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
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrCorruptedRecord = errors.New("corrupted record")

func appendUint(b []byte, n protowire.Number, u *num.Uint) []byte {
	if u == nil {
		return b
	}
	b = protowire.AppendTag(b, n, protowire.BytesType)
	return protowire.AppendBytes(b, u.MinimalBytes())
}

func appendVarint(b []byte, n protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, n, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, n protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, n, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, n protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, n, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

// field is one decoded field of a record. Only one of v or raw is set
// depending on the wire type.
type field struct {
	num protowire.Number
	v   uint64
	raw []byte
}

func (f field) uint() (*num.Uint, error) {
	u, overflow := num.UintFromBytes(f.raw)
	if overflow {
		return nil, errors.Wrapf(ErrCorruptedRecord, "field %d overflows", f.num)
	}
	return u, nil
}

func decodeFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		n, typ, l := protowire.ConsumeTag(b)
		if l < 0 {
			return errors.Wrap(ErrCorruptedRecord, protowire.ParseError(l).Error())
		}
		b = b[l:]
		f := field{num: n}
		switch typ {
		case protowire.VarintType:
			f.v, l = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.raw, l = protowire.ConsumeBytes(b)
		default:
			l = protowire.ConsumeFieldValue(n, typ, b)
		}
		if l < 0 {
			return errors.Wrap(ErrCorruptedRecord, protowire.ParseError(l).Error())
		}
		b = b[l:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func encodeOrderBookID(b []byte, id types.OrderBookID) []byte {
	b = appendVarint(b, 1, uint64(id.DEXID))
	b = appendString(b, 2, id.Base)
	return appendString(b, 3, id.Quote)
}

func decodeOrderBookIDField(id *types.OrderBookID, f field) bool {
	switch f.num {
	case 1:
		id.DEXID = uint32(f.v)
	case 2:
		id.Base = string(f.raw)
	case 3:
		id.Quote = string(f.raw)
	default:
		return false
	}
	return true
}

func encodeOrderBook(ob *types.OrderBook) []byte {
	b := encodeOrderBookID(nil, ob.ID)
	b = appendVarint(b, 4, uint64(ob.Status))
	b = appendVarint(b, 5, ob.LastOrderID)
	b = appendUint(b, 6, ob.TickSize)
	b = appendUint(b, 7, ob.StepLotSize)
	b = appendUint(b, 8, ob.MinLotSize)
	return appendUint(b, 9, ob.MaxLotSize)
}

func decodeOrderBook(b []byte) (*types.OrderBook, error) {
	ob := &types.OrderBook{
		TickSize:    num.UintZero(),
		StepLotSize: num.UintZero(),
		MinLotSize:  num.UintZero(),
		MaxLotSize:  num.UintZero(),
	}
	err := decodeFields(b, func(f field) error {
		if decodeOrderBookIDField(&ob.ID, f) {
			return nil
		}
		var err error
		switch f.num {
		case 4:
			ob.Status = types.OrderBookStatus(f.v)
		case 5:
			ob.LastOrderID = f.v
		case 6:
			ob.TickSize, err = f.uint()
		case 7:
			ob.StepLotSize, err = f.uint()
		case 8:
			ob.MinLotSize, err = f.uint()
		case 9:
			ob.MaxLotSize, err = f.uint()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return ob, nil
}

func encodeLimitOrder(o *types.LimitOrder) []byte {
	b := appendVarint(nil, 1, o.ID)
	b = appendString(b, 2, o.Owner)
	b = appendVarint(b, 3, uint64(o.Side))
	b = appendUint(b, 4, o.Price)
	b = appendUint(b, 5, o.OriginalAmount)
	b = appendUint(b, 6, o.Amount)
	b = appendVarint(b, 7, o.CreatedAt)
	b = appendVarint(b, 8, uint64(o.Time.UnixNano()))
	b = appendVarint(b, 9, uint64(o.Lifespan))
	b = appendVarint(b, 10, o.ExpiresAt)
	return appendVarint(b, 11, o.ExpirationSlot)
}

func decodeLimitOrder(b []byte) (*types.LimitOrder, error) {
	o := &types.LimitOrder{
		Price:          num.UintZero(),
		OriginalAmount: num.UintZero(),
		Amount:         num.UintZero(),
	}
	err := decodeFields(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			o.ID = f.v
		case 2:
			o.Owner = string(f.raw)
		case 3:
			o.Side = types.Side(f.v)
		case 4:
			o.Price, err = f.uint()
		case 5:
			o.OriginalAmount, err = f.uint()
		case 6:
			o.Amount, err = f.uint()
		case 7:
			o.CreatedAt = f.v
		case 8:
			o.Time = time.Unix(0, int64(f.v)).UTC()
		case 9:
			o.Lifespan = time.Duration(f.v)
		case 10:
			o.ExpiresAt = f.v
		case 11:
			o.ExpirationSlot = f.v
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// encodeIDs packs a list of order ids.
func encodeIDs(ids []uint64) []byte {
	var packed []byte
	for _, id := range ids {
		packed = protowire.AppendVarint(packed, id)
	}
	return appendMessage(nil, 1, packed)
}

func decodeIDs(b []byte) ([]uint64, error) {
	ids := []uint64{}
	err := decodeFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		packed := f.raw
		for len(packed) > 0 {
			id, l := protowire.ConsumeVarint(packed)
			if l < 0 {
				return errors.Wrap(ErrCorruptedRecord, protowire.ParseError(l).Error())
			}
			ids = append(ids, id)
			packed = packed[l:]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func encodeMarketSide(side *types.MarketSide) []byte {
	var b []byte
	side.Walk(func(price, volume *num.Uint) bool {
		var level []byte
		level = appendUint(level, 1, price)
		level = appendUint(level, 2, volume)
		b = appendMessage(b, 1, level)
		return true
	})
	return b
}

func decodeMarketSide(s types.Side, b []byte) (*types.MarketSide, error) {
	side := types.NewMarketSide(s)
	err := decodeFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		price, volume := num.UintZero(), num.UintZero()
		err := decodeFields(f.raw, func(lf field) error {
			var err error
			switch lf.num {
			case 1:
				price, err = lf.uint()
			case 2:
				volume, err = lf.uint()
			}
			return err
		})
		if err != nil {
			return err
		}
		side.Set(price, volume)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return side, nil
}

func encodeExpirationEntries(entries []types.ExpirationEntry) []byte {
	var b []byte
	for _, e := range entries {
		entry := encodeOrderBookID(nil, e.OrderBookID)
		entry = appendVarint(entry, 4, e.OrderID)
		b = appendMessage(b, 1, entry)
	}
	return b
}

func decodeExpirationEntries(b []byte) ([]types.ExpirationEntry, error) {
	entries := []types.ExpirationEntry{}
	err := decodeFields(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		var e types.ExpirationEntry
		err := decodeFields(f.raw, func(ef field) error {
			if decodeOrderBookIDField(&e.OrderBookID, ef) {
				return nil
			}
			if ef.num == 4 {
				e.OrderID = ef.v
			}
			return nil
		})
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func encodeCursor(block uint64) []byte {
	return appendVarint(nil, 1, block)
}

func decodeCursor(b []byte) (uint64, error) {
	var block uint64
	err := decodeFields(b, func(f field) error {
		if f.num == 1 {
			block = f.v
		}
		return nil
	})
	return block, err
}
