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

package logging

import (
	"encoding/hex"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"go.uber.org/zap"
)

func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}

// Error constructs a field that lazily stores err.Error() under the key "error".
func Error(val error) zap.Field {
	return zap.Error(val)
}

func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

func String(key string, val string) zap.Field {
	return zap.String(key, val)
}

func Strings(key string, val []string) zap.Field {
	return zap.Strings(key, val)
}

func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

// BigUint renders a raw uint as its base 10 string.
func BigUint(key string, val *num.Uint) zap.Field {
	if val == nil {
		return zap.String(key, "nil")
	}
	return zap.String(key, val.String())
}

// Balance renders a fixed point value as a decimal, e.g. "0.00001".
func Balance(key string, val *num.Uint) zap.Field {
	return zap.String(key, num.BalanceToString(val))
}

func Decimal(key string, val num.Decimal) zap.Field {
	return zap.String(key, val.String())
}

func OrderBookID(id types.OrderBookID) zap.Field {
	return zap.String("order-book-id", id.String())
}

func OrderID(id uint64) zap.Field {
	return zap.Uint64("order-id", id)
}

func PartyID(id string) zap.Field {
	return zap.String("party", id)
}

func AssetID(id string) zap.Field {
	return zap.String("asset", id)
}

func BlockHeight(height uint64) zap.Field {
	return zap.Uint64("block-height", height)
}

func Side(side types.Side) zap.Field {
	return zap.String("side", side.String())
}

func LimitOrder(o types.LimitOrder) zap.Field {
	return zap.String("limit-order", o.String())
}

func OrderBook(ob types.OrderBook) zap.Field {
	return zap.String("order-book", ob.String())
}

func Hash(h []byte) zap.Field {
	return zap.String("hash", hex.EncodeToString(h))
}
