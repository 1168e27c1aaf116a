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

import "github.com/pkg/errors"

var (
	ErrOrderBookNotFound      = errors.New("order book not found")
	ErrOrderBookNotActive     = errors.New("order book is not active")
	ErrOrderBookNotEmpty      = errors.New("order book is not empty")
	ErrInvalidPrice           = errors.New("invalid limit order price")
	ErrInvalidAmount          = errors.New("invalid order amount")
	ErrInvalidLifespan        = errors.New("invalid order lifespan")
	ErrPriceLevelFull         = errors.New("price level reached max count of limit orders")
	ErrUserOrderLimitReached  = errors.New("user has max count of opened orders in the order book")
	ErrExpirationScheduleFull = errors.New("expiration schedule for the block is full")
	ErrOrderNotFound          = errors.New("limit order not found")
	ErrNotOrderOwner          = errors.New("party is not the owner of the limit order")
	ErrInsufficientLiquidity  = errors.New("not enough liquidity in the order book")
	ErrArithmeticOverflow     = errors.New("arithmetic overflow")

	ErrOrderBookAlreadyExists   = errors.New("order book already exists")
	ErrTradingPairNotRegistered = errors.New("trading pair is not registered")
	ErrOrderBookNotStopped      = errors.New("order book must be stopped to be updated")
	ErrOrderBookSideFull        = errors.New("order book side reached max count of prices")
	ErrTradingForbidden         = errors.New("trading is forbidden in the order book")
	ErrInvalidAsset             = errors.New("asset does not belong to the order book")
	ErrSlippageLimitExceeded    = errors.New("deal exceeds the slippage limit")
	ErrInvalidTickSize          = errors.New("invalid tick size")
	ErrInvalidStepLotSize       = errors.New("invalid step lot size")
	ErrInvalidMinLotSize        = errors.New("invalid min lot size")
	ErrInvalidMaxLotSize        = errors.New("invalid max lot size")
	ErrInvalidOrderBookStatus   = errors.New("invalid order book status")
	ErrExpirationNotFound       = errors.New("expiration entry not found")
)
