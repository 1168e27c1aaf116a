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

import (
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/libs/config/encoding"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

const namedLogger = "execution"

// Config represents the configuration of the execution engine.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	MaxOrdersPerUser          int `long:"max-orders-per-user" description:"open limit orders of one party in one book"`
	MaxOrdersPerPrice         int `long:"max-orders-per-price" description:"limit orders resting at one price"`
	MaxSidePriceCount         int `long:"max-side-price-count" description:"distinct prices on one side of a book"`
	MaxExpiringOrdersPerBlock int `long:"max-expiring-orders-per-block"`

	MinOrderLifespan encoding.Duration `long:"min-order-lifespan"`
	MaxOrderLifespan encoding.Duration `long:"max-order-lifespan"`
	BlockTime        encoding.Duration `long:"block-time" description:"expected time between two blocks, used to turn a lifespan into blocks"`
	// ExpirationGranularity rounds the expiration block of the orders up
	// to a multiple of itself.
	ExpirationGranularity uint64 `long:"expiration-granularity"`

	MaxPriceShift    encoding.Balance `long:"max-price-shift" description:"how far from the best price of its side an order may rest, as a fraction of that price"`
	AllowPartialFill encoding.Bool    `long:"allow-partial-fill" description:"fill market orders up to the available liquidity instead of failing"`

	DefaultTickSize    encoding.Balance `long:"default-tick-size"`
	DefaultStepLotSize encoding.Balance `long:"default-step-lot-size"`
	DefaultMinLotSize  encoding.Balance `long:"default-min-lot-size"`
	DefaultMaxLotSize  encoding.Balance `long:"default-max-lot-size"`

	Weights Weights `group:"Weights" namespace:"weights"`
}

// Weights are the costs charged to the budget of the expiration service.
type Weights struct {
	// BlockLimit is the budget given to the expiration service at each
	// block.
	BlockLimit       uint64 `long:"block-limit"`
	ServiceBase      uint64 `long:"service-base"`
	SlotBase         uint64 `long:"slot-base"`
	SingleExpiration uint64 `long:"single-expiration"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:                     encoding.LogLevel{Level: logging.InfoLevel},
		MaxOrdersPerUser:          1024,
		MaxOrdersPerPrice:         1024,
		MaxSidePriceCount:         1024,
		MaxExpiringOrdersPerBlock: 1024,
		MinOrderLifespan:          encoding.Duration{Duration: time.Minute},
		MaxOrderLifespan:          encoding.Duration{Duration: 30 * 24 * time.Hour},
		BlockTime:                 encoding.Duration{Duration: 6 * time.Second},
		ExpirationGranularity:     1,
		MaxPriceShift:             encoding.NewBalance("0.5"),
		AllowPartialFill:          false,
		DefaultTickSize:           encoding.NewBalance("0.00001"),
		DefaultStepLotSize:        encoding.NewBalance("0.00001"),
		DefaultMinLotSize:         encoding.NewBalance("1"),
		DefaultMaxLotSize:         encoding.NewBalance("100000"),
		Weights: Weights{
			BlockLimit:       1_000_000,
			ServiceBase:      10,
			SlotBase:         5,
			SingleExpiration: 20,
		},
	}
}

// Limits returns the bounds of the order book indices.
func (c Config) Limits() datalayer.Limits {
	return datalayer.Limits{
		MaxOrdersPerUser:          c.MaxOrdersPerUser,
		MaxOrdersPerPrice:         c.MaxOrdersPerPrice,
		MaxSidePriceCount:         c.MaxSidePriceCount,
		MaxExpiringOrdersPerBlock: c.MaxExpiringOrdersPerBlock,
	}
}

func (c Config) maxPriceShift() *num.Uint {
	if c.MaxPriceShift.Uint == nil || c.MaxPriceShift.IsZero() {
		return nil
	}
	return c.MaxPriceShift.Get()
}
