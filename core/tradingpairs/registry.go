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

package tradingpairs

import (
	"sort"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/config/encoding"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/pkg/errors"
)

const namedLogger = "tradingpairs"

var (
	ErrTradingPairExists       = errors.New("trading pair already registered")
	ErrTradingPairDoesNotExist = errors.New("trading pair does not exist")
	ErrInvalidTradingPair      = errors.New("trading pair invalid")
)

// Config represents the configuration of the trading pair registry.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	// Pairs are registered when the registry starts, as "dex:base/quote".
	Pairs []string `long:"pairs"`
}

func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Pairs: []string{},
	}
}

// Registry holds the trading pairs order books can be created for. A pair
// is identified the same way as an order book.
type Registry struct {
	log *logging.Logger
	cfg Config

	pairs map[types.OrderBookID]struct{}
}

func New(log *logging.Logger, cfg Config) (*Registry, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	r := &Registry{
		log:   log,
		cfg:   cfg,
		pairs: map[types.OrderBookID]struct{}{},
	}
	for _, p := range cfg.Pairs {
		id, err := types.OrderBookIDFromString(p)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidTradingPair, "%q", p)
		}
		if err := r.Register(id.DEXID, id.Base, id.Quote); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a pair to the registry.
func (r *Registry) Register(dexID uint32, base, quote string) error {
	if base == "" || quote == "" || base == quote {
		return ErrInvalidTradingPair
	}
	id := types.NewOrderBookID(dexID, base, quote)
	if _, ok := r.pairs[id]; ok {
		return ErrTradingPairExists
	}
	r.pairs[id] = struct{}{}
	r.log.Info("trading pair registered", logging.OrderBookID(id))
	return nil
}

func (r *Registry) Deregister(dexID uint32, base, quote string) error {
	id := types.NewOrderBookID(dexID, base, quote)
	if _, ok := r.pairs[id]; !ok {
		return ErrTradingPairDoesNotExist
	}
	delete(r.pairs, id)
	return nil
}

func (r *Registry) IsRegistered(dexID uint32, base, quote string) bool {
	_, ok := r.pairs[types.NewOrderBookID(dexID, base, quote)]
	return ok
}

// List returns every registered pair in order book id order.
func (r *Registry) List() []types.OrderBookID {
	out := make([]types.OrderBookID, 0, len(r.pairs))
	for id := range r.pairs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
