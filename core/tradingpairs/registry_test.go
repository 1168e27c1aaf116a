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

package tradingpairs_test

import (
	"testing"

	"github.com/sora-xor/sora2-network-sub006/core/tradingpairs"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	cfg := tradingpairs.NewDefaultConfig()
	cfg.Pairs = []string{"0:XOR/VAL", "0:XOR/PSWAP"}
	r, err := tradingpairs.New(logging.NewTestLogger(), cfg)
	require.NoError(t, err)

	t.Run("pairs from the config are registered", func(t *testing.T) {
		assert.True(t, r.IsRegistered(0, "XOR", "VAL"))
		assert.False(t, r.IsRegistered(0, "VAL", "XOR"))
		assert.False(t, r.IsRegistered(1, "XOR", "VAL"))
		assert.Equal(t, []types.OrderBookID{
			types.NewOrderBookID(0, "XOR", "PSWAP"),
			types.NewOrderBookID(0, "XOR", "VAL"),
		}, r.List())
	})

	t.Run("register and deregister", func(t *testing.T) {
		require.NoError(t, r.Register(1, "ETH", "XOR"))
		assert.ErrorIs(t, r.Register(1, "ETH", "XOR"), tradingpairs.ErrTradingPairExists)
		assert.ErrorIs(t, r.Register(1, "XOR", "XOR"), tradingpairs.ErrInvalidTradingPair)
		require.NoError(t, r.Deregister(1, "ETH", "XOR"))
		assert.ErrorIs(t, r.Deregister(1, "ETH", "XOR"), tradingpairs.ErrTradingPairDoesNotExist)
	})

	t.Run("invalid pair in the config", func(t *testing.T) {
		cfg := tradingpairs.NewDefaultConfig()
		cfg.Pairs = []string{"XOR-VAL"}
		_, err := tradingpairs.New(logging.NewTestLogger(), cfg)
		assert.ErrorIs(t, err, tradingpairs.ErrInvalidTradingPair)
	})
}
