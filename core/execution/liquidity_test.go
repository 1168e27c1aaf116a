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

package execution_test

import (
	"testing"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanExchange(t *testing.T) {
	te := getTestEngine(t)
	te.createBook(t, bookID)

	assert.True(t, te.CanExchange(0, "XOR", "VAL"))
	assert.True(t, te.CanExchange(0, "VAL", "XOR"))
	assert.False(t, te.CanExchange(0, "XOR", "PSWAP"))
	assert.False(t, te.CanExchange(0, "XOR", "XOR"))
	assert.False(t, te.CanExchange(1, "XOR", "VAL"))

	require.NoError(t, te.ChangeOrderBookStatus(te.ctx(), bookID, types.OrderBookStatusPlaceAndCancel))
	assert.False(t, te.CanExchange(0, "XOR", "VAL"))

	_, err := te.QuoteSwap(te.ctx(), 0, "XOR", "VAL", types.NewSwapWithDesiredInput(num.MustBalance("1"), num.UintZero()), false)
	assert.ErrorIs(t, err, types.ErrTradingForbidden)
	_, err = te.QuoteSwap(te.ctx(), 0, "XOR", "PSWAP", types.NewSwapWithDesiredInput(num.MustBalance("1"), num.UintZero()), false)
	assert.ErrorIs(t, err, types.ErrOrderBookNotFound)
}

func TestQuoteSwap(t *testing.T) {
	te := getTestEngine(t)
	te.createBook(t, bookID)
	te.deposit(t, "alice", "VAL", "10")
	te.deposit(t, "bob", "XOR", "100")
	te.place(t, "alice", types.SideSell, "10", "10")
	te.place(t, "bob", types.SideBuy, "8", "10")

	t.Run("quote in, base out", func(t *testing.T) {
		deal, err := te.QuoteSwap(te.ctx(), 0, "XOR", "VAL", types.NewSwapWithDesiredInput(num.MustBalance("50"), num.UintZero()), false)
		require.NoError(t, err)
		assert.Equal(t, types.SideBuy, deal.Side)
		assert.Equal(t, "50", num.BalanceToString(deal.InputAmount))
		assert.Equal(t, "5", num.BalanceToString(deal.OutputAmount))
		assert.Equal(t, "10", num.BalanceToString(deal.AveragePrice))
		assert.True(t, deal.IsValid())
	})

	t.Run("leftover quote below a step is not spent", func(t *testing.T) {
		deal, err := te.QuoteSwap(te.ctx(), 0, "XOR", "VAL", types.NewSwapWithDesiredInput(num.MustBalance("50.00005"), num.UintZero()), false)
		require.NoError(t, err)
		assert.Equal(t, "5", num.BalanceToString(deal.OutputAmount))
		assert.Equal(t, "50", num.BalanceToString(deal.InputAmount))
	})

	t.Run("base in, quote out", func(t *testing.T) {
		deal, err := te.QuoteSwap(te.ctx(), 0, "VAL", "XOR", types.NewSwapWithDesiredInput(num.MustBalance("2"), num.UintZero()), false)
		require.NoError(t, err)
		assert.Equal(t, types.SideSell, deal.Side)
		assert.Equal(t, "16", num.BalanceToString(deal.OutputAmount))
	})

	t.Run("desired output", func(t *testing.T) {
		deal, err := te.QuoteSwap(te.ctx(), 0, "XOR", "VAL", types.NewSwapWithDesiredOutput(num.MustBalance("3"), num.UintZero()), false)
		require.NoError(t, err)
		assert.Equal(t, "30", num.BalanceToString(deal.InputAmount))
	})
}

func TestExchange(t *testing.T) {
	setup := func(t *testing.T) *testEngine {
		t.Helper()
		te := getTestEngine(t)
		te.createBook(t, bookID)
		te.deposit(t, "alice", "VAL", "10")
		te.deposit(t, "carol", "XOR", "100")
		te.place(t, "alice", types.SideSell, "10", "10")
		return te
	}

	t.Run("slippage limit", func(t *testing.T) {
		te := setup(t)
		_, err := te.Exchange(te.ctx(), "carol", "dave", 0, "XOR", "VAL", types.NewSwapWithDesiredOutput(num.MustBalance("5"), num.MustBalance("49")))
		assert.ErrorIs(t, err, types.ErrSlippageLimitExceeded)
		assert.Equal(t, "100", te.balance("carol", "XOR"))
		assert.Equal(t, "0", te.balance("dave", "VAL"))
		te.assertAggregates(t, bookID)

		_, err = te.Exchange(te.ctx(), "carol", "dave", 0, "XOR", "VAL", types.NewSwapWithDesiredInput(num.MustBalance("50"), num.MustBalance("5.1")))
		assert.ErrorIs(t, err, types.ErrSlippageLimitExceeded)
	})

	t.Run("the receiver gets the output", func(t *testing.T) {
		te := setup(t)
		deal, err := te.Exchange(te.ctx(), "carol", "dave", 0, "XOR", "VAL", types.NewSwapWithDesiredOutput(num.MustBalance("5"), num.MustBalance("50")))
		require.NoError(t, err)
		assert.Equal(t, "50", num.BalanceToString(deal.InputAmount))
		assert.Equal(t, "50", te.balance("carol", "XOR"))
		assert.Equal(t, "5", te.balance("dave", "VAL"))
		assert.Equal(t, "0", te.balance("carol", "VAL"))
		assert.Equal(t, "50", te.balance("alice", "XOR"))
		te.assertAggregates(t, bookID)
	})

	t.Run("quote and exchange agree", func(t *testing.T) {
		te := setup(t)
		amount := types.NewSwapWithDesiredInput(num.MustBalance("33.33333"), num.UintZero())
		quoted, err := te.QuoteSwap(te.ctx(), 0, "XOR", "VAL", amount, false)
		require.NoError(t, err)
		deal, err := te.Exchange(te.ctx(), "carol", "carol", 0, "XOR", "VAL", amount)
		require.NoError(t, err)
		assert.Equal(t, quoted.InputAmount.String(), deal.InputAmount.String())
		assert.Equal(t, quoted.OutputAmount.String(), deal.OutputAmount.String())
		assert.Equal(t, "3.33333", num.BalanceToString(deal.OutputAmount))
	})
}
