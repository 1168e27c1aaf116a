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

package metrics_test

import (
	"testing"

	"github.com/sora-xor/sora2-network-sub006/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSetup(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, metrics.Setup(reg))

	metrics.OrderCounterInc("0:XOR/VAL", "placed")
	metrics.OrderCounterInc("0:XOR/VAL", "placed")
	metrics.RestingOrdersAdd(2, "0:XOR/VAL")
	metrics.RestingOrdersAdd(-1, "0:XOR/VAL")
	metrics.ExpirationCounterAdd(3, "expired")
	metrics.ServiceWeightObserve(42)
	metrics.NewTimeCounter("0:XOR/VAL", "execution", "PlaceLimitOrder").EngineTimeCounterAdd()

	count, err := testutil.GatherAndCount(reg, "orderbook_orders_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "orderbook_resting_orders", "orderbook_expirations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetricsSetupTwiceOnSameRegistryFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Setup(reg))
	assert.Error(t, metrics.Setup(reg))
}
