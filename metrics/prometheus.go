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

package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orderbook"

// collectors are the instruments of the order book engines.
type collectors struct {
	engineTime    *prometheus.CounterVec
	orders        *prometheus.CounterVec
	restingOrders *prometheus.GaugeVec
	marketOrders  *prometheus.CounterVec
	expirations   *prometheus.CounterVec
	serviceWeight prometheus.Histogram
}

var (
	mu sync.RWMutex
	// nil until Setup, the helpers below are no-ops until then
	active *collectors
)

func newCollectors() *collectors {
	return &collectors{
		engineTime: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_seconds_total",
			Help:      "Time spent in each engine call",
		}, []string{"orderbook", "engine", "fn"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Number of limit orders processed, by action",
		}, []string{"orderbook", "action"}),
		restingOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Number of limit orders currently resting in the book",
		}, []string{"orderbook"}),
		marketOrders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_orders_total",
			Help:      "Number of market orders executed",
		}, []string{"orderbook", "side"}),
		expirations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expirations_total",
			Help:      "Number of agenda entries serviced, by result",
		}, []string{"result"}),
		serviceWeight: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_weight_used",
			Help:      "Weight consumed by each expiration service call",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}

func (c *collectors) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.engineTime,
		c.orders,
		c.restingOrders,
		c.marketOrders,
		c.expirations,
		c.serviceWeight,
	}
}

// Start registers the instruments on the default registry and serves them
// over http, if enabled.
func Start(conf Config) error {
	if !conf.Enabled {
		return nil
	}
	if err := Setup(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(fmt.Sprintf(":%d", conf.Port), mux)
	}()
	return nil
}

// Setup registers every order book instrument on reg. Calling it again
// replaces the instruments, which tests use with a fresh registry. Nothing
// is replaced when the registration fails.
func Setup(reg prometheus.Registerer) error {
	c := newCollectors()
	for _, col := range c.all() {
		if err := reg.Register(col); err != nil {
			return err
		}
	}

	mu.Lock()
	active = c
	mu.Unlock()
	return nil
}

func with(f func(c *collectors)) {
	mu.RLock()
	defer mu.RUnlock()
	if active != nil {
		f(active)
	}
}

// OrderCounterInc increments the order counter.
func OrderCounterInc(labelValues ...string) {
	with(func(c *collectors) {
		c.orders.WithLabelValues(labelValues...).Inc()
	})
}

// RestingOrdersAdd moves the resting orders gauge by n, which may be negative.
func RestingOrdersAdd(n int, labelValues ...string) {
	with(func(c *collectors) {
		c.restingOrders.WithLabelValues(labelValues...).Add(float64(n))
	})
}

func MarketOrderCounterInc(labelValues ...string) {
	with(func(c *collectors) {
		c.marketOrders.WithLabelValues(labelValues...).Inc()
	})
}

func ExpirationCounterAdd(n int, result string) {
	if n == 0 {
		return
	}
	with(func(c *collectors) {
		c.expirations.WithLabelValues(result).Add(float64(n))
	})
}

func ServiceWeightObserve(weight uint64) {
	with(func(c *collectors) {
		c.serviceWeight.Observe(float64(weight))
	})
}

func engineTimeCounterAdd(start time.Time, labelValues ...string) {
	with(func(c *collectors) {
		c.engineTime.WithLabelValues(labelValues...).Add(time.Since(start).Seconds())
	})
}
