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

package protocol

import (
	"context"

	"github.com/sora-xor/sora2-network-sub006/config"
	"github.com/sora-xor/sora2-network-sub006/core/blocktime"
	"github.com/sora-xor/sora2-network-sub006/core/broker"
	"github.com/sora-xor/sora2-network-sub006/core/checkpoint"
	"github.com/sora-xor/sora2-network-sub006/core/collateral"
	"github.com/sora-xor/sora2-network-sub006/core/execution"
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/core/tradingpairs"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

type allServices struct {
	ctx         context.Context
	log         *logging.Logger
	confWatcher *config.Watcher
	conf        config.Config

	store       storage.KV
	broker      *broker.Broker
	kafkaSink   *broker.KafkaSink
	timeService *blocktime.Svc

	collateral      *collateral.Engine
	tradingPairs    *tradingpairs.Registry
	executionEngine *execution.Engine
	checkpoint      *checkpoint.Engine
}

func newServices(
	ctx context.Context,
	log *logging.Logger,
	conf *config.Watcher,
) (_ *allServices, err error) {
	svcs := &allServices{
		ctx:         ctx,
		log:         log,
		confWatcher: conf,
		conf:        conf.Get(),
	}

	svcs.store, err = storage.New(svcs.log, svcs.conf.Storage)
	if err != nil {
		svcs.log.Error("unable to open the store", logging.Error(err))
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = svcs.store.Close()
		}
	}()

	svcs.broker = broker.New(svcs.ctx, svcs.log, svcs.conf.Broker)
	if svcs.conf.Broker.Kafka.Enabled {
		svcs.kafkaSink = broker.NewKafkaSink(svcs.ctx, svcs.log, svcs.conf.Broker.Kafka)
		svcs.broker.Subscribe(svcs.kafkaSink)
	}

	svcs.timeService = blocktime.New(svcs.log, svcs.conf.BlockTime)
	svcs.collateral = collateral.New(svcs.log, svcs.conf.Collateral)

	svcs.tradingPairs, err = tradingpairs.New(svcs.log, svcs.conf.TradingPairs)
	if err != nil {
		return nil, err
	}

	svcs.executionEngine = execution.NewEngine(
		svcs.log,
		svcs.conf.Execution,
		svcs.store,
		svcs.collateral,
		svcs.tradingPairs,
		svcs.timeService,
		svcs.broker,
	)

	svcs.checkpoint, err = checkpoint.New(svcs.log,
		checkpoint.NewStore(svcs.store),
		svcs.collateral,
	)
	if err != nil {
		return nil, err
	}

	svcs.registerTimeServiceCallbacks()
	svcs.registerConfigWatchers()
	return svcs, nil
}

func (svcs *allServices) registerTimeServiceCallbacks() {
	svcs.timeService.NotifyOnBlock(svcs.executionEngine.OnBlock)
}

func (svcs *allServices) registerConfigWatchers() {
	svcs.confWatcher.OnConfigUpdate(
		func(cfg config.Config) { svcs.timeService.ReloadConf(cfg.BlockTime) },
		func(cfg config.Config) { svcs.collateral.ReloadConf(cfg.Collateral) },
		func(cfg config.Config) { svcs.executionEngine.ReloadConf(cfg.Execution) },
	)
}

func (svcs *allServices) Stop() error {
	if svcs.kafkaSink != nil {
		if err := svcs.kafkaSink.Close(); err != nil {
			svcs.log.Error("unable to close the kafka sink", logging.Error(err))
		}
	}
	return svcs.store.Close()
}
