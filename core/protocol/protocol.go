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
	"time"

	"github.com/sora-xor/sora2-network-sub006/config"
	"github.com/sora-xor/sora2-network-sub006/core/broker"
	"github.com/sora-xor/sora2-network-sub006/core/checkpoint"
	"github.com/sora-xor/sora2-network-sub006/core/collateral"
	"github.com/sora-xor/sora2-network-sub006/core/execution"
	"github.com/sora-xor/sora2-network-sub006/core/tradingpairs"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

// Protocol holds every engine of a node and feeds them the blocks.
type Protocol struct {
	log *logging.Logger

	confWatcher *config.Watcher
	services    *allServices
}

func New(
	ctx context.Context,
	confWatcher *config.Watcher,
	log *logging.Logger,
) (p *Protocol, err error) {
	defer func() {
		if err != nil {
			log.Error("unable to start protocol", logging.Error(err))
		}
	}()

	svcs, err := newServices(ctx, log, confWatcher)
	if err != nil {
		return nil, err
	}

	return &Protocol{
		log:         log,
		confWatcher: confWatcher,
		services:    svcs,
	}, nil
}

// BeginBlock starts a new block. The returned context carries its height
// and is meant for the operations applied in the block.
func (n *Protocol) BeginBlock(ctx context.Context, height uint64, t time.Time) context.Context {
	return n.services.timeService.OnBlock(ctx, height, t)
}

func (n *Protocol) BlockHeight() uint64 {
	return n.services.timeService.GetBlockHeight()
}

func (n *Protocol) Checkpoint() (*checkpoint.Snapshot, error) {
	return n.services.checkpoint.Checkpoint()
}

func (n *Protocol) LoadCheckpoint(ctx context.Context, snap *checkpoint.Snapshot) error {
	return n.services.checkpoint.Load(ctx, snap)
}

// Stop releases the resources of every service.
func (n *Protocol) Stop() error {
	n.log.Info("stopping protocol services")
	return n.services.Stop()
}

func (n *Protocol) GetExecutionEngine() *execution.Engine {
	return n.services.executionEngine
}

func (n *Protocol) GetCollateral() *collateral.Engine {
	return n.services.collateral
}

func (n *Protocol) GetTradingPairs() *tradingpairs.Registry {
	return n.services.tradingPairs
}

func (n *Protocol) GetBroker() *broker.Broker {
	return n.services.broker
}
