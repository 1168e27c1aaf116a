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

package core_test

import (
	"context"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/blocktime"
	"github.com/sora-xor/sora2-network-sub006/core/collateral"
	"github.com/sora-xor/sora2-network-sub006/core/execution"
	"github.com/sora-xor/sora2-network-sub006/core/integration/steps"
	"github.com/sora-xor/sora2-network-sub006/core/integration/stubs"
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/core/tradingpairs"
	vgcontext "github.com/sora-xor/sora2-network-sub006/libs/context"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

var execsetup *executionTestSetup

var genesis = time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)

type executionTestSetup struct {
	cfg              execution.Config
	log              *logging.Logger
	store            storage.KV
	blockTime        *blocktime.Svc
	broker           *stubs.BrokerStub
	collateralEngine *collateral.Engine
	tradingPairs     *tradingpairs.Registry
	executionEngine  *execution.Engine

	refs *steps.OrderReferences
}

func newExecutionTestSetup() *executionTestSetup {
	execsetup = &executionTestSetup{}
	execsetup.cfg = execution.NewDefaultConfig()
	execsetup.log = logging.NewTestLogger()
	execsetup.store = storage.NewMemStore()
	execsetup.blockTime = blocktime.New(execsetup.log, blocktime.NewDefaultConfig())
	execsetup.broker = stubs.NewBrokerStub()
	execsetup.collateralEngine = collateral.New(execsetup.log, collateral.NewDefaultConfig())
	execsetup.refs = steps.NewOrderReferences()

	pairsCfg := tradingpairs.NewDefaultConfig()
	pairsCfg.Pairs = []string{"0:VAL/XOR", "0:PSWAP/XOR", "1:VAL/XSTUSD"}
	pairs, err := tradingpairs.New(execsetup.log, pairsCfg)
	if err != nil {
		panic(err)
	}
	execsetup.tradingPairs = pairs

	execsetup.executionEngine = execution.NewEngine(
		execsetup.log,
		execsetup.cfg,
		execsetup.store,
		execsetup.collateralEngine,
		execsetup.tradingPairs,
		execsetup.blockTime,
		execsetup.broker,
	)

	execsetup.blockTime.NotifyOnBlock(execsetup.executionEngine.OnBlock)
	execsetup.blockTime.OnBlock(context.Background(), 1, genesis)
	return execsetup
}

// setBlockLimit changes the weight the expiration service gets per block.
func (e *executionTestSetup) setBlockLimit(limit uint64) {
	e.cfg.Weights.BlockLimit = limit
	e.executionEngine.ReloadConf(e.cfg)
}

func (e *executionTestSetup) ctx() context.Context {
	return vgcontext.WithBlockHeight(context.Background(), e.blockTime.GetBlockHeight())
}

// moveAhead starts n new blocks, one block time apart.
func (e *executionTestSetup) moveAhead(n uint64) {
	for i := uint64(0); i < n; i++ {
		height := e.blockTime.GetBlockHeight() + 1
		now := e.blockTime.GetTimeNow().Add(e.cfg.BlockTime.Duration)
		e.blockTime.OnBlock(context.Background(), height, now)
	}
}
