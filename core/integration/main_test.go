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
	"flag"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/sora-xor/sora2-network-sub006/core/integration/steps"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
)

var gdOpts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "progress",
}

func init() {
	godog.BindCommandLineFlags("godog.", &gdOpts)
}

func TestMain(m *testing.M) {
	flag.Parse()
	gdOpts.Paths = flag.Args()
	if len(gdOpts.Paths) == 0 {
		gdOpts.Paths = []string{"features"}
	}

	status := godog.TestSuite{
		Name:                "orderbooks",
		ScenarioInitializer: InitializeScenario,
		Options:             &gdOpts,
	}.Run()

	if st := m.Run(); st > status {
		status = st
	}
	os.Exit(status)
}

func InitializeScenario(s *godog.ScenarioContext) {
	s.BeforeScenario(func(*godog.Scenario) {
		newExecutionTestSetup()
	})

	// Setup steps
	s.Step(`^the order books:$`, func(table *godog.Table) error {
		return steps.TheOrderBooks(execsetup.ctx(), execsetup.executionEngine, table)
	})
	s.Step(`^the status of the order book "([^"]*)" is changed to "([^"]*)"$`, func(book, status string) error {
		return steps.TheOrderBookStatusIsChangedTo(execsetup.ctx(), execsetup.executionEngine, book, status)
	})
	s.Step(`^the parties deposit the following assets:$`, func(table *godog.Table) error {
		return steps.PartiesDepositTheFollowingAssets(execsetup.ctx(), execsetup.collateralEngine, table)
	})
	s.Step(`^the expiration service has a budget of "(\d+)" per block$`, func(raw string) error {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		execsetup.setBlockLimit(limit)
		return nil
	})

	// Actions
	s.Step(`^the parties place the following limit orders:$`, func(table *godog.Table) error {
		return steps.PartiesPlaceTheFollowingLimitOrders(execsetup.ctx(), execsetup.executionEngine, execsetup.refs, table)
	})
	s.Step(`^the parties cancel the following orders:$`, func(table *godog.Table) error {
		return steps.PartiesCancelTheFollowingOrders(execsetup.ctx(), execsetup.executionEngine, execsetup.refs, table)
	})
	s.Step(`^the parties execute the following market orders:$`, func(table *godog.Table) error {
		return steps.PartiesExecuteTheFollowingMarketOrders(execsetup.ctx(), execsetup.executionEngine, table)
	})
	s.Step(`^the network moves ahead "(\d+)" blocks$`, func(raw string) error {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		execsetup.moveAhead(n)
		return nil
	})

	// Assertions
	s.Step(`^the network is at block "(\d+)"$`, func(raw string) error {
		expected, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		if got := execsetup.blockTime.GetBlockHeight(); got != expected {
			return fmt.Errorf("expected block %d, got %d", expected, got)
		}
		return nil
	})
	s.Step(`^the parties should have the following balances:$`, func(table *godog.Table) error {
		return steps.PartiesShouldHaveTheFollowingBalances(execsetup.collateralEngine, table)
	})
	s.Step(`^the order book "([^"]*)" should have the following volumes:$`, func(book string, table *godog.Table) error {
		return steps.TheOrderBookShouldHaveTheFollowingVolumes(execsetup.executionEngine, book, table)
	})
	s.Step(`^the following orders should rest:$`, func(table *godog.Table) error {
		return steps.TheFollowingOrdersShouldRest(execsetup.executionEngine, execsetup.refs, table)
	})
	s.Step(`^the following events should be emitted:$`, func(table *godog.Table) error {
		return steps.TheFollowingEventsShouldBeEmitted(execsetup.broker, table)
	})
	s.Step(`^the order "([^"]*)" should have been cancelled with reason "([^"]*)"$`, func(reference, reason string) error {
		return steps.TheOrderShouldHaveBeenCancelledFor(execsetup.broker, execsetup.refs, reference, reason)
	})
}
