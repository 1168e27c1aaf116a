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

package steps

import (
	"fmt"
	"strconv"

	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/core/integration/stubs"

	"github.com/cucumber/godog"
)

// TheFollowingEventsShouldBeEmitted counts the events of each type sent
// since the start of the scenario.
func TheFollowingEventsShouldBeEmitted(broker *stubs.BrokerStub, table *godog.Table) error {
	counts := map[string]int{}
	for _, e := range broker.GetEvents() {
		counts[e.Type().String()]++
	}
	for _, row := range StrictParseTable(table, []string{"type", "count"}, nil) {
		typ := row.MustStr("type")
		expected := int(row.MustU64("count"))
		if counts[typ] != expected {
			return formatDiff(fmt.Sprintf("events of type %s did not match", typ),
				map[string]string{"count": strconv.Itoa(expected)},
				map[string]string{"count": strconv.Itoa(counts[typ])},
			)
		}
	}
	return nil
}

// TheOrderShouldHaveBeenCancelledFor checks the reason of the last cancel
// event of an order.
func TheOrderShouldHaveBeenCancelledFor(broker *stubs.BrokerStub, refs *OrderReferences, reference, reason string) error {
	ref, ok := refs.get(reference)
	if !ok {
		return fmt.Errorf("unknown order reference %q", reference)
	}
	var last *events.LimitOrderCanceled
	for _, e := range broker.GetByType(events.LimitOrderCanceledEvent) {
		evt := e.(*events.LimitOrderCanceled)
		if evt.OrderBookID() == ref.OrderBookID && evt.OrderID() == ref.OrderID {
			last = evt
		}
	}
	if last == nil {
		return fmt.Errorf("order %q was not cancelled", reference)
	}
	if last.Reason().String() != reason {
		return formatDiff(fmt.Sprintf("order %q was cancelled for another reason", reference),
			map[string]string{"reason": reason},
			map[string]string{"reason": last.Reason().String()},
		)
	}
	return nil
}
