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

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/cucumber/godog"
)

// TheOrderBookShouldHaveTheFollowingVolumes checks aggregated levels. A
// zero volume means the level must not exist.
func TheOrderBookShouldHaveTheFollowingVolumes(exec Execution, book string, table *godog.Table) error {
	id, err := types.OrderBookIDFromString(book)
	if err != nil {
		return err
	}
	for _, row := range StrictParseTable(table, []string{"side", "price", "volume"}, nil) {
		side := row.MustSide("side")
		price := row.MustBalance("price")
		expected := row.MustBalance("volume")

		ms, err := exec.GetAggregatedSide(id, side)
		if err != nil {
			return err
		}
		got := ms.Get(price)
		if got == nil {
			got = num.UintZero()
		}
		if !got.EQ(expected) {
			return formatDiff(fmt.Sprintf("volume of %s at %s did not match", side.String(), num.BalanceToString(price)),
				map[string]string{"volume": num.BalanceToString(expected)},
				map[string]string{"volume": num.BalanceToString(got)},
			)
		}
	}
	return nil
}

// TheFollowingOrdersShouldRest checks the remaining amount of placed
// orders. An empty amount means the order must be gone.
func TheFollowingOrdersShouldRest(exec Execution, refs *OrderReferences, table *godog.Table) error {
	for _, row := range StrictParseTable(table, []string{"reference", "amount"}, nil) {
		reference := row.MustStr("reference")
		ref, ok := refs.get(reference)
		if !ok {
			return fmt.Errorf("unknown order reference %q", reference)
		}
		order, err := exec.GetLimitOrder(ref.OrderBookID, ref.OrderID)
		if row.Str("amount") == "" {
			if err == nil {
				return fmt.Errorf("order %q should not exist", reference)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("order %q should rest: %w", reference, err)
		}
		if expected := row.MustBalance("amount"); !expected.EQ(order.Amount) {
			return formatDiff(fmt.Sprintf("order %q did not match", reference),
				map[string]string{"amount": num.BalanceToString(expected)},
				map[string]string{"amount": num.BalanceToString(order.Amount)},
			)
		}
	}
	return nil
}
