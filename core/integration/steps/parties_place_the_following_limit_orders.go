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
	"context"

	"github.com/cucumber/godog"
)

func PartiesPlaceTheFollowingLimitOrders(ctx context.Context, exec Execution, refs *OrderReferences, table *godog.Table) error {
	for _, r := range parsePlaceOrderTable(table) {
		row := placeOrderRow{row: r}
		id := row.row.MustOrderBookID("book")
		placed, err := exec.PlaceLimitOrder(ctx,
			row.Party(),
			id,
			row.row.MustBalance("price"),
			row.row.MustBalance("amount"),
			row.row.MustSide("side"),
			row.row.Duration("lifespan"),
		)
		if err := checkExpectedError(row, err); err != nil {
			return err
		}
		if err == nil {
			refs.add(row.Reference(), row.Party(), id, placed.OrderID)
		}
	}
	return nil
}

func parsePlaceOrderTable(table *godog.Table) []RowWrapper {
	return StrictParseTable(table, []string{
		"party",
		"book",
		"side",
		"price",
		"amount",
		"reference",
	}, []string{
		"lifespan",
		"error",
	})
}

type placeOrderRow struct {
	row RowWrapper
}

func (r placeOrderRow) Party() string {
	return r.row.MustStr("party")
}

func (r placeOrderRow) Error() string {
	return r.row.Str("error")
}

func (r placeOrderRow) ExpectError() bool {
	return r.row.HasColumn("error") && r.row.Str("error") != ""
}

func (r placeOrderRow) Reference() string {
	return r.row.MustStr("reference")
}
