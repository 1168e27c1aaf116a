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

func PartiesCancelTheFollowingOrders(ctx context.Context, exec Execution, refs *OrderReferences, table *godog.Table) error {
	for _, r := range StrictParseTable(table, []string{"party", "reference"}, []string{"error"}) {
		row := cancelOrderRow{row: r}
		ref, ok := refs.get(row.Reference())
		if !ok {
			return errOrderNotFound(row.Reference(), row.Party())
		}
		err := exec.CancelLimitOrder(ctx, row.Party(), ref.OrderBookID, ref.OrderID)
		if err := checkExpectedError(row, err); err != nil {
			return err
		}
	}
	return nil
}

type cancelOrderRow struct {
	row RowWrapper
}

func (r cancelOrderRow) Party() string {
	return r.row.MustStr("party")
}

func (r cancelOrderRow) Error() string {
	return r.row.Str("error")
}

func (r cancelOrderRow) ExpectError() bool {
	return r.row.HasColumn("error") && r.row.Str("error") != ""
}

func (r cancelOrderRow) Reference() string {
	return r.row.MustStr("reference")
}
