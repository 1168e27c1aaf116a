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
	"fmt"

	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/cucumber/godog"
)

func PartiesExecuteTheFollowingMarketOrders(ctx context.Context, exec Execution, table *godog.Table) error {
	for i, r := range parseMarketOrderTable(table) {
		row := marketOrderRow{row: r, index: i}
		res, err := exec.ExecuteMarketOrder(ctx,
			row.row.MustStr("party"),
			row.row.MustOrderBookID("book"),
			row.row.MustSide("side"),
			row.row.MustBalance("amount"),
		)
		if err := checkExpectedError(row, err); err != nil {
			return err
		}
		if err != nil {
			continue
		}
		if row.row.Str("filled base") != "" {
			if expected := row.row.MustBalance("filled base"); !expected.EQ(res.FilledBase) {
				return formatDiff(fmt.Sprintf("market order of %s did not fill as expected", row.Reference()),
					map[string]string{"filled base": num.BalanceToString(expected)},
					map[string]string{"filled base": num.BalanceToString(res.FilledBase)},
				)
			}
		}
		if row.row.Str("filled quote") != "" {
			if expected := row.row.MustBalance("filled quote"); !expected.EQ(res.FilledQuote) {
				return formatDiff(fmt.Sprintf("market order of %s did not fill as expected", row.Reference()),
					map[string]string{"filled quote": num.BalanceToString(expected)},
					map[string]string{"filled quote": num.BalanceToString(res.FilledQuote)},
				)
			}
		}
	}
	return nil
}

func parseMarketOrderTable(table *godog.Table) []RowWrapper {
	return StrictParseTable(table, []string{
		"party",
		"book",
		"side",
		"amount",
	}, []string{
		"filled base",
		"filled quote",
		"error",
	})
}

type marketOrderRow struct {
	row   RowWrapper
	index int
}

func (r marketOrderRow) Error() string {
	return r.row.Str("error")
}

func (r marketOrderRow) ExpectError() bool {
	return r.row.HasColumn("error") && r.row.Str("error") != ""
}

func (r marketOrderRow) Reference() string {
	return fmt.Sprintf("%s (row %d)", r.row.MustStr("party"), r.index+1)
}
