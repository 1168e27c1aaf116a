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

	"github.com/sora-xor/sora2-network-sub006/core/types"

	"github.com/cucumber/godog"
)

func TheOrderBooks(ctx context.Context, exec Execution, table *godog.Table) error {
	for _, r := range parseOrderBooksTable(table) {
		row := orderBookRow{row: r}
		_, err := exec.CreateOrderBook(ctx, row.ID(),
			row.row.MustBalance("tick size"),
			row.row.MustBalance("step lot size"),
			row.row.MustBalance("min lot size"),
			row.row.MustBalance("max lot size"),
		)
		if err := checkExpectedError(row, err); err != nil {
			return err
		}
		if err != nil || !row.row.HasColumn("status") {
			continue
		}
		if status := row.row.MustStatus("status"); status != types.OrderBookStatusTrade {
			if err := exec.ChangeOrderBookStatus(ctx, row.ID(), status); err != nil {
				return err
			}
		}
	}
	return nil
}

func TheOrderBookStatusIsChangedTo(ctx context.Context, exec Execution, book, status string) error {
	id, err := types.OrderBookIDFromString(book)
	if err != nil {
		return err
	}
	st, err := Status(status)
	if err != nil {
		return err
	}
	return exec.ChangeOrderBookStatus(ctx, id, st)
}

func parseOrderBooksTable(table *godog.Table) []RowWrapper {
	return StrictParseTable(table, []string{
		"id",
		"tick size",
		"step lot size",
		"min lot size",
		"max lot size",
	}, []string{
		"status",
		"error",
	})
}

type orderBookRow struct {
	row RowWrapper
}

func (r orderBookRow) ID() types.OrderBookID {
	return r.row.MustOrderBookID("id")
}

func (r orderBookRow) Error() string {
	return r.row.Str("error")
}

func (r orderBookRow) ExpectError() bool {
	return r.row.HasColumn("error") && r.row.Str("error") != ""
}

func (r orderBookRow) Reference() string {
	return r.row.MustStr("id")
}
