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

func PartiesDepositTheFollowingAssets(ctx context.Context, coll Collateral, table *godog.Table) error {
	for _, row := range StrictParseTable(table, []string{"party", "asset", "amount"}, nil) {
		if err := coll.Deposit(ctx, row.MustStr("party"), row.MustStr("asset"), row.MustBalance("amount")); err != nil {
			return err
		}
	}
	return nil
}
