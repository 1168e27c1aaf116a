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
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/cucumber/godog"
)

// StrictParseTable maps every row of the table to its header and fails
// on columns that are neither required nor optional.
func StrictParseTable(table *godog.Table, required, optional []string) []RowWrapper {
	header := table.Rows[0]
	allowed := map[string]struct{}{}
	for _, c := range append(required, optional...) {
		allowed[c] = struct{}{}
	}
	present := map[string]struct{}{}
	for _, c := range header.Cells {
		if _, ok := allowed[c.Value]; !ok {
			panic(fmt.Errorf("column %q is not supported", c.Value))
		}
		present[c.Value] = struct{}{}
	}
	for _, c := range required {
		if _, ok := present[c]; !ok {
			panic(fmt.Errorf("column %q is required", c))
		}
	}

	out := make([]RowWrapper, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		wrapper := RowWrapper{values: map[string]string{}}
		for i := range row.Cells {
			wrapper.values[header.Cells[i].Value] = row.Cells[i].Value
		}
		out = append(out, wrapper)
	}
	return out
}

type RowWrapper struct {
	values map[string]string
}

func (r RowWrapper) HasColumn(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r RowWrapper) MustStr(name string) string {
	v, ok := r.values[name]
	if !ok {
		panic(fmt.Errorf("column %q not found", name))
	}
	return v
}

func (r RowWrapper) Str(name string) string {
	return r.values[name]
}

func (r RowWrapper) MustU64(name string) uint64 {
	v, err := strconv.ParseUint(r.MustStr(name), 10, 0)
	panicW(name, err)
	return v
}

func (r RowWrapper) MustBalance(name string) *num.Uint {
	v, err := num.BalanceFromString(r.MustStr(name))
	panicW(name, err)
	return v
}

func (r RowWrapper) MustSide(name string) types.Side {
	side, err := Side(r.MustStr(name))
	panicW(name, err)
	return side
}

func (r RowWrapper) MustOrderBookID(name string) types.OrderBookID {
	id, err := types.OrderBookIDFromString(r.MustStr(name))
	panicW(name, err)
	return id
}

func (r RowWrapper) MustStatus(name string) types.OrderBookStatus {
	status, err := Status(r.MustStr(name))
	panicW(name, err)
	return status
}

// Duration returns nil when the column is absent or empty.
func (r RowWrapper) Duration(name string) *time.Duration {
	if r.Str(name) == "" {
		return nil
	}
	d, err := time.ParseDuration(r.Str(name))
	panicW(name, err)
	return &d
}

func Side(s string) (types.Side, error) {
	switch s {
	case "buy":
		return types.SideBuy, nil
	case "sell":
		return types.SideSell, nil
	default:
		return types.SideUnspecified, fmt.Errorf("invalid side %q", s)
	}
}

func Status(s string) (types.OrderBookStatus, error) {
	for st := types.OrderBookStatusTrade; st <= types.OrderBookStatusStop; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return types.OrderBookStatusUnspecified, fmt.Errorf("invalid order book status %q", s)
}

func panicW(field string, err error) {
	if err != nil {
		panic(fmt.Errorf("couldn't parse %s: %w", field, err))
	}
}
