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
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type ErroneousRow interface {
	ExpectError() bool
	Error() string
	Reference() string
}

// checkExpectedError checks the error returned by an action against the
// "error" column of its row. A wrapped error matches on its cause too.
func checkExpectedError(row ErroneousRow, returnedErr error) error {
	if row.ExpectError() && returnedErr == nil {
		return fmt.Errorf("action on %q should have failed", row.Reference())
	}
	if returnedErr == nil {
		return nil
	}
	if !row.ExpectError() {
		return fmt.Errorf("action on %q has failed: %s", row.Reference(), returnedErr.Error())
	}
	if row.Error() != returnedErr.Error() && row.Error() != errors.Cause(returnedErr).Error() {
		return formatDiff(fmt.Sprintf("action on %q is failing as expected but not with the expected error message", row.Reference()),
			map[string]string{"error": row.Error()},
			map[string]string{"error": returnedErr.Error()},
		)
	}
	return nil
}

func formatDiff(msg string, expected, got map[string]string) error {
	var expectedStr strings.Builder
	var gotStr strings.Builder

	keys := make([]string, 0, len(expected))
	padding := 0
	for k := range expected {
		keys = append(keys, k)
		if len(k) > padding {
			padding = len(k)
		}
	}
	sort.Strings(keys)

	formatStr := "\n\t\t%-*s(%s)"
	for _, name := range keys {
		_, _ = fmt.Fprintf(&expectedStr, formatStr, padding+1, name, expected[name])
		_, _ = fmt.Fprintf(&gotStr, formatStr, padding+1, name, got[name])
	}

	return fmt.Errorf("%s\n\texpected:%s\n\tgot:%s",
		msg,
		expectedStr.String(),
		gotStr.String(),
	)
}

func errOrderNotFound(reference, party string) error {
	return fmt.Errorf("order %q of party %q was not placed", reference, party)
}
