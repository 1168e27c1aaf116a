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

package context_test

import (
	"context"
	"testing"

	vgcontext "github.com/sora-xor/sora2-network-sub006/libs/context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockHeight(t *testing.T) {
	_, err := vgcontext.BlockHeightFromContext(context.Background())
	assert.ErrorIs(t, err, vgcontext.ErrBlockHeightMissing)

	ctx := vgcontext.WithBlockHeight(context.Background(), 42)
	h, err := vgcontext.BlockHeightFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), h)
}

func TestTraceID(t *testing.T) {
	_, tID := vgcontext.TraceIDFromContext(context.Background())
	assert.Empty(t, tID)

	ctx := vgcontext.WithBlockHeight(context.Background(), 7)
	ctx, tID = vgcontext.TraceIDFromContext(ctx)
	assert.Equal(t, "block-7", tID)

	ctx = vgcontext.WithTraceID(ctx, "abc")
	_, tID = vgcontext.TraceIDFromContext(ctx)
	assert.Equal(t, "abc", tID)
}
