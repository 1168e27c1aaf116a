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

package blocktime_test

import (
	"context"
	"testing"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/blocktime"
	vgcontext "github.com/sora-xor/sora2-network-sub006/libs/context"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnBlock(t *testing.T) {
	svc := blocktime.New(logging.NewTestLogger(), blocktime.NewDefaultConfig())
	now := time.Unix(1700000000, 0).UTC()

	var (
		calls      int
		seenHeight uint64
	)
	svc.NotifyOnBlock(func(ctx context.Context, height uint64, ts time.Time) {
		calls++
		h, err := vgcontext.BlockHeightFromContext(ctx)
		require.NoError(t, err)
		seenHeight = h
		assert.Equal(t, height, h)
		assert.Equal(t, now, ts)
	})

	ctx := svc.OnBlock(context.Background(), 42, now)

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(42), seenHeight)
	assert.Equal(t, uint64(42), svc.GetBlockHeight())
	assert.Equal(t, now, svc.GetTimeNow())
	h, err := vgcontext.BlockHeightFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), h)
}
