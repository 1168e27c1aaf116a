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

package events_test

import (
	"context"
	"testing"

	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	vgcontext "github.com/sora-xor/sora2-network-sub006/libs/context"
	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var bookID = types.NewOrderBookID(0, "XOR", "VAL")

func TestEventBase(t *testing.T) {
	ctx := vgcontext.WithBlockHeight(context.Background(), 12)
	e := events.NewLimitOrderCanceledEvent(ctx, bookID, 3, "alice", types.CancelReasonExpired)

	assert.Equal(t, events.LimitOrderCanceledEvent, e.Type())
	assert.Equal(t, uint64(12), e.BlockNr())
	assert.Equal(t, "block-12", e.TraceID())

	e.SetSequenceID(5)
	e.SetSequenceID(6)
	assert.Equal(t, uint64(5), e.Sequence())
}

func TestStreamMessage(t *testing.T) {
	ctx := vgcontext.WithBlockHeight(context.Background(), 1)
	e := events.NewLimitOrderExecutedEvent(ctx, bookID, types.LimitOrder{
		ID:    7,
		Owner: "bob",
		Side:  types.SideSell,
		Price: num.MustBalance("10"),
	}, num.MustBalance("60"), num.MustBalance("600"))
	e.SetSequenceID(2)

	raw, err := events.Marshal(e)
	require.NoError(t, err)

	msg := &structpb.Struct{}
	require.NoError(t, proto.Unmarshal(raw, msg))
	m := msg.AsMap()
	assert.Equal(t, "1-2", m["id"])
	assert.Equal(t, "LimitOrderExecuted", m["type"])
	payload := m["payload"].(map[string]interface{})
	assert.Equal(t, "7", payload["order_id"])
	assert.Equal(t, "600", payload["quote"])
	assert.Equal(t, "Sell", payload["side"])
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "MarketOrderExecuted", events.MarketOrderExecutedEvent.String())
	assert.Equal(t, "UNKNOWN EVENT", events.Type(1000).String())
}
