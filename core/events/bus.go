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

package events

import (
	"context"
	"fmt"

	vgcontext "github.com/sora-xor/sora2-network-sub006/libs/context"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Type int

// Base common denominator all order book events share.
type Base struct {
	ctx     context.Context
	traceID string
	blockNr uint64
	seq     uint64
	et      Type
}

// Event is the interface of everything sent through the broker.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	Sequence() uint64
	SetSequenceID(s uint64)
	BlockNr() uint64
	StreamMessage() *structpb.Struct
}

const (
	// All is used by subscribers to receive every event, no event has it.
	All Type = iota
	OrderBookCreatedEvent
	OrderBookDeletedEvent
	OrderBookStatusChangedEvent
	OrderBookUpdatedEvent
	LimitOrderPlacedEvent
	LimitOrderConvertedToMarketEvent
	LimitOrderExecutedEvent
	LimitOrderFilledEvent
	LimitOrderUpdatedEvent
	LimitOrderCanceledEvent
	MarketOrderExecutedEvent
	ExpirationFailureEvent
)

var eventStrings = map[Type]string{
	All:                              "ALL",
	OrderBookCreatedEvent:            "OrderBookCreated",
	OrderBookDeletedEvent:            "OrderBookDeleted",
	OrderBookStatusChangedEvent:      "OrderBookStatusChanged",
	OrderBookUpdatedEvent:            "OrderBookUpdated",
	LimitOrderPlacedEvent:            "LimitOrderPlaced",
	LimitOrderConvertedToMarketEvent: "LimitOrderConvertedToMarket",
	LimitOrderExecutedEvent:          "LimitOrderExecuted",
	LimitOrderFilledEvent:            "LimitOrderFilled",
	LimitOrderUpdatedEvent:           "LimitOrderUpdated",
	LimitOrderCanceledEvent:          "LimitOrderCanceled",
	MarketOrderExecutedEvent:         "MarketOrderExecuted",
	ExpirationFailureEvent:           "ExpirationFailure",
}

func newBase(ctx context.Context, t Type) *Base {
	ctx, tID := vgcontext.TraceIDFromContext(ctx)
	h, _ := vgcontext.BlockHeightFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		blockNr: h,
		et:      t,
	}
}

// TraceID returns the trace id of the operation that emitted the event.
func (b Base) TraceID() string {
	return b.traceID
}

func (b *Base) SetSequenceID(s uint64) {
	// sequence ID can only be set once
	if b.seq != 0 {
		return
	}
	b.seq = s
}

func (b Base) Sequence() uint64 {
	return b.seq
}

func (b Base) Context() context.Context {
	return b.ctx
}

func (b Base) Type() Type {
	return b.et
}

func (b Base) BlockNr() uint64 {
	return b.blockNr
}

func (b Base) eventID() string {
	return fmt.Sprintf("%d-%d", b.blockNr, b.seq)
}

// String get string representation of event type.
func (t Type) String() string {
	s, ok := eventStrings[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}

// streamMessage wraps the payload of an event with its metadata.
func (b Base) streamMessage(payload map[string]string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(payload))
	for k, v := range payload {
		fields[k] = structpb.NewStringValue(v)
	}
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"id":       structpb.NewStringValue(b.eventID()),
			"block":    structpb.NewNumberValue(float64(b.blockNr)),
			"trace_id": structpb.NewStringValue(b.traceID),
			"type":     structpb.NewStringValue(b.et.String()),
			"payload":  structpb.NewStructValue(&structpb.Struct{Fields: fields}),
		},
	}
}

// Marshal encodes the stream message of an event.
func Marshal(e Event) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(e.StreamMessage())
}
