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

package context

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

type (
	blockHeightKey struct{}
	traceIDKey     struct{}
)

var ErrBlockHeightMissing = errors.New("no block height set in context")

// WithBlockHeight sets the height of the block being processed.
func WithBlockHeight(ctx context.Context, height uint64) context.Context {
	return context.WithValue(ctx, blockHeightKey{}, height)
}

func BlockHeightFromContext(ctx context.Context) (uint64, error) {
	hv := ctx.Value(blockHeightKey{})
	if hv == nil {
		return 0, ErrBlockHeightMissing
	}
	h, ok := hv.(uint64)
	if !ok {
		return 0, ErrBlockHeightMissing
	}
	return h, nil
}

// WithTraceID sets the id used to correlate the logs and events of one
// operation.
func WithTraceID(ctx context.Context, tID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, tID)
}

// TraceIDFromContext returns the trace id of the context. A context without
// one gets an id derived from its block height, if any.
func TraceIDFromContext(ctx context.Context) (context.Context, string) {
	if tID, ok := ctx.Value(traceIDKey{}).(string); ok && tID != "" {
		return ctx, tID
	}
	h, err := BlockHeightFromContext(ctx)
	if err != nil {
		return ctx, ""
	}
	tID := fmt.Sprintf("block-%d", h)
	return WithTraceID(ctx, tID), tID
}
