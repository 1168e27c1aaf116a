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

package blocktime

import (
	"context"
	"time"

	"github.com/sora-xor/sora2-network-sub006/libs/config/encoding"
	vgcontext "github.com/sora-xor/sora2-network-sub006/libs/context"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

const namedLogger = "blocktime"

// Config represents the configuration of the block time service.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
}

func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
	}
}

// Svc tracks the height and timestamp of the block being processed and
// notifies the engines when a new block starts.
type Svc struct {
	log    *logging.Logger
	config Config

	height uint64
	now    time.Time

	listeners []func(context.Context, uint64, time.Time)
}

// New instantiates a new block time service.
func New(log *logging.Logger, conf Config) *Svc {
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())
	return &Svc{
		log:    log,
		config: conf,
	}
}

// ReloadConf reloads the configuration of the service.
func (s *Svc) ReloadConf(conf Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != conf.Level.Get() {
		s.log.SetLevel(conf.Level.Get())
	}
	s.config = conf
}

// OnBlock sets the current block and calls the listeners with a context
// carrying the block height.
func (s *Svc) OnBlock(ctx context.Context, height uint64, t time.Time) context.Context {
	s.height = height
	s.now = t
	ctx = vgcontext.WithBlockHeight(ctx, height)
	if s.log.IsDebug() {
		s.log.Debug("new block",
			logging.BlockHeight(height),
			logging.String("time", t.UTC().Format(time.RFC3339Nano)),
		)
	}
	for _, f := range s.listeners {
		f(ctx, height, t)
	}
	return ctx
}

// NotifyOnBlock registers a callback called at the start of every block.
func (s *Svc) NotifyOnBlock(f func(context.Context, uint64, time.Time)) {
	s.listeners = append(s.listeners, f)
}

func (s *Svc) GetBlockHeight() uint64 {
	return s.height
}

func (s *Svc) GetTimeNow() time.Time {
	return s.now
}
