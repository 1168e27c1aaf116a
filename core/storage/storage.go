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

package storage

import (
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/pkg/errors"
)

// New opens the store described by the configuration.
func New(log *logging.Logger, cfg Config) (KV, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	var (
		kv  KV
		err error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		kv = NewMemStore()
	case BackendGoLevelDB:
		if cfg.Path == "" {
			return nil, ErrMissingDataPath
		}
		kv, err = NewLevelDBStore(cfg.Path)
	case BackendPebble:
		if cfg.Path == "" {
			return nil, ErrMissingDataPath
		}
		kv, err = NewPebbleStore(cfg.Path)
	default:
		return nil, errors.Wrap(ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("store opened",
		logging.String("backend", cfg.Backend),
		logging.String("path", cfg.Path),
		logging.Int("cache-size", cfg.CacheSize),
	)

	if cfg.CacheSize <= 0 {
		return kv, nil
	}
	return NewCachedStore(kv, cfg.CacheSize)
}
