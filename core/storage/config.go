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
	"github.com/sora-xor/sora2-network-sub006/libs/config/encoding"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

const (
	namedLogger = "storage"

	BackendMemory    = "memory"
	BackendGoLevelDB = "goleveldb"
	BackendPebble    = "pebble"
)

// Config represents the configuration of the store.
type Config struct {
	Level     encoding.LogLevel `long:"log-level"`
	Backend   string            `long:"backend" description:"one of memory, goleveldb or pebble"`
	Path      string            `long:"path" description:"directory of the on disk backends"`
	CacheSize int               `long:"cache-size" description:"number of records kept in the read cache, 0 disables it"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:     encoding.LogLevel{Level: logging.InfoLevel},
		Backend:   BackendMemory,
		CacheSize: 4096,
	}
}
