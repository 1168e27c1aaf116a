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

package config

import (
	"bytes"
	"path/filepath"

	"github.com/sora-xor/sora2-network-sub006/core/blocktime"
	"github.com/sora-xor/sora2-network-sub006/core/broker"
	"github.com/sora-xor/sora2-network-sub006/core/collateral"
	"github.com/sora-xor/sora2-network-sub006/core/execution"
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/core/tradingpairs"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	vgerrors "github.com/sora-xor/sora2-network-sub006/libs/errors"
	vgfs "github.com/sora-xor/sora2-network-sub006/libs/fs"
	"github.com/sora-xor/sora2-network-sub006/logging"
	"github.com/sora-xor/sora2-network-sub006/metrics"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const configFileName = "config.toml"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config ties together all other application configuration types.
type Config struct {
	Logging      logging.Config      `group:"Logging" namespace:"logging"`
	Storage      storage.Config      `group:"Storage" namespace:"storage"`
	Broker       broker.Config       `group:"Broker" namespace:"broker"`
	Collateral   collateral.Config   `group:"Collateral" namespace:"collateral"`
	BlockTime    blocktime.Config    `group:"BlockTime" namespace:"blocktime"`
	TradingPairs tradingpairs.Config `group:"TradingPairs" namespace:"tradingpairs"`
	Execution    execution.Config    `group:"Execution" namespace:"execution"`
	Metrics      metrics.Config      `group:"Metrics" namespace:"metrics"`
}

// NewDefaultConfig returns the default configuration of every package.
// defaultStoreDirPath is where the on disk store lives when one is used.
func NewDefaultConfig(defaultStoreDirPath string) Config {
	storageConfig := storage.NewDefaultConfig()
	storageConfig.Path = filepath.Join(defaultStoreDirPath, "store")
	return Config{
		Logging:      logging.NewDefaultConfig(),
		Storage:      storageConfig,
		Broker:       broker.NewDefaultConfig(),
		Collateral:   collateral.NewDefaultConfig(),
		BlockTime:    blocktime.NewDefaultConfig(),
		TradingPairs: tradingpairs.NewDefaultConfig(),
		Execution:    execution.NewDefaultConfig(),
		Metrics:      metrics.NewDefaultConfig(),
	}
}

// Validate reports every inconsistency of the configuration at once.
func (c Config) Validate() error {
	errs := vgerrors.NewCumulatedErrors()

	switch c.Logging.Environment {
	case "dev", "test", "prod":
	default:
		errs.Add(errors.Wrapf(ErrInvalidConfig, "unknown logging environment %q", c.Logging.Environment))
	}

	switch c.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendGoLevelDB, storage.BackendPebble:
		if c.Storage.Path == "" {
			errs.Add(errors.Wrapf(ErrInvalidConfig, "storage backend %s needs a path", c.Storage.Backend))
		}
	default:
		errs.Add(errors.Wrapf(ErrInvalidConfig, "unknown storage backend %q", c.Storage.Backend))
	}
	if c.Storage.CacheSize < 0 {
		errs.Add(errors.Wrap(ErrInvalidConfig, "storage cache size must not be negative"))
	}

	if c.Broker.Kafka.Enabled {
		if len(c.Broker.Kafka.Brokers) == 0 {
			errs.Add(errors.Wrap(ErrInvalidConfig, "kafka sink enabled without brokers"))
		}
		if c.Broker.Kafka.Topic == "" {
			errs.Add(errors.Wrap(ErrInvalidConfig, "kafka sink enabled without topic"))
		}
	}

	for _, p := range c.TradingPairs.Pairs {
		if _, err := types.OrderBookIDFromString(p); err != nil {
			errs.Add(errors.Wrapf(ErrInvalidConfig, "trading pair %q", p))
		}
	}

	validateExecution(c.Execution, errs)

	if errs.HasAny() {
		return errs
	}
	return nil
}

func validateExecution(c execution.Config, errs *vgerrors.CumulatedErrors) {
	if c.BlockTime.Get() <= 0 {
		errs.Add(errors.Wrap(ErrInvalidConfig, "execution block time must be positive"))
	}
	if c.MinOrderLifespan.Get() <= 0 || c.MinOrderLifespan.Get() > c.MaxOrderLifespan.Get() {
		errs.Add(errors.Wrap(ErrInvalidConfig, "execution order lifespans must satisfy 0 < min <= max"))
	}
	if c.ExpirationGranularity == 0 {
		errs.Add(errors.Wrap(ErrInvalidConfig, "execution expiration granularity must be at least 1"))
	}
	for name, v := range map[string]int{
		"max orders per user":           c.MaxOrdersPerUser,
		"max orders per price":          c.MaxOrdersPerPrice,
		"max side price count":          c.MaxSidePriceCount,
		"max expiring orders per block": c.MaxExpiringOrdersPerBlock,
	} {
		if v < 0 {
			errs.Add(errors.Wrapf(ErrInvalidConfig, "execution %s must not be negative", name))
		}
	}
	if c.Weights.BlockLimit < c.Weights.ServiceBase {
		errs.Add(errors.Wrap(ErrInvalidConfig, "execution block weight limit cannot cover the expiration service"))
	}
	if err := types.ValidateAttributes(
		c.DefaultTickSize.Get(),
		c.DefaultStepLotSize.Get(),
		c.DefaultMinLotSize.Get(),
		c.DefaultMaxLotSize.Get(),
	); err != nil {
		errs.Add(errors.Wrap(err, "execution default order book attributes"))
	}
}

// Read loads the configuration file of rootPath over the defaults and
// validates it.
func Read(rootPath string) (*Config, error) {
	cfg := NewDefaultConfig(rootPath)
	if err := decodeFile(filepath.Join(rootPath, configFileName), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	buf, err := vgfs.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := toml.Decode(string(buf), cfg); err != nil {
		return errors.Wrapf(err, "could not decode %s", path)
	}
	return nil
}

// Write saves cfg as the configuration file of rootPath.
func Write(rootPath string, cfg Config) error {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "could not encode configuration")
	}
	return vgfs.WriteFile(filepath.Join(rootPath, configFileName), buf.Bytes())
}
