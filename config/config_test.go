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

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sora-xor/sora2-network-sub006/config"
	"github.com/sora-xor/sora2-network-sub006/core/storage"
	"github.com/sora-xor/sora2-network-sub006/libs/config/encoding"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.NewDefaultConfig(t.TempDir())
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
}

func TestReadOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `
[Execution]
MaxOrdersPerUser = 3
AllowPartialFill = true
MaxPriceShift = "0.25"
BlockTime = "3s"

[Execution.Weights]
SingleExpiration = 7

[TradingPairs]
Pairs = ["0:VAL/XOR"]
`)

	cfg, err := config.Read(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Execution.MaxOrdersPerUser)
	assert.Equal(t, encoding.Bool(true), cfg.Execution.AllowPartialFill)
	assert.Equal(t, "0.25", num.BalanceToString(cfg.Execution.MaxPriceShift.Get()))
	assert.Equal(t, 3*time.Second, cfg.Execution.BlockTime.Get())
	assert.Equal(t, uint64(7), cfg.Execution.Weights.SingleExpiration)
	assert.Equal(t, []string{"0:VAL/XOR"}, cfg.TradingPairs.Pairs)

	// untouched values keep their default
	assert.Equal(t, 1024, cfg.Execution.MaxOrdersPerPrice)
	assert.Equal(t, uint64(10), cfg.Execution.Weights.ServiceBase)
}

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultConfig(dir)
	cfg.Execution.ExpirationGranularity = 5
	cfg.Execution.DefaultMaxLotSize = encoding.NewBalance("500")
	cfg.Logging.Level = logging.DebugLevel
	require.NoError(t, config.Write(dir, cfg))

	got, err := config.Read(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Execution.ExpirationGranularity)
	assert.Equal(t, "500", num.BalanceToString(got.Execution.DefaultMaxLotSize.Get()))
	assert.Equal(t, logging.DebugLevel, got.Logging.Level)
	assert.Equal(t, cfg.Execution.MaxOrderLifespan.Get(), got.Execution.MaxOrderLifespan.Get())
}

func TestValidateCumulatesErrors(t *testing.T) {
	cfg := config.NewDefaultConfig(t.TempDir())
	cfg.Storage.Backend = "rocksdb"
	cfg.Execution.ExpirationGranularity = 0
	cfg.TradingPairs.Pairs = []string{"VAL-XOR"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "rocksdb")
	assert.Contains(t, err.Error(), "granularity")
	assert.Contains(t, err.Error(), "VAL-XOR")
}

func TestReadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "[Execution]\nMinOrderLifespan = \"1h\"\nMaxOrderLifespan = \"1m\"\n")
	_, err := config.Read(dir)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = config.Read(t.TempDir())
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	writeFile(t, dir, "[Execution]\nMaxOrdersPerUser = 3\n")

	w, err := config.NewWatcher(ctx, logging.NewTestLogger(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Get().Execution.MaxOrdersPerUser)

	updates := make(chan config.Config, 10)
	w.OnConfigUpdate(func(cfg config.Config) { updates <- cfg })

	writeFile(t, dir, "[Execution]\nMaxOrdersPerUser = 0\nExpirationGranularity = 0\n")
	writeFile(t, dir, "[Execution]\nMaxOrdersPerUser = 4\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-updates:
			if cfg.Execution.MaxOrdersPerUser == 4 {
				assert.Equal(t, 4, w.Get().Execution.MaxOrdersPerUser)
				return
			}
			// an invalid file is never handed out
			assert.NotEqual(t, uint64(0), cfg.Execution.ExpirationGranularity)
		case <-deadline:
			t.Fatal("configuration update not received")
		}
	}
}
