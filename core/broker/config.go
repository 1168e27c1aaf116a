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

package broker

import (
	"time"

	"github.com/sora-xor/sora2-network-sub006/libs/config/encoding"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

const namedLogger = "broker"

// Config represents the configuration of the broker.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
	Kafka KafkaConfig       `group:"Kafka" namespace:"kafka"`
}

// KafkaConfig configures the sink streaming the events to a kafka topic.
type KafkaConfig struct {
	Enabled    encoding.Bool     `long:"enabled"`
	Brokers    []string          `long:"brokers"`
	Topic      string            `long:"topic"`
	MaxRetries uint64            `long:"max-retries" description:"number of attempts to write a batch before giving up"`
	RetryDelay encoding.Duration `long:"retry-delay" description:"initial delay between two attempts"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
		Kafka: KafkaConfig{
			Enabled:    false,
			Brokers:    []string{"localhost:9092"},
			Topic:      "orderbook-events",
			MaxRetries: 5,
			RetryDelay: encoding.Duration{Duration: 100 * time.Millisecond},
		},
	}
}
