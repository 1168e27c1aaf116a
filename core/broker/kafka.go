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
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of a kafka writer the sink uses.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/message_writer_mock.go -package mocks github.com/sora-xor/sora2-network-sub006/core/broker MessageWriter
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink is a required subscriber streaming every event to a kafka
// topic. Writes are retried with an exponential backoff, a batch that still
// fails is logged and dropped.
type KafkaSink struct {
	ctx    context.Context
	log    *logging.Logger
	cfg    KafkaConfig
	writer MessageWriter

	mu     sync.Mutex
	id     int
	ch     chan []events.Event
	closed chan struct{}
	skip   chan struct{}
	once   sync.Once
}

func NewKafkaSink(ctx context.Context, log *logging.Logger, cfg KafkaConfig) *KafkaSink {
	return NewKafkaSinkWithWriter(ctx, log, cfg, &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func NewKafkaSinkWithWriter(ctx context.Context, log *logging.Logger, cfg KafkaConfig, w MessageWriter) *KafkaSink {
	return &KafkaSink{
		ctx:    ctx,
		log:    log.Named("kafka-sink"),
		cfg:    cfg,
		writer: w,
		ch:     make(chan []events.Event),
		closed: make(chan struct{}),
		skip:   make(chan struct{}),
	}
}

func (s *KafkaSink) Push(evts ...events.Event) {
	msgs := make([]kafka.Message, 0, len(evts))
	for _, e := range evts {
		value, err := events.Marshal(e)
		if err != nil {
			s.log.Error("could not marshal event",
				logging.String("event", e.Type().String()),
				logging.Error(err),
			)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(e.BlockNr(), 10)),
			Value: value,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type().String())},
			},
		})
	}
	if len(msgs) == 0 {
		return
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.RetryDelay.Get()
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, s.cfg.MaxRetries), s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	err := backoff.Retry(func() error {
		return s.writer.WriteMessages(s.ctx, msgs...)
	}, policy)
	if err != nil {
		s.log.Error("could not write events to kafka",
			logging.String("topic", s.cfg.Topic),
			logging.Int("count", len(msgs)),
			logging.Error(err),
		)
	}
}

func (s *KafkaSink) Skip() <-chan struct{} {
	return s.skip
}

func (s *KafkaSink) Closed() <-chan struct{} {
	return s.closed
}

func (s *KafkaSink) C() chan<- []events.Event {
	return s.ch
}

// Types is empty, the sink streams every event.
func (s *KafkaSink) Types() []events.Type {
	return nil
}

func (s *KafkaSink) SetID(id int) {
	s.id = id
}

func (s *KafkaSink) ID() int {
	return s.id
}

func (s *KafkaSink) Ack() bool {
	return true
}

// Close stops the sink and closes the writer.
func (s *KafkaSink) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		defer s.mu.Unlock()
		err = s.writer.Close()
	})
	return err
}
