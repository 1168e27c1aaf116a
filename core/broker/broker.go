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
	"sort"
	"sync"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/logging"
)

// queueSize is the number of batches the broker holds before Send blocks.
const queueSize = 256

// Subscriber receives the events sent through the broker. A subscriber
// returning true from Ack is required: it gets every event through Push,
// the others through their channel and may miss events when they lag.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/subscriber_mock.go -package mocks github.com/sora-xor/sora2-network-sub006/core/broker Subscriber
type Subscriber interface {
	Push(val ...events.Event)
	Skip() <-chan struct{}
	Closed() <-chan struct{}
	C() chan<- []events.Event
	Types() []events.Type
	SetID(id int)
	ID() int
	Ack() bool
}

type subscription struct {
	Subscriber
	required bool
	// nil when the subscriber wants every type
	types map[events.Type]struct{}
}

func newSubscription(s Subscriber) *subscription {
	sub := &subscription{
		Subscriber: s,
		required:   s.Ack(),
	}
	for _, t := range s.Types() {
		if t == events.All {
			sub.types = nil
			break
		}
		if sub.types == nil {
			sub.types = map[events.Type]struct{}{}
		}
		sub.types[t] = struct{}{}
	}
	return sub
}

// filter returns the events of evts the subscriber asked for, in order.
func (s *subscription) filter(evts []events.Event) []events.Event {
	if s.types == nil {
		return evts
	}
	out := make([]events.Event, 0, len(evts))
	for _, e := range evts {
		if _, ok := s.types[e.Type()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Broker fans the events of the engines out to the subscribers. Batches are
// delivered by a single routine, in the order they were sent, to the
// subscribers in the order they subscribed.
type Broker struct {
	ctx context.Context
	log *logging.Logger

	mu     sync.RWMutex
	subs   map[int]*subscription
	lastID int

	queue chan []events.Event

	seqMu sync.Mutex
	block uint64
	seq   uint64
}

// New creates a broker delivering events until ctx is done.
func New(ctx context.Context, log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	b := &Broker{
		ctx:   ctx,
		log:   log,
		subs:  map[int]*subscription{},
		queue: make(chan []events.Event, queueSize),
	}
	go b.dispatch()
	return b
}

// Send sends an event to all subscribers.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch sends a slice of events to subscribers, keeping their order.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	// events are numbered per block, and queued under the same lock so the
	// queue stays in sequence order
	b.seqMu.Lock()
	defer b.seqMu.Unlock()
	for _, e := range evts {
		if e.BlockNr() != b.block {
			b.block = e.BlockNr()
			b.seq = 0
		}
		b.seq++
		e.SetSequenceID(b.seq)
	}
	select {
	case <-b.ctx.Done():
	case b.queue <- evts:
	}
}

func (b *Broker) dispatch() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case evts := <-b.queue:
			b.deliver(evts)
		}
	}
}

func (b *Broker) deliver(evts []events.Event) {
	var gone []int
	for _, sub := range b.subscriptions() {
		batch := sub.filter(evts)
		if len(batch) == 0 {
			continue
		}
		select {
		case <-b.ctx.Done():
			return
		case <-sub.Closed():
			gone = append(gone, sub.ID())
			continue
		case <-sub.Skip():
			continue
		default:
		}
		if sub.required {
			sub.Push(batch...)
			continue
		}
		b.sendChannel(sub, batch)
	}
	if len(gone) > 0 {
		b.Unsubscribe(gone...)
	}
}

// sendChannel hands the batch to a channel subscriber. A subscriber that
// is not ready gets one more second from a separate routine before the
// batch is dropped for it.
func (b *Broker) sendChannel(sub *subscription, evts []events.Event) {
	select {
	case sub.C() <- evts:
		return
	default:
	}

	go func() {
		timeout := time.NewTimer(time.Second)
		defer timeout.Stop()
		select {
		case <-b.ctx.Done():
		case <-sub.Closed():
			b.Unsubscribe(sub.ID())
		case sub.C() <- evts:
		case <-timeout.C:
			b.log.Debug("subscriber missed a batch of events",
				logging.Int("subscriber", sub.ID()),
				logging.Int("events", len(evts)),
			)
		}
	}()
}

// subscriptions returns the current subscriptions by subscription order.
func (b *Broker) subscriptions() []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Subscribe registers a new subscriber, returning the key.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscribe(s)
}

func (b *Broker) SubscribeBatch(subs ...Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range subs {
		b.subscribe(s)
	}
}

func (b *Broker) subscribe(s Subscriber) int {
	b.lastID++
	s.SetID(b.lastID)
	b.subs[b.lastID] = newSubscription(s)
	return b.lastID
}

// Unsubscribe removes subscribers from broker
// this does not change the state of the subscriber.
func (b *Broker) Unsubscribe(keys ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.subs, k)
	}
}
