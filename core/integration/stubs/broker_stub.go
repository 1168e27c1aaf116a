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

package stubs

import (
	"sync"

	"github.com/sora-xor/sora2-network-sub006/core/events"
)

// BrokerStub keeps every event sent by the engines, in order.
type BrokerStub struct {
	mu   sync.Mutex
	evts []events.Event
	seq  uint64
}

func NewBrokerStub() *BrokerStub {
	return &BrokerStub{}
}

func (b *BrokerStub) Send(e events.Event) {
	b.mu.Lock()
	b.seq++
	e.SetSequenceID(b.seq)
	b.evts = append(b.evts, e)
	b.mu.Unlock()
}

func (b *BrokerStub) SendBatch(evts []events.Event) {
	for _, e := range evts {
		b.Send(e)
	}
}

func (b *BrokerStub) GetEvents() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Event, len(b.evts))
	copy(out, b.evts)
	return out
}

// GetByType returns the events of one type, in the order they were sent.
func (b *BrokerStub) GetByType(t events.Type) []events.Event {
	out := []events.Event{}
	for _, e := range b.GetEvents() {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

func (b *BrokerStub) Reset() {
	b.mu.Lock()
	b.evts = nil
	b.mu.Unlock()
}
