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

package datalayer

import (
	"bytes"
	"sort"

	"github.com/sora-xor/sora2-network-sub006/core/storage"
)

// Backend is what a data layer reads from and writes to. A store and a
// cached data layer are both backends so caches can be stacked.
type Backend interface {
	storage.Reader
	storage.Writer
}

type dirtyEntry struct {
	value   []byte
	deleted bool
}

// overlay buffers reads and writes on top of a parent backend until they
// are committed in one batch or dropped.
type overlay struct {
	parent Backend
	dirty  map[string]dirtyEntry
	reads  map[string][]byte
}

func newOverlay(parent Backend) *overlay {
	return &overlay{
		parent: parent,
		dirty:  map[string]dirtyEntry{},
		reads:  map[string][]byte{},
	}
}

func (o *overlay) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, storage.ErrEmptyKey
	}
	if e, ok := o.dirty[string(key)]; ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	if v, ok := o.reads[string(key)]; ok {
		return v, nil
	}
	v, err := o.parent.Get(key)
	if err != nil {
		return nil, err
	}
	o.reads[string(key)] = v
	return v, nil
}

func (o *overlay) Has(key []byte) (bool, error) {
	v, err := o.Get(key)
	return v != nil, err
}

func inRange(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	return end == nil || bytes.Compare(key, end) < 0
}

func (o *overlay) Iterate(start, end []byte, fn func(key, value []byte) (bool, error)) error {
	merged := map[string][]byte{}
	err := o.parent.Iterate(start, end, func(k, v []byte) (bool, error) {
		merged[string(k)] = v
		return true, nil
	})
	if err != nil {
		return err
	}
	for k, e := range o.dirty {
		if !inRange([]byte(k), start, end) {
			continue
		}
		if e.deleted {
			delete(merged, k)
			continue
		}
		merged[k] = e.value
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cont, err := fn([]byte(k), merged[k])
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (o *overlay) Write(ops []storage.Op) error {
	for _, op := range ops {
		if len(op.Key) == 0 {
			return storage.ErrEmptyKey
		}
	}
	for _, op := range ops {
		switch op.Kind {
		case storage.OpSet:
			v := op.Value
			if v == nil {
				v = []byte{}
			}
			o.dirty[string(op.Key)] = dirtyEntry{value: v}
		case storage.OpDelete:
			o.dirty[string(op.Key)] = dirtyEntry{deleted: true}
		}
	}
	return nil
}

// pending returns the buffered writes sorted by key.
func (o *overlay) pending() []storage.Op {
	keys := make([]string, 0, len(o.dirty))
	for k := range o.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ops := make([]storage.Op, 0, len(keys))
	for _, k := range keys {
		e := o.dirty[k]
		if e.deleted {
			ops = append(ops, storage.DeleteOp([]byte(k)))
			continue
		}
		ops = append(ops, storage.SetOp([]byte(k), e.value))
	}
	return ops
}

func (o *overlay) commit() error {
	if len(o.dirty) == 0 {
		o.reset()
		return nil
	}
	if err := o.parent.Write(o.pending()); err != nil {
		return err
	}
	o.reset()
	return nil
}

func (o *overlay) reset() {
	o.dirty = map[string]dirtyEntry{}
	o.reads = map[string][]byte{}
}
