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

package checkpoint

import (
	"context"

	"github.com/sora-xor/sora2-network-sub006/core/storage"

	"google.golang.org/protobuf/encoding/protowire"
)

const storeName = "orderbooks"

// Store exposes a key value store as a checkpoint component. Its
// checkpoint is every pair in key order.
type Store struct {
	kv storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) Name() string {
	return storeName
}

func (s *Store) Checkpoint() ([]byte, error) {
	var out []byte
	err := s.kv.Iterate(nil, nil, func(key, value []byte) (bool, error) {
		out = protowire.AppendTag(out, 1, protowire.BytesType)
		out = protowire.AppendBytes(out, key)
		out = protowire.AppendTag(out, 2, protowire.BytesType)
		out = protowire.AppendBytes(out, value)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Load replaces the content of the store with the checkpointed pairs.
func (s *Store) Load(_ context.Context, data []byte) error {
	ops := []storage.Op{}
	err := s.kv.Iterate(nil, nil, func(key, _ []byte) (bool, error) {
		ops = append(ops, storage.DeleteOp(append([]byte{}, key...)))
		return true, nil
	})
	if err != nil {
		return err
	}
	for len(data) > 0 {
		key, err := consumeBytes(&data, 1)
		if err != nil {
			return err
		}
		value, err := consumeBytes(&data, 2)
		if err != nil {
			return err
		}
		ops = append(ops, storage.SetOp(key, value))
	}
	return s.kv.Write(ops)
}
