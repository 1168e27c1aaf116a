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
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

// PebbleStore is a store backed by a pebble database.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "could not open pebble database")
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return nonNil(copyBytes(val)), nil
}

func (s *PebbleStore) Has(key []byte) (bool, error) {
	val, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return val != nil, nil
}

func (s *PebbleStore) Set(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return s.db.Set(key, value, pebble.Sync)
}

func (s *PebbleStore) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return s.db.Delete(key, pebble.Sync)
}

func (s *PebbleStore) Iterate(start, end []byte, fn func(key, value []byte) (bool, error)) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		cont, err := fn(copyBytes(iter.Key()), nonNil(copyBytes(iter.Value())))
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return iter.Error()
}

func (s *PebbleStore) Write(ops []Op) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		if len(op.Key) == 0 {
			return ErrEmptyKey
		}
		var err error
		switch op.Kind {
		case OpSet:
			err = batch.Set(op.Key, op.Value, nil)
		case OpDelete:
			err = batch.Delete(op.Key, nil)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}
