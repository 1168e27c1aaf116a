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
	"fmt"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const levelDBName = "orderbook"

// CometStore adapts a cometbft-db database.
type CometStore struct {
	db dbm.DB
}

// NewMemStore returns a store held in memory, used by tests and
// short-lived nodes.
func NewMemStore() *CometStore {
	return &CometStore{db: dbm.NewMemDB()}
}

// NewLevelDBStore opens or creates a goleveldb database under dir.
func NewLevelDBStore(dir string) (*CometStore, error) {
	db, err := dbm.NewGoLevelDBWithOpts(
		levelDBName, dir,
		&opt.Options{
			Filter:          filter.NewBloomFilter(10),
			BlockCacher:     opt.NoCacher,
			OpenFilesCacher: opt.NoCacher,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("could not initialize LevelDB adapter: %w", err)
	}
	return &CometStore{db: db}, nil
}

func (s *CometStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return s.db.Get(key)
}

func (s *CometStore) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	return s.db.Has(key)
}

func (s *CometStore) Set(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return s.db.SetSync(key, nonNil(value))
}

func (s *CometStore) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return s.db.DeleteSync(key)
}

func (s *CometStore) Iterate(start, end []byte, fn func(key, value []byte) (bool, error)) error {
	it, err := s.db.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		cont, err := fn(copyBytes(it.Key()), copyBytes(it.Value()))
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return it.Error()
}

func (s *CometStore) Write(ops []Op) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		if len(op.Key) == 0 {
			return ErrEmptyKey
		}
		var err error
		switch op.Kind {
		case OpSet:
			err = batch.Set(op.Key, nonNil(op.Value))
		case OpDelete:
			err = batch.Delete(op.Key)
		}
		if err != nil {
			return err
		}
	}
	return batch.WriteSync()
}

func (s *CometStore) Close() error {
	return s.db.Close()
}
