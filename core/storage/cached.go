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
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore keeps the most recently read records of a store in memory.
// Writes go through to the underlying store and refresh the cache.
type CachedStore struct {
	KV
	cache *lru.Cache[string, []byte]
}

func NewCachedStore(kv KV, size int) (*CachedStore, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{
		KV:    kv,
		cache: cache,
	}, nil
}

func (s *CachedStore) Get(key []byte) ([]byte, error) {
	if v, ok := s.cache.Get(string(key)); ok {
		return v, nil
	}
	v, err := s.KV.Get(key)
	if err != nil || v == nil {
		return v, err
	}
	s.cache.Add(string(key), v)
	return v, nil
}

func (s *CachedStore) Has(key []byte) (bool, error) {
	if s.cache.Contains(string(key)) {
		return true, nil
	}
	return s.KV.Has(key)
}

func (s *CachedStore) Set(key, value []byte) error {
	if err := s.KV.Set(key, value); err != nil {
		s.cache.Remove(string(key))
		return err
	}
	s.cache.Add(string(key), nonNil(copyBytes(value)))
	return nil
}

func (s *CachedStore) Delete(key []byte) error {
	s.cache.Remove(string(key))
	return s.KV.Delete(key)
}

func (s *CachedStore) Write(ops []Op) error {
	err := s.KV.Write(ops)
	for _, op := range ops {
		if err != nil || op.Kind == OpDelete {
			s.cache.Remove(string(op.Key))
			continue
		}
		s.cache.Add(string(op.Key), nonNil(copyBytes(op.Value)))
	}
	return err
}

// Purge drops every cached record.
func (s *CachedStore) Purge() {
	s.cache.Purge()
}

func (s *CachedStore) Len() int {
	return s.cache.Len()
}
