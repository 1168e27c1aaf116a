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
	"github.com/pkg/errors"
)

var (
	ErrEmptyKey        = errors.New("empty key")
	ErrUnknownBackend  = errors.New("unknown storage backend")
	ErrStopIteration   = errors.New("stop iteration")
	ErrMissingDataPath = errors.New("missing data path")
)

// OpKind tells if an Op writes or removes a key.
type OpKind uint8

const (
	OpSet OpKind = iota
	OpDelete
)

// Op is one write of an atomic batch.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

func SetOp(key, value []byte) Op {
	return Op{Kind: OpSet, Key: key, Value: value}
}

func DeleteOp(key []byte) Op {
	return Op{Kind: OpDelete, Key: key}
}

// Reader is the read side of a key value store.
type Reader interface {
	// Get returns nil without error when the key is missing.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// Iterate walks [start, end) in ascending key order until fn returns
	// false or an error. A nil bound is open.
	Iterate(start, end []byte, fn func(key, value []byte) (bool, error)) error
}

// Writer applies batches of writes atomically.
type Writer interface {
	Write(ops []Op) error
}

// KV is the store the order books live in.
type KV interface {
	Reader
	Writer
	Set(key, value []byte) error
	Delete(key []byte) error
	Close() error
}

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when there is none.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
