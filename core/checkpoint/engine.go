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
	"bytes"
	"context"
	"sort"

	vgcrypto "github.com/sora-xor/sora2-network-sub006/libs/crypto"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

const namedLogger = "checkpoint"

var (
	ErrComponentWithDuplicateName = errors.New("multiple components with the same name")
	ErrUnknownCheckpointName      = errors.New("component for checkpoint not registered")
	ErrCheckpointHashMismatch     = errors.New("checkpoint hash does not match its content")
	ErrMalformedCheckpoint        = errors.New("malformed checkpoint")
)

// State is a component whose whole state can be saved and restored.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/state_mock.go -package mocks github.com/sora-xor/sora2-network-sub006/core/checkpoint State
type State interface {
	Name() string
	Checkpoint() ([]byte, error)
	Load(ctx context.Context, data []byte) error
}

// Snapshot is a compressed checkpoint with the hash of its raw content.
type Snapshot struct {
	Hash  []byte
	State []byte
}

// Marshal encodes the snapshot for storage outside of the node.
func (s *Snapshot) Marshal() []byte {
	var out []byte
	out = protowire.AppendTag(out, 1, protowire.BytesType)
	out = protowire.AppendBytes(out, s.Hash)
	out = protowire.AppendTag(out, 2, protowire.BytesType)
	out = protowire.AppendBytes(out, s.State)
	return out
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	hash, err := consumeBytes(&data, 1)
	if err != nil {
		return nil, err
	}
	state, err := consumeBytes(&data, 2)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		return nil, ErrMalformedCheckpoint
	}
	return &Snapshot{Hash: hash, State: state}, nil
}

type Engine struct {
	log        *logging.Logger
	components map[string]State
}

func New(log *logging.Logger, components ...State) (*Engine, error) {
	e := &Engine{
		log:        log.Named(namedLogger),
		components: make(map[string]State, len(components)),
	}
	if err := e.Add(components...); err != nil {
		return nil, err
	}
	return e, nil
}

// Add registers components after the engine has been created.
func (e *Engine) Add(comps ...State) error {
	for _, c := range comps {
		if err := e.addComponent(c); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) addComponent(comp State) error {
	name := comp.Name()
	c, ok := e.components[name]
	if !ok {
		e.components[name] = comp
		return nil
	}
	if c != comp {
		return errors.Wrap(ErrComponentWithDuplicateName, name)
	}
	return nil
}

func (e *Engine) names() []string {
	names := make([]string, 0, len(e.components))
	for k := range e.components {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Checkpoint collects the state of every component, in name order.
func (e *Engine) Checkpoint() (*Snapshot, error) {
	var raw []byte
	for _, name := range e.names() {
		data, err := e.components[name].Checkpoint()
		if err != nil {
			return nil, errors.Wrapf(err, "checkpoint of %s failed", name)
		}
		var entry []byte
		entry = protowire.AppendTag(entry, 1, protowire.BytesType)
		entry = protowire.AppendString(entry, name)
		entry = protowire.AppendTag(entry, 2, protowire.BytesType)
		entry = protowire.AppendBytes(entry, data)

		raw = protowire.AppendTag(raw, 1, protowire.BytesType)
		raw = protowire.AppendBytes(raw, entry)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	snap := &Snapshot{
		Hash:  vgcrypto.Hash(raw),
		State: enc.EncodeAll(raw, nil),
	}
	e.log.Info("checkpoint taken",
		logging.Hash(snap.Hash),
		logging.Int("components", len(e.components)),
		logging.Int("size", len(snap.State)),
	)
	return snap, nil
}

// Load restores every component from a snapshot. Nothing is loaded unless
// the hash matches and every entry has a registered component.
func (e *Engine) Load(ctx context.Context, snap *Snapshot) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(snap.State, nil)
	if err != nil {
		return errors.Wrap(ErrMalformedCheckpoint, err.Error())
	}
	if !bytes.Equal(vgcrypto.Hash(raw), snap.Hash) {
		return ErrCheckpointHashMismatch
	}

	type entry struct {
		name string
		data []byte
	}
	entries := []entry{}
	for len(raw) > 0 {
		msg, err := consumeBytes(&raw, 1)
		if err != nil {
			return err
		}
		name, err := consumeBytes(&msg, 1)
		if err != nil {
			return err
		}
		data, err := consumeBytes(&msg, 2)
		if err != nil {
			return err
		}
		if _, ok := e.components[string(name)]; !ok {
			return errors.Wrap(ErrUnknownCheckpointName, string(name))
		}
		entries = append(entries, entry{name: string(name), data: data})
	}

	for _, en := range entries {
		if err := e.components[en.name].Load(ctx, en.data); err != nil {
			return errors.Wrapf(err, "loading %s failed", en.name)
		}
	}
	e.log.Info("checkpoint loaded", logging.Hash(snap.Hash))
	return nil
}

func consumeBytes(data *[]byte, want protowire.Number) ([]byte, error) {
	n, typ, l := protowire.ConsumeTag(*data)
	if l < 0 || n != want || typ != protowire.BytesType {
		return nil, ErrMalformedCheckpoint
	}
	*data = (*data)[l:]
	v, l := protowire.ConsumeBytes(*data)
	if l < 0 {
		return nil, ErrMalformedCheckpoint
	}
	*data = (*data)[l:]
	return v, nil
}
