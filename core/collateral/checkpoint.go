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

package collateral

import (
	"context"

	"github.com/sora-xor/sora2-network-sub006/libs/num"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrInvalidCheckpoint = errors.New("invalid collateral checkpoint")

const checkpointName = "collateral"

func (e *Engine) Name() string {
	return checkpointName
}

// Checkpoint serialises every account, sorted, so equal ledgers give equal
// bytes.
func (e *Engine) Checkpoint() ([]byte, error) {
	var out []byte
	for _, acc := range e.Accounts() {
		var b []byte
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, acc.Owner)
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, acc.Asset)
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, acc.Balance.MinimalBytes())

		out = protowire.AppendTag(out, 1, protowire.BytesType)
		out = protowire.AppendBytes(out, b)
	}
	return out, nil
}

// Load replaces the ledger with the accounts of a checkpoint.
func (e *Engine) Load(_ context.Context, data []byte) error {
	accs := map[string]map[string]*num.Uint{}
	for len(data) > 0 {
		msg, err := consumeBytesField(&data, 1)
		if err != nil {
			return err
		}
		acc := Account{}
		for len(msg) > 0 {
			n, typ, l := protowire.ConsumeTag(msg)
			if l < 0 || typ != protowire.BytesType {
				return ErrInvalidCheckpoint
			}
			msg = msg[l:]
			v, l := protowire.ConsumeBytes(msg)
			if l < 0 {
				return ErrInvalidCheckpoint
			}
			msg = msg[l:]
			switch n {
			case 1:
				acc.Owner = string(v)
			case 2:
				acc.Asset = string(v)
			case 3:
				u, overflow := num.UintFromBytes(v)
				if overflow {
					return errors.Wrap(ErrInvalidCheckpoint, "balance overflows")
				}
				acc.Balance = u
			}
		}
		if acc.Owner == "" || acc.Asset == "" || acc.Balance == nil {
			return errors.Wrap(ErrInvalidCheckpoint, "incomplete account")
		}
		if _, ok := accs[acc.Owner]; !ok {
			accs[acc.Owner] = map[string]*num.Uint{}
		}
		accs[acc.Owner][acc.Asset] = acc.Balance
	}
	e.accs = accs
	e.log.Info("collateral restored from checkpoint")
	return nil
}

func consumeBytesField(data *[]byte, want protowire.Number) ([]byte, error) {
	n, typ, l := protowire.ConsumeTag(*data)
	if l < 0 || n != want || typ != protowire.BytesType {
		return nil, ErrInvalidCheckpoint
	}
	*data = (*data)[l:]
	v, l := protowire.ConsumeBytes(*data)
	if l < 0 {
		return nil, ErrInvalidCheckpoint
	}
	*data = (*data)[l:]
	return v, nil
}
