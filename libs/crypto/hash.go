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

package crypto

import (
	"golang.org/x/crypto/sha3"
	"google.golang.org/protobuf/encoding/protowire"
)

// Hash returns the sha3-256 digest of the given data.
func Hash(data []byte) []byte {
	h := sha3.New256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// HashFramed hashes every chunk prefixed with its varint length, so chunk
// boundaries are part of the digest.
func HashFramed(chunks ...[]byte) []byte {
	h := sha3.New256()
	buf := []byte{}
	for _, c := range chunks {
		buf = protowire.AppendBytes(buf[:0], c)
		_, _ = h.Write(buf)
	}
	return h.Sum(nil)
}
