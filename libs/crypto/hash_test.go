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

package crypto_test

import (
	"encoding/hex"
	"testing"

	"github.com/sora-xor/sora2-network-sub006/libs/crypto"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	// sha3-256 of the empty string
	assert.Equal(t,
		"a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
		hex.EncodeToString(crypto.Hash(nil)),
	)
}

func TestHashFramed(t *testing.T) {
	assert.Equal(t, crypto.HashFramed([]byte("ab"), []byte("c")), crypto.HashFramed([]byte("ab"), []byte("c")))
	assert.NotEqual(t, crypto.HashFramed([]byte("ab"), []byte("c")), crypto.HashFramed([]byte("a"), []byte("bc")))
	assert.NotEqual(t, crypto.HashFramed([]byte("a"), nil), crypto.HashFramed([]byte("a")))
	// a single chunk is its length followed by its bytes
	assert.Equal(t, crypto.Hash([]byte("\x02ab")), crypto.HashFramed([]byte("ab")))
}
