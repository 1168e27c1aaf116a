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

package num

import (
	"errors"
	"fmt"
	"math/big"
)

// BalancePrecision is the number of decimals of every price and amount
// handled by the order books.
const BalancePrecision = 18

var (
	ErrInvalidBalance = errors.New("invalid balance")

	balanceOne = new(big.Int).Exp(big.NewInt(10), big.NewInt(BalancePrecision), nil)
)

// BalanceOne returns 1.0 in fixed point.
func BalanceOne() *Uint {
	u, _ := UintFromBig(balanceOne)
	return u
}

// BalanceFromString parses a decimal string such as "0.00001" into its
// fixed point representation. More than BalancePrecision decimals is an error.
func BalanceFromString(s string) (*Uint, error) {
	d, err := DecimalFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBalance, err.Error())
	}
	return BalanceFromDecimal(d)
}

// BalanceFromDecimal converts a decimal to fixed point.
func BalanceFromDecimal(d Decimal) (*Uint, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: negative value %s", ErrInvalidBalance, d.String())
	}
	shifted := d.Shift(BalancePrecision)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: too many decimals in %s", ErrInvalidBalance, d.String())
	}
	u, overflow := UintFromDecimal(shifted)
	if overflow {
		return nil, fmt.Errorf("%w: %s overflows", ErrInvalidBalance, d.String())
	}
	return u, nil
}

// MustBalance is BalanceFromString which panics on error, for constants and tests.
func MustBalance(s string) *Uint {
	u, err := BalanceFromString(s)
	if err != nil {
		panic(err)
	}
	return u
}

// BalanceToDecimal converts a fixed point value back to a decimal.
func BalanceToDecimal(u *Uint) Decimal {
	return DecimalFromUint(u).Shift(-BalancePrecision)
}

// BalanceToString renders a fixed point value, e.g. "0.00001".
func BalanceToString(u *Uint) string {
	if u == nil {
		return "0"
	}
	return BalanceToDecimal(u).String()
}

// MulDivFloor returns floor(x*y/d), true on overflow or division by zero.
func MulDivFloor(x, y, d *Uint) (*Uint, bool) {
	return mulDiv(x, y, d, false)
}

// MulDivCeil returns ceil(x*y/d), true on overflow or division by zero.
func MulDivCeil(x, y, d *Uint) (*Uint, bool) {
	return mulDiv(x, y, d, true)
}

func mulDiv(x, y, d *Uint, roundUp bool) (*Uint, bool) {
	if d.IsZero() {
		return NewUint(0), true
	}
	p := new(big.Int).Mul(x.BigInt(), y.BigInt())
	q, r := new(big.Int).QuoRem(p, d.BigInt(), new(big.Int))
	if roundUp && r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return UintFromBig(q)
}

// FixedMulFloor multiplies two fixed point values rounding down.
func FixedMulFloor(x, y *Uint) (*Uint, bool) {
	return MulDivFloor(x, y, BalanceOne())
}

// FixedMulCeil multiplies two fixed point values rounding up.
func FixedMulCeil(x, y *Uint) (*Uint, bool) {
	return MulDivCeil(x, y, BalanceOne())
}

// FixedDivFloor divides two fixed point values rounding down.
func FixedDivFloor(x, y *Uint) (*Uint, bool) {
	return MulDivFloor(x, BalanceOne(), y)
}

// FixedDivCeil divides two fixed point values rounding up.
func FixedDivCeil(x, y *Uint) (*Uint, bool) {
	return MulDivCeil(x, BalanceOne(), y)
}

// IsFixedMulExact reports whether x*y is representable in fixed point
// without rounding.
func IsFixedMulExact(x, y *Uint) bool {
	p := new(big.Int).Mul(x.BigInt(), y.BigInt())
	return new(big.Int).Mod(p, balanceOne).Sign() == 0
}

// IsMultipleOf reports whether x is a whole multiple of step. A zero step
// never divides anything.
func IsMultipleOf(x, step *Uint) bool {
	if step.IsZero() {
		return false
	}
	return NewUint(0).Mod(x, step).IsZero()
}

// AlignDown rounds x down to a multiple of step.
func AlignDown(x, step *Uint) *Uint {
	if step.IsZero() {
		return x.Clone()
	}
	steps := NewUint(0).Div(x, step)
	return steps.Mul(steps, step)
}
