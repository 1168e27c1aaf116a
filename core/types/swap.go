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

package types

import (
	"fmt"

	"github.com/sora-xor/sora2-network-sub006/libs/num"
)

type OrderAmountKind uint8

const (
	OrderAmountBase OrderAmountKind = iota
	OrderAmountQuote
)

// OrderAmount is an amount expressed in either asset of the book.
type OrderAmount struct {
	Kind   OrderAmountKind
	Amount *num.Uint
}

func NewBaseAmount(amount *num.Uint) OrderAmount {
	return OrderAmount{Kind: OrderAmountBase, Amount: amount.Clone()}
}

func NewQuoteAmount(amount *num.Uint) OrderAmount {
	return OrderAmount{Kind: OrderAmountQuote, Amount: amount.Clone()}
}

func (a OrderAmount) IsBase() bool {
	return a.Kind == OrderAmountBase
}

func (a OrderAmount) IsQuote() bool {
	return a.Kind == OrderAmountQuote
}

func (a OrderAmount) Asset(id OrderBookID) string {
	if a.IsBase() {
		return id.Base
	}
	return id.Quote
}

func (a OrderAmount) String() string {
	if a.IsBase() {
		return fmt.Sprintf("base(%s)", num.BalanceToString(a.Amount))
	}
	return fmt.Sprintf("quote(%s)", num.BalanceToString(a.Amount))
}

type SwapVariant uint8

const (
	SwapWithDesiredInput SwapVariant = iota
	SwapWithDesiredOutput
)

// SwapAmount is the amount of a swap against the book. With a desired input
// Limit is the minimum accepted output, with a desired output it is the
// maximum accepted input. A zero limit disables the check.
type SwapAmount struct {
	Variant SwapVariant
	Desired *num.Uint
	Limit   *num.Uint
}

func NewSwapWithDesiredInput(desired, minOut *num.Uint) SwapAmount {
	return SwapAmount{
		Variant: SwapWithDesiredInput,
		Desired: desired.Clone(),
		Limit:   minOut.Clone(),
	}
}

func NewSwapWithDesiredOutput(desired, maxIn *num.Uint) SwapAmount {
	return SwapAmount{
		Variant: SwapWithDesiredOutput,
		Desired: desired.Clone(),
		Limit:   maxIn.Clone(),
	}
}

func (s SwapAmount) IsDesiredInput() bool {
	return s.Variant == SwapWithDesiredInput
}

// OrderAmount maps the desired amount to the asset it is expressed in for
// a taker on side: a buyer gives quote and gets base, a seller the reverse.
func (s SwapAmount) OrderAmount(side Side) OrderAmount {
	quoteIn := side == SideBuy
	if s.IsDesiredInput() == quoteIn {
		return NewQuoteAmount(s.Desired)
	}
	return NewBaseAmount(s.Desired)
}

// Check verifies the deal respects the limit of the swap.
func (s SwapAmount) Check(deal *DealInfo) error {
	if s.Limit == nil || s.Limit.IsZero() {
		return nil
	}
	if s.IsDesiredInput() && deal.OutputAmount.LT(s.Limit) {
		return ErrSlippageLimitExceeded
	}
	if !s.IsDesiredInput() && deal.InputAmount.GT(s.Limit) {
		return ErrSlippageLimitExceeded
	}
	return nil
}

// DealInfo describes a deal against the book without executing it.
type DealInfo struct {
	InputAsset   string
	InputAmount  *num.Uint
	OutputAsset  string
	OutputAmount *num.Uint
	AveragePrice *num.Uint
	Side         Side
	Fee          *num.Uint
}

// BaseAmount returns the base side of the deal.
func (d *DealInfo) BaseAmount() *num.Uint {
	if d.Side == SideBuy {
		return d.OutputAmount
	}
	return d.InputAmount
}

// QuoteAmount returns the quote side of the deal.
func (d *DealInfo) QuoteAmount() *num.Uint {
	if d.Side == SideBuy {
		return d.InputAmount
	}
	return d.OutputAmount
}

// IsValid checks the deal has something on both legs.
func (d *DealInfo) IsValid() bool {
	return d.InputAsset != d.OutputAsset &&
		d.InputAmount != nil && !d.InputAmount.IsZero() &&
		d.OutputAmount != nil && !d.OutputAmount.IsZero() &&
		d.AveragePrice != nil && !d.AveragePrice.IsZero()
}

func NewDealInfo(id OrderBookID, side Side, base, quote *num.Uint) (*DealInfo, error) {
	avg, overflow := num.FixedDivFloor(quote, base)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	deal := &DealInfo{
		AveragePrice: avg,
		Side:         side,
		Fee:          num.UintZero(),
	}
	if side == SideBuy {
		deal.InputAsset, deal.InputAmount = id.Quote, quote.Clone()
		deal.OutputAsset, deal.OutputAmount = id.Base, base.Clone()
	} else {
		deal.InputAsset, deal.InputAmount = id.Base, base.Clone()
		deal.OutputAsset, deal.OutputAmount = id.Quote, quote.Clone()
	}
	return deal, nil
}
