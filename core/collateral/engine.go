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
	"fmt"
	"sort"

	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/libs/num"
	"github.com/sora-xor/sora2-network-sub006/logging"

	"github.com/pkg/errors"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransfer     = errors.New("invalid transfer")
)

// EscrowAccount is the owner of the funds reserved by the orders of a book.
func EscrowAccount(id types.OrderBookID) string {
	return fmt.Sprintf("escrow/%s", id.String())
}

// Account is the balance of an owner in an asset.
type Account struct {
	Owner   string
	Asset   string
	Balance *num.Uint
}

// Engine is an in-memory ledger of balances, keyed by owner and asset.
// Parties and escrows are both plain owners.
type Engine struct {
	log *logging.Logger
	cfg Config

	accs map[string]map[string]*num.Uint
}

func New(log *logging.Logger, cfg Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Engine{
		log:  log,
		cfg:  cfg,
		accs: map[string]map[string]*num.Uint{},
	}
}

// ReloadConf updates the internal configuration of the engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.cfg = cfg
}

func (e *Engine) balance(owner, asset string) *num.Uint {
	if assets, ok := e.accs[owner]; ok {
		if b, ok := assets[asset]; ok {
			return b
		}
	}
	return num.UintZero()
}

func (e *Engine) setBalance(owner, asset string, amount *num.Uint) {
	assets, ok := e.accs[owner]
	if !ok {
		assets = map[string]*num.Uint{}
		e.accs[owner] = assets
	}
	if amount.IsZero() {
		delete(assets, asset)
		if len(assets) == 0 {
			delete(e.accs, owner)
		}
		return
	}
	assets[asset] = amount
}

// GetBalance returns a copy of the balance of owner in asset.
func (e *Engine) GetBalance(owner, asset string) *num.Uint {
	return e.balance(owner, asset).Clone()
}

// Deposit credits owner with amount of asset.
func (e *Engine) Deposit(ctx context.Context, owner, asset string, amount *num.Uint) error {
	if amount == nil || owner == "" || asset == "" {
		return ErrInvalidTransfer
	}
	total, overflow := num.UintZero().AddOverflow(e.balance(owner, asset), amount)
	if overflow {
		return types.ErrArithmeticOverflow
	}
	e.setBalance(owner, asset, total)
	return nil
}

// Withdraw debits owner by amount of asset.
func (e *Engine) Withdraw(ctx context.Context, owner, asset string, amount *num.Uint) error {
	if amount == nil || owner == "" || asset == "" {
		return ErrInvalidTransfer
	}
	current := e.balance(owner, asset)
	if current.LT(amount) {
		return errors.Wrapf(ErrInsufficientBalance, "%s has %s %s", owner, num.BalanceToString(current), asset)
	}
	e.setBalance(owner, asset, num.UintZero().Sub(current, amount))
	return nil
}

// Transfer moves amount of asset from one owner to another. Nothing moves
// if the sender cannot cover it.
func (e *Engine) Transfer(ctx context.Context, asset, from, to string, amount *num.Uint) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if from == to {
		return errors.Wrap(ErrInvalidTransfer, "same source and destination")
	}
	if err := e.Withdraw(ctx, from, asset, amount); err != nil {
		return err
	}
	if err := e.Deposit(ctx, to, asset, amount); err != nil {
		// give the funds back, the sender was debited just above
		_ = e.Deposit(ctx, from, asset, amount)
		return err
	}
	if e.log.IsDebug() {
		e.log.Debug("transfer",
			logging.AssetID(asset),
			logging.String("from", from),
			logging.String("to", to),
			logging.Balance("amount", amount),
		)
	}
	return nil
}

// Reserve moves funds of party into escrow.
func (e *Engine) Reserve(ctx context.Context, escrow, asset, party string, amount *num.Uint) error {
	return e.Transfer(ctx, asset, party, escrow, amount)
}

// Unreserve moves funds out of escrow back to party.
func (e *Engine) Unreserve(ctx context.Context, escrow, asset, party string, amount *num.Uint) error {
	return e.Transfer(ctx, asset, escrow, party, amount)
}

// Total sums the balances of every owner in asset.
func (e *Engine) Total(asset string) *num.Uint {
	total := num.UintZero()
	for _, assets := range e.accs {
		if b, ok := assets[asset]; ok {
			total.Add(total, b)
		}
	}
	return total
}

// Accounts lists every non empty account sorted by owner then asset.
func (e *Engine) Accounts() []Account {
	out := []Account{}
	for owner, assets := range e.accs {
		for asset, b := range assets {
			out = append(out, Account{Owner: owner, Asset: asset, Balance: b.Clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Owner != out[j].Owner {
			return out[i].Owner < out[j].Owner
		}
		return out[i].Asset < out[j].Asset
	})
	return out
}
