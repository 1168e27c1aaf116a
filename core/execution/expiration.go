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

package execution

import (
	"context"
	"time"

	"github.com/sora-xor/sora2-network-sub006/core/datalayer"
	"github.com/sora-xor/sora2-network-sub006/core/events"
	"github.com/sora-xor/sora2-network-sub006/core/matching"
	"github.com/sora-xor/sora2-network-sub006/core/types"
	"github.com/sora-xor/sora2-network-sub006/logging"
	"github.com/sora-xor/sora2-network-sub006/metrics"

	"github.com/pkg/errors"
)

// OnBlock services the expirations due at a new block with the weight
// limit of the configuration.
func (e *Engine) OnBlock(ctx context.Context, height uint64, _ time.Time) {
	if err := e.Service(ctx, height, NewBudget(e.Weights.BlockLimit)); err != nil {
		e.log.Error("could not service expirations",
			logging.BlockHeight(height),
			logging.Error(err),
		)
	}
}

// Service expires the orders scheduled up to currentBlock, as far as budget
// allows. Slots that could not be fully serviced are picked up by the next
// calls: the first of them is persisted as the incomplete expirations
// cursor. Every mutation is committed at once at the end, and the escrow
// movements of the expired orders are reverted if anything fails.
//
// A budget that cannot cover the service itself leaves everything for the
// next call: the current block is stored as the cursor when none is set.
func (e *Engine) Service(ctx context.Context, currentBlock uint64, budget *Budget) (err error) {
	timer := metrics.NewTimeCounter("", "execution", "Service")
	defer timer.EngineTimeCounterAdd()

	start := budget.Consumed()
	defer func() {
		metrics.ServiceWeightObserve(budget.Consumed() - start)
	}()

	dl := e.newUnit()
	when, ok, err := dl.GetIncompleteExpirationsSince()
	if err != nil {
		return err
	}

	if !budget.TryConsume(e.Weights.ServiceBase) {
		if ok {
			return nil
		}
		if err := dl.SetIncompleteExpirationsSince(currentBlock); err != nil {
			return err
		}
		return dl.Commit()
	}
	if !ok {
		when = currentBlock
	}

	run := &expirationRun{}
	defer func() {
		if err != nil {
			e.revert(ctx, run.moved)
		}
	}()

	incompleteSince := currentBlock + 1
	for when <= currentBlock && budget.CanConsume(e.Weights.SlotBase) {
		slot, found, err := dl.NextExpirationSlot(when, currentBlock)
		if err != nil {
			return err
		}
		if !found {
			when = currentBlock + 1
			break
		}
		budget.TryConsume(e.Weights.SlotBase)

		done, err := e.serviceSlot(ctx, dl, slot, budget, run)
		if err != nil {
			return err
		}
		if !done && slot < incompleteSince {
			incompleteSince = slot
		}
		when = slot + 1
	}
	if when < incompleteSince {
		incompleteSince = when
	}

	if incompleteSince <= currentBlock {
		err = dl.SetIncompleteExpirationsSince(incompleteSince)
	} else {
		err = dl.ClearIncompleteExpirationsSince()
	}
	if err != nil {
		return err
	}
	if err := dl.Commit(); err != nil {
		return errors.Wrap(err, "could not commit expirations")
	}
	for _, change := range run.changes {
		recordChange(change)
	}
	metrics.ExpirationCounterAdd(run.expired, "expired")
	metrics.ExpirationCounterAdd(run.failed, "failed")
	if len(run.evts) > 0 {
		e.broker.SendBatch(run.evts)
	}
	return nil
}

// expirationRun collects what a service call did before its commit.
type expirationRun struct {
	evts    []events.Event
	moved   []movement
	changes []*matching.MarketChange
	expired int
	failed  int
}

// serviceSlot expires as many entries of a slot as the budget allows and
// puts the others back. It returns true once the slot is empty.
func (e *Engine) serviceSlot(ctx context.Context, dl *datalayer.CacheDataLayer, slot uint64, budget *Budget, run *expirationRun) (bool, error) {
	entries, err := dl.GetExpirationSlot(slot)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return true, nil
	}
	if err := dl.SetExpirationSlot(slot, nil); err != nil {
		return false, err
	}

	n := budget.ConsumeUpTo(e.Weights.SingleExpiration, len(entries))
	for _, entry := range entries[:n] {
		err := e.serviceSingleExpiration(ctx, dl, entry, run)
		switch {
		case err == nil:
			run.expired++
		case errors.Is(err, types.ErrOrderNotFound):
			// already gone, nothing to expire
		default:
			run.failed++
			e.log.Error("could not expire limit order",
				logging.OrderBookID(entry.OrderBookID),
				logging.OrderID(entry.OrderID),
				logging.Uint64("slot", slot),
				logging.Error(err),
			)
			run.evts = append(run.evts, events.NewExpirationFailureEvent(ctx, entry.OrderBookID, entry.OrderID, err))
		}
	}

	if rest := entries[n:]; len(rest) > 0 {
		if err := dl.SetExpirationSlot(slot, rest); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// serviceSingleExpiration cancels one order in its own nested unit of work
// so a failure leaves the others untouched. The escrow movements are kept
// in run so the caller can revert them if its own commit fails.
func (e *Engine) serviceSingleExpiration(ctx context.Context, parent *datalayer.CacheDataLayer, entry types.ExpirationEntry, run *expirationRun) error {
	dl := datalayer.NewCacheDataLayer(parent, e.Limits())
	order, err := dl.GetLimitOrder(entry.OrderBookID, entry.OrderID)
	if err != nil {
		return err
	}
	ob, err := dl.GetOrderBook(entry.OrderBookID)
	if err != nil {
		return err
	}
	book := e.matchingBook(ob)
	change, err := book.CancelImpact(order, types.CancelReasonExpired)
	if err != nil {
		return err
	}
	if err := book.Apply(dl, change); err != nil {
		return err
	}
	done, err := e.settle(ctx, change.Payment)
	if err != nil {
		return err
	}
	if err := dl.Commit(); err != nil {
		e.revert(ctx, done)
		return err
	}
	run.moved = append(run.moved, done...)
	run.changes = append(run.changes, change)
	run.evts = append(run.evts, changeEvents(ctx, change, "", "")...)
	return nil
}
