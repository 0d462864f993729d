// Copyright 2025 PolyCrypt GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package channel

import (
	"context"
	"fmt"

	"perun.network/perun-statechannel/event"
	"perun.network/perun-statechannel/metrics"
	"perun.network/perun-statechannel/wallet"
)

// InitiateDispute freezes an open channel for the dispute window. The caller
// contests nonce, which has to be below the recorded nonce.
func (a *Adjudicator) InitiateDispute(ctx context.Context, caller wallet.Address, id ID, contested uint64) error {
	const op = "dispute"
	if err := a.lock(ctx); err != nil {
		return err
	}
	defer a.mu.Unlock()

	ch, err := a.participantChannel(ctx, caller, id)
	if err != nil {
		return a.fail(op, id, err)
	}
	switch ch.Status {
	case StatusOpen:
	case StatusDisputed:
		return a.fail(op, id, ErrDisputeAlreadyActive)
	default:
		return a.fail(op, id, fmt.Errorf("%w: status %v", ErrChannelNotOpen, ch.Status))
	}
	if contested >= ch.Nonce {
		return a.fail(op, id, fmt.Errorf("%w: contested %d, recorded %d", ErrInvalidContestedNonce, contested, ch.Nonce))
	}

	disputedAt := now(a.clock)
	dispute := Dispute{
		ChannelID:  id,
		DisputedAt: disputedAt,
		Nonce:      contested,
		Challenger: caller,
		Challenged: counterparties(ch.Participants, caller),
	}
	next := ch.Clone()
	next.Status = StatusDisputed
	next.DisputeDeadline = disputedAt.Add(a.disputeDuration)
	if err := a.commit(ctx, ch, Change{Channel: next, Dispute: &dispute}); err != nil {
		return a.fail(op, id, err)
	}

	a.log.Log().WithField("channel", id).Infof("Dispute initiated by %s, deadline %v", caller, next.DisputeDeadline)
	a.metrics.Disputed()
	a.publish(&event.DisputedEvent{
		IDV:              uint64(id),
		VersionV:         ch.Nonce,
		ContestedVersion: contested,
		Challenger:       caller,
		Challenged:       append([]wallet.Address(nil), dispute.Challenged...),
		Deadline:         next.DisputeDeadline,
		Timestamp:        disputedAt,
	})
	return nil
}

// ResolveDispute closes a disputed channel with balances once the dispute
// window has elapsed. Anyone may call it.
//
// The balances are not checked against any agreed state; authenticating them
// is up to the caller.
func (a *Adjudicator) ResolveDispute(ctx context.Context, id ID, balances Balances) error {
	const op = "resolve"
	if err := a.lock(ctx); err != nil {
		return err
	}
	defer a.mu.Unlock()

	ch, err := a.store.Channel(ctx, id)
	if err != nil {
		return a.fail(op, id, err)
	}
	if ch.Status != StatusDisputed {
		return a.fail(op, id, fmt.Errorf("%w: channel is %v", ErrNoActiveDispute, ch.Status))
	}
	if _, err := a.store.Dispute(ctx, id); err != nil {
		return a.fail(op, id, err)
	}
	if t := now(a.clock); t.Before(ch.DisputeDeadline) {
		return a.fail(op, id, fmt.Errorf("%w: %v left", ErrWindowNotElapsed, ch.DisputeDeadline.Sub(t)))
	}
	if err := a.checkBalances(ch, balances); err != nil {
		return a.fail(op, id, err)
	}

	next := ch.Clone()
	next.Balances = balances.Clone()
	next.Status = StatusClosed
	if err := a.commit(ctx, ch, Change{Channel: next, ClearDispute: true}); err != nil {
		return a.fail(op, id, err)
	}

	a.log.Log().WithField("channel", id).Info("Resolved dispute, channel closed")
	a.metrics.Closed(metrics.PathDispute)
	a.publish(&event.ClosedEvent{
		IDV:         uint64(id),
		VersionV:    next.Nonce,
		Balances:    next.Balances.Clone(),
		Cooperative: false,
		Timestamp:   now(a.clock),
	})
	return nil
}

func counterparties(participants []wallet.Address, of wallet.Address) []wallet.Address {
	others := make([]wallet.Address, 0, len(participants)-1)
	for _, p := range participants {
		if p != of {
			others = append(others, p)
		}
	}
	return others
}
