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
	"time"

	"perun.network/go-perun/log"
	pkgsync "polycry.pt/poly-go/sync"

	"perun.network/perun-statechannel/event"
	"perun.network/perun-statechannel/metrics"
	"perun.network/perun-statechannel/wallet"
)

// DefaultDisputeDuration is the length of the dispute window.
var DefaultDisputeDuration = 72 * time.Hour //nolint:gomnd

// Adjudicator coordinates all channels of a Store. Operations are serialized:
// each one reads a consistent snapshot and either commits all of its writes
// or none.
type Adjudicator struct {
	mu              pkgsync.Mutex
	store           Store
	publisher       event.Publisher
	clock           Clock
	disputeDuration time.Duration
	conservation    bool
	metrics         *metrics.Metrics
	log             log.Embedding
}

// Option configures an Adjudicator.
type Option func(*Adjudicator)

// WithDisputeDuration sets the dispute window.
func WithDisputeDuration(d time.Duration) Option {
	return func(a *Adjudicator) { a.disputeDuration = d }
}

// WithClock sets the clock the dispute window is measured with.
func WithClock(c Clock) Option {
	return func(a *Adjudicator) { a.clock = c }
}

// WithPublisher sets the receiver of channel events.
func WithPublisher(p event.Publisher) Option {
	return func(a *Adjudicator) { a.publisher = p }
}

// WithConservation makes state updates and dispute resolutions keep the sum of
// all balances constant.
func WithConservation(enforce bool) Option {
	return func(a *Adjudicator) { a.conservation = enforce }
}

// WithMetrics sets the collectors operations are recorded with.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adjudicator) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(a *Adjudicator) { a.log = log.MakeEmbedding(l) }
}

// NewAdjudicator returns a new Adjudicator on top of store.
func NewAdjudicator(store Store, opts ...Option) *Adjudicator {
	a := &Adjudicator{
		store:           store,
		clock:           SystemClock,
		disputeDuration: DefaultDisputeDuration,
		log:             log.MakeEmbedding(log.Default()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DisputeDuration returns the configured dispute window.
func (a *Adjudicator) DisputeDuration() time.Duration {
	return a.disputeDuration
}

// Open creates a channel between participants with the given initial
// balances. The caller need not be a participant.
func (a *Adjudicator) Open(ctx context.Context, participants []wallet.Address, balances Balances) (ID, error) {
	const op = "open"
	if err := a.lock(ctx); err != nil {
		return 0, err
	}
	defer a.mu.Unlock()

	if err := validateParticipants(participants); err != nil {
		return 0, a.fail(op, 0, err)
	}
	if len(balances) != len(participants) {
		return 0, a.fail(op, 0, fmt.Errorf("%w: %d balances for %d participants", ErrBalanceLengthMismatch, len(balances), len(participants)))
	}
	if err := balances.Valid(); err != nil {
		return 0, a.fail(op, 0, err)
	}

	ch := Channel{
		Participants: append([]wallet.Address(nil), participants...),
		Balances:     balances.Clone(),
		Nonce:        0,
		Status:       StatusOpen,
	}
	id, err := a.store.Insert(ctx, ch)
	if err != nil {
		return 0, a.fail(op, 0, fmt.Errorf("storing channel: %w", err))
	}

	a.log.Log().WithField("channel", id).Infof("Opened channel with %d participants", len(participants))
	a.metrics.Opened()
	a.publish(&event.OpenedEvent{
		IDV:          uint64(id),
		Participants: append([]wallet.Address(nil), participants...),
		Balances:     balances.Clone(),
		Timestamp:    now(a.clock),
	})
	return id, nil
}

// UpdateState checkpoints an off-chain agreed state. Any participant may
// submit it; the nonce must exceed the recorded one.
func (a *Adjudicator) UpdateState(ctx context.Context, caller wallet.Address, id ID, balances Balances, nonce uint64) error {
	const op = "update"
	if err := a.lock(ctx); err != nil {
		return err
	}
	defer a.mu.Unlock()

	ch, err := a.participantChannel(ctx, caller, id)
	if err != nil {
		return a.fail(op, id, err)
	}
	if ch.Status != StatusOpen {
		return a.fail(op, id, fmt.Errorf("%w: status %v", ErrChannelNotOpen, ch.Status))
	}
	if nonce <= ch.Nonce {
		return a.fail(op, id, fmt.Errorf("%w: got %d, recorded %d", ErrStaleNonce, nonce, ch.Nonce))
	}
	if err := a.checkBalances(ch, balances); err != nil {
		return a.fail(op, id, err)
	}

	next := ch.Clone()
	next.Balances = balances.Clone()
	next.Nonce = nonce
	if err := a.commit(ctx, ch, Change{Channel: next}); err != nil {
		return a.fail(op, id, err)
	}

	a.log.Log().WithField("channel", id).Infof("Updated state to nonce %d", nonce)
	a.metrics.Updated()
	a.publish(&event.UpdatedEvent{
		IDV:       uint64(id),
		VersionV:  nonce,
		Balances:  balances.Clone(),
		Submitter: caller,
		Timestamp: now(a.clock),
	})
	return nil
}

// Close cooperatively closes an open channel with its recorded balances.
func (a *Adjudicator) Close(ctx context.Context, caller wallet.Address, id ID) error {
	const op = "close"
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
	case StatusClosed:
		return a.fail(op, id, ErrChannelAlreadyClosed)
	default:
		return a.fail(op, id, fmt.Errorf("%w: status %v", ErrChannelNotOpen, ch.Status))
	}

	next := ch.Clone()
	next.Status = StatusClosed
	if err := a.commit(ctx, ch, Change{Channel: next}); err != nil {
		return a.fail(op, id, err)
	}

	a.log.Log().WithField("channel", id).Info("Closed channel cooperatively")
	a.metrics.Closed(metrics.PathCooperative)
	a.publish(&event.ClosedEvent{
		IDV:         uint64(id),
		VersionV:    next.Nonce,
		Balances:    next.Balances.Clone(),
		Cooperative: true,
		Timestamp:   now(a.clock),
	})
	return nil
}

func (a *Adjudicator) lock(ctx context.Context) error {
	if !a.mu.TryLockCtx(ctx) {
		return ctx.Err()
	}
	return nil
}

// participantChannel loads channel id and checks that caller participates.
func (a *Adjudicator) participantChannel(ctx context.Context, caller wallet.Address, id ID) (Channel, error) {
	ch, err := a.store.Channel(ctx, id)
	if err != nil {
		return Channel{}, err
	}
	if !ch.IsParticipant(caller) {
		return Channel{}, fmt.Errorf("%w: %s", ErrNotParticipant, caller)
	}
	return ch, nil
}

// checkBalances validates balances as a replacement for the balances of ch.
func (a *Adjudicator) checkBalances(ch Channel, balances Balances) error {
	if len(balances) != len(ch.Balances) {
		return fmt.Errorf("%w: got %d, want %d", ErrBalanceLengthMismatch, len(balances), len(ch.Balances))
	}
	if err := balances.Valid(); err != nil {
		return err
	}
	if a.conservation && balances.Sum().Cmp(ch.Balances.Sum()) != 0 {
		return fmt.Errorf("%w: got %v, recorded %v", ErrBalanceNotConserved, balances.Sum(), ch.Balances.Sum())
	}
	return nil
}

func (a *Adjudicator) commit(ctx context.Context, prev Channel, change Change) error {
	if err := checkTransition(prev.Status, change.Channel.Status); err != nil {
		return err
	}
	if err := a.store.Commit(ctx, change); err != nil {
		return fmt.Errorf("committing channel %d: %w", prev.ID, err)
	}
	return nil
}

func (a *Adjudicator) fail(op string, id ID, err error) error {
	a.metrics.Failed(op, ErrorKind(err))
	a.log.Log().WithField("channel", id).WithError(err).Debugf("Rejected %s", op)
	return err
}

func (a *Adjudicator) publish(ev event.ChannelEvent) {
	if a.publisher != nil {
		a.publisher.Publish(ev)
	}
}

func validateParticipants(participants []wallet.Address) error {
	if len(participants) < 2 { //nolint:gomnd
		return fmt.Errorf("%w: got %d", ErrInvalidParticipantCount, len(participants))
	}
	seen := make(map[wallet.Address]struct{}, len(participants))
	for _, p := range participants {
		if !p.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidAccount, string(p))
		}
		if _, ok := seen[p]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateParticipant, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}
