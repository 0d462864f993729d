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

// Package watcher finalizes disputed channels once their dispute window has
// elapsed, using the balances on record.
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	pchannel "perun.network/go-perun/channel"
	"perun.network/go-perun/log"
	pkgsync "polycry.pt/poly-go/sync"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/event"
)

// DefaultRetryInterval is the pause between resolution attempts that were
// rejected because the adjudicator's clock has not reached the deadline yet.
const DefaultRetryInterval = time.Second

// Adjudicator is the part of channel.Adjudicator the watcher drives.
type Adjudicator interface {
	Channel(ctx context.Context, id channel.ID) (channel.Channel, error)
	ResolveDispute(ctx context.Context, id channel.ID, balances channel.Balances) error
}

// Watcher resolves every dispute published on a bus after its timeout.
type Watcher struct {
	adj           Adjudicator
	sub           *event.Subscription
	retryInterval time.Duration
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	closer        pkgsync.Closer
	log           log.Embedding
}

type Option func(*Watcher)

// WithRetryInterval sets the pause between rejected resolution attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(w *Watcher) { w.retryInterval = d }
}

// New starts a watcher for the disputes published on bus. It runs until ctx is
// done or Close is called.
func New(ctx context.Context, adj Adjudicator, bus *event.Bus, opts ...Option) *Watcher {
	w := &Watcher{
		adj:           adj,
		sub:           bus.Subscribe(0),
		retryInterval: DefaultRetryInterval,
		log:           log.MakeEmbedding(log.Default()),
	}
	for _, opt := range opts {
		opt(w)
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.closer.OnCloseAlways(func() {
		w.cancel()
		if err := w.sub.Close(); err != nil && !pkgsync.IsAlreadyClosedError(err) {
			w.log.Log().WithError(err).Warn("Closing subscription")
		}
	})

	w.wg.Add(1)
	go w.run(ctx)
	return w
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	w.log.Log().Info("Watching for disputes")
	for {
		ev, err := w.sub.Next(ctx)
		if err != nil {
			w.log.Log().WithError(err).Debug("Watcher stopped")
			return
		}
		disputed, ok := ev.(*event.DisputedEvent)
		if !ok {
			continue
		}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.Finalize(ctx, channel.ID(disputed.ID()), disputed.Timeout())
		}()
	}
}

// Finalize waits for timeout and resolves the dispute of channel id with the
// balances on record. It returns once the channel is no longer disputed, ctx
// is done, or resolution fails for another reason than the window.
func (w *Watcher) Finalize(ctx context.Context, id channel.ID, timeout pchannel.Timeout) {
	logger := w.log.Log().WithField("channel", id)
	if err := timeout.Wait(ctx); err != nil {
		return
	}
	for {
		ch, err := w.adj.Channel(ctx, id)
		if err != nil {
			logger.WithError(err).Error("Loading disputed channel")
			return
		}
		if ch.Status != channel.StatusDisputed {
			logger.Debugf("Channel is %v, nothing to resolve", ch.Status)
			return
		}
		err = w.adj.ResolveDispute(ctx, id, ch.Balances)
		switch {
		case err == nil:
			logger.Info("Resolved dispute with balances on record")
			return
		case errors.Is(err, channel.ErrWindowNotElapsed):
			logger.Debug("Dispute window still open, retrying")
		case errors.Is(err, channel.ErrNoActiveDispute):
			return
		default:
			logger.WithError(err).Error("Resolving dispute")
			return
		}
		select {
		case <-time.After(w.retryInterval):
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the watcher and waits for pending resolutions to return.
func (w *Watcher) Close() error {
	err := w.closer.Close()
	w.wg.Wait()
	return err
}
