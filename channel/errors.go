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
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the Adjudicator matches exactly one of
// them with errors.Is, except for store failures.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidChannelState = errors.New("invalid channel state")
	ErrStaleNonce          = errors.New("stale nonce")
	ErrWindowNotElapsed    = errors.New("dispute window not elapsed")
	ErrNotFound            = errors.New("not found")
)

var (
	ErrInvalidParticipantCount = fmt.Errorf("%w: channel needs at least two participants", ErrInvalidInput)
	ErrBalanceLengthMismatch   = fmt.Errorf("%w: balances do not match participants", ErrInvalidInput)
	ErrInvalidBalance          = fmt.Errorf("%w: invalid balance", ErrInvalidInput)
	ErrInvalidAccount          = fmt.Errorf("%w: invalid account", ErrInvalidInput)
	ErrDuplicateParticipant    = fmt.Errorf("%w: duplicate participant", ErrInvalidInput)
	ErrBalanceNotConserved     = fmt.Errorf("%w: balance sum changed", ErrInvalidInput)
	ErrInvalidContestedNonce   = fmt.Errorf("%w: contested nonce must be below the channel nonce", ErrInvalidInput)

	ErrNotParticipant = fmt.Errorf("%w: caller is not a participant", ErrUnauthorized)

	ErrChannelNotOpen       = fmt.Errorf("%w: channel is not open", ErrInvalidChannelState)
	ErrChannelAlreadyClosed = fmt.Errorf("%w: channel is already closed", ErrInvalidChannelState)
	ErrDisputeAlreadyActive = fmt.Errorf("%w: dispute already active", ErrInvalidChannelState)

	ErrChannelNotFound = fmt.Errorf("%w: channel", ErrNotFound)
	ErrNoActiveDispute = fmt.Errorf("%w: active dispute", ErrNotFound)
)

// ErrorKind returns a short label for the kind of err, used for metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidChannelState):
		return "invalid_channel_state"
	case errors.Is(err, ErrStaleNonce):
		return "stale_nonce"
	case errors.Is(err, ErrWindowNotElapsed):
		return "window_not_elapsed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
