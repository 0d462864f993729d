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

// Package channel manages off-chain state channels: it opens channels between
// participants, checkpoints newer agreed states, and finalizes channels either
// cooperatively or through a time-bounded dispute.
//
// The Adjudicator only decides what a channel's final balances are. Moving
// value is left to a settlement ledger that observes the ClosedEvent emitted
// through the configured event.Publisher. Callers are expected to be
// authenticated before their identity is passed in.
package channel
