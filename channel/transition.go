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

import "fmt"

// allowedTransitions lists every status change a channel may undergo.
var allowedTransitions = map[Status][]Status{
	StatusOpen:     {StatusOpen, StatusDisputed, StatusClosed},
	StatusDisputed: {StatusClosed},
}

// checkTransition rejects status changes that would move a channel backwards,
// such as reopening a closed channel or undisputing a disputed one.
func checkTransition(from, to Status) error {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: channel cannot move from %v to %v", ErrInvalidChannelState, from, to)
}
