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

package wallet

import (
	"github.com/stellar/go/keypair"
)

// Account is a Stellar key pair a participant acts as.
type Account struct {
	kp *keypair.Full
}

// NewRandomAccount creates an account with a random key pair.
func NewRandomAccount() (*Account, error) {
	kp, err := keypair.Random()
	if err != nil {
		return nil, err
	}
	return &Account{kp: kp}, nil
}

// AccountFromSeed restores the account of a secret seed.
func AccountFromSeed(seed string) (*Account, error) {
	kp, err := keypair.ParseFull(seed)
	if err != nil {
		return nil, err
	}
	return &Account{kp: kp}, nil
}

// Address returns the account's participant address.
func (a *Account) Address() Address {
	return Address(a.kp.Address())
}

// Seed returns the account's secret seed.
func (a *Account) Seed() string {
	return a.kp.Seed()
}
