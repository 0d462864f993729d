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
	"errors"
	"fmt"
	"math/rand"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// StellarAddressLength is the length of the raw ed25519 key behind an account strkey.
const StellarAddressLength = 32

// ErrInvalidAddress is returned when a string is not a Stellar account strkey.
var ErrInvalidAddress = errors.New("invalid account address")

// Address identifies a channel participant. It is the Stellar account strkey
// (G...) of the participant; authentication of the holder happens outside of
// this module.
type Address string

// ParseAddress validates s as a Stellar account strkey.
func ParseAddress(s string) (Address, error) {
	kp, err := keypair.ParseAddress(s)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	return Address(kp.Address()), nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// NewRandomAddress returns the address of a freshly generated key pair.
func NewRandomAddress() (Address, error) {
	kp, err := keypair.Random()
	if err != nil {
		return "", err
	}
	return Address(kp.Address()), nil
}

// NewRandomAddressFromRng derives an address from rng. Only the public part is
// generated, which is all a participant id needs.
func NewRandomAddressFromRng(rng *rand.Rand) Address {
	var raw [StellarAddressLength]byte
	rng.Read(raw[:])
	addr, err := strkey.Encode(strkey.VersionByteAccountID, raw[:])
	if err != nil {
		panic(err)
	}
	return Address(addr)
}

// Valid reports whether a is a well-formed account strkey.
func (a Address) Valid() bool {
	_, err := keypair.ParseAddress(string(a))
	return err == nil
}

func (a Address) String() string {
	return string(a)
}

// ScAddress converts a into an account-type xdr.ScAddress.
func (a Address) ScAddress() (xdr.ScAddress, error) {
	accountID, err := xdr.AddressToAccountId(string(a))
	if err != nil {
		return xdr.ScAddress{}, fmt.Errorf("%w %q: %v", ErrInvalidAddress, string(a), err)
	}
	return xdr.NewScAddress(xdr.ScAddressTypeScAddressTypeAccount, accountID)
}

// AddressFromScAddress converts an account-type xdr.ScAddress into an Address.
func AddressFromScAddress(addr xdr.ScAddress) (Address, error) {
	if addr.Type != xdr.ScAddressTypeScAddressTypeAccount || addr.AccountId == nil {
		return "", fmt.Errorf("%w: expected account address, got %v", ErrInvalidAddress, addr.Type)
	}
	return ParseAddress(addr.AccountId.Address())
}
