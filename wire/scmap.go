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

package wire

import (
	"errors"
	"fmt"
	"sort"

	"github.com/stellar/go/xdr"

	"perun.network/perun-statechannel/wire/scval"
)

// MakeSymbolScMap creates a xdr.ScMap from a slice of symbols and a slice of values.
// The entries are sorted lexicographically by symbol. keys must not contain duplicates.
func MakeSymbolScMap(keys []xdr.ScSymbol, values []xdr.ScVal) (xdr.ScMap, error) {
	if len(keys) != len(values) {
		return xdr.ScMap{}, errors.New("keys and values must have the same length")
	}
	m := make(xdr.ScMap, len(keys))
	for i, k := range keys {
		m[i] = xdr.ScMapEntry{
			Key: scval.MustWrapScSymbol(k),
			Val: values[i],
		}
	}
	sort.Slice(m, func(i, j int) bool {
		return m[i].Key.MustSym() < m[j].Key.MustSym()
	})
	return m, nil
}

// GetScMapValueFromSymbol looks up the value stored under symbol key.
func GetScMapValueFromSymbol(key xdr.ScSymbol, m xdr.ScMap) (xdr.ScVal, error) {
	keyVal, err := scval.WrapScSymbol(key)
	if err != nil {
		return xdr.ScVal{}, err
	}
	for _, entry := range m {
		if entry.Key.Equals(keyVal) {
			return entry.Val, nil
		}
	}
	return xdr.ScVal{}, fmt.Errorf("key %q not found", string(key))
}

// symbolMap unwraps v as a map with exactly n entries.
func symbolMap(v xdr.ScVal, n int) (xdr.ScMap, error) {
	m, ok := v.GetMap()
	if !ok || m == nil {
		return nil, errors.New("expected map")
	}
	if len(*m) != n {
		return nil, fmt.Errorf("expected map of length %d, got %d", n, len(*m))
	}
	return *m, nil
}

func getUint64(key xdr.ScSymbol, m xdr.ScMap) (xdr.Uint64, error) {
	v, err := GetScMapValueFromSymbol(key, m)
	if err != nil {
		return 0, err
	}
	u, ok := v.GetU64()
	if !ok {
		return 0, fmt.Errorf("expected uint64 for %q", string(key))
	}
	return u, nil
}

func getVec(key xdr.ScSymbol, m xdr.ScMap) (xdr.ScVec, error) {
	v, err := GetScMapValueFromSymbol(key, m)
	if err != nil {
		return nil, err
	}
	vec, ok := v.GetVec()
	if !ok || vec == nil {
		return nil, fmt.Errorf("expected vec for %q", string(key))
	}
	return *vec, nil
}
