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
	"bytes"
	"fmt"
	"time"

	xdr3 "github.com/stellar/go-xdr/xdr3"
	"github.com/stellar/go/xdr"
)

// MakeTimestamp encodes t as nanoseconds since the unix epoch. The zero time
// encodes as 0.
func MakeTimestamp(t time.Time) (xdr.Uint64, error) {
	if t.IsZero() {
		return 0, nil
	}
	ns := t.UnixNano()
	if ns <= 0 {
		return 0, fmt.Errorf("timestamp %v before unix epoch", t)
	}
	return xdr.Uint64(ns), nil
}

// ToTime decodes a timestamp written by MakeTimestamp.
func ToTime(ts xdr.Uint64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(ts)).UTC()
}

type scValer interface {
	ToScVal() (xdr.ScVal, error)
}

type scValDecoder interface {
	FromScVal(v xdr.ScVal) error
}

func marshal(v scValer) ([]byte, error) {
	val, err := v.ToScVal()
	if err != nil {
		return nil, err
	}
	buf := bytes.Buffer{}
	e := xdr3.NewEncoder(&buf)
	if err := val.EncodeTo(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeFrom(d *xdr3.Decoder, v scValDecoder) (int, error) {
	var val xdr.ScVal
	n, err := d.Decode(&val)
	if err != nil {
		return n, err
	}
	return n, v.FromScVal(val)
}

func unmarshal(data []byte, v scValDecoder) error {
	r := bytes.NewReader(data)
	if _, err := decodeFrom(xdr3.NewDecoder(r), v); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%d trailing bytes", r.Len())
	}
	return nil
}
