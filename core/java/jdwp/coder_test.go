// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jdwp

import (
	"bytes"
	"math"
	"reflect"
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/data/endian"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	c := &Connection{idSizes: defaultIDSizes}
	for _, id := range []EventRequestID{NullEventRequestID, 1, 42, 0x10000, math.MaxInt32} {
		buf := &bytes.Buffer{}
		err := c.encode(endian.Writer(buf, byteOrder), reflect.ValueOf(id))
		assert.For(ctx, "encode %v", id).ThatError(err).Succeeded()
		assert.For(ctx, "size %v", id).ThatInteger(buf.Len()).Equals(4)

		var got EventRequestID
		err = c.decode(endian.Reader(buf, byteOrder), reflect.ValueOf(&got))
		assert.For(ctx, "decode %v", id).ThatError(err).Succeeded()
		assert.For(ctx, "value %v", id).That(got).Equals(id)
	}
}

func TestDecodeRejectsUnknownTags(t *testing.T) {
	ctx := log.Testing(t)
	c := &Connection{idSizes: defaultIDSizes}
	for _, cs := range []struct {
		name string
		data []byte
		into interface{}
	}{
		{"suspend policy", []byte{7}, new(SuspendPolicy)},
		{"type tag", []byte{9}, new(TypeTag)},
		{"value tag", []byte{'?', 0, 0, 0, 0}, new(Value)},
	} {
		err := c.decode(endian.Reader(bytes.NewReader(cs.data), byteOrder), reflect.ValueOf(cs.into))
		assert.For(ctx, cs.name).ThatError(err).Failed()
	}
}
