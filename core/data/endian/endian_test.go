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

package endian_test

import (
	"bytes"
	eb "encoding/binary"
	"io"
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/data/endian"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func TestBigEndianLayout(t *testing.T) {
	ctx := log.Testing(t)
	buf := &bytes.Buffer{}
	w := endian.Writer(buf, eb.BigEndian)
	w.Uint32(0x01020304)
	w.Uint16(0x0506)
	w.Bool(true)
	w.String("hi")
	assert.For(ctx, "err").ThatError(w.Error()).Succeeded()
	assert.For(ctx, "bytes").ThatSlice(buf.Bytes()).Equals([]byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06,
		0x01,
		0x00, 0x00, 0x00, 0x02, 'h', 'i',
	})
}

func TestReadWriteRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	buf := &bytes.Buffer{}
	w := endian.Writer(buf, eb.BigEndian)
	w.Int8(-3)
	w.Int16(-300)
	w.Int32(-70000)
	w.Int64(-1 << 40)
	w.Float32(1.5)
	w.Float64(-2.25)
	w.String("java/lang/String")

	r := endian.Reader(buf, eb.BigEndian)
	assert.For(ctx, "int8").That(r.Int8()).Equals(int8(-3))
	assert.For(ctx, "int16").That(r.Int16()).Equals(int16(-300))
	assert.For(ctx, "int32").That(r.Int32()).Equals(int32(-70000))
	assert.For(ctx, "int64").That(r.Int64()).Equals(int64(-1 << 40))
	assert.For(ctx, "float32").That(r.Float32()).Equals(float32(1.5))
	assert.For(ctx, "float64").That(r.Float64()).Equals(float64(-2.25))
	assert.For(ctx, "string").That(r.String()).Equals("java/lang/String")
	assert.For(ctx, "err").ThatError(r.Error()).Succeeded()
}

func TestShortReadIsSticky(t *testing.T) {
	ctx := log.Testing(t)
	r := endian.Reader(bytes.NewReader([]byte{0x00, 0x01}), eb.BigEndian)
	assert.For(ctx, "uint32").That(r.Uint32()).Equals(uint32(0))
	assert.For(ctx, "err").ThatError(r.Error()).Equals(io.ErrUnexpectedEOF)
	assert.For(ctx, "after error").That(r.Uint8()).Equals(uint8(0))
}

func TestOversizedStringIsRejected(t *testing.T) {
	ctx := log.Testing(t)
	r := endian.Reader(bytes.NewReader([]byte{0x7f, 0xff, 0xff, 0xff, 'h', 'i'}), eb.BigEndian)
	assert.For(ctx, "string").That(r.String()).Equals("")
	assert.For(ctx, "err").ThatError(r.Error()).Failed()

	r = endian.Reader(bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x02, 'h', 'i', 0x01}), eb.BigEndian)
	assert.For(ctx, "string").That(r.String()).Equals("hi")
	assert.For(ctx, "left").That(r.(interface{ Len() int }).Len()).Equals(1)
}
