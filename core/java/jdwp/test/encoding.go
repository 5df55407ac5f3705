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

package test

import (
	"bytes"
	eb "encoding/binary"

	"github.com/eclipse-jdt/jdtdebug/core/data/binary"
	"github.com/eclipse-jdt/jdtdebug/core/data/endian"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
)

// Encoder builds JDWP payloads using the fake VM's 8-byte identifiers.
type Encoder struct {
	buf bytes.Buffer
	w   binary.Writer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.w = endian.Writer(&e.buf, eb.BigEndian)
	return e
}

// Byte appends a single byte.
func (e *Encoder) Byte(v uint8) *Encoder { e.w.Uint8(v); return e }

// Bool appends a boolean.
func (e *Encoder) Bool(v bool) *Encoder { e.w.Bool(v); return e }

// Int appends a 4-byte integer.
func (e *Encoder) Int(v int32) *Encoder { e.w.Int32(v); return e }

// Long appends an 8-byte integer.
func (e *Encoder) Long(v int64) *Encoder { e.w.Int64(v); return e }

// ID appends an 8-byte identifier.
func (e *Encoder) ID(v uint64) *Encoder { e.w.Uint64(v); return e }

// String appends a length prefixed string.
func (e *Encoder) String(v string) *Encoder {
	e.w.Uint32(uint32(len(v)))
	e.w.Data([]byte(v))
	return e
}

// Location appends a code location.
func (e *Encoder) Location(l jdwp.Location) *Encoder {
	return e.Byte(uint8(l.Type)).ID(uint64(l.Class)).ID(uint64(l.Method)).ID(l.Location)
}

// Tagged appends a tagged object identifier.
func (e *Encoder) Tagged(o jdwp.TaggedObjectID) *Encoder {
	return e.Byte(uint8(o.Type)).ID(uint64(o.Object))
}

// Raw appends data verbatim.
func (e *Encoder) Raw(data []byte) *Encoder { e.w.Data(data); return e }

// Bytes returns the encoded payload.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Decoder reads JDWP payloads using the fake VM's 8-byte identifiers.
type Decoder struct {
	r *bytes.Reader
	d binary.Reader
}

// NewDecoder returns a Decoder reading data.
func NewDecoder(data []byte) *Decoder {
	r := bytes.NewReader(data)
	return &Decoder{r, endian.Reader(r, eb.BigEndian)}
}

// Byte reads a single byte.
func (d *Decoder) Byte() uint8 { return d.d.Uint8() }

// Bool reads a boolean.
func (d *Decoder) Bool() bool { return d.d.Bool() }

// Int reads a 4-byte integer.
func (d *Decoder) Int() int32 { return d.d.Int32() }

// Long reads an 8-byte integer.
func (d *Decoder) Long() int64 { return d.d.Int64() }

// ID reads an 8-byte identifier.
func (d *Decoder) ID() uint64 { return d.d.Uint64() }

// String reads a length prefixed string.
func (d *Decoder) String() string {
	data := make([]byte, d.d.Uint32())
	d.d.Data(data)
	return string(data)
}

// Data reads n raw bytes.
func (d *Decoder) Data(n int) []byte {
	data := make([]byte, n)
	d.d.Data(data)
	return data
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return d.r.Len() }

// Error returns the first read error.
func (d *Decoder) Error() error { return d.d.Error() }
