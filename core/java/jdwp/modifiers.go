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

import "strings"

type bitName struct {
	bit  uint32
	name string
}

// bitNames returns the names of the bits set in v, in table order.
func bitNames(v uint32, table []bitName, sep string) string {
	parts := []string{}
	for _, b := range table {
		if v&b.bit != 0 {
			parts = append(parts, b.name)
		}
	}
	return strings.Join(parts, sep)
}

// ModBits holds the access flags of a class, method or field, as defined
// by the class file format.
type ModBits int

const (
	ModPublic       = ModBits(0x0001)
	ModPrivate      = ModBits(0x0002)
	ModProtected    = ModBits(0x0004)
	ModStatic       = ModBits(0x0008)
	ModFinal        = ModBits(0x0010)
	ModSynchronized = ModBits(0x0020)
	ModVolatile     = ModBits(0x0040)
	ModTransient    = ModBits(0x0080)
	ModNative       = ModBits(0x0100)
	ModInterface    = ModBits(0x0200)
	ModAbstract     = ModBits(0x0400)
	ModStrict       = ModBits(0x0800)
)

var modNames = []bitName{
	{uint32(ModPublic), "public"},
	{uint32(ModPrivate), "private"},
	{uint32(ModProtected), "protected"},
	{uint32(ModStatic), "static"},
	{uint32(ModFinal), "final"},
	{uint32(ModSynchronized), "synchronized"},
	{uint32(ModVolatile), "volatile"},
	{uint32(ModTransient), "transient"},
	{uint32(ModNative), "native"},
	{uint32(ModInterface), "interface"},
	{uint32(ModAbstract), "abstract"},
	{uint32(ModStrict), "strictfp"},
}

func (m ModBits) String() string { return bitNames(uint32(m), modNames, " ") }

// Static returns true for static members.
func (m ModBits) Static() bool { return m&ModStatic != 0 }

// HasCode returns false for native and abstract methods, which have no
// bytecode and so no line table.
func (m ModBits) HasCode() bool { return m&(ModNative|ModAbstract) == 0 }

// ClassStatus is the set of loading states a class has passed through.
type ClassStatus int

const (
	StatusVerified    = ClassStatus(1)
	StatusPrepared    = ClassStatus(2)
	StatusInitialized = ClassStatus(4)
	StatusError       = ClassStatus(8)
)

var statusNames = []bitName{
	{uint32(StatusVerified), "Verified"},
	{uint32(StatusPrepared), "Prepared"},
	{uint32(StatusInitialized), "Initialized"},
	{uint32(StatusError), "Error"},
}

func (c ClassStatus) String() string { return bitNames(uint32(c), statusNames, ", ") }
