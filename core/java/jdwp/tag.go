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

import "fmt"

// Tag is a type tag prefixing a tagged value or object.
type Tag uint8

const (
	TagArray       = Tag('[') // '[' - an array object (objectID size).
	TagByte        = Tag('B') // 'B' - a byte value (1 byte).
	TagChar        = Tag('C') // 'C' - a character value (2 bytes).
	TagObject      = Tag('L') // 'L' - an object (objectID size).
	TagFloat       = Tag('F') // 'F' - a float value (4 bytes).
	TagDouble      = Tag('D') // 'D' - a double value (8 bytes).
	TagInt         = Tag('I') // 'I' - an int value (4 bytes).
	TagLong        = Tag('J') // 'J' - a long value (8 bytes).
	TagShort       = Tag('S') // 'S' - a short value (2 bytes).
	TagVoid        = Tag('V') // 'V' - a void value (no bytes).
	TagBoolean     = Tag('Z') // 'Z' - a boolean value (1 byte).
	TagString      = Tag('s') // 's' - a String object (objectID size).
	TagThread      = Tag('t') // 't' - a Thread object (objectID size).
	TagThreadGroup = Tag('g') // 'g' - a ThreadGroup object (objectID size).
	TagClassLoader = Tag('l') // 'l' - a ClassLoader object (objectID size).
	TagClassObject = Tag('c') // 'c' - a class object object (objectID size).
)

func (t Tag) String() string {
	switch t {
	case TagArray:
		return "Array"
	case TagByte:
		return "Byte"
	case TagChar:
		return "Char"
	case TagObject:
		return "Object"
	case TagFloat:
		return "Float"
	case TagDouble:
		return "Double"
	case TagInt:
		return "Int"
	case TagLong:
		return "Long"
	case TagShort:
		return "Short"
	case TagVoid:
		return "Void"
	case TagBoolean:
		return "Boolean"
	case TagString:
		return "String"
	case TagThread:
		return "Thread"
	case TagThreadGroup:
		return "ThreadGroup"
	case TagClassLoader:
		return "ClassLoader"
	case TagClassObject:
		return "ClassObject"
	default:
		return fmt.Sprintf("Tag<%d>", int(t))
	}
}

// IsObject returns true if the tag identifies an object reference.
func (t Tag) IsObject() bool {
	switch t {
	case TagArray, TagObject, TagString, TagThread, TagThreadGroup, TagClassLoader, TagClassObject:
		return true
	}
	return false
}

func (t Tag) valid() bool   { return t.IsObject() || t.primitive() != nil || t == TagVoid }
func (t Tag) label() string { return "value tag" }

// primitive returns the Go type decoded for a primitive tag, or nil.
func (t Tag) primitive() interface{} {
	switch t {
	case TagByte:
		return byte(0)
	case TagChar:
		return Char(0)
	case TagFloat:
		return float32(0)
	case TagDouble:
		return float64(0)
	case TagInt:
		return int(0)
	case TagShort:
		return int16(0)
	case TagLong:
		return int64(0)
	case TagBoolean:
		return false
	}
	return nil
}
