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
	"fmt"
	"reflect"

	"github.com/eclipse-jdt/jdtdebug/core/data/binary"
)

// debug adds panic handlers to encode() and decode() so that incorrectly
// handled types can be more easily identified.
const debug = false

var (
	tyEventModifier = reflect.TypeOf((*EventModifier)(nil)).Elem()
	tyValue         = reflect.TypeOf((*Value)(nil)).Elem()
	tyEvent         = reflect.TypeOf((*Event)(nil)).Elem()
)

// enum is implemented by the enumerator types that are validated on decode.
type enum interface {
	valid() bool
	label() string
}

func unbox(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface {
		return v.Elem()
	}
	return v
}

// tagOf returns the tag used to encode the Value o.
func tagOf(o Value) (Tag, error) {
	switch o.(type) {
	case ArrayID:
		return TagArray, nil
	case byte:
		return TagByte, nil
	case Char:
		return TagChar, nil
	case ObjectID:
		return TagObject, nil
	case float32:
		return TagFloat, nil
	case float64:
		return TagDouble, nil
	case int, int32:
		return TagInt, nil
	case int16:
		return TagShort, nil
	case int64:
		return TagLong, nil
	case nil:
		return TagVoid, nil
	case bool:
		return TagBoolean, nil
	case StringID:
		return TagString, nil
	case ThreadID:
		return TagThread, nil
	case ThreadGroupID:
		return TagThreadGroup, nil
	case ClassLoaderID:
		return TagClassLoader, nil
	case ClassObjectID:
		return TagClassObject, nil
	default:
		return 0, fmt.Errorf("Cannot encode Value of type %T", o)
	}
}

// encode writes the value v to w, using the JDWP encoding scheme.
func (c *Connection) encode(w binary.Writer, v reflect.Value) error {
	if debug {
		defer func() {
			if r := recover(); r != nil {
				panic(fmt.Errorf("Type %T %v %v", v.Interface(), v.Type().Name(), v.Kind()))
			}
		}()
	}

	t := v.Type()
	o := v.Interface()

	switch t {
	case tyEventModifier:
		// EventModifier's are prefixed with their 1-byte modKind.
		w.Uint8(o.(EventModifier).modKind())

	case tyValue:
		// values are prefixed with their 1-tag type.
		tag, err := tagOf(o)
		if err != nil {
			return err
		}
		w.Uint8(uint8(tag))
		if tag == TagVoid {
			return w.Error()
		}
	}

	switch o := o.(type) {
	case ReferenceTypeID, ClassID, InterfaceID, ArrayTypeID, ClassOnlyEventModifier:
		binary.WriteUint(w, c.idSizes.ReferenceTypeIDSize*8, unbox(v).Uint())

	case MethodID:
		binary.WriteUint(w, c.idSizes.MethodIDSize*8, unbox(v).Uint())

	case FieldID:
		binary.WriteUint(w, c.idSizes.FieldIDSize*8, unbox(v).Uint())

	case FrameID:
		binary.WriteUint(w, c.idSizes.FrameIDSize*8, unbox(v).Uint())

	case ObjectID, ThreadID, ThreadGroupID, StringID, ClassLoaderID, ClassObjectID, ArrayID,
		ThreadOnlyEventModifier, InstanceOnlyEventModifier:
		binary.WriteUint(w, c.idSizes.ObjectIDSize*8, unbox(v).Uint())

	case []byte: // Optimisation
		w.Uint32(uint32(len(o)))
		w.Data(o)

	default:
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface:
			return c.encode(w, v.Elem())
		case reflect.String:
			w.Uint32(uint32(v.Len()))
			w.Data([]byte(v.String()))
		case reflect.Uint8:
			w.Uint8(uint8(v.Uint()))
		case reflect.Uint16:
			w.Uint16(uint16(v.Uint()))
		case reflect.Uint32:
			w.Uint32(uint32(v.Uint()))
		case reflect.Uint64:
			w.Uint64(v.Uint())
		case reflect.Int8:
			w.Int8(int8(v.Int()))
		case reflect.Int16:
			w.Int16(int16(v.Int()))
		case reflect.Int32, reflect.Int:
			w.Int32(int32(v.Int()))
		case reflect.Int64:
			w.Int64(v.Int())
		case reflect.Float32:
			w.Float32(float32(v.Float()))
		case reflect.Float64:
			w.Float64(v.Float())
		case reflect.Bool:
			w.Bool(v.Bool())
		case reflect.Struct:
			for i, count := 0, v.NumField(); i < count; i++ {
				if err := c.encode(w, v.Field(i)); err != nil {
					return err
				}
			}
		case reflect.Array:
			for i, count := 0, v.Len(); i < count; i++ {
				if err := c.encode(w, v.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Slice:
			count := v.Len()
			w.Uint32(uint32(count))
			for i := 0; i < count; i++ {
				if err := c.encode(w, v.Index(i)); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("Unhandled type %T %v %v", o, t.Name(), t.Kind())
		}
	}
	return w.Error()
}

// decode reads the value v from r, using the JDWP encoding scheme.
// Enumerators holding values outside their known range produce a
// ProtocolError.
func (c *Connection) decode(r binary.Reader, v reflect.Value) error {
	if debug {
		defer func() {
			if r := recover(); r != nil {
				panic(fmt.Errorf("Type %T %v %v", v.Interface(), v.Type().Name(), v.Kind()))
			}
		}()
	}

	switch v.Type() {
	case tyEvent:
		var kind EventKind
		if err := c.decode(r, reflect.ValueOf(&kind)); err != nil {
			return err
		}
		event := kind.event()
		if event == nil {
			return ProtocolError{Label: "event kind", Value: uint64(kind)}
		}
		v.Set(reflect.ValueOf(event))
		v = v.Elem()
		// Continue to decode event body below.

	case tyValue:
		tag := Tag(r.Uint8())
		if err := r.Error(); err != nil {
			return err
		}
		var ty reflect.Type
		switch {
		case tag == TagVoid:
			v.Set(reflect.Zero(v.Type()))
			return nil
		case tag.IsObject():
			ty = objectType(tag)
		case tag.primitive() != nil:
			ty = reflect.TypeOf(tag.primitive())
		default:
			return ProtocolError{Label: tag.label(), Value: uint64(tag)}
		}
		data := reflect.New(ty).Elem()
		if err := c.decode(r, data); err != nil {
			return err
		}
		v.Set(data)
		return nil
	}

	t := v.Type()
	o := v.Interface()
	switch o.(type) {
	case ReferenceTypeID, ClassID, InterfaceID, ArrayTypeID:
		v.Set(reflect.ValueOf(binary.ReadUint(r, c.idSizes.ReferenceTypeIDSize*8)).Convert(t))

	case MethodID:
		v.Set(reflect.ValueOf(binary.ReadUint(r, c.idSizes.MethodIDSize*8)).Convert(t))

	case FieldID:
		v.Set(reflect.ValueOf(binary.ReadUint(r, c.idSizes.FieldIDSize*8)).Convert(t))

	case FrameID:
		v.Set(reflect.ValueOf(binary.ReadUint(r, c.idSizes.FrameIDSize*8)).Convert(t))

	case ObjectID, ThreadID, ThreadGroupID, StringID, ClassLoaderID, ClassObjectID, ArrayID:
		v.Set(reflect.ValueOf(binary.ReadUint(r, c.idSizes.ObjectIDSize*8)).Convert(t))

	case EventModifier:
		return fmt.Errorf("Cannot decode EventModifiers")

	default:
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface:
			return c.decode(r, v.Elem())
		case reflect.String:
			n, err := length(r, "string length")
			if err != nil {
				return err
			}
			data := make([]byte, n)
			r.Data(data)
			v.Set(reflect.ValueOf(string(data)).Convert(t))
		case reflect.Bool:
			v.Set(reflect.ValueOf(r.Bool()).Convert(t))
		case reflect.Uint8:
			v.Set(reflect.ValueOf(r.Uint8()).Convert(t))
		case reflect.Uint16:
			v.Set(reflect.ValueOf(r.Uint16()).Convert(t))
		case reflect.Uint32:
			v.Set(reflect.ValueOf(r.Uint32()).Convert(t))
		case reflect.Uint64:
			v.Set(reflect.ValueOf(r.Uint64()).Convert(t))
		case reflect.Int8:
			v.Set(reflect.ValueOf(r.Int8()).Convert(t))
		case reflect.Int16:
			v.Set(reflect.ValueOf(r.Int16()).Convert(t))
		case reflect.Int32, reflect.Int:
			v.Set(reflect.ValueOf(r.Int32()).Convert(t))
		case reflect.Int64:
			v.Set(reflect.ValueOf(r.Int64()).Convert(t))
		case reflect.Float32:
			v.Set(reflect.ValueOf(r.Float32()).Convert(t))
		case reflect.Float64:
			v.Set(reflect.ValueOf(r.Float64()).Convert(t))
		case reflect.Struct:
			for i, count := 0, v.NumField(); i < count; i++ {
				if err := c.decode(r, v.Field(i)); err != nil {
					return err
				}
			}
		case reflect.Array:
			for i, count := 0, v.Len(); i < count; i++ {
				if err := c.decode(r, v.Index(i)); err != nil {
					return err
				}
			}
		case reflect.Slice:
			count, err := length(r, "element count")
			if err != nil {
				return err
			}
			slice := reflect.MakeSlice(t, 0, 0)
			for i := 0; i < count; i++ {
				el := reflect.New(t.Elem()).Elem()
				if err := c.decode(r, el); err != nil {
					return err
				}
				slice = reflect.Append(slice, el)
			}
			v.Set(slice)
		default:
			return fmt.Errorf("Unhandled type %T %v %v", o, t.Name(), t.Kind())
		}
	}
	if err := r.Error(); err != nil {
		return err
	}
	if e, ok := v.Interface().(enum); ok && !e.valid() {
		return ProtocolError{Label: e.label(), Value: enumValue(v)}
	}
	return nil
}

// length reads a 32 bit length prefix. Every string byte and collection
// element occupies at least one byte on the wire, so a length larger than the
// bytes left in r (or than a packet, if r cannot tell) is malformed.
func length(r binary.Reader, label string) (int, error) {
	n := r.Uint32()
	if err := r.Error(); err != nil {
		return 0, err
	}
	limit := maxPacketSize
	if l, ok := r.(interface{ Len() int }); ok && l.Len() >= 0 {
		limit = l.Len()
	}
	if uint64(n) > uint64(limit) {
		return 0, ProtocolError{Label: label, Value: uint64(n)}
	}
	return int(n), nil
}

func objectType(tag Tag) reflect.Type {
	switch tag {
	case TagArray:
		return reflect.TypeOf(ArrayID(0))
	case TagString:
		return reflect.TypeOf(StringID(0))
	case TagThread:
		return reflect.TypeOf(ThreadID(0))
	case TagThreadGroup:
		return reflect.TypeOf(ThreadGroupID(0))
	case TagClassLoader:
		return reflect.TypeOf(ClassLoaderID(0))
	case TagClassObject:
		return reflect.TypeOf(ClassObjectID(0))
	default:
		return reflect.TypeOf(ObjectID(0))
	}
}

func enumValue(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	default:
		return v.Uint()
	}
}
