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
	"reflect"

	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
)

func empty(Command) ([]byte, jdwp.Error) { return []byte{}, jdwp.ErrNone }

func (vm *VM) installDefaults() {
	h := map[[2]uint8]Handler{
		{1, 1}:   vm.versionReply,
		{1, 2}:   vm.classesBySignature,
		{1, 3}:   vm.allClasses,
		{1, 4}:   vm.allThreads,
		{1, 6}:   empty,
		{1, 7}:   idSizes,
		{1, 8}:   empty,
		{1, 9}:   empty,
		{1, 10}:  empty,
		{1, 17}:  vm.capabilitiesReply,
		{2, 1}:   vm.signature,
		{2, 4}:   vm.fields,
		{2, 5}:   vm.methods,
		{6, 1}:   vm.lineTable,
		{9, 9}:   vm.isCollected,
		{11, 1}:  threadName,
		{11, 2}:  empty,
		{11, 3}:  empty,
		{11, 12}: suspendCount,
		{15, 1}:  vm.setRequest,
		{15, 2}:  vm.clearRequest,
		{15, 3}:  vm.clearAllBreakpoints,
	}
	for k, v := range h {
		vm.handlers[k] = v
	}
}

func idSizes(Command) ([]byte, jdwp.Error) {
	return NewEncoder().Int(8).Int(8).Int(8).Int(8).Int(8).Bytes(), jdwp.ErrNone
}

func threadName(c Command) ([]byte, jdwp.Error) {
	return NewEncoder().String("main").Bytes(), jdwp.ErrNone
}

func suspendCount(c Command) ([]byte, jdwp.Error) {
	return NewEncoder().Int(1).Bytes(), jdwp.ErrNone
}

func (vm *VM) versionReply(Command) ([]byte, jdwp.Error) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	v := vm.version
	return NewEncoder().String(v.Description).Int(int32(v.JDWPMajor)).Int(int32(v.JDWPMinor)).
		String(v.Version).String(v.Name).Bytes(), jdwp.ErrNone
}

func (vm *VM) capabilitiesReply(Command) ([]byte, jdwp.Error) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	e := NewEncoder()
	v := reflect.ValueOf(vm.capabilities)
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Array {
			for j := 0; j < f.Len(); j++ {
				e.Bool(f.Index(j).Bool())
			}
			continue
		}
		e.Bool(f.Bool())
	}
	return e.Bytes(), jdwp.ErrNone
}

func (vm *VM) classesBySignature(c Command) ([]byte, jdwp.Error) {
	sig := NewDecoder(c.Data).String()
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	matches := []Class{}
	for _, class := range vm.classes {
		if class.Signature == sig {
			matches = append(matches, class)
		}
	}
	e := NewEncoder().Int(int32(len(matches)))
	for _, class := range matches {
		e.Byte(uint8(class.Tag)).ID(uint64(class.ID)).Int(int32(class.Status))
	}
	return e.Bytes(), jdwp.ErrNone
}

func (vm *VM) allClasses(c Command) ([]byte, jdwp.Error) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	e := NewEncoder().Int(int32(len(vm.classes)))
	for _, class := range vm.classes {
		e.Byte(uint8(class.Tag)).ID(uint64(class.ID)).String(class.Signature).Int(int32(class.Status))
	}
	return e.Bytes(), jdwp.ErrNone
}

func (vm *VM) allThreads(c Command) ([]byte, jdwp.Error) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	e := NewEncoder().Int(int32(len(vm.threads)))
	for _, t := range vm.threads {
		e.ID(uint64(t))
	}
	return e.Bytes(), jdwp.ErrNone
}

func (vm *VM) class(id jdwp.ReferenceTypeID) (Class, bool) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	for _, class := range vm.classes {
		if class.ID == id {
			return class, true
		}
	}
	return Class{}, false
}

func (vm *VM) signature(c Command) ([]byte, jdwp.Error) {
	class, ok := vm.class(jdwp.ReferenceTypeID(NewDecoder(c.Data).ID()))
	if !ok {
		return nil, jdwp.ErrInvalidClass
	}
	return NewEncoder().String(class.Signature).Bytes(), jdwp.ErrNone
}

func (vm *VM) methods(c Command) ([]byte, jdwp.Error) {
	class, ok := vm.class(jdwp.ReferenceTypeID(NewDecoder(c.Data).ID()))
	if !ok {
		return nil, jdwp.ErrInvalidClass
	}
	e := NewEncoder().Int(int32(len(class.Methods)))
	for _, m := range class.Methods {
		e.ID(uint64(m.ID)).String(m.Name).String(m.Signature).Int(int32(m.ModBits))
	}
	return e.Bytes(), jdwp.ErrNone
}

func (vm *VM) fields(c Command) ([]byte, jdwp.Error) {
	class, ok := vm.class(jdwp.ReferenceTypeID(NewDecoder(c.Data).ID()))
	if !ok {
		return nil, jdwp.ErrInvalidClass
	}
	e := NewEncoder().Int(int32(len(class.Fields)))
	for _, f := range class.Fields {
		e.ID(uint64(f.ID)).String(f.Name).String(f.Signature).Int(int32(f.ModBits))
	}
	return e.Bytes(), jdwp.ErrNone
}

func (vm *VM) lineTable(c Command) ([]byte, jdwp.Error) {
	d := NewDecoder(c.Data)
	d.ID()
	method := jdwp.MethodID(d.ID())
	vm.mutex.Lock()
	table, ok := vm.lineTables[method]
	vm.mutex.Unlock()
	if !ok {
		return nil, jdwp.ErrAbsentInformation
	}
	e := NewEncoder().Long(int64(table.Start)).Long(int64(table.End)).Int(int32(len(table.Lines)))
	for _, l := range table.Lines {
		e.Long(int64(l.CodeIndex)).Int(int32(l.LineNumber))
	}
	return e.Bytes(), jdwp.ErrNone
}

func (vm *VM) isCollected(c Command) ([]byte, jdwp.Error) {
	id := jdwp.ObjectID(NewDecoder(c.Data).ID())
	vm.mutex.Lock()
	collected := vm.collected[id]
	vm.mutex.Unlock()
	return NewEncoder().Bool(collected).Bytes(), jdwp.ErrNone
}

func (vm *VM) setRequest(c Command) ([]byte, jdwp.Error) {
	d := NewDecoder(c.Data)
	r := EventRequest{
		Kind:   jdwp.EventKind(d.Byte()),
		Policy: jdwp.SuspendPolicy(d.Byte()),
	}
	for i, count := 0, int(d.Int()); i < count; i++ {
		kind := d.Byte()
		var size int
		switch kind {
		case 1, 2:
			size = 4
		case 3, 4, 11:
			size = 8
		case 5, 6, 12:
			size = 4 + int(NewDecoder(c.Data[len(c.Data)-d.Remaining():]).Int())
		case 7:
			size = 25
		case 8:
			size = 10
		case 9:
			size = 16
		case 10:
			size = 16
		default:
			return nil, jdwp.ErrIllegalArgument
		}
		r.Modifiers = append(r.Modifiers, Modifier{kind, d.Data(size)})
	}
	if d.Error() != nil || d.Remaining() != 0 {
		return nil, jdwp.ErrIllegalArgument
	}

	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	vm.nextRequest++
	r.ID = vm.nextRequest
	vm.requests = append(vm.requests, r)
	return NewEncoder().Int(int32(r.ID)).Bytes(), jdwp.ErrNone
}

func (vm *VM) clearRequest(c Command) ([]byte, jdwp.Error) {
	d := NewDecoder(c.Data)
	kind, id := jdwp.EventKind(d.Byte()), jdwp.EventRequestID(d.Int())
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	for i, r := range vm.requests {
		if r.Kind == kind && r.ID == id {
			vm.requests = append(vm.requests[:i], vm.requests[i+1:]...)
			break
		}
	}
	return []byte{}, jdwp.ErrNone
}

func (vm *VM) clearAllBreakpoints(c Command) ([]byte, jdwp.Error) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	kept := []EventRequest{}
	for _, r := range vm.requests {
		if r.Kind != jdwp.Breakpoint {
			kept = append(kept, r)
		}
	}
	vm.requests = kept
	return []byte{}, jdwp.ErrNone
}
