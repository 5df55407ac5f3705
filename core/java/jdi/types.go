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

package jdi

import (
	"fmt"
	"sort"
	"sync"

	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// ReferenceType is a mirror of a class, interface or array type loaded in
// the target.
type ReferenceType struct {
	mirror
	tag       jdwp.TypeTag
	id        jdwp.ReferenceTypeID
	signature string

	mutex  sync.Mutex
	status jdwp.ClassStatus
}

func (vm *VirtualMachine) newReferenceType(tag jdwp.TypeTag, id jdwp.ReferenceTypeID, signature string, status jdwp.ClassStatus) *ReferenceType {
	return &ReferenceType{mirror: mirror{vm}, tag: tag, id: id, signature: signature, status: status}
}

// ID returns the type's identifier.
func (t *ReferenceType) ID() jdwp.ReferenceTypeID { return t.id }

// Tag returns whether the type is a class, interface or array.
func (t *ReferenceType) Tag() jdwp.TypeTag { return t.tag }

// Signature returns the type's JNI signature.
func (t *ReferenceType) Signature() string { return t.signature }

// Name returns the type's Java name.
func (t *ReferenceType) Name() string { return TypeName(t.signature) }

// Status returns the last known class status.
func (t *ReferenceType) Status() jdwp.ClassStatus {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.status
}

// IsPrepared returns true if the type has reached the prepared state.
func (t *ReferenceType) IsPrepared() bool { return t.Status()&jdwp.StatusPrepared != 0 }

func (t *ReferenceType) String() string { return t.Name() }

func (t *ReferenceType) members() *members { return t.vm.types.members(t.id) }

// Methods returns the methods declared by the type.
func (t *ReferenceType) Methods() ([]*Method, error) {
	m := t.members()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.methods == nil {
		err := t.vm.call(func(c *jdwp.Connection) error {
			var err error
			m.methods, err = c.GetMethods(t.id)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	out := make([]*Method, len(m.methods))
	for i, method := range m.methods {
		out[i] = &Method{mirror{t.vm}, t, method}
	}
	return out, nil
}

// MethodsByName returns the methods with the given name. An empty signature
// matches every overload.
func (t *ReferenceType) MethodsByName(name, signature string) ([]*Method, error) {
	methods, err := t.Methods()
	if err != nil {
		return nil, err
	}
	out := []*Method{}
	for _, m := range methods {
		if m.Name == name && (signature == "" || m.Signature == signature) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Fields returns the fields declared by the type.
func (t *ReferenceType) Fields() ([]*Field, error) {
	m := t.members()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.fields == nil {
		err := t.vm.call(func(c *jdwp.Connection) error {
			var err error
			m.fields, err = c.GetFields(t.id)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	out := make([]*Field, len(m.fields))
	for i, field := range m.fields {
		out[i] = &Field{mirror{t.vm}, t, field}
	}
	return out, nil
}

// FieldByName returns the field with the given name, or nil.
func (t *ReferenceType) FieldByName(name string) (*Field, error) {
	fields, err := t.Fields()
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, nil
}

// LocationsOfLine returns the code locations starting the source line, across
// every method of the type with line information.
func (t *ReferenceType) LocationsOfLine(line int) ([]jdwp.Location, error) {
	methods, err := t.Methods()
	if err != nil {
		return nil, err
	}
	out := []jdwp.Location{}
	for _, m := range methods {
		if !m.ModBits.HasCode() {
			continue
		}
		table, err := m.LineTable()
		switch errors.Cause(err) {
		case nil:
		case jdwp.ErrAbsentInformation, jdwp.ErrNativeMethod:
			continue
		default:
			return nil, err
		}
		for _, index := range table.CodeIndices(line) {
			out = append(out, m.Location(index))
		}
	}
	return out, nil
}

// Method is a mirror of a method of a reference type.
type Method struct {
	mirror
	declaringType *ReferenceType
	jdwp.Method
}

// DeclaringType returns the type that declares the method.
func (m *Method) DeclaringType() *ReferenceType { return m.declaringType }

// Location returns the location of the code index within the method.
func (m *Method) Location(index uint64) jdwp.Location {
	t := m.declaringType
	return jdwp.Location{Type: t.tag, Class: jdwp.ClassID(t.id), Method: m.ID, Location: index}
}

// LineTable returns the method's line table.
func (m *Method) LineTable() (jdwp.LineTable, error) {
	t := m.declaringType
	members := t.members()
	members.mutex.Lock()
	defer members.mutex.Unlock()
	if table, ok := members.lines[m.ID]; ok {
		return table, nil
	}
	var table jdwp.LineTable
	err := m.vm.call(func(c *jdwp.Connection) error {
		var err error
		table, err = c.GetLineTable(t.id, m.ID)
		return err
	})
	if err != nil {
		return jdwp.LineTable{}, err
	}
	members.lines[m.ID] = table
	return table, nil
}

// LineOf returns the source line of the code index within the method, or -1
// if the method has no line information.
func (m *Method) LineOf(index uint64) (int, error) {
	table, err := m.LineTable()
	switch errors.Cause(err) {
	case nil:
		return table.LineOf(index), nil
	case jdwp.ErrAbsentInformation, jdwp.ErrNativeMethod:
		return -1, nil
	default:
		return -1, err
	}
}

// MethodAt returns the method holding the location.
func (vm *VirtualMachine) MethodAt(l jdwp.Location) (*Method, error) {
	t, err := vm.referenceType(l.Type, jdwp.ReferenceTypeID(l.Class))
	if err != nil {
		return nil, err
	}
	methods, err := t.Methods()
	if err != nil {
		return nil, err
	}
	for _, m := range methods {
		if m.ID == l.Method {
			return m, nil
		}
	}
	return nil, errors.Wrapf(ErrInternal, "method %v not found in %v", l.Method, t)
}

// referenceType returns the mirror of the type, asking the VM for its
// signature if the session has not seen it.
func (vm *VirtualMachine) referenceType(tag jdwp.TypeTag, id jdwp.ReferenceTypeID) (*ReferenceType, error) {
	if t := vm.types.get(id); t != nil {
		return t, nil
	}
	var sig string
	err := vm.call(func(c *jdwp.Connection) error {
		var err error
		sig, err = c.GetTypeSignature(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vm.newReferenceType(tag, id, sig, 0), nil
}

func (m *Method) String() string {
	return fmt.Sprintf("%v.%s%s", m.declaringType, m.Name, m.Signature)
}

// Field is a mirror of a field of a reference type.
type Field struct {
	mirror
	declaringType *ReferenceType
	jdwp.Field
}

// DeclaringType returns the type that declares the field.
func (f *Field) DeclaringType() *ReferenceType { return f.declaringType }

func (f *Field) String() string { return fmt.Sprintf("%v.%s", f.declaringType, f.Name) }

// members holds the lazily fetched member tables of one reference type.
type members struct {
	mutex   sync.Mutex
	methods jdwp.Methods
	fields  jdwp.Fields
	lines   map[jdwp.MethodID]jdwp.LineTable
}

// typeCache holds the reference types known to a session.
// Member tables are held in a bounded LRU as they are only needed for the
// types being actively debugged.
type typeCache struct {
	mutex  sync.RWMutex
	bySig  map[string][]*ReferenceType
	byID   map[jdwp.ReferenceTypeID]*ReferenceType
	tables *lru.Cache[jdwp.ReferenceTypeID, *members]
}

func newTypeCache(size int) *typeCache {
	tables, err := lru.New[jdwp.ReferenceTypeID, *members](size)
	if err != nil {
		panic(err) // Only fails for non-positive sizes.
	}
	return &typeCache{
		bySig:  map[string][]*ReferenceType{},
		byID:   map[jdwp.ReferenceTypeID]*ReferenceType{},
		tables: tables,
	}
}

// add records t, returning the existing mirror if the type is already known.
func (c *typeCache) add(t *ReferenceType) *ReferenceType {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if existing, ok := c.byID[t.id]; ok {
		existing.mutex.Lock()
		existing.status |= t.Status()
		existing.mutex.Unlock()
		return existing
	}
	c.byID[t.id] = t
	c.bySig[t.signature] = append(c.bySig[t.signature], t)
	return t
}

// unload forgets every type with the signature, returning them.
func (c *typeCache) unload(signature string) []*ReferenceType {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	types := c.bySig[signature]
	delete(c.bySig, signature)
	for _, t := range types {
		delete(c.byID, t.id)
		c.tables.Remove(t.id)
	}
	return types
}

func (c *typeCache) get(id jdwp.ReferenceTypeID) *ReferenceType {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.byID[id]
}

func (c *typeCache) bySignature(signature string) []*ReferenceType {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return append([]*ReferenceType(nil), c.bySig[signature]...)
}

func (c *typeCache) all() []*ReferenceType {
	c.mutex.RLock()
	out := make([]*ReferenceType, 0, len(c.byID))
	for _, t := range c.byID {
		out = append(out, t)
	}
	c.mutex.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].signature != out[j].signature {
			return out[i].signature < out[j].signature
		}
		return out[i].id < out[j].id
	})
	return out
}

func (c *typeCache) members(id jdwp.ReferenceTypeID) *members {
	m := &members{lines: map[jdwp.MethodID]jdwp.LineTable{}}
	if prev, ok, _ := c.tables.PeekOrAdd(id, m); ok {
		c.tables.Get(id)
		return prev
	}
	return m
}

func (c *typeCache) clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.bySig = map[string][]*ReferenceType{}
	c.byID = map[jdwp.ReferenceTypeID]*ReferenceType{}
	c.tables.Purge()
}
