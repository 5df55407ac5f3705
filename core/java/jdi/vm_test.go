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

package jdi_test

import (
	"context"
	"testing"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdi"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp/test"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

const wait = 5 * time.Second

var (
	location = jdwp.Location{Type: jdwp.Class, Class: 0x10, Method: 0x20, Location: 7}
	thread   = jdwp.ThreadID(0x42)
	fooClass = test.Class{
		Tag:       jdwp.Class,
		ID:        0x10,
		Signature: "Lcom/example/Foo;",
		Status:    jdwp.StatusPrepared,
		Methods: jdwp.Methods{
			{ID: 0x20, Name: "run", Signature: "()V"},
			{ID: 0x21, Name: "stop", Signature: "()V"},
		},
		Fields: jdwp.Fields{
			{ID: 0x30, Name: "count", Signature: "I"},
		},
	}
)

func attach(ctx context.Context, t *testing.T, opts ...jdi.Option) (*jdi.VirtualMachine, *test.VM, func()) {
	ctx, cancel := task.WithCancel(ctx)
	conn, fake := test.Start(ctx)
	fake.AddClass(fooClass)
	vm, err := jdi.Attach(ctx, conn, opts...)
	if !assert.For(ctx, "Attach").ThatError(err).Succeeded() {
		cancel()
		t.FailNow()
	}
	return vm, fake, func() {
		vm.Dispose()
		cancel()
	}
}

// armed returns the most recent request of the kind set on the fake VM.
func armed(fake *test.VM, kind jdwp.EventKind) test.EventRequest {
	requests := fake.RequestsOf(kind)
	if len(requests) == 0 {
		return test.EventRequest{}
	}
	return requests[len(requests)-1]
}

func TestAttachArmsClassTracking(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	assert.For(ctx, "state").That(vm.State()).Equals(jdi.Connected)
	for _, kind := range []jdwp.EventKind{jdwp.ClassPrepare, jdwp.ClassUnload} {
		r := armed(fake, kind)
		assert.For(ctx, "%v armed", kind).That(r.Kind).Equals(kind)
		assert.For(ctx, "%v policy", kind).That(r.Policy).Equals(jdwp.SuspendNone)
	}
	m := vm.EventRequestManager()
	assert.For(ctx, "visible class prepare requests").ThatSlice(m.ClassPrepareRequests()).IsEmpty()
	assert.For(ctx, "visible requests").ThatSlice(m.Requests()).IsEmpty()
}

func TestAttachWithoutClassTracking(t *testing.T) {
	ctx := log.Testing(t)
	_, fake, done := attach(ctx, t, jdi.WithClassTracking(false))
	defer done()

	assert.For(ctx, "requests").ThatSlice(fake.Requests()).IsEmpty()
}

func TestVersionAndCapabilities(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	v, err := vm.JDWPVersion()
	assert.For(ctx, "JDWPVersion").ThatError(err).Succeeded()
	assert.For(ctx, "version").That(v.String()).Equals("1.8.0")

	ok, err := vm.SupportsJDWP(">= 1.6")
	assert.For(ctx, "SupportsJDWP").ThatError(err).Succeeded()
	assert.For(ctx, ">= 1.6").ThatBoolean(ok).IsTrue()

	_, err = vm.SupportsJDWP("not a constraint")
	assert.For(ctx, "bad constraint").ThatError(err).HasCause(jdi.ErrInvalidArgument)

	caps, err := vm.Capabilities()
	assert.For(ctx, "Capabilities").ThatError(err).Succeeded()
	assert.For(ctx, "CanUseInstanceFilters").ThatBoolean(caps.CanUseInstanceFilters).IsTrue()

	vm.Capabilities()
	vm.Version()
	assert.For(ctx, "CapabilitiesNew commands").ThatSlice(fake.Commands(1, 17)).IsLength(1)
	assert.For(ctx, "Version commands").ThatSlice(fake.Commands(1, 1)).IsLength(1)
}

func TestClassesByName(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	types, err := vm.ClassesByName("com.example.Foo")
	assert.For(ctx, "ClassesByName").ThatError(err).Succeeded()
	if !assert.For(ctx, "types").ThatSlice(types).IsLength(1) {
		return
	}
	foo := types[0]
	assert.For(ctx, "name").That(foo.Name()).Equals("com.example.Foo")
	assert.For(ctx, "prepared").ThatBoolean(foo.IsPrepared()).IsTrue()

	again, err := vm.ClassesByName("com.example.Foo")
	assert.For(ctx, "ClassesByName again").ThatError(err).Succeeded()
	assert.For(ctx, "cached").That(again[0]).Equals(foo)
	assert.For(ctx, "ClassesBySignature commands").ThatSlice(fake.Commands(1, 2)).IsLength(1)

	methods, err := foo.MethodsByName("stop", "")
	assert.For(ctx, "MethodsByName").ThatError(err).Succeeded()
	if assert.For(ctx, "methods").ThatSlice(methods).IsLength(1) {
		assert.For(ctx, "method").That(methods[0].String()).Equals("com.example.Foo.stop()V")
	}
	field, err := foo.FieldByName("count")
	assert.For(ctx, "FieldByName").ThatError(err).Succeeded()
	assert.For(ctx, "field").That(field.ID).Equals(jdwp.FieldID(0x30))

	foo.Methods()
	assert.For(ctx, "Methods commands").ThatSlice(fake.Commands(2, 5)).IsLength(1)
}

func TestLocationsOfLine(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	fake.SetLineTable(0x20, jdwp.LineTable{
		Start: 0,
		End:   20,
		Lines: []jdwp.LineTableEntry{{CodeIndex: 0, LineNumber: 10}, {CodeIndex: 7, LineNumber: 11}},
	})
	types, err := vm.ClassesByName("com.example.Foo")
	if !assert.For(ctx, "ClassesByName").ThatError(err).Succeeded() {
		return
	}
	locations, err := types[0].LocationsOfLine(11)
	assert.For(ctx, "LocationsOfLine").ThatError(err).Succeeded()
	assert.For(ctx, "locations").ThatSlice(locations).Equals([]jdwp.Location{location})
}

func TestMethodAt(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	fake.SetLineTable(0x20, jdwp.LineTable{
		End:   20,
		Lines: []jdwp.LineTableEntry{{CodeIndex: 0, LineNumber: 10}, {CodeIndex: 7, LineNumber: 11}},
	})
	m, err := vm.MethodAt(location)
	if !assert.For(ctx, "MethodAt").ThatError(err).Succeeded() {
		return
	}
	assert.For(ctx, "name").That(m.Name).Equals("run")
	assert.For(ctx, "declaring type").That(m.DeclaringType().Name()).Equals("com.example.Foo")
	line, err := m.LineOf(location.Location + 2)
	assert.For(ctx, "LineOf").ThatError(err).Succeeded()
	assert.For(ctx, "line").ThatInteger(line).Equals(11)

	missing := location
	missing.Method = 0x99
	_, err = vm.MethodAt(missing)
	assert.For(ctx, "missing method").ThatError(err).HasCause(jdi.ErrInternal)
}

func TestLocationsOfLineSkipsNativeMethods(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	fake.AddClass(test.Class{
		Tag:       jdwp.Class,
		ID:        0x11,
		Signature: "Lcom/example/Native;",
		Status:    jdwp.StatusPrepared,
		Methods: jdwp.Methods{
			{ID: 0x40, Name: "peek", Signature: "()I", ModBits: jdwp.ModNative | jdwp.ModStatic},
			{ID: 0x41, Name: "run", Signature: "()V", ModBits: jdwp.ModAbstract},
		},
	})
	types, err := vm.ClassesByName("com.example.Native")
	if !assert.For(ctx, "ClassesByName").ThatError(err).Succeeded() {
		return
	}
	locations, err := types[0].LocationsOfLine(1)
	assert.For(ctx, "LocationsOfLine").ThatError(err).Succeeded()
	assert.For(ctx, "locations").ThatSlice(locations).IsEmpty()
	assert.For(ctx, "line table queries").ThatSlice(fake.Commands(6, 1)).IsEmpty()
}

func TestSendAfterDispose(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	assert.For(ctx, "Dispose").ThatError(vm.Dispose()).Succeeded()
	assert.For(ctx, "Dispose commands").ThatSlice(fake.Commands(1, 6)).IsLength(1)
	assert.For(ctx, "state").That(vm.State()).Equals(jdi.Disconnecting)

	_, err := vm.Send(1, 1, nil)
	assert.For(ctx, "Send").ThatError(err).HasCause(jdi.ErrVMDisconnected)
	assert.For(ctx, "Resume").ThatError(vm.Resume()).HasCause(jdi.ErrVMDisconnected)

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if assert.For(ctx, "set").That(set).IsNotNil() {
		_, ok := set.Events()[0].(*jdi.VMDisconnectEvent)
		assert.For(ctx, "disconnect event").ThatBoolean(ok).IsTrue()
	}
	assert.For(ctx, "state").That(vm.State()).Equals(jdi.Disconnected)
	assert.For(ctx, "Dispose again").ThatError(vm.Dispose()).Succeeded()
}

func TestTranslatesCollectedObjects(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	fake.Handle(11, 1, func(test.Command) ([]byte, jdwp.Error) { return nil, jdwp.ErrInvalidThread })
	_, err := vm.Thread(thread).Name()
	assert.For(ctx, "Name").ThatError(err).HasCause(jdi.ErrObjectCollected)
}

func TestSignatures(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		name string
		sig  string
	}{
		{"int", "I"},
		{"boolean", "Z"},
		{"java.lang.String", "Ljava/lang/String;"},
		{"com.example.Foo[]", "[Lcom/example/Foo;"},
		{"long[][]", "[[J"},
	} {
		assert.For(ctx, "Signature(%v)", test.name).That(jdi.Signature(test.name)).Equals(test.sig)
		assert.For(ctx, "TypeName(%v)", test.sig).That(jdi.TypeName(test.sig)).Equals(test.name)
	}
}
