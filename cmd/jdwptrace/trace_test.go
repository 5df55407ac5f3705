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

package main

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

const thread = jdwp.ThreadID(0x42)

var (
	fooClass = test.Class{
		Tag:       jdwp.Class,
		ID:        0x10,
		Signature: "Lcom/example/Foo;",
		Status:    jdwp.StatusPrepared,
		Methods:   jdwp.Methods{{ID: 0x20, Name: "run", Signature: "()V"}},
		Fields:    jdwp.Fields{{ID: 0x30, Name: "count", Signature: "I"}},
	}
	barClass = test.Class{
		Tag:       jdwp.Class,
		ID:        0x50,
		Signature: "Lcom/example/Bar;",
		Status:    jdwp.StatusPrepared,
		Methods:   jdwp.Methods{{ID: 0x60, Name: "main", Signature: "()V"}},
	}
	lines = func(line int) jdwp.LineTable {
		return jdwp.LineTable{End: 20, Lines: []jdwp.LineTableEntry{{CodeIndex: 0, LineNumber: line}, {CodeIndex: 4, LineNumber: line + 1}}}
	}
)

func start(ctx context.Context, t *testing.T) (*tracer, *test.VM, func()) {
	ctx, cancel := task.WithCancel(ctx)
	conn, fake := test.Start(ctx)
	fake.AddClass(fooClass)
	fake.AddThread(thread)
	fake.SetLineTable(0x20, lines(10))
	fake.SetLineTable(0x60, lines(5))
	vm, err := jdi.Attach(ctx, conn)
	if !assert.For(ctx, "Attach").ThatError(err).Succeeded() {
		cancel()
		t.FailNow()
	}
	return newTracer(vm), fake, func() {
		vm.Dispose()
		cancel()
	}
}

// eventually polls f until it holds or the deadline passes.
func eventually(f func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if f() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return f()
}

func deferring(fake *test.VM) (test.EventRequest, bool) {
	for _, r := range fake.RequestsOf(jdwp.ClassPrepare) {
		if r.Policy == jdwp.SuspendEventThread {
			return r, true
		}
	}
	return test.EventRequest{}, false
}

func TestSyncArmsAndDefers(t *testing.T) {
	ctx := log.Testing(t)
	tr, fake, done := start(ctx, t)
	defer done()

	cfg := &Config{
		Breakpoints: []Breakpoint{
			{Class: "com.example.Foo", Line: 11},
			{Class: "com.example.Bar", Line: 5},
		},
		Watchpoints: []Watchpoint{{Class: "com.example.Foo", Field: "count", Modification: true}},
		Exceptions:  []Exception{{Uncaught: true}},
	}
	err := tr.sync(ctx, cfg)
	assert.For(ctx, "sync").ThatError(err).Succeeded()

	breakpoints := fake.RequestsOf(jdwp.Breakpoint)
	if assert.For(ctx, "breakpoints").ThatSlice(breakpoints).IsLength(1) {
		assert.For(ctx, "policy").That(breakpoints[0].Policy).Equals(jdwp.SuspendAll)
		assert.For(ctx, "modifiers").ThatSlice(breakpoints[0].ModifierKinds()).Equals([]uint8{7})
	}
	assert.For(ctx, "watchpoints").ThatSlice(fake.RequestsOf(jdwp.FieldModification)).IsLength(1)
	assert.For(ctx, "exceptions").ThatSlice(fake.RequestsOf(jdwp.Exception)).IsLength(1)

	prepare, ok := deferring(fake)
	assert.For(ctx, "deferring request").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "deferring modifiers").ThatSlice(prepare.ModifierKinds()).Equals([]uint8{5})
	assert.For(ctx, "pending").ThatInteger(len(tr.pending)).Equals(1)
}

func TestDeferredBreakpointArmsOnClassPrepare(t *testing.T) {
	ctx := log.Testing(t)
	tr, fake, done := start(ctx, t)
	defer done()

	err := tr.sync(ctx, &Config{Breakpoints: []Breakpoint{{Class: "com.example.Bar", Line: 5}}})
	assert.For(ctx, "sync").ThatError(err).Succeeded()
	prepare, ok := deferring(fake)
	if !assert.For(ctx, "deferring request").ThatBoolean(ok).IsTrue() {
		return
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- tr.loop(ctx) }()

	fake.AddClass(barClass)
	fake.SendEvents(jdwp.SuspendEventThread,
		test.ClassPrepare(prepare.ID, thread, jdwp.Class, barClass.ID, barClass.Signature, jdwp.StatusPrepared))

	armed := eventually(func() bool { return len(fake.RequestsOf(jdwp.Breakpoint)) == 1 })
	assert.For(ctx, "armed").ThatBoolean(armed).IsTrue()
	_, still := deferring(fake)
	assert.For(ctx, "prepare request cleared").ThatBoolean(still).IsFalse()
	resumed := eventually(func() bool { return len(fake.Commands(11, 3)) > 0 })
	assert.For(ctx, "loading thread resumed").ThatBoolean(resumed).IsTrue()

	fake.Close()
	select {
	case err := <-loopDone:
		assert.For(ctx, "loop").ThatError(err).Succeeded()
	case <-time.After(5 * time.Second):
		t.Error("loop did not stop on disconnect")
	}
}

func TestResyncKeepsUnchangedBreakpoints(t *testing.T) {
	ctx := log.Testing(t)
	tr, fake, done := start(ctx, t)
	defer done()

	keep := Breakpoint{Class: "com.example.Foo", Line: 10}
	drop := Breakpoint{Class: "com.example.Foo", Line: 11}
	err := tr.sync(ctx, &Config{Breakpoints: []Breakpoint{keep, drop}})
	assert.For(ctx, "first sync").ThatError(err).Succeeded()
	before := fake.RequestsOf(jdwp.Breakpoint)
	assert.For(ctx, "armed").ThatSlice(before).IsLength(2)

	err = tr.sync(ctx, &Config{Breakpoints: []Breakpoint{keep}})
	assert.For(ctx, "second sync").ThatError(err).Succeeded()
	after := fake.RequestsOf(jdwp.Breakpoint)
	if assert.For(ctx, "kept").ThatSlice(after).IsLength(1) {
		assert.For(ctx, "same request").That(after[0].ID).Equals(before[0].ID)
	}

	err = tr.sync(ctx, &Config{Breakpoints: []Breakpoint{keep}, Suspend: "none"})
	assert.For(ctx, "policy sync").ThatError(err).Succeeded()
	after = fake.RequestsOf(jdwp.Breakpoint)
	if assert.For(ctx, "rearmed").ThatSlice(after).IsLength(1) {
		assert.For(ctx, "new policy").That(after[0].Policy).Equals(jdwp.SuspendNone)
	}
}

func TestSyncReportsMissingLine(t *testing.T) {
	ctx := log.Testing(t)
	tr, _, done := start(ctx, t)
	defer done()

	err := tr.sync(ctx, &Config{Breakpoints: []Breakpoint{{Class: "com.example.Foo", Line: 99}}})
	assert.For(ctx, "sync").ThatError(err).Failed()
}
