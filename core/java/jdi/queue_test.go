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
	"testing"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdi"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp/test"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func TestBreakpointLifecycle(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	r, _ := vm.EventRequestManager().CreateBreakpointRequest(location)
	assert.For(ctx, "Enable").ThatError(r.Enable()).Succeeded()
	fake.SendEvents(jdwp.SuspendAll, test.Breakpoint(r.RequestID(), thread, location))

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if !assert.For(ctx, "set").That(set).IsNotNil() {
		return
	}
	assert.For(ctx, "policy").That(set.SuspendPolicy()).Equals(jdwp.SuspendAll)
	if !assert.For(ctx, "events").ThatSlice(set.Events()).IsLength(1) {
		return
	}
	e, ok := set.Events()[0].(*jdi.BreakpointEvent)
	if !assert.For(ctx, "breakpoint").ThatBoolean(ok).IsTrue() {
		return
	}
	assert.For(ctx, "location").That(e.Location()).Equals(location)
	assert.For(ctx, "thread").That(e.Thread().ThreadID()).Equals(thread)
	assert.For(ctx, "request").That(e.Request()).Equals(r)
	assert.For(ctx, "FindRequest").That(vm.EventRequestManager().FindRequest(e)).Equals(r)

	assert.For(ctx, "Resume").ThatError(set.Resume()).Succeeded()
	assert.For(ctx, "VM resumes").ThatSlice(fake.Commands(1, 9)).IsLength(1)
	assert.For(ctx, "thread resumes").ThatSlice(fake.Commands(11, 3)).IsEmpty()
}

func TestInternalEventsAreNotDelivered(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	prepare := armed(fake, jdwp.ClassPrepare).ID
	fake.SendEvents(jdwp.SuspendNone,
		test.ClassPrepare(prepare, thread, jdwp.Class, 0x50, "Lcom/example/Bar;", jdwp.StatusPrepared))
	fake.SendEvents(jdwp.SuspendNone, test.VMStart(jdwp.NullEventRequestID, thread))

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if !assert.For(ctx, "set").That(set).IsNotNil() {
		return
	}
	if assert.For(ctx, "events").ThatSlice(set.Events()).IsLength(1) {
		e, ok := set.Events()[0].(*jdi.VMStartEvent)
		assert.For(ctx, "VMStart").ThatBoolean(ok).IsTrue()
		assert.For(ctx, "request").That(e.Request()).IsNil()
	}

	types, err := vm.ClassesByName("com.example.Bar")
	assert.For(ctx, "ClassesByName").ThatError(err).Succeeded()
	assert.For(ctx, "types").ThatSlice(types).IsLength(1)
	assert.For(ctx, "ClassesBySignature commands").ThatSlice(fake.Commands(1, 2)).IsEmpty()
}

func TestClassUnloadEvictsKnownType(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	prepare := armed(fake, jdwp.ClassPrepare).ID
	unload := armed(fake, jdwp.ClassUnload).ID
	fake.SendEvents(jdwp.SuspendNone,
		test.ClassPrepare(prepare, thread, jdwp.Class, 0x50, "Lcom/example/Bar;", jdwp.StatusPrepared),
		test.ClassPrepare(prepare, thread, jdwp.Class, 0x51, "Lcom/example/Baz;", jdwp.StatusPrepared))
	fake.SendEvents(jdwp.SuspendNone, test.ClassUnload(unload, "Lcom/example/Bar;"))
	fake.SendEvents(jdwp.SuspendNone, test.VMDeath(jdwp.NullEventRequestID))

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if assert.For(ctx, "set").That(set).IsNotNil() {
		_, ok := set.Events()[0].(*jdi.VMDeathEvent)
		assert.For(ctx, "VMDeath").ThatBoolean(ok).IsTrue()
	}
	known := vm.KnownTypes()
	if assert.For(ctx, "known").ThatSlice(known).IsLength(1) {
		assert.For(ctx, "remaining").That(known[0].Signature()).Equals("Lcom/example/Baz;")
	}
}

func TestVisibleClassPrepare(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	r := vm.EventRequestManager().CreateClassPrepareRequest()
	assert.For(ctx, "AddClassFilter").ThatError(r.AddClassFilter("com.example.*")).Succeeded()
	assert.For(ctx, "SetSuspendPolicy").ThatError(r.SetSuspendPolicy(jdwp.SuspendEventThread)).Succeeded()
	assert.For(ctx, "Enable").ThatError(r.Enable()).Succeeded()

	internal := fake.RequestsOf(jdwp.ClassPrepare)[0].ID
	event := func(id jdwp.EventRequestID) []byte {
		return test.ClassPrepare(id, thread, jdwp.Class, 0x50, "Lcom/example/Bar;", jdwp.StatusPrepared)
	}
	fake.SendEvents(jdwp.SuspendEventThread, event(internal), event(r.RequestID()))

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if !assert.For(ctx, "set").That(set).IsNotNil() {
		return
	}
	if !assert.For(ctx, "events").ThatSlice(set.Events()).IsLength(1) {
		return
	}
	e := set.Events()[0].(*jdi.ClassPrepareEvent)
	assert.For(ctx, "type").That(e.ReferenceType().Name()).Equals("com.example.Bar")
	assert.For(ctx, "request").That(e.Request()).Equals(r)

	assert.For(ctx, "Resume").ThatError(set.Resume()).Succeeded()
	resumes := fake.Commands(11, 3)
	if assert.For(ctx, "thread resumes").ThatSlice(resumes).IsLength(1) {
		assert.For(ctx, "thread").ThatSlice(resumes[0].Data).Equals(test.NewEncoder().ID(uint64(thread)).Bytes())
	}
	assert.For(ctx, "VM resumes").ThatSlice(fake.Commands(1, 9)).IsEmpty()
}

func TestSuspendNoneResumesNothing(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	r := vm.EventRequestManager().CreateThreadStartRequest()
	r.SetSuspendPolicy(jdwp.SuspendNone)
	assert.For(ctx, "Enable").ThatError(r.Enable()).Succeeded()
	fake.SendEvents(jdwp.SuspendNone, test.ThreadStart(r.RequestID(), thread), test.ThreadStart(r.RequestID(), thread+1))

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if !assert.For(ctx, "set").That(set).IsNotNil() {
		return
	}
	assert.For(ctx, "threads").ThatSlice(set.Threads()).IsLength(2)
	assert.For(ctx, "Resume").ThatError(set.Resume()).Succeeded()
	assert.For(ctx, "thread resumes").ThatSlice(fake.Commands(11, 3)).IsEmpty()
	assert.For(ctx, "VM resumes").ThatSlice(fake.Commands(1, 9)).IsEmpty()
}

func TestStaleEventsAreResumed(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	fake.SendEvents(jdwp.SuspendAll, test.Breakpoint(99, thread, location))
	fake.SendEvents(jdwp.SuspendNone, test.VMDeath(jdwp.NullEventRequestID))

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if assert.For(ctx, "set").That(set).IsNotNil() {
		_, ok := set.Events()[0].(*jdi.VMDeathEvent)
		assert.For(ctx, "VMDeath").ThatBoolean(ok).IsTrue()
	}
	assert.For(ctx, "VM resumes").ThatSlice(fake.Commands(1, 9)).IsLength(1)
}

func TestEventPayloads(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	m := vm.EventRequestManager()
	exit, err := m.CreateMethodExitRequestWithReturnValue()
	assert.For(ctx, "CreateMethodExitRequestWithReturnValue").ThatError(err).Succeeded()
	assert.For(ctx, "WithReturnValue").ThatBoolean(exit.WithReturnValue()).IsTrue()
	exception, _ := m.CreateExceptionRequest(nil, true, true)
	monitorWait, _ := m.CreateMonitorWaitRequest()
	for _, r := range []jdi.EventRequest{exit, exception, monitorWait} {
		r.SetSuspendPolicy(jdwp.SuspendNone)
		assert.For(ctx, "Enable %v", r.Kind()).ThatError(r.Enable()).Succeeded()
	}
	assert.For(ctx, "wire kind").That(armed(fake, jdwp.MethodExitWithReturnValue).Kind).Equals(jdwp.MethodExitWithReturnValue)

	monitor := jdwp.TaggedObjectID{Type: jdwp.TagObject, Object: 0x77}
	thrown := jdwp.TaggedObjectID{Type: jdwp.TagObject, Object: 0x78}
	fake.SendEvents(jdwp.SuspendNone,
		test.MethodExitWithReturnValue(exit.RequestID(), thread, location, 42),
		test.Exception(exception.RequestID(), thread, location, thrown, jdwp.Location{}),
		test.MonitorWait(monitorWait.RequestID(), thread, monitor, location, 1500))

	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove").ThatError(err).Succeeded()
	if !assert.For(ctx, "set").That(set).IsNotNil() || !assert.For(ctx, "events").ThatSlice(set.Events()).IsLength(3) {
		return
	}
	events := set.Events()

	value, ok := events[0].(*jdi.MethodExitEvent).ReturnValue()
	assert.For(ctx, "has value").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "value").That(value).Equals(42)

	e := events[1].(*jdi.ExceptionEvent)
	assert.For(ctx, "exception").That(e.Exception().ID()).Equals(jdwp.ObjectID(0x78))
	assert.For(ctx, "uncaught").ThatBoolean(e.CatchLocation().IsNull()).IsTrue()

	w := events[2].(*jdi.MonitorWaitEvent)
	assert.For(ctx, "monitor").That(w.Monitor().ID()).Equals(jdwp.ObjectID(0x77))
	assert.For(ctx, "timeout").That(w.Timeout()).Equals(1500 * time.Millisecond)
	assert.For(ctx, "location").That(w.Location()).Equals(location)
}

func TestRemoveTimeout(t *testing.T) {
	ctx := log.Testing(t)
	vm, _, done := attach(ctx, t)
	defer done()

	set, err := vm.EventQueue().RemoveTimeout(ctx, 10*time.Millisecond)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "set").That(set).IsNil()
}

func TestRemoveTimeoutWhileAnotherReaderWaits(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	type result struct {
		set *jdi.EventSet
		err error
	}
	first := make(chan result, 1)
	go func() {
		set, err := vm.EventQueue().Remove(ctx)
		first <- result{set, err}
	}()
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	set, err := vm.EventQueue().RemoveTimeout(ctx, 50*time.Millisecond)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "set").That(set).IsNil()
	assert.For(ctx, "timed out").ThatBoolean(time.Since(start) < wait).IsTrue()

	stopped, cancel := task.WithCancel(ctx)
	cancel()
	set, err = vm.EventQueue().RemoveTimeout(stopped, wait)
	assert.For(ctx, "stopped err").ThatError(err).Failed()
	assert.For(ctx, "stopped set").That(set).IsNil()

	fake.SendEvents(jdwp.SuspendNone, test.VMStart(jdwp.NullEventRequestID, thread))
	select {
	case r := <-first:
		assert.For(ctx, "first err").ThatError(r.err).Succeeded()
		if assert.For(ctx, "first set").That(r.set).IsNotNil() {
			assert.For(ctx, "first events").ThatSlice(r.set.Events()).IsLength(1)
		}
	case <-time.After(wait):
		t.Error("First reader was not handed the event set")
	}
}

func TestMalformedEventsGoToErrorHandler(t *testing.T) {
	ctx := log.Testing(t)
	errs := make(chan error, 1)
	vm, fake, done := attach(ctx, t, jdi.WithErrorHandler(func(err error) { errs <- err }))
	defer done()

	fake.SendCommand(64, 100, test.NewEncoder().Byte(2).Int(1).Byte(77).Int(0).Bytes())
	set, err := vm.EventQueue().RemoveTimeout(ctx, wait)
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "set").That(set).IsNil()
	select {
	case err := <-errs:
		_, ok := err.(jdwp.ProtocolError)
		assert.For(ctx, "protocol error").ThatBoolean(ok).IsTrue()
	default:
		t.Error("Error handler was not called")
	}
	assert.For(ctx, "state").That(vm.State()).Equals(jdi.Connected)
}

func TestDisconnectIsDeliveredOnce(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	fake.SendEvents(jdwp.SuspendNone, test.VMDeath(jdwp.NullEventRequestID))
	fake.Close()
	q := vm.EventQueue()

	set, err := q.RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove death").ThatError(err).Succeeded()
	if assert.For(ctx, "death set").That(set).IsNotNil() {
		_, ok := set.Events()[0].(*jdi.VMDeathEvent)
		assert.For(ctx, "VMDeath").ThatBoolean(ok).IsTrue()
	}

	set, err = q.RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove disconnect").ThatError(err).Succeeded()
	if assert.For(ctx, "disconnect set").That(set).IsNotNil() {
		assert.For(ctx, "policy").That(set.SuspendPolicy()).Equals(jdwp.SuspendNone)
		e, ok := set.Events()[0].(*jdi.VMDisconnectEvent)
		assert.For(ctx, "VMDisconnect").ThatBoolean(ok).IsTrue()
		assert.For(ctx, "kind").That(e.Kind()).Equals(jdi.VMDisconnect)
		assert.For(ctx, "id").That(e.RequestID()).Equals(jdwp.NullEventRequestID)
	}
	assert.For(ctx, "state").That(vm.State()).Equals(jdi.Disconnected)

	_, err = q.RemoveTimeout(ctx, wait)
	assert.For(ctx, "Remove again").ThatError(err).HasCause(jdi.ErrVMDisconnected)
	_, err = q.Remove(ctx)
	assert.For(ctx, "Remove after").ThatError(err).HasCause(jdi.ErrVMDisconnected)
	_, err = vm.AllThreads()
	assert.For(ctx, "AllThreads").ThatError(err).HasCause(jdi.ErrVMDisconnected)
}

func TestWaitForClassPrepare(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	go func() {
		for len(fake.RequestsOf(jdwp.ClassPrepare)) < 2 {
			time.Sleep(time.Millisecond)
		}
		r := armed(fake, jdwp.ClassPrepare)
		fake.SendEvents(jdwp.SuspendAll, test.ThreadStart(77, thread))
		fake.SendEvents(r.Policy, test.ClassPrepare(r.ID, thread, jdwp.Class, 0x50, "Lcom/example/Bar;", jdwp.StatusPrepared))
	}()

	e, err := jdi.WaitForClassPrepare(ctx, vm, "com.example.*")
	assert.For(ctx, "WaitForClassPrepare").ThatError(err).Succeeded()
	if assert.For(ctx, "event").That(e).IsNotNil() {
		assert.For(ctx, "type").That(e.ReferenceType().Signature()).Equals("Lcom/example/Bar;")
	}
	assert.For(ctx, "requests").ThatSlice(vm.EventRequestManager().ClassPrepareRequests()).IsEmpty()
	assert.For(ctx, "wire requests").ThatSlice(fake.RequestsOf(jdwp.ClassPrepare)).IsLength(1)
}
