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

package jdwp_test

import (
	"context"
	"testing"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp/test"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

var (
	location = jdwp.Location{Type: jdwp.Class, Class: 0x10, Method: 0x20, Location: 7}
	thread   = jdwp.ThreadID(0x42)
)

func open(ctx context.Context, t *testing.T) (*jdwp.Connection, *test.VM, func()) {
	ctx, cancel := task.WithCancel(ctx)
	conn, vm := test.Start(ctx)
	c, err := jdwp.Open(ctx, conn)
	if !assert.For(ctx, "Open").ThatError(err).Succeeded() {
		cancel()
		t.FailNow()
	}
	return c, vm, func() {
		c.Close()
		cancel()
	}
}

func TestOpenQueriesIDSizes(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	assert.For(ctx, "IDSizes commands").ThatSlice(vm.Commands(1, 7)).IsLength(1)
	assert.For(ctx, "ObjectIDSize").That(c.IDSizes().ObjectIDSize).Equals(int32(8))

	version, err := c.GetVersion()
	assert.For(ctx, "GetVersion").ThatError(err).Succeeded()
	assert.For(ctx, "JDWPMajor").That(version.JDWPMajor).Equals(1)
	assert.For(ctx, "JDWPMinor").That(version.JDWPMinor).Equals(8)
}

func TestSendRaw(t *testing.T) {
	ctx := log.Testing(t)
	c, _, done := open(ctx, t)
	defer done()

	reply, err := c.Send(1, 7, nil)
	assert.For(ctx, "Send").ThatError(err).Succeeded()
	assert.For(ctx, "reply").ThatSlice(reply).Equals(test.NewEncoder().Int(8).Int(8).Int(8).Int(8).Int(8).Bytes())

	_, err = c.Send(1, 99, nil)
	assert.For(ctx, "unknown command").ThatError(err).Equals(jdwp.ErrNotImplemented)
}

func TestErrorReply(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	vm.Handle(9, 9, func(test.Command) ([]byte, jdwp.Error) { return nil, jdwp.ErrInvalidObject })
	_, err := c.IsCollected(jdwp.ObjectID(3))
	assert.For(ctx, "IsCollected").ThatError(err).Equals(jdwp.ErrInvalidObject)
}

func TestTrailingReplyBytes(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	vm.Handle(9, 9, func(test.Command) ([]byte, jdwp.Error) { return []byte{1, 0}, jdwp.ErrNone })
	_, err := c.IsCollected(jdwp.ObjectID(3))
	_, isProtocol := err.(jdwp.ProtocolError)
	assert.For(ctx, "protocol error").ThatBoolean(isProtocol).IsTrue()
}

func TestReplyTimeout(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	vm.Handle(1, 9, func(test.Command) ([]byte, jdwp.Error) { return nil, test.NoReply })
	c.SetTimeout(20 * time.Millisecond)
	err := c.ResumeAll()
	assert.For(ctx, "ResumeAll").ThatError(err).Equals(jdwp.ErrTimeout)
}

func TestSetEventEncoding(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	id, err := c.SetEvent(jdwp.Breakpoint, jdwp.SuspendAll,
		jdwp.LocationOnlyEventModifier(location),
		jdwp.ThreadOnlyEventModifier(thread),
		jdwp.CountEventModifier(2))
	assert.For(ctx, "SetEvent").ThatError(err).Succeeded()

	requests := vm.RequestsOf(jdwp.Breakpoint)
	if !assert.For(ctx, "requests").ThatSlice(requests).IsLength(1) {
		return
	}
	r := requests[0]
	assert.For(ctx, "id").That(r.ID).Equals(id)
	assert.For(ctx, "policy").That(r.Policy).Equals(jdwp.SuspendAll)
	assert.For(ctx, "modifier kinds").ThatSlice(r.ModifierKinds()).Equals([]uint8{7, 3, 1})
	assert.For(ctx, "location").ThatSlice(r.Modifiers[0].Data).Equals(test.NewEncoder().Location(location).Bytes())
	assert.For(ctx, "thread").ThatSlice(r.Modifiers[1].Data).Equals(test.NewEncoder().ID(uint64(thread)).Bytes())
	assert.For(ctx, "count").ThatSlice(r.Modifiers[2].Data).Equals([]byte{0, 0, 0, 2})

	err = c.ClearEvent(jdwp.Breakpoint, id)
	assert.For(ctx, "ClearEvent").ThatError(err).Succeeded()
	assert.For(ctx, "requests").ThatSlice(vm.RequestsOf(jdwp.Breakpoint)).IsEmpty()
}

func TestStepModifierEncoding(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	_, err := c.SetEvent(jdwp.SingleStep, jdwp.SuspendEventThread,
		jdwp.StepEventModifier{Thread: thread, Size: jdwp.StepLine, Depth: jdwp.StepOver})
	assert.For(ctx, "SetEvent").ThatError(err).Succeeded()

	requests := vm.RequestsOf(jdwp.SingleStep)
	if !assert.For(ctx, "requests").ThatSlice(requests).IsLength(1) {
		return
	}
	expect := test.NewEncoder().ID(uint64(thread)).Int(1).Int(1).Bytes()
	assert.For(ctx, "step").ThatSlice(requests[0].Modifiers[0].Data).Equals(expect)
}

func TestCompositeEvents(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	err := vm.SendEvents(jdwp.SuspendAll,
		test.Breakpoint(3, thread, location),
		test.VMStart(jdwp.NullEventRequestID, thread))
	assert.For(ctx, "SendEvents").ThatError(err).Succeeded()

	data, err := c.NextEvent(ctx, time.Second)
	if !assert.For(ctx, "NextEvent").ThatError(err).Succeeded() {
		return
	}
	set, err := c.DecodeEvents(data)
	if !assert.For(ctx, "DecodeEvents").ThatError(err).Succeeded() {
		return
	}
	assert.For(ctx, "policy").That(set.Policy).Equals(jdwp.SuspendAll)
	if !assert.For(ctx, "events").ThatSlice(set.Events).IsLength(2) {
		return
	}
	assert.For(ctx, "breakpoint").That(set.Events[0]).DeepEquals(&jdwp.EventBreakpoint{
		Request: 3, Thread: thread, Location: location,
	})
	assert.For(ctx, "vm start id").ThatBoolean(set.Events[1].RequestID().IsNull()).IsTrue()
	assert.For(ctx, "vm start kind").That(set.Events[1].Kind()).Equals(jdwp.VMStart)
}

func TestEventPayloads(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	monitor := jdwp.TaggedObjectID{Type: jdwp.TagObject, Object: 9}
	vm.SendEvents(jdwp.SuspendNone,
		test.MonitorWait(4, thread, monitor, location, 250),
		test.MonitorWaited(5, thread, monitor, location, true),
		test.MethodExitWithReturnValue(6, thread, location, 42),
		test.Exception(7, thread, location, monitor, jdwp.Location{}))

	data, err := c.NextEvent(ctx, time.Second)
	if !assert.For(ctx, "NextEvent").ThatError(err).Succeeded() {
		return
	}
	set, err := c.DecodeEvents(data)
	if !assert.For(ctx, "DecodeEvents").ThatError(err).Succeeded() {
		return
	}
	assert.For(ctx, "wait").That(set.Events[0]).DeepEquals(&jdwp.EventMonitorWait{
		Request: 4, Thread: thread, Object: monitor, Location: location, Timeout: 250,
	})
	assert.For(ctx, "waited").That(set.Events[1]).DeepEquals(&jdwp.EventMonitorWaited{
		Request: 5, Thread: thread, Object: monitor, Location: location, TimedOut: true,
	})
	assert.For(ctx, "exit").That(set.Events[2].(*jdwp.EventMethodExitWithReturnValue).Value).Equals(42)
	assert.For(ctx, "uncaught").ThatBoolean(set.Events[3].(*jdwp.EventException).CatchLocation.IsNull()).IsTrue()
}

func TestMalformedEvents(t *testing.T) {
	ctx := log.Testing(t)
	c, _, done := open(ctx, t)
	defer done()

	for _, test := range []struct {
		name  string
		data  []byte
		label string
		value uint64
	}{
		{"unknown kind", []byte{2, 0, 0, 0, 1, 77, 0, 0, 0, 1}, "event kind", 77},
		{"unknown policy", []byte{7, 0, 0, 0, 0}, "suspend policy", 7},
		{"unknown value tag", append(append([]byte{0, 0, 0, 0, 1, 42, 0, 0, 0, 6},
			make([]byte, 8+25)...), 'Q'), "value tag", 'Q'},
		{"oversized string", []byte{0, 0, 0, 0, 1, 9, 0, 0, 0, 1, 0x7f, 0xff, 0xff, 0xff},
			"string length", 0x7fffffff},
		{"oversized event count", []byte{0, 0xff, 0xff, 0xff, 0xff}, "element count", 0xffffffff},
	} {
		_, err := c.DecodeEvents(test.data)
		perr, ok := err.(jdwp.ProtocolError)
		if !assert.For(ctx, "%v protocol error", test.name).ThatBoolean(ok).IsTrue() {
			continue
		}
		assert.For(ctx, "%v label", test.name).That(perr.Label).Equals(test.label)
		assert.For(ctx, "%v value", test.name).That(perr.Value).Equals(test.value)
	}

	_, err := c.DecodeEvents([]byte{2, 0, 0, 0, 1, 2})
	_, ok := err.(jdwp.ProtocolError)
	assert.For(ctx, "truncated").ThatBoolean(ok).IsTrue()
}

func TestNextEventTimeout(t *testing.T) {
	ctx := log.Testing(t)
	c, _, done := open(ctx, t)
	defer done()

	_, err := c.NextEvent(ctx, 10*time.Millisecond)
	assert.For(ctx, "NextEvent").ThatError(err).Equals(jdwp.ErrTimeout)
}

func TestDisconnectDrainsEvents(t *testing.T) {
	ctx := log.Testing(t)
	c, vm, done := open(ctx, t)
	defer done()

	vm.SendEvents(jdwp.SuspendNone, test.VMDeath(jdwp.NullEventRequestID))
	// Round trip so the event packet is known to be queued.
	_, err := c.GetVersion()
	assert.For(ctx, "GetVersion").ThatError(err).Succeeded()
	vm.Close()

	assert.For(ctx, "closed").ThatBoolean(c.Closed().Wait(ctx)).IsTrue()
	_, err = c.NextEvent(ctx, time.Second)
	assert.For(ctx, "queued event").ThatError(err).Succeeded()
	_, err = c.NextEvent(ctx, time.Second)
	assert.For(ctx, "drained").ThatError(err).Equals(jdwp.ErrDisconnected)
	err = c.ResumeAll()
	assert.For(ctx, "send after close").ThatError(err).Equals(jdwp.ErrDisconnected)
}

func TestModifierNames(t *testing.T) {
	ctx := log.Testing(t)
	mods := jdwp.ModPublic | jdwp.ModStatic | jdwp.ModNative
	assert.For(ctx, "mods").That(mods.String()).Equals("public static native")
	assert.For(ctx, "static").ThatBoolean(mods.Static()).IsTrue()
	assert.For(ctx, "native has code").ThatBoolean(mods.HasCode()).IsFalse()
	assert.For(ctx, "final has code").ThatBoolean(jdwp.ModFinal.HasCode()).IsTrue()

	status := jdwp.StatusVerified | jdwp.StatusPrepared
	assert.For(ctx, "status").That(status.String()).Equals("Verified, Prepared")
	assert.For(ctx, "no status").That(jdwp.ClassStatus(0).String()).Equals("")
}
