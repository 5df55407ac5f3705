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

import "github.com/eclipse-jdt/jdtdebug/core/java/jdwp"

func header(kind jdwp.EventKind, id jdwp.EventRequestID) *Encoder {
	return NewEncoder().Byte(uint8(kind)).Int(int32(id))
}

// VMStart encodes a VMStart event.
func VMStart(id jdwp.EventRequestID, thread jdwp.ThreadID) []byte {
	return header(jdwp.VMStart, id).ID(uint64(thread)).Bytes()
}

// VMDeath encodes a VMDeath event.
func VMDeath(id jdwp.EventRequestID) []byte {
	return header(jdwp.VMDeath, id).Bytes()
}

// Breakpoint encodes a Breakpoint event.
func Breakpoint(id jdwp.EventRequestID, thread jdwp.ThreadID, l jdwp.Location) []byte {
	return header(jdwp.Breakpoint, id).ID(uint64(thread)).Location(l).Bytes()
}

// SingleStep encodes a SingleStep event.
func SingleStep(id jdwp.EventRequestID, thread jdwp.ThreadID, l jdwp.Location) []byte {
	return header(jdwp.SingleStep, id).ID(uint64(thread)).Location(l).Bytes()
}

// MethodEntry encodes a MethodEntry event.
func MethodEntry(id jdwp.EventRequestID, thread jdwp.ThreadID, l jdwp.Location) []byte {
	return header(jdwp.MethodEntry, id).ID(uint64(thread)).Location(l).Bytes()
}

// MethodExitWithReturnValue encodes a MethodExitWithReturnValue event
// returning an int.
func MethodExitWithReturnValue(id jdwp.EventRequestID, thread jdwp.ThreadID, l jdwp.Location, value int32) []byte {
	return header(jdwp.MethodExitWithReturnValue, id).ID(uint64(thread)).Location(l).
		Byte(uint8(jdwp.TagInt)).Int(value).Bytes()
}

// ThreadStart encodes a ThreadStart event.
func ThreadStart(id jdwp.EventRequestID, thread jdwp.ThreadID) []byte {
	return header(jdwp.ThreadStart, id).ID(uint64(thread)).Bytes()
}

// ThreadDeath encodes a ThreadDeath event.
func ThreadDeath(id jdwp.EventRequestID, thread jdwp.ThreadID) []byte {
	return header(jdwp.ThreadDeath, id).ID(uint64(thread)).Bytes()
}

// ClassPrepare encodes a ClassPrepare event.
func ClassPrepare(id jdwp.EventRequestID, thread jdwp.ThreadID, tag jdwp.TypeTag, ty jdwp.ReferenceTypeID, signature string, status jdwp.ClassStatus) []byte {
	return header(jdwp.ClassPrepare, id).ID(uint64(thread)).Byte(uint8(tag)).ID(uint64(ty)).
		String(signature).Int(int32(status)).Bytes()
}

// ClassUnload encodes a ClassUnload event.
func ClassUnload(id jdwp.EventRequestID, signature string) []byte {
	return header(jdwp.ClassUnload, id).String(signature).Bytes()
}

// Exception encodes an Exception event. Pass the zero Location as catch for
// an uncaught exception.
func Exception(id jdwp.EventRequestID, thread jdwp.ThreadID, l jdwp.Location, exception jdwp.TaggedObjectID, catch jdwp.Location) []byte {
	return header(jdwp.Exception, id).ID(uint64(thread)).Location(l).Tagged(exception).Location(catch).Bytes()
}

// FieldModification encodes a FieldModification event storing an int.
func FieldModification(id jdwp.EventRequestID, thread jdwp.ThreadID, l jdwp.Location, ty jdwp.ReferenceTypeID, field jdwp.FieldID, object jdwp.TaggedObjectID, value int32) []byte {
	return header(jdwp.FieldModification, id).ID(uint64(thread)).Location(l).
		Byte(uint8(jdwp.Class)).ID(uint64(ty)).ID(uint64(field)).Tagged(object).
		Byte(uint8(jdwp.TagInt)).Int(value).Bytes()
}

// MonitorWait encodes a MonitorWait event.
func MonitorWait(id jdwp.EventRequestID, thread jdwp.ThreadID, monitor jdwp.TaggedObjectID, l jdwp.Location, timeout int64) []byte {
	return header(jdwp.MonitorWait, id).ID(uint64(thread)).Tagged(monitor).Location(l).Long(timeout).Bytes()
}

// MonitorWaited encodes a MonitorWaited event.
func MonitorWaited(id jdwp.EventRequestID, thread jdwp.ThreadID, monitor jdwp.TaggedObjectID, l jdwp.Location, timedOut bool) []byte {
	return header(jdwp.MonitorWaited, id).ID(uint64(thread)).Tagged(monitor).Location(l).Bool(timedOut).Bytes()
}

// Composite encodes a composite event packet body.
func Composite(policy jdwp.SuspendPolicy, events ...[]byte) []byte {
	e := NewEncoder().Byte(uint8(policy)).Int(int32(len(events)))
	for _, ev := range events {
		e.Raw(ev)
	}
	return e.Bytes()
}
