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

// CompositeEvent is the content of a single composite event packet: a set of
// events reported together under one suspend policy.
type CompositeEvent struct {
	Policy SuspendPolicy
	Events []Event
}

// Event is the interface implemented by all events raised by the VM.
type Event interface {
	// RequestID returns the identifier of the request that caused the event,
	// or NullEventRequestID for events the VM raises unprompted.
	RequestID() EventRequestID
	Kind() EventKind
}

// EventVMStart represents an event raised when the virtual machine is started.
type EventVMStart struct {
	Request EventRequestID
	Thread  ThreadID
}

// EventVMDeath represents an event raised when the virtual machine is stopped.
type EventVMDeath struct {
	Request EventRequestID
}

// EventSingleStep represents an event raised when a single-step has been completed.
type EventSingleStep struct {
	Request  EventRequestID
	Thread   ThreadID
	Location Location
}

// EventBreakpoint represents an event raised when a breakpoint has been hit.
type EventBreakpoint struct {
	Request  EventRequestID
	Thread   ThreadID
	Location Location
}

// EventMethodEntry represents an event raised when a method has been entered.
type EventMethodEntry struct {
	Request  EventRequestID
	Thread   ThreadID
	Location Location
}

// EventMethodExit represents an event raised when a method has been exited.
type EventMethodExit struct {
	Request  EventRequestID
	Thread   ThreadID
	Location Location
}

// EventMethodExitWithReturnValue represents an event raised when a method has
// been exited, along with the value it returned.
type EventMethodExitWithReturnValue struct {
	Request  EventRequestID
	Thread   ThreadID
	Location Location
	Value    Value
}

// EventException represents an event raised when an exception is thrown.
// CatchLocation is the null location for uncaught exceptions.
type EventException struct {
	Request       EventRequestID
	Thread        ThreadID
	Location      Location
	Exception     TaggedObjectID
	CatchLocation Location
}

// EventThreadStart represents an event raised when a new thread is started.
type EventThreadStart struct {
	Request EventRequestID
	Thread  ThreadID
}

// EventThreadDeath represents an event raised when a thread is stopped.
type EventThreadDeath struct {
	Request EventRequestID
	Thread  ThreadID
}

// EventClassPrepare represents an event raised when a class enters the prepared state.
type EventClassPrepare struct {
	Request   EventRequestID
	Thread    ThreadID
	ClassKind TypeTag
	ClassType ReferenceTypeID
	Signature string
	Status    ClassStatus
}

// EventClassUnload represents an event raised when a class is unloaded.
type EventClassUnload struct {
	Request   EventRequestID
	Signature string
}

// EventFieldAccess represents an event raised when a field is accessed.
type EventFieldAccess struct {
	Request   EventRequestID
	Thread    ThreadID
	Location  Location
	FieldKind TypeTag
	FieldType ReferenceTypeID
	Field     FieldID
	Object    TaggedObjectID
}

// EventFieldModification represents an event raised when a field is modified.
type EventFieldModification struct {
	Request   EventRequestID
	Thread    ThreadID
	Location  Location
	FieldKind TypeTag
	FieldType ReferenceTypeID
	Field     FieldID
	Object    TaggedObjectID
	NewValue  Value
}

// EventMonitorContendedEnter represents an event raised when a thread blocks
// trying to enter a monitor held by another thread.
type EventMonitorContendedEnter struct {
	Request  EventRequestID
	Thread   ThreadID
	Object   TaggedObjectID
	Location Location
}

// EventMonitorContendedEntered represents an event raised when a thread
// enters a monitor it was blocked on.
type EventMonitorContendedEntered struct {
	Request  EventRequestID
	Thread   ThreadID
	Object   TaggedObjectID
	Location Location
}

// EventMonitorWait represents an event raised when a thread is about to wait
// on a monitor. Timeout is in milliseconds.
type EventMonitorWait struct {
	Request  EventRequestID
	Thread   ThreadID
	Object   TaggedObjectID
	Location Location
	Timeout  int64
}

// EventMonitorWaited represents an event raised when a thread has finished
// waiting on a monitor.
type EventMonitorWaited struct {
	Request  EventRequestID
	Thread   ThreadID
	Object   TaggedObjectID
	Location Location
	TimedOut bool
}

func (e EventVMStart) RequestID() EventRequestID                   { return e.Request }
func (e EventVMDeath) RequestID() EventRequestID                   { return e.Request }
func (e EventSingleStep) RequestID() EventRequestID                { return e.Request }
func (e EventBreakpoint) RequestID() EventRequestID                { return e.Request }
func (e EventMethodEntry) RequestID() EventRequestID               { return e.Request }
func (e EventMethodExit) RequestID() EventRequestID                { return e.Request }
func (e EventMethodExitWithReturnValue) RequestID() EventRequestID { return e.Request }
func (e EventException) RequestID() EventRequestID                 { return e.Request }
func (e EventThreadStart) RequestID() EventRequestID               { return e.Request }
func (e EventThreadDeath) RequestID() EventRequestID               { return e.Request }
func (e EventClassPrepare) RequestID() EventRequestID              { return e.Request }
func (e EventClassUnload) RequestID() EventRequestID               { return e.Request }
func (e EventFieldAccess) RequestID() EventRequestID               { return e.Request }
func (e EventFieldModification) RequestID() EventRequestID         { return e.Request }
func (e EventMonitorContendedEnter) RequestID() EventRequestID     { return e.Request }
func (e EventMonitorContendedEntered) RequestID() EventRequestID   { return e.Request }
func (e EventMonitorWait) RequestID() EventRequestID               { return e.Request }
func (e EventMonitorWaited) RequestID() EventRequestID             { return e.Request }

// Kind returns VMStart
func (EventVMStart) Kind() EventKind { return VMStart }

// Kind returns VMDeath
func (EventVMDeath) Kind() EventKind { return VMDeath }

// Kind returns SingleStep
func (EventSingleStep) Kind() EventKind { return SingleStep }

// Kind returns Breakpoint
func (EventBreakpoint) Kind() EventKind { return Breakpoint }

// Kind returns MethodEntry
func (EventMethodEntry) Kind() EventKind { return MethodEntry }

// Kind returns MethodExit
func (EventMethodExit) Kind() EventKind { return MethodExit }

// Kind returns MethodExitWithReturnValue
func (EventMethodExitWithReturnValue) Kind() EventKind { return MethodExitWithReturnValue }

// Kind returns Exception
func (EventException) Kind() EventKind { return Exception }

// Kind returns ThreadStart
func (EventThreadStart) Kind() EventKind { return ThreadStart }

// Kind returns ThreadDeath
func (EventThreadDeath) Kind() EventKind { return ThreadDeath }

// Kind returns ClassPrepare
func (EventClassPrepare) Kind() EventKind { return ClassPrepare }

// Kind returns ClassUnload
func (EventClassUnload) Kind() EventKind { return ClassUnload }

// Kind returns FieldAccess
func (EventFieldAccess) Kind() EventKind { return FieldAccess }

// Kind returns FieldModification
func (EventFieldModification) Kind() EventKind { return FieldModification }

// Kind returns MonitorContendedEnter
func (EventMonitorContendedEnter) Kind() EventKind { return MonitorContendedEnter }

// Kind returns MonitorContendedEntered
func (EventMonitorContendedEntered) Kind() EventKind { return MonitorContendedEntered }

// Kind returns MonitorWait
func (EventMonitorWait) Kind() EventKind { return MonitorWait }

// Kind returns MonitorWaited
func (EventMonitorWaited) Kind() EventKind { return MonitorWaited }
