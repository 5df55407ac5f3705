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
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/pkg/errors"
)

// Event is implemented by every event delivered by the EventQueue.
type Event interface {
	Mirror
	// Kind returns the kind of the event.
	Kind() jdwp.EventKind
	// RequestID returns the identifier of the request that produced the
	// event, or NullEventRequestID for events the target raises unprompted.
	RequestID() jdwp.EventRequestID
	// Request returns the request that produced the event, or nil.
	Request() EventRequest
}

// LocatableEvent is implemented by events raised by a thread at a location.
type LocatableEvent interface {
	Event
	Thread() *ThreadReference
	Location() jdwp.Location
}

// threadEvent is implemented by every event that names a thread.
type threadEvent interface {
	Thread() *ThreadReference
}

type event struct {
	mirror
	kind    jdwp.EventKind
	id      jdwp.EventRequestID
	request EventRequest
}

// Kind returns the kind of the event.
func (e *event) Kind() jdwp.EventKind { return e.kind }

// RequestID returns the identifier of the request that produced the event.
func (e *event) RequestID() jdwp.EventRequestID { return e.id }

// Request returns the request that produced the event, or nil.
func (e *event) Request() EventRequest { return e.request }

func (e *event) String() string { return fmt.Sprintf("%v<%v>", e.kind, e.id) }

type locatable struct {
	event
	thread   *ThreadReference
	location jdwp.Location
}

// Thread returns the thread that raised the event.
func (e *locatable) Thread() *ThreadReference { return e.thread }

// Location returns the location the event was raised at.
func (e *locatable) Location() jdwp.Location { return e.location }

func (e *locatable) String() string {
	return fmt.Sprintf("%v<%v> %v at %v", e.kind, e.id, e.thread, e.location)
}

// VMStartEvent is raised once the target has initialized.
type VMStartEvent struct {
	event
	thread *ThreadReference
}

// Thread returns the target's initial thread.
func (e *VMStartEvent) Thread() *ThreadReference { return e.thread }

// VMDeathEvent is raised when the target terminates.
type VMDeathEvent struct{ event }

// VMDisconnectEvent is delivered once when the connection to the target is
// lost. It is never sent by the target.
type VMDisconnectEvent struct{ event }

// BreakpointEvent is raised when a breakpoint is hit.
type BreakpointEvent struct{ locatable }

// StepEvent is raised when a step completes.
type StepEvent struct{ locatable }

// ExceptionEvent is raised when an exception is thrown.
type ExceptionEvent struct {
	locatable
	exception     *ObjectReference
	catchLocation jdwp.Location
}

// Exception returns the thrown exception object.
func (e *ExceptionEvent) Exception() *ObjectReference { return e.exception }

// CatchLocation returns the location the exception will be caught at, or the
// null location if it is uncaught.
func (e *ExceptionEvent) CatchLocation() jdwp.Location { return e.catchLocation }

// MethodEntryEvent is raised when a method is entered.
type MethodEntryEvent struct{ locatable }

// MethodExitEvent is raised when a method returns.
type MethodExitEvent struct {
	locatable
	value    jdwp.Value
	hasValue bool
}

// ReturnValue returns the value returned by the method, if the request asked
// for it.
func (e *MethodExitEvent) ReturnValue() (jdwp.Value, bool) { return e.value, e.hasValue }

// ThreadStartEvent is raised when a thread starts.
type ThreadStartEvent struct {
	event
	thread *ThreadReference
}

// Thread returns the started thread.
func (e *ThreadStartEvent) Thread() *ThreadReference { return e.thread }

// ThreadDeathEvent is raised when a thread ends.
type ThreadDeathEvent struct {
	event
	thread *ThreadReference
}

// Thread returns the ended thread.
func (e *ThreadDeathEvent) Thread() *ThreadReference { return e.thread }

// ClassPrepareEvent is raised when a class is prepared.
type ClassPrepareEvent struct {
	event
	thread *ThreadReference
	class  *ReferenceType
}

// Thread returns the thread preparing the class, or nil if the target
// prepared it without one.
func (e *ClassPrepareEvent) Thread() *ThreadReference { return e.thread }

// ReferenceType returns the prepared type.
func (e *ClassPrepareEvent) ReferenceType() *ReferenceType { return e.class }

func (e *ClassPrepareEvent) String() string {
	return fmt.Sprintf("%v<%v> %v", e.kind, e.id, e.class)
}

// ClassUnloadEvent is raised when a class is unloaded.
type ClassUnloadEvent struct {
	event
	signature string
}

// ClassSignature returns the JNI signature of the unloaded class.
func (e *ClassUnloadEvent) ClassSignature() string { return e.signature }

// ClassName returns the name of the unloaded class.
func (e *ClassUnloadEvent) ClassName() string { return TypeName(e.signature) }

// WatchpointEvent holds the state shared by the watchpoint events.
type WatchpointEvent struct {
	locatable
	fieldType jdwp.ReferenceTypeID
	fieldID   jdwp.FieldID
	object    *ObjectReference
}

// Object returns the object whose field was accessed, or nil for a static
// field.
func (e *WatchpointEvent) Object() *ObjectReference { return e.object }

// FieldID returns the identifier of the accessed field.
func (e *WatchpointEvent) FieldID() jdwp.FieldID { return e.fieldID }

// Field returns the accessed field, looking it up in the declaring type if
// the request that produced the event does not name it.
func (e *WatchpointEvent) Field() (*Field, error) {
	switch r := e.request.(type) {
	case *AccessWatchpointRequest:
		return r.Field(), nil
	case *ModificationWatchpointRequest:
		return r.Field(), nil
	}
	t, err := e.vm.referenceType(jdwp.Class, e.fieldType)
	if err != nil {
		return nil, err
	}
	fields, err := t.Fields()
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.ID == e.fieldID {
			return f, nil
		}
	}
	return nil, errors.Wrapf(ErrInternal, "field %v not found in %v", e.fieldID, t)
}

// AccessWatchpointEvent is raised when a watched field is read.
type AccessWatchpointEvent struct{ WatchpointEvent }

// ModificationWatchpointEvent is raised when a watched field is written.
type ModificationWatchpointEvent struct {
	WatchpointEvent
	valueToBe jdwp.Value
}

// ValueToBe returns the value being assigned to the field.
func (e *ModificationWatchpointEvent) ValueToBe() jdwp.Value { return e.valueToBe }

type monitorEvent struct {
	locatable
	monitor *ObjectReference
}

// Monitor returns the monitor object.
func (e *monitorEvent) Monitor() *ObjectReference { return e.monitor }

// MonitorContendedEnterEvent is raised when a thread blocks on a monitor held
// by another thread.
type MonitorContendedEnterEvent struct{ monitorEvent }

// MonitorContendedEnteredEvent is raised when a thread acquires a monitor it
// blocked on.
type MonitorContendedEnteredEvent struct{ monitorEvent }

// MonitorWaitEvent is raised when a thread is about to wait on a monitor.
type MonitorWaitEvent struct {
	monitorEvent
	timeout time.Duration
}

// Timeout returns how long the thread will wait, or zero for no limit.
func (e *MonitorWaitEvent) Timeout() time.Duration { return e.timeout }

// MonitorWaitedEvent is raised when a thread finishes waiting on a monitor.
type MonitorWaitedEvent struct {
	monitorEvent
	timedOut bool
}

// TimedOut returns true if the wait ended because it timed out.
func (e *MonitorWaitedEvent) TimedOut() bool { return e.timedOut }

// newEvent returns the mirror for the decoded event, produced by r.
func (vm *VirtualMachine) newEvent(in jdwp.Event, r EventRequest) Event {
	base := event{mirror{vm}, in.Kind(), in.RequestID(), r}
	at := func(t jdwp.ThreadID, l jdwp.Location) locatable {
		return locatable{base, vm.Thread(t), l}
	}
	switch e := in.(type) {
	case *jdwp.EventVMStart:
		return &VMStartEvent{base, vm.Thread(e.Thread)}
	case *jdwp.EventVMDeath:
		return &VMDeathEvent{base}
	case *jdwp.EventBreakpoint:
		return &BreakpointEvent{at(e.Thread, e.Location)}
	case *jdwp.EventSingleStep:
		return &StepEvent{at(e.Thread, e.Location)}
	case *jdwp.EventException:
		return &ExceptionEvent{at(e.Thread, e.Location), vm.Object(e.Exception), e.CatchLocation}
	case *jdwp.EventMethodEntry:
		return &MethodEntryEvent{at(e.Thread, e.Location)}
	case *jdwp.EventMethodExit:
		return &MethodExitEvent{locatable: at(e.Thread, e.Location)}
	case *jdwp.EventMethodExitWithReturnValue:
		return &MethodExitEvent{at(e.Thread, e.Location), e.Value, true}
	case *jdwp.EventThreadStart:
		return &ThreadStartEvent{base, vm.Thread(e.Thread)}
	case *jdwp.EventThreadDeath:
		return &ThreadDeathEvent{base, vm.Thread(e.Thread)}
	case *jdwp.EventClassPrepare:
		var t *ThreadReference
		if e.Thread != 0 {
			t = vm.Thread(e.Thread)
		}
		class := vm.types.get(e.ClassType)
		if class == nil {
			class = vm.newReferenceType(e.ClassKind, e.ClassType, e.Signature, e.Status)
		}
		return &ClassPrepareEvent{base, t, class}
	case *jdwp.EventClassUnload:
		return &ClassUnloadEvent{base, e.Signature}
	case *jdwp.EventFieldAccess:
		return &AccessWatchpointEvent{WatchpointEvent{at(e.Thread, e.Location), e.FieldType, e.Field, vm.Object(e.Object)}}
	case *jdwp.EventFieldModification:
		return &ModificationWatchpointEvent{WatchpointEvent{at(e.Thread, e.Location), e.FieldType, e.Field, vm.Object(e.Object)}, e.NewValue}
	case *jdwp.EventMonitorContendedEnter:
		return &MonitorContendedEnterEvent{monitorEvent{at(e.Thread, e.Location), vm.Object(e.Object)}}
	case *jdwp.EventMonitorContendedEntered:
		return &MonitorContendedEnteredEvent{monitorEvent{at(e.Thread, e.Location), vm.Object(e.Object)}}
	case *jdwp.EventMonitorWait:
		return &MonitorWaitEvent{monitorEvent{at(e.Thread, e.Location), vm.Object(e.Object)}, time.Duration(e.Timeout) * time.Millisecond}
	case *jdwp.EventMonitorWaited:
		return &MonitorWaitedEvent{monitorEvent{at(e.Thread, e.Location), vm.Object(e.Object)}, e.TimedOut}
	}
	return nil
}

func (vm *VirtualMachine) disconnectEvent() *VMDisconnectEvent {
	return &VMDisconnectEvent{event{mirror{vm}, VMDisconnect, jdwp.NullEventRequestID, nil}}
}

// VMDisconnect is the kind of the synthetic VMDisconnectEvent. It is outside
// the range of kinds the target sends.
const VMDisconnect = jdwp.EventKind(100)

func (e *VMDisconnectEvent) String() string { return "VMDisconnect" }
