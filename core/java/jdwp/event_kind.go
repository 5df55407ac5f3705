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

import "fmt"

// EventKind represents the type of event to set, or being raised.
type EventKind uint8

const (
	// SingleStep is the kind of event raised when a single-step has been completed.
	SingleStep = EventKind(1)
	// Breakpoint is the kind of event raised when a breakpoint has been hit.
	Breakpoint = EventKind(2)
	// FramePop is the kind of event raised when a stack-frame is popped.
	FramePop = EventKind(3)
	// Exception is the kind of event raised when an exception is thrown.
	Exception = EventKind(4)
	// UserDefined is the kind of event raised when a user-defind event is fired.
	UserDefined = EventKind(5)
	// ThreadStart is the kind of event raised when a new thread is started.
	ThreadStart = EventKind(6)
	// ThreadDeath is the kind of event raised when a thread is stopped.
	ThreadDeath = EventKind(7)
	// ClassPrepare is the kind of event raised when a class enters the prepared state.
	ClassPrepare = EventKind(8)
	// ClassUnload is the kind of event raised when a class is unloaded.
	ClassUnload = EventKind(9)
	// ClassLoad is the kind of event raised when a class enters the loaded state.
	ClassLoad = EventKind(10)
	// FieldAccess is the kind of event raised when a field is accessed.
	FieldAccess = EventKind(20)
	// FieldModification is the kind of event raised when a field is modified.
	FieldModification = EventKind(21)
	// ExceptionCatch is the kind of event raised when an exception is caught.
	ExceptionCatch = EventKind(30)
	// MethodEntry is the kind of event raised when a method has been entered.
	MethodEntry = EventKind(40)
	// MethodExit is the kind of event raised when a method has been exited.
	MethodExit = EventKind(41)
	// MethodExitWithReturnValue is the kind of event raised when a method has
	// been exited, carrying the returned value.
	MethodExitWithReturnValue = EventKind(42)
	// MonitorContendedEnter is the kind of event raised when a thread attempts
	// to enter a monitor already held by another thread.
	MonitorContendedEnter = EventKind(43)
	// MonitorContendedEntered is the kind of event raised when a thread enters
	// a monitor after waiting for another thread to release it.
	MonitorContendedEntered = EventKind(44)
	// MonitorWait is the kind of event raised when a thread is about to wait
	// on a monitor.
	MonitorWait = EventKind(45)
	// MonitorWaited is the kind of event raised when a thread finishes
	// waiting on a monitor.
	MonitorWaited = EventKind(46)
	// VMStart is the kind of event raised when the virtual machine is initialized.
	VMStart = EventKind(90)
	// VMDeath is the kind of event raised when the virtual machine is shutdown.
	VMDeath = EventKind(99)
)

var eventKindNames = map[EventKind]string{
	SingleStep:                "SingleStep",
	Breakpoint:                "Breakpoint",
	FramePop:                  "FramePop",
	Exception:                 "Exception",
	UserDefined:               "UserDefined",
	ThreadStart:               "ThreadStart",
	ThreadDeath:               "ThreadDeath",
	ClassPrepare:              "ClassPrepare",
	ClassUnload:               "ClassUnload",
	ClassLoad:                 "ClassLoad",
	FieldAccess:               "FieldAccess",
	FieldModification:         "FieldModification",
	ExceptionCatch:            "ExceptionCatch",
	MethodEntry:               "MethodEntry",
	MethodExit:                "MethodExit",
	MethodExitWithReturnValue: "MethodExitWithReturnValue",
	MonitorContendedEnter:     "MonitorContendedEnter",
	MonitorContendedEntered:   "MonitorContendedEntered",
	MonitorWait:               "MonitorWait",
	MonitorWaited:             "MonitorWaited",
	VMStart:                   "VMStart",
	VMDeath:                   "VMDeath",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind<%d>", int(k))
}

func (k EventKind) valid() bool {
	_, ok := eventKindNames[k]
	return ok
}

func (k EventKind) label() string { return "event kind" }

// event returns a default-initialzed Event of the specified kind, or nil if
// the kind is never sent in a composite event packet.
func (k EventKind) event() Event {
	switch k {
	case SingleStep:
		return &EventSingleStep{}
	case Breakpoint:
		return &EventBreakpoint{}
	case Exception, ExceptionCatch:
		return &EventException{}
	case ThreadStart:
		return &EventThreadStart{}
	case ThreadDeath:
		return &EventThreadDeath{}
	case ClassPrepare:
		return &EventClassPrepare{}
	case ClassUnload:
		return &EventClassUnload{}
	case FieldAccess:
		return &EventFieldAccess{}
	case FieldModification:
		return &EventFieldModification{}
	case MethodEntry:
		return &EventMethodEntry{}
	case MethodExit:
		return &EventMethodExit{}
	case MethodExitWithReturnValue:
		return &EventMethodExitWithReturnValue{}
	case MonitorContendedEnter:
		return &EventMonitorContendedEnter{}
	case MonitorContendedEntered:
		return &EventMonitorContendedEntered{}
	case MonitorWait:
		return &EventMonitorWait{}
	case MonitorWaited:
		return &EventMonitorWaited{}
	case VMStart:
		return &EventVMStart{}
	case VMDeath:
		return &EventVMDeath{}
	default:
		return nil
	}
}
