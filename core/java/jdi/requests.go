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

	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/pkg/errors"
)

// BreakpointRequest requests a Breakpoint event when a location is reached.
type BreakpointRequest struct {
	*eventRequest
	threadFilter
	instanceFilter
	location jdwp.Location
}

// Location returns the location the breakpoint is set at.
func (r *BreakpointRequest) Location() jdwp.Location { return r.location }

func (r *BreakpointRequest) String() string { return fmt.Sprintf("BreakpointRequest<%v>", r.location) }

// StepRequest requests a Step event when a thread completes a step.
type StepRequest struct {
	*eventRequest
	classFilter
	instanceFilter
	thread *ThreadReference
	size   jdwp.StepSize
	depth  jdwp.StepDepth
}

// Thread returns the thread being stepped.
func (r *StepRequest) Thread() *ThreadReference { return r.thread }

// Size returns the granularity of the step.
func (r *StepRequest) Size() jdwp.StepSize { return r.size }

// Depth returns whether the step enters, steps over or leaves calls.
func (r *StepRequest) Depth() jdwp.StepDepth { return r.depth }

func (r *StepRequest) String() string {
	return fmt.Sprintf("StepRequest<%v %v %v>", r.thread, r.size, r.depth)
}

// ExceptionRequest requests an Exception event when an exception is thrown.
type ExceptionRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
	exception *ReferenceType
	caught    bool
	uncaught  bool
}

// Exception returns the exception type reported, or nil for every exception.
func (r *ExceptionRequest) Exception() *ReferenceType { return r.exception }

// NotifyCaught returns true if caught exceptions are reported.
func (r *ExceptionRequest) NotifyCaught() bool { return r.caught }

// NotifyUncaught returns true if uncaught exceptions are reported.
func (r *ExceptionRequest) NotifyUncaught() bool { return r.uncaught }

func (r *ExceptionRequest) String() string {
	return fmt.Sprintf("ExceptionRequest<%v caught: %v uncaught: %v>", r.exception, r.caught, r.uncaught)
}

// MethodEntryRequest requests a MethodEntry event when a method is entered.
type MethodEntryRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
}

// MethodExitRequest requests a MethodExit event when a method returns.
type MethodExitRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
}

// WithReturnValue returns true if the events carry the returned value.
func (r *MethodExitRequest) WithReturnValue() bool { return r.kind == jdwp.MethodExitWithReturnValue }

// WatchpointRequest holds the state shared by the watchpoint requests.
type WatchpointRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
	field *Field
}

// Field returns the field being watched.
func (r *WatchpointRequest) Field() *Field { return r.field }

func (r *WatchpointRequest) String() string {
	return fmt.Sprintf("%vRequest<%v>", r.kind, r.field)
}

// AccessWatchpointRequest requests an AccessWatchpoint event when a field is
// read.
type AccessWatchpointRequest struct{ WatchpointRequest }

// ModificationWatchpointRequest requests a ModificationWatchpoint event when a
// field is written.
type ModificationWatchpointRequest struct{ WatchpointRequest }

// ThreadStartRequest requests a ThreadStart event when a thread starts.
type ThreadStartRequest struct {
	*eventRequest
	threadFilter
}

// ThreadDeathRequest requests a ThreadDeath event when a thread ends.
type ThreadDeathRequest struct {
	*eventRequest
	threadFilter
}

// ClassPrepareRequest requests a ClassPrepare event when a class is prepared.
type ClassPrepareRequest struct {
	*eventRequest
	classFilter
}

// AddSourceNameFilter restricts the request to classes whose source name
// matches the pattern.
func (r *ClassPrepareRequest) AddSourceNameFilter(pattern string) error {
	if err := r.preCheck(r.vm); err != nil {
		return err
	}
	err := r.vm.require("source name filters", "1.6", func(c jdwp.Capabilities) bool { return c.CanUseSourceNameFilters })
	if err != nil {
		return err
	}
	return r.addFilter(func(f *filters) {
		f.sourceNames = append(f.sourceNames, jdwp.SourceNameMatchEventModifier(pattern))
	})
}

// ClassUnloadRequest requests a ClassUnload event when a class is unloaded.
type ClassUnloadRequest struct {
	*eventRequest
	patternFilter
}

// VMDeathRequest requests a VMDeath event when the target shuts down.
type VMDeathRequest struct {
	*eventRequest
}

// MonitorContendedEnterRequest requests a MonitorContendedEnter event when a
// thread blocks on a monitor held by another thread.
type MonitorContendedEnterRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
}

// MonitorContendedEnteredRequest requests a MonitorContendedEntered event
// when a thread acquires a monitor it blocked on.
type MonitorContendedEnteredRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
}

// MonitorWaitRequest requests a MonitorWait event when a thread is about to
// wait on a monitor.
type MonitorWaitRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
}

// MonitorWaitedRequest requests a MonitorWaited event when a thread finishes
// waiting on a monitor.
type MonitorWaitedRequest struct {
	*eventRequest
	threadFilter
	classFilter
	instanceFilter
}

func newBreakpointRequest(m *EventRequestManager, l jdwp.Location) *BreakpointRequest {
	b := newEventRequest(m, jdwp.Breakpoint, Visible)
	b.filters.locations = []jdwp.LocationOnlyEventModifier{jdwp.LocationOnlyEventModifier(l)}
	r := &BreakpointRequest{b, threadFilter{b}, instanceFilter{b}, l}
	b.self = r
	return r
}

func newStepRequest(m *EventRequestManager, t *ThreadReference, size jdwp.StepSize, depth jdwp.StepDepth) *StepRequest {
	b := newEventRequest(m, jdwp.SingleStep, Visible)
	b.filters.steps = []jdwp.StepEventModifier{{Thread: t.ThreadID(), Size: size, Depth: depth}}
	r := &StepRequest{b, classFilter{patternFilter{b}}, instanceFilter{b}, t, size, depth}
	b.self = r
	return r
}

func newExceptionRequest(m *EventRequestManager, t *ReferenceType, caught, uncaught bool) *ExceptionRequest {
	b := newEventRequest(m, jdwp.Exception, Visible)
	mod := jdwp.ExceptionOnlyEventModifier{Caught: caught, Uncaught: uncaught}
	if t != nil {
		mod.ExceptionOrNull = t.ID()
	}
	b.filters.exceptions = []jdwp.ExceptionOnlyEventModifier{mod}
	r := &ExceptionRequest{b, threadFilter{b}, classFilter{patternFilter{b}}, instanceFilter{b}, t, caught, uncaught}
	b.self = r
	return r
}

func newMethodEntryRequest(m *EventRequestManager) *MethodEntryRequest {
	b := newEventRequest(m, jdwp.MethodEntry, Visible)
	r := &MethodEntryRequest{b, threadFilter{b}, classFilter{patternFilter{b}}, instanceFilter{b}}
	b.self = r
	return r
}

func newMethodExitRequest(m *EventRequestManager, kind jdwp.EventKind) *MethodExitRequest {
	b := newEventRequest(m, kind, Visible)
	r := &MethodExitRequest{b, threadFilter{b}, classFilter{patternFilter{b}}, instanceFilter{b}}
	b.self = r
	return r
}

func newWatchpointRequest(m *EventRequestManager, kind jdwp.EventKind, f *Field) WatchpointRequest {
	b := newEventRequest(m, kind, Visible)
	b.filters.fields = []jdwp.FieldOnlyEventModifier{{Type: f.DeclaringType().ID(), Field: f.ID}}
	return WatchpointRequest{b, threadFilter{b}, classFilter{patternFilter{b}}, instanceFilter{b}, f}
}

func newThreadStartRequest(m *EventRequestManager) *ThreadStartRequest {
	b := newEventRequest(m, jdwp.ThreadStart, Visible)
	r := &ThreadStartRequest{b, threadFilter{b}}
	b.self = r
	return r
}

func newThreadDeathRequest(m *EventRequestManager) *ThreadDeathRequest {
	b := newEventRequest(m, jdwp.ThreadDeath, Visible)
	r := &ThreadDeathRequest{b, threadFilter{b}}
	b.self = r
	return r
}

func newClassPrepareRequest(m *EventRequestManager, v Visibility) *ClassPrepareRequest {
	b := newEventRequest(m, jdwp.ClassPrepare, v)
	r := &ClassPrepareRequest{b, classFilter{patternFilter{b}}}
	b.self = r
	return r
}

func newClassUnloadRequest(m *EventRequestManager, v Visibility) *ClassUnloadRequest {
	b := newEventRequest(m, jdwp.ClassUnload, v)
	r := &ClassUnloadRequest{b, patternFilter{b}}
	b.self = r
	return r
}

func newVMDeathRequest(m *EventRequestManager) *VMDeathRequest {
	b := newEventRequest(m, jdwp.VMDeath, Visible)
	r := &VMDeathRequest{b}
	b.self = r
	return r
}

func newMonitorRequest(m *EventRequestManager, kind jdwp.EventKind) EventRequest {
	b := newEventRequest(m, kind, Visible)
	t, c, i := threadFilter{b}, classFilter{patternFilter{b}}, instanceFilter{b}
	var r EventRequest
	switch kind {
	case jdwp.MonitorContendedEnter:
		r = &MonitorContendedEnterRequest{b, t, c, i}
	case jdwp.MonitorContendedEntered:
		r = &MonitorContendedEnteredRequest{b, t, c, i}
	case jdwp.MonitorWait:
		r = &MonitorWaitRequest{b, t, c, i}
	default:
		r = &MonitorWaitedRequest{b, t, c, i}
	}
	b.self = r
	return r
}

// requireMonitorEvents returns ErrUnsupported if the target cannot report
// monitor events.
func (vm *VirtualMachine) requireMonitorEvents() error {
	return vm.require("monitor events", "1.6", func(c jdwp.Capabilities) bool { return c.CanRequestMonitorEvents })
}

// validStep returns ErrInvalidArgument for an out of range step size or depth.
func validStep(size jdwp.StepSize, depth jdwp.StepDepth) error {
	if size != jdwp.StepMin && size != jdwp.StepLine {
		return errors.Wrapf(ErrInvalidArgument, "step size %v", size)
	}
	if depth != jdwp.StepInto && depth != jdwp.StepOver && depth != jdwp.StepOut {
		return errors.Wrapf(ErrInvalidArgument, "step depth %v", depth)
	}
	return nil
}
