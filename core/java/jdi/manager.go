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
	"sync"

	"github.com/eclipse-jdt/jdtdebug/core/fault"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/pkg/errors"
)

type indexKey struct {
	kind jdwp.EventKind
	id   jdwp.EventRequestID
}

// EventRequestManager creates, lists and deletes the event requests of a
// session, and resolves delivered events back to the request that produced
// them.
type EventRequestManager struct {
	vm *VirtualMachine

	// arming is held for writing while a request is being set or cleared in
	// the target, and for reading while events are resolved, so that an event
	// is never resolved before the reply carrying its request's ID has been
	// indexed.
	arming sync.RWMutex

	mutex    sync.RWMutex
	requests map[jdwp.EventKind][]EventRequest
	enabled  map[indexKey]EventRequest
}

func newEventRequestManager(vm *VirtualMachine) *EventRequestManager {
	return &EventRequestManager{
		vm:       vm,
		requests: map[jdwp.EventKind][]EventRequest{},
		enabled:  map[indexKey]EventRequest{},
	}
}

// VirtualMachine returns the VirtualMachine the manager belongs to.
func (m *EventRequestManager) VirtualMachine() *VirtualMachine { return m.vm }

// storageKind returns the kind a request is listed under.
func storageKind(k jdwp.EventKind) (jdwp.EventKind, bool) {
	switch k {
	case jdwp.MethodExitWithReturnValue:
		return jdwp.MethodExit, true
	case jdwp.SingleStep, jdwp.Breakpoint, jdwp.Exception, jdwp.ThreadStart,
		jdwp.ThreadDeath, jdwp.ClassPrepare, jdwp.ClassUnload, jdwp.FieldAccess,
		jdwp.FieldModification, jdwp.MethodEntry, jdwp.MethodExit,
		jdwp.MonitorContendedEnter, jdwp.MonitorContendedEntered,
		jdwp.MonitorWait, jdwp.MonitorWaited, jdwp.VMDeath:
		return k, true
	}
	return 0, false
}

func (m *EventRequestManager) add(r EventRequest) {
	k, _ := storageKind(r.Kind())
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[k] = append(m.requests[k], r)
}

func (m *EventRequestManager) remove(r EventRequest) bool {
	k, ok := storageKind(r.Kind())
	if !ok {
		return false
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	list := m.requests[k]
	for i, e := range list {
		if e == r {
			m.requests[k] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (m *EventRequestManager) indexAdd(kind jdwp.EventKind, id jdwp.EventRequestID, r EventRequest) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.enabled[indexKey{kind, id}] = r
}

func (m *EventRequestManager) indexRemove(kind jdwp.EventKind, id jdwp.EventRequestID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.enabled, indexKey{kind, id})
}

// lookup returns the enabled request of the kind with the ID, or nil.
func (m *EventRequestManager) lookup(kind jdwp.EventKind, id jdwp.EventRequestID) EventRequest {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.enabled[indexKey{kind, id}]
}

// FindRequest returns the request that produced the event, or nil if the
// event was not produced by an enabled request.
func (m *EventRequestManager) FindRequest(e Event) EventRequest {
	if e.RequestID().IsNull() {
		return nil
	}
	return m.lookup(e.Kind(), e.RequestID())
}

// CreateBreakpointRequest returns a new, disabled breakpoint request at l.
func (m *EventRequestManager) CreateBreakpointRequest(l jdwp.Location) (*BreakpointRequest, error) {
	if l.IsNull() {
		return nil, errors.Wrap(ErrInvalidArgument, "null breakpoint location")
	}
	r := newBreakpointRequest(m, l)
	m.add(r)
	return r, nil
}

// CreateStepRequest returns a new, disabled step request for the thread.
// Only one step request may exist for a thread at a time.
func (m *EventRequestManager) CreateStepRequest(t *ThreadReference, size jdwp.StepSize, depth jdwp.StepDepth) (*StepRequest, error) {
	if err := checkMirror(m.vm, t); err != nil {
		return nil, err
	}
	if err := validStep(size, depth); err != nil {
		return nil, err
	}
	for _, s := range m.StepRequests() {
		if s.Thread().ThreadID() == t.ThreadID() {
			return nil, errors.Wrapf(ErrDuplicateRequest, "step request for %v", t)
		}
	}
	r := newStepRequest(m, t, size, depth)
	m.add(r)
	return r, nil
}

// CreateExceptionRequest returns a new, disabled exception request. A nil
// type reports exceptions of every type.
func (m *EventRequestManager) CreateExceptionRequest(t *ReferenceType, caught, uncaught bool) (*ExceptionRequest, error) {
	if t != nil {
		if err := checkMirror(m.vm, t); err != nil {
			return nil, err
		}
	}
	r := newExceptionRequest(m, t, caught, uncaught)
	m.add(r)
	return r, nil
}

// CreateMethodEntryRequest returns a new, disabled method entry request.
func (m *EventRequestManager) CreateMethodEntryRequest() *MethodEntryRequest {
	r := newMethodEntryRequest(m)
	m.add(r)
	return r
}

// CreateMethodExitRequest returns a new, disabled method exit request.
func (m *EventRequestManager) CreateMethodExitRequest() *MethodExitRequest {
	r := newMethodExitRequest(m, jdwp.MethodExit)
	m.add(r)
	return r
}

// CreateMethodExitRequestWithReturnValue returns a new, disabled method exit
// request whose events carry the returned value.
func (m *EventRequestManager) CreateMethodExitRequestWithReturnValue() (*MethodExitRequest, error) {
	if err := m.vm.require("method return values", "1.6", nil); err != nil {
		return nil, err
	}
	r := newMethodExitRequest(m, jdwp.MethodExitWithReturnValue)
	m.add(r)
	return r, nil
}

// CreateAccessWatchpointRequest returns a new, disabled request for reads of
// the field.
func (m *EventRequestManager) CreateAccessWatchpointRequest(f *Field) (*AccessWatchpointRequest, error) {
	if err := checkMirror(m.vm, f); err != nil {
		return nil, err
	}
	if err := m.vm.require("access watchpoints", "", func(c jdwp.Capabilities) bool { return c.CanWatchFieldAccess }); err != nil {
		return nil, err
	}
	r := &AccessWatchpointRequest{newWatchpointRequest(m, jdwp.FieldAccess, f)}
	r.self = r
	m.add(r)
	return r, nil
}

// CreateModificationWatchpointRequest returns a new, disabled request for
// writes of the field.
func (m *EventRequestManager) CreateModificationWatchpointRequest(f *Field) (*ModificationWatchpointRequest, error) {
	if err := checkMirror(m.vm, f); err != nil {
		return nil, err
	}
	if err := m.vm.require("modification watchpoints", "", func(c jdwp.Capabilities) bool { return c.CanWatchFieldModification }); err != nil {
		return nil, err
	}
	r := &ModificationWatchpointRequest{newWatchpointRequest(m, jdwp.FieldModification, f)}
	r.self = r
	m.add(r)
	return r, nil
}

// CreateThreadStartRequest returns a new, disabled thread start request.
func (m *EventRequestManager) CreateThreadStartRequest() *ThreadStartRequest {
	r := newThreadStartRequest(m)
	m.add(r)
	return r
}

// CreateThreadDeathRequest returns a new, disabled thread death request.
func (m *EventRequestManager) CreateThreadDeathRequest() *ThreadDeathRequest {
	r := newThreadDeathRequest(m)
	m.add(r)
	return r
}

// CreateClassPrepareRequest returns a new, disabled class prepare request.
func (m *EventRequestManager) CreateClassPrepareRequest() *ClassPrepareRequest {
	r := newClassPrepareRequest(m, Visible)
	m.add(r)
	return r
}

// CreateClassUnloadRequest returns a new, disabled class unload request.
func (m *EventRequestManager) CreateClassUnloadRequest() *ClassUnloadRequest {
	r := newClassUnloadRequest(m, Visible)
	m.add(r)
	return r
}

// CreateVMDeathRequest returns a new, disabled VM death request. The target
// reports VM death without a request; the request lets the client choose the
// suspend policy.
func (m *EventRequestManager) CreateVMDeathRequest() (*VMDeathRequest, error) {
	if err := m.vm.require("VM death requests", "", func(c jdwp.Capabilities) bool { return c.CanRequestVMDeathEvent }); err != nil {
		return nil, err
	}
	r := newVMDeathRequest(m)
	m.add(r)
	return r, nil
}

// CreateMonitorContendedEnterRequest returns a new, disabled request.
func (m *EventRequestManager) CreateMonitorContendedEnterRequest() (*MonitorContendedEnterRequest, error) {
	r, err := m.createMonitorRequest(jdwp.MonitorContendedEnter)
	if err != nil {
		return nil, err
	}
	return r.(*MonitorContendedEnterRequest), nil
}

// CreateMonitorContendedEnteredRequest returns a new, disabled request.
func (m *EventRequestManager) CreateMonitorContendedEnteredRequest() (*MonitorContendedEnteredRequest, error) {
	r, err := m.createMonitorRequest(jdwp.MonitorContendedEntered)
	if err != nil {
		return nil, err
	}
	return r.(*MonitorContendedEnteredRequest), nil
}

// CreateMonitorWaitRequest returns a new, disabled request.
func (m *EventRequestManager) CreateMonitorWaitRequest() (*MonitorWaitRequest, error) {
	r, err := m.createMonitorRequest(jdwp.MonitorWait)
	if err != nil {
		return nil, err
	}
	return r.(*MonitorWaitRequest), nil
}

// CreateMonitorWaitedRequest returns a new, disabled request.
func (m *EventRequestManager) CreateMonitorWaitedRequest() (*MonitorWaitedRequest, error) {
	r, err := m.createMonitorRequest(jdwp.MonitorWaited)
	if err != nil {
		return nil, err
	}
	return r.(*MonitorWaitedRequest), nil
}

func (m *EventRequestManager) createMonitorRequest(kind jdwp.EventKind) (EventRequest, error) {
	if err := m.vm.requireMonitorEvents(); err != nil {
		return nil, err
	}
	r := newMonitorRequest(m, kind)
	m.add(r)
	return r, nil
}

// visible returns the visible requests of type T listed under kind, in
// creation order.
func visible[T EventRequest](m *EventRequestManager, kind jdwp.EventKind) []T {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := []T{}
	for _, r := range m.requests[kind] {
		if t, ok := r.(T); ok && r.Visibility() == Visible {
			out = append(out, t)
		}
	}
	return out
}

// Requests returns every visible request, grouped by kind.
func (m *EventRequestManager) Requests() []EventRequest {
	kinds := []jdwp.EventKind{
		jdwp.Breakpoint, jdwp.SingleStep, jdwp.Exception, jdwp.MethodEntry,
		jdwp.MethodExit, jdwp.FieldAccess, jdwp.FieldModification,
		jdwp.ThreadStart, jdwp.ThreadDeath, jdwp.ClassPrepare, jdwp.ClassUnload,
		jdwp.VMDeath, jdwp.MonitorContendedEnter, jdwp.MonitorContendedEntered,
		jdwp.MonitorWait, jdwp.MonitorWaited,
	}
	out := []EventRequest{}
	for _, k := range kinds {
		out = append(out, visible[EventRequest](m, k)...)
	}
	return out
}

// BreakpointRequests returns the breakpoint requests.
func (m *EventRequestManager) BreakpointRequests() []*BreakpointRequest {
	return visible[*BreakpointRequest](m, jdwp.Breakpoint)
}

// StepRequests returns the step requests.
func (m *EventRequestManager) StepRequests() []*StepRequest {
	return visible[*StepRequest](m, jdwp.SingleStep)
}

// ExceptionRequests returns the exception requests.
func (m *EventRequestManager) ExceptionRequests() []*ExceptionRequest {
	return visible[*ExceptionRequest](m, jdwp.Exception)
}

// MethodEntryRequests returns the method entry requests.
func (m *EventRequestManager) MethodEntryRequests() []*MethodEntryRequest {
	return visible[*MethodEntryRequest](m, jdwp.MethodEntry)
}

// MethodExitRequests returns the method exit requests, with and without
// return values.
func (m *EventRequestManager) MethodExitRequests() []*MethodExitRequest {
	return visible[*MethodExitRequest](m, jdwp.MethodExit)
}

// AccessWatchpointRequests returns the access watchpoint requests.
func (m *EventRequestManager) AccessWatchpointRequests() []*AccessWatchpointRequest {
	return visible[*AccessWatchpointRequest](m, jdwp.FieldAccess)
}

// ModificationWatchpointRequests returns the modification watchpoint requests.
func (m *EventRequestManager) ModificationWatchpointRequests() []*ModificationWatchpointRequest {
	return visible[*ModificationWatchpointRequest](m, jdwp.FieldModification)
}

// ThreadStartRequests returns the thread start requests.
func (m *EventRequestManager) ThreadStartRequests() []*ThreadStartRequest {
	return visible[*ThreadStartRequest](m, jdwp.ThreadStart)
}

// ThreadDeathRequests returns the thread death requests.
func (m *EventRequestManager) ThreadDeathRequests() []*ThreadDeathRequest {
	return visible[*ThreadDeathRequest](m, jdwp.ThreadDeath)
}

// ClassPrepareRequests returns the class prepare requests.
func (m *EventRequestManager) ClassPrepareRequests() []*ClassPrepareRequest {
	return visible[*ClassPrepareRequest](m, jdwp.ClassPrepare)
}

// ClassUnloadRequests returns the class unload requests.
func (m *EventRequestManager) ClassUnloadRequests() []*ClassUnloadRequest {
	return visible[*ClassUnloadRequest](m, jdwp.ClassUnload)
}

// VMDeathRequests returns the VM death requests.
func (m *EventRequestManager) VMDeathRequests() []*VMDeathRequest {
	return visible[*VMDeathRequest](m, jdwp.VMDeath)
}

// MonitorContendedEnterRequests returns the monitor contended enter requests.
func (m *EventRequestManager) MonitorContendedEnterRequests() []*MonitorContendedEnterRequest {
	return visible[*MonitorContendedEnterRequest](m, jdwp.MonitorContendedEnter)
}

// MonitorContendedEnteredRequests returns the monitor contended entered
// requests.
func (m *EventRequestManager) MonitorContendedEnteredRequests() []*MonitorContendedEnteredRequest {
	return visible[*MonitorContendedEnteredRequest](m, jdwp.MonitorContendedEntered)
}

// MonitorWaitRequests returns the monitor wait requests.
func (m *EventRequestManager) MonitorWaitRequests() []*MonitorWaitRequest {
	return visible[*MonitorWaitRequest](m, jdwp.MonitorWait)
}

// MonitorWaitedRequests returns the monitor waited requests.
func (m *EventRequestManager) MonitorWaitedRequests() []*MonitorWaitedRequest {
	return visible[*MonitorWaitedRequest](m, jdwp.MonitorWaited)
}

// Delete disables the request if it is enabled and removes it from the
// manager. Deleting a deleted request does nothing. If the target has gone
// the request is still deleted.
func (m *EventRequestManager) Delete(r EventRequest) error {
	if err := checkMirror(m.vm, r); err != nil {
		return err
	}
	if _, ok := storageKind(r.Kind()); !ok {
		return errors.Wrapf(ErrInternal, "unknown request kind %v", r.Kind())
	}
	b := r.base()
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.deleted {
		return nil
	}
	if err := b.disable(); err != nil && errors.Cause(err) != ErrVMDisconnected {
		return err
	}
	if !m.remove(r) {
		return errors.Wrapf(ErrInternal, "%v request not registered", r.Kind())
	}
	b.deleted = true
	return nil
}

// DeleteRequests deletes each of the requests, returning the first error.
func (m *EventRequestManager) DeleteRequests(requests ...EventRequest) error {
	var errs fault.One
	for _, r := range requests {
		errs.Collect(m.Delete(r))
	}
	return errs.First()
}

// DeleteAllBreakpoints deletes every breakpoint request with a single
// command to the target.
func (m *EventRequestManager) DeleteAllBreakpoints() error {
	breakpoints := m.BreakpointRequests()
	for _, r := range breakpoints {
		r.mutex.Lock()
	}
	defer func() {
		for _, r := range breakpoints {
			r.mutex.Unlock()
		}
	}()
	m.arming.Lock()
	err := m.vm.call(func(c *jdwp.Connection) error { return c.ClearAllBreakpoints() })
	m.arming.Unlock()
	if err != nil && errors.Cause(err) != ErrVMDisconnected {
		return err
	}
	for _, r := range breakpoints {
		if r.deleted {
			continue
		}
		if r.enabled {
			m.indexRemove(jdwp.Breakpoint, r.id)
		}
		r.id, r.enabled, r.deleted = jdwp.NullEventRequestID, false, true
		m.remove(r)
	}
	log.D(m.vm.ctx, "Deleted %d breakpoints", len(breakpoints))
	return nil
}
