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
	"fmt"
	"sync"

	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/fault"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdi"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/pkg/errors"
)

// deferredKey is the request property naming the class a deferring class
// prepare request waits for.
type deferredKey struct{}

// deferred holds the requests waiting for a class to be loaded.
type deferred struct {
	prepare     *jdi.ClassPrepareRequest
	breakpoints []Breakpoint
	watchpoints []Watchpoint
}

// tracer arms the configured requests on a VM and reports its events.
type tracer struct {
	vm *jdi.VirtualMachine

	mutex       sync.Mutex
	policy      jdwp.SuspendPolicy
	breakpoints map[Breakpoint][]*jdi.BreakpointRequest
	pending     map[string]*deferred
	others      []jdi.EventRequest
}

func newTracer(vm *jdi.VirtualMachine) *tracer {
	return &tracer{
		vm:          vm,
		breakpoints: map[Breakpoint][]*jdi.BreakpointRequest{},
		pending:     map[string]*deferred{},
	}
}

// sync makes the armed requests match cfg. Breakpoints that are unchanged
// stay armed, everything else is rebuilt.
func (t *tracer) sync(ctx context.Context, cfg *Config) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	m := t.vm.EventRequestManager()
	policy := cfg.Policy()

	want := map[Breakpoint]bool{}
	for _, b := range cfg.Breakpoints {
		want[b] = true
	}
	stale := []jdi.EventRequest{}
	for b, rs := range t.breakpoints {
		if want[b] && policy == t.policy {
			continue
		}
		for _, r := range rs {
			stale = append(stale, r)
		}
		delete(t.breakpoints, b)
	}
	stale = append(stale, t.others...)
	for _, d := range t.pending {
		stale = append(stale, d.prepare)
	}
	t.others, t.pending, t.policy = nil, map[string]*deferred{}, policy
	if err := m.DeleteRequests(stale...); err != nil {
		return err
	}

	var errs fault.List
	for _, b := range cfg.Breakpoints {
		if _, ok := t.breakpoints[b]; !ok {
			errs.Collect(t.armBreakpoint(ctx, b))
		}
	}
	for _, w := range cfg.Watchpoints {
		errs.Collect(t.armWatchpoint(ctx, w))
	}
	for _, e := range cfg.Exceptions {
		errs.Collect(t.armException(e, cfg.Exclude))
	}
	if len(cfg.Classes) > 0 {
		errs.Collect(t.armClassPrepare(cfg.Classes, cfg.Exclude))
	}
	if cfg.Threads {
		errs.Collect(t.arm(m.CreateThreadStartRequest()))
		errs.Collect(t.arm(m.CreateThreadDeathRequest()))
	}
	log.I(ctx, "Armed %d breakpoints, %d other requests, %d classes pending",
		len(t.breakpoints), len(t.others), len(t.pending))
	return errs.First()
}

// arm sets the policy of r, enables it and records it for the next sync.
func (t *tracer) arm(r jdi.EventRequest) error {
	t.others = append(t.others, r)
	return t.enable(r)
}

func (t *tracer) enable(r jdi.EventRequest) error {
	if err := r.SetSuspendPolicy(t.policy); err != nil {
		return err
	}
	return r.Enable()
}

// waitFor returns the deferral record for the class, creating the class
// prepare request that releases it.
func (t *tracer) waitFor(class string) (*deferred, error) {
	if d, ok := t.pending[class]; ok {
		return d, nil
	}
	r := t.vm.EventRequestManager().CreateClassPrepareRequest()
	if err := r.AddClassFilter(class); err != nil {
		return nil, err
	}
	r.PutProperty(deferredKey{}, class)
	// The loading thread is held until the deferred requests are armed.
	if err := r.SetSuspendPolicy(jdwp.SuspendEventThread); err != nil {
		return nil, err
	}
	if err := r.Enable(); err != nil {
		return nil, err
	}
	d := &deferred{prepare: r}
	t.pending[class] = d
	return d, nil
}

func (t *tracer) armBreakpoint(ctx context.Context, b Breakpoint) error {
	classes, err := t.vm.ClassesByName(b.Class)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		d, err := t.waitFor(b.Class)
		if err != nil {
			return err
		}
		d.breakpoints = append(d.breakpoints, b)
		log.D(ctx, "Breakpoint %v deferred until %v is loaded", b, b.Class)
		return nil
	}
	m := t.vm.EventRequestManager()
	for _, c := range classes {
		locations, err := c.LocationsOfLine(b.Line)
		if err != nil {
			return errors.Wrapf(err, "Breakpoint %v", b)
		}
		if len(locations) == 0 {
			return fmt.Errorf("Breakpoint %v: no code at line %d of %v", b, b.Line, c)
		}
		r, err := m.CreateBreakpointRequest(locations[0])
		if err != nil {
			return err
		}
		if err := t.enable(r); err != nil {
			return err
		}
		t.breakpoints[b] = append(t.breakpoints[b], r)
	}
	return nil
}

func (t *tracer) armWatchpoint(ctx context.Context, w Watchpoint) error {
	classes, err := t.vm.ClassesByName(w.Class)
	if err != nil {
		return err
	}
	if len(classes) == 0 {
		d, err := t.waitFor(w.Class)
		if err != nil {
			return err
		}
		d.watchpoints = append(d.watchpoints, w)
		log.D(ctx, "Watchpoint %v deferred until %v is loaded", w, w.Class)
		return nil
	}
	m := t.vm.EventRequestManager()
	for _, c := range classes {
		f, err := c.FieldByName(w.Field)
		if err != nil {
			return errors.Wrapf(err, "Watchpoint %v", w)
		}
		if w.Access {
			r, err := m.CreateAccessWatchpointRequest(f)
			if err != nil {
				return err
			}
			if err := t.arm(r); err != nil {
				return err
			}
		}
		if w.Modification {
			r, err := m.CreateModificationWatchpointRequest(f)
			if err != nil {
				return err
			}
			if err := t.arm(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *tracer) armException(e Exception, exclude []string) error {
	var class *jdi.ReferenceType
	if e.Class != "" {
		classes, err := t.vm.ClassesByName(e.Class)
		if err != nil {
			return err
		}
		if len(classes) == 0 {
			return fmt.Errorf("Exception class %v is not loaded", e.Class)
		}
		class = classes[0]
	}
	r, err := t.vm.EventRequestManager().CreateExceptionRequest(class, e.Caught, e.Uncaught)
	if err != nil {
		return err
	}
	for _, p := range exclude {
		if err := r.AddClassExclusionFilter(p); err != nil {
			return err
		}
	}
	return t.arm(r)
}

func (t *tracer) armClassPrepare(patterns, exclude []string) error {
	m := t.vm.EventRequestManager()
	for _, p := range patterns {
		r := m.CreateClassPrepareRequest()
		if err := r.AddClassFilter(p); err != nil {
			return err
		}
		for _, x := range exclude {
			if err := r.AddClassExclusionFilter(x); err != nil {
				return err
			}
		}
		if err := t.arm(r); err != nil {
			return err
		}
	}
	return nil
}

// prepared arms the requests deferred on the class.
func (t *tracer) prepared(ctx context.Context, class string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	d, ok := t.pending[class]
	if !ok {
		return nil
	}
	delete(t.pending, class)
	var errs fault.List
	errs.Collect(t.vm.EventRequestManager().Delete(d.prepare))
	for _, b := range d.breakpoints {
		errs.Collect(t.armBreakpoint(ctx, b))
	}
	for _, w := range d.watchpoints {
		errs.Collect(t.armWatchpoint(ctx, w))
	}
	log.I(ctx, "%v loaded: armed %d breakpoints, %d watchpoints", class, len(d.breakpoints), len(d.watchpoints))
	return errs.First()
}

// loop reports every delivered event set and resumes it per its policy,
// until the VM disconnects or ctx is stopped.
func (t *tracer) loop(ctx context.Context) error {
	q := t.vm.EventQueue()
	for {
		set, err := q.Remove(ctx)
		switch {
		case task.Stopped(ctx):
			return nil
		case errors.Cause(err) == jdi.ErrVMDisconnected:
			return nil
		case err != nil:
			return err
		case set == nil:
			continue
		}
		done := false
		for _, e := range set.Events() {
			t.report(ctx, e)
			switch e := e.(type) {
			case *jdi.ClassPrepareEvent:
				if r := e.Request(); r != nil {
					if class, ok := r.Property(deferredKey{}).(string); ok {
						if err := t.prepared(ctx, class); err != nil {
							log.E(ctx, "Arming requests for %v: %v", class, err)
						}
					}
				}
			case *jdi.VMDisconnectEvent:
				done = true
			}
		}
		if done {
			return nil
		}
		if err := set.Resume(); err != nil && errors.Cause(err) != jdi.ErrVMDisconnected {
			log.W(ctx, "Resuming %v: %v", set, err)
		}
	}
}

func (t *tracer) report(ctx context.Context, e jdi.Event) {
	switch e := e.(type) {
	case *jdi.BreakpointEvent:
		log.I(ctx, "Breakpoint hit on %v at %v", e.Thread(), t.where(e.Location()))
	case *jdi.ExceptionEvent:
		catch := "nowhere"
		if l := e.CatchLocation(); !l.IsNull() {
			catch = t.where(l)
		}
		log.I(ctx, "Exception %v thrown on %v at %v, caught %v", e.Exception(), e.Thread(), t.where(e.Location()), catch)
	case *jdi.AccessWatchpointEvent:
		log.I(ctx, "Field %v read on %v at %v", fieldName(&e.WatchpointEvent), e.Thread(), t.where(e.Location()))
	case *jdi.ModificationWatchpointEvent:
		log.I(ctx, "Field %v set to %v on %v at %v", fieldName(&e.WatchpointEvent), e.ValueToBe(), e.Thread(), t.where(e.Location()))
	case *jdi.ClassPrepareEvent:
		log.I(ctx, "Class %v prepared", e.ReferenceType())
	case *jdi.ThreadStartEvent:
		log.I(ctx, "%v started", e.Thread())
	case *jdi.ThreadDeathEvent:
		log.I(ctx, "%v died", e.Thread())
	case *jdi.VMDeathEvent:
		log.I(ctx, "VM died")
	case *jdi.VMDisconnectEvent:
		log.I(ctx, "VM disconnected")
	default:
		log.I(ctx, "%v", e)
	}
}

// where describes the location as method and source line.
func (t *tracer) where(l jdwp.Location) string {
	m, err := t.vm.MethodAt(l)
	if err != nil {
		return l.String()
	}
	line, err := m.LineOf(l.Location)
	if err != nil || line < 0 {
		return fmt.Sprintf("%v@%d", m, l.Location)
	}
	return fmt.Sprintf("%v:%d", m, line)
}

func fieldName(e *jdi.WatchpointEvent) string {
	f, err := e.Field()
	if err != nil {
		return e.FieldID().String()
	}
	return f.String()
}
