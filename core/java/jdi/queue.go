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
	"context"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/pkg/errors"
)

// EventQueue delivers the event sets raised by the target.
//
// Events produced by internal requests, or by requests that have since been
// disabled, are dropped; a set left with no events is never delivered. When
// the connection is lost a single EventSet holding a VMDisconnectEvent is
// delivered, after which Remove fails with ErrVMDisconnected.
type EventQueue struct {
	vm *VirtualMachine
	// reading holds a token while a caller is reading the connection.
	reading chan struct{}
}

func newEventQueue(vm *VirtualMachine) *EventQueue {
	return &EventQueue{vm: vm, reading: make(chan struct{}, 1)}
}

// VirtualMachine returns the VirtualMachine the queue belongs to.
func (q *EventQueue) VirtualMachine() *VirtualMachine { return q.vm }

// Remove blocks until an event set is available, the connection is lost or
// ctx is stopped. It returns nil without an error if a malformed packet was
// discarded.
func (q *EventQueue) Remove(ctx context.Context) (*EventSet, error) {
	return q.remove(ctx, 0)
}

// RemoveTimeout is like Remove, but returns nil without an error if no event
// set arrives within timeout. A timeout of zero or less waits indefinitely.
func (q *EventQueue) RemoveTimeout(ctx context.Context, timeout time.Duration) (*EventSet, error) {
	return q.remove(ctx, timeout)
}

func (q *EventQueue) remove(ctx context.Context, timeout time.Duration) (*EventSet, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := q.acquire(ctx, timeout); err != nil {
		if errors.Cause(err) == jdwp.ErrTimeout {
			return nil, nil
		}
		return nil, err
	}
	defer func() { <-q.reading }()

	for {
		data, err := q.next(ctx, deadline)
		switch errors.Cause(err) {
		case nil:
		case jdwp.ErrTimeout:
			return nil, nil
		case jdwp.ErrDisconnected:
			return q.disconnect()
		default:
			return nil, err
		}
		set, err := q.decode(data)
		if err != nil {
			q.vm.cfg.onError(err)
			return nil, nil
		}
		if set != nil {
			return set, nil
		}
	}
}

// acquire waits for the other readers of the queue to finish, failing with
// ErrTimeout once timeout has elapsed or with the stop reason if ctx stops.
func (q *EventQueue) acquire(ctx context.Context, timeout time.Duration) error {
	select {
	case q.reading <- struct{}{}:
		return nil
	default:
	}
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case q.reading <- struct{}{}:
		return nil
	case <-expired:
		return jdwp.ErrTimeout
	case <-task.ShouldStop(ctx):
		return task.StopReason(ctx)
	}
}

// next returns the next raw event packet. Once the session has left the
// Connected state only packets already queued are returned.
func (q *EventQueue) next(ctx context.Context, deadline time.Time) ([]byte, error) {
	if q.vm.State() != Connected {
		if data, ok := q.vm.conn.PollEvent(); ok {
			return data, nil
		}
		return nil, jdwp.ErrDisconnected
	}
	var wait time.Duration
	if !deadline.IsZero() {
		if wait = time.Until(deadline); wait <= 0 {
			return nil, jdwp.ErrTimeout
		}
	}
	return q.vm.conn.NextEvent(ctx, wait)
}

// disconnect returns the VMDisconnect event set the first time it is called
// for the session, and ErrVMDisconnected after that.
func (q *EventQueue) disconnect() (*EventSet, error) {
	vm := q.vm
	vm.beginDisconnect()
	if !vm.state.CompareAndSwap(int32(Disconnecting), int32(Disconnected)) {
		return nil, ErrVMDisconnected
	}
	vm.types.clear()
	return &EventSet{mirror{vm}, jdwp.SuspendNone, []Event{vm.disconnectEvent()}}, nil
}

// decode returns the event set for the packet, or nil if none of its events
// are to be delivered.
func (q *EventQueue) decode(data []byte) (*EventSet, error) {
	vm := q.vm
	composite, err := vm.conn.DecodeEvents(data)
	if err != nil {
		return nil, err
	}
	all, delivered := q.resolve(composite.Events)
	if len(delivered) > 0 {
		return &EventSet{mirror{vm}, composite.Policy, delivered}, nil
	}
	if composite.Policy != jdwp.SuspendNone {
		log.D(vm.ctx, "Resuming undelivered %v event set of %d events", composite.Policy, len(all))
		if err := resumePolicy(vm, composite.Policy, eventThreads(vm, all)); err != nil {
			log.W(vm.ctx, "Resuming undelivered event set: %v", err)
		}
	}
	return nil, nil
}

// resolve returns the mirrors of every event, and of the events to be
// delivered.
func (q *EventQueue) resolve(events []jdwp.Event) (all, delivered []Event) {
	vm, m := q.vm, q.vm.requests
	m.arming.RLock()
	defer m.arming.RUnlock()
	for _, e := range events {
		vm.track(e)
		var r EventRequest
		if id := e.RequestID(); !id.IsNull() {
			r = m.lookup(e.Kind(), id)
		}
		ev := vm.newEvent(e, r)
		all = append(all, ev)
		switch {
		case r == nil && !e.RequestID().IsNull():
			log.W(vm.ctx, "Dropping %v event for unknown request %v", e.Kind(), e.RequestID())
		case r != nil && r.Visibility() == Internal:
		default:
			delivered = append(delivered, ev)
		}
	}
	return all, delivered
}

// track updates the known-type cache from class lifecycle events, whether or
// not they are delivered.
func (vm *VirtualMachine) track(e jdwp.Event) {
	switch e := e.(type) {
	case *jdwp.EventClassPrepare:
		vm.types.add(vm.newReferenceType(e.ClassKind, e.ClassType, e.Signature, e.Status))
	case *jdwp.EventClassUnload:
		if n := len(vm.types.unload(e.Signature)); n > 0 {
			log.D(vm.ctx, "Unloaded %d types with signature %s", n, e.Signature)
		}
	}
}
