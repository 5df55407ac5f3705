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

	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/pkg/errors"
)

// Visibility distinguishes requests made by the user from those the session
// makes for its own bookkeeping.
type Visibility int

const (
	// Visible requests deliver their events through the EventQueue.
	Visible Visibility = iota
	// Internal requests are consumed by the session and never delivered.
	Internal
)

func (v Visibility) String() string {
	if v == Internal {
		return "Internal"
	}
	return "Visible"
}

// EventRequest is implemented by every kind of event request.
//
// A request is created disabled. Filters can only be added while it is
// disabled. Enabling sends it to the target, which assigns it a RequestID;
// disabling clears it again. Deleting a request through the
// EventRequestManager makes every further operation fail with
// ErrInvalidRequestState.
type EventRequest interface {
	Mirror
	// Kind returns the event kind the request is set with.
	Kind() jdwp.EventKind
	// RequestID returns the target's identifier for the request, or
	// NullEventRequestID while disabled.
	RequestID() jdwp.EventRequestID
	IsEnabled() bool
	Enable() error
	Disable() error
	SetEnabled(enabled bool) error
	SuspendPolicy() jdwp.SuspendPolicy
	// SetSuspendPolicy changes the suspend policy, re-arming the request if
	// it is enabled.
	SetSuspendPolicy(policy jdwp.SuspendPolicy) error
	// AddCountFilter limits the request to fire on the count'th occurrence
	// and then expire.
	AddCountFilter(count int) error
	Visibility() Visibility
	IsDeleted() bool
	PutProperty(key, value interface{})
	Property(key interface{}) interface{}

	base() *eventRequest
}

// eventRequest holds the state common to every request kind.
type eventRequest struct {
	mirror
	manager    *EventRequestManager
	self       EventRequest
	kind       jdwp.EventKind
	visibility Visibility

	mutex      sync.Mutex
	policy     jdwp.SuspendPolicy
	id         jdwp.EventRequestID
	enabled    bool
	deleted    bool
	filters    filters
	properties map[interface{}]interface{}
}

func newEventRequest(m *EventRequestManager, kind jdwp.EventKind, visibility Visibility) *eventRequest {
	return &eventRequest{
		mirror:     mirror{m.vm},
		manager:    m,
		kind:       kind,
		visibility: visibility,
		policy:     jdwp.SuspendAll,
	}
}

func (r *eventRequest) base() *eventRequest { return r }

// Kind returns the event kind the request is set with.
func (r *eventRequest) Kind() jdwp.EventKind { return r.kind }

// Visibility returns whether the request is visible or internal.
func (r *eventRequest) Visibility() Visibility { return r.visibility }

// RequestID returns the target's identifier for the enabled request.
func (r *eventRequest) RequestID() jdwp.EventRequestID {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.id
}

// IsEnabled returns true if the request is armed in the target.
func (r *eventRequest) IsEnabled() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.enabled
}

// IsDeleted returns true once the request has been deleted.
func (r *eventRequest) IsDeleted() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.deleted
}

// SuspendPolicy returns the threads suspended when the request fires.
func (r *eventRequest) SuspendPolicy() jdwp.SuspendPolicy {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.policy
}

// PutProperty associates a client value with the request. A nil value
// removes the key.
func (r *eventRequest) PutProperty(key, value interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if value == nil {
		delete(r.properties, key)
		return
	}
	if r.properties == nil {
		r.properties = map[interface{}]interface{}{}
	}
	r.properties[key] = value
}

// Property returns the client value for key, or nil.
func (r *eventRequest) Property(key interface{}) interface{} {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.properties[key]
}

// Enable arms the request in the target. Enabling an enabled request does
// nothing.
func (r *eventRequest) Enable() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.enable()
}

// Disable clears the request in the target. Disabling a disabled request
// does nothing. If the target has gone the request is still disabled locally
// and ErrVMDisconnected is returned.
func (r *eventRequest) Disable() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.disable()
}

// SetEnabled enables or disables the request.
func (r *eventRequest) SetEnabled(enabled bool) error {
	if enabled {
		return r.Enable()
	}
	return r.Disable()
}

// SetSuspendPolicy changes the suspend policy. An enabled request is cleared
// and set again, so it receives a new RequestID.
func (r *eventRequest) SetSuspendPolicy(policy jdwp.SuspendPolicy) error {
	if !policy.Valid() {
		return errors.Wrapf(ErrInvalidArgument, "suspend policy %v", policy)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.deleted {
		return r.stateError("deleted")
	}
	if !r.enabled {
		r.policy = policy
		return nil
	}
	if err := r.disable(); err != nil {
		return err
	}
	r.policy = policy
	return r.enable()
}

// AddCountFilter limits the request to fire on the count'th occurrence.
func (r *eventRequest) AddCountFilter(count int) error {
	if count <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "count %d", count)
	}
	return r.addFilter(func(f *filters) { f.counts = append(f.counts, count) })
}

func (r *eventRequest) enable() error {
	if r.deleted {
		return r.stateError("deleted")
	}
	if r.enabled {
		return nil
	}
	m := r.manager
	m.arming.Lock()
	defer m.arming.Unlock()
	var id jdwp.EventRequestID
	err := r.vm.call(func(c *jdwp.Connection) error {
		var err error
		id, err = c.SetEvent(r.kind, r.policy, r.filters.modifiers()...)
		return err
	})
	if err != nil {
		return err
	}
	r.id, r.enabled = id, true
	m.indexAdd(r.kind, id, r.self)
	return nil
}

func (r *eventRequest) disable() error {
	if r.deleted {
		return r.stateError("deleted")
	}
	if !r.enabled {
		return nil
	}
	m := r.manager
	m.arming.Lock()
	defer m.arming.Unlock()
	err := r.vm.call(func(c *jdwp.Connection) error { return c.ClearEvent(r.kind, r.id) })
	if err != nil && errors.Cause(err) != ErrVMDisconnected {
		return err
	}
	m.indexRemove(r.kind, r.id)
	r.id, r.enabled = jdwp.NullEventRequestID, false
	return err
}

func (r *eventRequest) stateError(state string) error {
	return errors.Wrapf(ErrInvalidRequestState, "%v request is %s", r.kind, state)
}

// checkMutable returns ErrInvalidRequestState if filters cannot be added.
// Must be called with the request's mutex held.
func (r *eventRequest) checkMutable() error {
	switch {
	case r.deleted:
		return r.stateError("deleted")
	case r.enabled:
		return r.stateError("enabled")
	}
	return nil
}

func (r *eventRequest) addFilter(f func(*filters)) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.checkMutable(); err != nil {
		return err
	}
	f(&r.filters)
	return nil
}
