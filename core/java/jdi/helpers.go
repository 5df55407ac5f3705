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

	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/pkg/errors"
)

// WaitForClassPrepare blocks until a class with a name that matches the
// pattern is prepared, and then returns the prepare event.
// All threads are suspended when the function returns.
//
// Event sets not produced by the function's own request are resumed and
// discarded while it waits.
func WaitForClassPrepare(ctx context.Context, vm *VirtualMachine, pattern string) (*ClassPrepareEvent, error) {
	m := vm.EventRequestManager()
	r := m.CreateClassPrepareRequest()
	if err := r.AddClassFilter(pattern); err != nil {
		m.Delete(r)
		return nil, err
	}
	var out *ClassPrepareEvent
	err := waitFor(ctx, vm, r, func(e Event) bool {
		out = e.(*ClassPrepareEvent)
		return true
	})
	return out, err
}

// WaitForMethodEntry blocks until the method of class is entered, and then
// returns the method entry event.
// All threads are suspended when the function returns.
func WaitForMethodEntry(ctx context.Context, vm *VirtualMachine, class *ReferenceType, method *Method) (*MethodEntryEvent, error) {
	m := vm.EventRequestManager()
	r := m.CreateMethodEntryRequest()
	if err := r.AddClassOnlyFilter(class); err != nil {
		m.Delete(r)
		return nil, err
	}
	var out *MethodEntryEvent
	err := waitFor(ctx, vm, r, func(e Event) bool {
		entry := e.(*MethodEntryEvent)
		if entry.Location().Method != method.ID {
			return false
		}
		out = entry
		return true
	})
	return out, err
}

// waitFor enables r with SuspendAll and removes event sets from the queue
// until match accepts one of r's events. The matching set is left suspended,
// every other set is resumed. r is deleted on return.
func waitFor(ctx context.Context, vm *VirtualMachine, r EventRequest, match func(Event) bool) error {
	m := vm.EventRequestManager()
	defer m.Delete(r)
	if err := r.SetSuspendPolicy(jdwp.SuspendAll); err != nil {
		return err
	}
	if err := r.Enable(); err != nil {
		return err
	}
	for {
		set, err := vm.EventQueue().Remove(ctx)
		if err != nil {
			return err
		}
		if set == nil {
			continue
		}
		for _, e := range set.Events() {
			if _, ok := e.(*VMDisconnectEvent); ok {
				return ErrVMDisconnected
			}
			if e.Request() == r && match(e) {
				return nil
			}
		}
		log.D(vm.ctx, "Resuming %v while waiting for %v", set, r.Kind())
		if err := set.Resume(); err != nil {
			return errors.Wrap(err, "Resuming event set")
		}
	}
}
