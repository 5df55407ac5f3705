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
	"strings"

	"github.com/eclipse-jdt/jdtdebug/core/fault"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

// EventSet is a non-empty, ordered group of events reported together by the
// target under one suspend policy.
//
// Threads suspended by the events stay suspended until Resume is called.
type EventSet struct {
	mirror
	policy jdwp.SuspendPolicy
	events []Event
}

// SuspendPolicy returns the threads suspended when the events were raised.
func (s *EventSet) SuspendPolicy() jdwp.SuspendPolicy { return s.policy }

// Events returns the events in the order the target reported them.
func (s *EventSet) Events() []Event {
	return append([]Event(nil), s.events...)
}

// Len returns the number of events in the set.
func (s *EventSet) Len() int { return len(s.events) }

// Threads returns the distinct threads named by the events, in order.
func (s *EventSet) Threads() []*ThreadReference {
	return eventThreads(s.vm, s.events)
}

// Resume resumes the threads suspended by the set: nothing for SuspendNone,
// the event threads for SuspendEventThread, and the whole target for
// SuspendAll.
func (s *EventSet) Resume() error {
	return resumePolicy(s.vm, s.policy, s.Threads())
}

func (s *EventSet) String() string {
	parts := make([]string, len(s.events))
	for i, e := range s.events {
		parts[i] = fmt.Sprint(e)
	}
	return fmt.Sprintf("EventSet<%v>[%s]", s.policy, strings.Join(parts, ", "))
}

func eventThreads(vm *VirtualMachine, events []Event) []*ThreadReference {
	seen := map[jdwp.ThreadID]bool{}
	out := []*ThreadReference{}
	for _, e := range events {
		te, ok := e.(threadEvent)
		if !ok {
			continue
		}
		t := te.Thread()
		if t == nil || seen[t.ThreadID()] {
			continue
		}
		seen[t.ThreadID()] = true
		out = append(out, t)
	}
	return out
}

// resumePolicy undoes the suspension the policy caused for threads.
func resumePolicy(vm *VirtualMachine, policy jdwp.SuspendPolicy, threads []*ThreadReference) error {
	switch policy {
	case jdwp.SuspendAll:
		return vm.Resume()
	case jdwp.SuspendEventThread:
		var errs fault.One
		for _, t := range threads {
			if err := t.Resume(); err != nil {
				log.W(vm.ctx, "Resuming %v: %v", t, err)
				errs.Collect(err)
			}
		}
		return errs.First()
	}
	return nil
}
