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

package jdi_test

import (
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdi"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func TestDeleteAllBreakpoints(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	m := vm.EventRequestManager()
	first, _ := m.CreateBreakpointRequest(location)
	second, _ := m.CreateBreakpointRequest(jdwp.Location{Type: jdwp.Class, Class: 0x10, Method: 0x21, Location: 0})
	disabled, _ := m.CreateBreakpointRequest(location)
	first.Enable()
	second.Enable()
	start := m.CreateThreadStartRequest()
	start.Enable()

	assert.For(ctx, "DeleteAllBreakpoints").ThatError(m.DeleteAllBreakpoints()).Succeeded()
	assert.For(ctx, "ClearAllBreakpoints commands").ThatSlice(fake.Commands(15, 3)).IsLength(1)
	assert.For(ctx, "Clear commands").ThatSlice(fake.Commands(15, 2)).IsEmpty()
	assert.For(ctx, "listed").ThatSlice(m.BreakpointRequests()).IsEmpty()
	assert.For(ctx, "wire breakpoints").ThatSlice(fake.RequestsOf(jdwp.Breakpoint)).IsEmpty()
	for _, r := range []*jdi.BreakpointRequest{first, second, disabled} {
		assert.For(ctx, "deleted").ThatBoolean(r.IsDeleted()).IsTrue()
		assert.For(ctx, "id").That(r.RequestID()).Equals(jdwp.NullEventRequestID)
	}
	assert.For(ctx, "thread start kept").ThatBoolean(start.IsEnabled()).IsTrue()
	assert.For(ctx, "requests").ThatSlice(m.Requests()).IsLength(1)
}

func TestDeleteRacingEnable(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	m := vm.EventRequestManager()
	for i := 0; i < 100; i++ {
		r, _ := m.CreateBreakpointRequest(location)
		enabled := make(chan struct{})
		go func() {
			defer close(enabled)
			r.Enable()
		}()
		assert.For(ctx, "Delete").ThatError(m.Delete(r)).Succeeded()
		<-enabled
		assert.For(ctx, "deleted").ThatBoolean(r.IsDeleted()).IsTrue()
		assert.For(ctx, "enabled").ThatBoolean(r.IsEnabled()).IsFalse()
	}
	assert.For(ctx, "listed").ThatSlice(m.BreakpointRequests()).IsEmpty()
	assert.For(ctx, "wire breakpoints").ThatSlice(fake.RequestsOf(jdwp.Breakpoint)).IsEmpty()
}

func TestDeleteRequests(t *testing.T) {
	ctx := log.Testing(t)
	vm, fake, done := attach(ctx, t)
	defer done()

	m := vm.EventRequestManager()
	entry := m.CreateMethodEntryRequest()
	exit := m.CreateMethodExitRequest()
	death := m.CreateThreadDeathRequest()
	entry.Enable()
	death.Enable()

	assert.For(ctx, "requests").ThatSlice(m.Requests()).IsLength(3)
	assert.For(ctx, "method exits").ThatSlice(m.MethodExitRequests()).IsLength(1)

	err := m.DeleteRequests(entry, exit)
	assert.For(ctx, "DeleteRequests").ThatError(err).Succeeded()
	assert.For(ctx, "requests").ThatSlice(m.Requests()).Equals([]jdi.EventRequest{death})
	assert.For(ctx, "wire method entries").ThatSlice(fake.RequestsOf(jdwp.MethodEntry)).IsEmpty()
	assert.For(ctx, "wire thread deaths").ThatSlice(fake.RequestsOf(jdwp.ThreadDeath)).IsLength(1)
}

func TestDeleteAfterDisconnect(t *testing.T) {
	ctx := log.Testing(t)
	vm, _, done := attach(ctx, t)
	defer done()

	m := vm.EventRequestManager()
	r, _ := m.CreateBreakpointRequest(location)
	assert.For(ctx, "Enable").ThatError(r.Enable()).Succeeded()
	vm.Dispose()

	assert.For(ctx, "Delete").ThatError(m.Delete(r)).Succeeded()
	assert.For(ctx, "deleted").ThatBoolean(r.IsDeleted()).IsTrue()
	assert.For(ctx, "listed").ThatSlice(m.BreakpointRequests()).IsEmpty()

	other, _ := m.CreateBreakpointRequest(location)
	assert.For(ctx, "Enable after dispose").ThatError(other.Enable()).HasCause(jdi.ErrVMDisconnected)
	assert.For(ctx, "enabled").ThatBoolean(other.IsEnabled()).IsFalse()
}

func TestCreateBreakpointRejectsNullLocation(t *testing.T) {
	ctx := log.Testing(t)
	vm, _, done := attach(ctx, t)
	defer done()

	_, err := vm.EventRequestManager().CreateBreakpointRequest(jdwp.Location{})
	assert.For(ctx, "null location").ThatError(err).HasCause(jdi.ErrInvalidArgument)
}
