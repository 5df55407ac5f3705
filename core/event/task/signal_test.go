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

package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func TestSignal(t *testing.T) {
	ctx := log.Testing(t)
	signal, fire := task.NewSignal()
	assert.For(ctx, "before").ThatBoolean(signal.Fired()).IsFalse()
	assert.For(ctx, "try wait").ThatBoolean(signal.TryWait(ctx, time.Millisecond)).IsFalse()
	fire(ctx)
	fire(ctx)
	assert.For(ctx, "after").ThatBoolean(signal.Fired()).IsTrue()
	assert.For(ctx, "wait").ThatBoolean(signal.Wait(ctx)).IsTrue()
}

func TestSignalWaitStopped(t *testing.T) {
	ctx := log.Testing(t)
	signal, _ := task.NewSignal()
	stopped, cancel := task.WithCancel(ctx)
	cancel()
	assert.For(ctx, "wait").ThatBoolean(signal.Wait(stopped)).IsFalse()
	assert.For(ctx, "stopped").ThatBoolean(task.Stopped(stopped)).IsTrue()
	assert.For(ctx, "reason").ThatError(task.StopReason(stopped)).Equals(context.Canceled)
}

func TestFiredSignal(t *testing.T) {
	ctx := log.Testing(t)
	assert.For(ctx, "fired").ThatBoolean(task.FiredSignal.Fired()).IsTrue()
}
