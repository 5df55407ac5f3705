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

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func runCapture(args []string, main task.Task) (code int, exited bool) {
	old := ExitFuncForTesting
	defer func() { ExitFuncForTesting = old }()
	ExitFuncForTesting = func(c int) { code, exited = c, true }
	run(args, main)
	return code, exited
}

func TestRunSuccess(t *testing.T) {
	ctx := log.Testing(t)
	ran := false
	_, exited := runCapture(nil, func(context.Context) error {
		ran = true
		return nil
	})
	assert.For(ctx, "ran").ThatBoolean(ran).IsTrue()
	assert.For(ctx, "exited").ThatBoolean(exited).IsFalse()
}

func TestRunFailureExits(t *testing.T) {
	ctx := log.Testing(t)
	code, exited := runCapture(nil, func(context.Context) error {
		return errors.New("boom")
	})
	assert.For(ctx, "exited").ThatBoolean(exited).IsTrue()
	assert.For(ctx, "code").That(code).Equals(int(FatalExit))
}

func TestRunBadFlag(t *testing.T) {
	ctx := log.Testing(t)
	code, exited := runCapture([]string{"-log-level", "chatty"}, func(context.Context) error {
		t.Error("main should not run")
		return nil
	})
	assert.For(ctx, "exited").ThatBoolean(exited).IsTrue()
	assert.For(ctx, "code").That(code).Equals(int(UsageExit))
}

func TestLogLevelFlag(t *testing.T) {
	ctx := log.Testing(t)
	defer func() { logFlags = logDefaults() }()
	var level log.Severity
	runCapture([]string{"-log-level", "error"}, func(ctx context.Context) error {
		level = logFlags.Level
		return nil
	})
	assert.For(ctx, "level").That(level).Equals(log.Error)
}

func TestCleanupRunsOnShutdown(t *testing.T) {
	ctx := log.Testing(t)
	cleaned := false
	runCapture(nil, func(ctx context.Context) error {
		AddCleanup(ctx, func() { cleaned = true })
		return nil
	})
	assert.For(ctx, "cleaned").ThatBoolean(cleaned).IsTrue()
}
