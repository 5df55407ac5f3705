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
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/app/crash"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
)

// ExitCode is the type for named return values from the application main entry point.
type ExitCode int

const (
	// SuccessExit is the exit code for succesful exit.
	SuccessExit ExitCode = iota
	// FatalExit is the exit code if the main task failed or something logged
	// a message that stops the process.
	FatalExit
	// UsageExit is the exit code if the command line could not be parsed.
	UsageExit
)

var (
	// CleanupTimeout is the time to wait for all cleanup signals to fire when shutting down.
	CleanupTimeout = time.Second * 10

	cleanupMutex sync.Mutex
	cleanups     []task.Signal
)

// AddCleanup calls f when the context is cancelled.
// Application will wait (for a maximum of CleanupTimeout) for f to complete
// before terminating the application.
func AddCleanup(ctx context.Context, f func()) {
	signal, done := task.NewSignal()
	crash.Go(func() {
		defer done(ctx)
		<-task.ShouldStop(ctx)
		f()
	})
	cleanupMutex.Lock()
	defer cleanupMutex.Unlock()
	cleanups = append(cleanups, signal)
}

// WaitForCleanup waits for all the cleanup signals to fire, or the cleanup
// timeout to expire, whichever comes first.
// Fired signals are dropped.
func WaitForCleanup(ctx context.Context) bool {
	cleanupMutex.Lock()
	pending := cleanups
	cleanups = nil
	cleanupMutex.Unlock()

	deadline := time.Now().Add(CleanupTimeout)
	for i, s := range pending {
		if !s.TryWait(ctx, time.Until(deadline)) {
			cleanupMutex.Lock()
			cleanups = append(cleanups, pending[i:]...)
			cleanupMutex.Unlock()
			return false
		}
	}
	return true
}

func handleAbortSignals(cancel task.CancelFunc) {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	crash.Go(func() {
		<-sigchan
		cancel()
	})
}
