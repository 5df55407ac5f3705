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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/eclipse-jdt/jdtdebug/core/app/crash"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

var (
	// Name is the full name of the application
	Name string
	// Version is reported by the -version flag.
	Version = "dev"
	// ExitFuncForTesting can be set to change the behaviour when the
	// application wants to exit with a non-zero code.
	// It defaults to os.Exit
	ExitFuncForTesting = os.Exit
	// ShortHelp should be set to add a help message to the usage text.
	ShortHelp = ""
	// ShortUsage is usage text for the additional non-flag arguments.
	ShortUsage = ""

	showVersion bool
)

func init() {
	Name = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	flag.BoolVar(&showVersion, "version", false, "print the version and exit")
	flag.CommandLine.Usage = Usage
}

// Usage prints the command line help to stderr.
func Usage() {
	out := flag.CommandLine.Output()
	if ShortHelp != "" {
		fmt.Fprintln(out, ShortHelp)
	}
	fmt.Fprintf(out, "Usage: %s [flags] %s\n", Name, ShortUsage)
	flag.PrintDefaults()
}

// Run performs all the work needed to start up an application.
// It parses the command line, builds a primary context that is cancelled on
// exit or on an interrupt, runs the provided task, then waits for the
// registered cleanups.
func Run(main task.Task) {
	run(os.Args[1:], main)
}

func run(args []string, main task.Task) {
	// Defer the panic handling
	defer func() {
		switch cause := recover().(type) {
		case nil:
		case ExitCode:
			ExitFuncForTesting(int(cause))
		default:
			crash.Crash(cause)
		}
	}()

	if err := flag.CommandLine.Parse(args); err != nil {
		panic(UsageExit)
	}
	if showVersion {
		fmt.Fprint(os.Stdout, Name, " version ", Version, "\n")
		return
	}

	handler := wrapHandler(logFlags.Style.Handler(log.Std()))
	rootCtx := prepareContext(context.Background(), handler, &logFlags)
	ctx, cancel := task.WithCancel(rootCtx)

	shutdownOnce := sync.Once{}
	shutdown := func() {
		shutdownOnce.Do(func() {
			cancel()
			if !WaitForCleanup(rootCtx) {
				fmt.Fprintln(os.Stderr, "Timeout waiting for cleanup")
			}
			handler.Close()
		})
	}
	defer shutdown()

	handleAbortSignals(cancel)
	crash.Register(func(interface{}, []byte) { cancel() })

	if err := main(ctx); err != nil {
		log.E(ctx, "Main failed\nError: %v", err)
		panic(FatalExit)
	}
}
