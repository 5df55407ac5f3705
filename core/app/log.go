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

	"github.com/eclipse-jdt/jdtdebug/core/app/flags"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

// LogFlags holds the command line options that control logging.
type LogFlags struct {
	Level log.Severity
	Style log.Style
}

var logFlags = logDefaults()

func init() {
	logFlags.Bind(flag.CommandLine)
}

func logDefaults() LogFlags {
	return LogFlags{
		Level: log.Info,
		Style: log.Normal,
	}
}

// Bind registers the -log-level and -log-style flags on fs.
func (f *LogFlags) Bind(fs *flag.FlagSet) {
	levels := flags.For(&f.Level, log.Verbose, log.Debug, log.Info, log.Warning, log.Error, log.Fatal)
	styles := flags.For(&f.Style)
	for _, s := range log.Styles {
		styles.Choices = append(styles.Choices, s)
	}
	fs.Var(levels, "log-level", "the severity to log at, one of "+levels.Choices.String())
	fs.Var(styles, "log-style", "the log formatting, one of "+styles.Choices.String())
}

func wrapHandler(to log.Handler) log.Handler {
	to = log.Synchronized(to)
	return log.NewHandler(func(m *log.Message) {
		to.Handle(m)
		if m.StopProcess {
			panic(FatalExit)
		}
	}, to.Close)
}

func prepareContext(ctx context.Context, h log.Handler, f *LogFlags) context.Context {
	ctx = log.PutTag(ctx, Name)
	ctx = log.PutFilter(ctx, log.SeverityFilter(f.Level))
	ctx = log.PutHandler(ctx, h)
	return ctx
}
