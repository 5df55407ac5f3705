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

package main

import (
	"strings"
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func TestReadConfig(t *testing.T) {
	ctx := log.Testing(t)
	cfg, err := readConfig(strings.NewReader(`
target: localhost:5005
require: ">= 1.6"
suspend: thread
resume: true
ssh:
  host: build.example.com
  user: me
breakpoints:
  - {class: com.example.Foo, line: 11}
  - {class: com.example.Bar, line: 5}
watchpoints:
  - {class: com.example.Foo, field: count, modification: true}
exceptions:
  - {uncaught: true}
exclude: ["java.*", "sun.*"]
threads: true
`))
	if !assert.For(ctx, "err").ThatError(err).Succeeded() {
		return
	}
	assert.For(ctx, "target").That(cfg.Target).Equals("localhost:5005")
	assert.For(ctx, "policy").That(cfg.Policy()).Equals(jdwp.SuspendEventThread)
	assert.For(ctx, "resume").ThatBoolean(cfg.Resume).IsTrue()
	assert.For(ctx, "ssh host").That(cfg.SSH.Host).Equals("build.example.com")
	assert.For(ctx, "ssh port").That(cfg.SSH.Port).Equals(uint16(22))
	assert.For(ctx, "breakpoints").ThatSlice(cfg.Breakpoints).Equals([]Breakpoint{
		{Class: "com.example.Foo", Line: 11},
		{Class: "com.example.Bar", Line: 5},
	})
	assert.For(ctx, "watchpoints").ThatSlice(cfg.Watchpoints).IsLength(1)
	assert.For(ctx, "exclude").ThatSlice(cfg.Exclude).Equals([]string{"java.*", "sun.*"})
	assert.For(ctx, "threads").ThatBoolean(cfg.Threads).IsTrue()
}

func TestDefaultConfig(t *testing.T) {
	ctx := log.Testing(t)
	cfg, err := loadConfig("")
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "policy").That(cfg.Policy()).Equals(jdwp.SuspendAll)
}

func TestInvalidConfig(t *testing.T) {
	ctx := log.Testing(t)
	for _, cs := range []struct {
		name string
		yaml string
	}{
		{"policy", "suspend: sometimes"},
		{"constraint", "require: not-a-version"},
		{"breakpoint line", "breakpoints: [{class: Foo, line: 0}]"},
		{"breakpoint class", "breakpoints: [{line: 3}]"},
		{"watchpoint", "watchpoints: [{class: Foo, field: x}]"},
		{"exception", "exceptions: [{class: java.lang.Error}]"},
		{"syntax", "breakpoints: {"},
	} {
		_, err := readConfig(strings.NewReader(cs.yaml))
		assert.For(ctx, cs.name).ThatError(err).Failed()
	}
}

func TestParseBreakpoint(t *testing.T) {
	ctx := log.Testing(t)
	b, err := parseBreakpoint("com.example.Foo$Inner:42")
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "breakpoint").That(b).Equals(Breakpoint{Class: "com.example.Foo$Inner", Line: 42})
	assert.For(ctx, "string").That(b.String()).Equals("com.example.Foo$Inner:42")

	for _, s := range []string{"Foo", ":3", "Foo:x"} {
		_, err := parseBreakpoint(s)
		assert.For(ctx, s).ThatError(err).Failed()
	}
}
