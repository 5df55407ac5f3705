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

package flags_test

import (
	"flag"
	"io/ioutil"
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/app/flags"
	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

func newSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Usage = func() {}
	fs.SetOutput(ioutil.Discard)
	return fs
}

func TestRepeatedStrings(t *testing.T) {
	ctx := log.Testing(t)
	for _, cs := range []struct {
		args []string
		exp  []string
	}{
		{[]string{"-break", "Foo:10"}, []string{"Foo:10"}},
		{[]string{"-break", "Foo:10", "-break", "Bar:3"}, []string{"Foo:10", "Bar:3"}},
		{[]string{"-break", "Foo:10, Bar:3,", "-break", "Baz:1"}, []string{"Foo:10", "Bar:3", "Baz:1"}},
	} {
		var got flags.Strings
		fs := newSet()
		fs.Var(&got, "break", "")
		assert.For(ctx, "err").ThatError(fs.Parse(cs.args)).Succeeded()
		assert.For(ctx, "values").ThatSlice([]string(got)).Equals(cs.exp)
	}
}

func TestChooser(t *testing.T) {
	ctx := log.Testing(t)
	level := log.Info
	style := log.Normal
	fs := newSet()
	fs.Var(flags.For(&level, log.Verbose, log.Debug, log.Info, log.Warning, log.Error, log.Fatal), "level", "")
	fs.Var(flags.For(&style, log.Brief, log.Normal, log.Detailed), "style", "")

	err := fs.Parse([]string{"-level", "warning", "-style", "Detailed"})
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "level").That(level).Equals(log.Warning)
	assert.For(ctx, "style").That(style.Name).Equals("detailed")

	err = newSetWith(&level).Parse([]string{"-level", "chatty"})
	assert.For(ctx, "unknown").ThatError(err).Failed()
	assert.For(ctx, "unchanged").That(level).Equals(log.Warning)
}

func newSetWith(level *log.Severity) *flag.FlagSet {
	fs := newSet()
	fs.Var(flags.For(level, log.Info, log.Warning), "level", "")
	return fs
}
