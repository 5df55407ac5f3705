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
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/pkg/errors"
)

// filters holds a request's modifiers by kind.
type filters struct {
	steps        []jdwp.StepEventModifier
	fields       []jdwp.FieldOnlyEventModifier
	exceptions   []jdwp.ExceptionOnlyEventModifier
	locations    []jdwp.LocationOnlyEventModifier
	classExclude []jdwp.ClassExcludeEventModifier
	classMatch   []jdwp.ClassMatchEventModifier
	classOnly    []jdwp.ClassOnlyEventModifier
	threads      []jdwp.ThreadOnlyEventModifier
	counts       []int
	instances    []jdwp.InstanceOnlyEventModifier
	sourceNames  []jdwp.SourceNameMatchEventModifier
}

// modifiers returns the filters in the order they are sent to the target.
// The count filter is applied by the target after every filter preceding it,
// so it is placed after all the restricting filters.
func (f *filters) modifiers() []jdwp.EventModifier {
	out := []jdwp.EventModifier{}
	for _, m := range f.steps {
		out = append(out, m)
	}
	for _, m := range f.fields {
		out = append(out, m)
	}
	for _, m := range f.exceptions {
		out = append(out, m)
	}
	for _, m := range f.locations {
		out = append(out, m)
	}
	for _, m := range f.classExclude {
		out = append(out, m)
	}
	for _, m := range f.classMatch {
		out = append(out, m)
	}
	for _, m := range f.classOnly {
		out = append(out, m)
	}
	for _, m := range f.threads {
		out = append(out, m)
	}
	for _, c := range f.counts {
		out = append(out, jdwp.CountEventModifier(c))
	}
	for _, m := range f.instances {
		out = append(out, m)
	}
	for _, m := range f.sourceNames {
		out = append(out, m)
	}
	return out
}

// threadFilter adds thread filters to a request kind.
type threadFilter struct{ r *eventRequest }

// AddThreadFilter restricts the request to events on the thread.
func (f threadFilter) AddThreadFilter(t *ThreadReference) error {
	if err := f.r.preCheck(t); err != nil {
		return err
	}
	collected, err := t.IsCollected()
	if err != nil {
		return err
	}
	if collected {
		return errors.Wrapf(ErrObjectCollected, "%v", t)
	}
	return f.r.addFilter(func(fs *filters) {
		fs.threads = append(fs.threads, jdwp.ThreadOnlyEventModifier(t.ThreadID()))
	})
}

// patternFilter adds class name pattern filters to a request kind.
type patternFilter struct{ r *eventRequest }

// classFilter adds class name and class type filters to a request kind.
type classFilter struct{ patternFilter }

// AddClassFilter restricts the request to classes whose name matches the
// pattern. A pattern is an exact name or has a single '*' at its start or
// end, such as "java.lang.*" or "*.Foo".
func (f patternFilter) AddClassFilter(pattern string) error {
	return f.r.addFilter(func(fs *filters) {
		fs.classMatch = append(fs.classMatch, jdwp.ClassMatchEventModifier(pattern))
	})
}

// AddClassExclusionFilter excludes classes whose name matches the pattern.
func (f patternFilter) AddClassExclusionFilter(pattern string) error {
	return f.r.addFilter(func(fs *filters) {
		fs.classExclude = append(fs.classExclude, jdwp.ClassExcludeEventModifier(pattern))
	})
}

// AddClassOnlyFilter restricts the request to the type and its subtypes.
func (f classFilter) AddClassOnlyFilter(t *ReferenceType) error {
	if err := f.r.preCheck(t); err != nil {
		return err
	}
	return f.r.addFilter(func(fs *filters) {
		fs.classOnly = append(fs.classOnly, jdwp.ClassOnlyEventModifier(t.ID()))
	})
}

// instanceFilter adds instance filters to a request kind.
type instanceFilter struct{ r *eventRequest }

// AddInstanceFilter restricts the request to events whose 'this' object is o.
func (f instanceFilter) AddInstanceFilter(o *ObjectReference) error {
	if err := f.r.preCheck(o); err != nil {
		return err
	}
	if err := f.r.vm.require("instance filters", "", func(c jdwp.Capabilities) bool { return c.CanUseInstanceFilters }); err != nil {
		return err
	}
	return f.r.addFilter(func(fs *filters) {
		fs.instances = append(fs.instances, jdwp.InstanceOnlyEventModifier(o.ID()))
	})
}

// preCheck fails early for a request that cannot take filters, or a mirror
// from another VM.
func (r *eventRequest) preCheck(m Mirror) error {
	r.mutex.Lock()
	err := r.checkMutable()
	r.mutex.Unlock()
	if err != nil {
		return err
	}
	return checkMirror(r.vm, m)
}
