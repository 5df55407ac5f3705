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

package fault_test

import (
	"errors"
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/fault"
)

func TestOneKeepsFirst(t *testing.T) {
	first, second := errors.New("first"), errors.New("second")
	o := fault.One{}
	o.Collect(nil)
	o.Collect(first)
	o.Collect(second)
	if got := o.First(); got != first {
		t.Errorf("One.First() = %v, expected %v", got, first)
	}
}

func TestListSkipsNil(t *testing.T) {
	l := fault.List{}
	l.Collect(nil)
	if l.First() != nil {
		t.Errorf("List.First() on empty list = %v", l.First())
	}
	l.Collect(fault.Const("a"))
	l.Collect(fault.Const("b"))
	if len(l) != 2 || l.First() != fault.Const("a") {
		t.Errorf("List = %v", l)
	}
}

func TestFrom(t *testing.T) {
	if fault.From(nil) != nil {
		t.Errorf("From(nil) should be nil")
	}
	if err := fault.From("oops"); err != fault.InvalidErrorType {
		t.Errorf("From(string) = %v", err)
	}
	c := fault.Const("x")
	if err := fault.From(c); err != c {
		t.Errorf("From(error) = %v", err)
	}
}
