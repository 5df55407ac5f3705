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

package jdwp

import "fmt"

// StepSize is the granularity of a single step.
type StepSize int32

const (
	// StepMin steps by the minimum possible amount, usually a bytecode.
	StepMin = StepSize(0)
	// StepLine steps to the next source line.
	StepLine = StepSize(1)
)

// StepDepth is the call-stack relation of a single step.
type StepDepth int32

const (
	// StepInto steps into any method calls.
	StepInto = StepDepth(0)
	// StepOver steps over any method calls.
	StepOver = StepDepth(1)
	// StepOut steps out of the current method.
	StepOut = StepDepth(2)
)

func (s StepSize) String() string {
	switch s {
	case StepMin:
		return "Min"
	case StepLine:
		return "Line"
	default:
		return fmt.Sprintf("StepSize<%d>", int(s))
	}
}

func (s StepDepth) String() string {
	switch s {
	case StepInto:
		return "Into"
	case StepOver:
		return "Over"
	case StepOut:
		return "Out"
	default:
		return fmt.Sprintf("StepDepth<%d>", int(s))
	}
}

func (s StepSize) valid() bool    { return s == StepMin || s == StepLine }
func (s StepSize) label() string  { return "step size" }
func (d StepDepth) valid() bool   { return d >= StepInto && d <= StepOut }
func (d StepDepth) label() string { return "step depth" }
