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

import "github.com/eclipse-jdt/jdtdebug/core/fault"

const (
	// ErrVMDisconnected is returned by any operation that needs the target
	// once the connection has been lost or disposed.
	ErrVMDisconnected = fault.Const("VM disconnected")
	// ErrInvalidRequestState is returned when a request is modified while
	// enabled, or used after it has been deleted.
	ErrInvalidRequestState = fault.Const("Invalid request state")
	// ErrObjectCollected is returned when an object has been garbage
	// collected.
	ErrObjectCollected = fault.Const("Object has been collected")
	// ErrDuplicateRequest is returned when a second step request is created
	// for a thread.
	ErrDuplicateRequest = fault.Const("Duplicate request")
	// ErrUnsupported is returned when the target lacks the capability an
	// operation needs.
	ErrUnsupported = fault.Const("Operation not supported by the target VM")
	// ErrVMMismatch is returned when a mirror from one session is used with
	// another.
	ErrVMMismatch = fault.Const("Mirror belongs to a different VM")
	// ErrInvalidArgument is returned for out of range arguments.
	ErrInvalidArgument = fault.Const("Invalid argument")
	// ErrInternal is returned when the debugger's own state is inconsistent.
	ErrInternal = fault.Const("Internal error")
)
