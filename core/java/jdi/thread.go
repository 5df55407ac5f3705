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
	"fmt"

	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
)

// ObjectReference is a mirror of an object in the target.
type ObjectReference struct {
	mirror
	id  jdwp.ObjectID
	tag jdwp.Tag
}

// ID returns the object's identifier.
func (o *ObjectReference) ID() jdwp.ObjectID { return o.id }

// Tag returns the object's tag.
func (o *ObjectReference) Tag() jdwp.Tag { return o.tag }

// IsCollected returns true if the object has been garbage collected.
func (o *ObjectReference) IsCollected() (bool, error) {
	var collected bool
	err := o.vm.call(func(c *jdwp.Connection) error {
		var err error
		collected, err = c.IsCollected(o.id)
		return err
	})
	return collected, err
}

// ReferenceType returns the runtime type of the object.
func (o *ObjectReference) ReferenceType() (*ReferenceType, error) {
	var ty jdwp.ObjectType
	err := o.vm.call(func(c *jdwp.Connection) error {
		var err error
		ty, err = c.GetObjectType(o.id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if t := o.vm.types.get(ty.Type); t != nil {
		return t, nil
	}
	var sig string
	err = o.vm.call(func(c *jdwp.Connection) error {
		var err error
		sig, err = c.GetTypeSignature(ty.Type)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o.vm.types.add(o.vm.newReferenceType(ty.Kind, ty.Type, sig, jdwp.StatusPrepared)), nil
}

func (o *ObjectReference) String() string { return fmt.Sprintf("%v<%d>", o.tag, uint64(o.id)) }

// ThreadReference is a mirror of a thread in the target.
type ThreadReference struct {
	ObjectReference
}

// ThreadID returns the thread's identifier.
func (t *ThreadReference) ThreadID() jdwp.ThreadID { return jdwp.ThreadID(t.id) }

// Name returns the thread's name.
func (t *ThreadReference) Name() (string, error) {
	var name string
	err := t.vm.call(func(c *jdwp.Connection) error {
		var err error
		name, err = c.GetThreadName(t.ThreadID())
		return err
	})
	return name, err
}

// Suspend suspends the thread.
func (t *ThreadReference) Suspend() error {
	return t.vm.call(func(c *jdwp.Connection) error { return c.Suspend(t.ThreadID()) })
}

// Resume resumes the thread.
func (t *ThreadReference) Resume() error {
	return t.vm.call(func(c *jdwp.Connection) error { return c.Resume(t.ThreadID()) })
}

// SuspendCount returns the number of pending suspends of the thread.
func (t *ThreadReference) SuspendCount() (int, error) {
	var count int
	err := t.vm.call(func(c *jdwp.Connection) error {
		var err error
		count, err = c.GetSuspendCount(t.ThreadID())
		return err
	})
	return count, err
}

// Status returns the thread's execution status and whether it is suspended.
func (t *ThreadReference) Status() (jdwp.ThreadStatus, bool, error) {
	var status jdwp.ThreadStatus
	var suspended jdwp.SuspendStatus
	err := t.vm.call(func(c *jdwp.Connection) error {
		var err error
		status, suspended, err = c.GetThreadStatus(t.ThreadID())
		return err
	})
	return status, suspended&jdwp.SuspendStatusSuspended != 0, err
}

// Frames returns the locations of every frame of the suspended thread,
// innermost first.
func (t *ThreadReference) Frames() ([]jdwp.Location, error) {
	var frames []jdwp.FrameInfo
	err := t.vm.call(func(c *jdwp.Connection) error {
		var err error
		frames, err = c.GetFrames(t.ThreadID(), 0, -1)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]jdwp.Location, len(frames))
	for i, f := range frames {
		out[i] = f.Location
	}
	return out, nil
}

func (t *ThreadReference) String() string { return fmt.Sprintf("Thread<%d>", uint64(t.id)) }
