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

// ThreadStatus is the execution state of a thread.
type ThreadStatus int

// Thread states.
const (
	ThreadZombie   = ThreadStatus(0)
	ThreadRunning  = ThreadStatus(1)
	ThreadSleeping = ThreadStatus(2)
	ThreadMonitor  = ThreadStatus(3)
	ThreadWait     = ThreadStatus(4)
)

// SuspendStatus is a bitfield describing whether a thread is suspended.
type SuspendStatus int

// SuspendStatusSuspended is set when the thread is suspended.
const SuspendStatusSuspended = SuspendStatus(1)

// GetThreadName returns the name of the specified thread.
func (c *Connection) GetThreadName(id ThreadID) (string, error) {
	var res string
	err := c.get(cmdThreadReferenceName, id, &res)
	return res, err
}

// Suspend suspends the specified thread.
func (c *Connection) Suspend(id ThreadID) error {
	return c.get(cmdThreadReferenceSuspend, id, nil)
}

// Resume resumes the specified thread.
func (c *Connection) Resume(id ThreadID) error {
	return c.get(cmdThreadReferenceResume, id, nil)
}

// GetThreadStatus returns the execution and suspend state of the thread.
func (c *Connection) GetThreadStatus(id ThreadID) (ThreadStatus, SuspendStatus, error) {
	var res struct {
		Thread  ThreadStatus
		Suspend SuspendStatus
	}
	err := c.get(cmdThreadReferenceStatus, id, &res)
	return res.Thread, res.Suspend, err
}

// GetSuspendCount returns the number of times the thread has been suspended
// without a matching resume.
func (c *Connection) GetSuspendCount(id ThreadID) (int, error) {
	var res int
	err := c.get(cmdThreadReferenceSuspendCount, id, &res)
	return res, err
}

// FrameInfo describes a single stack frame.
type FrameInfo struct {
	Frame    FrameID
	Location Location
}

// GetFrames returns a number of stack frames.
// A count of -1 returns all the frames from start.
func (c *Connection) GetFrames(thread ThreadID, start, count int) ([]FrameInfo, error) {
	req := struct {
		Thread       ThreadID
		Start, Count int
	}{thread, start, count}
	var res []FrameInfo
	err := c.get(cmdThreadReferenceFrames, req, &res)
	return res, err
}
