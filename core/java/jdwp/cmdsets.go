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

// cmdSet is the namespace for a command identifier.
type cmdSet uint8

// cmdID is the identifier of a command within a cmdSet.
type cmdID uint8

// cmd is a fully qualified command.
type cmd struct {
	set cmdSet
	id  cmdID
}

const (
	cmdSetVirtualMachine  = cmdSet(1)
	cmdSetReferenceType   = cmdSet(2)
	cmdSetMethod          = cmdSet(6)
	cmdSetObjectReference = cmdSet(9)
	cmdSetThreadReference = cmdSet(11)
	cmdSetEventRequest    = cmdSet(15)
	cmdSetEvent           = cmdSet(64)
)

var (
	cmdVirtualMachineVersion            = cmd{cmdSetVirtualMachine, 1}
	cmdVirtualMachineClassesBySignature = cmd{cmdSetVirtualMachine, 2}
	cmdVirtualMachineAllClasses         = cmd{cmdSetVirtualMachine, 3}
	cmdVirtualMachineAllThreads         = cmd{cmdSetVirtualMachine, 4}
	cmdVirtualMachineDispose            = cmd{cmdSetVirtualMachine, 6}
	cmdVirtualMachineIDSizes            = cmd{cmdSetVirtualMachine, 7}
	cmdVirtualMachineSuspend            = cmd{cmdSetVirtualMachine, 8}
	cmdVirtualMachineResume             = cmd{cmdSetVirtualMachine, 9}
	cmdVirtualMachineExit               = cmd{cmdSetVirtualMachine, 10}
	cmdVirtualMachineCapabilitiesNew    = cmd{cmdSetVirtualMachine, 17}

	cmdReferenceTypeSignature = cmd{cmdSetReferenceType, 1}
	cmdReferenceTypeFields    = cmd{cmdSetReferenceType, 4}
	cmdReferenceTypeMethods   = cmd{cmdSetReferenceType, 5}

	cmdMethodLineTable = cmd{cmdSetMethod, 1}

	cmdObjectReferenceReferenceType = cmd{cmdSetObjectReference, 1}
	cmdObjectReferenceIsCollected   = cmd{cmdSetObjectReference, 9}

	cmdThreadReferenceName         = cmd{cmdSetThreadReference, 1}
	cmdThreadReferenceSuspend      = cmd{cmdSetThreadReference, 2}
	cmdThreadReferenceResume       = cmd{cmdSetThreadReference, 3}
	cmdThreadReferenceStatus       = cmd{cmdSetThreadReference, 4}
	cmdThreadReferenceFrames       = cmd{cmdSetThreadReference, 6}
	cmdThreadReferenceSuspendCount = cmd{cmdSetThreadReference, 12}

	cmdEventRequestSet                 = cmd{cmdSetEventRequest, 1}
	cmdEventRequestClear               = cmd{cmdSetEventRequest, 2}
	cmdEventRequestClearAllBreakpoints = cmd{cmdSetEventRequest, 3}

	cmdEventComposite = cmd{cmdSetEvent, 100}
)

func (c cmd) String() string {
	return fmt.Sprintf("cmd<%d,%d>", c.set, c.id)
}
