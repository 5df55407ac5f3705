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

import (
	"fmt"

	"github.com/eclipse-jdt/jdtdebug/core/fault"
)

const (
	// ErrDisconnected is returned when the transport has been lost or closed.
	ErrDisconnected = fault.Const("JDWP connection closed")
	// ErrTimeout is returned when a reply or event did not arrive in time.
	ErrTimeout = fault.Const("Timeout waiting for JDWP packet")
	// ErrBadHandshake is returned when the target did not echo the handshake.
	ErrBadHandshake = fault.Const("Bad JDWP handshake")
)

// Error is a JDWP reply error code.
type Error uint16

// Reply error codes.
const (
	ErrNone                                 = Error(0)
	ErrInvalidThread                        = Error(10)
	ErrInvalidThreadGroup                   = Error(11)
	ErrInvalidPriority                      = Error(12)
	ErrThreadNotSuspended                   = Error(13)
	ErrThreadSuspended                      = Error(14)
	ErrThreadNotAlive                       = Error(15)
	ErrInvalidObject                        = Error(20)
	ErrInvalidClass                         = Error(21)
	ErrClassNotPrepared                     = Error(22)
	ErrInvalidMethodID                      = Error(23)
	ErrInvalidLocation                      = Error(24)
	ErrInvalidFieldID                       = Error(25)
	ErrInvalidFrameID                       = Error(30)
	ErrNoMoreFrames                         = Error(31)
	ErrOpaqueFrame                          = Error(32)
	ErrNotCurrentFrame                      = Error(33)
	ErrTypeMismatch                         = Error(34)
	ErrInvalidSlot                          = Error(35)
	ErrDuplicate                            = Error(40)
	ErrNotFound                             = Error(41)
	ErrInvalidMonitor                       = Error(50)
	ErrNotMonitorOwner                      = Error(51)
	ErrInterrupt                            = Error(52)
	ErrInvalidClassFormat                   = Error(60)
	ErrCircularClassDefinition              = Error(61)
	ErrFailsVerification                    = Error(62)
	ErrAddMethodNotImplemented              = Error(63)
	ErrSchemaChangeNotImplemented           = Error(64)
	ErrInvalidTypestate                     = Error(65)
	ErrHierarchyChangeNotImplemented        = Error(66)
	ErrDeleteMethodNotImplemented           = Error(67)
	ErrUnsupportedVersion                   = Error(68)
	ErrNamesDontMatch                       = Error(69)
	ErrClassModifiersChangeNotImplemented   = Error(70)
	ErrMethodModifiersChangeNotImplemented  = Error(71)
	ErrNotImplemented                       = Error(99)
	ErrNullPointer                          = Error(100)
	ErrAbsentInformation                    = Error(101)
	ErrInvalidEventType                     = Error(102)
	ErrIllegalArgument                      = Error(103)
	ErrOutOfMemory                          = Error(110)
	ErrAccessDenied                         = Error(111)
	ErrVMDead                               = Error(112)
	ErrInternal                             = Error(113)
	ErrUnattachedThread                     = Error(115)
	ErrInvalidTag                           = Error(500)
	ErrAlreadyInvoking                      = Error(502)
	ErrInvalidIndex                         = Error(503)
	ErrInvalidLength                        = Error(504)
	ErrInvalidString                        = Error(506)
	ErrInvalidClassLoader                   = Error(507)
	ErrInvalidArray                         = Error(508)
	ErrTransportLoad                        = Error(509)
	ErrTransportInit                        = Error(510)
	ErrNativeMethod                         = Error(511)
	ErrInvalidCount                         = Error(512)
)

var errorNames = map[Error]string{
	ErrNone:                                "NONE",
	ErrInvalidThread:                       "INVALID_THREAD",
	ErrInvalidThreadGroup:                  "INVALID_THREAD_GROUP",
	ErrInvalidPriority:                     "INVALID_PRIORITY",
	ErrThreadNotSuspended:                  "THREAD_NOT_SUSPENDED",
	ErrThreadSuspended:                     "THREAD_SUSPENDED",
	ErrThreadNotAlive:                      "THREAD_NOT_ALIVE",
	ErrInvalidObject:                       "INVALID_OBJECT",
	ErrInvalidClass:                        "INVALID_CLASS",
	ErrClassNotPrepared:                    "CLASS_NOT_PREPARED",
	ErrInvalidMethodID:                     "INVALID_METHODID",
	ErrInvalidLocation:                     "INVALID_LOCATION",
	ErrInvalidFieldID:                      "INVALID_FIELDID",
	ErrInvalidFrameID:                      "INVALID_FRAMEID",
	ErrNoMoreFrames:                        "NO_MORE_FRAMES",
	ErrOpaqueFrame:                         "OPAQUE_FRAME",
	ErrNotCurrentFrame:                     "NOT_CURRENT_FRAME",
	ErrTypeMismatch:                        "TYPE_MISMATCH",
	ErrInvalidSlot:                         "INVALID_SLOT",
	ErrDuplicate:                           "DUPLICATE",
	ErrNotFound:                            "NOT_FOUND",
	ErrInvalidMonitor:                      "INVALID_MONITOR",
	ErrNotMonitorOwner:                     "NOT_MONITOR_OWNER",
	ErrInterrupt:                           "INTERRUPT",
	ErrInvalidClassFormat:                  "INVALID_CLASS_FORMAT",
	ErrCircularClassDefinition:             "CIRCULAR_CLASS_DEFINITION",
	ErrFailsVerification:                   "FAILS_VERIFICATION",
	ErrAddMethodNotImplemented:             "ADD_METHOD_NOT_IMPLEMENTED",
	ErrSchemaChangeNotImplemented:          "SCHEMA_CHANGE_NOT_IMPLEMENTED",
	ErrInvalidTypestate:                    "INVALID_TYPESTATE",
	ErrHierarchyChangeNotImplemented:       "HIERARCHY_CHANGE_NOT_IMPLEMENTED",
	ErrDeleteMethodNotImplemented:          "DELETE_METHOD_NOT_IMPLEMENTED",
	ErrUnsupportedVersion:                  "UNSUPPORTED_VERSION",
	ErrNamesDontMatch:                      "NAMES_DONT_MATCH",
	ErrClassModifiersChangeNotImplemented:  "CLASS_MODIFIERS_CHANGE_NOT_IMPLEMENTED",
	ErrMethodModifiersChangeNotImplemented: "METHOD_MODIFIERS_CHANGE_NOT_IMPLEMENTED",
	ErrNotImplemented:                      "NOT_IMPLEMENTED",
	ErrNullPointer:                         "NULL_POINTER",
	ErrAbsentInformation:                   "ABSENT_INFORMATION",
	ErrInvalidEventType:                    "INVALID_EVENT_TYPE",
	ErrIllegalArgument:                     "ILLEGAL_ARGUMENT",
	ErrOutOfMemory:                         "OUT_OF_MEMORY",
	ErrAccessDenied:                        "ACCESS_DENIED",
	ErrVMDead:                              "VM_DEAD",
	ErrInternal:                            "INTERNAL",
	ErrUnattachedThread:                    "UNATTACHED_THREAD",
	ErrInvalidTag:                          "INVALID_TAG",
	ErrAlreadyInvoking:                     "ALREADY_INVOKING",
	ErrInvalidIndex:                        "INVALID_INDEX",
	ErrInvalidLength:                       "INVALID_LENGTH",
	ErrInvalidString:                       "INVALID_STRING",
	ErrInvalidClassLoader:                  "INVALID_CLASS_LOADER",
	ErrInvalidArray:                        "INVALID_ARRAY",
	ErrTransportLoad:                       "TRANSPORT_LOAD",
	ErrTransportInit:                       "TRANSPORT_INIT",
	ErrNativeMethod:                        "NATIVE_METHOD",
	ErrInvalidCount:                        "INVALID_COUNT",
}

func (e Error) Error() string {
	if name, ok := errorNames[e]; ok {
		return fmt.Sprintf("JDWP error %s (%d)", name, uint16(e))
	}
	return fmt.Sprintf("JDWP error <%d>", uint16(e))
}

// ProtocolError is returned when the peer sent data that could not be
// decoded: an unknown tag, kind or policy, a truncated packet or trailing
// bytes.
type ProtocolError struct {
	// Label describes what was being decoded.
	Label string
	// Value is the offending value, if there is one.
	Value uint64
	// Cause is the underlying read error, if there is one.
	Cause error
}

func (e ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("JDWP protocol error decoding %s: %v", e.Label, e.Cause)
	}
	return fmt.Sprintf("JDWP protocol error: unexpected %s %d", e.Label, e.Value)
}

// Unwrap returns the underlying read error.
func (e ProtocolError) Unwrap() error { return e.Cause }

// protocolError wraps err as a ProtocolError unless it already is one.
func protocolError(label string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(ProtocolError); ok {
		return err
	}
	return ProtocolError{Label: label, Cause: err}
}
