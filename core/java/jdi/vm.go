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

// Package jdi provides a mirror-level view of a Java VM over a JDWP
// connection: threads, objects and types as mirrors, event requests managed
// by an EventRequestManager, and delivered events read from an EventQueue.
package jdi

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// State is the lifecycle state of a VirtualMachine.
type State int32

const (
	// Connected is the state of a usable session.
	Connected State = iota
	// Disconnecting is the state once the transport has gone but the
	// VMDisconnect event has not yet been delivered.
	Disconnecting
	// Disconnected is the state once the VMDisconnect event has been
	// delivered.
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connected:
		return "Connected"
	case Disconnecting:
		return "Disconnecting"
	case Disconnected:
		return "Disconnected"
	default:
		return fmt.Sprintf("State<%d>", int32(s))
	}
}

// VirtualMachine is a debugging session with a single target VM.
type VirtualMachine struct {
	ctx      context.Context
	conn     *jdwp.Connection
	state    atomic.Int32
	cfg      config
	requests *EventRequestManager
	queue    *EventQueue
	types    *typeCache

	mutex        sync.Mutex
	version      *jdwp.Version
	capabilities *jdwp.Capabilities
}

// Attach opens a JDWP connection over conn and returns the session for it.
func Attach(ctx context.Context, conn io.ReadWriteCloser, opts ...Option) (*VirtualMachine, error) {
	c, err := jdwp.Open(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "Opening JDWP connection")
	}
	vm, err := New(ctx, c, opts...)
	if err != nil {
		c.Close()
		return nil, err
	}
	return vm, nil
}

// New returns the session for an open JDWP connection.
func New(ctx context.Context, conn *jdwp.Connection, opts ...Option) (*VirtualMachine, error) {
	cfg := config{
		classTracking:   true,
		memberCacheSize: defaultMemberCacheSize,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.memberCacheSize <= 0 {
		cfg.memberCacheSize = defaultMemberCacheSize
	}
	if cfg.onError == nil {
		cfg.onError = func(err error) { log.E(ctx, "Dropping event set: %v", err) }
	}
	conn.SetTimeout(cfg.timeout)

	vm := &VirtualMachine{
		ctx:  log.PutTag(ctx, "jdi"),
		conn: conn,
		cfg:  cfg,
	}
	vm.types = newTypeCache(cfg.memberCacheSize)
	vm.requests = newEventRequestManager(vm)
	vm.queue = newEventQueue(vm)

	if cfg.classTracking {
		if err := vm.trackClasses(); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

// trackClasses arms the internal requests that keep the type cache current.
func (vm *VirtualMachine) trackClasses() error {
	prepare := newClassPrepareRequest(vm.requests, Internal)
	unload := newClassUnloadRequest(vm.requests, Internal)
	for _, r := range []EventRequest{prepare, unload} {
		r.base().policy = jdwp.SuspendNone
		vm.requests.add(r)
		if err := r.Enable(); err != nil {
			return errors.Wrapf(err, "Enabling internal %v request", r.Kind())
		}
	}
	return nil
}

func (vm *VirtualMachine) String() string { return fmt.Sprintf("VirtualMachine<%v>", vm.State()) }

// VirtualMachine returns vm, so that the session is itself a Mirror.
func (vm *VirtualMachine) VirtualMachine() *VirtualMachine { return vm }

// State returns the lifecycle state of the session.
func (vm *VirtualMachine) State() State { return State(vm.state.Load()) }

// Connection returns the underlying JDWP connection.
func (vm *VirtualMachine) Connection() *jdwp.Connection { return vm.conn }

// EventRequestManager returns the manager for the session's event requests.
func (vm *VirtualMachine) EventRequestManager() *EventRequestManager { return vm.requests }

// EventQueue returns the queue of delivered event sets.
func (vm *VirtualMachine) EventQueue() *EventQueue { return vm.queue }

// beginDisconnect moves the session out of Connected, arming the delivery of
// the VMDisconnect event. Only the first call has any effect.
func (vm *VirtualMachine) beginDisconnect() bool {
	if vm.state.CompareAndSwap(int32(Connected), int32(Disconnecting)) {
		log.I(vm.ctx, "Target VM disconnected")
		return true
	}
	return false
}

// translate maps JDWP errors onto the session's errors.
func (vm *VirtualMachine) translate(err error) error {
	if err == nil {
		return nil
	}
	switch cause := errors.Cause(err); cause {
	case jdwp.ErrDisconnected, jdwp.ErrVMDead:
		vm.beginDisconnect()
		return ErrVMDisconnected
	case jdwp.ErrInvalidObject, jdwp.ErrInvalidThread:
		return errors.Wrap(ErrObjectCollected, cause.Error())
	case jdwp.ErrNotImplemented:
		return errors.Wrap(ErrUnsupported, cause.Error())
	}
	return err
}

// call runs f if the session is connected, translating its error.
func (vm *VirtualMachine) call(f func(*jdwp.Connection) error) error {
	if vm.State() != Connected {
		return ErrVMDisconnected
	}
	return vm.translate(f(vm.conn))
}

// Send sends a raw command and returns the raw reply data.
func (vm *VirtualMachine) Send(set, id uint8, payload []byte) ([]byte, error) {
	var reply []byte
	err := vm.call(func(c *jdwp.Connection) error {
		var err error
		reply, err = c.Send(set, id, payload)
		return err
	})
	return reply, err
}

// Suspend suspends every thread in the target.
func (vm *VirtualMachine) Suspend() error {
	return vm.call(func(c *jdwp.Connection) error { return c.SuspendAll() })
}

// Resume resumes every thread in the target.
func (vm *VirtualMachine) Resume() error {
	return vm.call(func(c *jdwp.Connection) error { return c.ResumeAll() })
}

// Exit terminates the target with the given exit code.
func (vm *VirtualMachine) Exit(code int) error {
	return vm.call(func(c *jdwp.Connection) error { return c.Exit(code) })
}

// Dispose detaches from the target, which cancels its event requests and
// resumes its threads, then closes the transport. The VMDisconnect event is
// still delivered by the EventQueue.
func (vm *VirtualMachine) Dispose() error {
	err := vm.call(func(c *jdwp.Connection) error { return c.Dispose() })
	if errors.Cause(err) == ErrVMDisconnected {
		err = nil
	}
	vm.conn.Close()
	vm.beginDisconnect()
	vm.types.clear()
	return err
}

// Version returns the target's version information.
func (vm *VirtualMachine) Version() (jdwp.Version, error) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	if vm.version != nil {
		return *vm.version, nil
	}
	var v jdwp.Version
	err := vm.call(func(c *jdwp.Connection) error {
		var err error
		v, err = c.GetVersion()
		return err
	})
	if err != nil {
		return jdwp.Version{}, err
	}
	vm.version = &v
	return v, nil
}

// JDWPVersion returns the protocol version spoken by the target.
func (vm *VirtualMachine) JDWPVersion() (*semver.Version, error) {
	v, err := vm.Version()
	if err != nil {
		return nil, err
	}
	return semver.NewVersion(fmt.Sprintf("%d.%d.0", v.JDWPMajor, v.JDWPMinor))
}

// SupportsJDWP returns true if the target's protocol version satisfies the
// constraint, such as ">= 1.6".
func (vm *VirtualMachine) SupportsJDWP(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, errors.Wrapf(ErrInvalidArgument, "version constraint %q: %v", constraint, err)
	}
	v, err := vm.JDWPVersion()
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// Capabilities returns the optional features of the target. The result is
// fetched once and cached.
func (vm *VirtualMachine) Capabilities() (jdwp.Capabilities, error) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	if vm.capabilities != nil {
		return *vm.capabilities, nil
	}
	var caps jdwp.Capabilities
	err := vm.call(func(c *jdwp.Connection) error {
		var err error
		caps, err = c.GetCapabilities()
		return err
	})
	if err != nil {
		return jdwp.Capabilities{}, err
	}
	vm.capabilities = &caps
	return caps, nil
}

// require returns ErrUnsupported naming what if check rejects the
// capabilities, or the JDWP version is below minVersion.
func (vm *VirtualMachine) require(what, minVersion string, check func(jdwp.Capabilities) bool) error {
	if minVersion != "" {
		ok, err := vm.SupportsJDWP(">= " + minVersion)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(ErrUnsupported, "%s requires JDWP %s", what, minVersion)
		}
	}
	if check == nil {
		return nil
	}
	caps, err := vm.Capabilities()
	if err != nil {
		return err
	}
	if !check(caps) {
		return errors.Wrapf(ErrUnsupported, "%s", what)
	}
	return nil
}

// CanGetMethodReturnValues returns true if MethodExit events can carry the
// returned value.
func (vm *VirtualMachine) CanGetMethodReturnValues() bool {
	return vm.require("method return values", "1.6", nil) == nil
}

// AllThreads returns every live thread in the target.
func (vm *VirtualMachine) AllThreads() ([]*ThreadReference, error) {
	var ids []jdwp.ThreadID
	err := vm.call(func(c *jdwp.Connection) error {
		var err error
		ids, err = c.GetAllThreads()
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*ThreadReference, len(ids))
	for i, id := range ids {
		out[i] = vm.Thread(id)
	}
	return out, nil
}

// AllClasses returns every loaded reference type, refreshing the known-type
// cache.
func (vm *VirtualMachine) AllClasses() ([]*ReferenceType, error) {
	var classes []jdwp.ClassInfo
	err := vm.call(func(c *jdwp.Connection) error {
		var err error
		classes, err = c.GetAllClasses()
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*ReferenceType, len(classes))
	for i, c := range classes {
		out[i] = vm.types.add(vm.newReferenceType(c.Kind, c.TypeID, c.Signature, c.Status))
	}
	return out, nil
}

// ClassesBySignature returns the loaded reference types with the JNI
// signature, such as "Ljava/lang/String;". Known types are returned without
// a round trip.
func (vm *VirtualMachine) ClassesBySignature(signature string) ([]*ReferenceType, error) {
	if types := vm.types.bySignature(signature); len(types) > 0 {
		return types, nil
	}
	var classes []jdwp.ClassInfo
	err := vm.call(func(c *jdwp.Connection) error {
		var err error
		classes, err = c.GetClassesBySignature(signature)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*ReferenceType, len(classes))
	for i, c := range classes {
		out[i] = vm.types.add(vm.newReferenceType(c.Kind, c.TypeID, c.Signature, c.Status))
	}
	return out, nil
}

// ClassesByName returns the loaded reference types with the Java type name,
// such as "java.lang.String".
func (vm *VirtualMachine) ClassesByName(name string) ([]*ReferenceType, error) {
	return vm.ClassesBySignature(Signature(name))
}

// KnownTypes returns the reference types the session currently knows about,
// ordered by signature.
func (vm *VirtualMachine) KnownTypes() []*ReferenceType { return vm.types.all() }

// Thread returns the mirror for the thread identifier.
func (vm *VirtualMachine) Thread(id jdwp.ThreadID) *ThreadReference {
	return &ThreadReference{ObjectReference{mirror{vm}, jdwp.ObjectID(id), jdwp.TagThread}}
}

// Object returns the mirror for the tagged object identifier, or nil for the
// null object.
func (vm *VirtualMachine) Object(o jdwp.TaggedObjectID) *ObjectReference {
	if o.Object == 0 {
		return nil
	}
	return &ObjectReference{mirror{vm}, o.Object, o.Type}
}
