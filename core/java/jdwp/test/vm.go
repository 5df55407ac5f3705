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

// Package test provides a scripted JDWP target so that debugger code can be
// tested without a Java VM.
package test

import (
	"context"
	"io"
	"net"
	"reflect"
	"sync"

	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

// NoReply can be returned by a Handler to drop the command without replying.
const NoReply = jdwp.Error(0xffff)

// Command is a command packet received by the fake VM.
type Command struct {
	ID   uint32
	Set  uint8
	Cmd  uint8
	Data []byte
}

// Handler answers a command with the reply data and error code.
type Handler func(c Command) ([]byte, jdwp.Error)

// Modifier is a single event request modifier as received on the wire.
type Modifier struct {
	Kind uint8
	Data []byte
}

// EventRequest is an event request set on the fake VM.
type EventRequest struct {
	ID        jdwp.EventRequestID
	Kind      jdwp.EventKind
	Policy    jdwp.SuspendPolicy
	Modifiers []Modifier
}

// ModifierKinds returns the kinds of the request's modifiers in wire order.
func (r EventRequest) ModifierKinds() []uint8 {
	out := make([]uint8, len(r.Modifiers))
	for i, m := range r.Modifiers {
		out[i] = m.Kind
	}
	return out
}

// Class is a class known to the fake VM.
type Class struct {
	Tag       jdwp.TypeTag
	ID        jdwp.ReferenceTypeID
	Signature string
	Status    jdwp.ClassStatus
	Methods   jdwp.Methods
	Fields    jdwp.Fields
}

// VM is a fake JDWP target serving one connection.
type VM struct {
	conn  net.Conn
	write sync.Mutex
	done  task.Signal

	mutex        sync.Mutex
	handlers     map[[2]uint8]Handler
	commands     []Command
	requests     []EventRequest
	nextRequest  jdwp.EventRequestID
	nextPacket   uint32
	classes      []Class
	lineTables   map[jdwp.MethodID]jdwp.LineTable
	threads      []jdwp.ThreadID
	collected    map[jdwp.ObjectID]bool
	version      jdwp.Version
	capabilities jdwp.Capabilities
}

// Start returns the debugger end of a new in-memory connection and the fake
// VM serving the other end. The VM stops when ctx is stopped or the
// connection is closed.
func Start(ctx context.Context) (io.ReadWriteCloser, *VM) {
	client, server := net.Pipe()
	done, fire := task.NewSignal()
	vm := &VM{
		conn:       server,
		done:       done,
		handlers:   map[[2]uint8]Handler{},
		lineTables: map[jdwp.MethodID]jdwp.LineTable{},
		collected:  map[jdwp.ObjectID]bool{},
		version: jdwp.Version{
			Description: "Fake VM",
			JDWPMajor:   1,
			JDWPMinor:   8,
			Version:     "1.8.0",
			Name:        "FakeVM",
		},
	}
	vm.capabilities = allCapabilities()
	vm.installDefaults()
	go func() {
		defer fire(ctx)
		defer server.Close()
		vm.serve(ctx)
	}()
	go func() {
		select {
		case <-task.ShouldStop(ctx):
			server.Close()
		case <-done:
		}
	}()
	return client, vm
}

func allCapabilities() jdwp.Capabilities {
	caps := jdwp.Capabilities{}
	v := reflect.ValueOf(&caps).Elem()
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.Bool {
			f.SetBool(true)
		}
	}
	return caps
}

// Done returns a signal that fires when the VM stops serving.
func (vm *VM) Done() task.Signal { return vm.done }

// Close severs the connection.
func (vm *VM) Close() error { return vm.conn.Close() }

// Handle replaces the handler for the given command.
func (vm *VM) Handle(set, cmd uint8, h Handler) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	vm.handlers[[2]uint8{set, cmd}] = h
}

// SetVersion replaces the version reported by the VM.
func (vm *VM) SetVersion(major, minor int) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	vm.version.JDWPMajor, vm.version.JDWPMinor = major, minor
}

// SetCapabilities lets f edit the capabilities reported by the VM.
// All capabilities are initially enabled.
func (vm *VM) SetCapabilities(f func(*jdwp.Capabilities)) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	f(&vm.capabilities)
}

// AddClass adds a loaded class.
func (vm *VM) AddClass(c Class) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	vm.classes = append(vm.classes, c)
}

// SetLineTable sets the line table returned for the method.
func (vm *VM) SetLineTable(method jdwp.MethodID, table jdwp.LineTable) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	vm.lineTables[method] = table
}

// AddThread adds a live thread.
func (vm *VM) AddThread(id jdwp.ThreadID) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	vm.threads = append(vm.threads, id)
}

// Collect marks the object as garbage collected.
func (vm *VM) Collect(id jdwp.ObjectID) {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	vm.collected[id] = true
}

// Commands returns the received commands matching set and cmd, in arrival
// order.
func (vm *VM) Commands(set, cmd uint8) []Command {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	out := []Command{}
	for _, c := range vm.commands {
		if c.Set == set && c.Cmd == cmd {
			out = append(out, c)
		}
	}
	return out
}

// Requests returns the event requests currently set, in creation order.
func (vm *VM) Requests() []EventRequest {
	vm.mutex.Lock()
	defer vm.mutex.Unlock()
	return append([]EventRequest{}, vm.requests...)
}

// RequestsOf returns the event requests of the given kind currently set.
func (vm *VM) RequestsOf(kind jdwp.EventKind) []EventRequest {
	out := []EventRequest{}
	for _, r := range vm.Requests() {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// SendEvents sends a composite event packet.
func (vm *VM) SendEvents(policy jdwp.SuspendPolicy, events ...[]byte) error {
	return vm.SendCommand(64, 100, Composite(policy, events...))
}

// SendCommand sends an arbitrary command packet to the debugger.
func (vm *VM) SendCommand(set, cmd uint8, data []byte) error {
	vm.mutex.Lock()
	vm.nextPacket++
	id := vm.nextPacket
	vm.mutex.Unlock()
	e := NewEncoder().Int(int32(11 + len(data))).Int(int32(id)).Byte(0).Byte(set).Byte(cmd).Raw(data)
	return vm.send(e.Bytes())
}

func (vm *VM) send(data []byte) error {
	vm.write.Lock()
	defer vm.write.Unlock()
	_, err := vm.conn.Write(data)
	return err
}

func (vm *VM) reply(id uint32, code jdwp.Error, data []byte) error {
	e := NewEncoder().Int(int32(11 + len(data))).Int(int32(id)).Byte(0x80).
		Byte(uint8(code >> 8)).Byte(uint8(code)).Raw(data)
	return vm.send(e.Bytes())
}

func (vm *VM) serve(ctx context.Context) {
	handshake := []byte("JDWP-Handshake")
	got := make([]byte, len(handshake))
	if _, err := io.ReadFull(vm.conn, got); err != nil {
		return
	}
	if _, err := vm.conn.Write(handshake); err != nil {
		return
	}
	for !task.Stopped(ctx) {
		head := make([]byte, 11)
		if _, err := io.ReadFull(vm.conn, head); err != nil {
			return
		}
		d := NewDecoder(head)
		length, id := d.Int(), d.Int()
		d.Byte()
		c := Command{ID: uint32(id), Set: d.Byte(), Cmd: d.Byte(), Data: make([]byte, length-11)}
		if _, err := io.ReadFull(vm.conn, c.Data); err != nil {
			return
		}

		vm.mutex.Lock()
		vm.commands = append(vm.commands, c)
		h, ok := vm.handlers[[2]uint8{c.Set, c.Cmd}]
		vm.mutex.Unlock()

		data, code := []byte{}, jdwp.ErrNotImplemented
		if ok {
			data, code = h(c)
		}
		if code == NoReply {
			continue
		}
		if err := vm.reply(c.ID, code, data); err != nil {
			log.D(ctx, "Fake VM failed to reply: %v", err)
			return
		}
	}
}
