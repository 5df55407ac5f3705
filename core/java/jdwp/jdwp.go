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

// Package jdwp implements types to communicate using the the Java Debug Wire Protocol.
package jdwp

import (
	"bufio"
	"bytes"
	"context"
	eb "encoding/binary"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/app/crash"
	"github.com/eclipse-jdt/jdtdebug/core/data/binary"
	"github.com/eclipse-jdt/jdtdebug/core/data/endian"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"go.uber.org/atomic"
)

var (
	handshake = []byte("JDWP-Handshake")

	byteOrder = eb.BigEndian

	defaultIDSizes = IDSizes{
		FieldIDSize:         8,
		MethodIDSize:        8,
		ObjectIDSize:        8,
		ReferenceTypeIDSize: 8,
		FrameIDSize:         8,
	}
)

// Connection represents a JDWP connection.
type Connection struct {
	ctx          context.Context
	conn         io.ReadWriteCloser
	r            binary.Reader
	w            binary.Writer
	flush        func() error
	idSizes      IDSizes
	timeout      atomic.Duration
	nextPacketID atomic.Uint32
	replies      map[packetID]chan<- replyPacket
	events       *eventPackets
	closed       task.Signal
	fireClosed   task.Task
	closing      bool
	closeErr     error
	sync.Mutex
}

// Open creates a Connection using conn for I/O.
// The handshake is exchanged and the ID sizes are queried before returning.
func Open(ctx context.Context, conn io.ReadWriteCloser) (*Connection, error) {
	if err := exchangeHandshakes(conn); err != nil {
		return nil, err
	}

	buf := bufio.NewWriterSize(conn, 1024)
	c := &Connection{
		ctx:     ctx,
		conn:    conn,
		r:       endian.Reader(bufio.NewReader(conn), byteOrder),
		w:       endian.Writer(buf, byteOrder),
		flush:   buf.Flush,
		idSizes: defaultIDSizes,
		replies: map[packetID]chan<- replyPacket{},
		events:  newEventPackets(),
	}
	c.closed, c.fireClosed = task.NewSignal()

	crash.Go(func() { c.recv(ctx) })
	idSizes, err := c.GetIDSizes()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.idSizes = idSizes
	return c, nil
}

func exchangeHandshakes(conn io.ReadWriter) error {
	if _, err := conn.Write(handshake); err != nil {
		return err
	}
	ok, err := expect(conn, handshake)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBadHandshake
	}
	return nil
}

// expect reads conn, expecting the specfified sequence of bytes.
func expect(conn io.Reader, expected []byte) (bool, error) {
	got := make([]byte, len(expected))
	if _, err := io.ReadFull(conn, got); err != nil {
		return false, err
	}
	return bytes.Equal(got, expected), nil
}

// IDSizes returns the identifier sizes negotiated when the connection was
// opened.
func (c *Connection) IDSizes() IDSizes { return c.idSizes }

// SetTimeout sets the maximum time to wait for any reply.
// A zero or negative duration waits indefinitely.
func (c *Connection) SetTimeout(d time.Duration) { c.timeout.Store(d) }

// Closed returns a signal that fires once the transport has been lost or
// closed.
func (c *Connection) Closed() task.Signal { return c.closed }

// Err returns the error that terminated the connection, or nil if the
// connection is open or was closed with Close.
func (c *Connection) Err() error {
	c.Lock()
	defer c.Unlock()
	return c.closeErr
}

// Close closes the transport. Pending and future commands fail with
// ErrDisconnected.
func (c *Connection) Close() error {
	c.shutdown(nil)
	return nil
}

// shutdown fails every pending reply, closes the transport and fires the
// closed signal. Only the first call has any effect.
func (c *Connection) shutdown(err error) {
	c.Lock()
	if c.closing {
		c.Unlock()
		return
	}
	c.closing = true
	c.closeErr = err
	replies := c.replies
	c.replies = map[packetID]chan<- replyPacket{}
	c.Unlock()

	for id, reply := range replies {
		reply <- replyPacket{id: id, fail: ErrDisconnected}
	}
	c.conn.Close()
	c.fireClosed(c.ctx)
}

// Send sends a command with a pre-encoded payload and returns the raw reply
// data. A reply with a non-zero error code is returned as an Error.
func (c *Connection) Send(set, id uint8, payload []byte) ([]byte, error) {
	p, err := c.send(cmd{cmdSet(set), cmdID(id)}, payload)
	if err != nil {
		return nil, err
	}
	reply, err := p.reply()
	if err != nil {
		return nil, err
	}
	return reply.data, nil
}

// get sends the specified command and waits for a reply.
func (c *Connection) get(cmd cmd, req interface{}, out interface{}) error {
	p, err := c.req(cmd, req)
	if err != nil {
		return err
	}
	return p.wait(out)
}

// req encodes and sends the specified command and returns a pending.
func (c *Connection) req(cmd cmd, req interface{}) (*pending, error) {
	data := bytes.Buffer{}
	if req != nil {
		e := endian.Writer(&data, byteOrder)
		if err := c.encode(e, reflect.ValueOf(req)); err != nil {
			return nil, err
		}
	}
	return c.send(cmd, data.Bytes())
}

func (c *Connection) send(cmd cmd, data []byte) (*pending, error) {
	id, replyChan, err := c.newReplyHandler()
	if err != nil {
		return nil, err
	}

	p := cmdPacket{id: id, cmdSet: cmd.set, cmdID: cmd.id, data: data}

	c.Lock()
	err = p.write(c.w)
	if err == nil {
		err = c.flush()
	}
	c.Unlock()

	if err != nil {
		log.W(c.ctx, "Failed to send %v: %v", p, err)
		c.shutdown(err)
		return nil, ErrDisconnected
	}

	if debug {
		log.D(c.ctx, "send: %v", p)
	}

	return &pending{c, replyChan, id}, nil
}

type pending struct {
	c  *Connection
	p  <-chan replyPacket
	id packetID
}

// reply blocks until the pending response is received, the connection is
// lost or the timeout expires.
func (p *pending) reply() (replyPacket, error) {
	var expired <-chan time.Time
	if d := p.c.timeout.Load(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case reply := <-p.p:
		switch {
		case reply.fail != nil:
			return reply, reply.fail
		case reply.err != ErrNone:
			return reply, reply.err
		}
		return reply, nil
	case <-expired:
		p.c.dropReplyHandler(p.id)
		return replyPacket{}, ErrTimeout
	}
}

// wait blocks until the pending response is received, filling out with the
// response data.
func (p *pending) wait(out interface{}) error {
	reply, err := p.reply()
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	r := bytes.NewReader(reply.data)
	d := endian.Reader(r, byteOrder)
	if err := p.c.decode(d, reflect.ValueOf(out)); err != nil {
		return protocolError("reply", err)
	}
	if r.Len() != 0 {
		return ProtocolError{Label: "trailing reply bytes", Value: uint64(r.Len())}
	}
	return nil
}

func (c *Connection) newReplyHandler() (packetID, <-chan replyPacket, error) {
	reply := make(chan replyPacket, 1)
	c.Lock()
	defer c.Unlock()
	if c.closing {
		return 0, nil, ErrDisconnected
	}
	id := packetID(c.nextPacketID.Inc())
	c.replies[id] = reply
	return id, reply, nil
}

func (c *Connection) dropReplyHandler(id packetID) {
	c.Lock()
	delete(c.replies, id)
	c.Unlock()
}

// NextEvent returns the next raw composite event packet in arrival order.
// It blocks until a packet is available, the timeout expires (ErrTimeout),
// ctx is stopped, or the connection is closed and every queued packet has
// been consumed (ErrDisconnected). A zero or negative timeout waits
// indefinitely.
func (c *Connection) NextEvent(ctx context.Context, timeout time.Duration) ([]byte, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		if data, ok := c.events.pop(); ok {
			return data, nil
		}
		select {
		case <-c.events.ready:
		case <-c.closed:
			if data, ok := c.events.pop(); ok {
				return data, nil
			}
			return nil, ErrDisconnected
		case <-expired:
			return nil, ErrTimeout
		case <-task.ShouldStop(ctx):
			return nil, task.StopReason(ctx)
		}
	}
}

// PollEvent returns the oldest queued composite event packet without
// blocking.
func (c *Connection) PollEvent() ([]byte, bool) { return c.events.pop() }

// DecodeEvents decodes a composite event packet returned by NextEvent.
func (c *Connection) DecodeEvents(data []byte) (CompositeEvent, error) {
	r := bytes.NewReader(data)
	d := endian.Reader(r, byteOrder)
	out := CompositeEvent{}
	if err := c.decode(d, reflect.ValueOf(&out)); err != nil {
		return CompositeEvent{}, protocolError("composite event", err)
	}
	if r.Len() != 0 {
		return CompositeEvent{}, ProtocolError{Label: "trailing event bytes", Value: uint64(r.Len())}
	}
	return out, nil
}
