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
	"context"
	"io"

	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

// recv reads all the incoming reply or command packets, forwarding replies to
// their pending requests and queuing composite event packets.
// recv is blocking and should be run on a new go routine.
// recv returns when ctx is stopped or there's an IO error, shutting down the
// connection.
func (c *Connection) recv(ctx context.Context) {
	var err error
	defer func() { c.shutdown(err) }()

	for !task.Stopped(ctx) {
		var packet interface{}
		packet, err = c.readPacket()
		switch err {
		case nil:
		case io.EOF:
			err = nil
			return
		default:
			if !task.Stopped(ctx) && !c.isClosing() {
				log.W(ctx, "Failed to read packet. Error: %v", err)
			} else {
				err = nil
			}
			return
		}

		switch packet := packet.(type) {
		case replyPacket:
			c.Lock()
			out, ok := c.replies[packet.id]
			delete(c.replies, packet.id)
			c.Unlock()
			if !ok {
				log.W(ctx, "Unexpected reply for packet %d", packet.id)
				continue
			}
			out <- packet

		case cmdPacket:
			if (cmd{packet.cmdSet, packet.cmdID}) == cmdEventComposite {
				c.events.push(packet.data)
				continue
			}
			log.W(ctx, "Ignoring unexpected command packet %v", packet)
		}
	}
}

func (c *Connection) isClosing() bool {
	c.Lock()
	defer c.Unlock()
	return c.closing
}
