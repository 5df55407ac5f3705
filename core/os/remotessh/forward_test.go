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

package remotessh_test

import (
	"bufio"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/eclipse-jdt/jdtdebug/core/os/remotessh"
)

func echoServer(t *testing.T) net.Listener {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				r := bufio.NewReader(c)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					fmt.Fprint(c, line)
				}
			}()
		}
	}()
	return l
}

func TestForward(t *testing.T) {
	ctx := log.Testing(t)
	ctx, cancel := task.WithCancel(ctx)
	defer cancel()

	server := echoServer(t)
	defer server.Close()

	port, err := remotessh.Forward(ctx, func() (net.Conn, error) {
		return net.Dial("tcp", server.Addr().String())
	})
	assert.For(ctx, "forward").ThatError(err).Succeeded()

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	assert.For(ctx, "dial").ThatError(err).Succeeded()
	defer conn.Close()

	fmt.Fprint(conn, "JDWP-Handshake\n")
	line, err := bufio.NewReader(conn).ReadString('\n')
	assert.For(ctx, "read").ThatError(err).Succeeded()
	assert.For(ctx, "echo").That(line).Equals("JDWP-Handshake\n")
}

func TestForwardClosesOnStop(t *testing.T) {
	ctx := log.Testing(t)
	ctx, cancel := task.WithCancel(ctx)

	port, err := remotessh.Forward(ctx, func() (net.Conn, error) {
		return nil, fmt.Errorf("unreachable")
	})
	assert.For(ctx, "forward").ThatError(err).Succeeded()
	cancel()

	for i := 0; i < 100; i++ {
		c, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return
		}
		c.Close()
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("listener still open after stop")
}
