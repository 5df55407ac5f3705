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

package remotessh

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/eclipse-jdt/jdtdebug/core/app/crash"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/log"
)

// Dialer opens a connection to the remote end of a tunnel.
type Dialer func() (net.Conn, error)

// pipe copies data between local and remote until either side closes.
func pipe(ctx context.Context, local, remote net.Conn) {
	wg := sync.WaitGroup{}

	copy := func(writer net.Conn, reader net.Conn) {
		defer wg.Done()
		// Use the same buffer size used in io.Copy
		buf := make([]byte, 32*1024)
		var err error
		for {
			nr, er := reader.Read(buf)
			if nr > 0 {
				nw, ew := writer.Write(buf[0:nr])
				if ew != nil {
					err = ew
					break
				}
				if nr != nw {
					err = fmt.Errorf("short write")
					break
				}
			}
			if er != nil {
				if er != io.EOF {
					err = er
				}
				break
			}
		}
		writer.Close()
		if err != nil && task.StopReason(ctx) == nil {
			log.D(ctx, "Tunnel copy: %v", err)
		}
	}

	wg.Add(2)
	crash.Go(func() { copy(local, remote) })
	crash.Go(func() { copy(remote, local) })

	crash.Go(func() {
		defer local.Close()
		defer remote.Close()
		wg.Wait()
	})
}

// Forward listens on a free loopback port and tunnels every accepted
// connection to dial. The listener closes when ctx is stopped.
// The local port that was opened is returned.
func Forward(ctx context.Context, dial Dialer) (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	crash.Go(func() {
		<-task.ShouldStop(ctx)
		listener.Close()
	})
	crash.Go(func() {
		defer listener.Close()
		for {
			local, err := listener.Accept()
			if err != nil {
				return
			}
			remote, err := dial()
			if err != nil {
				log.W(ctx, "Tunnel dial failed: %v", err)
				local.Close()
				continue
			}
			pipe(ctx, local, remote)
		}
	})
	return listener.Addr().(*net.TCPAddr).Port, nil
}
