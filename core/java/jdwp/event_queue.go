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

import "sync"

// eventPackets is an unbounded FIFO of raw composite event packets.
// push never blocks, so the reader goroutine cannot stall on a consumer.
type eventPackets struct {
	mutex sync.Mutex
	queue [][]byte
	ready chan struct{}
}

func newEventPackets() *eventPackets {
	return &eventPackets{ready: make(chan struct{}, 1)}
}

func (q *eventPackets) push(data []byte) {
	q.mutex.Lock()
	q.queue = append(q.queue, data)
	q.mutex.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *eventPackets) pop() ([]byte, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if len(q.queue) == 0 {
		return nil, false
	}
	data := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return data, true
}

func (q *eventPackets) len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.queue)
}
