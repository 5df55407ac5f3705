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

package jdi

import "time"

const defaultMemberCacheSize = 256

type config struct {
	timeout         time.Duration
	onError         func(error)
	classTracking   bool
	memberCacheSize int
}

// Option configures a VirtualMachine created by Attach or New.
type Option func(*config)

// WithTimeout sets the maximum time to wait for any reply from the target.
// Zero, the default, waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithErrorHandler sets the function called with composite event packets
// that could not be decoded. The default logs the error.
func WithErrorHandler(f func(error)) Option {
	return func(c *config) { c.onError = f }
}

// WithClassTracking enables or disables the internal ClassPrepare and
// ClassUnload requests that keep KnownTypes current. It is on by default.
func WithClassTracking(enabled bool) Option {
	return func(c *config) { c.classTracking = enabled }
}

// WithMemberCacheSize sets how many reference types keep their method, field
// and line tables cached.
func WithMemberCacheSize(n int) Option {
	return func(c *config) { c.memberCacheSize = n }
}
