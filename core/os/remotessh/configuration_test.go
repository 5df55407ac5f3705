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
	"bytes"
	"testing"

	"github.com/eclipse-jdt/jdtdebug/core/assert"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/eclipse-jdt/jdtdebug/core/os/remotessh"
)

func TestReadConfiguration(t *testing.T) {
	ctx := log.Testing(t)

	input := `
- name: name
  host: localhost
  port: 22
  user: me
  keyfile: ~/.ssh/id_rsa
  known_hosts: ~/.ssh/known_hosts
- name: FirstConnection
  user: me
  host: example.com
  port: 443
  keyfile: ~/.ssh/id_rsa
  known_hosts: ~/.ssh/known_hosts
  disable_agent: true
- name: Connection2
  host: build.example.com
`
	configs, err := remotessh.ReadConfigurations(bytes.NewReader([]byte(input)))
	assert.For(ctx, "err").ThatError(err).Succeeded()

	defaults, err := remotessh.Defaults()
	assert.For(ctx, "defaults").ThatError(err).Succeeded()

	expected := []remotessh.Configuration{
		{
			Name:       "name",
			Host:       "localhost",
			User:       "me",
			Port:       22,
			Keyfile:    "~/.ssh/id_rsa",
			KnownHosts: "~/.ssh/known_hosts",
		},
		{
			Name:         "FirstConnection",
			Host:         "example.com",
			User:         "me",
			Port:         443,
			Keyfile:      "~/.ssh/id_rsa",
			KnownHosts:   "~/.ssh/known_hosts",
			DisableAgent: true,
		},
		{
			Name:       "Connection2",
			Host:       "build.example.com",
			User:       defaults.User,
			Port:       22,
			Keyfile:    defaults.Keyfile,
			KnownHosts: defaults.KnownHosts,
		},
	}
	assert.For(ctx, "configs").ThatSlice(configs).Equals(expected)
}

func TestReadEmptyConfiguration(t *testing.T) {
	ctx := log.Testing(t)
	configs, err := remotessh.ReadConfigurations(bytes.NewReader(nil))
	assert.For(ctx, "err").ThatError(err).Succeeded()
	assert.For(ctx, "configs").ThatSlice(configs).IsEmpty()
}

func TestDialRequiresAuth(t *testing.T) {
	ctx := log.Testing(t)
	_, err := remotessh.Dial(ctx, remotessh.Configuration{
		Host:         "localhost",
		Port:         22,
		Keyfile:      "does/not/exist",
		DisableAgent: true,
	})
	assert.For(ctx, "err").ThatError(err).Failed()
}
