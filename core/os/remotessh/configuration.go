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

// Package remotessh opens SSH connections to remote hosts and tunnels TCP
// ports through them, so a debugger can reach a JDWP agent that only listens
// on the remote machine's loopback interface.
package remotessh

import (
	"io"
	"os/user"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Configuration represents a configuration for connecting
// to an SSH remote client.
// The SSH agent is first used to attempt connection,
// followed by the given Keyfile
type Configuration struct {
	// The name to use for this connection
	Name string `yaml:"name"`
	// The hostname to connect to
	Host string `yaml:"host"`
	// User is the username to use for login
	User string `yaml:"user"`
	// Which port should be used
	Port uint16 `yaml:"port"`
	// The pem encoded private key file to use for the connection.
	// If not specified uses ~/.ssh/id_rsa
	Keyfile string `yaml:"keyfile"`
	// The known_hosts file to use for authentication. Defaults to
	// ~/.ssh/known_hosts
	KnownHosts string `yaml:"known_hosts"`
	// DisableAgent stops the SSH agent from being consulted.
	DisableAgent bool `yaml:"disable_agent"`
}

// Defaults returns a configuration filled with the current user's name and
// the default key and known hosts files.
func Defaults() (Configuration, error) {
	u, err := user.Current()
	if err != nil {
		return Configuration{}, err
	}
	return Configuration{
		User:       u.Username,
		Port:       22,
		Keyfile:    filepath.Join(u.HomeDir, ".ssh", "id_rsa"),
		KnownHosts: filepath.Join(u.HomeDir, ".ssh", "known_hosts"),
	}, nil
}

// UnmarshalYAML decodes the configuration on top of Defaults.
func (c *Configuration) UnmarshalYAML(value *yaml.Node) error {
	type configAlias Configuration
	d, err := Defaults()
	if err != nil {
		return err
	}
	newC := configAlias(d)
	if err := value.Decode(&newC); err != nil {
		return err
	}
	*c = Configuration(newC)
	return nil
}

// ReadConfigurations reads a YAML list of configurations from r.
func ReadConfigurations(r io.Reader) ([]Configuration, error) {
	cfg := []Configuration{}
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}
