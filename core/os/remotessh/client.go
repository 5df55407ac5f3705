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
	"io/ioutil"
	"net"
	"os"

	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Client is an open SSH connection to a remote host.
type Client struct {
	cfg        Configuration
	connection *ssh.Client
}

func getSSHAgent() ssh.AuthMethod {
	if sshAgent, err := net.Dial("unix", os.Getenv("SSH_AUTH_SOCK")); err == nil {
		return ssh.PublicKeysCallback(agent.NewClient(sshAgent).Signers)
	}
	return nil
}

func getPrivateKeyAuth(path string) (ssh.AuthMethod, error) {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(bytes)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

func authMethods(ctx context.Context, c Configuration) ([]ssh.AuthMethod, error) {
	auths := []ssh.AuthMethod{}
	if !c.DisableAgent {
		if agent := getSSHAgent(); agent != nil {
			auths = append(auths, agent)
		}
	}
	if c.Keyfile != "" {
		auth, err := getPrivateKeyAuth(c.Keyfile)
		switch {
		case err == nil:
			auths = append(auths, auth)
		case len(auths) == 0:
			return nil, errors.Wrapf(err, "Reading key file %v", c.Keyfile)
		default:
			log.W(ctx, "Ignoring key file %v: %v", c.Keyfile, err)
		}
	}
	if len(auths) == 0 {
		return nil, fmt.Errorf("No authentication method for %v", c.Host)
	}
	return auths, nil
}

// Dial connects to the host described by c, verifying it against the known
// hosts file.
func Dial(ctx context.Context, c Configuration) (*Client, error) {
	auths, err := authMethods(ctx, c)
	if err != nil {
		return nil, err
	}
	hosts, err := knownhosts.New(c.KnownHosts)
	if err != nil {
		return nil, errors.Wrapf(err, "Reading known hosts %v", c.KnownHosts)
	}
	sshConfig := &ssh.ClientConfig{
		User:            c.User,
		Auth:            auths,
		HostKeyCallback: hosts,
	}
	addr := net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
	connection, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "Connecting to %v", addr)
	}
	log.I(ctx, "Connected to %v@%v", c.User, addr)
	return &Client{cfg: c, connection: connection}, nil
}

// Configuration returns the configuration the client was dialed with.
func (c *Client) Configuration() Configuration { return c.cfg }

// DialPort opens a connection to a TCP port on the remote machine's loopback
// interface.
func (c *Client) DialPort(port int) (net.Conn, error) {
	return c.connection.Dial("tcp", fmt.Sprintf("localhost:%d", port))
}

// Close closes the SSH connection and every tunnel running through it.
func (c *Client) Close() error {
	return c.connection.Close()
}
