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

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdwp"
	"github.com/eclipse-jdt/jdtdebug/core/os/remotessh"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes the target to attach to and the requests to arm on it.
type Config struct {
	// Target is the host:port the JDWP agent listens on. With SSH set the
	// host is the default SSH host and the port is dialed on its loopback
	// interface.
	Target string `yaml:"target"`
	// SSH, if set, tunnels the connection through an SSH session.
	SSH *remotessh.Configuration `yaml:"ssh"`
	// Require is a constraint on the target's JDWP version, such as ">= 1.6".
	Require string `yaml:"require"`
	// Suspend is the policy of every armed request: all, thread or none.
	Suspend string `yaml:"suspend"`
	// Resume resumes the target once the requests are armed, for targets
	// started with suspend=y.
	Resume bool `yaml:"resume"`

	Breakpoints []Breakpoint `yaml:"breakpoints"`
	Watchpoints []Watchpoint `yaml:"watchpoints"`
	Exceptions  []Exception  `yaml:"exceptions"`
	// Classes are patterns of classes whose preparation is logged.
	Classes []string `yaml:"classes"`
	// Exclude are class patterns excluded from exception and class
	// preparation reports.
	Exclude []string `yaml:"exclude"`
	// Threads logs thread start and death.
	Threads bool `yaml:"threads"`
}

// Breakpoint is a source line in a class.
type Breakpoint struct {
	Class string `yaml:"class"`
	Line  int    `yaml:"line"`
}

func (b Breakpoint) String() string { return fmt.Sprintf("%s:%d", b.Class, b.Line) }

// Watchpoint is a field whose accesses or modifications are reported.
type Watchpoint struct {
	Class        string `yaml:"class"`
	Field        string `yaml:"field"`
	Access       bool   `yaml:"access"`
	Modification bool   `yaml:"modification"`
}

func (w Watchpoint) String() string { return w.Class + "." + w.Field }

// Exception reports thrown exceptions of Class, or of every class if empty.
type Exception struct {
	Class    string `yaml:"class"`
	Caught   bool   `yaml:"caught"`
	Uncaught bool   `yaml:"uncaught"`
}

// parseBreakpoint parses the class:line form used on the command line.
func parseBreakpoint(s string) (Breakpoint, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return Breakpoint{}, fmt.Errorf("Breakpoint %q is not of the form class:line", s)
	}
	line, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return Breakpoint{}, errors.Wrapf(err, "Breakpoint %q", s)
	}
	return Breakpoint{Class: s[:i], Line: line}, nil
}

var policies = map[string]jdwp.SuspendPolicy{
	"":       jdwp.SuspendAll,
	"all":    jdwp.SuspendAll,
	"thread": jdwp.SuspendEventThread,
	"none":   jdwp.SuspendNone,
}

// Policy returns the suspend policy named by Suspend.
func (c *Config) Policy() jdwp.SuspendPolicy { return policies[strings.ToLower(c.Suspend)] }

func (c *Config) validate() error {
	if _, ok := policies[strings.ToLower(c.Suspend)]; !ok {
		return fmt.Errorf("Unknown suspend policy %q", c.Suspend)
	}
	if c.Require != "" {
		if _, err := semver.NewConstraint(c.Require); err != nil {
			return errors.Wrapf(err, "Invalid JDWP version constraint %q", c.Require)
		}
	}
	for _, b := range c.Breakpoints {
		if b.Class == "" || b.Line <= 0 {
			return fmt.Errorf("Invalid breakpoint %v", b)
		}
	}
	for _, w := range c.Watchpoints {
		if w.Class == "" || w.Field == "" {
			return fmt.Errorf("Invalid watchpoint %v", w)
		}
		if !w.Access && !w.Modification {
			return fmt.Errorf("Watchpoint %v watches neither access nor modification", w)
		}
	}
	for _, e := range c.Exceptions {
		if !e.Caught && !e.Uncaught {
			return fmt.Errorf("Exception report for %q is neither caught nor uncaught", e.Class)
		}
	}
	return nil
}

func readConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfig reads the configuration file at path. An empty path gives the
// default configuration.
func loadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, err := readConfig(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Reading %v", path)
	}
	return cfg, nil
}
