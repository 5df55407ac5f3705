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

// The jdwptrace command attaches to a Java VM over JDWP, arms the configured
// breakpoints, watchpoints and exception reports, and logs every event the VM
// raises.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/eclipse-jdt/jdtdebug/core/app"
	"github.com/eclipse-jdt/jdtdebug/core/app/flags"
	"github.com/eclipse-jdt/jdtdebug/core/event/task"
	"github.com/eclipse-jdt/jdtdebug/core/java/jdi"
	"github.com/eclipse-jdt/jdtdebug/core/log"
	"github.com/eclipse-jdt/jdtdebug/core/os/remotessh"
	"golang.org/x/sync/errgroup"
)

var (
	configPath = flag.String("config", "", "YAML file describing the target and the requests to arm")
	addr       = flag.String("addr", "", "host:port of the JDWP agent, overriding the configured target")
	timeout    = flag.Duration("timeout", 10*time.Second, "timeout for each JDWP command")
	watch      = flag.Bool("watch", true, "re-sync the requests when the configuration file changes")
	resume     = flag.Bool("resume", false, "resume the VM once the requests are armed")
	breaks     flags.Strings
)

func init() {
	flag.Var(&breaks, "break", "breakpoint as class:line, may be repeated")
}

func main() {
	app.ShortHelp = "jdwptrace attaches to a Java VM and logs the debugger events it raises."
	app.Run(run)
}

func run(ctx context.Context) error {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}
	if cfg.Target == "" {
		app.Usage()
		return fmt.Errorf("No target: use -addr or set target in the configuration")
	}

	conn, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	vm, err := jdi.Attach(ctx, conn,
		jdi.WithTimeout(*timeout),
		jdi.WithErrorHandler(func(err error) { log.W(ctx, "Dropped event packet: %v", err) }),
	)
	if err != nil {
		conn.Close()
		return log.Err(ctx, err, "Attaching")
	}
	app.AddCleanup(ctx, func() { vm.Dispose() })

	if err := checkVersion(ctx, vm, cfg.Require); err != nil {
		return err
	}

	t := newTracer(vm)
	if err := t.sync(ctx, cfg); err != nil {
		log.E(ctx, "Some requests could not be armed: %v", err)
	}
	if cfg.Resume {
		if err := vm.Resume(); err != nil {
			return err
		}
	}

	ctx, stop := task.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return t.loop(ctx)
	})
	if *watch && *configPath != "" {
		g.Go(func() error {
			return watchConfig(ctx, *configPath, func(next *Config) error {
				if err := applyFlags(next); err != nil {
					return err
				}
				return t.sync(ctx, next)
			})
		})
	}
	return g.Wait()
}

// applyFlags merges the command line overrides into cfg.
func applyFlags(cfg *Config) error {
	if *addr != "" {
		cfg.Target = *addr
	}
	if *resume {
		cfg.Resume = true
	}
	for _, s := range breaks {
		b, err := parseBreakpoint(s)
		if err != nil {
			return err
		}
		cfg.Breakpoints = append(cfg.Breakpoints, b)
	}
	return cfg.validate()
}

// connect opens the transport to the target, through SSH if configured.
func connect(ctx context.Context, cfg *Config) (io.ReadWriteCloser, error) {
	if cfg.SSH == nil {
		return net.DialTimeout("tcp", cfg.Target, *timeout)
	}
	host, p, err := net.SplitHostPort(cfg.Target)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return nil, err
	}
	ssh := *cfg.SSH
	if ssh.Host == "" {
		ssh.Host = host
	}
	client, err := remotessh.Dial(ctx, ssh)
	if err != nil {
		return nil, err
	}
	app.AddCleanup(ctx, func() { client.Close() })
	return client.DialPort(port)
}

func checkVersion(ctx context.Context, vm *jdi.VirtualMachine, require string) error {
	v, err := vm.JDWPVersion()
	if err != nil {
		return err
	}
	log.I(ctx, "Attached to JDWP %v", v)
	if require == "" {
		return nil
	}
	ok, err := vm.SupportsJDWP(require)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("JDWP %v does not satisfy %q", v, require)
	}
	return nil
}
