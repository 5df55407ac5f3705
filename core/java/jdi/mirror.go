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

import "github.com/pkg/errors"

// Mirror is implemented by every value that proxies state in a target VM.
// A mirror belongs to exactly one VirtualMachine.
type Mirror interface {
	VirtualMachine() *VirtualMachine
}

type mirror struct {
	vm *VirtualMachine
}

// VirtualMachine returns the VirtualMachine the mirror belongs to.
func (m mirror) VirtualMachine() *VirtualMachine { return m.vm }

// checkMirror returns ErrVMMismatch if m belongs to a different VM than vm.
func checkMirror(vm *VirtualMachine, m Mirror) error {
	if m.VirtualMachine() != vm {
		return errors.Wrapf(ErrVMMismatch, "%v", m)
	}
	return nil
}
