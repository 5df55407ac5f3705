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

import (
	"fmt"
	"strings"
)

// Method is a method entry of ReferenceType.Methods.
type Method struct {
	ID        MethodID
	Name      string
	Signature string
	ModBits   ModBits
}

// Methods is the method table of a type, in declaration order.
type Methods []Method

func (l Methods) String() string {
	parts := make([]string, len(l))
	for i, m := range l {
		parts[i] = fmt.Sprintf("%v%v", m.Name, m.Signature)
	}
	return strings.Join(parts, ", ")
}

// Field is a field entry of ReferenceType.Fields.
type Field struct {
	ID        FieldID
	Name      string
	Signature string
	ModBits   ModBits
}

// Fields is the field table of a type, in declaration order.
type Fields []Field
