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

package flags

import (
	"bytes"
	"fmt"
	"strings"
)

type (
	// Choice is the interface to something that represents a value for an enumerated type.
	Choice interface {
		String() string
	}

	// Choices is a slice of Enum values for a given type.
	Choices []Choice

	// Enum is the interface to a enumerated value.
	Enum interface {
		// String represents the current value in a string form, used for choice matching.
		String() string
		// Choose is handed a value to set from the Choices list for the enum.
		Choose(interface{})
	}

	// Chooser is is used to select from amongst a set of choices.
	// It conforms to the flag.Value interface.
	Chooser struct {
		// Value is the value we are choosing for.
		Value Enum
		// Choices is the full set of choices available.
		Choices Choices
	}
)

// For builds a Chooser for v from an explicit list of choices.
func For(v Enum, choices ...Choice) Chooser {
	return Chooser{Value: v, Choices: choices}
}

// String returns the string form of the current value.
func (c Chooser) String() string {
	if c.Value == nil {
		return ""
	}
	return c.Value.String()
}

// Set chooses the choice that matches the string, ignoring case.
func (c Chooser) Set(value string) error {
	for _, e := range c.Choices {
		if strings.EqualFold(e.String(), value) {
			c.Value.Choose(e)
			return nil
		}
	}
	return fmt.Errorf("Unknown value %q, valid options are: %s", value, c.Choices)
}

// String returns the full set of options as a comma delimited string.
func (c Choices) String() string {
	var b bytes.Buffer
	for _, e := range c {
		if b.Len() > 0 {
			fmt.Fprint(&b, ", ")
		}
		fmt.Fprintf(&b, "%q", e.String())
	}
	return b.String()
}
