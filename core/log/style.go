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

package log

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Style provides customization for printing messages.
type Style struct {
	Name      string // Name of the style.
	Timestamp bool   // If true, the timestamp will be printed if part of the message.
	Tag       bool   // If true, the tag will be printed if part of the message.
	Short     bool   // If true, the severity is printed as a single character.
	Values    bool   // If true, the values of the message will be printed.
}

var (
	// Brief is a Style that only prints the message text.
	Brief = Style{Name: "brief"}
	// Normal is a Style that prints the severity, tag and message.
	Normal = Style{Name: "normal", Tag: true, Short: true, Values: true}
	// Detailed is a Style that prints everything.
	Detailed = Style{Name: "detailed", Timestamp: true, Tag: true, Values: true}
)

// Styles is the list of known styles, in the order they are offered on the
// command line.
var Styles = []Style{Brief, Normal, Detailed}

func (s Style) String() string { return s.Name }

// Choose allows the style to be used as a command line enum.
func (s *Style) Choose(c interface{}) { *s = c.(Style) }

// Handler returns a new Handler configured to write to w.
func (s Style) Handler(w Writer) Handler {
	return handler{
		handle: func(msg *Message) {
			w(s.format(msg), msg.Severity)
		},
	}
}

// Print returns the message msg printed with the style s.
func (s Style) Print(msg *Message) string {
	return s.format(msg)
}

func (s Style) format(msg *Message) string {
	m := make([]string, 0, 5)
	if s.Timestamp && !msg.Time.IsZero() {
		m = append(m, HHMMSSsss(msg.Time))
	}
	if s != Brief {
		if s.Short {
			m = append(m, msg.Severity.Short()+":")
		} else {
			m = append(m, msg.Severity.String()+":")
		}
	}
	if s.Tag && msg.Tag != "" {
		m = append(m, fmt.Sprintf("[%s]", msg.Tag))
	}
	m = append(m, msg.Text)
	if s.Values && len(msg.Values) > 0 {
		t := make([]string, len(msg.Values))
		for i, v := range msg.Values {
			t[i] = fmt.Sprintf("%v: %v", v.Name, v.Value)
		}
		m = append(m, fmt.Sprintf("(%v)", strings.Join(t, ", ")))
	}
	return strings.Join(m, " ")
}

// HHMMSSsss formats t as hours, minutes, seconds and milliseconds.
func HHMMSSsss(t time.Time) string {
	return fmt.Sprintf("%.2d:%.2d:%.2d.%.3d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e6)
}

func sortValues(v Values) Values {
	sort.Sort(v)
	return v
}
