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

// LineTableEntry maps a code index to a source line.
type LineTableEntry struct {
	CodeIndex  uint64
	LineNumber int
}

// LineTable holds the line information for a single method.
type LineTable struct {
	Start uint64
	End   uint64
	Lines []LineTableEntry
}

// CodeIndices returns the code indices that start the given source line.
func (t LineTable) CodeIndices(line int) []uint64 {
	out := []uint64{}
	for _, l := range t.Lines {
		if l.LineNumber == line {
			out = append(out, l.CodeIndex)
		}
	}
	return out
}

// LineOf returns the source line containing the code index, or -1 if the
// index is outside the table.
func (t LineTable) LineOf(index uint64) int {
	line, best := -1, uint64(0)
	for _, l := range t.Lines {
		if l.CodeIndex <= index && (line < 0 || l.CodeIndex >= best) {
			line, best = l.LineNumber, l.CodeIndex
		}
	}
	return line
}

// GetLineTable returns the line table of the method. Native and abstract
// methods fail with ErrAbsentInformation or ErrNativeMethod.
func (c *Connection) GetLineTable(ty ReferenceTypeID, method MethodID) (LineTable, error) {
	req := struct {
		Type   ReferenceTypeID
		Method MethodID
	}{ty, method}
	var res LineTable
	err := c.get(cmdMethodLineTable, req, &res)
	return res, err
}
