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

import "strings"

// Signature returns the JNI signature for a Java type name, such as
// "java.lang.String[]" to "[Ljava/lang/String;".
func Signature(name string) string {
	dims := 0
	for strings.HasSuffix(name, "[]") {
		name = name[:len(name)-2]
		dims++
	}
	var sig string
	switch name {
	case "void":
		sig = "V"
	case "boolean":
		sig = "Z"
	case "byte":
		sig = "B"
	case "char":
		sig = "C"
	case "short":
		sig = "S"
	case "int":
		sig = "I"
	case "long":
		sig = "J"
	case "float":
		sig = "F"
	case "double":
		sig = "D"
	default:
		sig = "L" + strings.Replace(name, ".", "/", -1) + ";"
	}
	return strings.Repeat("[", dims) + sig
}

// TypeName returns the Java type name for a JNI signature, the inverse of
// Signature. Malformed signatures are returned unchanged.
func TypeName(sig string) string {
	dims := 0
	for dims < len(sig) && sig[dims] == '[' {
		dims++
	}
	el := sig[dims:]
	var name string
	switch el {
	case "V":
		name = "void"
	case "Z":
		name = "boolean"
	case "B":
		name = "byte"
	case "C":
		name = "char"
	case "S":
		name = "short"
	case "I":
		name = "int"
	case "J":
		name = "long"
	case "F":
		name = "float"
	case "D":
		name = "double"
	default:
		if len(el) < 2 || el[0] != 'L' || el[len(el)-1] != ';' {
			return sig
		}
		name = strings.Replace(el[1:len(el)-1], "/", ".", -1)
	}
	return name + strings.Repeat("[]", dims)
}
