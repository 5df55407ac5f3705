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

// GetTypeSignature returns the JNI signature of the type, such as
// "Ljava/lang/String;".
func (c *Connection) GetTypeSignature(ty ReferenceTypeID) (string, error) {
	var sig string
	return sig, c.get(cmdReferenceTypeSignature, ty, &sig)
}

// GetFields returns the fields declared by the type. Inherited fields are
// not included.
func (c *Connection) GetFields(ty ReferenceTypeID) (Fields, error) {
	var fields Fields
	return fields, c.get(cmdReferenceTypeFields, ty, &fields)
}

// GetMethods returns the methods declared by the type, including
// constructors and initializers. Inherited methods are not included.
func (c *Connection) GetMethods(ty ReferenceTypeID) (Methods, error) {
	var methods Methods
	return methods, c.get(cmdReferenceTypeMethods, ty, &methods)
}
