// MIT License
//
// Copyright (c) 2022 SpiralScout
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package php renders protobuf names as PHP identifiers and namespaces.
package php

import (
	"strings"

	desc "google.golang.org/protobuf/types/descriptorpb"
)

// keywords PHP will not accept as class or method names.
var reserved = map[string]struct{}{
	"abstract": {}, "and": {}, "array": {}, "as": {}, "break": {},
	"callable": {}, "case": {}, "catch": {}, "class": {}, "clone": {},
	"const": {}, "continue": {}, "declare": {}, "default": {}, "do": {},
	"echo": {}, "else": {}, "elseif": {}, "empty": {}, "enddeclare": {},
	"endfor": {}, "endforeach": {}, "endif": {}, "endswitch": {},
	"endwhile": {}, "eval": {}, "exit": {}, "extends": {}, "final": {},
	"finally": {}, "fn": {}, "for": {}, "foreach": {}, "function": {},
	"global": {}, "goto": {}, "if": {}, "implements": {}, "include": {},
	"instanceof": {}, "insteadof": {}, "interface": {}, "isset": {},
	"list": {}, "match": {}, "namespace": {}, "new": {}, "or": {},
	"print": {}, "private": {}, "protected": {}, "public": {},
	"readonly": {}, "require": {}, "return": {}, "static": {},
	"switch": {}, "throw": {}, "trait": {}, "try": {}, "unset": {},
	"use": {}, "var": {}, "while": {}, "xor": {}, "yield": {},
}

// wrappers lists the protobuf well-known wrapper types which never receive
// generated builders: the runtime already exposes their single-value ctors.
var wrappers = map[string]struct{}{
	".google.protobuf.DoubleValue": {},
	".google.protobuf.FloatValue":  {},
	".google.protobuf.Int64Value":  {},
	".google.protobuf.UInt64Value": {},
	".google.protobuf.Int32Value":  {},
	".google.protobuf.UInt32Value": {},
	".google.protobuf.BoolValue":   {},
	".google.protobuf.StringValue": {},
	".google.protobuf.BytesValue":  {},
}

// Identifier converts a proto name chunk into a PHP identifier, appending the
// suffix when the result would collide with a reserved keyword.
func Identifier(name string, suffix string) string {
	b := strings.Builder{}
	up := true
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			up = true
		case up:
			b.WriteString(strings.ToUpper(string(r)))
			up = false
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	if _, ok := reserved[strings.ToLower(out)]; ok {
		return out + suffix
	}

	return out
}

// Namespace converts a proto package into a PHP namespace joined by sep.
func Namespace(pkg string, sep string) string {
	chunks := strings.Split(strings.Trim(pkg, "."), ".")

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c == "" {
			continue
		}
		out = append(out, Identifier(c, "PB"))
	}

	return strings.Join(out, sep)
}

// LowerCamel converts a proto field or method name into a PHP local name.
func LowerCamel(name string) string {
	id := Identifier(name, "")
	if id == "" {
		return id
	}

	out := strings.ToLower(id[:1]) + id[1:]
	if _, ok := reserved[strings.ToLower(out)]; ok {
		return out + "_"
	}

	return out
}

// ScalarType maps a proto scalar field type onto the PHP type it is hinted
// with. Message, enum and group types have no scalar mapping.
func ScalarType(t desc.FieldDescriptorProto_Type) (string, bool) {
	switch t {
	case desc.FieldDescriptorProto_TYPE_DOUBLE, desc.FieldDescriptorProto_TYPE_FLOAT:
		return "float", true
	case desc.FieldDescriptorProto_TYPE_INT64, desc.FieldDescriptorProto_TYPE_UINT64,
		desc.FieldDescriptorProto_TYPE_INT32, desc.FieldDescriptorProto_TYPE_UINT32,
		desc.FieldDescriptorProto_TYPE_FIXED64, desc.FieldDescriptorProto_TYPE_FIXED32,
		desc.FieldDescriptorProto_TYPE_SFIXED32, desc.FieldDescriptorProto_TYPE_SFIXED64,
		desc.FieldDescriptorProto_TYPE_SINT32, desc.FieldDescriptorProto_TYPE_SINT64:
		return "int", true
	case desc.FieldDescriptorProto_TYPE_BOOL:
		return "bool", true
	case desc.FieldDescriptorProto_TYPE_STRING, desc.FieldDescriptorProto_TYPE_BYTES:
		return "string", true
	default:
		return "", false
	}
}

// IsWrapper reports whether the fully qualified proto name is one of the
// well-known wrapper types.
func IsWrapper(protoName string) bool {
	_, ok := wrappers[protoName]
	return ok
}
