// Package typemap builds the bidirectional table between fully qualified
// protobuf type names and the PHP names generated code refers to them by.
package typemap

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/php"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// Separator between PHP namespace chunks.
const Separator = `\`

// appended to a synthetic enclosing-unit name when a contained declaration
// already uses the file-derived name
const unitSuffix = "Proto"

// TypeMap resolves proto type names to PHP names and keeps descriptor lookup
// tables for structural queries. Built once per run, read-only afterwards.
type TypeMap struct {
	names    map[string]string
	messages map[string]*desc.DescriptorProto
	enums    map[string]*desc.EnumDescriptorProto
	services map[string]*desc.ServiceDescriptorProto
	owners   map[string]*desc.FileDescriptorProto
	comments map[string]string

	// message registration order, stable across runs on identical input
	order []string
}

// New registers every message, enum and service reachable from the given
// file set.
func New(files []*desc.FileDescriptorProto) *TypeMap {
	t := &TypeMap{
		names:    make(map[string]string),
		messages: make(map[string]*desc.DescriptorProto),
		enums:    make(map[string]*desc.EnumDescriptorProto),
		services: make(map[string]*desc.ServiceDescriptorProto),
		owners:   make(map[string]*desc.FileDescriptorProto),
		comments: make(map[string]string),
	}

	for _, f := range files {
		t.registerFile(f)
	}

	return t
}

func (t *TypeMap) registerFile(file *desc.FileDescriptorProto) {
	ns := phpNamespace(file)
	protoPrefix := ""
	if file.GetPackage() != "" {
		protoPrefix = "." + file.GetPackage()
	}

	chain := []string{}
	if unit := unitName(file); unit != "" {
		chain = append(chain, unit)
	}

	comments := commentIndex(file)

	for i, m := range file.GetMessageType() {
		t.registerMessage(file, ns, chain, protoPrefix, m, []int32{4, int32(i)}, comments)
	}
	for i, e := range file.GetEnumType() {
		t.registerEnum(file, ns, chain, protoPrefix, e, []int32{5, int32(i)}, comments)
	}
	// services are standalone units, the synthetic enclosing unit applies to
	// contained data types only
	for i, s := range file.GetService() {
		name := protoPrefix + "." + s.GetName()
		t.names[name] = qualified(ns, []string{php.Identifier(s.GetName(), "Service")})
		t.services[name] = s
		t.owners[name] = file
		t.comments[name] = comments[pathKey([]int32{6, int32(i)})]

		for j, m := range s.GetMethod() {
			t.comments[name+"."+m.GetName()] = comments[pathKey([]int32{6, int32(i), 2, int32(j)})]
		}
	}
}

func (t *TypeMap) registerMessage(
	file *desc.FileDescriptorProto,
	ns string,
	chain []string,
	protoPrefix string,
	m *desc.DescriptorProto,
	path []int32,
	comments map[string]string,
) {
	name := protoPrefix + "." + m.GetName()
	chain = append(chain[:len(chain):len(chain)], php.Identifier(m.GetName(), "Message"))

	t.names[name] = qualified(ns, chain)
	t.messages[name] = m
	t.owners[name] = file
	t.comments[name] = comments[pathKey(path)]
	t.order = append(t.order, name)

	for i, f := range m.GetField() {
		t.comments[name+"."+f.GetName()] = comments[pathKey(append(path[:len(path):len(path)], 2, int32(i)))]
	}

	for i, nested := range m.GetNestedType() {
		t.registerMessage(file, ns, chain, name, nested, append(path[:len(path):len(path)], 3, int32(i)), comments)
	}
	for i, e := range m.GetEnumType() {
		t.registerEnum(file, ns, chain, name, e, append(path[:len(path):len(path)], 4, int32(i)), comments)
	}
}

func (t *TypeMap) registerEnum(
	file *desc.FileDescriptorProto,
	ns string,
	chain []string,
	protoPrefix string,
	e *desc.EnumDescriptorProto,
	path []int32,
	comments map[string]string,
) {
	name := protoPrefix + "." + e.GetName()
	chain = append(chain[:len(chain):len(chain)], php.Identifier(e.GetName(), "Enum"))

	t.names[name] = qualified(ns, chain)
	t.enums[name] = e
	t.owners[name] = file
	t.comments[name] = comments[pathKey(path)]
}

// QualifiedName resolves a fully qualified proto type name into the PHP name.
// Unregistered names are an input inconsistency, never defaulted.
func (t *TypeMap) QualifiedName(protoName string) (string, error) {
	const op = errors.Op("typemap_qualified_name")

	if n, ok := t.names[protoName]; ok {
		return n, nil
	}

	return "", errors.E(op, errors.Str(fmt.Sprintf("type not recognized: %s", protoName)))
}

// HasDescriptor reports whether the proto name resolves to a registered
// message, enum or service descriptor.
func (t *TypeMap) HasDescriptor(protoName string) bool {
	if _, ok := t.messages[protoName]; ok {
		return true
	}
	if _, ok := t.enums[protoName]; ok {
		return true
	}
	_, ok := t.services[protoName]
	return ok
}

// Message returns the registered message descriptor.
func (t *TypeMap) Message(protoName string) (*desc.DescriptorProto, error) {
	const op = errors.Op("typemap_message")

	if m, ok := t.messages[protoName]; ok {
		return m, nil
	}

	return nil, errors.E(op, errors.Str(fmt.Sprintf("type not recognized: %s", protoName)))
}

// Enum returns the registered enum descriptor.
func (t *TypeMap) Enum(protoName string) (*desc.EnumDescriptorProto, error) {
	const op = errors.Op("typemap_enum")

	if e, ok := t.enums[protoName]; ok {
		return e, nil
	}

	return nil, errors.E(op, errors.Str(fmt.Sprintf("type not recognized: %s", protoName)))
}

// Service returns the registered service descriptor.
func (t *TypeMap) Service(protoName string) (*desc.ServiceDescriptorProto, error) {
	const op = errors.Op("typemap_service")

	if s, ok := t.services[protoName]; ok {
		return s, nil
	}

	return nil, errors.E(op, errors.Str(fmt.Sprintf("type not recognized: %s", protoName)))
}

// Messages lists every registered message name in registration order.
func (t *TypeMap) Messages() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// IsMapEntry reports whether the message is a synthetic map-entry type.
func (t *TypeMap) IsMapEntry(protoName string) bool {
	m, ok := t.messages[protoName]
	return ok && m.GetOptions().GetMapEntry()
}

// Field finds a field by proto name inside a registered message.
func (t *TypeMap) Field(msgName string, fieldName string) (*desc.FieldDescriptorProto, bool) {
	m, ok := t.messages[msgName]
	if !ok {
		return nil, false
	}

	for _, f := range m.GetField() {
		if f.GetName() == fieldName {
			return f, true
		}
	}

	return nil, false
}

// Comment returns the leading source comment attached to a registered
// element, keyed by its fully qualified proto name (fields and methods use a
// trailing ".name" chunk). Empty when the source carries none.
func (t *TypeMap) Comment(name string) string {
	return t.comments[name]
}

// Namespace returns the PHP namespace portion of a registered type name.
func (t *TypeMap) Namespace(protoName string) (string, error) {
	q, err := t.QualifiedName(protoName)
	if err != nil {
		return "", err
	}

	if i := strings.LastIndex(q, Separator); i >= 0 {
		return q[:i], nil
	}

	return "", nil
}

// ClassName returns the class portion of a registered type name, with the
// enclosing-type chain flattened into one identifier.
func (t *TypeMap) ClassName(protoName string) (string, error) {
	q, err := t.QualifiedName(protoName)
	if err != nil {
		return "", err
	}

	ns := ""
	if f, ok := t.owners[protoName]; ok {
		ns = phpNamespace(f)
	}

	rest := strings.TrimPrefix(strings.TrimPrefix(q, ns), Separator)
	return strings.ReplaceAll(rest, Separator, "_"), nil
}

// File returns the file descriptor a registered type was declared in.
func (t *TypeMap) File(protoName string) (*desc.FileDescriptorProto, error) {
	const op = errors.Op("typemap_file")

	if f, ok := t.owners[protoName]; ok {
		return f, nil
	}

	return nil, errors.E(op, errors.Str(fmt.Sprintf("type not recognized: %s", protoName)))
}

func qualified(ns string, chain []string) string {
	if ns == "" {
		return strings.Join(chain, Separator)
	}

	return ns + Separator + strings.Join(chain, Separator)
}

func phpNamespace(file *desc.FileDescriptorProto) string {
	if file.Options != nil && file.Options.PhpNamespace != nil {
		return file.Options.GetPhpNamespace()
	}

	return php.Namespace(file.GetPackage(), Separator)
}

// unitName derives the synthetic enclosing-unit name for files that do not
// request one-type-per-unit splitting. A contained top-level declaration with
// the same name forces the disambiguating suffix.
func unitName(file *desc.FileDescriptorProto) string {
	if file.GetOptions().GetJavaMultipleFiles() {
		return ""
	}

	base := strings.TrimSuffix(filepath.Base(file.GetName()), ".proto")
	unit := php.Identifier(base, "PB")

	for _, m := range file.GetMessageType() {
		if php.Identifier(m.GetName(), "Message") == unit {
			return unit + unitSuffix
		}
	}
	for _, e := range file.GetEnumType() {
		if php.Identifier(e.GetName(), "Enum") == unit {
			return unit + unitSuffix
		}
	}
	for _, s := range file.GetService() {
		if php.Identifier(s.GetName(), "Service") == unit {
			return unit + unitSuffix
		}
	}

	return unit
}

func pathKey(path []int32) string {
	b := strings.Builder{}
	for i, p := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		fmt.Fprintf(&b, "%d", p)
	}
	return b.String()
}

func commentIndex(file *desc.FileDescriptorProto) map[string]string {
	out := make(map[string]string)
	for _, loc := range file.GetSourceCodeInfo().GetLocation() {
		if loc.GetLeadingComments() == "" {
			continue
		}
		out[pathKey(loc.GetPath())] = strings.TrimSpace(loc.GetLeadingComments())
	}

	return out
}
