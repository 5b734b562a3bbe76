package fieldpath

import (
	"fmt"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/php"
	"github.com/spiral/protoc-gen-php-client/typemap"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// FieldInfo is the resolved tuple for one path segment: the enclosing message,
// the concrete field and its PHP typing.
type FieldInfo struct {
	// Enclosing is the fully qualified proto name of the message the field
	// belongs to.
	Enclosing string

	Field *desc.FieldDescriptorProto

	// Segment index within the path.
	Index int

	// PHPType is the parameter type hint; DocType the richer docblock form.
	PHPType string
	DocType string

	Repeated bool
	IsMap    bool
}

// Resolve walks a property path against a message descriptor one segment at a
// time, following declared message types for nested segments.
func Resolve(tm *typemap.TypeMap, msgName string, p Path) ([]FieldInfo, error) {
	const op = errors.Op("fieldpath_resolve")

	out := make([]FieldInfo, 0, len(p))
	current := msgName

	for i, seg := range p {
		field, ok := tm.Field(current, seg.Name)
		if !ok {
			return nil, errors.E(op, errors.Str(fmt.Sprintf("field not found: %q in message %s", seg.Name, current)))
		}

		info, err := fieldInfo(tm, current, field, i)
		if err != nil {
			return nil, errors.E(op, err)
		}

		if seg.Index >= 0 && !info.Repeated {
			return nil, errors.E(op, errors.Str(fmt.Sprintf("indexed segment %q addresses non-repeated field in message %s", seg.String(), current)))
		}

		out = append(out, info)

		if i == len(p)-1 {
			break
		}

		if field.GetType() != desc.FieldDescriptorProto_TYPE_MESSAGE || info.IsMap {
			return nil, errors.E(op, errors.Str(fmt.Sprintf("field %q in message %s is not a message, cannot descend", seg.Name, current)))
		}

		current = field.GetTypeName()
	}

	return out, nil
}

func fieldInfo(tm *typemap.TypeMap, msgName string, field *desc.FieldDescriptorProto, idx int) (FieldInfo, error) {
	info := FieldInfo{
		Enclosing: msgName,
		Field:     field,
		Index:     idx,
		Repeated:  field.GetLabel() == desc.FieldDescriptorProto_LABEL_REPEATED,
	}

	switch field.GetType() {
	case desc.FieldDescriptorProto_TYPE_MESSAGE:
		if tm.IsMapEntry(field.GetTypeName()) {
			entry, err := tm.Message(field.GetTypeName())
			if err != nil {
				return info, err
			}

			info.IsMap = true
			info.Repeated = false
			info.PHPType = "array"

			key, kerr := entryType(tm, entry.GetField()[0])
			val, verr := entryType(tm, entry.GetField()[1])
			if kerr != nil {
				return info, kerr
			}
			if verr != nil {
				return info, verr
			}
			info.DocType = fmt.Sprintf("array<%s, %s>", key, val)

			return info, nil
		}

		q, err := tm.QualifiedName(field.GetTypeName())
		if err != nil {
			return info, err
		}
		info.PHPType = `\` + q
		info.DocType = info.PHPType

	case desc.FieldDescriptorProto_TYPE_ENUM:
		if _, err := tm.Enum(field.GetTypeName()); err != nil {
			return info, err
		}
		info.PHPType = "int"
		info.DocType = "int"

	default:
		scalar, ok := php.ScalarType(field.GetType())
		if !ok {
			return info, errors.Str(fmt.Sprintf("unsupported field type %s for %q in message %s", field.GetType(), field.GetName(), msgName))
		}
		info.PHPType = scalar
		info.DocType = scalar
	}

	if info.Repeated {
		info.DocType = info.DocType + "[]"
		info.PHPType = "array"
	}

	return info, nil
}

func entryType(tm *typemap.TypeMap, field *desc.FieldDescriptorProto) (string, error) {
	switch field.GetType() {
	case desc.FieldDescriptorProto_TYPE_MESSAGE:
		q, err := tm.QualifiedName(field.GetTypeName())
		if err != nil {
			return "", err
		}
		return `\` + q, nil
	case desc.FieldDescriptorProto_TYPE_ENUM:
		return "int", nil
	default:
		if scalar, ok := php.ScalarType(field.GetType()); ok {
			return scalar, nil
		}
		return "", errors.Str(fmt.Sprintf("unsupported map entry type %s", field.GetType()))
	}
}
