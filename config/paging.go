package config

import (
	"github.com/spiral/protoc-gen-php-client/typemap"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// field names that make a method pageable, matched verbatim
const (
	pageSizeField      = "page_size"
	pageTokenField     = "page_token"
	nextPageTokenField = "next_page_token"
	resourcesField     = "responses"
)

// InferPaging classifies a method as pageable from the exact shape of its
// request and response messages. Every field is checked for name, scalar kind
// and cardinality; any mismatch disqualifies the method.
func InferPaging(tm *typemap.TypeMap, m *desc.MethodDescriptorProto) (*PagedResponse, bool) {
	if m.GetClientStreaming() || m.GetServerStreaming() {
		return nil, false
	}

	if !isPagedRequest(tm, m.GetInputType()) || !isPagedResponse(tm, m.GetOutputType()) {
		return nil, false
	}

	return &PagedResponse{
		PageSizeField:      pageSizeField,
		PageTokenField:     pageTokenField,
		NextPageTokenField: nextPageTokenField,
		ResourcesField:     resourcesField,
	}, true
}

func isPagedRequest(tm *typemap.TypeMap, msgName string) bool {
	size, ok := tm.Field(msgName, pageSizeField)
	if !ok || size.GetLabel() == desc.FieldDescriptorProto_LABEL_REPEATED || !isIntegral(size.GetType()) {
		return false
	}

	token, ok := tm.Field(msgName, pageTokenField)
	if !ok || token.GetLabel() == desc.FieldDescriptorProto_LABEL_REPEATED ||
		token.GetType() != desc.FieldDescriptorProto_TYPE_STRING {
		return false
	}

	return true
}

func isPagedResponse(tm *typemap.TypeMap, msgName string) bool {
	resources, ok := tm.Field(msgName, resourcesField)
	if !ok || resources.GetLabel() != desc.FieldDescriptorProto_LABEL_REPEATED {
		return false
	}

	token, ok := tm.Field(msgName, nextPageTokenField)
	if !ok || token.GetLabel() == desc.FieldDescriptorProto_LABEL_REPEATED ||
		token.GetType() != desc.FieldDescriptorProto_TYPE_STRING {
		return false
	}

	return true
}

func isIntegral(t desc.FieldDescriptorProto_Type) bool {
	switch t {
	case desc.FieldDescriptorProto_TYPE_INT32, desc.FieldDescriptorProto_TYPE_INT64,
		desc.FieldDescriptorProto_TYPE_UINT32, desc.FieldDescriptorProto_TYPE_UINT64:
		return true
	default:
		return false
	}
}
