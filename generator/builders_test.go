package generator

import (
	"strings"
	"testing"

	"github.com/spiral/protoc-gen-php-client/typemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

func commonFile() *desc.FileDescriptorProto {
	opt := desc.FieldDescriptorProto_LABEL_OPTIONAL

	return &desc.FileDescriptorProto{
		Name:    proto.String("google/protobuf/wrappers.proto"),
		Package: proto.String("google.protobuf"),
		Options: &desc.FileOptions{JavaMultipleFiles: proto.Bool(true)},
		MessageType: []*desc.DescriptorProto{
			{
				Name: proto.String("StringValue"),
				Field: []*desc.FieldDescriptorProto{
					fld("value", 1, desc.FieldDescriptorProto_TYPE_STRING, opt, ""),
				},
			},
			{
				Name: proto.String("Timestamp"),
				Field: []*desc.FieldDescriptorProto{
					fld("seconds", 1, desc.FieldDescriptorProto_TYPE_INT64, opt, ""),
				},
			},
		},
	}
}

func buildersFor(t *testing.T, opts Options) []*Artifact {
	t.Helper()

	tm := typemap.New([]*desc.FileDescriptorProto{libraryFile(), commonFile()})
	g := New(tm, &stubResolver{cfg: libraryConfig()}, nil, opts)

	return g.builders()
}

func TestBuilders(t *testing.T) {
	artifacts := buildersFor(t, Options{})

	require.Len(t, artifacts, 1)
	a := artifacts[0]
	assert.Equal(t, "Builders", a.Name)
	assert.Equal(t, `Example\Library\V1`, a.Namespace)

	content := strings.Join(a.Decls, "\n")
	assert.Contains(t, content, "final class Builders")
	assert.Contains(t, content,
		`public static function Shelf(array $data = []): \Example\Library\V1\Shelf`)
	assert.Contains(t, content, `return new \Example\Library\V1\Shelf($data);`)

	// synthetic map entries never get a helper
	assert.NotContains(t, content, "LabelsEntry")
}

func TestBuildersIncludeCommon(t *testing.T) {
	artifacts := buildersFor(t, Options{IncludeCommon: true})

	require.Len(t, artifacts, 2)

	var common *Artifact
	for _, a := range artifacts {
		if a.Namespace == `Google\Protobuf` {
			common = a
		}
	}
	require.NotNil(t, common)

	content := strings.Join(common.Decls, "\n")
	assert.Contains(t, content, "Timestamp")

	// well-known wrapper types are skipped even with common output enabled
	assert.NotContains(t, content, "StringValue")
}
