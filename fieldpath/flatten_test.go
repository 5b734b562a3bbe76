package fieldpath

import (
	"testing"

	"github.com/spiral/protoc-gen-php-client/typemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

func fld(name string, num int32, t desc.FieldDescriptorProto_Type, label desc.FieldDescriptorProto_Label, typeName string) *desc.FieldDescriptorProto {
	f := &desc.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Type:   t.Enum(),
		Label:  label.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}

	return f
}

func detailFile() *desc.FileDescriptorProto {
	opt := desc.FieldDescriptorProto_LABEL_OPTIONAL
	rep := desc.FieldDescriptorProto_LABEL_REPEATED

	return &desc.FileDescriptorProto{
		Name:    proto.String("example/library/v1/library.proto"),
		Package: proto.String("example.library.v1"),
		Options: &desc.FileOptions{JavaMultipleFiles: proto.Bool(true)},
		MessageType: []*desc.DescriptorProto{
			{
				Name: proto.String("MoreDetail"),
				Field: []*desc.FieldDescriptorProto{
					fld("text", 1, desc.FieldDescriptorProto_TYPE_STRING, opt, ""),
				},
			},
			{
				Name: proto.String("Detail"),
				Field: []*desc.FieldDescriptorProto{
					fld("even_more", 1, desc.FieldDescriptorProto_TYPE_MESSAGE, opt, ".example.library.v1.MoreDetail"),
					fld("note", 2, desc.FieldDescriptorProto_TYPE_STRING, opt, ""),
					fld("name", 3, desc.FieldDescriptorProto_TYPE_STRING, opt, ""),
				},
			},
			{
				Name: proto.String("Request"),
				Field: []*desc.FieldDescriptorProto{
					fld("main_detail", 1, desc.FieldDescriptorProto_TYPE_MESSAGE, opt, ".example.library.v1.Detail"),
					fld("name", 2, desc.FieldDescriptorProto_TYPE_STRING, opt, ""),
					fld("tags", 3, desc.FieldDescriptorProto_TYPE_STRING, rep, ""),
					fld("labels", 4, desc.FieldDescriptorProto_TYPE_MESSAGE, rep, ".example.library.v1.Request.LabelsEntry"),
					fld("details", 5, desc.FieldDescriptorProto_TYPE_MESSAGE, rep, ".example.library.v1.Detail"),
					fld("count", 6, desc.FieldDescriptorProto_TYPE_INT32, opt, ""),
				},
				NestedType: []*desc.DescriptorProto{
					{
						Name:    proto.String("LabelsEntry"),
						Options: &desc.MessageOptions{MapEntry: proto.Bool(true)},
						Field: []*desc.FieldDescriptorProto{
							fld("key", 1, desc.FieldDescriptorProto_TYPE_STRING, opt, ""),
							fld("value", 2, desc.FieldDescriptorProto_TYPE_STRING, opt, ""),
						},
					},
				},
			},
		},
	}
}

const request = ".example.library.v1.Request"

func TestResolveTypes(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	infos, err := Resolve(tm, request, MustParse("main_detail.even_more"))
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, `\Example\Library\V1\Detail`, infos[0].PHPType)
	assert.Equal(t, `\Example\Library\V1\MoreDetail`, infos[1].PHPType)

	infos, err = Resolve(tm, request, MustParse("tags"))
	require.NoError(t, err)
	assert.Equal(t, "array", infos[0].PHPType)
	assert.Equal(t, "string[]", infos[0].DocType)
	assert.True(t, infos[0].Repeated)

	infos, err = Resolve(tm, request, MustParse("labels"))
	require.NoError(t, err)
	assert.Equal(t, "array", infos[0].PHPType)
	assert.Equal(t, "array<string, string>", infos[0].DocType)
	assert.True(t, infos[0].IsMap)

	infos, err = Resolve(tm, request, MustParse("count"))
	require.NoError(t, err)
	assert.Equal(t, "int", infos[0].PHPType)
}

func TestResolveErrors(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	_, err := Resolve(tm, request, MustParse("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field not found: "nope" in message .example.library.v1.Request`)

	_, err = Resolve(tm, request, MustParse("main_detail.nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".example.library.v1.Detail")

	// scalar fields cannot be descended into
	_, err = Resolve(tm, request, MustParse("name.x"))
	require.Error(t, err)

	// indexes only apply to repeated fields
	_, err = Resolve(tm, request, MustParse("main_detail[0].note"))
	require.Error(t, err)
}

func TestFlattenRoundTrip(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	flat, err := Flatten(tm, request, []Path{MustParse("main_detail.even_more")}, nil)
	require.NoError(t, err)

	require.Len(t, flat.Params, 1)
	assert.Equal(t, "evenMore", flat.Params[0].Name)
	assert.Equal(t, `\Example\Library\V1\MoreDetail`, flat.Params[0].Type)

	assert.Equal(t, `new \Example\Library\V1\Request([
    'main_detail' => new \Example\Library\V1\Detail([
        'even_more' => $evenMore,
    ]),
])`, flat.Request)
}

func TestFlattenSampleOverridesParameter(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	flat, err := Flatten(tm, request,
		[]Path{MustParse("main_detail.note"), MustParse("name")},
		map[string]string{"main_detail.note": "Shelf 1"})
	require.NoError(t, err)

	// the parameter stays in the list, the builder uses the literal
	require.Len(t, flat.Params, 2)
	assert.Contains(t, flat.Request, "'note' => 'Shelf 1',")
	assert.Contains(t, flat.Request, "'name' => $name,")
	assert.NotContains(t, flat.Request, "$note")
}

func TestFlattenIndexedRepeated(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	flat, err := Flatten(tm, request, []Path{MustParse("details[0].note")}, nil)
	require.NoError(t, err)

	assert.Equal(t, `new \Example\Library\V1\Request([
    'details' => [new \Example\Library\V1\Detail([
        'note' => $note,
    ])],
])`, flat.Request)
}

func TestFlattenBulkAssignments(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	flat, err := Flatten(tm, request, []Path{MustParse("tags"), MustParse("labels")}, nil)
	require.NoError(t, err)

	assert.Contains(t, flat.Request, "'tags' => $tags,")
	assert.Contains(t, flat.Request, "'labels' => $labels,")
	assert.Equal(t, "array", flat.Params[0].Type)
	assert.Equal(t, "array", flat.Params[1].Type)
}

func TestFlattenParamCollision(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	flat, err := Flatten(tm, request, []Path{MustParse("name"), MustParse("main_detail.name")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "name", flat.Params[0].Name)
	assert.Equal(t, "mainDetailName", flat.Params[1].Name)
}

func TestFlattenEmptySignature(t *testing.T) {
	tm := typemap.New([]*desc.FileDescriptorProto{detailFile()})

	flat, err := Flatten(tm, request, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, flat.Params)
	assert.Equal(t, `new \Example\Library\V1\Request()`, flat.Request)
}
