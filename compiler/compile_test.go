package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

const commonProto = `syntax = "proto3";

package example.common;

message Note {
  string text = 1;
}
`

const libraryProto = `syntax = "proto3";

package example.library.v1;

import "common.proto";
import "google/protobuf/empty.proto";

message Shelf {
  string name = 1;
  example.common.Note note = 2;
}

service LibraryService {
  rpc DeleteShelf(Shelf) returns (google.protobuf.Empty);
}
`

func writeProtos(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.proto"), []byte(commonProto), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.proto"), []byte(libraryProto), 0o644))

	return dir
}

func indexOf(files []*desc.FileDescriptorProto, name string) int {
	for i, f := range files {
		if f.GetName() == name {
			return i
		}
	}

	return -1
}

func TestCompile(t *testing.T) {
	dir := writeProtos(t)

	files, names, err := New([]string{dir}, nil).Compile(context.Background(), []string{filepath.Join(dir, "library.proto")})
	require.NoError(t, err)

	assert.Equal(t, []string{"library.proto"}, names)

	lib := indexOf(files, "library.proto")
	common := indexOf(files, "common.proto")
	empty := indexOf(files, "google/protobuf/empty.proto")

	require.GreaterOrEqual(t, lib, 0)
	require.GreaterOrEqual(t, common, 0)
	require.GreaterOrEqual(t, empty, 0)

	// dependencies precede their importers
	assert.Less(t, common, lib)
	assert.Less(t, empty, lib)

	assert.Equal(t, "example.library.v1", files[lib].GetPackage())
	require.Len(t, files[lib].GetService(), 1)
	assert.Equal(t, "LibraryService", files[lib].GetService()[0].GetName())
}

func TestCompileMultipleInputsDedup(t *testing.T) {
	dir := writeProtos(t)

	files, names, err := New(nil, nil).Compile(context.Background(), []string{
		filepath.Join(dir, "common.proto"),
		filepath.Join(dir, "library.proto"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"common.proto", "library.proto"}, names)

	// common.proto appears once even though it is both an input and an import
	count := 0
	for _, f := range files {
		if f.GetName() == "common.proto" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCompileSyntaxError(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.proto")
	require.NoError(t, os.WriteFile(broken, []byte("syntax = \"proto3\";\nmessage {"), 0o644))

	_, _, err := New(nil, nil).Compile(context.Background(), []string{broken})
	require.Error(t, err)
}

func TestCompileMissingFile(t *testing.T) {
	_, _, err := New(nil, nil).Compile(context.Background(), []string{filepath.Join(t.TempDir(), "missing.proto")})
	require.Error(t, err)
}
