package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryProto = `syntax = "proto3";

package example.library.v1;

message Shelf {
  string name = 1;
}

message ListShelvesRequest {
  int32 page_size = 1;
  string page_token = 2;
}

message ListShelvesResponse {
  repeated Shelf responses = 1;
  string next_page_token = 2;
}

service LibraryService {
  rpc ListShelves(ListShelvesRequest) returns (ListShelvesResponse);
  rpc Chat(stream Shelf) returns (stream Shelf);
}
`

const messagesOnlyProto = `syntax = "proto3";

package example.library.v1;

message Shelf {
  string name = 1;
}
`

func TestParseBytes(t *testing.T) {
	services, err := Bytes([]byte(libraryProto))
	require.NoError(t, err)
	require.Len(t, services, 1)

	svc := services[0]
	assert.Equal(t, "example.library.v1", svc.Package)
	assert.Equal(t, "LibraryService", svc.Name)
	require.Len(t, svc.Methods, 2)

	list := svc.Methods[0]
	assert.Equal(t, "ListShelves", list.Name)
	assert.Equal(t, "ListShelvesRequest", list.RequestType)
	assert.Equal(t, "ListShelvesResponse", list.ReturnsType)
	assert.False(t, list.StreamsRequest)
	assert.False(t, list.StreamsReturns)

	chat := svc.Methods[1]
	assert.Equal(t, "Chat", chat.Name)
	assert.True(t, chat.StreamsRequest)
	assert.True(t, chat.StreamsReturns)
}

func TestParseBytesInvalid(t *testing.T) {
	_, err := Bytes([]byte("service {"))
	require.Error(t, err)
}

func TestHasServices(t *testing.T) {
	dir := t.TempDir()

	withService := filepath.Join(dir, "library.proto")
	require.NoError(t, os.WriteFile(withService, []byte(libraryProto), 0o644))

	withoutService := filepath.Join(dir, "messages.proto")
	require.NoError(t, os.WriteFile(withoutService, []byte(messagesOnlyProto), 0o644))

	assert.True(t, HasServices(withService))
	assert.False(t, HasServices(withoutService))
	assert.False(t, HasServices(filepath.Join(dir, "missing.proto")))
}
