package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	plugin "google.golang.org/protobuf/types/pluginpb"
)

func TestPluginRequestParameterMapping(t *testing.T) {
	req := &plugin.CodeGeneratorRequest{
		Parameter: proto.String("lite,auth-google-cloud,source=/cfg,input=/elsewhere,help,unknown=x"),
	}
	data, err := proto.Marshal(req)
	require.NoError(t, err)

	in := filepath.Join(t.TempDir(), "request.bin")
	require.NoError(t, os.WriteFile(in, data, 0o644))

	cmd := newCommand()
	f := &flags{input: in}

	got, err := pluginRequest(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, req.GetParameter(), got.GetParameter())

	lite, err := cmd.Flags().GetBool("lite")
	require.NoError(t, err)
	assert.True(t, lite)

	auth, err := cmd.Flags().GetBool("auth-google-cloud")
	require.NoError(t, err)
	assert.True(t, auth)

	source, err := cmd.Flags().GetString("source")
	require.NoError(t, err)
	assert.Equal(t, "/cfg", source)

	// input and help tokens are command-line only, the request carrying
	// them has already been read
	redirected, err := cmd.Flags().GetString("input")
	require.NoError(t, err)
	assert.Empty(t, redirected)
	assert.Equal(t, in, f.input)
}

func TestPluginRequestMalformed(t *testing.T) {
	in := filepath.Join(t.TempDir(), "request.bin")
	require.NoError(t, os.WriteFile(in, []byte("not a request"), 0o644))

	_, err := pluginRequest(newCommand(), &flags{input: in})
	require.Error(t, err)
}
