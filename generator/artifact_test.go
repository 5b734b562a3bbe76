package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	plugin "google.golang.org/protobuf/types/pluginpb"
)

func TestAssembleSplitsKinds(t *testing.T) {
	artifacts := []*Artifact{
		{
			Name:      "LibraryServiceClient",
			Namespace: `Example\Library\V1`,
			Kind:      Source,
			Decls:     []string{"final class LibraryServiceClient\n{\n}"},
		},
		{
			Name:      "LibraryServiceClientTest",
			Namespace: `Example\Library\V1`,
			Kind:      UnitTest,
			Decls:     []string{"final class LibraryServiceClientTest\n{\n}"},
		},
	}

	src, tests := Assemble(artifacts)

	require.Len(t, src.GetFile(), 1)
	require.Len(t, tests.GetFile(), 1)

	assert.Equal(t, uint64(plugin.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL), src.GetSupportedFeatures())
	assert.Equal(t, uint64(plugin.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL), tests.GetSupportedFeatures())

	f := src.GetFile()[0]
	assert.Equal(t, "Example/Library/V1/LibraryServiceClient.php", f.GetName())
	assert.Contains(t, f.GetContent(), "<?php\n")
	assert.Contains(t, f.GetContent(), "# Generated by protoc-gen-php-client. DO NOT EDIT!")
	assert.Contains(t, f.GetContent(), "declare(strict_types=1);")
	assert.Contains(t, f.GetContent(), `namespace Example\Library\V1;`)
	assert.Contains(t, f.GetContent(), "final class LibraryServiceClient")

	assert.Equal(t, "Example/Library/V1/LibraryServiceClientTest.php", tests.GetFile()[0].GetName())
}

func TestAssembleEmptyNamespace(t *testing.T) {
	src, _ := Assemble([]*Artifact{{Name: "Builders", Kind: Source, Decls: []string{"final class Builders\n{\n}"}}})

	require.Len(t, src.GetFile(), 1)
	assert.Equal(t, "Builders.php", src.GetFile()[0].GetName())
}

func TestGeneratedTestClass(t *testing.T) {
	a := findArtifact(t, generate(t, libraryConfig(), Options{}), "LibraryServiceClientTest")

	require.Len(t, a.Decls, 1)
	content := a.Decls[0]

	assert.Contains(t, content, `final class LibraryServiceClientTest extends \PHPUnit\Framework\TestCase`)
	assert.Contains(t, content, "public function testCreateShelfExists(): void")
	assert.Contains(t, content, "public function testCreateShelfWithRequestExists(): void")
	assert.Contains(t, content,
		`self::assertTrue(method_exists(\Example\Library\V1\LibraryServiceClient::class, 'createShelf'));`)
	assert.Contains(t, content,
		`self::assertInstanceOf(\Example\Library\V1\CreateShelfRequest::class, new \Example\Library\V1\CreateShelfRequest());`)
}
