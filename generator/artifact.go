package generator

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/spiral/protoc-gen-php-client/typemap"
	"google.golang.org/protobuf/proto"
	plugin "google.golang.org/protobuf/types/pluginpb"
)

// Kind separates regular source from generated test source.
type Kind int

const (
	// Source is a regular generated source artifact.
	Source Kind = iota

	// UnitTest is a generated test artifact.
	UnitTest
)

// Artifact is one named, packaged bundle of generated declarations.
type Artifact struct {
	// Name is the logical unit name, used as the file base name.
	Name string

	// Namespace is the PHP namespace all declarations live in.
	Namespace string

	Kind Kind

	// Decls are rendered top-level declarations.
	Decls []string
}

const header = `# Generated by protoc-gen-php-client. DO NOT EDIT!
# Licensed under the MIT license.`

var fileTmpl = template.Must(template.New("php_file").Parse(`<?php

{{.Header}}

declare(strict_types=1);

namespace {{.Namespace}};

{{.Body}}
`))

// Assemble serializes artifacts into two responses: regular source and test
// source. Artifact order is preserved so identical runs produce identical
// responses.
func Assemble(artifacts []*Artifact) (*plugin.CodeGeneratorResponse, *plugin.CodeGeneratorResponse) {
	src := &plugin.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(uint64(plugin.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)),
	}
	tests := &plugin.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(uint64(plugin.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)),
	}

	for _, a := range artifacts {
		file := &plugin.CodeGeneratorResponse_File{
			Name:    proto.String(fileName(a)),
			Content: proto.String(render(a)),
		}

		if a.Kind == UnitTest {
			tests.File = append(tests.File, file)
			continue
		}
		src.File = append(src.File, file)
	}

	return src, tests
}

func fileName(a *Artifact) string {
	dir := strings.ReplaceAll(a.Namespace, typemap.Separator, "/")
	if dir == "" {
		return a.Name + ".php"
	}

	return dir + "/" + a.Name + ".php"
}

func render(a *Artifact) string {
	buf := bytes.NewBuffer(nil)

	// template input is generated content, a failure here is a bug
	err := fileTmpl.Execute(buf, struct {
		Header    string
		Namespace string
		Body      string
	}{
		Header:    header,
		Namespace: a.Namespace,
		Body:      strings.Join(a.Decls, "\n\n"),
	})
	if err != nil {
		panic(err)
	}

	return buf.String()
}
