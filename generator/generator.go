// MIT License
//
// Copyright (c) 2022 SpiralScout
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package generator turns descriptors plus resolved configuration into PHP
// client classes, builder helpers and generated test classes.
package generator

import (
	"fmt"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/config"
	"github.com/spiral/protoc-gen-php-client/typemap"
	"go.uber.org/zap"
	desc "google.golang.org/protobuf/types/descriptorpb"
	plugin "google.golang.org/protobuf/types/pluginpb"
)

// Options are the run-wide generation switches carried from the CLI.
type Options struct {
	// Lite targets the lite protobuf runtime in generated code.
	Lite bool

	// CloudAuth adds the cloud-auth convenience factory to clients.
	CloudAuth bool

	// IncludeCommon emits builders for the google common proto packages.
	IncludeCommon bool
}

// Generator drives one batch run over a fixed descriptor snapshot.
type Generator struct {
	tm       *typemap.TypeMap
	resolver config.Resolver
	log      *zap.Logger
	opts     Options
}

// New constructs a Generator over an already-built type map.
func New(tm *typemap.TypeMap, resolver config.Resolver, log *zap.Logger, opts Options) *Generator {
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{tm: tm, resolver: resolver, log: log, opts: opts}
}

// Generate produces every artifact for the requested files, in input order.
// A failure while generating one service is logged and that service's
// artifacts are omitted; the run continues for the remaining services.
func (g *Generator) Generate(req *plugin.CodeGeneratorRequest) []*Artifact {
	byName := make(map[string]*desc.FileDescriptorProto, len(req.GetProtoFile()))
	for _, f := range req.GetProtoFile() {
		byName[f.GetName()] = f
	}

	var artifacts []*Artifact

	for _, target := range req.GetFileToGenerate() {
		file, ok := byName[target]
		if !ok {
			g.log.Warn("requested file not present in descriptor set", zap.String("file", target))
			continue
		}

		cfg, err := g.resolver.Resolve(file)
		if err != nil {
			g.log.Error("cannot resolve configuration, skipping file",
				zap.String("file", target),
				zap.Error(err))
			continue
		}

		for _, svc := range file.GetService() {
			arts, err := g.service(file, svc, cfg)
			if err != nil {
				g.log.Error("service generation failed, skipping service",
					zap.String("file", target),
					zap.String("service", svc.GetName()),
					zap.Error(err))
				continue
			}
			artifacts = append(artifacts, arts...)
		}
	}

	artifacts = append(artifacts, g.builders()...)

	if len(artifacts) == 0 {
		g.log.Warn("run produced no artifacts")
	}

	return artifacts
}

// service generates the client class and its test class. Panics raised while
// emitting are recovered here so one broken service cannot abort the run.
func (g *Generator) service(
	file *desc.FileDescriptorProto,
	svc *desc.ServiceDescriptorProto,
	cfg *config.Configuration,
) (arts []*Artifact, err error) {
	const op = errors.Op("generator_service")

	defer func() {
		if r := recover(); r != nil {
			arts = nil
			err = errors.E(op, errors.Str(fmt.Sprintf("panic while generating %s: %v", svc.GetName(), r)))
		}
	}()

	svcName := "." + file.GetPackage() + "." + svc.GetName()

	so := cfg.Services[svcName]
	if so == nil {
		so = &config.ServiceOptions{}
	}

	client, err := g.client(file, svc, svcName, cfg, so)
	if err != nil {
		return nil, errors.E(op, err)
	}

	test, err := g.clientTest(file, svc, svcName, so)
	if err != nil {
		return nil, errors.E(op, err)
	}

	return []*Artifact{client, test}, nil
}

// methodOptions returns the configured options for a method, or the
// documented defaults when the configuration carries no entry.
func (g *Generator) methodOptions(so *config.ServiceOptions, m *desc.MethodDescriptorProto) *config.MethodOptions {
	if mo := so.Method(m.GetName()); mo != nil {
		return mo
	}

	mo := &config.MethodOptions{
		Name:         m.GetName(),
		KeepOriginal: true,
		Samples:      map[string]string{},
	}
	mo.Paged, _ = config.InferPaging(g.tm, m)

	return mo
}
