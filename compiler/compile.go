// Package compiler turns .proto sources into file descriptors for the
// standalone batch mode, where no descriptor set is supplied by protoc.
package compiler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"github.com/bufbuild/protocompile/reporter"
	"github.com/roadrunner-server/errors"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// Compiler compiles proto sources against a set of import paths.
type Compiler struct {
	importPaths []string
	log         *zap.Logger
}

// New builds a Compiler. The directories of the compiled files are always
// added as import paths.
func New(importPaths []string, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}

	return &Compiler{importPaths: importPaths, log: log}
}

// Compile compiles the given proto files and returns the full transitive
// descriptor set (dependencies first) plus the names the inputs resolved to.
func (c *Compiler) Compile(ctx context.Context, files []string) ([]*desc.FileDescriptorProto, []string, error) {
	const op = errors.Op("compiler_compile")

	importPaths := c.buildImportPaths(files)

	relative, err := convertToRelativePaths(files, importPaths)
	if err != nil {
		return nil, nil, errors.E(op, err)
	}

	errorReporter := reporter.NewReporter(
		func(err reporter.ErrorWithPos) error {
			c.log.Error("proto compilation error",
				zap.String("file", err.GetPosition().Filename),
				zap.Int("line", err.GetPosition().Line),
				zap.String("message", err.Unwrap().Error()))
			return nil
		},
		func(err reporter.ErrorWithPos) {
			c.log.Warn("proto compilation warning",
				zap.String("file", err.GetPosition().Filename),
				zap.Int("line", err.GetPosition().Line),
				zap.String("message", err.Unwrap().Error()))
		},
	)

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			ImportPaths: importPaths,
			Accessor:    accessor(importPaths),
		}),
		Reporter: errorReporter,
	}

	compiled, err := compiler.Compile(ctx, relative...)
	if err != nil {
		return nil, nil, errors.E(op, err)
	}

	return flatten(compiled), relative, nil
}

// flatten converts the compiled files plus their transitive imports into
// FileDescriptorProtos, dependencies first, each file exactly once.
func flatten(files linker.Files) []*desc.FileDescriptorProto {
	out := make([]*desc.FileDescriptorProto, 0, len(files))
	seen := make(map[string]struct{})

	var walk func(fd protoreflect.FileDescriptor)
	walk = func(fd protoreflect.FileDescriptor) {
		if _, ok := seen[fd.Path()]; ok {
			return
		}
		seen[fd.Path()] = struct{}{}

		imports := fd.Imports()
		for i := 0; i < imports.Len(); i++ {
			walk(imports.Get(i).FileDescriptor)
		}

		out = append(out, protodesc.ToFileDescriptorProto(fd))
	}

	for _, f := range files {
		walk(f)
	}

	return out
}

func (c *Compiler) buildImportPaths(files []string) []string {
	pathsMap := make(map[string]struct{})

	for _, p := range c.importPaths {
		if p == "" {
			continue
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			c.log.Warn("cannot resolve import path", zap.String("path", p), zap.Error(err))
			continue
		}
		pathsMap[abs] = struct{}{}
	}

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		pathsMap[filepath.Dir(abs)] = struct{}{}
	}

	if cwd, err := os.Getwd(); err == nil {
		pathsMap[cwd] = struct{}{}
	}

	out := make([]string, 0, len(pathsMap))
	for p := range pathsMap {
		out = append(out, p)
	}
	sort.Strings(out)

	return out
}

func convertToRelativePaths(files []string, importPaths []string) ([]string, error) {
	out := make([]string, 0, len(files))

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}

		found := false
		for _, importPath := range importPaths {
			rel, rerr := filepath.Rel(importPath, abs)
			if rerr == nil && !filepath.IsAbs(rel) && !strings.HasPrefix(rel, "..") {
				out = append(out, filepath.ToSlash(rel))
				found = true
				break
			}
		}

		if !found {
			out = append(out, abs)
		}
	}

	return out, nil
}

// accessor reads imports off disk, letting the well-known types come from
// the standard-import resolver.
func accessor(importPaths []string) func(string) (io.ReadCloser, error) {
	return func(filename string) (io.ReadCloser, error) {
		if strings.Contains(filename, "google/protobuf/") {
			return nil, os.ErrNotExist
		}

		if data, err := os.ReadFile(filename); err == nil {
			return io.NopCloser(strings.NewReader(string(data))), nil
		}

		for _, importPath := range importPaths {
			full := filepath.Join(importPath, filename)
			if data, err := os.ReadFile(full); err == nil {
				return io.NopCloser(strings.NewReader(string(data))), nil
			}
		}

		return nil, os.ErrNotExist
	}
}
