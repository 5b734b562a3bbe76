// protoc-gen-php-client generates PHP RPC client libraries from protobuf
// descriptors. It runs either as a protoc plugin, reading a serialized
// CodeGeneratorRequest from stdin, or as a standalone batch tool over .proto
// sources.
package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roadrunner-server/errors"
	"github.com/spf13/cobra"
	"github.com/spiral/protoc-gen-php-client/compiler"
	"github.com/spiral/protoc-gen-php-client/config"
	"github.com/spiral/protoc-gen-php-client/generator"
	"github.com/spiral/protoc-gen-php-client/parser"
	"github.com/spiral/protoc-gen-php-client/typemap"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	plugin "google.golang.org/protobuf/types/pluginpb"
)

type flags struct {
	input         string
	output        string
	testOutput    string
	source        string
	fallback      bool
	lite          bool
	cloudAuth     bool
	includeCommon bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "protoc-gen-php-client [proto files]",
		Short:         "Generates PHP RPC client libraries from protobuf descriptors",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	cmd.Flags().StringVar(&f.input, "input", "", "read the serialized request from a file instead of stdin")
	cmd.Flags().StringVar(&f.output, "output", "", "write source files into a directory tree instead of stdout")
	cmd.Flags().StringVar(&f.testOutput, "test-output", "", "write generated test files into a directory tree")
	cmd.Flags().StringVar(&f.source, "source", "", "legacy config root directory")
	cmd.Flags().BoolVar(&f.fallback, "fallback", false, "generate for the alternate transport")
	cmd.Flags().BoolVar(&f.lite, "lite", false, "target the lite protobuf runtime")
	cmd.Flags().BoolVar(&f.cloudAuth, "auth-google-cloud", false, "add cloud-auth convenience factories")
	cmd.Flags().BoolVar(&f.includeCommon, "include-google-common", false, "emit builders for the google common packages")

	return cmd
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	const op = errors.Op("protoc_gen_php_client_run")

	log, err := logger()
	if err != nil {
		return errors.E(op, err)
	}
	defer func() {
		_ = log.Sync()
	}()

	var req *plugin.CodeGeneratorRequest

	if len(args) > 0 {
		req, err = batchRequest(cmd, f, args, log)
	} else {
		req, err = pluginRequest(cmd, f)
	}
	if err != nil {
		return errors.E(op, err)
	}

	if f.fallback {
		return errors.E(op, errors.Str("fallback transport is not implemented"))
	}

	tm := typemap.New(req.GetProtoFile())
	reader := config.ExtensionReader{}
	selector := config.NewSelector(
		reader,
		config.NewAnnotations(reader, tm, log),
		config.NewLegacy(f.source, tm, log),
	)

	gen := generator.New(tm, selector, log, generator.Options{
		Lite:          f.lite,
		CloudAuth:     f.cloudAuth,
		IncludeCommon: f.includeCommon,
	})

	src, tests := generator.Assemble(gen.Generate(req))

	if f.output == "" {
		if err := emit(src, tests); err != nil {
			return errors.E(op, err)
		}
		return nil
	}

	if err := writeTree(f.output, src); err != nil {
		return errors.E(op, err)
	}
	if f.testOutput != "" {
		if err := writeTree(f.testOutput, tests); err != nil {
			return errors.E(op, err)
		}
	}

	return nil
}

// pluginRequest reads the serialized request and maps the comma-separated
// parameter tokens onto the command flags.
func pluginRequest(cmd *cobra.Command, f *flags) (*plugin.CodeGeneratorRequest, error) {
	in := io.Reader(os.Stdin)
	if f.input != "" {
		file, err := os.Open(f.input)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = file.Close()
		}()
		in = file
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	req := &plugin.CodeGeneratorRequest{}
	if err := proto.Unmarshal(data, req); err != nil {
		return nil, err
	}

	for _, token := range strings.Split(req.GetParameter(), ",") {
		if token == "" {
			continue
		}

		chunks := strings.SplitN(token, "=", 2)
		value := "true"
		if len(chunks) == 2 {
			value = chunks[1]
		}

		// input and help are command-line only, the request carrying the
		// tokens has already been read in full
		if chunks[0] == "input" || chunks[0] == "help" {
			continue
		}
		if cmd.Flags().Lookup(chunks[0]) == nil {
			continue
		}
		if err := cmd.Flags().Set(chunks[0], value); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// batchRequest compiles the given proto sources and generates for every
// input file that declares a service.
func batchRequest(cmd *cobra.Command, f *flags, args []string, log *zap.Logger) (*plugin.CodeGeneratorRequest, error) {
	comp := compiler.New([]string{f.source}, log)

	files, relative, err := comp.Compile(cmd.Context(), args)
	if err != nil {
		return nil, err
	}

	req := &plugin.CodeGeneratorRequest{ProtoFile: files}
	for i, arg := range args {
		if parser.HasServices(arg) {
			req.FileToGenerate = append(req.FileToGenerate, relative[i])
			continue
		}

		log.Warn("proto file declares no services, skipping", zap.String("file", arg))
	}

	return req, nil
}

func emit(src *plugin.CodeGeneratorResponse, tests *plugin.CodeGeneratorResponse) error {
	// single-response mode carries test artifacts under tests/ so consumers
	// can split them back out
	out := &plugin.CodeGeneratorResponse{SupportedFeatures: src.SupportedFeatures}
	out.File = append(out.File, src.File...)
	for _, file := range tests.File {
		out.File = append(out.File, &plugin.CodeGeneratorResponse_File{
			Name:    proto.String("tests/" + file.GetName()),
			Content: file.Content,
		})
	}

	data, err := proto.Marshal(out)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)
	return err
}

func writeTree(dir string, resp *plugin.CodeGeneratorResponse) error {
	for _, file := range resp.File {
		target := filepath.Join(dir, filepath.FromSlash(file.GetName()))

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(file.GetContent()), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// logger writes to stderr, stdout belongs to the response.
func logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}
