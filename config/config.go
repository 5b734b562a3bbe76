// Package config resolves per-service generation configuration from either
// descriptor-option annotations or the legacy side-channel yaml convention.
package config

import (
	"strings"

	"github.com/spiral/protoc-gen-php-client/fieldpath"
	"github.com/spiral/protoc-gen-php-client/php"
	"google.golang.org/grpc/codes"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// DefaultRetryCodes is applied to http-bound methods without an explicit
// retry policy.
var DefaultRetryCodes = []codes.Code{codes.Unavailable, codes.DeadlineExceeded}

// Configuration is the resolved per-file generation configuration. Built
// once, read-only afterwards.
type Configuration struct {
	// Package is the proto package of the source file.
	Package string

	// branding
	Title            string
	Summary          string
	DocumentationURL string

	// Scopes are file-wide fallback auth scopes.
	Scopes []string

	// Services maps fully qualified service names to their options.
	Services map[string]*ServiceOptions
}

// ServiceOptions carries per-service generation settings.
type ServiceOptions struct {
	Host    string
	Scopes  []string
	Methods []*MethodOptions
}

// MethodOptions carries per-method generation settings.
type MethodOptions struct {
	Name string

	// Flattenings holds one path list per flattened signature.
	Flattenings [][]fieldpath.Path

	// KeepOriginal emits the full-request variant alongside flattened ones.
	KeepOriginal bool

	Paged       *PagedResponse
	LongRunning *LongRunningResponse

	RetryCodes []codes.Code

	// Samples maps a textual path onto the literal substituted for it.
	Samples map[string]string
}

// PagedResponse names the four fields that make a method pageable.
type PagedResponse struct {
	PageSizeField      string
	PageTokenField     string
	NextPageTokenField string
	ResourcesField     string
}

// LongRunningResponse names the eventual result and metadata types of a
// long-running method, fully qualified.
type LongRunningResponse struct {
	ResponseType string
	MetadataType string
}

// Method finds the options entry for a method name, nil when absent.
func (s *ServiceOptions) Method(name string) *MethodOptions {
	for _, m := range s.Methods {
		if m.Name == name {
			return m
		}
	}

	return nil
}

// Resolver is one configuration strategy, selected once per input file.
type Resolver interface {
	Resolve(file *desc.FileDescriptorProto) (*Configuration, error)
}

// deriveTitle turns "google.example.library.v1" into "Library API".
func deriveTitle(pkg string) string {
	chunks := strings.Split(pkg, ".")

	last := ""
	for _, c := range chunks {
		if c == "" || isVersion(c) {
			continue
		}
		last = c
	}
	if last == "" {
		return "API"
	}

	return php.Identifier(last, "") + " API"
}

func isVersion(chunk string) bool {
	if len(chunk) < 2 || chunk[0] != 'v' {
		return false
	}
	for _, r := range chunk[1:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') {
			return false
		}
	}

	return chunk[1] >= '0' && chunk[1] <= '9'
}

func splitTrim(s string, sep string) []string {
	out := make([]string, 0)
	for _, c := range strings.Split(s, sep) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}

	return out
}

// qualify resolves a possibly package-relative type name into the fully
// qualified dotted form.
func qualify(name string, pkg string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, ".") {
		return name
	}
	if strings.Contains(name, ".") {
		return "." + name
	}
	if pkg == "" {
		return "." + name
	}

	return "." + pkg + "." + name
}
