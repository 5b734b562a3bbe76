package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/fieldpath"
	"github.com/spiral/protoc-gen-php-client/typemap"
	"go.uber.org/zap"
	desc "google.golang.org/protobuf/types/descriptorpb"
	"gopkg.in/yaml.v3"
)

// Legacy resolves configuration from the conventional sibling yaml files: a
// service config matching *_<version-dir>.yaml one directory above the proto
// file and a client config matching *_gapic.yaml next to it. Missing files
// degrade to defaults with a logged warning.
type Legacy struct {
	root string
	tm   *typemap.TypeMap
	log  *zap.Logger
}

type serviceConfig struct {
	Type          string `yaml:"type"`
	Name          string `yaml:"name"`
	Title         string `yaml:"title"`
	Documentation struct {
		Summary string `yaml:"summary"`
	} `yaml:"documentation"`
	Authentication struct {
		Rules []struct {
			Selector string `yaml:"selector"`
			Oauth    struct {
				CanonicalScopes string `yaml:"canonical_scopes"`
			} `yaml:"oauth"`
		} `yaml:"rules"`
	} `yaml:"authentication"`
}

type clientConfig struct {
	Interfaces []clientInterface `yaml:"interfaces"`
}

type clientInterface struct {
	Name    string         `yaml:"name"`
	Methods []clientMethod `yaml:"methods"`
}

type clientMethod struct {
	Name       string `yaml:"name"`
	Flattening struct {
		Groups []struct {
			Parameters []string `yaml:"parameters"`
		} `yaml:"groups"`
	} `yaml:"flattening"`
	RequestObjectMethod *bool `yaml:"request_object_method"`
	PageStreaming       struct {
		Request struct {
			PageSizeField string `yaml:"page_size_field"`
			TokenField    string `yaml:"token_field"`
		} `yaml:"request"`
		Response struct {
			TokenField     string `yaml:"token_field"`
			ResourcesField string `yaml:"resources_field"`
		} `yaml:"response"`
	} `yaml:"page_streaming"`
	RetryCodesName       string   `yaml:"retry_codes_name"`
	SampleCodeInitFields []string `yaml:"sample_code_init_fields"`
}

// NewLegacy constructs the file-based resolver rooted at the legacy config
// directory.
func NewLegacy(root string, tm *typemap.TypeMap, log *zap.Logger) *Legacy {
	if log == nil {
		log = zap.NewNop()
	}

	return &Legacy{root: root, tm: tm, log: log}
}

// Resolve implements Resolver.
func (l *Legacy) Resolve(file *desc.FileDescriptorProto) (*Configuration, error) {
	const op = errors.Op("config_legacy_resolve")

	protoDir := path.Dir(file.GetName())
	version := path.Base(protoDir)

	svcCfg := l.serviceConfig(file, protoDir, version)
	cliCfg := l.clientConfig(file, protoDir)

	cfg := &Configuration{
		Package:  file.GetPackage(),
		Title:    svcCfg.Title,
		Summary:  svcCfg.Documentation.Summary,
		Services: make(map[string]*ServiceOptions),
	}
	if cfg.Title == "" {
		cfg.Title = deriveTitle(file.GetPackage())
	}

	scopes := make([]string, 0)
	seen := make(map[string]struct{})
	for _, rule := range svcCfg.Authentication.Rules {
		for _, s := range splitTrim(rule.Oauth.CanonicalScopes, ",") {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			scopes = append(scopes, s)
		}
	}
	cfg.Scopes = scopes

	for _, svc := range file.GetService() {
		name := "." + file.GetPackage() + "." + svc.GetName()

		so := &ServiceOptions{Host: svcCfg.Name, Scopes: scopes}

		iface := findInterface(cliCfg, file.GetPackage()+"."+svc.GetName())
		if iface < 0 {
			l.log.Warn("no client config entry for service, using defaults",
				zap.String("service", svc.GetName()),
				zap.String("file", file.GetName()))
		}

		for _, m := range svc.GetMethod() {
			mo, err := l.method(cliCfg, iface, m)
			if err != nil {
				return nil, errors.E(op, err)
			}
			so.Methods = append(so.Methods, mo)
		}

		cfg.Services[name] = so
	}

	return cfg, nil
}

func (l *Legacy) method(cli *clientConfig, iface int, m *desc.MethodDescriptorProto) (*MethodOptions, error) {
	mo := &MethodOptions{
		Name:         m.GetName(),
		KeepOriginal: true,
		Samples:      map[string]string{},
	}

	var entry *clientMethod
	if iface >= 0 {
		for i := range cli.Interfaces[iface].Methods {
			if cli.Interfaces[iface].Methods[i].Name == m.GetName() {
				entry = &cli.Interfaces[iface].Methods[i]
				break
			}
		}
	}

	if entry == nil {
		mo.Paged, _ = InferPaging(l.tm, m)
		return mo, nil
	}

	samplePaths := make([]fieldpath.Path, 0, len(entry.SampleCodeInitFields))
	for _, raw := range entry.SampleCodeInitFields {
		chunks := strings.SplitN(raw, "=", 2)
		if len(chunks) != 2 {
			l.log.Warn("malformed sample init field, skipping",
				zap.String("method", m.GetName()),
				zap.String("sample", raw))
			continue
		}

		p, err := fieldpath.Parse(chunks[0])
		if err != nil {
			return nil, err
		}

		samplePaths = append(samplePaths, p)
		mo.Samples[p.String()] = chunks[1]
	}

	for _, group := range entry.Flattening.Groups {
		paths := make([]fieldpath.Path, 0, len(group.Parameters))
		for _, raw := range group.Parameters {
			p, err := fieldpath.Parse(raw)
			if err != nil {
				return nil, err
			}
			paths = append(paths, p)
		}

		merged := fieldpath.MergeSamples(fieldpath.Merge(paths), samplePaths)
		mo.Flattenings = append(mo.Flattenings, merged)
	}

	if entry.RequestObjectMethod != nil {
		mo.KeepOriginal = *entry.RequestObjectMethod
	}

	ps := entry.PageStreaming
	complete := ps.Request.PageSizeField != "" && ps.Request.TokenField != "" &&
		ps.Response.TokenField != "" && ps.Response.ResourcesField != ""
	declared := ps.Request.PageSizeField != "" || ps.Request.TokenField != "" ||
		ps.Response.TokenField != "" || ps.Response.ResourcesField != ""

	switch {
	case complete:
		mo.Paged = &PagedResponse{
			PageSizeField:      ps.Request.PageSizeField,
			PageTokenField:     ps.Request.TokenField,
			NextPageTokenField: ps.Response.TokenField,
			ResourcesField:     ps.Response.ResourcesField,
		}
	default:
		if declared {
			l.log.Warn("incomplete page_streaming block, falling back to shape inference",
				zap.String("method", m.GetName()))
		}
		mo.Paged, _ = InferPaging(l.tm, m)
	}

	switch entry.RetryCodesName {
	case "idempotent":
		mo.RetryCodes = DefaultRetryCodes
	case "", "non_idempotent":
	default:
		l.log.Warn("unknown retry codes name, no retry policy applied",
			zap.String("method", m.GetName()),
			zap.String("retry_codes_name", entry.RetryCodesName))
	}

	return mo, nil
}

func (l *Legacy) serviceConfig(file *desc.FileDescriptorProto, protoDir string, version string) *serviceConfig {
	out := &serviceConfig{}

	dir := filepath.Join(l.root, path.Dir(protoDir))
	match, ok := findMatch(dir, "*_"+version+".yaml")
	if !ok {
		l.log.Warn("service config not found, using defaults",
			zap.String("file", file.GetName()),
			zap.String("dir", dir),
			zap.String("pattern", "*_"+version+".yaml"))
		return out
	}

	if err := unmarshalFile(match, out); err != nil {
		l.log.Warn("cannot parse service config, using defaults",
			zap.String("path", match),
			zap.Error(err))
		return &serviceConfig{}
	}

	return out
}

func (l *Legacy) clientConfig(file *desc.FileDescriptorProto, protoDir string) *clientConfig {
	out := &clientConfig{}

	dir := filepath.Join(l.root, protoDir)
	match, ok := findMatch(dir, "*_gapic.yaml")
	if !ok {
		l.log.Warn("client config not found, using defaults",
			zap.String("file", file.GetName()),
			zap.String("dir", dir))
		return out
	}

	if err := unmarshalFile(match, out); err != nil {
		l.log.Warn("cannot parse client config, using defaults",
			zap.String("path", match),
			zap.Error(err))
		return &clientConfig{}
	}

	return out
}

func findInterface(cli *clientConfig, name string) int {
	for i := range cli.Interfaces {
		if cli.Interfaces[i].Name == name {
			return i
		}
	}

	return -1
}

// findMatch returns the first directory entry matching the wildcard pattern,
// compared case-insensitively. Directory order is the sorted ReadDir order.
func findMatch(dir string, pattern string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		ok, merr := path.Match(strings.ToLower(pattern), strings.ToLower(e.Name()))
		if merr == nil && ok {
			return filepath.Join(dir, e.Name()), true
		}
	}

	return "", false
}

func unmarshalFile(p string, out any) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, out)
}
