package config

import (
	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/fieldpath"
	"github.com/spiral/protoc-gen-php-client/typemap"
	"go.uber.org/zap"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

const operationType = ".google.longrunning.Operation"

// Annotations resolves configuration from descriptor-option extensions.
type Annotations struct {
	reader OptionReader
	tm     *typemap.TypeMap
	log    *zap.Logger
}

// NewAnnotations constructs the annotation-based resolver.
func NewAnnotations(reader OptionReader, tm *typemap.TypeMap, log *zap.Logger) *Annotations {
	if log == nil {
		log = zap.NewNop()
	}

	return &Annotations{reader: reader, tm: tm, log: log}
}

// Resolve implements Resolver.
func (a *Annotations) Resolve(file *desc.FileDescriptorProto) (*Configuration, error) {
	const op = errors.Op("config_annotations_resolve")

	cfg := &Configuration{
		Package:  file.GetPackage(),
		Title:    deriveTitle(file.GetPackage()),
		Services: make(map[string]*ServiceOptions),
	}

	for _, svc := range file.GetService() {
		name := "." + file.GetPackage() + "." + svc.GetName()

		so := &ServiceOptions{}
		so.Host, _ = a.reader.DefaultHost(svc)
		so.Scopes, _ = a.reader.OauthScopes(svc)

		for _, m := range svc.GetMethod() {
			mo, err := a.method(file, m)
			if err != nil {
				return nil, errors.E(op, err)
			}
			so.Methods = append(so.Methods, mo)
		}

		cfg.Services[name] = so
	}

	return cfg, nil
}

func (a *Annotations) method(file *desc.FileDescriptorProto, m *desc.MethodDescriptorProto) (*MethodOptions, error) {
	mo := &MethodOptions{
		Name:         m.GetName(),
		KeepOriginal: true,
		Samples:      map[string]string{},
	}

	if sigs, ok := a.reader.MethodSignatures(m); ok {
		for _, sig := range sigs {
			group := make([]fieldpath.Path, 0)
			for _, raw := range splitTrim(sig, ",") {
				p, err := fieldpath.Parse(raw)
				if err != nil {
					return nil, err
				}
				group = append(group, p)
			}
			mo.Flattenings = append(mo.Flattenings, fieldpath.Merge(group))
		}
	}

	if m.GetOutputType() == operationType {
		resp, meta, ok := a.reader.OperationInfo(m)
		if !ok {
			a.log.Warn("long-running method without operation_info, treating as unary",
				zap.String("method", m.GetName()),
				zap.String("file", file.GetName()))
		} else {
			mo.LongRunning = &LongRunningResponse{
				ResponseType: qualify(resp, file.GetPackage()),
				MetadataType: qualify(meta, file.GetPackage()),
			}
		}
	}

	if mo.LongRunning == nil {
		mo.Paged, _ = InferPaging(a.tm, m)
	}

	if a.reader.HasHTTPRule(m) && mo.RetryCodes == nil {
		mo.RetryCodes = DefaultRetryCodes
	}

	return mo, nil
}
