package config

import (
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// Selector picks the configuration strategy for one input file: annotations
// when the file's services carry the relevant option extensions, the legacy
// file convention otherwise.
type Selector struct {
	reader      OptionReader
	annotations *Annotations
	legacy      *Legacy
}

// NewSelector wires both strategies behind one Resolver.
func NewSelector(reader OptionReader, annotations *Annotations, legacy *Legacy) *Selector {
	return &Selector{reader: reader, annotations: annotations, legacy: legacy}
}

// Resolve implements Resolver.
func (s *Selector) Resolve(file *desc.FileDescriptorProto) (*Configuration, error) {
	if s.Annotated(file) {
		return s.annotations.Resolve(file)
	}

	return s.legacy.Resolve(file)
}

// Annotated reports whether any service in the file declares an explicit
// host or oauth scopes through option extensions.
func (s *Selector) Annotated(file *desc.FileDescriptorProto) bool {
	for _, svc := range file.GetService() {
		if host, ok := s.reader.DefaultHost(svc); ok && host != "" {
			return true
		}
		if _, ok := s.reader.OauthScopes(svc); ok {
			return true
		}
	}

	return false
}
