package config

import (
	longrunningpb "cloud.google.com/go/longrunning/autogen/longrunningpb"
	"google.golang.org/genproto/googleapis/api/annotations"
	"google.golang.org/protobuf/proto"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// OptionReader is the statically-typed view over descriptor-option
// extensions: every accessor is a try-read with an absent-value fallback.
type OptionReader interface {
	// DefaultHost returns the service-level default host, if declared.
	DefaultHost(s *desc.ServiceDescriptorProto) (string, bool)

	// OauthScopes returns the service-level oauth scopes, if declared.
	OauthScopes(s *desc.ServiceDescriptorProto) ([]string, bool)

	// MethodSignatures returns the declared flattened signatures, each a
	// comma-separated list of field paths.
	MethodSignatures(m *desc.MethodDescriptorProto) ([]string, bool)

	// OperationInfo returns the declared long-running response and metadata
	// type names, possibly package-relative.
	OperationInfo(m *desc.MethodDescriptorProto) (response string, metadata string, ok bool)

	// HasHTTPRule reports whether the method carries an http binding.
	HasHTTPRule(m *desc.MethodDescriptorProto) bool
}

// ExtensionReader reads the google.api and google.longrunning extensions off
// descriptor options.
type ExtensionReader struct{}

// DefaultHost implements OptionReader.
func (ExtensionReader) DefaultHost(s *desc.ServiceDescriptorProto) (string, bool) {
	opts := s.GetOptions()
	if opts == nil || !proto.HasExtension(opts, annotations.E_DefaultHost) {
		return "", false
	}

	host, _ := proto.GetExtension(opts, annotations.E_DefaultHost).(string)
	return host, host != ""
}

// OauthScopes implements OptionReader.
func (ExtensionReader) OauthScopes(s *desc.ServiceDescriptorProto) ([]string, bool) {
	opts := s.GetOptions()
	if opts == nil || !proto.HasExtension(opts, annotations.E_OauthScopes) {
		return nil, false
	}

	raw, _ := proto.GetExtension(opts, annotations.E_OauthScopes).(string)
	if raw == "" {
		return nil, false
	}

	return splitTrim(raw, ","), true
}

// MethodSignatures implements OptionReader.
func (ExtensionReader) MethodSignatures(m *desc.MethodDescriptorProto) ([]string, bool) {
	opts := m.GetOptions()
	if opts == nil || !proto.HasExtension(opts, annotations.E_MethodSignature) {
		return nil, false
	}

	sigs, _ := proto.GetExtension(opts, annotations.E_MethodSignature).([]string)
	return sigs, len(sigs) > 0
}

// OperationInfo implements OptionReader.
func (ExtensionReader) OperationInfo(m *desc.MethodDescriptorProto) (string, string, bool) {
	opts := m.GetOptions()
	if opts == nil || !proto.HasExtension(opts, longrunningpb.E_OperationInfo) {
		return "", "", false
	}

	info, _ := proto.GetExtension(opts, longrunningpb.E_OperationInfo).(*longrunningpb.OperationInfo)
	if info == nil {
		return "", "", false
	}

	return info.GetResponseType(), info.GetMetadataType(), true
}

// HasHTTPRule implements OptionReader.
func (ExtensionReader) HasHTTPRule(m *desc.MethodDescriptorProto) bool {
	opts := m.GetOptions()
	if opts == nil || !proto.HasExtension(opts, annotations.E_Http) {
		return false
	}

	rule, _ := proto.GetExtension(opts, annotations.E_Http).(*annotations.HttpRule)
	return rule != nil
}
