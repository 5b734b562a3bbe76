// Package parser scans raw .proto sources for service declarations, used by
// batch mode to decide which compiled files to generate clients for.
package parser

import (
	"bytes"
	"io"
	"os"

	pp "github.com/emicklei/proto"
)

// Service describes one declared gRPC service.
type Service struct {
	// Package defines the service namespace.
	Package string

	// Name defines the service name.
	Name string

	// Methods list.
	Methods []Method
}

// Method describes a singular RPC method.
type Method struct {
	// Name is a method name.
	Name string

	// StreamsRequest defines if the method accepts stream input.
	StreamsRequest bool

	// RequestType defines the message name (from the same package) of method input.
	RequestType string

	// StreamsReturns defines if method streams result.
	StreamsReturns bool

	// ReturnsType defines the message name (from the same package) of the method return value.
	ReturnsType string
}

// File parses the given proto file, imports are not followed.
func File(file string) ([]Service, error) {
	reader, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	return parse(reader)
}

// Bytes parses a raw proto definition.
func Bytes(data []byte) ([]Service, error) {
	return parse(bytes.NewBuffer(data))
}

// HasServices reports whether the proto file declares at least one service.
func HasServices(file string) bool {
	services, err := File(file)
	return err == nil && len(services) > 0
}

func parse(reader io.Reader) ([]Service, error) {
	proto, err := pp.NewParser(reader).Parse()
	if err != nil {
		return nil, err
	}

	pkg := parsePackage(proto)
	services := make([]Service, 0)

	pp.Walk(proto, pp.WithService(func(service *pp.Service) {
		services = append(services, Service{
			Package: pkg,
			Name:    service.Name,
			Methods: parseMethods(service),
		})
	}))

	return services, nil
}

func parsePackage(proto *pp.Proto) string {
	for _, e := range proto.Elements {
		if p, ok := e.(*pp.Package); ok {
			return p.Name
		}
	}

	return ""
}

func parseMethods(s *pp.Service) []Method {
	methods := make([]Method, 0)
	for _, e := range s.Elements {
		if m, ok := e.(*pp.RPC); ok {
			methods = append(methods, Method{
				Name:           m.Name,
				StreamsRequest: m.StreamsRequest,
				RequestType:    m.RequestType,
				StreamsReturns: m.StreamsReturns,
				ReturnsType:    m.ReturnsType,
			})
		}
	}

	return methods
}
