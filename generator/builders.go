package generator

import (
	"fmt"
	"strings"

	"github.com/spiral/protoc-gen-php-client/php"
)

// packages skipped by the builder emitter unless include-google-common is set
var commonPrefixes = []string{
	".google.protobuf.",
	".google.api.",
	".google.rpc.",
	".google.longrunning.",
}

// builders emits one construction helper per message type known to the type
// map, grouped into a Builders class per namespace. Well-known wrapper types
// and synthetic map entries are skipped.
func (g *Generator) builders() []*Artifact {
	order := make([]string, 0)
	grouped := make(map[string][]string)

	for _, name := range g.tm.Messages() {
		if php.IsWrapper(name) || g.tm.IsMapEntry(name) {
			continue
		}
		if !g.opts.IncludeCommon && isCommon(name) {
			continue
		}

		ns, err := g.tm.Namespace(name)
		if err != nil {
			continue
		}

		if _, ok := grouped[ns]; !ok {
			order = append(order, ns)
		}
		grouped[ns] = append(grouped[ns], name)
	}

	artifacts := make([]*Artifact, 0, len(order))
	for _, ns := range order {
		b := &strings.Builder{}

		b.WriteString("/**\n")
		b.WriteString(" * Construction helpers for the message types of this package.\n")
		b.WriteString(" */\n")
		b.WriteString("final class Builders\n{\n")

		for _, name := range grouped[ns] {
			class, err := g.tm.ClassName(name)
			if err != nil {
				continue
			}
			qualifiedName, err := g.tm.QualifiedName(name)
			if err != nil {
				continue
			}

			fmt.Fprintf(b, "    /** Builds \\%s from an initializer array. */\n", qualifiedName)
			fmt.Fprintf(b, "    public static function %s(array $data = []): \\%s\n", class, qualifiedName)
			b.WriteString("    {\n")
			fmt.Fprintf(b, "        return new \\%s($data);\n", qualifiedName)
			b.WriteString("    }\n\n")
		}

		b.WriteString("}")

		artifacts = append(artifacts, &Artifact{
			Name:      "Builders",
			Namespace: ns,
			Kind:      Source,
			Decls:     []string{b.String()},
		})
	}

	return artifacts
}

func isCommon(name string) bool {
	for _, p := range commonPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}

	return false
}
