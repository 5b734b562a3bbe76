package generator

import (
	"fmt"
	"strings"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/config"
	"github.com/spiral/protoc-gen-php-client/php"
	"github.com/spiral/protoc-gen-php-client/typemap"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// clientTest emits the generated PHPUnit class for one service: a surface
// check per emitted method variant plus a request-construction check per RPC.
func (g *Generator) clientTest(
	file *desc.FileDescriptorProto,
	svc *desc.ServiceDescriptorProto,
	svcName string,
	so *config.ServiceOptions,
) (*Artifact, error) {
	const op = errors.Op("generator_client_test")

	ns, err := g.tm.Namespace(svcName)
	if err != nil {
		return nil, errors.E(op, err)
	}

	class, err := g.tm.ClassName(svcName)
	if err != nil {
		return nil, errors.E(op, err)
	}
	class += "Client"

	clientRef := `\` + ns + typemap.Separator + class

	b := &strings.Builder{}
	fmt.Fprintf(b, "final class %sTest extends \\PHPUnit\\Framework\\TestCase\n{\n", class)

	for _, m := range svc.GetMethod() {
		mo := g.methodOptions(so, m)

		for _, name := range variantNames(m, mo) {
			fmt.Fprintf(b, "    public function test%sExists(): void\n", php.Identifier(name, ""))
			b.WriteString("    {\n")
			fmt.Fprintf(b, "        self::assertTrue(method_exists(%s::class, '%s'));\n", clientRef, name)
			b.WriteString("    }\n\n")
		}

		reqClass, qerr := g.tm.QualifiedName(m.GetInputType())
		if qerr != nil {
			return nil, errors.E(op, qerr)
		}

		fmt.Fprintf(b, "    public function test%sRequest(): void\n", php.Identifier(m.GetName(), ""))
		b.WriteString("    {\n")
		fmt.Fprintf(b, "        self::assertInstanceOf(\\%s::class, new \\%s());\n", reqClass, reqClass)
		b.WriteString("    }\n\n")
	}

	b.WriteString("}")

	return &Artifact{
		Name:      class + "Test",
		Namespace: ns,
		Kind:      UnitTest,
		Decls:     []string{b.String()},
	}, nil
}
