package generator

import (
	"fmt"
	"strings"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/config"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// runtime classes generated code links against
const (
	runtimeBase          = `\Spiral\Grpc\Client\BaseClient`
	runtimeUnaryCall     = `\Spiral\Grpc\Client\Call\UnaryCall`
	runtimePageStream    = `\Spiral\Grpc\Client\Call\PageStream`
	runtimeOperation     = `\Spiral\Grpc\Client\Call\OperationHandle`
	runtimeBidiStream    = `\Spiral\Grpc\Client\Call\BidiStream`
	runtimeClientStream  = `\Spiral\Grpc\Client\Call\ClientStream`
	runtimeServerStream  = `\Spiral\Grpc\Client\Call\ServerStream`
	runtimeLiteBase      = `\Spiral\Grpc\Client\LiteClient`
	runtimeCloudAuthSelf = `withGoogleCloudAuth`
)

func (g *Generator) client(
	file *desc.FileDescriptorProto,
	svc *desc.ServiceDescriptorProto,
	svcName string,
	cfg *config.Configuration,
	so *config.ServiceOptions,
) (*Artifact, error) {
	const op = errors.Op("generator_client")

	ns, err := g.tm.Namespace(svcName)
	if err != nil {
		return nil, errors.E(op, err)
	}

	class, err := g.tm.ClassName(svcName)
	if err != nil {
		return nil, errors.E(op, err)
	}
	class += "Client"

	b := &strings.Builder{}

	g.classDoc(b, svcName, cfg)

	base := runtimeBase
	if g.opts.Lite {
		base = runtimeLiteBase
	}
	fmt.Fprintf(b, "final class %s extends %s\n{\n", class, base)

	g.classConstants(b, svc, so)

	if g.opts.CloudAuth && so.Host != "" {
		g.cloudAuthFactory(b)
	}

	for _, m := range svc.GetMethod() {
		mo := g.methodOptions(so, m)

		if err := g.methodVariants(b, file, svcName, m, mo); err != nil {
			return nil, errors.E(op, err)
		}
	}

	b.WriteString("}")

	return &Artifact{
		Name:      class,
		Namespace: ns,
		Kind:      Source,
		Decls:     []string{b.String()},
	}, nil
}

func (g *Generator) classDoc(b *strings.Builder, svcName string, cfg *config.Configuration) {
	b.WriteString("/**\n")
	fmt.Fprintf(b, " * Generated client for %s.\n", cfg.Title)

	if doc := g.tm.Comment(svcName); doc != "" {
		b.WriteString(" *\n")
		writeDocLines(b, " * ", doc)
	}
	if cfg.Summary != "" {
		b.WriteString(" *\n")
		writeDocLines(b, " * ", cfg.Summary)
	}
	if cfg.DocumentationURL != "" {
		b.WriteString(" *\n")
		fmt.Fprintf(b, " * @see %s\n", cfg.DocumentationURL)
	}

	b.WriteString(" */\n")
}

func (g *Generator) classConstants(b *strings.Builder, svc *desc.ServiceDescriptorProto, so *config.ServiceOptions) {
	if so.Host != "" {
		b.WriteString("    /** Default service host. */\n")
		fmt.Fprintf(b, "    public const SERVICE_HOST = '%s';\n\n", so.Host)
	}

	if len(so.Scopes) > 0 {
		b.WriteString("    /** Default auth scopes. */\n")
		b.WriteString("    public const SERVICE_SCOPES = [\n")
		for _, s := range so.Scopes {
			fmt.Fprintf(b, "        '%s',\n", s)
		}
		b.WriteString("    ];\n\n")
	}

	retrying := make([]*config.MethodOptions, 0)
	for _, m := range svc.GetMethod() {
		if mo := so.Method(m.GetName()); mo != nil && len(mo.RetryCodes) > 0 {
			retrying = append(retrying, mo)
		}
	}
	if len(retrying) > 0 {
		b.WriteString("    /** Status codes retried per method. */\n")
		b.WriteString("    private const RETRY_CODES = [\n")
		for _, mo := range retrying {
			names := make([]string, len(mo.RetryCodes))
			nums := make([]string, len(mo.RetryCodes))
			for i, c := range mo.RetryCodes {
				names[i] = c.String()
				nums[i] = fmt.Sprintf("%d", uint32(c))
			}
			fmt.Fprintf(b, "        '%s' => [%s], // %s\n", mo.Name, strings.Join(nums, ", "), strings.Join(names, ", "))
		}
		b.WriteString("    ];\n\n")
	}
}

func (g *Generator) cloudAuthFactory(b *strings.Builder) {
	b.WriteString("    /**\n")
	b.WriteString("     * Creates a client authenticated through the ambient cloud credentials.\n")
	b.WriteString("     */\n")
	fmt.Fprintf(b, "    public static function %s(): self\n", runtimeCloudAuthSelf)
	b.WriteString("    {\n")
	b.WriteString("        return self::createWithScopes(self::SERVICE_HOST, self::SERVICE_SCOPES);\n")
	b.WriteString("    }\n\n")
}

// writeDocLines emits a comment block line by line under the given prefix.
func writeDocLines(b *strings.Builder, prefix string, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			b.WriteString(strings.TrimRight(prefix, " ") + "\n")
			continue
		}
		b.WriteString(prefix + line + "\n")
	}
}
