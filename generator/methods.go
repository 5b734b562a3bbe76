package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/config"
	"github.com/spiral/protoc-gen-php-client/fieldpath"
	"github.com/spiral/protoc-gen-php-client/php"
	desc "google.golang.org/protobuf/types/descriptorpb"
)

// shape is the generation form of one RPC method. Shapes are mutually
// exclusive, classified in priority order.
type shape int

const (
	shapeUnary shape = iota
	shapePaged
	shapeLongRunning
	shapeBidi
	shapeClientStream
	shapeServerStream
)

// classify determines the method shape: long-running wins over paged, paged
// over the streaming forms, unary is the default.
func classify(m *desc.MethodDescriptorProto, mo *config.MethodOptions) shape {
	switch {
	case mo.LongRunning != nil:
		return shapeLongRunning
	case mo.Paged != nil && !m.GetClientStreaming() && !m.GetServerStreaming():
		return shapePaged
	case m.GetClientStreaming() && m.GetServerStreaming():
		return shapeBidi
	case m.GetClientStreaming():
		return shapeClientStream
	case m.GetServerStreaming():
		return shapeServerStream
	default:
		return shapeUnary
	}
}

// variant is one emitted method declaration: either a flattened signature or
// the original full-request form.
type variant struct {
	name      string
	flattened *fieldpath.Flattening
}

func (g *Generator) methodVariants(
	b *strings.Builder,
	file *desc.FileDescriptorProto,
	svcName string,
	m *desc.MethodDescriptorProto,
	mo *config.MethodOptions,
) error {
	const op = errors.Op("generator_method")

	sh := classify(m, mo)
	names := variantNames(m, mo)

	for i, group := range mo.Flattenings {
		flat, err := fieldpath.Flatten(g.tm, m.GetInputType(), group, mo.Samples)
		if err != nil {
			return errors.E(op, err)
		}

		if err := g.emitVariant(b, svcName, m, mo, sh, variant{name: names[i], flattened: flat}); err != nil {
			return errors.E(op, err)
		}
	}

	if mo.KeepOriginal || len(mo.Flattenings) == 0 {
		if err := g.emitVariant(b, svcName, m, mo, sh, variant{name: names[len(names)-1]}); err != nil {
			return errors.E(op, err)
		}
	}

	return nil
}

// variantNames lists the emitted method names in declaration order: one per
// flattened signature, then the full-request form when it is kept. PHP has no
// overloading, so later signatures take an ordinal suffix and the
// full-request form a WithRequest suffix.
func variantNames(m *desc.MethodDescriptorProto, mo *config.MethodOptions) []string {
	base := php.LowerCamel(m.GetName())

	names := make([]string, 0, len(mo.Flattenings)+1)
	for i := range mo.Flattenings {
		if i == 0 {
			names = append(names, base)
			continue
		}
		names = append(names, fmt.Sprintf("%s%d", base, i+1))
	}

	if mo.KeepOriginal || len(mo.Flattenings) == 0 {
		if len(mo.Flattenings) > 0 {
			base += "WithRequest"
		}
		names = append(names, base)
	}

	return names
}

func (g *Generator) emitVariant(
	b *strings.Builder,
	svcName string,
	m *desc.MethodDescriptorProto,
	mo *config.MethodOptions,
	sh shape,
	v variant,
) error {
	const op = errors.Op("generator_method_variant")

	reqClass, err := g.tm.QualifiedName(m.GetInputType())
	if err != nil {
		return errors.E(op, err)
	}
	reqClass = `\` + reqClass

	respClass := `\` + strings.TrimPrefix(m.GetOutputType(), ".")
	if sh != shapeLongRunning {
		q, qerr := g.tm.QualifiedName(m.GetOutputType())
		if qerr != nil {
			return errors.E(op, qerr)
		}
		respClass = `\` + q
	}

	fullMethod := "/" + strings.TrimPrefix(svcName, ".") + "/" + m.GetName()

	ret, retDoc, err := g.returnType(m, mo, sh, reqClass, respClass)
	if err != nil {
		return errors.E(op, err)
	}

	// streaming request sinks take no request in the full-request form
	noRequest := v.flattened == nil && (sh == shapeBidi || sh == shapeClientStream)

	g.variantDoc(b, svcName, m, mo, v, reqClass, retDoc, noRequest)

	fmt.Fprintf(b, "    public function %s(%s): %s\n    {\n", v.name, signature(v, reqClass, noRequest), ret)

	if v.flattened != nil {
		fmt.Fprintf(b, "        $request = %s;\n\n", indentTail(v.flattened.Request, "        "))
	}

	switch sh {
	case shapeUnary:
		fmt.Fprintf(b, "        return $this->invoke('%s', $request, %s::class, %s);\n",
			fullMethod, respClass, retryExpr(mo))

	case shapePaged:
		setSize := "set" + php.Identifier(mo.Paged.PageSizeField, "")
		setToken := "set" + php.Identifier(mo.Paged.PageTokenField, "")
		getToken := "get" + php.Identifier(mo.Paged.NextPageTokenField, "")
		getItems := "get" + php.Identifier(mo.Paged.ResourcesField, "")

		fmt.Fprintf(b, "        return new %s(\n", runtimePageStream)
		b.WriteString("            $request,\n")
		fmt.Fprintf(b, "            fn (%s $r, int $size): %s => $this->invoke('%s', $r->%s($size), %s::class, %s),\n",
			reqClass, runtimeUnaryCall, fullMethod, setSize, respClass, retryExpr(mo))
		fmt.Fprintf(b, "            fn (%s $r, string $token): %s => $r->%s($token),\n",
			reqClass, reqClass, setToken)
		fmt.Fprintf(b, "            fn (%s $resp): array => [$resp->%s(), $resp->%s()],\n",
			respClass, getItems, getToken)
		b.WriteString("        );\n")

	case shapeLongRunning:
		result, qerr := g.tm.QualifiedName(mo.LongRunning.ResponseType)
		if qerr != nil {
			return errors.E(op, qerr)
		}
		meta, qerr := g.tm.QualifiedName(mo.LongRunning.MetadataType)
		if qerr != nil {
			return errors.E(op, qerr)
		}

		fmt.Fprintf(b, "        return $this->operation('%s', $request, \\%s::class, \\%s::class, %s);\n",
			fullMethod, result, meta, retryExpr(mo))

	case shapeServerStream:
		fmt.Fprintf(b, "        return $this->serverStream('%s', $request, %s::class);\n",
			fullMethod, respClass)

	case shapeClientStream, shapeBidi:
		open := "clientStream"
		if sh == shapeBidi {
			open = "bidiStream"
		}

		if noRequest {
			fmt.Fprintf(b, "        return $this->%s('%s', %s::class);\n", open, fullMethod, respClass)
			break
		}

		fmt.Fprintf(b, "        $stream = $this->%s('%s', %s::class);\n", open, fullMethod, respClass)
		b.WriteString("        $stream->send($request);\n\n")
		b.WriteString("        return $stream;\n")
	}

	b.WriteString("    }\n\n")

	return nil
}

func (g *Generator) returnType(
	m *desc.MethodDescriptorProto,
	mo *config.MethodOptions,
	sh shape,
	reqClass string,
	respClass string,
) (string, string, error) {
	switch sh {
	case shapePaged:
		elem, err := g.resourceDocType(m.GetOutputType(), mo.Paged.ResourcesField)
		if err != nil {
			return "", "", err
		}
		return runtimePageStream, fmt.Sprintf("%s<%s>", runtimePageStream, elem), nil

	case shapeLongRunning:
		result, err := g.tm.QualifiedName(mo.LongRunning.ResponseType)
		if err != nil {
			return "", "", err
		}
		return runtimeOperation, fmt.Sprintf(`%s<\%s>`, runtimeOperation, result), nil

	case shapeBidi:
		return runtimeBidiStream, fmt.Sprintf("%s<%s, %s>", runtimeBidiStream, reqClass, respClass), nil

	case shapeClientStream:
		return runtimeClientStream, fmt.Sprintf("%s<%s, %s>", runtimeClientStream, reqClass, respClass), nil

	case shapeServerStream:
		return runtimeServerStream, fmt.Sprintf("%s<%s>", runtimeServerStream, respClass), nil

	default:
		return runtimeUnaryCall, fmt.Sprintf("%s<%s>", runtimeUnaryCall, respClass), nil
	}
}

// resourceDocType resolves the element type of the paged resources field.
func (g *Generator) resourceDocType(outType string, field string) (string, error) {
	const op = errors.Op("generator_resource_type")

	f, ok := g.tm.Field(outType, field)
	if !ok {
		return "", errors.E(op, errors.Str(fmt.Sprintf("field not found: %q in message %s", field, outType)))
	}

	switch f.GetType() {
	case desc.FieldDescriptorProto_TYPE_MESSAGE:
		q, err := g.tm.QualifiedName(f.GetTypeName())
		if err != nil {
			return "", errors.E(op, err)
		}
		return `\` + q, nil
	case desc.FieldDescriptorProto_TYPE_ENUM:
		return "int", nil
	default:
		if scalar, ok := php.ScalarType(f.GetType()); ok {
			return scalar, nil
		}
		return "", errors.E(op, errors.Str(fmt.Sprintf("unsupported resources field type %s", f.GetType())))
	}
}

func (g *Generator) variantDoc(
	b *strings.Builder,
	svcName string,
	m *desc.MethodDescriptorProto,
	mo *config.MethodOptions,
	v variant,
	reqClass string,
	retDoc string,
	noRequest bool,
) {
	b.WriteString("    /**\n")

	if doc := g.tm.Comment(svcName + "." + m.GetName()); doc != "" {
		writeDocLines(b, "     * ", doc)
	} else {
		fmt.Fprintf(b, "     * Calls %s.\n", m.GetName())
	}

	if v.flattened != nil && len(mo.Samples) > 0 {
		// only the samples substituted into this variant's builder
		keys := make([]string, 0, len(mo.Samples))
		for _, p := range v.flattened.Params {
			if _, ok := mo.Samples[p.Path.String()]; ok {
				keys = append(keys, p.Path.String())
			}
		}
		sort.Strings(keys)

		if len(keys) > 0 {
			b.WriteString("     *\n")
			b.WriteString("     * Sample values:\n")
			for _, k := range keys {
				fmt.Fprintf(b, "     *     %s = %s\n", k, fieldpath.Literal(mo.Samples[k]))
			}
		}
	}

	b.WriteString("     *\n")

	switch {
	case v.flattened != nil:
		for _, p := range v.flattened.Params {
			doc := firstLine(p.Doc)
			if doc != "" {
				doc = " " + doc
			}
			fmt.Fprintf(b, "     * @param %s $%s%s\n", p.DocType, p.Name, doc)
		}
	case noRequest:
	default:
		fmt.Fprintf(b, "     * @param %s $request\n", reqClass)
	}

	fmt.Fprintf(b, "     * @return %s\n", retDoc)
	b.WriteString("     */\n")
}

func signature(v variant, reqClass string, noRequest bool) string {
	if v.flattened == nil {
		if noRequest {
			return ""
		}
		return reqClass + " $request"
	}

	chunks := make([]string, len(v.flattened.Params))
	for i, p := range v.flattened.Params {
		chunks[i] = fmt.Sprintf("%s $%s", p.Type, p.Name)
	}

	return strings.Join(chunks, ", ")
}

func retryExpr(mo *config.MethodOptions) string {
	if len(mo.RetryCodes) == 0 {
		return "[]"
	}

	return fmt.Sprintf("self::RETRY_CODES['%s']", mo.Name)
}

// indentTail pads every line after the first, so a multi-line expression can
// be spliced into an assignment.
func indentTail(s string, pad string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}

	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}

	return strings.TrimSpace(s)
}
