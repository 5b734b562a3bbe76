package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roadrunner-server/errors"
	"github.com/spiral/protoc-gen-php-client/php"
	"github.com/spiral/protoc-gen-php-client/typemap"
)

// Param is one external parameter of a flattened method signature.
type Param struct {
	Name    string
	Type    string
	DocType string

	// Doc is the leading comment of the originating field, if any.
	Doc string

	Path Path
}

// Flattening is the result of flattening one signature: the flat parameter
// list and the nested request-construction expression.
type Flattening struct {
	Params []Param

	// Request is a PHP expression building the request message, indented
	// with four spaces per nesting level starting at column zero.
	Request string
}

type node struct {
	seg      Segment
	info     FieldInfo
	children []*node
	param    *Param
	sample   string
}

// Flatten resolves every path against the request message and produces the
// parameter list plus the nested-builder expression. A sample literal
// supplied for the exact path replaces the parameter reference in the built
// expression; samples are keyed by the textual path form.
func Flatten(tm *typemap.TypeMap, requestType string, paths []Path, samples map[string]string) (*Flattening, error) {
	const op = errors.Op("fieldpath_flatten")

	requestName, err := tm.QualifiedName(requestType)
	if err != nil {
		return nil, errors.E(op, err)
	}

	// phase one: resolve paths and fix the external parameter list
	resolved := make([][]FieldInfo, len(paths))
	for i, p := range paths {
		infos, rerr := Resolve(tm, requestType, p)
		if rerr != nil {
			return nil, errors.E(op, rerr)
		}
		resolved[i] = infos
	}

	params := paramList(tm, paths, resolved)

	// phase two: grow the builder tree and render it depth-first, closing
	// the innermost builder before assigning it to its parent field
	root := &node{}
	for i, p := range paths {
		insert(root, p, resolved[i], &params[i], samples[p.String()])
	}

	b := &strings.Builder{}
	if len(root.children) == 0 {
		fmt.Fprintf(b, `new \%s()`, requestName)
	} else {
		fmt.Fprintf(b, "new \\%s([\n", requestName)
		for _, c := range root.children {
			renderChild(b, c, 1)
		}
		b.WriteString("])")
	}

	return &Flattening{Params: params, Request: b.String()}, nil
}

func paramList(tm *typemap.TypeMap, paths []Path, resolved [][]FieldInfo) []Param {
	names := make(map[string]int)
	for _, p := range paths {
		names[php.LowerCamel(p[len(p)-1].Name)]++
	}

	used := make(map[string]struct{})
	params := make([]Param, len(paths))

	for i, p := range paths {
		leaf := resolved[i][len(resolved[i])-1]

		name := php.LowerCamel(p[len(p)-1].Name)
		if names[name] > 1 {
			// qualify colliding leaves with the full path
			chunks := make([]string, len(p))
			for j, s := range p {
				chunks[j] = s.Name
			}
			name = php.LowerCamel(strings.Join(chunks, "_"))
		}
		for n := 2; ; n++ {
			if _, ok := used[name]; !ok {
				break
			}
			name = fmt.Sprintf("%s%d", name, n)
		}
		used[name] = struct{}{}

		params[i] = Param{
			Name:    name,
			Type:    leaf.PHPType,
			DocType: leaf.DocType,
			Doc:     tm.Comment(leaf.Enclosing + "." + leaf.Field.GetName()),
			Path:    p,
		}
	}

	return params
}

func insert(parent *node, p Path, infos []FieldInfo, param *Param, sample string) {
	cur := parent
	for depth, seg := range p {
		var next *node
		for _, c := range cur.children {
			if c.seg.Name == seg.Name && c.seg.Index == seg.Index {
				next = c
				break
			}
		}
		if next == nil {
			next = &node{seg: seg, info: infos[depth]}
			cur.children = append(cur.children, next)
		}
		cur = next
	}

	cur.param = param
	cur.sample = sample
}

func renderChild(b *strings.Builder, n *node, depth int) {
	pad := strings.Repeat("    ", depth)

	if len(n.children) == 0 {
		value := n.sample
		if value != "" {
			value = Literal(value)
		} else {
			value = "$" + n.param.Name
		}
		if n.seg.Index == 0 {
			value = "[" + value + "]"
		}

		fmt.Fprintf(b, "%s'%s' => %s,\n", pad, n.seg.Name, value)
		return
	}

	opening, closing := "", ""
	if n.seg.Index == 0 || (n.info.Repeated && n.seg.Index < 0) {
		opening, closing = "[", "]"
	}

	typ := strings.TrimPrefix(n.info.PHPType, `\`)
	if n.info.Repeated {
		// the hint collapsed to array, recover the element class
		typ = strings.TrimSuffix(strings.TrimPrefix(n.info.DocType, `\`), "[]")
	}

	fmt.Fprintf(b, "%s'%s' => %snew \\%s([\n", pad, n.seg.Name, opening, typ)
	for _, c := range n.children {
		renderChild(b, c, depth+1)
	}
	fmt.Fprintf(b, "%s])%s,\n", pad, closing)
}

// Literal renders a sample value as PHP source: numeric and boolean text is
// kept verbatim, anything else becomes a single-quoted string.
func Literal(v string) string {
	if v == "true" || v == "false" {
		return v
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}

	escaped := strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `'`, `\'`)
	return "'" + escaped + "'"
}
