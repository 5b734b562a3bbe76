// Package fieldpath implements dotted property paths over protobuf messages
// and the parameter-flattening engine built on top of them.
package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roadrunner-server/errors"
)

// Segment is one chunk of a property path. Index is -1 unless the segment
// selects a repeated element; only element 0 is supported.
type Segment struct {
	Name  string
	Index int
}

func (s Segment) String() string {
	if s.Index >= 0 {
		return fmt.Sprintf("%s[%d]", s.Name, s.Index)
	}

	return s.Name
}

// Path is an ordered list of segments, e.g. "a.b[0].c".
type Path []Segment

// Parse converts the textual form back into a Path. A repeated index other
// than 0 is rejected up front so the error carries the original text.
func Parse(s string) (Path, error) {
	const op = errors.Op("fieldpath_parse")

	if s == "" {
		return nil, errors.E(op, errors.Str("empty property path"))
	}

	chunks := strings.Split(s, ".")
	p := make(Path, 0, len(chunks))

	for _, c := range chunks {
		seg := Segment{Name: c, Index: -1}

		if open := strings.IndexByte(c, '['); open >= 0 {
			if !strings.HasSuffix(c, "]") {
				return nil, errors.E(op, errors.Str(fmt.Sprintf("malformed segment %q in path %q", c, s)))
			}

			idx, err := strconv.Atoi(c[open+1 : len(c)-1])
			if err != nil {
				return nil, errors.E(op, errors.Str(fmt.Sprintf("malformed index in segment %q of path %q", c, s)))
			}
			if idx != 0 {
				return nil, errors.E(op, errors.Str(fmt.Sprintf("only repeated index 0 is supported, got %d in path %q", idx, s)))
			}

			seg.Name = c[:open]
			seg.Index = idx
		}

		if seg.Name == "" {
			return nil, errors.E(op, errors.Str(fmt.Sprintf("empty segment in path %q", s)))
		}

		p = append(p, seg)
	}

	return p, nil
}

// MustParse is a fixture helper for statically known paths.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return p
}

func (p Path) String() string {
	chunks := make([]string, len(p))
	for i, s := range p {
		chunks[i] = s.String()
	}

	return strings.Join(chunks, ".")
}

// Sub returns the first n segments.
func (p Path) Sub(n int) Path {
	return p[:n]
}

// HasPrefix reports whether q is a (non-strict) prefix of p. Indexes are part
// of the comparison.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}

	for i := range q {
		if p[i].Name != q[i].Name || p[i].Index != q[i].Index {
			return false
		}
	}

	return true
}

// Merge unions several path lists in first-seen order, dropping duplicates
// and any path that is a strict prefix of another surviving path.
func Merge(groups ...[]Path) []Path {
	var union []Path
	seen := make(map[string]struct{})

	for _, g := range groups {
		for _, p := range g {
			key := p.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, p)
		}
	}

	return dropPrefixes(union)
}

// MergeSamples folds a secondary sample path list into base. A sample path is
// retained only when it extends the prefix of a path already present; it is
// inserted right after its deepest ancestor so the prefix rule replaces the
// ancestor in place.
func MergeSamples(base []Path, samples []Path) []Path {
	out := make([]Path, len(base))
	copy(out, base)

	for _, s := range samples {
		anchor := -1
		for i, b := range out {
			if len(b) < len(s) && s.HasPrefix(b) {
				anchor = i
			}
		}
		if anchor < 0 {
			continue
		}

		out = append(out[:anchor+1], append([]Path{s}, out[anchor+1:]...)...)
	}

	return dropPrefixes(out)
}

func dropPrefixes(paths []Path) []Path {
	out := make([]Path, 0, len(paths))

	for i, p := range paths {
		keep := true
		for j, q := range paths {
			if i == j {
				continue
			}
			if len(p) < len(q) && q.HasPrefix(p) {
				keep = false
				break
			}
			// exact duplicate, first occurrence wins
			if i > j && len(p) == len(q) && q.HasPrefix(p) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, p)
		}
	}

	return out
}
