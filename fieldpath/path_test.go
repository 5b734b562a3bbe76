package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strs(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{"a", "a.b.c", "a.b[0].c", "main_detail.even_more"} {
		p, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, p.String())
	}
}

func TestParseRejectsNonZeroIndex(t *testing.T) {
	_, err := Parse("a.b[1].c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only repeated index 0 is supported")

	_, err = Parse("a.b[x].c")
	require.Error(t, err)

	_, err = Parse("")
	require.Error(t, err)

	_, err = Parse("a..b")
	require.Error(t, err)
}

func TestSubAndPrefix(t *testing.T) {
	p := MustParse("a.b[0].c")

	assert.Equal(t, "a.b[0]", p.Sub(2).String())
	assert.True(t, p.HasPrefix(MustParse("a.b[0]")))
	assert.True(t, p.HasPrefix(p))

	// the index participates in prefix comparison
	assert.False(t, p.HasPrefix(MustParse("a.b")))
}

func TestMergeDedup(t *testing.T) {
	out := Merge(
		[]Path{MustParse("a.b.c"), MustParse("x.y.z")},
		[]Path{MustParse("a.b.c")},
		[]Path{MustParse("x.y.z")},
	)

	assert.Equal(t, []string{"a.b.c", "x.y.z"}, strs(out))
}

func TestMergePrefixRule(t *testing.T) {
	out := Merge([]Path{MustParse("a"), MustParse("a.b"), MustParse("x.y.z")})

	assert.Equal(t, []string{"a.b", "x.y.z"}, strs(out))
}

func TestMergeSamplesExtensionFiltering(t *testing.T) {
	base := []Path{MustParse("a"), MustParse("a.b"), MustParse("x.y.z")}
	samples := []Path{MustParse("a.b.c"), MustParse("z")}

	out := MergeSamples(base, samples)

	assert.Equal(t, []string{"a.b.c", "x.y.z"}, strs(out))
}

func TestMergeSamplesEmpty(t *testing.T) {
	base := []Path{MustParse("a.b")}

	assert.Equal(t, []string{"a.b"}, strs(MergeSamples(base, nil)))
}
