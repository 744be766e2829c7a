package uri

import (
	"testing"

	tdd "github.com/stretchr/testify/assert"
)

// S1: normalization collapses ".." against the segment immediately before
// it, and drops "." entirely, as the segments are appended.
func TestBuilderNormalizedDotSegments(t *testing.T) {
	assert := tdd.New(t)

	b := New(Normalized)
	assert.Nil(b.Scheme("http"))
	assert.Nil(b.Host("localhost"))
	assert.Nil(b.Path("/foo/../123", false))

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("http://localhost/123", out)
}

func TestBuilderNormalizedDropsCurrentDirSegment(t *testing.T) {
	assert := tdd.New(t)

	b := New(Normalized)
	assert.Nil(b.Scheme("http"))
	assert.Nil(b.Host("example.com"))
	assert.Nil(b.Path("/a/./b", false))

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("http://example.com/a/b", out)
}

func TestBuilderNormalizedPreservesLeadingDotDot(t *testing.T) {
	assert := tdd.New(t)

	b := New(Normalized)
	assert.Nil(b.Path("/../a", false))

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("/../a", out)
}

func TestBuilderWithoutNormalizedKeepsDotSegments(t *testing.T) {
	assert := tdd.New(t)

	b := New(0)
	assert.Nil(b.Path("/foo/../123", false))

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("/foo/../123", out)
}

// S2: PARAMETERIZED substitution of a named scheme and a named path
// segment, resolved by name.
func TestBuilderParameterizedBuildStringNamed(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized)
	assert.Nil(b.Scheme("{scheme}"))
	assert.Nil(b.Host("localhost"))
	assert.Nil(b.Path("/static/{custom_path}", false))

	out, err := b.BuildStringNamed(map[string]string{
		"scheme":      "https",
		"custom_path": "resource1",
	})
	assert.Nil(err)
	assert.Equal("https://localhost/static/resource1", out)
}

func TestBuilderParameterizedBuildStringPositional(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized)
	assert.Nil(b.Scheme("{scheme}"))
	assert.Nil(b.Host("localhost"))
	assert.Nil(b.Path("/static/{custom_path}", false))

	out, err := b.BuildString("https", "resource1")
	assert.Nil(err)
	assert.Equal("https://localhost/static/resource1", out)
}

func TestBuilderMissingParameterValue(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized)
	assert.Nil(b.Path("/{id}", false))

	_, err := b.BuildString()
	assert.NotNil(err, "expected missing value error")
}

func TestBuilderParameterValueMismatch(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized)
	assert.Nil(b.Path("/{id:[0-9]+}", false))

	_, err := b.BuildString("abc")
	assert.NotNil(err, "value does not satisfy declared pattern")
}

func TestBuilderQueryParameterMutualExclusion(t *testing.T) {
	assert := tdd.New(t)

	b := New(0)
	assert.Nil(b.Query("a=1"))
	assert.Nil(b.QueryParameter("b", "2"))

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("?b=2", out)
}

func TestBuilderDirectoriesCannotFollowDirectories(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized | PathPattern)
	assert.Nil(b.Segment("**"))
	err := b.Segment("**")
	assert.NotNil(err, "'**' cannot directly follow another '**'")
}

func TestBuilderClone(t *testing.T) {
	assert := tdd.New(t)

	b := New(Normalized)
	assert.Nil(b.Scheme("https"))
	assert.Nil(b.Host("example.com"))
	assert.Nil(b.Path("/a/b", false))

	clone := b.Clone()
	assert.Nil(clone.Path("/c", false))

	original, err := b.BuildString()
	assert.Nil(err)
	cloned, err := clone.BuildString()
	assert.Nil(err)

	assert.Equal("https://example.com/a/b", original)
	assert.Equal("https://example.com/c", cloned)
}

func TestParseRequestTargetAbsoluteURI(t *testing.T) {
	assert := tdd.New(t)

	b, err := ParseRequestTarget("https://user:pw@example.com:8443/a/b?x=1#frag", 0)
	assert.Nil(err)

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("https://user:pw@example.com:8443/a/b?x=1#frag", out)
}

func TestParseRequestTargetOriginForm(t *testing.T) {
	assert := tdd.New(t)

	b, err := ParseRequestTarget("/a/b?x=1", 0)
	assert.Nil(err)

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("/a/b?x=1", out)
}

func TestParseRequestTargetRejectsPathPatternOriginForm(t *testing.T) {
	assert := tdd.New(t)

	_, err := ParseRequestTarget("/a/b", PathPattern)
	assert.NotNil(err, "PathPattern requires an absolute-URI request target")
}

func TestParseRequestTargetIPv6Authority(t *testing.T) {
	assert := tdd.New(t)

	b, err := ParseRequestTarget("http://[::1]:8080/a", 0)
	assert.Nil(err)

	out, err := b.BuildString()
	assert.Nil(err)
	assert.Equal("http://[::1]:8080/a", out)
}
