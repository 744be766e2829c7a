package uri

import (
	"testing"

	tdd "github.com/stretchr/testify/assert"
)

func buildPathPattern(t *testing.T, raw string) *Pattern {
	t.Helper()
	b := New(Parameterized | PathPattern)
	if err := b.Path(raw, false); err != nil {
		t.Fatalf("failed to build path %q: %v", raw, err)
	}
	p, err := b.BuildPattern(false)
	if err != nil {
		t.Fatalf("failed to compile pattern %q: %v", raw, err)
	}
	return p
}

// S4: the three worked examples from the path-inclusion oracle.
func TestIncludesDirectoriesAbsorbsMiddleSegment(t *testing.T) {
	assert := tdd.New(t)

	self := buildPathPattern(t, "/a/**/c")
	other := buildPathPattern(t, "/a/b/c")

	res, err := self.Includes(other)
	assert.Nil(err)
	assert.Equal(Included, res)
}

func TestIncludesWildcardDisjointOnLengthMismatch(t *testing.T) {
	assert := tdd.New(t)

	self := buildPathPattern(t, "/a/*")
	other := buildPathPattern(t, "/a/b/c")

	res, err := self.Includes(other)
	assert.Nil(err)
	assert.Equal(Disjoint, res)
}

func TestIncludesCustomPatternAgainstLiteralIsIndeterminate(t *testing.T) {
	assert := tdd.New(t)

	self := buildPathPattern(t, "/a/{x:[0-9]+}")
	other := buildPathPattern(t, "/a/b")

	res, err := self.Includes(other)
	assert.Nil(err)
	assert.Equal(Indeterminate, res)
}

func TestIncludesIdenticalStaticPaths(t *testing.T) {
	assert := tdd.New(t)

	self := buildPathPattern(t, "/a/b/c")
	other := buildPathPattern(t, "/a/b/c")

	res, err := self.Includes(other)
	assert.Nil(err)
	assert.Equal(Included, res)
}

func TestIncludesDisjointStaticPaths(t *testing.T) {
	assert := tdd.New(t)

	self := buildPathPattern(t, "/a/b")
	other := buildPathPattern(t, "/x/y")

	res, err := self.Includes(other)
	assert.Nil(err)
	assert.Equal(Disjoint, res)
}

func TestIncludesTrailingDirectoriesAbsorbsRemainder(t *testing.T) {
	assert := tdd.New(t)

	self := buildPathPattern(t, "/static/**")
	other := buildPathPattern(t, "/static/a/b/c")

	res, err := self.Includes(other)
	assert.Nil(err)
	assert.Equal(Included, res)
}

func TestIncludesIdenticalCustomPatternsAreIncluded(t *testing.T) {
	assert := tdd.New(t)

	self := buildPathPattern(t, "/a/{x:[0-9]+}")
	other := buildPathPattern(t, "/a/{x:[0-9]+}")

	res, err := self.Includes(other)
	assert.Nil(err)
	assert.Equal(Included, res)
}

func TestIncludesRequiresPathSegments(t *testing.T) {
	assert := tdd.New(t)

	b := New(0)
	assert.Nil(b.Scheme("https"))
	p, err := b.BuildPattern(false)
	assert.Nil(err)

	empty := &Pattern{}
	_, err = p.Includes(empty)
	assert.NotNil(err, "Includes requires both patterns to retain path segments")
}

func TestInclusionStringer(t *testing.T) {
	assert := tdd.New(t)

	assert.Equal("INCLUDED", Included.String())
	assert.Equal("DISJOINT", Disjoint.String())
	assert.Equal("INDETERMINATE", Indeterminate.String())
}
