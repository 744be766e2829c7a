package uri

import (
	"testing"

	tdd "github.com/stretchr/testify/assert"
)

// S3: a PARAMETERIZED + PATH_PATTERN builder compiles to a regex that
// matches any number of intermediate directories followed by a `*.png`
// leaf, and rejects a mismatched extension.
func TestPatternMatchesPathPattern(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized | PathPattern)
	assert.Nil(b.Path("/static/**/*.png", false))

	p, err := b.BuildPattern(false)
	assert.Nil(err)

	m, err := p.Matcher("/static/path/to/image.png")
	assert.Nil(err)
	assert.True(m.Matches())

	m, err = p.Matcher("/static/image.jpg")
	assert.Nil(err)
	assert.False(m.Matches())
}

func TestPatternMatchesDirectoriesZeroSegments(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized | PathPattern)
	assert.Nil(b.Path("/static/**/*.png", false))

	p, err := b.BuildPattern(false)
	assert.Nil(err)

	m, err := p.Matcher("/static/image.png")
	assert.Nil(err)
	assert.True(m.Matches(), "'**' must absorb zero segments too")
}

func TestPatternNamedCapture(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized)
	assert.Nil(b.Scheme("https"))
	assert.Nil(b.Host("example.com"))
	assert.Nil(b.Path("/users/{id:[0-9]+}", false))

	p, err := b.BuildPattern(false)
	assert.Nil(err)

	m, err := p.Matcher("https://example.com/users/42")
	assert.Nil(err)
	assert.True(m.Matches())
	v, ok := m.Parameter("id")
	assert.True(ok)
	assert.Equal("42", v)

	m, err = p.Matcher("https://example.com/users/abc")
	assert.Nil(err)
	assert.False(m.Matches())
}

func TestPatternQuestionMarkOperator(t *testing.T) {
	assert := tdd.New(t)

	b := New(Parameterized | PathPattern)
	assert.Nil(b.Path("/file?.txt", false))

	p, err := b.BuildPattern(false)
	assert.Nil(err)

	m, err := p.Matcher("/fileA.txt")
	assert.Nil(err)
	assert.True(m.Matches())

	m, err = p.Matcher("/fileAB.txt")
	assert.Nil(err)
	assert.False(m.Matches(), "'?' matches exactly one character")
}

func TestPatternMatchTrailingSlashOption(t *testing.T) {
	assert := tdd.New(t)

	b := New(0)
	assert.Nil(b.Path("/a/b", false))

	p, err := b.BuildPattern(true)
	assert.Nil(err)

	m, err := p.Matcher("/a/b/")
	assert.Nil(err)
	assert.True(m.Matches())

	p2, err := b.BuildPattern(false)
	assert.Nil(err)
	m2, err := p2.Matcher("/a/b/")
	assert.Nil(err)
	assert.False(m2.Matches())
}

func TestPatternCompileIsMemoized(t *testing.T) {
	assert := tdd.New(t)

	b := New(0)
	assert.Nil(b.Path("/a", false))
	p, err := b.BuildPattern(false)
	assert.Nil(err)

	re1, err := p.compile()
	assert.Nil(err)
	re2, err := p.compile()
	assert.Nil(err)
	assert.True(re1 == re2, "compile must memoize the compiled regex")
}

func TestMatcherLessOrdersByMatchThenRaw(t *testing.T) {
	assert := tdd.New(t)

	bA := New(0)
	assert.Nil(bA.Path("/a", false))
	pA, err := bA.BuildPattern(false)
	assert.Nil(err)

	bB := New(0)
	assert.Nil(bB.Path("/b", false))
	pB, err := bB.BuildPattern(false)
	assert.Nil(err)

	mA, err := pA.Matcher("/a")
	assert.Nil(err)
	mB, err := pB.Matcher("/no-match")
	assert.Nil(err)

	assert.True(mA.Less(mB), "a successful match sorts before a failed one")
}
