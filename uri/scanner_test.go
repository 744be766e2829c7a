package uri

import (
	"testing"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/jose-uri/errors"
)

func TestScanLiteral(t *testing.T) {
	assert := tdd.New(t)

	params, err := scan("static-only", false)
	assert.Nil(err, "scan error")
	assert.Empty(params, "no parameters expected")
}

func TestScanNamedParameter(t *testing.T) {
	assert := tdd.New(t)

	params, err := scan("user-{id}", false)
	assert.Nil(err, "scan error")
	assert.Len(params, 1, "one parameter expected")
	assert.Equal("id", params[0].Name)
	assert.Equal(defaultPattern, params[0].Pattern)
	assert.True(params[0].Named())
	assert.False(params[0].Custom())
}

func TestScanCustomPattern(t *testing.T) {
	assert := tdd.New(t)

	params, err := scan("{x:[0-9]+}", false)
	assert.Nil(err, "scan error")
	assert.Len(params, 1)
	assert.Equal("x", params[0].Name)
	assert.Equal("[0-9]+", params[0].Pattern)
	assert.True(params[0].Custom())
}

func TestScanNestedBracesInPattern(t *testing.T) {
	assert := tdd.New(t)

	params, err := scan(`{x:\d{3}}`, false)
	assert.Nil(err, "scan error")
	assert.Len(params, 1)
	assert.Equal(`\d{3}`, params[0].Pattern)
}

func TestScanUnnamedDefaultPattern(t *testing.T) {
	assert := tdd.New(t)

	params, err := scan("{}", false)
	assert.Nil(err, "scan error")
	assert.Len(params, 1)
	assert.False(params[0].Named())
	assert.Equal(defaultPattern, params[0].Pattern)
}

func TestScanUnterminatedParameter(t *testing.T) {
	assert := tdd.New(t)

	_, err := scan("{name", false)
	assert.NotNil(err, "expected error")
	assert.True(errors.Is(err, ErrInvalidURI))
}

func TestScanInvalidName(t *testing.T) {
	assert := tdd.New(t)

	_, err := scan("{1abc}", false)
	assert.NotNil(err, "expected error")
}

func TestScanDanglingEscape(t *testing.T) {
	assert := tdd.New(t)

	_, err := scan(`literal\`, false)
	assert.NotNil(err, "expected error")
}

func TestScanPathPatternOperators(t *testing.T) {
	assert := tdd.New(t)

	params, err := scan("?", true)
	assert.Nil(err)
	assert.Len(params, 1)
	assert.Equal(questionMarkPattern, params[0].Pattern)

	params, err = scan("*.png", true)
	assert.Nil(err)
	assert.Len(params, 1)
	assert.Equal(defaultPattern, params[0].Pattern)

	params, err = scan("**", true)
	assert.Nil(err)
	assert.Len(params, 1)
	assert.True(params[0].Directories)
}

func TestScanDirectoriesMustBeWholeSegment(t *testing.T) {
	assert := tdd.New(t)

	_, err := scan("**foo", true)
	assert.NotNil(err, "'**' must be the entire segment")

	_, err = scan("foo**", true)
	assert.NotNil(err, "'**' must be the entire segment")
}

func TestScanOperatorsIgnoredWithoutPathPattern(t *testing.T) {
	assert := tdd.New(t)

	params, err := scan("*.png", false)
	assert.Nil(err)
	assert.Empty(params, "glob operators are literal text without PathPattern")
}
