package uri

import (
	"regexp"
	"strings"
	"sync"
)

// Pattern is the immutable, compiled form of a Builder: a regular
// expression plus enough metadata to match candidate strings (Matcher) and
// to reason about set-inclusion against another Pattern built with the
// PathPattern flag.
type Pattern struct {
	raw                string
	regexSrc           string
	labels             []*string
	segments           []Segment
	isPathPattern      bool
	matchTrailingSlash bool

	mu       sync.Mutex
	compiled *regexp.Regexp
}

// String returns the pattern's raw source.
func (p *Pattern) String() string {
	return p.raw
}

// Regex returns the regular expression source this Pattern compiles to.
func (p *Pattern) Regex() string {
	return p.regexSrc
}

// compile lazily builds (and memoizes) the *regexp.Regexp for this
// Pattern. Idempotent: the mutex serializes callers, so the regex is
// compiled once and later calls return the same value (spec.md §5).
func (p *Pattern) compile() (*regexp.Regexp, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.compiled != nil {
		return p.compiled, nil
	}
	re, err := regexp.Compile(p.regexSrc)
	if err != nil {
		return nil, wrapf(ErrInvalidURI, "failed to compile pattern regex: %v", err)
	}
	p.compiled = re
	return re, nil
}

// BuildPattern compiles the Builder's current components into an
// immutable URI-Pattern. When `matchTrailingSlash` is set, an optional
// trailing `/` is permitted on top of whatever the path itself specifies.
func (b *Builder) BuildPattern(matchTrailingSlash bool) (*Pattern, error) {
	if b.flags.Has(PathPattern) {
		// PATH_PATTERN is incompatible with origin-form request targets
		// because '?' collides with the query delimiter; a Builder that
		// also carries a raw query alongside path-pattern segments cannot
		// be rendered back into an unambiguous request-target form.
		if b.query != nil && !b.flags.Has(Parameterized) {
			return nil, wrapf(ErrIncompatibleBuilderOption, "PathPattern with a literal query is ambiguous with origin-form")
		}
	}

	var labels []*string
	var src strings.Builder
	src.WriteString("^")

	if b.scheme != nil {
		src.WriteString(b.scheme.regexFragment(&labels))
		src.WriteString(regexp.QuoteMeta(":"))
	}
	if b.host != nil {
		src.WriteString(regexp.QuoteMeta("//"))
		if b.userInfo != nil {
			src.WriteString(b.userInfo.regexFragment(&labels))
			src.WriteString(regexp.QuoteMeta("@"))
		}
		src.WriteString(b.host.regexFragment(&labels))
		if b.port != nil {
			src.WriteString(regexp.QuoteMeta(":"))
			src.WriteString(b.port.regexFragment(&labels))
		}
	}

	src.WriteString(pathRegex(b.segments, &labels))

	if b.query != nil {
		src.WriteString(regexp.QuoteMeta("?"))
		src.WriteString(b.query.regexFragment(&labels))
	} else if len(b.queryParams) > 0 {
		src.WriteString(regexp.QuoteMeta("?"))
		for i, qp := range b.queryParams {
			if i > 0 {
				src.WriteString(regexp.QuoteMeta("&"))
			}
			src.WriteString(qp.name.regexFragment(&labels))
			src.WriteString(regexp.QuoteMeta("="))
			src.WriteString(qp.value.regexFragment(&labels))
		}
	}

	if b.fragment != nil {
		src.WriteString(regexp.QuoteMeta("#"))
		src.WriteString(b.fragment.regexFragment(&labels))
	}

	if matchTrailingSlash {
		src.WriteString("/?")
	}
	src.WriteString("$")

	raw, err := b.BuildString()
	if err != nil {
		// The raw source is best-effort (it may itself be unresolvable
		// when the Builder carries parameters); fall back to the regex.
		raw = src.String()
	}

	return &Pattern{
		raw:                raw,
		regexSrc:           src.String(),
		labels:             labels,
		segments:           append([]Segment(nil), b.segments...),
		isPathPattern:      b.flags.Has(PathPattern),
		matchTrailingSlash: matchTrailingSlash,
	}, nil
}

// pathRegex assembles the regex fragment for a list of path segments. A
// directories (`**`) segment compiles to a capturing `((?:/[^/]*)*)`
// group that absorbs its own leading `/`; every other segment is preceded
// by a literal `/` unless it is the first in the list.
func pathRegex(segments []Segment, labels *[]*string) string {
	if len(segments) == 0 {
		return ""
	}
	if len(segments) == 1 && segments[0].Empty() {
		return regexp.QuoteMeta("/")
	}
	var b strings.Builder
	for i, seg := range segments {
		if seg.Directories() {
			b.WriteString("((?:/[^/]*)*)")
			*labels = append(*labels, nil)
			continue
		}
		if i > 0 {
			b.WriteString(regexp.QuoteMeta("/"))
		}
		b.WriteString(seg.regexFragment(labels))
	}
	return b.String()
}
