package uri

import (
	"strconv"
	"strings"
)

// queryParam pairs a query-parameter name and value, each scanned and
// rendered as an independent Component.
type queryParam struct {
	name  Component
	value Component
}

// Builder is a mutable bag of URI components. It is not safe for
// concurrent use; each Builder instance is meant to have a single owning
// goroutine for its lifetime (see spec.md §5).
type Builder struct {
	flags Flags

	scheme   *Component
	userInfo *Component
	host     *Component
	port     *Component

	segments []Segment

	query       *Component
	queryParams []queryParam

	fragment *Component
}

// New returns an empty Builder governed by `flags`.
func New(flags Flags) *Builder {
	return &Builder{flags: flags}
}

// Flags returns the set of options this Builder was created with.
func (b *Builder) Flags() Flags {
	return b.flags
}

// Scheme sets the URI scheme component.
func (b *Builder) Scheme(raw string) error {
	c, err := newComponent(kindScheme, raw, b.flags)
	if err != nil {
		return err
	}
	b.scheme = &c
	return nil
}

// UserInfo sets the URI user-info component (the `user:pass` portion of
// the authority, rendered before an `@`).
func (b *Builder) UserInfo(raw string) error {
	c, err := newComponent(kindUserInfo, raw, b.flags)
	if err != nil {
		return err
	}
	b.userInfo = &c
	return nil
}

// Host sets the URI host component.
func (b *Builder) Host(raw string) error {
	c, err := newComponent(kindHost, raw, b.flags)
	if err != nil {
		return err
	}
	b.host = &c
	return nil
}

// Port sets the URI port component. Accepts either an int (rendered
// verbatim) or a string (which may itself be parameterized).
func (b *Builder) Port(port interface{}) error {
	var raw string
	switch p := port.(type) {
	case int:
		raw = strconv.Itoa(p)
	case string:
		raw = p
	default:
		return wrapf(ErrInvalidURI, "port must be an int or a string, got %T", port)
	}
	c, err := newComponent(kindPort, raw, b.flags)
	if err != nil {
		return err
	}
	b.port = &c
	return nil
}

// ClearPath removes every previously appended path segment.
func (b *Builder) ClearPath() {
	b.segments = nil
}

// Segment appends a single raw path segment, applying the append-segment
// algorithm (spec.md §4.2): a `**` segment cannot directly follow another
// `**`, and when Normalized is set, non-parameterized `.`/`..` segments
// collapse eagerly against the segments already appended.
func (b *Builder) Segment(raw string) error {
	seg, err := newSegment(raw, b.flags)
	if err != nil {
		return err
	}
	return b.appendSegment(seg)
}

func (b *Builder) appendSegment(seg Segment) error {
	if seg.Directories() && len(b.segments) > 0 && b.segments[len(b.segments)-1].Directories() {
		return wrapf(ErrInvalidURI, "'**' cannot directly follow another '**'")
	}

	if b.flags.Has(Normalized) {
		if dot, ok := seg.Dotted(); ok {
			switch dot {
			case ".":
				// Dropped entirely: contributes nothing to the path.
				return nil
			case "..":
				if n := len(b.segments); n > 0 {
					prev := b.segments[n-1]
					if prevDot, ok := prev.Dotted(); ok && prevDot == ".." {
						// A run of ".." is preserved verbatim.
						b.segments = append(b.segments, seg)
						return nil
					}
					if n == 1 && prev.Empty() {
						// Absolute root: "/.." keeps the empty root segment.
						b.segments = append(b.segments, seg)
						return nil
					}
					b.segments = b.segments[:n-1]
					return nil
				}
				b.segments = append(b.segments, seg)
				return nil
			}
		}
	}

	b.segments = append(b.segments, seg)
	return nil
}

// Path replaces the current path with the segments produced by splitting
// `raw` on `/`. A leading `/` yields an initial empty segment; a trailing
// `/` yields a final empty segment unless `ignoreTrailingSlash` is set.
// Each produced segment is fed through the append-segment algorithm.
func (b *Builder) Path(raw string, ignoreTrailingSlash bool) error {
	b.ClearPath()
	return b.appendPath(raw, ignoreTrailingSlash, false)
}

func (b *Builder) appendPath(raw string, ignoreTrailingSlash, ignoreHeadingSlash bool) error {
	parts := strings.Split(raw, "/")
	if len(parts) > 0 && parts[0] == "" && ignoreHeadingSlash {
		parts = parts[1:]
	}
	if ignoreTrailingSlash && len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for _, p := range parts {
		if err := b.Segment(p); err != nil {
			return err
		}
	}
	return nil
}

// Query sets a raw, already-composed query string. Mutually exclusive
// with QueryParameter: calling Query clears any previously set query
// parameters.
func (b *Builder) Query(raw string) error {
	c, err := newComponent(kindQuery, raw, b.flags)
	if err != nil {
		return err
	}
	b.query = &c
	b.queryParams = nil
	return nil
}

// QueryParameter appends a `name=value` query parameter. Mutually
// exclusive with Query: calling QueryParameter clears any previously set
// raw query string.
func (b *Builder) QueryParameter(name, value string) error {
	nc, err := newComponent(kindQueryParam, name, b.flags)
	if err != nil {
		return err
	}
	vc, err := newComponent(kindQueryParam, value, b.flags)
	if err != nil {
		return err
	}
	b.query = nil
	b.queryParams = append(b.queryParams, queryParam{name: nc, value: vc})
	return nil
}

// ClearQuery removes the query component entirely, whichever form it was
// set in.
func (b *Builder) ClearQuery() {
	b.query = nil
	b.queryParams = nil
}

// Fragment sets the URI fragment component.
func (b *Builder) Fragment(raw string) error {
	c, err := newComponent(kindFragment, raw, b.flags)
	if err != nil {
		return err
	}
	b.fragment = &c
	return nil
}

// Clone returns an independent copy of the receiver; mutating the clone
// never affects the original Builder.
func (b *Builder) Clone() *Builder {
	nb := &Builder{flags: b.flags}
	nb.scheme = cloneComponent(b.scheme)
	nb.userInfo = cloneComponent(b.userInfo)
	nb.host = cloneComponent(b.host)
	nb.port = cloneComponent(b.port)
	nb.segments = append([]Segment(nil), b.segments...)
	nb.query = cloneComponent(b.query)
	nb.queryParams = append([]queryParam(nil), b.queryParams...)
	nb.fragment = cloneComponent(b.fragment)
	return nb
}

func cloneComponent(c *Component) *Component {
	if c == nil {
		return nil
	}
	cp := *c
	cp.parameters = append([]Parameter(nil), c.parameters...)
	return &cp
}
