package uri

// SegmentKind classifies the shape of a path segment, used by the
// inclusion oracle to pick the right per-segment comparison strategy.
type SegmentKind int

// Supported segment shapes.
const (
	// SegmentStatic segments carry no parameter at all.
	SegmentStatic SegmentKind = iota
	// SegmentWildcard segments consist solely of wildcard parameters
	// (`?`/`*`) with no static text in between.
	SegmentWildcard
	// SegmentCustom segments mix static text with parameters, or carry a
	// named/custom-pattern parameter.
	SegmentCustom
	// SegmentDirectories is the standalone `**` segment.
	SegmentDirectories
)

// Segment is a path-segment Component, classified into one of the shapes
// described in spec.md §3.1.
type Segment struct {
	Component
}

// newSegment builds a Segment from its raw text.
func newSegment(raw string, flags Flags) (Segment, error) {
	c, err := newComponent(kindSegment, raw, flags)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Component: c}, nil
}

// Kind classifies the segment's shape.
func (s Segment) Kind() SegmentKind {
	if s.raw == "**" && len(s.parameters) == 1 && s.parameters[0].Directories {
		return SegmentDirectories
	}
	if !s.Parameterized() {
		return SegmentStatic
	}
	for _, s := range s.staticSlices() {
		if s != "" {
			return SegmentCustom
		}
	}
	for _, p := range s.parameters {
		if p.Named() || p.Custom() {
			return SegmentCustom
		}
	}
	return SegmentWildcard
}

// Directories reports whether the segment is the standalone `**` operator.
func (s Segment) Directories() bool {
	return s.Kind() == SegmentDirectories
}

// Empty reports whether the segment's raw value has zero length, used to
// recognize the leading/trailing empty segments produced by a `/`-prefixed
// or `/`-suffixed path.
func (s Segment) Empty() bool {
	return s.raw == ""
}

// Dotted reports whether the segment's raw value is exactly "." or "..".
// Only meaningful for non-parameterized segments; normalization never
// touches a parameterized segment regardless of its literal text.
func (s Segment) Dotted() (string, bool) {
	if s.Parameterized() {
		return "", false
	}
	if s.raw == "." || s.raw == ".." {
		return s.raw, true
	}
	return "", false
}
