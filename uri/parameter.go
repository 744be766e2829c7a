package uri

// Default wildcard pattern assigned to a parameter with no explicit
// `:pattern` suffix.
const defaultPattern = "[^/]*"

// questionMarkPattern is the pattern bound to the path-pattern `?`
// operator: exactly one non-slash character.
const questionMarkPattern = "[^/]"

// Parameter describes a single `{name[:pattern]}` reference (or, inside a
// path-pattern segment, a `?`/`*`/`**` operator) found inside a raw
// component value.
type Parameter struct {
	// Offset is the byte position, within the owning component's raw
	// value, where this parameter starts.
	Offset int

	// Length is the number of raw bytes this parameter occupies, including
	// the `{`/`}` delimiters when present.
	Length int

	// Name is the parameter's identifier. Empty for unnamed parameters
	// (bare `{}`, `?`, `*` and `**`).
	Name string

	// Pattern is the regular expression fragment bound to this parameter.
	// Defaults to defaultPattern; questionMarkPattern for `?`; ".*" for a
	// directories (`**`) segment; otherwise whatever followed `:` in a
	// `{name:pattern}` reference.
	Pattern string

	// Directories marks a `**` path-pattern operator, matching zero or
	// more whole `/`-separated segments.
	Directories bool
}

// Named reports whether the parameter carries an explicit name.
func (p Parameter) Named() bool {
	return p.Name != ""
}

// Custom reports whether the parameter uses a pattern other than the
// default wildcard or the `?` single-character pattern, i.e. it was
// declared with an explicit `:pattern` suffix.
func (p Parameter) Custom() bool {
	return p.Pattern != defaultPattern && p.Pattern != questionMarkPattern && !p.Directories
}
