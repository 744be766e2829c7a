package uri

// Flags adjust how a Builder treats the raw values handed to its
// components. They are immutable for the lifetime of a Builder and are
// passed down to every Component it creates.
type Flags uint8

// Has reports whether `flag` is present in the receiver.
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

const (
	// Normalized enables RFC-3986 §5.2.4 path normalization: `.` segments
	// are dropped and `..` segments pop the previous one, eagerly, on every
	// Builder.Segment/Path call. Parameterized segments are exempt since
	// their rendered value is not known until substitution time.
	Normalized Flags = 1 << iota

	// Parameterized enables scanning `{name}` / `{name:pattern}` references
	// inside every component's raw value.
	Parameterized

	// PathPattern enables the glob-style path operators `?`, `*` and `**`
	// inside path segments, in addition to whatever Parameterized allows.
	// Incompatible with the origin-form request-target (`?` collides with
	// the query delimiter).
	PathPattern
)
