package uri

import (
	"regexp"
	"strconv"
	"strings"
)

// kind identifies which URI component a Component/Segment instance
// represents; it drives the escaped-character predicate and the
// delimiter used when rendering.
type kind int

// Supported component kinds.
const (
	kindScheme kind = iota
	kindUserInfo
	kindHost
	kindPort
	kindSegment
	kindQuery
	kindQueryParam
	kindFragment
)

// alnum reports whether `c` is an ASCII letter or digit.
func alnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// inSet reports whether `c` is present in `set`.
func inSet(c byte, set string) bool {
	return strings.IndexByte(set, c) >= 0
}

// allowedExtra lists, per kind, the non-alphanumeric bytes that are
// allowed to appear unescaped (see spec.md §4.2 escaped-character table).
var allowedExtra = map[kind]string{
	kindScheme:     "+-.",
	kindUserInfo:   "-._~!$&'()*+,;=:",
	kindHost:       "-._~!$&'()*+,;=:[]",
	kindPort:       "",
	kindSegment:    "-._~!$&'()*+,;=:@",
	kindQuery:      "-._~!$&'()*+,;=:@/?",
	kindQueryParam: "-._~!$&'()*+,;=:@/?",
	kindFragment:   "-._~!$&'()*+,;=:@/?",
}

// escapeAllowed reports whether `c` may appear unescaped in a raw value of
// the given kind. `slashAllowed` additionally permits `/` in segment
// values; other kinds ignore it, and path segments are always rendered
// with it unset, so `/` inside a segment is escaped.
func escapeAllowed(k kind, c byte, slashAllowed bool) bool {
	if alnum(c) {
		return true
	}
	if k == kindPort {
		return false
	}
	if c == '/' && k == kindSegment {
		return slashAllowed
	}
	return inSet(c, allowedExtra[k])
}

// escapeQueryKV additionally escapes `=` and `&` inside a query-parameter
// name or value, on top of the regular query escaped-character predicate.
func escapeQueryKV(c byte) bool {
	return c != '=' && c != '&'
}

// percentEscape percent-encodes every byte of `value` that fails the
// predicate `allowed`.
func percentEscape(value string, allowed func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if allowed(c) {
			b.WriteByte(c)
		} else {
			b.WriteString("%")
			b.WriteString(strings.ToUpper(hexByte(c)))
		}
	}
	return b.String()
}

const hexDigits = "0123456789ABCDEF"

func hexByte(c byte) string {
	return string([]byte{hexDigits[c>>4], hexDigits[c&0x0f]})
}

// Component carries a single raw URI component value together with the
// parameters scanned from it. Segment is a specialized Component (see
// segment.go) that additionally classifies its shape for the inclusion
// oracle.
type Component struct {
	k          kind
	raw        string
	parameters []Parameter
	flags      Flags
}

// newComponent scans `raw` for parameters (when Parameterized is set). A
// port value carrying no parameters must consist of digits only, otherwise
// ErrInvalidURI is returned; values of other kinds are not validated here
// and are percent-escaped when rendered.
func newComponent(k kind, raw string, flags Flags) (Component, error) {
	c := Component{k: k, raw: raw, flags: flags}
	if flags.Has(Parameterized) {
		params, err := scan(raw, k == kindSegment && flags.Has(PathPattern))
		if err != nil {
			return Component{}, err
		}
		c.parameters = params
	}
	if k == kindPort && !c.Parameterized() {
		for i := 0; i < len(raw); i++ {
			if raw[i] < '0' || raw[i] > '9' {
				return Component{}, wrapf(ErrInvalidURI, "invalid port character %q at offset %d", raw[i], i)
			}
		}
	}
	return c, nil
}

// Raw returns the original, unescaped value handed to the component.
func (c Component) Raw() string {
	return c.raw
}

// Parameters returns the ordered list of parameters scanned from the raw
// value.
func (c Component) Parameters() []Parameter {
	return c.parameters
}

// Parameterized reports whether the component carries at least one
// parameter.
func (c Component) Parameterized() bool {
	return len(c.parameters) > 0
}

// staticSlices returns the literal (non-parameter) slices of the raw value
// interleaved with its parameters, i.e. raw = static[0] + param[0].raw +
// static[1] + param[1].raw + ... + static[n].
func (c Component) staticSlices() []string {
	out := make([]string, 0, len(c.parameters)+1)
	pos := 0
	for _, p := range c.parameters {
		out = append(out, c.raw[pos:p.Offset])
		pos = p.Offset + p.Length
	}
	out = append(out, c.raw[pos:])
	return out
}

// render substitutes every parameter with a value drawn from `next` (which
// returns, in order, the value bound to a parameter, or ok=false when
// exhausted) and percent-escapes the literal portions using `allowed`.
// Each substituted value is validated against its parameter's pattern
// before being embedded verbatim (it must already be a legal representation
// of that component, e.g. callers are expected to have escaped it if
// required).
func (c Component) render(next func(Parameter) (string, bool), allowed func(byte) bool) (string, error) {
	if !c.Parameterized() {
		return percentEscape(c.raw, allowed), nil
	}
	statics := c.staticSlices()
	var b strings.Builder
	for i, p := range c.parameters {
		b.WriteString(percentEscape(statics[i], allowed))
		val, ok := next(p)
		if !ok {
			return "", wrapf(ErrMissingParameterValue, "missing value for parameter %q", paramLabel(p, i))
		}
		if err := matchPattern(p, val); err != nil {
			return "", err
		}
		b.WriteString(val)
	}
	b.WriteString(percentEscape(statics[len(statics)-1], allowed))
	return b.String(), nil
}

// paramLabel returns a human-readable label for error messages: the
// parameter's name, or its positional index when unnamed.
func paramLabel(p Parameter, idx int) string {
	if p.Named() {
		return p.Name
	}
	return "#" + strconv.Itoa(idx)
}

// matchPattern validates `val` against the parameter's declared pattern.
func matchPattern(p Parameter, val string) error {
	re, err := regexp.Compile("^(?:" + p.Pattern + ")$")
	if err != nil {
		return wrapf(ErrInvalidURI, "invalid parameter pattern %q: %v", p.Pattern, err)
	}
	if !re.MatchString(val) {
		return wrapf(ErrParameterValueMismatch, "value %q does not match pattern %q", val, p.Pattern)
	}
	return nil
}

// regexFragment returns the regex source for this component's raw value,
// with literal runs quoted and each parameter turned into a capturing
// group (named when the parameter has a name). `label` receives the group
// label used for each parameter position, in order (nil for unnamed).
func (c Component) regexFragment(labels *[]*string) string {
	if !c.Parameterized() {
		return regexp.QuoteMeta(c.raw)
	}
	statics := c.staticSlices()
	var b strings.Builder
	for i, p := range c.parameters {
		b.WriteString(regexp.QuoteMeta(statics[i]))
		if p.Named() {
			name := p.Name
			b.WriteString("(?P<")
			b.WriteString(name)
			b.WriteString(">")
			b.WriteString(p.Pattern)
			b.WriteString(")")
			*labels = append(*labels, &name)
		} else {
			b.WriteString("(")
			b.WriteString(p.Pattern)
			b.WriteString(")")
			*labels = append(*labels, nil)
		}
	}
	b.WriteString(regexp.QuoteMeta(statics[len(statics)-1]))
	return b.String()
}
