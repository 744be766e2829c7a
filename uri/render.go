package uri

import "strings"

// resolver returns, for each parameter encountered (in document order), the
// value to substitute and whether one was available.
type resolver func(p Parameter) (string, bool)

// positional returns a resolver that consumes `values` in order,
// regardless of parameter name, advancing its internal index by one per
// parameter across every component of the Builder.
func positional(values []string) resolver {
	i := 0
	return func(_ Parameter) (string, bool) {
		if i >= len(values) {
			return "", false
		}
		v := values[i]
		i++
		return v, true
	}
}

// byName returns a resolver that looks up each parameter by its declared
// name. Unnamed parameters never resolve under this mode.
func byName(values map[string]string) resolver {
	return func(p Parameter) (string, bool) {
		if !p.Named() {
			return "", false
		}
		v, ok := values[p.Name]
		return v, ok
	}
}

// BuildString renders the URI using positional parameter values, consumed
// in the order components were set: scheme, user-info, host, port, path
// segments (in append order), query (or query parameters), fragment.
func (b *Builder) BuildString(values ...string) (string, error) {
	return b.build(positional(values))
}

// BuildStringNamed renders the URI using a name -> value map. Every
// parameter referenced by the Builder must be named; unnamed parameters
// always fail with ErrMissingParameterValue under this mode.
func (b *Builder) BuildStringNamed(values map[string]string) (string, error) {
	return b.build(byName(values))
}

// String renders the URI assuming it carries no parameters; equivalent to
// BuildString() with no values.
func (b *Builder) String() string {
	s, err := b.BuildString()
	if err != nil {
		return err.Error()
	}
	return s
}

func (b *Builder) build(next resolver) (string, error) {
	var out strings.Builder

	hasAuthority := b.host != nil

	if b.scheme != nil {
		s, err := b.scheme.render(next, schemeAllowed)
		if err != nil {
			return "", err
		}
		out.WriteString(s)
		out.WriteString(":")
	}

	if hasAuthority {
		out.WriteString("//")
		if b.userInfo != nil {
			s, err := b.userInfo.render(next, userInfoAllowed)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			out.WriteString("@")
		}
		hs, err := b.host.render(next, hostAllowed)
		if err != nil {
			return "", err
		}
		out.WriteString(hs)
		if b.port != nil {
			ps, err := b.port.render(next, portAllowed)
			if err != nil {
				return "", err
			}
			out.WriteString(":")
			out.WriteString(ps)
		}
	}

	path, err := b.renderPath(next)
	if err != nil {
		return "", err
	}
	if path != "" && (b.scheme != nil || hasAuthority) && !strings.HasPrefix(path, "/") {
		out.WriteString("/")
	}
	out.WriteString(path)

	if b.query != nil {
		qs, err := b.query.render(next, queryAllowed)
		if err != nil {
			return "", err
		}
		out.WriteString("?")
		out.WriteString(qs)
	} else if len(b.queryParams) > 0 {
		out.WriteString("?")
		for i, qp := range b.queryParams {
			if i > 0 {
				out.WriteString("&")
			}
			ns, err := qp.name.render(next, queryParamAllowed)
			if err != nil {
				return "", err
			}
			vs, err := qp.value.render(next, queryParamAllowed)
			if err != nil {
				return "", err
			}
			out.WriteString(ns)
			out.WriteString("=")
			out.WriteString(vs)
		}
	}

	if b.fragment != nil {
		fs, err := b.fragment.render(next, fragmentAllowed)
		if err != nil {
			return "", err
		}
		out.WriteString("#")
		out.WriteString(fs)
	}

	return out.String(), nil
}

func schemeAllowed(c byte) bool     { return escapeAllowed(kindScheme, c, true) }
func userInfoAllowed(c byte) bool   { return escapeAllowed(kindUserInfo, c, true) }
func hostAllowed(c byte) bool       { return escapeAllowed(kindHost, c, true) }
func portAllowed(c byte) bool       { return escapeAllowed(kindPort, c, true) }
func queryAllowed(c byte) bool      { return escapeAllowed(kindQuery, c, true) }
func fragmentAllowed(c byte) bool   { return escapeAllowed(kindFragment, c, true) }
func segmentNoSlash(c byte) bool    { return escapeAllowed(kindSegment, c, false) }
func queryParamAllowed(c byte) bool { return escapeAllowed(kindQuery, c, true) && escapeQueryKV(c) }

// renderPath renders every path segment, separated by `/`, substituting
// parameters via `next`. When Normalized is set, parameterized segments'
// rendered (post-substitution) text is run back through the dot-segment
// collapsing algorithm, since substitution may itself produce literal `.`
// or `..` text (spec.md §4.2, "dual-pass" normalization).
func (b *Builder) renderPath(next resolver) (string, error) {
	if len(b.segments) == 0 {
		return "", nil
	}
	rendered := make([]string, 0, len(b.segments))
	for _, seg := range b.segments {
		s, err := seg.render(next, segmentNoSlash)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, s)
	}
	if b.flags.Has(Normalized) {
		rendered = renormalizeRendered(b.segments, rendered)
	}
	if len(rendered) == 1 && rendered[0] == "" {
		return "/", nil
	}
	return strings.Join(rendered, "/"), nil
}

// renormalizeRendered re-applies the append-segment dot-collapsing rule to
// already-rendered segment text, for segments that were parameterized
// (and therefore exempt from the build-time pass in appendSegment).
func renormalizeRendered(segs []Segment, rendered []string) []string {
	out := make([]string, 0, len(rendered))
	for i, s := range rendered {
		if !segs[i].Parameterized() {
			out = append(out, s)
			continue
		}
		switch s {
		case ".":
			continue
		case "..":
			if n := len(out); n > 0 {
				if out[n-1] == ".." {
					out = append(out, s)
					continue
				}
				if n == 1 && out[0] == "" {
					out = append(out, s)
					continue
				}
				out = out[:n-1]
				continue
			}
			out = append(out, s)
		default:
			out = append(out, s)
		}
	}
	return out
}
