package uri

import "strings"

// ParseRequestTarget builds a Builder from one of the RFC-7230
// request-target forms named in spec.md §6.1: absolute-URI, origin-form
// (`absolute-path [ "?" query ]`) and origin-extended (origin-form plus an
// optional `#fragment`). Origin-form is incompatible with PathPattern
// since `?` is ambiguous between the query delimiter and the path-pattern
// single-character operator.
func ParseRequestTarget(raw string, flags Flags) (*Builder, error) {
	isAbsolute := strings.Contains(raw, "://")
	if flags.Has(PathPattern) && !isAbsolute {
		return nil, wrapf(ErrIncompatibleBuilderOption, "PathPattern is incompatible with origin-form request-targets")
	}

	b := New(flags)
	rest := raw

	if isAbsolute {
		idx := strings.Index(rest, "://")
		if err := b.Scheme(rest[:idx]); err != nil {
			return nil, err
		}
		rest = rest[idx+3:]
		authority := rest
		if slash := strings.IndexByte(rest, '/'); slash >= 0 {
			authority = rest[:slash]
			rest = rest[slash:]
		} else {
			rest = ""
		}
		if err := parseAuthority(b, authority); err != nil {
			return nil, err
		}
	}

	if h := strings.IndexByte(rest, '#'); h >= 0 {
		if err := b.Fragment(rest[h+1:]); err != nil {
			return nil, err
		}
		rest = rest[:h]
	}
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		if err := b.Query(rest[q+1:]); err != nil {
			return nil, err
		}
		rest = rest[:q]
	}
	if rest != "" {
		if err := b.Path(rest, false); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// parseAuthority splits `authority` into user-info, host and port
// components and registers them on `b`.
func parseAuthority(b *Builder, authority string) error {
	host := authority
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		if err := b.UserInfo(authority[:at]); err != nil {
			return err
		}
		host = authority[at+1:]
	}
	// A ':' inside a bracketed IPv6 literal does not separate a port.
	if c := strings.LastIndexByte(host, ':'); c >= 0 && !strings.Contains(host[c:], "]") {
		if err := b.Host(host[:c]); err != nil {
			return err
		}
		return b.Port(host[c+1:])
	}
	return b.Host(host)
}
