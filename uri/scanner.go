package uri

// isIdentStart reports whether `c` may start a parameter name: a letter or
// underscore.
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdentPart reports whether `c` may continue a parameter name: a letter,
// digit or underscore.
func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// validName reports whether `name` follows the identifier grammar. An
// empty name is always valid (it denotes an unnamed parameter).
func validName(name string) bool {
	if name == "" {
		return true
	}
	if !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return false
		}
	}
	return true
}

// scan walks `raw` collecting every `{name[:pattern]}` parameter reference
// it contains: DEFAULT -> IN-NAME (after `{`) -> IN-PATTERN (after `:`),
// with `\` escaping the following byte and nested `{}` counted inside a
// pattern so it may itself contain balanced braces. When `pathPattern` is
// true, a bare `?` and `*`/`**` outside of a `{...}` reference are also
// recognized as synthetic unnamed parameters.
//
// scan never allocates beyond the returned parameter slice.
func scan(raw string, pathPattern bool) ([]Parameter, error) {
	var params []Parameter
	n := len(raw)
	i := 0

	for i < n {
		c := raw[i]
		switch {
		case c == '\\':
			if i+1 >= n {
				return nil, errInvalidURI("dangling escape character at offset %d", i)
			}
			i += 2
		case c == '{':
			p, next, err := scanParameter(raw, i)
			if err != nil {
				return nil, err
			}
			params = append(params, p)
			i = next
		case pathPattern && c == '?':
			params = append(params, Parameter{Offset: i, Length: 1, Pattern: questionMarkPattern})
			i++
		case pathPattern && c == '*':
			if i+1 < n && raw[i+1] == '*' {
				if i != 0 || n != 2 {
					return nil, errInvalidURI("'**' is exclusive, it must be the entire segment")
				}
				params = append(params, Parameter{Offset: 0, Length: 2, Pattern: ".*", Directories: true})
				i += 2
			} else {
				params = append(params, Parameter{Offset: i, Length: 1, Pattern: defaultPattern})
				i++
			}
		default:
			i++
		}
	}
	return params, nil
}

// scanParameter parses a single `{name[:pattern]}` reference starting at
// `start` (which must index the opening `{`). It returns the parsed
// Parameter and the offset immediately following the closing `}`.
func scanParameter(raw string, start int) (Parameter, int, error) {
	n := len(raw)
	p := Parameter{Offset: start, Pattern: defaultPattern}
	i := start + 1

	nameStart := i
	for i < n && isIdentPart(raw[i]) {
		i++
	}
	p.Name = raw[nameStart:i]
	if !validName(p.Name) {
		return Parameter{}, 0, errInvalidURI("invalid parameter name %q at offset %d", p.Name, nameStart)
	}

	if i < n && raw[i] == ':' {
		i++
		patStart := i
		depth := 0
		closed := false
		for i < n && !closed {
			switch raw[i] {
			case '\\':
				if i+1 >= n {
					return Parameter{}, 0, errInvalidURI("dangling escape character at offset %d", i)
				}
				i += 2
				continue
			case '{':
				depth++
				i++
			case '}':
				if depth == 0 {
					p.Pattern = raw[patStart:i]
					closed = true
				} else {
					depth--
					i++
				}
			default:
				i++
			}
		}
		if !closed {
			return Parameter{}, 0, errInvalidURI("unbalanced parameter pattern starting at offset %d", patStart)
		}
	}

	if i >= n || raw[i] != '}' {
		return Parameter{}, 0, errInvalidURI("unterminated parameter reference at offset %d", start)
	}
	i++
	p.Length = i - start
	return p, i, nil
}

func errInvalidURI(format string, args ...interface{}) error {
	return wrapf(ErrInvalidURI, format, args...)
}
