package uri

import "strings"

// Matcher wraps the result of applying a Pattern's compiled regex against
// a candidate input string, exposing per-parameter captures by name.
type Matcher struct {
	pattern *Pattern
	input   string
	ok      bool
	groups  []string
}

// Matcher applies the receiver's compiled regex against `input`.
func (p *Pattern) Matcher(input string) (*Matcher, error) {
	re, err := p.compile()
	if err != nil {
		return nil, err
	}
	groups := re.FindStringSubmatch(input)
	return &Matcher{pattern: p, input: input, ok: groups != nil, groups: groups}, nil
}

// Matches reports whether the input matched the pattern.
func (m *Matcher) Matches() bool {
	return m.ok
}

// Parameters returns every named parameter captured by the match, keyed
// by name. Unnamed parameters are omitted, and Parameter cannot retrieve
// them either since it looks up named groups only.
func (m *Matcher) Parameters() map[string]string {
	out := make(map[string]string)
	if !m.ok {
		return out
	}
	names := m.pattern.compiledNames()
	for i, name := range names {
		if name == "" || i >= len(m.groups) {
			continue
		}
		out[name] = m.groups[i]
	}
	return out
}

// Parameter returns the captured value for a single named group.
func (m *Matcher) Parameter(name string) (string, bool) {
	if !m.ok {
		return "", false
	}
	names := m.pattern.compiledNames()
	for i, n := range names {
		if n == name && i < len(m.groups) {
			return m.groups[i], true
		}
	}
	return "", false
}

// compiledNames returns the subexpression names for the compiled regex,
// compiling it first if necessary.
func (p *Pattern) compiledNames() []string {
	re, err := p.compile()
	if err != nil {
		return nil
	}
	return re.SubexpNames()
}

// Less orders two matchers over patterns, first by "no-match sorts last",
// then lexicographically by the raw pattern value — used by callers to
// rank overlapping route candidates.
func (m *Matcher) Less(other *Matcher) bool {
	if m.ok != other.ok {
		return m.ok
	}
	return strings.Compare(m.pattern.raw, other.pattern.raw) < 0
}
