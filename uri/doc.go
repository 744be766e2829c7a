/*
Package uri implements a parameterized URI builder, normalizer, renderer
and glob-style path-pattern compiler, matcher and inclusion oracle.

A Builder assembles a URI component by component (scheme, user info, host,
port, path segments, query, fragment); any component's raw value may carry
named or unnamed parameters using the `{name}` / `{name:pattern}` syntax.
When the PathPattern flag is set, path segments additionally recognize the
glob operators `?`, `*` and `**`.

Builders render to a plain string/URI, or compile into a Pattern: an
immutable, pre-computed regular expression plus the metadata required to
match candidate strings (Matcher) or reason about whether one pattern's
matched set is a subset of another's (Pattern.Includes).

More information: https://www.rfc-editor.org/rfc/rfc3986.html
*/
package uri
