// globmatch.go — the glob engine backing route interception pattern
// matching (spec.md §4.5): `*`, `**`, `?`, and brace alternation, translated
// to a regular expression. No third-party glob library appears anywhere in
// the example corpus (neither the teacher nor any sibling repo imports one),
// so this is the one component built on the standard library alone —
// documented in DESIGN.md rather than silently defaulting to stdlib.
package globmatch

import (
	"regexp"
	"strings"
)

// Pattern is a compiled glob, or an exact-match fallback if the underlying
// translation failed to compile as a regular expression (spec §4.5: "A
// pattern that fails to compile falls back to exact-string equality").
type Pattern struct {
	raw   string
	re    *regexp.Regexp
	exact bool
}

// Compile translates a glob pattern into a Pattern. Compile never returns an
// error: a pattern that cannot be turned into a working regular expression
// becomes an exact-match Pattern instead, per spec §4.5.
func Compile(pattern string) *Pattern {
	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		return &Pattern{raw: pattern, exact: true}
	}
	return &Pattern{raw: pattern, re: re}
}

// Match reports whether url satisfies the pattern.
func (p *Pattern) Match(url string) bool {
	if p.exact {
		return p.raw == url
	}
	return p.re.MatchString(url)
}

// String returns the original, un-translated pattern text.
func (p *Pattern) String() string { return p.raw }

// translate converts a glob pattern to an anchored regular expression.
// `**` matches any sequence including path separators; a lone `*` matches
// any sequence except `/`; `?` matches exactly one non-`/` character; `{a,b}`
// expands to a non-capturing alternation; every other regex metacharacter is
// escaped literally.
func translate(pattern string) string {
	return "^" + translateBody(pattern) + "$"
}

// translateBody translates pattern without the surrounding anchors, so it
// can be embedded inside a brace-alternation group.
func translateBody(pattern string) string {
	var b strings.Builder

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '{':
			j := i + 1
			depth := 1
			for j < len(runes) && depth > 0 {
				switch runes[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			if j >= len(runes) {
				// Unterminated brace: treat '{' literally.
				b.WriteString(regexp.QuoteMeta("{"))
				continue
			}
			alts := strings.Split(string(runes[i+1:j]), ",")
			b.WriteString("(?:")
			for k, alt := range alts {
				if k > 0 {
					b.WriteString("|")
				}
				b.WriteString(translateBody(alt))
			}
			b.WriteString(")")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	return b.String()
}
