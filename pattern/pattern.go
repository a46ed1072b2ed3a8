package pattern

import (
	"regexp"
	"strings"
)

// metaChars are the characters that switch a pattern from exact-match to
// regular-expression matching.
const metaChars = `*\[](){}^$+?|.`

// Matcher is a compiled pattern. Compile never fails: a pattern that does
// not form a valid regular expression degrades to exact string matching.
type Matcher struct {
	exact string
	re    *regexp.Regexp
}

// Compile prepares a pattern for repeated matching.
func Compile(pat string) *Matcher {
	if !HasMeta(pat) {
		return &Matcher{exact: pat}
	}

	re, err := regexp.Compile("^" + expandWildcards(pat) + "$")
	if err != nil {
		// Not a usable expression (e.g. a literal unresolved {field}
		// placeholder). Fall back to exact matching.
		return &Matcher{exact: pat}
	}
	return &Matcher{re: re}
}

// Match reports whether the key matches the compiled pattern.
func (m *Matcher) Match(key string) bool {
	if m.re != nil {
		return m.re.MatchString(key)
	}
	return key == m.exact
}

// Match reports whether key matches pat. For matching one pattern against
// many keys, Compile once and reuse the Matcher.
func Match(key, pat string) bool {
	return Compile(pat).Match(key)
}

// HasMeta reports whether pat contains wildcard or regular-expression
// metacharacters. Patterns without metacharacters are exact matches only.
func HasMeta(pat string) bool {
	return strings.ContainsAny(pat, metaChars)
}

// expandWildcards rewrites each lone '*' as '.*' so that trailing-wildcard
// patterns like "posts/*" behave as prefix matches. A '*' that is already
// part of a regex fragment ('.*' or an escaped '\*') is left untouched.
func expandWildcards(pat string) string {
	var b strings.Builder
	b.Grow(len(pat) + 4)
	for i := 0; i < len(pat); i++ {
		if pat[i] == '*' && (i == 0 || (pat[i-1] != '.' && pat[i-1] != '\\')) {
			b.WriteString(".*")
			continue
		}
		b.WriteByte(pat[i])
	}
	return b.String()
}

// placeholderRe matches {field} placeholder tokens.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolve substitutes {field} placeholders in pat with values from vars.
// Placeholders with no matching var are left as literal text, never an
// error.
func Resolve(pat string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(pat, "{") {
		return pat
	}
	return placeholderRe.ReplaceAllStringFunc(pat, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return tok
	})
}
