// Package pattern implements the key-matching syntax shared by cache
// clearing and rule-driven invalidation.
//
// A pattern is matched against a cache key as follows: a pattern with no
// metacharacters matches only the identical key; a lone '*' matches any
// run of characters; embedded regular-expression fragments (\d+, character
// classes, alternation) are honored as-is. Matches are always anchored to
// the full key.
//
// Patterns may also carry {field} placeholders, resolved against event
// data before matching. Unresolved placeholders are left as literal text.
package pattern
