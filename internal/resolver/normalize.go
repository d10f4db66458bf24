package resolver

import "strings"

// NormalizeSymbol canonicalizes a trading symbol for matching.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeName canonicalizes an asset name for comparison: lowercased,
// punctuation stripped, whitespace collapsed.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Slug turns a name into a dash-separated identifier suitable as a
// synthesized asset_uid.
func Slug(name string) string {
	return strings.ReplaceAll(NormalizeName(name), " ", "-")
}
