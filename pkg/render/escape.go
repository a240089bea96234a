package render

import "strings"

// Text and attribute positions share the markup-significant set; attribute
// values additionally encode whitespace that would split or end the value.
var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

// escapeHTML escapes s for text content position.
func escapeHTML(s string) string {
	return textEscaper.Replace(s)
}

// escapeAttr escapes s for attribute value position.
func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
