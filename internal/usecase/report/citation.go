package report

import (
	"fmt"
	"regexp"
	"strings"
)

var citationPattern = regexp.MustCompile(`\[Source:\s*(T\d+)\]`)

// RewriteCitations implements spec §4.9 step 5's post-processing: escape
// stray '['/']' that would otherwise collide with markdown link syntax,
// while preserving every [Source: Tn] span, then turn each citation into
// a real markdown link [Tn](post_url) using the sources map. A citation
// naming a Tn label outside the sources map (the model hallucinated or
// referenced a truncated-out source) is left as plain text rather than
// linked to nothing.
func RewriteCitations(raw string, sources map[string]Source) string {
	var placeholders []string
	replacements := make(map[string]string)

	protected := citationPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := citationPattern.FindStringSubmatch(match)
		label := sub[1]
		placeholder := fmt.Sprintf("\x00CITATION_%d\x00", len(placeholders))
		placeholders = append(placeholders, placeholder)

		if src, ok := sources[label]; ok {
			replacements[placeholder] = fmt.Sprintf("[%s](%s)", label, src.PostURL)
		} else {
			replacements[placeholder] = label
		}
		return placeholder
	})

	escaped := strings.NewReplacer("[", "\\[", "]", "\\]").Replace(protected)

	for _, placeholder := range placeholders {
		escaped = strings.ReplaceAll(escaped, placeholder, replacements[placeholder])
	}
	return escaped
}
