package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// BuildHeader renders the standard header every report variant gets
// wrapped with, per spec §4.9 step 5: title, generation time, window,
// and post count.
func BuildHeader(title string, generatedAt, windowStart, windowEnd time.Time, postCount int) string {
	return fmt.Sprintf("# %s\n\nGenerated: %s\nWindow: %s to %s\nPosts analyzed: %d\n\n",
		title,
		generatedAt.Format(time.RFC3339),
		windowStart.Format(time.RFC3339),
		windowEnd.Format(time.RFC3339),
		postCount)
}

// BuildSourcesAppendix renders the "sources" appendix from the packed
// sources map, in citation order.
func BuildSourcesAppendix(sources map[string]Source) string {
	ordered := make([]Source, 0, len(sources))
	for _, src := range sources {
		ordered = append(ordered, src)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var sb strings.Builder
	sb.WriteString("\n## Sources\n\n")
	for _, src := range ordered {
		sb.WriteString(fmt.Sprintf("- T%d: @%s — %s\n", src.Index, src.Handle, src.PostURL))
	}
	return sb.String()
}
