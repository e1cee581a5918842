package gateway

import (
	"regexp"
	"strings"

	"github.com/mengke002/info-collector-X/internal/domain/entity"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

var replyMarkers = []string{"in reply to", "replying to"}

// classifyKind rule-classifies a post body into one of the four kinds.
// Order matters: REPLY and QUOTE are checked before the URL-density rule
// so that a quoted tweet consisting mostly of a link still reads as
// QUOTE rather than LINK_SHARE.
func classifyKind(body string, mediaURLs []string) entity.PostKind {
	trimmed := strings.TrimSpace(body)
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(trimmed, "@") {
		return entity.PostReply
	}
	for _, marker := range replyMarkers {
		if strings.Contains(lower, marker) {
			return entity.PostReply
		}
	}

	if strings.Contains(body, ">") && hasBlockquoteLine(body) {
		return entity.PostQuote
	}

	if len(trimmed) > 0 && urlDensity(trimmed) > 0.3 {
		return entity.PostLinkShare
	}

	return entity.PostOriginal
}

func hasBlockquoteLine(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			return true
		}
	}
	return false
}

func urlDensity(body string) float64 {
	matches := urlPattern.FindAllString(body, -1)
	if len(matches) == 0 {
		return 0
	}
	urlChars := 0
	for _, m := range matches {
		urlChars += len(m)
	}
	return float64(urlChars) / float64(len(body))
}
