package gateway

import (
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mediaExtensionAllowList holds the file extensions the gateway treats as
// embeddable media, independent of host.
var mediaExtensionAllowList = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
	".mov":  true,
	".webm": true,
}

// mediaHostAllowList holds CDN hosts whose URLs are trusted as media even
// when the extension is missing or opaque (signed URLs, query-string
// variants, etc).
var mediaHostAllowList = map[string]bool{
	"pbs.twimg.com":   true,
	"video.twimg.com": true,
	"abs.twimg.com":   true,
	"ton.twimg.com":   true,
}

// htmlToMarkdownAndMedia walks the gateway feed's HTML description,
// producing a markdown rendering and the list of media URLs that survive
// the extension/host allow-list. Headings become `#`-prefixed lines,
// blockquotes keep their `>` marker, every other tag is flattened to its
// text content.
func htmlToMarkdownAndMedia(html string) (string, []string) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html), nil
	}

	var sb strings.Builder
	var mediaURLs []string

	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			if goquery.NodeName(node) == "#text" {
				sb.WriteString(node.Text())
				return
			}
			switch goquery.NodeName(node) {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(node), "h"))
				sb.WriteString("\n" + strings.Repeat("#", level) + " ")
				walk(node)
				sb.WriteString("\n")
			case "blockquote":
				sb.WriteString("\n> ")
				walk(node)
				sb.WriteString("\n")
			case "br":
				sb.WriteString("\n")
			case "p", "div":
				sb.WriteString("\n")
				walk(node)
				sb.WriteString("\n")
			case "img":
				if src, ok := node.Attr("src"); ok && isAllowedMediaURL(src) {
					mediaURLs = append(mediaURLs, src)
				}
			case "video":
				if src, ok := node.Attr("src"); ok && isAllowedMediaURL(src) {
					mediaURLs = append(mediaURLs, src)
				}
				node.Find("source").Each(func(_ int, s *goquery.Selection) {
					if src, ok := s.Attr("src"); ok && isAllowedMediaURL(src) {
						mediaURLs = append(mediaURLs, src)
					}
				})
			default:
				walk(node)
			}
		})
	}
	walk(doc.Selection)

	body := strings.TrimSpace(collapseBlankLines(sb.String()))
	return body, mediaURLs
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

func isAllowedMediaURL(rawURL string) bool {
	ext := strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0]))
	if mediaExtensionAllowList[ext] {
		return true
	}
	return mediaHostAllowList[extractHost(rawURL)]
}

func extractHost(rawURL string) string {
	withoutScheme := rawURL
	if idx := strings.Index(rawURL, "://"); idx >= 0 {
		withoutScheme = rawURL[idx+3:]
	}
	end := strings.IndexAny(withoutScheme, "/?#")
	if end >= 0 {
		withoutScheme = withoutScheme[:end]
	}
	return withoutScheme
}
