package tavily

import (
	"strings"

	"golang.org/x/net/html"
)

const maxSnippetLen = 1_000

// CleanSnippet strips HTML markup out of a search result's content and
// collapses whitespace, so prompts carry readable text instead of tag soup.
// Content without markup passes through unchanged apart from the length cap.
func CleanSnippet(content string) string {
	if strings.ContainsAny(content, "<>") {
		if doc, err := html.Parse(strings.NewReader(content)); err == nil {
			var sb strings.Builder
			collectText(doc, &sb)
			content = sb.String()
		}
	}

	content = strings.Join(strings.Fields(content), " ")

	if len(content) > maxSnippetLen {
		content = content[:maxSnippetLen] + "..."
	}
	return content
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
