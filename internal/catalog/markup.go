package catalog

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup reduces an HTML fragment to its visible text. Script and
// style contents are dropped and block-level tags become word breaks.
func StripMarkup(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return input
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var textBuilder strings.Builder
	hidden := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; keep what was read
			return cleanText(textBuilder.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				hidden++
			case "br", "p", "div", "li", "ul", "ol", "blockquote", "h1", "h2", "h3", "h4":
				textBuilder.WriteByte(' ')
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style":
				if hidden > 0 {
					hidden--
				}
			case "p", "div", "li", "blockquote", "h1", "h2", "h3", "h4":
				textBuilder.WriteByte(' ')
			}

		case html.TextToken:
			if hidden == 0 {
				textBuilder.Write(tokenizer.Text())
			}
		}
	}
}

// cleanText removes excessive whitespace
func cleanText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
