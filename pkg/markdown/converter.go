// Package markdown renders model output to the HTML subset Telegram accepts.
package markdown

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	paragraphRe  = regexp.MustCompile(`<p>(.*?)</p>`)
	codeBlockRe  = regexp.MustCompile(`<pre><code(?: class="[^"]*")?>(.*?)</code></pre>`)
	anyTagRe     = regexp.MustCompile(`</?([a-zA-Z]+)(?:\s[^>]*)?>`)
	tagNameRe    = regexp.MustCompile(`</?([a-zA-Z]+)`)
	extraLinesRe = regexp.MustCompile(`\n{3,}`)

	tagReplacer = strings.NewReplacer(
		"<strong>", "<b>", "</strong>", "</b>",
		"<em>", "<i>", "</em>", "</i>",
		"<ul>", "", "</ul>", "",
		"<ol>", "", "</ol>", "",
		"<li>", "• ", "</li>", "\n",
	)
)

// Tags Telegram's HTML parse mode understands; everything else is stripped.
var supportedTags = map[string]bool{
	"b": true, "i": true, "u": true, "s": true,
	"code": true, "pre": true, "a": true, "br": true,
}

// ToTelegramHTML converts markdown to Telegram-compatible HTML.
func ToTelegramHTML(markdown string) string {
	if markdown == "" {
		return ""
	}

	html := string(blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions)))

	html = paragraphRe.ReplaceAllString(html, "$1\n")
	html = tagReplacer.Replace(html)
	html = codeBlockRe.ReplaceAllString(html, "<pre>$1</pre>")

	html = anyTagRe.ReplaceAllStringFunc(html, func(match string) string {
		tagMatch := tagNameRe.FindStringSubmatch(match)
		if len(tagMatch) > 1 && supportedTags[tagMatch[1]] {
			return match
		}
		return ""
	})

	html = extraLinesRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
