package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/denisbrodbeck/striphtmltags"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

const (
	maxTitleLen   = 512
	maxNameLen    = 64
	maxCaptionLen = 1024 // telegram limit for media captions
)

var strictPolicy = bluemonday.StrictPolicy()

// caption makes html caption for the audio, all user-provided parts escaped.
// Length is counted after escaping, entities included.
func caption(title, requestedBy, footer string) string {
	head := fmt.Sprintf("🎵 <b>%s</b>", escapeFit(cleanText(title, maxTitleLen), maxTitleLen))
	var b strings.Builder
	b.WriteString(head)
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(escapeFit(cleanText(footer, maxTitleLen), maxTitleLen))
	}
	if name := cleanText(requestedBy, maxNameLen); name != "" {
		b.WriteString("\nrequested by ")
		b.WriteString(escapeFit(name, maxNameLen*2))
	}

	if res := b.String(); utf8.RuneCountInString(res) <= maxCaptionLen {
		return res
	}
	// drop the optional parts
	return head
}

// escapeFit escapes text for html and cuts it so the escaped result takes at most maxLen runes
func escapeFit(text string, maxLen int) string {
	res := html.EscapeString(text)
	if utf8.RuneCountInString(res) <= maxLen {
		return res
	}
	runes := []rune(text)
	for n := len(runes) - 1; n > 0; n-- {
		res = html.EscapeString(strings.TrimSpace(string(runes[:n]))) + "…"
		if utf8.RuneCountInString(res) <= maxLen {
			return res
		}
	}
	return ""
}

// cleanText strips html and cuts text to max runes
func cleanText(inp string, maxLen int) string {
	res := striphtmltags.StripTags(inp)
	res = html.UnescapeString(strictPolicy.Sanitize(res))
	res = strings.Join(strings.Fields(res), " ")
	if utf8.RuneCountInString(res) <= maxLen {
		return res
	}
	runes := []rune(res)
	return strings.TrimSpace(string(runes[:maxLen-1])) + "…"
}
