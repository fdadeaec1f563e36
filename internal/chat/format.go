package chat

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberedItem = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)
	bulletItem   = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)

	inlineCode = regexp.MustCompile("`([^`]+)`")
	codeSlot   = regexp.MustCompile(`\x00(\d+)\x00`)
	boldItalic = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	bold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italic     = regexp.MustCompile(`\*(.+?)\*`)
	underscore = regexp.MustCompile(`(^|[^\w])_([^_]+)_([^\w]|$)`)
)

type listKind int

const (
	noList listKind = iota
	orderedList
	bulletList
)

// FormatReply renders the small markdown subset the assistant produces
// (emphasis, inline code, numbered and bullet lists, paragraphs) as HTML.
// The text is escaped first, so model output can never inject markup.
func FormatReply(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	text = html.EscapeString(text)

	var (
		out   strings.Builder
		para  []string
		items []string
		kind  = noList
	)

	flushPara := func() {
		if len(para) > 0 {
			out.WriteString("<p>" + strings.Join(para, "<br>") + "</p>")
			para = nil
		}
	}
	flushList := func() {
		if len(items) == 0 {
			return
		}
		tag, class := "ol", "ai-numbered-list"
		if kind == bulletList {
			tag, class = "ul", "ai-bullet-list"
		}
		out.WriteString(`<` + tag + ` class="` + class + `">`)
		for _, it := range items {
			out.WriteString("<li>" + it + "</li>")
		}
		out.WriteString("</" + tag + ">")
		items, kind = nil, noList
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flushPara()
			flushList()
			continue
		}
		if m := numberedItem.FindStringSubmatch(line); m != nil {
			flushPara()
			if kind != orderedList {
				flushList()
			}
			kind = orderedList
			items = append(items, formatInline(m[1]))
			continue
		}
		if m := bulletItem.FindStringSubmatch(line); m != nil {
			flushPara()
			if kind != bulletList {
				flushList()
			}
			kind = bulletList
			items = append(items, formatInline(m[1]))
			continue
		}
		flushList()
		para = append(para, formatInline(strings.TrimSpace(line)))
	}
	flushPara()
	flushList()

	return out.String()
}

// formatInline applies emphasis outside code spans. Code spans are parked
// behind NUL-delimited slots while the emphasis passes run.
func formatInline(s string) string {
	var spans []string
	s = inlineCode.ReplaceAllStringFunc(s, func(m string) string {
		spans = append(spans, m[1:len(m)-1])
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	s = boldItalic.ReplaceAllString(s, `<strong><em>$1</em></strong>`)
	s = bold.ReplaceAllString(s, `<strong>$1</strong>`)
	s = italic.ReplaceAllString(s, `<em>$1</em>`)
	// Each match eats its trailing boundary, so adjacent spans need another pass.
	for {
		next := underscore.ReplaceAllString(s, `$1<em>$2</em>$3`)
		if next == s {
			break
		}
		s = next
	}

	return codeSlot.ReplaceAllStringFunc(s, func(m string) string {
		i, _ := strconv.Atoi(m[1 : len(m)-1])
		return `<code class="inline-code">` + spans[i] + `</code>`
	})
}
