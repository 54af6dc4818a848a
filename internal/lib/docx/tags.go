package docx

import (
	"fmt"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// tagKind classifies a placeholder by its leading sigil.
type tagKind int

const (
	tagValue   tagKind = iota // {{name}}
	tagRaw                    // {{{name}}} or {{&name}}
	tagSection                // {{#name}}
	tagInverse                // {{^name}}
	tagClose                  // {{/name}}
	tagElse                   // {{else}}
	tagComment                // {{! ... }}
	tagPartial                // {{> name}}
)

// tagSpan locates one placeholder inside a text. End is exclusive.
// An unclosed tag has End == -1.
type tagSpan struct {
	Start int
	End   int
	Text  string
}

func (t tagSpan) closed() bool { return t.End >= 0 }

// body returns the placeholder content with delimiters and surrounding space removed.
func (t tagSpan) body() string {
	s := t.Text
	if strings.HasPrefix(s, "{{{") && strings.HasSuffix(s, "}}}") && len(s) >= 6 {
		return strings.TrimSpace(s[3 : len(s)-3])
	}
	s = strings.TrimPrefix(s, openDelim)
	s = strings.TrimSuffix(s, closeDelim)
	s = strings.TrimPrefix(s, "~")
	s = strings.TrimSuffix(s, "~")
	return strings.TrimSpace(s)
}

func (t tagSpan) kind() tagKind {
	if strings.HasPrefix(t.Text, "{{{") {
		return tagRaw
	}
	b := t.body()
	switch {
	case b == "else":
		return tagElse
	case strings.HasPrefix(b, "#"):
		return tagSection
	case strings.HasPrefix(b, "^"):
		return tagInverse
	case strings.HasPrefix(b, "/"):
		return tagClose
	case strings.HasPrefix(b, "!"):
		return tagComment
	case strings.HasPrefix(b, ">"):
		return tagPartial
	case strings.HasPrefix(b, "&"):
		return tagRaw
	}
	return tagValue
}

// name returns the identifier a section tag opens or closes.
// For block helpers ({{#each items}}) the helper name is returned, matching
// what its closing tag ({{/each}}) carries.
func (t tagSpan) name() string {
	b := strings.TrimSpace(strings.TrimLeft(t.body(), "#^/&>"))
	if i := strings.IndexAny(b, " \t\r\n"); i >= 0 {
		b = b[:i]
	}
	return b
}

// scanTags finds every placeholder in s in order of appearance.
func scanTags(s string) []tagSpan {
	var tags []tagSpan
	pos := 0
	for {
		i := strings.Index(s[pos:], openDelim)
		if i < 0 {
			return tags
		}
		start := pos + i
		closer := closeDelim
		if strings.HasPrefix(s[start:], "{{{") {
			closer = "}}}"
		}
		j := strings.Index(s[start+len(openDelim):], closer)
		next := strings.Index(s[start+len(openDelim):], openDelim)
		if j < 0 || (next >= 0 && next < j && closer == closeDelim) {
			// Unclosed: the next opening delimiter (or the end) comes first.
			tags = append(tags, tagSpan{Start: start, End: -1, Text: s[start:lineEnd(s, start)]})
			if next < 0 {
				return tags
			}
			pos = start + len(openDelim) + next
			continue
		}
		end := start + len(openDelim) + j + len(closer)
		tags = append(tags, tagSpan{Start: start, End: end, Text: s[start:end]})
		pos = end
	}
}

// lineEnd bounds the excerpt shown for an unclosed tag.
func lineEnd(s string, start int) int {
	end := start + 40
	if end > len(s) {
		end = len(s)
	}
	if i := strings.IndexAny(s[start:end], "<\n"); i > 0 {
		return start + i
	}
	return end
}

// checkSyntax reports every placeholder problem in text, in order of appearance.
func checkSyntax(part, text string) []*TemplateError {
	var problems []*TemplateError
	add := func(tag, format string, args ...any) {
		problems = append(problems, &TemplateError{
			Part:        part,
			Tag:         tag,
			Explanation: fmt.Sprintf(format, args...),
		})
	}

	tags := scanTags(text)

	// Closing delimiters that belong to no tag.
	prev := 0
	for _, t := range tags {
		if t.Start > prev {
			for range strings.Count(text[prev:t.Start], closeDelim) {
				add(closeDelim, "The tag ending with %q has no opening delimiter", closeDelim)
			}
		}
		if t.closed() {
			prev = t.End
		} else {
			prev = t.Start + len(openDelim)
		}
	}
	if prev < len(text) {
		for range strings.Count(text[prev:], closeDelim) {
			add(closeDelim, "The tag ending with %q has no opening delimiter", closeDelim)
		}
	}

	type open struct {
		name string
		tag  string
	}
	var stack []open

	for _, t := range tags {
		if !t.closed() {
			add(t.Text, "The tag beginning with %q is unclosed", t.Text)
			continue
		}
		if t.body() == "" {
			add(t.Text, "The tag %q is empty", t.Text)
			continue
		}
		switch t.kind() {
		case tagSection, tagInverse:
			if t.name() == "" {
				add(t.Text, "The loop tag %q has no name", t.Text)
				continue
			}
			stack = append(stack, open{name: t.name(), tag: t.Text})
		case tagClose:
			name := t.name()
			if len(stack) == 0 {
				add(t.Text, "The loop tag %q is closed but was never opened", t.Text)
				continue
			}
			top := stack[len(stack)-1]
			if top.name != name {
				add(t.Text, "The loop tag %q is closed by %q", top.tag, t.Text)
				// A close matching an outer section ends everything above it.
				for k := len(stack) - 2; k >= 0; k-- {
					if stack[k].name == name {
						stack = stack[:k]
						break
					}
				}
				continue
			}
			stack = stack[:len(stack)-1]
		case tagElse:
			if len(stack) == 0 {
				add(t.Text, "The tag %q is outside of a loop", t.Text)
			}
		}
	}

	for _, o := range stack {
		add(o.tag, "The loop tag %q is unclosed", o.tag)
	}

	return problems
}
