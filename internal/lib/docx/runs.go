package docx

import (
	"html"
	"regexp"
	"strings"
)

// WordprocessingML text lives in <w:t> elements. Word freely splits what the
// author typed as "{{name}}" across several runs ("{{", "na", "me}}"), so tags
// are reassembled before the text reaches the template parser.
//
// The part is handled as text rather than through encoding/xml: re-encoding a
// part with encoding/xml rewrites namespace prefixes, which Word rejects.

var (
	textOpenRe      = regexp.MustCompile(`<w:t(?:\s[^>]*)?>`)
	paragraphOpenRe = regexp.MustCompile(`<w:p(?:\s[^>]*)?>`)
	preserveAttrRe  = regexp.MustCompile(`\sxml:space\s*=\s*"[^"]*"`)
)

const (
	textClose      = "</w:t>"
	paragraphClose = "</w:p>"
)

// textNode is the content span of one <w:t> element. Open is the span of its start tag.
type textNode struct {
	OpenStart, OpenEnd int
	Start, End         int
}

// findTextNodes returns every non-empty <w:t> element in xml in document order.
func findTextNodes(xml string) []textNode {
	var nodes []textNode
	for _, loc := range textOpenRe.FindAllStringIndex(xml, -1) {
		if strings.HasSuffix(xml[loc[0]:loc[1]], "/>") {
			continue
		}
		end := strings.Index(xml[loc[1]:], textClose)
		if end < 0 {
			continue
		}
		nodes = append(nodes, textNode{
			OpenStart: loc[0],
			OpenEnd:   loc[1],
			Start:     loc[1],
			End:       loc[1] + end,
		})
	}
	return nodes
}

// mergeSplitTags moves every tag spanning several text nodes into the node
// holding its opening delimiter. Text outside tags stays where it was.
func mergeSplitTags(xml string) string {
	nodes := findTextNodes(xml)
	if len(nodes) == 0 {
		return xml
	}

	// owner[i] is the node owning the i-th character of the joined text.
	var joined strings.Builder
	owner := make([]int, 0, len(xml)/4)
	for n, node := range nodes {
		joined.WriteString(xml[node.Start:node.End])
		for range node.End - node.Start {
			owner = append(owner, n)
		}
	}
	text := joined.String()

	tags := scanTags(text)
	moved := false
	for _, t := range tags {
		if !t.closed() {
			continue
		}
		first := owner[t.Start]
		for i := t.Start; i < t.End; i++ {
			if owner[i] != first {
				owner[i] = first
				moved = true
			}
		}
	}

	contents := make([]strings.Builder, len(nodes))
	for i := range len(text) {
		contents[owner[i]].WriteByte(text[i])
	}

	hasTag := make([]bool, len(nodes))
	for _, t := range tags {
		if t.closed() {
			hasTag[owner[t.Start]] = true
		}
	}

	if !moved && !anyTrue(hasTag) {
		return xml
	}

	var out strings.Builder
	out.Grow(len(xml))
	prev := 0
	for n, node := range nodes {
		out.WriteString(xml[prev:node.OpenStart])
		openTag := xml[node.OpenStart:node.OpenEnd]
		content := contents[n].String()
		if hasTag[n] {
			openTag = preserveSpace(openTag)
			content = unescapeTags(content)
		}
		out.WriteString(openTag)
		out.WriteString(content)
		prev = node.End
	}
	out.WriteString(xml[prev:])
	return out.String()
}

func anyTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

// preserveSpace makes a <w:t> start tag keep leading and trailing spaces,
// which substituted values routinely carry.
func preserveSpace(openTag string) string {
	openTag = preserveAttrRe.ReplaceAllString(openTag, "")
	return strings.TrimSuffix(openTag, ">") + ` xml:space="preserve">`
}

// unescapeTags turns entity-escaped characters inside tags back into the
// literal characters the template parser expects ("{{#if a &quot;b&quot;}}").
func unescapeTags(s string) string {
	tags := scanTags(s)
	if len(tags) == 0 {
		return s
	}
	var out strings.Builder
	prev := 0
	for _, t := range tags {
		if !t.closed() {
			continue
		}
		out.WriteString(s[prev:t.Start])
		out.WriteString(html.UnescapeString(t.Text))
		prev = t.End
	}
	out.WriteString(s[prev:])
	return out.String()
}

// collapseLoopParagraphs replaces every paragraph whose only text is a single
// section tag ({{#x}}, {{^x}}, {{/x}}, {{else}}) with the bare tag, so loops
// repeat whole paragraphs and leave no empty ones behind.
func collapseLoopParagraphs(xml string) string {
	var out strings.Builder
	prev := 0
	changed := false

	for _, loc := range paragraphOpenRe.FindAllStringIndex(xml, -1) {
		if loc[0] < prev || strings.HasSuffix(xml[loc[0]:loc[1]], "/>") {
			continue
		}
		end := strings.Index(xml[loc[1]:], paragraphClose)
		if end < 0 {
			continue
		}
		end += loc[1] + len(paragraphClose)
		body := xml[loc[1] : end-len(paragraphClose)]

		// Only innermost paragraphs: one nesting a text box is left alone.
		if paragraphOpenRe.MatchString(body) {
			continue
		}

		tag, ok := soleLoopTag(body)
		if !ok {
			continue
		}
		out.WriteString(xml[prev:loc[0]])
		out.WriteString(tag)
		prev = end
		changed = true
	}

	if !changed {
		return xml
	}
	out.WriteString(xml[prev:])
	return out.String()
}

// soleLoopTag returns the tag when the paragraph text consists of exactly one
// section-structure tag and whitespace.
func soleLoopTag(paragraph string) (string, bool) {
	var text strings.Builder
	for _, n := range findTextNodes(paragraph) {
		text.WriteString(paragraph[n.Start:n.End])
	}
	t := strings.TrimSpace(text.String())
	tags := scanTags(t)
	if len(tags) != 1 || !tags[0].closed() || tags[0].Start != 0 || tags[0].End != len(t) {
		return "", false
	}
	switch tags[0].kind() {
	case tagSection, tagInverse, tagClose, tagElse:
		return tags[0].Text, true
	}
	return "", false
}
