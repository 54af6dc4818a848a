package docx

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/aymerick/raymond"
)

// lineBreak closes the current text element, inserts a break and reopens text
// within the same run.
const lineBreak = `</w:t><w:br/><w:t xml:space="preserve">`

// TemplateError describes one placeholder problem found while compiling.
type TemplateError struct {
	Part        string `json:"part"`
	Tag         string `json:"tag,omitempty"`
	Explanation string `json:"explanation"`
}

func (e *TemplateError) Error() string {
	if e.Part == "" {
		return e.Explanation
	}
	return e.Part + ": " + e.Explanation
}

// MultiError carries every problem found while compiling a document.
type MultiError struct {
	Errors []*TemplateError
}

func (e *MultiError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = fmt.Sprintf("Error %d: %s", i+1, err.Explanation)
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *MultiError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// RenderError reports a failure while binding data into a compiled part.
type RenderError struct {
	Part        string
	Explanation string
}

func (e *RenderError) Error() string {
	return e.Part + ": " + e.Explanation
}

// Options configure how document parts are prepared for templating.
type Options struct {
	// ParagraphLoop collapses paragraphs holding only a loop tag, so loops
	// repeat paragraphs instead of leaving an empty one at each end.
	ParagraphLoop bool

	// Linebreaks turns newlines in string values into Word line breaks.
	Linebreaks bool
}

// DefaultOptions enables paragraph loops and line breaks.
func DefaultOptions() Options {
	return Options{ParagraphLoop: true, Linebreaks: true}
}

// IsTemplatedPart reports whether the archive entry carries user-visible
// text that may hold placeholders.
func IsTemplatedPart(name string) bool {
	switch name {
	case "word/document.xml", "word/footnotes.xml", "word/endnotes.xml",
		"docProps/core.xml", "docProps/app.xml":
		return true
	}
	if path.Dir(name) != "word" || path.Ext(name) != ".xml" {
		return false
	}
	base := path.Base(name)
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

// Template is a document whose templated parts have been parsed.
type Template struct {
	doc   *Document
	parts map[string]*raymond.Template
	opts  Options
}

// Parts returns the names of the parts holding placeholders, sorted.
func (t *Template) Parts() []string {
	names := make([]string, 0, len(t.parts))
	for name := range t.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile prepares every templated part of doc and parses its placeholders.
// All syntax problems across all parts are returned together as a *MultiError.
func Compile(doc *Document, opts Options) (*Template, error) {
	tpl := &Template{
		doc:   doc,
		parts: make(map[string]*raymond.Template),
		opts:  opts,
	}

	multi := &MultiError{}
	for _, e := range doc.Entries {
		if e.IsDir() || !IsTemplatedPart(e.Name) {
			continue
		}
		src := mergeSplitTags(string(e.Data))
		if !strings.Contains(src, openDelim) && !strings.Contains(src, closeDelim) {
			continue
		}
		if opts.ParagraphLoop {
			src = collapseLoopParagraphs(src)
		}

		if problems := checkSyntax(e.Name, src); len(problems) > 0 {
			multi.Errors = append(multi.Errors, problems...)
			continue
		}

		parsed, err := raymond.Parse(src)
		if err != nil {
			multi.Errors = append(multi.Errors, &TemplateError{
				Part:        e.Name,
				Explanation: err.Error(),
			})
			continue
		}
		tpl.parts[e.Name] = parsed
	}

	if len(multi.Errors) > 0 {
		return nil, multi
	}
	return tpl, nil
}

// Render binds data into every templated part and returns the rendered document.
// The template is not modified.
func (t *Template) Render(data map[string]any) (*Document, error) {
	wordCtx := prepareData(data, t.opts.Linebreaks)
	plainCtx := wordCtx
	if t.opts.Linebreaks {
		plainCtx = prepareData(data, false)
	}

	out := t.doc.clone()
	for _, name := range t.Parts() {
		ctx := plainCtx
		if isWordprocessingPart(name) {
			ctx = wordCtx
		}
		rendered, err := execPart(name, t.parts[name], ctx)
		if err != nil {
			return nil, err
		}
		out.index[name].Data = []byte(rendered)
	}
	return out, nil
}

// isWordprocessingPart reports whether <w:br/> markup is valid in the part.
// Package properties under docProps/ are plain XML.
func isWordprocessingPart(name string) bool {
	return strings.HasPrefix(name, "word/")
}

// execPart runs one part. raymond reports most evaluation failures by
// panicking inside Exec; those are converted into a *RenderError.
func execPart(name string, tpl *raymond.Template, ctx map[string]any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Part: name, Explanation: fmt.Sprint(r)}
		}
	}()
	out, err = tpl.Exec(ctx)
	if err != nil {
		return "", &RenderError{Part: name, Explanation: err.Error()}
	}
	return out, nil
}

// prepareData converts decoded JSON into the values handed to the templates.
// json.Number keeps its original text unless it round-trips through an
// int64 or float64; any spelling of zero becomes 0 so it stays falsy in sections; with linebreaks enabled,
// strings holding newlines become pre-escaped markup with <w:br/> elements.
func prepareData(data map[string]any, linebreaks bool) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = prepareValue(v, linebreaks)
	}
	return out
}

func prepareValue(v any, linebreaks bool) any {
	switch val := v.(type) {
	case map[string]any:
		return prepareData(val, linebreaks)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = prepareValue(item, linebreaks)
		}
		return out
	case json.Number:
		return numberValue(val)
	case string:
		if linebreaks && strings.ContainsAny(val, "\r\n") {
			return withLineBreaks(val)
		}
		return val
	}
	return v
}

func numberValue(n json.Number) any {
	text := n.String()
	if i, err := strconv.ParseInt(text, 10, 64); err == nil && strconv.FormatInt(i, 10) == text {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		if f == 0 {
			return int64(0)
		}
		if strconv.FormatFloat(f, 'f', -1, 64) == text {
			return f
		}
	}
	return text
}

func withLineBreaks(s string) raymond.SafeString {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = raymond.Escape(line)
	}
	return raymond.SafeString(strings.Join(lines, lineBreak))
}
