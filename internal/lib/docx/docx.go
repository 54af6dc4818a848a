// Package docx turns WordprocessingML (.docx) archives into templates.
//
// A document is opened and validated (Open), its text parts are normalised and
// parsed as Handlebars/Mustache templates (Compile), data is bound into a copy
// of the document (Template.Render) and the result is written back as a ZIP
// archive (Serialize). Placeholder evaluation is delegated to raymond.
package docx

// Engine bundles the document operations behind one value so callers can
// depend on an interface and swap the implementation.
type Engine struct {
	opts    Options
	minSize int
}

// NewEngine creates an Engine. A minSize below 1 falls back to MinDocumentSize.
func NewEngine(opts Options, minSize int) *Engine {
	if minSize < 1 {
		minSize = MinDocumentSize
	}
	return &Engine{opts: opts, minSize: minSize}
}

// Options returns the compile options the engine was created with.
func (e *Engine) Options() Options {
	return e.opts
}

// Open validates b as a document archive. See the package-level Open.
func (e *Engine) Open(b []byte) (*Document, error) {
	if len(b) < e.minSize {
		return nil, &SizeError{Size: len(b), Min: e.minSize}
	}
	return open(b)
}

// Compile parses the placeholders of doc with the engine options.
func (e *Engine) Compile(doc *Document) (*Template, error) {
	return Compile(doc, e.opts)
}

// Render binds data into tpl.
func (e *Engine) Render(tpl *Template, data map[string]any) (*Document, error) {
	return tpl.Render(data)
}

// Serialize writes doc as a ZIP archive.
func (e *Engine) Serialize(doc *Document) ([]byte, error) {
	return Serialize(doc)
}
