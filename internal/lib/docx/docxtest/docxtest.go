// Package docxtest builds small in-memory .docx archives for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"sort"
	"strings"
	"time"
)

const ContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const Rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const DocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`

// Modified is the timestamp stamped on every fixture entry.
var Modified = time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC)

// Body wraps WordprocessingML body content into a complete document part.
func Body(content string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		content + `</w:body></w:document>`
}

// Paragraph returns a paragraph with one run per text fragment.
func Paragraph(fragments ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, f := range fragments {
		b.WriteString(`<w:r><w:t>`)
		b.WriteString(f)
		b.WriteString(`</w:t></w:r>`)
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Parts returns the mandatory parts of a document whose body is content.
func Parts(content string) map[string]string {
	return map[string]string{
		"[Content_Types].xml":          ContentTypes,
		"_rels/.rels":                  Rels,
		"word/_rels/document.xml.rels": DocumentRels,
		"word/document.xml":            Body(content),
	}
}

// Build zips parts. "[Content_Types].xml" goes first, the rest by name.
func Build(parts map[string]string) []byte {
	names := make([]string, 0, len(parts))
	for name := range parts {
		if name != "[Content_Types].xml" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := parts["[Content_Types].xml"]; ok {
		names = append([]string{"[Content_Types].xml"}, names...)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: Modified,
		})
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Document builds a complete .docx whose body is content.
func Document(content string) []byte {
	return Build(Parts(content))
}

// Base64 builds a complete .docx whose body is content and encodes it.
func Base64(content string) string {
	return base64.StdEncoding.EncodeToString(Document(content))
}

// ResumeBody is a résumé-style body: one paragraph looped over
// summary_bullets, followed by skills and tools.
func ResumeBody() string {
	return Paragraph("Resume Test") +
		Paragraph("Summary:") +
		Paragraph("{{#summary_bullets}}") +
		Paragraph("• {{this}}") +
		Paragraph("{{/summary_bullets}}") +
		Paragraph("Skills: {{skills}}") +
		Paragraph("Tools: {{tools}}")
}
