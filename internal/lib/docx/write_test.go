package docx

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/deppfellow/docx-render/internal/lib/docx/docxtest"
)

func TestSerialize_RoundTrip(t *testing.T) {
	engine := NewEngine(DefaultOptions(), 0)

	doc, err := engine.Open(docxtest.Document(docxtest.ResumeBody()))
	if err != nil {
		t.Fatal(err)
	}
	tpl, err := engine.Compile(doc)
	if err != nil {
		t.Fatal(err)
	}
	rendered, err := engine.Render(tpl, map[string]any{"summary_bullets": []any{"a"}, "skills": "X", "tools": "Y"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := engine.Serialize(rendered)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("expected serialized output to be a valid document, got %v", err)
	}
	if diff := cmp.Diff(doc.Names(), reopened.Names()); diff != "" {
		t.Fatalf("entry order changed (-want +got):\n%s", diff)
	}
	if !reopened.Entry("word/document.xml").Modified.Equal(docxtest.Modified) {
		t.Fatalf("expected modification time to be kept, got %v", reopened.Entry("word/document.xml").Modified)
	}
	if !bytes.Contains(reopened.Entry("word/document.xml").Data, []byte("Skills: X")) {
		t.Fatal("expected rendered content after round trip")
	}
}

func TestSerialize_Deterministic(t *testing.T) {
	doc, err := Open(docxtest.Document(docxtest.Paragraph("{{name}}")))
	if err != nil {
		t.Fatal(err)
	}
	tpl, err := Compile(doc, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	var outputs [][]byte
	for range 2 {
		rendered, err := tpl.Render(map[string]any{"name": "same"})
		if err != nil {
			t.Fatal(err)
		}
		out, err := Serialize(rendered)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, out)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Fatal("expected identical output for identical input")
	}
}
