package utils

import (
	"bytes"
	"testing"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]any{"output": "out.docx", "sizeBytes": 2048}); err != nil {
		t.Fatalf("PrintJSON() error = %v", err)
	}

	want := "{\n  \"output\": \"out.docx\",\n  \"sizeBytes\": 2048\n}\n"
	if got := buf.String(); got != want {
		t.Errorf("PrintJSON() = %q, want %q", got, want)
	}
}

func TestPrintJSONUnsupportedValue(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]any{"ch": make(chan int)}); err == nil {
		t.Fatal("expected an error for a channel value")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on error, got %q", buf.String())
	}
}
