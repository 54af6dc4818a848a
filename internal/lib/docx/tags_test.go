package docx

import (
	"strings"
	"testing"
)

func TestScanTags(t *testing.T) {
	tags := scanTags("a {{x}} b {{{raw}}} {{open c {{#loop}}")

	want := []string{"{{x}}", "{{{raw}}}", "{{open c ", "{{#loop}}"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %d: %#v", len(want), len(tags), tags)
	}
	for i, tag := range tags {
		if tag.Text != want[i] {
			t.Errorf("tag %d: expected %q, got %q", i, want[i], tag.Text)
		}
	}
	if tags[2].closed() {
		t.Errorf("expected %q to be unclosed", tags[2].Text)
	}
}

func TestTagKindAndName(t *testing.T) {
	tests := []struct {
		text string
		kind tagKind
		name string
	}{
		{"{{name}}", tagValue, "name"},
		{"{{{name}}}", tagRaw, "name"},
		{"{{& name}}", tagRaw, "name"},
		{"{{#items}}", tagSection, "items"},
		{"{{#each items}}", tagSection, "each"},
		{"{{^items}}", tagInverse, "items"},
		{"{{/items}}", tagClose, "items"},
		{"{{ else }}", tagElse, "else"},
		{"{{! note }}", tagComment, "!"},
	}

	for _, tt := range tests {
		tag := tagSpan{Start: 0, End: len(tt.text), Text: tt.text}
		if got := tag.kind(); got != tt.kind {
			t.Errorf("%s: expected kind %d, got %d", tt.text, tt.kind, got)
		}
		if tt.kind != tagComment {
			if got := tag.name(); got != tt.name {
				t.Errorf("%s: expected name %q, got %q", tt.text, tt.name, got)
			}
		}
	}
}

func TestCheckSyntax(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		problems int
		contains string
	}{
		{"valid", "{{a}} {{#b}}{{this}}{{else}}none{{/b}} {{{c}}}", 0, ""},
		{"unclosed tag", "Hello {{name", 1, "unclosed"},
		{"unopened tag", "Hello name}}", 1, "no opening delimiter"},
		{"empty tag", "{{ }}", 1, "empty"},
		{"unclosed loop", "{{#items}}x", 1, `"{{#items}}" is unclosed`},
		{"never opened", "x{{/items}}", 1, "never opened"},
		{"mismatched close", "{{#a}}{{/b}}", 2, `closed by "{{/b}}"`},
		{"else outside loop", "{{else}}", 1, "outside of a loop"},
		{"every problem reported", "{{a}} b}} {{ }} {{#c}} {{d", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := checkSyntax("word/document.xml", tt.text)
			if len(problems) != tt.problems {
				t.Fatalf("expected %d problems, got %d: %v", tt.problems, len(problems), problems)
			}
			if tt.contains == "" {
				return
			}
			found := false
			for _, p := range problems {
				if p.Part != "word/document.xml" {
					t.Errorf("expected part to be recorded, got %q", p.Part)
				}
				if strings.Contains(p.Explanation, tt.contains) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected a problem containing %q, got %v", tt.contains, problems)
			}
		})
	}
}
