package docx

import "testing"

func TestMergeSplitTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tag split across three runs",
			in:   `<w:p><w:r><w:t>Hello {{</w:t></w:r><w:r><w:t>na</w:t></w:r><w:r><w:t>me}} !</w:t></w:r></w:p>`,
			want: `<w:p><w:r><w:t xml:space="preserve">Hello {{name}}</w:t></w:r><w:r><w:t></w:t></w:r><w:r><w:t> !</w:t></w:r></w:p>`,
		},
		{
			name: "existing space attribute is not duplicated",
			in:   `<w:r><w:t xml:space="preserve">{{a</w:t></w:r><w:r><w:t>}}</w:t></w:r>`,
			want: `<w:r><w:t xml:space="preserve">{{a}}</w:t></w:r><w:r><w:t></w:t></w:r>`,
		},
		{
			name: "escaped quotes inside tags are restored",
			in:   `<w:r><w:t>{{#if a &quot;b&quot;}}</w:t></w:r>`,
			want: `<w:r><w:t xml:space="preserve">{{#if a "b"}}</w:t></w:r>`,
		},
		{
			name: "text without tags is untouched",
			in:   `<w:r><w:t>plain</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> text</w:t></w:r>`,
			want: `<w:r><w:t>plain</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> text</w:t></w:r>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeSplitTags(tt.in); got != tt.want {
				t.Fatalf("mergeSplitTags() mismatch\nwant: %s\ngot:  %s", tt.want, got)
			}
		})
	}
}

func TestCollapseLoopParagraphs(t *testing.T) {
	in := `<w:p><w:r><w:t>{{#items}}</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>{{this}}</w:t></w:r></w:p>` +
		`<w:p w:rsidR="00A1"><w:pPr><w:jc w:val="left"/></w:pPr><w:r><w:t xml:space="preserve"> {{/items}} </w:t></w:r></w:p>` +
		`<w:p/>`
	want := `{{#items}}<w:p><w:r><w:t>{{this}}</w:t></w:r></w:p>{{/items}}<w:p/>`

	if got := collapseLoopParagraphs(in); got != want {
		t.Fatalf("collapseLoopParagraphs() mismatch\nwant: %s\ngot:  %s", want, got)
	}
}

func TestCollapseLoopParagraphs_KeepsMixedParagraphs(t *testing.T) {
	in := `<w:p><w:r><w:t>Items: {{#items}}{{this}}{{/items}}</w:t></w:r></w:p>`
	if got := collapseLoopParagraphs(in); got != in {
		t.Fatalf("expected inline loop paragraph to stay, got %s", got)
	}
}
