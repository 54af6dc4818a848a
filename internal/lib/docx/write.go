package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Serialize writes doc as a ZIP archive. Files are deflated, directories stored.
// Entry order and modification times come from the source archive, so equal
// documents serialize to equal bytes.
func Serialize(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(doc.Size() / 2)

	zw := zip.NewWriter(&buf)
	for _, e := range doc.Entries {
		hdr := &zip.FileHeader{
			Name:     e.Name,
			Comment:  e.Comment,
			Modified: e.Modified,
			Method:   zip.Deflate,
		}
		if e.IsDir() {
			hdr.Method = zip.Store
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", e.Name, err)
		}
	}
	if doc.Comment != "" {
		if err := zw.SetComment(doc.Comment); err != nil {
			return nil, fmt.Errorf("setting archive comment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
