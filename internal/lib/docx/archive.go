package docx

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// MinDocumentSize is the smallest decoded payload accepted as a document.
// A ZIP with the three mandatory entries cannot be smaller than this.
const MinDocumentSize = 100

// zipSignature is the local file header magic every ZIP archive starts with ("PK").
var zipSignature = []byte{0x50, 0x4b}

// RequiredEntries are the archive entries every WordprocessingML package must carry.
var RequiredEntries = []string{
	"[Content_Types].xml",
	"_rels/.rels",
	"word/document.xml",
}

var (
	// ErrTooSmall is returned when the payload is below MinDocumentSize.
	ErrTooSmall = errors.New("document too small")

	// ErrSignature is returned when the payload does not start with the ZIP signature.
	ErrSignature = errors.New("missing ZIP signature")

	// ErrNotArchive is returned when the payload cannot be read as a ZIP archive.
	ErrNotArchive = errors.New("not a ZIP archive")
)

// SizeError reports a payload below the minimum document size.
type SizeError struct {
	Size int
	Min  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("decoded size %d bytes is below the %d byte minimum", e.Size, e.Min)
}

func (e *SizeError) Unwrap() error { return ErrTooSmall }

// SignatureError reports the leading bytes found instead of the ZIP signature.
type SignatureError struct {
	Got string
}

func (e *SignatureError) Error() string {
	return "expected ZIP signature (PK), got: " + e.Got
}

func (e *SignatureError) Unwrap() error { return ErrSignature }

// MissingEntriesError lists mandatory archive entries that are absent.
type MissingEntriesError struct {
	Entries []string
}

func (e *MissingEntriesError) Error() string {
	return "missing required files: " + strings.Join(e.Entries, ", ")
}

// Entry is one file (or directory) stored in the document archive.
type Entry struct {
	Name     string
	Modified time.Time
	Comment  string
	Data     []byte
}

// IsDir reports whether the entry is a directory marker.
func (e *Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// Document is an opened document archive. Entries keep their archive order.
type Document struct {
	Entries []*Entry
	Comment string

	index map[string]*Entry
}

// Entry returns the entry with the given name, or nil.
func (d *Document) Entry(name string) *Entry {
	return d.index[name]
}

// Names returns the entry names in archive order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		names = append(names, e.Name)
	}
	return names
}

// Size returns the sum of the uncompressed entry sizes.
func (d *Document) Size() int {
	total := 0
	for _, e := range d.Entries {
		total += len(e.Data)
	}
	return total
}

// clone returns a copy of the document sharing entry data slices.
// Rendering replaces the data of templated parts, never mutates it.
func (d *Document) clone() *Document {
	out := &Document{
		Entries: make([]*Entry, len(d.Entries)),
		Comment: d.Comment,
		index:   make(map[string]*Entry, len(d.Entries)),
	}
	for i, e := range d.Entries {
		cp := *e
		out.Entries[i] = &cp
		out.index[cp.Name] = &cp
	}
	return out
}

// Open validates b as a document archive and reads every entry into memory.
//
// Checks run in order: minimum size, ZIP signature, ZIP structure, mandatory entries.
// The returned error is a *SizeError, *SignatureError, *MissingEntriesError, or wraps ErrNotArchive.
func Open(b []byte) (*Document, error) {
	if len(b) < MinDocumentSize {
		return nil, &SizeError{Size: len(b), Min: MinDocumentSize}
	}
	return open(b)
}

func open(b []byte) (*Document, error) {
	if len(b) < len(zipSignature) || !bytes.Equal(b[:len(zipSignature)], zipSignature) {
		n := min(len(b), len(zipSignature))
		return nil, &SignatureError{Got: hex.EncodeToString(b[:n])}
	}

	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	doc := &Document{
		Entries: make([]*Entry, 0, len(zr.File)),
		Comment: zr.Comment,
		index:   make(map[string]*Entry, len(zr.File)),
	}

	for _, f := range zr.File {
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrNotArchive, f.Name, err)
		}
		e := &Entry{
			Name:     f.Name,
			Modified: f.Modified,
			Comment:  f.Comment,
			Data:     data,
		}
		// Duplicate names: the last one wins, as in most ZIP readers.
		if _, dup := doc.index[f.Name]; dup {
			for i, prev := range doc.Entries {
				if prev.Name == f.Name {
					doc.Entries = append(doc.Entries[:i], doc.Entries[i+1:]...)
					break
				}
			}
		}
		doc.Entries = append(doc.Entries, e)
		doc.index[f.Name] = e
	}

	var missing []string
	for _, name := range RequiredEntries {
		if _, ok := doc.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingEntriesError{Entries: missing}
	}

	return doc, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if strings.HasSuffix(f.Name, "/") {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
