package mailmerge

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/beevik/etree"
)

const (
	mainPart     = "word/document.xml"
	settingsPart = "word/settings.xml"
)

var (
	// ErrNotDocx signals that the template is not a zip package.
	ErrNotDocx = errors.New("template is not a docx package")
	// ErrMissingDocument signals that the package has no main document part.
	ErrMissingDocument = errors.New("template has no " + mainPart + " part")
)

var contentPart = regexp.MustCompile(`^word/(document|header\d*|footer\d*|footnotes|endnotes)\.xml$`)

// Document is an opened DOCX package with its text parts parsed.
type Document struct {
	files []*zip.File
	parts map[string]*etree.Document
}

// Open reads a DOCX package from memory.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	d := &Document{files: zr.File, parts: make(map[string]*etree.Document)}
	for _, f := range zr.File {
		if !contentPart.MatchString(f.Name) && f.Name != settingsPart {
			continue
		}
		doc, err := readPart(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		d.parts[f.Name] = doc
	}

	if _, ok := d.parts[mainPart]; !ok {
		return nil, ErrMissingDocument
	}
	return d, nil
}

func readPart(f *zip.File) (*etree.Document, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(rc); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("empty xml part")
	}
	return doc, nil
}

// Fields returns the sorted set of merge-field names across all text parts.
func (d *Document) Fields() []string {
	seen := make(map[string]struct{})
	for name, doc := range d.parts {
		if !contentPart.MatchString(name) {
			continue
		}
		s := scan(doc.Root())
		for _, f := range s.simple {
			seen[f.name] = struct{}{}
		}
		for _, f := range s.complex {
			seen[f.name] = struct{}{}
		}
	}

	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Merge replaces every field named in values. It also drops the mail-merge
// data source binding from the settings part so Word does not ask for it on
// open.
func (d *Document) Merge(values map[string]string) {
	for name, doc := range d.parts {
		if name == settingsPart {
			dropMailMergeSettings(doc)
			continue
		}
		replaceFields(scan(doc.Root()), values)
	}
}

// Bytes serialises the package. Untouched entries keep their original
// compressed bytes.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range d.files {
		doc, ok := d.parts[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := doc.WriteTo(w); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}
	return buf.Bytes(), nil
}

func dropMailMergeSettings(doc *etree.Document) {
	root := doc.Root()
	for _, c := range root.ChildElements() {
		if isWord(c, "mailMerge") {
			root.RemoveChild(c)
		}
	}
}
