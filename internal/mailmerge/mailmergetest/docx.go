// Package mailmergetest builds small DOCX packages for tests.
package mailmergetest

import (
	"archive/zip"
	"bytes"
	"testing"
)

const (
	documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentTail = `</w:body></w:document>`
	contentTypes = `<?xml version="1.0" encoding="UTF-8"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`
)

// Field returns a paragraph holding a simple MERGEFIELD for name.
func Field(name string) string {
	return `<w:p><w:fldSimple w:instr=" MERGEFIELD ` + name + ` \* MERGEFORMAT ">` +
		`<w:r><w:t>«` + name + `»</w:t></w:r></w:fldSimple></w:p>`
}

// Docx returns a package whose main document body is the concatenation of paragraphs.
func Docx(tb testing.TB, paragraphs ...string) []byte {
	tb.Helper()

	body := ""
	for _, p := range paragraphs {
		body += p
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range []struct{ name, data string }{
		{"[Content_Types].xml", contentTypes},
		{"word/document.xml", documentHead + body + documentTail},
	} {
		w, err := zw.Create(e.name)
		if err != nil {
			tb.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.data)); err != nil {
			tb.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close docx: %v", err)
	}
	return buf.Bytes()
}
