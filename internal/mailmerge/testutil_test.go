package mailmerge

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

const docHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docTail = `</w:body></w:document>`

func fldSimpleXML(name string) string {
	return `<w:fldSimple w:instr=" MERGEFIELD ` + name + ` \* MERGEFORMAT "><w:r><w:rPr><w:b/></w:rPr><w:t>«` + name + `»</w:t></w:r></w:fldSimple>`
}

func fldComplexXML(instrParts ...string) string {
	s := `<w:r><w:fldChar w:fldCharType="begin"/></w:r>`
	for _, p := range instrParts {
		s += `<w:r><w:instrText xml:space="preserve">` + p + `</w:instrText></w:r>`
	}
	s += `<w:r><w:fldChar w:fldCharType="separate"/></w:r>` +
		`<w:r><w:rPr><w:i/></w:rPr><w:t>«placeholder»</w:t></w:r>` +
		`<w:r><w:fldChar w:fldCharType="end"/></w:r>`
	return s
}

func paragraph(inner string) string {
	return `<w:p>` + inner + `</w:p>`
}

// buildDocx assembles a minimal package from part name to XML body.
func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := []string{"[Content_Types].xml", "word/document.xml", "word/header1.xml", "word/footer1.xml", "word/settings.xml", "word/media/image1.png"}
	for _, name := range names {
		body, ok := parts[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readEntry(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func documentWith(body string) map[string]string {
	return map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   docHead + body + docTail,
	}
}
