// Package mailmerge populates Word merge fields inside a DOCX package.
//
// A DOCX file is a zip archive of WordprocessingML parts. The body, headers,
// footers, footnotes and endnotes are parsed with etree; every other entry is
// copied through byte for byte.
//
// Word stores a merge field in one of two shapes:
//
//	<w:fldSimple w:instr=" MERGEFIELD client_name "><w:r><w:t>«client_name»</w:t></w:r></w:fldSimple>
//
// or as a complex field spread over several runs:
//
//	<w:r><w:fldChar w:fldCharType="begin"/></w:r>
//	<w:r><w:instrText> MERGEFIELD client_name </w:instrText></w:r>
//	<w:r><w:fldChar w:fldCharType="separate"/></w:r>
//	<w:r><w:t>«client_name»</w:t></w:r>
//	<w:r><w:fldChar w:fldCharType="end"/></w:r>
//
// Both are replaced by a single run carrying the value and the formatting of
// the field result. Fields without a value are left as they are.
package mailmerge
