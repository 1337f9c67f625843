package mailmerge

import (
	"strings"
	"unicode"

	"github.com/beevik/etree"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type simpleField struct {
	name string
	elem *etree.Element
}

// complexField is a field spread over runs. owned lists the run children
// (and substitute runs of merged inner fields) inside the field; a run may
// also hold markers of a neighbouring field.
type complexField struct {
	name      string
	instr     strings.Builder
	separated bool
	parent    *complexField
	begin     *etree.Element
	result    *etree.Element
	runs      []*etree.Element
	owned     []*etree.Element
}

type scanResult struct {
	simple  []*simpleField
	complex []*complexField
}

type scanner struct {
	open []*complexField
	out  scanResult
}

// scan collects merge fields below root in document order. Complex fields are
// reported innermost first.
func scan(root *etree.Element) scanResult {
	s := &scanner{}
	s.walk(root)
	return s.out
}

func (s *scanner) walk(e *etree.Element) {
	switch {
	case isWord(e, "fldSimple"):
		if name, ok := parseMergeField(e.SelectAttrValue("w:instr", "")); ok {
			s.out.simple = append(s.out.simple, &simpleField{name: name, elem: e})
		}
	case isWord(e, "r"):
		s.visitRun(e)
	}
	for _, c := range e.ChildElements() {
		s.walk(c)
	}
}

func (s *scanner) top() *complexField {
	if len(s.open) == 0 {
		return nil
	}
	return s.open[len(s.open)-1]
}

func (s *scanner) visitRun(r *etree.Element) {
	for _, c := range r.ChildElements() {
		if isWord(c, "rPr") {
			continue
		}
		top := s.top()
		switch {
		case isWord(c, "fldChar"):
			switch c.SelectAttrValue("w:fldCharType", "") {
			case "begin":
				s.open = append(s.open, &complexField{begin: r, parent: top})
			case "separate":
				if top != nil {
					top.separated = true
				}
			case "end":
				if top == nil {
					continue
				}
				s.own(r, c)
				s.open = s.open[:len(s.open)-1]
				if name, ok := parseMergeField(top.instr.String()); ok {
					top.name = name
					s.out.complex = append(s.out.complex, top)
				}
				continue
			}
		case isWord(c, "instrText"):
			if top != nil && !top.separated {
				top.instr.WriteString(c.Text())
			}
		case isWord(c, "t"):
			if top != nil && top.separated && top.result == nil {
				top.result = r
			}
		}
		s.own(r, c)
	}
}

// own records c, a child of run r, as part of every open field.
func (s *scanner) own(r, c *etree.Element) {
	for _, f := range s.open {
		f.owned = append(f.owned, c)
		if n := len(f.runs); n == 0 || f.runs[n-1] != r {
			f.runs = append(f.runs, r)
		}
	}
}

// parseMergeField extracts the field name from a MERGEFIELD instruction such
// as ` MERGEFIELD "Client Name" \* MERGEFORMAT `.
func parseMergeField(instr string) (string, bool) {
	s := strings.TrimSpace(instr)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 || !strings.EqualFold(s[:i], "MERGEFIELD") {
		return "", false
	}

	rest := strings.TrimSpace(s[i:])
	if rest == "" {
		return "", false
	}

	var name string
	if rest[0] == '"' {
		rest = rest[1:]
		if end := strings.IndexByte(rest, '"'); end >= 0 {
			name = rest[:end]
		} else {
			name = rest
		}
	} else if j := strings.IndexFunc(rest, unicode.IsSpace); j >= 0 {
		name = rest[:j]
	} else {
		name = rest
	}

	name = strings.TrimSpace(name)
	return name, name != ""
}

func replaceFields(s scanResult, values map[string]string) {
	for _, f := range s.simple {
		value, ok := values[f.name]
		if !ok {
			continue
		}
		parent := f.elem.Parent()
		if parent == nil {
			continue
		}
		var rPr *etree.Element
		if r := f.elem.SelectElement("w:r"); r != nil {
			rPr = r.SelectElement("w:rPr")
		}
		parent.InsertChildAt(f.elem.Index(), valueRun(rPr, value))
		parent.RemoveChild(f.elem)
	}

	// Inner fields come first. Their substitute runs are handed to the
	// enclosing fields so they go away if those are replaced too.
	for _, f := range s.complex {
		value, ok := values[f.name]
		if !ok {
			continue
		}
		parent := f.begin.Parent()
		if parent == nil {
			continue
		}

		src := f.result
		if src == nil {
			src = f.begin
		}
		run := valueRun(src.SelectElement("w:rPr"), value)

		for _, e := range f.owned {
			detach(e)
		}
		for _, r := range f.runs {
			if r != f.begin && isEmptyRun(r) {
				detach(r)
			}
		}

		// A begin run that still holds markers of the previous field stays,
		// and the value goes right after it.
		at := f.begin.Index()
		if isEmptyRun(f.begin) {
			detach(f.begin)
		} else {
			at++
		}
		parent.InsertChildAt(at, run)

		for p := f.parent; p != nil; p = p.parent {
			p.owned = append(p.owned, run)
		}
	}
}

// isEmptyRun reports whether r holds nothing but run properties.
func isEmptyRun(r *etree.Element) bool {
	for _, c := range r.ChildElements() {
		if !isWord(c, "rPr") {
			return false
		}
	}
	return true
}

// valueRun builds a run holding value. Line breaks become w:br elements.
func valueRun(rPr *etree.Element, value string) *etree.Element {
	r := etree.NewElement("w:r")
	if rPr != nil {
		r.AddChild(rPr.Copy())
	}

	value = strings.ReplaceAll(value, "\r\n", "\n")
	for i, line := range strings.Split(value, "\n") {
		if i > 0 {
			r.CreateElement("w:br")
		}
		t := r.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(line)
	}
	return r
}

func detach(e *etree.Element) {
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
}

func isWord(e *etree.Element, tag string) bool {
	if e.Tag != tag {
		return false
	}
	return e.Space == "w" || e.NamespaceURI() == wordNS
}
