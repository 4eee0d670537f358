package assemble

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"docasm/opc"
	"docasm/wml"
)

// hfSlot is one of six header/footer reference slots of a section.
type hfSlot struct {
	ref string // w:headerReference or w:footerReference
	typ string // default, even or first
}

var hfSlots = []hfSlot{
	{"w:headerReference", "first"},
	{"w:headerReference", "even"},
	{"w:headerReference", "default"},
	{"w:footerReference", "first"},
	{"w:footerReference", "even"},
	{"w:footerReference", "default"},
}

func refType(e *etree.Element) string {
	return e.SelectAttrValue("w:type", "default")
}

func (s hfSlot) find(sectPr *etree.Element) *etree.Element {
	for _, r := range sectPr.SelectElements(s.ref) {
		if refType(r) == s.typ {
			return r
		}
	}
	return nil
}

func (s hfSlot) attach(sectPr *etree.Element, id string) {
	wml.InsertOrdered(sectPr, wml.New(s.ref, "w:type", s.typ, "r:id", id))
}

// sectionsOf returns section properties in document order: the ones carried
// by paragraphs and the body level one.
func sectionsOf(body *etree.Element) []*etree.Element {
	var res []*etree.Element
	for _, c := range body.ChildElements() {
		switch {
		case wml.Is(c, "w:sectPr"):
			res = append(res, c)
		default:
			for _, p := range wml.FindAll(c, "w:p") {
				if sp := p.FindElement("w:pPr/w:sectPr"); sp != nil {
					res = append(res, sp)
				}
			}
		}
	}
	return res
}

// stripHeaderFooterRefs removes header and footer references from all
// sections of the body, section breaks stay.
func stripHeaderFooterRefs(body *etree.Element) {
	for _, sp := range sectionsOf(body) {
		for _, r := range sp.ChildElements() {
			if wml.IsAny(r, "w:headerReference", "w:footerReference") {
				sp.RemoveChild(r)
			}
		}
	}
}

// stripSections removes all section properties from the slice, content
// flows into the surrounding section.
func stripSections(slice []*etree.Element) []*etree.Element {
	res := slice[:0]
	for _, e := range slice {
		if wml.Is(e, "w:sectPr") {
			continue
		}
		for _, sp := range wml.FindAll(e, "w:sectPr") {
			wml.Remove(sp)
		}
		res = append(res, e)
	}
	return res
}

// fixSectionPlacement keeps body level section properties only at the end of
// the body, others are moved into an empty paragraph. Empty paragraph which
// only carries section properties at the very end is unwrapped.
func fixSectionPlacement(body *etree.Element) {
	children := body.ChildElements()
	for i, c := range children {
		if !wml.Is(c, "w:sectPr") || i == len(children)-1 {
			continue
		}
		p := wml.New("w:p")
		ppr := p.CreateElement("w:pPr")
		wml.Replace(c, p)
		ppr.AddChild(c)
	}

	children = body.ChildElements()
	if len(children) == 0 {
		return
	}
	last := children[len(children)-1]
	if sp := sectionWrapper(last); sp != nil {
		wml.Replace(last, sp)
	}
}

// sectionWrapper returns section properties of the paragraph when paragraph
// has no content besides them.
func sectionWrapper(p *etree.Element) *etree.Element {
	if !wml.Is(p, "w:p") {
		return nil
	}
	kids := p.ChildElements()
	if len(kids) != 1 || !wml.Is(kids[0], "w:pPr") {
		return nil
	}
	var sp *etree.Element
	for _, c := range kids[0].ChildElements() {
		switch {
		case wml.Is(c, "w:sectPr"):
			sp = c
		case wml.Is(c, "w:rPr"):
		default:
			return nil
		}
	}
	return sp
}

// importHeaderFooter copies header or footer part of the source into the
// output once and brings its content into the output namespace.
func (b *builder) importHeaderFooter(sd *sourceDoc, src *opc.Part, relType string) (*opc.Part, error) {
	if p, ok := sd.headers[src]; ok {
		return p, nil
	}
	doc, err := src.XML()
	if err != nil {
		return nil, malformed("%v", err)
	}
	kind := opc.KindHeader
	if relType == opc.RelFooter {
		kind = opc.KindFooter
	}
	dst := b.out.AddPart(kind)
	dst.PutXML(doc.Copy())
	sd.headers[src] = dst

	root, err := dst.Root()
	if err != nil {
		return nil, err
	}
	if err := b.importContent(sd, src, dst, root.ChildElements()); err != nil {
		return nil, err
	}
	b.log.Debug("Header/footer copied", zap.String("source", sd.label()),
		zap.String("from", src.Name()), zap.String("to", dst.Name()))
	return dst, nil
}

// synthesizeHeaderFooter creates empty header or footer part and returns id
// of the main document relationship pointing to it.
func (b *builder) synthesizeHeaderFooter(ref string) string {
	kind, rel, tag, style := opc.KindHeader, opc.RelHeader, "w:hdr", "Header"
	if ref == "w:footerReference" {
		kind, rel, tag, style = opc.KindFooter, opc.RelFooter, "w:ftr", "Footer"
	}
	doc := newRootDocument(tag)
	p := doc.Root().CreateElement("w:p")
	p.CreateElement("w:pPr").CreateElement("w:pStyle").CreateAttr("w:val", style)

	part := b.out.AddPart(kind)
	part.PutXML(doc)
	return b.outMain.AddRel(rel, part)
}

// completeFirstSection makes sure the first section references all six
// slots: first and even reuse default, missing default gets an empty part.
func (b *builder) completeFirstSection(sectPr *etree.Element) {
	for _, ref := range []string{"w:headerReference", "w:footerReference"} {
		def := hfSlot{ref, "default"}
		r := def.find(sectPr)
		if r == nil {
			def.attach(sectPr, b.synthesizeHeaderFooter(ref))
			r = def.find(sectPr)
		}
		id := r.SelectAttrValue("r:id", "")
		for _, typ := range []string{"first", "even"} {
			if s := (hfSlot{ref, typ}); s.find(sectPr) == nil {
				s.attach(sectPr, id)
			}
		}
	}
}

// backfillHeadersFooters makes every section without its own reference for
// a slot share the part referenced by the closest preceding section.
func (b *builder) backfillHeadersFooters() {
	sections := sectionsOf(b.outBody)
	if len(sections) == 0 {
		return
	}
	if b.anyKeepHF {
		b.completeFirstSection(sections[0])
	}
	cache := make(map[hfSlot]string)
	for i, sp := range sections {
		for _, slot := range hfSlots {
			if r := slot.find(sp); r != nil {
				cache[slot] = r.SelectAttrValue("r:id", "")
				continue
			}
			if i == 0 {
				continue
			}
			if id, ok := cache[slot]; ok {
				slot.attach(sp, id)
			}
		}
	}
}
