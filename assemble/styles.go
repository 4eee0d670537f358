package assemble

import (
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"docasm/opc"
	"docasm/wml"
)

// styleSet indexes style definitions of a styles part.
type styleSet struct {
	part   *opc.Part
	root   *etree.Element // w:styles
	byID   map[string]*etree.Element
	byName map[string]*etree.Element
}

func newStyleSet(part *opc.Part) (*styleSet, error) {
	root, err := part.Root()
	if err != nil {
		return nil, err
	}
	s := &styleSet{part: part, root: root}
	s.reindex()
	return s, nil
}

func (s *styleSet) reindex() {
	s.byID = make(map[string]*etree.Element)
	s.byName = make(map[string]*etree.Element)
	for _, st := range s.root.SelectElements("w:style") {
		s.add(st)
	}
}

func (s *styleSet) add(st *etree.Element) {
	if id := styleID(st); id != "" {
		if _, ok := s.byID[id]; !ok {
			s.byID[id] = st
		}
	}
	if name := styleName(st); name != "" {
		if _, ok := s.byName[name]; !ok {
			s.byName[name] = st
		}
	}
}

func styleID(st *etree.Element) string {
	return st.SelectAttrValue("w:styleId", "")
}

// styleName is the semantic identity of a style: its display name, or style
// id for unnamed styles.
func styleName(st *etree.Element) string {
	if name := wml.ChildVal(st, "w:name"); name != "" {
		return norm.NFC.String(name)
	}
	return styleID(st)
}

// outputStyles returns output style set, creating empty styles part when
// necessary.
func (b *builder) outputStyles() (*styleSet, error) {
	if b.styles != nil {
		return b.styles, nil
	}
	part := b.out.AddPart(opc.KindStyles)
	part.PutXML(newRootDocument("w:styles"))
	b.outMain.AddRel(opc.RelStyles, part)
	s, err := newStyleSet(part)
	if err != nil {
		return nil, err
	}
	b.styles = s
	return s, nil
}

// absorbStyle maps source style id to the output one, cloning definition
// when output has no style with the same name.
func (b *builder) absorbStyle(sd *sourceDoc, id string) error {
	if _, ok := sd.styleMap[id]; ok || sd.styles == nil {
		return nil
	}
	st := sd.styles.byID[id]
	if st == nil {
		b.log.Debug("Reference to undefined style", zap.String("source", sd.label()), zap.String("style", id))
		return nil
	}
	out, err := b.outputStyles()
	if err != nil {
		return err
	}

	if existing := out.byName[styleName(st)]; existing != nil {
		sd.styleMap[id] = styleID(existing)
		return nil
	}
	if existing := out.byID[id]; existing != nil {
		b.log.Warn("Style id already used by differently named style, merging into existing definition",
			zap.String("source", sd.label()), zap.String("style", id),
			zap.String("name", styleName(st)), zap.String("existing", styleName(existing)))
		sd.styleMap[id] = id
		return nil
	}

	clone := st.Copy()
	stripForeign(clone)
	clone.RemoveAttr("w:default")
	wml.InsertOrdered(out.root, clone)
	out.add(clone)
	sd.styleMap[id] = id
	sd.pendingStyles = append(sd.pendingStyles, clone)
	b.log.Debug("Style added", zap.String("source", sd.label()), zap.String("style", id), zap.String("name", styleName(st)))
	return nil
}

// stripForeign removes attributes and elements outside of the core
// WordprocessingML namespace.
func stripForeign(e *etree.Element) {
	kept := e.Attr[:0]
	for _, a := range e.Attr {
		if a.Space == "" || a.Space == "w" || a.Space == "xml" {
			kept = append(kept, a)
		}
	}
	e.Attr = kept
	for _, c := range e.ChildElements() {
		if c.Space != "w" {
			e.RemoveChild(c)
			continue
		}
		stripForeign(c)
	}
}

// seedStyles copies whole style list of the first source into the output.
func (b *builder) seedStyles(sd *sourceDoc) error {
	if sd.styles == nil {
		return nil
	}
	part := b.out.AddPart(opc.KindStyles)
	doc, err := sd.styles.part.XML()
	if err != nil {
		return err
	}
	part.PutXML(doc.Copy())
	b.outMain.AddRel(opc.RelStyles, part)
	if b.styles, err = newStyleSet(part); err != nil {
		return err
	}
	if err := b.importResources(sd, sd.styles.part, part, []*etree.Element{b.styles.root}); err != nil {
		return err
	}
	for id := range sd.styles.byID {
		sd.styleMap[id] = id
	}
	return nil
}

// mergeLatentStyles appends latent style exceptions unknown to the output.
func (b *builder) mergeLatentStyles(sd *sourceDoc) {
	if sd.styles == nil || b.styles == nil {
		return
	}
	src := sd.styles.root.SelectElement("w:latentStyles")
	if src == nil {
		return
	}
	dst := b.styles.root.SelectElement("w:latentStyles")
	if dst == nil {
		dst = src.Copy()
		wml.InsertOrdered(b.styles.root, dst)
		return
	}
	have := make(map[string]bool)
	for _, e := range dst.SelectElements("w:lsdException") {
		have[norm.NFC.String(e.SelectAttrValue("w:name", ""))] = true
	}
	for _, e := range src.SelectElements("w:lsdException") {
		name := norm.NFC.String(e.SelectAttrValue("w:name", ""))
		if have[name] {
			continue
		}
		have[name] = true
		dst.AddChild(e.Copy())
	}
}

// finalizeStyles recomputes aggregate latent styles count and puts style
// part children into schema order.
func (b *builder) finalizeStyles() {
	if b.styles == nil {
		return
	}
	if ls := b.styles.root.SelectElement("w:latentStyles"); ls != nil {
		ls.CreateAttr("w:count", strconv.Itoa(len(ls.SelectElements("w:lsdException"))))
	}
	wml.Reorder(b.styles.root)
}

// mergeFonts appends font table entries unknown to the output, embedded font
// data is copied along.
func (b *builder) mergeFonts(sd *sourceDoc) error {
	srcPart := sd.main.FirstRelated(opc.RelFontTable)
	if srcPart == nil {
		return nil
	}
	src, err := srcPart.Root()
	if err != nil {
		return malformed("%v", err)
	}

	dstPart := b.outMain.FirstRelated(opc.RelFontTable)
	if dstPart == nil {
		dstPart = b.out.AddPart(opc.KindFontTable)
		doc := newRootDocument("w:fonts")
		wml.ImportNamespaces(doc.Root(), src, src)
		dstPart.PutXML(doc)
		b.outMain.AddRel(opc.RelFontTable, dstPart)
	}
	dst, err := dstPart.Root()
	if err != nil {
		return err
	}

	have := make(map[string]bool)
	for _, f := range dst.SelectElements("w:font") {
		have[f.SelectAttrValue("w:name", "")] = true
	}
	var added []*etree.Element
	for _, f := range src.SelectElements("w:font") {
		name := f.SelectAttrValue("w:name", "")
		if have[name] {
			continue
		}
		have[name] = true
		c := f.Copy()
		dst.AddChild(c)
		added = append(added, c)
	}
	if len(added) == 0 {
		return nil
	}
	wml.ImportNamespaces(dst, src, added...)
	return b.importResources(sd, srcPart, dstPart, added)
}

// newRootDocument creates document with a single WordprocessingML root.
func newRootDocument(tag string) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement(tag)
	wml.EnsureDeclared(root, wml.NSW)
	wml.EnsureDeclared(root, wml.NSR)
	return doc
}
