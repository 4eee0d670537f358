package assemble

import (
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"docasm/opc"
	"docasm/wml"
)

// noteKind describes part holding definitions referenced by id from content.
type noteKind struct {
	id   idKind
	rel  string
	part opc.PartKind
	root string
	item string
	ref  string
}

var noteKinds = []noteKind{
	{idComment, opc.RelComments, opc.KindComments, "w:comments", "w:comment", "w:commentReference"},
	{idFootnote, opc.RelFootnotes, opc.KindFootnotes, "w:footnotes", "w:footnote", "w:footnoteReference"},
	{idEndnote, opc.RelEndnotes, opc.KindEndnotes, "w:endnotes", "w:endnote", "w:endnoteReference"},
}

// isSpecialNote reports separator and continuation notes, they are not
// referenced from content.
func isSpecialNote(e *etree.Element) bool {
	t := e.SelectAttrValue("w:type", "")
	return t != "" && t != "normal"
}

// copyNotes copies comments, footnotes and endnotes renumbered by the id
// reconciliation into the output under their new ids.
func (b *builder) copyNotes(sd *sourceDoc, mappings map[idKind]*idMapping) error {
	for _, nk := range noteKinds {
		m := mappings[nk.id]
		if m == nil || len(m.from) == 0 {
			continue
		}
		srcPart := sd.main.FirstRelated(nk.rel)
		if srcPart == nil {
			b.log.Warn("Content references missing part, references left dangling",
				zap.String("source", sd.label()), zap.Stringer("kind", nk.id))
			continue
		}
		srcRoot, err := srcPart.Root()
		if err != nil {
			return malformed("%v", err)
		}
		defs := make(map[int]*etree.Element)
		for _, e := range srcRoot.SelectElements(nk.item) {
			if isSpecialNote(e) {
				continue
			}
			if id, ok, err := wml.IntAttr(e, "w:id"); err == nil && ok {
				defs[id] = e
			}
		}

		dstPart, dstRoot, err := b.notesPart(nk)
		if err != nil {
			return err
		}
		for _, old := range m.from {
			def, ok := defs[old]
			if !ok {
				b.log.Warn("Reference to undefined note", zap.String("source", sd.label()),
					zap.Stringer("kind", nk.id), zap.Int("id", old))
				continue
			}
			c := def.Copy()
			c.CreateAttr("w:id", strconv.Itoa(m.to[old]))
			dstRoot.AddChild(c)
			if err := b.importContent(sd, srcPart, dstPart, []*etree.Element{c}); err != nil {
				return err
			}
		}
	}
	return nil
}

// notesPart returns output part of the kind, creating it on first use.
func (b *builder) notesPart(nk noteKind) (*opc.Part, *etree.Element, error) {
	part := b.outMain.FirstRelated(nk.rel)
	if part == nil {
		part = b.out.AddPart(nk.part)
		part.PutXML(newRootDocument(nk.root))
		b.outMain.AddRel(nk.rel, part)
	}
	root, err := part.Root()
	if err != nil {
		return nil, nil, err
	}
	return part, root, nil
}

// copySeparators copies footnote and endnote separators of the first source
// which has them and references notes from elems. It must run before note
// ids of elems are rewritten: separator ids are reserved here. A separator id
// already handed out to a note is replaced with a fresh one.
func (b *builder) copySeparators(sd *sourceDoc, elems []*etree.Element) error {
	for _, nk := range noteKinds {
		if nk.id == idComment || b.separators[nk.id] {
			continue
		}
		if len(wml.FindAllIn(elems, nk.ref)) == 0 {
			continue
		}
		srcPart := sd.main.FirstRelated(nk.rel)
		if srcPart == nil {
			continue
		}
		srcRoot, err := srcPart.Root()
		if err != nil {
			return malformed("%v", err)
		}
		var special []*etree.Element
		for _, e := range srcRoot.SelectElements(nk.item) {
			if isSpecialNote(e) {
				special = append(special, e.Copy())
			}
		}
		if len(special) == 0 {
			continue
		}
		_, root, err := b.notesPart(nk)
		if err != nil {
			return internal("%v", err)
		}
		wml.ImportNamespaces(root, srcRoot, special...)
		for i, e := range special {
			root.InsertChildAt(i, e)
			id, ok, err := wml.IntAttr(e, "w:id")
			if err != nil || !ok {
				continue
			}
			if id > 0 && id <= b.ids.last[nk.id] {
				b.ids.last[nk.id]++
				b.log.Debug("Note separator renumbered", zap.String("source", sd.label()),
					zap.Stringer("kind", nk.id), zap.Int("from", id), zap.Int("to", b.ids.last[nk.id]))
				e.CreateAttr("w:id", strconv.Itoa(b.ids.last[nk.id]))
				continue
			}
			b.ids.reserve(nk.id, id)
		}
		b.separators[nk.id] = true
		b.log.Debug("Note separators copied", zap.String("source", sd.label()), zap.Stringer("kind", nk.id))
	}
	return nil
}
