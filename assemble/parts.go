package assemble

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"docasm/opc"
	"docasm/wml"
)

// sortedParts orders parts by name naturally (header2 before header10) and
// drops duplicates.
func sortedParts(parts []*opc.Part) []*opc.Part {
	res := slices.Clone(parts)
	slices.SortFunc(res, func(a, b *opc.Part) int {
		switch {
		case a.Name() == b.Name():
			return 0
		case natural.Less(a.Name(), b.Name()):
			return -1
		default:
			return 1
		}
	})
	return slices.CompactFunc(res, func(a, b *opc.Part) bool { return a == b })
}

// Package level parts taken from the first source as is.
var packageStartingParts = []string{opc.RelCoreProps, opc.RelExtendedProps, opc.RelCustomProps}

// Main document parts taken from the first source as is.
var mainStartingParts = []string{opc.RelTheme, opc.RelWebSettings, opc.RelStylesWithEffects}

// seedStartingParts brings document wide parts of the first source into the
// output: properties, theme, settings and the whole style list. Font table is
// merged from every source separately.
func (b *builder) seedStartingParts(sd *sourceDoc) error {
	for _, rt := range packageStartingParts {
		if p := sd.pkg.FirstRelated(rt); p != nil {
			b.out.AddRel(rt, b.copyPartTree(sd.parts, p, nil))
		}
	}
	for _, rt := range mainStartingParts {
		if p := sd.main.FirstRelated(rt); p != nil {
			b.outMain.AddRel(rt, b.copyPartTree(sd.parts, p, nil))
		}
	}
	if err := b.seedSettings(sd); err != nil {
		return err
	}
	if err := b.seedStyles(sd); err != nil || b.styles == nil {
		return err
	}
	// list styles carry numbering references
	return b.mergeDefinitions(sd, []*etree.Element{b.styles.root})
}

// seedSettings copies settings of the first source without references to
// attached template and mail merge data.
func (b *builder) seedSettings(sd *sourceDoc) error {
	src := sd.main.FirstRelated(opc.RelSettings)
	if src == nil {
		return nil
	}
	doc, err := src.XML()
	if err != nil {
		return malformed("%v", err)
	}
	dst := b.out.AddPart(opc.KindSettings)
	dst.PutXML(doc.Copy())
	b.outMain.AddRel(opc.RelSettings, dst)

	root, err := dst.Root()
	if err != nil {
		return err
	}
	for _, tag := range []string{"w:attachedTemplate", "w:mailMerge"} {
		if e := root.SelectElement(tag); e != nil {
			root.RemoveChild(e)
		}
	}
	return b.importResources(sd, src, dst, []*etree.Element{root})
}

// customXMLItem returns item id of the custom XML part, taken from its
// properties part.
func customXMLItem(item *opc.Part) (uuid.UUID, bool) {
	props := item.FirstRelated(opc.RelCustomXMLProps)
	if props == nil {
		return uuid.UUID{}, false
	}
	root, err := props.Root()
	if err != nil {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(strings.Trim(root.SelectAttrValue("ds:itemID", ""), "{}"))
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// copyCustomXML copies custom XML parts whose item ids are allowed. Each item
// is copied once, from the first source which has it.
func (b *builder) copyCustomXML(sd *sourceDoc) {
	if len(b.customXMLAllowed) == 0 {
		return
	}
	for _, item := range sd.main.RelatedByType(opc.RelCustomXML) {
		id, ok := customXMLItem(item)
		if !ok || !b.customXMLAllowed[id] || b.customXMLCopied[id] {
			continue
		}
		b.customXMLCopied[id] = true
		b.outMain.AddRel(opc.RelCustomXML, b.copyPartTree(sd.parts, item, nil))
		b.log.Debug("Custom XML copied", zap.String("source", sd.label()), zap.Stringer("item", id))
	}
}

// parseCustomXMLItems converts allowed item ids, malformed ids are ignored
// with a warning.
func parseCustomXMLItems(items []string, log *zap.Logger) map[uuid.UUID]bool {
	res := make(map[uuid.UUID]bool, len(items))
	for _, s := range items {
		id, err := uuid.Parse(strings.Trim(strings.TrimSpace(s), "{}"))
		if err != nil {
			log.Warn("Ignoring malformed custom XML item id", zap.String("id", s), zap.Error(err))
			continue
		}
		res[id] = true
	}
	return res
}

// importContent brings elements moved from srcPart of the source into
// dstPart of the output namespace: namespaces, styles and numbering,
// identifiers (copying referenced notes and comments) and relationships.
func (b *builder) importContent(sd *sourceDoc, srcPart, dstPart *opc.Part, elems []*etree.Element) error {
	if len(elems) == 0 {
		return nil
	}
	srcRoot, err := srcPart.Root()
	if err != nil {
		return malformed("%v", err)
	}
	dstRoot, err := dstPart.Root()
	if err != nil {
		return internal("%v", err)
	}
	wml.ImportNamespaces(dstRoot, srcRoot, elems...)

	if err := b.mergeDefinitions(sd, elems); err != nil {
		return err
	}
	if err := b.copySeparators(sd, elems); err != nil {
		return err
	}
	mappings, err := b.ids.rewrite(elems)
	if err != nil {
		return err
	}
	if err := b.copyNotes(sd, mappings); err != nil {
		return err
	}
	return b.importResources(sd, srcPart, dstPart, elems)
}
