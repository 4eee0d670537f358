package assemble

import (
	"path"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"docasm/common"
	"docasm/opc"
	"docasm/wml"
)

// Parts owned by the glossary document which are stored next to it rather
// than next to the main document.
var glossaryOwned = map[string]bool{
	opc.CTStyles:            true,
	opc.CTStylesWithEffects: true,
	opc.CTNumbering:         true,
	opc.CTFontTable:         true,
	opc.CTSettings:          true,
	opc.CTWebSettings:       true,
}

// glossaryPackage turns the glossary part of the source into the main part of
// a private package copy, so glossary can be assembled like a regular
// document: w:glossaryDocument becomes w:document and w:docParts its body.
func glossaryPackage(pkg *opc.Package, glossary *opc.Part) (*opc.Package, error) {
	mini := pkg.Clone()
	main := mini.Part(glossary.Name())
	if main == nil {
		return nil, internal("glossary part %s lost in copy", glossary.Name())
	}
	root, err := main.Root()
	if err != nil {
		return nil, malformed("%v", err)
	}
	if !wml.Is(root, "w:glossaryDocument") {
		return nil, malformed("unexpected glossary root %s", root.FullTag())
	}
	parts := root.SelectElement("w:docParts")
	if parts == nil {
		parts = root.CreateElement("w:docParts")
	}
	root.Tag, parts.Tag = "document", "body"

	for _, r := range mini.Rels() {
		if r.Type == opc.RelOfficeDocument || r.Type == opc.RelStrictOfficeDocument {
			mini.RemoveRel(r.ID)
		}
	}
	mini.AddRel(opc.RelOfficeDocument, main)
	return mini, nil
}

// child returns builder for assembling glossaries of the sources. Glossary
// documents never carry glossaries of their own.
func (b *builder) child() (*builder, error) {
	if b.depth >= 1 {
		return nil, internal("glossary nesting depth %d exceeded", b.depth+1)
	}
	opts := b.opts
	opts.CustomXMLItems = nil
	opts.MissingMarker = common.MissingMarkerPolicyIgnore
	return newBuilder(b.ctx, opts, b.log.Named("glossary"), b.depth+1), nil
}

// coalesceGlossaries merges glossary documents (building block galleries)
// of all merged sources into a single glossary of the output. total is the
// number of sources in the run.
func (b *builder) coalesceGlossaries(merged []*sourceDoc, total int) error {
	if b.depth > 0 {
		return nil
	}
	var sources []Source
	for _, sd := range merged {
		g := sd.main.FirstRelated(opc.RelGlossary)
		if g == nil {
			continue
		}
		mini, err := glossaryPackage(sd.pkg, g)
		if err != nil {
			return &AssemblyError{Index: sd.index, Total: total, Name: sd.Name, Err: err}
		}
		sources = append(sources, Source{Package: mini, Name: sd.label() + " glossary", Count: All, KeepSections: true})
	}
	if len(sources) == 0 {
		return nil
	}

	child, err := b.child()
	if err != nil {
		return err
	}
	pkg, err := child.build(sources)
	if err != nil {
		return err
	}
	main := pkg.MainPart()
	doc, err := main.XML()
	if err != nil {
		return internal("%v", err)
	}
	root := doc.Root()
	body := root.SelectElement("w:body")
	if body == nil {
		return internal("assembled glossary has no body")
	}
	dropped := dedupeDocParts(body)
	root.Tag, body.Tag = "glossaryDocument", "docParts"

	dst := b.out.AddPart(opc.KindGlossary)
	dst.PutXML(doc)
	b.outMain.AddRel(opc.RelGlossary, dst)

	cache := make(map[*opc.Part]*opc.Part)
	rename := func(p *opc.Part) string {
		if glossaryOwned[p.ContentType()] {
			return path.Join(path.Dir(opc.KindGlossary.Name), path.Base(p.Name()))
		}
		return p.Name()
	}
	for _, r := range main.Rels() {
		if r.External {
			dst.AddExternalRelID(r.ID, r.Type, r.Target)
			continue
		}
		if target := main.Resolve(r.ID); target != nil {
			dst.AddRelID(r.ID, r.Type, b.copyPartTree(cache, target, rename))
		}
	}
	b.log.Debug("Glossaries coalesced", zap.Int("sources", len(sources)),
		zap.Int("parts", len(body.SelectElements("w:docPart"))), zap.Int("duplicates", dropped))
	return nil
}

// dedupeDocParts keeps the first building block for every guid.
func dedupeDocParts(body *etree.Element) int {
	seen := make(map[string]bool)
	dropped := 0
	for _, dp := range body.SelectElements("w:docPart") {
		guid := strings.ToUpper(strings.Trim(wml.Val(dp.FindElement("w:docPartPr/w:guid")), "{}"))
		if guid == "" {
			continue
		}
		if seen[guid] {
			body.RemoveChild(dp)
			dropped++
			continue
		}
		seen[guid] = true
	}
	return dropped
}
