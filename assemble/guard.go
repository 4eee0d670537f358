package assemble

import (
	"github.com/beevik/etree"

	"docasm/opc"
	"docasm/wml"
)

// Elements which make the source unsupported wherever they appear.
var unsupportedTags = []string{
	"w:sectPrChange", // tracked section properties changes
	"w:subDoc",
	"w:control", // ActiveX
	"w:binData",
	"w14:contentPart", // ink
	"w:contentPart",
}

// Prefixes canonicalization assigns to obsolete namespaces.
var obsoletePrefixes = func() map[string]bool {
	m := make(map[string]bool)
	for _, uri := range wml.ObsoleteNamespaces {
		p, _ := wml.CanonicalPrefix(uri)
		m[p] = true
	}
	return m
}()

// validate rejects sources the engine cannot merge. It does not modify the
// package beyond parsing parts.
func validate(pkg *opc.Package) error {
	main := pkg.MainPart()
	if main == nil {
		return malformed("no main document part")
	}
	root, err := main.Root()
	if err != nil {
		return malformed("%v", err)
	}
	if strict, _ := wml.CanonicalPrefix(wml.NSStrictW); root.Space == strict {
		return unsupported("document uses strict schema")
	}
	if !wml.Is(root, "w:document") || root.SelectElement("w:body") == nil {
		return malformed("document has no body")
	}

	content := []*opc.Part{main}
	for _, rt := range []string{opc.RelHeader, opc.RelFooter, opc.RelFootnotes, opc.RelEndnotes, opc.RelComments} {
		content = append(content, main.RelatedByType(rt)...)
	}
	for _, p := range content {
		proot, err := p.Root()
		if err != nil {
			return malformed("%v", err)
		}
		if err := checkElements(p.Name(), proot); err != nil {
			return err
		}
	}

	if settings := main.FirstRelated(opc.RelSettings); settings != nil {
		sroot, err := settings.Root()
		if err != nil {
			return malformed("%v", err)
		}
		if mm := sroot.SelectElement("w:mailMerge"); mm != nil && mm.SelectElement("w:dataSource") != nil {
			return unsupported("mail merge data source in %s", settings.Name())
		}
	}
	if web := main.FirstRelated(opc.RelWebSettings); web != nil {
		wroot, err := web.Root()
		if err != nil {
			return malformed("%v", err)
		}
		if len(wml.FindAll(wroot, "w:frameset")) > 0 {
			return unsupported("frameset in %s", web.Name())
		}
	}

	if main.FirstRelated(opc.RelNumbering) == nil {
		check := content
		if styles := main.FirstRelated(opc.RelStyles); styles != nil {
			check = append(check, styles)
		}
		for _, p := range check {
			proot, err := p.Root()
			if err != nil {
				return malformed("%v", err)
			}
			ids, err := collectNumRefs([]*etree.Element{proot})
			if err != nil {
				return malformed("%s: %v", p.Name(), err)
			}
			if len(ids) > 0 {
				return unsupported("%s references numbering %d but package has no numbering part", p.Name(), ids[0])
			}
		}
	}
	return nil
}

func checkElements(part string, root *etree.Element) error {
	var err error
	wml.Walk(root, func(e *etree.Element) bool {
		if err != nil {
			return false
		}
		if wml.IsAny(e, unsupportedTags...) {
			err = unsupported("<%s> in %s", e.FullTag(), part)
			return false
		}
		if obsoletePrefixes[e.Space] {
			err = unsupported("obsolete namespace element <%s> in %s", e.FullTag(), part)
			return false
		}
		for _, a := range e.Attr {
			if obsoletePrefixes[a.Space] {
				err = unsupported("obsolete namespace attribute %s in %s", a.FullKey(), part)
				return false
			}
		}
		return true
	})
	return err
}
