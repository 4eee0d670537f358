package assemble

import (
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"docasm/opc"
	"docasm/wml"
)

// Parts of the main document which may reference styles.
var styledRelTypes = []string{
	opc.RelStyles, opc.RelNumbering, opc.RelHeader, opc.RelFooter,
	opc.RelFootnotes, opc.RelEndnotes, opc.RelComments,
}

// normalizeStyleIDs gives source styles whose id is taken in the output by a
// differently named style a fresh id, rewriting references in every part of
// the source copy. Names decide identity during merge, this keeps ids from
// colliding when they do not match.
func (b *builder) normalizeStyleIDs(sd *sourceDoc) error {
	if sd.styles == nil || b.styles == nil {
		return nil
	}
	taken := make(map[string]bool)
	for id := range b.styles.byID {
		taken[id] = true
	}
	for id := range sd.styles.byID {
		taken[id] = true
	}

	rename := make(map[string]string)
	for _, st := range sd.styles.root.SelectElements("w:style") {
		id := styleID(st)
		out, ok := b.styles.byID[id]
		if !ok || styleName(out) == styleName(st) {
			continue
		}
		if _, done := rename[id]; done {
			continue
		}
		n := 1
		for taken[id+strconv.Itoa(n)] {
			n++
		}
		fresh := id + strconv.Itoa(n)
		taken[fresh] = true
		rename[id] = fresh
	}
	if len(rename) == 0 {
		return nil
	}

	// prepared copies are renamed along when assembly is deferred
	roots := append([]*etree.Element{sd.root}, sd.slice...)
	for _, rt := range styledRelTypes {
		for _, p := range sd.main.RelatedByType(rt) {
			root, err := p.Root()
			if err != nil {
				return malformed("%v", err)
			}
			roots = append(roots, root)
		}
	}
	for _, st := range wml.FindAllIn(roots, "w:style") {
		if to, ok := rename[styleID(st)]; ok {
			st.CreateAttr("w:styleId", to)
		}
	}
	rewriteStyleRefs(roots, rename)
	sd.styles.reindex()

	for from, to := range rename {
		b.log.Debug("Style id normalized", zap.String("source", sd.label()), zap.String("from", from), zap.String("to", to))
	}
	return nil
}
