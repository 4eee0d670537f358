package assemble

import (
	"strconv"

	"go.uber.org/zap"

	"docasm/opc"
	"docasm/wml"
)

// renumberDrawings gives every drawing object in the output a unique id:
// main document first, then headers, footers, footnotes and endnotes.
func (b *builder) renumberDrawings() error {
	parts := []*opc.Part{b.outMain}
	for _, rt := range []string{opc.RelHeader, opc.RelFooter, opc.RelFootnotes, opc.RelEndnotes} {
		parts = append(parts, sortedParts(b.outMain.RelatedByType(rt))...)
	}
	next := 1
	for _, p := range parts {
		root, err := p.Root()
		if err != nil {
			return internal("%v", err)
		}
		for _, e := range wml.FindAll(root, "wp:docPr") {
			e.CreateAttr("id", strconv.Itoa(next))
			next++
		}
	}
	if next > 1 {
		b.log.Debug("Drawing objects renumbered", zap.Int("count", next-1))
	}
	return nil
}
