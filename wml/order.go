package wml

import (
	"slices"

	"github.com/beevik/etree"
)

// Schema defined child order for the element kinds the engine adds children
// to. Child tags missing from a table sort after all listed ones and keep
// their relative order.
var childOrder = map[Kind]map[string]int{
	KindSectionProps: order(
		"w:headerReference|w:footerReference", "w:footnotePr", "w:endnotePr", "w:type",
		"w:pgSz", "w:pgMar", "w:paperSrc", "w:pgBorders", "w:lnNumType", "w:pgNumType",
		"w:cols", "w:formProt", "w:vAlign", "w:noEndnote", "w:titlePg", "w:textDirection",
		"w:bidi", "w:rtlGutter", "w:docGrid", "w:printerSettings", "w:sectPrChange",
	),
	KindParagraphProps: order(
		"w:pStyle", "w:keepNext", "w:keepLines", "w:pageBreakBefore", "w:framePr",
		"w:widowControl", "w:numPr", "w:suppressLineNumbers", "w:pBdr", "w:shd", "w:tabs",
		"w:suppressAutoHyphens", "w:kinsoku", "w:wordWrap", "w:overflowPunct",
		"w:topLinePunct", "w:autoSpaceDE", "w:autoSpaceDN", "w:bidi", "w:adjustRightInd",
		"w:snapToGrid", "w:spacing", "w:ind", "w:contextualSpacing", "w:mirrorIndents",
		"w:suppressOverlap", "w:jc", "w:textDirection", "w:textAlignment",
		"w:textboxTightWrap", "w:outlineLvl", "w:divId", "w:cnfStyle", "w:rPr",
		"w:sectPr", "w:pPrChange",
	),
	KindRunProps: order(
		"w:rStyle", "w:rFonts", "w:b", "w:bCs", "w:i", "w:iCs", "w:caps", "w:smallCaps",
		"w:strike", "w:dstrike", "w:outline", "w:shadow", "w:emboss", "w:imprint",
		"w:noProof", "w:snapToGrid", "w:vanish", "w:webHidden", "w:color", "w:spacing",
		"w:w", "w:kern", "w:position", "w:sz", "w:szCs", "w:highlight", "w:u", "w:effect",
		"w:bdr", "w:shd", "w:fitText", "w:vertAlign", "w:rtl", "w:cs", "w:em", "w:lang",
		"w:eastAsianLayout", "w:specVanish", "w:oMath",
	),
	KindStyle: order(
		"w:name", "w:aliases", "w:basedOn", "w:next", "w:link", "w:autoRedefine",
		"w:hidden", "w:uiPriority", "w:semiHidden", "w:unhideWhenUsed", "w:qFormat",
		"w:locked", "w:personal", "w:personalCompose", "w:personalReply", "w:rsid",
		"w:pPr", "w:rPr", "w:tblPr", "w:trPr", "w:tcPr", "w:tblStylePr",
	),
	KindStyles:    order("w:docDefaults", "w:latentStyles", "w:style"),
	KindNumbering: order("w:numPicBullet", "w:abstractNum", "w:num", "w:numIdMacAtCleanup"),
	KindNum:       order("w:abstractNumId", "w:lvlOverride"),
	KindRun: order(
		"w:rPr",
	),
	KindParagraph: order("w:pPr"),
}

func order(tags ...string) map[string]int {
	m := make(map[string]int, len(tags))
	for i, group := range tags {
		start := 0
		for j := 0; j <= len(group); j++ {
			if j == len(group) || group[j] == '|' {
				m[group[start:j]] = i
				start = j + 1
			}
		}
	}
	return m
}

// sortKey returns position of child in the parent ordering table.
func sortKey(table map[string]int, child *etree.Element) int {
	if k, ok := table[child.FullTag()]; ok {
		return k
	}
	return len(table) + 1
}

// Reorder stably sorts child elements of e according to the ordering table
// for its kind. Non element tokens (text, comments) are moved after elements.
// Elements of kinds without a table are left untouched.
func Reorder(e *etree.Element) {
	table, ok := childOrder[KindOf(e)]
	if !ok {
		return
	}
	children := e.ChildElements()
	sorted := slices.Clone(children)
	slices.SortStableFunc(sorted, func(a, b *etree.Element) int {
		return sortKey(table, a) - sortKey(table, b)
	})
	if slices.Equal(children, sorted) {
		return
	}
	for _, c := range children {
		e.RemoveChild(c)
	}
	for _, c := range sorted {
		e.AddChild(c)
	}
}

// InsertOrdered inserts child into parent at the position dictated by the
// ordering table for the parent kind: after the last sibling which sorts
// before or equal to it. Without a table the child is appended.
func InsertOrdered(parent, child *etree.Element) {
	table, ok := childOrder[KindOf(parent)]
	if !ok {
		parent.AddChild(child)
		return
	}
	key := sortKey(table, child)
	var after *etree.Element
	for _, c := range parent.ChildElements() {
		if c == child {
			continue
		}
		if sortKey(table, c) > key {
			break
		}
		after = c
	}
	if after == nil {
		if child.Parent() != nil {
			Remove(child)
		}
		parent.InsertChildAt(0, child)
		return
	}
	InsertAfter(after, child)
}
