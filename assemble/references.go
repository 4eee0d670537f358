package assemble

import (
	"slices"
	"strconv"

	"github.com/beevik/etree"

	"docasm/wml"
)

// Elements whose w:val is a style id. Content uses the first three, style
// definitions chain through basedOn/next/link and numbering definitions link
// to styles via lvl/pStyle, styleLink and numStyleLink.
var styleRefTags = []string{
	"w:pStyle", "w:rStyle", "w:tblStyle",
	"w:basedOn", "w:next", "w:link",
	"w:styleLink", "w:numStyleLink",
}

// collectStyleRefs returns style ids referenced by elements in first seen
// order.
func collectStyleRefs(elems []*etree.Element) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, e := range wml.FindAllIn(elems, styleRefTags...) {
		id := wml.Val(e)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func rewriteStyleRefs(elems []*etree.Element, m map[string]string) {
	if len(m) == 0 {
		return
	}
	for _, e := range wml.FindAllIn(elems, styleRefTags...) {
		if to, ok := m[wml.Val(e)]; ok {
			e.CreateAttr("w:val", to)
		}
	}
}

// collectNumRefs returns non zero numbering instance ids referenced by
// elements in first seen order.
func collectNumRefs(elems []*etree.Element) ([]int, error) {
	var ids []int
	for _, e := range wml.FindAllIn(elems, "w:numId") {
		id, ok, err := wml.IntAttr(e, "w:val")
		if err != nil {
			return nil, err
		}
		if !ok || id == 0 || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func rewriteNumRefs(elems []*etree.Element, m map[int]int) {
	if len(m) == 0 {
		return
	}
	for _, e := range wml.FindAllIn(elems, "w:numId") {
		id, ok, err := wml.IntAttr(e, "w:val")
		if err != nil || !ok {
			continue
		}
		if to, ok := m[id]; ok {
			e.CreateAttr("w:val", strconv.Itoa(to))
		}
	}
}

// mergeDefinitions absorbs styles and numbering referenced by elements into
// the output and rewrites references in elements to output ids. Styles and
// numbering may reference each other: definitions cloned into the output
// bring their own references along until the set stops growing. Definitions
// mapped onto existing output ones bring nothing.
func (b *builder) mergeDefinitions(sd *sourceDoc, elems []*etree.Element) error {
	styleIDs := collectStyleRefs(elems)
	numIDs, err := collectNumRefs(elems)
	if err != nil {
		return malformed("%v", err)
	}

	for i, j := 0, 0; i < len(styleIDs) || j < len(numIDs); {
		for ; i < len(styleIDs); i++ {
			cloned := len(sd.pendingStyles)
			if err := b.absorbStyle(sd, styleIDs[i]); err != nil {
				return err
			}
			for _, st := range sd.pendingStyles[cloned:] {
				styleIDs = appendMissing(styleIDs, collectStyleRefs([]*etree.Element{st})...)
				refs, err := collectNumRefs([]*etree.Element{st})
				if err != nil {
					return malformed("style %q: %v", styleID(st), err)
				}
				numIDs = appendMissing(numIDs, refs...)
			}
		}
		for ; j < len(numIDs); j++ {
			cloned := len(sd.pendingNums)
			if err := b.absorbNum(sd, numIDs[j]); err != nil {
				return err
			}
			styleIDs = appendMissing(styleIDs, collectStyleRefs(sd.pendingNums[cloned:])...)
		}
	}

	// cloned definitions now can be pointed at output ids
	rewriteStyleRefs(sd.pendingStyles, sd.styleMap)
	rewriteNumRefs(sd.pendingStyles, sd.numMap)
	rewriteStyleRefs(sd.pendingNums, sd.styleMap)
	sd.pendingStyles, sd.pendingNums = nil, nil

	rewriteStyleRefs(elems, sd.styleMap)
	rewriteNumRefs(elems, sd.numMap)
	return nil
}

func appendMissing[T comparable](list []T, items ...T) []T {
	for _, it := range items {
		if !slices.Contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}
