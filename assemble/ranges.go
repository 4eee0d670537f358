package assemble

import (
	"github.com/beevik/etree"

	"docasm/wml"
)

// rangeKind describes paired range markers sharing w:id.
type rangeKind struct {
	start, end string
}

var (
	rangeComment    = rangeKind{"w:commentRangeStart", "w:commentRangeEnd"}
	rangeBookmark   = rangeKind{"w:bookmarkStart", "w:bookmarkEnd"}
	rangePermission = rangeKind{"w:permStart", "w:permEnd"}
	rangeMoveFrom   = rangeKind{"w:moveFromRangeStart", "w:moveFromRangeEnd"}
	rangeMoveTo     = rangeKind{"w:moveToRangeStart", "w:moveToRangeEnd"}

	rangeKinds = []rangeKind{rangeComment, rangeBookmark, rangePermission, rangeMoveFrom, rangeMoveTo}
)

func markerID(e *etree.Element) string {
	return e.SelectAttrValue("w:id", "")
}

// markersByID indexes markers with the tag found in elements.
func markersByID(elems []*etree.Element, tag string) map[string]*etree.Element {
	m := make(map[string]*etree.Element)
	for _, e := range wml.FindAllIn(elems, tag) {
		if _, ok := m[markerID(e)]; !ok {
			m[markerID(e)] = e
		}
	}
	return m
}

// fixRanges makes range markers in the slice self-consistent. Ends of ranges
// started in the slice are copied from the source body and appended at the
// end of the slice, starts of ranges ended in the slice are inserted at its
// beginning. Move ranges without their counterpart range in the slice are
// dropped. The slice may grow, the resulting slice is returned.
func fixRanges(src *etree.Element, slice []*etree.Element) []*etree.Element {
	whole := []*etree.Element{src}
	for _, rk := range rangeKinds {
		starts := markersByID(slice, rk.start)
		ends := markersByID(slice, rk.end)
		srcStarts := markersByID(whole, rk.start)
		srcEnds := markersByID(whole, rk.end)

		// iterate in document order to keep results deterministic
		for _, s := range wml.FindAllIn(slice, rk.start) {
			id := markerID(s)
			if _, ok := ends[id]; ok {
				continue
			}
			end := wml.New(rk.end, "w:id", id)
			if e, ok := srcEnds[id]; ok {
				end = e.Copy()
			}
			ends[id] = end
			slice = appendToSlice(slice, end)
			if rk == rangeComment && !hasCommentReference(slice, id) {
				slice = appendToSlice(slice, commentReferenceRun(src, id))
			}
		}
		for _, e := range wml.FindAllIn(slice, rk.end) {
			id := markerID(e)
			if _, ok := starts[id]; ok {
				continue
			}
			s, ok := srcStarts[id]
			if !ok {
				// end without start anywhere in source, nothing to pair with
				wml.Remove(e)
				slice = dropFromSlice(slice, e)
				continue
			}
			start := s.Copy()
			starts[id] = start
			slice = prependToSlice(slice, start)
		}
	}
	return dropOrphanMoves(slice)
}

func hasCommentReference(slice []*etree.Element, id string) bool {
	for _, ref := range wml.FindAllIn(slice, "w:commentReference") {
		if markerID(ref) == id {
			return true
		}
	}
	return false
}

// commentReferenceRun returns copy of the run carrying comment reference from
// the source, or a new one.
func commentReferenceRun(src *etree.Element, id string) *etree.Element {
	for _, ref := range wml.FindAll(src, "w:commentReference") {
		if markerID(ref) != id {
			continue
		}
		if r := ref.Parent(); wml.Is(r, "w:r") {
			return r.Copy()
		}
		break
	}
	r := wml.New("w:r")
	r.AddChild(wml.New("w:commentReference", "w:id", id))
	return r
}

// lastParagraph finds the last paragraph of the element descending into
// tables and content controls.
func lastParagraph(e *etree.Element) *etree.Element {
	if wml.Is(e, "w:p") {
		return e
	}
	children := e.ChildElements()
	for i := len(children) - 1; i >= 0; i-- {
		if p := lastParagraph(children[i]); p != nil {
			return p
		}
	}
	return nil
}

func firstParagraph(e *etree.Element) *etree.Element {
	if wml.Is(e, "w:p") {
		return e
	}
	for _, c := range e.ChildElements() {
		if p := firstParagraph(c); p != nil {
			return p
		}
	}
	return nil
}

// appendToSlice puts marker at the very end of the slice content: inside the
// last paragraph when slice has one, before trailing section properties
// otherwise.
func appendToSlice(slice []*etree.Element, marker *etree.Element) []*etree.Element {
	for i := len(slice) - 1; i >= 0; i-- {
		if wml.Is(slice[i], "w:sectPr") {
			continue
		}
		if p := lastParagraph(slice[i]); p != nil {
			p.AddChild(marker)
			return slice
		}
		break
	}
	p := wml.New("w:p")
	p.AddChild(marker)
	at := len(slice)
	if at > 0 && wml.Is(slice[at-1], "w:sectPr") {
		at--
	}
	return append(slice[:at], append([]*etree.Element{p}, slice[at:]...)...)
}

// prependToSlice puts marker at the very beginning of the slice content:
// right after paragraph properties of the first paragraph.
func prependToSlice(slice []*etree.Element, marker *etree.Element) []*etree.Element {
	for _, e := range slice {
		if wml.Is(e, "w:sectPr") {
			continue
		}
		if p := firstParagraph(e); p != nil {
			at := 0
			if ppr := p.SelectElement("w:pPr"); ppr != nil {
				at = ppr.Index() + 1
			}
			p.InsertChildAt(at, marker)
			return slice
		}
		break
	}
	p := wml.New("w:p")
	p.AddChild(marker)
	return append([]*etree.Element{p}, slice...)
}

func dropFromSlice(slice []*etree.Element, e *etree.Element) []*etree.Element {
	for i, s := range slice {
		if s == e {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}

// dropOrphanMoves removes move range markers whose counterpart (move to for
// move from and vice versa, paired by w:name) is not part of the slice.
func dropOrphanMoves(slice []*etree.Element) []*etree.Element {
	names := func(tag string) map[string]bool {
		m := make(map[string]bool)
		for _, e := range wml.FindAllIn(slice, tag) {
			m[e.SelectAttrValue("w:name", "")] = true
		}
		return m
	}
	fromNames, toNames := names(rangeMoveFrom.start), names(rangeMoveTo.start)

	for _, pair := range []struct {
		rk      rangeKind
		partner map[string]bool
	}{
		{rangeMoveFrom, toNames},
		{rangeMoveTo, fromNames},
	} {
		orphans := make(map[string]bool)
		for _, s := range wml.FindAllIn(slice, pair.rk.start) {
			if !pair.partner[s.SelectAttrValue("w:name", "")] {
				orphans[markerID(s)] = true
			}
		}
		if len(orphans) == 0 {
			continue
		}
		for _, e := range wml.FindAllIn(slice, pair.rk.start, pair.rk.end) {
			if !orphans[markerID(e)] {
				continue
			}
			wml.Remove(e)
			slice = dropFromSlice(slice, e)
		}
	}
	return slice
}
