package assemble

import (
	"github.com/beevik/etree"

	"docasm/wml"
)

const markerTag = "da:insert"

// Insert markers: da:insert/@id and PowerTools pt:Insert/@Id.
var markerTags = []string{markerTag, "pt:Insert"}

func insertMarkerID(m *etree.Element) string {
	if wml.Is(m, "pt:Insert") {
		return m.SelectAttrValue("Id", "")
	}
	return m.SelectAttrValue("id", "")
}

// findMarker returns the first insert marker with the id.
func findMarker(root *etree.Element, id string) *etree.Element {
	for _, m := range wml.FindAll(root, markerTags...) {
		if insertMarkerID(m) == id {
			return m
		}
	}
	return nil
}

// markerAnchor returns block level element replaced by content inserted at
// the marker: enclosing paragraph when marker is inside one, marker itself
// otherwise.
func markerAnchor(m *etree.Element) *etree.Element {
	for e := m.Parent(); e != nil; e = e.Parent() {
		if wml.Is(e, "w:p") {
			return e
		}
		if wml.KindOf(e).IsBlockContainer() {
			break
		}
	}
	return m
}

// removeMarkers drops leftover insert markers.
func removeMarkers(root *etree.Element) int {
	markers := wml.FindAll(root, markerTags...)
	for _, m := range markers {
		wml.Remove(m)
	}
	return len(markers)
}

// stripForHeaderFooter removes content not allowed in headers and footers
// from the slice: section properties, comments and note references.
func stripForHeaderFooter(slice []*etree.Element) []*etree.Element {
	slice = stripSections(slice)
	for _, e := range wml.FindAllIn(slice, "w:commentRangeStart", "w:commentRangeEnd") {
		wml.Remove(e)
	}
	for _, e := range wml.FindAllIn(slice, "w:commentReference", "w:footnoteReference", "w:endnoteReference") {
		if r := e.Parent(); wml.Is(r, "w:r") && onlyChild(r, e) {
			wml.Remove(r)
			continue
		}
		wml.Remove(e)
	}
	res := slice[:0]
	for _, e := range slice {
		if !wml.IsAny(e, "w:commentRangeStart", "w:commentRangeEnd") {
			res = append(res, e)
		}
	}
	return res
}

// onlyChild reports whether e is the only child of the run besides run
// properties.
func onlyChild(r, e *etree.Element) bool {
	for _, c := range r.ChildElements() {
		if c != e && !wml.Is(c, "w:rPr") {
			return false
		}
	}
	return true
}
