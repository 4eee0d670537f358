package assemble

import (
	"strconv"

	"github.com/beevik/etree"

	"docasm/wml"
)

// idKind is a namespace of numeric ids in the output document.
type idKind int

const (
	idBookmark idKind = iota
	idComment
	idFootnote
	idEndnote
	idPermission
	idMove
)

func (k idKind) String() string {
	switch k {
	case idBookmark:
		return "bookmark"
	case idComment:
		return "comment"
	case idFootnote:
		return "footnote"
	case idEndnote:
		return "endnote"
	case idPermission:
		return "permission"
	case idMove:
		return "move"
	}
	return "unknown"
}

// Elements carrying ids of each kind in w:id.
var idTags = []struct {
	kind idKind
	tags []string
}{
	{idBookmark, []string{"w:bookmarkStart", "w:bookmarkEnd"}},
	{idComment, []string{"w:commentRangeStart", "w:commentRangeEnd", "w:commentReference"}},
	{idFootnote, []string{"w:footnoteReference"}},
	{idEndnote, []string{"w:endnoteReference"}},
	{idPermission, []string{"w:permStart", "w:permEnd"}},
	{idMove, []string{"w:moveFromRangeStart", "w:moveFromRangeEnd", "w:moveToRangeStart", "w:moveToRangeEnd"}},
}

// idMapping is the ordered old to new id mapping of a single kind.
type idMapping struct {
	from []int
	to   map[int]int
}

// idState tracks the highest id of every kind used in the output.
type idState struct {
	last map[idKind]int
}

func newIDState() *idState {
	return &idState{last: map[idKind]int{
		idBookmark:   -1,
		idComment:    -1,
		idFootnote:   0, // -1 and 0 are reserved for separators
		idEndnote:    0,
		idPermission: -1,
		idMove:       -1,
	}}
}

// reserve makes sure id is never handed out.
func (s *idState) reserve(kind idKind, id int) {
	s.last[kind] = max(s.last[kind], id)
}

// rewrite gives every id found in elements a new output id in first seen
// order and rewrites all occurrences.
func (s *idState) rewrite(elems []*etree.Element) (map[idKind]*idMapping, error) {
	res := make(map[idKind]*idMapping)
	for _, it := range idTags {
		found := wml.FindAllIn(elems, it.tags...)
		if len(found) == 0 {
			continue
		}
		m := &idMapping{to: make(map[int]int)}
		for _, e := range found {
			id, ok, err := wml.IntAttr(e, "w:id")
			if err != nil {
				return nil, malformed("%s id: %v", it.kind, err)
			}
			if !ok {
				continue
			}
			to, seen := m.to[id]
			if !seen {
				s.last[it.kind]++
				to = s.last[it.kind]
				m.to[id] = to
				m.from = append(m.from, id)
			}
			e.CreateAttr("w:id", strconv.Itoa(to))
		}
		res[it.kind] = m
	}
	return res, nil
}
