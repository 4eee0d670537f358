package assemble

import (
	"strconv"

	"github.com/beevik/etree"

	"docasm/opc"
)

// All selects every body child starting at Source.Start.
const All = -1

// Source is a single contribution to the assembly: package, window over its
// top level body children and flags controlling sections handling. Source
// package is never modified by the engine.
type Source struct {
	Package *opc.Package
	// Name is used in logs and error messages only.
	Name string
	// Start and Count select half-open window [Start, Start+Count) of body
	// children, clamped to body length. Negative Count selects till the end.
	Start int
	Count int
	// KeepSections preserves section properties of the selected content.
	KeepSections bool
	// KeepHeadersAndFooters preserves header and footer references of kept
	// sections, ignored without KeepSections.
	KeepHeadersAndFooters bool
	// InsertID makes content replace insert marker with this id instead of
	// being appended to the body.
	InsertID string
}

// NewSource returns source selecting the whole body.
func NewSource(pkg *opc.Package, name string) Source {
	return Source{Package: pkg, Name: name, Count: All}
}

// Range returns copy of the source selecting [start, start+count).
func (s Source) Range(start, count int) Source {
	s.Start, s.Count = start, count
	return s
}

// WithSections returns copy of the source which keeps sections and
// optionally headers and footers.
func (s Source) WithSections(headersAndFooters bool) Source {
	s.KeepSections, s.KeepHeadersAndFooters = true, headersAndFooters
	return s
}

// Into returns copy of the source targeting insert marker.
func (s Source) Into(id string) Source {
	s.InsertID = id
	return s
}

// window clamps selection to n body children.
func (s Source) window(n int) (from, to int) {
	from = min(max(s.Start, 0), n)
	if s.Count < 0 {
		return from, n
	}
	return from, min(from+s.Count, n)
}

// sourceDoc is the working state of a source during assembly: private copy
// of the package and caches mapping its definitions into the output.
type sourceDoc struct {
	Source
	index int

	pkg  *opc.Package
	main *opc.Part
	root *etree.Element // w:document
	body *etree.Element

	// copies of the selected body children, ready for import
	slice []*etree.Element

	styles        *styleSet // nil when source has no styles part
	numberingPart *opc.Part
	numbering     *etree.Element // nil when source has no numbering part

	styleMap map[string]string
	numMap   map[int]int
	absMap   map[int]int
	picMap   map[int]int

	// definitions cloned into the output whose references still point into
	// the source namespace
	pendingStyles []*etree.Element
	pendingNums   []*etree.Element

	parts   map[*opc.Part]*opc.Part // copied resource parts
	headers map[*opc.Part]*opc.Part // copied header and footer parts
	rels    map[relKey]string       // rewritten relationship ids
}

type relKey struct {
	src, dst *opc.Part
	id       string
}

// label is used for logging.
func (sd *sourceDoc) label() string {
	if sd.Name != "" {
		return sd.Name
	}
	return "#" + strconv.Itoa(sd.index+1)
}
