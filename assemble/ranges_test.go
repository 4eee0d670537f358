package assemble

import (
	"slices"
	"testing"

	"github.com/beevik/etree"

	"docasm/wml"
)

// bodyFragment parses body children.
func bodyFragment(t *testing.T, xml string) *etree.Element {
	t.Helper()
	return parseFragment(t, `<w:body>`+xml+`</w:body>`)
}

func tags(elems []*etree.Element) []string {
	var res []string
	for _, e := range elems {
		res = append(res, e.FullTag())
	}
	return res
}

func TestFixRanges(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		from, to   int
		wantStarts map[string][]string
		wantEnds   map[string][]string
		check      func(t *testing.T, slice []*etree.Element)
	}{
		{
			name: "bookmark end outside of selection",
			body: `<w:p><w:bookmarkStart w:id="1" w:name="a"/></w:p><w:p/><w:p><w:bookmarkEnd w:id="1"/></w:p>`,
			from: 0, to: 2,
			wantStarts: map[string][]string{"w:bookmarkStart": {"1"}},
			wantEnds:   map[string][]string{"w:bookmarkEnd": {"1"}},
			check: func(t *testing.T, slice []*etree.Element) {
				if slice[1].SelectElement("w:bookmarkEnd") == nil {
					t.Error("end not appended to the last paragraph")
				}
			},
		},
		{
			name: "bookmark start outside of selection",
			body: `<w:p><w:bookmarkStart w:id="1" w:name="a"/></w:p><w:p><w:pPr><w:jc w:val="left"/></w:pPr><w:r/><w:bookmarkEnd w:id="1"/></w:p>`,
			from: 1, to: 2,
			wantStarts: map[string][]string{"w:bookmarkStart": {"1"}},
			wantEnds:   map[string][]string{"w:bookmarkEnd": {"1"}},
			check: func(t *testing.T, slice []*etree.Element) {
				if got := tags(slice[0].ChildElements()); !slices.Equal(got, []string{"w:pPr", "w:bookmarkStart", "w:r", "w:bookmarkEnd"}) {
					t.Errorf("paragraph children = %q", got)
				}
			},
		},
		{
			name: "end without start anywhere",
			body: `<w:p><w:bookmarkEnd w:id="9"/></w:p>`,
			from: 0, to: 1,
			wantEnds: map[string][]string{"w:bookmarkEnd": nil},
		},
		{
			name: "comment gets a reference",
			body: `<w:p><w:commentRangeStart w:id="2"/></w:p><w:p/>`,
			from: 0, to: 1,
			wantEnds: map[string][]string{"w:commentRangeEnd": {"2"}, "w:commentReference": {"2"}},
		},
		{
			name: "range end before trailing section",
			body: `<w:bookmarkStart w:id="3" w:name="b"/><w:sectPr/><w:p><w:bookmarkEnd w:id="3"/></w:p>`,
			from: 0, to: 2,
			check: func(t *testing.T, slice []*etree.Element) {
				if got := tags(slice); !slices.Equal(got, []string{"w:bookmarkStart", "w:p", "w:sectPr"}) {
					t.Errorf("slice = %q", got)
				}
			},
		},
		{
			name: "orphan move dropped",
			body: `<w:p><w:moveFromRangeStart w:id="4" w:name="m"/><w:moveFromRangeEnd w:id="4"/></w:p>` +
				`<w:p><w:moveToRangeStart w:id="5" w:name="m"/><w:moveToRangeEnd w:id="5"/></w:p>`,
			from: 0, to: 1,
			wantStarts: map[string][]string{"w:moveFromRangeStart": nil},
			wantEnds:   map[string][]string{"w:moveFromRangeEnd": nil},
		},
		{
			name: "paired move kept",
			body: `<w:p><w:moveFromRangeStart w:id="4" w:name="m"/><w:moveFromRangeEnd w:id="4"/></w:p>` +
				`<w:p><w:moveToRangeStart w:id="5" w:name="m"/><w:moveToRangeEnd w:id="5"/></w:p>`,
			from: 0, to: 2,
			wantStarts: map[string][]string{"w:moveFromRangeStart": {"4"}, "w:moveToRangeStart": {"5"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bodyFragment(t, tt.body)
			slice := fixRanges(body, wml.Copies(body.ChildElements()[tt.from:tt.to]))
			for _, want := range []map[string][]string{tt.wantStarts, tt.wantEnds} {
				for tag, ids := range want {
					var got []string
					for _, e := range wml.FindAllIn(slice, tag) {
						got = append(got, markerID(e))
					}
					if !slices.Equal(got, ids) {
						t.Errorf("%s ids = %q, want %q", tag, got, ids)
					}
				}
			}
			if tt.check != nil {
				tt.check(t, slice)
			}
		})
	}
}

func TestFixSectionPlacement(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"section in the middle wrapped", `<w:p/><w:sectPr/><w:p/><w:sectPr/>`, []string{"w:p", "w:p", "w:p", "w:sectPr"}},
		{"trailing wrapper unwrapped", `<w:p/><w:p><w:pPr><w:sectPr/></w:pPr></w:p>`, []string{"w:p", "w:sectPr"}},
		{"wrapper with content kept", `<w:p/><w:p><w:pPr><w:sectPr/></w:pPr><w:r/></w:p>`, []string{"w:p", "w:p"}},
		{"empty", ``, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bodyFragment(t, tt.body)
			fixSectionPlacement(body)
			if got := tags(body.ChildElements()); !slices.Equal(got, tt.want) {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackfillSections(t *testing.T) {
	b := &builder{log: setupTestLogger(t)}
	b.outBody = bodyFragment(t,
		`<w:p><w:pPr><w:sectPr><w:headerReference w:type="default" r:id="rId1"/><w:footerReference w:type="first" r:id="rId2"/></w:sectPr></w:pPr></w:p>`+
			`<w:p><w:pPr><w:sectPr><w:headerReference w:type="default" r:id="rId3"/></w:sectPr></w:pPr></w:p>`+
			`<w:sectPr><w:pgSz w:w="1"/></w:sectPr>`)

	b.backfillHeadersFooters()

	sections := sectionsOf(b.outBody)
	if len(sections) != 3 {
		t.Fatalf("got %d sections", len(sections))
	}
	ref := func(sp *etree.Element, slot hfSlot) string {
		if r := slot.find(sp); r != nil {
			return r.SelectAttrValue("r:id", "")
		}
		return ""
	}
	header := hfSlot{"w:headerReference", "default"}
	footer := hfSlot{"w:footerReference", "first"}
	tests := []struct {
		section        int
		header, footer string
	}{
		{0, "rId1", "rId2"},
		{1, "rId3", "rId2"},
		{2, "rId3", "rId2"},
	}
	for _, tt := range tests {
		if got := ref(sections[tt.section], header); got != tt.header {
			t.Errorf("section %d header = %q, want %q", tt.section, got, tt.header)
		}
		if got := ref(sections[tt.section], footer); got != tt.footer {
			t.Errorf("section %d footer = %q, want %q", tt.section, got, tt.footer)
		}
	}
	if got := tags(sections[2].ChildElements()); got[len(got)-1] != "w:pgSz" {
		t.Errorf("references not placed before page size: %q", got)
	}
	if ref(sections[0], hfSlot{"w:headerReference", "even"}) != "" {
		t.Error("first section got a slot it never had")
	}
}

func TestStripForHeaderFooter(t *testing.T) {
	body := bodyFragment(t,
		`<w:p><w:commentRangeStart w:id="1"/><w:r><w:t>a</w:t></w:r><w:commentRangeEnd w:id="1"/>`+
			`<w:r><w:commentReference w:id="1"/></w:r><w:r><w:t>b</w:t><w:footnoteReference w:id="2"/></w:r></w:p>`+
			`<w:p><w:pPr><w:sectPr/></w:pPr></w:p><w:sectPr/>`)

	slice := stripForHeaderFooter(wml.Copies(body.ChildElements()))

	if got := tags(slice); !slices.Equal(got, []string{"w:p", "w:p"}) {
		t.Fatalf("slice = %q", got)
	}
	if n := len(wml.FindAllIn(slice, "w:commentRangeStart", "w:commentRangeEnd", "w:commentReference", "w:footnoteReference", "w:sectPr")); n != 0 {
		t.Errorf("%d disallowed elements left", n)
	}
	if got := len(slice[0].SelectElements("w:r")); got != 2 {
		t.Errorf("got %d runs, want 2", got)
	}
	if textOf(slice[0]) != "ab" {
		t.Errorf("text = %q", textOf(slice[0]))
	}
}

func TestMarkerAnchor(t *testing.T) {
	body := bodyFragment(t,
		`<w:p><w:r><da:insert id="p"/></w:r></w:p>`+
			`<da:insert id="b"/>`+
			`<w:tbl><w:tr><w:tc><w:p><da:insert id="c"/></w:p></w:tc></w:tr></w:tbl>`)

	tests := []struct {
		id, want string
	}{
		{"p", "w:p"},
		{"b", "da:insert"},
		{"c", "w:p"},
	}
	for _, tt := range tests {
		m := findMarker(body, tt.id)
		if m == nil {
			t.Fatalf("marker %s not found", tt.id)
		}
		if got := markerAnchor(m).FullTag(); got != tt.want {
			t.Errorf("anchor of %s = %s, want %s", tt.id, got, tt.want)
		}
	}
	if findMarker(body, "missing") != nil {
		t.Error("found marker which does not exist")
	}
	if n := removeMarkers(body); n != 3 {
		t.Errorf("removed %d markers, want 3", n)
	}
}

func TestSourceWindow(t *testing.T) {
	tests := []struct {
		start, count int
		from, to     int
	}{
		{0, All, 0, 5},
		{2, 2, 2, 4},
		{3, 10, 3, 5},
		{7, 1, 5, 5},
		{-2, 2, 0, 2},
		{1, 0, 1, 1},
	}
	for _, tt := range tests {
		from, to := Source{Start: tt.start, Count: tt.count}.window(5)
		if from != tt.from || to != tt.to {
			t.Errorf("window(%d, %d) = [%d, %d), want [%d, %d)", tt.start, tt.count, from, to, tt.from, tt.to)
		}
	}
}

func TestDedupeDocParts(t *testing.T) {
	body := bodyFragment(t,
		`<w:docPart><w:docPartPr><w:guid w:val="{AAAA}"/></w:docPartPr></w:docPart>`+
			`<w:docPart><w:docPartPr><w:guid w:val="{aaaa}"/></w:docPartPr></w:docPart>`+
			`<w:docPart><w:docPartPr/></w:docPart>`+
			`<w:docPart><w:docPartPr><w:guid w:val="{BBBB}"/></w:docPartPr></w:docPart>`)

	if n := dedupeDocParts(body); n != 1 {
		t.Errorf("dropped %d, want 1", n)
	}
	if n := len(body.SelectElements("w:docPart")); n != 3 {
		t.Errorf("kept %d building blocks, want 3", n)
	}
}
