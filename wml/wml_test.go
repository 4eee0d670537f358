package wml

import (
	"slices"
	"testing"

	"github.com/beevik/etree"
)

func parse(t *testing.T, xml string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("ReadFromString() error = %v", err)
	}
	Canonicalize(doc)
	return doc
}

func childTags(e *etree.Element) []string {
	var res []string
	for _, c := range e.ChildElements() {
		res = append(res, c.FullTag())
	}
	return res
}

func TestCanonicalize(t *testing.T) {
	doc := parse(t, `<doc:document xmlns:doc="`+NSW+`" xmlns:x="urn:custom" xmlns:mc="`+NSMC+`" xmlns:v14="`+NSW14+`" mc:Ignorable="v14">`+
		`<doc:body><doc:p v14:paraId="1"><q:r xmlns:q="`+NSW+`"/><x:thing/>`+
		`<n xmlns="urn:default"/><w:foreign xmlns:w="urn:squatter"/></doc:p></doc:body></doc:document>`)
	root := doc.Root()

	if root.FullTag() != "w:document" {
		t.Errorf("root = %s", root.FullTag())
	}
	p := root.FindElement("w:body/w:p")
	if p == nil {
		t.Fatal("paragraph not found under canonical prefixes")
	}
	if got := p.SelectAttrValue("w14:paraId", ""); got != "1" {
		t.Errorf("w14:paraId = %q", got)
	}
	if got := root.SelectAttrValue("mc:Ignorable", ""); got != "w14" {
		t.Errorf("mc:Ignorable = %q, want w14", got)
	}

	tags := childTags(p)
	if tags[0] != "w:r" || tags[1] != "x:thing" {
		t.Errorf("children = %q", tags)
	}
	// default namespace and squatter get fresh prefixes
	if tags[2] == "n" || tags[3] == "w:foreign" {
		t.Errorf("unknown namespaces not renamed: %q", tags)
	}

	decls := Declared(root)
	if decls["w"] != NSW || decls["x"] != "urn:custom" || decls["w14"] != NSW14 {
		t.Errorf("declarations = %v", decls)
	}
	Walk(root, func(e *etree.Element) bool {
		if e != root && len(Declared(e)) > 0 {
			t.Errorf("nested declaration left on %s", e.FullTag())
		}
		return true
	})
}

func TestImportNamespaces(t *testing.T) {
	src := parse(t, `<w:document xmlns:w="`+NSW+`" xmlns:mc="`+NSMC+`" xmlns:w14="`+NSW14+`" xmlns:x="urn:one" mc:Ignorable="w14">`+
		`<w:body><w:p w14:paraId="2"><x:a/></w:p></w:body></w:document>`).Root()
	dst := parse(t, `<w:document xmlns:w="`+NSW+`" xmlns:x="urn:two"><w:body><x:b/></w:body></w:document>`).Root()

	p := src.FindElement("w:body/w:p").Copy()
	ImportNamespaces(dst, src, p)

	decls := Declared(dst)
	if decls["w14"] != NSW14 {
		t.Error("w14 not declared on destination")
	}
	if decls["x"] != "urn:two" {
		t.Error("existing declaration changed")
	}
	renamed := p.ChildElements()[0]
	if renamed.Space == "x" || decls[renamed.Space] != "urn:one" {
		t.Errorf("clashing prefix not renamed: %s", renamed.FullTag())
	}
	if got := dst.SelectAttrValue("mc:Ignorable", ""); got != "w14" {
		t.Errorf("mc:Ignorable = %q, want w14", got)
	}
}

func TestEnsureDeclared(t *testing.T) {
	root := etree.NewElement("w:document")
	if p := EnsureDeclared(root, NSR); p != "r" {
		t.Errorf("prefix = %q", p)
	}
	EnsureDeclared(root, NSR)
	if n := len(Declared(root)); n != 1 {
		t.Errorf("got %d declarations, want 1", n)
	}
	defer func() {
		if recover() == nil {
			t.Error("unknown namespace accepted")
		}
	}()
	EnsureDeclared(root, "urn:nobody")
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want []string
	}{
		{
			"section properties",
			`<w:sectPr><w:pgSz/><w:footerReference/><w:titlePg/><w:headerReference/><w:pgMar/></w:sectPr>`,
			[]string{"w:footerReference", "w:headerReference", "w:pgSz", "w:pgMar", "w:titlePg"},
		},
		{
			"numbering",
			`<w:numbering><w:num/><w:abstractNum/><w:num/><w:numPicBullet/></w:numbering>`,
			[]string{"w:numPicBullet", "w:abstractNum", "w:num", "w:num"},
		},
		{
			"unknown children go last",
			`<w:style><w:rPr/><w14:extra/><w:name/></w:style>`,
			[]string{"w:name", "w:rPr", "w14:extra"},
		},
		{
			"no table",
			`<w:body><w:sectPr/><w:p/></w:body>`,
			[]string{"w:sectPr", "w:p"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parse(t, `<w:root xmlns:w="`+NSW+`" xmlns:w14="`+NSW14+`">`+tt.xml+`</w:root>`).Root()
			e := root.ChildElements()[0]
			Reorder(e)
			if got := childTags(e); !slices.Equal(got, tt.want) {
				t.Errorf("children = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertOrdered(t *testing.T) {
	ppr := New("w:pPr")
	ppr.AddChild(New("w:pStyle", "w:val", "Normal"))
	ppr.AddChild(New("w:jc", "w:val", "left"))

	InsertOrdered(ppr, New("w:numPr"))
	InsertOrdered(ppr, New("w:sectPr"))
	InsertOrdered(ppr, New("w:keepNext"))

	want := []string{"w:pStyle", "w:keepNext", "w:numPr", "w:jc", "w:sectPr"}
	if got := childTags(ppr); !slices.Equal(got, want) {
		t.Errorf("children = %q, want %q", got, want)
	}

	c := EnsureChild(ppr, "w:numPr")
	if c != ppr.SelectElement("w:numPr") || len(ppr.ChildElements()) != 5 {
		t.Error("EnsureChild created duplicate")
	}
}

func TestTreeHelpers(t *testing.T) {
	body := New("w:body")
	a, b, c := New("w:p", "w:id", "a"), New("w:p", "w:id", "b"), New("w:p", "w:id", "c")
	body.AddChild(a)
	body.AddChild(c)

	InsertAfter(a, b)
	if got := childTags(body); len(got) != 3 || body.ChildElements()[1] != b {
		t.Fatalf("InsertAfter order = %q", got)
	}

	x, y := New("w:tbl"), New("w:sdt")
	Replace(b, x, y)
	kids := body.ChildElements()
	if len(kids) != 4 || kids[1] != x || kids[2] != y || b.Parent() != nil {
		t.Errorf("Replace result = %q", childTags(body))
	}

	Remove(x)
	InsertAfter(a, x)
	if body.ChildElements()[1] != x {
		t.Error("InsertAfter misplaced element")
	}

	if got := len(FindAll(body, "w:p", "w:tbl")); got != 3 {
		t.Errorf("FindAll found %d, want 3", got)
	}
	if v, ok, err := IntAttr(New("w:num", "w:numId", " 12 "), "w:numId"); v != 12 || !ok || err != nil {
		t.Errorf("IntAttr = %d, %v, %v", v, ok, err)
	}
	if _, ok, err := IntAttr(New("w:num"), "w:numId"); ok || err != nil {
		t.Error("IntAttr reported missing attribute")
	}
	if _, _, err := IntAttr(New("w:num", "w:numId", "x"), "w:numId"); err == nil {
		t.Error("IntAttr accepted garbage")
	}
	if !KindOf(New("w:tc")).IsBlockContainer() || KindOf(New("w:r")).IsBlockContainer() {
		t.Error("block container classification is wrong")
	}
}
