package assemble

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"docasm/opc"
	"docasm/wml"
)

func setupTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
}

const testNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:da="urn:docasm:insert" ` +
	`xmlns:pt="http://powertools.codeplex.com/2011"`

// testDoc builds small packages in memory.
type testDoc struct {
	t    *testing.T
	pkg  *opc.Package
	main *opc.Part
}

func newTestDoc(t *testing.T, body string) *testDoc {
	t.Helper()
	pkg := opc.NewDocument(setupTestLogger(t))
	main := pkg.MainPart()
	main.SetBytes([]byte(`<w:document ` + testNS + `><w:body>` + body + `</w:body></w:document>`))
	return &testDoc{t: t, pkg: pkg, main: main}
}

// part adds XML part related to the main document and returns it.
func (d *testDoc) part(kind opc.PartKind, root string) *opc.Part {
	d.t.Helper()
	p := d.pkg.AddPart(kind)
	p.SetBytes([]byte(withNS(root)))
	d.main.AddRel(kind.RelType, p)
	return p
}

// relID returns id of the main document relationship to the part.
func (d *testDoc) relID(p *opc.Part) string {
	d.t.Helper()
	id, ok := d.main.RelID(p)
	if !ok {
		d.t.Fatalf("no relationship to %s", p.Name())
	}
	return id
}

func (d *testDoc) styles(defs string) *testDoc {
	d.part(opc.KindStyles, `<w:styles>`+defs+`</w:styles>`)
	return d
}

func (d *testDoc) source(name string) Source {
	return NewSource(d.pkg, name)
}

// withNS declares test namespaces on the root element of the fragment.
func withNS(xml string) string {
	end := strings.IndexAny(xml, " />")
	return xml[:end] + " " + testNS + xml[end:]
}

func style(id, name string, extra ...string) string {
	return `<w:style w:type="paragraph" w:styleId="` + id + `"><w:name w:val="` + name + `"/>` +
		strings.Join(extra, "") + `</w:style>`
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func styledPara(styleID, text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="` + styleID + `"/></w:pPr><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func build(t *testing.T, opts Options, sources ...Source) *opc.Package {
	t.Helper()
	out, err := Build(t.Context(), sources, opts, setupTestLogger(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return out
}

func rootOf(t *testing.T, p *opc.Part) *etree.Element {
	t.Helper()
	if p == nil {
		t.Fatal("part is missing")
	}
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}
	return root
}

func bodyOf(t *testing.T, pkg *opc.Package) *etree.Element {
	t.Helper()
	return rootOf(t, pkg.MainPart()).SelectElement("w:body")
}

func textOf(e *etree.Element) string {
	var sb strings.Builder
	for _, t := range wml.FindAll(e, "w:t") {
		sb.WriteString(t.Text())
	}
	return sb.String()
}

// texts returns text of every body child.
func texts(t *testing.T, pkg *opc.Package) []string {
	t.Helper()
	var res []string
	for _, c := range bodyOf(t, pkg).ChildElements() {
		if wml.Is(c, "w:p") {
			res = append(res, textOf(c))
		}
	}
	return res
}

func ids(elems []*etree.Element) []string {
	res := make([]string, 0, len(elems))
	for _, e := range elems {
		res = append(res, e.SelectAttrValue("w:id", ""))
	}
	return res
}

// parseFragment parses a single element written with test prefixes.
func parseFragment(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(`<w:root ` + testNS + `>` + xml + `</w:root>`); err != nil {
		t.Fatalf("unable to parse fragment: %v", err)
	}
	wml.Canonicalize(doc)
	e := doc.Root().ChildElements()[0]
	doc.Root().RemoveChild(e)
	return e
}
