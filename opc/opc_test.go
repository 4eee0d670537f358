package opc

import (
	"archive/zip"
	"bytes"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
}

func TestRelsName(t *testing.T) {
	tests := []struct {
		source string
		rels   string
	}{
		{"", "_rels/.rels"},
		{"word/document.xml", "word/_rels/document.xml.rels"},
		{"word/glossary/document.xml", "word/glossary/_rels/document.xml.rels"},
	}
	for _, tt := range tests {
		if got := relsName(tt.source); got != tt.rels {
			t.Errorf("relsName(%q) = %q, want %q", tt.source, got, tt.rels)
		}
		source, ok := sourceOfRels(tt.rels)
		if !ok || source != tt.source {
			t.Errorf("sourceOfRels(%q) = %q, %v, want %q", tt.rels, source, ok, tt.source)
		}
	}
	if _, ok := sourceOfRels("word/document.xml"); ok {
		t.Error("sourceOfRels accepted regular part")
	}
}

func TestRelativeTarget(t *testing.T) {
	log := setupTestLogger(t)
	pkg := NewDocument(log)

	tests := []struct {
		base, target, want string
	}{
		{"word/document.xml", "word/media/image1.png", "media/image1.png"},
		{"word/glossary/document.xml", "word/media/image1.png", "../media/image1.png"},
		{"", "word/document.xml", "word/document.xml"},
		{"word/document.xml", "customXml/item1.xml", "../customXml/item1.xml"},
	}
	for _, tt := range tests {
		rs := &relSet{pkg: pkg, base: tt.base}
		got := rs.relativeTarget(tt.target)
		if got != tt.want {
			t.Errorf("relativeTarget(%q -> %q) = %q, want %q", tt.base, tt.target, got, tt.want)
		}
		if back := rs.resolveTarget(got); back != tt.target {
			t.Errorf("resolveTarget(%q) from %q = %q, want %q", got, tt.base, back, tt.target)
		}
	}
}

func TestNewDocumentRoundTrip(t *testing.T) {
	log := setupTestLogger(t)
	pkg := NewDocument(log)

	main := pkg.MainPart()
	if main == nil {
		t.Fatal("main part not found")
	}
	root, err := main.Root()
	if err != nil {
		t.Fatalf("Root() error = %v", err)
	}
	root.SelectElement("w:body").CreateElement("w:p")

	img := pkg.AddBinaryPart("word/media/image%d.png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, "")
	if img.Name() != "word/media/image1.png" {
		t.Errorf("image name = %q", img.Name())
	}
	if img.ContentType() != "image/png" {
		t.Errorf("image content type = %q", img.ContentType())
	}
	id := main.AddRel(RelImage, img)
	if id != "rId1" {
		t.Errorf("image rel id = %q, want rId1", id)
	}
	if again := main.AddRel(RelImage, img); again != id {
		t.Errorf("repeated AddRel = %q, want %q", again, id)
	}
	ext := main.AddExternalRel(RelHyperlink, "https://example.com")
	if ext != "rId2" {
		t.Errorf("external rel id = %q, want rId2", ext)
	}

	for _, fix := range []bool{false, true} {
		data, err := pkg.Save(SaveOptions{FixZip: fix})
		if err != nil {
			t.Fatalf("Save(fix=%v) error = %v", fix, err)
		}
		if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("saved package is not a zip: %v", err)
		}

		back, err := Open(data, log)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		bm := back.MainPart()
		if bm == nil || bm.Name() != "word/document.xml" {
			t.Fatalf("main part after round trip = %v", bm)
		}
		if bm.ContentType() != CTMainDocument {
			t.Errorf("main content type = %q", bm.ContentType())
		}
		broot, err := bm.Root()
		if err != nil {
			t.Fatalf("Root() error = %v", err)
		}
		if broot.FindElement("w:body/w:p") == nil {
			t.Error("paragraph lost in round trip")
		}
		if p := bm.Resolve("rId1"); p == nil || p.Name() != img.Name() {
			t.Errorf("Resolve(rId1) = %v", p)
		}
		if r, ok := bm.Rel("rId2"); !ok || !r.External || r.Target != "https://example.com" {
			t.Errorf("external rel = %+v, %v", r, ok)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	pkg := NewDocument(setupTestLogger(t))

	h1 := pkg.AddPart(KindHeader)
	h2 := pkg.AddPart(KindHeader)
	if h1.Name() != "word/header1.xml" || h2.Name() != "word/header2.xml" {
		t.Errorf("header names = %q, %q", h1.Name(), h2.Name())
	}
	s1 := pkg.AddPart(KindStyles)
	s2 := pkg.AddPart(KindStyles)
	if s1.Name() != "word/styles.xml" || s2.Name() != "word/styles1.xml" {
		t.Errorf("styles names = %q, %q", s1.Name(), s2.Name())
	}
	if got := pkg.types.lookup(h2.Name()); got != CTHeader {
		t.Errorf("header content type = %q", got)
	}

	names := []string{}
	for _, p := range pkg.Parts() {
		names = append(names, p.Name())
	}
	want := []string{"word/document.xml", "word/header1.xml", "word/header2.xml", "word/styles.xml", "word/styles1.xml"}
	if len(names) != len(want) {
		t.Fatalf("Parts() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Parts()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestCopyPart(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	src := NewDocument(setupTestLogger(t))
	img := src.AddBinaryPart("word/media/image%d.png", png, "")
	hdr := src.AddPart(KindHeader)

	dst := NewDocument(setupTestLogger(t))
	dst.AddBinaryPart("word/media/image%d.png", png, "image/png")

	copied := dst.CopyPart(img)
	if copied.Name() != "word/media/image2.png" {
		t.Errorf("copied image name = %q, want word/media/image2.png", copied.Name())
	}
	if copied.ContentType() != "image/png" {
		t.Errorf("copied image content type = %q", copied.ContentType())
	}
	if data, _ := copied.Bytes(); !bytes.Equal(data, png) {
		t.Error("copied image data differs")
	}

	h := dst.CopyPartTo(hdr, "word/glossary/header%d.xml")
	if h.Name() != "word/glossary/header1.xml" || !h.IsXML() {
		t.Errorf("copied header = %q, xml %v", h.Name(), h.IsXML())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	pkg := NewDocument(setupTestLogger(t))
	c := pkg.Clone()

	root, err := c.MainPart().Root()
	if err != nil {
		t.Fatal(err)
	}
	root.SelectElement("w:body").CreateElement("w:p")
	c.AddPart(KindFooter)

	orig, _ := pkg.MainPart().Root()
	if orig.FindElement("w:body/w:p") != nil {
		t.Error("clone modification leaked into original document")
	}
	if pkg.Part("word/footer1.xml") != nil {
		t.Error("clone part leaked into original package")
	}
	if c.MainPart().Package() != c {
		t.Error("cloned part points to original package")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	log := setupTestLogger(t)
	if _, err := Open([]byte("not a zip"), log); err == nil {
		t.Error("expected error for non zip data")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte("<w:document/>"))
	zw.Close()
	if _, err := Open(buf.Bytes(), log); err == nil {
		t.Error("expected error for package without content types")
	}
}
