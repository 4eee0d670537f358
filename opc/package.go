// Package opc gives access to parts and relationships of Open Packaging
// Conventions containers (docx files).
package opc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
	"unicode"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"docasm/archive"
)

// Package is an in-memory OPC container.
type Package struct {
	relSet

	parts map[string]*Part
	types *contentTypes
	log   *zap.Logger
}

// OpenFile reads package from file.
func OpenFile(name string, log *zap.Logger) (*Package, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read package: %w", err)
	}
	return Open(data, log)
}

// Open reads package from memory.
func Open(data []byte, log *zap.Logger) (*Package, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("package is not a zip archive: %w", err)
	}

	pkg := &Package{parts: make(map[string]*Part), log: log}
	pkg.relSet.pkg = pkg

	raw := make(map[string][]byte)
	if err := archive.WalkReader(r, "", func(_ string, f *zip.File) error {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", f.Name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
		raw[strings.TrimPrefix(f.Name, "/")] = content
		return nil
	}); err != nil {
		return nil, err
	}

	ctData, ok := raw[contentTypesName]
	if !ok {
		return nil, errors.New("package has no " + contentTypesName)
	}
	if pkg.types, err = parseContentTypes(ctData); err != nil {
		return nil, err
	}
	delete(raw, contentTypesName)

	rels := make(map[string][]byte)
	for name, content := range raw {
		if source, ok := sourceOfRels(name); ok {
			rels[source] = content
			continue
		}
		p := &Part{name: name, contentType: pkg.types.lookup(name), data: content}
		p.relSet = relSet{pkg: pkg, base: name}
		pkg.parts[name] = p
	}

	for source, content := range rels {
		list, err := parseRels(content)
		if err != nil {
			return nil, fmt.Errorf("unable to parse relationships of %q: %w", source, err)
		}
		if source == "" {
			pkg.relSet.list = list
			continue
		}
		p, ok := pkg.parts[source]
		if !ok {
			log.Debug("Dropping relationships of missing part", zap.String("part", source))
			continue
		}
		p.relSet.list = list
	}
	return pkg, nil
}

// NewDocument creates package with an empty main document part.
func NewDocument(log *zap.Logger) *Package {
	pkg := &Package{parts: make(map[string]*Part), types: newContentTypes(), log: log}
	pkg.relSet.pkg = pkg
	main := pkg.AddPart(KindMainDocument)
	main.PutXML(newMainDocument())
	pkg.AddRel(RelOfficeDocument, main)
	return pkg
}

// MainPart returns the main document part.
func (pkg *Package) MainPart() *Part {
	if p := pkg.FirstRelated(RelOfficeDocument); p != nil {
		return p
	}
	return pkg.FirstRelated(RelStrictOfficeDocument)
}

// Part returns part by name or nil.
func (pkg *Package) Part(name string) *Part {
	return pkg.parts[strings.TrimPrefix(name, "/")]
}

// Parts returns all parts in natural name order.
func (pkg *Package) Parts() []*Part {
	names := slices.Collect(maps.Keys(pkg.parts))
	slices.SortFunc(names, compareNatural)
	res := make([]*Part, 0, len(names))
	for _, n := range names {
		res = append(res, pkg.parts[n])
	}
	return res
}

func compareNatural(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	default:
		return 1
	}
}

// uniqueName resolves part naming pattern into a name not used in the
// package yet.
func (pkg *Package) uniqueName(pattern string) string {
	if !strings.Contains(pattern, "%d") {
		if _, ok := pkg.parts[pattern]; !ok {
			return pattern
		}
		dot := strings.LastIndex(pattern, ".")
		if dot < 0 {
			dot = len(pattern)
		}
		pattern = pattern[:dot] + "%d" + pattern[dot:]
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf(pattern, i)
		if _, ok := pkg.parts[name]; !ok {
			return name
		}
	}
}

// AddPart creates new empty part of the kind with unique name. Caller is
// responsible for content and relationships.
func (pkg *Package) AddPart(kind PartKind) *Part {
	return pkg.AddPartNamed(pkg.uniqueName(kind.Name), kind.ContentType)
}

// AddPartNamed creates new empty part with the name, replacing existing one.
func (pkg *Package) AddPartNamed(name, contentType string) *Part {
	name = strings.TrimPrefix(name, "/")
	p := &Part{name: name, contentType: contentType}
	p.relSet = relSet{pkg: pkg, base: name}
	pkg.parts[name] = p
	pkg.types.register(name, contentType)
	return p
}

// AddBinaryPart stores binary data under name derived from the pattern. When
// content type is empty it is detected from data.
func (pkg *Package) AddBinaryPart(pattern string, data []byte, contentType string) *Part {
	if contentType == "" {
		contentType = detectContentType(data)
	}
	p := pkg.AddPartNamed(pkg.uniqueName(pattern), contentType)
	p.data = data
	return p
}

// CopyPart copies content of the part (usually from another package) under
// its own name, or under a numbered variant of it when the name is taken.
// Relationships are not copied.
func (pkg *Package) CopyPart(src *Part) *Part {
	return pkg.CopyPartTo(src, src.name)
}

// CopyPartTo is CopyPart with explicit name or naming pattern.
func (pkg *Package) CopyPartTo(src *Part, pattern string) *Part {
	name := pattern
	if _, taken := pkg.parts[name]; taken || strings.Contains(name, "%d") {
		name = pkg.uniqueName(numberedPattern(pattern))
	}
	if !src.IsXML() {
		return pkg.AddBinaryPart(name, src.data, src.contentType)
	}
	p := pkg.AddPartNamed(name, src.contentType)
	if src.doc != nil {
		p.doc = src.doc.Copy()
	} else {
		p.data = src.data
	}
	return p
}

// numberedPattern turns part name into naming pattern replacing trailing
// number of the base name ("word/media/image3.png" -> "word/media/image%d.png").
func numberedPattern(name string) string {
	if strings.Contains(name, "%d") {
		return name
	}
	dir, file := path.Split(name)
	ext := path.Ext(file)
	base := strings.TrimRightFunc(strings.TrimSuffix(file, ext), unicode.IsDigit)
	return dir + base + "%d" + ext
}

// Clone makes deep copy of the package.
func (pkg *Package) Clone() *Package {
	c := &Package{parts: make(map[string]*Part, len(pkg.parts)), types: pkg.types.clone(), log: pkg.log}
	c.relSet = relSet{pkg: c, list: slices.Clone(pkg.relSet.list)}
	for name, p := range pkg.parts {
		np := &Part{name: name, contentType: p.contentType, data: p.data}
		np.relSet = relSet{pkg: c, base: name, list: slices.Clone(p.list)}
		if p.doc != nil {
			np.doc = p.doc.Copy()
		}
		c.parts[name] = np
	}
	return c
}
