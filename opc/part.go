package opc

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"docasm/wml"
)

// Part is a single package part. XML parts are parsed lazily on first access
// and serialized back on save, binary parts are kept as is.
type Part struct {
	relSet

	name        string
	contentType string
	data        []byte
	doc         *etree.Document
}

// Name returns part name without leading slash ("word/document.xml").
func (p *Part) Name() string {
	return p.name
}

// ContentType returns part content type.
func (p *Part) ContentType() string {
	return p.contentType
}

// Package returns the owning package.
func (p *Part) Package() *Package {
	return p.pkg
}

// IsXML reports whether part content is xml.
func (p *Part) IsXML() bool {
	return p.doc != nil || isXMLContentType(p.contentType)
}

func isXMLContentType(ct string) bool {
	return ct == CTXML || ct == "text/xml" || strings.HasSuffix(ct, "+xml")
}

// XML returns parsed and canonicalized part document. Modifications of the
// returned tree are persisted when package is saved.
func (p *Part) XML() (*etree.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(p.data); err != nil {
		return nil, fmt.Errorf("unable to parse part %s: %w", p.name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("part %s has no root element", p.name)
	}
	wml.Canonicalize(doc)
	p.doc = doc
	p.data = nil
	return p.doc, nil
}

// Root is a shortcut returning root element of the XML part.
func (p *Part) Root() (*etree.Element, error) {
	doc, err := p.XML()
	if err != nil {
		return nil, err
	}
	return doc.Root(), nil
}

// PutXML replaces part content with the document.
func (p *Part) PutXML(doc *etree.Document) {
	p.doc = doc
	p.data = nil
}

// Bytes returns serialized part content.
func (p *Part) Bytes() ([]byte, error) {
	if p.doc == nil {
		return p.data, nil
	}
	return serializeXML(p.doc)
}

// SetBytes replaces part content with raw data, dropping parsed tree.
func (p *Part) SetBytes(data []byte) {
	p.data = data
	p.doc = nil
}

func serializeXML(doc *etree.Document) ([]byte, error) {
	out := doc.Copy()
	for _, t := range out.Child {
		if pi, ok := t.(*etree.ProcInst); ok && pi.Target == "xml" {
			out.RemoveChild(pi)
			break
		}
	}
	pi := out.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	if idx := pi.Index(); idx != 0 {
		out.RemoveChildAt(idx)
		out.InsertChildAt(0, pi)
	}
	data, err := out.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return data, nil
}
