package opc

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/h2non/filetype"
)

const (
	contentTypesName = "[Content_Types].xml"
	nsContentTypes   = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// contentTypes keeps [Content_Types].xml: defaults by extension and overrides
// by part name.
type contentTypes struct {
	defaults  map[string]string // lower case extension -> content type
	overrides map[string]string // part name (no leading slash) -> content type
}

func newContentTypes() *contentTypes {
	return &contentTypes{
		defaults: map[string]string{
			"rels": CTRelationships,
			"xml":  CTXML,
		},
		overrides: make(map[string]string),
	}
}

func parseContentTypes(data []byte) (*contentTypes, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", contentTypesName, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Types" {
		return nil, fmt.Errorf("unexpected root element in %s", contentTypesName)
	}
	ct := &contentTypes{defaults: make(map[string]string), overrides: make(map[string]string)}
	for _, e := range root.ChildElements() {
		switch e.Tag {
		case "Default":
			ct.defaults[strings.ToLower(e.SelectAttrValue("Extension", ""))] = e.SelectAttrValue("ContentType", "")
		case "Override":
			ct.overrides[strings.TrimPrefix(e.SelectAttrValue("PartName", ""), "/")] = e.SelectAttrValue("ContentType", "")
		}
	}
	return ct, nil
}

func (ct *contentTypes) clone() *contentTypes {
	return &contentTypes{defaults: maps.Clone(ct.defaults), overrides: maps.Clone(ct.overrides)}
}

func extOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// lookup returns content type of the part.
func (ct *contentTypes) lookup(name string) string {
	if t, ok := ct.overrides[name]; ok {
		return t
	}
	return ct.defaults[extOf(name)]
}

// register makes sure part gets requested content type.
func (ct *contentTypes) register(name, contentType string) {
	ext := extOf(name)
	if d, ok := ct.defaults[ext]; ok && d == contentType {
		delete(ct.overrides, name)
		return
	}
	if _, ok := ct.defaults[ext]; !ok && ext != "" && !strings.HasSuffix(contentType, "+xml") {
		// binary resources are usually registered by extension
		ct.defaults[ext] = contentType
		return
	}
	ct.overrides[name] = contentType
}

func (ct *contentTypes) document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	types := doc.CreateElement("Types")
	types.CreateAttr("xmlns", nsContentTypes)
	for _, ext := range slices.Sorted(maps.Keys(ct.defaults)) {
		d := types.CreateElement("Default")
		d.CreateAttr("Extension", ext)
		d.CreateAttr("ContentType", ct.defaults[ext])
	}
	for _, name := range slices.Sorted(maps.Keys(ct.overrides)) {
		o := types.CreateElement("Override")
		o.CreateAttr("PartName", "/"+name)
		o.CreateAttr("ContentType", ct.overrides[name])
	}
	return doc
}

// detectContentType sniffs binary data for parts coming without content type.
func detectContentType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return CTOctetStream
	}
	return kind.MIME.Value
}
