package opc

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship is a single entry of the .rels part.
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

// relSet is shared by Package (package level relationships) and Part.
type relSet struct {
	pkg  *Package
	base string // part name relationships are relative to, empty for package
	list []Relationship
}

// relsName returns name of the .rels part for given source part name.
func relsName(source string) string {
	if source == "" {
		return "_rels/.rels"
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// sourceOfRels is the reverse of relsName. It reports false for names which
// are not relationship parts.
func sourceOfRels(name string) (string, bool) {
	if name == "_rels/.rels" {
		return "", true
	}
	dir, file := path.Split(name)
	if !strings.HasSuffix(dir, "_rels/") || !strings.HasSuffix(file, ".rels") {
		return "", false
	}
	return strings.TrimSuffix(dir, "_rels/") + strings.TrimSuffix(file, ".rels"), true
}

func parseRels(data []byte) ([]Relationship, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil || root.Tag != "Relationships" {
		return nil, fmt.Errorf("unexpected root element")
	}
	var list []Relationship
	for _, e := range root.SelectElements("Relationship") {
		list = append(list, Relationship{
			ID:       e.SelectAttrValue("Id", ""),
			Type:     e.SelectAttrValue("Type", ""),
			Target:   e.SelectAttrValue("Target", ""),
			External: strings.EqualFold(e.SelectAttrValue("TargetMode", ""), "External"),
		})
	}
	return list, nil
}

func (rs *relSet) relsDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRelationships)
	for _, r := range rs.list {
		e := root.CreateElement("Relationship")
		e.CreateAttr("Id", r.ID)
		e.CreateAttr("Type", r.Type)
		e.CreateAttr("Target", r.Target)
		if r.External {
			e.CreateAttr("TargetMode", "External")
		}
	}
	return doc
}

// Rels returns copy of relationship list.
func (rs *relSet) Rels() []Relationship {
	return append([]Relationship(nil), rs.list...)
}

// Rel finds relationship by id.
func (rs *relSet) Rel(id string) (Relationship, bool) {
	for _, r := range rs.list {
		if r.ID == id {
			return r, true
		}
	}
	return Relationship{}, false
}

// resolveTarget converts relationship target into absolute part name.
func (rs *relSet) resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(target)[1:]
	}
	return strings.TrimPrefix(path.Join(path.Dir("/"+rs.base), target), "/")
}

// Resolve returns part internal relationship with the id points to.
func (rs *relSet) Resolve(id string) *Part {
	r, ok := rs.Rel(id)
	if !ok || r.External {
		return nil
	}
	return rs.pkg.parts[rs.resolveTarget(r.Target)]
}

// RelatedByType returns all parts related by relationships of the type, in
// relationship order.
func (rs *relSet) RelatedByType(relType string) []*Part {
	var res []*Part
	for _, r := range rs.list {
		if r.Type != relType || r.External {
			continue
		}
		if p := rs.pkg.parts[rs.resolveTarget(r.Target)]; p != nil {
			res = append(res, p)
		}
	}
	return res
}

// FirstRelated returns the first part related by relationship of the type.
func (rs *relSet) FirstRelated(relType string) *Part {
	if list := rs.RelatedByType(relType); len(list) > 0 {
		return list[0]
	}
	return nil
}

// RelID returns id of the first relationship pointing at the part.
func (rs *relSet) RelID(target *Part) (string, bool) {
	for _, r := range rs.list {
		if !r.External && rs.resolveTarget(r.Target) == target.name {
			return r.ID, true
		}
	}
	return "", false
}

func (rs *relSet) nextID() string {
	next := 1
	for _, r := range rs.list {
		if n, err := strconv.Atoi(strings.TrimPrefix(r.ID, "rId")); err == nil && n >= next {
			next = n + 1
		}
	}
	return "rId" + strconv.Itoa(next)
}

// relativeTarget computes target path of part relative to the source.
func (rs *relSet) relativeTarget(name string) string {
	from := strings.Split(path.Dir(rs.base), "/")
	if path.Dir(rs.base) == "." {
		from = nil
	}
	to := strings.Split(name, "/")
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	parts := make([]string, 0, len(from)-i+len(to)-i)
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

// AddRel adds relationship to the internal part and returns its id. If
// relationship of the same type to the same part already exists its id is
// returned instead.
func (rs *relSet) AddRel(relType string, target *Part) string {
	for _, r := range rs.list {
		if r.Type == relType && !r.External && rs.resolveTarget(r.Target) == target.name {
			return r.ID
		}
	}
	id := rs.nextID()
	rs.list = append(rs.list, Relationship{ID: id, Type: relType, Target: rs.relativeTarget(target.name)})
	return id
}

// AddExternalRel adds relationship pointing outside of the package.
func (rs *relSet) AddExternalRel(relType, target string) string {
	id := rs.nextID()
	rs.list = append(rs.list, Relationship{ID: id, Type: relType, Target: target, External: true})
	return id
}

// AddRelID adds relationship with the given id, used when relationships are
// copied together with content referencing them.
func (rs *relSet) AddRelID(id, relType string, target *Part) {
	rs.RemoveRel(id)
	rs.list = append(rs.list, Relationship{ID: id, Type: relType, Target: rs.relativeTarget(target.name)})
}

// AddExternalRelID is AddRelID for external targets.
func (rs *relSet) AddExternalRelID(id, relType, target string) {
	rs.RemoveRel(id)
	rs.list = append(rs.list, Relationship{ID: id, Type: relType, Target: target, External: true})
}

// RemoveRel drops relationship by id. Target part is left in the package.
func (rs *relSet) RemoveRel(id string) {
	for i, r := range rs.list {
		if r.ID == id {
			rs.list = append(rs.list[:i], rs.list[i+1:]...)
			return
		}
	}
}
