package wml

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// Canonicalize rewrites every namespace prefix in the document so that known
// namespaces use their canonical prefix, moves all namespace declarations to
// the root element and drops nested redeclarations. Unknown namespaces keep
// their original prefix unless it clashes, in which case a fresh "nsN" prefix
// is generated. Default (unprefixed) unknown namespaces always get a fresh
// prefix so the output never depends on default namespace scoping.
//
// Markup compatibility attributes which carry prefix lists (mc:Ignorable,
// mc:MustUnderstand, mc:ProcessContent, mc:Choice/@Requires) are rewritten
// too.
func Canonicalize(doc *etree.Document) {
	root := doc.Root()
	if root == nil {
		return
	}
	c := &canonicalizer{
		uriToPrefix: make(map[string]string),
		used:        make(map[string]string),
	}
	c.walk(root, map[string]string{"xml": NSXML})

	decls := make([]etree.Attr, 0, len(c.used)+len(root.Attr))
	for _, prefix := range slices.Sorted(maps.Keys(c.used)) {
		decls = append(decls, etree.Attr{Space: "xmlns", Key: prefix, Value: c.used[prefix]})
	}
	attrs := root.Attr
	root.Attr = nil
	for _, a := range decls {
		root.CreateAttr(a.FullKey(), a.Value)
	}
	for _, a := range attrs {
		root.CreateAttr(a.FullKey(), a.Value)
	}
}

type canonicalizer struct {
	uriToPrefix map[string]string
	used        map[string]string // prefix -> uri, declared on root at the end
	counter     int
}

func isDecl(a *etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

func (c *canonicalizer) walk(e *etree.Element, parent map[string]string) {
	scope := parent
	if slices.ContainsFunc(e.Attr, func(a etree.Attr) bool { return isDecl(&a) }) {
		scope = maps.Clone(parent)
		for _, a := range e.Attr {
			switch {
			case a.Space == "xmlns":
				scope[a.Key] = a.Value
			case a.Space == "" && a.Key == "xmlns":
				scope[""] = a.Value
			}
		}
	}

	e.Space = c.prefixFor(scope[e.Space], e.Space)

	kept := make([]etree.Attr, 0, len(e.Attr))
	for _, a := range e.Attr {
		if isDecl(&a) {
			continue
		}
		if a.Space != "" {
			a.Space = c.prefixFor(scope[a.Space], a.Space)
		}
		kept = append(kept, a)
	}
	e.Attr = kept

	for i := range e.Attr {
		a := &e.Attr[i]
		switch {
		case a.Space == "mc" && (a.Key == "Ignorable" || a.Key == "MustUnderstand"):
			a.Value = c.rewriteList(a.Value, scope, false)
		case a.Space == "mc" && (a.Key == "ProcessContent" || a.Key == "PreserveElements" || a.Key == "PreserveAttributes"):
			a.Value = c.rewriteList(a.Value, scope, true)
		case a.Space == "" && a.Key == "Requires" && e.Space == "mc" && e.Tag == "Choice":
			a.Value = c.rewriteList(a.Value, scope, false)
		}
	}

	for _, child := range e.ChildElements() {
		c.walk(child, scope)
	}
}

// rewriteList maps prefixes in a whitespace separated list. When qualified is
// set list items are "prefix:name" pairs.
func (c *canonicalizer) rewriteList(value string, scope map[string]string, qualified bool) string {
	items := strings.Fields(value)
	for i, item := range items {
		prefix, rest := item, ""
		if qualified {
			if p, local, ok := strings.Cut(item, ":"); ok {
				prefix, rest = p, ":"+local
			}
		}
		uri, ok := scope[prefix]
		if !ok {
			continue
		}
		items[i] = c.prefixFor(uri, prefix) + rest
	}
	return strings.Join(items, " ")
}

func (c *canonicalizer) prefixFor(uri, orig string) string {
	if uri == "" {
		// undeclared prefix or no namespace at all, nothing we can do
		return orig
	}
	if p, ok := c.uriToPrefix[uri]; ok {
		return p
	}
	p, known := canonicalPrefixes[uri]
	if !known {
		p = orig
		if _, reserved := reservedPrefixes[p]; reserved || p == "" || c.taken(p, uri) {
			p = c.fresh()
		}
	}
	c.uriToPrefix[uri] = p
	if p != "xml" {
		c.used[p] = uri
	}
	return p
}

func (c *canonicalizer) taken(prefix, uri string) bool {
	u, ok := c.used[prefix]
	return ok && u != uri
}

func (c *canonicalizer) fresh() string {
	for {
		c.counter++
		p := fmt.Sprintf("ns%d", c.counter)
		if _, ok := c.used[p]; !ok {
			return p
		}
	}
}

// Declared returns namespace declarations (prefix -> uri) of the element.
func Declared(e *etree.Element) map[string]string {
	ns := make(map[string]string)
	for _, a := range e.Attr {
		if a.Space == "xmlns" {
			ns[a.Key] = a.Value
		}
	}
	return ns
}

// EnsureDeclared declares the known namespace on the root of canonicalized
// document if it is not declared yet and returns its prefix.
func EnsureDeclared(root *etree.Element, uri string) string {
	prefix, ok := canonicalPrefixes[uri]
	if !ok {
		panic("unknown namespace " + uri)
	}
	if prefix == "xml" {
		return prefix
	}
	if root.SelectAttr("xmlns:"+prefix) == nil {
		root.CreateAttr("xmlns:"+prefix, uri)
	}
	return prefix
}

// ImportNamespaces prepares elements copied out of the canonicalized document
// rooted at src for insertion into the canonicalized document rooted at dst.
// Every prefix used by the elements gets declared on dst. Unknown namespaces
// which clash with an existing declaration on dst are renamed inside the
// elements. Prefixes which src marks as ignorable stay ignorable in dst.
func ImportNamespaces(dst, src *etree.Element, elems ...*etree.Element) {
	if dst == nil || src == nil || len(elems) == 0 {
		return
	}
	srcNS, dstNS := Declared(src), Declared(dst)

	used := make(map[string]struct{})
	for _, el := range elems {
		Walk(el, func(e *etree.Element) bool {
			if e.Space != "" {
				used[e.Space] = struct{}{}
			}
			for _, a := range e.Attr {
				if a.Space != "" && a.Space != "xmlns" {
					used[a.Space] = struct{}{}
				}
			}
			return true
		})
	}

	rename := make(map[string]string)
	for _, prefix := range slices.Sorted(maps.Keys(used)) {
		uri, ok := srcNS[prefix]
		if !ok {
			continue
		}
		if have, ok := dstNS[prefix]; ok {
			if have == uri {
				continue
			}
			fresh := freshPrefix(dstNS)
			rename[prefix] = fresh
			dstNS[fresh] = uri
			dst.CreateAttr("xmlns:"+fresh, uri)
			continue
		}
		if other := prefixOf(dstNS, uri); other != "" {
			rename[prefix] = other
			continue
		}
		dstNS[prefix] = uri
		dst.CreateAttr("xmlns:"+prefix, uri)
	}

	if len(rename) > 0 {
		for _, el := range elems {
			Walk(el, func(e *etree.Element) bool {
				if p, ok := rename[e.Space]; ok {
					e.Space = p
				}
				for i := range e.Attr {
					if p, ok := rename[e.Attr[i].Space]; ok {
						e.Attr[i].Space = p
					}
				}
				return true
			})
		}
	}

	ignorable := strings.Fields(src.SelectAttrValue("mc:Ignorable", ""))
	if len(ignorable) == 0 {
		return
	}
	have := strings.Fields(dst.SelectAttrValue("mc:Ignorable", ""))
	changed := false
	for _, prefix := range ignorable {
		if _, ok := used[prefix]; !ok {
			continue
		}
		if p, ok := rename[prefix]; ok {
			prefix = p
		}
		if !slices.Contains(have, prefix) {
			have = append(have, prefix)
			changed = true
		}
	}
	if changed {
		EnsureDeclared(dst, NSMC)
		dst.CreateAttr("mc:Ignorable", strings.Join(have, " "))
	}
}

func freshPrefix(ns map[string]string) string {
	for i := 1; ; i++ {
		p := fmt.Sprintf("ns%d", i)
		if _, ok := ns[p]; ok {
			continue
		}
		if _, ok := reservedPrefixes[p]; ok {
			continue
		}
		return p
	}
}

func prefixOf(ns map[string]string, uri string) string {
	for _, p := range slices.Sorted(maps.Keys(ns)) {
		if ns[p] == uri {
			return p
		}
	}
	return ""
}
