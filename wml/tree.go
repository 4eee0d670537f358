package wml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// New creates detached element with attributes given as key/value pairs.
func New(tag string, kv ...string) *etree.Element {
	e := etree.NewElement(tag)
	for i := 0; i+1 < len(kv); i += 2 {
		e.CreateAttr(kv[i], kv[i+1])
	}
	return e
}

// Is checks element full tag ("w:p").
func Is(e *etree.Element, fullTag string) bool {
	if e == nil {
		return false
	}
	space, tag, ok := strings.Cut(fullTag, ":")
	if !ok {
		return e.Space == "" && e.Tag == fullTag
	}
	return e.Space == space && e.Tag == tag
}

// IsAny checks element against a list of full tags.
func IsAny(e *etree.Element, fullTags ...string) bool {
	for _, t := range fullTags {
		if Is(e, t) {
			return true
		}
	}
	return false
}

// Val returns w:val attribute value.
func Val(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return e.SelectAttrValue("w:val", "")
}

// ChildVal returns w:val of the named child element or empty string.
func ChildVal(e *etree.Element, fullTag string) string {
	if e == nil {
		return ""
	}
	return Val(e.SelectElement(fullTag))
}

// IntAttr parses integer attribute. Absent attribute is reported with ok
// set to false and no error.
func IntAttr(e *etree.Element, key string) (v int, ok bool, err error) {
	a := e.SelectAttr(key)
	if a == nil {
		return 0, false, nil
	}
	v, err = strconv.Atoi(strings.TrimSpace(a.Value))
	if err != nil {
		return 0, true, fmt.Errorf("attribute %s of <%s> is not a number (%q)", key, e.FullTag(), a.Value)
	}
	return v, true, nil
}

// Walk visits element and all its descendants depth first in document order.
// When fn returns false children of the current element are skipped.
func Walk(e *etree.Element, fn func(*etree.Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range e.ChildElements() {
		Walk(c, fn)
	}
}

// FindAll returns element itself (when matches) and all descendants matching
// any of the full tags, in document order. Returned slice is a snapshot, so
// callers are free to modify the tree while iterating.
func FindAll(e *etree.Element, fullTags ...string) []*etree.Element {
	var res []*etree.Element
	Walk(e, func(el *etree.Element) bool {
		if IsAny(el, fullTags...) {
			res = append(res, el)
		}
		return true
	})
	return res
}

// FindAllIn is FindAll over a list of roots.
func FindAllIn(list []*etree.Element, fullTags ...string) []*etree.Element {
	var res []*etree.Element
	for _, e := range list {
		res = append(res, FindAll(e, fullTags...)...)
	}
	return res
}

// Remove detaches element from its parent.
func Remove(e *etree.Element) {
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
}

// InsertAfter inserts element right after ref.
func InsertAfter(ref *etree.Element, e *etree.Element) {
	p := ref.Parent()
	if e.Parent() != nil {
		Remove(e)
	}
	p.InsertChildAt(ref.Index()+1, e)
}

// Replace puts replacement elements in place of old, preserving order of
// surrounding siblings. Old element is detached.
func Replace(old *etree.Element, replacement ...*etree.Element) {
	p := old.Parent()
	if p == nil {
		return
	}
	at := old.Index()
	p.RemoveChildAt(at)
	for i, e := range replacement {
		if e.Parent() != nil {
			Remove(e)
		}
		p.InsertChildAt(at+i, e)
	}
}

// Copies deep copies list of elements.
func Copies(list []*etree.Element) []*etree.Element {
	res := make([]*etree.Element, 0, len(list))
	for _, e := range list {
		res = append(res, e.Copy())
	}
	return res
}

// EnsureChild returns existing child or creates it in the position dictated
// by the ordering table for the parent kind.
func EnsureChild(parent *etree.Element, fullTag string) *etree.Element {
	if c := parent.SelectElement(fullTag); c != nil {
		return c
	}
	c := etree.NewElement(fullTag)
	InsertOrdered(parent, c)
	return c
}
