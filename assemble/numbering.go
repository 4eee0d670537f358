package assemble

import (
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"docasm/opc"
	"docasm/wml"
)

// numberingSet is the output numbering part together with the record of
// abstract definitions introduced by earlier sources. Those are frozen: a
// later source never matches them by signature, so its lists always restart.
type numberingSet struct {
	part       *opc.Part
	root       *etree.Element // w:numbering
	frozen     map[int]bool
	introduced []int
}

// freeze is called when a source is fully merged.
func (n *numberingSet) freeze() {
	if n == nil {
		return
	}
	for _, id := range n.introduced {
		n.frozen[id] = true
	}
	n.introduced = n.introduced[:0]
}

func (b *builder) outputNumbering() (*numberingSet, error) {
	if b.numbering != nil {
		return b.numbering, nil
	}
	part := b.out.AddPart(opc.KindNumbering)
	part.PutXML(newRootDocument("w:numbering"))
	b.outMain.AddRel(opc.RelNumbering, part)
	root, err := part.Root()
	if err != nil {
		return nil, err
	}
	b.numbering = &numberingSet{part: part, root: root, frozen: make(map[int]bool)}
	return b.numbering, nil
}

func intAttr(e *etree.Element, key string) int {
	v, _, err := wml.IntAttr(e, key)
	if err != nil {
		return -1
	}
	return v
}

func findNum(root *etree.Element, id int) *etree.Element {
	for _, n := range root.SelectElements("w:num") {
		if intAttr(n, "w:numId") == id {
			return n
		}
	}
	return nil
}

func findAbstract(root *etree.Element, id int) *etree.Element {
	for _, a := range root.SelectElements("w:abstractNum") {
		if intAttr(a, "w:abstractNumId") == id {
			return a
		}
	}
	return nil
}

// abstractOf returns abstract definition id of numbering instance or -1.
func abstractOf(num *etree.Element) int {
	e := num.SelectElement("w:abstractNumId")
	if e == nil {
		return -1
	}
	return intAttr(e, "w:val")
}

func maxID(list []*etree.Element, key string, floor int) int {
	m := floor
	for _, e := range list {
		m = max(m, intAttr(e, key))
	}
	return m
}

// absorbNum maps source numbering instance to the output one.
func (b *builder) absorbNum(sd *sourceDoc, id int) error {
	if _, ok := sd.numMap[id]; ok || id == 0 {
		return nil
	}
	if sd.numbering == nil {
		return malformed("numbering %d referenced but source has no numbering part", id)
	}
	num := findNum(sd.numbering, id)
	if num == nil {
		b.log.Warn("Reference to undefined numbering, list formatting dropped",
			zap.String("source", sd.label()), zap.Int("numId", id))
		sd.numMap[id] = 0
		return nil
	}
	ref := num.SelectElement("w:abstractNumId")
	if ref == nil {
		return malformed("numbering %d has no abstract definition reference", id)
	}
	if _, _, err := wml.IntAttr(ref, "w:val"); err != nil {
		return malformed("numbering %d: %v", id, err)
	}
	abs := findAbstract(sd.numbering, abstractOf(num))
	if abs == nil {
		return malformed("numbering %d references missing abstract definition %d", id, abstractOf(num))
	}

	out, err := b.outputNumbering()
	if err != nil {
		return err
	}
	absID, err := b.absorbAbstract(sd, out, abs)
	if err != nil {
		return err
	}

	nums := out.root.SelectElements("w:num")
	if num.SelectElement("w:lvlOverride") == nil {
		for _, n := range nums {
			if abstractOf(n) == absID && n.SelectElement("w:lvlOverride") == nil {
				sd.numMap[id] = intAttr(n, "w:numId")
				return nil
			}
		}
	}

	newID := maxID(nums, "w:numId", 0) + 1
	clone := num.Copy()
	clone.CreateAttr("w:numId", strconv.Itoa(newID))
	wml.EnsureChild(clone, "w:abstractNumId").CreateAttr("w:val", strconv.Itoa(absID))
	wml.ImportNamespaces(out.root, sd.numbering, clone)
	wml.InsertOrdered(out.root, clone)
	sd.numMap[id] = newID
	sd.pendingNums = append(sd.pendingNums, clone)
	return nil
}

// absorbAbstract maps source abstract definition to the output one, matching
// by numbering signature among definitions this source introduced, cloning
// otherwise.
func (b *builder) absorbAbstract(sd *sourceDoc, out *numberingSet, abs *etree.Element) (int, error) {
	srcID := intAttr(abs, "w:abstractNumId")
	if id, ok := sd.absMap[srcID]; ok {
		return id, nil
	}

	abstracts := out.root.SelectElements("w:abstractNum")
	if nsid := wml.ChildVal(abs, "w:nsid"); nsid != "" {
		for _, a := range abstracts {
			id := intAttr(a, "w:abstractNumId")
			if !out.frozen[id] && wml.ChildVal(a, "w:nsid") == nsid {
				sd.absMap[srcID] = id
				return id, nil
			}
		}
	}

	newID := maxID(abstracts, "w:abstractNumId", -1) + 1
	clone := abs.Copy()
	clone.CreateAttr("w:abstractNumId", strconv.Itoa(newID))
	wml.ImportNamespaces(out.root, sd.numbering, clone)
	if err := b.absorbPictureBullets(sd, out, clone); err != nil {
		return 0, err
	}
	wml.InsertOrdered(out.root, clone)
	out.introduced = append(out.introduced, newID)
	sd.absMap[srcID] = newID
	sd.pendingNums = append(sd.pendingNums, clone)
	b.log.Debug("Abstract numbering added", zap.String("source", sd.label()),
		zap.Int("from", srcID), zap.Int("to", newID))
	return newID, nil
}

// absorbPictureBullets copies picture bullet definitions used by levels of
// the cloned abstract definition, renumbering them on collision.
func (b *builder) absorbPictureBullets(sd *sourceDoc, out *numberingSet, clone *etree.Element) error {
	for _, ref := range wml.FindAll(clone, "w:lvlPicBulletId") {
		srcID, ok, err := wml.IntAttr(ref, "w:val")
		if err != nil {
			return malformed("%v", err)
		}
		if !ok {
			continue
		}
		if id, ok := sd.picMap[srcID]; ok {
			ref.CreateAttr("w:val", strconv.Itoa(id))
			continue
		}
		var bullet *etree.Element
		for _, pb := range sd.numbering.SelectElements("w:numPicBullet") {
			if intAttr(pb, "w:numPicBulletId") == srcID {
				bullet = pb
				break
			}
		}
		if bullet == nil {
			return malformed("picture bullet %d is not defined", srcID)
		}

		existing := out.root.SelectElements("w:numPicBullet")
		newID := srcID
		for _, pb := range existing {
			if intAttr(pb, "w:numPicBulletId") == srcID {
				newID = maxID(existing, "w:numPicBulletId", -1) + 1
				break
			}
		}
		pb := bullet.Copy()
		pb.CreateAttr("w:numPicBulletId", strconv.Itoa(newID))
		wml.ImportNamespaces(out.root, sd.numbering, pb)
		if err := b.importResources(sd, sd.numberingPart, out.part, []*etree.Element{pb}); err != nil {
			return err
		}
		wml.InsertOrdered(out.root, pb)
		sd.picMap[srcID] = newID
		ref.CreateAttr("w:val", strconv.Itoa(newID))
	}
	return nil
}

// finalizeNumbering puts numbering part children into schema order.
func (b *builder) finalizeNumbering() {
	if b.numbering != nil {
		wml.Reorder(b.numbering.root)
	}
}
