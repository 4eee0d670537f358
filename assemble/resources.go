package assemble

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"docasm/opc"
	"docasm/wml"
)

// importResources rewrites relationship ids (any attribute in the
// relationships namespace) of elements moved from srcPart into dstPart.
// Targets are copied into the output package once per source part, header
// and footer references are handed to the section manager.
func (b *builder) importResources(sd *sourceDoc, srcPart, dstPart *opc.Part, elems []*etree.Element) error {
	var err error
	for _, el := range elems {
		wml.Walk(el, func(e *etree.Element) bool {
			if err != nil {
				return false
			}
			kept := e.Attr[:0]
			for _, a := range e.Attr {
				if a.Space != "r" || a.Value == "" {
					kept = append(kept, a)
					continue
				}
				var id string
				if id, err = b.importRel(sd, srcPart, dstPart, a.Value); err != nil {
					return false
				}
				if id == "" {
					b.log.Warn("Dropping dangling relationship reference", zap.String("source", sd.label()),
						zap.String("part", srcPart.Name()), zap.String("element", e.FullTag()), zap.String("id", a.Value))
					continue
				}
				a.Value = id
				kept = append(kept, a)
			}
			e.Attr = kept
			return true
		})
	}
	return err
}

// importRel makes relationship of the source part available in the output
// part and returns its id there. Empty id is returned for relationships
// which cannot be resolved.
func (b *builder) importRel(sd *sourceDoc, srcPart, dstPart *opc.Part, id string) (string, error) {
	key := relKey{src: srcPart, dst: dstPart, id: id}
	if v, ok := sd.rels[key]; ok {
		return v, nil
	}
	rel, ok := srcPart.Rel(id)
	if !ok {
		return "", nil
	}

	var newID string
	switch {
	case rel.External:
		newID = dstPart.AddExternalRel(rel.Type, rel.Target)
	case rel.Type == opc.RelHeader || rel.Type == opc.RelFooter:
		target := srcPart.Resolve(id)
		if target == nil {
			return "", nil
		}
		part, err := b.importHeaderFooter(sd, target, rel.Type)
		if err != nil {
			return "", err
		}
		newID = dstPart.AddRel(rel.Type, part)
	default:
		target := srcPart.Resolve(id)
		if target == nil {
			return "", nil
		}
		newID = dstPart.AddRel(rel.Type, b.copyPartTree(sd.parts, target, nil))
	}
	sd.rels[key] = newID
	return newID, nil
}

// copyPartTree copies part and everything reachable through its
// relationships into the output. Relationship ids of copied parts are kept so
// their content stays valid. The cache maps source parts to copies, rename
// (may be nil) supplies naming pattern for the copy.
func (b *builder) copyPartTree(cache map[*opc.Part]*opc.Part, src *opc.Part, rename func(*opc.Part) string) *opc.Part {
	if p, ok := cache[src]; ok {
		return p
	}
	var dst *opc.Part
	if rename != nil {
		dst = b.out.CopyPartTo(src, rename(src))
	} else {
		dst = b.out.CopyPart(src)
	}
	cache[src] = dst

	for _, r := range src.Rels() {
		if r.External {
			dst.AddExternalRelID(r.ID, r.Type, r.Target)
			continue
		}
		target := src.Resolve(r.ID)
		if target == nil {
			b.log.Debug("Skipping dangling relationship", zap.String("part", src.Name()), zap.String("id", r.ID))
			continue
		}
		dst.AddRelID(r.ID, r.Type, b.copyPartTree(cache, target, rename))
	}
	return dst
}
