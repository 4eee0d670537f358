package debug

import (
	"docasm/opc"
)

// DumpPackage returns structure of the package: parts with content types and
// relationships followed by element tree of the main document.
func DumpPackage(pkg *opc.Package) string {
	tw := NewTreeWriter()

	tw.Line(0, "package")
	for _, r := range pkg.Rels() {
		writeRel(tw, 1, r)
	}
	for _, p := range pkg.Parts() {
		tw.Line(0, "part %s [%s]", p.Name(), p.ContentType())
		for _, r := range p.Rels() {
			writeRel(tw, 1, r)
		}
	}

	main := pkg.MainPart()
	if main == nil {
		return tw.String()
	}
	root, err := main.Root()
	if err != nil {
		tw.TextBlock(0, "main document", err.Error())
		return tw.String()
	}
	tw.Line(0, "main document %s", main.Name())
	tw.Element(1, root)
	return tw.String()
}

func writeRel(tw *TreeWriter, depth int, r opc.Relationship) {
	mode := ""
	if r.External {
		mode = " (external)"
	}
	tw.Line(depth, "%s -> %s%s", r.ID, r.Target, mode)
	tw.TextBlock(depth+1, "type", r.Type)
}
