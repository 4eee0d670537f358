// Package wml holds WordprocessingML vocabulary shared by the package layer
// and the assembly engine: namespaces and their canonical prefixes, the closed
// set of node kinds the engine cares about, per-kind child ordering and small
// tree helpers on top of etree.
package wml

// Namespaces used by the engine. Every XML part is canonicalized on load so
// that elements from these namespaces always carry the prefix listed in
// canonicalPrefixes, which lets the rest of the code match on prefix alone.
const (
	NSW       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSStrictW = "http://purl.oclc.org/ooxml/wordprocessingml/main"
	NSR       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSWP      = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NSA       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSPic     = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	NSC       = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	NSDgm     = "http://schemas.openxmlformats.org/drawingml/2006/diagram"
	NSM       = "http://schemas.openxmlformats.org/officeDocument/2006/math"
	NSMC      = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NSV       = "urn:schemas-microsoft-com:vml"
	NSO       = "urn:schemas-microsoft-com:office:office"
	NSW10     = "urn:schemas-microsoft-com:office:word"
	NSW14     = "http://schemas.microsoft.com/office/word/2010/wordml"
	NSW15     = "http://schemas.microsoft.com/office/word/2012/wordml"
	NSW16SE   = "http://schemas.microsoft.com/office/word/2015/wordml/symex"
	NSW16CID  = "http://schemas.microsoft.com/office/word/2016/wordml/cid"
	NSW16     = "http://schemas.microsoft.com/office/word/2018/wordml"
	NSW16CEX  = "http://schemas.microsoft.com/office/word/2018/wordml/cex"
	NSWP14    = "http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing"
	NSWPS     = "http://schemas.microsoft.com/office/word/2010/wordprocessingShape"
	NSWPG     = "http://schemas.microsoft.com/office/word/2010/wordprocessingGroup"
	NSWPC     = "http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas"
	NSWPI     = "http://schemas.microsoft.com/office/word/2010/wordprocessingInk"
	NSWNE     = "http://schemas.microsoft.com/office/word/2006/wordml"
	NSDS      = "http://schemas.openxmlformats.org/officeDocument/2006/customXml"
	NSXML     = "http://www.w3.org/XML/1998/namespace"

	// Obsolete WordprocessingML 2003 era namespaces, sources using them are
	// rejected.
	NSWordML2003 = "http://schemas.microsoft.com/office/word/2003/wordml"
	NSAuxHint    = "http://schemas.microsoft.com/office/word/2003/auxHint"
	NSAML        = "http://schemas.microsoft.com/aml/2001/core"

	// NSInsert is the namespace of insert markers (placeholders replaced by
	// source content during assembly).
	NSInsert     = "urn:docasm:insert"
	// NSPowerTools carries pt:Insert markers of documents prepared for
	// PowerTools DocumentBuilder, accepted as insert markers too.
	NSPowerTools = "http://powertools.codeplex.com/2011"
)

// canonicalPrefixes maps well known namespaces to the prefix they always get
// after canonicalization.
var canonicalPrefixes = map[string]string{
	NSW:          "w",
	NSStrictW:    "ws",
	NSR:          "r",
	NSWP:         "wp",
	NSA:          "a",
	NSPic:        "pic",
	NSC:          "c",
	NSDgm:        "dgm",
	NSM:          "m",
	NSMC:         "mc",
	NSV:          "v",
	NSO:          "o",
	NSW10:        "w10",
	NSW14:        "w14",
	NSW15:        "w15",
	NSW16SE:      "w16se",
	NSW16CID:     "w16cid",
	NSW16:        "w16",
	NSW16CEX:     "w16cex",
	NSWP14:       "wp14",
	NSWPS:        "wps",
	NSWPG:        "wpg",
	NSWPC:        "wpc",
	NSWPI:        "wpi",
	NSWNE:        "wne",
	NSDS:         "ds",
	NSXML:        "xml",
	NSWordML2003: "w2003",
	NSAuxHint:    "wx",
	NSAML:        "aml",
	NSInsert:     "da",
	NSPowerTools: "pt",
}

// reservedPrefixes is the reverse of canonicalPrefixes, used to detect unknown
// namespaces squatting on a canonical prefix.
var reservedPrefixes = func() map[string]string {
	m := make(map[string]string, len(canonicalPrefixes))
	for uri, prefix := range canonicalPrefixes {
		m[prefix] = uri
	}
	return m
}()

// CanonicalPrefix returns canonical prefix for a known namespace.
func CanonicalPrefix(uri string) (string, bool) {
	p, ok := canonicalPrefixes[uri]
	return p, ok
}

// ObsoleteNamespaces lists namespaces which make a source unsupported.
var ObsoleteNamespaces = []string{NSWordML2003, NSAuxHint, NSAML}
