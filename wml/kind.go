package wml

import "github.com/beevik/etree"

// Kind is the closed set of node kinds the engine distinguishes. Everything
// else is KindOther and is treated as opaque content.
type Kind int

const (
	KindOther Kind = iota
	KindDocument
	KindBody
	KindParagraph
	KindParagraphProps
	KindRun
	KindRunProps
	KindTable
	KindRow
	KindCell
	KindSdt
	KindSdtContent
	KindSectionProps
	KindHeader
	KindFooter
	KindStyles
	KindStyle
	KindLatentStyles
	KindNumbering
	KindAbstractNum
	KindNum
	KindLevel
	KindFootnotes
	KindEndnotes
	KindComments
	KindSettings
	KindFonts
	KindGlossary
	KindDocParts
	KindDocPartBody
	KindNote
	KindComment
	KindTextbox
	KindInsertMarker
)

var kindNames = map[Kind]string{
	KindOther:          "other",
	KindDocument:       "document",
	KindBody:           "body",
	KindParagraph:      "paragraph",
	KindParagraphProps: "paragraph-properties",
	KindRun:            "run",
	KindRunProps:       "run-properties",
	KindTable:          "table",
	KindRow:            "row",
	KindCell:           "cell",
	KindSdt:            "content-control",
	KindSdtContent:     "content-control-content",
	KindSectionProps:   "section-properties",
	KindHeader:         "header",
	KindFooter:         "footer",
	KindStyles:         "styles",
	KindStyle:          "style",
	KindLatentStyles:   "latent-styles",
	KindNumbering:      "numbering",
	KindAbstractNum:    "abstract-numbering",
	KindNum:            "numbering-instance",
	KindLevel:          "numbering-level",
	KindFootnotes:      "footnotes",
	KindEndnotes:       "endnotes",
	KindComments:       "comments",
	KindSettings:       "settings",
	KindFonts:          "fonts",
	KindGlossary:       "glossary",
	KindDocParts:       "building-blocks",
	KindDocPartBody:    "building-block-body",
	KindNote:           "note",
	KindComment:        "comment",
	KindTextbox:        "textbox",
	KindInsertMarker:   "insert-marker",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

var tagKinds = map[string]Kind{
	"w:document":         KindDocument,
	"w:body":             KindBody,
	"w:p":                KindParagraph,
	"w:pPr":              KindParagraphProps,
	"w:r":                KindRun,
	"w:rPr":              KindRunProps,
	"w:tbl":              KindTable,
	"w:tr":               KindRow,
	"w:tc":               KindCell,
	"w:sdt":              KindSdt,
	"w:sdtContent":       KindSdtContent,
	"w:sectPr":           KindSectionProps,
	"w:hdr":              KindHeader,
	"w:ftr":              KindFooter,
	"w:styles":           KindStyles,
	"w:style":            KindStyle,
	"w:latentStyles":     KindLatentStyles,
	"w:numbering":        KindNumbering,
	"w:abstractNum":      KindAbstractNum,
	"w:num":              KindNum,
	"w:lvl":              KindLevel,
	"w:footnotes":        KindFootnotes,
	"w:endnotes":         KindEndnotes,
	"w:comments":         KindComments,
	"w:settings":         KindSettings,
	"w:fonts":            KindFonts,
	"w:glossaryDocument": KindGlossary,
	"w:docParts":         KindDocParts,
	"w:docPartBody":      KindDocPartBody,
	"w:footnote":         KindNote,
	"w:endnote":          KindNote,
	"w:comment":          KindComment,
	"w:txbxContent":      KindTextbox,
	"da:insert":          KindInsertMarker,
	"pt:Insert":          KindInsertMarker,
}

// KindOf classifies canonicalized element.
func KindOf(e *etree.Element) Kind {
	if e == nil {
		return KindOther
	}
	if k, ok := tagKinds[e.FullTag()]; ok {
		return k
	}
	return KindOther
}

// IsBlockContainer reports whether element of this kind holds block level
// content (paragraphs, tables) as its direct children.
func (k Kind) IsBlockContainer() bool {
	switch k {
	case KindBody, KindCell, KindSdtContent, KindHeader, KindFooter,
		KindDocPartBody, KindNote, KindComment, KindTextbox:
		return true
	}
	return false
}
