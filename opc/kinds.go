package opc

// Relationship types.
const (
	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

	RelOfficeDocument       = relBase + "officeDocument"
	RelStrictOfficeDocument = "http://purl.oclc.org/ooxml/officeDocument/relationships/officeDocument"
	RelStyles               = relBase + "styles"
	RelStylesWithEffects    = "http://schemas.microsoft.com/office/2007/relationships/stylesWithEffects"
	RelNumbering            = relBase + "numbering"
	RelFontTable            = relBase + "fontTable"
	RelFont                 = relBase + "font"
	RelSettings             = relBase + "settings"
	RelWebSettings          = relBase + "webSettings"
	RelTheme                = relBase + "theme"
	RelHeader               = relBase + "header"
	RelFooter               = relBase + "footer"
	RelFootnotes            = relBase + "footnotes"
	RelEndnotes             = relBase + "endnotes"
	RelComments             = relBase + "comments"
	RelGlossary             = relBase + "glossaryDocument"
	RelImage                = relBase + "image"
	RelHyperlink            = relBase + "hyperlink"
	RelCustomXML            = relBase + "customXml"
	RelCustomXMLProps       = relBase + "customXmlProps"
	RelAttachedTemplate     = relBase + "attachedTemplate"
	RelExtendedProps        = relBase + "extended-properties"
	RelCustomProps          = relBase + "custom-properties"
	RelCoreProps            = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
)

// Content types.
const (
	ctBase = "application/vnd.openxmlformats-officedocument."

	CTRelationships     = "application/vnd.openxmlformats-package.relationships+xml"
	CTXML               = "application/xml"
	CTMainDocument      = ctBase + "wordprocessingml.document.main+xml"
	CTGlossary          = ctBase + "wordprocessingml.document.glossary+xml"
	CTStyles            = ctBase + "wordprocessingml.styles+xml"
	CTNumbering         = ctBase + "wordprocessingml.numbering+xml"
	CTFontTable         = ctBase + "wordprocessingml.fontTable+xml"
	CTSettings          = ctBase + "wordprocessingml.settings+xml"
	CTWebSettings       = ctBase + "wordprocessingml.webSettings+xml"
	CTTheme             = ctBase + "theme+xml"
	CTHeader            = ctBase + "wordprocessingml.header+xml"
	CTFooter            = ctBase + "wordprocessingml.footer+xml"
	CTFootnotes         = ctBase + "wordprocessingml.footnotes+xml"
	CTEndnotes          = ctBase + "wordprocessingml.endnotes+xml"
	CTComments          = ctBase + "wordprocessingml.comments+xml"
	CTCustomXMLProps    = ctBase + "customXmlProperties+xml"
	CTExtendedProps     = ctBase + "extended-properties+xml"
	CTCustomProps       = ctBase + "custom-properties+xml"
	CTCoreProps         = "application/vnd.openxmlformats-package.core-properties+xml"
	CTOctetStream       = "application/octet-stream"
	CTStylesWithEffects = "application/vnd.ms-word.stylesWithEffects+xml"
)

// PartKind describes part which engine may need to create: naming pattern,
// content type and type of relationship used to reference it.
type PartKind struct {
	// Name is either fixed part name or a pattern with a single %d verb.
	Name        string
	ContentType string
	RelType     string
}

var (
	KindMainDocument     = PartKind{"word/document.xml", CTMainDocument, RelOfficeDocument}
	KindGlossary         = PartKind{"word/glossary/document.xml", CTGlossary, RelGlossary}
	KindStyles           = PartKind{"word/styles.xml", CTStyles, RelStyles}
	KindStylesWithEffect = PartKind{"word/stylesWithEffects.xml", CTStylesWithEffects, RelStylesWithEffects}
	KindNumbering        = PartKind{"word/numbering.xml", CTNumbering, RelNumbering}
	KindFontTable        = PartKind{"word/fontTable.xml", CTFontTable, RelFontTable}
	KindSettings         = PartKind{"word/settings.xml", CTSettings, RelSettings}
	KindWebSettings      = PartKind{"word/webSettings.xml", CTWebSettings, RelWebSettings}
	KindTheme            = PartKind{"word/theme/theme%d.xml", CTTheme, RelTheme}
	KindHeader           = PartKind{"word/header%d.xml", CTHeader, RelHeader}
	KindFooter           = PartKind{"word/footer%d.xml", CTFooter, RelFooter}
	KindFootnotes        = PartKind{"word/footnotes.xml", CTFootnotes, RelFootnotes}
	KindEndnotes         = PartKind{"word/endnotes.xml", CTEndnotes, RelEndnotes}
	KindComments         = PartKind{"word/comments.xml", CTComments, RelComments}
	KindCustomXML        = PartKind{"customXml/item%d.xml", CTXML, RelCustomXML}
	KindCustomXMLProps   = PartKind{"customXml/itemProps%d.xml", CTCustomXMLProps, RelCustomXMLProps}
	KindCoreProps        = PartKind{"docProps/core.xml", CTCoreProps, RelCoreProps}
	KindExtendedProps    = PartKind{"docProps/app.xml", CTExtendedProps, RelExtendedProps}
	KindCustomProps      = PartKind{"docProps/custom.xml", CTCustomProps, RelCustomProps}
)
