// Package assemble merges fragments of several word processing documents
// into a single new document.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docasm/common"
	"docasm/opc"
	"docasm/wml"
)

// Options control assembly as a whole.
type Options struct {
	// NormalizeStyleIDs renames source styles whose ids collide with
	// differently named output styles before merging.
	NormalizeStyleIDs bool
	// CustomXMLItems lists item ids of custom XML parts to carry into the
	// output, everything else is dropped.
	CustomXMLItems []string
	// MissingMarker decides what happens to content targeting insert marker
	// which does not exist.
	MissingMarker common.MissingMarkerPolicy
}

func DefaultOptions() Options {
	return Options{NormalizeStyleIDs: true, MissingMarker: common.MissingMarkerPolicyIgnore}
}

type builder struct {
	ctx   context.Context
	opts  Options
	log   *zap.Logger
	depth int // 0 for documents, 1 for glossaries

	out     *opc.Package
	outMain *opc.Part
	outBody *etree.Element

	styles     *styleSet     // nil until first style is needed
	numbering  *numberingSet // nil until first list is needed
	ids        *idState
	separators map[idKind]bool // note separators already copied

	customXMLAllowed map[uuid.UUID]bool
	customXMLCopied  map[uuid.UUID]bool

	anyKeepSections bool
	anyKeepHF       bool

	// trailing section of the first source, used when nobody keeps sections
	first        *sourceDoc
	firstSection *etree.Element
}

func newBuilder(ctx context.Context, opts Options, log *zap.Logger, depth int) *builder {
	return &builder{
		ctx:              ctx,
		opts:             opts,
		log:              log,
		depth:            depth,
		ids:              newIDState(),
		separators:       make(map[idKind]bool),
		customXMLAllowed: parseCustomXMLItems(opts.CustomXMLItems, log),
		customXMLCopied:  make(map[uuid.UUID]bool),
	}
}

// Build assembles sources in order into a new package. Source packages are
// not modified. Errors related to a particular source are reported as
// *AssemblyError.
func Build(ctx context.Context, sources []Source, opts Options, log *zap.Logger) (*opc.Package, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := newBuilder(ctx, opts, log.Named("assemble"), 0)
	return b.build(sources)
}

func (b *builder) build(sources []Source) (*opc.Package, error) {
	start := time.Now()
	b.log.Debug("Assembly started", zap.Int("sources", len(sources)), zap.Int("depth", b.depth))

	b.out = opc.NewDocument(b.log)
	b.outMain = b.out.MainPart()
	root, err := b.outMain.Root()
	if err != nil {
		return nil, internal("%v", err)
	}
	b.outBody = root.SelectElement("w:body")

	var merged, pending []*sourceDoc
	for i, s := range sources {
		if err := b.ctx.Err(); err != nil {
			return nil, fmt.Errorf("assembly interrupted: %w", err)
		}
		sd, err := b.open(i, s)
		if err != nil {
			return nil, b.sourceError(i, len(sources), s, err)
		}
		if s.InsertID != "" {
			m := findMarker(b.outBody, s.InsertID)
			if m == nil {
				b.log.Debug("Insert marker not found yet, deferring", zap.String("source", sd.label()), zap.String("id", s.InsertID))
				pending = append(pending, sd)
				continue
			}
			err = b.insertAt(sd, m, b.outMain)
		} else {
			err = b.appendToBody(sd)
		}
		if err != nil {
			return nil, b.sourceError(i, len(sources), s, err)
		}
		b.merged(sd)
		merged = append(merged, sd)
	}

	// content may target markers brought in by later sources
	var unplaced []*sourceDoc
	for _, sd := range pending {
		if err := b.ctx.Err(); err != nil {
			return nil, fmt.Errorf("assembly interrupted: %w", err)
		}
		if b.opts.NormalizeStyleIDs && sd.index > 0 {
			// output styles have grown since the source was opened
			if err := b.normalizeStyleIDs(sd); err != nil {
				return nil, b.sourceError(sd.index, len(sources), sd.Source, err)
			}
		}
		m := findMarker(b.outBody, sd.InsertID)
		if m == nil {
			unplaced = append(unplaced, sd)
			continue
		}
		if err := b.insertAt(sd, m, b.outMain); err != nil {
			return nil, b.sourceError(sd.index, len(sources), sd.Source, err)
		}
		b.merged(sd)
		merged = append(merged, sd)
	}

	if !b.anyKeepSections && b.firstSection != nil {
		sp := b.firstSection
		if err := b.importContent(b.first, b.first.main, b.outMain, []*etree.Element{sp}); err != nil {
			return nil, b.sourceError(b.first.index, len(sources), b.first.Source, err)
		}
		b.outBody.AddChild(sp)
	}

	// or markers living in headers and footers, including the ones brought by
	// the first source section
	for _, sd := range unplaced {
		if err := b.ctx.Err(); err != nil {
			return nil, fmt.Errorf("assembly interrupted: %w", err)
		}
		placed, err := b.placeInHeadersFooters(sd)
		if err != nil {
			return nil, b.sourceError(sd.index, len(sources), sd.Source, err)
		}
		if !placed {
			switch b.opts.MissingMarker {
			case common.MissingMarkerPolicyFail:
				return nil, b.sourceError(sd.index, len(sources), sd.Source, fmt.Errorf("%w: %q", ErrMissingMarker, sd.InsertID))
			case common.MissingMarkerPolicyWarn:
				b.log.Warn("Insert marker not found, content dropped", zap.String("source", sd.label()), zap.String("id", sd.InsertID))
			default:
				b.log.Debug("Insert marker not found, content dropped", zap.String("source", sd.label()), zap.String("id", sd.InsertID))
			}
			continue
		}
		b.merged(sd)
		merged = append(merged, sd)
	}

	fixSectionPlacement(b.outBody)
	if b.anyKeepSections {
		b.backfillHeadersFooters()
	}

	if err := b.coalesceGlossaries(merged, len(sources)); err != nil {
		return nil, fmt.Errorf("unable to merge glossaries: %w", err)
	}
	if err := b.renumberDrawings(); err != nil {
		return nil, err
	}
	if err := b.removeMarkers(); err != nil {
		return nil, err
	}
	b.finalizeStyles()
	b.finalizeNumbering()

	if b.depth == 0 {
		b.log.Info("Assembly completed", zap.Int("sources", len(sources)), zap.Int("merged", len(merged)),
			zap.Duration("elapsed", time.Since(start)))
	}
	return b.out, nil
}

// sourceError attaches source identity to the error.
func (b *builder) sourceError(index, total int, s Source, err error) error {
	var ae *AssemblyError
	if errors.As(err, &ae) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &AssemblyError{Index: index, Total: total, Name: s.Name, Err: err}
}

// open validates private copy of the source package and merges its document
// wide definitions: starting parts for the first source, latent styles, fonts
// and custom XML for everybody. Selected content is copied and prepared.
func (b *builder) open(index int, s Source) (*sourceDoc, error) {
	if s.Package == nil {
		return nil, malformed("no package")
	}
	pkg := s.Package.Clone()
	if err := validate(pkg); err != nil {
		return nil, err
	}
	main := pkg.MainPart()
	root, err := main.Root()
	if err != nil {
		return nil, malformed("%v", err)
	}
	sd := &sourceDoc{
		Source:   s,
		index:    index,
		pkg:      pkg,
		main:     main,
		root:     root,
		body:     root.SelectElement("w:body"),
		styleMap: make(map[string]string),
		numMap:   make(map[int]int),
		absMap:   make(map[int]int),
		picMap:   make(map[int]int),
		parts:    make(map[*opc.Part]*opc.Part),
		headers:  make(map[*opc.Part]*opc.Part),
		rels:     make(map[relKey]string),
	}
	if sp := main.FirstRelated(opc.RelStyles); sp != nil {
		if sd.styles, err = newStyleSet(sp); err != nil {
			return nil, malformed("%v", err)
		}
	}
	if np := main.FirstRelated(opc.RelNumbering); np != nil {
		sd.numberingPart = np
		if sd.numbering, err = np.Root(); err != nil {
			return nil, malformed("%v", err)
		}
	}
	b.log.Debug("Source opened", zap.String("source", sd.label()), zap.Int("body", len(sd.body.ChildElements())))

	if index == 0 {
		if err := b.seedStartingParts(sd); err != nil {
			return nil, err
		}
	} else if b.opts.NormalizeStyleIDs {
		if err := b.normalizeStyleIDs(sd); err != nil {
			return nil, err
		}
	}
	b.mergeLatentStyles(sd)
	if err := b.mergeFonts(sd); err != nil {
		return nil, err
	}
	b.copyCustomXML(sd)

	b.prepare(sd)
	return sd, nil
}

// prepare copies selected body children into sd.slice applying section
// flags and repairing ranges cut by the selection.
func (b *builder) prepare(sd *sourceDoc) {
	if sd.KeepSections && !sd.KeepHeadersAndFooters {
		stripHeaderFooterRefs(sd.body)
	}
	children := sd.body.ChildElements()
	if sd.index == 0 && len(children) > 0 {
		// taken together with its headers and footers
		if last := children[len(children)-1]; wml.Is(last, "w:sectPr") {
			b.first, b.firstSection = sd, last.Copy()
		}
	}
	from, to := sd.window(len(children))
	slice := wml.Copies(children[from:to])
	if !sd.KeepSections {
		slice = stripSections(slice)
	}
	sd.slice = fixRanges(sd.body, slice)
}

// merged records flags of the source whose content made it into the output
// and freezes numbering it introduced.
func (b *builder) merged(sd *sourceDoc) {
	if sd.KeepSections {
		b.anyKeepSections = true
		if sd.KeepHeadersAndFooters {
			b.anyKeepHF = true
		}
	}
	b.numbering.freeze()
}

// appendToBody adds prepared content at the end of the output body.
func (b *builder) appendToBody(sd *sourceDoc) error {
	if err := b.importContent(sd, sd.main, b.outMain, sd.slice); err != nil {
		return err
	}
	for _, e := range sd.slice {
		b.outBody.AddChild(e)
	}
	b.log.Debug("Content appended", zap.String("source", sd.label()), zap.Int("elements", len(sd.slice)))
	return nil
}

// insertAt replaces the marker anchor in dstPart with prepared content.
func (b *builder) insertAt(sd *sourceDoc, marker *etree.Element, dstPart *opc.Part) error {
	anchor := markerAnchor(marker)
	slice := sd.slice
	if dstPart != b.outMain {
		slice = stripForHeaderFooter(slice)
	} else if anchor.Parent() != b.outBody {
		// sections live on the body level only
		slice = stripSections(slice)
	}
	if len(slice) == 0 && wml.Is(anchor.Parent(), "w:tc") && len(anchor.Parent().SelectElements("w:p")) <= 1 {
		slice = []*etree.Element{wml.New("w:p")}
	}
	if err := b.importContent(sd, sd.main, dstPart, slice); err != nil {
		return err
	}
	wml.Replace(anchor, slice...)
	b.log.Debug("Content inserted", zap.String("source", sd.label()), zap.String("id", sd.InsertID),
		zap.String("part", dstPart.Name()), zap.Int("elements", len(slice)))
	return nil
}

// placeInHeadersFooters inserts source content at its marker in the first
// header or footer of the output holding one.
func (b *builder) placeInHeadersFooters(sd *sourceDoc) (bool, error) {
	for _, rt := range []string{opc.RelHeader, opc.RelFooter} {
		for _, p := range sortedParts(b.outMain.RelatedByType(rt)) {
			root, err := p.Root()
			if err != nil {
				return false, internal("%v", err)
			}
			if m := findMarker(root, sd.InsertID); m != nil {
				return true, b.insertAt(sd, m, p)
			}
		}
	}
	return false, nil
}

// removeMarkers drops insert markers nobody targeted.
func (b *builder) removeMarkers() error {
	parts := []*opc.Part{b.outMain}
	parts = append(parts, sortedParts(b.outMain.RelatedByType(opc.RelHeader))...)
	parts = append(parts, sortedParts(b.outMain.RelatedByType(opc.RelFooter))...)
	for _, p := range parts {
		root, err := p.Root()
		if err != nil {
			return internal("%v", err)
		}
		if n := removeMarkers(root); n > 0 {
			b.log.Debug("Unused insert markers removed", zap.String("part", p.Name()), zap.Int("count", n))
		}
	}
	return nil
}
