// Package debug produces human readable dumps of assembled packages for
// debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Element writes element subtree one element per line: tag, attributes in
// document order and quoted text when present.
func (tw TreeWriter) Element(depth int, e *etree.Element) {
	var sb strings.Builder
	sb.WriteString(e.FullTag())
	for _, a := range e.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		fmt.Fprintf(&sb, " %s=%s", a.FullKey(), encodeText(a.Value))
	}
	if text := strings.TrimSpace(e.Text()); text != "" {
		sb.WriteString(" ")
		sb.WriteString(encodeText(text))
	}
	tw.Line(depth, "%s", sb.String())
	for _, c := range e.ChildElements() {
		tw.Element(depth+1, c)
	}
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
