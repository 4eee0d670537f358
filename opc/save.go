package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	fixzip "github.com/hidez8891/zip"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"docasm/wml"
)

// SaveOptions controls package serialization.
type SaveOptions struct {
	// FixZip rewrites the archive without data descriptors, some older
	// consumers are unable to read such entries.
	FixZip bool
}

// Save serializes package into zip archive. Relationships which point to
// missing parts are kept, this is the caller's problem.
func (pkg *Package) Save(opts SaveOptions) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := writeXMLToZip(zw, contentTypesName, pkg.types.document()); err != nil {
		return nil, fmt.Errorf("unable to write content types: %w", err)
	}
	if len(pkg.relSet.list) > 0 {
		if err := writeXMLToZip(zw, relsName(""), pkg.relSet.relsDocument()); err != nil {
			return nil, fmt.Errorf("unable to write package relationships: %w", err)
		}
	}
	for _, p := range pkg.Parts() {
		data, err := p.Bytes()
		if err != nil {
			return nil, fmt.Errorf("unable to serialize part %s: %w", p.name, err)
		}
		if err := writeDataToZip(zw, p.name, data); err != nil {
			return nil, fmt.Errorf("unable to write part %s: %w", p.name, err)
		}
		if len(p.list) == 0 {
			continue
		}
		if err := writeXMLToZip(zw, relsName(p.name), p.relsDocument()); err != nil {
			return nil, fmt.Errorf("unable to write relationships of %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("unable to finalize archive: %w", err)
	}

	if !opts.FixZip {
		return buf.Bytes(), nil
	}
	return copyZipWithoutDataDescriptors(buf.Bytes())
}

// WriteFile saves package to the file.
func (pkg *Package) WriteFile(name string, opts SaveOptions) (err error) {
	data, err := pkg.Save(opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	pkg.log.Debug("Package saved", zap.String("file", name), zap.Int("size", len(data)), zap.Int("parts", len(pkg.parts)))
	return nil
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func copyZipWithoutDataDescriptors(data []byte) ([]byte, error) {
	r, err := fixzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to read archive: %w", err)
	}

	var out bytes.Buffer
	w := fixzip.NewWriter(&out)
	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		if err := w.CopyFile(file); err != nil {
			return nil, fmt.Errorf("unable to copy archive entry %s: %w", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("unable to finalize archive: %w", err)
	}
	return out.Bytes(), nil
}

func newMainDocument() *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("w:document")
	wml.EnsureDeclared(root, wml.NSW)
	wml.EnsureDeclared(root, wml.NSR)
	root.CreateElement("w:body")
	return doc
}
