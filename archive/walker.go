// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// (empty for in-memory archives). The file argument is the zip.File structure
// for file in archive which satisfies match condition. If an error is
// returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks the all files in the archive which satisfy match condition,
// calling walkFn for each item. Entries with path traversal components
// ("..") or absolute paths make Walk fail to prevent Zip Slip attacks.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	return walk(archive, &r.Reader, pattern, walkFn)
}

// WalkReader is Walk over already opened archive, used for packages which
// were read into memory.
func WalkReader(r *zip.Reader, pattern string, walkFn WalkFunc) error {
	return walk("", r, pattern, walkFn)
}

func walk(archive string, r *zip.Reader, pattern string, walkFn WalkFunc) error {
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// SplitPath splits path which may point inside zip archive
// ("bundle.zip/dir/doc.docx") into archive path and path inside archive. For
// paths without archive component the second value is empty and ok is false.
func SplitPath(full string, isFile func(string) bool) (arc, inner string, ok bool) {
	full = path.Clean(strings.ReplaceAll(full, `\`, "/"))
	for i := len(full); i > 0; i = strings.LastIndex(full[:i], "/") {
		head := full[:i]
		if !isFile(head) {
			continue
		}
		if i == len(full) {
			return head, "", false
		}
		return head, strings.TrimPrefix(full[i:], "/"), true
	}
	return full, "", false
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
