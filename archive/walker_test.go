package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// zipBytes builds archive with entries in the given order, names ending with
// slash become directories.
func zipBytes(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if name[len(name)-1] != '/' {
			if _, err := fw.Write([]byte("content of " + name)); err != nil {
				t.Fatalf("Failed to write %s: %v", name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func writeZip(t *testing.T, names ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	if err := os.WriteFile(path, zipBytes(t, names...), 0644); err != nil {
		t.Fatalf("Failed to write zip: %v", err)
	}
	return path
}

func TestWalk(t *testing.T) {
	zipPath := writeZip(t,
		"letters/",
		"letters/intro.docx",
		"letters/body.docx",
		"annex/table.docx",
		"cover.docx",
	)

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"everything", "", []string{"letters/intro.docx", "letters/body.docx", "annex/table.docx", "cover.docx"}},
		{"directory prefix", "letters/", []string{"letters/intro.docx", "letters/body.docx"}},
		{"exact entry", "cover.docx", []string{"cover.docx"}},
		{"case matters", "Letters/", nil},
		{"nothing", "missing/", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.pattern, func(archive string, file *zip.File) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				visited = append(visited, file.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited = %q, want %q", visited, tt.want)
			}
		})
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	dir := t.TempDir()
	notZip := filepath.Join(dir, "not.zip")
	if err := os.WriteFile(notZip, []byte("plain text"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	for _, path := range []string{notZip, filepath.Join(dir, "absent.zip")} {
		err := Walk(path, "", func(string, *zip.File) error {
			t.Error("walkFn called for invalid archive")
			return nil
		})
		if err == nil {
			t.Errorf("Walk(%s) expected error", filepath.Base(path))
		}
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := writeZip(t, "a.docx", "b.docx", "c.docx")

	stopErr := errors.New("stop walking")
	var visited int
	err := Walk(zipPath, "", func(string, *zip.File) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})
	if !errors.Is(err, stopErr) {
		t.Errorf("Walk() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2", visited)
	}
}

func TestWalkReader(t *testing.T) {
	data := zipBytes(t, "[Content_Types].xml", "word/", "word/document.xml", "word/_rels/document.xml.rels")
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	contents := make(map[string]string)
	err = WalkReader(r, "word/", func(archive string, file *zip.File) error {
		if archive != "" {
			t.Errorf("archive = %q for in-memory reader", archive)
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return err
		}
		contents[file.Name] = buf.String()
		return nil
	})
	if err != nil {
		t.Fatalf("WalkReader() error = %v", err)
	}
	if len(contents) != 2 {
		t.Errorf("got %d entries, want 2: %v", len(contents), contents)
	}
	if got := contents["word/document.xml"]; got != "content of word/document.xml" {
		t.Errorf("content = %q", got)
	}
}

func TestWalk_UnsafePaths(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"parent traversal", "../evil.docx"},
		{"nested traversal", "docs/../../evil.docx"},
		{"absolute", "/etc/evil.docx"},
		{"backslash root", `\evil.docx`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := zipBytes(t, "good.docx", tt.entry)
			r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
				t.Fatalf("NewReader() error = %v", err)
			}
			err = WalkReader(r, "", func(string, *zip.File) error { return nil })
			if err == nil {
				t.Errorf("entry %q accepted", tt.entry)
			}
		})
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"word/document.xml", true},
		{"a..b/c.docx", true},
		{"..", false},
		{"word/../../x", false},
		{"/word/document.xml", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	files := map[string]bool{
		"in/bundle.zip": true,
		"in/plain.docx": true,
	}
	isFile := func(p string) bool { return files[p] }

	tests := []struct {
		full       string
		arc, inner string
		ok         bool
	}{
		{"in/bundle.zip/letters/intro.docx", "in/bundle.zip", "letters/intro.docx", true},
		{`in\bundle.zip\cover.docx`, "in/bundle.zip", "cover.docx", true},
		{"in/plain.docx", "in/plain.docx", "", false},
		{"in/./plain.docx", "in/plain.docx", "", false},
		{"in/missing.docx", "in/missing.docx", "", false},
	}
	for _, tt := range tests {
		arc, inner, ok := SplitPath(tt.full, isFile)
		if arc != tt.arc || inner != tt.inner || ok != tt.ok {
			t.Errorf("SplitPath(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.full, arc, inner, ok, tt.arc, tt.inner, tt.ok)
		}
	}
}
