package run

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rupor-github/gencfg"
	yaml "gopkg.in/yaml.v3"

	"docasm/assemble"
	"docasm/opc"
)

// JobSource describes single source of the job.
type JobSource struct {
	// Path to the document, may point inside zip archive:
	// "bundle.zip/dir/doc.docx".
	Path                  string `yaml:"path" validate:"required"`
	Start                 int    `yaml:"start,omitempty" validate:"gte=0"`
	Count                 *int   `yaml:"count,omitempty" validate:"omitempty,gte=0"` // absent selects till the end
	KeepSections          bool   `yaml:"keep_sections,omitempty"`
	KeepHeadersAndFooters bool   `yaml:"keep_headers_footers,omitempty"`
	InsertID              string `yaml:"insert_id,omitempty"`
}

// Job is everything needed for a single assembly.
type Job struct {
	Sources []JobSource `yaml:"sources" validate:"required,min=1,dive"`
	Output  string      `yaml:"output,omitempty"`
}

// LoadJob reads job file. Relative paths in it are relative to the job file
// location.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read job file: %w", err)
	}
	job := &Job{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(job); err != nil {
		return nil, fmt.Errorf("unable to decode job file: %w", err)
	}
	if err := gencfg.Validate(job); err != nil {
		return nil, fmt.Errorf("invalid job file: %w", err)
	}

	base := filepath.Dir(path)
	for i := range job.Sources {
		job.Sources[i].Path = resolve(base, job.Sources[i].Path)
	}
	if job.Output != "" {
		job.Output = resolve(base, job.Output)
	}
	return job, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// ParseSourceSpec parses command line source specification
//
//	path[@start[:count]][+flags]
//
// where flags are any of "s" (keep sections), "h" (keep headers and footers)
// and "#ID" (insert at marker ID, must be last). Selection suffix is looked
// for after the last dot of the file name, so names may contain '@' and '+'.
func ParseSourceSpec(spec string) (JobSource, error) {
	var js JobSource

	orig := spec
	base := strings.LastIndexAny(spec, `/\`) + 1
	if dot := strings.LastIndex(spec[base:], "."); dot >= 0 {
		base += dot
	}
	cut := strings.IndexAny(spec[base:], "@+")
	if cut < 0 {
		js.Path = spec
		return js, nil
	}
	js.Path, spec = spec[:base+cut], spec[base+cut:]
	if js.Path == "" {
		return js, fmt.Errorf("source %q: empty path", orig)
	}

	if rest, ok := strings.CutPrefix(spec, "@"); ok {
		window, flags, hasFlags := strings.Cut(rest, "+")
		startStr, countStr, hasCount := strings.Cut(window, ":")
		start, err := strconv.Atoi(startStr)
		if err != nil || start < 0 {
			return js, fmt.Errorf("source %s: bad start %q", js.Path, startStr)
		}
		js.Start = start
		if hasCount {
			count, err := strconv.Atoi(countStr)
			if err != nil || count < 0 {
				return js, fmt.Errorf("source %s: bad count %q", js.Path, countStr)
			}
			js.Count = &count
		}
		spec = ""
		if hasFlags {
			spec = "+" + flags
		}
	}

	flags, ok := strings.CutPrefix(spec, "+")
	if !ok {
		return js, nil
	}
	for i := 0; i < len(flags); i++ {
		switch flags[i] {
		case 's':
			js.KeepSections = true
		case 'h':
			js.KeepHeadersAndFooters = true
		case '#':
			if js.InsertID = flags[i+1:]; js.InsertID == "" {
				return js, fmt.Errorf("source %s: empty insert marker id", js.Path)
			}
			return js, nil
		default:
			return js, fmt.Errorf("source %s: unknown flag %q", js.Path, flags[i])
		}
	}
	return js, nil
}

// source binds opened package to the job source.
func (js JobSource) source(pkg *opc.Package) assemble.Source {
	s := assemble.NewSource(pkg, filepath.Base(js.Path))
	count := assemble.All
	if js.Count != nil {
		count = *js.Count
	}
	s = s.Range(js.Start, count)
	if js.KeepSections {
		s = s.WithSections(js.KeepHeadersAndFooters)
	}
	if js.InsertID != "" {
		s = s.Into(js.InsertID)
	}
	return s
}
