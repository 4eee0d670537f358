package run

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"docasm/config"
	"docasm/state"
)

const outputExt = ".docx"

// NameValues are available to output name template.
type NameValues struct {
	First string // base name of the first source without extension
	Count int    // number of sources
	Date  time.Time
}

// buildOutputPath returns path of the result. Destination which is an
// existing directory or ends with path separator gets file name from the
// output name template, otherwise it is the file name itself. Without
// destination current directory is used.
func buildOutputPath(job *Job, to string, env *state.LocalEnv, log *zap.Logger) (string, error) {
	if to == "" {
		to = job.Output
	}
	if to != "" && !strings.HasSuffix(to, string(filepath.Separator)) && !strings.HasSuffix(to, "/") {
		if fi, err := os.Stat(to); err != nil || !fi.IsDir() {
			return filepath.Abs(to)
		}
	}

	outDir := to
	if outDir == "" {
		var err error
		if outDir, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return "", err
	}

	values := NameValues{
		First: strings.TrimSuffix(filepath.Base(job.Sources[0].Path), filepath.Ext(job.Sources[0].Path)),
		Count: len(job.Sources),
		Date:  time.Now(),
	}
	name := ""
	if tmpl := env.Cfg.Assembly.OutputNameTemplate; tmpl != "" {
		if name, err = expandTemplate(string(config.OutputNameTemplateFieldName), tmpl, values); err != nil {
			log.Warn("Unable to prepare output filename, using default", zap.Error(err))
			name = ""
		}
	}
	if strings.TrimSpace(name) == "" {
		name = values.First + "-assembled"
	}
	return assemblePathWithSubdirs(outDir, filepath.FromSlash(name), env.Cfg.Assembly.FileNameTransliterate), nil
}

func expandTemplate(name, field string, values NameValues) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// assemblePathWithSubdirs takes expanded name (which may contain path
// separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed.
func assemblePathWithSubdirs(outDir, expandedName string, transliterate bool) string {
	var segments []string
	for _, s := range strings.Split(expandedName, string(filepath.Separator)) {
		if s = strings.TrimSpace(s); s != "" && s != "." && s != ".." {
			segments = append(segments, cleanPathSegment(s, transliterate))
		}
	}
	if len(segments) == 0 {
		return filepath.Join(outDir, "_bad_file_name_"+outputExt)
	}
	segments[len(segments)-1] += outputExt
	return filepath.Join(append([]string{outDir}, segments...)...)
}

func cleanPathSegment(segment string, transliterate bool) string {
	if transliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
