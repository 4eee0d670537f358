// Package run implements assemble command: it loads sources, runs the
// assembly engine and writes the result.
package run

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	yaml "gopkg.in/yaml.v3"

	"docasm/archive"
	"docasm/assemble"
	"docasm/opc"
	"docasm/state"
	dump "docasm/utils/debug"
)

// Run is the action of assemble command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("run")

	job := &Job{}
	if name := cmd.String("job"); name != "" {
		if job, err = LoadJob(name); err != nil {
			return err
		}
	}
	for _, arg := range cmd.Args().Slice() {
		js, err := ParseSourceSpec(arg)
		if err != nil {
			return err
		}
		if js.Path, err = filepath.Abs(js.Path); err != nil {
			return err
		}
		job.Sources = append(job.Sources, js)
	}
	if len(job.Sources) == 0 {
		return errors.New("no input sources have been specified")
	}

	env.Overwrite = cmd.Bool("overwrite")

	env.CodePage = codePage(cmd.String("force-zip-cp"), log)

	log.Info("Processing starting", zap.Int("sources", len(job.Sources)), zap.String("destination", cmd.String("to")))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, job, cmd.String("to"), env, log)
}

// process handles the core of assembly independently of CLI framework.
func process(ctx context.Context, job *Job, to string, env *state.LocalEnv, log *zap.Logger) (rerr error) {
	var outputName string
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Assembly ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("assembly panic: %v", r)
		}
	}(time.Now())

	outputName, err := buildOutputPath(job, to, env, log)
	if err != nil {
		return err
	}
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	}

	sources := make([]assemble.Source, 0, len(job.Sources))
	for i, js := range job.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkg, onDisk, err := openSource(js.Path, env.CodePage, log)
		if err != nil {
			return fmt.Errorf("unable to open source %d (%s): %w", i+1, js.Path, err)
		}
		if err := env.Rpt.StoreCopy(fmt.Sprintf("sources/%02d-%s", i+1, slug.Make(filepath.Base(onDisk))), onDisk); err != nil {
			log.Warn("Unable to store source in debug report", zap.String("file", onDisk), zap.Error(err))
		}
		sources = append(sources, js.source(pkg))
	}

	out, err := assemble.Build(ctx, sources, env.AssembleOptions(), log)
	if err != nil {
		return fmt.Errorf("unable to assemble: %w", err)
	}
	if err := out.WriteFile(outputName, env.SaveOptions()); err != nil {
		return fmt.Errorf("unable to save result: %w", err)
	}
	log.Info("Result written", zap.String("file", outputName), zap.Int("parts", len(out.Parts())))

	if env.Rpt != nil {
		if data, err := yaml.Marshal(job); err == nil {
			env.Rpt.StoreData("job.yaml", data)
		}
		env.Rpt.StoreData("structure.txt", []byte(dump.DumpPackage(out)))
		env.Rpt.Store("result"+filepath.Ext(outputName), outputName)
	}
	return nil
}

// codePage resolves character set forced for non UTF-8 names in archives,
// zip does not define file name encoding and old archives may need archaic
// code page.
func codePage(cp string, log *zap.Logger) encoding.Encoding {
	if len(cp) == 0 {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(cp)
	if err != nil || enc == nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
		return nil
	}
	n, _ := ianaindex.IANA.Name(enc)
	log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
	return enc
}

// openSource reads package from file or from zip archive when path points
// inside one. Second value is the file on disk the package came from.
func openSource(path string, cp encoding.Encoding, log *zap.Logger) (*opc.Package, string, error) {
	arc, inner, ok := archive.SplitPath(path, isRegularFile)
	if !ok {
		pkg, err := opc.OpenFile(path, log)
		return pkg, path, err
	}

	// names may need decoding, so prefix match is not reliable
	pattern := inner
	if cp != nil {
		pattern = ""
	}
	var data []byte
	errFound := errors.New("found")
	err := archive.Walk(arc, pattern, func(_ string, f *zip.File) error {
		name := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			if n, err := cp.NewDecoder().String(name); err == nil {
				name = n
			} else {
				log.Warn("Unable to convert archive name from specified encoding", zap.String("path", name), zap.Error(err))
			}
		}
		if name != inner {
			return nil
		}
		r, err := f.Open()
		if err != nil {
			return err
		}
		defer r.Close()
		if data, err = io.ReadAll(r); err != nil {
			return err
		}
		return errFound
	})
	switch {
	case errors.Is(err, errFound):
	case err != nil:
		return nil, arc, fmt.Errorf("unable to read archive %s: %w", arc, err)
	default:
		return nil, arc, fmt.Errorf("%s not found in archive %s", inner, arc)
	}
	log.Debug("Source read from archive", zap.String("archive", arc), zap.String("path", inner), zap.Int("size", len(data)))
	pkg, err := opc.Open(data, log)
	return pkg, arc, err
}

func isRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
