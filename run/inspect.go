package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docasm/state"
	dump "docasm/utils/debug"
)

// Inspect is the action of inspect command: it prints package structure of
// every argument.
func Inspect(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	if cmd.Args().Len() == 0 {
		return errors.New("no documents have been specified")
	}
	env.CodePage = codePage(cmd.String("force-zip-cp"), log)

	out := io.Writer(os.Stdout)
	if to := cmd.String("to"); len(to) > 0 {
		f, err := os.Create(to)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", to, err)
		}
		defer f.Close()
		out = f
	}
	return inspect(ctx, cmd.Args().Slice(), out, env, log)
}

func inspect(ctx context.Context, paths []string, out io.Writer, env *state.LocalEnv, log *zap.Logger) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkg, _, err := openSource(path, env.CodePage, log)
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", path, err)
		}
		if _, err := fmt.Fprintf(out, "== %s\n%s", path, dump.DumpPackage(pkg)); err != nil {
			return err
		}
		log.Debug("Document inspected", zap.String("path", path), zap.Int("parts", len(pkg.Parts())))
	}
	return nil
}
