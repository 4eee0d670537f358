package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"docasm/config"
	"docasm/run"
	"docasm/state"
)

func forceZipCPFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "force-zip-cp",
		Usage: "Force `ENCODING` for ALL non UTF-8 file names in source archives (see IANA.org for character set names)",
	}
}

const sourceHelp = `
SOURCE:
    path[@start[:count]][+flags] - document and selection of its top level body elements
        path may point inside archive: "[path_to_archive]archive.zip[path_in_archive]/file.docx"
        @start[:count] selects count elements starting at start (zero based), all when count is absent
        flags: "s" keep sections, "h" keep headers and footers of kept sections,
               "#ID" put content in place of insert marker ID instead of appending it (must be last)

    Sources are processed in order, the first one provides styles, numbering,
    settings and theme of the result.
`

func assembleCommand() *cli.Command {
	return &cli.Command{
		Name:         "assemble",
		Usage:        "Assembles new document from source document(s)",
		OnUsageError: usageErrorHandler,
		Action:       run.Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "job", Aliases: []string{"j"}, Usage: "read sources and output from job `FILE` (YAML), SOURCE arguments are added after"},
			&cli.StringFlag{Name: "to", Aliases: []string{"o"}, Usage: "result `PATH`, file name or directory (name comes from output_name_template)"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite file"},
			forceZipCPFlag(),
		},
		ArgsUsage:          "SOURCE...",
		CustomHelpTemplate: cli.CommandHelpTemplate + sourceHelp,
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:         "inspect",
		Usage:        "Prints parts, relationships and main document tree of document(s)",
		OnUsageError: usageErrorHandler,
		Action:       run.Inspect,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Aliases: []string{"o"}, Usage: "write to `FILE` instead of STDOUT"},
			forceZipCPFlag(),
		},
		ArgsUsage: "DOCUMENT...",
		CustomHelpTemplate: cli.CommandHelpTemplate + `
DOCUMENT:
    path to docx file, may point inside archive like SOURCE of assemble command
`,
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "dumpconfig",
		Usage: "Dumps either default or actual configuration (YAML)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		OnUsageError: usageErrorHandler,
		Action:       outputConfiguration,
		ArgsUsage:    "DESTINATION",
		CustomHelpTemplate: cli.CommandHelpTemplate + `
DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`,
	}
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data []byte
		err  error
		kind = "actual"
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname, out := cmd.Args().Get(0), os.Stdout
	if len(fname) > 0 {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	} else {
		fname = "STDOUT"
	}
	env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
