package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	v1 "github.com/cb2cbz/cb2cbz/apis/v1"
	"github.com/cb2cbz/cb2cbz/internal/engine/codecs"
	"github.com/cb2cbz/cb2cbz/internal/engine/sinks"
	"github.com/cb2cbz/cb2cbz/internal/runner"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func convertFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f", "image-format"},
			Usage:   "Target image format (no-change, png, jpeg, jpegli, jpegxl)",
		},
		&cli.IntFlag{
			Name:    "quality",
			Aliases: []string{"q"},
			Usage:   "Image quality, 0..100 (png: zlib level 0..9)",
		},
		&cli.StringFlag{
			Name:    "options",
			Aliases: []string{"O"},
			Usage:   `Encoder options as "name=value,name=value"`,
		},
		&cli.BoolFlag{
			Name:  "force-reencode",
			Usage: "Re-encode images that are already in the target format",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Abort when an image cannot be decoded or encoded",
		},
		&cli.StringFlag{
			Name:  "classify",
			Usage: "How entries are recognised as images (auto, extension, content)",
		},
		&cli.StringFlag{
			Name:  "compression",
			Usage: "Zip compression (store, deflate)",
		},
		&cli.IntFlag{
			Name:  "compression-level",
			Usage: "Deflate level, 1..9",
		},
		&cli.StringFlag{
			Name:  "duplicates",
			Usage: "What to do when two entries end up with the same name (warn, error)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output path or template, - for stdout",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Do not print converted entries",
		},
	}
}

func convertAction(ctx context.Context, command *cli.Command) error {
	logger := getLogger(ctx)

	input := command.StringArg("input-file")
	if input == "" {
		return fmt.Errorf("no input file provided")
	}
	output := command.StringArg("output-file")
	if output != "" && command.IsSet("output") {
		return fmt.Errorf("output given both as argument and with --output")
	}

	fs := afero.NewOsFs()
	cfg, err := loadConfig(fs, command)
	if err != nil {
		return err
	}

	overrides, err := overridesFromFlags(command)
	if err != nil {
		return err
	}
	cfg = overrides.Apply(cfg)

	logger = logger.With(zap.String("input", input))

	p := newPrinter(os.Stdout, command.Bool("quiet"), false)
	r, err := runner.New(ctx, logger.Named("runner"), cfg, runner.WithFs(fs), runner.WithEntryObserver(p.Entry))
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	destination, err := r.ResolveOutput(input, output)
	if err != nil {
		return err
	}

	out := os.Stdout
	if destination == sinks.StreamPath {
		if isInteractive(ctx) {
			return fmt.Errorf("refusing to write archive data to a terminal")
		}
		out = os.Stderr
	}
	p.setOutput(out, isTerminal(out))

	logger.Info("converting",
		zap.String("destination", destination),
		zap.String("image_format", string(r.ImageFormat())),
	)
	report, err := r.Run(ctx, input, destination)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", input, err)
	}

	p.Summary(report)
	return nil
}

// loadConfig reads --config, or the default config file when it exists.
func loadConfig(fs afero.Fs, command *cli.Command) (v1.ConvertConfig, error) {
	if path := command.String("config"); path != "" {
		return runner.LoadConfig(fs, path)
	}
	cfg, _, err := runner.LoadDefaultConfig(fs)
	return cfg, err
}

func overridesFromFlags(command *cli.Command) (runner.Overrides, error) {
	var o runner.Overrides

	stringFlag := func(name string) *string {
		if !command.IsSet(name) {
			return nil
		}
		return lo.ToPtr(strings.TrimSpace(command.String(name)))
	}
	intFlag := func(name string) *int {
		if !command.IsSet(name) {
			return nil
		}
		return lo.ToPtr(command.Int(name))
	}
	boolFlag := func(name string) *bool {
		if !command.IsSet(name) {
			return nil
		}
		return lo.ToPtr(command.Bool(name))
	}

	o.Format = stringFlag("format")
	o.Quality = intFlag("quality")
	o.ForceReencode = boolFlag("force-reencode")
	o.Strict = boolFlag("strict")
	o.Classify = stringFlag("classify")
	o.Compression = stringFlag("compression")
	o.Level = intFlag("compression-level")
	o.Duplicates = stringFlag("duplicates")
	o.Output = stringFlag("output")

	if command.IsSet("options") {
		options, err := codecs.ParseOptionString(command.String("options"))
		if err != nil {
			return runner.Overrides{}, fmt.Errorf("invalid --options: %w", err)
		}
		o.Options = options
	}

	return o, nil
}
