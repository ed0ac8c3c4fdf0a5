package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cb2cbz/cb2cbz/internal/runner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

var inspectCommand = &cli.Command{
	Name:  "inspect",
	Usage: "List the entries of an archive and how they would be converted",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "input-file",
			UsageText: "The comic book archive to inspect",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		input := command.StringArg("input-file")
		if input == "" {
			return fmt.Errorf("no input file provided")
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

		r, err := runner.New(ctx, logger.Named("runner"), cfg, runner.WithFs(fs))
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}

		inspection, err := r.Inspect(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", input, err)
		}

		w := command.Root().Writer
		fmt.Fprintf(w, "%s (%s, %d entries)\n", inspection.Path, inspection.Format, len(inspection.Entries))
		fmt.Fprintln(w, renderInspection(inspection))
		return nil
	},
}

func renderInspection(inspection *runner.Inspection) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Entry", "Size", "Type", "Dimensions", "Destination"})

	for _, e := range inspection.Entries {
		if e.IsDir {
			tw.AppendRow(table.Row{e.Name, "", "directory", "", e.Target})
			continue
		}

		kind := e.MIME
		if e.Image {
			kind = "image"
			if e.Format != "" {
				kind += " (" + e.Format + ")"
			}
		}
		dims := ""
		if e.Width > 0 {
			dims = fmt.Sprintf("%dx%d", e.Width, e.Height)
		}
		tw.AppendRow(table.Row{e.Name, strconv.Itoa(e.Size), kind, dims, e.Target})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
