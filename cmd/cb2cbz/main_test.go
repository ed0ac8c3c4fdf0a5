package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/cb2cbz/cb2cbz/internal/runner"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func parseOverrides(t *testing.T, args ...string) (runner.Overrides, error) {
	t.Helper()
	var (
		overrides runner.Overrides
		parseErr  error
	)
	cmd := &cli.Command{
		Name:  "cb2cbz",
		Flags: convertFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			overrides, parseErr = overridesFromFlags(command)
			return nil
		},
	}
	require.NoError(t, cmd.Run(t.Context(), append([]string{"cb2cbz"}, args...)))
	return overrides, parseErr
}

func TestOverridesFromFlags(t *testing.T) {
	t.Run("nothing set", func(t *testing.T) {
		o, err := parseOverrides(t)
		require.NoError(t, err)
		assert.Equal(t, runner.Overrides{}, o)
	})

	t.Run("every flag", func(t *testing.T) {
		o, err := parseOverrides(t,
			"-f", "jxl", "-q", "95", "-O", "effort=9", "--force-reencode", "--strict",
			"--classify", "content", "--compression", "deflate", "--compression-level", "4",
			"--duplicates", "error", "-o", "out.cbz",
		)
		require.NoError(t, err)

		assert.Equal(t, runner.Overrides{
			Format:        lo.ToPtr("jxl"),
			Quality:       lo.ToPtr(95),
			Options:       map[string]string{"effort": "9"},
			ForceReencode: lo.ToPtr(true),
			Strict:        lo.ToPtr(true),
			Classify:      lo.ToPtr("content"),
			Compression:   lo.ToPtr("deflate"),
			Level:         lo.ToPtr(4),
			Duplicates:    lo.ToPtr("error"),
			Output:        lo.ToPtr("out.cbz"),
		}, o)
	})

	t.Run("image-format alias", func(t *testing.T) {
		o, err := parseOverrides(t, "--image-format", "png")
		require.NoError(t, err)
		assert.Equal(t, lo.ToPtr("png"), o.Format)
	})

	t.Run("bad options", func(t *testing.T) {
		_, err := parseOverrides(t, "-O", "effort=")
		require.ErrorContains(t, err, "invalid --options: effort option value is empty")
	})
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf, false, false)

	p.Entry(engine.EntryResult{Source: "001.png", Destination: "001.jxl", Action: engine.ActionConverted})
	p.Entry(engine.EntryResult{Source: "002.jxl", Destination: "002.jxl", Action: engine.ActionKept})
	p.Entry(engine.EntryResult{Source: "003.png", Destination: "003.png", Action: engine.ActionCopied, Warning: errors.New("cannot decode")})
	p.Summary(&engine.Report{
		DestinationPath: "book.cbz",
		Entries: []engine.EntryResult{
			{Action: engine.ActionConverted},
			{Action: engine.ActionKept},
			{Action: engine.ActionCopied},
		},
		Warnings: []error{errors.New("cannot decode")},
	})

	assert.Equal(t, "001.png → 001.jxl\n"+
		"002.jxl → 002.jxl (kept)\n"+
		"003.png → 003.png (cannot decode)\n"+
		"✓ book.cbz: 1 converted, 1 kept, 1 copied, 0 directories, 1 warning(s)\n", buf.String())

	t.Run("quiet", func(t *testing.T) {
		var buf bytes.Buffer
		p := newPrinter(&buf, true, true)
		p.Entry(engine.EntryResult{Source: "a", Destination: "b"})
		p.Summary(&engine.Report{})
		assert.Empty(t, buf.String())
	})
}
