package main

import (
	"fmt"
	"io"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/fatih/color"
)

// printer writes the human readable progress of a conversion.
type printer struct {
	out   io.Writer
	quiet bool

	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
}

func newPrinter(out io.Writer, quiet, colored bool) *printer {
	p := &printer{quiet: quiet}
	p.setOutput(out, colored)
	return p
}

func (p *printer) setOutput(out io.Writer, colored bool) {
	p.out = out
	if !colored {
		plain := func(a ...interface{}) string { return fmt.Sprint(a...) }
		p.green, p.yellow, p.cyan, p.gray = plain, plain, plain, plain
		return
	}

	// colored is decided for out, which may be stderr, so override the stdout detection of color
	sprint := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	p.green = sprint(color.FgGreen)
	p.yellow = sprint(color.FgYellow)
	p.cyan = sprint(color.FgCyan)
	p.gray = sprint(color.FgHiBlack)
}

// Entry prints "old → new" for one written entry.
func (p *printer) Entry(res engine.EntryResult) {
	if p.quiet {
		return
	}

	switch {
	case res.Warning != nil:
		fmt.Fprintf(p.out, "%s → %s %s\n", res.Source, res.Destination, p.yellow("(", res.Warning, ")"))
	case res.Action == engine.ActionConverted:
		fmt.Fprintf(p.out, "%s → %s\n", res.Source, p.green(res.Destination))
	case res.Action == engine.ActionKept:
		fmt.Fprintf(p.out, "%s → %s %s\n", res.Source, p.cyan(res.Destination), p.gray("(kept)"))
	default:
		fmt.Fprintf(p.out, "%s → %s\n", res.Source, res.Destination)
	}
}

// Summary prints the totals of a finished conversion.
func (p *printer) Summary(report *engine.Report) {
	if p.quiet {
		return
	}

	fmt.Fprintf(p.out, "%s %s: %d converted, %d kept, %d copied, %d directories",
		p.green("✓"),
		report.DestinationPath,
		report.Count(engine.ActionConverted),
		report.Count(engine.ActionKept),
		report.Count(engine.ActionCopied),
		report.Count(engine.ActionDirectory),
	)
	if n := len(report.Warnings); n > 0 {
		fmt.Fprintf(p.out, ", %s", p.yellow(fmt.Sprintf("%d warning(s)", n)))
	}
	fmt.Fprintln(p.out)
}
