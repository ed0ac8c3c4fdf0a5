package main

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// Build information populated at init() from debug.ReadBuildInfo().
var (
	Version   = "dev"
	GoVersion = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
	Modified  bool
)

func init() {
	parseBuildInfo()
}

func parseBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	GoVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
		case "vcs.time":
			BuildTime = setting.Value
		case "vcs.modified":
			Modified = setting.Value == "true"
		}
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Action: func(ctx context.Context, command *cli.Command) error {
		w := command.Root().Writer
		fmt.Fprintf(w, "cb2cbz %s\n", Version)
		fmt.Fprintf(w, "go: %s\n", GoVersion)
		if Commit != "unknown" {
			dirty := ""
			if Modified {
				dirty = " (dirty)"
			}
			fmt.Fprintf(w, "commit: %s%s\n", Commit, dirty)
		}
		if BuildTime != "unknown" {
			fmt.Fprintf(w, "built: %s\n", BuildTime)
		}
		return nil
	},
}
