package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cb2cbz/cb2cbz/internal/runner"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a config file",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "config-file",
			UsageText: "The config file to validate",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		configFilename := command.StringArg("config-file")
		if configFilename == "" {
			return fmt.Errorf("no config file provided")
		}

		logger = logger.With(zap.String("config_filename", configFilename))
		logger.Debug("validating config file")

		w := command.Root().Writer
		cfg, err := runner.LoadConfig(afero.NewOsFs(), configFilename)
		if err != nil {
			fmt.Fprintln(w, formatValidationError(err))
			return fmt.Errorf("config file '%s' is invalid", configFilename)
		}

		// building the runner checks codec options and external encoders
		r, err := runner.New(ctx, logger.Named("runner"), cfg)
		if err != nil {
			return fmt.Errorf("config file '%s' is invalid: %w", configFilename, err)
		}

		if cfg.Output != "" {
			if _, err := r.ResolveOutput("example.cbr", ""); err != nil {
				return fmt.Errorf("config file '%s' has an invalid output template: %w", configFilename, err)
			}
		}

		fmt.Fprintf(w, "✓ Config file '%s' is valid\n", configFilename)
		return nil
	},
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("config file has %d validation error(s):", len(validationErrs)))
		for _, fe := range validationErrs {
			sb.WriteString(fmt.Sprintf("\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			if fe.Param() != "" {
				sb.WriteString(fmt.Sprintf(" (param: %s)", fe.Param()))
			}
		}
		return errors.New(sb.String())
	}
	return err
}
