package codecs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const toolTimeout = 2 * time.Minute

// runTool runs an external encoder with input on stdin and returns its stdout.
func runTool(ctx context.Context, logger *zap.Logger, tool, binary string, args []string, input []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("invoking "+tool, zap.String("binary", binary), zap.Strings("args", args))
	start := time.Now()
	err := cmd.Run()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	logger.Debug(tool+" finished", zap.Int("exit_code", exitCode), zap.Duration("duration", time.Since(start)))

	if err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out after %s: %s", tool, toolTimeout, stderrStr)
		}
		if stderrStr != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", tool, err, stderrStr)
		}
		return nil, fmt.Errorf("%s failed: %w", tool, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output", tool)
	}
	return stdout.Bytes(), nil
}

// lookupTool resolves binary in PATH unless it is already a path.
func lookupTool(kind, binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s %q not found: %w", kind, binary, err)
	}
	return path, nil
}
