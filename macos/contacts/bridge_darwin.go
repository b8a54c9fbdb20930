//go:build darwin

package contacts

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

func runAppleScript(ctx context.Context, path string, script []string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, osascriptArgs(script, args)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", classifyRunError(ctx, err, stderr.String()+stdout.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}
