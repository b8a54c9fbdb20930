//go:build !darwin

package contacts

import "context"

func runAppleScript(ctx context.Context, path string, script []string, args []string) (string, error) {
	_, _, _ = path, script, args
	return "", classifyRunError(ctx, ErrUnsupportedPlatform, "")
}
