package contacts

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
)

const defaultOSAScriptPath = "/usr/bin/osascript"

// Bridge runs an AppleScript against the Contacts app and returns its
// trimmed stdout. script holds one source line per element; args are
// delivered to the script's `on run argv` handler.
type Bridge interface {
	Run(ctx context.Context, script []string, args []string) (string, error)
}

// OSAScript is the Bridge backed by the osascript binary. The zero value
// uses /usr/bin/osascript.
type OSAScript struct {
	Path string
}

// Run executes script through osascript. ctx cancellation kills the process.
func (o OSAScript) Run(ctx context.Context, script []string, args []string) (string, error) {
	path := o.Path
	if path == "" {
		path = defaultOSAScriptPath
	}
	return runAppleScript(ctx, path, script, args)
}

func osascriptArgs(script []string, args []string) []string {
	cmdArgs := make([]string, 0, len(script)*2+len(args))
	for _, line := range script {
		cmdArgs = append(cmdArgs, "-e", line)
	}
	return append(cmdArgs, args...)
}

// classifyRunError maps an osascript failure and its combined output onto a
// typed *Error.
func classifyRunError(ctx context.Context, err error, output string) error {
	output = strings.TrimSpace(output)
	msg := output
	if msg == "" {
		msg = err.Error()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Error{Code: ErrorCodeCanceled, Message: ctxErr.Error(), Err: ctxErr}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrUnsupportedPlatform) {
		return &Error{Code: ErrorCodeUnavailable, Message: msg, Err: err}
	}

	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "(-1743)"), strings.Contains(lower, "not authorized to send apple events"), strings.Contains(lower, "not allowed assistive access"):
		return &Error{Code: ErrorCodePermissionDenied, Message: msg, Err: err}
	case strings.Contains(lower, "(-600)"), strings.Contains(lower, "isn't running"), strings.Contains(lower, "isn’t running"), strings.Contains(lower, "can't get application"), strings.Contains(lower, "can’t get application"):
		return &Error{Code: ErrorCodeUnavailable, Message: msg, Err: err}
	default:
		return &Error{Code: ErrorCodeScript, Message: msg, Err: err}
	}
}

func codeOf(err error) ErrorCode {
	var contactsErr *Error
	if errors.As(err, &contactsErr) {
		return contactsErr.Code
	}
	return ErrorCodeScript
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func firstLine(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line)
}
