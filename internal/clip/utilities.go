package clip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

const utilityTimeout = 2 * time.Second

// runFunc executes name with args. With a nil stdin it returns stdout; with
// a non-nil stdin it feeds it to the process and returns no output.
type runFunc func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		// Writers daemonize to serve the selection; waiting on stdout would block.
		cmd.Stdin = bytes.NewReader(stdin)
		return nil, cmd.Run()
	}
	return cmd.Output()
}

// utility is an external clipboard program pair (reader and writer).
type utility struct {
	name      string
	readCmd   string
	readArgs  func(mime string) []string
	writeCmd  string
	writeArgs func(mime string) []string
}

var xclip = utility{
	name:    "xclip",
	readCmd: "xclip",
	readArgs: func(mime string) []string {
		return []string{"-selection", "clipboard", "-t", mime, "-o"}
	},
	writeCmd: "xclip",
	writeArgs: func(mime string) []string {
		return []string{"-selection", "clipboard", "-t", mime, "-i"}
	},
}

var wlClipboard = utility{
	name:    "wl-clipboard",
	readCmd: "wl-paste",
	readArgs: func(mime string) []string {
		return []string{"--no-newline", "--type", mime}
	},
	writeCmd: "wl-copy",
	writeArgs: func(mime string) []string {
		return []string{"--type", mime}
	},
}

// utilities tries each clipboard program in preference order.
type utilities struct {
	order []utility
	run   runFunc
}

func newUtilities(ds DisplayServer, waylandSession bool, run runFunc) *utilities {
	if run == nil {
		run = execRun
	}
	order := []utility{xclip, wlClipboard}
	if ds == DisplayWayland || (ds == DisplayAuto && waylandSession) {
		order = []utility{wlClipboard, xclip}
	}
	return &utilities{order: order, run: run}
}

// Read returns the first non-empty payload for mime. ErrUnavailable means no
// utility is installed; ErrAbsent means none produced data.
func (u *utilities) Read(mime string) ([]byte, error) {
	installed := false
	for _, t := range u.order {
		ctx, cancel := context.WithTimeout(context.Background(), utilityTimeout)
		out, err := u.run(ctx, nil, t.readCmd, t.readArgs(mime)...)
		cancel()
		if errors.Is(err, exec.ErrNotFound) {
			continue
		}
		installed = true
		if err == nil && len(out) > 0 {
			return out, nil
		}
	}
	if !installed {
		return nil, ErrUnavailable
	}
	return nil, ErrAbsent
}

// Write hands data to the first utility that accepts it.
func (u *utilities) Write(mime string, data []byte) error {
	var lastErr error = ErrUnavailable
	for _, t := range u.order {
		ctx, cancel := context.WithTimeout(context.Background(), utilityTimeout)
		_, err := u.run(ctx, data, t.writeCmd, t.writeArgs(mime)...)
		cancel()
		if err == nil {
			return nil
		}
		if !errors.Is(err, exec.ErrNotFound) {
			lastErr = fmt.Errorf("%s: %w", t.writeCmd, err)
		}
	}
	return lastErr
}
