// Package ipc locates, listens on and dials the local socket the clipkeep
// daemon serves its command surface on. CLI sub-commands probe it and fall
// back to opening the store directly when no daemon is running.
//
// The socket carries the same gRPC ClipService and HTTP routes as the
// optional TCP listener, without authentication: it is owner-restricted by
// the OS.
package ipc

import (
	"context"
	"net"
	"os"
	"time"
)

// EnvSocket overrides the default socket path.
const EnvSocket = "CLIPKEEP_SOCKET"

// Path returns the socket path: override if set, else $CLIPKEEP_SOCKET,
// else the platform default.
//
//   - Linux / macOS: $XDG_RUNTIME_DIR/clipkeep.sock
//   - Windows:       \\.\pipe\clipkeep
func Path(override string) string {
	if override != "" {
		return override
	}
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return defaultPath()
}

// IsRunning reports whether something is accepting connections on path.
// It does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	c, err := Dial(ctx, path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on path.
func Listen(path string) (net.Listener, error) {
	return listen(path)
}

// Dial connects to the listener on path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	return dial(ctx, path)
}
