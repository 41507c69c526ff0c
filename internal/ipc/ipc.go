// Package ipc provides helpers for the local Unix-socket channel used by the
// clipr CLI to talk to a running daemon without going through TCP.
//
// The socket carries the same line protocol as the TCP listener: one
// shell-quoted request line in, one JSON response line out. CLI sub-commands
// probe for the socket and fall back to the configured TCP address if it is
// absent.
package ipc

import (
	"net"
	"os"
	"path/filepath"
	"runtime"
)

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux / macOS: $TMPDIR/clipr.sock  (override with $CLIPR_SOCKET)
//   - Windows:       \\.\pipe\clipr      (named pipe — not yet implemented)
func SocketPath() string {
	if s := os.Getenv("CLIPR_SOCKET"); s != "" {
		return s
	}
	if runtime.GOOS == "windows" {
		return `\\.\pipe\clipr`
	}
	return filepath.Join(os.TempDir(), "clipr.sock")
}

// IsRunning reports whether a clipr daemon appears to be listening on the
// IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := net.Dial("unix", SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates and returns a net.Listener on the IPC socket path, removing
// any stale socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to the IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", SocketPath())
}
