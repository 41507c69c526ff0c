// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_linux.go    — Linux via golang.design/x/clipboard change stream
//	clip_windows.go  — Windows via golang.design/x/clipboard change stream
//	clip_other.go    — headless / container stub
package clip

// Backend is the interface all platform clipboard implementations satisfy.
// Only text payloads are supported.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ChangeCount returns a counter that increases whenever the clipboard
	// contents change. It must be cheap and must not read, copy or allocate
	// clipboard content — callers poll it every tick.
	ChangeCount() uint64

	// ReadText returns the current text contents. An empty string with a
	// nil error means the clipboard is empty or holds no text (including a
	// clear that raced the ChangeCount observation).
	ReadText() (string, error)

	// WriteText replaces the clipboard contents with text. The write bumps
	// the change counter like any external copy would.
	WriteText(text string) error

	// Close releases any resources held by the backend.
	Close()
}
