package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipr/internal/daemon"
	"go.klb.dev/clipr/internal/protocol"
)

type fakeClipboard struct {
	count   uint64
	text    string
	written []string
}

func (b *fakeClipboard) Name() string               { return "fake" }
func (b *fakeClipboard) ChangeCount() uint64        { return b.count }
func (b *fakeClipboard) ReadText() (string, error)  { return b.text, nil }
func (b *fakeClipboard) Close()                     {}
func (b *fakeClipboard) WriteText(text string) error {
	b.text = text
	b.count++
	b.written = append(b.written, text)
	return nil
}

// newTestDaemon starts a daemon with its owner goroutine running and returns
// a stop func that shuts it down and waits for the final save.
func newTestDaemon(t *testing.T, snapshotPath string, backend *fakeClipboard) (*daemon.Daemon, func()) {
	t.Helper()
	opts := daemon.Options{SnapshotPath: snapshotPath}
	if backend != nil {
		opts.Backend = backend
	}
	d := daemon.New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()
	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		<-done
	}
	t.Cleanup(stop)
	return d, stop
}

func dispatch(t *testing.T, d *daemon.Daemon, line string) protocol.Response {
	t.Helper()
	return d.Dispatch(context.Background(), line)
}

func requireOK(t *testing.T, d *daemon.Daemon, line string) protocol.Response {
	t.Helper()
	resp := dispatch(t, d, line)
	require.Equal(t, protocol.StatusOK, resp.Status, "%s: %s", line, resp.Message)
	return resp
}

func requireCode(t *testing.T, d *daemon.Daemon, line string, code protocol.Code) {
	t.Helper()
	resp := dispatch(t, d, line)
	require.Equal(t, protocol.StatusError, resp.Status, "expected %s to fail", line)
	assert.Equal(t, code, resp.Code)
}

func insertText(t *testing.T, d *daemon.Daemon, content string) uint64 {
	t.Helper()
	require.NoError(t, d.Capture(context.Background(), content))
	rows := requireOK(t, d, "list 0 1 0").Rows
	require.NotEmpty(t, rows)
	return rows[0].ID
}

func previews(rows []protocol.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Preview
	}
	return out
}

func TestCaptureAndList(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)

	ctx := context.Background()
	require.NoError(t, d.Capture(ctx, "a"))
	require.NoError(t, d.Capture(ctx, "b"))
	require.NoError(t, d.Capture(ctx, "a"))

	rows := requireOK(t, d, "list").Rows
	assert.Equal(t, []string{"a", "b"}, previews(rows), "duplicate capture promotes, never duplicates")
	assert.Equal(t, "2", requireOK(t, d, "count").Value)
}

func TestGetSetDel(t *testing.T) {
	backend := &fakeClipboard{}
	d, _ := newTestDaemon(t, "", backend)

	idA := insertText(t, d, "first")
	insertText(t, d, "second")

	resp := requireOK(t, d, protocol.FormatLine("get", itoa(idA)))
	assert.Equal(t, "first", resp.Value)

	// set promotes and copies out.
	resp = requireOK(t, d, protocol.FormatLine("set", itoa(idA)))
	assert.Equal(t, "first", resp.Value)
	assert.Equal(t, []string{"first"}, backend.written)
	rows := requireOK(t, d, "list").Rows
	assert.Equal(t, []string{"first", "second"}, previews(rows))

	requireOK(t, d, protocol.FormatLine("del", itoa(idA)))
	requireCode(t, d, protocol.FormatLine("get", itoa(idA)), protocol.CodeNotFound)
	assert.Equal(t, "1", requireOK(t, d, "count").Value)
}

func TestNotFound(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)

	requireCode(t, d, "get 999", protocol.CodeNotFound)
	requireCode(t, d, "set 999", protocol.CodeNotFound)
	requireCode(t, d, "del 999", protocol.CodeNotFound)
	requireCode(t, d, "tag 999 work", protocol.CodeNotFound)
	requireCode(t, d, "untag 999 work", protocol.CodeNotFound)
}

func TestInvalidArguments(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)

	requireCode(t, d, "frobnicate", protocol.CodeInvalidArgument)
	requireCode(t, d, "get", protocol.CodeInvalidArgument)
	requireCode(t, d, "get abc", protocol.CodeInvalidArgument)
	requireCode(t, d, "get -1", protocol.CodeInvalidArgument)
	requireCode(t, d, "list x", protocol.CodeInvalidArgument)
	requireCode(t, d, "tag 1 ''", protocol.CodeInvalidArgument)
	requireCode(t, d, "select -- color red", protocol.CodeInvalidArgument)
	requireCode(t, d, "get 'unterminated", protocol.CodeInvalidArgument)
}

func TestTagging(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)

	id := insertText(t, d, "snippet")
	requireOK(t, d, protocol.FormatLine("tag", itoa(id), "Work"))

	rows := requireOK(t, d, "select -- tag work").Rows
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
	assert.Equal(t, "work", rows[0].Tags)

	assert.Equal(t, []string{"work"}, requireOK(t, d, "tags").Tags)

	requireOK(t, d, protocol.FormatLine("untag", itoa(id), "WORK"))
	assert.Empty(t, requireOK(t, d, "select -- tag work").Rows)
	assert.Empty(t, requireOK(t, d, "tags").Tags)
}

func TestListTagFilterAndPaging(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)

	idA := insertText(t, d, "alpha")
	insertText(t, d, "beta")
	idC := insertText(t, d, "gamma")
	requireOK(t, d, protocol.FormatLine("tag", itoa(idA), "work"))
	requireOK(t, d, protocol.FormatLine("tag", itoa(idC), "work"))

	rows := requireOK(t, d, "list 0 0 0 work").Rows
	assert.Equal(t, []string{"gamma", "alpha"}, previews(rows))

	rows = requireOK(t, d, "list 1 1 2").Rows
	require.Len(t, rows, 1)
	assert.Equal(t, "be…", rows[0].Preview)
	assert.Equal(t, 1, rows[0].Position)
}

func TestSelectByValue(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)

	insertText(t, d, "hello world")
	insertText(t, d, "goodbye")

	rows := requireOK(t, d, "select -- value world").Rows
	assert.Equal(t, []string{"hello world"}, previews(rows))
}

func TestInsertFile(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)

	path := filepath.Join(t.TempDir(), "snippet.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents\nline two"), 0o600))

	resp := requireOK(t, d, protocol.FormatLine("insert", path))
	require.NotEmpty(t, resp.Value)

	got := requireOK(t, d, protocol.FormatLine("get", resp.Value))
	assert.Equal(t, "file contents\nline two", got.Value)

	requireCode(t, d, protocol.FormatLine("insert", path+".nope"), protocol.CodeIO)
}

func TestAddWritesClipboard(t *testing.T) {
	backend := &fakeClipboard{}
	d, _ := newTestDaemon(t, "", backend)

	requireOK(t, d, "add 'hello there'")
	assert.Equal(t, []string{"hello there"}, backend.written)
	// add does not touch the store; the watcher picks the change up.
	assert.Equal(t, "0", requireOK(t, d, "count").Value)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	d, _ := newTestDaemon(t, path, nil)

	idA := insertText(t, d, "alpha")
	insertText(t, d, "beta")
	requireOK(t, d, protocol.FormatLine("tag", itoa(idA), "work"))
	requireOK(t, d, "save")

	// Mutate, then load: the snapshot state comes back wholesale.
	requireOK(t, d, protocol.FormatLine("del", itoa(idA)))
	requireOK(t, d, "load")

	rows := requireOK(t, d, "list").Rows
	assert.Equal(t, []string{"beta", "alpha"}, previews(rows))
	assert.Equal(t, []string{"work"}, requireOK(t, d, "tags").Tags)
}

func TestLoadMissingLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.jsonl")
	d, _ := newTestDaemon(t, path, nil)

	insertText(t, d, "a")
	insertText(t, d, "b")

	requireCode(t, d, "load", protocol.CodeIO)
	rows := requireOK(t, d, "list").Rows
	assert.Equal(t, []string{"b", "a"}, previews(rows))
}

func TestLoadCorruptLeavesStateUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot\n"), 0o600))
	d, _ := newTestDaemon(t, path, nil)

	insertText(t, d, "live data")

	requireCode(t, d, "load", protocol.CodeCorrupt)
	rows := requireOK(t, d, "list").Rows
	assert.Equal(t, []string{"live data"}, previews(rows))
}

func TestShutdownSavesAndRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	d, stop := newTestDaemon(t, path, nil)

	insertText(t, d, "persist me")
	stop()

	// RestoreOnStart runs before the owner goroutine, as in the daemon binary.
	d2 := daemon.New(daemon.Options{SnapshotPath: path})
	require.NoError(t, d2.RestoreOnStart())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d2.Run(ctx)
	}()
	t.Cleanup(func() { cancel(); <-done })

	rows := requireOK(t, d2, "list").Rows
	assert.Equal(t, []string{"persist me"}, previews(rows))
}

func TestUnavailableAfterShutdown(t *testing.T) {
	d, stop := newTestDaemon(t, "", nil)
	stop()

	requireCode(t, d, "count", protocol.CodeUnavailable)
	require.Error(t, d.Capture(context.Background(), "late"))
}

func TestHelp(t *testing.T) {
	d, _ := newTestDaemon(t, "", nil)
	resp := requireOK(t, d, "help")
	assert.Contains(t, resp.Value, "select -- tag")
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
