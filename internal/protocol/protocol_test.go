package protocol_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipr/internal/protocol"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		verb string
		args []string
	}{
		{"bare verb", "tags", "tags", []string{}},
		{"simple args", "get 12", "get", []string{"12"}},
		{"verb case folded", "LIST 0 10 64", "list", []string{"0", "10", "64"}},
		{"single quotes", "tag 3 'my tag'", "tag", []string{"3", "my tag"}},
		{"double quotes", `insert "/tmp/a file.txt"`, "insert", []string{"/tmp/a file.txt"}},
		{"separator stripped", "select -- tag work", "select", []string{"tag", "work"}},
		{"escaped quote", `tag 1 'it'\''s'`, "tag", []string{"1", "it's"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := protocol.ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.verb, req.Verb)
			assert.Equal(t, tt.args, req.Args)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{"", "   ", "get 'unterminated"} {
		t.Run(line, func(t *testing.T) {
			_, err := protocol.ParseLine(line)
			var pe *protocol.Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, protocol.CodeInvalidArgument, pe.Code)
		})
	}
}

func TestFormatLineRoundTrip(t *testing.T) {
	args := []string{"3", "a tag with spaces", "it's", `quote"inside`, ""}
	line := protocol.FormatLine("tag", args...)

	req, err := protocol.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, "tag", req.Verb)
	assert.Equal(t, args, req.Args)
}

func TestResponseEncodeDecode(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	resp := protocol.RowsOf([]protocol.Row{
		{ID: 1, Position: 0, Preview: "hello…", Tags: "misc,work", CreatedAt: now},
	})

	raw, err := resp.Encode()
	require.NoError(t, err)
	got, err := protocol.DecodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, resp, got)
	require.NoError(t, got.Err())
}

func TestErrorResponse(t *testing.T) {
	resp := protocol.Fail(protocol.CodeNotFound, "no entry with id %d", 9)
	raw, err := resp.Encode()
	require.NoError(t, err)

	got, err := protocol.DecodeResponse(raw)
	require.NoError(t, err)

	var pe *protocol.Error
	require.ErrorAs(t, got.Err(), &pe)
	assert.Equal(t, protocol.CodeNotFound, pe.Code)
	assert.Equal(t, "no entry with id 9", pe.Message)
}

func TestFromErrorPreservesCode(t *testing.T) {
	err := protocol.Errorf(protocol.CodeCorrupt, "bad header")
	resp := protocol.FromError(err)
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, protocol.CodeCorrupt, resp.Code)

	resp = protocol.FromError(assert.AnError)
	assert.Equal(t, protocol.CodeIO, resp.Code)
}
