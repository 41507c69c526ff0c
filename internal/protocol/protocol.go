// Package protocol defines the clipr request/response wire format.
//
// A request is exactly one text line: a verb followed by shell-quoted
// arguments, so tag names and file paths containing spaces are
// representable. A response is exactly one line of JSON: <json>\n.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"
)

// MaxLineSize is the largest request or response line (16 MiB).
const MaxLineSize = 16 * 1024 * 1024

// Code classifies a failed request.
type Code string

const (
	CodeNotFound        Code = "not_found"
	CodeInvalidArgument Code = "invalid_argument"
	CodeIO              Code = "io_error"
	CodeCorrupt         Code = "corrupt"
	CodeUnavailable     Code = "unavailable"
)

// Error is a protocol-level failure carrying a response code.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds an *Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Request is a parsed command line.
type Request struct {
	Verb string
	Args []string
}

// ParseLine tokenizes one request line with shell-like quoting rules.
// An empty line or unbalanced quoting yields an invalid_argument Error.
func ParseLine(line string) (Request, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return Request{}, Errorf(CodeInvalidArgument, "bad quoting: %v", err)
	}
	if len(tokens) == 0 {
		return Request{}, Errorf(CodeInvalidArgument, "empty request")
	}
	args := tokens[1:]
	// clap-style "--" separator before free-form values, kept for
	// compatibility with the original grammar: "select -- tag work".
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}
	return Request{Verb: strings.ToLower(tokens[0]), Args: args}, nil
}

// QuoteArg quotes a single argument so that ParseLine reproduces it exactly.
// Plain tokens pass through unquoted.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// FormatLine renders a verb and arguments as one request line.
func FormatLine(verb string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, verb)
	for _, a := range args {
		parts = append(parts, QuoteArg(a))
	}
	return strings.Join(parts, " ")
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Row is one record of a multi-row result (list, select).
type Row struct {
	ID        uint64    `json:"id"`
	Position  int       `json:"position"`
	Preview   string    `json:"preview"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is the envelope for every reply. Exactly one of Value, Rows or
// Tags is populated on success; Code and Message are set on error.
type Response struct {
	Status  string   `json:"status"`
	Value   string   `json:"value,omitempty"`
	Rows    []Row    `json:"rows,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Code    Code     `json:"code,omitempty"`
	Message string   `json:"message,omitempty"`
}

// OK is the bare success response.
func OK() Response { return Response{Status: StatusOK} }

// Scalar wraps a single string payload.
func Scalar(v string) Response { return Response{Status: StatusOK, Value: v} }

// RowsOf wraps a multi-row result.
func RowsOf(rows []Row) Response { return Response{Status: StatusOK, Rows: rows} }

// TagsOf wraps a tag-name listing.
func TagsOf(tags []string) Response { return Response{Status: StatusOK, Tags: tags} }

// Fail builds an error response.
func Fail(code Code, format string, args ...any) Response {
	return Response{Status: StatusError, Code: code, Message: fmt.Sprintf(format, args...)}
}

// FromError converts an error into an error response, preserving the code of
// a *protocol.Error and defaulting anything else to io_error.
func FromError(err error) Response {
	var pe *Error
	if errors.As(err, &pe) {
		return Response{Status: StatusError, Code: pe.Code, Message: pe.Message}
	}
	return Response{Status: StatusError, Code: CodeIO, Message: err.Error()}
}

// Err reports the response as a Go error, nil for success responses.
func (r Response) Err() error {
	if r.Status != StatusError {
		return nil
	}
	return &Error{Code: r.Code, Message: r.Message}
}

// Encode serialises the response to JSON without a trailing newline.
func (r Response) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponse deserialises a response from raw JSON bytes.
func DecodeResponse(b []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return Response{}, fmt.Errorf("response decode: %w", err)
	}
	return r, nil
}
