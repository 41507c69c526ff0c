package daemon

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"go.klb.dev/clipr/internal/history"
	"go.klb.dev/clipr/internal/protocol"
	"go.klb.dev/clipr/internal/snapshot"
)

const defaultPreviewLen = 64

const usage = `verbs:
  list [offset] [limit] [preview_len] [tag]   list entries, most recent first
  get <id>                                    print entry content
  set <id>                                    promote entry and copy it out
  del <id>                                    delete entry
  tag <id> <tag>                              add a tag
  untag <id> <tag>                            remove a tag
  tags                                        list all tags
  select -- tag <tag>                         entries carrying a tag
  select -- value <substr>                    entries containing a substring
  insert <path>                               insert file contents
  add <text>                                  place text on the system clipboard
  count                                       number of entries
  save / load                                 snapshot to / from disk
  help                                        this text`

// Dispatch parses one request line, executes it, and returns the response.
// Malformed input yields an error response, never a dropped connection.
func (d *Daemon) Dispatch(ctx context.Context, line string) protocol.Response {
	req, err := protocol.ParseLine(line)
	if err != nil {
		return protocol.FromError(err)
	}
	resp := d.dispatch(ctx, req)
	d.m.RequestsTotal.WithLabelValues(req.Verb, resp.Status).Inc()
	return resp
}

func (d *Daemon) dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	switch req.Verb {
	case "list":
		return d.list(ctx, req.Args)
	case "get":
		return d.get(ctx, req.Args)
	case "set":
		return d.set(ctx, req.Args)
	case "del":
		return d.del(ctx, req.Args)
	case "tag":
		return d.tag(ctx, req.Args, true)
	case "untag":
		return d.tag(ctx, req.Args, false)
	case "tags":
		return d.do(ctx, func() protocol.Response {
			return protocol.TagsOf(d.store.ListTags())
		})
	case "select":
		return d.selectBy(ctx, req.Args)
	case "insert":
		return d.insertFile(ctx, req.Args)
	case "add":
		return d.add(req.Args)
	case "count":
		return d.do(ctx, func() protocol.Response {
			return protocol.Scalar(strconv.Itoa(d.store.Len()))
		})
	case "save":
		return d.save(ctx)
	case "load":
		return d.load(ctx)
	case "help":
		return protocol.Scalar(usage)
	default:
		return protocol.Fail(protocol.CodeInvalidArgument, "unknown verb %q", req.Verb)
	}
}

func parseID(arg string) (uint64, *protocol.Error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, protocol.Errorf(protocol.CodeInvalidArgument, "bad id %q", arg)
	}
	return id, nil
}

func parseCount(arg, what string) (int, *protocol.Error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, protocol.Errorf(protocol.CodeInvalidArgument, "bad %s %q", what, arg)
	}
	return n, nil
}

func (d *Daemon) list(ctx context.Context, args []string) protocol.Response {
	offset, limit, previewLen := 0, 0, defaultPreviewLen
	tag := ""
	var perr *protocol.Error
	switch {
	case len(args) > 4:
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: list [offset] [limit] [preview_len] [tag]")
	case len(args) == 4:
		tag = args[3]
		fallthrough
	case len(args) == 3:
		if previewLen, perr = parseCount(args[2], "preview length"); perr != nil {
			return protocol.FromError(perr)
		}
		fallthrough
	case len(args) == 2:
		if limit, perr = parseCount(args[1], "limit"); perr != nil {
			return protocol.FromError(perr)
		}
		fallthrough
	case len(args) == 1:
		if offset, perr = parseCount(args[0], "offset"); perr != nil {
			return protocol.FromError(perr)
		}
	}
	return d.do(ctx, func() protocol.Response {
		return protocol.RowsOf(rows(d.store.List(offset, limit, previewLen, tag)))
	})
}

func (d *Daemon) get(ctx context.Context, args []string) protocol.Response {
	if len(args) != 1 {
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: get <id>")
	}
	id, perr := parseID(args[0])
	if perr != nil {
		return protocol.FromError(perr)
	}
	return d.do(ctx, func() protocol.Response {
		content, err := d.store.Get(id)
		if err != nil {
			return notFound(id)
		}
		return protocol.Scalar(content)
	})
}

func (d *Daemon) set(ctx context.Context, args []string) protocol.Response {
	if len(args) != 1 {
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: set <id>")
	}
	id, perr := parseID(args[0])
	if perr != nil {
		return protocol.FromError(perr)
	}
	resp := d.do(ctx, func() protocol.Response {
		content, err := d.store.Select(id)
		if err != nil {
			return notFound(id)
		}
		d.m.PromotionsTotal.Inc()
		return protocol.Scalar(content)
	})
	if resp.Status == protocol.StatusOK {
		d.copyOut(resp.Value)
	}
	return resp
}

func (d *Daemon) del(ctx context.Context, args []string) protocol.Response {
	if len(args) != 1 {
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: del <id>")
	}
	id, perr := parseID(args[0])
	if perr != nil {
		return protocol.FromError(perr)
	}
	return d.do(ctx, func() protocol.Response {
		if err := d.store.Delete(id); err != nil {
			return notFound(id)
		}
		d.m.DeletesTotal.Inc()
		d.m.Entries.Set(float64(d.store.Len()))
		return protocol.OK()
	})
}

func (d *Daemon) tag(ctx context.Context, args []string, add bool) protocol.Response {
	verb := "tag"
	if !add {
		verb = "untag"
	}
	if len(args) != 2 {
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: %s <id> <tag>", verb)
	}
	id, perr := parseID(args[0])
	if perr != nil {
		return protocol.FromError(perr)
	}
	name := args[1]
	if history.NormalizeTag(name) == "" {
		return protocol.Fail(protocol.CodeInvalidArgument, "empty tag")
	}
	return d.do(ctx, func() protocol.Response {
		var err error
		if add {
			err = d.store.Tag(id, name)
		} else {
			err = d.store.Untag(id, name)
		}
		if err != nil {
			return notFound(id)
		}
		return protocol.OK()
	})
}

func (d *Daemon) selectBy(ctx context.Context, args []string) protocol.Response {
	if len(args) != 2 {
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: select -- tag|value <needle>")
	}
	mode, needle := args[0], args[1]
	switch mode {
	case "tag":
		return d.do(ctx, func() protocol.Response {
			return protocol.RowsOf(rows(d.store.SelectByTag(needle)))
		})
	case "value":
		return d.do(ctx, func() protocol.Response {
			return protocol.RowsOf(rows(d.store.SelectByValue(needle)))
		})
	default:
		return protocol.Fail(protocol.CodeInvalidArgument, "unknown select mode %q", mode)
	}
}

func (d *Daemon) insertFile(ctx context.Context, args []string) protocol.Response {
	if len(args) != 1 {
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: insert <path>")
	}
	// File I/O stays out of the owner loop.
	data, err := os.ReadFile(args[0])
	if err != nil {
		return protocol.Fail(protocol.CodeIO, "read %s: %v", args[0], err)
	}
	return d.do(ctx, func() protocol.Response {
		id, _ := d.insertLocked(string(data))
		return protocol.Scalar(strconv.FormatUint(id, 10))
	})
}

// add places text on the system clipboard without touching the store; the
// watcher captures it like any external copy.
func (d *Daemon) add(args []string) protocol.Response {
	if len(args) == 0 {
		return protocol.Fail(protocol.CodeInvalidArgument, "usage: add <text>")
	}
	if d.opts.Backend == nil {
		return protocol.Fail(protocol.CodeUnavailable, "no clipboard backend")
	}
	text := strings.Join(args, " ")
	if err := d.opts.Backend.WriteText(text); err != nil {
		return protocol.Fail(protocol.CodeIO, "clipboard write: %v", err)
	}
	return protocol.OK()
}

func (d *Daemon) save(ctx context.Context) protocol.Response {
	if d.opts.SnapshotPath == "" {
		return protocol.Fail(protocol.CodeIO, "no snapshot path configured")
	}
	return d.do(ctx, func() protocol.Response {
		if err := snapshot.Save(d.opts.SnapshotPath, d.store); err != nil {
			d.m.SnapshotOpsTotal.WithLabelValues("save", "error").Inc()
			return protocol.Fail(protocol.CodeIO, "save: %v", err)
		}
		d.m.SnapshotOpsTotal.WithLabelValues("save", "ok").Inc()
		return protocol.OK()
	})
}

// load replaces the store wholesale. The snapshot is parsed fully before the
// swap, so a bad file never destroys live data.
func (d *Daemon) load(ctx context.Context) protocol.Response {
	if d.opts.SnapshotPath == "" {
		return protocol.Fail(protocol.CodeIO, "no snapshot path configured")
	}
	return d.do(ctx, func() protocol.Response {
		st, err := snapshot.Load(d.opts.SnapshotPath)
		if err != nil {
			d.m.SnapshotOpsTotal.WithLabelValues("load", "error").Inc()
			var ce *snapshot.CorruptError
			if errors.As(err, &ce) {
				return protocol.Fail(protocol.CodeCorrupt, "load: %v", err)
			}
			return protocol.Fail(protocol.CodeIO, "load: %v", err)
		}
		d.store = st
		d.m.SnapshotOpsTotal.WithLabelValues("load", "ok").Inc()
		d.m.Entries.Set(float64(st.Len()))
		return protocol.OK()
	})
}

func notFound(id uint64) protocol.Response {
	return protocol.Fail(protocol.CodeNotFound, "no entry with id %d", id)
}

func rows(sums []history.Summary) []protocol.Row {
	out := make([]protocol.Row, len(sums))
	for i, s := range sums {
		out[i] = protocol.Row{
			ID:        s.ID,
			Position:  s.Position,
			Preview:   s.Preview,
			Tags:      strings.Join(s.Tags, ","),
			CreatedAt: s.CreatedAt,
		}
	}
	return out
}
