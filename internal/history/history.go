// Package history implements the in-memory clipboard history: an ordered,
// deduplicated sequence of entries with a tag index. It does no I/O and is
// not safe for concurrent use — the daemon's owner goroutine is the only
// caller.
package history

import (
	"container/list"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNotFound is returned for operations on an id with no live entry.
var ErrNotFound = errors.New("entry not found")

// Entry is one clipboard-history record. Pin and ExpiresAt are reserved for
// planned pinned/expiring entries; they round-trip through snapshots but are
// otherwise uninterpreted.
type Entry struct {
	ID        uint64
	Content   string
	CreatedAt time.Time
	Tags      map[string]struct{}
	Pin       string
	ExpiresAt *time.Time
}

// TagList returns the entry's tags sorted lexicographically.
func (e *Entry) TagList() []string {
	if len(e.Tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.Tags))
	for t := range e.Tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Summary is the listing view of an entry: position in the current order,
// preview truncated for display, and the joined tag list.
type Summary struct {
	ID        uint64
	Position  int
	Preview   string
	Tags      []string
	CreatedAt time.Time
}

// Store holds the history. Most-recent entry is at the front of order.
// byContent gives O(1) dedup, tags is the reverse index tag → set of ids.
type Store struct {
	order     *list.List // of *Entry
	byID      map[uint64]*list.Element
	byContent map[string]uint64
	tags      map[string]map[uint64]struct{}
	nextID    uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		order:     list.New(),
		byID:      make(map[uint64]*list.Element),
		byContent: make(map[string]uint64),
		tags:      make(map[string]map[uint64]struct{}),
		nextID:    1,
	}
}

// Len returns the number of live entries.
func (s *Store) Len() int { return s.order.Len() }

// Insert adds content at the front of the history. If an entry with identical
// content already exists it is promoted instead: moved to the front, timestamp
// refreshed, id and tags untouched. No new entry is allocated and the content
// is not copied in that case. Reports the entry id and whether a new entry
// was created.
func (s *Store) Insert(content string) (uint64, bool) {
	if id, ok := s.byContent[content]; ok {
		el := s.byID[id]
		s.order.MoveToFront(el)
		el.Value.(*Entry).CreatedAt = time.Now()
		return id, false
	}

	e := &Entry{
		ID:        s.nextID,
		Content:   content,
		CreatedAt: time.Now(),
		Tags:      make(map[string]struct{}),
	}
	s.nextID++
	s.byID[e.ID] = s.order.PushFront(e)
	s.byContent[content] = e.ID
	return e.ID, true
}

// Get returns the content of the entry with the given id.
func (s *Store) Get(id uint64) (string, error) {
	el, ok := s.byID[id]
	if !ok {
		return "", ErrNotFound
	}
	return el.Value.(*Entry).Content, nil
}

// Select returns the entry's content and promotes it to the front,
// refreshing its timestamp. Tags are not touched.
func (s *Store) Select(id uint64) (string, error) {
	el, ok := s.byID[id]
	if !ok {
		return "", ErrNotFound
	}
	s.order.MoveToFront(el)
	e := el.Value.(*Entry)
	e.CreatedAt = time.Now()
	return e.Content, nil
}

// Delete removes the entry and its membership in every tag bucket.
func (s *Store) Delete(id uint64) error {
	el, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	e := el.Value.(*Entry)
	for t := range e.Tags {
		s.dropFromBucket(t, id)
	}
	s.order.Remove(el)
	delete(s.byID, id)
	delete(s.byContent, e.Content)
	return nil
}

// NormalizeTag case-normalizes a tag name.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Tag adds a normalized tag to the entry. Tagging with an already-present
// tag is a no-op, not an error.
func (s *Store) Tag(id uint64, name string) error {
	el, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	name = NormalizeTag(name)
	if name == "" {
		return nil
	}
	e := el.Value.(*Entry)
	if _, ok := e.Tags[name]; ok {
		return nil
	}
	e.Tags[name] = struct{}{}
	bucket, ok := s.tags[name]
	if !ok {
		bucket = make(map[uint64]struct{})
		s.tags[name] = bucket
	}
	bucket[id] = struct{}{}
	return nil
}

// Untag removes a tag from the entry. Untagging an absent tag is a no-op.
func (s *Store) Untag(id uint64, name string) error {
	el, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	name = NormalizeTag(name)
	e := el.Value.(*Entry)
	if _, ok := e.Tags[name]; !ok {
		return nil
	}
	delete(e.Tags, name)
	s.dropFromBucket(name, id)
	return nil
}

// dropFromBucket removes id from a tag bucket, deleting the bucket when it
// becomes empty so ListTags never reports a dead tag.
func (s *Store) dropFromBucket(name string, id uint64) {
	bucket := s.tags[name]
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(s.tags, name)
	}
}

// ListTags returns all tag names carried by at least one entry, sorted.
func (s *Store) ListTags() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// List returns summaries in recency order. offset skips from the front,
// limit 0 means unbounded, previewLen 0 disables truncation. If tag is
// non-empty only entries carrying that tag are included; offset and limit
// apply to the filtered sequence.
func (s *Store) List(offset, limit, previewLen int, tag string) []Summary {
	return s.collect(offset, limit, previewLen, func(e *Entry) bool {
		if tag == "" {
			return true
		}
		_, ok := e.Tags[NormalizeTag(tag)]
		return ok
	})
}

// SelectByTag returns every entry carrying the tag, in recency order.
func (s *Store) SelectByTag(name string) []Summary {
	return s.List(0, 0, 0, name)
}

// SelectByValue returns every entry whose content contains substr, in
// recency order.
func (s *Store) SelectByValue(substr string) []Summary {
	return s.collect(0, 0, 0, func(e *Entry) bool {
		return strings.Contains(e.Content, substr)
	})
}

func (s *Store) collect(offset, limit, previewLen int, keep func(*Entry) bool) []Summary {
	var out []Summary
	pos := 0
	for el := s.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*Entry)
		if !keep(e) {
			continue
		}
		if pos >= offset {
			out = append(out, Summary{
				ID:        e.ID,
				Position:  pos,
				Preview:   Preview(e.Content, previewLen),
				Tags:      e.TagList(),
				CreatedAt: e.CreatedAt,
			})
			if limit > 0 && len(out) == limit {
				break
			}
		}
		pos++
	}
	return out
}

// Entries returns the live entries front to back. The returned slice shares
// the stored *Entry values; callers must not mutate them.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Entry))
	}
	return out
}

// Restore builds a Store from entries given front to back, rebuilding the
// content and tag indexes. Tag names are normalized and a later duplicate of
// earlier content is skipped. nextID resumes past the highest restored id.
func Restore(entries []*Entry) *Store {
	s := New()
	for _, e := range entries {
		if _, dup := s.byContent[e.Content]; dup {
			continue
		}
		normalized := make(map[string]struct{}, len(e.Tags))
		for t := range e.Tags {
			if n := NormalizeTag(t); n != "" {
				normalized[n] = struct{}{}
			}
		}
		e.Tags = normalized
		s.byID[e.ID] = s.order.PushBack(e)
		s.byContent[e.Content] = e.ID
		for t := range e.Tags {
			bucket, ok := s.tags[t]
			if !ok {
				bucket = make(map[uint64]struct{})
				s.tags[t] = bucket
			}
			bucket[e.ID] = struct{}{}
		}
		if e.ID >= s.nextID {
			s.nextID = e.ID + 1
		}
	}
	return s
}

// Preview truncates content for display: only the first line is shown, cut
// after max runes with an ellipsis. max 0 disables the length cut. The cut
// never lands inside a multi-byte character.
func Preview(content string, max int) string {
	cut := false
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
		cut = true
	}
	if max > 0 && utf8.RuneCountInString(content) > max {
		n := 0
		for i := range content {
			if n == max {
				content = content[:i]
				break
			}
			n++
		}
		cut = true
	}
	if cut {
		return content + "…"
	}
	return content
}
