package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipr/internal/history"
)

// checkIndex asserts bidirectional consistency between every entry's tag set
// and the reverse index: t ∈ e.Tags ⇔ e.ID ∈ bucket(t).
func checkIndex(t *testing.T, s *history.Store) {
	t.Helper()
	for _, e := range s.Entries() {
		for tag := range e.Tags {
			found := false
			for _, sum := range s.SelectByTag(tag) {
				if sum.ID == e.ID {
					found = true
				}
			}
			assert.True(t, found, "entry %d tagged %q missing from bucket", e.ID, tag)
		}
	}
	for _, tag := range s.ListTags() {
		for _, sum := range s.SelectByTag(tag) {
			el := findEntry(s, sum.ID)
			require.NotNil(t, el, "bucket %q references dead id %d", tag, sum.ID)
			_, ok := el.Tags[tag]
			assert.True(t, ok, "bucket %q references untagged entry %d", tag, sum.ID)
		}
	}
}

func findEntry(s *history.Store, id uint64) *history.Entry {
	for _, e := range s.Entries() {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func contents(sums []history.Summary) []string {
	out := make([]string, len(sums))
	for i, s := range sums {
		out[i] = s.Preview
	}
	return out
}

func TestInsertDeduplicates(t *testing.T) {
	s := history.New()

	idA, created := s.Insert("a")
	require.True(t, created)
	idB, created := s.Insert("b")
	require.True(t, created)
	require.NotEqual(t, idA, idB)

	// Re-inserting "a" promotes the existing entry instead of creating one.
	id, created := s.Insert("a")
	assert.False(t, created)
	assert.Equal(t, idA, id)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, contents(s.List(0, 0, 0, "")))
}

func TestInsertDuplicateOfFront(t *testing.T) {
	s := history.New()
	id1, _ := s.Insert("same")
	id2, created := s.Insert("same")
	assert.False(t, created)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, s.Len())
}

func TestGetNotFound(t *testing.T) {
	s := history.New()
	_, err := s.Get(999)
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestSelectPromotes(t *testing.T) {
	s := history.New()
	idA, _ := s.Insert("a")
	s.Insert("b")
	s.Insert("c")

	content, err := s.Select(idA)
	require.NoError(t, err)
	assert.Equal(t, "a", content)
	assert.Equal(t, []string{"a", "c", "b"}, contents(s.List(0, 0, 0, "")))

	_, err = s.Select(999)
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestSelectKeepsTags(t *testing.T) {
	s := history.New()
	id, _ := s.Insert("a")
	require.NoError(t, s.Tag(id, "work"))
	_, err := s.Select(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, findEntry(s, id).TagList())
	checkIndex(t, s)
}

func TestTagUntagInverse(t *testing.T) {
	s := history.New()
	id, _ := s.Insert("a")

	require.NoError(t, s.Tag(id, "Work"))
	sums := s.SelectByTag("work")
	require.Len(t, sums, 1)
	assert.Equal(t, id, sums[0].ID)
	checkIndex(t, s)

	require.NoError(t, s.Untag(id, "WORK"))
	assert.Empty(t, s.SelectByTag("work"))
	assert.Empty(t, s.ListTags())
	assert.Empty(t, findEntry(s, id).TagList())
	checkIndex(t, s)
}

func TestTagIdempotent(t *testing.T) {
	s := history.New()
	id, _ := s.Insert("a")

	require.NoError(t, s.Tag(id, "work"))
	require.NoError(t, s.Tag(id, "work"))
	assert.Len(t, s.SelectByTag("work"), 1)

	// Untagging an absent tag is a no-op, not an error.
	require.NoError(t, s.Untag(id, "nope"))
	checkIndex(t, s)
}

func TestTagUnknownID(t *testing.T) {
	s := history.New()
	assert.ErrorIs(t, s.Tag(42, "work"), history.ErrNotFound)
	assert.ErrorIs(t, s.Untag(42, "work"), history.ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	s := history.New()
	idA, _ := s.Insert("a")
	idB, _ := s.Insert("b")
	require.NoError(t, s.Tag(idA, "work"))
	require.NoError(t, s.Tag(idA, "misc"))
	require.NoError(t, s.Tag(idB, "work"))

	require.NoError(t, s.Delete(idA))
	assert.Equal(t, 1, s.Len())
	for _, sum := range s.List(0, 0, 0, "") {
		assert.NotEqual(t, idA, sum.ID)
	}
	assert.Equal(t, []string{"work"}, s.ListTags(), "misc bucket should die with its only entry")
	assert.Len(t, s.SelectByTag("work"), 1)
	checkIndex(t, s)

	assert.ErrorIs(t, s.Delete(idA), history.ErrNotFound)
}

func TestDeleteFreesContent(t *testing.T) {
	s := history.New()
	id, _ := s.Insert("a")
	require.NoError(t, s.Delete(id))

	// Same content may come back; it gets a fresh id.
	id2, created := s.Insert("a")
	assert.True(t, created)
	assert.NotEqual(t, id, id2)
}

func TestListPaging(t *testing.T) {
	s := history.New()
	s.Insert("one")
	s.Insert("two")
	s.Insert("three")
	s.Insert("four")

	all := s.List(0, 0, 0, "")
	require.Equal(t, []string{"four", "three", "two", "one"}, contents(all))
	for i, sum := range all {
		assert.Equal(t, i, sum.Position)
	}

	page := s.List(1, 2, 0, "")
	assert.Equal(t, []string{"three", "two"}, contents(page))
	assert.Equal(t, 1, page[0].Position)

	assert.Empty(t, s.List(10, 0, 0, ""))
}

func TestListTagFilter(t *testing.T) {
	s := history.New()
	idA, _ := s.Insert("a")
	s.Insert("b")
	idC, _ := s.Insert("c")
	require.NoError(t, s.Tag(idA, "work"))
	require.NoError(t, s.Tag(idC, "work"))

	got := s.List(0, 0, 0, "Work")
	require.Len(t, got, 2)
	assert.Equal(t, []string{"c", "a"}, contents(got))
}

func TestEmptyStore(t *testing.T) {
	s := history.New()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.List(0, 0, 0, ""))
	assert.Empty(t, s.ListTags())
	assert.Empty(t, s.SelectByTag("work"))
	assert.Empty(t, s.SelectByValue("x"))
}

func TestSelectByValue(t *testing.T) {
	s := history.New()
	s.Insert("hello world")
	s.Insert("goodbye")
	s.Insert("world peace")

	got := s.SelectByValue("world")
	assert.Equal(t, []string{"world peace", "hello world"}, contents(got))
}

func TestPreviewTruncation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{"short untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"cut with ellipsis", "hello world", 5, "hello…"},
		{"zero disables cut", "hello world", 0, "hello world"},
		{"first line only", "line one\nline two", 0, "line one…"},
		{"multibyte boundary", "héllо wörld", 4, "héll…"},
		{"emoji boundary", "🙂🙂🙂🙂", 2, "🙂🙂…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, history.Preview(tt.content, tt.max))
		})
	}
}

func TestRestoreRebuildsIndexes(t *testing.T) {
	s := history.New()
	idA, _ := s.Insert("a")
	s.Insert("b")
	require.NoError(t, s.Tag(idA, "work"))

	restored := history.Restore(s.Entries())
	assert.Equal(t, contents(s.List(0, 0, 0, "")), contents(restored.List(0, 0, 0, "")))
	assert.Equal(t, s.ListTags(), restored.ListTags())
	checkIndex(t, restored)

	// Fresh ids continue past the restored maximum.
	id, created := restored.Insert("c")
	assert.True(t, created)
	assert.Greater(t, id, idA)
}
