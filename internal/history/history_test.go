package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordNewestFirst(t *testing.T) {
	s := NewStore(0)
	first := s.Record(Entry{FilePath: "a.go"})
	second := s.Record(Entry{FilePath: "b.go"})

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)

	_, err := uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.False(t, first.Timestamp.IsZero())

	kept := s.Record(Entry{ID: "fixed", FilePath: "c.go"})
	assert.Equal(t, "fixed", kept.ID)
}

func TestEvictsOldest(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Record(Entry{FilePath: fmt.Sprintf("f%d.go", i)})
	}
	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "f4.go", entries[0].FilePath)
	assert.Equal(t, "f2.go", entries[2].FilePath)
}

func TestSetMaxSizeTruncates(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 6; i++ {
		s.Record(Entry{FilePath: fmt.Sprintf("f%d.go", i)})
	}
	s.SetMaxSize(2)
	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "f5.go", entries[0].FilePath)
	assert.Equal(t, "f4.go", entries[1].FilePath)

	s.SetMaxSize(0)
	for i := 0; i < DefaultMaxSize+5; i++ {
		s.Record(Entry{})
	}
	assert.Equal(t, DefaultMaxSize, s.Len())
}

func TestForFileAndClear(t *testing.T) {
	s := NewStore(0)
	s.Record(Entry{FilePath: "a.go", StartLine: 1})
	s.Record(Entry{FilePath: "b.go"})
	s.Record(Entry{FilePath: "a.go", StartLine: 2})

	got := s.ForFile("a.go")
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].StartLine)
	assert.Empty(t, s.ForFile("missing.go"))

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestConcurrentRecord(t *testing.T) {
	s := NewStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Record(Entry{FilePath: "x.go"})
				_ = s.Entries()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
