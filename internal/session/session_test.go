package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/forPelevin/vidsub/internal/types"
)

func TestSession_DisplayedText(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.DisplayedText())

	s.TranscriptText = StringPtr("hello")
	assert.Equal(t, "hello", s.DisplayedText())

	s.View = ViewTranslation
	assert.Equal(t, "hello", s.DisplayedText(), "falls back to transcript without a translation")

	s.Translated = StringPtr("cześć")
	assert.Equal(t, "cześć", s.DisplayedText())
}

func TestSession_BaseName(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultBaseName, s.BaseName())
	s.Video = &types.VideoAsset{BaseName: "talk"}
	assert.Equal(t, "talk", s.BaseName())
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := New()
	s.Video = &types.VideoAsset{Path: "/tmp/a.mp4"}
	s.Segments = []types.Segment{{Start: 0, End: 1, Text: "a"}}
	s.TranscriptText = StringPtr("a")

	c := s.Clone()
	c.Video.Path = "/tmp/b.mp4"
	c.Segments[0].Text = "b"
	*c.TranscriptText = "b"

	assert.Equal(t, "/tmp/a.mp4", s.Video.Path)
	assert.Equal(t, "a", s.Segments[0].Text)
	assert.Equal(t, "a", *s.TranscriptText)
}

func TestParseView(t *testing.T) {
	v, err := ParseView("translation")
	require.NoError(t, err)
	assert.Equal(t, ViewTranslation, v)

	_, err = ParseView("original")
	assert.Error(t, err)
}

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each new connection would get its own empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	st, err := NewGormStore(db)
	require.NoError(t, err)
	return st
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"gorm":   func(t *testing.T) Store { return newGormStore(t) },
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := mk(t)

			s, err := st.Create(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, s.ID)

			got, err := st.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Nil(t, got.Video)
			assert.False(t, got.Transcribed())
			assert.Equal(t, ViewTranscript, got.View)

			got.Video = &types.VideoAsset{Path: "/tmp/x.mp4", BaseName: "x", SHA256: "abc", MIME: "video/mp4", Size: 10}
			got.Audio = &types.AudioAsset{Path: "/tmp/x.mp3", Size: 4}
			got.Segments = []types.Segment{{Start: 0, End: 1.5, Text: "Hi"}}
			got.TranscriptText = StringPtr("Hi")
			got.Subtitles = StringPtr("1\n00:00:00,000 --> 00:00:01,500\nHi\n\n")
			got.View = ViewTranslation
			require.NoError(t, st.Save(ctx, got))

			again, err := st.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, got.Video, again.Video)
			assert.Equal(t, got.Audio, again.Audio)
			assert.Equal(t, got.Segments, again.Segments)
			assert.Equal(t, "Hi", *again.TranscriptText)
			assert.Equal(t, *got.Subtitles, *again.Subtitles)
			assert.Nil(t, again.Translated)
			assert.Nil(t, again.Summary)
			assert.Equal(t, ViewTranslation, again.View)

			require.NoError(t, st.Delete(ctx, s.ID))
			_, err = st.Get(ctx, s.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, st.Delete(ctx, s.ID), ErrNotFound)
			assert.ErrorIs(t, st.Save(ctx, got), ErrNotFound)
		})
	}
}

func TestGormStore_EmptyTranscriptionSurvives(t *testing.T) {
	ctx := context.Background()
	st := newGormStore(t)
	s, err := st.Create(ctx)
	require.NoError(t, err)

	s.Segments = []types.Segment{}
	s.TranscriptText = StringPtr("")
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Transcribed())
	assert.Empty(t, got.Segments)
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := OpenDB("mysql", "")
	assert.Error(t, err)
	_, err = OpenDB("postgres", "")
	assert.Error(t, err)
}

func TestKeyring(t *testing.T) {
	k := NewKeyring()
	_, ok := k.Get("a")
	assert.False(t, ok)

	k.Set("a", "sk-1")
	v, ok := k.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "sk-1", v)

	k.Set("a", "")
	_, ok = k.Get("a")
	assert.False(t, ok, "empty key counts as missing")

	k.Set("a", "sk-2")
	k.Delete("a")
	_, ok = k.Get("a")
	assert.False(t, ok)
}

func TestGuard_OneActionAtATime(t *testing.T) {
	g := NewGuard()
	release, err := g.TryAcquire("s1")
	require.NoError(t, err)
	assert.True(t, g.Busy("s1"))

	_, err = g.TryAcquire("s1")
	assert.True(t, errors.Is(err, ErrBusy))

	other, err := g.TryAcquire("s2")
	require.NoError(t, err, "sessions are independent")
	other()

	release()
	release()
	assert.False(t, g.Busy("s1"))

	again, err := g.TryAcquire("s1")
	require.NoError(t, err)
	again()
}

func TestGuard_Concurrent(t *testing.T) {
	g := NewGuard()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
	)
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := g.TryAcquire("same"); err == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, 1, acquired)
}
