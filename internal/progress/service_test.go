package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quickfacts/internal/metrics"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newMemoryService(t *testing.T) (*Service, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	svc := NewService(kv, zerolog.Nop(), ServiceOptions{Now: func() time.Time { return fixedNow }})
	return svc, kv
}

// failingKV fails reads, writes, or both.
type failingKV struct {
	*MemoryKV
	failGet bool
	failSet bool
}

var errBackend = errors.New("backend unavailable")

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errBackend
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errBackend
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func TestProgressRoundTrip(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	p := FlashcardProgress{
		UserID:              "u1",
		FlashcardID:         "eng-gram-f1",
		LastSeen:            fixedNow,
		CorrectCount:        2,
		IncorrectCount:      1,
		AverageResponseTime: 4.5,
	}
	stored, err := svc.SaveProgress(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p, stored)
	assert.Equal(t, []FlashcardProgress{p}, svc.Progress(ctx, "u1"))

	p.CorrectCount = 3
	_, err = svc.SaveProgress(ctx, p)
	require.NoError(t, err)
	got := svc.Progress(ctx, "u1")
	require.Len(t, got, 1, "same flashcard replaces in place")
	assert.Equal(t, 3, got[0].CorrectCount)

	other := FlashcardProgress{UserID: "u1", FlashcardID: "eng-gram-f2", LastSeen: fixedNow}
	_, err = svc.SaveProgress(ctx, other)
	require.NoError(t, err)
	got = svc.Progress(ctx, "u1")
	require.Len(t, got, 2)
	assert.Equal(t, "eng-gram-f1", got[0].FlashcardID)
	assert.Equal(t, "eng-gram-f2", got[1].FlashcardID)

	assert.Empty(t, svc.Progress(ctx, "u2"), "users are isolated")
	assert.NotNil(t, svc.Progress(ctx, "u2"))
}

func TestRecordAnswer(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	rec, err := svc.RecordAnswer(ctx, "u1", "sci-bio-f1", true, 4*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CorrectCount)
	assert.InDelta(t, 4.0, rec.AverageResponseTime, 1e-9)

	rec, err = svc.RecordAnswer(ctx, "u1", "sci-bio-f1", false, 8*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.CorrectCount)
	assert.Equal(t, 1, rec.IncorrectCount)
	assert.InDelta(t, 6.0, rec.AverageResponseTime, 1e-9)
	assert.Equal(t, fixedNow, rec.LastSeen)

	assert.Equal(t, []FlashcardProgress{rec}, svc.Progress(ctx, "u1"))
}

func TestToggleBookmark(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	on, err := svc.ToggleBookmark(ctx, "user-1", "f1")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"f1"}, svc.Bookmarks(ctx, "user-1"))

	prog := svc.Progress(ctx, "user-1")
	require.Len(t, prog, 1)
	assert.Equal(t, FlashcardProgress{UserID: "user-1", FlashcardID: "f1", LastSeen: fixedNow, IsBookmarked: true}, prog[0])

	off, err := svc.ToggleBookmark(ctx, "user-1", "f1")
	require.NoError(t, err)
	assert.False(t, off)
	assert.Empty(t, svc.Bookmarks(ctx, "user-1"))
	prog = svc.Progress(ctx, "user-1")
	require.Len(t, prog, 1)
	assert.False(t, prog[0].IsBookmarked)
}

func TestToggleBookmarkKeepsExistingProgress(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	_, err := svc.RecordAnswer(ctx, "u1", "f1", true, 3*time.Second)
	require.NoError(t, err)
	_, err = svc.ToggleBookmark(ctx, "u1", "f2")
	require.NoError(t, err)
	_, err = svc.ToggleBookmark(ctx, "u1", "f1")
	require.NoError(t, err)

	assert.Equal(t, []string{"f2", "f1"}, svc.Bookmarks(ctx, "u1"), "insertion order")
	prog := svc.Progress(ctx, "u1")
	require.Len(t, prog, 2)
	assert.Equal(t, 1, prog[0].CorrectCount)
	assert.True(t, prog[0].IsBookmarked)
	assert.True(t, prog[1].IsBookmarked)
}

func TestSaveProgressFollowsBookmarks(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	on, err := svc.ToggleBookmark(ctx, "u1", "f1")
	require.NoError(t, err)
	require.True(t, on)

	stored, err := svc.SaveProgress(ctx, FlashcardProgress{UserID: "u1", FlashcardID: "f1", CorrectCount: 3})
	require.NoError(t, err)
	assert.True(t, stored.IsBookmarked)

	prog := svc.Progress(ctx, "u1")
	require.Len(t, prog, 1)
	assert.Equal(t, 3, prog[0].CorrectCount)
	assert.True(t, prog[0].IsBookmarked, "flag must agree with the bookmark list")
	assert.Equal(t, []string{"f1"}, svc.Bookmarks(ctx, "u1"))

	stored, err = svc.SaveProgress(ctx, FlashcardProgress{UserID: "u1", FlashcardID: "f2", IsBookmarked: true})
	require.NoError(t, err)
	assert.False(t, stored.IsBookmarked, "callers cannot bookmark through SaveProgress")
	assert.Equal(t, []string{"f1"}, svc.Bookmarks(ctx, "u1"))
}

func TestChallengeResultsAppend(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	first := ChallengeResult{UserID: "u1", SetID: "challenge-a", Score: 7, TotalCards: 10, TimeSpent: 120, BookmarkedCards: []string{"f1"}}
	second := ChallengeResult{UserID: "u1", SetID: "challenge-b", Score: 3, TotalCards: 5, TimeSpent: 60}
	require.NoError(t, svc.SaveChallengeResult(ctx, first))
	require.NoError(t, svc.SaveChallengeResult(ctx, second))

	got := svc.ChallengeResults(ctx, "u1")
	require.Len(t, got, 2)
	assert.Equal(t, "challenge-a", got[0].SetID)
	assert.Equal(t, "challenge-b", got[1].SetID)
	assert.Equal(t, fixedNow, got[0].Date, "zero date is stamped")
	assert.Equal(t, []string{}, got[1].BookmarkedCards)
}

func TestStoredKeysUsePrefixes(t *testing.T) {
	svc, kv := newMemoryService(t)
	ctx := context.Background()

	_, err := svc.ToggleBookmark(ctx, "user-1", "f1")
	require.NoError(t, err)
	require.NoError(t, svc.SaveChallengeResult(ctx, ChallengeResult{UserID: "user-1", SetID: "s"}))

	for _, key := range []string{
		"@quickfacts_progress_user-1",
		"@quickfacts_bookmarks_user-1",
		"@quickfacts_challenge_results_user-1",
	} {
		_, err := kv.Get(ctx, key)
		assert.NoError(t, err, key)
	}

	raw, err := kv.Get(ctx, "@quickfacts_bookmarks_user-1")
	require.NoError(t, err)
	assert.JSONEq(t, `["f1"]`, string(raw))
}

func TestCustomPrefixes(t *testing.T) {
	kv := NewMemoryKV()
	svc := NewService(kv, zerolog.Nop(), ServiceOptions{Keys: Keys{Progress: "p"}})
	_, err := svc.SaveProgress(context.Background(), FlashcardProgress{UserID: "u", FlashcardID: "f"})
	require.NoError(t, err)

	_, err = kv.Get(context.Background(), "p_u")
	assert.NoError(t, err)
}

func TestReadFailuresReturnEmpty(t *testing.T) {
	reg := prometheus.NewRegistry()
	kv := &failingKV{MemoryKV: NewMemoryKV(), failGet: true}
	svc := NewService(kv, zerolog.Nop(), ServiceOptions{Metrics: metrics.New(reg)})
	ctx := context.Background()

	assert.Equal(t, []FlashcardProgress{}, svc.Progress(ctx, "u1"))
	assert.Equal(t, []string{}, svc.Bookmarks(ctx, "u1"))
	assert.Equal(t, []ChallengeResult{}, svc.ChallengeResults(ctx, "u1"))

	count, err := testutil.GatherAndCount(reg, "quickfacts_progress_store_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCorruptBlobReadsAsEmpty(t *testing.T) {
	svc, kv := newMemoryService(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "@quickfacts_progress_u1", []byte("{not json")))

	assert.Empty(t, svc.Progress(ctx, "u1"))
	_, err := svc.SaveProgress(ctx, FlashcardProgress{UserID: "u1", FlashcardID: "f"})
	assert.Error(t, err, "writes refuse to overwrite a blob they cannot decode")
}

func TestWriteFailuresPropagate(t *testing.T) {
	kv := &failingKV{MemoryKV: NewMemoryKV(), failSet: true}
	svc := NewService(kv, zerolog.Nop(), ServiceOptions{})
	ctx := context.Background()

	_, err := svc.SaveProgress(ctx, FlashcardProgress{UserID: "u1", FlashcardID: "f1"})
	assert.ErrorIs(t, err, errBackend)

	_, err = svc.ToggleBookmark(ctx, "u1", "f1")
	assert.ErrorIs(t, err, errBackend)

	_, err = svc.RecordAnswer(ctx, "u1", "f1", true, time.Second)
	assert.ErrorIs(t, err, errBackend)

	err = svc.SaveChallengeResult(ctx, ChallengeResult{UserID: "u1"})
	assert.ErrorIs(t, err, errBackend)
}

func TestConcurrentSavesKeepEveryRecord(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RecordAnswer(ctx, "u1", "f1", i%2 == 0, time.Second)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	prog := svc.Progress(ctx, "u1")
	require.Len(t, prog, 1)
	assert.Equal(t, n, prog[0].CorrectCount+prog[0].IncorrectCount)
}

func TestServiceOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(NewRedisKV(client), zerolog.Nop(), ServiceOptions{
		Locker: NewRedisLocker(client, time.Second),
		Now:    func() time.Time { return fixedNow },
	})
	ctx := context.Background()

	require.NoError(t, svc.Ping(ctx))
	on, err := svc.ToggleBookmark(ctx, "user-1", "f1")
	require.NoError(t, err)
	assert.True(t, on)

	raw, err := mr.Get("@quickfacts_bookmarks_user-1")
	require.NoError(t, err)
	assert.JSONEq(t, `["f1"]`, raw)
	assert.False(t, mr.Exists("quickfacts:lock:user:user-1"), "lock released")

	assert.Equal(t, []string{"f1"}, svc.Bookmarks(ctx, "user-1"))

	mr.SetError("server down")
	assert.Empty(t, svc.Bookmarks(ctx, "user-1"))
	_, err = svc.ToggleBookmark(ctx, "user-1", "f1")
	assert.Error(t, err)
}
