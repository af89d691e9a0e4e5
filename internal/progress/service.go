package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quickfacts/internal/metrics"
)

// Service persists per-user progress, bookmarks and challenge results.
//
// Reads never fail: a store or decode error is logged and reported as an
// empty list. Writes log and return the error so callers can surface it.
type Service struct {
	kv      KV
	locker  Locker
	keys    Keys
	metrics *metrics.Collectors
	now     func() time.Time
	logger  zerolog.Logger
}

// ServiceOptions configures optional collaborators; zero values get defaults.
type ServiceOptions struct {
	Keys    Keys
	Locker  Locker
	Metrics *metrics.Collectors
	Now     func() time.Time
}

// NewService constructs a progress service over kv.
func NewService(kv KV, logger zerolog.Logger, opts ServiceOptions) *Service {
	locker := opts.Locker
	if locker == nil {
		locker = NewKeyedMutex()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		kv:      kv,
		locker:  locker,
		keys:    opts.Keys.withDefaults(),
		metrics: opts.Metrics,
		now:     now,
		logger:  logger.With().Str("component", "progress").Logger(),
	}
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// Progress returns every progress record for the user.
func (s *Service) Progress(ctx context.Context, userID string) []FlashcardProgress {
	key := userKey(s.keys.Progress, userID)
	list, err := readList[FlashcardProgress](ctx, s.kv, key)
	if err != nil {
		s.readFailed("progress", userID, key, err)
		return []FlashcardProgress{}
	}
	return list
}

// Bookmarks returns the user's bookmarked flashcard ids in insertion order.
func (s *Service) Bookmarks(ctx context.Context, userID string) []string {
	key := userKey(s.keys.Bookmarks, userID)
	list, err := readList[string](ctx, s.kv, key)
	if err != nil {
		s.readFailed("bookmarks", userID, key, err)
		return []string{}
	}
	return list
}

// ChallengeResults returns the user's results in the order they were saved.
func (s *Service) ChallengeResults(ctx context.Context, userID string) []ChallengeResult {
	key := userKey(s.keys.Results, userID)
	list, err := readList[ChallengeResult](ctx, s.kv, key)
	if err != nil {
		s.readFailed("results", userID, key, err)
		return []ChallengeResult{}
	}
	return list
}

// SaveProgress replaces the record for (p.UserID, p.FlashcardID) or appends
// it when absent, and returns what was stored. IsBookmarked always follows
// the bookmark list; only ToggleBookmark changes it.
func (s *Service) SaveProgress(ctx context.Context, p FlashcardProgress) (FlashcardProgress, error) {
	err := s.withUser(ctx, "save_progress", p.UserID, func() error {
		marks, err := readList[string](ctx, s.kv, userKey(s.keys.Bookmarks, p.UserID))
		if err != nil {
			return err
		}
		p.IsBookmarked = slices.Contains(marks, p.FlashcardID)

		key := userKey(s.keys.Progress, p.UserID)
		list, err := readList[FlashcardProgress](ctx, s.kv, key)
		if err != nil {
			return err
		}
		return writeList(ctx, s.kv, key, upsertProgress(list, p))
	})
	return p, err
}

// RecordAnswer folds one answer into the user's record for the flashcard,
// creating it if needed, and returns the updated record.
func (s *Service) RecordAnswer(ctx context.Context, userID, flashcardID string, correct bool, responseTime time.Duration) (FlashcardProgress, error) {
	var out FlashcardProgress
	err := s.withUser(ctx, "record_answer", userID, func() error {
		key := userKey(s.keys.Progress, userID)
		list, err := readList[FlashcardProgress](ctx, s.kv, key)
		if err != nil {
			return err
		}
		rec := FlashcardProgress{UserID: userID, FlashcardID: flashcardID}
		if i := indexProgress(list, flashcardID); i >= 0 {
			rec = list[i]
		}
		if correct {
			rec.CorrectCount++
		} else {
			rec.IncorrectCount++
		}
		n := float64(rec.CorrectCount + rec.IncorrectCount)
		rec.AverageResponseTime += (responseTime.Seconds() - rec.AverageResponseTime) / n
		rec.LastSeen = s.now().UTC()

		if err := writeList(ctx, s.kv, key, upsertProgress(list, rec)); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// ToggleBookmark flips the bookmark for flashcardID and returns the new
// state. The progress record's IsBookmarked flag is kept in sync, with a
// zeroed record created when the user has none for the flashcard.
func (s *Service) ToggleBookmark(ctx context.Context, userID, flashcardID string) (bool, error) {
	var bookmarked bool
	err := s.withUser(ctx, "toggle_bookmark", userID, func() error {
		bmKey := userKey(s.keys.Bookmarks, userID)
		marks, err := readList[string](ctx, s.kv, bmKey)
		if err != nil {
			return err
		}
		if i := slices.Index(marks, flashcardID); i >= 0 {
			marks = slices.Delete(marks, i, i+1)
			bookmarked = false
		} else {
			marks = append(marks, flashcardID)
			bookmarked = true
		}

		progKey := userKey(s.keys.Progress, userID)
		list, err := readList[FlashcardProgress](ctx, s.kv, progKey)
		if err != nil {
			return err
		}
		if i := indexProgress(list, flashcardID); i >= 0 {
			list[i].IsBookmarked = bookmarked
		} else {
			list = append(list, FlashcardProgress{
				UserID:       userID,
				FlashcardID:  flashcardID,
				LastSeen:     s.now().UTC(),
				IsBookmarked: bookmarked,
			})
		}

		if err := writeList(ctx, s.kv, progKey, list); err != nil {
			return err
		}
		return writeList(ctx, s.kv, bmKey, marks)
	})
	return bookmarked, err
}

// SaveChallengeResult appends r to the user's results. A zero Date is
// stamped with the current time.
func (s *Service) SaveChallengeResult(ctx context.Context, r ChallengeResult) error {
	if r.Date.IsZero() {
		r.Date = s.now().UTC()
	}
	if r.BookmarkedCards == nil {
		r.BookmarkedCards = []string{}
	}
	return s.withUser(ctx, "save_result", r.UserID, func() error {
		key := userKey(s.keys.Results, r.UserID)
		list, err := readList[ChallengeResult](ctx, s.kv, key)
		if err != nil {
			return err
		}
		return writeList(ctx, s.kv, key, append(list, r))
	})
}

// withUser runs fn under the user's lock and applies the write error policy.
func (s *Service) withUser(ctx context.Context, op, userID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, "user:"+userID)
	if err != nil {
		return s.writeFailed(op, userID, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("release user lock")
		}
	}()
	if err := fn(); err != nil {
		return s.writeFailed(op, userID, err)
	}
	return nil
}

func (s *Service) readFailed(op, userID, key string, err error) {
	s.metrics.StoreError(op, metrics.PathRead)
	s.logger.Warn().Err(err).Str("op", op).Str("user_id", userID).Str("key", key).Msg("progress read failed, returning empty")
}

func (s *Service) writeFailed(op, userID string, err error) error {
	s.metrics.StoreError(op, metrics.PathWrite)
	s.logger.Error().Err(err).Str("op", op).Str("user_id", userID).Msg("progress write failed")
	return fmt.Errorf("%s: %w", op, err)
}

func readList[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	data, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func writeList[T any](ctx context.Context, kv KV, key string, list []T) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func indexProgress(list []FlashcardProgress, flashcardID string) int {
	return slices.IndexFunc(list, func(p FlashcardProgress) bool {
		return p.FlashcardID == flashcardID
	})
}

func upsertProgress(list []FlashcardProgress, p FlashcardProgress) []FlashcardProgress {
	if i := indexProgress(list, p.FlashcardID); i >= 0 {
		list[i] = p
		return list
	}
	return append(list, p)
}
