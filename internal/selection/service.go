package selection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quickfacts/internal/content"
	"github.com/gokatarajesh/quickfacts/internal/metrics"
)

// Service filters the content store and assembles challenges. It never
// mutates the store.
type Service struct {
	store        *content.Store
	shuffler     Shuffler
	bookmarks    BookmarkSource
	metrics      *metrics.Collectors
	defaultCount int
	now          func() time.Time
	logger       zerolog.Logger
}

// ServiceOptions configures optional collaborators; zero values get defaults.
type ServiceOptions struct {
	Shuffler     Shuffler
	Bookmarks    BookmarkSource
	Metrics      *metrics.Collectors
	DefaultCount int
	Now          func() time.Time
}

// NewService constructs a selection service over store.
func NewService(store *content.Store, logger zerolog.Logger, opts ServiceOptions) *Service {
	shuffler := opts.Shuffler
	if shuffler == nil {
		shuffler = randShuffler{}
	}
	count := opts.DefaultCount
	if count <= 0 {
		count = DefaultChallengeSize
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:        store,
		shuffler:     shuffler,
		bookmarks:    opts.Bookmarks,
		metrics:      opts.Metrics,
		defaultCount: count,
		now:          now,
		logger:       logger.With().Str("component", "selection").Logger(),
	}
}

// SetsByTopic returns the subject's sets whose topic matches and, when
// subtopic is non-empty, whose subtopic matches too.
func (s *Service) SetsByTopic(subject, topic, subtopic string) []*content.Set {
	bank, ok := s.store.Bank(subject)
	if !ok {
		return nil
	}
	var out []*content.Set
	for _, set := range bank.Sets {
		if matchesSet(set, topic, subtopic) {
			out = append(out, set)
		}
	}
	return out
}

// ItemsByDifficulty returns every item in the subject's bank with difficulty d.
func (s *Service) ItemsByDifficulty(subject string, d content.Difficulty) []*content.Item {
	bank, ok := s.store.Bank(subject)
	if !ok {
		return nil
	}
	var out []*content.Item
	for _, set := range bank.Sets {
		for _, it := range set.Items {
			if it.Difficulty == d {
				out = append(out, it)
			}
		}
	}
	return out
}

// GenerateChallenge draws up to req.Count shuffled items matching the
// request. It returns false when the subject is unknown or nothing matches;
// that is not an error, there is simply nothing to practice.
func (s *Service) GenerateChallenge(req ChallengeRequest) (*Challenge, bool) {
	bank, ok := s.store.Bank(req.Subject)
	if !ok {
		s.metrics.ChallengeGenerated(metrics.SubjectUnknown, metrics.OutcomeUnknownSubject)
		s.logger.Debug().Str("subject", req.Subject).Msg("challenge requested for unknown subject")
		return nil, false
	}

	var pool []*content.Item
	for _, set := range bank.Sets {
		if req.Topic != "" && !matchesSet(set, req.Topic, req.Subtopic) {
			continue
		}
		if req.Topic == "" && req.Subtopic != "" && !strings.EqualFold(set.Subtopic, req.Subtopic) {
			continue
		}
		for _, it := range set.Items {
			if req.Difficulty != "" && it.Difficulty != req.Difficulty {
				continue
			}
			pool = append(pool, it)
		}
	}
	if len(pool) == 0 {
		s.metrics.ChallengeGenerated(bank.Key, metrics.OutcomeNoContent)
		return nil, false
	}

	title := bank.Subject + " Challenge"
	if req.Topic != "" {
		title = req.Topic + " Challenge"
	}

	ch := s.assemble(pool, req.Count, title)
	ch.Subject = bank.Subject
	ch.Topic = req.Topic
	ch.Subtopic = req.Subtopic

	s.metrics.ChallengeGenerated(bank.Key, metrics.OutcomeGenerated)
	s.logger.Debug().
		Str("challenge_id", ch.ID).
		Str("subject", bank.Key).
		Int("pool", len(pool)).
		Int("cards", ch.TotalCards).
		Msg("challenge generated")
	return ch, true
}

// BookmarkChallenge builds a challenge from the user's bookmarked items.
// Bookmarks that no longer resolve to an item are skipped.
func (s *Service) BookmarkChallenge(ctx context.Context, userID string, count int) (*Challenge, bool) {
	if s.bookmarks == nil {
		return nil, false
	}
	pool := s.store.ItemsByID(s.bookmarks.Bookmarks(ctx, userID))
	if len(pool) == 0 {
		return nil, false
	}

	ch := s.assemble(pool, count, "Bookmarked Cards Challenge")
	ch.Subject = commonLabel(ch.Items, func(it *content.Item) string {
		if bank, ok := s.store.BankOfItem(it.ID); ok {
			return bank.Subject
		}
		return ""
	})
	ch.Topic = commonLabel(ch.Items, func(it *content.Item) string { return it.Topic })
	return ch, true
}

// assemble shuffles a private copy of pool and keeps the first
// min(count, len(pool)) items.
func (s *Service) assemble(pool []*content.Item, count int, title string) *Challenge {
	if count <= 0 {
		count = s.defaultCount
	}

	shuffled := append([]*content.Item(nil), pool...)
	s.shuffler.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}

	ch := &Challenge{
		Set: content.Set{
			ID:    "challenge-" + newChallengeID(),
			Kind:  KindChallenge,
			Title: title,
			Items: shuffled,
			Grade: commonLabel(shuffled, func(it *content.Item) string { return it.Grade }),
		},
		CreatedAt: s.now().UTC(),
	}
	ch.Summarize()
	ch.Description = fmt.Sprintf("%d cards, about %s", ch.TotalCards, time.Duration(ch.EstimatedTime)*time.Second)
	return ch
}

func matchesSet(set *content.Set, topic, subtopic string) bool {
	if !strings.EqualFold(set.Topic, topic) {
		return false
	}
	return subtopic == "" || strings.EqualFold(set.Subtopic, subtopic)
}

// commonLabel returns the label shared by all items, or "Mixed".
func commonLabel(items []*content.Item, label func(*content.Item) string) string {
	if len(items) == 0 {
		return ""
	}
	first := label(items[0])
	for _, it := range items[1:] {
		if label(it) != first {
			return "Mixed"
		}
	}
	return first
}

func newChallengeID() string {
	// v7 ids are time-ordered; fall back to v4 if the clock source fails.
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
