package selection

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/gokatarajesh/quickfacts/internal/content"
)

// DefaultChallengeSize is used when a request does not ask for a count.
const DefaultChallengeSize = 10

// KindChallenge marks synthesized sets.
const KindChallenge = "challenge"

// ChallengeRequest guides challenge assembly. Empty Topic, Subtopic and
// Difficulty act as wildcards; Count <= 0 falls back to the service default.
type ChallengeRequest struct {
	Subject    string
	Topic      string
	Subtopic   string
	Difficulty content.Difficulty
	Count      int
}

// Challenge is an ephemeral, set-shaped practice session. It is never
// stored in a bank.
type Challenge struct {
	content.Set
	CreatedAt time.Time `json:"createdAt"`
}

// Shuffler permutes n elements in place through swap.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// BookmarkSource provides a user's bookmarked item ids (implemented by progress.Service).
type BookmarkSource interface {
	Bookmarks(ctx context.Context, userID string) []string
}

// randShuffler is a Fisher–Yates shuffle over the auto-seeded global source,
// so every call draws a fresh permutation.
type randShuffler struct{}

func (randShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}
