package progress

import (
	"time"
)

// Default key prefixes. Stored keys are "<prefix>_<userID>".
const (
	DefaultProgressPrefix  = "@quickfacts_progress"
	DefaultResultsPrefix   = "@quickfacts_challenge_results"
	DefaultBookmarksPrefix = "@quickfacts_bookmarks"
)

// FlashcardProgress is the per-user, per-flashcard history. (UserID,
// FlashcardID) is unique within a user's progress list.
type FlashcardProgress struct {
	UserID              string    `json:"userId"`
	FlashcardID         string    `json:"flashcardId"`
	LastSeen            time.Time `json:"lastSeen"`
	CorrectCount        int       `json:"correctCount"`
	IncorrectCount      int       `json:"incorrectCount"`
	IsBookmarked        bool      `json:"isBookmarked"`
	AverageResponseTime float64   `json:"averageResponseTime"` // seconds
}

// ChallengeResult records one completed challenge attempt. Results are
// append-only.
type ChallengeResult struct {
	UserID          string    `json:"userId"`
	SetID           string    `json:"setId"`
	Date            time.Time `json:"date"`
	Score           int       `json:"score"`
	TotalCards      int       `json:"totalCards"`
	TimeSpent       int       `json:"timeSpent"` // seconds
	BookmarkedCards []string  `json:"bookmarkedCards"`
}

// Keys holds the three namespace prefixes.
type Keys struct {
	Progress  string
	Results   string
	Bookmarks string
}

// DefaultKeys returns the standard prefixes.
func DefaultKeys() Keys {
	return Keys{
		Progress:  DefaultProgressPrefix,
		Results:   DefaultResultsPrefix,
		Bookmarks: DefaultBookmarksPrefix,
	}
}

func (k Keys) withDefaults() Keys {
	def := DefaultKeys()
	if k.Progress == "" {
		k.Progress = def.Progress
	}
	if k.Results == "" {
		k.Results = def.Results
	}
	if k.Bookmarks == "" {
		k.Bookmarks = def.Bookmarks
	}
	return k
}

func userKey(prefix, userID string) string {
	return prefix + "_" + userID
}
