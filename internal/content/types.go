package content

import (
	"fmt"
	"strings"
)

// Difficulty is the ordered difficulty label carried by items, sets and challenges.
type Difficulty string

// Difficulty constants for readability.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts a label in any casing and returns the matching Difficulty.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", raw)
	}
}

// Valid reports whether d is one of the three known labels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Item is a single flashcard or question. Items are owned by their Set and
// must be treated as read-only once loaded.
type Item struct {
	ID              string     `json:"id" yaml:"id"`
	Question        string     `json:"question" yaml:"question"`
	Answer          string     `json:"answer" yaml:"answer"`
	Options         []string   `json:"options,omitempty" yaml:"options"`
	Explanation     string     `json:"explanation,omitempty" yaml:"explanation"`
	Difficulty      Difficulty `json:"difficulty" yaml:"difficulty"`
	Topic           string     `json:"topic" yaml:"topic"`
	Subtopic        string     `json:"subtopic,omitempty" yaml:"subtopic"`
	Grade           string     `json:"grade" yaml:"grade"`
	TimeRecommended int        `json:"timeRecommended" yaml:"timeRecommended"` // seconds
}

// Set groups the items of one topic/subtopic. TotalCards, EstimatedTime and
// Difficulty are derived from Items and never read from source data.
type Set struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Subject       string     `json:"subject"`
	Topic         string     `json:"topic"`
	Subtopic      string     `json:"subtopic,omitempty"`
	Grade         string     `json:"grade"`
	Items         []*Item    `json:"flashcards"`
	TotalCards    int        `json:"totalCards"`
	EstimatedTime int        `json:"estimatedTime"` // seconds
	Difficulty    Difficulty `json:"difficulty"`
}

// Topic is a declared topic of a bank with its optional subtopics.
type Topic struct {
	Name      string   `json:"name" yaml:"name"`
	Subtopics []string `json:"subtopics,omitempty" yaml:"subtopics"`
}

// Bank holds every topic and set for one subject.
type Bank struct {
	Key         string  `json:"key"`
	Subject     string  `json:"subject"`
	Version     string  `json:"version,omitempty"`
	LastUpdated string  `json:"lastUpdated,omitempty"`
	Topics      []Topic `json:"topics"`
	Sets        []*Set  `json:"sets"`
}

// Summarize recomputes the derived aggregates of s from its items.
func (s *Set) Summarize() {
	s.TotalCards = len(s.Items)
	s.EstimatedTime = TotalTime(s.Items)
	s.Difficulty = ScoreDifficulty(s.Items)
}

// NormalizeSubject maps a display subject ("Home Science") to its bank key ("home-science").
func NormalizeSubject(subject string) string {
	return strings.Join(strings.Fields(strings.ToLower(subject)), "-")
}

func matchesLabel(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
