package content

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var corpus embed.FS

// Set kinds as declared in bank files.
const (
	KindFlashcards = "flashcards"
	KindQuestions  = "questions"
)

// LoadEmbedded builds the store from the bank files compiled into the binary.
func LoadEmbedded(logger zerolog.Logger) (*Store, error) {
	return Load(corpus, "data", logger)
}

// Load parses every *.yaml / *.yml bank file in dir. Any invalid file aborts
// the load so a broken corpus never reaches callers.
func Load(fsys fs.FS, dir string, logger zerolog.Logger) (*Store, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, path.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	banks := make([]*Bank, 0, len(files))
	for _, file := range files {
		b, err := loadBankFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
		banks = append(banks, b)
	}

	store, err := NewStore(logger, banks...)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("banks", len(banks)).
		Int("sets", len(store.sets)).
		Int("items", len(store.items)).
		Msg("content corpus loaded")
	return store, nil
}

func loadBankFile(fsys fs.FS, file string) (*Bank, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var bf bankFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return bf.toBank()
}

func (bf bankFile) toBank() (*Bank, error) {
	if bf.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	key := bf.Key
	if key == "" {
		key = NormalizeSubject(bf.Subject)
	}

	bank := &Bank{
		Key:         key,
		Subject:     bf.Subject,
		Version:     bf.Version,
		LastUpdated: bf.LastUpdated,
		Topics:      bf.Topics,
	}

	seenSets := make(map[string]bool, len(bf.Sets))
	for _, sf := range bf.Sets {
		set, err := sf.toSet(bf.Subject)
		if err != nil {
			return nil, err
		}
		if seenSets[set.ID] {
			return nil, fmt.Errorf("set %q declared twice", set.ID)
		}
		seenSets[set.ID] = true
		bank.Sets = append(bank.Sets, set)
	}
	return bank, nil
}

func (sf setFile) toSet(subject string) (*Set, error) {
	if sf.ID == "" {
		return nil, fmt.Errorf("set id is required")
	}
	if sf.Topic == "" {
		return nil, fmt.Errorf("set %q: topic is required", sf.ID)
	}

	set := &Set{
		ID:          sf.ID,
		Kind:        KindFlashcards,
		Title:       sf.Title,
		Description: sf.Description,
		Subject:     subject,
		Topic:       sf.Topic,
		Subtopic:    sf.Subtopic,
		Grade:       sf.Grade,
	}
	items := sf.Flashcards
	if len(sf.Questions) > 0 {
		set.Kind = KindQuestions
		items = append(items, sf.Questions...)
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return nil, fmt.Errorf("set %q: %w", sf.ID, err)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("set %q: item %q declared twice", sf.ID, it.ID)
		}
		seen[it.ID] = true

		// Items inherit classification from their set unless they override it.
		if it.Topic == "" {
			it.Topic = set.Topic
		}
		if it.Subtopic == "" {
			it.Subtopic = set.Subtopic
		}
		if it.Grade == "" {
			it.Grade = set.Grade
		}
		set.Items = append(set.Items, it)
	}
	return set, nil
}

func validateItem(it *Item) error {
	switch {
	case it == nil:
		return fmt.Errorf("empty item")
	case it.ID == "":
		return fmt.Errorf("item id is required")
	case it.Question == "":
		return fmt.Errorf("item %q: question is required", it.ID)
	case it.Answer == "":
		return fmt.Errorf("item %q: answer is required", it.ID)
	case !it.Difficulty.Valid():
		return fmt.Errorf("item %q: difficulty %q must be easy, medium or hard", it.ID, it.Difficulty)
	case it.TimeRecommended < 0:
		return fmt.Errorf("item %q: timeRecommended must not be negative", it.ID)
	}
	return nil
}

// --- YAML file structs ---

type bankFile struct {
	Key         string    `yaml:"key"`
	Subject     string    `yaml:"subject"`
	Version     string    `yaml:"version"`
	LastUpdated string    `yaml:"lastUpdated"`
	Topics      []Topic   `yaml:"topics"`
	Sets        []setFile `yaml:"sets"`
}

type setFile struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Topic       string  `yaml:"topic"`
	Subtopic    string  `yaml:"subtopic"`
	Grade       string  `yaml:"grade"`
	Flashcards  []*Item `yaml:"flashcards"`
	Questions   []*Item `yaml:"questions"`
}
