package content

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Store is the immutable, process-wide collection of banks. It has no
// mutators; values it returns are shared and must not be modified.
type Store struct {
	banks  map[string]*Bank
	keys   []string
	sets   map[string]*Set
	items  map[string]*Item
	owners map[string]string // item id -> bank key
	logger zerolog.Logger
}

// NewStore derives set aggregates, indexes ids and freezes the given banks.
// Duplicate set or item ids are logged and the first occurrence in scan
// order (banks by key, then declared order) wins.
func NewStore(logger zerolog.Logger, banks ...*Bank) (*Store, error) {
	s := &Store{
		banks:  make(map[string]*Bank, len(banks)),
		sets:   make(map[string]*Set),
		items:  make(map[string]*Item),
		owners: make(map[string]string),
		logger: logger.With().Str("component", "content_store").Logger(),
	}

	for _, b := range banks {
		if b == nil {
			continue
		}
		if b.Key == "" || b.Key != NormalizeSubject(b.Key) {
			return nil, fmt.Errorf("bank %q: key must be lower-case and hyphenated", b.Key)
		}
		if _, dup := s.banks[b.Key]; dup {
			return nil, fmt.Errorf("bank %q declared twice", b.Key)
		}
		for _, set := range b.Sets {
			set.Summarize()
		}
		s.banks[b.Key] = b
		s.keys = append(s.keys, b.Key)
	}
	sort.Strings(s.keys)

	for _, key := range s.keys {
		for _, set := range s.banks[key].Sets {
			s.indexSet(key, set)
		}
	}
	return s, nil
}

func (s *Store) indexSet(bankKey string, set *Set) {
	if prev, dup := s.sets[set.ID]; dup {
		s.logger.Warn().
			Str("bank", bankKey).
			Str("set_id", set.ID).
			Str("kept_subject", prev.Subject).
			Msg("duplicate set id; keeping first occurrence")
	} else {
		s.sets[set.ID] = set
	}
	for _, it := range set.Items {
		if _, dup := s.items[it.ID]; dup {
			s.logger.Warn().
				Str("bank", bankKey).
				Str("set_id", set.ID).
				Str("item_id", it.ID).
				Msg("duplicate item id; keeping first occurrence")
			continue
		}
		s.items[it.ID] = it
		s.owners[it.ID] = bankKey
	}
}

// AllBanks returns every bank keyed by its normalized subject.
func (s *Store) AllBanks() map[string]*Bank {
	out := make(map[string]*Bank, len(s.banks))
	for k, b := range s.banks {
		out[k] = b
	}
	return out
}

// Subjects lists bank keys in sorted order.
func (s *Store) Subjects() []string {
	return append([]string(nil), s.keys...)
}

// Bank looks up a bank by subject. The subject is normalized first so
// "Home Science", "home science" and "home-science" are equivalent.
func (s *Store) Bank(subject string) (*Bank, bool) {
	b, ok := s.banks[NormalizeSubject(subject)]
	return b, ok
}

// SetsByGradeOrTopic returns every set whose grade equals grade or whose
// topic equals topic, compared case-insensitively. Empty arguments never match.
func (s *Store) SetsByGradeOrTopic(grade, topic string) []*Set {
	var out []*Set
	s.eachSet(func(set *Set) {
		if matchesLabel(grade, set.Grade) || matchesLabel(topic, set.Topic) {
			out = append(out, set)
		}
	})
	return out
}

// SetByID returns the first set with the given id.
func (s *Store) SetByID(id string) (*Set, bool) {
	set, ok := s.sets[id]
	return set, ok
}

// ItemByID returns the first item with the given id across all banks.
func (s *Store) ItemByID(id string) (*Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// BankOfItem returns the bank owning the indexed item with the given id.
func (s *Store) BankOfItem(id string) (*Bank, bool) {
	key, ok := s.owners[id]
	if !ok {
		return nil, false
	}
	return s.banks[key], true
}

// ItemsByID resolves ids in order, skipping unknown ones.
func (s *Store) ItemsByID(ids []string) []*Item {
	out := make([]*Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) eachSet(fn func(*Set)) {
	for _, key := range s.keys {
		for _, set := range s.banks[key].Sets {
			fn(set)
		}
	}
}
