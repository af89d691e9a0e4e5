package server

import (
	"net/http"

	"github.com/gokatarajesh/quickfacts/internal/content"
	"github.com/gokatarajesh/quickfacts/internal/selection"
	httperrors "github.com/gokatarajesh/quickfacts/pkg/http/errors"
)

type bankSummary struct {
	Key         string          `json:"key"`
	Subject     string          `json:"subject"`
	Version     string          `json:"version,omitempty"`
	LastUpdated string          `json:"lastUpdated,omitempty"`
	Topics      []content.Topic `json:"topics"`
	SetCount    int             `json:"setCount"`
}

func (h *handlers) listBanks(w http.ResponseWriter, r *http.Request) {
	subjects := h.content.Subjects()
	out := make([]bankSummary, 0, len(subjects))
	for _, key := range subjects {
		bank, ok := h.content.Bank(key)
		if !ok {
			continue
		}
		out = append(out, bankSummary{
			Key:         bank.Key,
			Subject:     bank.Subject,
			Version:     bank.Version,
			LastUpdated: bank.LastUpdated,
			Topics:      bank.Topics,
			SetCount:    len(bank.Sets),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"banks": out})
}

func (h *handlers) getBank(w http.ResponseWriter, r *http.Request) {
	bank, ok := h.content.Bank(r.PathValue("subject"))
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Unknown subject")
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (h *handlers) setsByTopic(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")
	if _, ok := h.content.Bank(subject); !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Unknown subject")
		return
	}
	q := r.URL.Query()
	if q.Get("topic") == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "topic is required", "topic")
		return
	}
	sets := h.selection.SetsByTopic(subject, q.Get("topic"), q.Get("subtopic"))
	writeJSON(w, http.StatusOK, map[string]any{"sets": nonNil(sets)})
}

func (h *handlers) itemsByDifficulty(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")
	if _, ok := h.content.Bank(subject); !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Unknown subject")
		return
	}
	d, err := content.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeUnknownDifficulty, err.Error(), "difficulty")
		return
	}
	items := h.selection.ItemsByDifficulty(subject, d)
	writeJSON(w, http.StatusOK, map[string]any{"flashcards": nonNil(items)})
}

func (h *handlers) setsByGradeOrTopic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sets := h.content.SetsByGradeOrTopic(q.Get("grade"), q.Get("topic"))
	writeJSON(w, http.StatusOK, map[string]any{"sets": nonNil(sets)})
}

func (h *handlers) getSet(w http.ResponseWriter, r *http.Request) {
	set, ok := h.content.SetByID(r.PathValue("id"))
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Set not found")
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (h *handlers) getFlashcard(w http.ResponseWriter, r *http.Request) {
	item, ok := h.content.ItemByID(r.PathValue("id"))
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Flashcard not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handlers) generateChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	var d content.Difficulty
	if req.Difficulty != "" {
		parsed, err := content.ParseDifficulty(req.Difficulty)
		if err != nil {
			httperrors.RespondValidationError(w, httperrors.ErrCodeUnknownDifficulty, err.Error(), "difficulty")
			return
		}
		d = parsed
	}

	ch, ok := h.selection.GenerateChallenge(selection.ChallengeRequest{
		Subject:    req.Subject,
		Topic:      req.Topic,
		Subtopic:   req.Subtopic,
		Difficulty: d,
		Count:      req.Count,
	})
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoContent, "No flashcards match the request")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
