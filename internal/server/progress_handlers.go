package server

import (
	"net/http"
	"time"

	"github.com/gokatarajesh/quickfacts/internal/progress"
	httperrors "github.com/gokatarajesh/quickfacts/pkg/http/errors"
)

func (h *handlers) getProgress(w http.ResponseWriter, r *http.Request) {
	list := h.progress.Progress(r.Context(), r.PathValue("userID"))
	writeJSON(w, http.StatusOK, map[string]any{"progress": list})
}

func (h *handlers) saveProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	rec := progress.FlashcardProgress{
		UserID:              r.PathValue("userID"),
		FlashcardID:         req.FlashcardID,
		LastSeen:            req.LastSeen,
		CorrectCount:        req.CorrectCount,
		IncorrectCount:      req.IncorrectCount,
		AverageResponseTime: req.AverageResponseTime,
	}
	if rec.LastSeen.IsZero() {
		rec.LastSeen = time.Now().UTC()
	}
	stored, err := h.progress.SaveProgress(r.Context(), rec)
	if err != nil {
		h.writeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *handlers) recordAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	respTime := time.Duration(req.ResponseTime * float64(time.Second))
	rec, err := h.progress.RecordAnswer(r.Context(), r.PathValue("userID"), req.FlashcardID, *req.Correct, respTime)
	if err != nil {
		h.writeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) getBookmarks(w http.ResponseWriter, r *http.Request) {
	ids := h.progress.Bookmarks(r.Context(), r.PathValue("userID"))
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": ids})
}

func (h *handlers) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	flashcardID := r.PathValue("flashcardID")
	bookmarked, err := h.progress.ToggleBookmark(r.Context(), r.PathValue("userID"), flashcardID)
	if err != nil {
		h.writeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"flashcardId": flashcardID,
		"bookmarked":  bookmarked,
	})
}

func (h *handlers) getResults(w http.ResponseWriter, r *http.Request) {
	results := h.progress.ChallengeResults(r.Context(), r.PathValue("userID"))
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *handlers) saveResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}
	res := progress.ChallengeResult{
		UserID:          r.PathValue("userID"),
		SetID:           req.SetID,
		Date:            req.Date,
		Score:           req.Score,
		TotalCards:      req.TotalCards,
		TimeSpent:       req.TimeSpent,
		BookmarkedCards: req.BookmarkedCards,
	}
	if err := h.progress.SaveChallengeResult(r.Context(), res); err != nil {
		h.writeFailed(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *handlers) bookmarkChallenge(w http.ResponseWriter, r *http.Request) {
	var req bookmarkChallengeRequest
	if !decodeRequest(w, r, &req, true) {
		return
	}
	ch, ok := h.selection.BookmarkChallenge(r.Context(), r.PathValue("userID"), req.Count)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoContent, "No bookmarked flashcards")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *handlers) writeFailed(w http.ResponseWriter, r *http.Request, err error) {
	logger := requestLogger(r)
	logger.Error().Err(err).Msg("progress write failed")
	httperrors.RespondInternalError(w, "Could not save progress")
}
