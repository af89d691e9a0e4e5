package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	httperrors "github.com/gokatarajesh/quickfacts/pkg/http/errors"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type challengeRequest struct {
	Subject    string `json:"subject" validate:"required"`
	Topic      string `json:"topic"`
	Subtopic   string `json:"subtopic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count" validate:"gte=0,lte=100"`
}

type progressRequest struct {
	FlashcardID         string    `json:"flashcardId" validate:"required"`
	LastSeen            time.Time `json:"lastSeen"`
	CorrectCount        int       `json:"correctCount" validate:"gte=0"`
	IncorrectCount      int       `json:"incorrectCount" validate:"gte=0"`
	AverageResponseTime float64   `json:"averageResponseTime" validate:"gte=0"`
}

type answerRequest struct {
	FlashcardID  string  `json:"flashcardId" validate:"required"`
	Correct      *bool   `json:"correct" validate:"required"`
	ResponseTime float64 `json:"responseTime" validate:"gte=0"` // seconds
}

type resultRequest struct {
	SetID           string    `json:"setId" validate:"required"`
	Date            time.Time `json:"date"`
	Score           int       `json:"score" validate:"gte=0,ltefield=TotalCards"`
	TotalCards      int       `json:"totalCards" validate:"gte=0"`
	TimeSpent       int       `json:"timeSpent" validate:"gte=0"`
	BookmarkedCards []string  `json:"bookmarkedCards" validate:"dive,required"`
}

type bookmarkChallengeRequest struct {
	Count int `json:"count" validate:"gte=0,lte=100"`
}

// decodeRequest reads and validates a JSON body, writing the error reply
// itself on failure. An empty body decodes to the zero value when
// allowEmpty is set.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed,
				fe.Field()+" failed "+fe.Tag()+" validation", fe.Field())
			return false
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
