package errors

// Error codes returned in the "error" field of JSON error bodies.
const (
	// Authentication
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeValidationFailed  = "validation_failed"
	ErrCodeUnknownDifficulty = "unknown_difficulty"

	// Content lookups
	ErrCodeNotFound  = "not_found"
	ErrCodeNoContent = "no_content"

	// Server
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)
