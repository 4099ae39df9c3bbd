package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeTokenExpired = "token_expired"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound     = "not_found"
	ErrCodeUserNotFound = "user_not_found"

	// Business logic errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeUpdateFailed       = "update_failed"
	ErrCodeResultSaveFailed   = "result_save_failed"
	ErrCodeHistoryFailed      = "history_fetch_failed"

	// Ranking errors
	ErrCodeRankingFetchFailed = "ranking_fetch_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeUnknownCategory    = "unknown_category"
	ErrCodeIntentIgnored      = "intent_ignored"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
