package httputil

// Machine-readable error codes returned alongside error messages so
// clients can branch without parsing English text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeValidationFailed   = "validation_failed"
	CodeFieldsRequired     = "fields_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodePasswordTooShort   = "password_too_short"
	CodeDuplicateUser      = "duplicate_user"
	CodeInvalidCredentials = "invalid_credentials"
	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeInvalidResetToken  = "invalid_reset_token"
	CodeEmailRequired      = "email_required"
	CodePasswordRequired   = "password_required"
	CodeNotFound           = "not_found"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"
	CodeInternalError      = "internal_error"
)
