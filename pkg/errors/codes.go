package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every pipeline stage.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_007"
	ErrCodeNotImplemented     ErrorCode = "COMMON_008"
)

// Transformer error codes.
const (
	// ErrCodeInvalidInput marks a nil or structurally unusable raw record
	// handed to a transformer.  Fatal for the single-item operation.
	ErrCodeInvalidInput ErrorCode = "TRF_001"
)

// Validation error codes.
const (
	// ErrCodeValidationFailed marks error-severity validator findings that
	// block persistence of one patent.  Warnings never carry this code.
	ErrCodeValidationFailed ErrorCode = "VAL_001"
)

// Document store error codes.
const (
	ErrCodeStoreUnavailable  ErrorCode = "STO_001"
	ErrCodeStoreReadFailed   ErrorCode = "STO_002"
	ErrCodeStoreWriteFailed  ErrorCode = "STO_003"
	ErrCodeStoreCommitFailed ErrorCode = "STO_004"
)

// Patent-level error codes.
const (
	ErrCodePatentNotFound ErrorCode = "PAT_001"
)

// Indexing error codes.
const (
	ErrCodeIndexingFailed     ErrorCode = "IDX_001"
	ErrCodeIndexingInProgress ErrorCode = "IDX_002"
	ErrCodeIndexConfigFailed  ErrorCode = "IDX_003"
)

// Data source (external bibliographic API) error codes.
const (
	ErrCodeDataSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeDataSourceRateLimited ErrorCode = "SRC_002"
	ErrCodeDataSourceAuthFailed  ErrorCode = "SRC_003"
	ErrCodeDataSourceParseError  ErrorCode = "SRC_004"
)

// Search error codes.
const (
	ErrCodeSearchFailed ErrorCode = "SRH_001"
)

// Query enhancement error codes.
const (
	// ErrCodeEnhancementFailed is never fatal to a search; callers fall back
	// to the unenhanced query text.
	ErrCodeEnhancementFailed ErrorCode = "ENH_001"
)

// Aliases kept for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidInput:     "invalid input record",
	ErrCodeValidationFailed: "patent validation failed",

	ErrCodeStoreUnavailable:  "document store unavailable",
	ErrCodeStoreReadFailed:   "document store read failed",
	ErrCodeStoreWriteFailed:  "document store write failed",
	ErrCodeStoreCommitFailed: "document store batch commit failed",

	ErrCodePatentNotFound: "patent not found",

	ErrCodeIndexingFailed:     "indexing failed",
	ErrCodeIndexingInProgress: "indexing already in progress",
	ErrCodeIndexConfigFailed:  "index configuration failed",

	ErrCodeDataSourceUnavailable: "data source unavailable",
	ErrCodeDataSourceRateLimited: "data source rate limited",
	ErrCodeDataSourceAuthFailed:  "data source authentication failed",
	ErrCodeDataSourceParseError:  "failed to parse data source response",

	ErrCodeSearchFailed:      "search failed",
	ErrCodeEnhancementFailed: "query enhancement failed",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode, e.g. "STO" for
// ErrCodeStoreCommitFailed.  Used as a metric label by monitoring layers.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
