package errors

// ErrorCode represents a standardized error code surfaced to the presentation layer
type ErrorCode string

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationInvalidDate   ErrorCode = "VALIDATION_004"
)

// Account error codes (ACCOUNT_*)
const (
	AccountNotFound      ErrorCode = "ACCOUNT_001"
	AccountDuplicateMain ErrorCode = "ACCOUNT_002"
	AccountProtected     ErrorCode = "ACCOUNT_003"
	AccountInvalidID     ErrorCode = "ACCOUNT_004"
)

// Expense error codes (EXPENSE_*)
const (
	ExpenseNotFound      ErrorCode = "EXPENSE_001"
	ExpenseInvalidAmount ErrorCode = "EXPENSE_002"
)

// Store error codes (STORE_*)
const (
	StoreUnavailable    ErrorCode = "STORE_001"
	StoreRequestFailed  ErrorCode = "STORE_002"
	StoreConstraint     ErrorCode = "STORE_003"
	StoreSessionExpired ErrorCode = "STORE_004"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationInvalidDate:   "Invalid date format or range",

	AccountNotFound:      "Account not found",
	AccountDuplicateMain: "Main Account already exists",
	AccountProtected:     "Cannot delete Main Account",
	AccountInvalidID:     "Invalid account ID format",

	ExpenseNotFound:      "Expense not found",
	ExpenseInvalidAmount: "Invalid expense amount",

	StoreUnavailable:    "Remote store is unavailable. Please try again later",
	StoreRequestFailed:  "Request failed. Please try again",
	StoreConstraint:     "The change conflicts with existing data",
	StoreSessionExpired: "Session expired. Please sign in again",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
