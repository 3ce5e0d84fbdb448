package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts database and infrastructure errors into a code/message
// pair. Sensitive details stay out of the response; the raw error is left to
// the logs.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// PostgreSQL constraint violations

	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr)
	}

	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	// Network / upstream failures
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An external service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "That email address is already registered",
		}
	}

	if strings.Contains(errLower, "business_memberships") || strings.Contains(errLower, "uq_user_business") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "That user already has a role on this business",
		}
	}

	if strings.Contains(errLower, "submission_id") || strings.Contains(errLower, "idx_business_vettings_submission_id") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "This submission already has vetting answers",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "That record already exists",
	}
}

func parseForeignKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "still referenced") || strings.Contains(errLower, "is still referenced by") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "This record is referenced by other data and cannot be deleted",
		}
	}

	if strings.Contains(errLower, "user_id") || strings.Contains(errLower, "fk_users") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "The referenced user does not exist",
		}
	}
	if strings.Contains(errLower, "business_id") || strings.Contains(errLower, "fk_businesses") {
		return ErrorInfo{
			Code:    BusinessNotFound,
			Message: "The referenced business does not exist",
		}
	}
	if strings.Contains(errLower, "batch_id") || strings.Contains(errLower, "fk_import_batches") {
		return ErrorInfo{
			Code:    ImportBatchNotFound,
			Message: "The referenced import batch does not exist",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "A referenced record could not be found",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "business") {
		return "Business not found"
	}
	if strings.Contains(contextLower, "submission") {
		return "Submission not found"
	}
	if strings.Contains(contextLower, "batch") {
		return "Import batch not found"
	}
	if strings.Contains(contextLower, "item") {
		return "Import item not found"
	}
	if strings.Contains(contextLower, "user") {
		return "User not found"
	}

	return "The requested record could not be found"
}
