package errors

// Error code constants, format: CATEGORY_SPECIFIC_DETAIL.
// The frontend maps these codes to user-facing messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or forged token
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate email

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // no access
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // role missing from context
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // admin required
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"     // owner required

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // bad request body
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // unparseable ID
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // bad format (bbox, near, csv)
	ValidationRequired      = "VALIDATION_REQUIRED"       // required field missing

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // missing record
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // unique conflict
	ResourceConflict      = "RESOURCE_CONFLICT"       // referenced elsewhere

	// ==================== Businesses (BUSINESS_) ====================
	BusinessNotFound    = "BUSINESS_NOT_FOUND"    // business missing
	BusinessNotApproved = "BUSINESS_NOT_APPROVED" // not publicly listed

	// ==================== Submissions (SUBMISSION_) ====================
	SubmissionNotFound = "SUBMISSION_NOT_FOUND" // submission missing

	// ==================== Imports (IMPORT_) ====================
	ImportBatchNotFound  = "IMPORT_BATCH_NOT_FOUND"  // batch missing
	ImportItemNotFound   = "IMPORT_ITEM_NOT_FOUND"   // item missing
	ImportInvalidCSV     = "IMPORT_INVALID_CSV"      // non-CSV upload or bad header
	ImportItemFinalized  = "IMPORT_ITEM_FINALIZED"   // item already approved/rejected/merged
	ImportMergeTargetBad = "IMPORT_MERGE_TARGET_BAD" // merge target business missing

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unexpected failure
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB failure
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // upstream API failure
)
