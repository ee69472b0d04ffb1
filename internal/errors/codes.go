package errors

// Error code constants returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL. The storefront maps these to copy.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput      = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID         = "VALIDATION_INVALID_ID"
	ValidationInvalidRange      = "VALIDATION_INVALID_RANGE"
	ValidationRequired          = "VALIDATION_REQUIRED"
	ValidationIncompleteProfile = "VALIDATION_INCOMPLETE_PROFILE"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderPriceLocked       = "ORDER_PRICE_LOCKED"
	OrderReplaced          = "ORDER_REPLACED"
	OrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	OrderUnpriced          = "ORDER_UNPRICED"

	// ==================== Templates (TEMPLATE_) ====================
	TemplateNotFound               = "TEMPLATE_NOT_FOUND"
	TemplateIncompleteMeasurements = "TEMPLATE_INCOMPLETE_MEASUREMENTS"

	// ==================== Payments (PAYMENT_) ====================
	PaymentNotFound         = "PAYMENT_NOT_FOUND"
	PaymentAlreadyProcessed = "PAYMENT_ALREADY_PROCESSED"
	PaymentInvalidSignature = "PAYMENT_INVALID_SIGNATURE"
	PaymentGatewayError     = "PAYMENT_GATEWAY_ERROR"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
