package apperror

// Generic errors, refined per call site with WithMessage.
var (
	ErrValidation   = New(KindValidation, "DOMAIN_VALIDATION_ERROR", "validation failed")
	ErrBusinessRule = New(KindBusinessRule, "BUSINESS_RULE_VIOLATION", "operation not allowed")
	ErrNotFound     = New(KindNotFound, "RESOURCE_NOT_FOUND", "resource not found")
	ErrAccessDenied = New(KindAccessDenied, "ACCESS_PERMISSION_ERROR", "access denied")
	ErrConflict     = New(KindConflict, "RESOURCE_ALREADY_EXISTS", "resource already exists")
	ErrInternal     = New(KindInternal, "INTERNAL_SERVER_ERROR", "an unexpected error occurred")
)

// Money and transfer rules
var (
	ErrInsufficientFunds = New(KindBusinessRule, "INSUFFICIENT_FUNDS", "insufficient funds")
	ErrSameCard          = New(KindBusinessRule, "SAME_CARD_TRANSFER", "cannot transfer to the same card")
	ErrCardsNotActive    = New(KindBusinessRule, "CARDS_NOT_ACTIVE", "both cards must be ACTIVE")
	ErrForeignOwner      = New(KindBusinessRule, "CROSS_OWNER_TRANSFER", "transfers are allowed only between cards of one owner")
	ErrCardExpired       = New(KindBusinessRule, "CARD_EXPIRED", "card is expired")
	ErrStatusTransition  = New(KindBusinessRule, "INVALID_STATUS_TRANSITION", "card status change not allowed")
	ErrCardInUse         = New(KindBusinessRule, "CARD_REFERENCED", "card is referenced by transfers")
)

// Lookup failures
var (
	ErrUserNotFound     = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrCardNotFound     = New(KindNotFound, "CARD_NOT_FOUND", "card not found")
	ErrTransferNotFound = New(KindNotFound, "TRANSFER_NOT_FOUND", "transfer not found")
)

// Authentication
var (
	ErrInvalidCredentials = New(KindUnauthenticated, "INVALID_CREDENTIALS", "invalid credentials")
	ErrInvalidToken       = New(KindUnauthenticated, "INVALID_TOKEN", "invalid or expired token")
	ErrEmailExists        = New(KindConflict, "EMAIL_EXISTS", "user with this email already exists")
)

// Card encryption engine
var (
	ErrInvalidKey       = New(KindEncryption, "INVALID_ENCRYPTION_KEY", "invalid card encryption key")
	ErrInvalidFormat    = New(KindEncryption, "INVALID_ENCRYPTION_INPUT", "invalid card encryption input")
	ErrEncryptionFailed = New(KindEncryption, "CARD_ENCRYPTION_FAILED", "card encryption failed")
	ErrDecryptionFailed = New(KindEncryption, "CARD_DECRYPTION_FAILED", "card decryption failed")
	ErrIntegrity        = New(KindEncryption, "CARD_INTEGRITY_MISMATCH", "stored card data is inconsistent")
)
