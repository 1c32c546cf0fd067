package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	OrderID string `json:"orderId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeVariantNotFound     = "VARIANT_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeItemNotInCart       = "ITEM_NOT_IN_CART"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeInvalidCartID       = "INVALID_CART_ID"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodePaymentMismatch     = "PAYMENT_MISMATCH"
	ErrCodePaymentUnavailable  = "PAYMENT_UNAVAILABLE"
	ErrCodeConcurrentUpdate    = "CONCURRENT_UPDATE"
	ErrCodeAdminReasonRequired = "ADMIN_REASON_REQUIRED"
	ErrCodeAdminIDRequired     = "ADMIN_ID_REQUIRED"
	ErrCodeInvalidDiscount     = "INVALID_DISCOUNT"
	ErrCodeInvalidMRP          = "INVALID_MRP"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound     = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrVariantNotFound     = NewDomainError(ErrCodeVariantNotFound, "Product variant not found")
	ErrInvalidQuantity     = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInsufficientStock   = NewDomainError(ErrCodeInsufficientStock, "Requested quantity exceeds available stock")
	ErrItemNotInCart       = NewDomainError(ErrCodeItemNotInCart, "Item is not in the cart")
	ErrEmptyCart           = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrInvalidCartID       = NewDomainError(ErrCodeInvalidCartID, "Cart ID must be 1-64 letters, digits, '-' or '_'")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidTransition   = NewDomainError(ErrCodeInvalidTransition, "Order cannot move to the requested state")
	ErrInvalidSignature    = NewDomainError(ErrCodeInvalidSignature, "Payment signature verification failed")
	ErrPaymentMismatch     = NewDomainError(ErrCodePaymentMismatch, "Payment does not belong to this order")
	ErrPaymentUnavailable  = NewDomainError(ErrCodePaymentUnavailable, "Payment provider is unavailable")
	ErrConcurrentUpdate    = NewDomainError(ErrCodeConcurrentUpdate, "Order was modified by another request")
	ErrAdminReasonRequired = NewDomainError(ErrCodeAdminReasonRequired, "A reason is required for manual payment overrides")
	ErrAdminIDRequired     = NewDomainError(ErrCodeAdminIDRequired, "Admin identity is required")
	ErrInvalidDiscount     = NewDomainError(ErrCodeInvalidDiscount, "Discount must be between 0 and 100 percent")
	ErrInvalidMRP          = NewDomainError(ErrCodeInvalidMRP, "Deals need an MRP that leaves a positive price")
)

// ValidationError reports an invalid checkout form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a new field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
