package checkout

import "net/http"

const (
	MsgMissingFields     = "Missing required fields"
	MsgInvalidEmail      = "Invalid email address"
	MsgInvalidDelivery   = "Invalid delivery method"
	MsgPickupRequired    = "Pickup point is required for pickup delivery"
	MsgAddressRequired   = "Address, city and zip code are required for home delivery"
	MsgInvalidPayment    = "Invalid payment method"
	MsgValidateProducts  = "Failed to validate products"
	MsgCreateOrder       = "Failed to create order"
	MsgCreateOrderItems  = "Failed to create order items"
	MsgUpdateStock       = "Failed to update stock"
	MsgUnexpected        = "An unexpected error occurred"
	msgInvalidQuantity   = "Invalid quantity for "
	msgInsufficientStock = "Insufficient stock for "
)

// Error is a checkout failure. Message is safe to show the customer; Err is
// the underlying cause and is only logged.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Internal reports whether the failure was on our side rather than in the request.
func (e *Error) Internal() bool { return e.Status >= http.StatusInternalServerError }

func badRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// rejected is a client error discovered against catalog data.
func rejected(message string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Err: err}
}

func internalError(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: err}
}
