package errors

import "fmt"

var (
	// Tokens and identity.
	ErrInvalidSigningMethod = fmt.Errorf("invalid token signing method")
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrTokenExpired         = fmt.Errorf("token has expired")
	ErrEmptyAuthHeader      = fmt.Errorf("authorization header is missing")
	ErrInvalidAuthHeader    = fmt.Errorf("malformed authorization header")
	ErrUnauthorized         = fmt.Errorf("unauthorized")
	ErrForbidden            = fmt.Errorf("forbidden")

	// Context.
	ErrIdentityNotInContext = fmt.Errorf("identity not found in request context")

	// Scheduling domain.
	ErrDuplicateAssignment = fmt.Errorf("an assignment for this client, technician and day already exists")
	ErrDuplicateInstance   = fmt.Errorf("a route instance for this technician and date already exists")
	ErrInvalidOrderSet     = fmt.Errorf("ordered ids do not match the current members of the group")
	ErrInstanceLocked      = fmt.Errorf("route instance is completed and can no longer be reordered")
	ErrRateLimited         = fmt.Errorf("too many requests")

	// General.
	ErrNotFound   = fmt.Errorf("record not found")
	ErrBadRequest = fmt.Errorf("bad request")
)

// InvalidInputError reports a validation failure before any store access.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError rejects a lifecycle transition and carries the
// current state so the caller can resynchronize its view.
type InvalidTransitionError struct {
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition to %q: current status is %q", e.Requested, e.Current)
}

func NewInvalidTransitionError(current, requested string) error {
	return &InvalidTransitionError{Current: current, Requested: requested}
}

// HttpError pairs a user-facing message and status code with the
// underlying error kept for logs only.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}
