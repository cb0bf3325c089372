// Package apperr defines the application error kinds and their mapping to
// HTTP status codes. Handlers never build ad-hoc error bodies; they call
// Respond and let the kind decide the status.
package apperr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	// Token errors. An invalid token shape is a client mistake (400); a
	// missing, expired or otherwise rejected token is an auth failure (401).
	ErrTokenNotExists = errors.New("authorization token not supplied")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrToken          = errors.New("token validation failed")

	// Phone verification errors. A missing record and a wrong code are
	// deliberately indistinguishable.
	ErrVerification        = errors.New("phone verification failed")
	ErrVerificationExpired = errors.New("phone verification code expired")

	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")

	ErrInvalidRequest = errors.New("invalid request")
	ErrBlocked        = errors.New("content is blocked")
	ErrDuplicatePhone = errors.New("phone number already registered")
)

// AppError wraps an internal failure with a client-safe message. The wrapped
// error is logged server-side and never serialized.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Database wraps a relational-store failure.
func Database(err error) error {
	return &AppError{Status: http.StatusInternalServerError, Message: "database failure", Err: err}
}

// Vendor wraps an external-collaborator failure (SMS vendor, object storage).
func Vendor(err error) error {
	return &AppError{Status: http.StatusInternalServerError, Message: "external service failure", Err: err}
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTokenNotExists),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrToken),
		errors.Is(err, ErrVerification),
		errors.Is(err, ErrVerificationExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrPostNotFound),
		errors.Is(err, ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicatePhone):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the JSON error body and aborts the request. Internal detail
// stays in the server log.
func Respond(c *gin.Context, err error) {
	status := Status(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
