package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeMissingParameters Code = "MISSING_PARAMETERS"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeSignatureInvalid  Code = "SIGNATURE_INVALID"
	CodeNotFound          Code = "NOT_FOUND"
	CodeOrderNotFound     Code = "ORDER_NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeStateConflict     Code = "STATE_CONFLICT"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeUpstream          Code = "UPSTREAM_ERROR"
	CodeUpstreamConfig    Code = "UPSTREAM_CONFIGURATION_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool

	// PassMessage exposes the error's own message instead of PublicMessage.
	PassMessage bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeMissingParameters: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "missing required parameters",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeSignatureInvalid: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "signature verification failed",
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		PublicMessage:  "resource not found",
		DetailsAllowed: true,
		PassMessage:    true,
	},
	CodeOrderNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "order not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeUpstream: {
		HTTPStatus:    http.StatusBadGateway,
		Retryable:     true,
		PublicMessage: "payment gateway request failed",
		PassMessage:   true,
	},
	CodeUpstreamConfig: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "payment gateway is not configured",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// FieldError is one entry of a validation failure list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
