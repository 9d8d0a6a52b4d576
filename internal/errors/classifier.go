package errors

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type ErrorClass int

const (
	ClassInternal ErrorClass = iota
	ClassValidation
	ClassDependency
	ClassExternal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassDependency:
		return "dependency"
	case ClassExternal:
		return "external"
	default:
		return "internal"
	}
}

type ClassifiedError struct {
	Class         ErrorClass
	InternalError error
	ClientMessage string
	OperationName string
	StatusCode    int
}

type ErrorClassifier struct {
	logger *zap.Logger
}

func NewErrorClassifier(logger *zap.Logger) *ErrorClassifier {
	return &ErrorClassifier{logger: logger}
}

func (ec *ErrorClassifier) Classify(err error, operation string) *ClassifiedError {
	classified := &ClassifiedError{
		InternalError: err,
		OperationName: operation,
	}

	switch {
	case errors.Is(err, ErrNoData):
		classified.Class = ClassValidation
		classified.StatusCode = http.StatusBadRequest
		classified.ClientMessage = "The event carries no message data."
	case errors.Is(err, ErrDecodeFailure):
		classified.Class = ClassValidation
		classified.StatusCode = http.StatusBadRequest
		classified.ClientMessage = "The message payload could not be decoded."
	case errors.Is(err, ErrSecretUnavailable), errors.Is(err, ErrIdentityTableUnavailable):
		classified.Class = ClassDependency
		classified.StatusCode = http.StatusServiceUnavailable
		classified.ClientMessage = "A required dependency is unavailable. Please try again later."
	case errors.Is(err, ErrForwardFailure):
		classified.Class = ClassExternal
		classified.StatusCode = http.StatusBadGateway
		classified.ClientMessage = "The log ingestion service rejected the request."
	default:
		classified.Class = ClassInternal
		classified.StatusCode = http.StatusInternalServerError
		classified.ClientMessage = "An unexpected internal error occurred."
	}

	return classified
}

// LogAndSanitize logs the internal error and returns the status code and
// message safe to hand back to the caller.
func (ec *ErrorClassifier) LogAndSanitize(ctx context.Context, classified *ClassifiedError, fields ...zap.Field) (int, string) {
	fields = append(fields,
		zap.String("operation", classified.OperationName),
		zap.Stringer("error_class", classified.Class),
		zap.Int("status", classified.StatusCode),
		zap.Error(classified.InternalError),
	)
	ec.logger.Error("operation failed", fields...)

	return classified.StatusCode, classified.ClientMessage
}
