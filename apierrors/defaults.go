package apierrors

import (
	"github.com/illuscio-dev/negotools-go/pipeline"
)

// Default error type definitions. Codes 1000-1999 are reserved for this module.
var (
	// APIError is the generic fallback for unclassified failures.
	APIError = NewErrorType("APIError", 1000, 500)

	// DecodeError signals a request body that could not be decoded as its
	// negotiated format.
	DecodeError = NewErrorType("DecodeError", 1001, 400)

	// UnsupportedMediaType signals a request content type no activated format
	// claims.
	UnsupportedMediaType = NewErrorType("UnsupportedMediaType", 1002, 415)
)

// DefaultTypeCodeIndex returns an api-code index of the default error types for
// use with FromHeaders.
func DefaultTypeCodeIndex() map[int]*ErrorType {
	return map[int]*ErrorType{
		APIError.APICode():             APIError,
		DecodeError.APICode():          DecodeError,
		UnsupportedMediaType.APICode(): UnsupportedMediaType,
	}
}

/*
FromPipeline translates a pipeline error into an Error instance the hosting layer
can return to a client. A *pipeline.DecodeError maps to the DecodeError type with
the failed format recorded in ErrorData; anything else maps to the generic
APIError type. A nil error returns nil.
*/
func FromPipeline(err error) *Error {
	if err == nil {
		return nil
	}

	if decodeErr, ok := err.(*pipeline.DecodeError); ok {
		return DecodeError.New(
			decodeErr.Error(),
			map[string]interface{}{"format": decodeErr.Format},
			decodeErr,
		)
	}

	return APIError.New(err.Error(), nil, err)
}
