// Shared API error model for services hosting the negotiation pipeline.
/*
A consistent set of error communication conventions shared between services and
clients: ErrorType declares a TYPE of error an ecosystem can return, Error is one
instance of it. Instances travel over response headers so the error channel works
for any body encoding, with structured error data encoded through the compiled
format registry's json adapter.
*/
package apierrors

import (
	"bytes"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/formats"
)

// Interface for objects that can set header information.
type headerSetter interface {
	Set(key string, value string)
}

// Interface for objects that can fetch header information.
type headerFetcher interface {
	Get(key string) string
}

/*
ErrorType defines a type of error that a service can return. Each ErrorType for a
given ecosystem should have a unique Name and APICode.

Codes 1000-1999 are reserved for this module's default error definitions.

Since types are declared as pointers, to protect against accidental mutation of
the error type by other packages, the underlying fields of this struct are private
and accessed through methods. Define new error types using NewErrorType().
*/
type ErrorType struct {
	// Unique human-readable name of the error type for the API ecosystem.
	name string

	// Unique number to identify the error type in the API ecosystem.
	apiCode int

	// HTTP code that should be returned when this error type is returned. Set
	// to -1 if the http code is determined dynamically.
	httpCode int
}

// NewErrorType returns an error type definition. Each definition should only
// need to be declared once in a shared library for a given ecosystem, ensuring
// consistent error codes and names across all of its services.
func NewErrorType(name string, apiCode int, httpCode int) *ErrorType {
	return &ErrorType{
		name:     name,
		apiCode:  apiCode,
		httpCode: httpCode,
	}
}

// Unique human-readable name of the error type for the API ecosystem.
func (errorType *ErrorType) Name() string {
	return errorType.name
}

// Unique number to identify the error type in the API ecosystem.
func (errorType *ErrorType) APICode() int {
	return errorType.apiCode
}

// HTTP code that should be returned when this error type is returned.
func (errorType *ErrorType) HTTPCode() int {
	return errorType.httpCode
}

// Returns a copy of the error type with the given http code replaced.
func (errorType *ErrorType) WithHTTPCode(newHTTPCode int) *ErrorType {
	return &ErrorType{
		name:     errorType.name,
		apiCode:  errorType.apiCode,
		httpCode: newHTTPCode,
	}
}

// Allows the error type definition itself to also be a valid error for things
// like testing error equality.
func (errorType *ErrorType) Error() string {
	return errorType.name + " (" + strconv.Itoa(errorType.apiCode) + ")"
}

// New returns a new error instance of this type.
func (errorType *ErrorType) New(
	message string,
	errorData map[string]interface{},
	source error,
) *Error {
	return &Error{
		ErrorType:   errorType,
		Message:     message,
		ID:          uuid.NewV4(),
		ErrorData:   errorData,
		sourceErr:   source,
		sourceStack: debug.Stack(),
	}
}

// Error is a specific error instance of an ErrorType.
type Error struct {
	// The type of error being returned.
	*ErrorType

	// A message detailing what caused the error.
	Message string

	// An id for the error being returned.
	ID uuid.UUID

	// A string / any mapping of data related to the error.
	ErrorData map[string]interface{}

	// If this error was returned because of another error, the original error
	// is stored here.
	sourceErr error

	// The debug.Stack() from where this error was instantiated.
	sourceStack []byte
}

// IsType returns true if the underlying type of this error is the same as
// errorType. Some error types may carry multiple http codes, so type equality is
// compared by name and api code rather than pointer identity.
func (apiError *Error) IsType(errorType *ErrorType) bool {
	return apiError.ErrorType.Error() == errorType.Error()
}

// Error string to conform to the builtin error interface.
func (apiError *Error) Error() string {
	return apiError.ErrorType.Error() + " - " + apiError.Message
}

// Implements xerrors.Wrapper.
func (apiError *Error) Unwrap() error {
	return apiError.sourceErr
}

// LogMessage is a more verbose error message that includes a debug.Stack() and
// source error information. Not part of Error(), Message, or ErrorData since it
// may contain sensitive information that should not be returned to the client.
func (apiError *Error) LogMessage() string {
	return fmt.Sprint(
		"\nMESSAGE: ",
		apiError.Error(),
		"\nORIGINAL: ",
		apiError.sourceErr,
		"\nSTACK:\n",
		string(apiError.sourceStack),
	)
}

// Fetches a registry's json adapter for error-data transport.
func jsonAdapter(registry *formats.Registry) (*formats.Adapter, error) {
	adapter := registry.Adapter("json")
	if adapter == nil {
		return nil, xerrors.New("registry has no json format for error data")
	}
	return adapter, nil
}

/*
ToHeader writes the error to an object which implements a Set(key, value string)
method, like http.Header. ErrorData, when present, is serialized with the
registry's json adapter.
*/
func (apiError *Error) ToHeader(
	setter headerSetter, registry *formats.Registry,
) error {
	setter.Set("error-name", apiError.name)
	setter.Set("error-code", strconv.Itoa(apiError.apiCode))
	setter.Set("error-message", apiError.Message)
	setter.Set("error-id", apiError.ID.String())

	if apiError.ErrorData != nil {
		adapter, err := jsonAdapter(registry)
		if err != nil {
			return err
		}
		if adapter.Encode == nil {
			return xerrors.New("registry json format has no encoder")
		}

		dataBytes := bytes.Buffer{}
		if err := adapter.Encode(&dataBytes, apiError.ErrorData); err != nil {
			return err
		}
		setter.Set("error-data", dataBytes.String())
	}

	return nil
}

/*
FromHeaders generates an error object from the headers of an HTTP response. If an
Error can be made from the header data, a pointer to it is returned. If an error
code is detected in the headers but the header data is malformed and cannot be
loaded, hasError is returned as true and a description of the parsing issue is
returned in err.

If the headers do not contain an error, hasError is false, the Error pointer is
nil, and err specifies that no error was found.
*/
func FromHeaders(
	headers headerFetcher,
	registry *formats.Registry,
	errorTypeCodeIndex map[int]*ErrorType,
) (apiError *Error, hasError bool, err error) {
	// If there is no error code, then there is no error
	errorCodeStr := headers.Get("error-code")
	if errorCodeStr == "" {
		return nil, false, xerrors.New("no error in headers")
	}

	errorCode, err := strconv.Atoi(errorCodeStr)
	if err != nil {
		return nil, false, xerrors.New("error-code not int")
	}

	if errorTypeCodeIndex == nil {
		return nil, true, xerrors.New("no error index provided")
	}
	errorType, ok := errorTypeCodeIndex[errorCode]
	if !ok {
		return nil, true, xerrors.New("no known error for code " + errorCodeStr)
	}

	errorID, err := uuid.FromString(headers.Get("error-id"))
	if err != nil {
		return nil, true, xerrors.New("error id is not valid UUID")
	}

	errorData := make(map[string]interface{})
	if errorDataStr := headers.Get("error-data"); errorDataStr != "" {
		adapter, adapterErr := jsonAdapter(registry)
		if adapterErr != nil || adapter.Decode == nil {
			return nil, true, xerrors.New("no json decoder for error data")
		}

		stringReader := strings.NewReader(errorDataStr)
		if err := adapter.Decode(stringReader, &errorData); err != nil {
			return nil, true, xerrors.New(
				"error data could not be parsed as JSON",
			)
		}
	}

	apiError = errorType.New(headers.Get("error-message"), errorData, nil)
	apiError.ID = errorID

	return apiError, true, nil
}
