package apierrors_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/apierrors"
	"github.com/illuscio-dev/negotools-go/formats"
	"github.com/illuscio-dev/negotools-go/mimetype"
	"github.com/illuscio-dev/negotools-go/pipeline"
)

func createRegistry(test *testing.T) *formats.Registry {
	options, err := formats.DefaultOptions()
	if err != nil {
		test.Fatal(err)
	}

	registry, err := formats.Compile(options)
	if err != nil {
		test.Fatal(err)
	}

	return registry
}

func TestErrorTypeAccessors(test *testing.T) {
	assert := assert.New(test)

	errorType := apierrors.NewErrorType("TestError", 2001, 500)

	assert.Equal("TestError", errorType.Name())
	assert.Equal(2001, errorType.APICode())
	assert.Equal(500, errorType.HTTPCode())
	assert.Equal("TestError (2001)", errorType.Error())

	adjusted := errorType.WithHTTPCode(503)
	assert.Equal(503, adjusted.HTTPCode())
	assert.Equal(2001, adjusted.APICode())
}

func TestErrorInstance(test *testing.T) {
	assert := assert.New(test)

	source := xerrors.New("the original problem")
	apiError := apierrors.DecodeError.New(
		"could not decode content",
		map[string]interface{}{"format": "json"},
		source,
	)

	assert.Equal("DecodeError (1001) - could not decode content", apiError.Error())
	assert.Equal(source, apiError.Unwrap())
	assert.True(apiError.IsType(apierrors.DecodeError))
	assert.True(apiError.IsType(apierrors.DecodeError.WithHTTPCode(422)))
	assert.False(apiError.IsType(apierrors.APIError))
	assert.Contains(apiError.LogMessage(), "the original problem")
}

func TestErrorHeaderRoundTrip(test *testing.T) {
	assert := assert.New(test)

	registry := createRegistry(test)

	original := apierrors.DecodeError.New(
		"could not decode content",
		map[string]interface{}{"format": "json"},
		nil,
	)

	headers := make(http.Header)
	err := original.ToHeader(headers, registry)
	if !assert.Nil(err) {
		test.FailNow()
	}

	assert.Equal("DecodeError", headers.Get("error-name"))
	assert.Equal("1001", headers.Get("error-code"))

	loaded, hasError, err := apierrors.FromHeaders(
		headers, registry, apierrors.DefaultTypeCodeIndex(),
	)
	if !assert.Nil(err) {
		test.FailNow()
	}

	assert.True(hasError)
	assert.Equal(original.ID, loaded.ID)
	assert.Equal(original.Message, loaded.Message)
	assert.True(loaded.IsType(apierrors.DecodeError))
	assert.Equal("json", loaded.ErrorData["format"])
}

func TestFromHeadersNoError(test *testing.T) {
	registry := createRegistry(test)

	loaded, hasError, err := apierrors.FromHeaders(
		make(http.Header), registry, apierrors.DefaultTypeCodeIndex(),
	)

	assert.Nil(test, loaded)
	assert.False(test, hasError)
	assert.Error(test, err)
}

func TestFromHeadersUnknownCode(test *testing.T) {
	registry := createRegistry(test)

	headers := make(http.Header)
	headers.Set("error-code", "9999")

	loaded, hasError, err := apierrors.FromHeaders(
		headers, registry, apierrors.DefaultTypeCodeIndex(),
	)

	assert.Nil(test, loaded)
	assert.True(test, hasError)
	assert.Error(test, err)
}

func TestFromPipelineDecodeError(test *testing.T) {
	assert := assert.New(test)

	contentPipeline, err := pipeline.New(createRegistry(test), 0)
	if err != nil {
		test.Fatal(err)
	}

	exchange := pipeline.NewExchange([]byte(`{invalid`))
	exchange.SetHeader(mimetype.ContentTypeHeader, "application/json")

	state := &pipeline.State{}
	resolveErr := contentPipeline.ResolveRequest(exchange, state)
	if !assert.Error(resolveErr) {
		test.FailNow()
	}

	apiError := apierrors.FromPipeline(resolveErr)
	assert.True(apiError.IsType(apierrors.DecodeError))
	assert.Equal(400, apiError.HTTPCode())
	assert.Equal("json", apiError.ErrorData["format"])
	assert.Equal(resolveErr, apiError.Unwrap())
}

func TestFromPipelineGenericError(test *testing.T) {
	assert := assert.New(test)

	apiError := apierrors.FromPipeline(xerrors.New("something else"))
	assert.True(apiError.IsType(apierrors.APIError))

	assert.Nil(apierrors.FromPipeline(nil))
}
