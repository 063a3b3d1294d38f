package mimetype_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illuscio-dev/negotools-go/mimetype"
)

func ParameterizeParseContentType(
	test *testing.T,
	headers []string,
	mimeTypeExpected mimetype.MimeType,
	charsetExpected string,
) {
	for _, header := range headers {
		mimeTypeParsed, charsetParsed := mimetype.ParseContentType(header)
		assert.Equal(test, mimeTypeExpected, mimeTypeParsed, header)
		assert.Equal(test, charsetExpected, charsetParsed, header)
	}
}

func TestParseContentTypeNoCharset(test *testing.T) {
	ParameterizeParseContentType(
		test,
		[]string{"application/json", "application/json "},
		mimetype.JSON,
		"",
	)
}

func TestParseContentTypeWithCharset(test *testing.T) {
	ParameterizeParseContentType(
		test,
		[]string{
			"application/json;charset=utf-8",
			"application/json; charset=utf-8",
			"application/json ; charset=utf-8",
			`application/json; charset="utf-8"`,
		},
		mimetype.JSON,
		"utf-8",
	)
}

func TestParseContentTypePreservesCase(test *testing.T) {
	assert := assert.New(test)

	mimeTypeParsed, charsetParsed := mimetype.ParseContentType(
		"Application/JSON; charset=UTF-8",
	)

	assert.Equal(mimetype.MimeType("Application/JSON"), mimeTypeParsed)
	assert.Equal("UTF-8", charsetParsed)
}

func TestParseContentTypeOtherParams(test *testing.T) {
	assert := assert.New(test)

	mimeTypeParsed, charsetParsed := mimetype.ParseContentType(
		"multipart/form-data; boundary=xyz; charset=ascii",
	)

	assert.Equal(mimetype.MimeType("multipart/form-data"), mimeTypeParsed)
	assert.Equal("ascii", charsetParsed)
}

func TestParseContentTypeBlank(test *testing.T) {
	mimeTypeParsed, charsetParsed := mimetype.ParseContentType("")

	assert.Equal(test, mimetype.UNKNOWN, mimeTypeParsed)
	assert.Equal(test, "", charsetParsed)
}

func TestFromHeader(test *testing.T) {
	request := http.Request{Header: make(http.Header)}
	request.Header.Set("Content-Type", "application/msgpack; charset=utf-8")

	assert.Equal(test, mimetype.MSGPACK, mimetype.FromHeader(request.Header))
}

func TestParseAcceptOrder(test *testing.T) {
	tokens := mimetype.ParseAccept(
		"text/plain, application/json;q=0.9, application/yaml",
	)

	assert.Equal(
		test,
		[]mimetype.MimeType{mimetype.TEXT, mimetype.JSON, mimetype.YAML},
		tokens,
	)
}

func TestParseAcceptStripsParams(test *testing.T) {
	tokens := mimetype.ParseAccept("application/json;q=0.5;level=1")

	assert.Equal(test, []mimetype.MimeType{mimetype.JSON}, tokens)
}

func TestParseAcceptBlank(test *testing.T) {
	assert.Nil(test, mimetype.ParseAccept(""))
	assert.Nil(test, mimetype.ParseAccept(" , ,"))
}

func TestParseAcceptCharsetRanked(test *testing.T) {
	ranked := mimetype.ParseAcceptCharset("iso-8859-1;q=0.5, utf-8")

	assert.Equal(test, []string{"utf-8", "iso-8859-1"}, ranked)
}

func TestParseAcceptCharsetTiesKeepOrder(test *testing.T) {
	ranked := mimetype.ParseAcceptCharset("utf-16, utf-8, iso-8859-1;q=0.9")

	assert.Equal(test, []string{"utf-16", "utf-8", "iso-8859-1"}, ranked)
}

func TestParseAcceptCharsetExcludesZeroQuality(test *testing.T) {
	ranked := mimetype.ParseAcceptCharset("utf-16;q=0, utf-8;q=0.8")

	assert.Equal(test, []string{"utf-8"}, ranked)
}

func TestParseAcceptCharsetWildcard(test *testing.T) {
	ranked := mimetype.ParseAcceptCharset("utf-8;q=0.9, *;q=0.1")

	assert.Equal(test, []string{"utf-8", "*"}, ranked)
}

func TestParseAcceptCharsetBlank(test *testing.T) {
	assert.Nil(test, mimetype.ParseAcceptCharset(""))
}
