package pipeline

import (
	"net/http"
)

/*
Exchange is the pipeline's view of one request / response pair. The hosting
transport layer supplies the implementation; the pipeline only ever reads headers,
checks for a body, and swaps the body slot.

The body slot is untyped: it holds raw content (an io.Reader, []byte or string)
before decoding, the decoded value after ResolveRequest, and the encoded bytes
after ResolveResponse.
*/
type Exchange interface {
	// GetHeader returns a header value, blank when the header is unset.
	GetHeader(name string) string

	// SetHeader sets a header value.
	SetHeader(name string, value string)

	// HasBody reports whether the exchange carries body content.
	HasBody() bool

	// Body returns the current body slot value.
	Body() interface{}

	// SetBody replaces the body slot value.
	SetBody(body interface{})
}

// BasicExchange is a minimal http.Header backed Exchange for hosts and tests
// that do not bring their own request representation.
type BasicExchange struct {
	// Headers backs GetHeader / SetHeader.
	Headers http.Header

	body interface{}
}

// NewExchange returns a BasicExchange with empty headers and the given body.
func NewExchange(body interface{}) *BasicExchange {
	return &BasicExchange{Headers: make(http.Header), body: body}
}

func (exchange *BasicExchange) GetHeader(name string) string {
	return exchange.Headers.Get(name)
}

func (exchange *BasicExchange) SetHeader(name string, value string) {
	exchange.Headers.Set(name, value)
}

// HasBody reports whether the body slot holds content. Empty byte slices and
// blank strings count as no body.
func (exchange *BasicExchange) HasBody() bool {
	switch body := exchange.body.(type) {
	case nil:
		return false
	case []byte:
		return len(body) > 0
	case string:
		return body != ""
	default:
		return true
	}
}

func (exchange *BasicExchange) Body() interface{} {
	return exchange.body
}

func (exchange *BasicExchange) SetBody(body interface{}) {
	exchange.body = body
}
