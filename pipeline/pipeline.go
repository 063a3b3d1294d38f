// Request / response transformation driven by content negotiation.
/*
The pipeline ties the compiled format registry, the negotiation algorithms and
the adapter functions together: ResolveRequest negotiates and decodes an incoming
body, ResolveResponse negotiates and encodes an outgoing one. Each exchange gets
a transient State recording what was negotiated and what was already done, so the
two resolution steps compose without re-doing or un-doing each other's work.
*/
package pipeline

import (
	"bytes"
	"io"
	"reflect"
	"strings"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/formats"
	"github.com/illuscio-dev/negotools-go/mimetype"
	"github.com/illuscio-dev/negotools-go/negotiate"
)

/*
State is the per-exchange negotiation context. ResolveRequest fills the
negotiated fields; callers may pre-set the Skip markers, Receiver, or the
response overrides before either step runs. A State is discarded once its
exchange completes.
*/
type State struct {
	// ContentFormat is the format resolved from the Content-Type header, blank
	// when no format claims it.
	ContentFormat string

	// Charset is the request charset -- the Content-Type charset parameter or
	// the registry default.
	Charset string

	// AcceptFormat is the format resolved from the Accept header, blank when no
	// token matched.
	AcceptFormat string

	// Accept is the matched Accept token, or the default format's canonical
	// content type when nothing matched.
	Accept mimetype.MimeType

	// AcceptCharset is the charset negotiated from the Accept-Charset header.
	AcceptCharset string

	// ResponseFormat overrides the response encoding format when set. Highest
	// precedence, ahead of AcceptFormat and the registry default.
	ResponseFormat string

	// Receiver, when set, receives the decoded request body instead of a fresh
	// interface{} value. Must be a pointer.
	Receiver interface{}

	// ForceEncode marks a non-collection response value as encodable anyway.
	ForceEncode bool

	// SkipDecode unconditionally bypasses request decoding.
	SkipDecode bool

	// SkipEncode unconditionally bypasses response encoding.
	SkipEncode bool

	// RawBody keeps the original body content after a successful decode.
	RawBody interface{}

	// DecodedAs tags the format the request body was decoded with.
	DecodedAs string

	// EncodedAs tags the format the response body was encoded with.
	EncodedAs string
}

/*
DecodeError reports a request body that could not be decoded as its negotiated
format. It carries the format name and the offending exchange so the hosting
layer can shape a client-facing response; the exchange itself is left exactly as
it was before decoding began.
*/
type DecodeError struct {
	// Format is the format identifier whose decoder failed.
	Format string

	// Exchange is the offending exchange, unmutated.
	Exchange Exchange

	source error
}

func (decodeErr *DecodeError) Error() string {
	return "error decoding " + decodeErr.Format + " content: " +
		decodeErr.source.Error()
}

// Implements xerrors.Wrapper.
func (decodeErr *DecodeError) Unwrap() error {
	return decodeErr.source
}

/*
Pipeline applies negotiated decoding and encoding to exchanges. It bundles a
compiled registry with cached negotiators and is safe to share across concurrent
exchanges.
*/
type Pipeline struct {
	registry   *formats.Registry
	negotiator *negotiate.Cached
}

// New builds a Pipeline over a compiled registry. A cacheSize of 0 uses
// negotiate.DefaultCacheSize.
func New(registry *formats.Registry, cacheSize int) (*Pipeline, error) {
	if cacheSize == 0 {
		cacheSize = negotiate.DefaultCacheSize
	}

	negotiator, err := negotiate.NewCached(registry, cacheSize)
	if err != nil {
		return nil, err
	}

	return &Pipeline{registry: registry, negotiator: negotiator}, nil
}

// Registry returns the compiled registry this pipeline consults.
func (pipeline *Pipeline) Registry() *formats.Registry {
	return pipeline.registry
}

// Negotiator returns the cached negotiators bound to the pipeline registry.
func (pipeline *Pipeline) Negotiator() *negotiate.Cached {
	return pipeline.negotiator
}

// Converts a raw body slot value into a reader for decoding.
func bodyReader(body interface{}) (io.Reader, bool) {
	switch content := body.(type) {
	case io.Reader:
		return content, true
	case []byte:
		return bytes.NewReader(content), true
	case string:
		return strings.NewReader(content), true
	default:
		return nil, false
	}
}

/*
ResolveRequest negotiates the request side of an exchange and decodes its body.

The Content-Type format comes from an exact consumes lookup; when that misses and
the exchange carries a body, the registry's ordered pattern matchers get a shot at
the charset-stripped media type. The Accept and Accept-Charset headers are
resolved independently and recorded on the state for the response step.

Decoding runs only when a content format was resolved, that format has a decoder,
the exchange has a body, and state.SkipDecode is unset. On success the body slot
is replaced with the decoded value, the raw body moves to state.RawBody, and
state.DecodedAs tags the format used. On failure a *DecodeError is returned and
the exchange is left untouched.
*/
func (pipeline *Pipeline) ResolveRequest(exchange Exchange, state *State) error {
	contentTypeHeader := exchange.GetHeader(mimetype.ContentTypeHeader)

	format, charset := pipeline.negotiator.ContentType(contentTypeHeader)
	if format == "" && exchange.HasBody() {
		mediaType, _ := mimetype.ParseContentType(contentTypeHeader)
		if mediaType != mimetype.UNKNOWN {
			format, _ = pipeline.registry.MatchPattern(mediaType)
		}
	}

	state.ContentFormat = format
	state.Charset = charset

	state.AcceptFormat, state.Accept = pipeline.negotiator.Accept(
		exchange.GetHeader(mimetype.AcceptHeader),
	)
	state.AcceptCharset = pipeline.negotiator.AcceptCharset(
		exchange.GetHeader(mimetype.AcceptCharsetHeader),
	)

	if state.SkipDecode || format == "" || !exchange.HasBody() {
		return nil
	}

	adapter := pipeline.registry.Adapter(format)
	if adapter == nil || adapter.Decode == nil {
		return nil
	}

	reader, ok := bodyReader(exchange.Body())
	if !ok {
		// Body slot holds something that is not raw content -- leave it be.
		return nil
	}

	receiver := state.Receiver
	if receiver == nil {
		receiver = new(interface{})
	}

	if err := adapter.Decode(reader, receiver); err != nil {
		return &DecodeError{Format: format, Exchange: exchange, source: err}
	}

	decoded := reflect.ValueOf(receiver).Elem().Interface()

	state.RawBody = exchange.Body()
	exchange.SetBody(decoded)
	state.DecodedAs = format

	return nil
}

// Reports whether a response value is collection-shaped: a map, slice, array or
// struct, or a pointer to one. Byte slices, strings and readers are raw content,
// not values to encode.
func encodable(content interface{}) bool {
	switch content.(type) {
	case nil, []byte, string, io.Reader:
		return false
	}

	value := reflect.Indirect(reflect.ValueOf(content))
	switch value.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

/*
ResolveResponse negotiates the response side of an exchange and encodes its body.

Nothing happens when state.SkipEncode is set, when the response was already
encoded (state.EncodedAs), or when the body is neither collection-shaped nor
forced with state.ForceEncode. The encoding format is picked by precedence:
state.ResponseFormat, then the Accept-negotiated format, then the registry
default. A format without an encoder passes the response through unmodified.

On encode the body slot is replaced with the encoded bytes, state.EncodedAs tags
the format, and -- only when no Content-Type header is already present -- the
response Content-Type is set to the format's canonical content type.
*/
func (pipeline *Pipeline) ResolveResponse(exchange Exchange, state *State) error {
	if state.SkipEncode || state.EncodedAs != "" {
		return nil
	}

	body := exchange.Body()
	if !state.ForceEncode && !encodable(body) {
		return nil
	}

	format := state.ResponseFormat
	if format == "" {
		format = state.AcceptFormat
	}
	if format == "" {
		format = pipeline.registry.DefaultFormat()
	}

	adapter := pipeline.registry.Adapter(format)
	if adapter == nil || adapter.Encode == nil {
		return nil
	}

	encoded := &bytes.Buffer{}
	if err := adapter.Encode(encoded, body); err != nil {
		return xerrors.Errorf("error encoding %v response: %w", format, err)
	}

	exchange.SetBody(encoded.Bytes())
	state.EncodedAs = format

	if exchange.GetHeader(mimetype.ContentTypeHeader) == "" {
		if contentType, ok := pipeline.registry.Produces(format); ok {
			exchange.SetHeader(mimetype.ContentTypeHeader, contentType)
		}
	}

	return nil
}
