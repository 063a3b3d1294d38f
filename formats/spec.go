package formats

import (
	"io"
	"regexp"

	"github.com/illuscio-dev/negotools-go/mimetype"
)

// DecodeFunc reads serialized content from reader and unmarshals it into
// receiver.
type DecodeFunc func(reader io.Reader, receiver interface{}) error

// EncodeFunc serializes content to writer.
type EncodeFunc func(writer io.Writer, content interface{}) error

// ProtocolFunc is the protocol short-circuit hook for an encoder. It reports
// whether it handled the value; when handled is false the format's generic
// EncodeFunc runs instead.
type ProtocolFunc func(writer io.Writer, content interface{}) (handled bool, err error)

/*
Renderer is the capability consulted by the protocol short-circuit: a value that
already knows how to write itself in a given format. RenderFormat returns handled
= false for formats the value does not render, in which case the generic encoder
takes over.
*/
type Renderer interface {
	RenderFormat(format string, writer io.Writer) (handled bool, err error)
}

// SelfRender returns a ProtocolFunc dispatching to the Renderer capability for
// the given format identifier.
func SelfRender(format string) ProtocolFunc {
	return func(writer io.Writer, content interface{}) (bool, error) {
		renderer, ok := content.(Renderer)
		if !ok {
			return false, nil
		}
		return renderer.RenderFormat(format, writer)
	}
}

/*
Spec declares a single serialization format. Specs are consumed by Compile and
treated as immutable afterwards.

Offers lists the content type literals the format answers to exactly; the first
literal doubles as the canonical content type the format produces. Patterns are
fallback matchers consulted, in declaration order across all formats, only when
no literal matches and the exchange carries a body.

Decoder and Encoder are both optional. A format with no Decoder simply never
decodes; a format with no Encoder passes responses through untouched. SelfEncode,
when set, is tried before Encoder so values carrying their own rendering
capability short-circuit the generic path.
*/
type Spec struct {
	// Key is the format identifier, e.g. "json".
	Key string

	// Offers holds the content type literals for exact matching.
	Offers []mimetype.MimeType

	// Patterns holds fallback content type matchers.
	Patterns []*regexp.Regexp

	// Decoder unmarshals request bodies. Optional.
	Decoder DecodeFunc

	// Encoder marshals response bodies. Optional.
	Encoder EncodeFunc

	// SelfEncode short-circuits Encoder for self-rendering values. Optional.
	SelfEncode ProtocolFunc
}

/*
Options is the full declarative configuration handed to Compile: the available
Specs keyed by format identifier, the ordered subset of identifiers to activate
(the first is the default format), the default charset, and the set of charsets
the service will agree to during Accept-Charset negotiation.
*/
type Options struct {
	// Specs holds the available format declarations.
	Specs map[string]*Spec

	// Formats is the ordered list of identifiers to activate.
	Formats []string

	// Charset is the default charset. Blank defaults to "utf-8".
	Charset string

	// Charsets is the acceptable charset set. The default charset is always
	// a member.
	Charsets []string
}
