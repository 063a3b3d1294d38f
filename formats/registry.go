package formats

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/mimetype"
)

// DefaultCharset is used when Options does not name one.
const DefaultCharset = "utf-8"

// Adapter is the decode / encode pair materialized for an activated format.
// Either function may be nil when the Spec declared none.
type Adapter struct {
	Decode DecodeFunc
	Encode EncodeFunc
}

// Pairs a format identifier with one of its fallback patterns.
type matcher struct {
	format  string
	pattern *regexp.Regexp
}

/*
Registry is the compiled, read-only form of an Options declaration. It is built
once by Compile and may be shared freely across concurrent exchanges -- nothing
mutates it after construction.
*/
type Registry struct {
	// Content type literal -> format identifier.
	consumes map[mimetype.MimeType]string
	// Format identifier -> canonical content type with charset suffix.
	produces map[string]string
	// Ordered fallback matchers, scanned front to back, first match wins.
	matchers []matcher
	// Format identifier -> materialized adapter.
	adapters map[string]*Adapter

	defaultFormat string
	charset       string
	charsets      map[string]struct{}
}

// Consumes returns the format identifier registered for an exact content type
// literal.
func (registry *Registry) Consumes(mimeType mimetype.MimeType) (string, bool) {
	format, ok := registry.consumes[mimeType]
	return format, ok
}

// Produces returns the canonical content type a format encodes to, including the
// charset suffix. Pattern-only formats have no canonical content type.
func (registry *Registry) Produces(format string) (string, bool) {
	contentType, ok := registry.produces[format]
	return contentType, ok
}

// MatchPattern scans the fallback matchers in declaration order and returns the
// first format whose pattern matches the media type.
func (registry *Registry) MatchPattern(mimeType mimetype.MimeType) (string, bool) {
	for _, entry := range registry.matchers {
		if entry.pattern.MatchString(string(mimeType)) {
			return entry.format, true
		}
	}
	return "", false
}

// Adapter returns the decode / encode pair for a format identifier, or nil when
// the format is not activated.
func (registry *Registry) Adapter(format string) *Adapter {
	return registry.adapters[format]
}

// Whether the registry has a registered decoder for the format.
func (registry *Registry) HandlesDecode(format string) bool {
	adapter, ok := registry.adapters[format]
	return ok && adapter.Decode != nil
}

// Whether the registry has a registered encoder for the format.
func (registry *Registry) HandlesEncode(format string) bool {
	adapter, ok := registry.adapters[format]
	return ok && adapter.Encode != nil
}

// DefaultFormat returns the first activated format identifier.
func (registry *Registry) DefaultFormat() string {
	return registry.defaultFormat
}

// Charset returns the default charset.
func (registry *Registry) Charset() string {
	return registry.charset
}

// AcceptsCharset reports whether a charset is in the acceptable set. Comparison
// is case-insensitive.
func (registry *Registry) AcceptsCharset(charset string) bool {
	_, ok := registry.charsets[strings.ToLower(charset)]
	return ok
}

// Wraps an encoder with its protocol short-circuit so self-rendering values are
// asked to render themselves before the generic encoder runs.
func wrapEncoder(spec *Spec) EncodeFunc {
	if spec.SelfEncode == nil {
		return spec.Encoder
	}

	protocol := spec.SelfEncode
	generic := spec.Encoder

	return func(writer io.Writer, content interface{}) error {
		handled, err := protocol(writer, content)
		if handled || err != nil {
			return err
		}
		if generic == nil {
			return xerrors.New(
				"format " + spec.Key + " has no generic encoder and content " +
					"does not render itself",
			)
		}
		return generic(writer, content)
	}
}

// Runs a decoder while catching panics to return as errors.
func safeDecode(decode DecodeFunc) DecodeFunc {
	if decode == nil {
		return nil
	}
	return func(reader io.Reader, receiver interface{}) (err error) {
		defer func() {
			recovered := recover()
			if recovered != nil {
				err = xerrors.Errorf("panic during decode: %w", recovered)
			}
		}()

		err = decode(reader, receiver)
		return err
	}
}

// Runs an encoder while catching panics to return as errors.
func safeEncode(encode EncodeFunc) EncodeFunc {
	if encode == nil {
		return nil
	}
	return func(writer io.Writer, content interface{}) (err error) {
		defer func() {
			recovered := recover()
			if recovered != nil {
				err = xerrors.Errorf("panic during encode: %w", recovered)
			}
		}()

		err = encode(writer, content)
		return err
	}
}

/*
Compile builds a Registry from a declarative Options value.

Activation follows options.Formats in order; the first identifier becomes the
default format. An identifier with no Spec declaration is a configuration error,
as is a content type literal claimed by two different formats. Repeating an
identifier in options.Formats is a no-op, so compiling the same declaration twice
is idempotent.

All errors returned here are configuration errors raised at startup -- a compiled
Registry never fails at request time.
*/
func Compile(options Options) (*Registry, error) {
	if len(options.Formats) == 0 {
		return nil, xerrors.New("no formats requested")
	}

	charset := options.Charset
	if charset == "" {
		charset = DefaultCharset
	}

	charsets := make(map[string]struct{})
	charsets[strings.ToLower(charset)] = struct{}{}
	for _, accepted := range options.Charsets {
		charsets[strings.ToLower(accepted)] = struct{}{}
	}

	registry := &Registry{
		consumes:      make(map[mimetype.MimeType]string),
		produces:      make(map[string]string),
		adapters:      make(map[string]*Adapter),
		defaultFormat: options.Formats[0],
		charset:       charset,
		charsets:      charsets,
	}

	for _, format := range options.Formats {
		if _, done := registry.adapters[format]; done {
			// Identifier requested twice -- already compiled.
			continue
		}

		spec, ok := options.Specs[format]
		if !ok {
			return nil, xerrors.New("no format spec declared for " + format)
		}

		for _, literal := range spec.Offers {
			if owner, claimed := registry.consumes[literal]; claimed {
				if owner == format {
					continue
				}
				return nil, xerrors.New(
					"content type " + string(literal) + " claimed by both " +
						owner + " and " + format,
				)
			}
			registry.consumes[literal] = format
		}

		if len(spec.Offers) > 0 {
			registry.produces[format] =
				string(spec.Offers[0]) + "; charset=" + charset
		}

		for _, pattern := range spec.Patterns {
			registry.matchers = append(
				registry.matchers, matcher{format: format, pattern: pattern},
			)
		}

		registry.adapters[format] = &Adapter{
			Decode: safeDecode(spec.Decoder),
			Encode: safeEncode(wrapEncoder(spec)),
		}
	}

	return registry, nil
}
