// Pure content negotiation algorithms over a compiled format registry.
package negotiate

import (
	"github.com/illuscio-dev/negotools-go/formats"
	"github.com/illuscio-dev/negotools-go/mimetype"
)

/*
ContentType negotiates the decoding format for a Content-Type header value. The
format is the exact consumes match for the media type, or blank when no format
claims it -- pattern fallback is the pipeline's job since it also needs to know
whether a body exists. The charset is the header's charset parameter when given,
else the registry default.
*/
func ContentType(
	registry *formats.Registry, header string,
) (format string, charset string) {
	mediaType, charset := mimetype.ParseContentType(header)
	if charset == "" {
		charset = registry.Charset()
	}

	format, _ = registry.Consumes(mediaType)
	return format, charset
}

/*
Accept negotiates the encoding format for an Accept header value. Tokens are
tried in declaration order and the first one a format consumes wins; quality
weights are not consulted. When nothing matches -- including a blank header --
the format is blank and the content type falls back to the canonical content
type of the registry's default format.
*/
func Accept(
	registry *formats.Registry, header string,
) (format string, contentType mimetype.MimeType) {
	for _, token := range mimetype.ParseAccept(header) {
		if format, ok := registry.Consumes(token); ok {
			return format, token
		}
	}

	canonical, _ := registry.Produces(registry.DefaultFormat())
	return "", mimetype.MimeType(canonical)
}

/*
AcceptCharset negotiates a charset from an Accept-Charset header value. Candidates
are ranked by quality and the first one in the registry's acceptable set wins. The
"*" wildcard and the no-match case both resolve to the registry default.
*/
func AcceptCharset(registry *formats.Registry, header string) string {
	for _, token := range mimetype.ParseAcceptCharset(header) {
		if token == "*" {
			return registry.Charset()
		}
		if registry.AcceptsCharset(token) {
			return token
		}
	}

	return registry.Charset()
}
