// Header parsing and enumeration-like type for content mimetypes.
package mimetype

import (
	"sort"
	"strconv"
	"strings"
)

/*
MimeType is used to enumerate the default representation for content encoding types.
Non default MimeTypes can be used by wrapping a custom string:

	MimeType("text/csv")
*/
type MimeType string

const (
	JSON    = MimeType("application/json")
	MSGPACK = MimeType("application/msgpack")
	YAML    = MimeType("application/yaml")
	BSON    = MimeType("application/bson")
	TEXT    = MimeType("text/plain")
	// UNKNOWN is used when the incoming string is blank
	UNKNOWN = MimeType("")
)

// Header names consulted during negotiation.
const (
	ContentTypeHeader   = "Content-Type"
	AcceptHeader        = "Accept"
	AcceptCharsetHeader = "Accept-Charset"
)

// Interface for objects used to fetch headers such as http.Request.Header or
// http.Response.Header
type headerFetcher interface {
	Get(string) string
}

// Extract the content mimetype from a message / request header. Any charset
// parameter is discarded.
func FromHeader(headers headerFetcher) MimeType {
	mimeType, _ := ParseContentType(headers.Get(ContentTypeHeader))
	return mimeType
}

/*
ParseContentType splits a Content-Type header value into its media type and charset
parameter. The case of the media type is preserved and the charset value is
returned as given, so:

	ParseContentType("application/json; charset=UTF-8")

yields ("application/json", "UTF-8"). When no charset parameter is present the
returned charset is blank.
*/
func ParseContentType(header string) (MimeType, string) {
	parts := strings.Split(header, ";")

	mediaType := strings.TrimSpace(parts[0])
	charset := ""

	for _, param := range parts[1:] {
		param = strings.TrimSpace(param)
		if strings.HasPrefix(strings.ToLower(param), "charset=") {
			charset = strings.Trim(param[len("charset="):], `"`)
		}
	}

	if mediaType == "" {
		return UNKNOWN, charset
	}
	return MimeType(mediaType), charset
}

/*
ParseAccept tokenizes an Accept header into media types ordered as written. Each
token has its parameter suffix (";q=0.8" and friends) stripped before being
returned. Quality weights are NOT ranked here -- callers match tokens in
declaration order, first match wins.
*/
func ParseAccept(header string) []MimeType {
	if header == "" {
		return nil
	}

	var tokens []MimeType
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(strings.Split(token, ";")[0])
		if token == "" {
			continue
		}
		tokens = append(tokens, MimeType(token))
	}

	return tokens
}

// Pairs a charset candidate with its quality weight while ranking.
type charsetToken struct {
	value   string
	quality float64
}

/*
ParseAcceptCharset tokenizes an Accept-Charset header and ranks candidates by
quality value. A token without an explicit q defaults to 1.0, tokens with q=0 are
excluded, and ties keep their declaration order. The "*" wildcard is passed
through for the negotiator to resolve against its own charset set.
*/
func ParseAcceptCharset(header string) []string {
	if header == "" {
		return nil
	}

	var tokens []charsetToken
	for _, raw := range strings.Split(header, ",") {
		parts := strings.Split(raw, ";")

		value := strings.TrimSpace(parts[0])
		if value == "" {
			continue
		}

		quality := 1.0
		for _, param := range parts[1:] {
			param = strings.TrimSpace(strings.ToLower(param))
			if !strings.HasPrefix(param, "q=") {
				continue
			}
			parsed, err := strconv.ParseFloat(param[len("q="):], 64)
			if err == nil {
				quality = parsed
			}
		}

		if quality <= 0 {
			continue
		}
		tokens = append(tokens, charsetToken{value: value, quality: quality})
	}

	// Stable sort so equal qualities keep their declaration order.
	sort.SliceStable(tokens, func(i int, j int) bool {
		return tokens[i].quality > tokens[j].quality
	})

	ranked := make([]string, len(tokens))
	for index, token := range tokens {
		ranked[index] = token.value
	}

	return ranked
}
