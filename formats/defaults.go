package formats

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/illuscio-dev/negotools-go/mimetype"
)

var yamlPattern = regexp.MustCompile(`^(application|text)/(.+\+)?(x-)?yaml$`)

// YAMLSpec declares the default yaml format backed by gopkg.in/yaml.v2.
func YAMLSpec() *Spec {
	return &Spec{
		Key: "yaml",
		Offers: []mimetype.MimeType{
			mimetype.YAML,
			mimetype.MimeType("text/yaml"),
		},
		Patterns: []*regexp.Regexp{yamlPattern},
		Decoder: func(reader io.Reader, receiver interface{}) error {
			contentBuffer := bytes.Buffer{}
			if _, err := contentBuffer.ReadFrom(reader); err != nil {
				return xerrors.Errorf("error reading content bytes: %w", err)
			}
			return yaml.Unmarshal(contentBuffer.Bytes(), receiver)
		},
		Encoder: func(writer io.Writer, content interface{}) error {
			encoded, err := yaml.Marshal(content)
			if err != nil {
				return err
			}
			_, err = writer.Write(encoded)
			return err
		},
		SelfEncode: SelfRender("yaml"),
	}
}

// TextSpec declares the default text format. Encoding runs fmt.Sprint on the
// content; decoding requires a string receiver.
func TextSpec() *Spec {
	return &Spec{
		Key:    "text",
		Offers: []mimetype.MimeType{mimetype.TEXT},
		Decoder: func(reader io.Reader, receiver interface{}) error {
			buffer := new(bytes.Buffer)
			if _, err := buffer.ReadFrom(reader); err != nil {
				return err
			}

			switch target := receiver.(type) {
			case *string:
				*target = buffer.String()
			case *interface{}:
				*target = buffer.String()
			default:
				return xerrors.New(
					"content receiver must be a string pointer to receive " +
						"a string.",
				)
			}
			return nil
		},
		Encoder: func(writer io.Writer, content interface{}) error {
			_, err := io.WriteString(writer, fmt.Sprint(content))
			return err
		},
		SelfEncode: SelfRender("text"),
	}
}

/*
DefaultOptions bundles the default format specs -- json, msgpack, yaml, bson and
text, activated in that order so json is the default format -- with the default
charset. The returned Options may be reshaped (formats reordered or removed,
specs added) before being handed to Compile.
*/
func DefaultOptions() (Options, error) {
	jsonSpec, err := JSONSpec(nil)
	if err != nil {
		return Options{}, xerrors.Errorf("error building json spec: %w", err)
	}

	msgpackSpec, err := MsgPackSpec(nil)
	if err != nil {
		return Options{}, xerrors.Errorf("error building msgpack spec: %w", err)
	}

	yamlSpec := YAMLSpec()
	bsonSpec := BSONSpec(nil)
	textSpec := TextSpec()

	return Options{
		Specs: map[string]*Spec{
			jsonSpec.Key:    jsonSpec,
			msgpackSpec.Key: msgpackSpec,
			yamlSpec.Key:    yamlSpec,
			bsonSpec.Key:    bsonSpec,
			textSpec.Key:    textSpec,
		},
		Formats: []string{"json", "msgpack", "yaml", "bson", "text"},
		Charset: DefaultCharset,
	}, nil
}
