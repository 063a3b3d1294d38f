package formats

import (
	"io"
	"reflect"
	"regexp"

	"github.com/ugorji/go/codec"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/mimetype"
)

// MsgPackExtensionOpts holds options for a MsgPack handle extension to register
// on spec construction. MsgPack extensions are byte-oriented and carry their tag
// on the wire, unlike the json interface extensions.
type MsgPackExtensionOpts struct {
	ValueType reflect.Type
	Tag       uint64
	Ext       codec.BytesExt
}

var msgpackPattern = regexp.MustCompile(`^application/(.+\+)?(x-)?msgpack$`)

/*
MsgPackSpec declares the default msgpack format backed by codec.MsgpackHandle.
Raw msgpack strings decode as go strings and maps land in
map[string]interface{} receivers.
*/
func MsgPackSpec(extensions []*MsgPackExtensionOpts) (*Spec, error) {
	handle := &codec.MsgpackHandle{WriteExt: true}
	handle.RawToString = true
	handle.MapType = mapStringInterfaceType

	for _, extOpts := range extensions {
		err := handle.SetBytesExt(extOpts.ValueType, extOpts.Tag, extOpts.Ext)
		if err != nil {
			return nil, xerrors.Errorf(
				"error adding msgpack extension to handle: %w", err,
			)
		}
	}

	return &Spec{
		Key: "msgpack",
		Offers: []mimetype.MimeType{
			mimetype.MSGPACK,
			mimetype.MimeType("application/x-msgpack"),
		},
		Patterns: []*regexp.Regexp{msgpackPattern},
		Decoder: func(reader io.Reader, receiver interface{}) error {
			return codec.NewDecoder(reader, handle).Decode(receiver)
		},
		Encoder: func(writer io.Writer, content interface{}) error {
			return codec.NewEncoder(writer, handle).Encode(content)
		},
		SelfEncode: SelfRender("msgpack"),
	}, nil
}
