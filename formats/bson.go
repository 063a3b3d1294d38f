package formats

import (
	"bufio"
	"bytes"
	"io"
	"reflect"
	"regexp"

	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/mimetype"
)

// BsonListSepString is a delimiter for top-level bson lists, which bson does not
// normally support. When multiple documents are being sent in a single payload,
// the unicode SYMBOL FOR RECORD SEPARATOR is used.
// (http://fileformat.info/info/unicode/char/241e/index.htm)
const BsonListSepString = "␞"

// BsonListSepBytes is a byte representation of BsonListSepString.
var BsonListSepBytes = []byte(BsonListSepString)

// split function used to separate the bson records.
func splitBsonFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	// Return nothing if at end of file and no data passed
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Find the index of a separator
	if i := bytes.Index(data, BsonListSepBytes); i >= 0 {
		return i + 3, data[0:i], nil
	}

	// If at end of file with data return the data
	if atEOF {
		return len(data), data, nil
	}

	return advance, token, err
}

// BsonCodecOpts holds options for registering additional BSON codecs with the
// default bson spec.
type BsonCodecOpts struct {
	// Type this codec handles encoding / decoding to.
	ValueType reflect.Type

	// Codec to register for this type.
	Codec bsoncodec.ValueCodec
}

var defaultBsonCodecs = []*BsonCodecOpts{
	{
		ValueType: reflect.TypeOf(uuid.UUID{}),
		Codec:     bsonCodecUUID{},
	},
}

// bsonCodecUUID handles encoding and decoding of UUID to and from bson.
type bsonCodecUUID struct{}

// Encodes uuid value to bson.
func (codec bsonCodecUUID) EncodeValue(
	encodeCTX bsoncodec.EncodeContext,
	valueWriter bsonrw.ValueWriter,
	value reflect.Value,
) error {
	valueUUID, _ := value.Interface().(uuid.UUID)
	_ = valueWriter.WriteBinaryWithSubtype(valueUUID.Bytes(), 0x3)

	return nil
}

// Decodes uuid value from bson.
func (codec bsonCodecUUID) DecodeValue(
	decodeCTX bsoncodec.DecodeContext,
	valueReader bsonrw.ValueReader,
	value reflect.Value,
) error {
	bytesUUID, _, _ := valueReader.ReadBinary()
	uuidVal, err := uuid.FromBytes(bytesUUID)

	if err != nil {
		return err
	}

	value.Set(reflect.ValueOf(uuidVal))

	return nil
}

// Detects whether a value is a sequence (array or slice).
func isSequence(value reflect.Value) bool {
	return value.Kind() == reflect.Slice || value.Kind() == reflect.Array
}

// Stateful bson codec bound to a bsoncodec registry.
type bsonAdapter struct {
	registry *bsoncodec.Registry
}

func (adapter *bsonAdapter) encodeSingle(
	writer io.Writer, content interface{},
) error {
	var bodyBSON bson.Raw

	incomingRaw, isRaw := content.(*bson.Raw)

	if !isRaw {
		marshalled, err := bson.MarshalWithRegistry(adapter.registry, content)
		if err != nil {
			return err
		}
		bodyBSON = marshalled
	} else {
		bodyBSON = *incomingRaw
	}

	_, err := writer.Write(bodyBSON)
	return err
}

// Used to encode multiple bson objects to a single payload.
func (adapter *bsonAdapter) encodeMany(
	writer io.Writer, content reflect.Value,
) error {
	// We need to know when we are on the final index so if we hit the last item
	// we know that we don't need to write the separator.
	finalIndex := content.Len() - 1

	for arrayIndex := 0; arrayIndex <= finalIndex; arrayIndex++ {
		listValue := content.Index(arrayIndex)

		err := adapter.encodeSingle(writer, listValue.Interface())
		if err != nil {
			return err
		}

		// Write the delimiter if we are not on the final item.
		if arrayIndex != finalIndex {
			_, err = writer.Write(BsonListSepBytes)
			if err != nil {
				return xerrors.Errorf(
					"error writing document separator: %w", err,
				)
			}
		}
	}
	return nil
}

func (adapter *bsonAdapter) Encode(writer io.Writer, content interface{}) error {
	contentValue := reflect.Indirect(reflect.ValueOf(content))
	// Raw documents are already bytes and must not be treated as a sequence.
	_, isRaw := content.(*bson.Raw)

	if isSequence(contentValue) && !isRaw {
		return adapter.encodeMany(writer, contentValue)
	}
	return adapter.encodeSingle(writer, content)
}

// Decodes a single bson document.
func (adapter *bsonAdapter) decodeSingle(
	reader io.Reader, contentReceiver interface{},
) error {
	document, err := bson.NewFromIOReader(reader)
	if err != nil {
		return err
	}

	return bson.UnmarshalWithRegistry(adapter.registry, document, contentReceiver)
}

// Decodes multiple separator-delimited bson documents into a slice receiver.
func (adapter *bsonAdapter) decodeMany(
	reader io.Reader, contentReceiver interface{},
) error {
	slicePointer := reflect.ValueOf(contentReceiver)
	if slicePointer.Kind() != reflect.Ptr {
		return xerrors.New("slice receiver must be pointer")
	}
	sliceValue := slicePointer.Elem()

	// Get the element type for the slice.
	elementType := reflect.TypeOf(contentReceiver).Elem().Elem()
	docScanner := bufio.NewScanner(reader)
	docScanner.Split(splitBsonFunc)

	// Iterate through documents.
	for docScanner.Scan() {
		docBuff := bytes.NewBuffer(docScanner.Bytes())
		newElement := reflect.New(elementType)

		err := adapter.decodeSingle(docBuff, newElement.Interface())
		if err != nil {
			return err
		}

		sliceValue.Set(reflect.Append(sliceValue, newElement.Elem()))
	}

	return nil
}

func (adapter *bsonAdapter) Decode(
	reader io.Reader, contentReceiver interface{},
) error {
	receiverValue := reflect.Indirect(reflect.ValueOf(contentReceiver))

	// If the receiver is a slice or array, we need to decode multiple documents.
	if isSequence(receiverValue) {
		return adapter.decodeMany(reader, contentReceiver)
	}
	return adapter.decodeSingle(reader, contentReceiver)
}

var bsonPattern = regexp.MustCompile(`^application/(.+\+)?bson$`)

/*
BSONSpec declares the default bson format backed by the mongo-driver bson
registry. UUIDs are stored as 0x3 subtype binary fields, and top-level document
lists are framed with BsonListSepString.

Additional value codecs can be registered by passing BsonCodecOpts; pass nil for
the defaults alone.
*/
func BSONSpec(codecs []*BsonCodecOpts) *Spec {
	builder := bsoncodec.NewRegistryBuilder()
	bsoncodec.DefaultValueEncoders{}.RegisterDefaultEncoders(builder)
	bsoncodec.DefaultValueDecoders{}.RegisterDefaultDecoders(builder)

	for _, codecOpts := range append(defaultBsonCodecs, codecs...) {
		builder.RegisterCodec(codecOpts.ValueType, codecOpts.Codec)
	}

	adapter := &bsonAdapter{registry: builder.Build()}

	return &Spec{
		Key:        "bson",
		Offers:     []mimetype.MimeType{mimetype.BSON},
		Patterns:   []*regexp.Regexp{bsonPattern},
		Decoder:    adapter.Decode,
		Encoder:    adapter.Encode,
		SelfEncode: SelfRender("bson"),
	}
}
