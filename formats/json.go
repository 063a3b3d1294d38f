package formats

import (
	"encoding/hex"
	"io"
	"reflect"
	"regexp"

	uuid "github.com/satori/go.uuid"
	"github.com/ugorji/go/codec"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"

	"github.com/illuscio-dev/negotools-go/mimetype"
	"github.com/illuscio-dev/negotools-go/wiretypes"
)

// JSONExtensionOpts holds options for a JSON handle extension to register on spec
// construction.
type JSONExtensionOpts struct {
	ValueType    reflect.Type
	ExtInterface codec.InterfaceExt
}

// defaultJSONExtensions holds all the JSONExtensionOpts registered on the default
// JSON handle.
var defaultJSONExtensions = []*JSONExtensionOpts{
	{
		ValueType:    reflect.TypeOf(uuid.UUID{}),
		ExtInterface: &jsonExtUUID{},
	},
	{
		ValueType:    reflect.TypeOf(wiretypes.BinData{}),
		ExtInterface: &jsonExtBinData{},
	},
	{
		ValueType:    reflect.TypeOf(primitive.Binary{}),
		ExtInterface: &jsonExtBsonBinary{},
	},
}

// Represents UUIDs as their canonical string form in json.
type jsonExtUUID struct{}

func (ext *jsonExtUUID) ConvertExt(value interface{}) interface{} {
	switch valueUUID := value.(type) {
	case *uuid.UUID:
		return valueUUID.String()
	case uuid.UUID:
		return valueUUID.String()
	}
	panic(xerrors.New("uuid extension received non-uuid value"))
}

func (ext *jsonExtUUID) UpdateExt(dest interface{}, value interface{}) {
	valueString, ok := value.(string)
	if !ok {
		panic(xerrors.New("uuid field must be decoded from a string"))
	}

	parsed, err := uuid.FromString(valueString)
	if err != nil {
		panic(xerrors.Errorf("error parsing uuid: %w", err))
	}

	*dest.(*uuid.UUID) = parsed
}

// Hexifies binary blob data for json transport.
type jsonExtBinData struct{}

func (ext *jsonExtBinData) ConvertExt(value interface{}) interface{} {
	switch valueBin := value.(type) {
	case *wiretypes.BinData:
		return hex.EncodeToString(*valueBin)
	case wiretypes.BinData:
		return hex.EncodeToString(valueBin)
	}
	panic(xerrors.New("binary extension received non-BinData value"))
}

func (ext *jsonExtBinData) UpdateExt(dest interface{}, value interface{}) {
	valueString, ok := value.(string)
	if !ok {
		panic(xerrors.New("binary field must be decoded from a hex string"))
	}

	decoded, err := hex.DecodeString(valueString)
	if err != nil {
		panic(xerrors.Errorf("error decoding hex blob: %w", err))
	}

	*dest.(*wiretypes.BinData) = decoded
}

// Converts BSON binary fields to json. Currently supports Binary blobs and UUIDs.
type jsonExtBsonBinary struct{}

func (ext *jsonExtBsonBinary) ConvertExt(value interface{}) interface{} {
	valueBin := value.(*primitive.Binary)
	if valueBin.Subtype == 0x3 {
		valueUUID, err := uuid.FromBytes(valueBin.Data)
		if err != nil {
			panic(xerrors.Errorf("error converting bson uuid: %w", err))
		}
		return valueUUID
	}

	if valueBin.Subtype == 0x0 {
		return wiretypes.BinData(valueBin.Data)
	}

	panic(xerrors.New("unsupported Binary BSON format"))
}

func (ext *jsonExtBsonBinary) UpdateExt(dest interface{}, value interface{}) {
	panic(
		xerrors.New(
			"decoding to bson binary field not supported -- " +
				"use uuid or BinData type as intermediary",
		),
	)
}

// Decoded objects land in map[string]interface{} rather than the codec default of
// map[interface{}]interface{}.
var mapStringInterfaceType = reflect.TypeOf(map[string]interface{}(nil))

// Builds a codec.JsonHandle with the default extensions registered.
func newJSONHandle(extensions []*JSONExtensionOpts) (*codec.JsonHandle, error) {
	handle := &codec.JsonHandle{}
	handle.MapType = mapStringInterfaceType

	for _, extOpts := range extensions {
		err := handle.SetInterfaceExt(extOpts.ValueType, 1, extOpts.ExtInterface)
		if err != nil {
			return nil, xerrors.Errorf(
				"error adding json extension to handle: %w", err,
			)
		}
	}

	return handle, nil
}

var jsonPattern = regexp.MustCompile(`^application/(.+\+)?json$`)

/*
JSONSpec declares the default json format: codec.JsonHandle with extensions for
UUIDs, wiretypes.BinData (hexified), and bson primitive.Binary fields. The
fallback pattern also claims "+json" suffixed media types such as
"application/vnd.api+json".

Additional extensions can be registered by passing JSONExtensionOpts; pass nil for
the defaults alone.
*/
func JSONSpec(extensions []*JSONExtensionOpts) (*Spec, error) {
	handle, err := newJSONHandle(append(defaultJSONExtensions, extensions...))
	if err != nil {
		return nil, err
	}

	return &Spec{
		Key:      "json",
		Offers:   []mimetype.MimeType{mimetype.JSON},
		Patterns: []*regexp.Regexp{jsonPattern},
		Decoder: func(reader io.Reader, receiver interface{}) error {
			return codec.NewDecoder(reader, handle).Decode(receiver)
		},
		Encoder: func(writer io.Writer, content interface{}) error {
			return codec.NewEncoder(writer, handle).Encode(content)
		},
		SelfEncode: SelfRender("json"),
	}, nil
}
