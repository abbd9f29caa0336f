// Package schema holds the fixed binary schema of the log envelope and the codec
// that validates and encodes records and host metadata against it.
//
// The wire format is protobuf. Validation and encoding walk the same static
// descriptor tables, so the two can never disagree.
package schema

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// Kind is the schema type of a scalar field.
type Kind int

const (
	// KindString is a UTF-8 string (length-delimited).
	KindString Kind = iota
	// KindInt32 is a 32-bit integer (fixed32).
	KindInt32
	// KindInt64 is a 64-bit integer, "Long" (fixed64).
	KindInt64
	// KindUint64 is an unsigned 64-bit integer (varint).
	KindUint64
	// KindBytes is an opaque byte string (length-delimited).
	KindBytes
)

// Expected returns the type description used in validation errors.
func (k Kind) Expected() string {
	switch k {
	case KindString:
		return "string"
	case KindInt32:
		return "integer"
	case KindInt64, KindUint64:
		return "integer|Long"
	case KindBytes:
		return "buffer"
	default:
		return "unknown"
	}
}

// Field describes one scalar field of a schema message.
type Field struct {
	Name     string
	Number   protowire.Number
	Kind     Kind
	Required bool
	// NonEmpty rejects empty strings for required string fields.
	NonEmpty bool
}

// RecordFields is the structured log record schema, in declaration order.
// Validation reports the first failing field in this order.
var RecordFields = []Field{
	{Name: model.FieldMessageTs, Number: 2, Kind: KindInt64, Required: true},
	{Name: model.FieldPriority, Number: 3, Kind: KindInt32, Required: true},
	{Name: model.FieldProgName, Number: 4, Kind: KindString, Required: true},
	{Name: model.FieldPid, Number: 5, Kind: KindInt32},
	{Name: model.FieldMessage, Number: 6, Kind: KindString, Required: true},
	{Name: model.FieldMessageType, Number: 7, Kind: KindString, Required: true},
	{Name: model.FieldMessageTypeID, Number: 8, Kind: KindString, Required: true},
	{Name: model.FieldMessageTsUs, Number: 9, Kind: KindInt64},
}

// Host metadata element schema.
var (
	elemKey   = Field{Name: "key", Number: 1, Kind: KindString, Required: true, NonEmpty: true}
	elemValue = protowire.Number(2)
)

// Host metadata value one-of members.
const (
	valueBool   protowire.Number = 1
	valueInt    protowire.Number = 2
	valueStr    protowire.Number = 3
	valueBytes  protowire.Number = 4
	valueDouble protowire.Number = 5
)

// Field numbers of the envelope messages.
const (
	// batch list
	listElem protowire.Number = 1

	// batch
	batchSourceID protowire.Number = 1
	batchHost     protowire.Number = 2
	batchMessage  protowire.Number = 3

	// host
	hostUUID     protowire.Number = 1
	hostChecksum protowire.Number = 2
	hostTime     protowire.Number = 3
	hostData     protowire.Number = 4

	// host metadata
	metadataElem protowire.Number = 1
)

