// Package model defines the core data structures used throughout the payload builder.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/valyala/fastjson"
)

// RawKind tells whether a RawMessage carries plain text or a keyed object.
type RawKind int

const (
	// RawText is a plain string entry.
	RawText RawKind = iota
	// RawObject is a keyed (JSON-shaped) entry.
	RawObject
)

// String returns the kind name.
func (k RawKind) String() string {
	switch k {
	case RawText:
		return "text"
	case RawObject:
		return "object"
	default:
		return fmt.Sprintf("RawKind(%d)", int(k))
	}
}

// RawMessage is one unit of log content before transformation.
// It is either a plain string or a keyed object.
type RawMessage struct {
	kind   RawKind
	text   string
	fields map[string]any

	// keys keeps the object's key order for re-serialization.
	keys []string

	// source is the compact JSON the object was parsed from, if any.
	source []byte
}

// TextMessage creates a plain string RawMessage.
func TextMessage(s string) RawMessage {
	return RawMessage{kind: RawText, text: s}
}

// ObjectMessage creates a keyed RawMessage from a map.
// Keys are serialized in sorted order by JSON.
func ObjectMessage(fields map[string]any) RawMessage {
	keys := make([]string, 0, len(fields))
	cp := make(map[string]any, len(fields))
	for k, v := range fields {
		keys = append(keys, k)
		cp[k] = v
	}
	sort.Strings(keys)
	return RawMessage{kind: RawObject, fields: cp, keys: keys}
}

// ParseObjectMessage parses a JSON object into a keyed RawMessage.
// The original key order is retained, so JSON returns the input in compact form.
func ParseObjectMessage(data []byte) (RawMessage, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return RawMessage{}, fmt.Errorf("parsing JSON message: %w", err)
	}
	return ObjectMessageFromValue(v)
}

// ObjectMessageFromValue converts a parsed fastjson object into a RawMessage.
// The value must not be used by the caller's parser again before this returns.
func ObjectMessageFromValue(v *fastjson.Value) (RawMessage, error) {
	obj, err := v.Object()
	if err != nil {
		return RawMessage{}, fmt.Errorf("JSON message is not an object: %w", err)
	}

	msg := RawMessage{
		kind:   RawObject,
		fields: make(map[string]any, obj.Len()),
		source: v.MarshalTo(nil),
	}
	obj.Visit(func(key []byte, val *fastjson.Value) {
		k := string(key)
		if _, dup := msg.fields[k]; !dup {
			msg.keys = append(msg.keys, k)
		}
		msg.fields[k] = fromFastJSON(val)
	})
	return msg, nil
}

// fromFastJSON converts a fastjson value into plain Go values.
// Numbers are float64, like encoding/json.
func fromFastJSON(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeArray:
		arr := v.GetArray()
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = fromFastJSON(item)
		}
		return out
	case fastjson.TypeObject:
		out := make(map[string]any)
		v.GetObject().Visit(func(key []byte, val *fastjson.Value) {
			out[string(key)] = fromFastJSON(val)
		})
		return out
	default:
		return nil
	}
}

// Kind returns whether the message is text or an object.
func (m RawMessage) Kind() RawKind {
	return m.kind
}

// IsText reports whether the message is a plain string.
func (m RawMessage) IsText() bool {
	return m.kind == RawText
}

// IsObject reports whether the message is a keyed object.
func (m RawMessage) IsObject() bool {
	return m.kind == RawObject
}

// Text returns the string content. Empty for objects.
func (m RawMessage) Text() string {
	return m.text
}

// Get returns the value stored under key for object messages.
func (m RawMessage) Get(key string) (any, bool) {
	if m.kind != RawObject {
		return nil, false
	}
	v, ok := m.fields[key]
	return v, ok
}

// Keys returns the object keys in serialization order.
func (m RawMessage) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Fields returns a copy of the object fields.
func (m RawMessage) Fields() map[string]any {
	out := make(map[string]any, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// JSON serializes the message. Text messages become JSON strings,
// objects keep their key order.
func (m RawMessage) JSON() ([]byte, error) {
	if m.kind == RawText {
		return json.Marshal(m.text)
	}
	if m.source != nil {
		out := make([]byte, len(m.source))
		copy(out, m.source)
		return out, nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.fields[k])
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the text content, or the JSON form of an object.
func (m RawMessage) String() string {
	if m.kind == RawText {
		return m.text
	}
	data, err := m.JSON()
	if err != nil {
		return fmt.Sprintf("%v", m.fields)
	}
	return string(data)
}
