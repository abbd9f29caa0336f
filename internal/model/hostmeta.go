package model

// Value is a one-of scalar attached to a host metadata element.
// Exactly one field is expected to be set.
type Value struct {
	Bool   *bool
	Int    *int64
	Str    *string
	Bytes  []byte
	Double *float64
}

// StrValue creates a string Value.
func StrValue(s string) Value {
	return Value{Str: &s}
}

// IntValue creates an integer Value.
func IntValue(i int64) Value {
	return Value{Int: &i}
}

// BoolValue creates a boolean Value.
func BoolValue(b bool) Value {
	return Value{Bool: &b}
}

// DoubleValue creates a floating point Value.
func DoubleValue(f float64) Value {
	return Value{Double: &f}
}

// BytesValue creates a bytes Value.
func BytesValue(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{Bytes: cp}
}

// SetCount returns how many of the one-of fields are populated.
func (v Value) SetCount() int {
	n := 0
	if v.Bool != nil {
		n++
	}
	if v.Int != nil {
		n++
	}
	if v.Str != nil {
		n++
	}
	if v.Bytes != nil {
		n++
	}
	if v.Double != nil {
		n++
	}
	return n
}

// HostMetaElement describes one attribute of the reporting host or source,
// such as host type or local hostname.
type HostMetaElement struct {
	Key   string
	Value Value
}

// HostMetaString is a shorthand for a string-valued element.
func HostMetaString(key, value string) HostMetaElement {
	return HostMetaElement{Key: key, Value: StrValue(value)}
}

// Well-known host metadata keys.
const (
	HostMetaLocalHostname = "local_hostname"
	HostMetaHostType      = "host_type"
)
