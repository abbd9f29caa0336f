package model

// Schema field names of a structured log record.
const (
	FieldMessageTs     = "messageTs"
	FieldMessageTsUs   = "messageTsUs"
	FieldPriority      = "priority"
	FieldProgName      = "progName"
	FieldPid           = "pid"
	FieldMessage       = "message"
	FieldMessageType   = "messageType"
	FieldMessageTypeID = "messageTypeId"
)

// LogRecord is the structured form of one raw message, keyed by schema field name.
// It is produced by an untrusted parse callback, so values are loosely typed
// and checked against the schema at encode time. A nil value counts as absent.
type LogRecord map[string]any

// Get returns the value of a field, treating nil as absent.
func (r LogRecord) Get(name string) (any, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
