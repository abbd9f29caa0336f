package ingestor

import (
	"bufio"
	"bytes"
	"io"

	"github.com/valyala/fastjson"

	"github.com/GabrielNunesIT/log-payload/internal/model"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

var parserPool fastjson.ParserPool

// ParseLine turns one input line into a raw message. Lines that start with
// '{' and hold a valid JSON object become object messages; everything else,
// including malformed JSON, is kept as text. Blank lines yield ok == false.
func ParseLine(line []byte) (msg model.RawMessage, ok bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return model.RawMessage{}, false
	}

	if trimmed[0] == '{' {
		p := parserPool.Get()
		defer parserPool.Put(p)

		if v, err := p.ParseBytes(trimmed); err == nil {
			if obj, err := model.ObjectMessageFromValue(v); err == nil {
				return obj, true
			}
		}
	}

	return model.TextMessage(string(bytes.TrimRight(line, "\r"))), true
}

// ReadMessages reads newline separated messages from r until EOF.
func ReadMessages(r io.Reader) ([]model.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	// Increase buffer for long lines
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var msgs []model.RawMessage
	for scanner.Scan() {
		if msg, ok := ParseLine(scanner.Bytes()); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs, scanner.Err()
}

// splitComplete returns the prefix of data that ends with a newline.
// A trailing partial line is left for a later read.
func splitComplete(data []byte) []byte {
	i := bytes.LastIndexByte(data, '\n')
	if i < 0 {
		return nil
	}
	return data[:i+1]
}
