// Package emitter defines the interface and implementations for payload destinations.
package emitter

import (
	"context"
	"encoding/base64"
)

// Emitter defines the contract for payload destinations.
// Each emitter receives finished compressed payloads and stores or forwards them.
type Emitter interface {
	// Start initializes the emitter (files, buffers, etc.).
	// Called once before Emit is called.
	Start(ctx context.Context) error

	// Emit writes one payload to the destination.
	// Must be safe to call concurrently.
	Emit(ctx context.Context, payload []byte) error

	// Stop gracefully shuts down the emitter.
	// Should flush any buffered data before returning.
	Stop(ctx context.Context) error

	// Name returns a unique identifier for this emitter.
	Name() string
}

// encodeLine renders a payload as one base64 line.
func encodeLine(payload []byte) []byte {
	line := make([]byte, base64.StdEncoding.EncodedLen(len(payload))+1)
	base64.StdEncoding.Encode(line, payload)
	line[len(line)-1] = '\n'
	return line
}
