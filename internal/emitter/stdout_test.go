package emitter

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/GabrielNunesIT/log-payload/internal/testutil"
)

func TestStdoutEmitter_Base64(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewStdoutEmitter(&buf, false, testutil.NewTestLogger())

	if emitter.Name() != "stdout" {
		t.Errorf("expected name 'stdout', got %q", emitter.Name())
	}

	payload := []byte{0x78, 0x9c, 0xff, 0x00}
	if err := emitter.Emit(context.Background(), payload); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if err := emitter.Emit(context.Background(), payload); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	decoded, err := base64.StdEncoding.DecodeString(lines[0])
	if err != nil {
		t.Fatalf("output is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("expected %x, got %x", payload, decoded)
	}
	if !strings.HasPrefix(lines[0], "eJ") {
		t.Errorf("expected zlib payload to start with eJ, got %q", lines[0])
	}
}

func TestStdoutEmitter_Raw(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewStdoutEmitter(&buf, true, testutil.NewTestLogger())

	_ = emitter.Start(context.Background())
	defer emitter.Stop(context.Background())

	payload := []byte{0x78, 0x9c, 0x0a}
	if err := emitter.Emit(context.Background(), payload); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	if !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("expected raw bytes %x, got %x", payload, buf.Bytes())
	}
}
