package ingestor

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestReaderIngestor(t *testing.T) {
	input := "line 1\n{\"message\":\"m1\",\"filter\":\"pass\"}\nline 3\n"
	reader := bytes.NewBufferString(input)

	ingestor := NewReaderIngestor("stdin", reader, zerolog.Nop())

	if ingestor.Name() != "stdin" {
		t.Errorf("expected name 'stdin', got %q", ingestor.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make(chan Batch, 1)

	go func() {
		err := ingestor.Start(ctx, out)
		if err != nil && err != context.Canceled {
			t.Errorf("Start failed: %v", err)
		}
	}()

	var batches []Batch
	for batch := range out {
		batches = append(batches, batch)
	}

	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	msgs := batches[0].Messages
	if batches[0].Source != "stdin" {
		t.Errorf("expected source 'stdin', got %q", batches[0].Source)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}

	if !msgs[0].IsText() || msgs[0].Text() != "line 1" {
		t.Errorf("message 0: expected text 'line 1', got %v", msgs[0])
	}
	if !msgs[1].IsObject() {
		t.Fatalf("message 1: expected object, got %v", msgs[1].Kind())
	}
	if v, _ := msgs[1].Get("filter"); v != "pass" {
		t.Errorf("message 1: expected filter=pass, got %v", v)
	}
	if !msgs[2].IsText() || msgs[2].Text() != "line 3" {
		t.Errorf("message 2: expected text 'line 3', got %v", msgs[2])
	}
}

func TestReaderIngestor_EmptyInput(t *testing.T) {
	ingestor := NewReaderIngestor("empty", bytes.NewBufferString("\n\n"), zerolog.Nop())

	out := make(chan Batch, 1)
	if err := ingestor.Start(context.Background(), out); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, ok := <-out; ok {
		t.Error("expected no batch for blank input")
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantKind string
		wantJSON string
	}{
		{name: "blank", line: "   ", wantOK: false},
		{name: "text", line: "message1", wantOK: true, wantKind: "text", wantJSON: `"message1"`},
		{name: "crlf", line: "message1\r", wantOK: true, wantKind: "text", wantJSON: `"message1"`},
		{name: "object", line: `{"a":1,"b":"x"}`, wantOK: true, wantKind: "object", wantJSON: `{"a":1,"b":"x"}`},
		{name: "object with spaces", line: `  {"a": 1}  `, wantOK: true, wantKind: "object", wantJSON: `{"a":1}`},
		{name: "malformed JSON stays text", line: `{"a":`, wantOK: true, wantKind: "text", wantJSON: `"{\"a\":"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := ParseLine([]byte(tt.line))
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if msg.Kind().String() != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, msg.Kind())
			}
			data, err := msg.JSON()
			if err != nil {
				t.Fatalf("JSON failed: %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("expected JSON %s, got %s", tt.wantJSON, data)
			}
		})
	}
}

func TestSplitComplete(t *testing.T) {
	if got := splitComplete([]byte("a\nb\npartial")); string(got) != "a\nb\n" {
		t.Errorf("unexpected complete prefix %q", got)
	}
	if got := splitComplete([]byte("partial")); got != nil {
		t.Errorf("expected nil for a partial line, got %q", got)
	}
}
