package transport

import (
	"io"
	"strings"
	"testing"
)

func TestSSEReader_SingleEvent(t *testing.T) {
	r := newSSEReader(strings.NewReader("data: {\"a\":1}\n\n"))
	payload, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if payload != `{"a":1}` {
		t.Errorf("unexpected payload: %q", payload)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestSSEReader_MultiLinePayload(t *testing.T) {
	body := "data: {\ndata:   \"a\": 1\ndata: }\n\n"
	r := newSSEReader(strings.NewReader(body))
	payload, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	want := "{\n  \"a\": 1\n}"
	if payload != want {
		t.Errorf("reassembled payload mismatch:\ngot  %q\nwant %q", payload, want)
	}
}

func TestSSEReader_MultipleEvents(t *testing.T) {
	body := "data: first\n\nevent: message\ndata: second\n\n"
	r := newSSEReader(strings.NewReader(body))

	first, err := r.Next()
	if err != nil || first != "first" {
		t.Fatalf("first event: %q, %v", first, err)
	}
	second, err := r.Next()
	if err != nil || second != "second" {
		t.Fatalf("second event: %q, %v", second, err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestSSEReader_FlushAtEOF(t *testing.T) {
	// Stream ends without the terminating blank line.
	r := newSSEReader(strings.NewReader("data: tail"))
	payload, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if payload != "tail" {
		t.Errorf("unexpected payload: %q", payload)
	}
}

func TestSSEReader_IgnoresOtherFields(t *testing.T) {
	body := ": comment\nevent: message\nid: 7\nretry: 100\ndata: x\n\n"
	r := newSSEReader(strings.NewReader(body))
	payload, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if payload != "x" {
		t.Errorf("unexpected payload: %q", payload)
	}
}

func TestSSEReader_CRLF(t *testing.T) {
	body := "data: {\"a\":1}\r\n\r\n"
	r := newSSEReader(strings.NewReader(body))
	payload, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if payload != `{"a":1}` {
		t.Errorf("unexpected payload: %q", payload)
	}
}

func TestSSEReader_EmptyStream(t *testing.T) {
	r := newSSEReader(strings.NewReader(""))
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}
